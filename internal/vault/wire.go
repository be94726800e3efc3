package vault

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf16"

	"github.com/google/uuid"
)

// Encode serializes n deterministically: the field mask first, then every
// set field in ordinal order (spec.md §3.1). Strings are length-prefixed
// (byte count including a trailing UTF-16 NUL), UTF-16LE, NUL-terminated.
func Encode(n *Node) []byte {
	var buf bytes.Buffer
	writeU64(&buf, uint64(n.Fields))
	for f := Field(0); f < fieldCount; f++ {
		if !n.Fields.Has(f) {
			continue
		}
		writeField(&buf, n, f)
	}
	return buf.Bytes()
}

func writeField(buf *bytes.Buffer, n *Node, f Field) {
	switch f {
	case FieldNodeIdx:
		writeU32(buf, n.NodeIdx)
	case FieldCreateTime:
		writeU32(buf, n.CreateTime)
	case FieldModifyTime:
		writeU32(buf, n.ModifyTime)
	case FieldCreateAgeName:
		writeString(buf, n.CreateAgeName)
	case FieldCreateAgeUuid:
		writeUUID(buf, n.CreateAgeUuid)
	case FieldCreatorUuid:
		writeUUID(buf, n.CreatorUuid)
	case FieldCreatorIdx:
		writeU32(buf, n.CreatorIdx)
	case FieldNodeType:
		writeU32(buf, uint32(n.NodeType))
	case FieldInt32_1:
		writeU32(buf, uint32(n.Int32_1))
	case FieldInt32_2:
		writeU32(buf, uint32(n.Int32_2))
	case FieldInt32_3:
		writeU32(buf, uint32(n.Int32_3))
	case FieldInt32_4:
		writeU32(buf, uint32(n.Int32_4))
	case FieldUint32_1:
		writeU32(buf, n.Uint32_1)
	case FieldUint32_2:
		writeU32(buf, n.Uint32_2)
	case FieldUint32_3:
		writeU32(buf, n.Uint32_3)
	case FieldUint32_4:
		writeU32(buf, n.Uint32_4)
	case FieldUuid_1:
		writeUUID(buf, n.Uuid_1)
	case FieldUuid_2:
		writeUUID(buf, n.Uuid_2)
	case FieldUuid_3:
		writeUUID(buf, n.Uuid_3)
	case FieldUuid_4:
		writeUUID(buf, n.Uuid_4)
	case FieldString64_1:
		writeString(buf, n.String64_1)
	case FieldString64_2:
		writeString(buf, n.String64_2)
	case FieldString64_3:
		writeString(buf, n.String64_3)
	case FieldString64_4:
		writeString(buf, n.String64_4)
	case FieldString64_5:
		writeString(buf, n.String64_5)
	case FieldString64_6:
		writeString(buf, n.String64_6)
	case FieldIString64_1:
		writeString(buf, n.IString64_1)
	case FieldIString64_2:
		writeString(buf, n.IString64_2)
	case FieldText_1:
		writeString(buf, n.Text_1)
	case FieldText_2:
		writeString(buf, n.Text_2)
	case FieldBlob_1:
		writeBlob(buf, n.Blob_1)
	case FieldBlob_2:
		writeBlob(buf, n.Blob_2)
	}
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeUUID(buf *bytes.Buffer, u uuid.UUID) { buf.Write(u[:]) }

func writeString(buf *bytes.Buffer, s string) {
	units := utf16.Encode([]rune(s))
	writeU32(buf, uint32((len(units)+1)*2))
	for _, u := range units {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], u)
		buf.Write(b[:])
	}
	buf.Write([]byte{0, 0})
}

func writeBlob(buf *bytes.Buffer, b []byte) {
	writeU32(buf, uint32(len(b)))
	buf.Write(b)
}

// Decode parses a Node out of a byte-for-byte Encode output.
func Decode(data []byte) (*Node, error) {
	r := bytes.NewReader(data)
	mask, err := readU64(r)
	if err != nil {
		return nil, err
	}
	n := &Node{Fields: Mask(mask)}
	for f := Field(0); f < fieldCount; f++ {
		if !n.Fields.Has(f) {
			continue
		}
		if err := readField(r, n, f); err != nil {
			return nil, fmt.Errorf("vault: decode field %d: %w", f, err)
		}
	}
	return n, nil
}

func readField(r *bytes.Reader, n *Node, f Field) (err error) {
	switch f {
	case FieldNodeIdx:
		n.NodeIdx, err = readU32(r)
	case FieldCreateTime:
		n.CreateTime, err = readU32(r)
	case FieldModifyTime:
		n.ModifyTime, err = readU32(r)
	case FieldCreateAgeName:
		n.CreateAgeName, err = readString(r)
	case FieldCreateAgeUuid:
		n.CreateAgeUuid, err = readUUID(r)
	case FieldCreatorUuid:
		n.CreatorUuid, err = readUUID(r)
	case FieldCreatorIdx:
		n.CreatorIdx, err = readU32(r)
	case FieldNodeType:
		var v uint32
		v, err = readU32(r)
		n.NodeType = int32(v)
	case FieldInt32_1:
		var v uint32
		v, err = readU32(r)
		n.Int32_1 = int32(v)
	case FieldInt32_2:
		var v uint32
		v, err = readU32(r)
		n.Int32_2 = int32(v)
	case FieldInt32_3:
		var v uint32
		v, err = readU32(r)
		n.Int32_3 = int32(v)
	case FieldInt32_4:
		var v uint32
		v, err = readU32(r)
		n.Int32_4 = int32(v)
	case FieldUint32_1:
		n.Uint32_1, err = readU32(r)
	case FieldUint32_2:
		n.Uint32_2, err = readU32(r)
	case FieldUint32_3:
		n.Uint32_3, err = readU32(r)
	case FieldUint32_4:
		n.Uint32_4, err = readU32(r)
	case FieldUuid_1:
		n.Uuid_1, err = readUUID(r)
	case FieldUuid_2:
		n.Uuid_2, err = readUUID(r)
	case FieldUuid_3:
		n.Uuid_3, err = readUUID(r)
	case FieldUuid_4:
		n.Uuid_4, err = readUUID(r)
	case FieldString64_1:
		n.String64_1, err = readString(r)
	case FieldString64_2:
		n.String64_2, err = readString(r)
	case FieldString64_3:
		n.String64_3, err = readString(r)
	case FieldString64_4:
		n.String64_4, err = readString(r)
	case FieldString64_5:
		n.String64_5, err = readString(r)
	case FieldString64_6:
		n.String64_6, err = readString(r)
	case FieldIString64_1:
		n.IString64_1, err = readString(r)
	case FieldIString64_2:
		n.IString64_2, err = readString(r)
	case FieldText_1:
		n.Text_1, err = readString(r)
	case FieldText_2:
		n.Text_2, err = readString(r)
	case FieldBlob_1:
		n.Blob_1, err = readBlob(r)
	case FieldBlob_2:
		n.Blob_2, err = readBlob(r)
	}
	return
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readUUID(r *bytes.Reader) (uuid.UUID, error) {
	var u uuid.UUID
	if _, err := io.ReadFull(r, u[:]); err != nil {
		return uuid.UUID{}, err
	}
	return u, nil
}

func readString(r *bytes.Reader) (string, error) {
	length, err := readU32(r)
	if err != nil {
		return "", err
	}
	if length%2 != 0 {
		return "", fmt.Errorf("vault: malformed string length %d", length)
	}
	count := length / 2
	units := make([]uint16, count)
	for i := range units {
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", err
		}
		units[i] = binary.LittleEndian.Uint16(b[:])
	}
	// drop the trailing NUL (and any embedded one, mirroring the original's
	// NUL-terminated semantics).
	for i, u := range units {
		if u == 0 {
			units = units[:i]
			break
		}
	}
	return string(utf16.Decode(units)), nil
}

func readBlob(r *bytes.Reader) ([]byte, error) {
	size, err := readU32(r)
	if err != nil {
		return nil, err
	}
	b := make([]byte, size)
	if size > 0 {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}
