package sdl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Encode serializes s as the tagged binary record spec.md §6.4 describes:
// descriptor name, version, then each simple and sd variable in order.
func Encode(s *State) []byte {
	var buf bytes.Buffer
	writeBlobString(&buf, s.Desc.Name)
	writeU16(&buf, uint16(s.Desc.Version))
	writeU32(&buf, uint32(len(s.SimpleVars)))
	for _, v := range s.SimpleVars {
		writeVariable(&buf, v)
	}
	writeU32(&buf, uint32(len(s.SDVars)))
	for _, sd := range s.SDVars {
		buf.Write(Encode(sd))
	}
	return buf.Bytes()
}

func writeVariable(buf *bytes.Buffer, v *Variable) {
	buf.WriteByte(byte(v.Flags))
	if v.has(FlagHasTimeStamp) {
		writeU64(buf, uint64(v.Timestamp.Unix()))
	}
	if v.Desc.Count != 1 {
		writeU32(buf, uint32(len(v.Values)))
	}
	for _, val := range v.Values {
		writeBlobString(buf, val)
	}
}

// Decode parses a byte-for-byte Encode output against desc, used when the
// descriptor for a persisted blob's name/version is already known. Decode
// trusts desc's shape (count, types) rather than re-deriving it from the
// wire bytes, the way the catalog-driven SDL reader does.
func Decode(data []byte, desc *StateDescriptor) (*State, error) {
	r := bytes.NewReader(data)
	name, err := readBlobString(r)
	if err != nil {
		return nil, err
	}
	version, err := readU16(r)
	if err != nil {
		return nil, err
	}
	if desc == nil || name != desc.Name || int(version) != desc.Version {
		return nil, fmt.Errorf("sdl: blob descriptor mismatch: got %s v%d, want %s v%d",
			name, version, descName(desc), descVersion(desc))
	}
	s := &State{Desc: desc}

	count, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		var vd *VarDescriptor
		if int(i) < len(desc.SimpleVars) {
			vd = &desc.SimpleVars[i]
		}
		v, err := readVariable(r, vd)
		if err != nil {
			return nil, err
		}
		s.SimpleVars = append(s.SimpleVars, v)
	}

	sdCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < sdCount; i++ {
		var subDesc *StateDescriptor
		if int(i) < len(desc.SDVars) {
			subDesc = &StateDescriptor{Name: desc.SDVars[i].Name}
		}
		// sdVars are nested states; their own blob carries name/version, so
		// decode recursively against whatever sub-descriptor the catalog
		// would resolve (best-effort: callers with a full catalog should
		// re-decode via the catalog's Version lookup instead).
		sub, err := decodeNested(r, subDesc)
		if err != nil {
			return nil, err
		}
		s.SDVars = append(s.SDVars, sub)
	}
	return s, nil
}

func decodeNested(r *bytes.Reader, hint *StateDescriptor) (*State, error) {
	name, err := readBlobString(r)
	if err != nil {
		return nil, err
	}
	version, err := readU16(r)
	if err != nil {
		return nil, err
	}
	desc := &StateDescriptor{Name: name, Version: int(version)}
	if hint != nil {
		desc = hint
		desc.Version = int(version)
	}
	count, err := readU32(r)
	if err != nil {
		return nil, err
	}
	s := &State{Desc: desc}
	for i := uint32(0); i < count; i++ {
		var vd *VarDescriptor
		if int(i) < len(desc.SimpleVars) {
			vd = &desc.SimpleVars[i]
		}
		v, err := readVariable(r, vd)
		if err != nil {
			return nil, err
		}
		s.SimpleVars = append(s.SimpleVars, v)
	}
	sdCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < sdCount; i++ {
		sub, err := decodeNested(r, nil)
		if err != nil {
			return nil, err
		}
		s.SDVars = append(s.SDVars, sub)
	}
	return s, nil
}

func readVariable(r *bytes.Reader, vd *VarDescriptor) (*Variable, error) {
	flagByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	v := &Variable{Desc: vd, Flags: VarFlag(flagByte)}
	if v.has(FlagHasTimeStamp) {
		ts, err := readU64(r)
		if err != nil {
			return nil, err
		}
		v.Timestamp = time.Unix(int64(ts), 0).UTC()
	}
	count := 1
	if vd == nil || vd.Count != 1 {
		c, err := readU32(r)
		if err != nil {
			return nil, err
		}
		count = int(c)
	}
	for i := 0; i < count; i++ {
		val, err := readBlobString(r)
		if err != nil {
			return nil, err
		}
		v.Values = append(v.Values, val)
	}
	return v, nil
}

func descName(d *StateDescriptor) string {
	if d == nil {
		return "<nil>"
	}
	return d.Name
}

func descVersion(d *StateDescriptor) int {
	if d == nil {
		return -1
	}
	return d.Version
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
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

func writeBlobString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readU16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
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

func readBlobString(r *bytes.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, b); err != nil {
			return "", err
		}
	}
	return string(b), nil
}
