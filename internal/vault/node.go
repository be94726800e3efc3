// Package vault implements the persistent, graph-structured node database
// (spec.md §3.1, §3.2, §4.1): sparse typed records linked by parent/child
// references.
package vault

import (
	"strings"

	"github.com/google/uuid"
)

// Field is the ordinal position of one of a Node's ~30 typed slots. The
// bitmask in Fields is 1<<Field; serialization always walks fields in
// ordinal order.
type Field uint

const (
	FieldNodeIdx Field = iota
	FieldCreateTime
	FieldModifyTime
	FieldCreateAgeName
	FieldCreateAgeUuid
	FieldCreatorUuid
	FieldCreatorIdx
	FieldNodeType
	FieldInt32_1
	FieldInt32_2
	FieldInt32_3
	FieldInt32_4
	FieldUint32_1
	FieldUint32_2
	FieldUint32_3
	FieldUint32_4
	FieldUuid_1
	FieldUuid_2
	FieldUuid_3
	FieldUuid_4
	FieldString64_1
	FieldString64_2
	FieldString64_3
	FieldString64_4
	FieldString64_5
	FieldString64_6
	FieldIString64_1
	FieldIString64_2
	FieldText_1
	FieldText_2
	FieldBlob_1
	FieldBlob_2

	fieldCount
)

// Mask is the field-present bitmask. A zero Mask means a null node.
type Mask uint64

func (f Field) Bit() Mask { return Mask(1) << Mask(f) }

func (m Mask) Has(f Field) bool { return m&f.Bit() != 0 }

// Node is a sparse record: only the fields set in Fields carry meaningful
// values. Field order below matches the ordinal table in spec.md §3.1 and
// drives serialization in wire.go.
type Node struct {
	Fields Mask

	NodeIdx    uint32
	CreateTime uint32
	ModifyTime uint32

	CreateAgeName string
	CreateAgeUuid uuid.UUID
	CreatorUuid   uuid.UUID
	CreatorIdx    uint32

	NodeType int32

	Int32_1, Int32_2, Int32_3, Int32_4     int32
	Uint32_1, Uint32_2, Uint32_3, Uint32_4 uint32
	Uuid_1, Uuid_2, Uuid_3, Uuid_4         uuid.UUID

	String64_1, String64_2, String64_3 string
	String64_4, String64_5, String64_6 string
	IString64_1, IString64_2           string
	Text_1, Text_2                     string
	Blob_1, Blob_2                     []byte
}

// IsNull reports whether n carries no fields at all (spec.md §3.1).
func (n *Node) IsNull() bool { return n.Fields == 0 }

// Set marks f present in the field mask; it does not itself assign the value
// (callers set the Go field directly, then call Set, the way a sparse record
// composed by hand would).
func (n *Node) Set(f Field) { n.Fields |= f.Bit() }

// SetNodeIdx is a convenience for the common "idx must be set" requirement
// of Store.Update.
func (n *Node) SetNodeIdx(idx uint32) {
	n.NodeIdx = idx
	n.Set(FieldNodeIdx)
}

// Copy returns a deep copy of n, touching only the fields present in the
// mask (spec.md §9: copy semantics driven by the ordinal table, not type
// dispatch).
func (n *Node) Copy() *Node {
	dup := &Node{Fields: n.Fields}
	if n.Fields.Has(FieldNodeIdx) {
		dup.NodeIdx = n.NodeIdx
	}
	if n.Fields.Has(FieldCreateTime) {
		dup.CreateTime = n.CreateTime
	}
	if n.Fields.Has(FieldModifyTime) {
		dup.ModifyTime = n.ModifyTime
	}
	if n.Fields.Has(FieldCreateAgeName) {
		dup.CreateAgeName = n.CreateAgeName
	}
	if n.Fields.Has(FieldCreateAgeUuid) {
		dup.CreateAgeUuid = n.CreateAgeUuid
	}
	if n.Fields.Has(FieldCreatorUuid) {
		dup.CreatorUuid = n.CreatorUuid
	}
	if n.Fields.Has(FieldCreatorIdx) {
		dup.CreatorIdx = n.CreatorIdx
	}
	if n.Fields.Has(FieldNodeType) {
		dup.NodeType = n.NodeType
	}
	if n.Fields.Has(FieldInt32_1) {
		dup.Int32_1 = n.Int32_1
	}
	if n.Fields.Has(FieldInt32_2) {
		dup.Int32_2 = n.Int32_2
	}
	if n.Fields.Has(FieldInt32_3) {
		dup.Int32_3 = n.Int32_3
	}
	if n.Fields.Has(FieldInt32_4) {
		dup.Int32_4 = n.Int32_4
	}
	if n.Fields.Has(FieldUint32_1) {
		dup.Uint32_1 = n.Uint32_1
	}
	if n.Fields.Has(FieldUint32_2) {
		dup.Uint32_2 = n.Uint32_2
	}
	if n.Fields.Has(FieldUint32_3) {
		dup.Uint32_3 = n.Uint32_3
	}
	if n.Fields.Has(FieldUint32_4) {
		dup.Uint32_4 = n.Uint32_4
	}
	if n.Fields.Has(FieldUuid_1) {
		dup.Uuid_1 = n.Uuid_1
	}
	if n.Fields.Has(FieldUuid_2) {
		dup.Uuid_2 = n.Uuid_2
	}
	if n.Fields.Has(FieldUuid_3) {
		dup.Uuid_3 = n.Uuid_3
	}
	if n.Fields.Has(FieldUuid_4) {
		dup.Uuid_4 = n.Uuid_4
	}
	if n.Fields.Has(FieldString64_1) {
		dup.String64_1 = n.String64_1
	}
	if n.Fields.Has(FieldString64_2) {
		dup.String64_2 = n.String64_2
	}
	if n.Fields.Has(FieldString64_3) {
		dup.String64_3 = n.String64_3
	}
	if n.Fields.Has(FieldString64_4) {
		dup.String64_4 = n.String64_4
	}
	if n.Fields.Has(FieldString64_5) {
		dup.String64_5 = n.String64_5
	}
	if n.Fields.Has(FieldString64_6) {
		dup.String64_6 = n.String64_6
	}
	if n.Fields.Has(FieldIString64_1) {
		dup.IString64_1 = n.IString64_1
	}
	if n.Fields.Has(FieldIString64_2) {
		dup.IString64_2 = n.IString64_2
	}
	if n.Fields.Has(FieldText_1) {
		dup.Text_1 = n.Text_1
	}
	if n.Fields.Has(FieldText_2) {
		dup.Text_2 = n.Text_2
	}
	if n.Fields.Has(FieldBlob_1) {
		dup.Blob_1 = append([]byte(nil), n.Blob_1...)
	}
	if n.Fields.Has(FieldBlob_2) {
		dup.Blob_2 = append([]byte(nil), n.Blob_2...)
	}
	return dup
}

// istringFields lists the case-insensitive string fields, for Equal and for
// Store.FindNodes's comparator selection.
var istringFields = map[Field]bool{FieldIString64_1: true, FieldIString64_2: true}

// Equal reports whether n and o have identical masks and all set fields
// compare equal, case-insensitively for IString64_* (spec.md §3.1).
func (n *Node) Equal(o *Node) bool {
	if n.Fields != o.Fields {
		return false
	}
	for f := Field(0); f < fieldCount; f++ {
		if !n.Fields.Has(f) {
			continue
		}
		if !fieldEqual(n, o, f) {
			return false
		}
	}
	return true
}

func fieldEqual(n, o *Node, f Field) bool {
	switch f {
	case FieldNodeIdx:
		return n.NodeIdx == o.NodeIdx
	case FieldCreateTime:
		return n.CreateTime == o.CreateTime
	case FieldModifyTime:
		return n.ModifyTime == o.ModifyTime
	case FieldCreateAgeName:
		return n.CreateAgeName == o.CreateAgeName
	case FieldCreateAgeUuid:
		return n.CreateAgeUuid == o.CreateAgeUuid
	case FieldCreatorUuid:
		return n.CreatorUuid == o.CreatorUuid
	case FieldCreatorIdx:
		return n.CreatorIdx == o.CreatorIdx
	case FieldNodeType:
		return n.NodeType == o.NodeType
	case FieldInt32_1:
		return n.Int32_1 == o.Int32_1
	case FieldInt32_2:
		return n.Int32_2 == o.Int32_2
	case FieldInt32_3:
		return n.Int32_3 == o.Int32_3
	case FieldInt32_4:
		return n.Int32_4 == o.Int32_4
	case FieldUint32_1:
		return n.Uint32_1 == o.Uint32_1
	case FieldUint32_2:
		return n.Uint32_2 == o.Uint32_2
	case FieldUint32_3:
		return n.Uint32_3 == o.Uint32_3
	case FieldUint32_4:
		return n.Uint32_4 == o.Uint32_4
	case FieldUuid_1:
		return n.Uuid_1 == o.Uuid_1
	case FieldUuid_2:
		return n.Uuid_2 == o.Uuid_2
	case FieldUuid_3:
		return n.Uuid_3 == o.Uuid_3
	case FieldUuid_4:
		return n.Uuid_4 == o.Uuid_4
	case FieldString64_1:
		return n.String64_1 == o.String64_1
	case FieldString64_2:
		return n.String64_2 == o.String64_2
	case FieldString64_3:
		return n.String64_3 == o.String64_3
	case FieldString64_4:
		return n.String64_4 == o.String64_4
	case FieldString64_5:
		return n.String64_5 == o.String64_5
	case FieldString64_6:
		return n.String64_6 == o.String64_6
	case FieldIString64_1:
		return strings.EqualFold(n.IString64_1, o.IString64_1)
	case FieldIString64_2:
		return strings.EqualFold(n.IString64_2, o.IString64_2)
	case FieldText_1:
		return n.Text_1 == o.Text_1
	case FieldText_2:
		return n.Text_2 == o.Text_2
	case FieldBlob_1:
		return string(n.Blob_1) == string(o.Blob_1)
	case FieldBlob_2:
		return string(n.Blob_2) == string(o.Blob_2)
	}
	return true
}
