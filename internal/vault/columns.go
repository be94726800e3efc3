package vault

// columnName maps a Field to its vault.Nodes column, in the same ordinal
// order used for wire serialization (spec.md §3.1, §6.6).
func columnName(f Field) string {
	switch f {
	case FieldNodeIdx:
		return "idx"
	case FieldCreateTime:
		return "createtime"
	case FieldModifyTime:
		return "modifytime"
	case FieldCreateAgeName:
		return "createagename"
	case FieldCreateAgeUuid:
		return "createageuuid"
	case FieldCreatorUuid:
		return "creatoruuid"
	case FieldCreatorIdx:
		return "creatoridx"
	case FieldNodeType:
		return "nodetype"
	case FieldInt32_1:
		return "int32_1"
	case FieldInt32_2:
		return "int32_2"
	case FieldInt32_3:
		return "int32_3"
	case FieldInt32_4:
		return "int32_4"
	case FieldUint32_1:
		return "uint32_1"
	case FieldUint32_2:
		return "uint32_2"
	case FieldUint32_3:
		return "uint32_3"
	case FieldUint32_4:
		return "uint32_4"
	case FieldUuid_1:
		return "uuid_1"
	case FieldUuid_2:
		return "uuid_2"
	case FieldUuid_3:
		return "uuid_3"
	case FieldUuid_4:
		return "uuid_4"
	case FieldString64_1:
		return "string64_1"
	case FieldString64_2:
		return "string64_2"
	case FieldString64_3:
		return "string64_3"
	case FieldString64_4:
		return "string64_4"
	case FieldString64_5:
		return "string64_5"
	case FieldString64_6:
		return "string64_6"
	case FieldIString64_1:
		return "istring64_1"
	case FieldIString64_2:
		return "istring64_2"
	case FieldText_1:
		return "text_1"
	case FieldText_2:
		return "text_2"
	case FieldBlob_1:
		return "blob_1"
	case FieldBlob_2:
		return "blob_2"
	}
	return ""
}

// allColumns is every column in columnName's ordinal order, for use in a
// full-row SELECT (fetch, findNodes).
var allColumns = func() []string {
	cols := make([]string, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		cols = append(cols, columnName(f))
	}
	return cols
}()

// fieldValue returns n's value for f as a driver-compatible parameter.
func fieldValue(n *Node, f Field) any {
	switch f {
	case FieldNodeIdx:
		return n.NodeIdx
	case FieldCreateTime:
		return n.CreateTime
	case FieldModifyTime:
		return n.ModifyTime
	case FieldCreateAgeName:
		return n.CreateAgeName
	case FieldCreateAgeUuid:
		return n.CreateAgeUuid
	case FieldCreatorUuid:
		return n.CreatorUuid
	case FieldCreatorIdx:
		return n.CreatorIdx
	case FieldNodeType:
		return n.NodeType
	case FieldInt32_1:
		return n.Int32_1
	case FieldInt32_2:
		return n.Int32_2
	case FieldInt32_3:
		return n.Int32_3
	case FieldInt32_4:
		return n.Int32_4
	case FieldUint32_1:
		return n.Uint32_1
	case FieldUint32_2:
		return n.Uint32_2
	case FieldUint32_3:
		return n.Uint32_3
	case FieldUint32_4:
		return n.Uint32_4
	case FieldUuid_1:
		return n.Uuid_1
	case FieldUuid_2:
		return n.Uuid_2
	case FieldUuid_3:
		return n.Uuid_3
	case FieldUuid_4:
		return n.Uuid_4
	case FieldString64_1:
		return n.String64_1
	case FieldString64_2:
		return n.String64_2
	case FieldString64_3:
		return n.String64_3
	case FieldString64_4:
		return n.String64_4
	case FieldString64_5:
		return n.String64_5
	case FieldString64_6:
		return n.String64_6
	case FieldIString64_1:
		return n.IString64_1
	case FieldIString64_2:
		return n.IString64_2
	case FieldText_1:
		return n.Text_1
	case FieldText_2:
		return n.Text_2
	case FieldBlob_1:
		return n.Blob_1
	case FieldBlob_2:
		return n.Blob_2
	}
	return nil
}

// scanDest returns a pointer into n suitable for Rows.Scan of f's column.
func scanDest(n *Node, f Field) any {
	switch f {
	case FieldNodeIdx:
		return &n.NodeIdx
	case FieldCreateTime:
		return &n.CreateTime
	case FieldModifyTime:
		return &n.ModifyTime
	case FieldCreateAgeName:
		return &n.CreateAgeName
	case FieldCreateAgeUuid:
		return &n.CreateAgeUuid
	case FieldCreatorUuid:
		return &n.CreatorUuid
	case FieldCreatorIdx:
		return &n.CreatorIdx
	case FieldNodeType:
		return &n.NodeType
	case FieldInt32_1:
		return &n.Int32_1
	case FieldInt32_2:
		return &n.Int32_2
	case FieldInt32_3:
		return &n.Int32_3
	case FieldInt32_4:
		return &n.Int32_4
	case FieldUint32_1:
		return &n.Uint32_1
	case FieldUint32_2:
		return &n.Uint32_2
	case FieldUint32_3:
		return &n.Uint32_3
	case FieldUint32_4:
		return &n.Uint32_4
	case FieldUuid_1:
		return &n.Uuid_1
	case FieldUuid_2:
		return &n.Uuid_2
	case FieldUuid_3:
		return &n.Uuid_3
	case FieldUuid_4:
		return &n.Uuid_4
	case FieldString64_1:
		return &n.String64_1
	case FieldString64_2:
		return &n.String64_2
	case FieldString64_3:
		return &n.String64_3
	case FieldString64_4:
		return &n.String64_4
	case FieldString64_5:
		return &n.String64_5
	case FieldString64_6:
		return &n.String64_6
	case FieldIString64_1:
		return &n.IString64_1
	case FieldIString64_2:
		return &n.IString64_2
	case FieldText_1:
		return &n.Text_1
	case FieldText_2:
		return &n.Text_2
	case FieldBlob_1:
		return &n.Blob_1
	case FieldBlob_2:
		return &n.Blob_2
	}
	var discard any
	return &discard
}
