package vault

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	n := &Node{}
	n.SetNodeIdx(42)
	n.NodeType = int32(NodePlayerInfo)
	n.Set(FieldNodeType)
	n.String64_1 = "online"
	n.Set(FieldString64_1)
	n.Uuid_1 = uuid.New()
	n.Set(FieldUuid_1)
	n.Blob_1 = []byte{1, 2, 3, 4}
	n.Set(FieldBlob_1)

	encoded := Encode(n)
	decoded, err := Decode(encoded)
	require.NoError(t, err)

	assert.True(t, n.Equal(decoded))
}

func TestEncodeNullNode(t *testing.T) {
	n := &Node{}
	encoded := Encode(n)
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.True(t, decoded.IsNull())
}

func TestDecodeTruncatedDataErrors(t *testing.T) {
	n := &Node{}
	n.String64_1 = "hello"
	n.Set(FieldString64_1)
	encoded := Encode(n)
	_, err := Decode(encoded[:len(encoded)-2])
	assert.Error(t, err)
}

func TestEqualIgnoresCaseForIStringFields(t *testing.T) {
	a := &Node{}
	a.IString64_1 = "PlayerOne"
	a.Set(FieldIString64_1)
	b := &Node{}
	b.IString64_1 = "playerone"
	b.Set(FieldIString64_1)
	assert.True(t, a.Equal(b))
}

func TestCopyOnlyTouchesPresentFields(t *testing.T) {
	n := &Node{}
	n.String64_1 = "kept"
	n.Set(FieldString64_1)
	n.String64_2 = "not set but has a value anyway"

	dup := n.Copy()
	assert.Equal(t, "kept", dup.String64_1)
	assert.Empty(t, dup.String64_2)
	assert.Equal(t, n.Fields, dup.Fields)
}
