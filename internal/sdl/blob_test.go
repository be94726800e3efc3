package sdl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDescriptor() *StateDescriptor {
	return &StateDescriptor{
		Name:    "TestAge",
		Version: 3,
		SimpleVars: []VarDescriptor{
			{Name: "DayLength", Type: TypeFloat, Default: "30", Count: 1},
			{Name: "IsOpen", Type: TypeBool, Default: "0", Count: 1},
		},
	}
}

func TestNewStateDefaultsEveryVar(t *testing.T) {
	desc := testDescriptor()
	st := NewState(desc)
	require.Len(t, st.SimpleVars, 2)
	for _, v := range st.SimpleVars {
		assert.True(t, v.Flags&FlagSameAsDefault != 0)
	}
	assert.Equal(t, []string{"30"}, st.Find("DayLength").Values)
}

func TestSetValueClearsSameAsDefaultAndStamps(t *testing.T) {
	desc := testDescriptor()
	st := NewState(desc)
	v := st.Find("IsOpen")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ok := v.SetValue("1", now)

	assert.True(t, ok)
	assert.False(t, v.has(FlagSameAsDefault))
	assert.True(t, v.has(FlagXIsDirty))
	assert.True(t, v.has(FlagHasTimeStamp))
	assert.Equal(t, []string{"1"}, v.Values)
	assert.Equal(t, now, v.Timestamp)
}

func TestSetValueEmptyResetsToDefault(t *testing.T) {
	desc := testDescriptor()
	st := NewState(desc)
	v := st.Find("DayLength")
	v.SetValue("45", time.Now())
	ok := v.SetValue("", time.Now())

	assert.True(t, ok)
	assert.True(t, v.has(FlagSameAsDefault))
	assert.Equal(t, []string{"30"}, v.Values)
}

func TestSetValueRejectsUnparsableValueForType(t *testing.T) {
	desc := testDescriptor()
	st := NewState(desc)
	v := st.Find("DayLength") // TypeFloat
	before := append([]string(nil), v.Values...)

	ok := v.SetValue("not-a-number", time.Now())

	assert.False(t, ok)
	assert.False(t, v.has(FlagXIsDirty), "a rejected update must not mark the variable dirty")
	assert.Equal(t, before, v.Values, "a rejected update must not change the stored value")
}

func TestSetValueAcceptsValidValueForEachScalarType(t *testing.T) {
	cases := []struct {
		typ   VarType
		value string
	}{
		{TypeBool, "1"},
		{TypeByte, "7"},
		{TypeShort, "123"},
		{TypeInt, "-45"},
		{TypeFloat, "3.14"},
		{TypeDouble, "2.71828"},
		{TypeString, "anything goes"},
		{TypeTime, "1700000000"},
		{TypeVector3, "1.0,2.0,3.0"},
		{TypeQuaternion, "0,0,0,1"},
		{TypeRGB, "0.1,0.2,0.3"},
		{TypeRGBA, "0.1,0.2,0.3,0.4"},
	}
	for _, c := range cases {
		v := &Variable{Desc: &VarDescriptor{Name: "x", Type: c.typ, Count: 1}}
		assert.True(t, v.SetValue(c.value, time.Now()), "type=%v value=%q", c.typ, c.value)
	}
}

func TestSetValueRejectsObjectValuedTypes(t *testing.T) {
	for _, typ := range []VarType{TypeCreatable, TypeAgeTimeOfDayState, TypeStateDescriptor} {
		v := &Variable{Desc: &VarDescriptor{Name: "x", Type: typ, Count: 1}}
		assert.False(t, v.SetValue("anything", time.Now()), "type=%v", typ)
	}
}

func TestEncodeDecodeStateRoundTrip(t *testing.T) {
	desc := testDescriptor()
	st := NewState(desc)
	st.Find("DayLength").SetValue("22.5", time.Unix(1000, 0))

	blob := Encode(st)
	decoded, err := Decode(blob, desc)
	require.NoError(t, err)

	require.Len(t, decoded.SimpleVars, 2)
	assert.Equal(t, []string{"22.5"}, decoded.SimpleVars[0].Values)
	assert.True(t, decoded.SimpleVars[0].has(FlagHasTimeStamp))
}

func TestDecodeRejectsMismatchedDescriptor(t *testing.T) {
	desc := testDescriptor()
	st := NewState(desc)
	blob := Encode(st)

	other := &StateDescriptor{Name: "OtherAge", Version: 1}
	_, err := Decode(blob, other)
	assert.Error(t, err)
}
