package sdl

import (
	"strconv"
	"strings"
	"time"
)

// VarFlag is a bit in a Variable's flags byte (spec.md §6.4).
type VarFlag uint8

const (
	FlagHasTimeStamp VarFlag = 1 << 0
	FlagXIsDirty     VarFlag = 1 << 1
	FlagWantTimeStamp VarFlag = 1 << 2
	FlagSameAsDefault VarFlag = 1 << 3
)

// Variable is one instance of a VarDescriptor: a type tag, an ordered
// value array (len 1 for scalars), flags, and an optional timestamp.
type Variable struct {
	Desc      *VarDescriptor
	Values    []string // textual encoding; numeric parsing happens at use sites
	Flags     VarFlag
	Timestamp time.Time
}

func (v *Variable) has(f VarFlag) bool { return v.Flags&f != 0 }

func (v *Variable) set(f VarFlag)   { v.Flags |= f }
func (v *Variable) clear(f VarFlag) { v.Flags &^= f }

// State is a live instance of a StateDescriptor: one Variable per declared
// simple var, plus nested sdVar states (spec.md §3.5).
type State struct {
	Desc       *StateDescriptor
	SimpleVars []*Variable
	SDVars     []*State
}

// NewState builds a freshly defaulted State from desc, one Variable per
// declared simple var, each SameAsDefault and carrying desc's default text.
func NewState(desc *StateDescriptor) *State {
	s := &State{Desc: desc}
	for i := range desc.SimpleVars {
		vd := &desc.SimpleVars[i]
		v := &Variable{Desc: vd, Flags: FlagSameAsDefault}
		if vd.Default != "" {
			v.Values = []string{vd.Default}
		}
		s.SimpleVars = append(s.SimpleVars, v)
	}
	return s
}

// Find returns the live Variable named name, or nil.
func (s *State) Find(name string) *Variable {
	for _, v := range s.SimpleVars {
		if v.Desc.Name == name {
			return v
		}
	}
	return nil
}

// SetValue applies the update-global-variable algorithm (spec.md §4.2
// steps 3-4): mark dirty and timestamped, clear SameAsDefault, and either
// reset to default (value == "") or assign the parsed value. Reports
// false, leaving the variable untouched, when value is non-empty and
// doesn't parse under the variable's declared type (spec.md §4.2 step 4:
// "unsupported types → NotSupported") -- the type check runs before any
// mutation so a rejected update can't leave the variable marked dirty
// with no value actually applied.
func (v *Variable) SetValue(value string, now time.Time) bool {
	if value != "" && !typeAccepts(v.Desc.Type, value) {
		return false
	}
	v.set(FlagHasTimeStamp)
	v.set(FlagXIsDirty)
	v.Timestamp = now
	v.clear(FlagSameAsDefault)
	if value == "" {
		v.Values = nil
		if v.Desc.Default != "" {
			v.Values = []string{v.Desc.Default}
		}
		v.set(FlagSameAsDefault)
		return true
	}
	v.Values = []string{value}
	return true
}

// typeAccepts reports whether value parses as a valid literal of t. The
// three object-valued types (Creatable, AgeTimeOfDayState, and nested
// StateDescriptor) can't be built from a single text value, so they are
// always unsupported.
func typeAccepts(t VarType, value string) bool {
	switch t {
	case TypeBool:
		if value == "0" || value == "1" {
			return true
		}
		_, err := strconv.ParseBool(value)
		return err == nil
	case TypeByte, TypeShort, TypeInt, TypeTime:
		_, err := strconv.ParseInt(value, 10, 64)
		return err == nil
	case TypeFloat, TypeDouble:
		_, err := strconv.ParseFloat(value, 64)
		return err == nil
	case TypeString:
		return true
	case TypeVector3, TypePoint3, TypeRGB:
		return hasFloatComponents(value, 3)
	case TypeQuaternion, TypeRGBA:
		return hasFloatComponents(value, 4)
	case TypeCreatable, TypeAgeTimeOfDayState, TypeStateDescriptor:
		return false
	default:
		return false
	}
}

// hasFloatComponents reports whether value is exactly n comma-separated
// floats, the textual encoding used for vector/color-typed SDL variables.
func hasFloatComponents(value string, n int) bool {
	parts := strings.Split(value, ",")
	if len(parts) != n {
		return false
	}
	for _, p := range parts {
		if _, err := strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
			return false
		}
	}
	return true
}
