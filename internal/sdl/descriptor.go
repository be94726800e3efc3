// Package sdl implements the Synchronized Description Language catalog and
// the per-age typed variable state it describes (spec.md §3.5, §6.4).
package sdl

// VarType is the wire/value type tag carried by every SDL variable.
type VarType int

const (
	TypeBool VarType = iota
	TypeByte
	TypeShort
	TypeInt
	TypeFloat
	TypeDouble
	TypeString
	TypeTime
	TypeVector3
	TypePoint3
	TypeQuaternion
	TypeRGB
	TypeRGBA
	TypeCreatable
	TypeAgeTimeOfDayState
	TypeStateDescriptor
)

// VarDescriptor is one declared variable slot in a StateDescriptor: its
// name, type, default, and whether it carries a single value or a
// fixed-size array.
type VarDescriptor struct {
	Name     string
	Type     VarType
	Default  string
	Count    int // 0 means variable-length; 1 means scalar
	Internal bool
}

// StateDescriptor is one version of one .sdl age's declared variable set,
// loaded from the on-disk catalog (spec.md §6.4).
type StateDescriptor struct {
	Name       string
	Version    int
	SimpleVars []VarDescriptor
	SDVars     []VarDescriptor // nested state-descriptor variables
}

// FindSimple returns the simple variable descriptor named name, or nil.
func (d *StateDescriptor) FindSimple(name string) *VarDescriptor {
	for i := range d.SimpleVars {
		if d.SimpleVars[i].Name == name {
			return &d.SimpleVars[i]
		}
	}
	return nil
}
