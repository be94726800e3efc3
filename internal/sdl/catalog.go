package sdl

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/h-uru/moula-authd/internal/chk"
	"github.com/h-uru/moula-authd/internal/log"
)

// Catalog is the read-only service exposing every StateDescriptor parsed
// from the on-disk .sdl directory (spec.md §6.4). Descriptors are keyed by
// name; a name may have several versions, the newest of which callers get
// from Latest.
type Catalog struct {
	byName map[string][]*StateDescriptor
}

var typeNames = map[string]VarType{
	"BOOL":             TypeBool,
	"BYTE":             TypeByte,
	"SHORT":            TypeShort,
	"INT":              TypeInt,
	"FLOAT":            TypeFloat,
	"DOUBLE":           TypeDouble,
	"STRING32":         TypeString,
	"TIME":             TypeTime,
	"VECTOR3":          TypeVector3,
	"POINT3":           TypePoint3,
	"QUATERNION":       TypeQuaternion,
	"RGB":              TypeRGB,
	"RGBA":             TypeRGBA,
	"CREATABLE":        TypeCreatable,
	"AGETIMEOFDAYSTATE": TypeAgeTimeOfDayState,
	"STATEDESC":        TypeStateDescriptor,
}

// LoadDir parses every .sdl file under dir into a Catalog. The grammar
// understood is the declarative subset actually exercised by age
// descriptors: STATEDESC blocks of typed VAR declarations, one per line.
func LoadDir(dir string) (*Catalog, error) {
	c := &Catalog{byName: map[string][]*StateDescriptor{}}
	entries, err := os.ReadDir(dir)
	if chk.E(err) {
		return nil, err
	}
	for _, ent := range entries {
		if ent.IsDir() || !strings.EqualFold(filepath.Ext(ent.Name()), ".sdl") {
			continue
		}
		path := filepath.Join(dir, ent.Name())
		descs, err := parseFile(path)
		if chk.E(err) {
			return nil, err
		}
		for _, d := range descs {
			c.byName[d.Name] = append(c.byName[d.Name], d)
		}
	}
	log.I.F("sdl: loaded %d descriptor names from %s", len(c.byName), dir)
	return c, nil
}

// Latest returns the highest-versioned descriptor for name, or nil. An
// exact name match is preferred; otherwise name is matched
// case-insensitively.
func (c *Catalog) Latest(name string) *StateDescriptor {
	versions := c.byName[name]
	if len(versions) == 0 {
		for n, vs := range c.byName {
			if strings.EqualFold(n, name) {
				versions = vs
				break
			}
		}
	}
	if len(versions) == 0 {
		return nil
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if v.Version > best.Version {
			best = v
		}
	}
	return best
}

// Version returns the descriptor for name at exactly version, or nil.
func (c *Catalog) Version(name string, version int) *StateDescriptor {
	for _, v := range c.byName[name] {
		if v.Version == version {
			return v
		}
	}
	return nil
}

func parseFile(path string) (descs []*StateDescriptor, err error) {
	f, err := os.Open(path)
	if chk.E(err) {
		return nil, err
	}
	defer f.Close()

	var cur *StateDescriptor
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		fields := strings.Fields(line)
		switch strings.ToUpper(fields[0]) {
		case "STATEDESC":
			if len(fields) < 2 {
				return nil, fmt.Errorf("sdl: %s: malformed STATEDESC line", path)
			}
			cur = &StateDescriptor{Name: fields[1]}
		case "VERSION":
			if cur == nil || len(fields) < 2 {
				continue
			}
			cur.Version, _ = strconv.Atoi(fields[1])
		case "}":
			if cur != nil {
				descs = append(descs, cur)
				cur = nil
			}
		case "VAR":
			if cur == nil || len(fields) < 3 {
				continue
			}
			vd := parseVarLine(fields[1:])
			if vd.Type == TypeStateDescriptor {
				cur.SDVars = append(cur.SDVars, vd)
			} else {
				cur.SimpleVars = append(cur.SimpleVars, vd)
			}
		}
	}
	if err := scan.Err(); chk.E(err) {
		return nil, err
	}
	return descs, nil
}

func parseVarLine(fields []string) VarDescriptor {
	vd := VarDescriptor{Count: 1}
	typeTok := strings.ToUpper(fields[0])
	vd.Type = typeNames[typeTok]
	name := fields[1]
	if i := strings.IndexByte(name, '['); i >= 0 {
		vd.Name = name[:i]
		countStr := strings.TrimSuffix(name[i+1:], "]")
		if countStr == "" {
			vd.Count = 0
		} else if n, err := strconv.Atoi(countStr); err == nil {
			vd.Count = n
		}
	} else {
		vd.Name = name
	}
	for _, tok := range fields[2:] {
		if strings.HasPrefix(strings.ToUpper(tok), "DEFAULT=") {
			vd.Default = tok[len("DEFAULT="):]
		}
		if strings.EqualFold(tok, "INTERNAL") {
			vd.Internal = true
		}
	}
	return vd
}
