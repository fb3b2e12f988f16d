package gatelib

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/hwseclab/regscan/pkg/errors"
)

// libraryFile mirrors the TOML layout of a gate library definition:
//
//	[[type]]
//	name = "SDFFR"
//	kind = "flip-flop"
//
//	  [[type.pin]]
//	  name = "D"
//	  class = "data-in"
//
//	  [[type.pin]]
//	  name = "CLK"
//	  class = "clock"
type libraryFile struct {
	Types []typeDef `toml:"type"`
}

type typeDef struct {
	Name string   `toml:"name"`
	Kind string   `toml:"kind"`
	Pins []pinDef `toml:"pin"`
}

type pinDef struct {
	Name  string `toml:"name"`
	Class string `toml:"class"`
}

// Parse builds a library from TOML data.
// Returns an INVALID_LIBRARY error for syntax errors, unknown kinds or pin
// classes, or inconsistent type definitions.
func Parse(data []byte) (*Library, error) {
	var file libraryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLibrary, err, "parse gate library")
	}
	if len(file.Types) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidLibrary, "gate library defines no types")
	}

	types := make([]Type, 0, len(file.Types))
	for _, def := range file.Types {
		kind, err := ParseKind(def.Kind)
		if err != nil {
			return nil, err
		}
		t := Type{Name: def.Name, Kind: kind}
		for _, p := range def.Pins {
			class, err := ParsePinClass(p.Class)
			if err != nil {
				return nil, err
			}
			t.Pins = append(t.Pins, PinDef{Name: p.Name, Class: class})
		}
		types = append(types, t)
	}
	return NewLibrary(types...)
}

// LoadFile reads a gate library from a TOML file.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "gate library %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read gate library %s", path)
	}
	return Parse(data)
}
