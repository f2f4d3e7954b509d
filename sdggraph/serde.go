package sdggraph

import (
	"encoding/json"
	"fmt"
)

type SerializedMolecule struct {
	Atoms []SerializedAtom `json:"atoms"`
	Bonds []SerializedBond `json:"bonds"`
}

type SerializedAtom struct {
	Atom
}

type SerializedBond struct {
	Beg     int    `json:"beg"`
	End     int    `json:"end"`
	Order   string `json:"order"`
	Stereo  string `json:"stereo,omitempty"`
	Display int    `json:"display,omitempty"`
}

var orderNames = map[string]Order{
	"single":    Single,
	"double":    Double,
	"triple":    Triple,
	"quadruple": Quadruple,
	"aromatic":  Aromatic,
}

func (s Stereo) String() string {
	switch s {
	case StereoTogether:
		return "Z"
	case StereoOpposite:
		return "E"
	}
	return ""
}

func SerializeMolecule(m *Molecule) ([]byte, error) {
	sm := SerializedMolecule{
		Atoms: make([]SerializedAtom, 0, len(m.Atoms)),
		Bonds: make([]SerializedBond, 0, len(m.Bonds)),
	}
	for _, a := range m.Atoms {
		sm.Atoms = append(sm.Atoms, SerializedAtom{*a})
	}
	for _, b := range m.Bonds {
		sm.Bonds = append(sm.Bonds, SerializedBond{
			Beg:     b.Beg,
			End:     b.End,
			Order:   b.Order.String(),
			Stereo:  b.Stereo.String(),
			Display: int(b.Display),
		})
	}
	return json.Marshal(sm)
}

// DeserializeMolecule replaces the contents of m and validates the result.
func DeserializeMolecule(bytes []byte, m *Molecule) error {
	var sm SerializedMolecule
	err := json.Unmarshal(bytes, &sm)
	if err != nil {
		return err
	}

	m.Atoms = make([]*Atom, 0, len(sm.Atoms))
	m.Bonds = make([]*Bond, 0, len(sm.Bonds))
	for _, sa := range sm.Atoms {
		a := sa.Atom
		m.Atoms = append(m.Atoms, &a)
	}
	for i, sb := range sm.Bonds {
		order, ok := orderNames[sb.Order]
		if !ok {
			return fmt.Errorf("bond %d: unknown order %q", i, sb.Order)
		}
		b := &Bond{
			Beg:     sb.Beg,
			End:     sb.End,
			Order:   order,
			Display: Display(sb.Display),
		}
		switch sb.Stereo {
		case "":
		case "Z":
			b.Stereo = StereoTogether
		case "E":
			b.Stereo = StereoOpposite
		default:
			return fmt.Errorf("bond %d: unknown stereo %q", i, sb.Stereo)
		}
		m.Bonds = append(m.Bonds, b)
	}
	return m.Validate()
}
