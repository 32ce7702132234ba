package types

import "quill/internal/ids"

// UdtDef describes a newtype: its underlying type and any named fields.
type UdtDef struct {
	Name   string
	ID     ids.ItemID
	Base   Ty
	Fields []UdtField
}

// UdtField is a named component; Path indexes into nested tuples of Base.
type UdtField struct {
	Name string
	Path []int
	Ty   Ty
}

// Constructor is the arrow type of the newtype's constructor function.
func (d *UdtDef) Constructor() *Arrow {
	return &Arrow{
		Kind:   Function,
		Input:  d.Base,
		Output: &Udt{Name: d.Name, ID: d.ID},
	}
}

// Scheme is a callable signature with generic parameters.
type Scheme struct {
	Params []string
	Ty     *Arrow
}

// Instantiate substitutes args for the scheme parameters.
func (s *Scheme) Instantiate(args []Ty) *Arrow {
	if len(s.Params) == 0 {
		return s.Ty
	}
	return Instantiate(s.Ty, args).(*Arrow)
}
