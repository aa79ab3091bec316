package valuetree

import "github.com/burntcarrot/treesync/wire"

// Properties maps names to values, remembering the order names were first set.
// The zero value is empty and ready to use.
type Properties struct {
	names  []string
	values map[string]wire.Var
}

// Len returns the number of properties.
func (p *Properties) Len() int {
	return len(p.names)
}

// Get returns the value for name.
func (p *Properties) Get(name string) (wire.Var, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Has reports whether name is set.
func (p *Properties) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// Set stores v under name. An existing name keeps its position.
func (p *Properties) Set(name string, v wire.Var) {
	if p.values == nil {
		p.values = make(map[string]wire.Var)
	}
	if _, ok := p.values[name]; !ok {
		p.names = append(p.names, name)
	}
	p.values[name] = v
}

// Remove deletes name and reports whether it was present.
func (p *Properties) Remove(name string) bool {
	if _, ok := p.values[name]; !ok {
		return false
	}

	delete(p.values, name)
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			break
		}
	}
	return true
}

// Names returns the property names in order.
func (p *Properties) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Range calls fn for each property in order until fn returns false.
func (p *Properties) Range(fn func(name string, v wire.Var) bool) {
	for _, name := range p.names {
		if !fn(name, p.values[name]) {
			return
		}
	}
}

// Equal reports whether both hold the same names, in the same order, with equal values.
func (p *Properties) Equal(o *Properties) bool {
	if p.Len() != o.Len() {
		return false
	}
	for i, name := range p.names {
		if o.names[i] != name || !p.values[name].Equal(o.values[name]) {
			return false
		}
	}
	return true
}

func (p *Properties) clone() Properties {
	out := Properties{names: p.Names()}
	if p.values != nil {
		out.values = make(map[string]wire.Var, len(p.values))
		for k, v := range p.values {
			out.values[k] = v
		}
	}
	return out
}
