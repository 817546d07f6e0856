package outline

// Symbol kinds reported by Lookup.
const (
	KindParam  = "param"
	KindLocal  = "local"
	KindLabel  = "label"
	KindGlobal = "global"
	KindFunc   = "func"
)

// Symbol is what an identifier resolves to from inside a function.
type Symbol struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	// Index is the position in the function's local index space for params
	// and locals, the declaration order otherwise.
	Index int `json:"index"`
	Line  int `json:"line,omitempty"`
}

// Function returns the first function named name, or nil.
func (o *Outline) Function(name string) *Function {
	for _, f := range o.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Lookup resolves ident the way it would be resolved inside funcName:
// params, then locals, then block labels, then globals, then functions.
// funcName may be empty to resolve at module scope.
func (o *Outline) Lookup(funcName, ident string) (Symbol, bool) {
	if f := o.Function(funcName); f != nil && funcName != "" {
		for i, v := range f.Params {
			if v.Name == ident {
				return Symbol{Kind: KindParam, Name: ident, Type: v.Type, Index: i, Line: f.Line}, true
			}
		}
		for i, v := range f.Locals {
			if v.Name == ident {
				return Symbol{Kind: KindLocal, Name: ident, Type: v.Type, Index: len(f.Params) + i}, true
			}
		}
		for i, b := range f.Blocks {
			if b.Label == ident {
				return Symbol{Kind: KindLabel, Name: ident, Type: b.Kind, Index: i, Line: b.Line}, true
			}
		}
	}
	for i, g := range o.Globals {
		if g.Name == ident {
			return Symbol{Kind: KindGlobal, Name: ident, Type: g.Type, Index: i}, true
		}
	}
	for i, f := range o.Functions {
		if f.Name == ident {
			return Symbol{Kind: KindFunc, Name: ident, Type: f.Result, Index: i, Line: f.Line}, true
		}
	}
	return Symbol{}, false
}

// Identifiers returns every declared name, globals first, then each
// function followed by its params, locals and labels.
func (o *Outline) Identifiers() []string {
	var names []string
	for _, g := range o.Globals {
		names = append(names, g.Name)
	}
	for _, f := range o.Functions {
		if f.Name != "" {
			names = append(names, f.Name)
		}
		for _, v := range f.Params {
			if v.Name != "" {
				names = append(names, v.Name)
			}
		}
		for _, v := range f.Locals {
			if v.Name != "" {
				names = append(names, v.Name)
			}
		}
		for _, b := range f.Blocks {
			names = append(names, b.Label)
		}
	}
	return names
}
