package rewrite

import "strings"

// ExpandGets wraps every identifier in read position as (local.get $x).
// An identifier is not a read when it directly follows an instruction or
// binder that already names it (local.get, call, br_if, block, "(param ", ...)
// or when it is the target of an assignment ("$x =").
func (r *Rules) ExpandGets(doc string) string {
	matches := r.get.FindAllStringSubmatchIndex(doc, -1)
	if len(matches) == 0 {
		return doc
	}

	var b strings.Builder
	b.Grow(len(doc) + len(matches)*len("(local.get )"))
	last := 0
	for _, m := range matches {
		b.WriteString(doc[last:m[0]])
		last = m[1]
		prefixed, assigned := m[2] >= 0, m[6] >= 0
		if prefixed || assigned {
			b.WriteString(doc[m[0]:m[1]])
			continue
		}
		b.WriteString("(local.get ")
		b.WriteString(doc[m[4]:m[5]])
		b.WriteByte(')')
	}
	b.WriteString(doc[last:])
	return b.String()
}

// ExpandSets rewrites `$x = expr` to (local.set $x expr). The right-hand side
// runs to the end of the line and is copied verbatim; `$x = stack` becomes a
// bare `local.set $x` that consumes the value already on the stack.
func (r *Rules) ExpandSets(doc string) string {
	matches := r.set.FindAllStringSubmatchIndex(doc, -1)
	if len(matches) == 0 {
		return doc
	}

	var b strings.Builder
	b.Grow(len(doc) + len(matches)*len("(local.set )"))
	last := 0
	for _, m := range matches {
		b.WriteString(doc[last:m[0]])
		last = m[1]
		name, rhs := doc[m[2]:m[3]], doc[m[4]:m[5]]
		if strings.TrimSpace(rhs) == "stack" {
			b.WriteString("local.set ")
			b.WriteString(name)
			continue
		}
		b.WriteString("(local.set ")
		b.WriteString(name)
		b.WriteByte(' ')
		b.WriteString(rhs)
		b.WriteByte(')')
	}
	b.WriteString(doc[last:])
	return b.String()
}
