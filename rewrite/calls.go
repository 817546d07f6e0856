package rewrite

import "strings"

// inlineCall is one `call $name(...)` occurrence. doc[start:end] spans the
// whole call including the closing parenthesis. An unclosed call runs to the
// end of its line.
type inlineCall struct {
	start, end int
	name       string
	args       string
	closed     bool
}

// inlineCalls finds every inline call in doc, left to right. The argument
// list ends at the parenthesis balancing the opening one on the same line.
func (r *Rules) inlineCalls(doc string) []inlineCall {
	var calls []inlineCall
	for _, m := range r.inlineCall.FindAllStringSubmatchIndex(doc, -1) {
		open := m[1] - 1
		c := inlineCall{start: m[0], name: doc[m[2]:m[3]], end: len(doc)}
		depth := 0
	scan:
		for i := open; i < len(doc); i++ {
			switch doc[i] {
			case '\n':
				c.end = i
				break scan
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					c.end = i + 1
					c.closed = true
					break scan
				}
			}
		}
		if c.closed {
			c.args = doc[open+1 : c.end-1]
		} else {
			c.args = doc[open+1 : c.end]
		}
		calls = append(calls, c)
	}
	return calls
}

// CheckNestedCalls returns a *RejectionError for the first inline call whose
// argument list mentions another call. The flattener only handles a single
// level and would reorder the stack silently otherwise.
func (r *Rules) CheckNestedCalls(doc string) error {
	for _, c := range r.inlineCalls(doc) {
		if r.callRef.MatchString(c.args) {
			return &RejectionError{Fragment: doc[c.start:c.end]}
		}
	}
	return nil
}

// FlattenCalls rewrites `call $f(a, b)` into one line per argument followed
// by `call $f`, so the leftmost argument is pushed first. Arguments are split
// on every comma.
func (r *Rules) FlattenCalls(doc string) string {
	calls := r.inlineCalls(doc)
	if len(calls) == 0 {
		return doc
	}

	var b strings.Builder
	b.Grow(len(doc))
	last := 0
	for _, c := range calls {
		if !c.closed || c.start < last {
			continue
		}
		b.WriteString(doc[last:c.start])
		for _, arg := range strings.Split(c.args, ",") {
			if arg = strings.TrimSpace(arg); arg != "" {
				b.WriteString(arg)
				b.WriteByte('\n')
			}
		}
		b.WriteString("call ")
		b.WriteString(c.name)
		last = c.end
	}
	b.WriteString(doc[last:])
	return b.String()
}
