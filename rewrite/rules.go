// Package rewrite expands the sugared wati dialect into canonical WebAssembly
// text. The expansion is a fixed sequence of textual passes; no syntax tree is
// built and nothing is validated.
package rewrite

import "regexp"

// identChar is the character class allowed after the leading '$' of an
// identifier.
const identChar = "[0-9A-Za-z!#$%&'*+\\-./:<=>?@\\\\^_`|~]"

const valueType = `(i32|i64|f32|f64)`

// Rules holds the compiled patterns of every pass. A Rules value is immutable
// after NewRules returns and may be shared between goroutines.
type Rules struct {
	inlineCall *regexp.Regexp // call $name(   (start of an inline call)
	callRef    *regexp.Regexp // call $name    (anywhere inside an argument list)
	param      *regexp.Regexp
	local      *regexp.Regexp
	literal    *regexp.Regexp
	get        *regexp.Regexp
	set        *regexp.Regexp
}

func NewRules() *Rules {
	return &Rules{
		inlineCall: regexp.MustCompile(`call (\$` + identChar + `*)\(`),
		callRef:    regexp.MustCompile(`call \$` + identChar + `*`),
		param:      regexp.MustCompile(`\((\$` + identChar + `*) ` + valueType + `\)`),
		local:      regexp.MustCompile(`\(l ?(\$` + identChar + `*) ` + valueType + `\)`),
		literal:    regexp.MustCompile(`(\d*\.?\d+)([if](?:32|64))`),
		get: regexp.MustCompile(
			`((?:global|local)\.(?:set|get) |call |call_indirect |br |br_if |br_table |block |loop |if |\(\w+ )?` +
				`(\$` + identChar + `+)( *=)?`),
		set: regexp.MustCompile(`(\$` + identChar + `+) *= *(.+)`),
	}
}

// Passes returns the six passes in the order they must run.
func (r *Rules) Passes() []Pass {
	return []Pass{
		{Name: "nested-call-guard", Apply: r.guard},
		{Name: "call-flattener", Apply: total(r.FlattenCalls)},
		{Name: "declaration-expander", Apply: total(r.ExpandDeclarations)},
		{Name: "literal-annotator", Apply: total(r.AnnotateLiterals)},
		{Name: "implicit-get", Apply: total(r.ExpandGets)},
		{Name: "implicit-set", Apply: total(r.ExpandSets)},
	}
}

func (r *Rules) guard(doc string) (string, error) {
	if err := r.CheckNestedCalls(doc); err != nil {
		return "", err
	}
	return doc, nil
}

// total lifts a pass that cannot fail into a Pass.Apply.
func total(f func(string) string) func(string) (string, error) {
	return func(doc string) (string, error) {
		return f(doc), nil
	}
}
