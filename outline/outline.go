// Package outline lists the identifiers a wati or wat document declares:
// globals, functions with their params, locals and result, and block labels.
//
// It is a line-oriented regular expression scan, not a parser. Declarations
// are attributed to the nearest function opened on a preceding line, which is
// right for conventionally formatted sources and approximate otherwise.
package outline

import (
	"regexp"
	"strings"
)

const (
	ident     = "\\$[0-9A-Za-z!#$%&'*+\\-./:<=>?@\\\\^_`|~]*"
	valueType = `(?:i32|i64|f32|f64)`
)

var (
	funcStart   = regexp.MustCompile(`\(\s*func\b(?:\s+(` + ident + `))?`)
	exportName  = regexp.MustCompile(`\(\s*export\s*"([^"]+)"\)`)
	globalDecl  = regexp.MustCompile(`\(global\s+(` + ident + `)\s+(?:\((mut)\s*)?(` + valueType + `)`)
	namedParam  = regexp.MustCompile(`\(param\s+(` + ident + `)\s+(` + valueType + `)\s*\)`)
	anonParams  = regexp.MustCompile(`\(param((?:\s+` + valueType + `)+)\s*\)`)
	shortParam  = regexp.MustCompile(`\((` + ident + `) (` + valueType + `)\)`)
	namedLocal  = regexp.MustCompile(`\((?:local\s+|l ?)(` + ident + `)\s+(` + valueType + `)\s*\)`)
	anonLocals  = regexp.MustCompile(`\(local((?:\s+` + valueType + `)+)\s*\)`)
	resultDecl  = regexp.MustCompile(`\(result\s+(` + valueType + `)`)
	blockLabel  = regexp.MustCompile(`(?:^|[\s(])(block|loop|if)\s+(` + ident + `)`)
	typeInGroup = regexp.MustCompile(valueType)
)

type Variable struct {
	Name    string `json:"name,omitempty"`
	Type    string `json:"type"`
	Mutable bool   `json:"mutable,omitempty"`
}

type Block struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Line  int    `json:"line"`
}

type Function struct {
	Name   string     `json:"name,omitempty"`
	Export string     `json:"export,omitempty"`
	Line   int        `json:"line"`
	Params []Variable `json:"params,omitempty"`
	Result string     `json:"result,omitempty"`
	Locals []Variable `json:"locals,omitempty"`
	Blocks []Block    `json:"blocks,omitempty"`
}

type Outline struct {
	Globals   []Variable  `json:"globals,omitempty"`
	Functions []*Function `json:"functions,omitempty"`
}

// Parse scans src and returns its outline. It never fails; text it does not
// recognise is ignored.
func Parse(src string) *Outline {
	o := &Outline{}
	var cur *Function
	for i, line := range strings.Split(src, "\n") {
		lineNum := i + 1

		for _, m := range globalDecl.FindAllStringSubmatch(line, -1) {
			o.Globals = append(o.Globals, Variable{Name: m[1], Type: m[3], Mutable: m[2] != ""})
		}

		if loc := funcStart.FindStringSubmatchIndex(line); loc != nil {
			cur = &Function{Line: lineNum}
			if loc[2] >= 0 {
				cur.Name = line[loc[2]:loc[3]]
			}
			if m := exportName.FindStringSubmatch(line); m != nil {
				cur.Export = m[1]
			}
			o.Functions = append(o.Functions, cur)
			// only look at what follows the func keyword
			line = line[loc[1]:]
		}
		if cur == nil {
			continue
		}

		cur.Params = append(cur.Params, declarations(line, namedParam, shortParam, anonParams)...)
		cur.Locals = append(cur.Locals, declarations(line, namedLocal, nil, anonLocals)...)
		if m := resultDecl.FindStringSubmatch(line); m != nil && cur.Result == "" {
			cur.Result = m[1]
		}
		for _, m := range blockLabel.FindAllStringSubmatch(line, -1) {
			cur.Blocks = append(cur.Blocks, Block{Kind: m[1], Label: m[2], Line: lineNum})
		}
	}
	return o
}

// declarations collects named and anonymous declarations from line in the
// order they appear.
func declarations(line string, named, short, anon *regexp.Regexp) []Variable {
	type found struct {
		at   int
		vars []Variable
	}
	var all []found
	for _, re := range []*regexp.Regexp{named, short} {
		if re == nil {
			continue
		}
		for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
			all = append(all, found{m[0], []Variable{{Name: line[m[2]:m[3]], Type: line[m[4]:m[5]]}}})
		}
	}
	for _, m := range anon.FindAllStringSubmatchIndex(line, -1) {
		var vars []Variable
		for _, typ := range typeInGroup.FindAllString(line[m[2]:m[3]], -1) {
			vars = append(vars, Variable{Type: typ})
		}
		all = append(all, found{m[0], vars})
	}

	// insertion sort, lines hold a handful of declarations at most
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].at < all[j-1].at; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	var out []Variable
	for _, f := range all {
		out = append(out, f.vars...)
	}
	return out
}
