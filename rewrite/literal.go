package rewrite

// AnnotateLiterals rewrites suffixed numbers such as 5i32 or .5f64 into typed
// const instructions: (i32.const 5), (f64.const .5).
func (r *Rules) AnnotateLiterals(doc string) string {
	return r.literal.ReplaceAllString(doc, "(${2}.const ${1})")
}
