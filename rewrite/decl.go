package rewrite

// ExpandDeclarations rewrites the shorthand declarations:
//
//	($p i32)   -> (param $p i32)
//	(l $v f64) -> (local $v f64)
//	(l$v f64)  -> (local $v f64)
//
// Matching is purely textual. A `($x i32)` anywhere in the document becomes a
// param, whether or not it sits in a function signature.
func (r *Rules) ExpandDeclarations(doc string) string {
	doc = r.param.ReplaceAllString(doc, "(param $1 $2)")
	return r.local.ReplaceAllString(doc, "(local $1 $2)")
}
