package ast

// Context carries the values available to a query evaluation besides the
// node currently being visited: the document root ($), the optional extra
// filter context (the `_` identifier, supplied by the caller), and the
// pseudo-root wrapper (`^`), a single-element array wrapping Root so that
// `^` and, within a pseudo-root query, `$` resolve through the same value.
// Cache, when non-nil, memoizes FilterExpr evaluations for the lifetime of
// a single top-level Select/SelectLocated call (see [FilterCache]).
type Context struct {
	Root       any
	Extra      any
	PseudoRoot any
	Cache      *FilterCache
}

// NewContext builds a Context for a fresh top-level evaluation of root.
// extra is the caller-supplied value bound to the `_` identifier (nil if
// none was supplied). Filter-expression caching is disabled.
func NewContext(root, extra any) Context {
	return Context{Root: root, Extra: extra, PseudoRoot: []any{root}}
}

// NewContextWithCache is like NewContext, but attaches a fresh [FilterCache]
// scoped to this evaluation, enabling the `filter_caching` Environment option.
func NewContextWithCache(root, extra any) Context {
	return Context{Root: root, Extra: extra, PseudoRoot: []any{root}, Cache: NewFilterCache()}
}
