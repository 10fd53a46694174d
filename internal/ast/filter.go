package ast

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// FilterExpr represents a filter expression tree (?logical-expr) per RFC 9535 §2.3.5.
type FilterExpr struct {
	Or LogicalOr

	canonOnce sync.Once
	canon     string
}

// Eval evaluates the filter expression against the current node. key is the
// object member name or array index the current node was reached under (for
// the `#` current-key token); it is nil when there is none.
//
// When ctx.Cache is non-nil (the `filter_caching` Environment option, per
// spec.md §4.4), the result is memoized by the expression's canonical form
// plus the identity of current and ctx.Root, so that re-evaluating the same
// filter against the same node within the same top-level Select/SelectLocated
// call skips re-walking the expression tree.
func (f *FilterExpr) Eval(current, key any, ctx Context) bool {
	if ctx.Cache == nil {
		return f.Or.Eval(current, key, ctx)
	}
	nodeID, nodeOK := identity(current)
	rootID, rootOK := identity(ctx.Root)
	if !nodeOK || !rootOK {
		return f.Or.Eval(current, key, ctx)
	}
	expr := f.canonicalForm()
	if v, ok := ctx.Cache.get(expr, nodeID, rootID); ok {
		return v
	}
	v := f.Or.Eval(current, key, ctx)
	ctx.Cache.set(expr, nodeID, rootID, v)
	return v
}

// canonicalForm returns f's canonical string form, computed once and reused
// as the cache key for every subsequent Eval.
func (f *FilterExpr) canonicalForm() string {
	f.canonOnce.Do(func() {
		var buf strings.Builder
		f.Or.writeTo(&buf)
		f.canon = buf.String()
	})
	return f.canon
}

// writeTo writes the canonical string representation of f's expression tree
// to buf by walking LogicalOr/LogicalAnd/BasicExpr, re-emitting the same
// syntax the parser accepts.
func (f *FilterExpr) writeTo(buf *strings.Builder) {
	buf.WriteString(f.canonicalForm())
}

// String returns the canonical string representation of f.
func (f *FilterExpr) String() string {
	return f.canonicalForm()
}

// LogicalOr is a sequence of LogicalAnd expressions joined by ||.
// Short-circuits on first true.
type LogicalOr []LogicalAnd

// Eval returns true if any LogicalAnd expression is true.
func (lo LogicalOr) Eval(current, key any, ctx Context) bool {
	for i := range lo {
		if lo[i].Eval(current, key, ctx) {
			return true
		}
	}
	return false
}

// writeTo writes lo's members joined by "||".
func (lo LogicalOr) writeTo(buf *strings.Builder) {
	for i := range lo {
		if i > 0 {
			buf.WriteString("||")
		}
		lo[i].writeTo(buf)
	}
}

// LogicalAnd is a sequence of BasicExpr joined by &&.
// Short-circuits on first false.
type LogicalAnd []BasicExpr

// Eval returns true if all BasicExpr are true.
func (la LogicalAnd) Eval(current, key any, ctx Context) bool {
	for i := range la {
		if !la[i].Eval(current, key, ctx) {
			return false
		}
	}
	return true
}

// writeTo writes la's members joined by "&&".
func (la LogicalAnd) writeTo(buf *strings.Builder) {
	for i := range la {
		if i > 0 {
			buf.WriteString("&&")
		}
		la[i].writeTo(buf)
	}
}

// BasicExpr is a filter expression that evaluates to a boolean.
type BasicExpr interface {
	Eval(current, key any, ctx Context) bool
	writeTo(buf *strings.Builder)
}

// ExistExpr tests if a query selects at least one node.
type ExistExpr struct {
	Query *PathQuery
}

// Eval returns true if the query selects at least one node.
func (e *ExistExpr) Eval(current, key any, ctx Context) bool {
	// Special case: bare @ or $ with no segments always exists
	if len(e.Query.Segments()) == 0 {
		return true
	}
	nodes := e.Query.Select(current, ctx)
	return len(nodes) > 0
}

func (e *ExistExpr) writeTo(buf *strings.Builder) { e.Query.writeTo(buf) }

// NonExistExpr tests if a query selects no nodes.
type NonExistExpr struct {
	Query *PathQuery
}

// Eval returns true if the query selects no nodes.
func (e *NonExistExpr) Eval(current, key any, ctx Context) bool {
	// Special case: bare @ or $ with no segments always exists, so negation is false
	if len(e.Query.Segments()) == 0 {
		return false
	}
	nodes := e.Query.Select(current, ctx)
	return len(nodes) == 0
}

func (e *NonExistExpr) writeTo(buf *strings.Builder) {
	buf.WriteByte('!')
	e.Query.writeTo(buf)
}

// ParenExpr is a parenthesized logical expression.
type ParenExpr struct {
	Expr *LogicalOr
}

// Eval evaluates the parenthesized expression.
func (p *ParenExpr) Eval(current, key any, ctx Context) bool {
	return p.Expr.Eval(current, key, ctx)
}

func (p *ParenExpr) writeTo(buf *strings.Builder) {
	buf.WriteByte('(')
	p.Expr.writeTo(buf)
	buf.WriteByte(')')
}

// NotParenExpr is a negated parenthesized logical expression.
type NotParenExpr struct {
	Expr *LogicalOr
}

// Eval evaluates the negated parenthesized expression.
func (n *NotParenExpr) Eval(current, key any, ctx Context) bool {
	return !n.Expr.Eval(current, key, ctx)
}

func (n *NotParenExpr) writeTo(buf *strings.Builder) {
	buf.WriteString("!(")
	n.Expr.writeTo(buf)
	buf.WriteByte(')')
}

// NegFuncExpr is a negated logical function call expression (!match(), !search()).
type NegFuncExpr struct {
	Func *FuncExpr
}

// Eval evaluates the negated function call.
func (n *NegFuncExpr) Eval(current, key any, ctx Context) bool {
	return !n.Func.Eval(current, key, ctx)
}

func (n *NegFuncExpr) writeTo(buf *strings.Builder) {
	buf.WriteByte('!')
	n.Func.writeTo(buf)
}

// MembershipExpr evaluates `x in S` / `S contains x`. Contains is parsed as
// `b in a` (operands swapped at parse time): `a contains b` builds the same
// tree as `b in a`.
type MembershipExpr struct {
	Elem CompValue
	Set  CompValue
}

// Eval returns true if Elem is a member of Set: an array containing a
// structurally equal element, an object containing Elem as a string key, or
// a list literal containing an equal element.
func (m *MembershipExpr) Eval(current, key any, ctx Context) bool {
	elem := m.Elem.Value(current, key, ctx)
	set := m.Set.Value(current, key, ctx)

	switch s := set.(type) {
	case []any:
		for _, v := range s {
			if equalTo(elem, v) {
				return true
			}
		}
		return false
	case map[string]any:
		str, ok := elem.(string)
		if !ok {
			return false
		}
		_, ok = s[str]
		return ok
	default:
		return false
	}
}

// writeTo writes m in its canonical "elem in set" form, regardless of
// whether it was parsed from `in` or `contains` (the two are the same tree
// with operands swapped at parse time).
func (m *MembershipExpr) writeTo(buf *strings.Builder) {
	m.Elem.writeTo(buf)
	buf.WriteString(" in ")
	m.Set.writeTo(buf)
}

// RegexMatchExpr evaluates `left =~ /pattern/`; the regex literal carries no
// flags. The regex is compiled
// eagerly at parse time; Left is coerced to a string for matching.
type RegexMatchExpr struct {
	Left  CompValue
	Regex *regexp.Regexp
}

// Eval returns true if Left, coerced to a string, matches Regex. Non-string
// values reduce to false.
func (r *RegexMatchExpr) Eval(current, key any, ctx Context) bool {
	if r.Regex == nil {
		return false
	}
	v := r.Left.Value(current, key, ctx)
	s, ok := v.(string)
	if !ok {
		return false
	}
	return r.Regex.MatchString(s)
}

// writeTo writes r's left operand followed by "=~/pattern/", using the
// compiled regex's own canonical pattern text.
func (r *RegexMatchExpr) writeTo(buf *strings.Builder) {
	r.Left.writeTo(buf)
	buf.WriteString("=~/")
	if r.Regex != nil {
		buf.WriteString(r.Regex.String())
	}
	buf.WriteByte('/')
}

// CompOp is a comparison operator.
type CompOp uint8

const (
	Equal        CompOp = iota // ==
	NotEqual                   // !=
	Less                       // <
	LessEqual                  // <=
	Greater                    // >
	GreaterEqual               // >=
)

// CompExpr is a comparison expression.
type CompExpr struct {
	Left  CompValue
	Op    CompOp
	Right CompValue
}

// Eval evaluates the comparison expression.
func (c *CompExpr) Eval(current, key any, ctx Context) bool {
	left := c.Left.Value(current, key, ctx)
	right := c.Right.Value(current, key, ctx)

	switch c.Op {
	case Equal:
		return equalTo(left, right)
	case NotEqual:
		return !equalTo(left, right)
	case Less:
		return sameType(left, right) && lessThan(left, right)
	case LessEqual:
		return sameType(left, right) && (lessThan(left, right) || equalTo(left, right))
	case Greater:
		return sameType(left, right) && !lessThan(left, right) && !equalTo(left, right)
	case GreaterEqual:
		return sameType(left, right) && !lessThan(left, right)
	}
	return false
}

// writeTo writes c's left operand, operator, and right operand.
func (c *CompExpr) writeTo(buf *strings.Builder) {
	c.Left.writeTo(buf)
	c.Op.writeTo(buf)
	c.Right.writeTo(buf)
}

// writeTo writes op's canonical operator token.
func (op CompOp) writeTo(buf *strings.Builder) {
	switch op {
	case Equal:
		buf.WriteString("==")
	case NotEqual:
		buf.WriteString("!=")
	case Less:
		buf.WriteString("<")
	case LessEqual:
		buf.WriteString("<=")
	case Greater:
		buf.WriteString(">")
	case GreaterEqual:
		buf.WriteString(">=")
	}
}

// CompValue represents a comparable value in a comparison expression.
type CompValue interface {
	Value(current, key any, ctx Context) any
	writeTo(buf *strings.Builder)
}

// LiteralValue is a literal value (string, number, bool, null).
type LiteralValue struct {
	Val any
}

// Value returns the literal value.
func (l *LiteralValue) Value(current, key any, ctx Context) any {
	return l.Val
}

func (l *LiteralValue) writeTo(buf *strings.Builder) { writeLiteral(buf, l.Val) }

// writeLiteral writes the canonical JSONPath literal syntax for v (a
// string, int64, float64, bool, or jsonNull).
func writeLiteral(buf *strings.Builder, v any) {
	switch val := v.(type) {
	case string:
		buf.WriteString(strconv.Quote(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float64:
		buf.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case jsonNull:
		buf.WriteString("null")
	default:
		buf.WriteString("null")
	}
}

// ListLiteral is a non-standard `[a, b, c]` list literal usable as the
// right-hand operand of `in`.
type ListLiteral struct {
	Elems []CompValue
}

// Value returns the list of evaluated element values as []any.
func (l *ListLiteral) Value(current, key any, ctx Context) any {
	out := make([]any, len(l.Elems))
	for i, e := range l.Elems {
		out[i] = e.Value(current, key, ctx)
	}
	return out
}

func (l *ListLiteral) writeTo(buf *strings.Builder) {
	buf.WriteByte('[')
	for i, e := range l.Elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		e.writeTo(buf)
	}
	buf.WriteByte(']')
}

// QueryValue is a query used as a comparison or function-argument operand.
type QueryValue struct {
	Query *PathQuery
}

// Value returns the first value selected by the query, or the "nothing"
// sentinel if the query selects zero or more than one node.
func (q *QueryValue) Value(current, key any, ctx Context) any {
	nodes := q.Query.Select(current, ctx)
	if len(nodes) != 1 {
		return Nothing{}
	}
	return nodes[0]
}

func (q *QueryValue) writeTo(buf *strings.Builder) { q.Query.writeTo(buf) }

// CurrentKeyValue is the `#` token: the object member name or array index
// the current node was reached under.
type CurrentKeyValue struct{}

// Value returns the current key/index, or the "nothing" sentinel if there
// is none in scope.
func (CurrentKeyValue) Value(current, key any, ctx Context) any {
	if key == nil {
		return Nothing{}
	}
	return key
}

func (CurrentKeyValue) writeTo(buf *strings.Builder) { buf.WriteByte('#') }

// Nothing is the sentinel value representing UNDEFINED: "no such value",
// distinct from every JSONValue including null. It is produced wherever a
// singular query or the `#` current-key token has nothing to yield, and is
// exported so the functions package can recognize it as the "undefined"/
// "missing" isinstance() alias.
type Nothing struct{}

// jsonNull is a sentinel type representing a literal JSON null value.
type jsonNull struct{}

// JSONNull returns a sentinel value representing a literal JSON null.
func JSONNull() jsonNull {
	return jsonNull{}
}

// FuncValue is a function call that produces a value.
type FuncValue struct {
	Func *FuncExpr
}

// Value returns the result of the function call.
func (f *FuncValue) Value(current, key any, ctx Context) any {
	return f.Func.Call(current, key, ctx)
}

func (f *FuncValue) writeTo(buf *strings.Builder) { f.Func.writeTo(buf) }

// sameType returns true if both values have compatible types for ordering comparison.
func sameType(a, b any) bool {
	// If either value is "nothing", they're not comparable
	if _, ok := a.(Nothing); ok {
		return false
	}
	if _, ok := b.(Nothing); ok {
		return false
	}

	_, aIsJSONNull := a.(jsonNull)
	_, bIsJSONNull := b.(jsonNull)

	// JSON null and Go nil are the same for comparison
	aIsNull := aIsJSONNull || a == nil
	bIsNull := bIsJSONNull || b == nil

	// Nulls are only comparable to other nulls for ordering
	if aIsNull || bIsNull {
		return aIsNull && bIsNull
	}

	// Numeric types are compatible
	if isNumeric(a) && isNumeric(b) {
		return true
	}

	// Otherwise, types must match exactly
	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case bool:
		_, ok := b.(bool)
		return ok
	default:
		return false
	}
}

// isNumeric returns true if v is a numeric type.
func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float32, float64:
		return true
	default:
		return false
	}
}

// equalTo returns true if a equals b, with numeric type coercion and deep equality.
func equalTo(a, b any) bool {
	_, aIsNothing := a.(Nothing)
	_, bIsNothing := b.(Nothing)
	_, aIsJSONNull := a.(jsonNull)
	_, bIsJSONNull := b.(jsonNull)

	// Treat nothing and nil as the same "no value" sentinel
	aIsNoValue := aIsNothing || (a == nil && !aIsJSONNull && !bIsJSONNull)
	bIsNoValue := bIsNothing || (b == nil && !aIsJSONNull && !bIsJSONNull)

	if aIsNoValue && bIsNoValue {
		return true
	}
	if aIsNoValue || bIsNoValue {
		return false
	}

	// JSON null (literal) equals Go nil (from document)
	if (aIsJSONNull && b == nil) || (a == nil && bIsJSONNull) || (aIsJSONNull && bIsJSONNull) {
		return true
	}
	if aIsJSONNull || bIsJSONNull {
		return false
	}

	// Numeric comparison with coercion
	if isNumeric(a) && isNumeric(b) {
		return toFloat64(a) == toFloat64(b)
	}

	// Deep equality for arrays
	aArr, aIsArr := a.([]any)
	bArr, bIsArr := b.([]any)
	if aIsArr && bIsArr {
		if len(aArr) != len(bArr) {
			return false
		}
		for i := range aArr {
			if !equalTo(aArr[i], bArr[i]) {
				return false
			}
		}
		return true
	}

	// Deep equality for objects
	aObj, aIsObj := a.(map[string]any)
	bObj, bIsObj := b.(map[string]any)
	if aIsObj && bIsObj {
		if len(aObj) != len(bObj) {
			return false
		}
		for k, v := range aObj {
			bv, ok := bObj[k]
			if !ok || !equalTo(v, bv) {
				return false
			}
		}
		return true
	}

	// If one is array/object and the other isn't, they're not equal
	if aIsArr || bIsArr || aIsObj || bIsObj {
		return false
	}

	// Direct comparison for other types (string, bool)
	return a == b
}

// lessThan returns true if a < b. Assumes sameType(a, b) is true.
func lessThan(a, b any) bool {
	if a == nil || b == nil {
		return false
	}

	// Numeric comparison
	if isNumeric(a) && isNumeric(b) {
		return toFloat64(a) < toFloat64(b)
	}

	// String comparison
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return sa < sb
		}
	}

	return false
}

// toFloat64 converts a numeric value to float64.
func toFloat64(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
