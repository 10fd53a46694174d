package ast

import "strings"

// QueryKind identifies which identifier a [PathQuery] starts from.
type QueryKind uint8

const (
	RootQuery       QueryKind = iota // $
	CurrentQuery                     // @
	ExtraQuery                       // _ (extra filter context)
	PseudoRootQuery                  // ^
)

// String returns the default symbol for k (the configured symbol may differ
// per Environment; this is used for canonical serialization).
func (k QueryKind) String() string {
	switch k {
	case RootQuery:
		return "$"
	case CurrentQuery:
		return "@"
	case ExtraQuery:
		return "_"
	case PseudoRootQuery:
		return "^"
	default:
		return "$"
	}
}

// PathQuery is the root of a compiled JSONPath expression. It holds a
// sequence of segments and which identifier it starts from.
type PathQuery struct {
	segments []Segment
	kind     QueryKind
}

// NewPathQuery creates a [PathQuery] starting from the given [QueryKind].
func NewPathQuery(kind QueryKind, segments ...Segment) *PathQuery {
	return &PathQuery{kind: kind, segments: segments}
}

// Segments returns the query's segments.
func (q *PathQuery) Segments() []Segment { return q.segments }

// Kind returns which identifier the query starts from.
func (q *PathQuery) Kind() QueryKind { return q.kind }

// IsRoot reports whether the query starts from an absolute identifier
// ($ or the pseudo-root ^) rather than a relative one (@ or _).
func (q *PathQuery) IsRoot() bool { return q.kind == RootQuery || q.kind == PseudoRootQuery }

// IsSingular reports whether the query always selects at most one node.
// A query is singular when every segment is singular (child segment with
// exactly one name, index or embedded singular-query selector) and no segment
// is a descendant segment.
func (q *PathQuery) IsSingular() bool {
	for i := range q.segments {
		if q.segments[i].IsDescendant() {
			return false
		}
		if !q.segments[i].IsSingular() {
			return false
		}
	}
	return true
}

// Singular returns the [SingularQuery] variant of q if q is a singular query,
// or nil otherwise.
func (q *PathQuery) Singular() *SingularQuery {
	if !q.IsSingular() {
		return nil
	}
	sels := make([]Selector, len(q.segments))
	for i := range q.segments {
		sels[i] = q.segments[i].Selectors()[0]
	}
	return &SingularQuery{selectors: sels, kind: q.kind}
}

// writeTo writes the canonical string representation of q to buf.
func (q *PathQuery) writeTo(buf *strings.Builder) {
	buf.WriteString(q.kind.String())
	for i := range q.segments {
		q.segments[i].writeTo(buf)
	}
}

// String returns the canonical string representation of the query,
// e.g. $["a"][0] or @["name"].
func (q *PathQuery) String() string {
	var buf strings.Builder
	q.writeTo(&buf)
	return buf.String()
}

// Select evaluates the query against the given current node and [Context].
// Root queries ($) evaluate against ctx.Root; current queries (@) evaluate
// against current; extra queries (_) evaluate against ctx.Extra; pseudo-root
// queries (^) evaluate against ctx.PseudoRoot.
func (q *PathQuery) Select(current any, ctx Context) []any {
	var start any
	switch q.kind {
	case RootQuery:
		start = ctx.Root
	case ExtraQuery:
		start = ctx.Extra
	case PseudoRootQuery:
		start = ctx.PseudoRoot
	default: // CurrentQuery
		start = current
	}

	result := []any{start}
	for i := range q.segments {
		result = q.segments[i].Apply(result, ctx)
	}
	return result
}

// SingularQuery is a JSONPath query that is guaranteed to select at most one
// node. It is composed of a flat list of name/index selectors extracted from
// singular segments. Per RFC 9535, singular queries can be used as comparison
// operands and as arguments to the value() function.
type SingularQuery struct {
	selectors []Selector
	kind      QueryKind
}

// NewSingularQuery creates a [SingularQuery] starting from the given kind.
func NewSingularQuery(kind QueryKind, selectors ...Selector) *SingularQuery {
	return &SingularQuery{selectors: selectors, kind: kind}
}

// Selectors returns the singular query's selectors.
func (sq *SingularQuery) Selectors() []Selector { return sq.selectors }

// Kind returns which identifier the query starts from.
func (sq *SingularQuery) Kind() QueryKind { return sq.kind }

// IsRelative reports whether the query is relative (@ or _) rather than
// absolute ($ or ^).
func (sq *SingularQuery) IsRelative() bool {
	return sq.kind == CurrentQuery || sq.kind == ExtraQuery
}

// writeTo writes the canonical string representation to buf.
func (sq *SingularQuery) writeTo(buf *strings.Builder) {
	buf.WriteString(sq.kind.String())
	for i := range sq.selectors {
		buf.WriteByte('[')
		sq.selectors[i].writeTo(buf)
		buf.WriteByte(']')
	}
}

// String returns the canonical string representation of the singular query.
func (sq *SingularQuery) String() string {
	var buf strings.Builder
	sq.writeTo(&buf)
	return buf.String()
}

// CompoundOp identifies how a [CompoundMember] combines with the queries
// before it in a [CompoundQuery].
type CompoundOp uint8

const (
	Union     CompoundOp = iota // |
	Intersect                   // &
)

// CompoundMember pairs an operator with the query it applies, for every
// member after the first in a [CompoundQuery].
type CompoundMember struct {
	Op    CompoundOp
	Query *PathQuery
}

// CompoundQuery combines several root queries with union (|) and
// intersection (&), left to right. Compound queries are only valid at the
// top level — never nested inside a filter expression.
type CompoundQuery struct {
	Lead    *PathQuery
	Members []CompoundMember
}

// String returns the canonical string representation of c.
func (c *CompoundQuery) String() string {
	var buf strings.Builder
	buf.WriteString(c.Lead.String())
	for _, m := range c.Members {
		if m.Op == Union {
			buf.WriteByte('|')
		} else {
			buf.WriteByte('&')
		}
		buf.WriteString(m.Query.String())
	}
	return buf.String()
}
