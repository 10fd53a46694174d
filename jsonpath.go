package jsonpath

import (
	"errors"
	"reflect"
	"slices"

	"github.com/agentable/jsonpath/internal/ast"
	"github.com/go-json-experiment/json"
)

// Path is a compiled JSONPath query, possibly combining several root queries
// with union (|) and intersection (&). Safe for concurrent use.
type Path struct {
	query         *ast.CompoundQuery
	filterCaching bool
}

// newContext builds the evaluation context for a top-level Select/SelectLocated
// call, attaching a fresh [ast.FilterCache] when p was parsed with the
// `filter_caching` Environment option.
func (p *Path) newContext(input, extra any) ast.Context {
	if p.filterCaching {
		return ast.NewContextWithCache(input, extra)
	}
	return ast.NewContext(input, extra)
}

// Select returns all nodes matched by p in input.
// input must be the result of json.Unmarshal (any / []any / map[string]any)
// or a value produced by github.com/go-json-experiment/json.
func (p *Path) Select(input any) NodeList {
	return p.SelectWithExtra(input, nil)
}

// SelectWithExtra is like Select, but binds extra to the `_` identifier for
// queries that reference the non-standard extra filter context.
func (p *Path) SelectWithExtra(input, extra any) NodeList {
	if p.query == nil {
		return nil
	}
	ctx := p.newContext(input, extra)

	result := p.query.Lead.Select(input, ctx)
	for _, m := range p.query.Members {
		other := m.Query.Select(input, ctx)
		switch m.Op {
		case ast.Union:
			result = append(result, other...)
		case ast.Intersect:
			result = intersectValues(result, other)
		}
	}
	return NodeList(result)
}

// SelectLocated returns matched nodes paired with their normalized paths.
func (p *Path) SelectLocated(input any) LocatedNodeList {
	return p.SelectLocatedWithExtra(input, nil)
}

// SelectLocatedWithExtra is like SelectLocated, but binds extra to the `_`
// identifier for queries that reference the non-standard extra filter context.
func (p *Path) SelectLocatedWithExtra(input, extra any) LocatedNodeList {
	if p.query == nil {
		return nil
	}
	ctx := p.newContext(input, extra)

	result := selectQueryLocated(p.query.Lead, input, ctx)
	for _, m := range p.query.Members {
		other := selectQueryLocated(m.Query, input, ctx)
		switch m.Op {
		case ast.Union:
			result = append(result, other...)
		case ast.Intersect:
			result = intersectLocated(result, other)
		}
	}
	return LocatedNodeList(result)
}

// String returns the canonical string representation of p.
func (p *Path) String() string {
	if p.query == nil {
		return ""
	}
	return p.query.String()
}

// MarshalText implements encoding.TextMarshaler.
func (p *Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Path) UnmarshalText(text []byte) error {
	path, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = *path
	return nil
}

// Parse compiles a JSONPath expression under the default [Environment].
// Returns ErrPathParse on failure.
func Parse(expr string) (*Path, error) {
	return NewEnvironment().Parse(expr)
}

// MustParse compiles a JSONPath expression under the default [Environment].
// Panics on failure.
func MustParse(expr string) *Path {
	path, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return path
}

// Valid reports whether expr is a syntactically valid JSONPath expression
// under the default [Environment].
func Valid(expr string) bool {
	_, err := Parse(expr)
	return err == nil
}

// QueryJSON unmarshals src and evaluates path against it.
// Uses github.com/go-json-experiment/json for unmarshaling.
func QueryJSON(src []byte, path *Path) (NodeList, error) {
	var v any
	if err := json.Unmarshal(src, &v, json.DefaultOptionsV2()); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	return path.Select(v), nil
}

// QueryJSONLocated is the located variant of QueryJSON.
func QueryJSONLocated(src []byte, path *Path) (LocatedNodeList, error) {
	var v any
	if err := json.Unmarshal(src, &v, json.DefaultOptionsV2()); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	return path.SelectLocated(v), nil
}

// intersectValues returns the elements of a that are structurally equal to
// some element of b, preserving a's order and duplicates.
func intersectValues(a, b []any) []any {
	out := make([]any, 0, len(a))
	for _, v := range a {
		if slices.ContainsFunc(b, func(o any) bool { return reflect.DeepEqual(v, o) }) {
			out = append(out, v)
		}
	}
	return out
}

// intersectLocated returns the elements of a whose normalized path also
// appears among b's, preserving a's order.
func intersectLocated(a, b []*LocatedNode) []*LocatedNode {
	seen := make(map[string]struct{}, len(b))
	for _, n := range b {
		seen[n.Path.String()] = struct{}{}
	}
	out := make([]*LocatedNode, 0, len(a))
	for _, n := range a {
		if _, ok := seen[n.Path.String()]; ok {
			out = append(out, n)
		}
	}
	return out
}

// extendPath creates a new path by appending elem to path.
// The original path is not modified.
func extendPath(path NormalizedPath, elem PathElement) NormalizedPath {
	return append(slices.Clone(path), elem)
}

// selectQueryLocated evaluates q against input and ctx, tracking each
// result's normalized path. q's own kind decides its starting value, as in
// [ast.PathQuery.Select]: ctx.Extra for _, ctx.PseudoRoot for ^, and input
// otherwise. Paths are recorded relative to that starting value.
func selectQueryLocated(q *ast.PathQuery, input any, ctx ast.Context) []*LocatedNode {
	start := input
	switch q.Kind() {
	case ast.ExtraQuery:
		start = ctx.Extra
	case ast.PseudoRootQuery:
		start = ctx.PseudoRoot
	}
	result := []*LocatedNode{{Value: start, Path: nil}}
	segments := q.Segments()
	for i := range segments {
		result = applySegmentLocated(&segments[i], result, ctx)
	}
	return result
}

// applySegmentLocated applies a segment to a list of located nodes, returning the new located node list.
func applySegmentLocated(seg *ast.Segment, nodes []*LocatedNode, ctx ast.Context) []*LocatedNode {
	if len(nodes) == 0 {
		return nodes
	}
	out := make([]*LocatedNode, 0, len(nodes))
	selectors := seg.Selectors()
	if seg.IsDescendant() {
		for _, n := range nodes {
			out = appendDescendantLocated(out, selectors, n.Value, n.Path, ctx)
		}
	} else {
		for _, n := range nodes {
			out = appendSelectorsLocated(out, selectors, n.Value, n.Path, ctx)
		}
	}
	return out
}

// appendDescendantLocated recursively applies selectors to node and all its descendants.
func appendDescendantLocated(out []*LocatedNode, selectors []ast.Selector, node any, path NormalizedPath, ctx ast.Context) []*LocatedNode {
	out = appendSelectorsLocated(out, selectors, node, path, ctx)

	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			out = appendDescendantLocated(out, selectors, child, extendPath(path, NameElement(key)), ctx)
		}
	case []any:
		for idx, child := range v {
			out = appendDescendantLocated(out, selectors, child, extendPath(path, IndexElement(idx)), ctx)
		}
	}
	return out
}

// appendSelectorsLocated applies a list of selectors to node, appending matches to out.
func appendSelectorsLocated(out []*LocatedNode, selectors []ast.Selector, node any, path NormalizedPath, ctx ast.Context) []*LocatedNode {
	for i := range selectors {
		out = appendSelectorLocated(out, &selectors[i], node, path, ctx)
	}
	return out
}

// appendSelectorLocated applies a single selector to node, appending matches with
// their extended paths to out.
func appendSelectorLocated(out []*LocatedNode, sel *ast.Selector, node any, path NormalizedPath, ctx ast.Context) []*LocatedNode {
	switch sel.Kind {
	case ast.Name:
		if m, ok := node.(map[string]any); ok {
			if v, ok := m[sel.Name]; ok {
				out = append(out, &LocatedNode{Value: v, Path: extendPath(path, NameElement(sel.Name))})
			}
		}
	case ast.Index:
		if arr, ok := node.([]any); ok {
			idx := normalizeIndex(sel.Index, len(arr))
			if idx >= 0 {
				out = append(out, &LocatedNode{Value: arr[idx], Path: extendPath(path, IndexElement(idx))})
			}
		}
	case ast.Slice:
		if arr, ok := node.([]any); ok {
			for _, idx := range sliceIndices(sel.Slice, len(arr)) {
				out = append(out, &LocatedNode{Value: arr[idx], Path: extendPath(path, IndexElement(idx))})
			}
		}
	case ast.Wildcard:
		switch v := node.(type) {
		case map[string]any:
			for key, val := range v {
				out = append(out, &LocatedNode{Value: val, Path: extendPath(path, NameElement(key))})
			}
		case []any:
			for idx, val := range v {
				out = append(out, &LocatedNode{Value: val, Path: extendPath(path, IndexElement(idx))})
			}
		}
	case ast.Filter:
		switch v := node.(type) {
		case map[string]any:
			for key, val := range v {
				if sel.Filter.Eval(val, key, ctx) {
					out = append(out, &LocatedNode{Value: val, Path: extendPath(path, NameElement(key))})
				}
			}
		case []any:
			for idx, val := range v {
				if sel.Filter.Eval(val, int64(idx), ctx) {
					out = append(out, &LocatedNode{Value: val, Path: extendPath(path, IndexElement(idx))})
				}
			}
		}
	case ast.Key:
		if m, ok := node.(map[string]any); ok {
			if _, ok := m[sel.Name]; ok {
				out = append(out, &LocatedNode{Value: sel.Name, Path: extendPath(path, KeyElement(sel.Name))})
			}
		}
	case ast.Keys:
		if m, ok := node.(map[string]any); ok {
			for key := range m {
				out = append(out, &LocatedNode{Value: key, Path: extendPath(path, KeyElement(key))})
			}
		}
	case ast.KeysFilter:
		if m, ok := node.(map[string]any); ok {
			for key, val := range m {
				if sel.Filter.Eval(val, key, ctx) {
					out = append(out, &LocatedNode{Value: key, Path: extendPath(path, KeyElement(key))})
				}
			}
		}
	case ast.SingularQuerySelector:
		out = appendSingularQuerySelectorLocated(out, sel.Query, node, path, ctx)
	}
	return out
}

// appendSingularQuerySelectorLocated evaluates sel's embedded absolute
// singular query against ctx and applies the resulting key or index to node.
func appendSingularQuerySelectorLocated(out []*LocatedNode, q *ast.SingularQuery, node any, path NormalizedPath, ctx ast.Context) []*LocatedNode {
	nodes := evalSingularQuery(q, ctx)
	if len(nodes) != 1 {
		return out
	}
	switch key := nodes[0].(type) {
	case string:
		if m, ok := node.(map[string]any); ok {
			if v, ok := m[key]; ok {
				out = append(out, &LocatedNode{Value: v, Path: extendPath(path, NameElement(key))})
			}
		}
	case int64:
		if arr, ok := node.([]any); ok {
			idx := normalizeIndex(key, len(arr))
			if idx >= 0 {
				out = append(out, &LocatedNode{Value: arr[idx], Path: extendPath(path, IndexElement(idx))})
			}
		}
	}
	return out
}

// evalSingularQuery evaluates an absolute singular query (from an embedded
// SingularQuerySelector) against ctx.
func evalSingularQuery(q *ast.SingularQuery, ctx ast.Context) []any {
	var start any
	switch q.Kind() {
	case ast.ExtraQuery:
		start = ctx.Extra
	case ast.PseudoRootQuery:
		start = ctx.PseudoRoot
	default:
		start = ctx.Root
	}

	result := []any{start}
	for _, sel := range q.Selectors() {
		next := make([]any, 0, len(result))
		for _, node := range result {
			next = sel.Apply(next, node, ctx)
		}
		result = next
	}
	return result
}

// normalizeIndex converts a possibly-negative index to a non-negative index.
// Negative indices count from the end of the array.
// Returns -1 if the index is out of bounds.
func normalizeIndex(idx int64, length int) int {
	if idx < 0 {
		idx += int64(length)
	}
	if idx < 0 || idx >= int64(length) {
		return -1
	}
	return int(idx)
}

// sliceIndices calculates the array indices a slice selector selects, in the
// order they should be selected.
func sliceIndices(args ast.SliceArgs, length int) []int {
	if length == 0 {
		return nil
	}

	step := int64(1)
	if args.HasStep {
		step = args.Step
	}
	if step == 0 {
		return nil
	}

	var start, end int64
	if step > 0 {
		start = 0
		if args.HasStart {
			start = args.Start
		}
		end = int64(length)
		if args.HasEnd {
			end = args.End
		}
	} else {
		start = int64(length - 1)
		if args.HasStart {
			start = args.Start
		}
		end = -int64(length) - 1
		if args.HasEnd {
			end = args.End
		}
	}

	start, end = normalizeSliceBounds(start, end, step, length)

	var indices []int
	if step > 0 {
		for i := start; i < end; i += step {
			if i >= 0 && i < int64(length) {
				indices = append(indices, int(i))
			}
		}
	} else {
		for i := start; i > end; i += step {
			if i >= 0 && i < int64(length) {
				indices = append(indices, int(i))
			}
		}
	}
	return indices
}

// normalizeSliceBounds normalizes start and end indices for slice operations
// according to RFC 9535 §2.3.4. Handles negative indices and out-of-bounds
// values based on the step direction.
func normalizeSliceBounds(start, end, step int64, length int) (int64, int64) {
	if start < 0 {
		start += int64(length)
		if start < 0 && step > 0 {
			start = 0
		}
	} else if start >= int64(length) && step < 0 {
		start = int64(length - 1)
	}

	if end < 0 {
		end += int64(length)
		if end < 0 && step < 0 {
			end = -1
		}
	} else if end > int64(length) {
		end = int64(length)
	}

	return start, end
}
