package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPathQuery(t *testing.T) {
	t.Parallel()

	t.Run("root_no_segments", func(t *testing.T) {
		t.Parallel()
		q := NewPathQuery(RootQuery)
		assert.True(t, q.IsRoot())
		assert.Empty(t, q.Segments())
	})

	t.Run("relative_no_segments", func(t *testing.T) {
		t.Parallel()
		q := NewPathQuery(CurrentQuery)
		assert.False(t, q.IsRoot())
		assert.Empty(t, q.Segments())
	})

	t.Run("pseudo_root_is_root", func(t *testing.T) {
		t.Parallel()
		q := NewPathQuery(PseudoRootQuery)
		assert.True(t, q.IsRoot())
	})

	t.Run("extra_is_not_root", func(t *testing.T) {
		t.Parallel()
		q := NewPathQuery(ExtraQuery)
		assert.False(t, q.IsRoot())
	})

	t.Run("root_with_segments", func(t *testing.T) {
		t.Parallel()
		segs := []Segment{Child(NameSelector("x")), Child(IndexSelector(0))}
		q := NewPathQuery(RootQuery, segs...)
		assert.True(t, q.IsRoot())
		require.Len(t, q.Segments(), 2)
		assert.Equal(t, Name, q.Segments()[0].Selectors()[0].Kind)
		assert.Equal(t, Index, q.Segments()[1].Selectors()[0].Kind)
	})
}

func TestPathQueryString(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		q    *PathQuery
		want string
	}{
		{
			name: "root_empty",
			q:    NewPathQuery(RootQuery),
			want: "$",
		},
		{
			name: "relative_empty",
			q:    NewPathQuery(CurrentQuery),
			want: "@",
		},
		{
			name: "pseudo_root_empty",
			q:    NewPathQuery(PseudoRootQuery),
			want: "^",
		},
		{
			name: "extra_empty",
			q:    NewPathQuery(ExtraQuery),
			want: "_",
		},
		{
			name: "root_single_name",
			q:    NewPathQuery(RootQuery, Child(NameSelector("foo"))),
			want: `$["foo"]`,
		},
		{
			name: "relative_single_name",
			q:    NewPathQuery(CurrentQuery, Child(NameSelector("bar"))),
			want: `@["bar"]`,
		},
		{
			name: "root_name_then_index",
			q:    NewPathQuery(RootQuery, Child(NameSelector("a")), Child(IndexSelector(0))),
			want: `$["a"][0]`,
		},
		{
			name: "descendant_name",
			q:    NewPathQuery(RootQuery, Descendant(NameSelector("x"))),
			want: `$..["x"]`,
		},
		{
			name: "wildcard",
			q:    NewPathQuery(RootQuery, Child(WildcardSelector())),
			want: `$[*]`,
		},
		{
			name: "multiple_selectors",
			q:    NewPathQuery(RootQuery, Child(NameSelector("a"), NameSelector("b"))),
			want: `$["a","b"]`,
		},
		{
			name: "slice_full",
			q: NewPathQuery(RootQuery, Child(SliceSelector(SliceArgs{
				Start: 1, End: 5, Step: 2,
				HasStart: true, HasEnd: true, HasStep: true,
			}))),
			want: `$[1:5:2]`,
		},
		{
			name: "slice_no_start",
			q: NewPathQuery(RootQuery, Child(SliceSelector(SliceArgs{
				End: 3, HasEnd: true,
			}))),
			want: `$[:3]`,
		},
		{
			name: "mixed_segments",
			q: NewPathQuery(RootQuery,
				Child(NameSelector("store")),
				Descendant(WildcardSelector()),
				Child(IndexSelector(0)),
			),
			want: `$["store"]..[*][0]`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.q.String())
		})
	}
}

func TestPathQueryIsSingular(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name     string
		q        *PathQuery
		singular bool
	}{
		{
			name:     "empty_query",
			q:        NewPathQuery(RootQuery),
			singular: true,
		},
		{
			name:     "single_name",
			q:        NewPathQuery(RootQuery, Child(NameSelector("x"))),
			singular: true,
		},
		{
			name:     "single_index",
			q:        NewPathQuery(RootQuery, Child(IndexSelector(0))),
			singular: true,
		},
		{
			name:     "name_then_index",
			q:        NewPathQuery(RootQuery, Child(NameSelector("a")), Child(IndexSelector(0))),
			singular: true,
		},
		{
			name:     "descendant_not_singular",
			q:        NewPathQuery(RootQuery, Descendant(NameSelector("x"))),
			singular: false,
		},
		{
			name:     "wildcard_not_singular",
			q:        NewPathQuery(RootQuery, Child(WildcardSelector())),
			singular: false,
		},
		{
			name:     "slice_not_singular",
			q:        NewPathQuery(RootQuery, Child(SliceSelector(SliceArgs{HasStart: true, Start: 0}))),
			singular: false,
		},
		{
			name:     "filter_not_singular",
			q:        NewPathQuery(RootQuery, Child(FilterSelector(&FilterExpr{}))),
			singular: false,
		},
		{
			name:     "multiple_selectors_not_singular",
			q:        NewPathQuery(RootQuery, Child(NameSelector("a"), NameSelector("b"))),
			singular: false,
		},
		{
			name: "singular_then_non_singular",
			q: NewPathQuery(RootQuery,
				Child(NameSelector("a")),
				Child(WildcardSelector()),
			),
			singular: false,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.singular, tc.q.IsSingular())
		})
	}
}

func TestPathQuerySingular(t *testing.T) {
	t.Parallel()

	t.Run("returns_nil_for_non_singular", func(t *testing.T) {
		t.Parallel()
		q := NewPathQuery(RootQuery, Child(WildcardSelector()))
		assert.Nil(t, q.Singular())
	})

	t.Run("returns_singular_for_root_name", func(t *testing.T) {
		t.Parallel()
		q := NewPathQuery(RootQuery, Child(NameSelector("x")))
		sq := q.Singular()
		require.NotNil(t, sq)
		assert.False(t, sq.IsRelative())
		require.Len(t, sq.Selectors(), 1)
		assert.Equal(t, Name, sq.Selectors()[0].Kind)
		assert.Equal(t, "x", sq.Selectors()[0].Name)
	})

	t.Run("returns_singular_for_relative", func(t *testing.T) {
		t.Parallel()
		q := NewPathQuery(CurrentQuery, Child(NameSelector("a")), Child(IndexSelector(1)))
		sq := q.Singular()
		require.NotNil(t, sq)
		assert.True(t, sq.IsRelative())
		require.Len(t, sq.Selectors(), 2)
		assert.Equal(t, "a", sq.Selectors()[0].Name)
		assert.Equal(t, int64(1), sq.Selectors()[1].Index)
	})
}

func TestSingularQueryString(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		sq   *SingularQuery
		want string
	}{
		{
			name: "root_name",
			sq:   NewSingularQuery(RootQuery, NameSelector("x")),
			want: `$["x"]`,
		},
		{
			name: "relative_name",
			sq:   NewSingularQuery(CurrentQuery, NameSelector("x")),
			want: `@["x"]`,
		},
		{
			name: "root_name_index",
			sq:   NewSingularQuery(RootQuery, NameSelector("a"), IndexSelector(0)),
			want: `$["a"][0]`,
		},
		{
			name: "relative_index",
			sq:   NewSingularQuery(CurrentQuery, IndexSelector(3)),
			want: `@[3]`,
		},
		{
			name: "empty",
			sq:   NewSingularQuery(RootQuery),
			want: `$`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.sq.String())
		})
	}
}

func TestSingularQueryFromPathQuery(t *testing.T) {
	t.Parallel()

	// Verify round-trip: PathQuery → Singular → String matches expected.
	q := NewPathQuery(RootQuery, Child(NameSelector("store")), Child(IndexSelector(0)))
	sq := q.Singular()
	require.NotNil(t, sq)
	assert.Equal(t, `$["store"][0]`, sq.String())
	assert.False(t, sq.IsRelative())
}

func TestQueryKindString(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		kind QueryKind
		want string
	}{
		{RootQuery, "$"},
		{CurrentQuery, "@"},
		{ExtraQuery, "_"},
		{PseudoRootQuery, "^"},
	} {
		assert.Equal(t, tc.want, tc.kind.String())
	}
}

func TestPathQuerySelect(t *testing.T) {
	t.Parallel()

	root := map[string]any{"a": 1.0, "b": []any{2.0, 3.0}}
	ctx := NewContext(root, "extra-val")

	t.Run("root_query", func(t *testing.T) {
		t.Parallel()
		q := NewPathQuery(RootQuery, Child(NameSelector("a")))
		assert.Equal(t, []any{1.0}, q.Select(nil, ctx))
	})

	t.Run("current_query", func(t *testing.T) {
		t.Parallel()
		q := NewPathQuery(CurrentQuery, Child(NameSelector("a")))
		assert.Equal(t, []any{1.0}, q.Select(root, ctx))
	})

	t.Run("extra_query", func(t *testing.T) {
		t.Parallel()
		q := NewPathQuery(ExtraQuery)
		assert.Equal(t, []any{"extra-val"}, q.Select(nil, ctx))
	})

	t.Run("pseudo_root_query", func(t *testing.T) {
		t.Parallel()
		q := NewPathQuery(PseudoRootQuery, Child(IndexSelector(0)))
		assert.Equal(t, []any{root}, q.Select(nil, ctx))
	})
}

func TestCompoundQueryString(t *testing.T) {
	t.Parallel()

	c := &CompoundQuery{
		Lead: NewPathQuery(RootQuery, Child(NameSelector("a"))),
		Members: []CompoundMember{
			{Op: Union, Query: NewPathQuery(RootQuery, Child(NameSelector("b")))},
			{Op: Intersect, Query: NewPathQuery(RootQuery, Child(NameSelector("c")))},
		},
	}
	assert.Equal(t, `$["a"]|$["b"]&$["c"]`, c.String())
}
