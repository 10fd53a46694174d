package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelative(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name    string
		input   string
		want    RelativePointer
		wantErr bool
	}{
		{name: "up_only", input: "0", want: RelativePointer{Up: 0, Suffix: Pointer{}}},
		{name: "up_two", input: "2", want: RelativePointer{Up: 2, Suffix: Pointer{}}},
		{name: "up_with_suffix", input: "1/highly/nested", want: RelativePointer{Up: 1, Suffix: Pointer{"highly", "nested"}}},
		{name: "key_request", input: "0#", want: RelativePointer{Up: 0, KeyRequest: true}},
		{name: "index_offset_plus", input: "0+1", want: RelativePointer{Up: 0, HasOffset: true, Offset: 1, Suffix: Pointer{}}},
		{name: "index_offset_minus", input: "0-1", want: RelativePointer{Up: 0, HasOffset: true, Offset: -1, Suffix: Pointer{}}},
		{name: "offset_with_key_request", input: "1-1#", want: RelativePointer{Up: 1, HasOffset: true, Offset: -1, KeyRequest: true}},
		{name: "empty", input: "", wantErr: true},
		{name: "leading_zero", input: "01", wantErr: true},
		{name: "no_digits", input: "a", wantErr: true},
		{name: "bad_suffix", input: "0x", wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRelative(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRelativePointer_To(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"foo": map[string]any{
			"phones": []any{"111-2222", "333-4444"},
		},
	}
	base := Pointer{"foo", "phones", "1"}

	t.Run("zero_up_returns_origin", func(t *testing.T) {
		r, err := ParseRelative("0")
		require.NoError(t, err)
		got, err := r.To(base, doc)
		require.NoError(t, err)
		assert.Equal(t, "333-4444", got)
	})

	t.Run("offset_minus_one_targets_previous_sibling", func(t *testing.T) {
		r, err := ParseRelative("0-1")
		require.NoError(t, err)
		got, err := r.To(base, doc)
		require.NoError(t, err)
		assert.Equal(t, "111-2222", got)
	})

	t.Run("up_one_targets_array", func(t *testing.T) {
		r, err := ParseRelative("1")
		require.NoError(t, err)
		got, err := r.To(base, doc)
		require.NoError(t, err)
		assert.Equal(t, []any{"111-2222", "333-4444"}, got)
	})

	t.Run("up_two_with_suffix", func(t *testing.T) {
		r, err := ParseRelative("2/phones/0")
		require.NoError(t, err)
		got, err := r.To(base, doc)
		require.NoError(t, err)
		assert.Equal(t, "111-2222", got)
	})

	t.Run("key_request_returns_index", func(t *testing.T) {
		r, err := ParseRelative("0#")
		require.NoError(t, err)
		got, err := r.To(base, doc)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("up_two_key_request_returns_name", func(t *testing.T) {
		r, err := ParseRelative("2#")
		require.NoError(t, err)
		got, err := r.To(base, doc)
		require.NoError(t, err)
		assert.Equal(t, "foo", got)
	})

	t.Run("up_beyond_root_errors", func(t *testing.T) {
		r, err := ParseRelative("10")
		require.NoError(t, err)
		_, err = r.To(base, doc)
		require.Error(t, err)
	})

	t.Run("negative_offset_below_zero_errors", func(t *testing.T) {
		r, err := ParseRelative("0-5")
		require.NoError(t, err)
		_, err = r.To(base, doc)
		require.Error(t, err)
	})
}

func TestRelativePointer_String_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"0", "2", "1/highly/nested", "0#", "0+1", "0-1", "1-1#"} {
		r, err := ParseRelative(input)
		require.NoError(t, err)
		assert.Equal(t, input, r.String())
	}
}
