package jsonpath

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
)

// Sentinel errors.
var (
	// ErrPathParse is returned when a JSONPath expression cannot be parsed.
	ErrPathParse = errors.New("jsonpath: parse error")
	// ErrFunction is returned when a JSONPath function call fails.
	ErrFunction = errors.New("jsonpath: function error")
	// ErrUnmarshal is returned when JSON unmarshaling fails in QueryJSON functions.
	ErrUnmarshal = errors.New("jsonpath: unmarshal error")
	// ErrPointerParse is returned when an RFC 6901 JSON Pointer cannot be parsed.
	ErrPointerParse = errors.New("jsonpath: pointer parse error")
	// ErrPointerResolve is returned when a JSON Pointer cannot be resolved
	// against a document (missing key, out-of-range index, or a traversal
	// through a non-container value).
	ErrPointerResolve = errors.New("jsonpath: pointer resolve error")
	// ErrPatchApply is returned when an RFC 6902 JSON Patch operation fails
	// to apply.
	ErrPatchApply = errors.New("jsonpath: patch apply error")
)

// PathElement is one part of a normalized path: a Name (string key), an
// Index (array index), or a non-standard key or marker part. Implemented by
// [NameElement], [IndexElement], [KeyElement] and [MarkerElement].
type PathElement interface {
	pathElement()
	// writeNormalizedTo writes the element formatted as a normalized path
	// element to buf.
	writeNormalizedTo(buf *strings.Builder)
	// writePointerTo writes the element formatted as an RFC 6901 JSON Pointer
	// reference token to buf.
	writePointerTo(buf *strings.Builder)
}

// NameElement is a string key in a normalized path.
type NameElement string

func (NameElement) pathElement() {}

// writeNormalizedTo writes n to buf as ['name'] with proper escaping per
// RFC 9535 §2.7.
func (n NameElement) writeNormalizedTo(buf *strings.Builder) {
	buf.WriteString("['")
	for _, r := range string(n) {
		switch r {
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\'':
			buf.WriteString(`\'`)
		case '\\':
			buf.WriteString(`\\`)
		case '\x00', '\x01', '\x02', '\x03', '\x04', '\x05', '\x06', '\x07',
			'\x0b', '\x0e', '\x0f':
			fmt.Fprintf(buf, `\u000%x`, r)
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteString("']")
}

// writePointerTo writes n to buf as an RFC 6901 JSON Pointer reference token,
// escaping ~ as ~0 and / as ~1.
func (n NameElement) writePointerTo(buf *strings.Builder) {
	s := strings.ReplaceAll(string(n), "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	buf.WriteString(s)
}

// IndexElement is an array index in a normalized path.
type IndexElement int

func (IndexElement) pathElement() {}

// writeNormalizedTo writes i to buf as [N].
func (i IndexElement) writeNormalizedTo(buf *strings.Builder) {
	buf.WriteByte('[')
	buf.WriteString(strconv.Itoa(int(i)))
	buf.WriteByte(']')
}

// writePointerTo writes i to buf as its decimal string.
func (i IndexElement) writePointerTo(buf *strings.Builder) {
	buf.WriteString(strconv.Itoa(int(i)))
}

// KeyElement is a key-selected name in a normalized path, produced by the
// non-standard key (~name) and keys (~) selectors: the path step selected
// the key string itself rather than the corresponding member value.
type KeyElement string

func (KeyElement) pathElement() {}

// writeNormalizedTo writes k to buf as [~'name'].
func (k KeyElement) writeNormalizedTo(buf *strings.Builder) {
	buf.WriteString("[~")
	writeQuotedName(buf, string(k))
	buf.WriteByte(']')
}

// writePointerTo writes k to buf as an RFC 6901 JSON Pointer reference
// token, identically to [NameElement]: the key string is the selected
// value, so it resolves the same way a name would.
func (k KeyElement) writePointerTo(buf *strings.Builder) {
	s := strings.ReplaceAll(string(k), "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	buf.WriteString(s)
}

// MarkerElement is a non-standard key/index marker in a normalized path
// (#N or #'name'), used for synthetic locations that do not correspond to
// a concrete document position (e.g. a keys-selector match's name).
type MarkerElement struct {
	Name   string
	Index  int64
	IsName bool
}

func (MarkerElement) pathElement() {}

// writeNormalizedTo writes m to buf as [#N] or [#'name'].
func (m MarkerElement) writeNormalizedTo(buf *strings.Builder) {
	buf.WriteString("[#")
	if m.IsName {
		writeQuotedName(buf, m.Name)
	} else {
		buf.WriteString(strconv.FormatInt(m.Index, 10))
	}
	buf.WriteByte(']')
}

// writePointerTo writes m to buf as the spec's non-standard #-prefixed
// key/index-marker reference token, since markers do not correspond to a
// concrete document position and must stay distinguishable from an ordinary
// name or index token when the pointer is reparsed ([pointer.Pointer.Parse]).
func (m MarkerElement) writePointerTo(buf *strings.Builder) {
	buf.WriteByte('#')
	if m.IsName {
		s := strings.ReplaceAll(m.Name, "~", "~0")
		s = strings.ReplaceAll(s, "/", "~1")
		buf.WriteString(s)
		return
	}
	buf.WriteString(strconv.FormatInt(m.Index, 10))
}

// writeQuotedName writes name to buf as 'name', with the same escaping
// [NameElement.writeNormalizedTo] applies inside its surrounding brackets.
func writeQuotedName(buf *strings.Builder, name string) {
	buf.WriteByte('\'')
	for _, r := range name {
		switch r {
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\'':
			buf.WriteString(`\'`)
		case '\\':
			buf.WriteString(`\\`)
		case '\x00', '\x01', '\x02', '\x03', '\x04', '\x05', '\x06', '\x07',
			'\x0b', '\x0e', '\x0f':
			fmt.Fprintf(buf, `\u000%x`, r)
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('\'')
}

// NormalizedPath is a sequence of Name/Index selectors per RFC 9535 §2.7,
// which may also hold the non-standard [KeyElement] and [MarkerElement] parts.
type NormalizedPath []PathElement

// String returns the normalized path string, e.g. $['a'][0].
func (p NormalizedPath) String() string {
	var buf strings.Builder
	buf.WriteByte('$')
	for _, e := range p {
		e.writeNormalizedTo(&buf)
	}
	return buf.String()
}

// Pointer returns an RFC 6901 JSON Pointer string, e.g. /a/0.
func (p NormalizedPath) Pointer() string {
	var buf strings.Builder
	for _, e := range p {
		buf.WriteByte('/')
		e.writePointerTo(&buf)
	}
	return buf.String()
}

// Compare compares p to q and returns -1, 0, or 1. Indexes are always
// considered less than names; [KeyElement] and [MarkerElement] parts compare
// by their normalized string form, after Name/Index pairs.
func (p NormalizedPath) Compare(q NormalizedPath) int {
	minLen := min(len(p), len(q))

	for i := range minLen {
		if x := compareElement(p[i], q[i]); x != 0 {
			return x
		}
	}

	return cmp.Compare(len(p), len(q))
}

// elementRank orders PathElement kinds for comparison: index < name < other.
func elementRank(e PathElement) int {
	switch e.(type) {
	case IndexElement:
		return 0
	case NameElement:
		return 1
	default:
		return 2
	}
}

// compareElement compares two PathElement values of possibly different
// kinds: same-kind Name/Index pairs compare by value, everything else
// compares by kind rank and then by normalized string form.
func compareElement(a, b PathElement) int {
	switch av := a.(type) {
	case NameElement:
		if bv, ok := b.(NameElement); ok {
			return cmp.Compare(string(av), string(bv))
		}
	case IndexElement:
		if bv, ok := b.(IndexElement); ok {
			return cmp.Compare(int(av), int(bv))
		}
	}

	if x := cmp.Compare(elementRank(a), elementRank(b)); x != 0 {
		return x
	}

	var abuf, bbuf strings.Builder
	a.writeNormalizedTo(&abuf)
	b.writeNormalizedTo(&bbuf)
	return cmp.Compare(abuf.String(), bbuf.String())
}

// MarshalText marshals p into its normalized path string. Implements
// [encoding.TextMarshaler].
func (p NormalizedPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// LocatedNode pairs a value with the [NormalizedPath] for its location within
// a JSON query argument.
type LocatedNode struct {
	Value any
	Path  NormalizedPath
}

// NodeList is a list of nodes selected by a JSONPath query. Each node
// represents a single JSON value selected from the JSON query argument.
type NodeList []any

// All returns an iterator over all the nodes in list.
func (l NodeList) All() iter.Seq[any] {
	return slices.Values(l)
}

// LocatedNodeList is a list of nodes selected by a JSONPath query, along with
// their [NormalizedPath] locations.
type LocatedNodeList []*LocatedNode

// All returns an iterator over all the located nodes in list.
func (l LocatedNodeList) All() iter.Seq[*LocatedNode] {
	return slices.Values(l)
}

// Values returns an iterator over all the node values in list.
func (l LocatedNodeList) Values() iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, n := range l {
			if !yield(n.Value) {
				return
			}
		}
	}
}

// Paths returns an iterator over all the [NormalizedPath] values in list.
func (l LocatedNodeList) Paths() iter.Seq[NormalizedPath] {
	return func(yield func(NormalizedPath) bool) {
		for _, n := range l {
			if !yield(n.Path) {
				return
			}
		}
	}
}

// Deduplicate deduplicates the nodes in list based on their [NormalizedPath]
// values, modifying the contents of list. It returns the modified list, which
// may have a shorter length, and zeroes the elements between the new length
// and the original length.
func (l LocatedNodeList) Deduplicate() LocatedNodeList {
	if len(l) <= 1 {
		return l
	}

	seen := make(map[string]struct{}, len(l))
	uniq := l[:0]
	for _, n := range l {
		p := n.Path.String()
		if _, exists := seen[p]; !exists {
			seen[p] = struct{}{}
			uniq = append(uniq, n)
		}
	}
	clear(l[len(uniq):])
	return slices.Clip(uniq)
}

// Sort sorts list by the [NormalizedPath] of each node.
func (l LocatedNodeList) Sort() {
	slices.SortFunc(l, func(a, b *LocatedNode) int {
		return a.Path.Compare(b.Path)
	})
}
