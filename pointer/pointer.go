// Package pointer implements RFC 6901 JSON Pointer parsing, serialization,
// and resolution against decoded JSON values, plus Relative JSON Pointer
// arithmetic (see relative.go).
package pointer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentable/jsonpath"
	"github.com/go-json-experiment/json"
)

// ErrorKind classifies why a [Pointer] operation failed.
type ErrorKind int

const (
	// ParseError means the pointer string itself was malformed.
	ParseError ErrorKind = iota
	// KeyError means an object reference token did not name a member.
	KeyError
	// IndexError means an array reference token was out of range or not
	// a valid index.
	IndexError
	// TypeError means a reference token was applied to a value that is
	// neither an object nor an array.
	TypeError
	// MarkerError means a reference token was a non-standard #-prefixed
	// key/index marker ([jsonpath.MarkerElement]'s pointer form), which
	// names a synthetic location rather than a concrete document position
	// and so cannot be resolved or traversed through.
	MarkerError
)

// Error reports a failure resolving or parsing a [Pointer]. Wraps
// [jsonpath.ErrPointerParse] or [jsonpath.ErrPointerResolve] depending on
// Kind, so callers can match with errors.Is against the stable sentinel.
type Error struct {
	Kind    ErrorKind
	Pointer string
	Token   string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ParseError:
		return fmt.Sprintf("pointer %q: %s", e.Pointer, e.sentinel())
	case KeyError:
		return fmt.Sprintf("pointer %q: no member %q: %s", e.Pointer, e.Token, e.sentinel())
	case IndexError:
		return fmt.Sprintf("pointer %q: index %q out of range: %s", e.Pointer, e.Token, e.sentinel())
	case TypeError:
		return fmt.Sprintf("pointer %q: token %q applied to a non-container value: %s", e.Pointer, e.Token, e.sentinel())
	case MarkerError:
		return fmt.Sprintf("pointer %q: token %q is a synthetic key/index marker, not a document position: %s", e.Pointer, e.Token, e.sentinel())
	default:
		return fmt.Sprintf("pointer %q: %s", e.Pointer, e.sentinel())
	}
}

func (e *Error) sentinel() string {
	if e.Kind == ParseError {
		return jsonpath.ErrPointerParse.Error()
	}
	return jsonpath.ErrPointerResolve.Error()
}

func (e *Error) Unwrap() error {
	if e.Kind == ParseError {
		return jsonpath.ErrPointerParse
	}
	return jsonpath.ErrPointerResolve
}

// Pointer is a parsed RFC 6901 JSON Pointer: an ordered list of unescaped
// reference tokens. The zero value is the pointer to the whole document.
//
// A token beginning with "#" is the spec's non-standard key/index marker
// (the pointer form of [jsonpath.MarkerElement], produced for keys-selector
// and index-marker match locations): it names a synthetic location rather
// than a concrete position in the document, so it is recognized by
// [Pointer.IsMarker] and rejected by [Pointer.Resolve] with a MarkerError
// instead of being looked up as an ordinary object key or array index.
type Pointer []string

// IsMarker reports whether the reference token at index i is a #-prefixed
// key/index marker rather than an ordinary object-name or array-index token.
func (p Pointer) IsMarker(i int) bool {
	return i >= 0 && i < len(p) && strings.HasPrefix(p[i], "#")
}

// Marker returns the name or index carried by a #-prefixed marker token at
// index i, and true if it parses as an array index, false if it is a name.
// A token without the "#" prefix is read the same way, so check with
// [Pointer.IsMarker] first. Panics if i is out of range.
func (p Pointer) Marker(i int) (name string, index int64, isIndex bool) {
	tok := strings.TrimPrefix(p[i], "#")
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return "", n, true
	}
	return tok, 0, false
}

// Parse parses an RFC 6901 JSON Pointer string. The empty string is the
// pointer to the whole document. Non-empty pointers must start with "/".
func Parse(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if s[0] != '/' {
		return nil, &Error{Kind: ParseError, Pointer: s}
	}
	parts := strings.Split(s[1:], "/")
	tokens := make(Pointer, len(parts))
	for i, part := range parts {
		tokens[i] = unescape(part)
	}
	return tokens, nil
}

// String serializes p back into its RFC 6901 string form.
func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var buf strings.Builder
	for _, tok := range p {
		buf.WriteByte('/')
		buf.WriteString(escape(tok))
	}
	return buf.String()
}

// escape applies RFC 6901 escaping: "~" becomes "~0", "/" becomes "~1".
// Order matters: ~ must be escaped first.
func escape(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	return strings.ReplaceAll(tok, "/", "~1")
}

// unescape reverses escape. Order matters: ~1 must be unescaped before ~0.
func unescape(tok string) string {
	tok = strings.ReplaceAll(tok, "~1", "/")
	return strings.ReplaceAll(tok, "~0", "~")
}

// Resolve walks doc following p's reference tokens and returns the value
// found there. doc must be composed of map[string]any, []any, and JSON
// scalar types, as produced by encoding/json or go-json-experiment/json.
func (p Pointer) Resolve(doc any) (any, error) {
	cur := doc
	for i, tok := range p {
		if p.IsMarker(i) {
			return nil, &Error{Kind: MarkerError, Pointer: p.String(), Token: tok}
		}
		switch v := cur.(type) {
		case map[string]any:
			val, ok := v[tok]
			if !ok {
				return nil, &Error{Kind: KeyError, Pointer: p.String(), Token: tok}
			}
			cur = val
		case []any:
			idx, ok := parseArrayIndex(tok, len(v))
			if !ok {
				return nil, &Error{Kind: IndexError, Pointer: p.String(), Token: tok}
			}
			cur = v[idx]
		default:
			return nil, &Error{Kind: TypeError, Pointer: p.String(), Token: tok}
		}
	}
	return cur, nil
}

// parseArrayIndex parses tok as an array index in [0, length). "-" (the
// JSON Patch append marker) never resolves: it names a position past the
// end, which Resolve has no value for.
func parseArrayIndex(tok string, length int) (int, bool) {
	if tok == "" || tok == "-" {
		return 0, false
	}
	if len(tok) > 1 && tok[0] == '0' {
		return 0, false // leading zeros are not a valid array index per RFC 6901
	}
	idx, err := strconv.Atoi(tok)
	if err != nil || idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}

// Exists reports whether p resolves to a value in doc.
func (p Pointer) Exists(doc any) bool {
	_, err := p.Resolve(doc)
	return err == nil
}

// Parent returns p with its last reference token removed. Parent of the
// root pointer is itself.
func (p Pointer) Parent() Pointer {
	if len(p) == 0 {
		return Pointer{}
	}
	out := make(Pointer, len(p)-1)
	copy(out, p[:len(p)-1])
	return out
}

// Join returns a new pointer formed by appending other's tokens to p.
func (p Pointer) Join(other Pointer) Pointer {
	out := make(Pointer, 0, len(p)+len(other))
	out = append(out, p...)
	out = append(out, other...)
	return out
}

// Append returns a new pointer formed by appending a single reference
// token to p (the "slash operator").
func (p Pointer) Append(token string) Pointer {
	out := make(Pointer, 0, len(p)+1)
	out = append(out, p...)
	out = append(out, token)
	return out
}

// IsRelativeTo reports whether other is a strict or non-strict prefix of p,
// i.e. whether p names a location at or beneath other.
func (p Pointer) IsRelativeTo(other Pointer) bool {
	if len(other) > len(p) {
		return false
	}
	for i, tok := range other {
		if p[i] != tok {
			return false
		}
	}
	return true
}

// FromLocation converts a [jsonpath.NormalizedPath] match location into a
// Pointer, reusing the same name/index escaping rules. A location ending in
// a [jsonpath.MarkerElement] (a keys-selector or index-marker match) produces
// a trailing #-prefixed marker token; see [Pointer.IsMarker].
func FromLocation(path jsonpath.NormalizedPath) Pointer {
	p, _ := Parse(path.Pointer())
	return p
}

// ResolveJSON unmarshals src with go-json-experiment/json and resolves p
// against the result, mirroring [jsonpath.QueryJSON]'s raw-bytes convenience
// wrapper.
func ResolveJSON(src []byte, p Pointer) (any, error) {
	var v any
	if err := json.Unmarshal(src, &v, json.DefaultOptionsV2()); err != nil {
		return nil, fmt.Errorf("%w: %w", jsonpath.ErrUnmarshal, err)
	}
	return p.Resolve(v)
}
