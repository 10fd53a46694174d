package pointer

import (
	"fmt"
	"strconv"
	"strings"
)

// RelativePointer is a Relative JSON Pointer: a JSON Pointer's worth of
// navigation relative to some origin location, of the form
// "N[+M|-M](#|/rest)" — N levels up from the origin, an optional array
// index adjustment, and either a "#" (take the key/index itself) or a
// trailing JSON Pointer suffix (possibly empty, meaning the resulting
// location itself).
type RelativePointer struct {
	Up         int
	HasOffset  bool
	Offset     int
	KeyRequest bool // "#" terminator: resolve to the key/index, not the value
	Suffix     Pointer
}

// ParseRelative parses a Relative JSON Pointer string.
func ParseRelative(s string) (RelativePointer, error) {
	if s == "" {
		return RelativePointer{}, &Error{Kind: ParseError, Pointer: s}
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return RelativePointer{}, &Error{Kind: ParseError, Pointer: s}
	}
	if i > 1 && s[0] == '0' {
		return RelativePointer{}, &Error{Kind: ParseError, Pointer: s}
	}
	up, err := strconv.Atoi(s[:i])
	if err != nil {
		return RelativePointer{}, &Error{Kind: ParseError, Pointer: s}
	}
	rp := RelativePointer{Up: up}
	rest := s[i:]

	if rest != "" && (rest[0] == '+' || rest[0] == '-') {
		sign := 1
		if rest[0] == '-' {
			sign = -1
		}
		j := 1
		for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
			j++
		}
		if j == 1 {
			return RelativePointer{}, &Error{Kind: ParseError, Pointer: s}
		}
		mag, err := strconv.Atoi(rest[1:j])
		if err != nil {
			return RelativePointer{}, &Error{Kind: ParseError, Pointer: s}
		}
		rp.HasOffset = true
		rp.Offset = sign * mag
		rest = rest[j:]
	}

	switch {
	case rest == "":
		rp.Suffix = Pointer{}
	case rest == "#":
		rp.KeyRequest = true
	case strings.HasPrefix(rest, "/"):
		suffix, err := Parse(rest)
		if err != nil {
			return RelativePointer{}, &Error{Kind: ParseError, Pointer: s}
		}
		rp.Suffix = suffix
	default:
		return RelativePointer{}, &Error{Kind: ParseError, Pointer: s}
	}

	return rp, nil
}

// String serializes r back into its Relative JSON Pointer string form.
func (r RelativePointer) String() string {
	var buf strings.Builder
	buf.WriteString(strconv.Itoa(r.Up))
	if r.HasOffset {
		if r.Offset >= 0 {
			buf.WriteByte('+')
		}
		buf.WriteString(strconv.Itoa(r.Offset))
	}
	if r.KeyRequest {
		buf.WriteByte('#')
	} else {
		buf.WriteString(r.Suffix.String())
	}
	return buf.String()
}

// To resolves r relative to base (the origin's own pointer) against doc: it
// climbs Up levels, applies the array index adjustment if present, then
// either returns the resulting location's own key/index (KeyRequest) or
// resolves the suffix-extended pointer against doc.
func (r RelativePointer) To(base Pointer, doc any) (any, error) {
	if r.Up > len(base) {
		return nil, &Error{Kind: IndexError, Pointer: r.String(), Token: base.String()}
	}

	result := make(Pointer, len(base)-r.Up)
	copy(result, base[:len(base)-r.Up])

	if r.HasOffset {
		if len(result) == 0 {
			return nil, &Error{Kind: IndexError, Pointer: r.String(), Token: ""}
		}
		last := result[len(result)-1]
		idx, err := strconv.Atoi(last)
		if err != nil {
			return nil, &Error{Kind: TypeError, Pointer: r.String(), Token: last}
		}
		newIdx := idx + r.Offset
		if newIdx < 0 {
			return nil, &Error{Kind: IndexError, Pointer: r.String(), Token: strconv.Itoa(newIdx)}
		}
		result[len(result)-1] = strconv.Itoa(newIdx)
	}

	if r.KeyRequest {
		if len(result) == 0 {
			return nil, &Error{Kind: KeyError, Pointer: r.String()}
		}
		last := result[len(result)-1]
		if n, err := strconv.Atoi(last); err == nil {
			return int64(n), nil
		}
		return last, nil
	}

	target := result.Join(r.Suffix)
	val, err := target.Resolve(doc)
	if err != nil {
		return nil, fmt.Errorf("relative pointer %q: %w", r.String(), err)
	}
	return val, nil
}
