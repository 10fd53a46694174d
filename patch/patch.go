// Package patch implements RFC 6902 JSON Patch application, built entirely
// atop the pointer package's parsing and resolution. Per this module's
// scope, only Apply is implemented — no diff, prepare, or revert machinery.
package patch

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/agentable/jsonpath"
	"github.com/agentable/jsonpath/pointer"
	"github.com/go-json-experiment/json"
)

// Op names one of the six RFC 6902 operation types.
type Op string

const (
	Add     Op = "add"
	Remove  Op = "remove"
	Replace Op = "replace"
	Move    Op = "move"
	Copy    Op = "copy"
	Test    Op = "test"
)

// Operation is a single RFC 6902 patch operation.
type Operation struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Patch is an ordered sequence of patch operations.
type Patch []Operation

// ErrorKind classifies why a patch operation failed to apply.
type ErrorKind int

const (
	// UnsupportedOperation means Operation.Op named something other than
	// the six RFC 6902 op types.
	UnsupportedOperation ErrorKind = iota
	// TargetNotFound means the operation's path (or from) did not resolve.
	TargetNotFound
	// TestFailure means a "test" operation's value did not match.
	TestFailure
)

// Error reports a failure applying a single [Operation]. Wraps
// [jsonpath.ErrPatchApply].
type Error struct {
	Kind ErrorKind
	Op   Op
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case TestFailure:
		return fmt.Sprintf("patch test %q failed: %s", e.Path, jsonpath.ErrPatchApply)
	case TargetNotFound:
		return fmt.Sprintf("patch %s %q: target not found: %s", e.Op, e.Path, jsonpath.ErrPatchApply)
	case UnsupportedOperation:
		return fmt.Sprintf("patch: unsupported operation %q: %s", e.Op, jsonpath.ErrPatchApply)
	default:
		return fmt.Sprintf("patch %s %q: %s", e.Op, e.Path, jsonpath.ErrPatchApply)
	}
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{jsonpath.ErrPatchApply, e.Err}
	}
	return []error{jsonpath.ErrPatchApply}
}

// Apply applies p to doc and returns the resulting document. doc is
// deep-copied first (via a JSON round-trip) so the caller's input is never
// mutated, matching this module's non-destructive evaluation contract.
func Apply(doc any, p Patch) (any, error) {
	result, err := deepCopy(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", jsonpath.ErrPatchApply, err)
	}

	for _, op := range p {
		result, err = applyOne(result, op)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ApplyJSON unmarshals src, applies p, and marshals the result, mirroring
// [jsonpath.QueryJSON]'s raw-bytes convenience wrapper.
func ApplyJSON(src []byte, p Patch) ([]byte, error) {
	var v any
	if err := json.Unmarshal(src, &v, json.DefaultOptionsV2()); err != nil {
		return nil, fmt.Errorf("%w: %w", jsonpath.ErrUnmarshal, err)
	}
	result, err := Apply(v, p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result, json.DefaultOptionsV2())
}

func applyOne(doc any, op Operation) (any, error) {
	var (
		result any
		err    error
	)
	switch op.Op {
	case Add:
		result, err = applyAdd(doc, op.Path, op.Value)
	case Remove:
		result, err = applyRemove(doc, op.Path)
	case Replace:
		result, err = applyReplace(doc, op.Path, op.Value)
	case Move:
		result, err = applyMove(doc, op.From, op.Path)
	case Copy:
		result, err = applyCopy(doc, op.From, op.Path)
	case Test:
		err = applyTest(doc, op.Path, op.Value)
		result = doc
	default:
		return nil, &Error{Kind: UnsupportedOperation, Op: op.Op, Path: op.Path}
	}
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, fmt.Errorf("patch %s %q: %w", op.Op, op.Path, err)
	}
	return result, nil
}

// deepCopy round-trips v through JSON to obtain an independent copy.
func deepCopy(v any) (any, error) {
	b, err := json.Marshal(v, json.DefaultOptionsV2())
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out, json.DefaultOptionsV2()); err != nil {
		return nil, err
	}
	return out, nil
}

// setAt writes value at p's location within doc, mutating the containing
// map or slice in place and returning doc's (possibly unchanged) root.
func setAt(doc any, p pointer.Pointer, value any) (any, error) {
	if len(p) == 0 {
		return value, nil
	}
	parent := p.Parent()
	token := p[len(p)-1]

	parentVal, err := parent.Resolve(doc)
	if err != nil {
		return nil, &Error{Kind: TargetNotFound, Path: parent.String(), Err: err}
	}
	switch container := parentVal.(type) {
	case map[string]any:
		container[token] = value
		return doc, nil
	case []any:
		idx, err := strconv.Atoi(token)
		if err != nil || idx < 0 || idx >= len(container) {
			return nil, &Error{Kind: TargetNotFound, Path: p.String()}
		}
		container[idx] = value
		return doc, nil
	default:
		return nil, &Error{Kind: TargetNotFound, Path: parent.String()}
	}
}

func applyAdd(doc any, path string, value any) (any, error) {
	p, err := pointer.Parse(path)
	if err != nil {
		return nil, &Error{Kind: TargetNotFound, Path: path, Err: err}
	}
	if len(p) == 0 {
		return value, nil
	}

	parent := p.Parent()
	token := p[len(p)-1]
	parentVal, err := parent.Resolve(doc)
	if err != nil {
		return nil, &Error{Kind: TargetNotFound, Path: parent.String(), Err: err}
	}

	switch container := parentVal.(type) {
	case []any:
		if token == "-" {
			return setAt(doc, parent, append(container, value))
		}
		idx, err := strconv.Atoi(token)
		if err != nil || idx < 0 || idx > len(container) {
			return nil, &Error{Kind: TargetNotFound, Path: path}
		}
		newArr := make([]any, 0, len(container)+1)
		newArr = append(newArr, container[:idx]...)
		newArr = append(newArr, value)
		newArr = append(newArr, container[idx:]...)
		return setAt(doc, parent, newArr)
	case map[string]any:
		container[token] = value
		return doc, nil
	default:
		return nil, &Error{Kind: TargetNotFound, Path: parent.String()}
	}
}

func applyRemove(doc any, path string) (any, error) {
	p, err := pointer.Parse(path)
	if err != nil {
		return nil, &Error{Kind: TargetNotFound, Path: path, Err: err}
	}
	if len(p) == 0 {
		return nil, &Error{Kind: TargetNotFound, Path: path}
	}

	parent := p.Parent()
	token := p[len(p)-1]
	parentVal, err := parent.Resolve(doc)
	if err != nil {
		return nil, &Error{Kind: TargetNotFound, Path: parent.String(), Err: err}
	}

	switch container := parentVal.(type) {
	case map[string]any:
		if _, ok := container[token]; !ok {
			return nil, &Error{Kind: TargetNotFound, Path: path}
		}
		delete(container, token)
		return doc, nil
	case []any:
		idx, err := strconv.Atoi(token)
		if err != nil || idx < 0 || idx >= len(container) {
			return nil, &Error{Kind: TargetNotFound, Path: path}
		}
		newArr := make([]any, 0, len(container)-1)
		newArr = append(newArr, container[:idx]...)
		newArr = append(newArr, container[idx+1:]...)
		return setAt(doc, parent, newArr)
	default:
		return nil, &Error{Kind: TargetNotFound, Path: parent.String()}
	}
}

func applyReplace(doc any, path string, value any) (any, error) {
	p, err := pointer.Parse(path)
	if err != nil {
		return nil, &Error{Kind: TargetNotFound, Path: path, Err: err}
	}
	if _, err := p.Resolve(doc); err != nil {
		return nil, &Error{Kind: TargetNotFound, Path: path, Err: err}
	}
	if len(p) == 0 {
		return value, nil
	}
	return setAt(doc, p, value)
}

func applyMove(doc any, from, to string) (any, error) {
	fromPtr, err := pointer.Parse(from)
	if err != nil {
		return nil, &Error{Kind: TargetNotFound, Path: from, Err: err}
	}
	val, err := fromPtr.Resolve(doc)
	if err != nil {
		return nil, &Error{Kind: TargetNotFound, Path: from, Err: err}
	}

	doc, err = applyRemove(doc, from)
	if err != nil {
		return nil, err
	}
	return applyAdd(doc, to, val)
}

func applyCopy(doc any, from, to string) (any, error) {
	fromPtr, err := pointer.Parse(from)
	if err != nil {
		return nil, &Error{Kind: TargetNotFound, Path: from, Err: err}
	}
	val, err := fromPtr.Resolve(doc)
	if err != nil {
		return nil, &Error{Kind: TargetNotFound, Path: from, Err: err}
	}
	valCopy, err := deepCopy(val)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", jsonpath.ErrPatchApply, err)
	}
	return applyAdd(doc, to, valCopy)
}

func applyTest(doc any, path string, expected any) error {
	p, err := pointer.Parse(path)
	if err != nil {
		return &Error{Kind: TargetNotFound, Path: path, Err: err}
	}
	actual, err := p.Resolve(doc)
	if err != nil {
		return &Error{Kind: TargetNotFound, Path: path, Err: err}
	}

	actualBytes, err := json.Marshal(actual, json.DefaultOptionsV2())
	if err != nil {
		return fmt.Errorf("%w: %w", jsonpath.ErrPatchApply, err)
	}
	expectedBytes, err := json.Marshal(expected, json.DefaultOptionsV2())
	if err != nil {
		return fmt.Errorf("%w: %w", jsonpath.ErrPatchApply, err)
	}
	if !bytes.Equal(actualBytes, expectedBytes) {
		return &Error{Kind: TestFailure, Op: Test, Path: path}
	}
	return nil
}
