package jsonpath

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errExpectedOneArg = errors.New("expected 1 arg")

// testFunc is a minimal Function implementation for testing.
type testFunc struct {
	name       string
	resultType FuncType
	validateFn func([]ArgType) error
	callFn     func([]any) any
}

func (f *testFunc) Name() string                  { return f.name }
func (f *testFunc) ResultType() FuncType          { return f.resultType }
func (f *testFunc) Validate(args []ArgType) error { return f.validateFn(args) }
func (f *testFunc) Call(args []any) any           { return f.callFn(args) }

func newTestFunc(name string, rt FuncType) *testFunc {
	return &testFunc{
		name:       name,
		resultType: rt,
		validateFn: func([]ArgType) error { return nil },
		callFn:     func([]any) any { return nil },
	}
}

func TestNewEnvironment_NoOptions(t *testing.T) {
	e := NewEnvironment()
	require.NotNil(t, e)
	assert.Empty(t, e.opts.functions)
	assert.False(t, e.opts.strict)
	assert.False(t, e.opts.wellTyped)
	assert.False(t, e.opts.enableKeys)
}

func TestNewEnvironment_WithFunctions(t *testing.T) {
	fn1 := newTestFunc("myfunc", FuncValue)
	fn2 := newTestFunc("other", FuncLogical)

	e := NewEnvironment(WithFunctions(fn1, fn2))
	require.NotNil(t, e)
	assert.Len(t, e.opts.functions, 2)
	assert.Equal(t, Function(fn1), e.opts.functions["myfunc"])
	assert.Equal(t, Function(fn2), e.opts.functions["other"])
}

func TestWithFunctions_LastWins(t *testing.T) {
	fn1 := newTestFunc("dup", FuncValue)
	fn2 := newTestFunc("dup", FuncLogical)

	e := NewEnvironment(WithFunctions(fn1, fn2))
	assert.Len(t, e.opts.functions, 1)
	assert.Equal(t, Function(fn2), e.opts.functions["dup"])
}

func TestWithFunctions_MultipleOptions(t *testing.T) {
	fn1 := newTestFunc("a", FuncValue)
	fn2 := newTestFunc("b", FuncNodes)

	e := NewEnvironment(WithFunctions(fn1), WithFunctions(fn2))
	assert.Len(t, e.opts.functions, 2)
	assert.Equal(t, Function(fn1), e.opts.functions["a"])
	assert.Equal(t, Function(fn2), e.opts.functions["b"])
}

func TestWithStrict(t *testing.T) {
	e := NewEnvironment(WithStrict(true))
	assert.True(t, e.opts.strict)

	_, err := e.Parse("$[~]")
	assert.Error(t, err, "key selector should be rejected in strict mode")

	_, err = e.Parse("$['a']|$['b']")
	assert.Error(t, err, "compound queries should be rejected in strict mode")
}

func TestWithWellTyped(t *testing.T) {
	e := NewEnvironment(WithWellTyped(true))
	assert.True(t, e.opts.wellTyped)
}

func TestWithWellTyped_RejectsNodesResultInComparison(t *testing.T) {
	e := NewEnvironment(WithKeysFunction(), WithWellTyped(true))
	_, err := e.Parse("$[?keys(@) == 1]")
	assert.Error(t, err, "comparing a Nodes-typed function result should be rejected under WellTyped")

	lenient := NewEnvironment(WithKeysFunction())
	_, err = lenient.Parse("$[?keys(@) == 1]")
	assert.NoError(t, err, "without WellTyped, the comparison is permitted")
}

func TestWithKeysFunction(t *testing.T) {
	e := NewEnvironment(WithKeysFunction())
	assert.True(t, e.opts.enableKeys)

	path, err := e.Parse("$[?keys(@)]")
	require.NoError(t, err)
	require.NotNil(t, path)
}

func TestWithKeysFunction_NotRegisteredByDefault(t *testing.T) {
	e := NewEnvironment()
	_, err := e.Parse("$[?keys(@)]")
	assert.Error(t, err)
}

func TestWithKeyChar(t *testing.T) {
	e := NewEnvironment(WithKeyChar(';'))
	assert.Equal(t, ';', e.opts.lexer.KeyChar)

	path, err := e.Parse("$[;\"foo\"]")
	require.NoError(t, err)
	require.NotNil(t, path)
}

func TestWithPseudoRootChar(t *testing.T) {
	e := NewEnvironment(WithPseudoRootChar('%'))
	assert.Equal(t, '%', e.opts.lexer.PseudoRootChar)

	path, err := e.Parse("%['a']")
	require.NoError(t, err)
	require.NotNil(t, path)
}

func TestWithCurrentKeyChar(t *testing.T) {
	e := NewEnvironment(WithCurrentKeyChar('`'))
	assert.Equal(t, '`', e.opts.lexer.CurrentKeyChar)

	path, err := e.Parse("$[?`==\"a\"]")
	require.NoError(t, err)
	require.NotNil(t, path)
}

func TestEnvironmentParse_ReturnsErrPathParse(t *testing.T) {
	e := NewEnvironment()
	_, err := e.Parse("invalid")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPathParse))
}

func TestEnvironmentMustParse_Panics(t *testing.T) {
	e := NewEnvironment()
	assert.Panics(t, func() {
		e.MustParse("invalid")
	})
}

func TestEnvironmentMustParse_Succeeds(t *testing.T) {
	e := NewEnvironment()
	path := e.MustParse("$.foo")
	require.NotNil(t, path)
	assert.Equal(t, `$["foo"]`, path.String())
}

func TestEnvironmentParse_CustomFunction(t *testing.T) {
	fn := newTestFunc("double", FuncValue)
	fn.callFn = func(args []any) any {
		n, ok := args[0].(int64)
		if !ok {
			return nil
		}
		return n * 2
	}

	e := NewEnvironment(WithFunctions(fn))
	path, err := e.Parse("$[?double(@.n) > 0]")
	require.NoError(t, err)
	require.NotNil(t, path)
}

func TestFuncType_Constants(t *testing.T) {
	assert.Equal(t, FuncType(0), FuncLogical)
	assert.Equal(t, FuncType(1), FuncValue)
	assert.Equal(t, FuncType(2), FuncNodes)
}

func TestArgType_Constants(t *testing.T) {
	assert.Equal(t, ArgType(0), ArgLiteral)
	assert.Equal(t, ArgType(1), ArgSingularQuery)
	assert.Equal(t, ArgType(2), ArgFilterQuery)
	assert.Equal(t, ArgType(3), ArgLogicalExpr)
	assert.Equal(t, ArgType(4), ArgFunctionExpr)
}

func TestFunction_Interface(t *testing.T) {
	fn := newTestFunc("length", FuncValue)
	fn.validateFn = func(args []ArgType) error {
		if len(args) != 1 {
			return fmt.Errorf("%w", errExpectedOneArg)
		}
		return nil
	}
	fn.callFn = func(args []any) any {
		return 42
	}

	assert.Equal(t, "length", fn.Name())
	assert.Equal(t, FuncValue, fn.ResultType())
	assert.NoError(t, fn.Validate([]ArgType{ArgLiteral}))
	assert.Error(t, fn.Validate([]ArgType{ArgLiteral, ArgLiteral}))
	assert.Equal(t, 42, fn.Call([]any{"hello"}))
}

func TestWithRootChar(t *testing.T) {
	e := NewEnvironment(WithRootChar('%'))
	assert.Equal(t, '%', e.opts.lexer.RootChar)

	path, err := e.Parse("%['a']")
	require.NoError(t, err)
	require.NotNil(t, path)
}

func TestWithCurrentChar(t *testing.T) {
	e := NewEnvironment(WithCurrentChar('&'))
	assert.Equal(t, '&', e.opts.lexer.CurrentChar)

	path, err := e.Parse("$[?&.a > 1]")
	require.NoError(t, err)
	require.NotNil(t, path)
}

func TestWithExtraContextChar(t *testing.T) {
	e := NewEnvironment(WithExtraContextChar('x'))
	assert.Equal(t, "x", e.opts.extraContextIdent)

	path, err := e.Parse("$[?@.a == x]")
	require.NoError(t, err)
	require.NotNil(t, path)

	result := path.SelectWithExtra([]any{map[string]any{"a": int64(5)}}, int64(5))
	assert.Equal(t, NodeList{map[string]any{"a": int64(5)}}, result)
}

func TestWithAndOrNotWord(t *testing.T) {
	e := NewEnvironment(WithAndWord("and"), WithOrWord("or"), WithNotWord("not"))

	path, err := e.Parse("$[?@.a > 1 and @.b > 1]")
	require.NoError(t, err)
	result := path.Select([]any{map[string]any{"a": int64(2), "b": int64(2)}})
	assert.Len(t, result, 1)

	path, err = e.Parse("$[?@.a > 1 or @.a < 0]")
	require.NoError(t, err)
	result = path.Select([]any{map[string]any{"a": int64(5)}})
	assert.Len(t, result, 1)

	path, err = e.Parse("$[?not @.a]")
	require.NoError(t, err)
	result = path.Select([]any{map[string]any{"a": int64(5)}})
	assert.Empty(t, result)
}

func TestWithAndOrNotWord_DisabledInStrictMode(t *testing.T) {
	e := NewEnvironment(WithStrict(true), WithAndWord("and"))
	_, err := e.Parse("$[?@.a and @.b]")
	assert.Error(t, err)
}

func TestWithMinMaxIntIndex(t *testing.T) {
	e := NewEnvironment(WithMinIntIndex(-10), WithMaxIntIndex(10))

	_, err := e.Parse("$[10]")
	assert.NoError(t, err)

	_, err = e.Parse("$[11]")
	assert.Error(t, err, "index beyond the configured max should be rejected")

	_, err = e.Parse("$[-11]")
	assert.Error(t, err, "index beyond the configured min should be rejected")
}

func TestWithUnicodeEscape_Disabled(t *testing.T) {
	e := NewEnvironment(WithUnicodeEscape(false))
	_, err := e.Parse(`$["\u0041"]`)
	assert.Error(t, err, "unicode escapes should be rejected when disabled")

	e2 := NewEnvironment()
	_, err = e2.Parse(`$["\u0041"]`)
	assert.NoError(t, err, "unicode escapes are recognized by default")
}

func TestWithFilterCaching(t *testing.T) {
	e := NewEnvironment(WithFilterCaching(true))
	assert.True(t, e.opts.filterCaching)

	path, err := e.Parse("$.a[?@.x > 1]")
	require.NoError(t, err)
	assert.True(t, path.filterCaching)

	doc := map[string]any{"a": []any{map[string]any{"x": int64(2)}, map[string]any{"x": int64(0)}}}
	result := path.Select(doc)
	assert.Len(t, result, 1)
}

func TestBuiltinFunctionNames(t *testing.T) {
	names := builtinFunctionNames(false)
	assert.NotContains(t, names, "keys")
	assert.Contains(t, names, "length")
	assert.Contains(t, names, "startswith")

	names = builtinFunctionNames(true)
	assert.Contains(t, names, "keys")
}
