package jsonpath

import (
	"fmt"

	"github.com/agentable/jsonpath/functions"
	"github.com/agentable/jsonpath/internal/ast"
	"github.com/agentable/jsonpath/internal/lexer"
	"github.com/agentable/jsonpath/internal/parser"
)

// FuncType describes the type of a function extension's return value as
// defined by RFC 9535 §2.4.1.
type FuncType uint8

const (
	// FuncLogical indicates the function returns a logical (bool) value.
	FuncLogical FuncType = iota
	// FuncValue indicates the function returns a single JSON value.
	FuncValue
	// FuncNodes indicates the function returns a node list.
	FuncNodes
)

func (ft FuncType) toAST() ast.FuncType {
	switch ft {
	case FuncValue:
		return ast.Value
	case FuncNodes:
		return ast.Nodes
	default:
		return ast.Logical
	}
}

// ArgType describes the type of a function argument expression for
// parse-time validation.
type ArgType uint8

const (
	// ArgLiteral is a literal JSON value argument.
	ArgLiteral ArgType = iota
	// ArgSingularQuery is a singular query argument (e.g. @.name or $.name).
	ArgSingularQuery
	// ArgFilterQuery is a filter query argument producing a node list.
	ArgFilterQuery
	// ArgLogicalExpr is a logical expression argument.
	ArgLogicalExpr
	// ArgFunctionExpr is a nested function call argument.
	ArgFunctionExpr
)

func argTypesFromAST(in []ast.ArgType) []ArgType {
	out := make([]ArgType, len(in))
	for i, a := range in {
		switch a {
		case ast.QueryArg:
			out[i] = ArgSingularQuery
		case ast.FilterArg:
			out[i] = ArgFilterQuery
		case ast.LogicalArg:
			out[i] = ArgLogicalExpr
		case ast.FunctionArg:
			out[i] = ArgFunctionExpr
		default:
			out[i] = ArgLiteral
		}
	}
	return out
}

// Function defines an extension function that can be registered with an
// [Environment] via [WithFunctions]. Implementations must be safe for
// concurrent use if the [Environment] is used concurrently.
type Function interface {
	// Name returns the function name as used in JSONPath expressions.
	Name() string
	// ResultType returns the FuncType of the function's return value.
	ResultType() FuncType
	// Validate checks argument types at parse time. It returns an error
	// if the argument types are incompatible with this function.
	Validate(args []ArgType) error
	// Call evaluates the function at query time and returns the result.
	Call(args []any) any
}

// funcAdapter adapts a user-supplied [Function] to the internal
// [ast.Function] interface so it can be registered with the parser.
type funcAdapter struct{ fn Function }

func (a funcAdapter) Name() string            { return a.fn.Name() }
func (a funcAdapter) ResultType() ast.FuncType { return a.fn.ResultType().toAST() }
func (a funcAdapter) Validate(args []ast.ArgType) error {
	return a.fn.Validate(argTypesFromAST(args))
}
func (a funcAdapter) Call(args []any) any { return a.fn.Call(args) }

// EnvOption configures an [Environment].
type EnvOption func(*envOptions)

// envOptions holds configuration for an [Environment].
type envOptions struct {
	functions         map[string]Function
	strict            bool
	wellTyped         bool
	enableKeys        bool
	extraContextIdent string
	andWord           string
	orWord            string
	notWord           string
	minIntIndex       int64
	maxIntIndex       int64
	filterCaching     bool
	lexer             lexer.Config
}

// WithFunctions registers additional filter functions beyond the RFC 9535
// built-ins. If multiple functions share the same name, the last one wins.
func WithFunctions(fns ...Function) EnvOption {
	return func(o *envOptions) {
		for _, fn := range fns {
			o.functions[fn.Name()] = fn
		}
	}
}

// WithStrict restricts the [Environment] to exactly the RFC 9535 grammar,
// rejecting the non-standard extensions (key/keys selectors, compound
// queries, membership and regex-match operators, the current-key and
// extra-context identifiers).
func WithStrict(strict bool) EnvOption {
	return func(o *envOptions) { o.strict = strict }
}

// WithWellTyped enables additional static type checks beyond RFC 9535's
// minimum required validation, rejecting some expressions that are
// well-defined but almost certainly mistakes (e.g. comparing the result of
// a Nodes-typed function).
func WithWellTyped(wellTyped bool) EnvOption {
	return func(o *envOptions) { o.wellTyped = wellTyped }
}

// WithKeysFunction opts into the non-standard keys() function, which returns
// the member names of a single object node as a node list.
func WithKeysFunction() EnvOption {
	return func(o *envOptions) { o.enableKeys = true }
}

// WithKeyChar overrides the character used for the key/keys/keys-filter
// selectors (~, ~name, ~?expr), which defaults to '~'.
func WithKeyChar(ch rune) EnvOption {
	return func(o *envOptions) { o.lexer.KeyChar = ch }
}

// WithPseudoRootChar overrides the character used for the pseudo-root query
// identifier (^), which defaults to '^'.
func WithPseudoRootChar(ch rune) EnvOption {
	return func(o *envOptions) { o.lexer.PseudoRootChar = ch }
}

// WithCurrentKeyChar overrides the character used for the current-key token
// (#) in filter expressions, which defaults to '#'.
func WithCurrentKeyChar(ch rune) EnvOption {
	return func(o *envOptions) { o.lexer.CurrentKeyChar = ch }
}

// WithRootChar overrides the character used for the root-node identifier,
// which defaults to '$'.
func WithRootChar(ch rune) EnvOption {
	return func(o *envOptions) { o.lexer.RootChar = ch }
}

// WithCurrentChar overrides the character used for the current-node
// identifier, which defaults to '@'.
func WithCurrentChar(ch rune) EnvOption {
	return func(o *envOptions) { o.lexer.CurrentChar = ch }
}

// WithExtraContextChar overrides the bare identifier used for the
// non-standard extra filter context, which defaults to "_". Only a single
// name-first character is accepted.
func WithExtraContextChar(ch rune) EnvOption {
	return func(o *envOptions) { o.extraContextIdent = string(ch) }
}

// WithAndWord enables a word form accepted alongside && in logical
// expressions (e.g. WithAndWord("and") accepts `@.a and @.b`). Disabled by
// default; has no effect in strict mode.
func WithAndWord(word string) EnvOption {
	return func(o *envOptions) { o.andWord = word }
}

// WithOrWord enables a word form accepted alongside || in logical
// expressions, analogous to [WithAndWord].
func WithOrWord(word string) EnvOption {
	return func(o *envOptions) { o.orWord = word }
}

// WithNotWord enables a word form accepted alongside ! for negation,
// analogous to [WithAndWord].
func WithNotWord(word string) EnvOption {
	return func(o *envOptions) { o.notWord = word }
}

// WithMinIntIndex overrides RFC 9535's -(2^53-1) lower bound for index and
// slice literals. Independent of [WithMaxIntIndex]; leaving it unset keeps
// the RFC 9535 default.
func WithMinIntIndex(n int64) EnvOption {
	return func(o *envOptions) { o.minIntIndex = n }
}

// WithMaxIntIndex overrides RFC 9535's 2^53-1 upper bound for index and
// slice literals. Independent of [WithMinIntIndex]; leaving it unset keeps
// the RFC 9535 default.
func WithMaxIntIndex(n int64) EnvOption {
	return func(o *envOptions) { o.maxIntIndex = n }
}

// WithUnicodeEscape controls whether \uXXXX escapes are recognized in string
// literals. Enabled by default; pass false to reject them.
func WithUnicodeEscape(enabled bool) EnvOption {
	return func(o *envOptions) { o.lexer.DisableUnicodeEscape = !enabled }
}

// WithFilterCaching enables memoizing filter-expression evaluation results
// for the lifetime of a single top-level Select/SelectLocated call, keyed by
// the filter's canonical form plus the identity of the node and root it was
// evaluated against (see [ast.FilterCache]). Disabled by default.
func WithFilterCaching(enabled bool) EnvOption {
	return func(o *envOptions) { o.filterCaching = enabled }
}

// Environment parses JSONPath expressions into [Path] values under a fixed
// grammar configuration: registered extension functions, strictness, and
// the non-standard extensions' special characters. Build one with
// [NewEnvironment] and reuse it to parse many expressions.
type Environment struct {
	opts envOptions
}

// NewEnvironment creates an [Environment] configured by opts.
func NewEnvironment(opts ...EnvOption) *Environment {
	e := &Environment{
		opts: envOptions{
			functions: make(map[string]Function),
			lexer:     lexer.DefaultConfig(),
		},
	}
	for _, o := range opts {
		o(&e.opts)
	}
	return e
}

// Parse compiles a JSONPath expression under e's configuration. Returns
// [ErrPathParse] on failure.
func (e *Environment) Parse(expr string) (*Path, error) {
	registry := ast.NewRegistry()
	functions.RegisterBuiltins(registry)
	if e.opts.enableKeys {
		functions.RegisterKeys(registry)
	}
	for name, fn := range e.opts.functions {
		registry.Register(funcAdapter{fn: fn})
	}

	funcMap := make(map[string]ast.Function, registry.Len())
	for name := range e.opts.functions {
		if fn, ok := registry.Lookup(name); ok {
			funcMap[name] = fn
		}
	}
	for _, name := range builtinFunctionNames(e.opts.enableKeys) {
		if fn, ok := registry.Lookup(name); ok {
			funcMap[name] = fn
		}
	}

	cfg := parser.Config{
		Functions:         funcMap,
		Strict:            e.opts.strict,
		WellTyped:         e.opts.wellTyped,
		ExtraContextIdent: e.opts.extraContextIdent,
		AndWord:           e.opts.andWord,
		OrWord:            e.opts.orWord,
		NotWord:           e.opts.notWord,
		MinIntIndex:       e.opts.minIntIndex,
		MaxIntIndex:       e.opts.maxIntIndex,
		FilterCaching:     e.opts.filterCaching,
		Lexer:             e.opts.lexer,
	}

	internalParser, err := parser.New(expr, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathParse, err)
	}

	query, err := internalParser.Parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathParse, err)
	}

	return &Path{query: query, filterCaching: e.opts.filterCaching}, nil
}

// MustParse compiles a JSONPath expression under e's configuration. Panics
// on failure.
func (e *Environment) MustParse(expr string) *Path {
	path, err := e.Parse(expr)
	if err != nil {
		panic(err)
	}
	return path
}

// builtinFunctionNames lists the always-registered RFC 9535 built-ins plus
// the non-standard extras, and keys() when enabled.
func builtinFunctionNames(enableKeys bool) []string {
	names := []string{"length", "count", "match", "search", "value", "isinstance", "is", "typeof", "type", "startswith"}
	if enableKeys {
		names = append(names, "keys")
	}
	return names
}
