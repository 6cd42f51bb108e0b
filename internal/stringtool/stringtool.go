// Package stringtool adapts multi-parameter functions to a single-string calling
// convention.
//
// An Adapter takes one text argument, splits it on commas, coerces every field to the
// declared kind of its parameter and calls the wrapped function positionally. Every
// failure (wrong field count, unparsable number, error or panic raised by the target)
// is reported as a Result value; Invoke never panics and never returns a bare error.
//
// Splitting is a plain comma split: a field whose value itself contains a comma cannot
// be expressed and will be rejected by the field-count check.
package stringtool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"runtime"
	"strconv"
	"strings"
)

// NameSuffix is appended to the target function name when no explicit name is given.
const NameSuffix = "_string"

// Kind is the primitive type a parameter is coerced to.
type Kind int

const (
	Text Kind = iota
	Int
	Float
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "integer"
	case Float:
		return "floating-point"
	default:
		return "text"
	}
}

// ParseKind maps a declared type name to a Kind. Unknown names are treated as Text.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer", "int64", "int32":
		return Int
	case "float", "float64", "float32", "number", "double", "floating-point":
		return Float
	default:
		return Text
	}
}

// placeholder returns the example value shown in the usage text.
func (k Kind) placeholder(name string) string {
	switch k {
	case Float:
		return "0.0"
	case Int:
		return "1"
	default:
		return "value_" + name
	}
}

// Param is one positional parameter of the target function.
type Param struct {
	Name string
	Kind Kind
}

// Params builds a signature from "name" or "name:kind" declarations.
func Params(decls ...string) []Param {
	params := make([]Param, 0, len(decls))
	for _, decl := range decls {
		name, kind, _ := strings.Cut(decl, ":")
		params = append(params, Param{
			Name: strings.TrimSpace(name),
			Kind: ParseKind(kind),
		})
	}
	return params
}

// Func is the target function. args holds one value per declared parameter, in order:
// string for Text, int for Int and float64 for Float.
type Func func(ctx context.Context, args []any) (string, error)

// Adapter wraps a target function behind a single-string interface.
// It holds no mutable state and is safe for concurrent use.
type Adapter struct {
	name   string
	params []Param
	fn     Func
	usage  string
}

// Option configures an Adapter.
type Option func(*options)

type options struct {
	name     string
	funcName string
}

// WithName sets the displayed adapter name.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithFuncName sets the target function name used to derive the default adapter name.
func WithFuncName(name string) Option {
	return func(o *options) {
		o.funcName = name
	}
}

// New creates an Adapter for fn with the given signature.
func New(fn Func, params []Param, opts ...Option) *Adapter {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	name := o.name
	if name == "" {
		base := o.funcName
		if base == "" {
			base = funcName(fn)
		}
		name = base + NameSuffix
	}

	sig := make([]Param, len(params))
	copy(sig, params)

	return &Adapter{
		name:   name,
		params: sig,
		fn:     fn,
		usage:  buildUsage(sig),
	}
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return a.name
}

// Usage returns the generated description telling callers how to format the input.
func (a *Adapter) Usage() string {
	return a.usage
}

// Example returns one placeholder value per parameter, joined by ", ".
func (a *Adapter) Example() string {
	return example(a.params)
}

// Params returns a copy of the signature.
func (a *Adapter) Params() []Param {
	out := make([]Param, len(a.params))
	copy(out, a.params)
	return out
}

// Parse splits input into fields and coerces them to the declared kinds.
func (a *Adapter) Parse(input string) ([]any, error) {
	fields := strings.Split(input, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	if len(fields) != len(a.params) {
		return nil, &CountError{Want: len(a.params), Got: len(fields)}
	}

	args := make([]any, len(fields))
	for i, field := range fields {
		v, err := coerce(field, a.params[i].Kind)
		if err != nil {
			return nil, &CoercionError{
				Position: i + 1,
				Param:    a.params[i].Name,
				Value:    field,
				Kind:     a.params[i].Kind,
				Err:      err,
			}
		}
		args[i] = v
	}
	return args, nil
}

// Invoke parses input, calls the target function and returns its outcome.
func (a *Adapter) Invoke(ctx context.Context, input string) Result {
	args, err := a.Parse(input)
	if err != nil {
		return Err(err)
	}
	return a.call(ctx, args)
}

func (a *Adapter) call(ctx context.Context, args []any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Err(&InvocationError{Err: fmt.Errorf("%v", r), Panicked: true})
		}
	}()

	out, err := a.fn(ctx, args)
	if err != nil {
		// Range checks done by FromFunc wrappers are coercion failures
		var cerr *CoercionError
		if errors.As(err, &cerr) {
			return Err(cerr)
		}
		return Err(&InvocationError{Err: err})
	}
	return Ok(out)
}

func coerce(field string, kind Kind) (any, error) {
	switch kind {
	case Float:
		return strconv.ParseFloat(field, 64)
	case Int:
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%s is not a finite number", field)
		}
		f = math.Trunc(f)
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, fmt.Errorf("%s is out of integer range", field)
		}
		return int(f), nil
	default:
		return field, nil
	}
}

func example(params []Param) string {
	values := make([]string, len(params))
	for i, p := range params {
		values[i] = p.Kind.placeholder(p.Name)
	}
	return strings.Join(values, ", ")
}

func buildUsage(params []Param) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return fmt.Sprintf("Function expects values %s as a string, separated by commas, like this:\n\n%s",
		strings.Join(names, ", "), example(params))
}

// funcName returns the short Go symbol name of fn, or "tool" when it cannot be resolved.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "tool"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "tool"
	}
	name := f.Name()
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
