package stringtool

import (
	"context"
	"fmt"
	"reflect"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// FromFunc builds an Adapter from an ordinary Go function, deriving the parameter kinds
// from its declared parameter types. Go does not expose parameter names, so names must
// supply one name per parameter; when names is empty they default to arg1, arg2, ...
//
// fn may take a leading context.Context, its remaining parameters must be strings,
// integers or floats, and it must return string or (string, error).
func FromFunc(fn any, names []string, opts ...Option) (*Adapter, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("stringtool: expected a function, got %T", fn)
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("stringtool: variadic functions are not supported")
	}

	offset := 0
	if t.NumIn() > 0 && t.In(0) == contextType {
		offset = 1
	}
	n := t.NumIn() - offset

	if len(names) == 0 {
		names = make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("arg%d", i+1)
		}
	}
	if len(names) != n {
		return nil, fmt.Errorf("stringtool: got %d parameter names for %d parameters", len(names), n)
	}

	params := make([]Param, n)
	for i := 0; i < n; i++ {
		kind, err := kindOf(t.In(i + offset))
		if err != nil {
			return nil, fmt.Errorf("stringtool: parameter %s: %w", names[i], err)
		}
		params[i] = Param{Name: names[i], Kind: kind}
	}

	switch {
	case t.NumOut() == 1 && t.Out(0).Kind() == reflect.String:
	case t.NumOut() == 2 && t.Out(0).Kind() == reflect.String && t.Out(1) == errorType:
	default:
		return nil, fmt.Errorf("stringtool: function must return string or (string, error), got %s", t)
	}

	call := func(ctx context.Context, args []any) (string, error) {
		in := make([]reflect.Value, 0, t.NumIn())
		if offset == 1 {
			if ctx == nil {
				ctx = context.Background()
			}
			in = append(in, reflect.ValueOf(ctx))
		}
		for i, arg := range args {
			av, err := convert(arg, t.In(i+offset))
			if err != nil {
				return "", &CoercionError{
					Position: i + 1,
					Param:    params[i].Name,
					Value:    fmt.Sprint(arg),
					Kind:     params[i].Kind,
					Err:      err,
				}
			}
			in = append(in, av)
		}

		out := v.Call(in)
		if len(out) == 2 && !out[1].IsNil() {
			return "", out[1].Interface().(error)
		}
		return out[0].String(), nil
	}

	opts = append([]Option{WithFuncName(funcName(fn))}, opts...)
	return New(call, params, opts...), nil
}

func kindOf(t reflect.Type) (Kind, error) {
	switch t.Kind() {
	case reflect.String:
		return Text, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int, nil
	case reflect.Float32, reflect.Float64:
		return Float, nil
	default:
		return Text, fmt.Errorf("unsupported type %s", t)
	}
}

// convert turns a coerced value into a reflect.Value of the exact parameter type.
func convert(arg any, t reflect.Type) (reflect.Value, error) {
	zero := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		s, _ := arg.(string)
		zero.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := arg.(int)
		if zero.OverflowInt(int64(n)) {
			return zero, fmt.Errorf("%d overflows %s", n, t)
		}
		zero.SetInt(int64(n))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _ := arg.(int)
		if n < 0 || zero.OverflowUint(uint64(n)) {
			return zero, fmt.Errorf("%d overflows %s", n, t)
		}
		zero.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, _ := arg.(float64)
		if zero.OverflowFloat(f) {
			return zero, fmt.Errorf("%v overflows %s", f, t)
		}
		zero.SetFloat(f)
	}
	return zero, nil
}
