package stringtool

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a target function that remembers every call it receives.
type recorder struct {
	mu    sync.Mutex
	calls [][]any
	out   string
	err   error
}

func (r *recorder) fn(_ context.Context, args []any) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, args)
	return r.out, r.err
}

func coordinates(_ context.Context, args []any) (string, error) {
	lat := strconv.FormatFloat(args[0].(float64), 'f', -1, 64)
	lon := strconv.FormatFloat(args[1].(float64), 'f', -1, 64)
	return lat + "," + lon, nil
}

func TestInvoke_Coordinates(t *testing.T) {
	a := New(coordinates, Params("lat:float", "lon:float"))

	res := a.Invoke(context.Background(), "40.7128, -74.0060")
	require.True(t, res.OK(), res.Message())
	assert.Equal(t, "40.7128,-74.006", res.Output)

	res = a.Invoke(context.Background(), "40.7128")
	require.False(t, res.OK())
	assert.Equal(t, "Expected 2 comma-separated values, got 1", res.Message())

	res = a.Invoke(context.Background(), "abc, -74.0060")
	require.False(t, res.OK())
	var cerr *CoercionError
	require.ErrorAs(t, res.Err, &cerr)
	assert.Equal(t, 1, cerr.Position)
	assert.Equal(t, "lat", cerr.Param)
	assert.Equal(t, "abc", cerr.Value)
	assert.Contains(t, res.Message(), "field 1")
}

func TestInvoke_CallsTargetInDeclaredOrder(t *testing.T) {
	rec := &recorder{out: "done"}
	a := New(rec.fn, Params("city:string", "days:int", "ratio:float"))

	res := a.Invoke(context.Background(), "  Paris , 3 , 0.5 ")
	require.True(t, res.OK(), res.Message())
	assert.Equal(t, "done", res.Output)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []any{"Paris", 3, 0.5}, rec.calls[0])
}

func TestInvoke_CountMismatchDoesNotCallTarget(t *testing.T) {
	tests := []struct {
		name  string
		input string
		got   int
	}{
		{"too few", "1.0", 1},
		{"too many", "1.0, 2.0, 3.0", 3},
		{"empty input", "", 1},
		{"trailing comma", "1.0, 2.0,", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			a := New(rec.fn, Params("a:float", "b:float"))

			res := a.Invoke(context.Background(), tt.input)
			require.False(t, res.OK())

			var cerr *CountError
			require.ErrorAs(t, res.Err, &cerr)
			assert.Equal(t, 2, cerr.Want)
			assert.Equal(t, tt.got, cerr.Got)
			assert.Empty(t, rec.calls)
		})
	}
}

func TestInvoke_Coercion(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		input   string
		want    any
		wantErr bool
	}{
		{"float", "float", "3.14", 3.14, false},
		{"float negative", "float", "-74.0060", -74.006, false},
		{"float invalid", "float", "abc", nil, true},
		{"int", "int", "5", 5, false},
		{"int from decimal", "int", "5.0", 5, false},
		{"int truncates", "int", "3.9", 3, false},
		{"int truncates negative", "int", "-3.9", -3, false},
		{"int invalid", "int", "five", nil, true},
		{"int infinity", "int", "inf", nil, true},
		{"text", "string", "hello world", "hello world", false},
		{"text empty", "string", "", "", false},
		{"unknown kind is text", "bool", "true", "true", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{out: "ok"}
			a := New(rec.fn, Params("x:"+tt.kind))

			res := a.Invoke(context.Background(), tt.input)
			if tt.wantErr {
				require.False(t, res.OK())
				var cerr *CoercionError
				assert.ErrorAs(t, res.Err, &cerr)
				assert.Empty(t, rec.calls)
				return
			}
			require.True(t, res.OK(), res.Message())
			require.Len(t, rec.calls, 1)
			assert.Equal(t, tt.want, rec.calls[0][0])
		})
	}
}

func TestInvoke_SecondFieldFailureReportsPosition(t *testing.T) {
	rec := &recorder{}
	a := New(rec.fn, Params("lat:float", "lon:float"))

	res := a.Invoke(context.Background(), "40.7, north")
	var cerr *CoercionError
	require.ErrorAs(t, res.Err, &cerr)
	assert.Equal(t, 2, cerr.Position)
	assert.Equal(t, "lon", cerr.Param)
	assert.Empty(t, rec.calls)
}

func TestInvoke_TargetError(t *testing.T) {
	rec := &recorder{err: errors.New("upstream unavailable")}
	a := New(rec.fn, Params("city"))

	res := a.Invoke(context.Background(), "Paris")
	require.False(t, res.OK())
	assert.Equal(t, "upstream unavailable", res.Message())

	var ierr *InvocationError
	require.ErrorAs(t, res.Err, &ierr)
	assert.False(t, ierr.Panicked)
	assert.Equal(t, "Error: upstream unavailable", res.String())
}

func TestInvoke_TargetPanic(t *testing.T) {
	a := New(func(context.Context, []any) (string, error) {
		panic("boom")
	}, Params("x"))

	var res Result
	require.NotPanics(t, func() {
		res = a.Invoke(context.Background(), "anything")
	})
	require.False(t, res.OK())
	assert.Equal(t, "boom", res.Message())

	var ierr *InvocationError
	require.ErrorAs(t, res.Err, &ierr)
	assert.True(t, ierr.Panicked)
}

func TestInvoke_Idempotent(t *testing.T) {
	a := New(coordinates, Params("lat:float", "lon:float"))

	for _, input := range []string{"1.5, 2.5", "1.5", "x, 2"} {
		first := a.Invoke(context.Background(), input)
		second := a.Invoke(context.Background(), input)
		assert.Equal(t, first.OK(), second.OK())
		assert.Equal(t, first.String(), second.String())
	}
}

func TestInvoke_Concurrent(t *testing.T) {
	rec := &recorder{out: "ok"}
	a := New(rec.fn, Params("n:int"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := a.Invoke(context.Background(), strconv.Itoa(i))
			assert.True(t, res.OK())
		}(i)
	}
	wg.Wait()
	assert.Len(t, rec.calls, 50)
}

func TestName(t *testing.T) {
	a := New(coordinates, Params("lat:float"), WithName("get_city_temperature"))
	assert.Equal(t, "get_city_temperature", a.Name())

	a = New(coordinates, Params("lat:float"), WithFuncName("get_temperature_by_coordinates"))
	assert.Equal(t, "get_temperature_by_coordinates_string", a.Name())

	a = New(coordinates, Params("lat:float"))
	assert.Equal(t, "coordinates_string", a.Name())
}

func TestUsage(t *testing.T) {
	a := New(coordinates, Params("latitude:float", "longitude:float", "days:int", "city"))

	assert.Equal(t, "0.0, 0.0, 1, value_city", a.Example())
	assert.Equal(t,
		"Function expects values latitude, longitude, days, city as a string, separated by commas, like this:\n\n0.0, 0.0, 1, value_city",
		a.Usage())
}

func TestParams_Copy(t *testing.T) {
	params := Params("a:int")
	a := New(coordinates, params)
	params[0].Kind = Text

	got := a.Params()
	got[0].Name = "changed"
	assert.Equal(t, []Param{{Name: "a", Kind: Int}}, a.Params())
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, Float, ParseKind("float"))
	assert.Equal(t, Float, ParseKind(" Number "))
	assert.Equal(t, Int, ParseKind("integer"))
	assert.Equal(t, Text, ParseKind("string"))
	assert.Equal(t, Text, ParseKind(""))
	assert.Equal(t, Text, ParseKind("datetime"))
}

func TestResult_Record(t *testing.T) {
	data, err := json.Marshal(Ok("sunny"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"output":"sunny"}`, string(data))

	data, err = json.Marshal(Err(&CountError{Want: 2, Got: 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"output":"Error: Expected 2 comma-separated values, got 1"}`, string(data))
}
