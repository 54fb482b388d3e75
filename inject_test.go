package inject_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inject "github.com/gittip/dependency-injection"
)

// TestSignatureOfFunc verifies parameter extraction for plain functions,
// including the variadic-tail-as-optional rule.
func TestSignatureOfFunc(t *testing.T) {
	t.Run("fixed parameters are required", func(t *testing.T) {
		sig, err := inject.SignatureOf(func(foo int, bar string, baz bool) {})
		require.NoError(t, err)

		require.Len(t, sig.Params, 3)
		assert.Len(t, sig.Required(), 3)
		assert.Empty(t, sig.Optional())
		assert.Equal(t, reflect.TypeOf(0), sig.Params[0].Type)
		assert.Equal(t, reflect.TypeOf(""), sig.Params[1].Type)
		assert.Equal(t, reflect.TypeOf(false), sig.Params[2].Type)
	})

	t.Run("variadic tail is optional with an empty default", func(t *testing.T) {
		sig, err := inject.SignatureOf(func(foo int, extra ...string) {})
		require.NoError(t, err)

		require.Len(t, sig.Params, 2)
		assert.Len(t, sig.Required(), 1)
		assert.True(t, sig.Params[1].Optional)
		assert.Equal(t, map[string]any{"[]string": []string{}}, sig.Optional())
	})

	t.Run("no parameters", func(t *testing.T) {
		sig, err := inject.SignatureOf(func() {})
		require.NoError(t, err)
		assert.Empty(t, sig.Params)
	})
}

// TestSignatureOfStruct verifies field extraction and inject tag handling
// for constructor-style struct targets.
func TestSignatureOfStruct(t *testing.T) {
	type deps struct {
		Foo      int
		Bar      string `inject:"bar"`
		Baz      bool   `inject:",optional"`
		Ignored  string `inject:"-"`
		internal int //nolint:unused // exercises the unexported-field skip
	}

	sig, err := inject.SignatureOf(deps{Baz: true})
	require.NoError(t, err)

	require.Len(t, sig.Params, 3)
	assert.Equal(t, "Foo", sig.Params[0].Name)
	assert.Equal(t, "bar", sig.Params[1].Name)
	assert.Equal(t, "Baz", sig.Params[2].Name)

	// The inspected instance's field value becomes the optional default.
	assert.Equal(t, map[string]any{"Baz": true}, sig.Optional())
	assert.Len(t, sig.Required(), 2)
}

// TestSignatureOfUnusable verifies that unsupported targets produce an
// UnusableError naming the offending type.
func TestSignatureOfUnusable(t *testing.T) {
	tests := []struct {
		name   string
		target any
		want   string
	}{
		{name: "nil", target: nil, want: "inject: cannot determine a signature for <nil>"},
		{name: "int", target: 42, want: "inject: cannot determine a signature for int"},
		{name: "string", target: "nope", want: "inject: cannot determine a signature for string"},
		{name: "map", target: map[string]int{}, want: "inject: cannot determine a signature for map[string]int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inject.SignatureOf(tt.target)
			require.Error(t, err)

			var unusable inject.UnusableError
			require.ErrorAs(t, err, &unusable)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

// TestResolveFunc verifies type-based resolution for function targets.
func TestResolveFunc(t *testing.T) {
	t.Run("resolves a single dependency", func(t *testing.T) {
		deps, err := inject.Resolve(func(foo int) {}, inject.NewValues().Supply(1))
		require.NoError(t, err)

		assert.Equal(t, []any{1}, deps.Args)
		assert.Equal(t, map[string]any{"int": 1}, deps.Named)
	})

	t.Run("resolves two dependencies in declaration order", func(t *testing.T) {
		vals := inject.NewValues().Supply(true, 1)
		deps, err := inject.Resolve(func(foo int, bar bool) {}, vals)
		require.NoError(t, err)

		assert.Equal(t, []any{1, true}, deps.Args)
	})

	t.Run("missing parameters are skipped, not failed", func(t *testing.T) {
		deps, err := inject.Resolve(func(foo int, bar bool) {}, inject.NewValues().Supply(1))
		require.NoError(t, err)

		assert.Equal(t, []any{1}, deps.Args)
	})

	t.Run("variadic default is materialized when absent", func(t *testing.T) {
		deps, err := inject.Resolve(func(foo int, extra ...string) {}, inject.NewValues().Supply(1))
		require.NoError(t, err)

		assert.Equal(t, []any{1, []string{}}, deps.Args)
	})

	t.Run("supplied slice beats the variadic default", func(t *testing.T) {
		vals := inject.NewValues().Supply(1, []string{"a", "b"})
		deps, err := inject.Resolve(func(foo int, extra ...string) {}, vals)
		require.NoError(t, err)

		assert.Equal(t, []any{1, []string{"a", "b"}}, deps.Args)
	})

	t.Run("later supply overrides earlier", func(t *testing.T) {
		vals := inject.NewValues().Supply(1).Supply(2)
		deps, err := inject.Resolve(func(foo int) {}, vals)
		require.NoError(t, err)

		assert.Equal(t, []any{2}, deps.Args)
	})
}

// TestResolveStruct verifies name-based resolution for struct targets,
// including the provided-beats-default rules.
func TestResolveStruct(t *testing.T) {
	type deps struct {
		Foo int
		Bar bool `inject:"bar,optional"`
	}

	t.Run("provided value beats the default", func(t *testing.T) {
		vals := inject.NewValues().Provide("Foo", 1).Provide("bar", true)
		d, err := inject.Resolve(deps{}, vals)
		require.NoError(t, err)

		assert.Equal(t, []any{1, true}, d.Args)
		assert.Equal(t, map[string]any{"Foo": 1, "bar": true}, d.Named)
	})

	t.Run("default is honored when absent", func(t *testing.T) {
		d, err := inject.Resolve(deps{}, inject.NewValues().Provide("Foo", 1))
		require.NoError(t, err)

		assert.Equal(t, []any{1, false}, d.Args)
		assert.Equal(t, map[string]any{"Foo": 1, "bar": false}, d.Named)
	})

	t.Run("non-zero default survives", func(t *testing.T) {
		d, err := inject.Resolve(deps{Bar: true}, inject.NewValues().Provide("Foo", 1))
		require.NoError(t, err)

		assert.Equal(t, []any{1, true}, d.Args)
	})

	t.Run("a provided false is not mistaken for absent", func(t *testing.T) {
		vals := inject.NewValues().Provide("Foo", 1).Provide("bar", false)
		d, err := inject.Resolve(deps{Bar: true}, vals)
		require.NoError(t, err)

		assert.Equal(t, []any{1, false}, d.Args)
	})

	t.Run("name lookup falls back to type", func(t *testing.T) {
		d, err := inject.Resolve(deps{}, inject.NewValues().Supply(7))
		require.NoError(t, err)

		assert.Equal(t, []any{7, false}, d.Args)
	})
}

// TestValuesLen verifies that Len counts one registration per name even
// when a name is provided repeatedly.
func TestValuesLen(t *testing.T) {
	vals := inject.NewValues()
	assert.Equal(t, 0, vals.Len())

	vals.Provide("x", 1)
	assert.Equal(t, 1, vals.Len())

	// Re-providing replaces, it does not accumulate.
	vals.Provide("x", 2)
	assert.Equal(t, 1, vals.Len())

	vals.Supply("hello")
	assert.Equal(t, 2, vals.Len())

	vals.Provide("conn", nil)
	assert.Equal(t, 3, vals.Len())
}

// TestProvideReplacesTypedEntry verifies that re-providing a name retires
// the old value from typed lookups as well as named ones.
func TestProvideReplacesTypedEntry(t *testing.T) {
	t.Run("replacement wins typed lookups", func(t *testing.T) {
		vals := inject.NewValues().Provide("x", 1).Provide("x", 2)

		deps, err := inject.Resolve(func(n int) {}, vals)
		require.NoError(t, err)
		assert.Equal(t, []any{2}, deps.Args)
	})

	t.Run("stale value of another type is gone", func(t *testing.T) {
		vals := inject.NewValues().Provide("x", 1).Provide("x", "later")

		deps, err := inject.Resolve(func(n int) {}, vals)
		require.NoError(t, err)
		assert.Empty(t, deps.Args, "the replaced int must not satisfy an int parameter")
	})

	t.Run("re-providing nil retires the typed entry", func(t *testing.T) {
		vals := inject.NewValues().Provide("x", 1).Provide("x", nil)
		assert.Equal(t, 1, vals.Len())

		deps, err := inject.Resolve(func(n int) {}, vals)
		require.NoError(t, err)
		assert.Empty(t, deps.Args)
	})

	t.Run("supplied values survive a provide", func(t *testing.T) {
		vals := inject.NewValues().Supply(7).Provide("x", "s").Provide("x", "t")

		deps, err := inject.Resolve(func(n int) {}, vals)
		require.NoError(t, err)
		assert.Equal(t, []any{7}, deps.Args)
	})
}

// TestResolveNilRegistration verifies that an explicitly provided nil is
// treated as present, not as a missing value.
func TestResolveNilRegistration(t *testing.T) {
	type deps struct {
		Conn *struct{} `inject:"conn,optional"`
	}

	// Pre-set a sentinel default so we can tell "used default" from
	// "used provided nil".
	sentinel := &struct{}{}
	vals := inject.NewValues().Provide("conn", nil)

	d, err := inject.Resolve(deps{Conn: sentinel}, vals)
	require.NoError(t, err)

	require.Len(t, d.Args, 1)
	assert.Nil(t, d.Args[0])
}

// TestCallFunc verifies end-to-end invocation of function targets.
func TestCallFunc(t *testing.T) {
	t.Run("invokes with resolved arguments", func(t *testing.T) {
		sum := func(a int, b int) int { return a + b }
		// Both parameters share a type, so one supplied int serves both —
		// the same value is injected wherever the type matches.
		results, err := inject.Call(sum, inject.NewValues().Supply(2))
		require.NoError(t, err)

		assert.Equal(t, []any{4}, results)
	})

	t.Run("missing required parameter fails", func(t *testing.T) {
		_, err := inject.Call(func(foo int, bar string) {}, inject.NewValues().Supply(1))
		require.Error(t, err)

		var missing inject.MissingDependencyError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "string", missing.Param)
	})

	t.Run("trailing error return is split off", func(t *testing.T) {
		boom := errors.New("boom")
		fails := func(n int) (string, error) { return "", boom }
		_, err := inject.Call(fails, inject.NewValues().Supply(1))
		assert.ErrorIs(t, err, boom)

		succeeds := func(n int) (string, error) { return "ok", nil }
		results, err := inject.Call(succeeds, inject.NewValues().Supply(1))
		require.NoError(t, err)
		assert.Equal(t, []any{"ok"}, results)
	})

	t.Run("variadic arguments are spread", func(t *testing.T) {
		join := func(sep string, parts ...string) string {
			out := ""
			for i, p := range parts {
				if i > 0 {
					out += sep
				}
				out += p
			}
			return out
		}

		vals := inject.NewValues().Supply("-", []string{"a", "b", "c"})
		results, err := inject.Call(join, vals)
		require.NoError(t, err)
		assert.Equal(t, []any{"a-b-c"}, results)
	})

	t.Run("method values work like functions", func(t *testing.T) {
		c := &counter{}
		_, err := inject.Call(c.Add, inject.NewValues().Supply(5))
		require.NoError(t, err)
		assert.Equal(t, 5, c.n)
	})
}

// counter exists to exercise method-value targets.
type counter struct{ n int }

func (c *counter) Add(n int) { c.n += n }

// TestCallStruct verifies constructor-style injection into structs.
func TestCallStruct(t *testing.T) {
	type server struct {
		Addr    string `inject:"addr"`
		Retries int    `inject:",optional"`
	}

	t.Run("value target returns a value", func(t *testing.T) {
		vals := inject.NewValues().Provide("addr", ":8080")
		results, err := inject.Call(server{Retries: 3}, vals)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, server{Addr: ":8080", Retries: 3}, results[0])
	})

	t.Run("pointer target returns a pointer", func(t *testing.T) {
		vals := inject.NewValues().Provide("addr", ":8080")
		results, err := inject.Call(&server{}, vals)
		require.NoError(t, err)

		require.Len(t, results, 1)
		got, ok := results[0].(*server)
		require.True(t, ok)
		assert.Equal(t, ":8080", got.Addr)
	})

	t.Run("empty struct resolves to nothing", func(t *testing.T) {
		type empty struct{}
		d, err := inject.Resolve(empty{}, inject.NewValues())
		require.NoError(t, err)
		assert.Empty(t, d.Args)
		assert.Empty(t, d.Named)
	})
}

// greeter implements Caller to exercise the self-resolving target path.
type greeter struct{ prefix string }

func (g greeter) Call(vals *inject.Values) (any, error) {
	name, ok := vals.Get("name")
	if !ok {
		return nil, errors.New("no name available")
	}
	return g.prefix + name.(string), nil
}

// TestCallCaller verifies that Caller targets receive the values bag
// directly instead of per-parameter resolution.
func TestCallCaller(t *testing.T) {
	results, err := inject.Call(greeter{prefix: "hi "}, inject.NewValues().Provide("name", "ada"))
	require.NoError(t, err)
	assert.Equal(t, []any{"hi ada"}, results)

	_, err = inject.Call(greeter{}, inject.NewValues())
	assert.EqualError(t, err, "no name available")
}

// TestAmbiguousInterface verifies that an interface parameter satisfied by
// more than one supplied value is rejected rather than guessed.
func TestAmbiguousInterface(t *testing.T) {
	vals := inject.NewValues().Supply(&counter{}, &counter{})

	type needsCaller struct {
		W interface{ Add(int) } `inject:"w"`
	}
	_, err := inject.Resolve(needsCaller{}, vals)
	require.Error(t, err)

	var ambiguous inject.AmbiguousDependencyError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Candidates, 2)
}

// TestUniqueInterfaceMatch verifies that a single assignable value
// satisfies an interface parameter.
func TestUniqueInterfaceMatch(t *testing.T) {
	c := &counter{}
	bump := func(target interface{ Add(int) }) { target.Add(1) }

	_, err := inject.Call(bump, inject.NewValues().Supply(c))
	require.NoError(t, err)
	assert.Equal(t, 1, c.n)
}
