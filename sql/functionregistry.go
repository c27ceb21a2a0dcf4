package sql

import (
	"strings"

	"gopkg.in/yaml.v2"
)

// FunctionSignature describes one resolvable function: its parameter and
// return types plus the template the morpher uses to produce the backend
// call. An empty template means the call translates to the lower-cased
// name with unchanged arguments.
//
// Templates use $1..$9 for single arguments and $* for the comma-joined
// argument list, e.g. "trunc($*)" or "power($1, 2)".
type FunctionSignature struct {
	Name     string
	Params   []Type
	Variadic bool
	Return   Type
	Template string
	// Unit and UCD, when set, annotate the function result (DISTANCE
	// yields degrees regardless of its inputs).
	Unit string
	UCD  string
	// Aggregate marks set functions, which are legal only in select
	// lists, HAVING and ORDER BY.
	Aggregate bool
}

// arity returns the minimum number of arguments the signature takes.
func (f *FunctionSignature) arity() int { return len(f.Params) }

// accepts reports whether the signature matches the argument types.
func (f *FunctionSignature) accepts(args []Type) bool {
	if f.Variadic {
		if len(args) < len(f.Params) {
			return false
		}
	} else if len(args) != len(f.Params) {
		return false
	}
	for i, arg := range args {
		p := i
		if p >= len(f.Params) {
			p = len(f.Params) - 1
		}
		if !AcceptsArg(f.Params[p], arg) {
			return false
		}
	}
	return true
}

// FunctionRegistry resolves function names to signatures. A registry is
// assembled once at startup (built-ins plus any user-defined functions
// loaded from YAML) and is read-only afterwards, so concurrent
// compilations can share it.
type FunctionRegistry struct {
	funcs map[string][]*FunctionSignature
}

// NewFunctionRegistry returns an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{funcs: make(map[string][]*FunctionSignature)}
}

// Register adds signatures to the registry.
func (r *FunctionRegistry) Register(sigs ...*FunctionSignature) {
	for _, s := range sigs {
		key := strings.ToLower(s.Name)
		r.funcs[key] = append(r.funcs[key], s)
	}
}

// Function resolves a call by name and argument types. Unknown names are
// ErrUnsupportedFunction, a known name with no signature of matching arity
// is ErrArityMismatch, and matching arity with unacceptable argument types
// is ErrTypeMismatch.
func (r *FunctionRegistry) Function(name string, args []Type) (*FunctionSignature, error) {
	candidates, ok := r.funcs[strings.ToLower(name)]
	if !ok {
		return nil, ErrUnsupportedFunction.New(name)
	}

	arityMatched := false
	for _, c := range candidates {
		if c.Variadic && len(args) >= c.arity() || !c.Variadic && len(args) == c.arity() {
			arityMatched = true
		}
		if c.accepts(args) {
			return c, nil
		}
	}
	if !arityMatched {
		return nil, ErrArityMismatch.New(name, candidates[0].arity(), len(args))
	}

	types := make([]string, len(args))
	for i, t := range args {
		types[i] = t.Name()
	}
	return nil, ErrTypeMismatch.New(name + "(" + strings.Join(types, ", ") + ")")
}

type yamlFunction struct {
	Name     string   `yaml:"name"`
	Params   []string `yaml:"params"`
	Variadic bool     `yaml:"variadic"`
	Returns  string   `yaml:"returns"`
	Template string   `yaml:"template"`
	Unit     string   `yaml:"unit"`
	UCD      string   `yaml:"ucd"`
}

// LoadYAML registers user-defined functions from a YAML document, the way
// deployments publish their ivo_/gavo_ function namespaces.
func (r *FunctionRegistry) LoadYAML(data []byte) error {
	var raw []yamlFunction
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, yf := range raw {
		params := make([]Type, 0, len(yf.Params))
		for _, p := range yf.Params {
			t, ok := TypeFromName(p)
			if !ok {
				return ErrTypeMismatch.New("unknown parameter type " + p + " in function " + yf.Name)
			}
			params = append(params, t)
		}
		ret, ok := TypeFromName(yf.Returns)
		if !ok {
			return ErrTypeMismatch.New("unknown return type " + yf.Returns + " in function " + yf.Name)
		}
		r.Register(&FunctionSignature{
			Name:     yf.Name,
			Params:   params,
			Variadic: yf.Variadic,
			Return:   ret,
			Template: yf.Template,
			Unit:     yf.Unit,
			UCD:      yf.UCD,
		})
	}
	return nil
}

// Defaults returns a registry holding the ADQL standard function set.
func Defaults() *FunctionRegistry {
	r := NewFunctionRegistry()

	num := func(name string, arity int, template string) *FunctionSignature {
		params := make([]Type, arity)
		for i := range params {
			params[i] = Double
		}
		return &FunctionSignature{Name: name, Params: params, Return: Double, Template: template}
	}

	// Trigonometry. Postgres spells all of these the same way.
	r.Register(
		num("ACOS", 1, ""), num("ASIN", 1, ""), num("ATAN", 1, ""),
		num("ATAN2", 2, ""), num("COS", 1, ""), num("COT", 1, ""),
		num("SIN", 1, ""), num("TAN", 1, ""),
	)

	// Math. ADQL's LOG is the natural logarithm while Postgres' log() is
	// base ten, hence the remapping of the pair.
	r.Register(
		num("ABS", 1, ""),
		num("CEILING", 1, ""),
		num("DEGREES", 1, ""),
		num("EXP", 1, ""),
		num("FLOOR", 1, ""),
		num("LOG", 1, "ln($1)"),
		num("LOG10", 1, "log($1)"),
		num("MOD", 2, ""),
		&FunctionSignature{Name: "PI", Params: nil, Return: Double},
		num("POWER", 2, ""),
		num("RADIANS", 1, ""),
		&FunctionSignature{Name: "RAND", Params: nil, Return: Double, Template: "random()"},
		&FunctionSignature{Name: "RAND", Params: []Type{Integer}, Return: Double, Template: "random()"},
		num("ROUND", 1, ""),
		&FunctionSignature{Name: "ROUND", Params: []Type{Double, Integer}, Return: Double,
			Template: "round(($1)::numeric, $2)"},
		num("SQRT", 1, ""),
		num("TRUNCATE", 1, "trunc($1)"),
		&FunctionSignature{Name: "TRUNCATE", Params: []Type{Double, Integer}, Return: Double,
			Template: "trunc(($1)::numeric, $2)"},
	)

	// Aggregates.
	r.Register(
		&FunctionSignature{Name: "AVG", Params: []Type{Double}, Return: Double, Aggregate: true},
		&FunctionSignature{Name: "COUNT", Params: []Type{Text}, Return: Bigint, Aggregate: true},
		&FunctionSignature{Name: "COUNT", Params: []Type{Double}, Return: Bigint, Aggregate: true},
		&FunctionSignature{Name: "COUNT", Params: []Type{Geometry}, Return: Bigint, Aggregate: true},
		&FunctionSignature{Name: "MAX", Params: []Type{Double}, Return: Double, Aggregate: true},
		&FunctionSignature{Name: "MAX", Params: []Type{Text}, Return: Text, Aggregate: true},
		&FunctionSignature{Name: "MIN", Params: []Type{Double}, Return: Double, Aggregate: true},
		&FunctionSignature{Name: "MIN", Params: []Type{Text}, Return: Text, Aggregate: true},
		&FunctionSignature{Name: "SUM", Params: []Type{Double}, Return: Double, Aggregate: true},
	)

	// Geometry. Templates stay empty; the morpher owns the translation
	// since most of these become operators, not calls.
	r.Register(
		&FunctionSignature{Name: "CONTAINS", Params: []Type{Geometry, Geometry}, Return: Integer},
		&FunctionSignature{Name: "INTERSECTS", Params: []Type{Geometry, Geometry}, Return: Integer},
		&FunctionSignature{Name: "DISTANCE", Params: []Type{Point, Point}, Return: Double,
			Unit: "deg", UCD: "pos.angDistance"},
		&FunctionSignature{Name: "AREA", Params: []Type{Geometry}, Return: Double, Unit: "deg**2"},
		&FunctionSignature{Name: "CENTROID", Params: []Type{Geometry}, Return: Point},
		&FunctionSignature{Name: "COORD1", Params: []Type{Point}, Return: Double, Unit: "deg"},
		&FunctionSignature{Name: "COORD2", Params: []Type{Point}, Return: Double, Unit: "deg"},
		&FunctionSignature{Name: "COORDSYS", Params: []Type{Geometry}, Return: Text},
	)

	return r
}
