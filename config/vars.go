/*
package config reads the numerics settings file and the YAML model files
used by the lensfish command line tool.

Settings files use a simple header-plus-assignments format:

	[lensfish]
	# comments start with '#'
	Version = 0.1.0
	JacobianOffset = 0.001
	SubSteps = 2, 4, 8

Variable names are case-insensitive and list values are comma-separated.
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type varType int

const (
	intVar varType = iota
	intsVar
	floatVar
	floatsVar
	stringVar
	stringsVar
	boolVar
	boolsVar
)

func (v varType) String() string {
	switch v {
	case intVar:
		return "int"
	case intsVar:
		return "int list"
	case floatVar:
		return "float"
	case floatsVar:
		return "float list"
	case stringVar:
		return "string"
	case stringsVar:
		return "string list"
	case boolVar:
		return "bool"
	case boolsVar:
		return "bool list"
	}
	panic("Impossible")
}

// article returns the indefinite article for the type's name.
func (v varType) article() string {
	if strings.HasPrefix(v.String(), "i") {
		return "an"
	}
	return "a"
}

type variable struct {
	name string
	typ  varType
	set  func(string) bool
}

// Vars is the set of variables a settings file may assign. Each registered
// variable is written through its pointer when the file is read.
type Vars struct {
	header string
	vars   []variable
}

// NewVars creates an empty variable set for files with the header
// [header].
func NewVars(header string) *Vars {
	return &Vars{header: header}
}

func (vars *Vars) add(name string, typ varType, set func(string) bool) {
	vars.vars = append(vars.vars, variable{strings.ToLower(name), typ, set})
}

func (vars *Vars) lookup(name string) (variable, bool) {
	for _, v := range vars.vars {
		if v.name == name {
			return v, true
		}
	}
	return variable{}, false
}

// Int registers an integer variable with a default value.
func (vars *Vars) Int(ptr *int, name string, value int) {
	*ptr = value
	vars.add(name, intVar, func(s string) bool {
		return parseInto(ptr, s, strconv.Atoi)
	})
}

// Float registers a float variable with a default value.
func (vars *Vars) Float(ptr *float64, name string, value float64) {
	*ptr = value
	vars.add(name, floatVar, func(s string) bool {
		return parseInto(ptr, s, parseFloat)
	})
}

// String registers a string variable with a default value.
func (vars *Vars) String(ptr *string, name string, value string) {
	*ptr = value
	vars.add(name, stringVar, func(s string) bool {
		*ptr = strings.TrimSpace(s)
		return true
	})
}

// Bool registers a boolean variable with a default value.
func (vars *Vars) Bool(ptr *bool, name string, value bool) {
	*ptr = value
	vars.add(name, boolVar, func(s string) bool {
		return parseInto(ptr, s, strconv.ParseBool)
	})
}

// Ints registers an integer list variable with a default value.
func (vars *Vars) Ints(ptr *[]int, name string, value []int) {
	*ptr = value
	vars.add(name, intsVar, func(s string) bool {
		return parseList(ptr, s, strconv.Atoi)
	})
}

// Floats registers a float list variable with a default value.
func (vars *Vars) Floats(ptr *[]float64, name string, value []float64) {
	*ptr = value
	vars.add(name, floatsVar, func(s string) bool {
		return parseList(ptr, s, parseFloat)
	})
}

// Strings registers a string list variable with a default value.
func (vars *Vars) Strings(ptr *[]string, name string, value []string) {
	*ptr = value
	vars.add(name, stringsVar, func(s string) bool {
		return parseList(ptr, s, func(tok string) (string, error) {
			return tok, nil
		})
	})
}

// Bools registers a boolean list variable with a default value.
func (vars *Vars) Bools(ptr *[]bool, name string, value []bool) {
	*ptr = value
	vars.add(name, boolsVar, func(s string) bool {
		return parseList(ptr, s, strconv.ParseBool)
	})
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseInto[T any](ptr *T, s string, parse func(string) (T, error)) bool {
	x, err := parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	*ptr = x
	return true
}

// parseList replaces *ptr with the comma-separated values in s. *ptr is left
// untouched if any element fails to parse.
func parseList[T any](ptr *[]T, s string, parse func(string) (T, error)) bool {
	out := []T{}
	if strings.TrimSpace(s) != "" {
		for _, tok := range strings.Split(s, ",") {
			x, err := parse(strings.TrimSpace(tok))
			if err != nil {
				return false
			}
			out = append(out, x)
		}
	}
	*ptr = out
	return true
}

// ReadFile reads the settings file fname into vars.
func ReadFile(fname string, vars *Vars) error {
	bs, err := os.ReadFile(fname)
	if err != nil {
		return err
	}
	return Read(fname, string(bs), vars)
}

// Read parses the contents of a settings file. source names the file in
// error messages.
func Read(source, text string, vars *Vars) error {
	lines, lineNums := stripComments(strings.Split(text, "\n"))

	if len(lines) == 0 || lines[0] != fmt.Sprintf("[%s]", vars.header) {
		return fmt.Errorf("I expected the config file %s to have the "+
			"header [%s] at the top, but didn't find it.", source, vars.header)
	}
	lines, lineNums = lines[1:], lineNums[1:]

	seen := map[string]int{}
	for i, line := range lines {
		name, val, ok := assignment(line)
		if !ok {
			return fmt.Errorf("I could not parse line %d of the config "+
				"file %s because it did not take the form of a variable "+
				"assignment.", lineNums[i], source)
		}

		v, ok := vars.lookup(name)
		if !ok {
			return fmt.Errorf("Line %d of the config file %s assigns a "+
				"value to the variable '%s', but config files of type %s "+
				"don't have that variable.", lineNums[i], source, name,
				vars.header)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("Lines %d and %d of the config file %s both "+
				"assign a value to the variable '%s'.", prev, lineNums[i],
				source, name)
		}
		seen[name] = lineNums[i]

		if !v.set(val) {
			return fmt.Errorf("I could not parse line %d of the config "+
				"file %s because '%s' expects values of type %s and '%s' "+
				"cannot be converted to %s %s.", lineNums[i], source, name,
				v.typ, val, v.typ.article(), v.typ)
		}
	}
	return nil
}

// stripComments removes comments and blank lines and returns the
// remaining lines with their one-indexed line numbers.
func stripComments(lines []string) ([]string, []int) {
	out, lineNums := []string{}, []int{}
	for i, line := range lines {
		if comment := strings.Index(line, "#"); comment != -1 {
			line = line[:comment]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		lineNums = append(lineNums, i+1)
	}
	return out, lineNums
}

func assignment(line string) (name, val string, ok bool) {
	name, val, ok = strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	return name, strings.TrimSpace(val), name != ""
}
