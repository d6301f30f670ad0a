// Package expr evaluates edge-guard conditions and logic-node expressions
// against the session variables, and renders {{placeholder}} templates.
package expr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dop251/goja"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}\}`)

// EvalBool evaluates a condition expression to a boolean. Variables are
// bound by name into the script scope. A script error is returned to the
// caller; the interpreter treats it as "guard did not match".
func EvalBool(condition string, vars map[string]any) (bool, error) {
	vm := goja.New()
	for k, v := range vars {
		if err := vm.Set(k, v); err != nil {
			return false, fmt.Errorf("binding variable %q: %w", k, err)
		}
	}
	result, err := vm.RunString(condition)
	if err != nil {
		return false, fmt.Errorf("evaluating condition %q: %w", condition, err)
	}
	return result.ToBoolean(), nil
}

// Eval evaluates a logic-node expression and returns its value as a Go
// native type (string, float64, bool, map, slice).
func Eval(expression string, vars map[string]any) (any, error) {
	vm := goja.New()
	for k, v := range vars {
		if err := vm.Set(k, v); err != nil {
			return nil, fmt.Errorf("binding variable %q: %w", k, err)
		}
	}
	result, err := vm.RunString(expression)
	if err != nil {
		return nil, fmt.Errorf("evaluating expression %q: %w", expression, err)
	}
	return result.Export(), nil
}

// Render substitutes {{name}} placeholders with the current variable
// values. Unresolved placeholders render as the empty string; rendering
// never fails.
func Render(template string, vars map[string]any) string {
	if !strings.Contains(template, "{{") {
		return template
	}
	return placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		v, ok := lookup(vars, name)
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprintf("%v", v)
	})
}

// lookup resolves dotted paths ("caller.name") through nested maps.
func lookup(vars map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = vars
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
