// Copyright 2025 The FlowPilot Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package debug

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/flowpilot/flowpilot/pkg/errors"
)

// Evaluator evaluates condition breakpoint expressions against a
// variable snapshot. Expressions run inside the expr VM, which has no
// access to the filesystem, the process, or imports; anything outside
// the expression grammar fails to compile and the breakpoint is treated
// as not matched.
//
// Compiled programs are cached for repeated evaluation of the same
// expression across steps.
type Evaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

// NewEvaluator creates a new condition evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*vm.Program),
	}
}

// Evaluate evaluates an expression against the given environment of
// variable name to value. The expression must produce a boolean.
func (e *Evaluator) Evaluate(expression string, env map[string]interface{}) (bool, error) {
	if strings.TrimSpace(expression) == "" {
		return false, &errors.ValidationError{
			Field:      "condition",
			Message:    "condition expression is empty",
			Suggestion: "provide a boolean expression such as 'counter > 10'",
		}
	}

	program, err := e.compile(expression)
	if err != nil {
		return false, &errors.EvaluationError{
			Expression: expression,
			Message:    "compile failed",
			Cause:      err,
		}
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, &errors.EvaluationError{
			Expression: expression,
			Message:    "evaluation failed",
			Cause:      err,
		}
	}

	matched, ok := result.(bool)
	if !ok {
		return false, &errors.EvaluationError{
			Expression: expression,
			Message:    fmt.Sprintf("expression must return boolean, got %T", result),
		}
	}

	return matched, nil
}

// compile compiles an expression and caches the result.
func (e *Evaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	prog, err := expr.Compile(expression,
		// Variable names are only known at runtime
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = prog
	e.mu.Unlock()

	return prog, nil
}

// ClearCache clears the compiled expression cache.
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	e.cache = make(map[string]*vm.Program)
	e.mu.Unlock()
}

// CompareOp is a comparison operator for variable breakpoints.
type CompareOp string

const (
	OpEqual          CompareOp = "=="
	OpNotEqual       CompareOp = "!="
	OpGreater        CompareOp = ">"
	OpLess           CompareOp = "<"
	OpGreaterOrEqual CompareOp = ">="
	OpLessOrEqual    CompareOp = "<="
	OpIn             CompareOp = "in"
	OpNotIn          CompareOp = "not in"
)

// IsValid reports whether op is one of the supported operators.
func (op CompareOp) IsValid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterOrEqual, OpLessOrEqual, OpIn, OpNotIn:
		return true
	}
	return false
}

// Compare applies op between the current value of a variable and the
// breakpoint's target value. Ordering operators coerce both sides to
// float64; "in"/"not in" check membership of current within target
// (substring for strings, element for slices and arrays, key for maps).
func Compare(current interface{}, op CompareOp, target interface{}) (bool, error) {
	switch op {
	case OpEqual:
		return looseEqual(current, target), nil
	case OpNotEqual:
		return !looseEqual(current, target), nil
	case OpGreater, OpLess, OpGreaterOrEqual, OpLessOrEqual:
		a, aok := toFloat(current)
		b, bok := toFloat(target)
		if !aok || !bok {
			return false, &errors.ValidationError{
				Field:   "comparison_operator",
				Message: fmt.Sprintf("operator %q requires numeric operands, got %T and %T", op, current, target),
			}
		}
		switch op {
		case OpGreater:
			return a > b, nil
		case OpLess:
			return a < b, nil
		case OpGreaterOrEqual:
			return a >= b, nil
		default:
			return a <= b, nil
		}
	case OpIn:
		return contains(target, current)
	case OpNotIn:
		ok, err := contains(target, current)
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return false, &errors.ValidationError{
			Field:      "comparison_operator",
			Message:    fmt.Sprintf("unknown operator %q", op),
			Suggestion: "use one of ==, !=, >, <, >=, <=, in, not in",
		}
	}
}

// looseEqual compares with numeric coercion so 5, 5.0 and "5" match.
func looseEqual(a, b interface{}) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	return aok && bok && as == bs
}

// toFloat coerces numeric types and numeric strings to float64.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// contains checks whether needle is contained in haystack: substring for
// strings, element for slices and arrays, key for maps.
func contains(haystack, needle interface{}) (bool, error) {
	if haystack == nil {
		return false, nil
	}

	v := reflect.ValueOf(haystack)

	switch v.Kind() {
	case reflect.String:
		str := v.String()
		sub, ok := needle.(string)
		if !ok {
			sub = fmt.Sprintf("%v", needle)
		}
		return strings.Contains(str, sub), nil

	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if looseEqual(v.Index(i).Interface(), needle) {
				return true, nil
			}
		}
		return false, nil

	case reflect.Map:
		for _, key := range v.MapKeys() {
			if looseEqual(key.Interface(), needle) {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, &errors.ValidationError{
			Field:   "variable_value",
			Message: fmt.Sprintf("membership check unsupported for %T", haystack),
		}
	}
}
