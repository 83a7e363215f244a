package filter

import (
	"fmt"
	"strings"
	"time"

	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Resolver returns a value for a field name. String fields resolve to
// string, int fields to any integer type, timestamps to time.Time.
type Resolver func(name string) (any, bool)

// Match evaluates the filter against one record.
func (f *Filter) Match(resolve Resolver) (bool, error) {
	if f.Empty() {
		return true, nil
	}
	return f.schema.evaluate(f.expr, resolve)
}

func (s *Schema) evaluate(e *expr.Expr, resolve Resolver) (bool, error) {
	call, ok := e.GetExprKind().(*expr.Expr_CallExpr)
	if !ok {
		return false, fmt.Errorf("unsupported expression type: %T", e.GetExprKind())
	}
	args := call.CallExpr.Args
	switch call.CallExpr.Function {
	case "_&&_", "AND":
		if len(args) != 2 {
			return false, fmt.Errorf("AND requires 2 arguments")
		}
		left, err := s.evaluate(args[0], resolve)
		if err != nil || !left {
			return left, err
		}
		return s.evaluate(args[1], resolve)
	case "_||_", "OR":
		if len(args) != 2 {
			return false, fmt.Errorf("OR requires 2 arguments")
		}
		left, err := s.evaluate(args[0], resolve)
		if err != nil || left {
			return left, err
		}
		return s.evaluate(args[1], resolve)
	case "NOT":
		if len(args) != 1 {
			return false, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := s.evaluate(args[0], resolve)
		return !inner, err
	}

	op, ok := operator(call.CallExpr.Function)
	if !ok {
		return false, fmt.Errorf("unsupported function: %s", call.CallExpr.Function)
	}
	cmp, err := s.comparison(args, op)
	if err != nil {
		return false, err
	}
	left, ok := resolve(cmp.field.Name)
	if !ok {
		return false, fmt.Errorf("unresolved field: %s", cmp.field.Name)
	}
	order, err := compareValues(left, cmp.value)
	if err != nil {
		return false, fmt.Errorf("field %s: %w", cmp.field.Name, err)
	}
	switch cmp.op {
	case "=":
		return order == 0, nil
	case "!=":
		return order != 0, nil
	case "<":
		return order < 0, nil
	case "<=":
		return order <= 0, nil
	case ">":
		return order > 0, nil
	default:
		return order >= 0, nil
	}
}

func compareValues(left, right any) (int, error) {
	switch r := right.(type) {
	case string:
		l, ok := left.(string)
		if !ok {
			return 0, fmt.Errorf("type mismatch: %T vs string", left)
		}
		return strings.Compare(l, r), nil
	case int64:
		l, ok := toInt64(left)
		if !ok {
			return 0, fmt.Errorf("type mismatch: %T vs int", left)
		}
		switch {
		case l < r:
			return -1, nil
		case l > r:
			return 1, nil
		default:
			return 0, nil
		}
	case time.Time:
		l, ok := left.(time.Time)
		if !ok {
			return 0, fmt.Errorf("type mismatch: %T vs timestamp", left)
		}
		return l.Compare(r), nil
	default:
		return 0, fmt.Errorf("unsupported value type: %T", right)
	}
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint32:
		return int64(v), true
	default:
		return 0, false
	}
}
