package filter

import (
	"fmt"
	"time"

	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "role = ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// SQL translates the filter to a WHERE fragment. Timestamp fields are bound
// as Unix milliseconds to match how rows store them. An empty filter yields
// an empty condition.
func (f *Filter) SQL() (SQLCondition, error) {
	if f.Empty() {
		return SQLCondition{}, nil
	}
	return f.schema.translateExpr(f.expr)
}

func (s *Schema) translateExpr(e *expr.Expr) (SQLCondition, error) {
	call, ok := e.GetExprKind().(*expr.Expr_CallExpr)
	if !ok {
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", e.GetExprKind())
	}
	args := call.CallExpr.Args
	switch call.CallExpr.Function {
	case "_&&_", "AND":
		return s.translateJoin(args, "AND")
	case "_||_", "OR":
		return s.translateJoin(args, "OR")
	case "NOT":
		if len(args) != 1 {
			return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := s.translateExpr(args[0])
		if err != nil {
			return SQLCondition{}, err
		}
		return SQLCondition{Clause: "NOT (" + inner.Clause + ")", Params: inner.Params}, nil
	}
	op, ok := operator(call.CallExpr.Function)
	if !ok {
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.CallExpr.Function)
	}
	cmp, err := s.comparison(args, op)
	if err != nil {
		return SQLCondition{}, err
	}
	value := cmp.value
	if t, ok := value.(time.Time); ok {
		value = t.UnixMilli()
	}
	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", cmp.field.Column, cmp.op),
		Params: []any{value},
	}, nil
}

func (s *Schema) translateJoin(args []*expr.Expr, joiner string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("%s requires 2 arguments", joiner)
	}
	left, err := s.translateExpr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	right, err := s.translateExpr(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, joiner, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}
