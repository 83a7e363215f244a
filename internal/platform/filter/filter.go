// Package filter parses AIP-160 list filters against a declared field schema
// and either translates them to SQL or evaluates them in memory.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// FieldType describes a supported filter field type.
type FieldType string

const (
	FieldString    FieldType = "string"
	FieldInt       FieldType = "int"
	FieldTimestamp FieldType = "timestamp"
)

// Field declares one filterable field. Column is the SQL column the field
// maps to; it defaults to Name.
type Field struct {
	Name   string
	Type   FieldType
	Column string
}

// Schema is the set of fields a list endpoint accepts in its filter.
type Schema struct {
	fields map[string]Field
	decls  *filtering.Declarations
}

// NewSchema validates fields and builds the parser declarations.
func NewSchema(fields ...Field) (*Schema, error) {
	byName := make(map[string]Field, len(fields))
	opts := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return nil, fmt.Errorf("field name is required")
		}
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("duplicate field %s", name)
		}
		if field.Column == "" {
			field.Column = name
		}
		switch field.Type {
		case FieldString:
			opts = append(opts, filtering.DeclareIdent(name, filtering.TypeString))
		case FieldInt:
			opts = append(opts, filtering.DeclareIdent(name, filtering.TypeInt))
		case FieldTimestamp:
			opts = append(opts, filtering.DeclareIdent(name, filtering.TypeTimestamp))
		default:
			return nil, fmt.Errorf("unsupported field type for %s", name)
		}
		field.Name = name
		byName[name] = field
	}
	decls, err := filtering.NewDeclarations(opts...)
	if err != nil {
		return nil, fmt.Errorf("create declarations: %w", err)
	}
	return &Schema{fields: byName, decls: decls}, nil
}

// MustSchema is NewSchema for package-level schemas.
func MustSchema(fields ...Field) *Schema {
	schema, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return schema
}

// FieldNames lists the declared field names in sorted order.
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filter is a parsed filter bound to its schema. The zero value and nil
// match everything.
type Filter struct {
	schema *Schema
	expr   *expr.Expr
}

// Parse parses filterStr. An empty string yields a filter that matches all.
func (s *Schema) Parse(filterStr string) (*Filter, error) {
	if strings.TrimSpace(filterStr) == "" {
		return &Filter{schema: s}, nil
	}
	parsed, err := filtering.ParseFilterString(filterStr, s.decls)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}
	f := &Filter{schema: s, expr: parsed.CheckedExpr.Expr}
	// Translate once so unsupported constructs fail at parse time for both
	// backends.
	if _, err := f.SQL(); err != nil {
		return nil, err
	}
	return f, nil
}

// Empty reports whether the filter matches everything.
func (f *Filter) Empty() bool {
	return f == nil || f.expr == nil
}

type comparison struct {
	field Field
	op    string
	value any
}

func operator(function string) (string, bool) {
	switch function {
	case "_==_", "=":
		return "=", true
	case "_!=_", "!=":
		return "!=", true
	case "_<_", "<":
		return "<", true
	case "_<=_", "<=":
		return "<=", true
	case "_>_", ">":
		return ">", true
	case "_>=_", ">=":
		return ">=", true
	default:
		return "", false
	}
}

func (s *Schema) comparison(args []*expr.Expr, op string) (comparison, error) {
	if len(args) != 2 {
		return comparison{}, fmt.Errorf("comparison requires 2 arguments")
	}
	name, err := extractFieldName(args[0])
	if err != nil {
		return comparison{}, err
	}
	field, ok := s.fields[name]
	if !ok {
		return comparison{}, fmt.Errorf("unknown field: %s", name)
	}
	value, err := extractValue(args[1])
	if err != nil {
		return comparison{}, err
	}
	value, err = coerce(field, value)
	if err != nil {
		return comparison{}, err
	}
	return comparison{field: field, op: op, value: value}, nil
}

func coerce(field Field, value any) (any, error) {
	switch field.Type {
	case FieldString:
		if v, ok := value.(string); ok {
			return v, nil
		}
	case FieldInt:
		switch v := value.(type) {
		case int64:
			return v, nil
		case uint64:
			return int64(v), nil
		}
	case FieldTimestamp:
		if v, ok := value.(time.Time); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("field %s expects %s, got %T", field.Name, field.Type, value)
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == "timestamp" && len(kind.CallExpr.Args) == 1 {
			return extractTimestampValue(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}
	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return kind.Uint64Value, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

func extractTimestampValue(e *expr.Expr) (time.Time, error) {
	kind, ok := e.GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp argument must be a constant string")
	}
	str, ok := kind.ConstExpr.GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp argument must be a string")
	}
	t, err := time.Parse(time.RFC3339Nano, str.StringValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format: %s", str.StringValue)
	}
	return t.UTC(), nil
}
