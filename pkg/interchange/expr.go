package interchange

import "github.com/riverline-labs/tenor/pkg/ast"

var exprKindNames = map[ast.ExprKind]string{
	ast.ExprLiteral:        "literal",
	ast.ExprFactRef:        "fact_ref",
	ast.ExprVar:            "var",
	ast.ExprFieldPath:      "field_path",
	ast.ExprNot:            "not",
	ast.ExprAnd:            "and",
	ast.ExprOr:             "or",
	ast.ExprForAll:         "forall",
	ast.ExprExists:         "exists",
	ast.ExprCompare:        "compare",
	ast.ExprVerdictPresent: "verdict_present",
	ast.ExprProduct:        "product",
}

// Expr serializes a type-checked expression tree to its canonical
// JSON shape, tagging every node with its kind and carrying the
// promoted `comparison_type` spec.md §4.5 requires on Compare nodes.
func Expr(e ast.Expr) Obj {
	kind := exprKindNames[e.Kind]
	fields := Obj{F("kind", kind), F("type", Type(e.Type))}

	switch e.Kind {
	case ast.ExprLiteral:
		fields = append(fields, F("value", Literal(e.Literal)))
	case ast.ExprFactRef:
		fields = append(fields, F("fact", e.FactRef))
	case ast.ExprVar:
		fields = append(fields, F("var", e.Var))
	case ast.ExprFieldPath:
		fields = append(fields, F("base", Expr(*e.FieldBase)), F("field", e.FieldName))
	case ast.ExprNot:
		fields = append(fields, F("operand", Expr(*e.Operand)))
	case ast.ExprAnd, ast.ExprOr:
		fields = append(fields, F("left", Expr(*e.Left)), F("right", Expr(*e.Right)))
	case ast.ExprForAll, ast.ExprExists:
		fields = append(fields,
			F("var", e.QuantVar),
			F("domain", Expr(*e.QuantDomain)),
			F("body", Expr(*e.QuantBody)),
		)
	case ast.ExprCompare:
		fields = append(fields, F("op", e.CompareOp), F("left", Expr(*e.Left)), F("right", Expr(*e.Right)))
		if e.ComparisonType != nil {
			fields = append(fields, F("comparison_type", Type(*e.ComparisonType)))
		}
	case ast.ExprVerdictPresent:
		fields = append(fields, F("verdict_type", e.VerdictType))
	case ast.ExprProduct:
		fields = append(fields, F("left", Expr(*e.Left)), F("right", Expr(*e.Right)))
	}

	return fields
}
