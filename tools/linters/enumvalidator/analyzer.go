package enumvalidator

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "enumvalidator",
	Doc:  "checks that enum fields only use defined constants, not string literals",
	Run:  run,
}

// enumTypes are the string enums whose values travel over the wire or into
// logs; a typo in a literal would silently create a new kind.
var enumTypes = map[string]bool{
	"Source":       true,
	"OutcomeKind":  true,
	"Role":         true,
	"AnalysisMode": true,
}

func run(pass *analysis.Pass) (any, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			switch node := n.(type) {
			case *ast.AssignStmt:
				checkAssign(pass, node)
			case *ast.CompositeLit:
				checkCompositeLit(pass, node)
			}
			return true
		})
	}
	return nil, nil
}

func checkAssign(pass *analysis.Pass, assign *ast.AssignStmt) {
	for i, lhs := range assign.Lhs {
		if i >= len(assign.Rhs) {
			continue
		}
		sel, ok := lhs.(*ast.SelectorExpr)
		if !ok || !isEnum(pass.TypesInfo.TypeOf(sel)) {
			continue
		}
		if isStringLiteral(assign.Rhs[i]) {
			pass.Reportf(assign.Pos(),
				"enum field %s assigned string literal; use defined constant instead",
				sel.Sel.Name)
		}
	}
}

func checkCompositeLit(pass *analysis.Pass, lit *ast.CompositeLit) {
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		key, ok := kv.Key.(*ast.Ident)
		if !ok || !isEnum(pass.TypesInfo.TypeOf(kv.Value)) {
			continue
		}
		if isStringLiteral(kv.Value) {
			pass.Reportf(kv.Pos(),
				"enum field %s set to string literal; use defined constant instead",
				key.Name)
		}
	}
}

func isEnum(t types.Type) bool {
	if named, ok := t.(*types.Named); ok {
		return enumTypes[named.Obj().Name()]
	}
	return false
}

func isStringLiteral(expr ast.Expr) bool {
	lit, ok := expr.(*ast.BasicLit)
	return ok && lit.Kind == token.STRING
}
