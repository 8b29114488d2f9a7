package sema

import (
	"tslint/internal/ast"
	"tslint/internal/types"
)

// falsyParts are the categories that can survive the left side of &&.
const falsyParts = types.Nullish | types.Boolean | types.Number | types.String | types.BigInt

func (p *Program) typeOf(n ast.Node, seen visiting) types.Type {
	switch n.Kind() {
	case ast.KindIdentifier:
		switch n.Text() {
		case "undefined":
			return types.Undefined
		case "NaN", "Infinity":
			return types.Number
		}
		decl, ok := p.resolve(n)
		if !ok {
			return types.Any
		}
		return p.declType(decl, seen)
	case ast.KindVariableDeclarator, ast.KindParameter, ast.KindFunctionDeclaration, ast.KindClassDeclaration:
		return p.declType(n, seen)

	case ast.KindNumber:
		return types.Number
	case ast.KindString, ast.KindTemplateString:
		return types.String
	case ast.KindTrue, ast.KindFalse:
		return types.Boolean
	case ast.KindNull:
		return types.Null
	case ast.KindUndefined:
		return types.Undefined
	case ast.KindRegex:
		return types.Object

	case ast.KindParenthesizedExpression, ast.KindAwaitExpression:
		return p.typeOf(n.Child("expression"), seen)
	case ast.KindNonNullExpression:
		return p.typeOf(n.Child("expression"), seen).NonNullable()
	case ast.KindUnaryExpression:
		switch n.Op() {
		case "!", "delete":
			return types.Boolean
		case "typeof":
			return types.String
		case "void":
			return types.Undefined
		}
		return types.Number
	case ast.KindUpdateExpression:
		return types.Number
	case ast.KindBinaryExpression:
		return p.binary(n, seen)
	case ast.KindAssignmentExpression:
		return p.typeOf(n.Child("right"), seen)
	case ast.KindTernaryExpression:
		return p.typeOf(n.Child("consequence"), seen).Union(p.typeOf(n.Child("alternative"), seen))
	case ast.KindAsExpression:
		if n.Op() == "satisfies" {
			return p.typeOf(n.Child("expression"), seen)
		}
		return typeFromNode(n.Child("type"))

	case ast.KindArrayExpression, ast.KindObjectExpression, ast.KindArrowFunction,
		ast.KindFunctionExpression, ast.KindClassExpression, ast.KindNewExpression, ast.KindJSXElement:
		return types.Object

	case ast.KindTypeAnnotation, ast.KindPredefinedType, ast.KindLiteralType, ast.KindUnionType,
		ast.KindArrayType, ast.KindTypeIdentifier:
		return typeFromNode(n)
	}
	// member access, calls, this, and everything the model does not track
	return types.Any
}

func (p *Program) binary(n ast.Node, seen visiting) types.Type {
	left := p.typeOf(n.Child("left"), seen)
	right := p.typeOf(n.Child("right"), seen)
	switch n.Op() {
	case "+":
		switch {
		case left.Opaque() || right.Opaque():
			return types.Any
		case left.Is(types.String) || right.Is(types.String):
			return types.String
		case left.Is(types.Number) && right.Is(types.Number):
			return types.Number
		}
		return types.Number | types.String
	case "-", "*", "/", "%", "**", "<<", ">>", ">>>", "&", "|", "^":
		return types.Number
	case "==", "!=", "===", "!==", "<", "<=", ">", ">=", "in", "instanceof":
		return types.Boolean
	case "&&":
		if left.Opaque() {
			return left
		}
		return right.Union(left & falsyParts)
	case "||", "??":
		return left.NonNullable().Union(right)
	}
	return types.Any
}

// typeFromNode converts a type annotation into a Type.
func typeFromNode(n ast.Node) types.Type {
	switch n.Kind() {
	case ast.KindTypeAnnotation:
		return typeFromNode(n.Child("type"))
	case ast.KindPredefinedType:
		if t, ok := types.FromKeyword(n.Text()); ok {
			return t
		}
		return types.Any
	case ast.KindLiteralType:
		switch v := n.Child("value"); v.Kind() {
		case ast.KindNumber, ast.KindUnaryExpression:
			return types.Number
		case ast.KindString:
			return types.String
		case ast.KindTrue, ast.KindFalse:
			return types.Boolean
		case ast.KindNull:
			return types.Null
		case ast.KindUndefined:
			return types.Undefined
		}
		return types.Any
	case ast.KindUnionType:
		t := types.Never
		for _, member := range n.List("types") {
			t = t.Union(typeFromNode(member))
		}
		return t
	case ast.KindArrayType:
		return types.Object
	case ast.KindOther:
		switch n.Op() {
		case "object_type", "function_type", "tuple_type", "constructor_type", "readonly_type":
			return types.Object
		case "parenthesized_type":
			if kids := n.List("children"); len(kids) == 1 {
				return typeFromNode(kids[0])
			}
		}
	}
	// type references are not resolved
	return types.Any
}
