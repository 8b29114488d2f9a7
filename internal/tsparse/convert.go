package tsparse

import (
	"math"

	"fortio.org/safecast"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"tslint/internal/ast"
)

// converter maps the concrete tree-sitter tree onto ast kinds.
// Grammar nodes without a dedicated kind become KindOther so that
// every named node keeps a place in the tree.
type converter struct {
	src []byte
	b   *ast.Builder
}

func offset(v uint) uint32 {
	o, err := safecast.Conv[uint32](v)
	if err != nil {
		return math.MaxUint32
	}
	return o
}

func (c *converter) node(kind ast.Kind, n *sitter.Node) ast.NodeID {
	return c.b.New(kind, offset(n.StartByte()), offset(n.EndByte()))
}

func isSkipped(n *sitter.Node) bool {
	switch n.Kind() {
	case "comment", "html_comment":
		return true
	}
	return false
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || isSkipped(child) {
			continue
		}
		out = append(out, child)
	}
	return out
}

func firstNamed(n *sitter.Node) *sitter.Node {
	kids := namedChildren(n)
	if len(kids) == 0 {
		return nil
	}
	return kids[0]
}

func hasToken(n *sitter.Node, kinds ...string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		for _, k := range kinds {
			if child.Kind() == k {
				return true
			}
		}
	}
	return false
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(c.src)
}

func (c *converter) program(n *sitter.Node) ast.NodeID {
	id := c.node(ast.KindProgram, n)
	for _, child := range namedChildren(n) {
		c.b.Append(id, "body", c.convert(child))
	}
	return id
}

// other keeps an unmodelled grammar node with its named children.
func (c *converter) other(n *sitter.Node) ast.NodeID {
	id := c.node(ast.KindOther, n)
	c.b.SetOp(id, n.Kind())
	for _, child := range namedChildren(n) {
		c.b.Append(id, "children", c.convert(child))
	}
	return id
}

func (c *converter) leaf(kind ast.Kind, n *sitter.Node) ast.NodeID {
	return c.node(kind, n)
}

// opt converts n when present.
func (c *converter) opt(n *sitter.Node) ast.NodeID {
	if n == nil || isSkipped(n) {
		return ast.NoNodeID
	}
	return c.convert(n)
}

// wrap builds a kind with a single required child, falling back to Other.
func (c *converter) wrap(kind ast.Kind, field string, n, child *sitter.Node) ast.NodeID {
	if child == nil {
		return c.other(n)
	}
	id := c.node(kind, n)
	c.b.Set(id, field, c.convert(child))
	return id
}

func (c *converter) convert(n *sitter.Node) ast.NodeID {
	switch n.Kind() {
	// leaves
	case "identifier", "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		return c.leaf(ast.KindIdentifier, n)
	case "property_identifier", "private_property_identifier":
		return c.leaf(ast.KindPropertyIdentifier, n)
	case "number":
		return c.leaf(ast.KindNumber, n)
	case "string":
		return c.leaf(ast.KindString, n)
	case "regex":
		return c.leaf(ast.KindRegex, n)
	case "true":
		return c.leaf(ast.KindTrue, n)
	case "false":
		return c.leaf(ast.KindFalse, n)
	case "null":
		return c.leaf(ast.KindNull, n)
	case "undefined":
		return c.leaf(ast.KindUndefined, n)
	case "this":
		return c.leaf(ast.KindThis, n)
	case "super":
		return c.leaf(ast.KindSuper, n)
	case "predefined_type":
		return c.leaf(ast.KindPredefinedType, n)
	case "type_identifier":
		return c.leaf(ast.KindTypeIdentifier, n)

	// statements
	case "expression_statement":
		return c.wrap(ast.KindExpressionStatement, "expression", n, firstNamed(n))
	case "lexical_declaration", "variable_declaration":
		return c.declaration(n)
	case "variable_declarator":
		return c.declarator(n)
	case "function_declaration":
		return c.function(ast.KindFunctionDeclaration, n)
	case "class_declaration":
		return c.class(ast.KindClassDeclaration, n)
	case "formal_parameters":
		id := c.node(ast.KindFormalParameters, n)
		for _, p := range namedChildren(n) {
			c.b.Append(id, "params", c.convert(p))
		}
		return id
	case "required_parameter", "optional_parameter":
		return c.parameter(n)
	case "type_annotation":
		return c.wrap(ast.KindTypeAnnotation, "type", n, firstNamed(n))
	case "statement_block":
		id := c.node(ast.KindStatementBlock, n)
		for _, s := range namedChildren(n) {
			c.b.Append(id, "body", c.convert(s))
		}
		return id
	case "return_statement":
		id := c.node(ast.KindReturnStatement, n)
		c.b.Set(id, "value", c.opt(firstNamed(n)))
		return id
	case "if_statement":
		return c.ifStatement(n)
	case "else_clause":
		return c.wrap(ast.KindElseClause, "body", n, firstNamed(n))
	case "import_statement":
		return c.importStatement(n)
	case "export_statement":
		return c.exportStatement(n)

	// expressions
	case "template_string":
		return c.template(n)
	case "template_substitution":
		return c.wrap(ast.KindTemplateSubstitution, "expression", n, firstNamed(n))
	case "parenthesized_expression":
		return c.wrap(ast.KindParenthesizedExpression, "expression", n, firstNamed(n))
	case "non_null_expression":
		return c.wrap(ast.KindNonNullExpression, "expression", n, firstNamed(n))
	case "await_expression":
		return c.wrap(ast.KindAwaitExpression, "expression", n, firstNamed(n))
	case "unary_expression":
		return c.unary(n)
	case "update_expression":
		return c.update(n)
	case "binary_expression", "augmented_assignment_expression", "assignment_expression":
		return c.binary(n)
	case "member_expression":
		return c.access(ast.KindMemberExpression, "property", ".", n)
	case "subscript_expression":
		return c.access(ast.KindSubscriptExpression, "index", "", n)
	case "call_expression":
		return c.call(n)
	case "arguments", "type_arguments":
		kind := ast.KindArguments
		if n.Kind() == "type_arguments" {
			kind = ast.KindTypeArguments
		}
		id := c.node(kind, n)
		for _, arg := range namedChildren(n) {
			c.b.Append(id, "arguments", c.convert(arg))
		}
		return id
	case "new_expression":
		return c.newExpression(n)
	case "array":
		id := c.node(ast.KindArrayExpression, n)
		for _, el := range namedChildren(n) {
			c.b.Append(id, "elements", c.convert(el))
		}
		return id
	case "object":
		id := c.node(ast.KindObjectExpression, n)
		for _, prop := range namedChildren(n) {
			c.b.Append(id, "properties", c.convert(prop))
		}
		return id
	case "pair":
		key, value := n.ChildByFieldName("key"), n.ChildByFieldName("value")
		if key == nil || value == nil {
			return c.other(n)
		}
		id := c.node(ast.KindPair, n)
		c.b.Set(id, "key", c.convert(key))
		c.b.Set(id, "value", c.convert(value))
		return id
	case "spread_element":
		return c.wrap(ast.KindSpreadElement, "argument", n, firstNamed(n))
	case "arrow_function":
		return c.arrow(n)
	case "function_expression", "function":
		return c.function(ast.KindFunctionExpression, n)
	case "class":
		return c.class(ast.KindClassExpression, n)
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		id := c.node(ast.KindJSXElement, n)
		for _, child := range namedChildren(n) {
			c.b.Append(id, "children", c.convert(child))
		}
		return id
	case "ternary_expression":
		return c.ternary(n)
	case "as_expression", "satisfies_expression", "type_assertion":
		return c.asExpression(n)

	// types
	case "literal_type":
		return c.wrap(ast.KindLiteralType, "value", n, firstNamed(n))
	case "union_type":
		id := c.node(ast.KindUnionType, n)
		for _, member := range c.unionMembers(n, nil) {
			c.b.Append(id, "types", c.convert(member))
		}
		return id
	case "array_type":
		return c.wrap(ast.KindArrayType, "element", n, firstNamed(n))
	}
	return c.other(n)
}

func (c *converter) declaration(n *sitter.Node) ast.NodeID {
	id := c.node(ast.KindLexicalDeclaration, n)
	op := "var"
	if kind := n.ChildByFieldName("kind"); kind != nil {
		op = c.text(kind)
	} else if n.Kind() == "lexical_declaration" && n.ChildCount() > 0 {
		op = c.text(n.Child(0))
	}
	c.b.SetOp(id, op)
	for _, d := range namedChildren(n) {
		c.b.Append(id, "declarators", c.convert(d))
	}
	return id
}

func (c *converter) declarator(n *sitter.Node) ast.NodeID {
	name := n.ChildByFieldName("name")
	if name == nil {
		return c.other(n)
	}
	id := c.node(ast.KindVariableDeclarator, n)
	c.b.Set(id, "name", c.convert(name))
	c.b.Set(id, "type", c.opt(n.ChildByFieldName("type")))
	c.b.Set(id, "value", c.opt(n.ChildByFieldName("value")))
	return id
}

func (c *converter) function(kind ast.Kind, n *sitter.Node) ast.NodeID {
	name := n.ChildByFieldName("name")
	params := n.ChildByFieldName("parameters")
	body := n.ChildByFieldName("body")
	if params == nil || body == nil || (kind == ast.KindFunctionDeclaration && name == nil) {
		return c.other(n)
	}
	id := c.node(kind, n)
	if async := hasToken(n, "async"); async {
		c.b.SetOp(id, "async")
	}
	c.b.Set(id, "name", c.opt(name))
	c.b.Set(id, "parameters", c.convert(params))
	c.b.Set(id, "returnType", c.opt(n.ChildByFieldName("return_type")))
	c.b.Set(id, "body", c.convert(body))
	return id
}

func (c *converter) class(kind ast.Kind, n *sitter.Node) ast.NodeID {
	name := n.ChildByFieldName("name")
	if kind == ast.KindClassDeclaration && name == nil {
		return c.other(n)
	}
	id := c.node(kind, n)
	c.b.Set(id, "name", c.opt(name))
	for _, member := range namedChildren(n.ChildByFieldName("body")) {
		c.b.Append(id, "body", c.convert(member))
	}
	return id
}

func (c *converter) parameter(n *sitter.Node) ast.NodeID {
	pattern := n.ChildByFieldName("pattern")
	if pattern == nil {
		return c.other(n)
	}
	id := c.node(ast.KindParameter, n)
	if n.Kind() == "optional_parameter" {
		c.b.SetOp(id, "?")
	}
	c.b.Set(id, "pattern", c.convert(pattern))
	c.b.Set(id, "type", c.opt(n.ChildByFieldName("type")))
	c.b.Set(id, "value", c.opt(n.ChildByFieldName("value")))
	return id
}

func (c *converter) ifStatement(n *sitter.Node) ast.NodeID {
	cond, cons := n.ChildByFieldName("condition"), n.ChildByFieldName("consequence")
	if cond == nil || cons == nil {
		return c.other(n)
	}
	id := c.node(ast.KindIfStatement, n)
	c.b.Set(id, "condition", c.convert(cond))
	c.b.Set(id, "consequence", c.convert(cons))
	c.b.Set(id, "alternative", c.opt(n.ChildByFieldName("alternative")))
	return id
}

func (c *converter) importStatement(n *sitter.Node) ast.NodeID {
	src := n.ChildByFieldName("source")
	if src == nil {
		return c.other(n)
	}
	id := c.node(ast.KindImportStatement, n)
	if hasToken(n, "type") {
		c.b.SetOp(id, "type")
	}
	for _, child := range namedChildren(n) {
		if child.Kind() == "import_clause" {
			c.b.Set(id, "clause", c.importClause(child))
			break
		}
	}
	c.b.Set(id, "source", c.convert(src))
	return id
}

func (c *converter) importClause(n *sitter.Node) ast.NodeID {
	id := c.node(ast.KindImportClause, n)
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "namespace_import":
			c.b.Append(id, "bindings", c.wrap(ast.KindNamespaceImport, "name", child, firstNamed(child)))
		case "named_imports":
			for _, spec := range namedChildren(child) {
				c.b.Append(id, "bindings", c.specifier(ast.KindImportSpecifier, spec))
			}
		default:
			c.b.Append(id, "bindings", c.convert(child))
		}
	}
	return id
}

func (c *converter) specifier(kind ast.Kind, n *sitter.Node) ast.NodeID {
	name := n.ChildByFieldName("name")
	if name == nil {
		return c.other(n)
	}
	id := c.node(kind, n)
	c.b.Set(id, "name", c.convert(name))
	c.b.Set(id, "alias", c.opt(n.ChildByFieldName("alias")))
	return id
}

func (c *converter) exportStatement(n *sitter.Node) ast.NodeID {
	id := c.node(ast.KindExportStatement, n)
	if hasToken(n, "default") {
		c.b.SetOp(id, "default")
	}
	c.b.Set(id, "declaration", c.opt(n.ChildByFieldName("declaration")))
	for _, child := range namedChildren(n) {
		if child.Kind() != "export_clause" {
			continue
		}
		clause := c.node(ast.KindExportClause, child)
		for _, spec := range namedChildren(child) {
			c.b.Append(clause, "specifiers", c.specifier(ast.KindExportSpecifier, spec))
		}
		c.b.Set(id, "clause", clause)
		break
	}
	c.b.Set(id, "value", c.opt(n.ChildByFieldName("value")))
	c.b.Set(id, "source", c.opt(n.ChildByFieldName("source")))
	return id
}

// template splits a template literal into text chunks and substitutions.
func (c *converter) template(n *sitter.Node) ast.NodeID {
	id := c.node(ast.KindTemplateString, n)
	start, end := offset(n.StartByte()), offset(n.EndByte())
	cursor := start + 1 // после открывающего `
	closing := end
	if end > start+1 {
		closing = end - 1
	}
	chunk := func(from, to uint32) {
		if to > from {
			c.b.Append(id, "parts", c.b.New(ast.KindTemplateChunk, from, to))
		}
	}
	for _, child := range namedChildren(n) {
		if child.Kind() != "template_substitution" {
			continue
		}
		chunk(cursor, offset(child.StartByte()))
		c.b.Append(id, "parts", c.convert(child))
		cursor = offset(child.EndByte())
	}
	chunk(cursor, closing)
	return id
}

func (c *converter) unary(n *sitter.Node) ast.NodeID {
	arg := n.ChildByFieldName("argument")
	if arg == nil {
		return c.other(n)
	}
	id := c.node(ast.KindUnaryExpression, n)
	c.b.SetOp(id, c.text(n.ChildByFieldName("operator")))
	c.b.Set(id, "argument", c.convert(arg))
	return id
}

func (c *converter) update(n *sitter.Node) ast.NodeID {
	arg, op := n.ChildByFieldName("argument"), n.ChildByFieldName("operator")
	if arg == nil || op == nil {
		return c.other(n)
	}
	id := c.node(ast.KindUpdateExpression, n)
	if op.StartByte() < arg.StartByte() {
		c.b.SetOp(id, c.text(op)+"x")
	} else {
		c.b.SetOp(id, "x"+c.text(op))
	}
	c.b.Set(id, "argument", c.convert(arg))
	return id
}

func (c *converter) binary(n *sitter.Node) ast.NodeID {
	left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
	if left == nil || right == nil {
		return c.other(n)
	}
	kind := ast.KindBinaryExpression
	op := "="
	if n.Kind() != "assignment_expression" {
		op = c.text(n.ChildByFieldName("operator"))
	}
	if n.Kind() != "binary_expression" {
		kind = ast.KindAssignmentExpression
	}
	id := c.node(kind, n)
	c.b.SetOp(id, op)
	c.b.Set(id, "left", c.convert(left))
	c.b.Set(id, "right", c.convert(right))
	return id
}

func (c *converter) access(kind ast.Kind, keyField, plainOp string, n *sitter.Node) ast.NodeID {
	object, key := n.ChildByFieldName("object"), n.ChildByFieldName(keyField)
	if object == nil || key == nil {
		return c.other(n)
	}
	id := c.node(kind, n)
	if hasToken(n, "optional_chain", "?.") {
		c.b.SetOp(id, "?.")
	} else {
		c.b.SetOp(id, plainOp)
	}
	c.b.Set(id, "object", c.convert(object))
	c.b.Set(id, keyField, c.convert(key))
	return id
}

func (c *converter) call(n *sitter.Node) ast.NodeID {
	fn, args := n.ChildByFieldName("function"), n.ChildByFieldName("arguments")
	if fn == nil || args == nil || args.Kind() != "arguments" {
		// tagged templates and friends
		return c.other(n)
	}
	id := c.node(ast.KindCallExpression, n)
	if hasToken(n, "optional_chain", "?.") {
		c.b.SetOp(id, "?.")
	}
	c.b.Set(id, "function", c.convert(fn))
	c.b.Set(id, "typeArguments", c.opt(n.ChildByFieldName("type_arguments")))
	c.b.Set(id, "arguments", c.convert(args))
	return id
}

func (c *converter) newExpression(n *sitter.Node) ast.NodeID {
	ctor := n.ChildByFieldName("constructor")
	if ctor == nil {
		return c.other(n)
	}
	id := c.node(ast.KindNewExpression, n)
	c.b.Set(id, "constructor", c.convert(ctor))
	c.b.Set(id, "typeArguments", c.opt(n.ChildByFieldName("type_arguments")))
	c.b.Set(id, "arguments", c.opt(n.ChildByFieldName("arguments")))
	return id
}

func (c *converter) arrow(n *sitter.Node) ast.NodeID {
	body := n.ChildByFieldName("body")
	params := n.ChildByFieldName("parameters")
	single := n.ChildByFieldName("parameter")
	if body == nil || (params == nil && single == nil) {
		return c.other(n)
	}
	id := c.node(ast.KindArrowFunction, n)
	if hasToken(n, "async") {
		c.b.SetOp(id, "async")
	}
	if params != nil {
		c.b.Set(id, "parameters", c.convert(params))
	} else {
		// x => ... : синтезируем список из одного параметра
		list := c.node(ast.KindFormalParameters, single)
		param := c.node(ast.KindParameter, single)
		c.b.Set(param, "pattern", c.convert(single))
		c.b.Append(list, "params", param)
		c.b.Set(id, "parameters", list)
	}
	c.b.Set(id, "returnType", c.opt(n.ChildByFieldName("return_type")))
	c.b.Set(id, "body", c.convert(body))
	return id
}

func (c *converter) ternary(n *sitter.Node) ast.NodeID {
	cond := n.ChildByFieldName("condition")
	cons := n.ChildByFieldName("consequence")
	alt := n.ChildByFieldName("alternative")
	if cond == nil || cons == nil || alt == nil {
		return c.other(n)
	}
	id := c.node(ast.KindTernaryExpression, n)
	c.b.Set(id, "condition", c.convert(cond))
	c.b.Set(id, "consequence", c.convert(cons))
	c.b.Set(id, "alternative", c.convert(alt))
	return id
}

func (c *converter) asExpression(n *sitter.Node) ast.NodeID {
	kids := namedChildren(n)
	if len(kids) != 2 {
		return c.other(n)
	}
	expr, typ := kids[0], kids[1]
	op := "as"
	switch n.Kind() {
	case "satisfies_expression":
		op = "satisfies"
	case "type_assertion":
		// <T>expr
		op = "<>"
		expr, typ = kids[1], firstNamed(kids[0])
		if typ == nil {
			return c.other(n)
		}
	}
	id := c.node(ast.KindAsExpression, n)
	c.b.SetOp(id, op)
	c.b.Set(id, "expression", c.convert(expr))
	c.b.Set(id, "type", c.convert(typ))
	return id
}

// unionMembers flattens nested union types (A | B | C parses left-nested).
func (c *converter) unionMembers(n *sitter.Node, acc []*sitter.Node) []*sitter.Node {
	for _, child := range namedChildren(n) {
		if child.Kind() == "union_type" {
			acc = c.unionMembers(child, acc)
			continue
		}
		acc = append(acc, child)
	}
	return acc
}
