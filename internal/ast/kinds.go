package ast

// Kind is the closed set of syntax node variants.
type Kind uint8

const (
	KindInvalid Kind = iota

	KindProgram
	KindOther // grammar node without a dedicated kind; grammar name kept in Op

	// statements
	KindExpressionStatement
	KindLexicalDeclaration // Op: const | let | var
	KindVariableDeclarator
	KindFunctionDeclaration
	KindClassDeclaration
	KindFormalParameters
	KindParameter // Op: "" | "?"
	KindTypeAnnotation
	KindStatementBlock
	KindReturnStatement
	KindIfStatement
	KindElseClause
	KindImportStatement
	KindImportClause
	KindNamespaceImport
	KindImportSpecifier
	KindExportStatement // Op: "" | "default"
	KindExportClause
	KindExportSpecifier

	// leaves
	KindIdentifier
	KindPropertyIdentifier
	KindNumber
	KindString
	KindRegex
	KindTemplateChunk
	KindTrue
	KindFalse
	KindNull
	KindUndefined
	KindThis
	KindSuper

	// expressions
	KindTemplateString
	KindTemplateSubstitution
	KindParenthesizedExpression
	KindNonNullExpression
	KindAwaitExpression
	KindUnaryExpression  // Op: operator
	KindUpdateExpression // Op: "++x" | "x++" | "--x" | "x--"
	KindBinaryExpression // Op: operator
	KindAssignmentExpression
	KindMemberExpression    // Op: "." | "?."
	KindSubscriptExpression // Op: "" | "?."
	KindCallExpression      // Op: "" | "?."
	KindArguments
	KindTypeArguments
	KindNewExpression
	KindArrayExpression
	KindObjectExpression
	KindPair
	KindSpreadElement
	KindArrowFunction
	KindFunctionExpression
	KindClassExpression
	KindJSXElement
	KindTernaryExpression
	KindAsExpression // Op: "as" | "satisfies" | "<>"

	// types
	KindPredefinedType
	KindTypeIdentifier
	KindLiteralType
	KindUnionType
	KindArrayType

	kindCount
)

// KindCount is the number of kinds, usable as an array bound.
const KindCount = int(kindCount)

// Shape describes how many nodes a field holds.
type Shape uint8

const (
	One  Shape = iota // exactly one node
	Opt               // zero or one node
	List              // ordered sequence
)

// FieldSpec declares one child field of a kind.
type FieldSpec struct {
	Name  string
	Shape Shape
}

// KindFlags classify kinds for consumers such as the comparator.
type KindFlags uint16

const (
	// FlagLiteral: leaf whose identity is its source text.
	FlagLiteral KindFlags = 1 << iota
	// FlagKeyword: leaf without payload.
	FlagKeyword
	// FlagFresh: evaluates to a new instance every time.
	FlagFresh
	// FlagTransparent: single-operand wrapper in field "expression".
	FlagTransparent
	FlagCallLike
	FlagMemberLike
	FlagExpression
	FlagType
	FlagStatement
)

// KindInfo is the catalogue entry of a kind.
type KindInfo struct {
	Name   string
	Fields []FieldSpec
	Flags  KindFlags
}

func f1(name string) FieldSpec { return FieldSpec{Name: name, Shape: One} }
func fo(name string) FieldSpec { return FieldSpec{Name: name, Shape: Opt} }
func fl(name string) FieldSpec { return FieldSpec{Name: name, Shape: List} }

const (
	exprLiteral = FlagExpression | FlagLiteral
	exprKeyword = FlagExpression | FlagKeyword
	exprFresh   = FlagExpression | FlagFresh
)

var catalogue = [kindCount]KindInfo{
	KindInvalid: {Name: "invalid"},
	KindProgram: {Name: "program", Fields: []FieldSpec{fl("body")}},
	KindOther:   {Name: "other", Fields: []FieldSpec{fl("children")}},

	KindExpressionStatement: {Name: "expression_statement", Fields: []FieldSpec{f1("expression")}, Flags: FlagStatement},
	KindLexicalDeclaration:  {Name: "lexical_declaration", Fields: []FieldSpec{fl("declarators")}, Flags: FlagStatement},
	KindVariableDeclarator:  {Name: "variable_declarator", Fields: []FieldSpec{f1("name"), fo("type"), fo("value")}},
	KindFunctionDeclaration: {
		Name:   "function_declaration",
		Fields: []FieldSpec{f1("name"), f1("parameters"), fo("returnType"), f1("body")},
		Flags:  FlagStatement,
	},
	KindClassDeclaration: {Name: "class_declaration", Fields: []FieldSpec{f1("name"), fl("body")}, Flags: FlagStatement},
	KindFormalParameters: {Name: "formal_parameters", Fields: []FieldSpec{fl("params")}},
	KindParameter:        {Name: "parameter", Fields: []FieldSpec{f1("pattern"), fo("type"), fo("value")}},
	KindTypeAnnotation:   {Name: "type_annotation", Fields: []FieldSpec{f1("type")}},
	KindStatementBlock:   {Name: "statement_block", Fields: []FieldSpec{fl("body")}, Flags: FlagStatement},
	KindReturnStatement:  {Name: "return_statement", Fields: []FieldSpec{fo("value")}, Flags: FlagStatement},
	KindIfStatement: {
		Name:   "if_statement",
		Fields: []FieldSpec{f1("condition"), f1("consequence"), fo("alternative")},
		Flags:  FlagStatement,
	},
	KindElseClause:      {Name: "else_clause", Fields: []FieldSpec{f1("body")}},
	KindImportStatement: {Name: "import_statement", Fields: []FieldSpec{fo("clause"), f1("source")}, Flags: FlagStatement},
	KindImportClause:    {Name: "import_clause", Fields: []FieldSpec{fl("bindings")}},
	KindNamespaceImport: {Name: "namespace_import", Fields: []FieldSpec{f1("name")}},
	KindImportSpecifier: {Name: "import_specifier", Fields: []FieldSpec{f1("name"), fo("alias")}},
	KindExportStatement: {
		Name:   "export_statement",
		Fields: []FieldSpec{fo("declaration"), fo("clause"), fo("value"), fo("source")},
		Flags:  FlagStatement,
	},
	KindExportClause:    {Name: "export_clause", Fields: []FieldSpec{fl("specifiers")}},
	KindExportSpecifier: {Name: "export_specifier", Fields: []FieldSpec{f1("name"), fo("alias")}},

	KindIdentifier:         {Name: "identifier", Flags: exprLiteral},
	KindPropertyIdentifier: {Name: "property_identifier", Flags: exprLiteral},
	KindNumber:             {Name: "number", Flags: exprLiteral},
	KindString:             {Name: "string", Flags: exprLiteral},
	KindRegex:              {Name: "regex", Flags: exprLiteral},
	KindTemplateChunk:      {Name: "template_chunk", Flags: FlagLiteral},
	KindTrue:               {Name: "true", Flags: exprKeyword},
	KindFalse:              {Name: "false", Flags: exprKeyword},
	KindNull:               {Name: "null", Flags: exprKeyword},
	KindUndefined:          {Name: "undefined", Flags: exprKeyword},
	KindThis:               {Name: "this", Flags: exprKeyword},
	KindSuper:              {Name: "super", Flags: exprKeyword},

	KindTemplateString:          {Name: "template_string", Fields: []FieldSpec{fl("parts")}, Flags: FlagExpression},
	KindTemplateSubstitution:    {Name: "template_substitution", Fields: []FieldSpec{f1("expression")}},
	KindParenthesizedExpression: {Name: "parenthesized_expression", Fields: []FieldSpec{f1("expression")}, Flags: FlagExpression | FlagTransparent},
	KindNonNullExpression:       {Name: "non_null_expression", Fields: []FieldSpec{f1("expression")}, Flags: FlagExpression | FlagTransparent},
	KindAwaitExpression:         {Name: "await_expression", Fields: []FieldSpec{f1("expression")}, Flags: FlagExpression | FlagTransparent},
	KindUnaryExpression:         {Name: "unary_expression", Fields: []FieldSpec{f1("argument")}, Flags: FlagExpression},
	KindUpdateExpression:        {Name: "update_expression", Fields: []FieldSpec{f1("argument")}, Flags: FlagExpression},
	KindBinaryExpression:        {Name: "binary_expression", Fields: []FieldSpec{f1("left"), f1("right")}, Flags: FlagExpression},
	KindAssignmentExpression:    {Name: "assignment_expression", Fields: []FieldSpec{f1("left"), f1("right")}, Flags: FlagExpression},
	KindMemberExpression: {
		Name:   "member_expression",
		Fields: []FieldSpec{f1("object"), f1("property")},
		Flags:  FlagExpression | FlagMemberLike,
	},
	KindSubscriptExpression: {
		Name:   "subscript_expression",
		Fields: []FieldSpec{f1("object"), f1("index")},
		Flags:  FlagExpression | FlagMemberLike,
	},
	KindCallExpression: {
		Name:   "call_expression",
		Fields: []FieldSpec{f1("function"), fo("typeArguments"), f1("arguments")},
		Flags:  FlagExpression | FlagCallLike,
	},
	KindArguments:     {Name: "arguments", Fields: []FieldSpec{fl("arguments")}},
	KindTypeArguments: {Name: "type_arguments", Fields: []FieldSpec{fl("arguments")}},
	KindNewExpression: {
		Name:   "new_expression",
		Fields: []FieldSpec{f1("constructor"), fo("typeArguments"), fo("arguments")},
		Flags:  exprFresh,
	},
	KindArrayExpression:  {Name: "array", Fields: []FieldSpec{fl("elements")}, Flags: exprFresh},
	KindObjectExpression: {Name: "object", Fields: []FieldSpec{fl("properties")}, Flags: exprFresh},
	KindPair:             {Name: "pair", Fields: []FieldSpec{f1("key"), f1("value")}},
	KindSpreadElement:    {Name: "spread_element", Fields: []FieldSpec{f1("argument")}},
	KindArrowFunction: {
		Name:   "arrow_function",
		Fields: []FieldSpec{f1("parameters"), fo("returnType"), f1("body")},
		Flags:  exprFresh,
	},
	KindFunctionExpression: {
		Name:   "function_expression",
		Fields: []FieldSpec{fo("name"), f1("parameters"), fo("returnType"), f1("body")},
		Flags:  exprFresh,
	},
	KindClassExpression: {Name: "class", Fields: []FieldSpec{fo("name"), fl("body")}, Flags: exprFresh},
	KindJSXElement:      {Name: "jsx_element", Fields: []FieldSpec{fl("children")}, Flags: exprFresh},
	KindTernaryExpression: {
		Name:   "ternary_expression",
		Fields: []FieldSpec{f1("condition"), f1("consequence"), f1("alternative")},
		Flags:  FlagExpression,
	},
	KindAsExpression: {Name: "as_expression", Fields: []FieldSpec{f1("expression"), f1("type")}, Flags: FlagExpression},

	KindPredefinedType: {Name: "predefined_type", Flags: FlagType | FlagLiteral},
	KindTypeIdentifier: {Name: "type_identifier", Flags: FlagType | FlagLiteral},
	KindLiteralType:    {Name: "literal_type", Fields: []FieldSpec{f1("value")}, Flags: FlagType},
	KindUnionType:      {Name: "union_type", Fields: []FieldSpec{fl("types")}, Flags: FlagType},
	KindArrayType:      {Name: "array_type", Fields: []FieldSpec{f1("element")}, Flags: FlagType},
}

// Info returns the catalogue entry of k.
func (k Kind) Info() *KindInfo {
	if int(k) >= KindCount {
		return &catalogue[KindInvalid]
	}
	return &catalogue[k]
}

func (k Kind) String() string { return k.Info().Name }

// Is reports whether k carries every flag in f.
func (k Kind) Is(f KindFlags) bool { return k.Info().Flags&f == f }

// Valid reports whether k is a real kind.
func (k Kind) Valid() bool { return k > KindInvalid && k < kindCount }

// FieldIndex returns the position of the named field in the kind's schema, or -1.
func (k Kind) FieldIndex(name string) int {
	for i, spec := range k.Info().Fields {
		if spec.Name == name {
			return i
		}
	}
	return -1
}

// KindByName maps a catalogue name back to its kind.
func KindByName(name string) (Kind, bool) {
	for k := KindInvalid + 1; k < kindCount; k++ {
		if catalogue[k].Name == name {
			return k, true
		}
	}
	return KindInvalid, false
}
