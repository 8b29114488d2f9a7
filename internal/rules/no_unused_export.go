package rules

import (
	"path"
	"path/filepath"
	"strings"

	"tslint/internal/ast"
	"tslint/internal/config"
	"tslint/internal/diag"
	"tslint/internal/fix"
	"tslint/internal/rule"
	"tslint/internal/source"
	"tslint/internal/visit"
)

type unusedExportOptions struct {
	// Entry lists modules whose exports are the public surface of the
	// project. Patterns match the path or any of its trailing segments.
	Entry []string `toml:"entry" msgpack:"entry"`
	// Ignore lists export names (glob patterns) that are never reported.
	Ignore []string `toml:"ignore" msgpack:"ignore"`
}

type moduleExport struct {
	name   string
	anchor ast.Node
	// keyword covers `export ` before a declaration; empty when the export
	// cannot be dropped by deleting it.
	keyword source.Span
}

type moduleImport struct {
	from  string
	names []string
	all   bool
}

type moduleInfo struct {
	exports []moduleExport
	imports []moduleImport
}

type exportCtx = rule.Context[unusedExportOptions, *moduleInfo]

// NoUnusedExport reports exports that no file of the project imports.
var NoUnusedExport = rule.Define(rule.Spec[unusedExportOptions, *moduleInfo]{
	Name: "no-unused-export",
	Code: diag.LintNoUnusedExport,
	Docs: rule.Docs{
		Description: "Disallow exports that are never imported within the project",
		Fixable:     true,
	},
	Messages: map[string]string{
		"unusedExport": "Export '{{name}}' is not imported by any file in the project.",
		"removeExport": "Remove the 'export' keyword from '{{name}}'.",
	},
	DefaultSeverity: diag.SevInfo,
	ParseOptions: func(raw config.Options) (unusedExportOptions, error) {
		opts := unusedExportOptions{Entry: []string{"src/index.ts"}}
		if err := raw.Decode(&opts); err != nil {
			return unusedExportOptions{}, err
		}
		for key, patterns := range map[string][]string{"entry": opts.Entry, "ignore": opts.Ignore} {
			for _, p := range patterns {
				if _, err := path.Match(p, ""); err != nil {
					return unusedExportOptions{}, config.Errorf("no-unused-export", key, "bad pattern %q: %v", p, err)
				}
			}
		}
		return opts, nil
	},
	NewData: func(unusedExportOptions) *moduleInfo { return &moduleInfo{} },
	Visitor: func(unusedExportOptions) *visit.Table[*exportCtx] {
		return visit.NewTable[*exportCtx]().
			OnEnter(ast.KindExportStatement, collectExport).
			OnEnter(ast.KindImportStatement, collectImport).
			OnEnter(ast.KindCallExpression, collectDynamicImport)
	},
	Aggregate: reportUnusedExports,
})

func collectExport(n ast.Node, ctx *exportCtx) error {
	from := n.Child("source")
	if n.Op() == "default" {
		ctx.Data.exports = append(ctx.Data.exports, moduleExport{name: "default", anchor: n})
		return nil
	}
	if decl := n.Child("declaration"); decl.Valid() {
		keyword := source.Span{File: n.Span().File, Start: n.Span().Start, End: decl.Span().Start}
		for _, name := range declaredNames(decl) {
			ctx.Data.exports = append(ctx.Data.exports, moduleExport{name: name.Text(), anchor: name, keyword: keyword})
		}
		return nil
	}
	if clause := n.Child("clause"); clause.Valid() {
		reexport := moduleImport{from: unquote(from)}
		for _, spec := range clause.List("specifiers") {
			exported := spec.Child("alias")
			if !exported.Valid() {
				exported = spec.Child("name")
			}
			ctx.Data.exports = append(ctx.Data.exports, moduleExport{name: unquote(exported), anchor: exported})
			reexport.names = append(reexport.names, unquote(spec.Child("name")))
		}
		if from.Valid() {
			ctx.Data.imports = append(ctx.Data.imports, reexport)
		}
		return nil
	}
	if from.Valid() {
		// export * from: всё, что экспортирует источник, считается использованным
		ctx.Data.imports = append(ctx.Data.imports, moduleImport{from: unquote(from), all: true})
	}
	return nil
}

// declaredNames returns the binding names a declaration introduces.
func declaredNames(decl ast.Node) []ast.Node {
	switch decl.Kind() {
	case ast.KindLexicalDeclaration:
		var names []ast.Node
		for _, d := range decl.List("declarators") {
			if name := d.Child("name"); name.Kind() == ast.KindIdentifier {
				names = append(names, name)
			}
		}
		return names
	case ast.KindFunctionDeclaration, ast.KindClassDeclaration:
		return []ast.Node{decl.Child("name")}
	case ast.KindOther:
		// interface, type alias, enum, abstract class
		for _, child := range decl.List("children") {
			if child.Kind() == ast.KindTypeIdentifier || child.Kind() == ast.KindIdentifier {
				return []ast.Node{child}
			}
		}
	}
	return nil
}

func collectImport(n ast.Node, ctx *exportCtx) error {
	imp := moduleImport{from: unquote(n.Child("source"))}
	clause := n.Child("clause")
	if !clause.Valid() {
		// import './side-effect'
		return nil
	}
	for _, b := range clause.List("bindings") {
		switch b.Kind() {
		case ast.KindNamespaceImport:
			imp.all = true
		case ast.KindImportSpecifier:
			imp.names = append(imp.names, unquote(b.Child("name")))
		case ast.KindIdentifier:
			imp.names = append(imp.names, "default")
		}
	}
	ctx.Data.imports = append(ctx.Data.imports, imp)
	return nil
}

// collectDynamicImport handles import("./x") and require("./x"): the whole
// module counts as used.
func collectDynamicImport(n ast.Node, ctx *exportCtx) error {
	callee := n.Child("function")
	isImport := callee.Kind() == ast.KindOther && callee.Op() == "import"
	isRequire := callee.Kind() == ast.KindIdentifier && callee.Text() == "require"
	if !isImport && !isRequire {
		return nil
	}
	args := n.Child("arguments").List("arguments")
	if len(args) != 1 || args[0].Kind() != ast.KindString {
		return nil
	}
	ctx.Data.imports = append(ctx.Data.imports, moduleImport{from: unquote(args[0]), all: true})
	return nil
}

type usage struct {
	all   bool
	names map[string]bool
}

func reportUnusedExports(ctx *rule.AggregateContext[unusedExportOptions], files []rule.FileData[*moduleInfo]) error {
	byPath := make(map[string]int, len(files))
	for i, f := range files {
		byPath[modulePath(f.Path)] = i
	}

	used := make([]usage, len(files))
	for _, f := range files {
		if f.Data == nil {
			continue
		}
		for _, imp := range f.Data.imports {
			target, ok := resolveModule(byPath, f.Path, imp.from)
			if !ok {
				continue
			}
			u := &used[target]
			u.all = u.all || imp.all
			for _, name := range imp.names {
				if u.names == nil {
					u.names = make(map[string]bool)
				}
				u.names[name] = true
			}
		}
	}

	for i, f := range files {
		if f.Data == nil || used[i].all || matchesEntry(ctx.Options.Entry, f.Path) {
			continue
		}
		for _, exp := range f.Data.exports {
			if used[i].names[exp.name] || matchesAny(ctx.Options.Ignore, exp.name) {
				continue
			}
			if err := ctx.Report(exp.anchor, "unusedExport", rule.Args{"name": exp.name}, removeExportFix(ctx, exp)); err != nil {
				return err
			}
		}
	}
	return nil
}

func removeExportFix(ctx *rule.AggregateContext[unusedExportOptions], exp moduleExport) *diag.Suggestions {
	if exp.keyword.Empty() {
		return nil
	}
	return diag.Deferred(func() ([]diag.Fix, error) {
		f, err := ctx.Suggest("removeExport", rule.Args{"name": exp.name}, fix.Edit(exp.keyword, ""))
		if err != nil {
			return nil, err
		}
		// модуль может импортироваться извне проекта
		f.Applicability = diag.FixApplicabilitySafeWithHeuristics
		return []diag.Fix{f}, nil
	})
}

// resolveModule maps a relative specifier of from to a file of the unit,
// trying the extensions and index files TypeScript would.
func resolveModule(byPath map[string]int, from, spec string) (int, bool) {
	if spec != "." && spec != ".." && !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return 0, false
	}
	base := path.Join(path.Dir(modulePath(from)), spec)
	candidates := []string{base}
	switch ext := path.Ext(base); ext {
	case ".js", ".jsx", ".mjs", ".cjs":
		stem := strings.TrimSuffix(base, ext)
		candidates = append(candidates, stem+".ts", stem+".tsx")
	default:
		candidates = append(candidates, base+".ts", base+".tsx", base+"/index.ts", base+"/index.tsx")
	}
	for _, c := range candidates {
		if i, ok := byPath[c]; ok {
			return i, true
		}
	}
	return 0, false
}

func modulePath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

func matchesEntry(patterns []string, p string) bool {
	p = modulePath(p)
	for _, pattern := range patterns {
		if p == pattern || strings.HasSuffix(p, "/"+pattern) {
			return true
		}
		if ok, _ := path.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// unquote strips the quotes of a string literal; other nodes keep their text.
func unquote(n ast.Node) string {
	text := n.Text()
	if n.Kind() == ast.KindString && len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}
