package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"go.trai.ch/symdex/internal/core/domain"
)

// Go extracts top-level functions, methods, types, constants and variables.
type Go struct {
	treeSitter
}

// NewGo creates the Go extractor.
func NewGo() *Go {
	return &Go{treeSitter{
		name:       "go",
		extensions: []string{".go"},
		grammar:    golang.GetLanguage(),
		collect:    collectGo,
	}}
}

func collectGo(root *sitter.Node, src []byte, path string) []domain.Symbol {
	var symbols []domain.Symbol

	for i := range int(root.NamedChildCount()) {
		decl := root.NamedChild(i)
		switch decl.Type() {
		case "function_declaration":
			if name := nodeText(decl.ChildByFieldName("name"), src); name != "" {
				symbols = append(symbols, newSymbol(decl, src, path, name, domain.SymbolFunction))
			}

		case "method_declaration":
			name := nodeText(decl.ChildByFieldName("name"), src)
			if name == "" {
				continue
			}
			if recv := receiverType(decl.ChildByFieldName("receiver"), src); recv != "" {
				name = recv + "." + name
			}
			symbols = append(symbols, newSymbol(decl, src, path, name, domain.SymbolMethod))

		case "type_declaration":
			symbols = goSpecs(symbols, decl, src, path, goTypeSpec)

		case "const_declaration":
			symbols = goSpecs(symbols, decl, src, path, goValueSpec(domain.SymbolConstant))

		case "var_declaration":
			symbols = goSpecs(symbols, decl, src, path, goValueSpec(domain.SymbolVariable))
		}
	}

	return symbols
}

// specFunc appends the symbols of one spec. span is the range to report.
type specFunc func(symbols []domain.Symbol, spec, span *sitter.Node, src []byte, path string) []domain.Symbol

// goSpecs visits the specs of a declaration. A declaration with a single spec
// reports the whole declaration, including its keyword.
func goSpecs(symbols []domain.Symbol, decl *sitter.Node, src []byte, path string, fn specFunc) []domain.Symbol {
	specs := declSpecs(decl)
	for _, spec := range specs {
		span := spec
		if len(specs) == 1 {
			span = decl
		}
		symbols = fn(symbols, spec, span, src, path)
	}
	return symbols
}

func declSpecs(node *sitter.Node) []*sitter.Node {
	var specs []*sitter.Node
	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)
		switch child.Type() {
		case "type_spec", "type_alias", "const_spec", "var_spec":
			specs = append(specs, child)
		case "var_spec_list":
			specs = append(specs, declSpecs(child)...)
		}
	}
	return specs
}

func goTypeSpec(symbols []domain.Symbol, spec, span *sitter.Node, src []byte, path string) []domain.Symbol {
	name := nodeText(spec.ChildByFieldName("name"), src)
	if name == "" {
		return symbols
	}

	typ := domain.SymbolType
	if t := spec.ChildByFieldName("type"); t != nil {
		switch t.Type() {
		case "struct_type":
			typ = domain.SymbolStruct
		case "interface_type":
			typ = domain.SymbolInterface
		}
	}

	return append(symbols, newSymbol(span, src, path, name, typ))
}

func goValueSpec(typ string) specFunc {
	return func(symbols []domain.Symbol, spec, span *sitter.Node, src []byte, path string) []domain.Symbol {
		for i := range int(spec.NamedChildCount()) {
			child := spec.NamedChild(i)
			if child.Type() != "identifier" {
				continue
			}
			name := nodeText(child, src)
			if name == "_" {
				continue
			}
			symbols = append(symbols, newSymbol(span, src, path, name, typ))
		}
		return symbols
	}
}

// receiverType returns the base type name of a method receiver, without
// pointer or type parameters.
func receiverType(recv *sitter.Node, src []byte) string {
	if recv == nil {
		return ""
	}
	var found string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != "" {
			return
		}
		if n.Type() == "type_identifier" {
			found = nodeText(n, src)
			return
		}
		for i := range int(n.NamedChildCount()) {
			walk(n.NamedChild(i))
		}
	}
	walk(recv)
	return found
}
