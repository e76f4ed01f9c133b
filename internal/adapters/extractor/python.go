package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"go.trai.ch/symdex/internal/core/domain"
)

// Python extracts module-level functions, classes, variables and class methods.
type Python struct {
	treeSitter
}

// NewPython creates the Python extractor.
func NewPython() *Python {
	return &Python{treeSitter{
		name:       "python",
		extensions: []string{".py", ".pyi"},
		grammar:    python.GetLanguage(),
		collect:    collectPython,
	}}
}

func collectPython(root *sitter.Node, src []byte, path string) []domain.Symbol {
	var symbols []domain.Symbol
	for i := range int(root.NamedChildCount()) {
		child := root.NamedChild(i)
		symbols = pythonStatement(symbols, child, child, src, path, "")
	}
	return symbols
}

// pythonStatement appends the symbols defined by node. span is the node whose
// range the symbol covers, which differs from node for decorated definitions.
// class is the qualified name of the enclosing class, if any.
func pythonStatement(symbols []domain.Symbol, node, span *sitter.Node, src []byte, path, class string) []domain.Symbol {
	switch node.Type() {
	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			return pythonStatement(symbols, def, node, src, path, class)
		}

	case "function_definition":
		name := nodeText(node.ChildByFieldName("name"), src)
		if name == "" {
			return symbols
		}
		if class != "" {
			return append(symbols, newSymbol(span, src, path, class+"."+name, domain.SymbolMethod))
		}
		return append(symbols, newSymbol(span, src, path, name, domain.SymbolFunction))

	case "class_definition":
		name := nodeText(node.ChildByFieldName("name"), src)
		if name == "" {
			return symbols
		}
		if class != "" {
			name = class + "." + name
		}
		symbols = append(symbols, newSymbol(span, src, path, name, domain.SymbolClass))

		if body := node.ChildByFieldName("body"); body != nil {
			for i := range int(body.NamedChildCount()) {
				member := body.NamedChild(i)
				if member.Type() == "expression_statement" {
					continue
				}
				symbols = pythonStatement(symbols, member, member, src, path, name)
			}
		}

	case "expression_statement":
		if class != "" {
			return symbols
		}
		for i := range int(node.NamedChildCount()) {
			assign := node.NamedChild(i)
			if assign.Type() != "assignment" {
				continue
			}
			left := assign.ChildByFieldName("left")
			if left == nil || left.Type() != "identifier" {
				continue
			}
			name := nodeText(left, src)
			typ := domain.SymbolVariable
			if isConstantName(name) {
				typ = domain.SymbolConstant
			}
			symbols = append(symbols, newSymbol(node, src, path, name, typ))
		}
	}

	return symbols
}
