package extractor

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/zerr"
)

// collectFunc walks a parsed syntax tree and returns its symbols.
type collectFunc func(root *sitter.Node, src []byte, path string) []domain.Symbol

// treeSitter is the shared parse pipeline of all built-in languages.
type treeSitter struct {
	name       string
	extensions []string
	grammar    *sitter.Language
	collect    collectFunc
}

// Extensions returns the file extensions handled by the language.
func (t *treeSitter) Extensions() []string {
	return slices.Clone(t.extensions)
}

// Supports reports whether the path has one of the language's extensions.
func (t *treeSitter) Supports(path string) bool {
	return slices.Contains(t.extensions, strings.ToLower(filepath.Ext(path)))
}

// Extract parses content and collects its symbols.
// Content with syntax errors is rejected as a whole.
func (t *treeSitter) Extract(ctx context.Context, path string, content []byte) ([]domain.Symbol, error) {
	if !utf8.Valid(content) {
		return nil, zerr.With(zerr.With(domain.ErrExtractionFailed, "path", path), "reason", "content is not valid UTF-8")
	}

	// Parsers are not safe for concurrent use; one per call.
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(t.grammar)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrExtractionFailed.Error()), "path", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, zerr.With(domain.ErrExtractionFailed, "path", path)
	}
	if root.HasError() {
		return nil, zerr.With(zerr.With(domain.ErrSyntaxError, "path", path), "language", t.name)
	}

	symbols := t.collect(root, content, path)
	domain.SortSymbols(symbols)
	return symbols, nil
}

// newSymbol builds a symbol spanning the full source lines of node.
func newSymbol(node *sitter.Node, src []byte, path, name, typ string) domain.Symbol {
	start, end := lineRange(node)
	return domain.Symbol{
		Name:      name,
		Type:      typ,
		File:      path,
		LineStart: start,
		LineEnd:   end,
		Code:      string(lineSlice(src, int(node.StartByte()), int(node.EndByte()))),
	}
}

// lineRange returns the 1-based inclusive line range covered by node.
func lineRange(node *sitter.Node) (int, int) {
	start := int(node.StartPoint().Row) + 1
	endPoint := node.EndPoint()
	end := int(endPoint.Row) + 1
	// A node ending right after a newline does not occupy the following line.
	if endPoint.Column == 0 && end > start {
		end--
	}
	return start, end
}

// lineSlice widens [start, end) to whole lines, without the final newline.
func lineSlice(src []byte, start, end int) []byte {
	start = min(max(start, 0), len(src))
	end = min(max(end, start), len(src))
	if end > start && src[end-1] == '\n' {
		end--
	}

	lineStart := bytes.LastIndexByte(src[:start], '\n') + 1
	lineEnd := len(src)
	if i := bytes.IndexByte(src[end:], '\n'); i >= 0 {
		lineEnd = end + i
	}

	return bytes.TrimRight(src[lineStart:lineEnd], "\r\n")
}

// isConstantName reports whether name follows the ALL_CAPS constant convention.
func isConstantName(name string) bool {
	return strings.ContainsFunc(name, unicode.IsLetter) && !strings.ContainsFunc(name, unicode.IsLower)
}

func nodeText(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(src)
}
