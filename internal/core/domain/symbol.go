// Package domain contains the core types of the symbol cache.
package domain

import (
	"cmp"
	"slices"
)

// Symbol is a named code construct extracted from a single file.
//
// LineStart and LineEnd are 1-based and inclusive.
type Symbol struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	File      string `json:"file"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
	Code      string `json:"code,omitempty"`
}

// Common symbol types emitted by the bundled extractors. The vocabulary is open.
const (
	SymbolFunction  = "function"
	SymbolMethod    = "method"
	SymbolClass     = "class"
	SymbolVariable  = "variable"
	SymbolConstant  = "constant"
	SymbolStruct    = "struct"
	SymbolInterface = "interface"
	SymbolType      = "type"
)

// CompareSymbols orders symbols by file, start line, end line and name.
func CompareSymbols(a, b Symbol) int {
	return cmp.Or(
		cmp.Compare(a.File, b.File),
		cmp.Compare(a.LineStart, b.LineStart),
		cmp.Compare(a.LineEnd, b.LineEnd),
		cmp.Compare(a.Name, b.Name),
	)
}

// SortSymbols sorts symbols in place using CompareSymbols.
func SortSymbols(symbols []Symbol) {
	slices.SortStableFunc(symbols, CompareSymbols)
}
