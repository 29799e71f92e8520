package graph

import "context"

// ParseResult contains the dependency edges and variable definitions
// extracted from a single source file.
type ParseResult struct {
	File      string     `json:"file"`
	Language  Language   `json:"language"`
	Edges     []Edge     `json:"edges"`     // deduplicated, first-seen order
	Variables []Variable `json:"variables"` // assigned names, first-seen order
}

// Parser extracts variable dependencies from source files.
// Implementations: TreeSitterParser (production).
type Parser interface {
	// Parse extracts dependency edges from a single source file.
	// source is the file content. lang determines which grammar to use.
	// A file with syntax errors fails with *ParseError and no partial result.
	Parse(ctx context.Context, path string, source []byte, lang Language) (*ParseResult, error)

	// SupportedLanguages returns the languages this parser can handle.
	SupportedLanguages() []Language

	// Close releases parser resources (Tree-sitter C memory).
	Close() error
}
