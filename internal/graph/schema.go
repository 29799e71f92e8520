package graph

import (
	"path/filepath"
	"slices"
	"strings"
)

// --- Enums ---

// Language identifies a programming language for parsing.
type Language string

const (
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangRust       Language = "rust"
)

// SupportedLanguages are the languages with assignment extraction rules.
// Python is the reference language; the others follow the same pairing rules.
var SupportedLanguages = []Language{LangPython, LangGo, LangTypeScript, LangRust}

// extToLanguage maps file extensions to Language.
var extToLanguage = map[string]Language{
	".py":  LangPython,
	".go":  LangGo,
	".ts":  LangTypeScript,
	".tsx": LangTypeScript,
	".rs":  LangRust,
}

// LanguageForPath returns the language implied by the file extension of path.
func LanguageForPath(path string) (Language, bool) {
	lang, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// ParseLanguage normalizes a user-supplied language name.
func ParseLanguage(s string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "python", "py":
		return LangPython, true
	case "go", "golang":
		return LangGo, true
	case "typescript", "ts":
		return LangTypeScript, true
	case "rust", "rs":
		return LangRust, true
	}
	return "", false
}

// --- Models ---

// Variable is a named node in the dependency graph. Lines holds the lines
// where the name is assigned; it is informational and never used by analysis.
type Variable struct {
	Name  string `json:"name" yaml:"name"`
	Lines []int  `json:"lines,omitempty" yaml:"lines,omitempty"`
}

// Edge is a DEPENDS_ON relationship: computing From reads To.
// Line and File record the first observation of the pair.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Line int    `json:"line" yaml:"line"`
	File string `json:"file" yaml:"file"`
}

// Key returns the identity of the edge. Metadata is not part of it.
func (e Edge) Key() EdgeKey {
	return EdgeKey{From: e.From, To: e.To}
}

// IsSelfLoop reports whether the edge reads its own definer.
func (e Edge) IsSelfLoop() bool {
	return e.From == e.To
}

// EdgeKey identifies an edge by its endpoints.
type EdgeKey struct {
	From string
	To   string
}

// Ranked pairs a variable with a degree count, used by fan-in and fan-out
// leaderboards.
type Ranked struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// GraphStats summarizes a dependency graph.
type GraphStats struct {
	VariableCount int `json:"variableCount"`
	EdgeCount     int `json:"edgeCount"`
	SelfLoopCount int `json:"selfLoopCount"`
}

// mergeLines returns the sorted union of two line sets.
func mergeLines(a, b []int) []int {
	if len(b) == 0 {
		return a
	}
	seen := make(map[int]bool, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, l := range append(append([]int(nil), a...), b...) {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}
