// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package artifact defines the language-agnostic parse-result model that
// feeds the dependency graph builder, plus a directory parser that produces
// it from source trees.
package artifact

// Language identifies the source language of a parsed file.
type Language int

const (
	LanguageUnknown Language = iota
	LanguagePython
	LanguageJavaScript
	LanguageTypeScript
	LanguageJava
)

// languageNames maps Language values to their wire strings.
var languageNames = map[Language]string{
	LanguageUnknown:    "unknown",
	LanguagePython:     "python",
	LanguageJavaScript: "javascript",
	LanguageTypeScript: "typescript",
	LanguageJava:       "java",
}

// String returns the wire string for the language ("unknown" for
// unrecognized values).
func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return "unknown"
}

// LanguageFromString parses a wire string into a Language. Unrecognized
// strings map to LanguageUnknown.
func LanguageFromString(s string) Language {
	for lang, name := range languageNames {
		if name == s {
			return lang
		}
	}
	return LanguageUnknown
}

// ImportKind distinguishes plain imports from selective ("from") imports.
type ImportKind int

const (
	ImportPlain ImportKind = iota
	ImportFrom
)

// String returns "plain" or "from".
func (k ImportKind) String() string {
	if k == ImportFrom {
		return "from"
	}
	return "plain"
}

// ImportRef is one import statement extracted from a source file.
//
// Name is the imported module path as written in the source (dotted for
// Python, slash-or-relative for JS/TS). Alias is the local binding name if
// the import was renamed. Module is the containing module for selective
// imports ("from module import name").
type ImportRef struct {
	Name   string     `json:"name"`
	Alias  string     `json:"alias,omitempty"`
	Module string     `json:"module,omitempty"`
	Kind   ImportKind `json:"-"`
}

// FuncDef is one function definition extracted from a source file.
type FuncDef struct {
	Name       string   `json:"name"`
	Line       int      `json:"line"`
	Decorators []string `json:"decorators,omitempty"`
	Args       []string `json:"args,omitempty"`
}

// ClassDef is one class definition extracted from a source file.
type ClassDef struct {
	Name    string   `json:"name"`
	Line    int      `json:"line"`
	Bases   []string `json:"bases,omitempty"`
	Methods []string `json:"methods,omitempty"`
}

// ParseResult is the digest of a single source file.
//
// Description:
//
//	Holds everything the graph builder needs about one file: its language,
//	imports, top-level symbols, and size. A non-empty Error marks the file
//	as unparseable; the builder excludes such files entirely.
//
// Thread Safety: ParseResult is treated as immutable once produced.
type ParseResult struct {
	Language       Language    `json:"-"`
	Imports        []ImportRef `json:"imports,omitempty"`
	Functions      []FuncDef   `json:"functions,omitempty"`
	Classes        []ClassDef  `json:"classes,omitempty"`
	AsyncFunctions []FuncDef   `json:"async_functions,omitempty"`
	LinesOfCode    int         `json:"lines_of_code"`
	Error          string      `json:"error,omitempty"`
}

// Set maps relative file paths (forward slashes) to their parse results.
// Paths are unique by construction.
type Set map[string]*ParseResult
