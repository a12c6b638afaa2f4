// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package artifact

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// skipDirs are directory names never descended into during a scan.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	"venv":         true,
	".venv":        true,
	"dist":         true,
	"build":        true,
	"target":       true,
}

// extLanguages maps file extensions to languages. Files with other
// extensions are ignored by the scanner.
var extLanguages = map[string]Language{
	".py":   LanguagePython,
	".js":   LanguageJavaScript,
	".jsx":  LanguageJavaScript,
	".ts":   LanguageTypeScript,
	".tsx":  LanguageTypeScript,
	".java": LanguageJava,
}

// ParserOptions configures a Parser.
type ParserOptions struct {
	// MaxFileBytes is the largest file the parser will read. Larger files
	// get a ParseResult with Error set. Zero means 2 MiB.
	MaxFileBytes int64

	// Logger receives per-file warnings. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultParserOptions returns the standard parser configuration.
func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		MaxFileBytes: 2 << 20,
	}
}

// ParserOption mutates ParserOptions.
type ParserOption func(*ParserOptions)

// WithMaxFileBytes overrides the per-file size limit.
func WithMaxFileBytes(n int64) ParserOption {
	return func(o *ParserOptions) { o.MaxFileBytes = n }
}

// WithParserLogger sets the logger used for per-file warnings.
func WithParserLogger(l *slog.Logger) ParserOption {
	return func(o *ParserOptions) { o.Logger = l }
}

// Parser extracts ParseResults from source trees using line-oriented
// heuristics. It recognizes imports, top-level functions, classes, and
// async functions well enough to drive file-level dependency edges; it is
// not a real front end and does not try to be.
type Parser struct {
	opts   ParserOptions
	logger *slog.Logger
}

// NewParser creates a Parser with the given options applied over defaults.
func NewParser(opts ...ParserOption) *Parser {
	o := DefaultParserOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{opts: o, logger: logger.With("component", "artifact.Parser")}
}

// ParseDirectory walks root and parses every recognized source file.
//
// Description:
//
//	Walks the tree rooted at root, skipping well-known vendored and
//	generated directories, and parses each file whose extension maps to a
//	known language. A file that cannot be read still appears in the result
//	with its Error field set so downstream stages can count the skip; it
//	contributes no symbols or imports.
//
// Inputs:
//
//	ctx - Cancellation. Checked between files.
//	root - Directory to scan.
//
// Outputs:
//
//	Set - Parse results keyed by path relative to root, forward slashes.
//	error - Non-nil only if root itself cannot be walked or ctx is done.
func (p *Parser) ParseDirectory(ctx context.Context, root string) (Set, error) {
	results := make(Set)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lang, ok := extLanguages[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		results[rel] = p.parseFile(path, lang)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	p.logger.Info("directory scan complete",
		slog.String("root", root),
		slog.Int("files", len(results)))
	return results, nil
}

// parseFile reads and parses a single file. Read failures are recorded on
// the result, never returned.
func (p *Parser) parseFile(path string, lang Language) *ParseResult {
	info, err := os.Stat(path)
	if err != nil {
		p.logger.Warn("stat failed, skipping file", slog.String("path", path), slog.String("error", err.Error()))
		return &ParseResult{Language: lang, Error: err.Error()}
	}
	if info.Size() > p.opts.MaxFileBytes {
		p.logger.Warn("file exceeds size limit, skipping", slog.String("path", path), slog.Int64("size", info.Size()))
		return &ParseResult{Language: lang, Error: fmt.Sprintf("file too large (%d bytes)", info.Size())}
	}

	f, err := os.Open(path)
	if err != nil {
		p.logger.Warn("open failed, skipping file", slog.String("path", path), slog.String("error", err.Error()))
		return &ParseResult{Language: lang, Error: err.Error()}
	}
	defer f.Close()

	result := &ParseResult{Language: lang}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		result.LinesOfCode++

		switch lang {
		case LanguagePython:
			parsePythonLine(result, line, trimmed, lineNo)
		case LanguageJavaScript, LanguageTypeScript:
			parseJSLine(result, trimmed, lineNo)
		case LanguageJava:
			parseJavaLine(result, trimmed, lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return &ParseResult{Language: lang, Error: err.Error()}
	}
	return result
}

// parsePythonLine extracts imports and top-level defs from one line.
// Indented defs are class methods and are attached to the last seen class.
func parsePythonLine(r *ParseResult, raw, trimmed string, lineNo int) {
	indented := len(raw) > 0 && (raw[0] == ' ' || raw[0] == '\t')

	switch {
	case strings.HasPrefix(trimmed, "import "):
		for _, part := range strings.Split(trimmed[len("import "):], ",") {
			name, alias := splitAsAlias(strings.TrimSpace(part))
			if name != "" {
				r.Imports = append(r.Imports, ImportRef{Name: name, Alias: alias, Kind: ImportPlain})
			}
		}

	case strings.HasPrefix(trimmed, "from "):
		rest := trimmed[len("from "):]
		idx := strings.Index(rest, " import ")
		if idx <= 0 {
			return
		}
		module := strings.TrimSpace(rest[:idx])
		for _, part := range strings.Split(rest[idx+len(" import "):], ",") {
			name, alias := splitAsAlias(strings.TrimSpace(part))
			if name != "" && name != "*" {
				r.Imports = append(r.Imports, ImportRef{Name: module, Alias: alias, Module: module, Kind: ImportFrom})
				break // one edge per from-import statement
			}
		}

	case strings.HasPrefix(trimmed, "async def "):
		if name, args := parseDefSignature(trimmed[len("async def "):]); name != "" {
			if indented {
				attachMethod(r, name)
			} else {
				r.AsyncFunctions = append(r.AsyncFunctions, FuncDef{Name: name, Line: lineNo, Args: args})
			}
		}

	case strings.HasPrefix(trimmed, "def "):
		if name, args := parseDefSignature(trimmed[len("def "):]); name != "" {
			if indented {
				attachMethod(r, name)
			} else {
				r.Functions = append(r.Functions, FuncDef{Name: name, Line: lineNo, Args: args})
			}
		}

	case strings.HasPrefix(trimmed, "class ") && !indented:
		name, bases := parseClassSignature(trimmed[len("class "):])
		if name != "" {
			r.Classes = append(r.Classes, ClassDef{Name: name, Line: lineNo, Bases: bases})
		}
	}
}

// parseJSLine extracts ES module imports, require calls, and top-level
// function/class declarations.
func parseJSLine(r *ParseResult, trimmed string, lineNo int) {
	switch {
	case strings.HasPrefix(trimmed, "import "):
		if mod := extractQuoted(trimmed); mod != "" {
			r.Imports = append(r.Imports, ImportRef{Name: mod, Kind: ImportFrom})
		}

	case strings.Contains(trimmed, "require("):
		if mod := extractQuoted(trimmed[strings.Index(trimmed, "require("):]); mod != "" {
			r.Imports = append(r.Imports, ImportRef{Name: mod, Kind: ImportPlain})
		}

	case strings.HasPrefix(trimmed, "async function "):
		if name, args := parseDefSignature(trimmed[len("async function "):]); name != "" {
			r.AsyncFunctions = append(r.AsyncFunctions, FuncDef{Name: name, Line: lineNo, Args: args})
		}

	case strings.HasPrefix(trimmed, "function "):
		if name, args := parseDefSignature(trimmed[len("function "):]); name != "" {
			r.Functions = append(r.Functions, FuncDef{Name: name, Line: lineNo, Args: args})
		}

	case strings.HasPrefix(trimmed, "class "):
		name, bases := parseClassSignature(trimmed[len("class "):])
		if name != "" {
			r.Classes = append(r.Classes, ClassDef{Name: name, Line: lineNo, Bases: bases})
		}

	case strings.HasPrefix(trimmed, "export class "):
		name, bases := parseClassSignature(trimmed[len("export class "):])
		if name != "" {
			r.Classes = append(r.Classes, ClassDef{Name: name, Line: lineNo, Bases: bases})
		}

	case strings.HasPrefix(trimmed, "export function "):
		if name, args := parseDefSignature(trimmed[len("export function "):]); name != "" {
			r.Functions = append(r.Functions, FuncDef{Name: name, Line: lineNo, Args: args})
		}
	}
}

// parseJavaLine extracts package imports and class declarations.
func parseJavaLine(r *ParseResult, trimmed string, lineNo int) {
	switch {
	case strings.HasPrefix(trimmed, "import "):
		name := strings.TrimSuffix(strings.TrimSpace(trimmed[len("import "):]), ";")
		name = strings.TrimPrefix(name, "static ")
		if name != "" {
			r.Imports = append(r.Imports, ImportRef{Name: name, Kind: ImportPlain})
		}

	case strings.Contains(trimmed, "class "):
		idx := strings.Index(trimmed, "class ")
		name, bases := parseClassSignature(trimmed[idx+len("class "):])
		if name != "" && isIdentifier(name) {
			r.Classes = append(r.Classes, ClassDef{Name: name, Line: lineNo, Bases: bases})
		}
	}
}

// attachMethod records an indented def as a method of the last seen class.
func attachMethod(r *ParseResult, name string) {
	if len(r.Classes) == 0 {
		return
	}
	last := &r.Classes[len(r.Classes)-1]
	last.Methods = append(last.Methods, name)
}

// splitAsAlias splits "name as alias" into its parts.
func splitAsAlias(s string) (name, alias string) {
	if idx := strings.Index(s, " as "); idx > 0 {
		return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+len(" as "):])
	}
	return s, ""
}

// parseDefSignature parses "name(arg1, arg2)..." into name and args.
func parseDefSignature(s string) (string, []string) {
	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return "", nil
	}
	name := strings.TrimSpace(s[:open])
	if !isIdentifier(name) {
		return "", nil
	}
	closeIdx := strings.IndexByte(s[open:], ')')
	if closeIdx < 0 {
		return name, nil
	}
	var args []string
	for _, a := range strings.Split(s[open+1:open+closeIdx], ",") {
		a = strings.TrimSpace(a)
		if colon := strings.IndexByte(a, ':'); colon >= 0 {
			a = strings.TrimSpace(a[:colon])
		}
		if eq := strings.IndexByte(a, '='); eq >= 0 {
			a = strings.TrimSpace(a[:eq])
		}
		if a != "" {
			args = append(args, a)
		}
	}
	return name, args
}

// parseClassSignature parses "Name(Base1, Base2):" or "Name extends Base {"
// into name and base list.
func parseClassSignature(s string) (string, []string) {
	s = strings.TrimSpace(s)
	end := len(s)
	for i, c := range s {
		if !isIdentChar(byte(c), i == 0) {
			end = i
			break
		}
	}
	name := s[:end]
	if name == "" {
		return "", nil
	}

	rest := strings.TrimSpace(s[end:])
	var bases []string
	if strings.HasPrefix(rest, "(") {
		if closeIdx := strings.IndexByte(rest, ')'); closeIdx > 0 {
			for _, b := range strings.Split(rest[1:closeIdx], ",") {
				if b = strings.TrimSpace(b); b != "" {
					bases = append(bases, b)
				}
			}
		}
	} else if strings.HasPrefix(rest, "extends ") {
		base := strings.TrimSpace(rest[len("extends "):])
		if cut := strings.IndexAny(base, " {"); cut > 0 {
			base = base[:cut]
		}
		if base != "" {
			bases = append(bases, base)
		}
	}
	return name, bases
}

// extractQuoted returns the first single- or double-quoted string in s.
func extractQuoted(s string) string {
	for _, q := range []byte{'\'', '"'} {
		start := strings.IndexByte(s, q)
		if start < 0 {
			continue
		}
		end := strings.IndexByte(s[start+1:], q)
		if end < 0 {
			continue
		}
		return s[start+1 : start+1+end]
	}
	return ""
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i], i == 0) {
			return false
		}
	}
	return true
}

func isIdentChar(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '$':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}
