package main

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"thumbgen/internal/infra"
)

var sqlStatementPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with|create)\b`)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
}

type seenMarker struct {
	file string
	line int
	name string
}

// Lint walks targets (files or directories) and reports missing, malformed
// or duplicated markers.
func Lint(targets ...string) ([]violation, error) {
	var violations []violation
	seen := make(map[string]seenMarker)
	lint := func(path string) error {
		vs, err := lintFile(path, seen)
		violations = append(violations, vs...)
		return err
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(target) == ".go" {
				if err := lint(target); err != nil {
					return nil, err
				}
			}
			continue
		}
		err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != target && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			return lint(path)
		})
		if err != nil {
			return nil, err
		}
	}
	return violations, nil
}

func lintFile(path string, seen map[string]seenMarker) ([]violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	var violations []violation
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for _, value := range vs.Values {
			bl, ok := value.(*ast.BasicLit)
			if !ok || bl.Kind != token.STRING {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil || !sqlStatementPattern.MatchString(raw) {
				continue
			}
			pos := fset.Position(bl.Pos())
			name := joinNames(vs.Names)
			marker, _, err := infra.ExtractMarker(raw)
			if errors.Is(err, infra.ErrMissingMarker) {
				if strings.HasPrefix(strings.TrimSpace(raw), "--sql") || looksLikeStatement(raw) {
					violations = append(violations, violation{file: path, line: pos.Line, name: name, message: "missing or invalid --sql <uuid> marker"})
				}
				continue
			}
			if prev, dup := seen[marker]; dup {
				violations = append(violations, violation{
					file: path, line: pos.Line, name: name,
					message: fmt.Sprintf("marker %s already used by %s at %s:%d", marker, prev.name, prev.file, prev.line),
				})
				continue
			}
			seen[marker] = seenMarker{file: path, line: pos.Line, name: name}
		}
		return true
	})
	return violations, nil
}

// looksLikeStatement filters out prose that merely contains an SQL keyword.
func looksLikeStatement(raw string) bool {
	first := strings.ToLower(strings.TrimSpace(raw))
	for _, kw := range []string{"select ", "insert ", "update ", "delete ", "with", "create "} {
		if strings.HasPrefix(first, kw) {
			return true
		}
	}
	return false
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func joinNames(idents []*ast.Ident) string {
	parts := make([]string, 0, len(idents))
	for _, ident := range idents {
		if ident == nil {
			continue
		}
		parts = append(parts, ident.Name)
	}
	return strings.Join(parts, ",")
}
