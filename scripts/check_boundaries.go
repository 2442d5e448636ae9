package main

import (
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Enforces the hexagonal layering of every bounded context:
// domain imports only its own domain, application and ports import only
// their module's inner layers plus shared contracts, and no context imports
// another context.

const modulePath = "ballotbox"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

func main() {
	root := flag.String("root", "contexts", "directory holding <context>/<service> modules")
	flag.Parse()

	violations, err := collectViolations(*root)
	if err != nil {
		fmt.Printf("boundary check failed: %v\n", err)
		os.Exit(1)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) ([]violation, error) {
	var violations []violation

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			return nil
		}

		modulePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[0], parts[1])
		violations = append(violations, validateFile(path, filepath.ToSlash(path), parts[2], modulePrefix)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].File == violations[j].File {
			if violations[i].Line == violations[j].Line {
				return violations[i].Import < violations[j].Import
			}
			return violations[i].Line < violations[j].Line
		}
		return violations[i].File < violations[j].File
	})
	return violations, nil
}

func validateFile(path string, normalizedPath string, layer string, modulePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalizedPath, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		report := func(rule string) {
			violations = append(violations, violation{File: normalizedPath, Line: line, Import: importPath, Rule: rule})
		}

		if strings.HasPrefix(importPath, modulePath+"/contexts/") && !hasPrefix(importPath, modulePrefix) {
			report("cross-module imports are forbidden")
		}

		var allowed []string
		switch layer {
		case "domain":
			allowed = []string{modulePrefix + "/domain"}
		case "ports":
			allowed = []string{modulePrefix + "/domain", modulePath + "/contracts"}
		case "application":
			allowed = []string{
				modulePrefix + "/application",
				modulePrefix + "/domain",
				modulePrefix + "/ports",
				modulePath + "/contracts",
			}
		default:
			continue
		}

		if strings.Contains(importPath, "/adapters/") {
			report(layer + " must not import adapters")
		}
		if hasPrefix(importPath, modulePath+"/internal") {
			report(layer + " must not import runtime infrastructure")
		}
		if !isStdlib(importPath) && !isAllowed(importPath, allowed) {
			report(layer + " import is outside explicit allowlist")
		}
	}
	return violations
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
