package internalcheck

import (
	"fmt"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const backendPath = "github.com/hsiuhsiu/go-magic/pkg/magic/internal/backend"

func TestCgoConfinedToBackend(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles,
	}

	pkgs, err := packages.Load(cfg, "github.com/hsiuhsiu/go-magic/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	var findings []string
	fset := token.NewFileSet()

	for _, pkg := range pkgs {
		if pkg.PkgPath == backendPath {
			continue
		}

		files := append(append([]string{}, pkg.GoFiles...), pkg.IgnoredFiles...)
		for _, name := range files {
			if !strings.HasSuffix(name, ".go") {
				continue
			}

			file, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
			if err != nil {
				t.Fatalf("parse %s: %v", name, err)
			}

			for _, imp := range file.Imports {
				path, err := strconv.Unquote(imp.Path.Value)
				if err != nil {
					continue
				}
				if path == "C" {
					findings = append(findings, fmt.Sprintf("%s: cgo belongs in %s", fset.Position(imp.Pos()), backendPath))
				}
			}
		}
	}

	if len(findings) > 0 {
		t.Fatalf("cgo confinement violation:\n%s", strings.Join(findings, "\n"))
	}
}
