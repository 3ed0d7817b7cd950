package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/berth-go/berth/pkg/berth/aot"
)

// Generator drives ahead-of-time generation for a set of discovered fixtures
// and writes the resulting files.
type Generator struct {
	reporter *Reporter
	resolver *ModuleResolver
}

// NewGenerator creates a CLI generator.
func NewGenerator(reporter *Reporter) *Generator {
	return &Generator{
		reporter: reporter,
		resolver: NewModuleResolver(),
	}
}

// Generate writes one registration file per fixture into outDir, which must
// be a package directory inside the current module.
func (g *Generator) Generate(fixtures []Fixture, outDir, pkgName string) error {
	pkgPath, err := g.resolver.PackagePath(outDir)
	if err != nil {
		return err
	}
	if pkgName == "" {
		pkgName = filepath.Base(outDir)
	}
	gen := aot.NewGenerator()
	for _, fixture := range fixtures {
		target := aot.Target{
			PkgPath:      pkgPath,
			PkgName:      pkgName,
			FileName:     generatedFileName(fixture.Plan.Declaration.Ident),
			Declarations: fixture.Vars,
		}
		file, err := gen.Generate(fixture.Plan, target)
		if err != nil {
			return fmt.Errorf("failed to generate code for %s: %w", fixture.Plan.Declaration.FQName(), err)
		}
		outPath := filepath.Join(outDir, file.FileName)
		if err := os.WriteFile(outPath, file.Source, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		g.reporter.Successf("generated %s (%d fields, %d methods)",
			outPath, len(fixture.Plan.Fields), len(fixture.Plan.Methods))
	}
	return nil
}

func generatedFileName(ident string) string {
	return "autogen_" + strings.ToLower(ident) + ".go"
}
