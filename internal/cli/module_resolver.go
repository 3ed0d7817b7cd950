package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// ModuleResolver handles resolving Go module information for generated
// packages.
type ModuleResolver struct{}

// NewModuleResolver creates a new module resolver.
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{}
}

// FindGoMod walks up from startDir until it finds a go.mod file.
func (r *ModuleResolver) FindGoMod(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return goModPath, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod file not found above %s", startDir)
		}
		dir = parent
	}
}

// ModuleName parses the module path out of a go.mod file.
func (r *ModuleResolver) ModuleName(goModPath string) (string, error) {
	content, err := os.ReadFile(goModPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod file: %w", err)
	}
	modFile, err := modfile.Parse(goModPath, content, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if modFile.Module == nil {
		return "", fmt.Errorf("no module declaration found in %s", goModPath)
	}
	return modFile.Module.Mod.Path, nil
}

// PackagePath computes the import path of the package in dir, relative to the
// module that contains it.
func (r *ModuleResolver) PackagePath(dir string) (string, error) {
	goModPath, err := r.FindGoMod(dir)
	if err != nil {
		return "", err
	}
	moduleName, err := r.ModuleName(goModPath)
	if err != nil {
		return "", err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(filepath.Dir(goModPath), absDir)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return moduleName, nil
	}
	if strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("directory %s is outside module %s", dir, moduleName)
	}
	return moduleName + "/" + rel, nil
}
