package aot

import (
	"fmt"
	"sort"
	"strings"
)

// ImportManager tracks the packages a generated file references and assigns
// stable aliases, so rendered expressions can qualify names without knowing
// up front which imports the file will need.
type ImportManager struct {
	aliases map[string]string // path -> alias
	used    map[string]bool   // alias -> taken
}

// NewImportManager creates an import manager.
func NewImportManager() *ImportManager {
	return &ImportManager{
		aliases: make(map[string]string),
		used:    make(map[string]bool),
	}
}

// Alias returns the alias for the given import path, registering the import
// on first use.
func (im *ImportManager) Alias(path string) string {
	if alias, ok := im.aliases[path]; ok {
		return alias
	}
	base := sanitizeAlias(path)
	alias := base
	for n := 2; im.used[alias]; n++ {
		alias = fmt.Sprintf("%s%d", base, n)
	}
	im.aliases[path] = alias
	im.used[alias] = true
	return alias
}

// GenerateImports renders the import block for everything registered so far.
func (im *ImportManager) GenerateImports() string {
	if len(im.aliases) == 0 {
		return ""
	}
	paths := make([]string, 0, len(im.aliases))
	for path := range im.aliases {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteString("import (\n")
	for _, path := range paths {
		alias := im.aliases[path]
		if alias == lastElement(path) {
			fmt.Fprintf(&b, "\t%q\n", path)
		} else {
			fmt.Fprintf(&b, "\t%s %q\n", alias, path)
		}
	}
	b.WriteString(")\n")
	return b.String()
}

func sanitizeAlias(path string) string {
	elem := lastElement(path)
	var b strings.Builder
	for _, r := range elem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9' && b.Len() > 0:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "pkg"
	}
	return b.String()
}

func lastElement(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
