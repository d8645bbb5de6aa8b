package typescript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sett11/dc-verifier-sub001/models"
)

// knownExternal lists npm packages commonly imported by the projects this
// tool analyzes. They resolve to external dependencies, never to a broken
// local path.
var knownExternal = map[string]bool{
	"react":             true,
	"react-dom":         true,
	"axios":             true,
	"zod":               true,
	"@nestjs/common":    true,
	"@nestjs/core":      true,
	"@nestjs/swagger":   true,
	"rxjs":              true,
	"express":           true,
	"next":              true,
	"vue":               true,
	"class-validator":   true,
	"class-transformer": true,
	"typeorm":           true,
	"@prisma/client":    true,
}

// resolveImport maps a TypeScript import specifier onto a project file.
// Relative specifiers try the .ts/.tsx extensions plus the index file of a
// directory import; bare specifiers are packages.
func resolveImport(spec, currentFile string) (string, error) {
	if spec == "" {
		return "", &models.ResolutionFailedError{Import: spec, Reason: "empty import specifier"}
	}
	if !strings.HasPrefix(spec, ".") {
		pkg := spec
		if strings.HasPrefix(pkg, "@") {
			parts := strings.SplitN(pkg, "/", 3)
			if len(parts) >= 2 {
				pkg = parts[0] + "/" + parts[1]
			}
		} else {
			pkg = strings.SplitN(pkg, "/", 2)[0]
		}
		if knownExternal[pkg] {
			return "", &models.ExternalDependencyError{
				Module:     pkg,
				Suggestion: fmt.Sprintf("Install with: npm install %s", pkg),
			}
		}
		return "", &models.ResolutionFailedError{
			Import: spec,
			Reason: fmt.Sprintf("unknown package %s", pkg),
		}
	}

	base := filepath.Join(filepath.Dir(currentFile), spec)
	candidates := []string{
		base,
		base + ".ts",
		base + ".tsx",
		filepath.Join(base, "index.ts"),
		filepath.Join(base, "index.tsx"),
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", &models.ResolutionFailedError{
		Import: spec,
		Reason: fmt.Sprintf("no module file at %s", base),
	}
}

// importBinding is one name made visible by an import statement.
type importBinding struct {
	name string
	spec string
	file string
}
