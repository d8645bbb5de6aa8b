package python

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sett11/dc-verifier-sub001/models"
)

// knownExternal lists PyPI packages commonly imported by the projects this
// tool analyzes. An import of one of these resolves to an external
// dependency rather than a broken local path, which changes how strict
// mode reports it.
var knownExternal = map[string]bool{
	"fastapi":       true,
	"pydantic":      true,
	"sqlalchemy":    true,
	"starlette":     true,
	"uvicorn":       true,
	"fastapi_users": true,
	"httpx":         true,
	"requests":      true,
	"typing":        true,
	"datetime":      true,
	"os":            true,
	"sys":           true,
	"json":          true,
	"enum":          true,
	"uuid":          true,
	"re":            true,
	"asyncio":       true,
	"collections":   true,
	"abc":           true,
	"pathlib":       true,
}

// resolveImport maps a Python import path onto a project file. Relative
// imports (".models", "..db.crud") resolve against the importing file;
// absolute ones against the project root. Failures are typed: a known
// external package yields ExternalDependencyError with an install hint,
// anything else ResolutionFailedError.
func resolveImport(importPath, currentFile, projectRoot string) (string, error) {
	if importPath == "" {
		return "", &models.ResolutionFailedError{Import: importPath, Reason: "empty import path"}
	}

	var base string
	spec := importPath
	if strings.HasPrefix(importPath, ".") {
		base = filepath.Dir(currentFile)
		for strings.HasPrefix(spec, ".") {
			spec = spec[1:]
			if strings.HasPrefix(spec, ".") {
				base = filepath.Dir(base)
			}
		}
	} else {
		head := strings.SplitN(importPath, ".", 2)[0]
		if knownExternal[head] {
			return "", &models.ExternalDependencyError{
				Module:     head,
				Suggestion: fmt.Sprintf("Install with: pip install %s", head),
			}
		}
		base = projectRoot
	}

	relative := strings.ReplaceAll(spec, ".", string(filepath.Separator))
	candidates := []string{
		filepath.Join(base, relative+".py"),
		filepath.Join(base, relative, "__init__.py"),
	}
	if relative == "" {
		candidates = []string{filepath.Join(base, "__init__.py")}
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", &models.ResolutionFailedError{
		Import: importPath,
		Reason: fmt.Sprintf("no module file under %s", base),
	}
}

// importBinding is one name made visible by an import statement.
type importBinding struct {
	name       string // local name ("crud", "UserCreate")
	importPath string // as written in the source
	file       string // resolved project file, "" when external/unresolved
}
