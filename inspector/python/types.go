package python

import (
	"strings"

	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/schema"
)

// resolveAnnotation turns a Python type annotation into a TypeInfo,
// upgrading model names through the registry. dict[str, Any] and bare Any
// payloads get a sentinel reference flagged as missing a schema; the
// contract rules key off that flag.
func resolveAnnotation(annotation string, registry *schema.Registry, location models.Location) models.TypeInfo {
	annotation = strings.TrimSpace(annotation)
	if annotation == "" {
		return models.AnyType()
	}

	if inner, ok := genericInner(annotation, "Optional"); ok {
		info := resolveAnnotation(inner, registry, location)
		info.Optional = true
		return info
	}
	if inner, ok := unionWithNone(annotation); ok {
		info := resolveAnnotation(inner, registry, location)
		info.Optional = true
		return info
	}
	if inner, ok := genericInner(annotation, "list", "List"); ok {
		info := models.TypeInfo{BaseType: models.BaseArray}
		element := resolveAnnotation(inner, registry, location)
		info.SchemaRef = element.SchemaRef
		return info
	}
	if _, ok := genericInner(annotation, "dict", "Dict"); ok {
		return missingSchemaType(annotation, location)
	}

	switch annotation {
	case "Any", "any", "object":
		return missingSchemaType(annotation, location)
	case "str", "EmailStr":
		info := models.TypeInfo{BaseType: models.BaseString}
		if annotation == "EmailStr" {
			info.Constraints = []models.Constraint{{Kind: models.ConstraintEmail}}
		}
		return info
	case "int":
		return models.TypeInfo{BaseType: models.BaseInteger}
	case "float":
		return models.TypeInfo{BaseType: models.BaseNumber}
	case "bool":
		return models.TypeInfo{BaseType: models.BaseBoolean}
	case "None":
		return models.TypeInfo{BaseType: models.BaseNull}
	case "dict":
		return missingSchemaType(annotation, location)
	}

	// qualified names (schemas.ItemCreate) resolve by their last segment
	name := annotation
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	if ref, ok := registry.LookupVariant(name); ok {
		return models.TypeInfo{BaseType: models.BaseObject, SchemaRef: ref}
	}
	return models.TypeInfo{BaseType: models.BaseTypeOf(annotation)}
}

// missingSchemaType builds the sentinel for unvalidated payloads.
func missingSchemaType(annotation string, location models.Location) models.TypeInfo {
	ref := models.NewSchemaReference(annotation, models.SchemaJSONSchema, location)
	ref.Metadata[models.MissingSchemaKey] = "true"
	base := models.BaseObject
	if annotation == "Any" || annotation == "any" {
		base = models.BaseAny
	}
	return models.TypeInfo{BaseType: base, SchemaRef: ref}
}

// genericInner extracts T from Name[T] for any of the given generic names.
func genericInner(annotation string, names ...string) (string, bool) {
	for _, name := range names {
		prefix := name + "["
		if strings.HasPrefix(annotation, prefix) && strings.HasSuffix(annotation, "]") {
			return strings.TrimSpace(annotation[len(prefix) : len(annotation)-1]), true
		}
	}
	return "", false
}

// unionWithNone recognizes "X | None" and "None | X".
func unionWithNone(annotation string) (string, bool) {
	parts := strings.Split(annotation, "|")
	if len(parts) != 2 {
		return "", false
	}
	left, right := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if left == "None" {
		return right, true
	}
	if right == "None" {
		return left, true
	}
	return "", false
}
