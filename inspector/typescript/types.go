package typescript

import (
	"strings"

	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/schema"
)

// resolveAnnotation turns a TypeScript type annotation into a TypeInfo,
// upgrading named types through the registry. Record and any/unknown
// payloads get the missing-schema sentinel the contract rules key off.
func resolveAnnotation(annotation string, registry *schema.Registry, location models.Location) models.TypeInfo {
	annotation = strings.TrimSpace(annotation)
	if annotation == "" {
		return models.AnyType()
	}

	if inner, ok := genericInner(annotation, "Promise"); ok {
		return resolveAnnotation(inner, registry, location)
	}
	if inner, changed := stripNullable(annotation); changed {
		info := resolveAnnotation(inner, registry, location)
		info.Optional = true
		return info
	}
	if strings.HasSuffix(annotation, "[]") {
		element := resolveAnnotation(strings.TrimSuffix(annotation, "[]"), registry, location)
		return models.TypeInfo{BaseType: models.BaseArray, SchemaRef: element.SchemaRef}
	}
	if inner, ok := genericInner(annotation, "Array", "ReadonlyArray"); ok {
		element := resolveAnnotation(inner, registry, location)
		return models.TypeInfo{BaseType: models.BaseArray, SchemaRef: element.SchemaRef}
	}
	if _, ok := genericInner(annotation, "Record"); ok {
		return missingSchemaType(annotation, location)
	}

	switch annotation {
	case "any", "unknown", "object", "{}":
		return missingSchemaType(annotation, location)
	case "string":
		return models.TypeInfo{BaseType: models.BaseString}
	case "number", "bigint":
		return models.TypeInfo{BaseType: models.BaseNumber}
	case "boolean":
		return models.TypeInfo{BaseType: models.BaseBoolean}
	case "null", "undefined", "void":
		return models.TypeInfo{BaseType: models.BaseNull}
	}

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
	ref := models.NewSchemaReference(annotation, models.SchemaTypeScript, location)
	ref.Metadata[models.MissingSchemaKey] = "true"
	base := models.BaseObject
	if annotation == "any" || annotation == "unknown" {
		base = models.BaseAny
	}
	return models.TypeInfo{BaseType: base, SchemaRef: ref}
}

// genericInner extracts T from Name<T> for any of the given names; for
// multi-argument generics the whole argument list is returned.
func genericInner(annotation string, names ...string) (string, bool) {
	for _, name := range names {
		prefix := name + "<"
		if strings.HasPrefix(annotation, prefix) && strings.HasSuffix(annotation, ">") {
			return strings.TrimSpace(annotation[len(prefix) : len(annotation)-1]), true
		}
	}
	return "", false
}

// stripNullable removes null and undefined members from a union type;
// changed reports whether anything was removed.
func stripNullable(annotation string) (string, bool) {
	if !strings.Contains(annotation, "|") {
		return annotation, false
	}
	parts := strings.Split(annotation, "|")
	kept := parts[:0]
	changed := false
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "null" || part == "undefined" {
			changed = true
			continue
		}
		kept = append(kept, part)
	}
	if !changed || len(kept) == 0 {
		return annotation, false
	}
	return strings.Join(kept, " | "), true
}
