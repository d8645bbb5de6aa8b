package schema

import "github.com/Sett11/dc-verifier-sub001/models"

// Registry indexes the data-model declarations discovered across a project
// by name. Route materialization uses it to upgrade a bare declared type
// name into the full schema declared elsewhere.
type Registry struct {
	schemas map[string]*models.SchemaReference
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: map[string]*models.SchemaReference{}}
}

// Register stores ref under its name and reports whether it took effect.
// The first registration wins; a later declaration with the same name does
// not replace it.
func (r *Registry) Register(ref *models.SchemaReference) bool {
	if ref == nil || ref.Name == "" {
		return false
	}
	if _, exists := r.schemas[ref.Name]; exists {
		return false
	}
	r.schemas[ref.Name] = ref
	return true
}

// Lookup returns the schema registered under exactly name.
func (r *Registry) Lookup(name string) (*models.SchemaReference, bool) {
	ref, ok := r.schemas[name]
	return ref, ok
}

// suffixes tried by LookupVariant, in order.
var variantSuffixes = []string{"Schema", "Model", "Request", "Response", "DTO", "Dto"}

// LookupVariant resolves name allowing the common naming-convention
// suffixes (User -> UserSchema, UserModel, ...). Exact match wins.
func (r *Registry) LookupVariant(name string) (*models.SchemaReference, bool) {
	if ref, ok := r.schemas[name]; ok {
		return ref, true
	}
	for _, suffix := range variantSuffixes {
		if ref, ok := r.schemas[name+suffix]; ok {
			return ref, true
		}
	}
	return nil, false
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	return len(r.schemas)
}

// Resolve upgrades a declared type name into a TypeInfo, attaching the
// registered schema when the name matches one; unregistered names keep
// their base type only.
func (r *Registry) Resolve(typeName string) models.TypeInfo {
	info := models.TypeInfo{BaseType: models.BaseTypeOf(typeName)}
	if ref, ok := r.LookupVariant(typeName); ok {
		info.BaseType = models.BaseObject
		info.SchemaRef = ref
	}
	return info
}
