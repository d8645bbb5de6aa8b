package models

// SchemaType identifies the ecosystem a schema declaration comes from.
type SchemaType string

const (
	SchemaPydantic   SchemaType = "pydantic"
	SchemaZod        SchemaType = "zod"
	SchemaTypeScript SchemaType = "typescript"
	SchemaOpenAPI    SchemaType = "openapi"
	SchemaJSONSchema SchemaType = "jsonschema"
	SchemaOrmModel   SchemaType = "orm"
)

// SchemaReference identifies a named data-model declaration. Two references
// are the same schema when name, file and line all match; Metadata carries
// ecosystem-specific extras (serialized field lists, raw JSON schema bodies)
// without widening the common model.
type SchemaReference struct {
	Name       string            `json:"name"`
	SchemaType SchemaType        `json:"schemaType"`
	Location   Location          `json:"location"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NewSchemaReference creates a reference with an initialized metadata map.
func NewSchemaReference(name string, schemaType SchemaType, location Location) *SchemaReference {
	return &SchemaReference{
		Name:       name,
		SchemaType: schemaType,
		Location:   location,
		Metadata:   map[string]string{},
	}
}

// Equal reports identity by (name, file, line).
func (s *SchemaReference) Equal(other *SchemaReference) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Name == other.Name &&
		s.Location.File == other.Location.File &&
		s.Location.Line == other.Location.Line
}

// MissingSchemaKey marks a reference that stands in for an unvalidated
// payload (dict[str, Any], any). MissingSchemaRule keys off it.
const MissingSchemaKey = "missing_schema"

// IsMissing reports whether the reference carries the missing-schema flag.
func (s *SchemaReference) IsMissing() bool {
	if s == nil {
		return true
	}
	_, ok := s.Metadata[MissingSchemaKey]
	return ok
}

// BaseType is the language-agnostic base kind of a value.
type BaseType string

const (
	BaseString  BaseType = "string"
	BaseNumber  BaseType = "number"
	BaseInteger BaseType = "integer"
	BaseBoolean BaseType = "boolean"
	BaseObject  BaseType = "object"
	BaseArray   BaseType = "array"
	BaseNull    BaseType = "null"
	BaseAny     BaseType = "any"
	BaseUnknown BaseType = "unknown"
)

// BaseTypeOf maps a declared type name from either ecosystem onto a BaseType.
func BaseTypeOf(typeName string) BaseType {
	switch normalizeTypeName(typeName) {
	case "str", "string":
		return BaseString
	case "int", "integer":
		return BaseInteger
	case "number", "float", "double":
		return BaseNumber
	case "bool", "boolean":
		return BaseBoolean
	case "list", "array":
		return BaseArray
	case "dict", "object":
		return BaseObject
	case "null", "none":
		return BaseNull
	case "any":
		return BaseAny
	default:
		return BaseUnknown
	}
}

func normalizeTypeName(name string) string {
	lower := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '[' || c == '<' {
			break
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		lower = append(lower, c)
	}
	return string(lower)
}

// ConstraintKind is the validation category attached to a type.
type ConstraintKind string

const (
	ConstraintMin     ConstraintKind = "min"
	ConstraintMax     ConstraintKind = "max"
	ConstraintPattern ConstraintKind = "pattern"
	ConstraintEmail   ConstraintKind = "email"
	ConstraintURL     ConstraintKind = "url"
	ConstraintEnum    ConstraintKind = "enum"
)

// Constraint is one validation rule on a field or type. Value holds the
// bound/pattern for kinds that carry one; Values holds enum members.
type Constraint struct {
	Kind   ConstraintKind `json:"kind"`
	Value  string         `json:"value,omitempty"`
	Values []string       `json:"values,omitempty"`
}

// TypeInfo describes the declared or inferred type at one site. SchemaRef
// links to a richer named schema when the type is a composite model.
type TypeInfo struct {
	BaseType    BaseType         `json:"baseType"`
	SchemaRef   *SchemaReference `json:"schemaRef,omitempty"`
	Constraints []Constraint     `json:"constraints,omitempty"`
	Optional    bool             `json:"optional"`
}

// AnyType returns the TypeInfo used when nothing is declared.
func AnyType() TypeInfo {
	return TypeInfo{BaseType: BaseAny}
}

// HasConstraint reports whether the type carries a constraint of the kind.
func (t TypeInfo) HasConstraint(kind ConstraintKind) bool {
	for _, c := range t.Constraints {
		if c.Kind == kind {
			return true
		}
	}
	return false
}
