// Package schema turns SchemaReference metadata into a structural shape the
// contract rules can compare field by field, and indexes the data-model
// declarations found by the language frontends.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/Sett11/dc-verifier-sub001/models"
)

// FieldSpec is the wire form one schema field takes inside
// SchemaReference.Metadata["fields"]. Language frontends encode these; the
// parser decodes them back.
type FieldSpec struct {
	Name        string              `json:"name"`
	Type        string              `json:"type"`
	Optional    bool                `json:"optional,omitempty"`
	Nullable    bool                `json:"nullable,omitempty"`
	Constraints []models.Constraint `json:"constraints,omitempty"`
}

// FieldsKey is the metadata key carrying the encoded field list.
const FieldsKey = "fields"

// JSONSchemaKey is the metadata key carrying a raw JSON Schema body.
const JSONSchemaKey = "json_schema"

// TypeKey is the metadata key carrying the base type of a scalar alias.
const TypeKey = "type"

// EncodeFields serializes specs for storage in schema metadata.
func EncodeFields(specs []FieldSpec) string {
	data, err := json.Marshal(specs)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodeFields parses a metadata field list; a malformed list yields nil.
func DecodeFields(encoded string) []FieldSpec {
	var specs []FieldSpec
	if err := json.Unmarshal([]byte(encoded), &specs); err != nil {
		return nil
	}
	return specs
}

// FieldInfo is one field of a parsed schema shape.
type FieldInfo struct {
	TypeName    string
	BaseType    models.BaseType
	Optional    bool
	Constraints []models.Constraint
	Nested      *ObjectSchema
}

// ObjectSchema is the structural shape of a schema, normalized across
// ecosystems for comparison. FieldOrder preserves declaration order so rule
// output is deterministic.
type ObjectSchema struct {
	SchemaType  string
	Properties  map[string]FieldInfo
	FieldOrder  []string
	Required    []string
	Items       *ObjectSchema
	Constraints []models.Constraint
}

// IsRequired reports whether name is a required field.
func (s *ObjectSchema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Parse turns ref into its structural shape. Preference order: a raw JSON
// Schema body in metadata, then an encoded field list, then a scalar type
// alias; a reference with none of these parses as an empty object.
func Parse(ref *models.SchemaReference) (*ObjectSchema, error) {
	if ref == nil {
		return nil, fmt.Errorf("cannot parse nil schema reference")
	}
	if raw, ok := ref.Metadata[JSONSchemaKey]; ok {
		return parseJSONSchema([]byte(raw))
	}
	if encoded, ok := ref.Metadata[FieldsKey]; ok {
		return parseFieldList(encoded), nil
	}
	if alias, ok := ref.Metadata[TypeKey]; ok {
		return &ObjectSchema{
			SchemaType: string(models.BaseTypeOf(alias)),
			Properties: map[string]FieldInfo{},
		}, nil
	}
	return &ObjectSchema{
		SchemaType: string(models.BaseObject),
		Properties: map[string]FieldInfo{},
	}, nil
}

func parseFieldList(encoded string) *ObjectSchema {
	out := &ObjectSchema{
		SchemaType: string(models.BaseObject),
		Properties: map[string]FieldInfo{},
	}
	for _, spec := range DecodeFields(encoded) {
		if spec.Name == "" || spec.Type == "" {
			continue
		}
		out.Properties[spec.Name] = FieldInfo{
			TypeName:    spec.Type,
			BaseType:    models.BaseTypeOf(spec.Type),
			Optional:    spec.Optional || spec.Nullable,
			Constraints: spec.Constraints,
		}
		out.FieldOrder = append(out.FieldOrder, spec.Name)
		if !spec.Optional && !spec.Nullable {
			out.Required = append(out.Required, spec.Name)
		}
	}
	return out
}

func parseJSONSchema(raw []byte) (*ObjectSchema, error) {
	var value map[string]any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("malformed json schema: %w", err)
	}
	schema := parseJSONValue(value)
	// required wins over per-property optionality
	for name, field := range schema.Properties {
		field.Optional = !schema.IsRequired(name)
		schema.Properties[name] = field
	}
	return schema, nil
}

func parseJSONValue(value map[string]any) *ObjectSchema {
	schemaType, _ := value["type"].(string)
	if schemaType == "" {
		schemaType = "object"
	}
	out := &ObjectSchema{
		SchemaType:  schemaType,
		Properties:  map[string]FieldInfo{},
		Constraints: jsonConstraints(value),
	}
	if props, ok := value["properties"].(map[string]any); ok {
		// decoded maps have no declaration order; sort so FieldOrder and
		// therefore every rule's mismatch order is stable across runs
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			prop, ok := props[name].(map[string]any)
			if !ok {
				continue
			}
			out.Properties[name] = parseJSONProperty(prop)
			out.FieldOrder = append(out.FieldOrder, name)
		}
	}
	if required, ok := value["required"].([]any); ok {
		for _, raw := range required {
			if name, ok := raw.(string); ok {
				out.Required = append(out.Required, name)
			}
		}
	}
	if items, ok := value["items"].(map[string]any); ok {
		out.Items = parseJSONValue(items)
	}
	return out
}

func parseJSONProperty(prop map[string]any) FieldInfo {
	typeName, _ := prop["type"].(string)
	if typeName == "" {
		typeName = "any"
	}
	info := FieldInfo{
		TypeName:    typeName,
		BaseType:    models.BaseTypeOf(typeName),
		Optional:    true, // resolved later against required
		Constraints: jsonConstraints(prop),
	}
	if typeName == "object" {
		info.Nested = parseJSONValue(prop)
	}
	return info
}

func jsonConstraints(value map[string]any) []models.Constraint {
	var constraints []models.Constraint
	if min, ok := value["minimum"].(float64); ok {
		constraints = append(constraints, models.Constraint{Kind: models.ConstraintMin, Value: formatNumber(min)})
	}
	if max, ok := value["maximum"].(float64); ok {
		constraints = append(constraints, models.Constraint{Kind: models.ConstraintMax, Value: formatNumber(max)})
	}
	if minLen, ok := value["minLength"].(float64); ok {
		constraints = append(constraints, models.Constraint{Kind: models.ConstraintMin, Value: formatNumber(minLen)})
	}
	if maxLen, ok := value["maxLength"].(float64); ok {
		constraints = append(constraints, models.Constraint{Kind: models.ConstraintMax, Value: formatNumber(maxLen)})
	}
	if pattern, ok := value["pattern"].(string); ok {
		constraints = append(constraints, models.Constraint{Kind: models.ConstraintPattern, Value: pattern})
	}
	if format, ok := value["format"].(string); ok {
		switch format {
		case "email":
			constraints = append(constraints, models.Constraint{Kind: models.ConstraintEmail})
		case "uri":
			constraints = append(constraints, models.Constraint{Kind: models.ConstraintURL})
		}
	}
	if enum, ok := value["enum"].([]any); ok {
		var values []string
		for _, raw := range enum {
			if s, ok := raw.(string); ok {
				values = append(values, s)
			}
		}
		if len(values) > 0 {
			constraints = append(constraints, models.Constraint{Kind: models.ConstraintEnum, Values: values})
		}
	}
	return constraints
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
