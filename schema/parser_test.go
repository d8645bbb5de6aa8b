package schema_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/schema"
)

func TestParse_FieldList(t *testing.T) {
	ref := models.NewSchemaReference("ItemCreate", models.SchemaPydantic, models.Location{})
	ref.Metadata[schema.FieldsKey] = schema.EncodeFields([]schema.FieldSpec{
		{Name: "name", Type: "str"},
		{Name: "price", Type: "float", Constraints: []models.Constraint{{Kind: models.ConstraintMin, Value: "0"}}},
		{Name: "tag", Type: "str", Optional: true},
		{Name: "note", Type: "str", Nullable: true},
	})

	parsed, err := schema.Parse(ref)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "price", "tag", "note"}, parsed.FieldOrder)
	assert.Equal(t, []string{"name", "price"}, parsed.Required)

	price := parsed.Properties["price"]
	assert.Equal(t, models.BaseNumber, price.BaseType)
	require.Len(t, price.Constraints, 1)
	assert.Equal(t, models.ConstraintMin, price.Constraints[0].Kind)

	// nullable counts as optional for presence checks
	assert.True(t, parsed.Properties["note"].Optional)
	assert.False(t, parsed.IsRequired("tag"))
}

func TestParse_JSONSchema(t *testing.T) {
	ref := models.NewSchemaReference("User", models.SchemaJSONSchema, models.Location{})
	ref.Metadata[schema.JSONSchemaKey] = `{
		"type": "object",
		"properties": {
			"email": {"type": "string", "format": "email"},
			"age": {"type": "number", "minimum": 0, "maximum": 150},
			"role": {"type": "string", "enum": ["admin", "user"]}
		},
		"required": ["email"]
	}`

	parsed, err := schema.Parse(ref)
	require.NoError(t, err)

	email := parsed.Properties["email"]
	assert.False(t, email.Optional)
	require.Len(t, email.Constraints, 1)
	assert.Equal(t, models.ConstraintEmail, email.Constraints[0].Kind)

	age := parsed.Properties["age"]
	assert.True(t, age.Optional)
	require.Len(t, age.Constraints, 2)
	assert.Equal(t, "0", age.Constraints[0].Value)
	assert.Equal(t, "150", age.Constraints[1].Value)

	role := parsed.Properties["role"]
	require.Len(t, role.Constraints, 1)
	assert.Equal(t, []string{"admin", "user"}, role.Constraints[0].Values)
}

func TestParse_JSONSchemaFieldOrderStable(t *testing.T) {
	body := `{"type": "object", "properties": {`
	for i, name := range []string{"f", "j", "l", "k", "c", "b", "e", "a", "h", "d", "g", "i"} {
		if i > 0 {
			body += ","
		}
		body += `"` + name + `": {"type": "string"}`
	}
	body += `}}`
	ref := models.NewSchemaReference("Wide", models.SchemaJSONSchema, models.Location{})
	ref.Metadata[schema.JSONSchemaKey] = body

	first, err := schema.Parse(ref)
	require.NoError(t, err)
	require.Len(t, first.FieldOrder, 12)
	assert.True(t, sort.StringsAreSorted(first.FieldOrder))

	for i := 0; i < 20; i++ {
		again, err := schema.Parse(ref)
		require.NoError(t, err)
		require.Equal(t, first.FieldOrder, again.FieldOrder)
	}
}

func TestParse_MalformedJSONSchema(t *testing.T) {
	ref := models.NewSchemaReference("Broken", models.SchemaJSONSchema, models.Location{})
	ref.Metadata[schema.JSONSchemaKey] = `{"type": "object",`

	_, err := schema.Parse(ref)
	assert.Error(t, err)
}

func TestParse_ScalarAlias(t *testing.T) {
	ref := models.NewSchemaReference("UserId", models.SchemaTypeScript, models.Location{})
	ref.Metadata[schema.TypeKey] = "number"

	parsed, err := schema.Parse(ref)
	require.NoError(t, err)
	assert.Equal(t, string(models.BaseNumber), parsed.SchemaType)
	assert.Empty(t, parsed.Properties)
}

func TestParse_BareReference(t *testing.T) {
	ref := models.NewSchemaReference("Opaque", models.SchemaTypeScript, models.Location{})

	parsed, err := schema.Parse(ref)
	require.NoError(t, err)
	assert.Equal(t, string(models.BaseObject), parsed.SchemaType)
	assert.Empty(t, parsed.Properties)

	_, err = schema.Parse(nil)
	assert.Error(t, err)
}

func TestDecodeFields_Malformed(t *testing.T) {
	assert.Nil(t, schema.DecodeFields("not json"))
}

func TestRegistry_VariantLookup(t *testing.T) {
	reg := schema.NewRegistry()
	ref := models.NewSchemaReference("UserSchema", models.SchemaZod, models.Location{})
	require.True(t, reg.Register(ref))
	assert.False(t, reg.Register(ref), "first registration wins")

	got, ok := reg.LookupVariant("User")
	require.True(t, ok)
	assert.Same(t, ref, got)

	_, ok = reg.Lookup("User")
	assert.False(t, ok)

	info := reg.Resolve("User")
	assert.Equal(t, models.BaseObject, info.BaseType)
	assert.Same(t, ref, info.SchemaRef)
}
