package typescript

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/schema"
)

// interfaceSchemaRef reads an interface declaration into a SchemaReference
// with the encoded field list in metadata.
func interfaceSchemaRef(node *sitter.Node, src []byte, file string) *models.SchemaReference {
	nameNode := node.ChildByFieldName("name")
	body := node.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		return nil
	}
	ref := models.NewSchemaReference(nameNode.Content(src), models.SchemaTypeScript,
		models.NewLocation(file, line(node)))

	var specs []schema.FieldSpec
	eachNamedChild(body, func(member *sitter.Node) {
		if member.Type() != "property_signature" {
			return
		}
		if spec, ok := propertySpec(member, src); ok {
			specs = append(specs, spec)
		}
	})
	ref.Metadata[schema.FieldsKey] = schema.EncodeFields(specs)
	return ref
}

// typeAliasSchemaRef reads `type X = {...}` object aliases the same way as
// interfaces; non-object aliases record their target type text instead.
func typeAliasSchemaRef(node *sitter.Node, src []byte, file string) *models.SchemaReference {
	nameNode := node.ChildByFieldName("name")
	value := node.ChildByFieldName("value")
	if nameNode == nil || value == nil {
		return nil
	}
	ref := models.NewSchemaReference(nameNode.Content(src), models.SchemaTypeScript,
		models.NewLocation(file, line(node)))

	if value.Type() == "object_type" {
		var specs []schema.FieldSpec
		eachNamedChild(value, func(member *sitter.Node) {
			if member.Type() != "property_signature" {
				return
			}
			if spec, ok := propertySpec(member, src); ok {
				specs = append(specs, spec)
			}
		})
		ref.Metadata[schema.FieldsKey] = schema.EncodeFields(specs)
		return ref
	}
	ref.Metadata[schema.TypeKey] = strings.TrimSpace(value.Content(src))
	return ref
}

// propertySpec reads one `name?: type` member.
func propertySpec(member *sitter.Node, src []byte) (schema.FieldSpec, bool) {
	nameNode := member.ChildByFieldName("name")
	if nameNode == nil {
		return schema.FieldSpec{}, false
	}
	spec := schema.FieldSpec{
		Name:     stripQuotes(nameNode.Content(src)),
		Type:     "any",
		Optional: hasToken(member, "?"),
	}
	if typeNode := member.ChildByFieldName("type"); typeNode != nil {
		annotation := annotationText(typeNode, src)
		if stripped, changed := stripNullable(annotation); changed {
			spec.Nullable = true
			annotation = stripped
		}
		spec.Type = annotation
	}
	return spec, true
}

// zodChainBases maps a Zod builder to the field type it produces.
var zodChainBases = map[string]string{
	"string":  "string",
	"number":  "number",
	"boolean": "boolean",
	"date":    "string",
	"array":   "array",
	"object":  "object",
	"enum":    "string",
	"any":     "any",
	"unknown": "any",
}

// zodSchemaRef recognizes `const X = z.object({...})` declarators and reads
// the field list, including .optional()/.nullable() chains and validation
// refinements. Returns nil when the declarator is not a Zod object schema.
func zodSchemaRef(declarator *sitter.Node, src []byte, file string) *models.SchemaReference {
	nameNode := declarator.ChildByFieldName("name")
	value := declarator.ChildByFieldName("value")
	if nameNode == nil || value == nil || value.Type() != "call_expression" {
		return nil
	}
	chain := dottedName(value, src)
	if chain != "z.object" && !strings.HasSuffix(chain, ".object") {
		return nil
	}
	args := value.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	object := args.NamedChild(0)
	if object.Type() != "object" {
		return nil
	}

	ref := models.NewSchemaReference(nameNode.Content(src), models.SchemaZod,
		models.NewLocation(file, line(declarator)))
	var specs []schema.FieldSpec
	eachNamedChild(object, func(pair *sitter.Node) {
		if pair.Type() != "pair" {
			return
		}
		key := pair.ChildByFieldName("key")
		chainNode := pair.ChildByFieldName("value")
		if key == nil || chainNode == nil {
			return
		}
		spec := schema.FieldSpec{Name: stripQuotes(key.Content(src)), Type: "any"}
		applyZodChain(chainNode, src, &spec)
		specs = append(specs, spec)
	})
	ref.Metadata[schema.FieldsKey] = schema.EncodeFields(specs)
	return ref
}

// applyZodChain walks a builder chain like z.string().email().optional()
// from the outermost call inward, accumulating modifiers and constraints
// before landing on the base builder.
func applyZodChain(node *sitter.Node, src []byte, spec *schema.FieldSpec) {
	for node != nil && node.Type() == "call_expression" {
		fn := node.ChildByFieldName("function")
		if fn == nil || fn.Type() != "member_expression" {
			return
		}
		property := fn.ChildByFieldName("property")
		object := fn.ChildByFieldName("object")
		if property == nil || object == nil {
			return
		}
		method := property.Content(src)
		if base, ok := zodChainBases[method]; ok && object.Content(src) == "z" {
			spec.Type = base
			return
		}
		applyZodModifier(method, node, src, spec)
		node = object
	}
}

func applyZodModifier(method string, call *sitter.Node, src []byte, spec *schema.FieldSpec) {
	arg := ""
	if args := call.ChildByFieldName("arguments"); args != nil && args.NamedChildCount() > 0 {
		arg = strings.TrimSpace(args.NamedChild(0).Content(src))
	}
	switch method {
	case "optional":
		spec.Optional = true
	case "nullable", "nullish":
		spec.Nullable = true
		if method == "nullish" {
			spec.Optional = true
		}
	case "email":
		spec.Constraints = append(spec.Constraints, models.Constraint{Kind: models.ConstraintEmail})
	case "url":
		spec.Constraints = append(spec.Constraints, models.Constraint{Kind: models.ConstraintURL})
	case "min", "gte", "gt":
		spec.Constraints = append(spec.Constraints, models.Constraint{Kind: models.ConstraintMin, Value: arg})
	case "max", "lte", "lt":
		spec.Constraints = append(spec.Constraints, models.Constraint{Kind: models.ConstraintMax, Value: arg})
	case "regex":
		spec.Constraints = append(spec.Constraints, models.Constraint{Kind: models.ConstraintPattern, Value: stripQuotes(arg)})
	}
}
