package python

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/schema"
)

// pydanticBases are superclass names that mark a class as a Pydantic model.
var pydanticBases = map[string]bool{
	"BaseModel":    true,
	"BaseSettings": true,
	"SQLModel":     true,
}

// ormBases mark SQLAlchemy-style ORM models.
var ormBases = map[string]bool{
	"Base":            true,
	"DeclarativeBase": true,
}

// classSchemaRef inspects a class definition and, when it declares a data
// model, builds its SchemaReference with the encoded field list in
// metadata. Returns nil for plain classes.
func classSchemaRef(node *sitter.Node, src []byte, file string) *models.SchemaReference {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	schemaType, ok := classifyModel(node, src)
	if !ok {
		return nil
	}

	location := models.NewLocation(file, line(node))
	ref := models.NewSchemaReference(nameNode.Content(src), schemaType, location)

	var specs []schema.FieldSpec
	body := node.ChildByFieldName("body")
	if body != nil {
		eachNamedChild(body, func(stmt *sitter.Node) {
			if stmt.Type() != "expression_statement" {
				return
			}
			eachNamedChild(stmt, func(expr *sitter.Node) {
				if expr.Type() != "assignment" {
					return
				}
				if spec, ok := fieldSpecFromAssignment(expr, src); ok {
					specs = append(specs, spec)
				}
			})
		})
	}
	ref.Metadata[schema.FieldsKey] = schema.EncodeFields(specs)
	return ref
}

// classifyModel decides whether the class is a Pydantic or ORM model from
// its superclass list.
func classifyModel(node *sitter.Node, src []byte) (models.SchemaType, bool) {
	superclasses := node.ChildByFieldName("superclasses")
	if superclasses == nil {
		return "", false
	}
	found := models.SchemaType("")
	eachNamedChild(superclasses, func(base *sitter.Node) {
		name := base.Content(src)
		if idx := strings.LastIndex(name, "."); idx >= 0 {
			name = name[idx+1:]
		}
		if pydanticBases[name] {
			found = models.SchemaPydantic
		} else if ormBases[name] && found == "" {
			found = models.SchemaOrmModel
		}
	})
	return found, found != ""
}

// fieldSpecFromAssignment reads one annotated class attribute
// ("price: float = Field(gt=0)") into a FieldSpec.
func fieldSpecFromAssignment(assignment *sitter.Node, src []byte) (schema.FieldSpec, bool) {
	left := assignment.ChildByFieldName("left")
	typeNode := assignment.ChildByFieldName("type")
	if left == nil || typeNode == nil || left.Type() != "identifier" {
		return schema.FieldSpec{}, false
	}

	annotation := strings.TrimSpace(typeNode.Content(src))
	spec := schema.FieldSpec{
		Name: left.Content(src),
		Type: fieldTypeName(annotation),
	}
	if inner, ok := genericInner(annotation, "Optional"); ok {
		spec.Optional = true
		spec.Type = fieldTypeName(inner)
	} else if inner, ok := unionWithNone(annotation); ok {
		spec.Optional = true
		spec.Type = fieldTypeName(inner)
	}
	if annotation == "EmailStr" || spec.Type == "EmailStr" {
		spec.Type = "str"
		spec.Constraints = append(spec.Constraints, models.Constraint{Kind: models.ConstraintEmail})
	}

	if right := assignment.ChildByFieldName("right"); right != nil {
		// a default makes the field optional; Field(...) may add constraints
		value := strings.TrimSpace(right.Content(src))
		if value == "None" {
			spec.Optional = true
		}
		if call := firstNodeOfType(right, "call"); call != nil {
			spec.Constraints = append(spec.Constraints, fieldConstraints(call, src)...)
		}
	}
	return spec, true
}

func fieldTypeName(annotation string) string {
	annotation = strings.TrimSpace(annotation)
	if idx := strings.LastIndex(annotation, "."); idx >= 0 && !strings.Contains(annotation, "[") {
		return annotation[idx+1:]
	}
	return annotation
}

// fieldConstraints extracts validation keywords from a Field(...) call.
func fieldConstraints(call *sitter.Node, src []byte) []models.Constraint {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Content(src) != "Field" {
		return nil
	}
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	var constraints []models.Constraint
	eachNamedChild(args, func(arg *sitter.Node) {
		if arg.Type() != "keyword_argument" {
			return
		}
		name := arg.ChildByFieldName("name")
		value := arg.ChildByFieldName("value")
		if name == nil || value == nil {
			return
		}
		text := strings.TrimSpace(value.Content(src))
		switch name.Content(src) {
		case "min_length", "ge", "gt":
			constraints = append(constraints, models.Constraint{Kind: models.ConstraintMin, Value: text})
		case "max_length", "le", "lt":
			constraints = append(constraints, models.Constraint{Kind: models.ConstraintMax, Value: text})
		case "pattern", "regex":
			constraints = append(constraints, models.Constraint{Kind: models.ConstraintPattern, Value: stripQuotes(text)})
		}
	})
	return constraints
}
