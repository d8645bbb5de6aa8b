package analyzer

import (
	"fmt"

	"github.com/Sett11/dc-verifier-sub001/models"
	"github.com/Sett11/dc-verifier-sub001/schema"
)

// Rule inspects one contract and reports the mismatches it finds. Rules
// are pure over the contract's two schemas; the checker unions their
// output in registration order.
type Rule interface {
	Name() string
	Check(contract *models.Contract) []models.Mismatch
}

// Policy assigns a severity to each rule's findings.
type Policy struct {
	TypeMismatch  models.Severity
	MissingField  models.Severity
	ExtraField    models.Severity
	Unnormalized  models.Severity
	MissingSchema models.Severity
}

// DefaultPolicy returns the severities used when the caller supplies none.
func DefaultPolicy() Policy {
	return Policy{
		TypeMismatch:  models.SeverityCritical,
		MissingField:  models.SeverityWarning,
		ExtraField:    models.SeverityInfo,
		Unnormalized:  models.SeverityInfo,
		MissingSchema: models.SeverityWarning,
	}
}

// parseBoth resolves the two schema shapes of a contract; ok is false when
// either side fails to parse, which a rule treats as nothing to check.
func parseBoth(contract *models.Contract) (from, to *schema.ObjectSchema, ok bool) {
	from, err := schema.Parse(contract.FromSchema)
	if err != nil {
		return nil, nil, false
	}
	to, err = schema.Parse(contract.ToSchema)
	if err != nil {
		return nil, nil, false
	}
	return from, to, true
}

func fieldType(field schema.FieldInfo) models.TypeInfo {
	return models.TypeInfo{
		BaseType:    field.BaseType,
		Constraints: field.Constraints,
		Optional:    field.Optional,
	}
}

// TypeMismatchRule flags fields declared with different base types on the
// two sides. Any/unknown on either side is not a conflict.
type TypeMismatchRule struct {
	Severity models.Severity
}

func (r *TypeMismatchRule) Name() string { return "type-mismatch" }

func (r *TypeMismatchRule) Check(contract *models.Contract) []models.Mismatch {
	from, to, ok := parseBoth(contract)
	if !ok {
		return nil
	}
	var mismatches []models.Mismatch
	for _, name := range from.FieldOrder {
		fromField := from.Properties[name]
		toField, present := to.Properties[name]
		if !present {
			continue
		}
		if fromField.BaseType == toField.BaseType {
			continue
		}
		if isLoose(fromField.BaseType) || isLoose(toField.BaseType) {
			continue
		}
		mismatches = append(mismatches, models.Mismatch{
			MismatchType: models.TypeMismatch,
			Path:         name,
			Expected:     fieldType(toField),
			Actual:       fieldType(fromField),
			Location:     contract.ToSchema.Location,
			Message: fmt.Sprintf("field %s is %s on the sending side but %s is expected",
				name, fromField.BaseType, toField.BaseType),
			Severity: r.Severity,
		})
	}
	return mismatches
}

func isLoose(base models.BaseType) bool {
	return base == models.BaseAny || base == models.BaseUnknown
}

// MissingFieldRule flags fields the receiving side requires but the
// sending side never provides.
type MissingFieldRule struct {
	Severity models.Severity
}

func (r *MissingFieldRule) Name() string { return "missing-field" }

func (r *MissingFieldRule) Check(contract *models.Contract) []models.Mismatch {
	from, to, ok := parseBoth(contract)
	if !ok {
		return nil
	}
	var mismatches []models.Mismatch
	for _, name := range to.FieldOrder {
		if !to.IsRequired(name) {
			continue
		}
		if _, present := from.Properties[name]; present {
			continue
		}
		toField := to.Properties[name]
		mismatches = append(mismatches, models.Mismatch{
			MismatchType: models.MissingField,
			Path:         name,
			Expected:     fieldType(toField),
			Actual:       models.AnyType(),
			Location:     contract.ToSchema.Location,
			Message:      fmt.Sprintf("required field %s is never sent", name),
			Severity:     r.Severity,
		})
	}
	return mismatches
}

// ExtraFieldRule flags fields the sending side provides that the receiving
// side does not declare. Usually harmless, hence the low default severity.
type ExtraFieldRule struct {
	Severity models.Severity
}

func (r *ExtraFieldRule) Name() string { return "extra-field" }

func (r *ExtraFieldRule) Check(contract *models.Contract) []models.Mismatch {
	from, to, ok := parseBoth(contract)
	if !ok {
		return nil
	}
	if len(to.Properties) == 0 {
		return nil
	}
	var mismatches []models.Mismatch
	for _, name := range from.FieldOrder {
		if _, present := to.Properties[name]; present {
			continue
		}
		fromField := from.Properties[name]
		mismatches = append(mismatches, models.Mismatch{
			MismatchType: models.ExtraField,
			Path:         name,
			Expected:     models.AnyType(),
			Actual:       fieldType(fromField),
			Location:     contract.FromSchema.Location,
			Message:      fmt.Sprintf("field %s is sent but not declared on the receiving side", name),
			Severity:     r.Severity,
		})
	}
	return mismatches
}

// UnnormalizedDataRule flags string fields the receiving side validates
// (email, url, pattern) while the sending side puts no shape on them; such
// data reaches the boundary unnormalized.
type UnnormalizedDataRule struct {
	Severity models.Severity
}

func (r *UnnormalizedDataRule) Name() string { return "unnormalized-data" }

func (r *UnnormalizedDataRule) Check(contract *models.Contract) []models.Mismatch {
	from, to, ok := parseBoth(contract)
	if !ok {
		return nil
	}
	var mismatches []models.Mismatch
	for _, name := range to.FieldOrder {
		toField := to.Properties[name]
		if toField.BaseType != models.BaseString {
			continue
		}
		fromField, present := from.Properties[name]
		if !present {
			continue
		}
		kind, validated := normalizingConstraint(toField.Constraints)
		if !validated {
			continue
		}
		if hasConstraintKind(fromField.Constraints, kind) {
			continue
		}
		mismatches = append(mismatches, models.Mismatch{
			MismatchType: models.UnnormalizedData,
			Path:         name,
			Expected:     fieldType(toField),
			Actual:       fieldType(fromField),
			Location:     contract.ToSchema.Location,
			Message: fmt.Sprintf("field %s is validated as %s on the receiving side but sent unvalidated",
				name, kind),
			Severity: r.Severity,
		})
	}
	return mismatches
}

func normalizingConstraint(constraints []models.Constraint) (models.ConstraintKind, bool) {
	for _, c := range constraints {
		switch c.Kind {
		case models.ConstraintEmail, models.ConstraintURL, models.ConstraintPattern:
			return c.Kind, true
		}
	}
	return "", false
}

func hasConstraintKind(constraints []models.Constraint, kind models.ConstraintKind) bool {
	for _, c := range constraints {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// MissingSchemaRule flags junctions where either side carries the
// missing-schema sentinel, meaning data crosses the boundary with no
// declared shape at all.
type MissingSchemaRule struct {
	Severity models.Severity
}

func (r *MissingSchemaRule) Name() string { return "missing-schema" }

func (r *MissingSchemaRule) Check(contract *models.Contract) []models.Mismatch {
	var mismatches []models.Mismatch
	for _, side := range []struct {
		ref  *models.SchemaReference
		role string
	}{
		{contract.FromSchema, "sending"},
		{contract.ToSchema, "receiving"},
	} {
		if side.ref == nil || !side.ref.IsMissing() {
			continue
		}
		mismatches = append(mismatches, models.Mismatch{
			MismatchType: models.MissingSchema,
			Expected:     models.AnyType(),
			Actual:       models.AnyType(),
			Location:     side.ref.Location,
			Message:      fmt.Sprintf("the %s side has no declared schema (%s)", side.role, side.ref.Name),
			Severity:     r.Severity,
		})
	}
	return mismatches
}
