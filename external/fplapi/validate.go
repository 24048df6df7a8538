package fplapi

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Warning records a payload shape mismatch. Warnings are advisory: the
// upstream format is not contractually guaranteed, so a mismatch is
// logged and the payload is still returned to the caller.
type Warning struct {
	Endpoint string
	Field    string
	Reason   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Endpoint, w.Field, w.Reason)
}

type shapeValidator struct {
	validate *validator.Validate
}

func newShapeValidator() *shapeValidator {
	return &shapeValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// check validates one decoded record and converts every field violation
// into a warning instead of an error.
func (v *shapeValidator) check(endpoint, record string, value any) []Warning {
	err := v.validate.Struct(value)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []Warning{{Endpoint: endpoint, Field: record, Reason: err.Error()}}
	}

	warnings := make([]Warning, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		warnings = append(warnings, Warning{
			Endpoint: endpoint,
			Field:    record + "." + fe.Field(),
			Reason:   fmt.Sprintf("failed %q constraint", fe.Tag()),
		})
	}
	return warnings
}

// validateBootstrap checks the bulk snapshot document shape: the four
// top-level collections and per-record required fields.
func (v *shapeValidator) validateBootstrap(endpoint string, doc *BootstrapStatic) []Warning {
	var warnings []Warning

	if len(doc.Teams) == 0 {
		warnings = append(warnings, Warning{Endpoint: endpoint, Field: "teams", Reason: "collection is empty"})
	}
	if len(doc.Elements) == 0 {
		warnings = append(warnings, Warning{Endpoint: endpoint, Field: "elements", Reason: "collection is empty"})
	}
	if len(doc.Events) == 0 {
		warnings = append(warnings, Warning{Endpoint: endpoint, Field: "events", Reason: "collection is empty"})
	}
	if len(doc.ElementTypes) == 0 {
		warnings = append(warnings, Warning{Endpoint: endpoint, Field: "element_types", Reason: "collection is empty"})
	}

	for i, t := range doc.Teams {
		warnings = append(warnings, v.check(endpoint, fmt.Sprintf("teams[%d]", i), t)...)
	}
	for i, e := range doc.Elements {
		warnings = append(warnings, v.check(endpoint, fmt.Sprintf("elements[%d]", i), e)...)
	}
	for i, gw := range doc.Events {
		warnings = append(warnings, v.check(endpoint, fmt.Sprintf("events[%d]", i), gw)...)
	}
	return warnings
}

func (v *shapeValidator) validateFixtures(endpoint string, rows []RawFixture) []Warning {
	var warnings []Warning
	for i, f := range rows {
		warnings = append(warnings, v.check(endpoint, fmt.Sprintf("fixtures[%d]", i), f)...)
	}
	return warnings
}
