package service

import (
	"strings"

	"data-playground/internal/playground/domain/model"
	sharedErrors "data-playground/internal/shared/errors"
)

const (
	maxCollectionNameLen = 100
	maxFieldNameLen      = 64
	maxFields            = 50
)

// NormalizeDefinition trims and checks a collection name and schema.
// Duplicate field names (case-insensitive) are a conflict; every other
// problem is a validation error.
func NormalizeDefinition(name string, fields []model.Field) (string, []model.Field, error) {
	ve := sharedErrors.NewValidationErrors()

	name = Sanitize(name)
	switch {
	case name == "":
		ve.Add("name", "is required", nil)
	case len([]rune(name)) > maxCollectionNameLen:
		ve.Add("name", "must be at most 100 characters", nil)
	}

	normalized, err := NormalizeFields(fields, ve)
	if err != nil {
		return "", nil, err
	}
	if ve.HasErrors() {
		return "", nil, ve.ToAppError()
	}
	return name, normalized, nil
}

// NormalizeFields validates a schema, appending problems to ve. The returned
// error is non-nil only for duplicate names.
func NormalizeFields(fields []model.Field, ve *sharedErrors.ValidationErrors) ([]model.Field, error) {
	if len(fields) == 0 {
		ve.Add("fields", "at least one field is required", nil)
		return nil, nil
	}
	if len(fields) > maxFields {
		ve.Add("fields", "too many fields", len(fields))
		return nil, nil
	}

	seen := make(map[string]struct{}, len(fields))
	out := make([]model.Field, 0, len(fields))
	for _, f := range fields {
		name := Sanitize(f.Name)
		switch {
		case name == "":
			ve.Add("fields", "field name is required", nil)
			continue
		case len(name) > maxFieldNameLen:
			ve.Add(name, "field name must be at most 64 characters", nil)
			continue
		case strings.ContainsAny(name, "."):
			ve.Add(name, "field name must not contain '.'", nil)
			continue
		}
		ft := model.FieldType(strings.ToLower(strings.TrimSpace(string(f.Type))))
		if !ft.Valid() {
			ve.Add(name, "has unsupported type; expected one of text, number, date, rating, time", f.Type)
			continue
		}

		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, sharedErrors.NewConflictError("duplicate field name: " + name).
				WithCause(sharedErrors.ErrDuplicateField).
				WithDetail("field", name)
		}
		seen[key] = struct{}{}
		out = append(out, model.Field{Name: name, Type: ft})
	}
	return out, nil
}
