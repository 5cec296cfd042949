package service

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"data-playground/internal/playground/domain/model"
	sharedErrors "data-playground/internal/shared/errors"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

var timeOfDayRegex = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// entryValidate holds the value checks for entry fields. It is configured
// once here and only read afterwards.
var entryValidate = newEntryValidator()

func newEntryValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("entrydate", func(fl validator.FieldLevel) bool {
		_, err := parseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return timeOfDayRegex.MatchString(fl.Field().String())
	})
	return v
}

// valueTags maps a field type to the validator tags its coerced value must
// pass. Text and number have no constraints beyond their type.
var valueTags = map[model.FieldType]string{
	model.FieldTypeRating: "gte=0,lte=5",
	model.FieldTypeDate:   "entrydate",
	model.FieldTypeTime:   "hhmm",
}

var tagMessages = map[string]string{
	"gte":       "must be between 0 and 5",
	"lte":       "must be between 0 and 5",
	"entrydate": "must be a valid date (YYYY-MM-DD or RFC3339)",
	"hhmm":      "must be a time in HH:MM format",
}

// Rule validates and coerces the raw value of one field.
type Rule struct {
	Field model.Field
}

// RuleSet is the immutable validator for a collection schema.
type RuleSet struct {
	rules []Rule
	index map[string]int
	tags  map[string]interface{}
}

// BuildRules derives a RuleSet from the declared fields. The fields are
// copied so later schema edits do not affect an existing RuleSet.
func BuildRules(fields []model.Field) RuleSet {
	rs := RuleSet{
		rules: make([]Rule, len(fields)),
		index: make(map[string]int, len(fields)),
		tags:  make(map[string]interface{}, len(fields)),
	}
	for i, f := range fields {
		rs.rules[i] = Rule{Field: f}
		rs.index[f.Name] = i
		if tag, ok := valueTags[f.Type]; ok {
			rs.tags[f.Name] = tag
		}
	}
	return rs
}

// Fields returns the declared field names in order
func (rs RuleSet) Fields() []string {
	names := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		names[i] = r.Field.Name
	}
	return names
}

// Validate checks raw against the schema and returns the sanitized entry.
// All violations are reported: declared fields first in declaration order,
// then unknown keys sorted by name.
func (rs RuleSet) Validate(raw map[string]interface{}) (model.Entry, error) {
	problems := make(map[string]string, len(rs.rules))
	coerced := make(map[string]interface{}, len(rs.rules))

	for _, rule := range rs.rules {
		value, present := raw[rule.Field.Name]
		if !present || value == nil {
			problems[rule.Field.Name] = "is required"
			continue
		}
		v, msg := rule.coerce(value)
		if msg != "" {
			problems[rule.Field.Name] = msg
			continue
		}
		coerced[rule.Field.Name] = v
	}

	tags := make(map[string]interface{}, len(coerced))
	for name := range coerced {
		if tag, ok := rs.tags[name]; ok {
			tags[name] = tag
		}
	}
	for name, err := range entryValidate.ValidateMap(coerced, tags) {
		problems[name] = valueMessage(err)
	}

	ve := sharedErrors.NewValidationErrors()
	entry := make(model.Entry, len(rs.rules))
	for _, rule := range rs.rules {
		name := rule.Field.Name
		if msg, bad := problems[name]; bad {
			ve.Add(name, msg, raw[name])
			continue
		}
		entry[name] = rule.store(coerced[name])
	}

	unknown := make([]string, 0)
	for key := range raw {
		if _, declared := rs.index[key]; !declared {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		ve.Add(key, "is not a declared field", raw[key])
	}

	if ve.HasErrors() {
		return nil, ve.ToAppError()
	}
	return entry, nil
}

func valueMessage(err interface{}) string {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		if msg, known := tagMessages[fieldErrs[0].Tag()]; known {
			return msg
		}
		return "failed " + fieldErrs[0].Tag() + " check"
	}
	return fmt.Sprint(err)
}

// coerce converts the raw value to the field's Go type or returns a
// non-empty message
func (r Rule) coerce(value interface{}) (interface{}, string) {
	switch r.Field.Type {
	case model.FieldTypeText:
		s, ok := value.(string)
		if !ok {
			return nil, "must be a string"
		}
		return Sanitize(s), ""

	case model.FieldTypeNumber, model.FieldTypeRating:
		f, ok := toFloat(value)
		if !ok {
			return nil, "must be a number"
		}
		return f, ""

	case model.FieldTypeDate:
		s, ok := value.(string)
		if !ok {
			return nil, "must be a date string"
		}
		return Sanitize(s), ""

	case model.FieldTypeTime:
		s, ok := value.(string)
		if !ok {
			return nil, "must be a time string"
		}
		return Sanitize(s), ""

	default:
		return nil, fmt.Sprintf("has unsupported type %q", r.Field.Type)
	}
}

// store turns a checked value into its stored form. Dates become UTC
// timestamps.
func (r Rule) store(value interface{}) interface{} {
	if r.Field.Type == model.FieldTypeDate {
		if s, ok := value.(string); ok {
			t, _ := parseDate(s)
			return t
		}
	}
	return value
}

// toFloat accepts JSON numbers and plain decimal strings. Hex, exponent
// and other strconv forms are rejected.
func toFloat(value interface{}) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		v = strings.TrimSpace(v)
		if entryValidate.Var(v, "required,numeric") != nil {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
