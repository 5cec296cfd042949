package service

import (
	"fmt"
	"time"

	"data-playground/internal/playground/domain/model"
	sharedErrors "data-playground/internal/shared/errors"

	"github.com/google/cel-go/cel"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const filterCostLimit = 100000

// IndexedEntry is an entry together with its position.
type IndexedEntry struct {
	Index int         `json:"index"`
	Entry model.Entry `json:"entry"`
}

// EntryFilter compiles boolean CEL expressions over the variable entry.
type EntryFilter struct {
	env    *cel.Env
	maxLen int
}

// NewEntryFilter creates the CEL environment used for filters
func NewEntryFilter(maxLen int) (*EntryFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("entry", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &EntryFilter{env: env, maxLen: maxLen}, nil
}

// Compile turns expr into a program. Errors are validation errors on the
// filter field.
func (f *EntryFilter) Compile(expr string) (cel.Program, error) {
	if f.maxLen > 0 && len(expr) > f.maxLen {
		return nil, filterError(fmt.Sprintf("must be at most %d characters", f.maxLen))
	}

	ast, issues := f.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, filterError(issues.Err().Error())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, filterError("must evaluate to a boolean")
	}

	program, err := f.env.Program(ast, cel.CostLimit(filterCostLimit))
	if err != nil {
		return nil, filterError(err.Error())
	}
	return program, nil
}

// Apply returns the entries for which expr is true, keeping their
// positions. Entries that fail to evaluate are excluded.
func (f *EntryFilter) Apply(expr string, entries []model.Entry) ([]IndexedEntry, error) {
	program, err := f.Compile(expr)
	if err != nil {
		return nil, err
	}

	out := make([]IndexedEntry, 0)
	for i, e := range entries {
		val, _, err := program.Eval(map[string]interface{}{"entry": normalizeEntry(e)})
		if err != nil {
			continue
		}
		matched, ok := val.Value().(bool)
		if !ok {
			return nil, filterError("must evaluate to a boolean")
		}
		if matched {
			out = append(out, IndexedEntry{Index: i, Entry: e})
		}
	}
	return out, nil
}

// All wraps every entry with its index
func All(entries []model.Entry) []IndexedEntry {
	out := make([]IndexedEntry, len(entries))
	for i, e := range entries {
		out[i] = IndexedEntry{Index: i, Entry: e}
	}
	return out
}

// normalizeEntry converts stored BSON values into types CEL understands.
func normalizeEntry(e model.Entry) map[string]interface{} {
	out := make(map[string]interface{}, len(e))
	for k, v := range e {
		switch val := v.(type) {
		case primitive.DateTime:
			out[k] = val.Time().UTC()
		case time.Time:
			out[k] = val.UTC()
		case int32:
			out[k] = float64(val)
		case int64:
			out[k] = float64(val)
		case int:
			out[k] = float64(val)
		default:
			out[k] = v
		}
	}
	return out
}

func filterError(msg string) error {
	return sharedErrors.NewValidationErrors().Add("filter", msg, nil).ToAppError()
}
