package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds a single-row insert from the exported `db` tagged fields of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

// InsertModels builds a multi-row insert; every model must share one struct type.
func InsertModels[T any](table string, models []T, suffix string) (string, []any, error) {
	if len(models) == 0 {
		return "", nil, fmt.Errorf("insert models are required")
	}

	b := InsertInto(table).Suffix(suffix)
	for i, model := range models {
		cols, vals, err := columnsAndValuesFromModel(model)
		if err != nil {
			return "", nil, fmt.Errorf("model %d: %w", i, err)
		}
		if i == 0 {
			b.Columns(cols...)
		}
		b.Values(vals...)
	}
	return b.ToSQL()
}

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, skip := columnFromTag(field.Tag.Get("db"))
		if skip {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}

// columnFromTag honours `db:"name"` and skips `db:"-"` or `db:"name,readonly"`.
func columnFromTag(tag string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(tag), ",")
	col := strings.TrimSpace(parts[0])
	if col == "" || col == "-" {
		return "", true
	}
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "readonly" {
			return "", true
		}
	}
	return col, false
}
