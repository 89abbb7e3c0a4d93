package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
)

// requiredString reads a non-empty string field.
func requiredString(v cue.Value, field string) (string, error) {
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s is required", field),
			Pos:     v.Pos(),
		}
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEErrorAt(err, field)
	}
	if s == "" {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s must be non-empty", field),
			Pos:     val.Pos(),
		}
	}
	return s, nil
}

// optionalString reads a string field, returning "" when absent. An
// optional field left unset by the document is not concrete and counts as
// absent.
func optionalString(v cue.Value, field string) (string, error) {
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() || !val.IsConcrete() {
		return "", nil
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEErrorAt(err, field)
	}
	return s, nil
}

// stringList reads an optional list of strings.
func stringList(v cue.Value, field string) ([]string, error) {
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return nil, nil
	}
	iter, err := val.List()
	if err != nil {
		return nil, formatCUEErrorAt(err, field)
	}
	var out []string
	for i := 0; iter.Next(); i++ {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEErrorAt(err, fmt.Sprintf("%s[%d]", field, i))
		}
		out = append(out, s)
	}
	return out, nil
}

// boolField reads a bool, resolving schema defaults; def applies when the
// field is absent altogether.
func boolField(v cue.Value, field string, def bool) (bool, error) {
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return def, nil
	}
	if d, ok := val.Default(); ok {
		val = d
	}
	b, err := val.Bool()
	if err != nil {
		return false, formatCUEErrorAt(err, field)
	}
	return b, nil
}

// defaultedString reads a string field with a schema default.
func defaultedString(v cue.Value, field, def string) (string, error) {
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return def, nil
	}
	if d, ok := val.Default(); ok {
		val = d
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEErrorAt(err, field)
	}
	return s, nil
}

// eachElem calls fn for every element of the list at field.
func eachElem(v cue.Value, field string, fn func(i int, elem cue.Value) error) error {
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return nil
	}
	iter, err := val.List()
	if err != nil {
		return formatCUEErrorAt(err, field)
	}
	for i := 0; iter.Next(); i++ {
		if err := fn(i, iter.Value()); err != nil {
			return err
		}
	}
	return nil
}
