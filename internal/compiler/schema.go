package compiler

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
)

//go:embed schema.cue
var schemaSource string

// Schema is the compiled document schema. Values from different contexts
// cannot be unified, so a Schema is bound to the context that built it and
// documents must be compiled with that same context.
type Schema struct {
	ctx      *cue.Context
	document cue.Value
}

// NewSchema compiles the embedded document schema in ctx.
func NewSchema(ctx *cue.Context) (*Schema, error) {
	v := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	doc := v.LookupPath(cue.ParsePath("#Document"))
	if err := doc.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Document: %w", err)
	}
	return &Schema{ctx: ctx, document: doc}, nil
}

// Context returns the context the schema was compiled in.
func (s *Schema) Context() *cue.Context {
	return s.ctx
}

// Conform unifies a parsed document with the schema and requires the result
// to be concrete. The returned value carries schema defaults (required:
// true, satisfy: "all").
func (s *Schema) Conform(doc cue.Value) (cue.Value, error) {
	if err := doc.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	unified := s.document.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, formatCUEErrorAt(err, "schema")
	}
	return unified, nil
}
