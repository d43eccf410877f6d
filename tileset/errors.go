package tileset

import (
	"fmt"
	"strings"
)

type ErrDuplicateLayer struct {
	Layer string
}

func (e ErrDuplicateLayer) Error() string {
	return fmt.Sprintf("tileset: layer %q is defined more than once", e.Layer)
}

type ErrMissingLayerID struct {
	Index int
}

func (e ErrMissingLayerID) Error() string {
	return fmt.Sprintf("tileset: layer at position %v has no id", e.Index)
}

// ErrInvalidLayer wraps any validation failure of a single layer definition.
type ErrInvalidLayer struct {
	Layer string
	Err   error
}

func (e ErrInvalidLayer) Error() string {
	return fmt.Sprintf("tileset: layer %q: %v", e.Layer, e.Err)
}

func (e ErrInvalidLayer) Cause() error { return e.Err }

type ErrGeometryFieldDeclared struct {
	Field string
}

func (e ErrGeometryFieldDeclared) Error() string {
	return fmt.Sprintf("must not declare the implicit geometry field %q in its fields", e.Field)
}

type ErrDuplicateField struct {
	Field string
}

func (e ErrDuplicateField) Error() string {
	return fmt.Sprintf("field %q is declared more than once", e.Field)
}

// ErrKeyFieldAsAttribute is returned when a layer asks for its key field to be
// emitted both as the feature id and as an attribute.
type ErrKeyFieldAsAttribute struct {
	KeyField string
}

func (e ErrKeyFieldAsAttribute) Error() string {
	return fmt.Sprintf("key_field_as_attribute is not supported (key field %q)", e.KeyField)
}

type ErrBufferRequired struct{}

func (ErrBufferRequired) Error() string { return "buffer_size is required" }

type ErrBufferBelowMinimum struct {
	BufferSize    int
	MinBufferSize int
}

func (e ErrBufferBelowMinimum) Error() string {
	return fmt.Sprintf("buffer_size (%v) is smaller than min_buffer_size (%v)", e.BufferSize, e.MinBufferSize)
}

// ErrInvalidOverride is returned for an override source that holds a value
// which is not a non-negative integer.
type ErrInvalidOverride struct {
	Source string
	Value  string
}

func (e ErrInvalidOverride) Error() string {
	return fmt.Sprintf("invalid buffer size %q from %v", e.Value, e.Source)
}

type ErrMissingQuery struct{}

func (ErrMissingQuery) Error() string { return "datasource query is required" }

// ErrUnknownRequirement is returned when a layer requires a layer id that is
// not part of the tileset.
type ErrUnknownRequirement struct {
	Layer     string
	Required  string
	Available []string
}

func (e ErrUnknownRequirement) Error() string {
	return fmt.Sprintf("tileset: unknown layer %q required by layer %q (available layers: %v)",
		e.Required, e.Layer, strings.Join(e.Available, ", "))
}

type ErrCircularDependency struct {
	Layers []string
}

func (e ErrCircularDependency) Error() string {
	return fmt.Sprintf("tileset: circular dependency found in layer requirements: %v", strings.Join(e.Layers, ", "))
}

// ErrInvalidCondition describes a field value condition that cannot be
// turned into SQL.
type ErrInvalidCondition struct {
	Field  string
	Value  string
	Reason string
}

func (e ErrInvalidCondition) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("field %q: %v", e.Field, e.Reason)
	}
	return fmt.Sprintf("field %q value %q: %v", e.Field, e.Value, e.Reason)
}
