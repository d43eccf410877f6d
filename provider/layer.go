// Package provider holds what is shared by the database providers.
package provider

import (
	"sort"
)

// MVT attribute types as used by the vector_layers entry of TileJSON.
const (
	TypeBoolean = "Boolean"
	TypeString  = "String"
	TypeNumber  = "Number"
)

// pgTypes maps PostgreSQL type names to MVT attribute types.
var pgTypes = map[string]string{
	"bool":    TypeBoolean,
	"text":    TypeString,
	"varchar": TypeString,
	"bpchar":  TypeString,
	"int2":    TypeNumber,
	"int4":    TypeNumber,
	"int8":    TypeNumber,
	"float4":  TypeNumber,
	"float8":  TypeNumber,
	"numeric": TypeNumber,
}

// FieldType returns the MVT attribute type of a PostgreSQL type name.
func FieldType(pgType string) (string, bool) {
	t, ok := pgTypes[pgType]
	return t, ok
}

// VectorLayer is the metadata of a layer as published in TileJSON.
type VectorLayer struct {
	// ID is the name of the layer inside the MVT
	ID          string            `json:"id"`
	Description string            `json:"description"`
	MinZoom     uint              `json:"minzoom"`
	MaxZoom     uint              `json:"maxzoom"`
	Fields      map[string]string `json:"fields"`
}

// FieldNames returns the names of the typed fields, sorted.
func (vl VectorLayer) FieldNames() []string {
	names := make([]string, 0, len(vl.Fields))
	for name := range vl.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
