package mvt

import (
	"fmt"
	"strings"
)

// ErrTemplate is returned when a layer query cannot be turned into a
// template with exactly the slots the compiler knows how to fill.
type ErrTemplate struct {
	Layer  string
	Reason string
}

func (e ErrTemplate) Error() string {
	if e.Layer == "" {
		return "mvt: invalid query template: " + e.Reason
	}
	return fmt.Sprintf("mvt: layer %q has an invalid query template: %v", e.Layer, e.Reason)
}

// ErrUnknownLayers is returned when a layer selection names ids the tileset
// does not have.
type ErrUnknownLayers struct {
	Layers    []string
	Available []string
}

func (e ErrUnknownLayers) Error() string {
	return fmt.Sprintf("mvt: unable to find layer [%v]. Available layers:\n* %v",
		strings.Join(e.Layers, ", "), strings.Join(e.Available, "\n* "))
}

type ErrNoLayers struct{}

func (ErrNoLayers) Error() string { return "mvt: could not find any layer definitions" }

// ErrVersion is returned for a database version string that cannot be parsed.
type ErrVersion struct {
	Input string
}

func (e ErrVersion) Error() string {
	return fmt.Sprintf("mvt: unable to parse PostGIS version %q", e.Input)
}

// ErrCapability is returned when a requested feature is not available for
// the negotiated database version.
type ErrCapability struct {
	Feature string
	Version Version
}

func (e ErrCapability) Error() string {
	return fmt.Sprintf("mvt: %v is not supported by PostGIS %v", e.Feature, e.Version)
}

type ErrInvalidOption struct {
	Option string
	Reason string
}

func (e ErrInvalidOption) Error() string {
	return fmt.Sprintf("mvt: invalid option %v: %v", e.Option, e.Reason)
}
