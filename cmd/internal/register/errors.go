package register

import (
	"fmt"
)

type ErrInvalidCenter struct {
	Center []float64
}

func (e ErrInvalidCenter) Error() string {
	return fmt.Sprintf("center must be [lon, lat, zoom], got %v", e.Center)
}

type ErrInvalidBounds struct {
	Bounds []float64
}

func (e ErrInvalidBounds) Error() string {
	return fmt.Sprintf("bounds must be [minx, miny, maxx, maxy], got %v", e.Bounds)
}

type ErrInvalidZoom struct {
	MinZoom uint
	MaxZoom uint
}

func (e ErrInvalidZoom) Error() string {
	return fmt.Sprintf("invalid zoom range minzoom %v maxzoom %v", e.MinZoom, e.MaxZoom)
}

type ErrInvalidField struct {
	Layer string
	Field string
	Err   error
}

func (e ErrInvalidField) Error() string {
	return fmt.Sprintf("layer (%v) field (%v) has invalid values: %v", e.Layer, e.Field, e.Err)
}

func (e ErrInvalidField) Cause() error { return e.Err }

type ErrLayerNotLoaded struct {
	File string
}

func (e ErrLayerNotLoaded) Error() string {
	return fmt.Sprintf("layer file (%v) was not loaded", e.File)
}

type ErrLayerMissingID struct {
	File  string
	Index int
}

func (e ErrLayerMissingID) Error() string {
	return fmt.Sprintf("layer #%v (%v) has no id", e.Index, e.File)
}
