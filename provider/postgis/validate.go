package postgis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/atlasdatatech/sqltomvt/internal/log"
	"github.com/atlasdatatech/sqltomvt/mvt"
	"github.com/atlasdatatech/sqltomvt/provider"
)

// Prober runs a query and reports the columns of its result.
type Prober interface {
	ProbeColumns(ctx context.Context, sql string) ([]Column, error)
}

// ErrMissingGeometry is returned when a layer query does not return the
// layer's geometry field.
type ErrMissingGeometry struct {
	Layer string
	Field string
}

func (e ErrMissingGeometry) Error() string {
	return fmt.Sprintf("postgis: layer %q query does not return the geometry field %q", e.Layer, e.Field)
}

// ErrFieldMismatch is returned when the columns of a layer query differ from
// the fields the layer declares.
type ErrFieldMismatch struct {
	Layer string
	// Undeclared are returned by the query but not declared.
	Undeclared []string
	// Missing are declared but not returned by the query.
	Missing []string
}

func (e ErrFieldMismatch) Error() string {
	var parts []string
	if len(e.Undeclared) > 0 {
		parts = append(parts, fmt.Sprintf("query returns undeclared fields [%v]", strings.Join(e.Undeclared, ", ")))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("declared fields [%v] are not returned by the query", strings.Join(e.Missing, ", ")))
	}
	return fmt.Sprintf("postgis: layer %q: %v", e.Layer, strings.Join(parts, "; "))
}

// ErrValidation holds every layer error of a failed tileset validation, in
// layer order.
type ErrValidation struct {
	Errs []error
}

func (e ErrValidation) Error() string {
	msgs := make([]string, len(e.Errs))
	for i := range e.Errs {
		msgs[i] = e.Errs[i].Error()
	}
	return fmt.Sprintf("postgis: %v layer(s) failed validation:\n* %v", len(e.Errs), strings.Join(msgs, "\n* "))
}

// ValidateLayer probes the query of a selected layer and checks that it
// returns the geometry field and exactly the declared fields.
func ValidateLayer(ctx context.Context, p Prober, c *mvt.Compiler, id string) (provider.VectorLayer, error) {
	sql, err := c.ProbeQuery(id)
	if err != nil {
		return provider.VectorLayer{}, err
	}
	ts := c.Tileset()
	l, _ := ts.Layer(id)

	cols, err := p.ProbeColumns(ctx, sql)
	if err != nil {
		return provider.VectorLayer{}, errors.Wrapf(err, "probing layer %v", id)
	}

	var (
		names   []string
		types   = make(map[string]string, len(cols))
		hasGeom bool
	)
	for _, col := range cols {
		if col.Name == l.GeometryField {
			hasGeom = true
			continue
		}
		if _, ok := types[col.Name]; !ok {
			names = append(names, col.Name)
		}
		types[col.Name] = col.Type
	}
	if !hasGeom {
		return provider.VectorLayer{}, ErrMissingGeometry{Layer: id, Field: l.GeometryField}
	}

	declared := l.FieldNames()
	want := make(map[string]struct{}, len(declared))
	for _, name := range declared {
		want[name] = struct{}{}
	}
	mismatch := ErrFieldMismatch{Layer: id}
	for _, name := range names {
		if _, ok := want[name]; !ok {
			mismatch.Undeclared = append(mismatch.Undeclared, name)
		}
	}
	for _, name := range declared {
		if _, ok := types[name]; !ok {
			mismatch.Missing = append(mismatch.Missing, name)
		}
	}
	if len(mismatch.Undeclared) > 0 || len(mismatch.Missing) > 0 {
		return provider.VectorLayer{}, mismatch
	}

	vl := provider.VectorLayer{
		ID:          id,
		Description: l.Description,
		MinZoom:     ts.MinZoom,
		MaxZoom:     ts.MaxZoom,
		Fields:      make(map[string]string, len(names)),
	}
	var unknown []string
	for _, name := range names {
		t, ok := provider.FieldType(types[name])
		if !ok {
			unknown = append(unknown, fmt.Sprintf("%v (%v)", name, types[name]))
			continue
		}
		vl.Fields[name] = t
	}
	if len(unknown) > 0 {
		log.Warnf("layer %v: ignoring fields with unknown SQL types: [%v]", id, strings.Join(unknown, ", "))
	}
	return vl, nil
}

// ValidateTileset validates every selected layer of c, probing them
// concurrently. Any failing layer fails the tileset.
func ValidateTileset(ctx context.Context, p Prober, c *mvt.Compiler) ([]provider.VectorLayer, error) {
	layers := c.Layers()
	vls := make([]provider.VectorLayer, len(layers))
	errs := make([]error, len(layers))

	var wg sync.WaitGroup
	for i := range layers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vls[i], errs[i] = ValidateLayer(ctx, p, c, layers[i].ID)
		}(i)
	}
	wg.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return nil, ErrValidation{Errs: failed}
	}
	return vls, nil
}
