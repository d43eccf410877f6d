package tileset

import (
	"strconv"
	"strings"
)

// EnvBufferSize names the environment variable that overrides the buffer
// size of every layer.
const EnvBufferSize = "TILE_BUFFER_SIZE"

// Override sources, in increasing priority.
const (
	SourceLayer        = "layer"
	SourceTileset      = "tileset overrides"
	SourceTilesetLayer = "tileset layer overrides"
	SourceEnv          = "environment " + EnvBufferSize
)

// Overrides carries optional buffer settings. A nil pointer means "not set".
type Overrides struct {
	BufferSize    *int
	MinBufferSize *int
}

// BufferOverride is one entry of the buffer cascade.
type BufferOverride struct {
	Source  string
	Size    *int
	MinSize *int
}

// ResolveBuffer applies the override sources in order, later entries taking
// precedence over earlier ones. A source may replace the size, the minimum,
// or both, and the result is never below the last minimum seen.
func ResolveBuffer(sources []BufferOverride) (int, error) {
	var (
		size, min int
		sizeSet   bool
	)
	for _, src := range sources {
		if src.MinSize != nil {
			if *src.MinSize < 0 {
				return 0, ErrInvalidOverride{Source: src.Source, Value: strconv.Itoa(*src.MinSize)}
			}
			min = *src.MinSize
		}
		if src.Size != nil {
			if *src.Size < 0 {
				return 0, ErrInvalidOverride{Source: src.Source, Value: strconv.Itoa(*src.Size)}
			}
			size, sizeSet = *src.Size, true
		}
	}
	if !sizeSet {
		return 0, ErrBufferRequired{}
	}
	if size < min {
		return min, nil
	}
	return size, nil
}

// EnvOverride reads the buffer override from getenv. An empty or missing
// value yields an override that changes nothing.
func EnvOverride(getenv func(string) string) (BufferOverride, error) {
	o := BufferOverride{Source: SourceEnv}
	if getenv == nil {
		return o, nil
	}
	raw := strings.TrimSpace(getenv(EnvBufferSize))
	if raw == "" {
		return o, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return o, ErrInvalidOverride{Source: SourceEnv, Value: raw}
	}
	o.Size = &v
	return o, nil
}

func (o Overrides) source(name string) BufferOverride {
	return BufferOverride{Source: name, Size: o.BufferSize, MinSize: o.MinBufferSize}
}
