package config

import "fmt"

type ErrMissingLayerFile struct {
	Tileset string
	Index   int
}

func (e ErrMissingLayerFile) Error() string {
	return fmt.Sprintf("config: tileset %v: layer #%v has no file", e.Tileset, e.Index)
}
