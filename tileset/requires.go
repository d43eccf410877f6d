package tileset

import "strings"

// Resolve checks the layer requirement graph and returns the layers in an
// order where each layer comes after everything it requires. It repeatedly
// moves layers whose requirements are already resolved; a pass that makes no
// progress leaves only layers that take part in (or depend on) a cycle.
func Resolve(layers []*Layer) ([]*Layer, error) {
	byID := make(map[string]*Layer, len(layers))
	for _, l := range layers {
		byID[l.ID] = l
	}

	var available []string
	for _, l := range layers {
		for _, req := range l.Requires.Layers {
			if _, ok := byID[req]; ok {
				continue
			}
			if available == nil {
				available = make([]string, len(layers))
				for i := range layers {
					available[i] = layers[i].ID
				}
			}
			return nil, ErrUnknownRequirement{Layer: l.ID, Required: req, Available: available}
		}
	}

	resolved := make(map[string]bool, len(layers))
	order := make([]*Layer, 0, len(layers))
	pending := append([]*Layer(nil), layers...)

	for len(pending) > 0 {
		progress := false
		remaining := pending[:0]
		for _, l := range pending {
			if requirementsMet(l, resolved) {
				resolved[l.ID] = true
				order = append(order, l)
				progress = true
				continue
			}
			remaining = append(remaining, l)
		}
		pending = remaining
		if !progress {
			ids := make([]string, len(pending))
			for i := range pending {
				ids[i] = pending[i].ID
			}
			return nil, ErrCircularDependency{Layers: ids}
		}
	}
	return order, nil
}

func requirementsMet(l *Layer, resolved map[string]bool) bool {
	for _, req := range l.Requires.Layers {
		if !resolved[req] {
			return false
		}
	}
	return true
}

// Group is a set of layers that are connected through requirements. Layers
// of one group must run in order; separate groups are independent.
type Group struct {
	Name   string
	Layers []*Layer
}

// Groups splits layers into independent groups. Each group is ordered by
// resolution order and groups are ordered by their first member.
func Groups(layers []*Layer) ([]Group, error) {
	order, err := Resolve(layers)
	if err != nil {
		return nil, err
	}

	parent := make(map[string]string, len(order))
	var find func(string) string
	find = func(id string) string {
		if parent[id] == id {
			return id
		}
		root := find(parent[id])
		parent[id] = root
		return root
	}
	for _, l := range order {
		parent[l.ID] = l.ID
	}
	for _, l := range order {
		for _, req := range l.Requires.Layers {
			a, b := find(l.ID), find(req)
			if a != b {
				parent[a] = b
			}
		}
	}

	var (
		groups []Group
		index  = make(map[string]int)
	)
	for _, l := range order {
		root := find(l.ID)
		i, ok := index[root]
		if !ok {
			i = len(groups)
			index[root] = i
			groups = append(groups, Group{})
		}
		groups[i].Layers = append(groups[i].Layers, l)
	}
	for i := range groups {
		ids := make([]string, len(groups[i].Layers))
		for j, l := range groups[i].Layers {
			ids[j] = l.ID
		}
		groups[i].Name = strings.Join(ids, "__")
	}
	return groups, nil
}
