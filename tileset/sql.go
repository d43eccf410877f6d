package tileset

import (
	"fmt"
	"strings"
)

// GroupSQL is the schema SQL of one layer group.
type GroupSQL struct {
	Name string
	SQL  string
}

// SQLBundle is the schema SQL of a tileset split into what must run first,
// the independent layer groups, and what must run last.
type SQLBundle struct {
	First  string
	Groups []GroupSQL
	Last   string
}

// String joins the bundle into a single script that can run sequentially.
func (b SQLBundle) String() string {
	parts := make([]string, 0, len(b.Groups)+2)
	parts = append(parts, b.First)
	for _, g := range b.Groups {
		parts = append(parts, g.SQL)
	}
	parts = append(parts, b.Last)
	return strings.Join(parts, "\n")
}

// CollectSQL gathers the schema SQL of every layer, grouped so that layers
// which require each other end up in the same group.
func CollectSQL(ts *Tileset) (SQLBundle, error) {
	groups, err := Groups(ts.Layers)
	if err != nil {
		return SQLBundle{}, err
	}

	bundle := SQLBundle{
		First: "-- This SQL code should be executed first\n\n" + SliceLanguageTagsSQL(ts.Languages),
		Last:  "-- This SQL code should be executed last\n",
	}
	for _, g := range groups {
		parts := make([]string, len(g.Layers))
		for i, l := range g.Layers {
			parts[i] = layerSQL(l)
		}
		bundle.Groups = append(bundle.Groups, GroupSQL{
			Name: g.Name,
			SQL:  strings.Join(parts, "\n"),
		})
	}
	return bundle, nil
}

func layerSQL(l *Layer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DO $$ BEGIN RAISE NOTICE 'Processing layer %v'; END$$;\n\n", l.ID)
	for _, s := range l.Schemas {
		fmt.Fprintf(&b, "-- Layer %v - %v\n\n%v", l.ID, s.Name, s.SQL)
	}
	fmt.Fprintf(&b, "\n\nDO $$ BEGIN RAISE NOTICE 'Finished layer %v'; END$$;\n", l.ID)
	return b.String()
}

// SliceLanguageTagsSQL returns the definition of slice_language_tags(), which
// keeps only the hstore tags the tileset needs for names.
func SliceLanguageTagsSQL(languages []string) string {
	tags := make([]string, 0, len(languages)+5)
	for _, lang := range languages {
		tags = append(tags, "name:"+lang)
	}
	tags = append(tags, "int_name", "loc_name", "name", "wikidata", "wikipedia")
	for i := range tags {
		tags[i] = quoteLiteral(tags[i])
	}
	return fmt.Sprintf(`CREATE OR REPLACE FUNCTION slice_language_tags(tags hstore)
RETURNS hstore AS $$
    SELECT delete_empty_keys(slice(tags, ARRAY[%v]))
$$ LANGUAGE SQL IMMUTABLE;
`, strings.Join(tags, ", "))
}
