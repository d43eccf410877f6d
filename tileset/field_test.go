package tileset_test

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/atlasdatatech/sqltomvt/tileset"
)

func TestParseCondition(t *testing.T) {
	type tcase struct {
		input    interface{}
		expected *tileset.Condition
		sql      string
		err      bool
	}

	fn := func(tc tcase) func(*testing.T) {
		return func(t *testing.T) {
			got, err := tileset.ParseCondition(tc.input)
			if tc.err {
				if err == nil {
					t.Fatalf("expected error, got %v", got.SQL())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.expected != nil {
				if diff := deep.Equal(got, tc.expected); diff != nil {
					t.Errorf("condition: %v", diff)
				}
			}
			if err := got.Validate(); err != nil {
				t.Errorf("parsed condition does not validate: %v", err)
			}
			if sql := got.SQL(); sql != tc.sql {
				t.Errorf("sql, expected %v got %v", tc.sql, sql)
			}
		}
	}

	tests := map[string]tcase{
		"equals": {
			input:    map[string]interface{}{"subclass": "park"},
			expected: &tileset.Condition{Op: tileset.CondEquals, Field: "subclass", Values: []string{"park"}},
			sql:      `"subclass"='park'`,
		},
		"like": {
			input: map[string]interface{}{"highway": "%_link"},
			sql:   `"highway" LIKE '%_link'`,
		},
		"in": {
			input: map[string]interface{}{"landuse": []interface{}{"residential", "suburb"}},
			sql:   `"landuse" IN ('residential', 'suburb')`,
		},
		"siblings are or-ed in key order": {
			input: map[string]interface{}{"b": "2", "a": "1"},
			sql:   `("a"='1' OR "b"='2')`,
		},
		"and group": {
			input: map[string]interface{}{
				"__AND__": map[string]interface{}{"natural": "wood", "leaf_type": []interface{}{"broadleaved"}},
			},
			sql: `("leaf_type" IN ('broadleaved') AND "natural"='wood')`,
		},
		"and list of or mappings": {
			input: map[string]interface{}{
				"__AND__": []interface{}{
					map[string]interface{}{"a": "1", "b": "2"},
					map[string]interface{}{"c": "3%"},
				},
			},
			sql: `(("a"='1' OR "b"='2') AND "c" LIKE '3%')`,
		},
		"nested or inside and": {
			input: map[string]interface{}{
				"__AND__": map[string]interface{}{
					"x":      "1",
					"__OR__": map[string]interface{}{"y": "2", "z": "3"},
				},
			},
			sql: `(("y"='2' OR "z"='3') AND "x"='1')`,
		},
		"quotes are escaped": {
			input: map[string]interface{}{"name": "o'clock"},
			sql:   `"name"='o''clock'`,
		},
		"wildcard inside list": {
			input: map[string]interface{}{"highway": []interface{}{"primary", "%_link"}},
			err:   true,
		},
		"not a mapping": {
			input: "park",
			err:   true,
		},
		"empty mapping": {
			input: map[string]interface{}{},
			err:   true,
		},
		"number value": {
			input: map[string]interface{}{"admin_level": int64(2)},
			err:   true,
		},
		"empty and list": {
			input: map[string]interface{}{"__AND__": []interface{}{}},
			err:   true,
		},
		"and list of strings": {
			input: map[string]interface{}{"__AND__": []interface{}{"a"}},
			err:   true,
		},
	}

	for name, tc := range tests {
		t.Run(name, fn(tc))
	}
}

func TestFieldCaseSQL(t *testing.T) {
	park, _ := tileset.ParseCondition(map[string]interface{}{"leisure": []interface{}{"park", "garden"}})
	wood, _ := tileset.ParseCondition(map[string]interface{}{"natural": "wood"})

	f := tileset.Field{
		Name: "class",
		Values: []tileset.FieldValue{
			{Value: "park", When: park},
			{Value: "wood", When: wood},
			{Value: "other"},
		},
	}

	sql, ok := f.CaseSQL()
	if !ok {
		t.Fatalf("expected a case expression")
	}
	expected := `CASE WHEN "leisure" IN ('park', 'garden') THEN 'park' WHEN "natural"='wood' THEN 'wood' END AS "class"`
	if sql != expected {
		t.Errorf("case sql, expected\n%v\ngot\n%v", expected, sql)
	}

	if _, ok := (tileset.Field{Name: "name"}).CaseSQL(); ok {
		t.Errorf("field without values should not render a case expression")
	}

	if s := (tileset.Field{Name: "class", Description: "Use the class"}).String(); s != "class -- Use the class" {
		t.Errorf("unexpected field string %q", s)
	}
}

func TestConditionValidate(t *testing.T) {
	tests := map[string]*tileset.Condition{
		"leaf without field": {Op: tileset.CondEquals, Values: []string{"a"}},
		"equals two values":  {Op: tileset.CondEquals, Field: "a", Values: []string{"a", "b"}},
		"empty in":           {Op: tileset.CondIn, Field: "a"},
		"empty group":        {Op: tileset.CondAllOf},
		"nil child":          {Op: tileset.CondAnyOf, Children: []*tileset.Condition{nil}},
		"unknown op":         {Op: tileset.CondOp(42), Field: "a"},
	}
	for name, c := range tests {
		if err := c.Validate(); err == nil {
			t.Errorf("%v: expected a validation error", name)
		}
	}
}
