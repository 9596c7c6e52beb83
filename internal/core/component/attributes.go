package component

import (
	"maps"
	"reflect"
	"slices"

	"gopkg.in/yaml.v3"
)

// mergeAttributes shallow-merges supplied over the component defaults. When the
// component declares its keys, anything else is returned in dropped.
func mergeAttributes(c Component, supplied map[string]any) (merged map[string]any, dropped []string) {
	merged = make(map[string]any)
	if d, ok := c.(Defaulter); ok {
		maps.Copy(merged, d.Defaults())
	}

	var allowed map[string]struct{}
	if decl, ok := c.(AttributeDeclarer); ok {
		keys := decl.AttributeKeys()
		allowed = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			allowed[k] = struct{}{}
		}
	}

	for k, v := range supplied {
		if allowed != nil {
			if _, ok := allowed[k]; !ok {
				dropped = append(dropped, k)
				continue
			}
		}
		merged[k] = v
	}
	slices.Sort(dropped)
	return merged, dropped
}

// decodeAttributes copies attrs into the exported fields of a struct component,
// following yaml tags.
func decodeAttributes(c Component, attrs map[string]any) error {
	if len(attrs) == 0 {
		return nil
	}
	v := reflect.ValueOf(c)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil
	}
	var node yaml.Node
	if err := node.Encode(attrs); err != nil {
		return err
	}
	return node.Decode(c)
}
