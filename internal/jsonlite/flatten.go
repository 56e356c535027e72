package jsonlite

import (
	"sort"
	"strconv"
	"strings"
)

// Record is a tree-shaped document: scalars, nested maps, and lists of
// either. It mirrors the Python implementation's plain dict records.
type Record = map[string]interface{}

// stripEmpty discards null-valued fields and empty-list fields, per
// spec.md §3 invariant 3. It does not recurse into nested maps/lists
// beyond the top level: flatten() re-applies the same rule to every flat
// key it produces, which has the same end effect as a full recursive
// strip because a nested empty list still flattens away to nothing.
func stripEmpty(item Record) Record {
	out := make(Record, len(item))
	for k, v := range item {
		if v == nil {
			continue
		}
		if list, ok := v.([]interface{}); ok && len(list) == 0 {
			continue
		}
		out[k] = v
	}
	return out
}

// flatten converts a nested record into dotted-path flat keys. List
// indices participate as decimal segments ("arguments.0"). Null values and
// empty lists are dropped before flattening (stripEmpty), and any flat key
// whose value is itself an empty list is dropped after flattening too.
func flatten(item Record) Record {
	clean := stripEmpty(item)
	flat := Record{}
	for k, v := range clean {
		flattenInto(flat, k, v)
	}
	for k, v := range flat {
		if list, ok := v.([]interface{}); ok && len(list) == 0 {
			delete(flat, k)
		}
	}
	return flat
}

func flattenInto(flat Record, prefix string, v interface{}) {
	switch val := v.(type) {
	case Record:
		if len(val) == 0 {
			flat[prefix] = []interface{}{}
			return
		}
		for k, child := range val {
			if child == nil {
				continue
			}
			if list, ok := child.([]interface{}); ok && len(list) == 0 {
				continue
			}
			flattenInto(flat, prefix+"."+k, child)
		}
	case map[string]interface{}:
		flattenInto(flat, prefix, Record(val))
	case []interface{}:
		if len(val) == 0 {
			flat[prefix] = val
			return
		}
		for i, child := range val {
			flattenInto(flat, prefix+"."+strconv.Itoa(i), child)
		}
	default:
		flat[prefix] = v
	}
}

// unflatten is the inverse of flatten: it reconstructs a nested record
// from dotted-path flat keys, treating purely numeric path segments as
// list indices. It is the Go equivalent of flatten_json.unflatten_list.
func unflatten(flat Record) Record {
	root := Record{}
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		setPath(root, strings.Split(k, "."), flat[k])
	}
	return derefLists(root).(Record)
}

// setPath walks/creates the tree described by path, ending in value. It
// builds intermediate nodes as Record (map[string]interface{}) even for
// segments that are numeric; derefLists performs the map->slice
// conversion afterwards once every child index at a level is known.
func setPath(node Record, path []string, value interface{}) {
	seg := path[0]
	if len(path) == 1 {
		node[seg] = value
		return
	}
	next, ok := node[seg].(Record)
	if !ok {
		next = Record{}
		node[seg] = next
	}
	setPath(next, path[1:], value)
}

// derefLists walks a tree built by setPath and converts any Record whose
// keys are all non-negative decimal integers into a []interface{} ordered
// by that integer, recursively. Maps with at least one non-numeric key
// are left as maps.
func derefLists(v interface{}) interface{} {
	node, ok := v.(Record)
	if !ok {
		return v
	}
	for k, child := range node {
		node[k] = derefLists(child)
	}
	if len(node) == 0 {
		return node
	}
	indices := make([]int, 0, len(node))
	for k := range node {
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 || strconv.Itoa(n) != k {
			return node
		}
		indices = append(indices, n)
	}
	sort.Ints(indices)
	list := make([]interface{}, len(indices))
	for i, n := range indices {
		list[i] = node[strconv.Itoa(n)]
	}
	for i, n := range indices {
		if i != n {
			return node
		}
	}
	return list
}
