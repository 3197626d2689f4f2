package flatten

import "strconv"

// Row is a single-level mapping of dotted-path keys to scalar values. Values
// are the scalars encoding/json produces: string, float64, bool, or nil.
type Row map[string]any

// Record flattens an arbitrarily nested record into a Row.
//
// Map keys extend the accumulated path as "parent.child"; sequence elements
// extend it with their index as "parent.0". Empty maps and sequences produce
// no key. The key set depends only on the record shape, so identical shapes
// always yield identical columns.
func Record(record map[string]any) Row {
	row := make(Row, len(record))
	for key, value := range record {
		walk(row, key, value)
	}
	return row
}

func walk(row Row, path string, value any) {
	switch typed := value.(type) {
	case map[string]any:
		for key, child := range typed {
			walk(row, path+"."+key, child)
		}
	case []any:
		for index, child := range typed {
			walk(row, path+"."+strconv.Itoa(index), child)
		}
	default:
		row[path] = value
	}
}

// Keys returns the union of keys across rows. Used to build CSV headers.
func Keys(rows []Row) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, row := range rows {
		for key := range row {
			keys[key] = struct{}{}
		}
	}
	return keys
}
