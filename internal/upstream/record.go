package upstream

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Upstream payloads name the same field several ways depending on endpoint
// and API version. Each target field lists its candidate source paths in
// priority order; the first non-empty value wins. Dotted paths descend into
// nested objects.

// Record is a loosely typed JSON object.
type Record map[string]any

// Lookup resolves a dotted path.
func (r Record) Lookup(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// String returns the first non-empty value among paths.
func (r Record) String(paths ...string) string {
	for _, p := range paths {
		v, ok := r.Lookup(p)
		if !ok {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = strings.TrimSpace(t)
		case json.Number:
			s = t.String()
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(t)
		}
		if s != "" {
			return s
		}
	}
	return ""
}

func (r Record) Float(paths ...string) float64 {
	for _, p := range paths {
		v, ok := r.Lookup(p)
		if !ok {
			continue
		}
		var f float64
		switch t := v.(type) {
		case json.Number:
			f, _ = t.Float64()
		case float64:
			f = t
		case string:
			f, _ = strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
		}
		if f != 0 {
			return f
		}
	}
	return 0
}

func (r Record) Int(paths ...string) int {
	return int(r.Float(paths...))
}

func (r Record) Bool(paths ...string) bool {
	for _, p := range paths {
		v, ok := r.Lookup(p)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case bool:
			if t {
				return true
			}
		case string:
			switch strings.ToLower(strings.TrimSpace(t)) {
			case "true", "yes", "y", "1":
				return true
			}
		case json.Number:
			if f, _ := t.Float64(); f != 0 {
				return true
			}
		case float64:
			if t != 0 {
				return true
			}
		}
	}
	return false
}

// List returns the object elements of the first array found among paths.
// ok is false when none of the paths holds an array.
func (r Record) List(paths ...string) (items []Record, ok bool) {
	for _, p := range paths {
		v, found := r.Lookup(p)
		if !found {
			continue
		}
		arr, isArr := v.([]any)
		if !isArr {
			continue
		}
		items = make([]Record, 0, len(arr))
		for _, el := range arr {
			if m, isObj := el.(map[string]any); isObj {
				items = append(items, Record(m))
			}
		}
		return items, true
	}
	return nil, false
}

// DecodeRecord parses blob into a Record, keeping numbers as json.Number.
func DecodeRecord(blob []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return Record(out), nil
}
