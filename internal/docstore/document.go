package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Document is a decoded JSON object held by a collection.
type Document map[string]any

// ID returns the document's "id" field, or "" when it is missing or not a string.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// Lookup resolves a dotted path such as "fleet.name".
func (d Document) Lookup(path string) (any, bool) {
	var cur any = d
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneMap(d))
}

// Decode populates out from the document's JSON form.
func (d Document) Decode(out any) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// Encode converts a JSON-tagged value into a Document.
func Encode(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return Unmarshal(data)
}

// Unmarshal decodes a JSON object, keeping numbers as json.Number so that
// int64 timestamps survive the round trip exactly.
func Unmarshal(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Document:
		return m, true
	case map[string]any:
		return m, true
	}
	return nil, false
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case Document:
		return cloneMap(x)
	case map[string]any:
		return cloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = cloneValue(el)
		}
		return out
	default:
		return v
	}
}

// scalarKey normalizes a comparable scalar into a map key. Objects, arrays
// and nil are not comparable and report false.
func scalarKey(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return "s:" + x, true
	case bool:
		if x {
			return "b:1", true
		}
		return "b:0", true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return "n:" + strconv.FormatInt(i, 10), true
		}
		f, err := x.Float64()
		if err != nil {
			return "", false
		}
		return floatKey(f), true
	case float64:
		return floatKey(x), true
	case float32:
		return floatKey(float64(x)), true
	case int:
		return "n:" + strconv.FormatInt(int64(x), 10), true
	case int32:
		return "n:" + strconv.FormatInt(int64(x), 10), true
	case int64:
		return "n:" + strconv.FormatInt(x, 10), true
	case uint32:
		return "n:" + strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return "n:" + strconv.FormatUint(x, 10), true
	}
	return "", false
}

func floatKey(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<62 {
		return "n:" + strconv.FormatInt(int64(f), 10)
	}
	return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
}

// AsInt64 converts a numeric document value to int64.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		return int64(f), err == nil
	}
	return 0, false
}
