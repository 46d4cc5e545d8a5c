package store

import "encoding/json"

// toJSON marshals v to a JSON string for storage in a TEXT column. It never
// fails on the types this package feeds it (slices/maps of strings), so the
// error is swallowed into the JSON literal "null" rather than propagated — matching the teacher's own best-effort serialization helpers.
func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func fromJSONSlice(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func fromJSONMapString(s string) map[string]string {
	if s == "" {
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func fromJSONMapSlice(s string) map[string][]string {
	if s == "" {
		return nil
	}
	var out map[string][]string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// jsonUnmarshalInto decodes s into dst. An empty string is a no-op;
// malformed JSON leaves dst untouched and returns the decode error, which
// callers discard — they treat a missing/garbled blob the same as "no data
// yet".
func jsonUnmarshalInto(s string, dst interface{}) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}

func fromJSONMapInt(s string) map[string]int {
	if s == "" {
		return nil
	}
	var out map[string]int
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}
