// Package jsonx decodes JSON payloads out of free-form model output.
//
// Upstream model replies are expected to be a single JSON object but often
// arrive wrapped in prose or markdown fences. Decode tries a strict parse
// first and then falls back to the first balanced JSON object found in the
// text. It never invents a value: if no parsable object exists the decode
// fails.
package jsonx

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoJSON is returned when the input contains no parsable JSON object.
var ErrNoJSON = errors.New("no JSON object found in input")

// Decode unmarshals data into v, salvaging an embedded JSON object when the
// input as a whole is not valid JSON.
func Decode(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}

	obj, err := ExtractObject(data)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(obj, v); err != nil {
		return fmt.Errorf("salvaged JSON object is not decodable: %w", err)
	}
	return nil
}

// ExtractObject returns the first balanced brace-delimited JSON object in
// data. Braces inside string literals are ignored.
func ExtractObject(data []byte) ([]byte, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, b := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				candidate := data[start : i+1]
				if json.Valid(candidate) {
					return candidate, nil
				}
				// Keep scanning, a later object may be well-formed.
				start = -1
			}
		}
	}

	return nil, ErrNoJSON
}
