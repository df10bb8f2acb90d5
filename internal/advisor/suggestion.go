package advisor

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed suggestion.schema.json
var suggestionSchemaJSON string

var suggestionSchema = gojsonschema.NewStringLoader(suggestionSchemaJSON)

// decodeSuggestion validates the model output against the suggestion schema before decoding it.
// Output wrapped in prose or code fences is reduced to its outermost JSON object first.
func decodeSuggestion(raw []byte) (Suggestion, error) {
	raw = bytes.TrimSpace(raw)
	if !json.Valid(raw) {
		extracted, ok := extractJSON(raw)
		if !ok {
			return Suggestion{}, fmt.Errorf("suggestion is not JSON")
		}
		raw = extracted
	}

	result, err := gojsonschema.Validate(suggestionSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Suggestion{}, fmt.Errorf("validate suggestion: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, schemaErr := range result.Errors() {
			errs = append(errs, schemaErr.String())
		}
		sort.Strings(errs)
		return Suggestion{}, fmt.Errorf("suggestion schema validation failed: %s", strings.Join(errs, "; "))
	}

	var s Suggestion
	if err := json.Unmarshal(raw, &s); err != nil {
		return Suggestion{}, fmt.Errorf("decode suggestion: %w", err)
	}
	s.Description = strings.TrimSpace(s.Description)
	return s, nil
}

func extractJSON(data []byte) ([]byte, bool) {
	start := bytes.IndexByte(data, '{')
	end := bytes.LastIndexByte(data, '}')
	if start == -1 || end == -1 || start >= end {
		return nil, false
	}
	return data[start : end+1], true
}
