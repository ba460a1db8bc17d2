package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cuaca/cuaca-go/pkg/request"
)

// LocalizedText holds English and Malay variants of a text.
type LocalizedText struct {
	EN string `json:"en"`
	MS string `json:"ms"`
}

// WarningValue is the structured content of a warning.
type WarningValue struct {
	Heading     LocalizedText `json:"heading"`
	Text        LocalizedText `json:"text"`
	Instruction LocalizedText `json:"instruction"`
	ValidFrom   string        `json:"valid_from"`
	ValidTo     string        `json:"valid_to"`
}

// Warning is one weather warning.
type Warning struct {
	DatasetID      string `json:"datasetid"`
	DataCategoryID string `json:"datacategoryid"`
	DataType       string `json:"datatype"`
	Date           string `json:"date"`

	// RawValue is the value field exactly as the service sent it.
	RawValue json.RawMessage `json:"value"`

	// Value is the parsed RawValue, nil if it could not be parsed.
	Value *WarningValue `json:"-"`
}

// ParseWarningValue decodes a warning value string.
//
// The service is known to send this field as a Python-style dict with
// single-quoted strings, which is not JSON. Strict JSON is tried first;
// only if that fails are single quotes replaced by double quotes and the
// result decoded again. The substitution breaks on values containing
// apostrophes, in which case the error of the second attempt is returned
// and the caller still has the raw text.
func ParseWarningValue(raw string) (*WarningValue, error) {
	var v WarningValue
	strictErr := json.Unmarshal([]byte(raw), &v)
	if strictErr == nil {
		return &v, nil
	}

	coerced := strings.ReplaceAll(raw, "'", `"`)
	if err := json.Unmarshal([]byte(coerced), &v); err != nil {
		return nil, fmt.Errorf("parse warning value: strict: %v; quote-coerced: %w", strictErr, err)
	}
	return &v, nil
}

// Warning fetches warnings of a category between two yyyy-mm-dd dates.
// Values that fail to parse are logged and left with a nil Value.
func (c *Client) Warning(ctx context.Context, cat request.WarningCategory, startDate, endDate string) ([]Warning, error) {
	req, err := c.builder.Warning(cat, startDate, endDate)
	if err != nil {
		return nil, err
	}

	resp, err := c.Call(ctx, req, ViewResults)
	if err != nil {
		return nil, err
	}
	if err := resp.expect(KindResults); err != nil {
		return nil, err
	}

	var warnings []Warning
	if err := resp.Decode(&warnings); err != nil {
		return nil, err
	}

	for i := range warnings {
		value, err := decodeWarningValue(warnings[i].RawValue)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("category", string(cat)).
				Str("date", warnings[i].Date).
				Msg("Unparseable warning value")
			continue
		}
		warnings[i].Value = value
	}
	return warnings, nil
}

// decodeWarningValue handles both an embedded string and a proper object.
func decodeWarningValue(raw json.RawMessage) (*WarningValue, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("parse warning value: empty")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("parse warning value: %w", err)
		}
		return ParseWarningValue(s)
	}
	return ParseWarningValue(string(raw))
}
