package client

import (
	"encoding/json"
	"fmt"
)

// View selects which part of a successful response body is returned.
type View int

const (
	// ViewResults extracts the "results" member.
	ViewResults View = iota

	// ViewMetadata extracts the "metadata" member.
	ViewMetadata
)

// String returns the JSON member name the view extracts.
func (v View) String() string {
	if v == ViewMetadata {
		return "metadata"
	}
	return "results"
}

// Kind tags the shape of a Response.
type Kind int

const (
	// KindResults holds the "results" member of a 200/304 response.
	KindResults Kind = iota

	// KindMetadata holds the "metadata" member of a 200/304 response.
	KindMetadata

	// KindUnrecognized holds the raw body of any other response: a non
	// 200/304 status, or a body without the requested member.
	KindUnrecognized
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindResults:
		return "results"
	case KindMetadata:
		return "metadata"
	default:
		return "unrecognized"
	}
}

func (v View) kind() Kind {
	if v == ViewMetadata {
		return KindMetadata
	}
	return KindResults
}

// Response is the decoded outcome of a MET API call.
//
// Callers switch on Kind: only KindResults and KindMetadata carry the
// requested sub-tree. KindUnrecognized carries the raw body as returned by
// the server, which may not be JSON at all.
type Response struct {
	Kind       Kind
	StatusCode int
	Value      json.RawMessage
	FromCache  bool
}

// Decode unmarshals Value into v.
func (r *Response) Decode(v any) error {
	if len(r.Value) == 0 {
		return fmt.Errorf("decode %s response: empty body", r.Kind)
	}
	if err := json.Unmarshal(r.Value, v); err != nil {
		return fmt.Errorf("decode %s response: %w", r.Kind, err)
	}
	return nil
}

// expect returns an *UnexpectedResponseError unless r has kind k.
func (r *Response) expect(k Kind) error {
	if r.Kind != k {
		return &UnexpectedResponseError{StatusCode: r.StatusCode, Body: r.Value}
	}
	return nil
}

// extract pulls the member named by view out of a JSON object body.
// It reports false if body is not an object or lacks the member.
func extract(body []byte, view View) (json.RawMessage, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, false
	}
	value, ok := envelope[view.String()]
	return value, ok
}
