package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Result is the structured answer for one image. It is built once per
// successful analysis and never modified; callers replace it wholesale.
type Result struct {
	isSensitive       bool
	description       string
	identifiedObjects []string
	keyInsights       []string
}

// resultJSON is the wire shape requested from the external service.
type resultJSON struct {
	IsSensitive       bool     `json:"isSensitive"`
	Description       string   `json:"description"`
	IdentifiedObjects []string `json:"identifiedObjects"`
	KeyInsights       []string `json:"keyInsights"`
}

// NewResult copies its inputs so later changes to them are not observed.
func NewResult(isSensitive bool, description string, identifiedObjects, keyInsights []string) *Result {
	return &Result{
		isSensitive:       isSensitive,
		description:       description,
		identifiedObjects: slices.Clone(identifiedObjects),
		keyInsights:       slices.Clone(keyInsights),
	}
}

func (r *Result) IsSensitive() bool   { return r.isSensitive }
func (r *Result) Description() string { return r.description }

// IdentifiedObjects returns a copy of the object labels.
func (r *Result) IdentifiedObjects() []string { return slices.Clone(r.identifiedObjects) }

// KeyInsights returns a copy of the insight labels.
func (r *Result) KeyInsights() []string { return slices.Clone(r.keyInsights) }

func (r *Result) HasObjects() bool  { return len(r.identifiedObjects) > 0 }
func (r *Result) HasInsights() bool { return len(r.keyInsights) > 0 }

// MarshalJSON renders the result with the wire field names. Absent lists are
// emitted as empty arrays.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		IsSensitive:       r.isSensitive,
		Description:       r.description,
		IdentifiedObjects: r.identifiedObjects,
		KeyInsights:       r.keyInsights,
	}
	if out.IdentifiedObjects == nil {
		out.IdentifiedObjects = []string{}
	}
	if out.KeyInsights == nil {
		out.KeyInsights = []string{}
	}
	return json.Marshal(out)
}

// ErrEmptyResponse is returned when the service answered with nothing usable.
var ErrEmptyResponse = errors.New("empty response from analysis service")

// ParseResult trims the service's text and decodes it as the result object.
// Only JSON decoding is enforced: missing fields take their zero value.
func ParseResult(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	dec := json.NewDecoder(strings.NewReader(text))
	var wire *resultJSON
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("invalid JSON in response: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid JSON in response: trailing data after object")
	}
	if wire == nil {
		return nil, ErrEmptyResponse
	}
	return NewResult(wire.IsSensitive, wire.Description, wire.IdentifiedObjects, wire.KeyInsights), nil
}
