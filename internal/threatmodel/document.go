// Package threatmodel loads threat-model documents and check results that
// feed the score engine.
package threatmodel

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrFetch is returned when a remote threat model cannot be retrieved.
	ErrFetch = errors.New("fetching threat model")
	// ErrNotFound is returned when a local threat model or checks file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrMalformedDocument is returned when a threat model is not valid JSON or misses required fields.
	ErrMalformedDocument = errors.New("malformed threat model")
	// ErrChecksFormat is returned when a checks file is neither a list nor an {"inactive": [...]} object.
	ErrChecksFormat = errors.New("invalid checks file format")
)

// LocalizedText is a translated title and summary of a metric.
type LocalizedText struct {
	Locale  string `json:"locale"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// MetricRecord is a metric as it appears in the threat-model document.
// Severity is a pointer so that an absent value can be told apart from zero.
// An empty name or dimension is a value; only a missing key is an error.
type MetricRecord struct {
	Name        string          `json:"name"`
	Dimension   string          `json:"dimension"`
	Severity    *int            `json:"severity"`
	Tags        []string        `json:"tags"`
	Description []LocalizedText `json:"description,omitempty"`

	noName      bool
	noDimension bool
}

// UnmarshalJSON records which of the required keys the object lacks.
func (m *MetricRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        *string         `json:"name"`
		Dimension   *string         `json:"dimension"`
		Severity    *int            `json:"severity"`
		Tags        []string        `json:"tags"`
		Description []LocalizedText `json:"description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = MetricRecord{
		Severity:    raw.Severity,
		Tags:        raw.Tags,
		Description: raw.Description,
		noName:      raw.Name == nil,
		noDimension: raw.Dimension == nil,
	}
	if raw.Name != nil {
		m.Name = *raw.Name
	}
	if raw.Dimension != nil {
		m.Dimension = *raw.Dimension
	}
	return nil
}

// MissingField returns the first required field absent from the record, or "".
func (m MetricRecord) MissingField() string {
	switch {
	case m.noName:
		return "name"
	case m.noDimension:
		return "dimension"
	case m.Severity == nil:
		return "severity"
	default:
		return ""
	}
}

// Title returns the English title of the metric, falling back to its name.
func (m MetricRecord) Title() string {
	for _, d := range m.Description {
		if d.Locale == "EN" && d.Title != "" {
			return d.Title
		}
	}
	return m.Name
}

// UnknownPlatform names a document that carries no "name" key.
const UnknownPlatform = "unknown"

// Document is a parsed threat model.
type Document struct {
	Name      string         `json:"name"`
	Extends   string         `json:"extends,omitempty"`
	Date      string         `json:"date,omitempty"`
	Signature string         `json:"signature,omitempty"`
	Metrics   []MetricRecord `json:"metrics"`

	unnamed bool
}

// UnmarshalJSON notes whether the document has a "name" key at all.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name      *string        `json:"name"`
		Extends   string         `json:"extends"`
		Date      string         `json:"date"`
		Signature string         `json:"signature"`
		Metrics   []MetricRecord `json:"metrics"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Document{
		Extends:   raw.Extends,
		Date:      raw.Date,
		Signature: raw.Signature,
		Metrics:   raw.Metrics,
		unnamed:   raw.Name == nil,
	}
	if raw.Name != nil {
		d.Name = *raw.Name
	}
	return nil
}

// PlatformName returns the document name, or UnknownPlatform when the
// decoded document had no "name" key. An empty name is returned as is.
func (d *Document) PlatformName() string {
	if d.unnamed {
		return UnknownPlatform
	}
	return d.Name
}

// Validate checks that every metric carries the fields the score engine needs.
func (d *Document) Validate() error {
	for i, m := range d.Metrics {
		if field := m.MissingField(); field != "" {
			return fmt.Errorf("%w: metric %d (%q) is missing %q", ErrMalformedDocument, i, m.Name, field)
		}
	}
	return nil
}

// Names returns the metric names in document order.
func (d *Document) Names() []string {
	names := make([]string, len(d.Metrics))
	for i, m := range d.Metrics {
		names[i] = m.Name
	}
	return names
}

// Decode parses and validates a threat-model JSON document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Severity returns an int pointer, handy when building documents in code.
func Severity(n int) *int {
	return &n
}
