package threatmodel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
)

// Checks is the set of metric names considered inactive (remediated).
type Checks map[string]struct{}

// NewChecks builds a set from the given names.
func NewChecks(names ...string) Checks {
	c := make(Checks, len(names))
	c.Add(names...)
	return c
}

// Add inserts names into the set.
func (c Checks) Add(names ...string) {
	for _, n := range names {
		c[n] = struct{}{}
	}
}

// Has reports whether name is in the set.
func (c Checks) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Merge adds every name of other into c.
func (c Checks) Merge(other Checks) {
	for n := range other {
		c[n] = struct{}{}
	}
}

// Names returns the set members sorted.
func (c Checks) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type checksObject struct {
	Inactive *[]string `json:"inactive"`
}

// ParseChecks reads a checks document: either a JSON list of names or an
// object with an "inactive" list.
func ParseChecks(r io.Reader) (Checks, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading checks: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrChecksFormat)
	}

	switch trimmed[0] {
	case '[':
		var names []string
		if err := json.Unmarshal(trimmed, &names); err != nil {
			return nil, checksDecodeError(err)
		}
		return NewChecks(names...), nil
	case '{':
		var obj checksObject
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, checksDecodeError(err)
		}
		if obj.Inactive == nil {
			return nil, fmt.Errorf("%w: expected a JSON list or object with 'inactive' key", ErrChecksFormat)
		}
		return NewChecks(*obj.Inactive...), nil
	default:
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: not valid JSON", ErrChecksFormat)
		}
		return nil, fmt.Errorf("%w: expected a JSON list or object with 'inactive' key", ErrChecksFormat)
	}
}

func checksDecodeError(err error) error {
	return fmt.Errorf("%w: %v", ErrChecksFormat, err)
}

// LoadChecksFile reads a checks file from disk.
func LoadChecksFile(path string) (Checks, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening checks file: %w", err)
	}
	defer f.Close()

	return ParseChecks(f)
}

// UnknownNames returns the sorted names in checks that match no metric of doc.
func UnknownNames(doc *Document, checks Checks) []string {
	known := make(map[string]struct{}, len(doc.Metrics))
	for _, m := range doc.Metrics {
		known[m.Name] = struct{}{}
	}

	var unknown []string
	for n := range checks {
		if _, ok := known[n]; !ok {
			unknown = append(unknown, n)
		}
	}
	sort.Strings(unknown)
	return unknown
}
