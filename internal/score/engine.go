// Package score computes the security score of a threat model from the set of
// checks that are currently inactive (remediated).
//
// The arithmetic mirrors the reference implementation exactly: dimension and
// overall scores use floored integer division, compliance percentages are
// left unrounded, and stars are a linear rescale of the overall score.
package score

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/pkg/types"
)

// ErrMissingField is returned when a metric lacks a field required for scoring.
var ErrMissingField = errors.New("metric is missing a required field")

// tagSeparator splits a compliance tag into its framework prefix and the rest.
const tagSeparator = ","

// Compute scores doc. A metric is inactive when allInactive is set or its name
// is in inactive; inactive may be nil. The document is never modified.
func Compute(doc *threatmodel.Document, inactive threatmodel.Checks, allInactive bool) (*types.ScoreResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: no document", threatmodel.ErrMalformedDocument)
	}

	metrics, err := evaluate(doc, inactive, allInactive)
	if err != nil {
		return nil, err
	}

	result := &types.ScoreResult{
		Platform:     doc.PlatformName(),
		Metrics:      metrics,
		TotalMetrics: len(metrics),
	}

	result.Dimensions, result.Overall, result.DroppedMetrics = aggregateDimensions(metrics)
	result.Stars = float64(result.Overall) * 5.0 / 100.0
	result.Compliance = aggregateCompliance(metrics)

	for _, m := range metrics {
		if m.Active {
			result.ActiveThreats++
		} else {
			result.InactiveThreats++
		}
	}

	return result, nil
}

func evaluate(doc *threatmodel.Document, inactive threatmodel.Checks, allInactive bool) ([]types.Metric, error) {
	metrics := make([]types.Metric, 0, len(doc.Metrics))
	for i, rec := range doc.Metrics {
		if field := rec.MissingField(); field != "" {
			return nil, fmt.Errorf("%w: metric %d (%q) has no %s", ErrMissingField, i, rec.Name, field)
		}

		tags := make([]string, len(rec.Tags))
		copy(tags, rec.Tags)

		metrics = append(metrics, types.Metric{
			Name:      rec.Name,
			Dimension: types.Dimension(rec.Dimension),
			Severity:  *rec.Severity,
			Tags:      tags,
			Active:    !(allInactive || inactive.Has(rec.Name)),
		})
	}
	return metrics, nil
}

// aggregateDimensions returns the per-dimension scores, the overall score and
// the number of metrics left out because their dimension is not a known one.
func aggregateDimensions(metrics []types.Metric) (map[types.Dimension]types.DimensionScore, int, int) {
	type accum struct{ current, maximum int }

	acc := make(map[types.Dimension]*accum, len(types.Dimensions()))
	for _, d := range types.Dimensions() {
		acc[d] = &accum{}
	}

	dropped := 0
	for _, m := range metrics {
		if !m.Dimension.Known() {
			dropped++
			continue
		}
		a := acc[m.Dimension]
		a.maximum += m.Severity
		if !m.Active {
			a.current += m.Severity
		}
	}

	dims := make(map[types.Dimension]types.DimensionScore, len(acc))
	overallCurrent, overallMax := 0, 0
	for _, d := range types.Dimensions() {
		a := acc[d]
		overallCurrent += a.current
		overallMax += a.maximum

		s := types.NoMetricsScore
		if a.maximum > 0 {
			s = floorDiv(100*a.current, a.maximum)
		}
		dims[d] = types.DimensionScore{Name: d, Current: a.current, Maximum: a.maximum, Score: s}
	}

	// An empty model scores 0 overall, unlike the per-dimension sentinel.
	overall := 0
	if overallMax > 0 {
		overall = floorDiv(100*overallCurrent, overallMax)
	}
	return dims, overall, dropped
}

func aggregateCompliance(metrics []types.Metric) map[string]types.ComplianceResult {
	prefixes := make(map[string]struct{})
	for _, m := range metrics {
		for _, tag := range m.Tags {
			prefixes[tagPrefix(tag)] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(prefixes))
	for p := range prefixes {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	compliance := make(map[string]types.ComplianceResult, len(sorted))
	for _, prefix := range sorted {
		total, compliant := 0, 0
		for _, m := range metrics {
			for _, tag := range m.Tags {
				// Prefix match, not equality: buckets may nest.
				if !strings.HasPrefix(tag, prefix) {
					continue
				}
				total++
				if !m.Active {
					compliant++
				}
			}
		}
		if total == 0 {
			continue
		}
		compliance[prefix] = types.ComplianceResult{
			Tag:        prefix,
			Compliant:  compliant,
			Total:      total,
			Percentage: 100.0 * float64(compliant) / float64(total),
		}
	}
	return compliance
}

func tagPrefix(tag string) string {
	if i := strings.Index(tag, tagSeparator); i >= 0 {
		return tag[:i]
	}
	return tag
}

// floorDiv divides rounding toward negative infinity, matching the reference
// for negative severities as well.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
