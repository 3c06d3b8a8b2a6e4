package types

import "sort"

// Dimension is one of the fixed top-level security categories a metric belongs to.
type Dimension string

const (
	DimensionNetwork         Dimension = "network"
	DimensionSystemServices  Dimension = "system services"
	DimensionSystemIntegrity Dimension = "system integrity"
	DimensionCredentials     Dimension = "credentials"
	DimensionApplications    Dimension = "applications"
)

// Dimensions returns the five known dimensions in their fixed order.
func Dimensions() []Dimension {
	return []Dimension{
		DimensionNetwork,
		DimensionSystemServices,
		DimensionSystemIntegrity,
		DimensionCredentials,
		DimensionApplications,
	}
}

// Known reports whether d is one of the five fixed dimensions.
func (d Dimension) Known() bool {
	switch d {
	case DimensionNetwork, DimensionSystemServices, DimensionSystemIntegrity,
		DimensionCredentials, DimensionApplications:
		return true
	default:
		return false
	}
}

// NoMetricsScore marks a dimension that has no applicable metrics.
const NoMetricsScore = -1

// Metric is a single weighted check together with its evaluated status.
type Metric struct {
	Name      string    `json:"name"`
	Dimension Dimension `json:"dimension"`
	Severity  int       `json:"severity"`
	Tags      []string  `json:"tags"`
	// Active is true when the threat is present on the device.
	Active bool `json:"active"`
}

// DimensionScore is the aggregate of one dimension.
type DimensionScore struct {
	Name    Dimension `json:"name"`
	Current int       `json:"current"`
	Maximum int       `json:"maximum"`
	Score   int       `json:"score"`
}

// HasMetrics reports whether any metric contributed to the dimension.
func (d DimensionScore) HasMetrics() bool {
	return d.Maximum > 0
}

// ComplianceResult is the compliance ratio of one tag prefix.
type ComplianceResult struct {
	Tag        string  `json:"tag"`
	Compliant  int     `json:"compliant"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ScoreResult is the outcome of one score computation.
type ScoreResult struct {
	Platform        string                       `json:"platform"`
	Dimensions      map[Dimension]DimensionScore `json:"dimensions"`
	Overall         int                          `json:"overall"`
	Stars           float64                      `json:"stars"`
	Compliance      map[string]ComplianceResult  `json:"compliance"`
	Metrics         []Metric                     `json:"metrics"`
	TotalMetrics    int                          `json:"total_metrics"`
	ActiveThreats   int                          `json:"active_threats"`
	InactiveThreats int                          `json:"inactive_threats"`
	DroppedMetrics  int                          `json:"dropped_metrics"`
}

// ComplianceTags returns the compliance keys in lexicographic order.
func (r *ScoreResult) ComplianceTags() []string {
	tags := make([]string, 0, len(r.Compliance))
	for tag := range r.Compliance {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// SortMetrics returns a copy of metrics ordered by descending severity, then name.
func SortMetrics(metrics []Metric) []Metric {
	sorted := make([]Metric, len(metrics))
	copy(sorted, metrics)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity != sorted[j].Severity {
			return sorted[i].Severity > sorted[j].Severity
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// PlatformReport is one entry of a (possibly multi-platform) scoring run.
type PlatformReport struct {
	Platform Platform     `json:"platform"`
	Result   *ScoreResult `json:"result,omitempty"`
	Unknown  []string     `json:"unknown_names,omitempty"`
	Error    string       `json:"error,omitempty"`
}
