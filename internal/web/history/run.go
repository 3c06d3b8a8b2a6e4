package history

import (
	"time"

	"github.com/buemura/threatscore/pkg/types"
)

// Run is one stored score computation.
type Run struct {
	ID          string               `json:"id"`
	Platform    types.Platform       `json:"platform"`
	Branch      string               `json:"branch,omitempty"`
	Inactive    []string             `json:"inactive"`
	AllInactive bool                 `json:"all_inactive"`
	Report      types.PlatformReport `json:"report"`
	CreatedAt   time.Time            `json:"created_at"`

	seq uint64
}

// Overall returns the overall percentage of the run, or -1 when it failed.
func (r *Run) Overall() int {
	if r.Report.Result == nil {
		return -1
	}
	return r.Report.Result.Overall
}
