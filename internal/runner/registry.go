package runner

import (
	"context"

	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/pkg/types"
)

// Registry resolves the loader used for each platform: a per-platform
// override when one is registered, the default loader otherwise.
type Registry struct {
	fallback  threatmodel.Loader
	overrides map[types.Platform]threatmodel.Loader
}

// NewRegistry creates a registry that falls back to def.
func NewRegistry(def threatmodel.Loader) *Registry {
	return &Registry{
		fallback:  def,
		overrides: make(map[types.Platform]threatmodel.Loader),
	}
}

// Register overrides the loader for a platform.
func (r *Registry) Register(platform types.Platform, l threatmodel.Loader) {
	r.overrides[platform] = l
}

// Get returns the loader for platform.
func (r *Registry) Get(platform types.Platform) threatmodel.Loader {
	if l, ok := r.overrides[platform]; ok {
		return l
	}
	return r.fallback
}

// Load fetches the threat model of platform with its resolved loader.
func (r *Registry) Load(ctx context.Context, platform types.Platform) (*threatmodel.Document, error) {
	return r.Get(platform).Load(ctx, platform)
}
