package threatmodel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/buemura/threatscore/pkg/types"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// DefaultBaseURL hosts the published threat models, one directory per branch.
const DefaultBaseURL = "https://raw.githubusercontent.com/edamametechnologies/threatmodels"

// DefaultBranch is the branch threat models are fetched from when none is given.
const DefaultBranch = "main"

// Loader supplies the threat model of a platform.
type Loader interface {
	Load(ctx context.Context, platform types.Platform) (*Document, error)
}

// RemoteOptions configures a RemoteLoader.
type RemoteOptions struct {
	BaseURL       string
	Branch        string
	Timeout       time.Duration
	UserAgent     string
	MaxRetries    uint64
	RetryInterval time.Duration
	Logger        *zap.Logger
}

// DefaultRemoteOptions returns the options matching the published threat-model repository.
func DefaultRemoteOptions() RemoteOptions {
	return RemoteOptions{
		BaseURL:       DefaultBaseURL,
		Branch:        DefaultBranch,
		Timeout:       30 * time.Second,
		UserAgent:     "threatscore/dev",
		RetryInterval: 500 * time.Millisecond,
	}
}

// RemoteLoader fetches threat models over HTTP.
type RemoteLoader struct {
	opts   RemoteOptions
	client *http.Client
	log    *zap.Logger
}

// NewRemoteLoader creates a loader; zero-valued options fall back to the defaults.
func NewRemoteLoader(opts RemoteOptions) *RemoteLoader {
	def := DefaultRemoteOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.Branch == "" {
		opts.Branch = def.Branch
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = def.RetryInterval
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &RemoteLoader{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		log:    log,
	}
}

// URL returns the address the threat model of platform is fetched from.
func (l *RemoteLoader) URL(platform types.Platform) string {
	return fmt.Sprintf("%s/%s/threatmodel-%s.json", strings.TrimRight(l.opts.BaseURL, "/"), l.opts.Branch, platform)
}

// Load validates the platform, then fetches and decodes its threat model.
func (l *RemoteLoader) Load(ctx context.Context, platform types.Platform) (*Document, error) {
	if _, err := types.ParsePlatform(string(platform)); err != nil {
		return nil, err
	}

	url := l.URL(platform)

	var doc *Document
	operation := func() error {
		d, err := l.fetch(ctx, platform, url)
		if err != nil {
			return err
		}
		doc = d
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.opts.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, l.opts.MaxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		l.log.Warn("fetch failed, retrying",
			zap.String("url", url),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		// A cancelled or expired ctx surfaces bare; it is still a failed download.
		if errors.Is(err, ErrFetch) || errors.Is(err, ErrMalformedDocument) {
			return nil, err
		}
		return nil, fmt.Errorf("%w for %s: %w", ErrFetch, platform, err)
	}
	return doc, nil
}

func (l *RemoteLoader) fetch(ctx context.Context, platform types.Platform, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", l.opts.UserAgent)

	l.log.Debug("fetching threat model", zap.String("url", url))

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to %s: %w", ErrFetch, req.URL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w for %s from branch %q: HTTP %d", ErrFetch, platform, l.opts.Branch, resp.StatusCode)
		// Only server-side failures are worth another attempt.
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	doc, err := Decode(resp.Body)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return doc, nil
}

// FileLoader reads a threat model from a local file, whatever the platform.
type FileLoader struct {
	Path string
}

// NewFileLoader creates a loader for the file at path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

// Load reads and decodes the file.
func (l *FileLoader) Load(_ context.Context, _ types.Platform) (*Document, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, l.Path)
		}
		return nil, fmt.Errorf("opening threat model: %w", err)
	}
	defer f.Close()

	return Decode(f)
}
