package runner

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buemura/threatscore/internal/logging"
	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnreachable = errors.New("unreachable")

type mockLoader struct {
	doc   *threatmodel.Document
	err   error
	delay time.Duration
	calls int32
}

func (m *mockLoader) Load(ctx context.Context, platform types.Platform) (*threatmodel.Document, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	doc := *m.doc
	doc.Name = "threat model " + string(platform)
	return &doc, nil
}

func sampleDoc() *threatmodel.Document {
	return &threatmodel.Document{
		Name: "threat model",
		Metrics: []threatmodel.MetricRecord{
			{Name: "net1", Dimension: "network", Severity: threatmodel.Severity(4)},
			{Name: "cred1", Dimension: "credentials", Severity: threatmodel.Severity(2)},
			{Name: "app1", Dimension: "applications", Severity: threatmodel.Severity(3)},
		},
	}
}

func TestRegistry_FallbackAndOverride(t *testing.T) {
	def := &mockLoader{doc: sampleDoc()}
	override := &mockLoader{doc: sampleDoc()}

	reg := NewRegistry(def)
	reg.Register(types.PlatformLinux, override)

	assert.Same(t, def, reg.Get(types.PlatformMacOS))
	assert.Same(t, override, reg.Get(types.PlatformLinux))

	_, err := reg.Load(context.Background(), types.PlatformLinux)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&override.calls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&def.calls))
}

func TestRunner_RunOne(t *testing.T) {
	r := NewRunner(NewRegistry(&mockLoader{doc: sampleDoc()}), nil)

	report, err := r.RunOne(context.Background(), types.PlatformMacOS,
		Request{Inactive: threatmodel.NewChecks("net1", "app1")})
	require.NoError(t, err)

	assert.Equal(t, types.PlatformMacOS, report.Platform)
	assert.Equal(t, "threat model macOS", report.Result.Platform)
	assert.Equal(t, 77, report.Result.Overall)
	assert.Empty(t, report.Unknown)
	assert.Empty(t, report.Error)
}

func TestRunner_RunOne_LoadError(t *testing.T) {
	r := NewRunner(NewRegistry(&mockLoader{err: errUnreachable}), nil)

	_, err := r.RunOne(context.Background(), types.PlatformMacOS, Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnreachable)
	assert.Contains(t, err.Error(), "macOS")
}

func TestRunner_UnknownNamesWarned(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Options{Writer: &buf})
	r := NewRunner(NewRegistry(&mockLoader{doc: sampleDoc()}), log)

	report, err := r.RunOne(context.Background(), types.PlatformLinux,
		Request{Inactive: threatmodel.NewChecks("net1", "bogus")})
	require.NoError(t, err)

	assert.Equal(t, []string{"bogus"}, report.Unknown)
	assert.Contains(t, buf.String(), "unknown threat names (ignored)")
	assert.Contains(t, buf.String(), "bogus")
}

func TestRunner_UnknownNamesIgnoredWhenAllInactive(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Options{Writer: &buf})
	r := NewRunner(NewRegistry(&mockLoader{doc: sampleDoc()}), log)

	report, err := r.RunOne(context.Background(), types.PlatformLinux,
		Request{Inactive: threatmodel.NewChecks("bogus"), AllInactive: true})
	require.NoError(t, err)

	assert.Empty(t, report.Unknown)
	assert.Equal(t, 100, report.Result.Overall)
	assert.NotContains(t, buf.String(), "unknown threat names")
}

func TestRunner_DroppedMetricsWarned(t *testing.T) {
	doc := sampleDoc()
	doc.Metrics = append(doc.Metrics, threatmodel.MetricRecord{Name: "hw", Dimension: "hardware", Severity: threatmodel.Severity(1)})

	var buf bytes.Buffer
	r := NewRunner(NewRegistry(&mockLoader{doc: doc}), logging.New(logging.Options{Writer: &buf}))

	report, err := r.RunOne(context.Background(), types.PlatformWindows, Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Result.DroppedMetrics)
	assert.Contains(t, buf.String(), "unrecognized dimension")
}

func TestRunner_RunOne_ScoreError(t *testing.T) {
	doc := &threatmodel.Document{Name: "bad", Metrics: []threatmodel.MetricRecord{{Name: "x"}}}
	r := NewRunner(NewRegistry(&mockLoader{doc: doc}), nil)

	_, err := r.RunOne(context.Background(), types.PlatformIOS, Request{})
	assert.Error(t, err)
}

func TestRunner_RunAll_PreservesOrder(t *testing.T) {
	r := NewRunner(NewRegistry(&mockLoader{doc: sampleDoc()}), nil)

	platforms := types.Platforms()
	reports := r.RunAll(context.Background(), platforms, Request{AllInactive: true}, Options{Concurrency: 2})

	require.Len(t, reports, len(platforms))
	for i, p := range platforms {
		assert.Equal(t, p, reports[i].Platform)
		require.NotNil(t, reports[i].Result)
		assert.Equal(t, 100, reports[i].Result.Overall)
		assert.Equal(t, "threat model "+string(p), reports[i].Result.Platform)
	}
}

func TestRunner_RunAll_PartialFailure(t *testing.T) {
	reg := NewRegistry(&mockLoader{doc: sampleDoc()})
	reg.Register(types.PlatformAndroid, &mockLoader{err: errUnreachable})
	r := NewRunner(reg, nil)

	reports := r.RunAll(context.Background(),
		[]types.Platform{types.PlatformMacOS, types.PlatformAndroid}, Request{}, DefaultOptions())

	require.Len(t, reports, 2)
	assert.Empty(t, reports[0].Error)
	assert.NotNil(t, reports[0].Result)
	assert.Nil(t, reports[1].Result)
	assert.Contains(t, reports[1].Error, "unreachable")
}

func TestRunner_RunAll_Timeout(t *testing.T) {
	r := NewRunner(NewRegistry(&mockLoader{doc: sampleDoc(), delay: 2 * time.Second}), nil)

	start := time.Now()
	reports := r.RunAll(context.Background(), []types.Platform{types.PlatformMacOS}, Request{},
		Options{Concurrency: 1, Timeout: 50 * time.Millisecond})

	require.Len(t, reports, 1)
	assert.Contains(t, reports[0].Error, "deadline exceeded")
	assert.Less(t, time.Since(start), time.Second)
}

func TestRunner_RunAll_ContextCancelled(t *testing.T) {
	r := NewRunner(NewRegistry(&mockLoader{doc: sampleDoc(), delay: 2 * time.Second}), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	reports := r.RunAll(ctx, []types.Platform{types.PlatformMacOS, types.PlatformLinux}, Request{},
		Options{Concurrency: 1})
	require.Len(t, reports, 2)
	for _, rep := range reports {
		assert.NotEmpty(t, rep.Error)
	}
}

func TestRunner_RunAll_ZeroConcurrency(t *testing.T) {
	r := NewRunner(NewRegistry(&mockLoader{doc: sampleDoc()}), nil)

	reports := r.RunAll(context.Background(), []types.Platform{types.PlatformMacOS}, Request{}, Options{})
	require.Len(t, reports, 1)
	assert.Empty(t, reports[0].Error)
}
