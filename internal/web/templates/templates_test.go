package templates

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/buemura/threatscore/internal/web/history"
	"github.com/buemura/threatscore/pkg/types"
)

func sampleRun() *history.Run {
	return &history.Run{
		ID:       "run-id-1234567890",
		Platform: types.PlatformLinux,
		Branch:   "dev",
		Inactive: []string{"Firewall off", "Old app"},
		Report: types.PlatformReport{
			Platform: types.PlatformLinux,
			Result: &types.ScoreResult{
				Platform: "threat model Linux",
				Dimensions: map[types.Dimension]types.DimensionScore{
					types.DimensionNetwork:         {Name: types.DimensionNetwork, Current: 4, Maximum: 4, Score: 100},
					types.DimensionSystemServices:  {Name: types.DimensionSystemServices, Score: types.NoMetricsScore},
					types.DimensionSystemIntegrity: {Name: types.DimensionSystemIntegrity, Score: types.NoMetricsScore},
					types.DimensionCredentials:     {Name: types.DimensionCredentials, Current: 0, Maximum: 2, Score: 0},
					types.DimensionApplications:    {Name: types.DimensionApplications, Current: 3, Maximum: 3, Score: 100},
				},
				Overall:         77,
				Stars:           3.85,
				TotalMetrics:    3,
				ActiveThreats:   1,
				InactiveThreats: 2,
			},
		},
		CreatedAt: time.Date(2026, 2, 20, 14, 30, 0, 0, time.UTC),
	}
}

func TestAllTemplatesParseWithoutError(t *testing.T) {
	expectedPages := []string{"index.html", "scores.html", "score_detail.html", "not_found.html"}
	for _, name := range expectedPages {
		if _, ok := pages[name]; !ok {
			t.Errorf("expected page template %q to be parsed", name)
		}
	}
}

func TestRenderPage_SetsContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	err := RenderPage(rec, "not_found.html", struct{ Message string }{"test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ct := rec.Header().Get("Content-Type")
	if !strings.Contains(ct, "text/html") {
		t.Errorf("expected Content-Type text/html, got %q", ct)
	}
}

func TestRenderPage_UnknownTemplateReturnsError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := RenderPage(rec, "does_not_exist.html", nil)
	if err == nil {
		t.Fatal("expected error for unknown template")
	}
	if !strings.Contains(err.Error(), "template not found") {
		t.Errorf("expected 'template not found' in error, got: %v", err)
	}
}

type formValues struct {
	Platform    string
	Branch      string
	Inactive    string
	AllInactive bool
}

func TestRenderPage_IndexContainsForm(t *testing.T) {
	rec := httptest.NewRecorder()
	data := struct {
		Platforms []types.Platform
		Form      formValues
		Error     string
	}{
		Platforms: types.Platforms(),
		Form:      formValues{Platform: "Linux", Branch: "main", Inactive: "Firewall off"},
	}

	err := RenderPage(rec, "index.html", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := rec.Body.String()
	for _, expected := range []string{"New Score", "Compute Score", "macOS", "Android", `value="Linux" selected`, "Firewall off"} {
		if !strings.Contains(body, expected) {
			t.Errorf("expected index page to contain %q", expected)
		}
	}
	if strings.Contains(body, `class="error"`) {
		t.Error("expected no error banner")
	}
}

func TestRenderPage_IndexShowsError(t *testing.T) {
	rec := httptest.NewRecorder()
	data := struct {
		Platforms []types.Platform
		Form      formValues
		Error     string
	}{
		Platforms: types.Platforms(),
		Error:     "HTTP 404",
	}

	if err := RenderPage(rec, "index.html", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "HTTP 404") {
		t.Error("expected index page to show the error")
	}
}

func TestRenderPage_ScoresEmptyList(t *testing.T) {
	rec := httptest.NewRecorder()
	data := struct {
		Runs []*history.Run
	}{}

	if err := RenderPage(rec, "scores.html", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "No scores yet") {
		t.Error("expected empty history to contain 'No scores yet'")
	}
}

func TestRenderPage_ScoresWithRuns(t *testing.T) {
	rec := httptest.NewRecorder()
	data := struct {
		Runs []*history.Run
	}{Runs: []*history.Run{sampleRun()}}

	if err := RenderPage(rec, "scores.html", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := rec.Body.String()
	for _, expected := range []string{"scores-table", "run-id-1", "/scores/run-id-1234567890", "Linux", "dev", "77%", "badge fair", "[***+.]"} {
		if !strings.Contains(body, expected) {
			t.Errorf("expected history page to contain %q", expected)
		}
	}
}

func TestRenderPage_ScoreDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	data := struct {
		Run *history.Run
	}{Run: sampleRun()}

	if err := RenderPage(rec, "score_detail.html", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := rec.Body.String()
	for _, expected := range []string{
		"run-id-1234567890", "threat model Linux", "/ 5.0 [***+.]", "system services", "N/A", "4/4",
		"Firewall off, Old app", "/api/v1/scores/run-id-1234567890/report",
	} {
		if !strings.Contains(body, expected) {
			t.Errorf("expected detail page to contain %q", expected)
		}
	}
}

func TestRenderPage_ScoreDetailFailed(t *testing.T) {
	rec := httptest.NewRecorder()
	run := &history.Run{
		ID:       "failed-id",
		Platform: types.PlatformIOS,
		Report:   types.PlatformReport{Platform: types.PlatformIOS, Error: "connection refused"},
	}
	data := struct {
		Run *history.Run
	}{Run: run}

	if err := RenderPage(rec, "score_detail.html", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "connection refused") {
		t.Error("expected failed run detail to contain error message")
	}
	if !strings.Contains(body, "N/A") {
		t.Error("expected failed run to have no overall score")
	}
}

func TestRenderPage_NotFoundContainsMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	err := RenderPage(rec, "not_found.html", struct{ Message string }{"Score not found."})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Score not found.") {
		t.Error("expected not_found page to contain the error message")
	}
	if !strings.Contains(body, "Not Found") {
		t.Error("expected not_found page to contain 'Not Found'")
	}
}

// Template function tests

func TestScoreClass(t *testing.T) {
	tests := []struct {
		percent int
		want    string
	}{
		{-1, "none"},
		{0, "poor"},
		{49, "poor"},
		{50, "fair"},
		{79, "fair"},
		{80, "good"},
		{100, "good"},
	}
	for _, tt := range tests {
		if got := scoreClass(tt.percent); got != tt.want {
			t.Errorf("scoreClass(%d) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}

func TestScoreText(t *testing.T) {
	if got := scoreText(-1); got != "N/A" {
		t.Errorf("scoreText(-1) = %q", got)
	}
	if got := scoreText(66); got != "66%" {
		t.Errorf("scoreText(66) = %q", got)
	}
}

func TestDimensionNilResult(t *testing.T) {
	got := dimension(nil, types.DimensionNetwork)
	if got.Score != types.NoMetricsScore {
		t.Errorf("dimension(nil) score = %d, want %d", got.Score, types.NoMetricsScore)
	}
}

func TestTruncateID(t *testing.T) {
	if got := truncateID("abcdefghijklmnop"); got != "abcdefgh" {
		t.Errorf("truncateID long = %q, want %q", got, "abcdefgh")
	}
	if got := truncateID("short"); got != "short" {
		t.Errorf("truncateID short = %q, want %q", got, "short")
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(time.Time{}); got != "-" {
		t.Errorf("formatTime(zero) = %q, want %q", got, "-")
	}
	ts := time.Date(2026, 2, 20, 14, 30, 0, 0, time.UTC)
	if got := formatTime(ts); got != "2026-02-20 14:30:00" {
		t.Errorf("formatTime = %q", got)
	}
}
