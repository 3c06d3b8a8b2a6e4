package api

import (
	"fmt"
	"net/http"
	"strings"
)

// CreateScoreRequest is the JSON body for POST /api/v1/scores.
type CreateScoreRequest struct {
	Platform    string   `json:"platform"`
	Inactive    []string `json:"inactive"`
	AllInactive bool     `json:"all_inactive"`
	Branch      string   `json:"branch"`
}

// decodeCreateScoreRequest reads and validates the request body.
func decodeCreateScoreRequest(r *http.Request) (*CreateScoreRequest, error) {
	var req CreateScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if req.Platform == "" {
		return nil, fmt.Errorf("platform is required")
	}

	if err := validateBranch(req.Branch); err != nil {
		return nil, err
	}

	return &req, nil
}

// validateBranch rejects branch names that could escape the threat model path.
func validateBranch(branch string) error {
	if branch == "" {
		return nil
	}
	if strings.Contains(branch, "..") || strings.ContainsAny(branch, " \t\n?#") {
		return fmt.Errorf("invalid branch %q", branch)
	}
	return nil
}
