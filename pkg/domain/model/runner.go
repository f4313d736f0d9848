package model

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var (
	runnerNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	nonNameChars      = regexp.MustCompile(`[^a-z0-9-]+`)
)

const maxRunnerNameLength = 63

// RunnerStatus is the provisioning state of a runner
type RunnerStatus string

const RunnerStatusPending RunnerStatus = "pending"

// RunnerRequest is a request to provision a test runner for a repository
type RunnerRequest struct {
	Repository string `json:"repository"`
	Name       string `json:"name"`
	CPU        int    `json:"cpu"`
}

// Runner is an accepted runner request. Provisioning is not implemented yet,
// so every runner stays pending.
type Runner struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Repository string       `json:"repository"`
	CPU        int          `json:"cpu"`
	Status     RunnerStatus `json:"status"`
	OrgID      OrgID        `json:"org_id"`
	CreatedBy  UserID       `json:"created_by"`
	CreatedAt  time.Time    `json:"created_at"`
}

// DefaultRunnerName derives "runner-<repo>" from a repository name or full name
func DefaultRunnerName(repository string) string {
	name := repository
	if _, after, ok := strings.Cut(repository, "/"); ok {
		name = after
	}
	name = nonNameChars.ReplaceAllString(strings.ToLower(name), "-")
	name = strings.Trim(name, "-")
	full := "runner-" + name
	if name == "" {
		full = "runner"
	}
	if len(full) > maxRunnerNameLength {
		full = strings.TrimRight(full[:maxRunnerNameLength], "-")
	}
	return full
}

// Normalize fills the default name and CPU size
func (x *RunnerRequest) Normalize(defaultCPU int) {
	x.Repository = strings.TrimSpace(x.Repository)
	x.Name = strings.TrimSpace(x.Name)
	if x.Name == "" {
		x.Name = DefaultRunnerName(x.Repository)
	}
	if x.CPU == 0 {
		x.CPU = defaultCPU
	}
}

// Validate checks the request against the allowed CPU sizes
func (x *RunnerRequest) Validate(cpuSizes []int) error {
	if x.Repository == "" {
		return goerr.Wrap(ErrInvalidRunnerRequest, "repository is required")
	}
	if len(x.Name) > maxRunnerNameLength || !runnerNamePattern.MatchString(x.Name) {
		return goerr.Wrap(ErrInvalidRunnerRequest, "name must be lowercase letters, digits and hyphens",
			goerr.V("name", x.Name))
	}
	if !slices.Contains(cpuSizes, x.CPU) {
		return goerr.Wrap(ErrInvalidRunnerRequest, "unsupported CPU size",
			goerr.V("cpu", x.CPU), goerr.V("allowed", cpuSizes))
	}
	return nil
}

// NewRunner accepts a validated request
func NewRunner(req RunnerRequest, org OrgID, user UserID, now time.Time) *Runner {
	return &Runner{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Repository: req.Repository,
		CPU:        req.CPU,
		Status:     RunnerStatusPending,
		OrgID:      org,
		CreatedBy:  user,
		CreatedAt:  now,
	}
}
