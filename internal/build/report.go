package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReportFile is written at the root of every promoted output.
const ReportFile = ".build-report.json"

// Mode selects which optimizations apply.
type Mode string

const (
	// ModeBuild minifies and fingerprints assets.
	ModeBuild Mode = "build"
	// ModeDevelopment is used by preview: assets are copied untouched.
	ModeDevelopment Mode = "development"
)

// Status is the outcome of a build.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Report summarizes one build.
type Report struct {
	BuildID        string                   `json:"build_id"`
	Mode           Mode                     `json:"mode"`
	Status         Status                   `json:"status"`
	RegularPages   int                      `json:"regular_pages"`
	ProxyPages     int                      `json:"proxy_pages"`
	Assets         int                      `json:"assets"`
	MinifiedAssets int                      `json:"minified_assets"`
	RewrittenPages int                      `json:"rewritten_pages"`
	OutputDir      string                   `json:"output_dir"`
	Start          time.Time                `json:"start"`
	End            time.Time                `json:"end"`
	Duration       time.Duration            `json:"duration_ns"`
	StageDurations map[string]time.Duration `json:"stage_durations_ns"`
	Error          string                   `json:"error,omitempty"`
}

func newReport(id string, mode Mode, outputDir string) *Report {
	return &Report{
		BuildID:        id,
		Mode:           mode,
		OutputDir:      outputDir,
		Start:          time.Now(),
		StageDurations: map[string]time.Duration{},
	}
}

func (r *Report) finish(status Status, err error) {
	r.Status = status
	r.End = time.Now()
	r.Duration = r.End.Sub(r.Start)
	if err != nil {
		r.Error = err.Error()
	}
}

// Pages is the total number of rendered pages.
func (r *Report) Pages() int { return r.RegularPages + r.ProxyPages }

// Summary is a one-line human readable description.
func (r *Report) Summary() string {
	return fmt.Sprintf("%s build %s: %d pages (%d proxy), %d assets in %s",
		r.Mode, r.Status, r.Pages(), r.ProxyPages, r.Assets, r.Duration.Round(time.Millisecond))
}

// Persist writes the report as JSON into dir, via a temp file and rename.
func (r *Report) Persist(dir string) error {
	jb, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	jsonPath := filepath.Join(dir, ReportFile)
	tmp := jsonPath + ".tmp"
	// #nosec G306 -- the report is published alongside the site.
	if err := os.WriteFile(tmp, jb, 0o644); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, jsonPath); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	return nil
}

// ReadReport loads the report from a promoted output directory.
func ReadReport(dir string) (*Report, error) {
	// #nosec G304 -- dir is the configured output directory.
	b, err := os.ReadFile(filepath.Join(dir, ReportFile))
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode build report: %w", err)
	}
	return &r, nil
}
