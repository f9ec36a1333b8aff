package workflow

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ridoystarlord/metagen/render"
	"github.com/ridoystarlord/metagen/snippet"
)

// Status is the outcome of one (table, artifact) generation.
type Status string

const (
	StatusOK      Status = "ok"
	StatusDiffers Status = "differs"
	StatusFailed  Status = "failed"
)

// Record describes one generation.
type Record struct {
	Table    string
	Artifact string
	Output   string
	Status   Status
	Seeded   bool
	// Checksum is the sha256 of the rendered output, in hex.
	Checksum string
	Duration time.Duration
	Err      error
	// Warnings lists the columns generated without their malformed metadata.
	Warnings []*snippet.FieldError
}

// Report collects the records of a run.
type Report struct {
	Records []Record
}

// Count returns the number of records with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Status == s {
			n++
		}
	}
	return n
}

// Failed reports whether any generation failed.
func (r *Report) Failed() bool {
	return r.Count(StatusFailed) > 0
}

// Warnings returns the malformed metadata warnings of every record.
func (r *Report) Warnings() []*snippet.FieldError {
	var out []*snippet.FieldError
	for _, rec := range r.Records {
		out = append(out, rec.Warnings...)
	}
	return out
}

// Errors returns the failures in run order.
func (r *Report) Errors() []error {
	var errs []error
	for _, rec := range r.Records {
		if rec.Err != nil {
			errs = append(errs, rec.Err)
		}
	}
	return errs
}

// Runner renders artifacts for tables, one pair at a time.
type Runner struct {
	Engine    *render.Engine
	Installer *render.Installer
	Dirs      Dirs
	Logger    *zap.Logger
}

// Run renders every (table, artifact) pair and applies action. A failing
// pair is recorded and the run goes on with the next one. Run only returns
// an error when ctx is done.
func (r *Runner) Run(ctx context.Context, tables []string, artifacts []Artifact, action render.Action) (*Report, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	report := &Report{}
	for _, table := range tables {
		for _, a := range artifacts {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			rec := r.runOne(ctx, table, a, action)
			if rec.Err != nil {
				logger.Warn("generation failed", zap.String("table", table), zap.String("artifact", a.Name), zap.Error(rec.Err))
			} else {
				logger.Debug("generated", zap.String("table", table), zap.String("artifact", a.Name),
					zap.String("status", string(rec.Status)), zap.String("sha256", rec.Checksum),
					zap.Duration("duration", rec.Duration))
			}
			report.Records = append(report.Records, rec)
		}
	}
	return report, nil
}

func (r *Runner) runOne(ctx context.Context, table string, a Artifact, action render.Action) Record {
	start := time.Now()
	job := a.Job(table, r.Dirs)
	rec := Record{Table: table, Artifact: a.Name, Output: job.Output}
	fail := func(err error) Record {
		rec.Status = StatusFailed
		rec.Err = fmt.Errorf("%s/%s: %w", table, a.Name, err)
		rec.Duration = time.Since(start)
		return rec
	}

	if action != render.ActionGenerate && job.Installed == "" {
		return fail(fmt.Errorf("no install location for action %s", action))
	}

	tpl, err := afero.ReadFile(r.Installer.Fs, job.Template)
	if err != nil {
		return fail(fmt.Errorf("reading template: %w", err))
	}
	out, warnings, err := r.Engine.RenderWithWarnings(table, string(tpl))
	rec.Warnings = warnings
	if err != nil {
		return fail(err)
	}
	res, err := r.Installer.Apply(ctx, job, out, action)
	if err != nil {
		return fail(err)
	}

	rec.Status = StatusOK
	if res.Differs {
		rec.Status = StatusDiffers
	}
	rec.Seeded = res.Seeded
	rec.Checksum = fmt.Sprintf("%x", sha256.Sum256([]byte(out)))
	rec.Duration = time.Since(start)
	return rec
}
