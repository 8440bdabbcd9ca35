package migration

import (
	"context"
	"time"
)

// Hooks observe the phases of a run. All fields are optional.
type Hooks struct {
	OnTableStart  func(table string)
	OnTableFinish func(table string, rows int64)
	Progress      ProgressFunc
}

// Service sequences a full migration run: verify the source, reset the target
// schema, then copy the six tables in dependency order.
type Service struct {
	source    Source
	target    Target
	batchSize int
	hooks     Hooks
}

// NewService creates the migration orchestrator.
func NewService(source Source, target Target, batchSize int, hooks Hooks) *Service {
	return &Service{
		source:    source,
		target:    target,
		batchSize: batchSize,
		hooks:     hooks,
	}
}

// Run executes the migration. Verification runs before any destructive action
// so a bad source never destroys a good target; any error aborts the
// remaining sequence immediately.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	if err := s.source.VerifyTables(ctx); err != nil {
		return nil, err
	}

	if err := s.target.ResetSchema(ctx); err != nil {
		return nil, err
	}

	copier := NewCopier(s.source, s.target, s.batchSize, s.hooks.Progress)
	summary := &Summary{}

	for _, spec := range TableSpecs() {
		if s.hooks.OnTableStart != nil {
			s.hooks.OnTableStart(spec.Target)
		}

		tableStart := time.Now()
		rows, err := copier.CopyTable(ctx, spec)
		if err != nil {
			return nil, err
		}

		summary.Tables = append(summary.Tables, TableResult{
			Table:    spec.Target,
			Rows:     rows,
			Duration: time.Since(tableStart),
		})
		summary.TotalRows += rows

		if s.hooks.OnTableFinish != nil {
			s.hooks.OnTableFinish(spec.Target, rows)
		}
	}

	summary.Duration = time.Since(start)
	return summary, nil
}
