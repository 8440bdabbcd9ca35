package migration

import (
	"context"

	"retailsync/pkg/errors"
)

// Copier streams rows from one source table to one target table in
// bounded-memory batches. Each batch is one durable unit of work: a failure
// partway through a table leaves earlier batches committed and the remainder
// un-migrated, recoverable by re-running the full migration.
type Copier struct {
	source    Source
	target    Target
	batchSize int
	progress  ProgressFunc
}

// NewCopier creates a copy engine. A batchSize of zero or less falls back to
// DefaultBatchSize; a nil progress function disables reporting.
func NewCopier(source Source, target Target, batchSize int, progress ProgressFunc) *Copier {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Copier{
		source:    source,
		target:    target,
		batchSize: batchSize,
		progress:  progress,
	}
}

// CopyTable copies one table per its spec and returns the rows copied.
func (c *Copier) CopyTable(ctx context.Context, spec TableSpec) (int64, error) {
	rows, err := c.source.QueryTable(ctx, spec.Source, spec.SourceColumns)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var total int64
	batch := make([]Row, 0, c.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if spec.Transform != nil {
			for i, row := range batch {
				transformed, err := spec.Transform(row)
				if err != nil {
					return errors.TransformError(spec.Target, row, err)
				}
				batch[i] = transformed
			}
		}
		if err := c.target.InsertRows(ctx, spec.Target, spec.TargetColumns, batch); err != nil {
			return err
		}
		total += int64(len(batch))
		if c.progress != nil {
			c.progress(spec.Target, total)
		}
		batch = batch[:0]
		return nil
	}

	width := len(spec.SourceColumns)
	for rows.Next() {
		row := make(Row, width)
		ptrs := make([]interface{}, width)
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return total, errors.Wrap(err, errors.ErrCodeSourceRead,
				"Failed to scan source row").WithContext("table", spec.Source)
		}

		batch = append(batch, row)
		if len(batch) >= c.batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return total, errors.Wrap(err, errors.ErrCodeSourceRead,
			"Source read failed mid-table").WithContext("table", spec.Source)
	}

	if err := flush(); err != nil {
		return total, err
	}

	return total, nil
}
