package migration

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailsync/pkg/errors"
)

// sequenceSource records the order tables are read in and serves each from
// a shared sqlmock handle.
type sequenceSource struct {
	db        *sql.DB
	verifyErr error
	queried   []string
}

func (s *sequenceSource) VerifyTables(ctx context.Context) error {
	return s.verifyErr
}

func (s *sequenceSource) QueryTable(ctx context.Context, table string, columns []string) (*sql.Rows, error) {
	s.queried = append(s.queried, table)
	return s.db.QueryContext(ctx, "SELECT FROM "+table)
}

func newSequenceSource(t *testing.T) (*sequenceSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &sequenceSource{db: db}, mock
}

// expectAllTables queues one query per table spec, in order, with the given
// row counts keyed by source table name.
func expectAllTables(mock sqlmock.Sqlmock, counts map[string]int) {
	for _, spec := range TableSpecs() {
		rows := sqlmock.NewRows(spec.SourceColumns)
		for i := 0; i < counts[spec.Source]; i++ {
			switch spec.Source {
			case "Region":
				rows.AddRow(int64(i+1), "region")
			case "Country":
				rows.AddRow(int64(i+1), "country", int64(1))
			case "Customer":
				rows.AddRow(int64(i+1), "First", "Last", "1 Main St", "Town", int64(1))
			case "ProductCategory":
				rows.AddRow(int64(i+1), "Beverages", "Drinks")
			case "Product":
				rows.AddRow(int64(i+1), "Tea", 3.5, int64(1))
			case "OrderDetail":
				rows.AddRow(int64(i+1), int64(1), int64(1), "20230101", int64(2))
			}
		}
		mock.ExpectQuery("SELECT FROM " + spec.Source).WillReturnRows(rows)
	}
}

func TestRunCopiesTablesInDependencyOrder(t *testing.T) {
	src, mock := newSequenceSource(t)
	expectAllTables(mock, map[string]int{
		"Region":      2,
		"Country":     3,
		"OrderDetail": 1,
	})
	tgt := &recordingTarget{}

	var started, finished []string
	svc := NewService(src, tgt, 100, Hooks{
		OnTableStart:  func(table string) { started = append(started, table) },
		OnTableFinish: func(table string, rows int64) { finished = append(finished, table) },
	})

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, tgt.resetCalled)
	assert.Equal(t,
		[]string{"Region", "Country", "Customer", "ProductCategory", "Product", "OrderDetail"},
		src.queried)

	wantTargets := []string{"region", "country", "customer", "product_category", "product", "order_detail"}
	assert.Equal(t, wantTargets, started)
	assert.Equal(t, wantTargets, finished)

	require.Len(t, summary.Tables, 6)
	assert.Equal(t, "region", summary.Tables[0].Table)
	assert.Equal(t, int64(2), summary.Tables[0].Rows)
	assert.Equal(t, int64(3), summary.Tables[1].Rows)
	assert.Equal(t, int64(0), summary.Tables[2].Rows)
	assert.Equal(t, int64(6), summary.TotalRows)
}

func TestRunVerifyFailureSkipsReset(t *testing.T) {
	src, _ := newSequenceSource(t)
	src.verifyErr = errors.MissingTablesError([]string{"OrderDetail"}, []string{"Region"})
	tgt := &recordingTarget{}

	summary, err := NewService(src, tgt, 100, Hooks{}).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMissingTables, errors.GetErrorCode(err))
	assert.Nil(t, summary)
	assert.False(t, tgt.resetCalled, "a bad source must never destroy the target")
	assert.Empty(t, src.queried)
}

func TestRunResetFailureSkipsCopies(t *testing.T) {
	src, _ := newSequenceSource(t)
	tgt := &recordingTarget{
		resetErr: errors.SchemaResetError("DROP TABLE region", assert.AnError),
	}

	summary, err := NewService(src, tgt, 100, Hooks{}).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSchemaReset, errors.GetErrorCode(err))
	assert.Nil(t, summary)
	assert.Empty(t, src.queried)
}

func TestRunAbortsOnFirstCopyError(t *testing.T) {
	src, mock := newSequenceSource(t)
	// Region succeeds, Country's insert fails, later tables are never read.
	mock.ExpectQuery("SELECT FROM Region").WillReturnRows(
		sqlmock.NewRows([]string{"RegionID", "Region"}).AddRow(int64(1), "region"))
	mock.ExpectQuery("SELECT FROM Country").WillReturnRows(
		sqlmock.NewRows([]string{"CountryID", "Country", "RegionID"}).AddRow(int64(1), "country", int64(1)))
	tgt := &recordingTarget{
		insertErr:  errors.SQLError("Insert failed", "INSERT INTO country", assert.AnError),
		failOnCall: 2,
	}

	summary, err := NewService(src, tgt, 100, Hooks{}).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSQLExecution, errors.GetErrorCode(err))
	assert.Nil(t, summary)
	assert.Equal(t, []string{"Region", "Country"}, src.queried)
}
