package migration

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailsync/pkg/errors"
)

// mockSource serves table reads from a sqlmock-backed handle.
type mockSource struct {
	db        *sql.DB
	verifyErr error
}

func (m *mockSource) VerifyTables(ctx context.Context) error {
	return m.verifyErr
}

func (m *mockSource) QueryTable(ctx context.Context, table string, columns []string) (*sql.Rows, error) {
	return m.db.QueryContext(ctx, "SELECT FROM "+table)
}

// recordingTarget captures inserted batches.
type recordingTarget struct {
	resetCalled bool
	resetErr    error
	insertErr   error
	failOnCall  int // 1-based insert call to fail on; 0 = honor insertErr always
	calls       int
	batches     map[string][][]Row
}

func (r *recordingTarget) ResetSchema(ctx context.Context) error {
	r.resetCalled = true
	return r.resetErr
}

func (r *recordingTarget) InsertRows(ctx context.Context, table string, columns []string, rows []Row) error {
	r.calls++
	if r.insertErr != nil && (r.failOnCall == 0 || r.calls == r.failOnCall) {
		return r.insertErr
	}
	if r.batches == nil {
		r.batches = make(map[string][][]Row)
	}
	batch := make([]Row, len(rows))
	copy(batch, rows)
	r.batches[table] = append(r.batches[table], batch)
	return nil
}

func newSourceWithRows(t *testing.T, table string, cols []string, rows *sqlmock.Rows) *mockSource {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.ExpectQuery("SELECT FROM " + table).WillReturnRows(rows)
	return &mockSource{db: db}
}

func regionSpec() TableSpec {
	return TableSpec{
		Source:        "Region",
		Target:        "region",
		SourceColumns: []string{"RegionID", "Region"},
		TargetColumns: []string{"region_id", "region"},
	}
}

func TestCopyTableBatchBoundaries(t *testing.T) {
	// 5 rows with batchSize 2: three batches of 2/2/1, every row exactly once.
	rows := sqlmock.NewRows([]string{"RegionID", "Region"})
	for i := 1; i <= 5; i++ {
		rows.AddRow(int64(i), fmt.Sprintf("region-%d", i))
	}
	src := newSourceWithRows(t, "Region", []string{"RegionID", "Region"}, rows)
	tgt := &recordingTarget{}

	var progress []int64
	copier := NewCopier(src, tgt, 2, func(table string, copied int64) {
		progress = append(progress, copied)
	})

	total, err := copier.CopyTable(context.Background(), regionSpec())
	require.NoError(t, err)

	assert.Equal(t, int64(5), total)
	require.Len(t, tgt.batches["region"], 3)
	assert.Len(t, tgt.batches["region"][0], 2)
	assert.Len(t, tgt.batches["region"][1], 2)
	assert.Len(t, tgt.batches["region"][2], 1)
	assert.Equal(t, []int64{2, 4, 5}, progress)

	// Identity copy: keys and values pass through untouched.
	assert.Equal(t, Row{int64(1), "region-1"}, tgt.batches["region"][0][0])
}

func TestCopyTableExactMultipleOfBatchSize(t *testing.T) {
	rows := sqlmock.NewRows([]string{"RegionID", "Region"})
	for i := 1; i <= 4; i++ {
		rows.AddRow(int64(i), fmt.Sprintf("region-%d", i))
	}
	src := newSourceWithRows(t, "Region", []string{"RegionID", "Region"}, rows)
	tgt := &recordingTarget{}

	total, err := NewCopier(src, tgt, 2, nil).CopyTable(context.Background(), regionSpec())
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, tgt.batches["region"], 2)
}

func TestCopyTableEmptyTable(t *testing.T) {
	src := newSourceWithRows(t, "Region", []string{"RegionID", "Region"},
		sqlmock.NewRows([]string{"RegionID", "Region"}))
	tgt := &recordingTarget{}

	total, err := NewCopier(src, tgt, 2, nil).CopyTable(context.Background(), regionSpec())
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Zero(t, tgt.calls)
}

func TestCopyTableAppliesTransform(t *testing.T) {
	rows := sqlmock.NewRows([]string{"ProductID", "ProductName", "ProductUnitPrice", "ProductCategoryID"}).
		AddRow(int64(50), "Tea", 3.995, int64(5))
	src := newSourceWithRows(t, "Product", nil, rows)
	tgt := &recordingTarget{}

	spec := TableSpec{
		Source:        "Product",
		Target:        "product",
		SourceColumns: []string{"ProductID", "ProductName", "ProductUnitPrice", "ProductCategoryID"},
		TargetColumns: []string{"product_id", "product_name", "product_unit_price", "product_category_id"},
		Transform:     TransformProduct,
	}

	total, err := NewCopier(src, tgt, 10, nil).CopyTable(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	inserted := tgt.batches["product"][0][0]
	assert.InDelta(t, 4.00, inserted[2].(float64), 1e-9)
}

func TestCopyTableTransformErrorAbortsBatch(t *testing.T) {
	rows := sqlmock.NewRows([]string{"OrderID", "CustomerID", "ProductID", "OrderDate", "QuantityOrdered"}).
		AddRow(int64(1), int64(1), int64(1), "garbage-date", int64(2))
	src := newSourceWithRows(t, "OrderDetail", nil, rows)
	tgt := &recordingTarget{}

	spec := TableSpec{
		Source:        "OrderDetail",
		Target:        "order_detail",
		SourceColumns: []string{"OrderID", "CustomerID", "ProductID", "OrderDate", "QuantityOrdered"},
		TargetColumns: []string{"order_id", "customer_id", "product_id", "order_date", "quantity_ordered"},
		Transform:     TransformOrderDetail,
	}

	total, err := NewCopier(src, tgt, 10, nil).CopyTable(context.Background(), spec)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTransform, errors.GetErrorCode(err))
	assert.Equal(t, int64(0), total)
	assert.Zero(t, tgt.calls, "a failed transform must not reach the target")
}

func TestCopyTableInsertErrorStopsMidTable(t *testing.T) {
	rows := sqlmock.NewRows([]string{"RegionID", "Region"})
	for i := 1; i <= 6; i++ {
		rows.AddRow(int64(i), fmt.Sprintf("region-%d", i))
	}
	src := newSourceWithRows(t, "Region", nil, rows)
	tgt := &recordingTarget{
		insertErr:  errors.ConstraintViolationError("region", fmt.Errorf("pq: duplicate key")),
		failOnCall: 2,
	}

	total, err := NewCopier(src, tgt, 2, nil).CopyTable(context.Background(), regionSpec())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConstraintViolation, errors.GetErrorCode(err))
	// The first batch is already durable; the failure leaves the rest un-migrated.
	assert.Equal(t, int64(2), total)
	require.Len(t, tgt.batches["region"], 1)
}
