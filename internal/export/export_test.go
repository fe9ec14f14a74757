package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bighogz/form4-sales/internal/models"
	"github.com/bighogz/form4-sales/internal/report"
)

func sale(issuer string, shares, price, held float64) models.SaleRow {
	row := models.NewDirectRow(
		models.FilingInfo{
			OwnerName:  models.Value("Doe Jane"),
			Role:       models.Value("Director"),
			IssuerName: models.Value(issuer),
			FilingURL:  models.Value("https://www.sec.gov/a-index.htm"),
		},
		models.TransactionInfo{TransactionDate: models.Value("2024-01-12"), Code: models.Value("S")},
		models.DirectFields{},
	)
	return models.SaleRow{
		FlatRow:              row,
		SharesSold:           shares,
		PricePerShare:        price,
		SharesOwnedFollowing: held,
		TotalSaleValue:       shares * price,
		PercentHoldingsSold:  shares / (shares + held),
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "form4_sales_summary_2024-01-15.csv", CSVName("2024-01-15"))
	assert.Equal(t, "form4_sales_summary_2024-01-15.parquet", ParquetName("2024-01-15"))
	assert.Equal(t, "form4_sales_data.json", JSONName)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(path, []models.SaleRow{sale("Acme", 1000, 25.5, 9000)}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, report.Columns, records[0])
	row := records[1]
	assert.Equal(t, "Acme", row[2])
	assert.Equal(t, "1000", row[3])
	assert.Equal(t, "25.5", row[4])
	assert.Equal(t, "25500", row[5])
	assert.Equal(t, "0.1", row[8])
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), JSONName)
	require.NoError(t, WriteJSON(path, []models.SaleRow{sale("Acme", 1000, 25.5, 9000)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    {\n        \"Reporting Person Name (Box 1)\"")

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "$25,500.00", got[0][report.ColTotalSaleValue])
	assert.Equal(t, "10.00%", got[0][report.ColPercentSold])
	assert.Equal(t, "Table I (Non-Derivative)", got[0][report.ColTable])
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	require.NoError(t, WriteParquet(path, []models.SaleRow{sale("Acme", 1000, 25.5, 9000), sale("Beta", 1, 2, 3)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}

func TestSQLiteReplace(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "sales.db")
	sink, err := OpenSQLite(dsn)
	require.NoError(t, err)
	defer sink.Close()
	require.NoError(t, sink.Migrate(ctx))

	require.NoError(t, sink.Replace(ctx, "run-1", "2024-01-15", []models.SaleRow{sale("Acme", 1, 1, 1), sale("Beta", 2, 2, 2)}))
	require.NoError(t, sink.Replace(ctx, "run-1", "2024-01-16", []models.SaleRow{sale("Gamma", 3, 3, 3)}))
	n, err := sink.Count(ctx, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// A rerun for the same date replaces rather than appends.
	require.NoError(t, sink.Replace(ctx, "run-2", "2024-01-15", []models.SaleRow{sale("Acme", 1, 1, 1)}))
	n, err = sink.Count(ctx, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = sink.Count(ctx, "2024-01-16")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWriterWriteAll(t *testing.T) {
	dir := t.TempDir()
	w := New(Options{Dir: dir, Parquet: true, SQLitePath: filepath.Join(dir, "sales.db")})

	paths, err := w.WriteAll(context.Background(), "run-1", "2024-01-15", []models.SaleRow{sale("Acme", 1000, 25.5, 9000)})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, CSVName("2024-01-15")),
		filepath.Join(dir, JSONName),
		filepath.Join(dir, ParquetName("2024-01-15")),
		filepath.Join(dir, "sales.db"),
	}, paths)
	for _, p := range paths {
		assert.FileExists(t, p)
	}
}

func TestWriterSkipsEmptyResult(t *testing.T) {
	dir := t.TempDir()
	paths, err := New(Options{Dir: dir}).WriteAll(context.Background(), "run-1", "2024-01-15", nil)
	require.NoError(t, err)
	assert.Empty(t, paths)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := New(Options{Dir: dir}).WriteAll(context.Background(), "run-1", "2024-01-15", []models.SaleRow{sale("Acme", 1, 1, 1)})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{CSVName("2024-01-15"), JSONName}, names)
}

func TestSQLiteStoresTransactionOwnership(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "sales.db")
	sink, err := OpenSQLite(dsn)
	require.NoError(t, err)
	defer sink.Close()
	require.NoError(t, sink.Migrate(ctx))

	s := sale("Acme", 1, 1, 1)
	s.Filing.DirectOrIndirect = models.Value("D")
	s.Filing.NatureOfOwnership = models.Value("Direct")
	s.Txn.DirectOrIndirect = models.Value("I")
	s.Txn.NatureOfOwnership = models.Value("By Trust")
	plain := sale("Beta", 1, 1, 1)
	plain.Filing.DirectOrIndirect = models.Value("D")
	require.NoError(t, sink.Replace(ctx, "run-1", "2024-01-15", []models.SaleRow{s, plain}))

	rows, err := sink.db.QueryContext(ctx, `SELECT issuer_name, direct_or_indirect, nature_of_ownership
		FROM form4_sales WHERE target_date = ? ORDER BY issuer_name`, "2024-01-15")
	require.NoError(t, err)
	defer rows.Close()

	var got [][3]string
	for rows.Next() {
		var r [3]string
		require.NoError(t, rows.Scan(&r[0], &r[1], &r[2]))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, [][3]string{
		{"Acme", "I", "By Trust"},
		{"Beta", "D", models.NotApplicable},
	}, got)
}

func TestNewSaleRecordOwnership(t *testing.T) {
	s := sale("Acme", 1, 1, 1)
	s.Filing.DirectOrIndirect = models.Value("D")
	s.Txn.DirectOrIndirect = models.Value("I")
	rec := newSaleRecord(s)
	assert.Equal(t, "I", rec.DirectOrIndirect)
}

func TestWriteAllRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the JSON export makes the final rename fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, JSONName), 0o755))

	paths, err := New(Options{Dir: dir}).WriteAll(context.Background(), "run-1", "2024-01-15", []models.SaleRow{sale("Acme", 1, 1, 1)})
	require.Error(t, err)
	assert.Nil(t, paths)
	assert.NoFileExists(t, filepath.Join(dir, CSVName("2024-01-15")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, JSONName, entries[0].Name())
}

func TestWriteAllRemovesFilesWhenSQLiteFails(t *testing.T) {
	dir := t.TempDir()
	w := New(Options{Dir: dir, Parquet: true, SQLitePath: filepath.Join(dir, "missing", "sales.db")})

	paths, err := w.WriteAll(context.Background(), "run-1", "2024-01-15", []models.SaleRow{sale("Acme", 1, 1, 1)})
	require.Error(t, err)
	assert.Nil(t, paths)
	assert.NoFileExists(t, filepath.Join(dir, CSVName("2024-01-15")))
	assert.NoFileExists(t, filepath.Join(dir, JSONName))
	assert.NoFileExists(t, filepath.Join(dir, ParquetName("2024-01-15")))
}
