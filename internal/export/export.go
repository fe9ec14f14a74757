// Package export writes the sale summary to files for downstream consumers.
package export

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bighogz/form4-sales/internal/models"
)

// JSONName is the fixed name of the structured export the website reads.
const JSONName = "form4_sales_data.json"

// CSVName returns the tabular export name for a target date.
func CSVName(date string) string {
	return "form4_sales_summary_" + date + ".csv"
}

// ParquetName returns the columnar export name for a target date.
func ParquetName(date string) string {
	return "form4_sales_summary_" + date + ".parquet"
}

// Options selects the sinks. CSV and JSON are always written.
type Options struct {
	Dir        string
	Parquet    bool
	SQLitePath string
}

// Writer fans a run's sale rows out to every configured sink.
type Writer struct {
	opts Options
}

func New(opts Options) *Writer {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	return &Writer{opts: opts}
}

// WriteAll writes every sink and returns the written locations. Nothing is
// written for an empty result. On failure the files written so far are
// removed so a run never leaves a partial export behind.
func (w *Writer) WriteAll(ctx context.Context, runID, date string, sales []models.SaleRow) (paths []string, err error) {
	if len(sales) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(w.opts.Dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "export: create %s", w.opts.Dir)
	}

	var files []string
	defer func() {
		if err == nil {
			return
		}
		for _, f := range files {
			if rmErr := os.Remove(f); rmErr != nil && !os.IsNotExist(rmErr) {
				zap.L().Warn("export: remove partial output", zap.String("path", f), zap.Error(rmErr))
			}
		}
		paths = nil
	}()

	csvPath := filepath.Join(w.opts.Dir, CSVName(date))
	if err := WriteCSV(csvPath, sales); err != nil {
		return nil, err
	}
	files = append(files, csvPath)

	jsonPath := filepath.Join(w.opts.Dir, JSONName)
	if err := WriteJSON(jsonPath, sales); err != nil {
		return nil, err
	}
	files = append(files, jsonPath)

	if w.opts.Parquet {
		p := filepath.Join(w.opts.Dir, ParquetName(date))
		if err := WriteParquet(p, sales); err != nil {
			return nil, err
		}
		files = append(files, p)
	}

	paths = append(paths, files...)
	if w.opts.SQLitePath != "" {
		if err := w.writeSQLite(ctx, runID, date, sales); err != nil {
			return nil, err
		}
		paths = append(paths, w.opts.SQLitePath)
	}

	zap.L().Info("export: wrote summary",
		zap.String("date", date),
		zap.Int("rows", len(sales)),
		zap.Strings("paths", paths),
	)
	return paths, nil
}

func (w *Writer) writeSQLite(ctx context.Context, runID, date string, sales []models.SaleRow) error {
	sink, err := OpenSQLite(w.opts.SQLitePath)
	if err != nil {
		return err
	}
	defer sink.Close()
	if err := sink.Migrate(ctx); err != nil {
		return err
	}
	if err := sink.Replace(ctx, runID, date, sales); err != nil {
		return err
	}
	stored, err := sink.Count(ctx, date)
	if err != nil {
		return err
	}
	zap.L().Debug("export: sqlite rows stored",
		zap.String("path", w.opts.SQLitePath),
		zap.String("date", date),
		zap.Int("stored", stored),
	)
	return nil
}

// writeFileAtomic writes via a temp file in the same directory so readers
// never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrapf(err, "export: create temp for %s", path)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "export: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", path)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return eris.Wrapf(err, "export: chmod %s", path)
	}
	return eris.Wrapf(os.Rename(tmp.Name(), path), "export: rename %s", path)
}
