package export

import (
	"bytes"

	"github.com/rotisserie/eris"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/bighogz/form4-sales/internal/models"
)

type saleRecord struct {
	ReportingPerson     string  `parquet:"name=reporting_person, type=BYTE_ARRAY, convertedtype=UTF8"`
	OfficerTitle        string  `parquet:"name=officer_title, type=BYTE_ARRAY, convertedtype=UTF8"`
	IssuerName          string  `parquet:"name=issuer_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	SharesSold          float64 `parquet:"name=shares_sold, type=DOUBLE"`
	PricePerShare       float64 `parquet:"name=price_per_share, type=DOUBLE"`
	TotalSaleValue      float64 `parquet:"name=total_sale_value, type=DOUBLE"`
	TransactionDate     string  `parquet:"name=transaction_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	TransactionTable    string  `parquet:"name=transaction_table, type=BYTE_ARRAY, convertedtype=UTF8"`
	PercentHoldingsSold float64 `parquet:"name=percent_holdings_sold, type=DOUBLE"`
	FilingURL           string  `parquet:"name=filing_url, type=BYTE_ARRAY, convertedtype=UTF8"`
	DirectOrIndirect    string  `parquet:"name=direct_or_indirect_ownership, type=BYTE_ARRAY, convertedtype=UTF8"`
	NatureOfOwnership   string  `parquet:"name=nature_of_ownership, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// newSaleRecord carries the transaction's ownership nature, falling back to
// the filing-level value.
func newSaleRecord(s models.SaleRow) saleRecord {
	own := s.EffectiveOwnership()
	return saleRecord{
		ReportingPerson:     s.Filing.OwnerName.String(),
		OfficerTitle:        s.Filing.Role.String(),
		IssuerName:          s.Filing.IssuerName.String(),
		SharesSold:          s.SharesSold,
		PricePerShare:       s.PricePerShare,
		TotalSaleValue:      s.TotalSaleValue,
		TransactionDate:     s.Txn.TransactionDate.String(),
		TransactionTable:    s.Table.String(),
		PercentHoldingsSold: s.PercentHoldingsSold,
		FilingURL:           s.Filing.FilingURL.String(),
		DirectOrIndirect:    own.DirectOrIndirectOwnership.String(),
		NatureOfOwnership:   own.NatureOfOwnership.String(),
	}
}

type memFile struct {
	buffer *bytes.Buffer
}

func newMemFile() *memFile {
	return &memFile{buffer: &bytes.Buffer{}}
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, eris.New("read not supported") }
func (m *memFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFile) Close() error                              { return nil }
func (m *memFile) Bytes() []byte                             { return m.buffer.Bytes() }

// WriteParquet writes the summary as a snappy-compressed parquet file with
// raw numeric columns.
func WriteParquet(path string, sales []models.SaleRow) error {
	mem := newMemFile()
	pw, err := writer.NewParquetWriter(mem, new(saleRecord), 1)
	if err != nil {
		return eris.Wrap(err, "export: parquet writer")
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, s := range sales {
		rec := newSaleRecord(s)
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return eris.Wrap(err, "export: parquet row")
		}
	}
	if err := pw.WriteStop(); err != nil {
		return eris.Wrap(err, "export: parquet finalize")
	}
	return writeFileAtomic(path, mem.Bytes())
}
