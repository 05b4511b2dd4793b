package analyzer

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	pqfile "github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// parquetSampleBatch is the row cap of the single batch read for value
// sampling. Structure comes from metadata alone; only sampling touches
// row data.
var parquetSampleBatch = int64(min(maxTypedRows, chunkRows))

// AnalyzeParquet profiles a columnar binary file from its metadata: row
// count, column names, and logical types are read without scanning any
// row, in O(1) memory regardless of file size.
//
// Value sampling is intentionally shallow. Only the first record batch is
// read, and within it at most 2×maxSamples rows are scanned per column;
// columns whose first distinct values appear later in the file are left
// unsampled. A sampling failure degrades to a progress note, never to a
// result error.
func AnalyzeParquet(path string, progress Progress) *Result {
	res := newResult(SourceParquet, path)

	progress.Emit("parquet: reading metadata...")

	rdr, err := pqfile.OpenParquetFile(path, false)
	if err != nil {
		return res.fail(fmt.Errorf("open parquet: %w", err))
	}
	defer rdr.Close()

	arrowRdr, err := pqarrow.NewFileReader(
		rdr,
		pqarrow.ArrowReadProperties{BatchSize: parquetSampleBatch},
		memory.DefaultAllocator,
	)
	if err != nil {
		return res.fail(fmt.Errorf("arrow reader: %w", err))
	}

	schema, err := arrowRdr.Schema()
	if err != nil {
		return res.fail(fmt.Errorf("read schema: %w", err))
	}

	res.TotalRows = rdr.NumRows()
	for _, field := range schema.Fields() {
		res.Columns = append(res.Columns, field.Name)
		res.Types[field.Name] = mapColumnTypeName(field.Type.String())
	}

	progress.Emit("parquet: extracting value sample...")
	if err := sampleFirstBatch(arrowRdr, schema, res); err != nil {
		progress.Emit("parquet: sampling skipped: %v", err)
	}
	return res
}

// sampleFirstBatch fills res.Samples from the first record batch of the
// first row group.
func sampleFirstBatch(arrowRdr *pqarrow.FileReader, schema *arrow.Schema, res *Result) error {
	if len(res.Columns) == 0 {
		return nil
	}
	if rg := arrowRdr.ParquetReader().NumRowGroups(); rg == 0 {
		return nil
	}

	rr, err := arrowRdr.GetRecordReader(context.Background(), nil, []int{0})
	if err != nil {
		return fmt.Errorf("record reader: %w", err)
	}
	defer rr.Release()

	if !rr.Next() {
		return rr.Err()
	}
	rec := rr.Record()

	samp := newSampler()
	for i, name := range res.Columns {
		if i >= int(rec.NumCols()) {
			break
		}
		col := rec.Column(i)
		limit := min(int(rec.NumRows()), 2*maxSamples)
		for j := 0; j < limit && !samp.Full(name); j++ {
			if col.IsNull(j) {
				continue
			}
			samp.Add(name, col.ValueStr(j))
		}
	}
	res.Samples = samp.Samples()
	return nil
}
