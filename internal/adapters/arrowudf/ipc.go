package arrowudf

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/ipc"
	"github.com/apache/arrow/go/v15/arrow/memory"
)

// MIME type of the Arrow IPC streaming format.
const StreamContentType = "application/vnd.apache.arrow.stream"

var ErrInvalidStream = errors.New("invalid arrow ipc stream")

// ReadRecords drains an IPC stream into memory. The caller must Release
// every returned record.
func ReadRecords(r io.Reader, mem memory.Allocator) ([]arrow.Record, error) {
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("read records: %w: %w", ErrInvalidStream, err)
	}
	defer rdr.Release()

	var recs []arrow.Record
	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		ReleaseRecords(recs)
		return nil, fmt.Errorf("read records: %w: %w", ErrInvalidStream, err)
	}
	return recs, nil
}

// WriteRecords writes recs as one IPC stream with the given schema.
// An empty recs still produces a valid stream carrying only the schema.
func WriteRecords(w io.Writer, schema *arrow.Schema, recs []arrow.Record, mem memory.Allocator) error {
	wr := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	for _, rec := range recs {
		if err := wr.Write(rec); err != nil {
			_ = wr.Close()
			return fmt.Errorf("write records: %w", err)
		}
	}
	if err := wr.Close(); err != nil {
		return fmt.Errorf("write records: close stream: %w", err)
	}
	return nil
}

func ReleaseRecords(recs []arrow.Record) {
	for _, rec := range recs {
		rec.Release()
	}
}

// CallStream reads every batch from r, computes distances for each, and only
// after all batches succeed writes the distance batches to w.
// It returns the number of rows processed.
func (f *Func) CallStream(r io.Reader, w io.Writer, names ColumnNames) (int64, error) {
	mem := f.adapter.Allocator()

	in, err := ReadRecords(r, mem)
	if err != nil {
		return 0, err
	}
	defer ReleaseRecords(in)

	out := make([]arrow.Record, 0, len(in))
	defer func() { ReleaseRecords(out) }()

	var rows int64
	for _, rec := range in {
		res, err := f.CallRecord(rec, names)
		if err != nil {
			return 0, err
		}
		out = append(out, res)
		rows += res.NumRows()
	}

	if err := WriteRecords(w, OutputSchema(), out, mem); err != nil {
		return 0, err
	}
	return rows, nil
}
