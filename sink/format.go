package sink

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4"

	"github.com/go-sif/sifkit"
)

// A RecordFormat opens per-shard record writers in a particular file format
type RecordFormat interface {
	Extension() string                            // Extension returns the file extension for shards in this format, including the leading dot
	OpenWriter(w io.Writer) (RecordWriter, error) // OpenWriter begins writing one shard's records to w
}

// A RecordWriter writes a sequence of records to one shard
type RecordWriter interface {
	WriteRecord(v interface{}) error // WriteRecord appends one record
	Close() error                    // Close flushes any buffered data. It does not close the underlying stream.
}

// CreateTextFormat returns a RecordFormat writing the string form of each
// record on its own line
func CreateTextFormat() RecordFormat {
	return &textFormat{}
}

type textFormat struct{}

func (f *textFormat) Extension() string {
	return ".txt"
}

func (f *textFormat) OpenWriter(w io.Writer) (RecordWriter, error) {
	return &textWriter{w: w}, nil
}

type textWriter struct {
	w io.Writer
}

func (tw *textWriter) WriteRecord(v interface{}) error {
	_, err := fmt.Fprintf(tw.w, "%v\n", v)
	return err
}

func (tw *textWriter) Close() error {
	return nil
}

// CreateRecordFormat returns a RecordFormat encoding each record with the
// given Coder in chunked mode, so shards hold back-to-back self-describing
// frames readable by repeated Decode calls
func CreateRecordFormat(c sifkit.Coder) RecordFormat {
	return &coderFormat{coder: c}
}

type coderFormat struct {
	coder sifkit.Coder
}

func (f *coderFormat) Extension() string {
	return ".rec"
}

func (f *coderFormat) OpenWriter(w io.Writer) (RecordWriter, error) {
	return &coderWriter{coder: f.coder, w: w}, nil
}

type coderWriter struct {
	coder sifkit.Coder
	w     io.Writer
}

func (cw *coderWriter) WriteRecord(v interface{}) error {
	return cw.coder.Encode(v, cw.w, sifkit.ChunkedContext)
}

func (cw *coderWriter) Close() error {
	return nil
}

// CreateLZ4Format wraps another RecordFormat with lz4 stream compression
func CreateLZ4Format(inner RecordFormat) RecordFormat {
	return &lz4Format{inner: inner}
}

type lz4Format struct {
	inner RecordFormat
}

func (f *lz4Format) Extension() string {
	return f.inner.Extension() + ".lz4"
}

func (f *lz4Format) OpenWriter(w io.Writer) (RecordWriter, error) {
	compressor := lz4.NewWriter(w)
	records, err := f.inner.OpenWriter(compressor)
	if err != nil {
		return nil, err
	}
	return &lz4Writer{records: records, compressor: compressor}, nil
}

type lz4Writer struct {
	records    RecordWriter
	compressor *lz4.Writer
}

func (lw *lz4Writer) WriteRecord(v interface{}) error {
	return lw.records.WriteRecord(v)
}

func (lw *lz4Writer) Close() error {
	if err := lw.records.Close(); err != nil {
		return err
	}
	return lw.compressor.Close()
}
