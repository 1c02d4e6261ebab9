package sink

import (
	"fmt"
	"path"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

// A ShardWriter writes one bundle of records as a single output shard. Each
// writer is identified by the hash of its bundle's unique ID; the surrounding
// pipeline handles retrying failed bundles, so each shard has exactly one
// attempt. Records are written to an attempt location, and Close promotes the
// shard into the job's temporary directory (the task-commit phase).
type ShardWriter struct {
	op          *WriteOperation
	shard       string
	attemptDir  string
	attemptPath string
	file        afero.File
	records     RecordWriter
}

// CreateShardWriter opens a ShardWriter for one bundle of records. uid must
// be unique per bundle within the write operation.
func (op *WriteOperation) CreateShardWriter(uid string) (*ShardWriter, error) {
	shard := fmt.Sprintf("part-r-%016x", xxhash.Sum64String(uid))
	attemptDir := path.Join(op.tempDir, "_attempt-"+shard)
	if err := op.sink.fs.MkdirAll(attemptDir, 0755); err != nil {
		return nil, err
	}
	attemptPath := path.Join(attemptDir, shard+op.sink.format.Extension())
	file, err := op.sink.fs.Create(attemptPath)
	if err != nil {
		return nil, err
	}
	records, err := op.sink.format.OpenWriter(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return &ShardWriter{
		op:          op,
		shard:       shard,
		attemptDir:  attemptDir,
		attemptPath: attemptPath,
		file:        file,
		records:     records,
	}, nil
}

// Write appends one record to this shard
func (w *ShardWriter) Write(v interface{}) error {
	return w.records.WriteRecord(v)
}

// Close finishes the shard and commits it into the job's temporary
// directory, returning the writer result to be passed to Finalize
func (w *ShardWriter) Close() (string, error) {
	if err := w.records.Close(); err != nil {
		return "", err
	}
	if err := w.file.Close(); err != nil {
		return "", err
	}
	fs := w.op.sink.fs
	committed := path.Join(w.op.tempDir, w.shard+w.op.sink.format.Extension())
	if err := fs.Rename(w.attemptPath, committed); err != nil {
		return "", err
	}
	if err := fs.RemoveAll(w.attemptDir); err != nil {
		return "", err
	}
	return w.shard, nil
}
