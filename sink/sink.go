// Package sink writes sharded output files to a distributed filesystem using
// a two-phase commit protocol. Each writer produces one shard under a
// temporary attempt location; closing a writer commits its shard into the
// job's temporary directory (phase one), and finalizing the write operation
// verifies the full shard set and renames shards into the destination
// (phase two). A partially-failed job never leaves partial output in the
// destination.
package sink

import (
	"github.com/gofrs/uuid"
	"github.com/spf13/afero"

	serrors "github.com/go-sif/sifkit/errors"
)

// A FileSink describes a sharded file output: a destination path on a
// filesystem, and the format each record is written in
type FileSink struct {
	fs       afero.Fs
	path     string
	format   RecordFormat
	validate bool
}

// CreateFileSink returns a FileSink writing records to the given path in the
// given format. The destination is validated not to exist before writing
// begins; use WithoutValidation to overwrite.
func CreateFileSink(fs afero.Fs, path string, format RecordFormat) *FileSink {
	return &FileSink{fs: fs, path: path, format: format, validate: true}
}

// WithoutValidation returns a copy of this FileSink which skips destination
// validation
func (s *FileSink) WithoutValidation() *FileSink {
	return &FileSink{fs: s.fs, path: s.path, format: s.format, validate: false}
}

// Validate confirms that the destination path does not already exist
func (s *FileSink) Validate() error {
	if !s.validate {
		return nil
	}
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return err
	}
	if exists {
		return serrors.OutputPathExistsError{Path: s.path}
	}
	return nil
}

// CreateWriteOperation begins a write job against this sink, identified by a
// fresh job ID. All shard writers for one logical write must come from the
// same WriteOperation.
func (s *FileSink) CreateWriteOperation() (*WriteOperation, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	jobID, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return createWriteOperation(s, jobID.String()), nil
}
