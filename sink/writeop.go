package sink

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	serrors "github.com/go-sif/sifkit/errors"
	"github.com/go-sif/sifkit/logging"
)

const (
	tempDirName       = "_temporary"
	successMarkerName = "_SUCCESS"
)

// A WriteOperation coordinates one write job against a FileSink: it owns the
// job's temporary directory, hands out shard writers, and commits or discards
// the job's output as a whole
type WriteOperation struct {
	sink    *FileSink
	jobID   string
	tempDir string
}

func createWriteOperation(sink *FileSink, jobID string) *WriteOperation {
	return &WriteOperation{
		sink:    sink,
		jobID:   jobID,
		tempDir: path.Join(sink.path, tempDirName, jobID),
	}
}

// Initialize prepares the job's temporary directory. Must be called before
// any shard writer is created.
func (op *WriteOperation) Initialize() error {
	return op.sink.fs.MkdirAll(op.tempDir, 0755)
}

// Finalize commits the job: it verifies that the shards present in the job
// temporary directory exactly match the given writer results, renames them
// into the destination with sequential Hadoop-style names (part-r-00000 and
// so on), writes a success marker, and removes the temporary directory. With
// zero writer results the destination directory is simply created.
func (op *WriteOperation) Finalize(writerResults []string) error {
	if len(writerResults) == 0 {
		return op.sink.fs.MkdirAll(op.sink.path, 0755)
	}

	// a duplicate writer result means two bundles committed the same shard
	expected := make(map[string]bool, len(writerResults))
	for _, result := range writerResults {
		expected[result] = true
	}
	if len(expected) != len(writerResults) {
		return serrors.ShardCollisionError{}
	}

	infos, err := afero.ReadDir(op.sink.fs, op.tempDir)
	if err != nil {
		return err
	}
	var shardFiles []string
	actual := make(map[string]bool)
	for _, info := range infos {
		name := info.Name()
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			continue
		}
		shardFiles = append(shardFiles, name)
		actual[shardName(name)] = true
	}
	if missing, unexpected := diffShardSets(expected, actual); len(missing) > 0 || len(unexpected) > 0 {
		return serrors.ShardMismatchError{Missing: missing, Unexpected: unexpected}
	}

	// rename shards into the destination in sorted order, so output numbering
	// is deterministic for a given shard set
	if err := op.sink.fs.MkdirAll(op.sink.path, 0755); err != nil {
		return err
	}
	sort.Strings(shardFiles)
	var renameErrs *multierror.Error
	for i, name := range shardFiles {
		target := fmt.Sprintf("part-r-%05d%s", i, shardExtension(name))
		if err := op.sink.fs.Rename(path.Join(op.tempDir, name), path.Join(op.sink.path, target)); err != nil {
			renameErrs = multierror.Append(renameErrs, err)
		}
	}
	if err := renameErrs.ErrorOrNil(); err != nil {
		return err
	}

	marker, err := op.sink.fs.Create(path.Join(op.sink.path, successMarkerName))
	if err != nil {
		return err
	}
	if err := marker.Close(); err != nil {
		return err
	}

	// the job is committed at this point - a failure to clean up the
	// temporary directory must not fail the write
	if err := op.sink.fs.RemoveAll(path.Join(op.sink.path, tempDirName)); err != nil {
		logging.Logf(logging.WarnLevel, "Unable to remove temporary directory for job %s: %v", op.jobID, err)
	}
	return nil
}

// shardName strips the format extension from a shard file name
func shardName(fileName string) string {
	if pos := strings.IndexByte(fileName, '.'); pos > 0 {
		return fileName[:pos]
	}
	return fileName
}

// shardExtension returns the format extension of a shard file name, or ""
func shardExtension(fileName string) string {
	if pos := strings.IndexByte(fileName, '.'); pos > 0 {
		return fileName[pos:]
	}
	return ""
}

func diffShardSets(expected, actual map[string]bool) (missing, unexpected []string) {
	for shard := range expected {
		if !actual[shard] {
			missing = append(missing, shard)
		}
	}
	for shard := range actual {
		if !expected[shard] {
			unexpected = append(unexpected, shard)
		}
	}
	sort.Strings(missing)
	sort.Strings(unexpected)
	return
}
