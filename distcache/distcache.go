// Package distcache stages side-input artifacts to a distributed cache
// directory, and materializes them on workers. Staging copies local files
// into a session-scoped directory on a shared filesystem (optionally
// compressed); workers fetch artifacts at most once each and serve repeated
// requests from a local cache.
package distcache

import (
	"io"
	"log"
	"path"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	serrors "github.com/go-sif/sifkit/errors"
)

const compressedSuffix = ".zst"

// CacheOptions configures a distributed Cache
type CacheOptions struct {
	Dir      string // [REQUIRED] directory on the shared filesystem holding staged artifacts
	Compress bool   // iff true, artifacts are zstd-compressed while staging
}

func ensureDefaultCacheOptionsValues(opts *CacheOptions) {
	if len(opts.Dir) == 0 {
		log.Fatal("CacheOptions.Dir must be a directory on the shared filesystem")
	}
}

// A Cache is a directory on a shared filesystem holding staged side-input
// artifacts
type Cache struct {
	fs   afero.Fs
	opts *CacheOptions
}

// CreateCache returns a Cache over the given shared filesystem
func CreateCache(fs afero.Fs, opts *CacheOptions) *Cache {
	ensureDefaultCacheOptionsValues(opts)
	return &Cache{fs: fs, opts: opts}
}

// Stage copies local artifact files into a fresh staging session on the
// shared filesystem, in parallel, returning the staged artifact names in the
// same order as the given paths. Staged names are stable handles for Open and
// for worker-side Fetchers.
func (c *Cache) Stage(local afero.Fs, paths ...string) ([]string, error) {
	session, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	sessionDir := path.Join(c.opts.Dir, session.String())
	if err := c.fs.MkdirAll(sessionDir, 0755); err != nil {
		return nil, err
	}
	names := make([]string, len(paths))
	var g errgroup.Group
	for i, p := range paths {
		i, p := i, p
		name := path.Join(session.String(), path.Base(p))
		if c.opts.Compress {
			name += compressedSuffix
		}
		names[i] = name
		g.Go(func() error {
			return c.stageOne(local, p, name)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}

func (c *Cache) stageOne(local afero.Fs, localPath, name string) error {
	src, err := local.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := c.fs.Create(path.Join(c.opts.Dir, name))
	if err != nil {
		return err
	}
	defer dst.Close()
	if !c.opts.Compress {
		_, err = io.Copy(dst, src)
		return err
	}
	compressor, err := zstd.NewWriter(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(compressor, src); err != nil {
		compressor.Close()
		return err
	}
	return compressor.Close()
}

// Open streams a staged artifact, transparently decompressing artifacts
// staged with compression
func (c *Cache) Open(name string) (io.ReadCloser, error) {
	fullPath := path.Join(c.opts.Dir, name)
	exists, err := afero.Exists(c.fs, fullPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, serrors.ArtifactNotFoundError{Name: name}
	}
	f, err := c.fs.Open(fullPath)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(name, compressedSuffix) {
		return f, nil
	}
	decompressor, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &decompressedArtifact{file: f, decompressor: decompressor}, nil
}

type decompressedArtifact struct {
	file         afero.File
	decompressor *zstd.Decoder
}

func (d *decompressedArtifact) Read(p []byte) (int, error) {
	return d.decompressor.Read(p)
}

func (d *decompressedArtifact) Close() error {
	d.decompressor.Close()
	return d.file.Close()
}
