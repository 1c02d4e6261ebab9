package distcache

import (
	"io"
	"log"
	"path"
	"strings"

	"github.com/docker/docker/pkg/locker"
	lru "github.com/hashicorp/golang-lru"
	"github.com/spf13/afero"
)

// FetcherOptions configures a worker-side artifact Fetcher
type FetcherOptions struct {
	LocalDir  string // [REQUIRED] local directory artifacts are materialized into
	CacheSize int    // number of materialized artifact paths to remember (default 128)
}

func ensureDefaultFetcherOptionsValues(opts *FetcherOptions) {
	if len(opts.LocalDir) == 0 {
		log.Fatal("FetcherOptions.LocalDir must be a local directory for materialized artifacts")
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = 128
	}
}

// A Fetcher materializes staged artifacts onto a worker's local filesystem,
// fetching each artifact at most once. Concurrent requests for the same
// artifact are serialized per-artifact, so a slow fetch never runs twice.
type Fetcher struct {
	cache   *Cache
	localFs afero.Fs
	opts    *FetcherOptions
	fetched *lru.Cache
	locks   *locker.Locker
}

// CreateFetcher returns a Fetcher materializing artifacts from the given
// Cache into a local filesystem
func CreateFetcher(cache *Cache, localFs afero.Fs, opts *FetcherOptions) (*Fetcher, error) {
	ensureDefaultFetcherOptionsValues(opts)
	fetched, err := lru.New(opts.CacheSize)
	if err != nil {
		return nil, err
	}
	if err := localFs.MkdirAll(opts.LocalDir, 0755); err != nil {
		return nil, err
	}
	return &Fetcher{
		cache:   cache,
		localFs: localFs,
		opts:    opts,
		fetched: fetched,
		locks:   locker.New(),
	}, nil
}

// File returns the local path of a staged artifact, fetching it from the
// shared filesystem if this worker has not materialized it yet
func (f *Fetcher) File(name string) (string, error) {
	f.locks.Lock(name)
	defer f.locks.Unlock(name)
	if localPath, ok := f.fetched.Get(name); ok {
		return localPath.(string), nil
	}
	localPath := path.Join(f.opts.LocalDir, localArtifactName(name))
	if err := f.materialize(name, localPath); err != nil {
		return "", err
	}
	f.fetched.Add(name, localPath)
	return localPath, nil
}

func (f *Fetcher) materialize(name, localPath string) error {
	src, err := f.cache.Open(name)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := f.localFs.Create(localPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// localArtifactName flattens a staged artifact name into a single local file
// name, dropping the compression suffix (artifacts are materialized
// decompressed)
func localArtifactName(name string) string {
	name = strings.TrimSuffix(name, compressedSuffix)
	return strings.ReplaceAll(name, "/", "_")
}
