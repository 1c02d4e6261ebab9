package distcache

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	serrors "github.com/go-sif/sifkit/errors"
)

func stageArtifacts(t *testing.T, compress bool, files map[string]string) (*Cache, []string) {
	local := afero.NewMemMapFs()
	var paths []string
	for p, content := range files {
		require.Nil(t, afero.WriteFile(local, p, []byte(content), 0644))
		paths = append(paths, p)
	}
	shared := afero.NewMemMapFs()
	cache := CreateCache(shared, &CacheOptions{Dir: "cache", Compress: compress})
	names, err := cache.Stage(local, paths...)
	require.Nil(t, err)
	require.Len(t, names, len(paths))
	return cache, names
}

func TestStageAndOpen(t *testing.T) {
	cache, names := stageArtifacts(t, false, map[string]string{
		"data/lookup.jsonl": "line one\nline two\n",
	})
	r, err := cache.Open(names[0])
	require.Nil(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.Nil(t, err)
	require.Equal(t, "line one\nline two\n", string(data))
}

func TestStageCompressed(t *testing.T) {
	content := strings.Repeat("compressible content ", 1000)
	cache, names := stageArtifacts(t, true, map[string]string{
		"data/big.txt": content,
	})
	require.True(t, strings.HasSuffix(names[0], ".zst"))

	// the staged bytes are smaller than the original
	info, err := cache.fs.Stat("cache/" + names[0])
	require.Nil(t, err)
	require.Less(t, info.Size(), int64(len(content)))

	// Open decompresses transparently
	r, err := cache.Open(names[0])
	require.Nil(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.Nil(t, err)
	require.Equal(t, content, string(data))
}

func TestOpenMissingArtifact(t *testing.T) {
	shared := afero.NewMemMapFs()
	cache := CreateCache(shared, &CacheOptions{Dir: "cache"})
	_, err := cache.Open("no-such-session/artifact.txt")
	require.IsType(t, serrors.ArtifactNotFoundError{}, err)
}

func TestFetcherMaterializesOnce(t *testing.T) {
	cache, names := stageArtifacts(t, true, map[string]string{
		"data/model.bin": "model weights",
	})
	localFs := afero.NewMemMapFs()
	fetcher, err := CreateFetcher(cache, localFs, &FetcherOptions{LocalDir: "work"})
	require.Nil(t, err)

	localPath, err := fetcher.File(names[0])
	require.Nil(t, err)
	data, err := afero.ReadFile(localFs, localPath)
	require.Nil(t, err)
	require.Equal(t, "model weights", string(data))

	// deleting the staged artifact proves the second request is served from
	// the already-materialized copy
	require.Nil(t, cache.fs.Remove("cache/"+names[0]))
	again, err := fetcher.File(names[0])
	require.Nil(t, err)
	require.Equal(t, localPath, again)
}

// countingFs counts Open calls against the shared filesystem, exposing how
// many times an artifact was actually fetched
type countingFs struct {
	afero.Fs
	opens int32
}

func (c *countingFs) Open(name string) (afero.File, error) {
	atomic.AddInt32(&c.opens, 1)
	return c.Fs.Open(name)
}

func TestFetcherSingleFetchUnderConcurrency(t *testing.T) {
	local := afero.NewMemMapFs()
	require.Nil(t, afero.WriteFile(local, "data/model.bin", []byte("model weights"), 0644))
	shared := &countingFs{Fs: afero.NewMemMapFs()}
	cache := CreateCache(shared, &CacheOptions{Dir: "cache"})
	names, err := cache.Stage(local, "data/model.bin")
	require.Nil(t, err)
	fetcher, err := CreateFetcher(cache, afero.NewMemMapFs(), &FetcherOptions{LocalDir: "work"})
	require.Nil(t, err)

	const workers = 16
	paths := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = fetcher.File(names[0])
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.Nil(t, errs[i])
		require.Equal(t, paths[0], paths[i])
	}
	// every request after the first was served from the materialized copy
	require.Equal(t, int32(1), atomic.LoadInt32(&shared.opens))
}

func TestFetcherMissingArtifact(t *testing.T) {
	shared := afero.NewMemMapFs()
	cache := CreateCache(shared, &CacheOptions{Dir: "cache"})
	fetcher, err := CreateFetcher(cache, afero.NewMemMapFs(), &FetcherOptions{LocalDir: "work"})
	require.Nil(t, err)
	_, err = fetcher.File("gone/artifact.txt")
	require.IsType(t, serrors.ArtifactNotFoundError{}, err)
}

func TestJSONLookup(t *testing.T) {
	lines := `{"user": {"id": "u-1"}, "plan": "free", "seats": 1}
{"user": {"id": "u-2"}, "plan": "team", "seats": 8}

{"user": {"id": "u-3"}, "plan": "enterprise", "seats": 250}
`
	cache, names := stageArtifacts(t, false, map[string]string{
		"data/accounts.jsonl": lines,
	})
	fetcher, err := CreateFetcher(cache, afero.NewMemMapFs(), &FetcherOptions{LocalDir: "work"})
	require.Nil(t, err)

	lookup, err := fetcher.JSONLookup(names[0], "user.id")
	require.Nil(t, err)
	require.Len(t, lookup, 3)
	require.Equal(t, "team", lookup["u-2"]["plan"])
	require.Equal(t, float64(250), lookup["u-3"]["seats"])
}

func TestJSONLookupMissingKeyPath(t *testing.T) {
	cache, names := stageArtifacts(t, false, map[string]string{
		"data/accounts.jsonl": `{"plan": "free"}` + "\n",
	})
	fetcher, err := CreateFetcher(cache, afero.NewMemMapFs(), &FetcherOptions{LocalDir: "work"})
	require.Nil(t, err)
	_, err = fetcher.JSONLookup(names[0], "user.id")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "key path")
}
