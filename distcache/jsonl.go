package distcache

import (
	"bufio"
	"fmt"

	json "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

// JSONLookup loads a staged JSON Lines artifact into an in-memory lookup
// table. Each line is one JSON object; keyPath is a gjson path selecting the
// lookup key within each object. Lines whose key path is absent are an
// error, as a side-input lookup with silently-missing keys is worse than a
// failed load.
func (f *Fetcher) JSONLookup(name string, keyPath string) (map[string]map[string]interface{}, error) {
	localPath, err := f.File(name)
	if err != nil {
		return nil, err
	}
	file, err := f.localFs.Open(localPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	lookup := make(map[string]map[string]interface{})
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		key := gjson.Get(line, keyPath)
		if !key.Exists() {
			return nil, fmt.Errorf("Artifact %s line %d has no value at key path %s", name, lineNum, keyPath)
		}
		var record map[string]interface{}
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("Artifact %s line %d is not valid JSON: %v", name, lineNum, err)
		}
		lookup[key.String()] = record
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lookup, nil
}
