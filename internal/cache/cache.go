// Copyright 2020 ZUP IT SERVICOS EM TECNOLOGIA E INOVACAO SA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache is the engine's content-addressed disk cache: a scan reuses a file's previous
// findings whenever (content_sha256, rule_set_sha256, engine_version) are unchanged, skipping
// re-parsing and re-matching entirely for that file.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"sync"

	engine "github.com/riftscan/engine"
	"github.com/riftscan/engine/internal/errs"
)

// EngineVersion is bumped whenever a change to parsing or matching could change findings for
// unchanged inputs, invalidating every existing cache entry.
const EngineVersion = "1"

// Entry is one cached file's result, keyed externally by content hash.
type Entry struct {
	RulesHash string           `json:"rules_hash"`
	Engine    string           `json:"engine_version"`
	Findings  []engine.Finding `json:"findings"`
}

// Cache is a JSON-backed map of content hash to Entry. Not safe for concurrent Load; Store is.
type Cache struct {
	path string
	mu   sync.Mutex

	Entries map[string]Entry `json:"entries"`
}

// Open reads path if it exists, or returns an empty Cache ready to be populated if it doesn't.
// A corrupt cache file is reported via *errs.CacheCorrupt but treated as non-fatal: Open returns
// a fresh empty Cache so the scan proceeds uncached rather than aborting.
func Open(path string) (*Cache, error) {
	c := &Cache{path: path, Entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}

	if err != nil {
		return c, &errs.CacheCorrupt{Path: path, Cause: err}
	}

	if jsonErr := json.Unmarshal(data, c); jsonErr != nil {
		c.Entries = make(map[string]Entry)
		return c, &errs.CacheCorrupt{Path: path, Cause: jsonErr}
	}

	return c, nil
}

// ContentHash returns the sha256 hex digest of content, the cache key for one file.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached findings for contentHash under rulesHash, when both match the
// current rule set and engine version exactly.
func (c *Cache) Lookup(contentHash, rulesHash string) ([]engine.Finding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.Entries[contentHash]
	if !ok || entry.RulesHash != rulesHash || entry.Engine != EngineVersion {
		return nil, false
	}

	return entry.Findings, true
}

// Store records findings for contentHash under rulesHash, overwriting any existing entry.
func (c *Cache) Store(contentHash, rulesHash string, findings []engine.Finding) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Entries[contentHash] = Entry{RulesHash: rulesHash, Engine: EngineVersion, Findings: findings}
}

// Flush writes the cache back to its path as JSON.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0o644)
}
