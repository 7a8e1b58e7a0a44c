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

package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	engine "github.com/riftscan/engine"
)

func TestContentHashDeterministic(t *testing.T) {
	t.Run("Should produce the same digest for the same bytes", func(t *testing.T) {
		a := ContentHash([]byte("package main"))
		b := ContentHash([]byte("package main"))
		assert.Equal(t, a, b)
	})

	t.Run("Should produce different digests for different bytes", func(t *testing.T) {
		a := ContentHash([]byte("package main"))
		b := ContentHash([]byte("package other"))
		assert.NotEqual(t, a, b)
	})
}

func TestCacheLookupMiss(t *testing.T) {
	t.Run("Should report a miss when the cache is empty", func(t *testing.T) {
		c, err := Open(filepath.Join(t.TempDir(), "missing.json"))
		assert.NoError(t, err)

		findings, ok := c.Lookup("deadbeef", "rules-hash")
		assert.False(t, ok)
		assert.Nil(t, findings)
	})
}

func TestCacheStoreLookupRoundTrip(t *testing.T) {
	t.Run("Should return what was stored under the same content and rule hashes", func(t *testing.T) {
		c, err := Open(filepath.Join(t.TempDir(), "cache.json"))
		assert.NoError(t, err)

		want := []engine.Finding{{ID: "f1", RuleID: "r1"}}
		c.Store("content-hash", "rules-hash", want)

		got, ok := c.Lookup("content-hash", "rules-hash")
		assert.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("Should miss when the rule hash changed", func(t *testing.T) {
		c, err := Open(filepath.Join(t.TempDir(), "cache.json"))
		assert.NoError(t, err)

		c.Store("content-hash", "rules-hash-1", []engine.Finding{{ID: "f1"}})

		_, ok := c.Lookup("content-hash", "rules-hash-2")
		assert.False(t, ok)
	})
}

func TestCacheFlushAndReopen(t *testing.T) {
	t.Run("Should persist entries across Flush and Open", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.json")

		c, err := Open(path)
		assert.NoError(t, err)

		c.Store("content-hash", "rules-hash", []engine.Finding{{ID: "f1", RuleID: "r1"}})
		assert.NoError(t, c.Flush())

		reopened, err := Open(path)
		assert.NoError(t, err)

		got, ok := reopened.Lookup("content-hash", "rules-hash")
		assert.True(t, ok)
		assert.Len(t, got, 1)
		assert.Equal(t, "f1", got[0].ID)
	})
}

func TestOpenCorruptCache(t *testing.T) {
	t.Run("Should return an empty usable cache when the file is corrupt JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corrupt.json")
		assert.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		c, err := Open(path)
		assert.Error(t, err)
		assert.NotNil(t, c)

		_, ok := c.Lookup("anything", "anything")
		assert.False(t, ok)
	})
}
