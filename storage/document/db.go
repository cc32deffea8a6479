// Package documentdb is the default persistence backend: a flat-file JSON
// document store. Each collection lives in its own <name>.json file holding
// the whole record array; every mutation is a whole-file read-modify-write
// under the collection's lock, and a missing file is valid first-run state.
package documentdb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

type DB struct {
	students   *collection
	violations *collection
	users      *collection
}

func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating document dir")
	}
	return &DB{
		students:   &collection{path: filepath.Join(dir, "students.json")},
		violations: &collection{path: filepath.Join(dir, "violations.json")},
		users:      &collection{path: filepath.Join(dir, "users.json")},
	}, nil
}

type collection struct {
	path  string
	mutex sync.RWMutex
}

// load decodes the whole collection into dest.
// A missing or empty file leaves dest untouched.
func (c *collection) load(dest interface{}) error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "reading %s", c.path)
	}
	if len(data) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(data, dest), "decoding %s", c.path)
}

// save rewrites the whole collection. The write goes to a temp file first so
// a crash mid-write cannot truncate the collection.
func (c *collection) save(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", c.path)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, c.path), "replacing %s", c.path)
}
