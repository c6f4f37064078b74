package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ConfigBackend abstracts persisted config storage. Keys are dotted paths
// such as "list.page_size".
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}

func newPlatformBackend() ConfigBackend {
	return openFileBackend(filepath.Join(configDir(), "config.json"))
}

// fileBackend keeps config as a nested JSON document, so "list.page_size"
// lives at {"list":{"page_size":12}}.
type fileBackend struct {
	path string
	doc  []byte
}

func openFileBackend(path string) *fileBackend {
	b := &fileBackend{path: path, doc: []byte("{}")}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "[WARN] could not read config file %s: %v. Using default values.\n", path, err)
		}
		return b
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		fmt.Fprintf(os.Stderr, "[WARN] config file %s is not a JSON object. Using default values.\n", path)
		return b
	}
	b.doc = data
	return b
}

func (b *fileBackend) lookup(key string) (gjson.Result, bool) {
	r := gjson.GetBytes(b.doc, key)
	return r, r.Exists() && r.Type != gjson.Null
}

func (b *fileBackend) GetString(key string) (string, bool, error) {
	r, ok := b.lookup(key)
	if !ok {
		return "", false, nil
	}
	if r.IsObject() || r.IsArray() {
		return "", true, fmt.Errorf("value for %s must be a scalar", key)
	}
	return r.String(), true, nil
}

func (b *fileBackend) GetInt(key string) (int, bool, error) {
	r, ok := b.lookup(key)
	if !ok {
		return 0, false, nil
	}
	switch r.Type {
	case gjson.Number:
		if r.Num < math.MinInt || r.Num > math.MaxInt || r.Num != math.Trunc(r.Num) {
			return 0, true, fmt.Errorf("value %v for %s is not a valid integer or is out of range", r.Num, key)
		}
		return int(r.Num), true, nil
	case gjson.String:
		i, err := strconv.Atoi(r.Str)
		if err != nil {
			return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return i, true, nil
	default:
		return 0, true, fmt.Errorf("invalid type for %s", key)
	}
}

func (b *fileBackend) SetString(key, val string) error {
	return b.update(key, val)
}

func (b *fileBackend) SetInt(key string, val int) error {
	return b.update(key, val)
}

func (b *fileBackend) Delete(key string) error {
	return b.update(key, nil)
}

// update sets (or with a nil value removes) key and rewrites the file.
func (b *fileBackend) update(key string, val any) error {
	var root map[string]any
	if err := json.Unmarshal(b.doc, &root); err != nil || root == nil {
		root = make(map[string]any)
	}

	parts := strings.Split(key, ".")
	node := root
	for _, p := range parts[:len(parts)-1] {
		child, ok := node[p].(map[string]any)
		if !ok {
			if val == nil {
				return b.save(root)
			}
			child = make(map[string]any)
			node[p] = child
		}
		node = child
	}
	leaf := parts[len(parts)-1]
	if val == nil {
		delete(node, leaf)
	} else {
		node[leaf] = val
	}
	return b.save(root)
}

func (b *fileBackend) save(root map[string]any) error {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(b.path, data, 0o600); err != nil {
		return err
	}
	b.doc = data
	return nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
