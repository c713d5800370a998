package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
)

// FixtureStore serves documents from <collection>.json files. Each file holds
// a JSON array of objects. Documents are kept as raw JSON and matched with
// gjson, so filters never decode records they do not return.
type FixtureStore struct {
	dir         string
	collections map[string][]string
}

// OpenFixtures loads every collection file found in dir. Missing collections are empty.
func OpenFixtures(dir string) (*FixtureStore, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, foundation.ConfigError(fmt.Sprintf("fixtures directory not found: %s", dir)).
			WithContext("path", dir).Build()
	}
	s := &FixtureStore{dir: dir, collections: map[string][]string{}}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryStore, "read fixtures directory").Build()
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		data, err := os.ReadFile(filepath.Join(dir, e.Name())) // #nosec G304 -- inside the fixtures dir
		if err != nil {
			return nil, foundation.WrapError(err, foundation.CategoryStore, "read fixture file").
				WithContext("collection", name).Build()
		}
		if err := s.load(name, data); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewFixtureStore builds an in-memory store from decoded documents.
func NewFixtureStore(collections map[string][]Document) (*FixtureStore, error) {
	s := &FixtureStore{collections: map[string][]string{}}
	for name, docs := range collections {
		data, err := json.Marshal(docs)
		if err != nil {
			return nil, foundation.WrapError(err, foundation.CategoryStore, "encode fixture documents").
				WithContext("collection", name).Build()
		}
		if err := s.load(name, data); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *FixtureStore) load(name string, data []byte) error {
	if !gjson.ValidBytes(data) {
		return foundation.StoreError("fixture is not valid JSON").
			WithRetry(foundation.RetryNever).
			WithContext("collection", name).Build()
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return foundation.StoreError("fixture must be a JSON array").
			WithRetry(foundation.RetryNever).
			WithContext("collection", name).Build()
	}
	var docs []string
	var bad error
	root.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			bad = errors.New("array element is not an object")
			return false
		}
		docs = append(docs, value.Raw)
		return true
	})
	if bad != nil {
		return foundation.WrapError(bad, foundation.CategoryStore, "invalid fixture").
			WithContext("collection", name).Build()
	}
	s.collections[name] = docs
	return nil
}

func (s *FixtureStore) Find(ctx context.Context, collection string, f Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Document
	for _, raw := range s.collections[collection] {
		if matchRaw(raw, f) {
			out = append(out, decodeRaw(raw))
		}
	}
	return out, nil
}

func (s *FixtureStore) FindOne(ctx context.Context, collection string, f Filter) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, raw := range s.collections[collection] {
		if matchRaw(raw, f) {
			return decodeRaw(raw), nil
		}
	}
	return nil, nil
}

func (s *FixtureStore) Close() error { return nil }

func matchRaw(raw string, f Filter) bool {
	for _, c := range f {
		r := gjson.Get(raw, c.Field)
		eq := resultEquals(r, c.Value)
		switch c.Op {
		case OpEq:
			if !eq {
				return false
			}
		case OpNe:
			if eq {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func resultEquals(r gjson.Result, v any) bool {
	if v == nil {
		return !r.Exists() || r.Type == gjson.Null
	}
	if !r.Exists() {
		return false
	}
	if r.IsArray() {
		for _, el := range r.Array() {
			if scalarEquals(el, v) {
				return true
			}
		}
		return false
	}
	return scalarEquals(r, v)
}

func scalarEquals(r gjson.Result, v any) bool {
	switch want := v.(type) {
	case string:
		return r.Type == gjson.String && r.Str == want
	case bool:
		return (r.Type == gjson.True && want) || (r.Type == gjson.False && !want)
	default:
		n, ok := numeric(v)
		return ok && r.Type == gjson.Number && r.Num == n
	}
}

func decodeRaw(raw string) Document {
	m, _ := gjson.Parse(raw).Value().(map[string]any)
	return Document(m)
}
