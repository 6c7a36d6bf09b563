// Package store is a registry of block store implementations
// and a home for logic that operates across them.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/bobg/txlog"
)

// Factory creates a store from a config map.
// Each store implementation registers a Factory under its type name.
type Factory func(context.Context, map[string]interface{}) (txlog.Store, error)

var registry = make(map[string]Factory)

// Register adds a Factory to the registry under the given key.
func Register(key string, f Factory) {
	registry[key] = f
}

// Create looks up the Factory for key and calls it with conf.
func Create(ctx context.Context, key string, conf map[string]interface{}) (txlog.Store, error) {
	f, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("key %s not found in registry", key)
	}
	return f(ctx, conf)
}

// Types lists the registered store types in sorted order.
func Types() []string {
	result := make([]string, 0, len(registry))
	for k := range registry {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// FromConfig creates a store from a config map
// whose "type" entry names a registered Factory.
// Stores that wrap another store
// (such as lru, logging, and compress)
// call this on their nested config.
func FromConfig(ctx context.Context, conf map[string]interface{}) (txlog.Store, error) {
	typ, ok := conf["type"].(string)
	if !ok {
		return nil, errors.New("config has no type")
	}
	return Create(ctx, typ, conf)
}

// Nested extracts the config map stored under key in conf
// and creates a store from it.
func Nested(ctx context.Context, conf map[string]interface{}, key string) (txlog.Store, error) {
	sub, ok := conf[key].(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("config has no %s store", key)
	}
	return FromConfig(ctx, sub)
}

// Int extracts an integer parameter from a config map.
// Config decoded from JSON may hold a json.Number or a float64.
func Int(conf map[string]interface{}, key string) (int, error) {
	switch v := conf[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, errors.Wrapf(err, "parameter %q", key)
		}
		return int(n), nil
	case nil:
		return 0, errors.Errorf("missing %q parameter", key)
	default:
		return 0, errors.Errorf("parameter %q is a %T, not a number", key, v)
	}
}

// String extracts a string parameter from a config map.
func String(conf map[string]interface{}, key string) (string, error) {
	v, ok := conf[key].(string)
	if !ok {
		return "", errors.Errorf("missing %q parameter", key)
	}
	return v, nil
}

// List creates a store from each config map in the list stored under key in conf.
// A missing key produces an empty list.
func List(ctx context.Context, conf map[string]interface{}, key string) ([]txlog.Store, error) {
	var items []interface{}
	switch v := conf[key].(type) {
	case nil:
		return nil, nil
	case []interface{}:
		items = v
	case []map[string]interface{}:
		for _, m := range v {
			items = append(items, m)
		}
	default:
		return nil, errors.Errorf("parameter %q is a %T, not a list", key, v)
	}

	var result []txlog.Store
	for i, item := range items {
		sub, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("item %d of %q is a %T, not a config", i, key, item)
		}
		s, err := FromConfig(ctx, sub)
		if err != nil {
			return nil, errors.Wrapf(err, "creating item %d of %q", i, key)
		}
		result = append(result, s)
	}
	return result, nil
}
