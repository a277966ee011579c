// Package storage defines the durable key/value surface the client stores persist through.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when no record exists for the key.
var ErrNotFound = errors.New("storage: key not found")

// KV is local, synchronous-enough key/value storage that survives process restarts.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Namespaced prefixes every key with ns, joined by a colon.
func Namespaced(kv KV, ns string) KV {
	ns = strings.Trim(strings.TrimSpace(ns), ":")
	if ns == "" {
		return kv
	}
	return &namespaced{kv: kv, prefix: ns + ":"}
}

type namespaced struct {
	kv     KV
	prefix string
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.kv.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.kv.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Remove(ctx context.Context, key string) error {
	return n.kv.Remove(ctx, n.prefix+key)
}
