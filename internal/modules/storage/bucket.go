package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
)

// Bucket is a Store scoped to one browser session.
type Bucket struct {
	store     Store
	sessionID string
}

// NewBucket scopes store to sessionID.
func NewBucket(store Store, sessionID string) *Bucket {
	return &Bucket{store: store, sessionID: sessionID}
}

// SessionID returns the id the bucket is scoped to.
func (b *Bucket) SessionID() string { return b.sessionID }

// GetString returns the raw string stored under key, or "" when absent.
func (b *Bucket) GetString(ctx context.Context, key string) (string, error) {
	v, ok, err := b.store.Get(ctx, b.sessionID, key)
	if err != nil || !ok {
		return "", err
	}
	return string(v), nil
}

// SetString stores s under key.
func (b *Bucket) SetString(ctx context.Context, key, s string) error {
	return b.store.Set(ctx, b.sessionID, key, []byte(s))
}

// GetJSON decodes the value under key into out and reports whether it existed.
// A value that no longer decodes is treated as absent and leaves out untouched.
func (b *Bucket) GetJSON(ctx context.Context, key string, out interface{}) (bool, error) {
	dst := reflect.ValueOf(out)
	if dst.Kind() != reflect.Ptr || dst.IsNil() {
		return false, fmt.Errorf("decode %s: non-nil pointer required, got %T", key, out)
	}
	v, ok, err := b.store.Get(ctx, b.sessionID, key)
	if err != nil || !ok {
		return false, err
	}
	tmp := reflect.New(dst.Elem().Type())
	if err := json.Unmarshal(v, tmp.Interface()); err != nil {
		return false, nil
	}
	dst.Elem().Set(tmp.Elem())
	return true, nil
}

// SetJSON encodes v and stores it under key.
func (b *Bucket) SetJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return b.store.Set(ctx, b.sessionID, key, data)
}

// Remove deletes every given key.
func (b *Bucket) Remove(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if err := b.store.Delete(ctx, b.sessionID, k); err != nil {
			return err
		}
	}
	return nil
}
