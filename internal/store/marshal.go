package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrCorrupt wraps decode failures of a stored blob.
var ErrCorrupt = errors.New("corrupt stored value")

// LoadJSON decodes the blob stored under key into v.
// Returns ErrNotFound if the key is absent and an error wrapping ErrCorrupt
// if the blob does not parse.
func LoadJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

// SaveJSON encodes v and writes it under key.
// HTML escaping is disabled so names round-trip byte-for-byte.
func SaveJSON(ctx context.Context, kv KV, key string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	// Encoder adds a trailing newline, remove it
	return kv.Set(ctx, key, strings.TrimSpace(buf.String()))
}
