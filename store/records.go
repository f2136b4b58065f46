package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON fetches and decodes a record value.
func GetJSON[T any](ctx context.Context, rs RecordStore, key string) (T, error) {
	var zero T
	raw, err := rs.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return zero, fmt.Errorf("failed to unmarshal record %q: %w", key, err)
	}
	return rec, nil
}

// DecodeJSON decodes a raw record value, as handed to a ScanRange callback.
func DecodeJSON[T any](value []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(value, &rec); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal record value: %w", err)
	}
	return rec, nil
}

// PutJSON encodes and writes a record value.
func PutJSON(ctx context.Context, rs RecordStore, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal record %q: %w", key, err)
	}
	return rs.Put(ctx, key, raw)
}
