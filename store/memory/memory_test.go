package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zlnvch/homegate/store"
	"github.com/zlnvch/homegate/store/memory"
)

func TestGetPutDelete(t *testing.T) {
	m := memory.NewMemoryRecordStore()
	ctx := context.Background()

	key := store.Key("user", "u1")

	_, err := m.Get(ctx, key)
	assert.ErrorIs(t, err, store.ErrItemNotFound)

	assert.NoError(t, m.Put(ctx, key, []byte("v1")))

	got, err := m.Get(ctx, key)
	assert.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	assert.NoError(t, m.Delete(ctx, key))
	_, err = m.Get(ctx, key)
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestScanRangeIsOrderedAndBounded(t *testing.T) {
	m := memory.NewMemoryRecordStore()
	ctx := context.Background()

	// Interleave record types; the session range must see only sessions, in
	// key order.
	assert.NoError(t, m.Put(ctx, store.Key("session", "b"), []byte("2")))
	assert.NoError(t, m.Put(ctx, store.Key("user", "a"), []byte("x")))
	assert.NoError(t, m.Put(ctx, store.Key("session", "a"), []byte("1")))
	assert.NoError(t, m.Put(ctx, store.Key("sessionextra", "a"), []byte("y")))
	assert.NoError(t, m.Put(ctx, store.Key("session", "c"), []byte("3")))

	low, high := store.RangeBounds("session")
	var keys []string
	err := m.ScanRange(ctx, low, high, func(key string, value []byte) (bool, error) {
		keys = append(keys, key)
		return false, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"session!!a", "session!!b", "session!!c"}, keys)
}

func TestScanRangeShortCircuits(t *testing.T) {
	m := memory.NewMemoryRecordStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		assert.NoError(t, m.Put(ctx, store.Key("app", id), []byte(id)))
	}

	low, high := store.RangeBounds("app")
	visited := 0
	err := m.ScanRange(ctx, low, high, func(key string, value []byte) (bool, error) {
		visited++
		return key == store.Key("app", "b"), nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, visited)
}

func TestBatchDelete(t *testing.T) {
	m := memory.NewMemoryRecordStore()
	ctx := context.Background()

	keys := []string{
		store.Key("session", "a"),
		store.Key("session", "b"),
		store.Key("session", "c"),
	}
	for _, key := range keys {
		assert.NoError(t, m.Put(ctx, key, []byte("v")))
	}

	assert.NoError(t, m.BatchDelete(ctx, keys[:2]))
	assert.Equal(t, 1, m.Len())

	_, err := m.Get(ctx, keys[2])
	assert.NoError(t, err)
}

func TestSplitKeyRoundTrip(t *testing.T) {
	recordType, id, ok := store.SplitKey(store.Key("masterkey", "abc-123"))
	assert.True(t, ok)
	assert.Equal(t, "masterkey", recordType)
	assert.Equal(t, "abc-123", id)

	_, _, ok = store.SplitKey("no-separator")
	assert.False(t, ok)
}
