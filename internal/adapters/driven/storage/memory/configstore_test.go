package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.Empty(t, store.values)
}

func TestNewConfigStore_Seeded(t *testing.T) {
	store := NewConfigStore(map[string]any{"search.default_top_k": 3})
	assert.Equal(t, 3, store.GetInt("search.default_top_k"))
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("embedding.provider", "openai"))
	val, ok := store.Get("embedding.provider")
	assert.True(t, ok)
	assert.Equal(t, "openai", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"str":        "value",
		"int":        7,
		"int64":      int64(8),
		"float":      2.5,
		"bool":       true,
		"strings":    []string{"a", "b"},
		"any_slice":  []any{"x", 1, "y"},
		"wrong_type": struct{}{},
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("str"), "value"},
		{"string wrong type", store.GetString("int"), ""},
		{"int", store.GetInt("int"), 7},
		{"int from int64", store.GetInt("int64"), 8},
		{"int from float", store.GetInt("float"), 2},
		{"int wrong type", store.GetInt("str"), 0},
		{"float", store.GetFloat("float"), 2.5},
		{"float from int", store.GetFloat("int"), 7.0},
		{"float missing", store.GetFloat("missing"), 0.0},
		{"float wrong type", store.GetFloat("wrong_type"), 0.0},
		{"bool", store.GetBool("bool"), true},
		{"bool wrong type", store.GetBool("str"), false},
		{"string slice", store.GetStringSlice("strings"), []string{"a", "b"}},
		{"any slice", store.GetStringSlice("any_slice"), []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key%d", i), i)
		}(i)
		go func(i int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key%d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key%d", i)))
	}
}
