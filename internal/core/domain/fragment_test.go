package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFragmentID(t *testing.T) {
	assert.Equal(t, "abc123_chunk_0", FragmentID("abc123", 0))
	assert.Equal(t, "abc123_chunk_12", FragmentID("abc123", 12))
}

func TestFragmentID_Deterministic(t *testing.T) {
	assert.Equal(t, FragmentID("vid", 3), FragmentID("vid", 3))
	assert.NotEqual(t, FragmentID("vid", 3), FragmentID("vid", 4))
}

func TestYouTubeURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=95", YouTubeURL("dQw4w9WgXcQ", 95))
	assert.Equal(t, "https://www.youtube.com/watch?v=x&t=0", YouTubeURL("x", 0))
}

func TestFilter_Matches(t *testing.T) {
	fr := &Fragment{Channel: "Beasty", Language: "en"}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"channel match", Filter{Channel: "Beasty"}, true},
		{"channel mismatch", Filter{Channel: "Valdemar"}, false},
		{"language match", Filter{Language: "en"}, true},
		{"language mismatch", Filter{Language: "es"}, false},
		{"both match", Filter{Channel: "Beasty", Language: "en"}, true},
		{"one of two mismatches", Filter{Channel: "Beasty", Language: "es"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(fr))
		})
	}
}

func TestFilter_IsEmpty(t *testing.T) {
	assert.True(t, Filter{}.IsEmpty())
	assert.False(t, Filter{Channel: "A"}.IsEmpty())
	assert.False(t, Filter{Language: "en"}.IsEmpty())
}

func TestModelInfo_IsZero(t *testing.T) {
	assert.True(t, ModelInfo{}.IsZero())
	assert.False(t, ModelInfo{Name: "text-embedding-3-small", Dimensions: 1536}.IsZero())
}

func TestModelInfo_Merge(t *testing.T) {
	base := ModelInfo{Name: "text-embedding-3-small", Dimensions: 1536}

	t.Run("empty store takes the new model", func(t *testing.T) {
		next := ModelInfo{Name: base.Name, Dimensions: base.Dimensions, Tokenizer: "o200k_base"}
		merged, err := ModelInfo{}.Merge(next)
		assert.NoError(t, err)
		assert.Equal(t, next, merged)
	})

	t.Run("different model is rejected", func(t *testing.T) {
		_, err := base.Merge(ModelInfo{Name: "nomic-embed-text", Dimensions: 768})
		assert.ErrorIs(t, err, ErrModelMismatch)
	})

	t.Run("untracked tokenizer is filled in", func(t *testing.T) {
		merged, err := base.Merge(ModelInfo{Name: base.Name, Dimensions: base.Dimensions, Tokenizer: "words"})
		assert.NoError(t, err)
		assert.Equal(t, "words", merged.Tokenizer)
	})

	t.Run("different tokenizer is rejected", func(t *testing.T) {
		pinned := ModelInfo{Name: base.Name, Dimensions: base.Dimensions, Tokenizer: "o200k_base"}
		_, err := pinned.Merge(ModelInfo{Name: base.Name, Dimensions: base.Dimensions, Tokenizer: "words"})
		assert.ErrorIs(t, err, ErrModelMismatch)
	})

	t.Run("caller without a tokenizer keeps the pinned one", func(t *testing.T) {
		pinned := ModelInfo{Name: base.Name, Dimensions: base.Dimensions, Tokenizer: "o200k_base"}
		merged, err := pinned.Merge(base)
		assert.NoError(t, err)
		assert.Equal(t, pinned, merged)
	})
}
