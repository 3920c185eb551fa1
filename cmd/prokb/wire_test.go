package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogfile "github.com/custodia-labs/prokb/internal/adapters/driven/catalog/file"
	"github.com/custodia-labs/prokb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/prokb/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/custodia-labs/prokb/internal/adapters/driving/cli"
	"github.com/custodia-labs/prokb/internal/core/domain"
)

func TestBuildServices_WithoutEmbedder(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	dataDir := t.TempDir()

	svcs, err := buildServices(cli.Options{ConfigDir: t.TempDir(), DataDir: dataDir})
	require.NoError(t, err)
	defer func() { assert.NoError(t, svcs.Close()) }()

	assert.FileExists(t, filepath.Join(dataDir, sqlite.DatabaseFile))
	assert.Equal(t, domain.DefaultSnippetChars, svcs.SnippetChars)
	assert.NotNil(t, svcs.Scheduler)
	assert.NotNil(t, svcs.Channels)

	ctx := context.Background()
	outcome, err := svcs.Search.Search(ctx, "how to hold a backhand", domain.SearchOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, domain.SearchStatusOK, outcome.Status)
	assert.Empty(t, outcome.Results)

	health, err := svcs.Search.Health(ctx)
	require.NoError(t, err)
	assert.Zero(t, health.Count)
	assert.False(t, health.Ready)
}

func TestBuildServices_CatalogInDataDir(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	dataDir := t.TempDir()

	svcs, err := buildServices(cli.Options{ConfigDir: t.TempDir(), DataDir: dataDir})
	require.NoError(t, err)
	defer svcs.Close()

	_, err = svcs.Channels.LatestUploadDates(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogNotFound)

	catalog := `[{"video_id":"abc123","channel":"Coach A","upload_date":"20240105"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, catalogfile.DefaultFileName), []byte(catalog), 0o600))

	dates, err := svcs.Channels.LatestUploadDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Coach A": "20240105"}, dates)
}

func TestBuildPipeline(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		settings := domain.DefaultAppSettings().Ingest
		pipeline, err := buildPipeline(&settings, buildTokenizer(settings.Tokenizer))
		require.NoError(t, err)
		assert.Equal(t, len(settings.Processors), pipeline.Len())
	})

	t.Run("unknown processor", func(t *testing.T) {
		settings := domain.DefaultAppSettings().Ingest
		settings.Processors = []string{"no-such-processor"}
		_, err := buildPipeline(&settings, buildTokenizer(settings.Tokenizer))
		assert.Error(t, err)
	})

	t.Run("words tokenizer", func(t *testing.T) {
		settings := domain.DefaultAppSettings().Ingest
		settings.Tokenizer = domain.TokenizerWords
		settings.Processors = nil
		pipeline, err := buildPipeline(&settings, buildTokenizer(settings.Tokenizer))
		require.NoError(t, err)
		assert.Zero(t, pipeline.Len())
	})
}

func TestResolveDataDir(t *testing.T) {
	dir, err := resolveDataDir("/flag", "/setting")
	require.NoError(t, err)
	assert.Equal(t, "/flag", dir)

	dir, err = resolveDataDir("", "/setting")
	require.NoError(t, err)
	assert.Equal(t, "/setting", dir)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	dir, err = resolveDataDir("", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".prokb", "data"), dir)
}

func TestBuildEmbedder_Unconfigured(t *testing.T) {
	settings := domain.DefaultAppSettings().Embedding
	settings.APIKey = ""
	assert.Nil(t, buildEmbedder(&settings))
}

func TestBuildTokenizer(t *testing.T) {
	assert.Equal(t, "words", buildTokenizer(domain.TokenizerWords).Name())
	assert.IsType(t, &tiktoken.Tokenizer{}, buildTokenizer(domain.TokenizerTiktoken))
}
