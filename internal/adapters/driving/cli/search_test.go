package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Search pro content", searchCmd.Short)
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	_, err := execute(t, "search")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestSearchCmd_HasFlags(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)

	for _, name := range []string{"channel", "language", "json"} {
		assert.NotNil(t, searchCmd.Flags().Lookup(name), name)
	}
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "search", "how", "to", "wall")

	require.NoError(t, err)
	assert.Equal(t, "how to wall", ts.search.lastQuery)
	assert.Contains(t, out, "### Walling Guide — Beasty")
	assert.Contains(t, out, "**Relevance:** 82% | **Timestamp:** 0:30")
	assert.Contains(t, out, "> Wall your wood line early.")
}

func TestSearchCmd_PassesOptions(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "search", "-n", "3", "--channel", "Hera", "--language", "en", "scouting")

	require.NoError(t, err)
	assert.Equal(t, domain.SearchOptions{TopK: 3, Channel: "Hera", Language: "en"}, ts.search.lastOpts)
}

func TestSearchCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "search", "--json", "walls")
	require.NoError(t, err)

	var outcome domain.SearchOutcome
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &outcome))
	assert.Equal(t, domain.SearchStatusOK, outcome.Status)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "vid1_chunk_0", outcome.Results[0].FragmentID)
}

func TestSearchCmd_PrintsAdvisory(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.outcome = &domain.SearchOutcome{
		Status:   domain.SearchStatusEmpty,
		Advisory: domain.AdvisoryEmptyKnowledgeBase,
	}

	out, err := execute(t, "search", "anything")
	require.NoError(t, err)
	assert.Contains(t, out, domain.AdvisoryEmptyKnowledgeBase)
}

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	_, err := execute(t, "search", "walls")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.err = errors.New("disk full")

	_, err := execute(t, "search", "walls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
}
