package corpus_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/forge/internal/corpus"
)

func TestLoad_Builtin(t *testing.T) {
	catalog, err := corpus.Load()
	require.NoError(t, err)

	require.Equal(t, []string{"datalog", "promql", "sql"}, catalog.Names())

	sql, ok := catalog.Lookup("SQL")
	require.True(t, ok)
	require.Equal(t, ";", sql.Terminator)
	require.Equal(t, "sql", sql.FenceTag)
	require.NotEmpty(t, sql.Instructions)

	promql, ok := catalog.Lookup("promql")
	require.True(t, ok)
	require.Empty(t, promql.Terminator)

	_, ok = catalog.Lookup("cobol")
	require.False(t, ok)

	examples := catalog.Examples("datalog")
	require.NotEmpty(t, examples)
	for _, example := range examples {
		require.NotEmpty(t, example.ID)
		require.NotEmpty(t, example.Prompt)
		require.NotEmpty(t, example.Code)
	}
}

func TestLoad_OverlayReplacesBuiltin(t *testing.T) {
	overlay := fstest.MapFS{
		"sql.yaml": {Data: []byte("name: sql\nterminator: \";\"\ninstructions: Use SQLite.\nexamples: []\n")},
		"lua.yaml": {Data: []byte("terminator: \"end\"\ninstructions: Lua 5.1\n")},
	}

	catalog, err := corpus.Load(overlay)
	require.NoError(t, err)

	text, err := catalog.Instructions(context.Background(), "sql")
	require.NoError(t, err)
	require.Equal(t, "Use SQLite.", text)
	require.Empty(t, catalog.Examples("sql"))

	lua, ok := catalog.Lookup("lua")
	require.True(t, ok)
	require.Equal(t, "lua", lua.FenceTag)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := corpus.Load(fstest.MapFS{"bad.yaml": {Data: []byte("name: [unterminated")}})
	require.ErrorContains(t, err, "failed to parse bad.yaml")
}

func TestInstructions_Unknown(t *testing.T) {
	catalog, err := corpus.Load()
	require.NoError(t, err)

	_, err = catalog.Instructions(context.Background(), "cobol")
	require.ErrorIs(t, err, corpus.ErrNoInstructions)
}
