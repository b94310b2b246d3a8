package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/minishop/internal/config"
	"github.com/Skotchmaster/minishop/internal/logging"
	"github.com/Skotchmaster/minishop/internal/search"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate"}, names)

	serve, _, err := root.Find([]string{"serve"})
	assert.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("port"))
}

func TestSearchIndex_SQLWithoutElasticsearch(t *testing.T) {
	idx := searchIndex(config.Config{}, nil, logging.New("error"))
	assert.IsType(t, search.SQLIndex{}, idx)
}

func shopEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "shop.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", dbPath)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SEED_USERNAME", "yoshi")
	t.Setenv("SEED_PASSWORD", "12345")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("ES_URL", "")
	return dbPath
}

func TestServe_BadConfigLeavesDatabaseUntouched(t *testing.T) {
	dbPath := shopEnv(t)

	root := newRootCmd()
	root.SetArgs([]string{"serve"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
	assert.NoFileExists(t, dbPath)
}

func TestMigrate(t *testing.T) {
	dbPath := shopEnv(t)

	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	require.NoError(t, root.Execute())
	assert.FileExists(t, dbPath)
}

func TestMigrate_RejectsOverlongSeedPassword(t *testing.T) {
	dbPath := shopEnv(t)
	t.Setenv("SEED_PASSWORD", strings.Repeat("a", 80))

	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEED_PASSWORD")
	assert.NoFileExists(t, dbPath)
}
