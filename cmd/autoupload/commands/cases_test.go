package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ghiro/autoupload/internal/config"
	"github.com/ghiro/autoupload/internal/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *host.Store {
	t.Helper()
	store, err := host.Open(context.Background(), config.HostConfig{Database: filepath.Join(t.TempDir(), "ghiro.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestCreateCase(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := createCase(ctx, store, "burglary", "alice")
	require.NoError(t, err)
	second, err := createCase(ctx, store, "fraud", "alice")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Owner.ID, second.Owner.ID)

	_, err = createCase(ctx, store, "", "alice")
	assert.Error(t, err)
}

func TestListCases(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	c, err := createCase(ctx, store, "burglary", "alice")
	require.NoError(t, err)
	_, err = createCase(ctx, store, "fraud", "bob")
	require.NoError(t, err)

	root := t.TempDir()
	dir := filepath.Join(root, c.DirectoryName())
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	for _, name := range []string{"a.img", "b.img", ".hidden", "nested/c.img"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("data"), 0644))
	}

	out, err := listCases(ctx, store, config.MonitorConfig{WatchRoot: root, IgnorePatterns: []string{".*"}})
	require.NoError(t, err)

	assert.Contains(t, out, "burglary")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, dir)
	assert.Regexp(t, `burglary.*\b2\b`, out)
	assert.Regexp(t, `fraud.*-`, out)
}

func TestRenderTable(t *testing.T) {
	assert.Empty(t, renderTable(nil, nil, nil))

	out := renderTable([]string{"ID", "Name"}, [][]string{{"1"}, {"2", "fraud"}}, []columnAlignment{alignRight})
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "fraud")
}

func TestCloseStore(t *testing.T) {
	store, err := host.Open(context.Background(), config.HostConfig{Database: filepath.Join(t.TempDir(), "ghiro.db")})
	require.NoError(t, err)

	closeStore(store)
	// a second close is reported, not fatal
	assert.NotPanics(t, func() { closeStore(store) })
}
