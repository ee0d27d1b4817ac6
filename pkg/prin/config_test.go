package prin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "prin.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileConfig(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, dir, `
width = 100
miser-width = 60
max-depth = 4
max-length = 16
`)
		config, err := LoadFileConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 100, config.Width)
		assert.Equal(t, 60, config.MiserWidth)
		assert.Equal(t, 4, config.MaxDepth)
		assert.Equal(t, 16, config.MaxLength)
	})

	t.Run("invalid toml", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, dir, "width = [oops")
		_, err := LoadFileConfig(path)
		require.Error(t, err)
	})
}

func TestFindFileConfig(t *testing.T) {
	t.Run("found in parent", func(t *testing.T) {
		root := t.TempDir()
		writeConfig(t, root, "width = 90")
		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		path, config, err := FindFileConfig(nested)
		require.NoError(t, err)
		require.NotNil(t, config)
		assert.Equal(t, filepath.Join(root, "prin.toml"), path)
		assert.Equal(t, 90, config.Width)
	})

	t.Run("stops at git boundary", func(t *testing.T) {
		root := t.TempDir()
		writeConfig(t, root, "width = 90")

		repo := filepath.Join(root, "repo")
		require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))
		nested := filepath.Join(repo, "src")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		path, config, err := FindFileConfig(nested)
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Nil(t, config)
	})

	t.Run("not found", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))

		path, config, err := FindFileConfig(dir)
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Nil(t, config)
	})
}

func TestFileConfigApply(t *testing.T) {
	opts := DefaultOptions()

	applied := (&FileConfig{Width: 120}).Apply(opts)
	assert.Equal(t, 120, applied.Width)
	assert.Equal(t, opts.MiserWidth, applied.MiserWidth)

	// A nil config leaves options untouched.
	var none *FileConfig
	assert.Equal(t, opts, none.Apply(opts))
}
