package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devplayground/playground/pkg/core"
)

func TestReadBundle(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		want    core.SourceBundle
		wantErr bool
	}{
		{
			name:  "all files",
			files: map[string]string{MarkupFile: "<p>x</p>", StyleFile: "p{}", ScriptFile: "1;"},
			want:  core.SourceBundle{Markup: "<p>x</p>", Style: "p{}", Script: "1;"},
		},
		{
			name:  "missing files are empty",
			files: map[string]string{StyleFile: "p{}"},
			want:  core.SourceBundle{Style: "p{}"},
		},
		{
			name:    "no files",
			files:   map[string]string{"README.md": "hi"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
			}

			got, err := readBundle(dir)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteBundle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	bundle := core.SourceBundle{Markup: "<h1>Hi</h1>", Style: "h1{}", Script: ""}

	require.NoError(t, writeBundle(dir, bundle))

	got, err := readBundle(dir)
	require.NoError(t, err)
	assert.Equal(t, bundle, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temporary files are left behind")

	info, err := os.Stat(filepath.Join(dir, MarkupFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestWriteBundle_ReplacesExisting(t *testing.T) {
	dir := writeTestBundle(t, core.SourceBundle{Markup: "old", Style: "old", Script: "old"})

	require.NoError(t, writeBundle(dir, core.SourceBundle{Markup: "new", Style: "new", Script: "new"}))

	for _, path := range bundleIn(dir) {
		assert.Equal(t, "new", readFile(t, path))
	}
}
