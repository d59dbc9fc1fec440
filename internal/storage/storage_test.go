package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveAndDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/media/")
	require.NoError(t, err)

	rel, err := store.Save(context.Background(), "barcodes", ".png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "barcodes/"))
	assert.True(t, strings.HasSuffix(rel, ".png"))

	data, err := os.ReadFile(filepath.Join(store.Root(), rel))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "/media/"+rel, store.URL(rel))

	require.NoError(t, store.Delete(context.Background(), rel))
	_, err = os.Stat(filepath.Join(store.Root(), rel))
	assert.True(t, os.IsNotExist(err))

	// second delete is a no-op
	assert.NoError(t, store.Delete(context.Background(), rel))
}

func TestLocalStore_DeleteStaysInsideRoot(t *testing.T) {
	outer := t.TempDir()
	root := filepath.Join(outer, "media")
	store, err := NewLocalStore(root, "")
	require.NoError(t, err)

	victim := filepath.Join(outer, "keep.txt")
	require.NoError(t, os.WriteFile(victim, []byte("x"), 0o644))

	require.NoError(t, store.Delete(context.Background(), "../keep.txt"))
	_, err = os.Stat(victim)
	assert.NoError(t, err)
}

func TestGenerateName_Unique(t *testing.T) {
	a := GenerateName("qr", "png")
	b := GenerateName("qr", "png")
	assert.NotEqual(t, a, b)
}
