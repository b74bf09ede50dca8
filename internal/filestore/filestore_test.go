package filestore

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveReadRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := New(fs, "/uploads")
	require.NoError(t, err)

	id := uuid.New()
	path, err := store.Save(id, []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/post_"+id.String()+".jpg", path)

	data, err := store.Read(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	entries, err := afero.ReadDir(fs, "/uploads")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")

	require.NoError(t, store.Remove(id))
	_, err = store.Read(id)
	assert.Error(t, err)

	assert.NoError(t, store.Remove(id), "removing a missing file")
}

func TestSaveOverwrites(t *testing.T) {
	store, err := New(afero.NewMemMapFs(), "/uploads")
	require.NoError(t, err)

	id := uuid.New()
	_, err = store.Save(id, []byte("first"))
	require.NoError(t, err)
	_, err = store.Save(id, []byte("second"))
	require.NoError(t, err)

	data, err := store.Read(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestHTTPFileSystem(t *testing.T) {
	store, err := New(afero.NewMemMapFs(), "/uploads")
	require.NoError(t, err)

	id := uuid.New()
	_, err = store.Save(id, []byte("served"))
	require.NoError(t, err)

	f, err := store.HTTPFileSystem().Open("/" + FileName(id))
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, []byte("served"), data)
}
