package bgate_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/advdv/bgate"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileUpload(t *testing.T) {
	f := bgate.NewFileUpload("a.txt", "text/plain", []byte("hello"))
	assert.Equal(t, int64(5), f.Size)
	assert.Equal(t, "b6fc4c620b67d95f953a5c1c1230aaab5db5a1b0", f.Digest())

	data, err := io.ReadAll(f.Open())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestCleanFilename(t *testing.T) {
	for in, exp := range map[string]string{
		"report.pdf":          "report.pdf",
		"../../etc/passwd":    ".. .. etc passwd",
		`C:\Users\me\a.txt`:   "C Users me a.txt",
		`what?"is*this"<>|;:`: "whatisthis",
		"con.txt":             "_con.txt",
		" spaced.txt ":        "spaced.txt",
	} {
		assert.Equal(t, exp, bgate.CleanFilename(in), in)
	}

	t.Run("replaces names that refer to a directory", func(t *testing.T) {
		for _, in := range []string{"", ".", "..", "...", " .. ", "?*", `"."`} {
			name := bgate.CleanFilename(in)
			require.NoError(t, uuid.Validate(name), in)
		}
	})

	t.Run("stores such names as files", func(t *testing.T) {
		dir := t.TempDir()
		stored, err := bgate.Persist(t.Context(), bgate.DirStore{Dir: dir},
			bgate.NewFileUpload("..", "text/plain", []byte("dots")))
		require.NoError(t, err)
		require.Len(t, stored, 1)

		content, err := os.ReadFile(filepath.Join(dir, stored[0].Filename))
		require.NoError(t, err)
		assert.Equal(t, "dots", string(content))
	})
}

type memStore map[string][]byte

func (s memStore) StoreUpload(_ context.Context, name string, f *bgate.FileUpload) error {
	if name == "fail.txt" {
		return errors.New("no space left")
	}

	s[name] = f.Bytes()
	return nil
}

func TestPersist(t *testing.T) {
	t.Run("stores identical content once", func(t *testing.T) {
		store := memStore{}
		stored, err := bgate.Persist(t.Context(), store,
			bgate.NewFileUpload("a/b.txt", "text/plain", []byte("same")),
			bgate.NewFileUpload("c.txt", "text/plain", []byte("same")),
			bgate.NewFileUpload("d.txt", "text/plain", []byte("other")),
		)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.Equal(t, "a b.txt", stored[0].Filename)
		assert.Equal(t, "d.txt", stored[1].Filename)
		assert.Len(t, store, 2)
	})

	t.Run("returns what was stored before failing", func(t *testing.T) {
		stored, err := bgate.Persist(t.Context(), memStore{},
			bgate.NewFileUpload("ok.txt", "text/plain", []byte("1")),
			bgate.NewFileUpload("fail.txt", "text/plain", []byte("2")),
		)
		require.ErrorContains(t, err, "store upload 'fail.txt': no space left")
		assert.Len(t, stored, 1)
	})

	t.Run("dir store", func(t *testing.T) {
		dir := t.TempDir()
		_, err := bgate.Persist(t.Context(), bgate.DirStore{Dir: dir},
			bgate.NewFileUpload("notes.txt", "text/plain", []byte("content")))
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
		require.NoError(t, err)
		assert.Equal(t, "content", string(data))
	})
}
