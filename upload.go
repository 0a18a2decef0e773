package bgate

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// FileUpload is a file that was sent as part of a multipart form.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Params      Options

	data bytes.Buffer
}

// NewFileUpload inits a file upload with the given content.
func NewFileUpload(filename, contentType string, content []byte) *FileUpload {
	f := &FileUpload{Filename: filename, ContentType: contentType}
	f.write(content)

	return f
}

func (f *FileUpload) write(p []byte) {
	f.data.Write(p)
	f.Size += int64(len(p))
}

// Bytes returns the content of the file.
func (f *FileUpload) Bytes() []byte { return f.data.Bytes() }

// Open returns a reader over the content of the file.
func (f *FileUpload) Open() io.ReadSeeker { return bytes.NewReader(f.data.Bytes()) }

// Digest returns the hex sha1 of the content, hashed the way git hashes a blob.
func (f *FileUpload) Digest() string {
	h := sha1.New() //nolint:gosec
	h.Write([]byte("blob " + strconv.FormatInt(f.Size, 10) + "\x00"))
	h.Write(f.data.Bytes())

	return hex.EncodeToString(h.Sum(nil))
}

var windowsDeviceFiles = map[string]bool{
	"CON": true, "AUX": true, "COM1": true, "COM2": true, "COM3": true,
	"COM4": true, "LPT1": true, "LPT2": true, "LPT3": true, "PRN": true, "NUL": true,
}

// CleanFilename turns a client provided filename into one that is safe to store: path separators become spaces,
// punctuation that is special to file systems is removed and windows device names are prefixed. Names that would
// still refer to a directory are replaced by a generated one.
func CleanFilename(name string) string {
	name = strings.NewReplacer("/", " ", `\`, " ").Replace(name)
	name = strings.TrimSpace(name)

	base, _, _ := strings.Cut(name, ".")
	if windowsDeviceFiles[strings.ToUpper(base)] {
		name = "_" + name
	}

	name = strings.TrimSpace(strings.Map(func(r rune) rune {
		if strings.ContainsRune(`'"*?:;<>|`, r) {
			return -1
		}
		return r
	}, name))
	if strings.Trim(name, ".") == "" {
		return uuid.NewString()
	}

	return name
}

// UploadStore persists uploaded files.
type UploadStore interface {
	StoreUpload(ctx context.Context, name string, upload *FileUpload) error
}

// StoredUpload describes a file that was persisted.
type StoredUpload struct {
	Digest   string
	Filename string
	Size     int64
}

// Persist stores the files under their cleaned filename. Files with identical content are only stored once.
func Persist(ctx context.Context, store UploadStore, files ...*FileUpload) ([]StoredUpload, error) {
	seen := map[string]bool{}
	stored := make([]StoredUpload, 0, len(files))
	for _, f := range files {
		digest := f.Digest()
		if seen[digest] {
			continue
		}
		seen[digest] = true

		name := CleanFilename(f.Filename)
		if err := store.StoreUpload(ctx, name, f); err != nil {
			return stored, errors.Wrapf(err, "store upload '%s'", name)
		}

		stored = append(stored, StoredUpload{Digest: digest, Filename: name, Size: f.Size})
	}

	return stored, nil
}

// DirStore stores uploads as files in a directory.
type DirStore struct {
	Dir string
}

// StoreUpload implements [UploadStore].
func (s DirStore) StoreUpload(_ context.Context, name string, upload *FileUpload) error {
	if err := os.WriteFile(filepath.Join(s.Dir, name), upload.Bytes(), 0o600); err != nil {
		return errors.Wrap(err, "write file")
	}

	return nil
}
