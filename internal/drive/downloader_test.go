package drive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	files   []*File
	content map[string]string
	listErr error
}

func (f *fakeSource) ListFiles(_ context.Context, _ string) ([]*File, error) {
	return f.files, f.listErr
}

func (f *fakeSource) DownloadFile(_ context.Context, fileID string, w io.Writer) error {
	body, ok := f.content[fileID]
	if !ok {
		return errors.New("not found")
	}
	_, err := io.WriteString(w, body)
	return err
}

func TestDownloadFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drive")
	source := &fakeSource{
		files: []*File{
			{ID: "1", Name: "products.csv"},
			{ID: "2", Name: "rows.XLSX"},
			{ID: "3", Name: "notes.docx"},
			{ID: "4", Name: "archive.csv", MimeType: folderMimeType},
		},
		content: map[string]string{"1": "asin\n", "2": "xlsx-bytes"},
	}

	paths, err := NewDownloader(source).DownloadFolder(context.Background(), DownloadOptions{FolderID: "f", DownloadDir: dir})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "products.csv"), filepath.Join(dir, "rows.XLSX")}, paths)

	body, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "asin\n", string(body))
}

func TestDownloadFolderFailures(t *testing.T) {
	ctx := context.Background()

	_, err := NewDownloader(&fakeSource{}).DownloadFolder(ctx, DownloadOptions{})
	assert.ErrorContains(t, err, "download dir")

	_, err = NewDownloader(&fakeSource{listErr: errors.New("quota")}).DownloadFolder(ctx, DownloadOptions{DownloadDir: t.TempDir()})
	assert.EqualError(t, err, "quota")

	dir := t.TempDir()
	source := &fakeSource{files: []*File{{ID: "missing", Name: "gone.csv"}}}
	_, err = NewDownloader(source).DownloadFolder(ctx, DownloadOptions{DownloadDir: dir})
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "gone.csv"))
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `Seller\'s files`, escapeQuery("Seller's files"))
}
