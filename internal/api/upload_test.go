package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"studyflow/internal/models"
)

func TestUploadPDFAccepted(t *testing.T) {
	ts := newTestServer(t)
	ts.queue.info = models.QueueInfo{Queue: "pdf", Position: 1, EstimatedWaitMinutes: 0}

	rec := ts.do(t, multipartUpload(t, "notes.pdf", []byte("%PDF-1.4 fake body")))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp uploadResponse
	decodeJSON(t, rec.Body, &resp)
	require.NotEmpty(t, resp.DocumentID)
	require.Equal(t, "notes.pdf", resp.Filename)
	require.Equal(t, models.FileTypePDF, resp.FileType)
	require.Equal(t, models.StatusPending, resp.Status)
	require.Equal(t, "pdf", resp.QueueInfo.Queue)
	require.Equal(t, 1, resp.QueueInfo.Position)

	require.Len(t, ts.starter.started, 1)
	started := ts.starter.started[0]
	require.Equal(t, resp.DocumentID, started.DocumentID)
	require.Equal(t, "local", started.UserID)

	data, err := os.ReadFile(started.StoragePath)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 fake body", string(data))
}

func TestUploadVideoRoutesToMediaType(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, multipartUpload(t, "lecture.mp4", []byte("fake mp4")))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp uploadResponse
	decodeJSON(t, rec.Body, &resp)
	require.Equal(t, models.FileTypeVideo, resp.FileType)
	require.Len(t, ts.starter.started, 1)
	require.Equal(t, models.FileTypeVideo, ts.starter.started[0].FileType)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, multipartUpload(t, "malware.exe", []byte("nope")))
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	require.Equal(t, "SF-API-4015", errorCode(t, rec))
	require.Empty(t, ts.starter.started)
	require.Empty(t, ts.store.inserted)
}

func TestUploadRejectsOversizeFile(t *testing.T) {
	ts := newTestServer(t)
	ts.srv.cfg.MaxFileSizeBytes = 10

	rec := ts.do(t, multipartUpload(t, "big.pdf", []byte(strings.Repeat("x", 64))))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, "SF-API-4013", errorCode(t, rec))
	require.Empty(t, ts.starter.started)
}

func TestUploadMissingFileField(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/upload/file", strings.NewReader(""))
	req.Header.Set(echoHeaderContentType, "multipart/form-data; boundary=none")
	rec := ts.do(t, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "SF-API-4001", errorCode(t, rec))
}

func TestUploadDuplicateFilenameGetsSuffix(t *testing.T) {
	ts := newTestServer(t)
	ts.store.filenameExists = true

	rec := ts.do(t, multipartUpload(t, "notes.pdf", []byte("body")))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp uploadResponse
	decodeJSON(t, rec.Body, &resp)
	require.NotEqual(t, "notes.pdf", resp.Filename)
	require.True(t, strings.HasPrefix(resp.Filename, "notes_"))
	require.True(t, strings.HasSuffix(resp.Filename, ".pdf"))
}

func TestUploadScopesStorageByUser(t *testing.T) {
	ts := newTestServer(t)

	req := multipartUpload(t, "notes.pdf", []byte("body"))
	req.Header.Set("X-User-ID", "alice")
	rec := ts.do(t, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Len(t, ts.store.inserted, 1)
	doc := ts.store.inserted[0]
	require.Equal(t, "alice", doc.UserID)
	require.Equal(t, "alice", filepath.Base(filepath.Dir(doc.StoragePath)))
}

func TestDeleteDocumentRemovesRowAndFile(t *testing.T) {
	ts := newTestServer(t)
	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("body"), 0o644))

	doc := completedDoc("doc1", "local")
	doc.StoragePath = path
	ts.store.docs["doc1"] = doc

	rec := ts.do(t, httptest.NewRequest(http.MethodDelete, "/api/upload/documents/doc1", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	rec = ts.do(t, httptest.NewRequest(http.MethodDelete, "/api/upload/documents/doc1", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "SF-API-4004", errorCode(t, rec))
}

func TestDeleteDocumentScopedToUser(t *testing.T) {
	ts := newTestServer(t)
	ts.store.docs["doc1"] = completedDoc("doc1", "alice")

	rec := ts.do(t, httptest.NewRequest(http.MethodDelete, "/api/upload/documents/doc1", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	_, stillThere := ts.store.docs["doc1"]
	require.True(t, stillThere)
}

func TestFileTypeForName(t *testing.T) {
	cases := []struct {
		name     string
		fileType string
		ok       bool
	}{
		{"notes.pdf", models.FileTypePDF, true},
		{"NOTES.PDF", models.FileTypePDF, true},
		{"lecture.mp4", models.FileTypeVideo, true},
		{"lecture.webm", models.FileTypeVideo, true},
		{"clip.MOV", models.FileTypeVideo, true},
		{"notes.txt", "", false},
		{"archive.zip", "", false},
		{"noext", "", false},
	}
	for _, tc := range cases {
		got, ok := fileTypeForName(tc.name)
		require.Equal(t, tc.ok, ok, tc.name)
		require.Equal(t, tc.fileType, got, tc.name)
	}
}
