package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"materialapi/internal/model"
)

var testTarget = Target{
	OwnerID:    "inst-1",
	OwnerType:  model.OwnerInstructor,
	EntityKind: model.EntityAssignment,
	EntityID:   "a-42",
}

func testClient(baseURL string, opts ...Option) *Client {
	opts = append([]Option{WithLogger(log.New(io.Discard, "", 0))}, opts...)
	return New(baseURL, Session{UserID: "u-7", Cookie: &http.Cookie{Name: "sid", Value: "t"}}, opts...)
}

// backend is a scripted stand-in for the material API plus object storage.
type backend struct {
	mux *http.ServeMux

	grantStatus  int
	grantBody    string
	putStatus    int
	notifyStatus int
	linkStatus   int
	linkBody     string

	putCalls    atomic.Int32
	notifyCalls atomic.Int32
	linkCalls   atomic.Int32

	mu        sync.Mutex
	stored    []byte
	notifyReq map[string]any
	linkReq   map[string]any
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{
		mux:          http.NewServeMux(),
		grantStatus:  http.StatusOK,
		putStatus:    http.StatusOK,
		notifyStatus: http.StatusCreated,
		linkStatus:   http.StatusCreated,
	}
	srv := httptest.NewServer(b.mux)
	t.Cleanup(srv.Close)

	b.mux.HandleFunc("GET /api/v2/file/upload/{name}", func(w http.ResponseWriter, r *http.Request) {
		if b.grantStatus != http.StatusOK {
			w.WriteHeader(b.grantStatus)
			io.WriteString(w, b.grantBody)
			return
		}
		body := b.grantBody
		if body == "" {
			body = `{"data":{"url":"` + srv.URL + `/presigned/k-1","key":"uploads/INSTRUCTOR/inst-1/k-1"}}`
		}
		io.WriteString(w, body)
	})
	b.mux.HandleFunc("PUT /presigned/{rest...}", func(w http.ResponseWriter, r *http.Request) {
		b.putCalls.Add(1)
		data, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.stored = data
		b.mu.Unlock()
		w.WriteHeader(b.putStatus)
	})
	b.mux.HandleFunc("POST /api/v2/file/upload/complete", func(w http.ResponseWriter, r *http.Request) {
		b.notifyCalls.Add(1)
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.notifyReq = req
		b.mu.Unlock()
		w.WriteHeader(b.notifyStatus)
		if b.notifyStatus == http.StatusCreated {
			io.WriteString(w, `{"data":{"id":"f-1"}}`)
		} else {
			io.WriteString(w, `{"error":{"code":"KEY_REQUIRED"}}`)
		}
	})
	b.mux.HandleFunc("POST /api/v2/assignment/a-42/materials", func(w http.ResponseWriter, r *http.Request) {
		b.linkCalls.Add(1)
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.linkReq = req
		b.mu.Unlock()
		w.WriteHeader(b.linkStatus)
		if b.linkStatus == http.StatusCreated {
			json.NewEncoder(w).Encode(model.Material{
				ID:         "m-1",
				EntityKind: model.EntityAssignment,
				EntityID:   "a-42",
				FileID:     req["fileId"].(string),
				FileKey:    req["fileKey"].(string),
				FileName:   req["fileName"].(string),
			})
		} else {
			io.WriteString(w, b.linkBody)
		}
	})
	return b, srv
}

func TestUploadFullChain(t *testing.T) {
	b, srv := newBackend(t)
	c := testClient(srv.URL)

	material, err := c.Upload(context.Background(), testTarget, File{
		Name:     "syllabus.pdf",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-1.4 stub"),
	})
	require.NoError(t, err)
	require.NotNil(t, material)

	assert.Equal(t, "m-1", material.ID)
	assert.Equal(t, "f-1", material.FileID)
	assert.Equal(t, "uploads/INSTRUCTOR/inst-1/k-1", material.FileKey)
	assert.Equal(t, "syllabus.pdf", material.FileName)
	assert.Equal(t, []byte("%PDF-1.4 stub"), b.stored)
	assert.EqualValues(t, 1, b.putCalls.Load())
	assert.EqualValues(t, 1, b.notifyCalls.Load())
	assert.EqualValues(t, 1, b.linkCalls.Load())
}

func TestUploadImageChain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 640, 480))))

	b, srv := newBackend(t)
	c := testClient(srv.URL)

	material, err := c.Upload(context.Background(), testTarget, File{
		Name:     "cover.png",
		MIMEType: "image/png",
		Content:  buf.Bytes(),
	})
	require.NoError(t, err)

	const key = "uploads/INSTRUCTOR/inst-1/k-1"
	assert.Equal(t, key, material.FileKey)
	assert.Equal(t, buf.Bytes(), b.stored)

	// completion carries the decoded dimensions and the thumbnail key
	require.NotNil(t, b.notifyReq)
	assert.Equal(t, "image", b.notifyReq["type"])
	assert.Equal(t, float64(640), b.notifyReq["width"])
	assert.Equal(t, float64(480), b.notifyReq["height"])
	assert.Equal(t, key, b.notifyReq["thumbnailKey"])

	// link derives the thumbnail URL from the download endpoint
	require.NotNil(t, b.linkReq)
	assert.Equal(t, "image", b.linkReq["fileType"])
	assert.Equal(t, srv.URL+"/api/v2/file/download/"+key, b.linkReq["thumbnailUrl"])
}

func TestUploadGrantRejected(t *testing.T) {
	b, srv := newBackend(t)
	b.grantStatus = http.StatusForbidden
	b.grantBody = `{"error":{"code":"INVALID_OWNER"}}`
	c := testClient(srv.URL)

	_, err := c.Upload(context.Background(), testTarget, File{Name: "a.txt", Content: []byte("x")})
	var ge *UploadGrantError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusForbidden, ge.Status)
	assert.Contains(t, ge.Body, "INVALID_OWNER")
	assert.EqualValues(t, 0, b.putCalls.Load(), "no PUT may happen without a grant")
}

func TestUploadGrantIncomplete(t *testing.T) {
	b, srv := newBackend(t)
	b.grantBody = `{"data":{"url":"","key":""}}`
	c := testClient(srv.URL)

	_, err := c.Upload(context.Background(), testTarget, File{Name: "a.txt", Content: []byte("x")})
	var ge *UploadGrantError
	require.ErrorAs(t, err, &ge)
	assert.EqualValues(t, 0, b.putCalls.Load())
}

func TestUploadStorageRejected(t *testing.T) {
	b, srv := newBackend(t)
	b.putStatus = http.StatusInternalServerError
	c := testClient(srv.URL)

	_, err := c.Upload(context.Background(), testTarget, File{Name: "a.txt", Content: []byte("x")})
	var se *StorageUploadError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.EqualValues(t, 0, b.notifyCalls.Load(), "chain must halt before completion")
	assert.EqualValues(t, 0, b.linkCalls.Load())
}

func TestUploadCompletionRejected(t *testing.T) {
	b, srv := newBackend(t)
	b.notifyStatus = http.StatusBadRequest
	c := testClient(srv.URL)

	_, err := c.Upload(context.Background(), testTarget, File{Name: "a.txt", Content: []byte("x")})
	var ce *UploadCompletionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusBadRequest, ce.Status)
	assert.EqualValues(t, 0, b.linkCalls.Load())
}

func TestUploadLinkRejectedKeepsBody(t *testing.T) {
	b, srv := newBackend(t)
	b.linkStatus = http.StatusUnprocessableEntity
	b.linkBody = `{"error":{"code":"FILE_KEY_MISMATCH","message":"file key does not match"}}`
	c := testClient(srv.URL)

	_, err := c.Upload(context.Background(), testTarget, File{Name: "a.txt", Content: []byte("x")})
	var le *MaterialLinkError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, http.StatusUnprocessableEntity, le.Status)
	assert.Equal(t, b.linkBody, le.Body)
}

func TestUploadAll(t *testing.T) {
	_, srv := newBackend(t)
	c := testClient(srv.URL, WithConcurrency(2))

	files := []File{
		{Name: "one.txt", Content: []byte("1")},
		{Name: "two.txt", Content: []byte("2")},
		{Name: "three.txt", Content: []byte("3")},
	}
	results := c.UploadAll(context.Background(), testTarget, files)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, files[i].Name, res.Name)
		assert.Equal(t, StateLinked, res.State)
		require.NotNil(t, res.Material)
	}
}

func TestUploadAllReportsFailedStage(t *testing.T) {
	b, srv := newBackend(t)
	b.putStatus = http.StatusBadGateway
	c := testClient(srv.URL)

	results := c.UploadAll(context.Background(), testTarget, []File{{Name: "a.txt", Content: []byte("x")}})
	require.Len(t, results, 1)
	assert.Equal(t, StateFailed, results[0].State)
	assert.Equal(t, StageUpload, results[0].Stage)
	assert.Nil(t, results[0].Material)
	var se *StorageUploadError
	assert.ErrorAs(t, results[0].Err, &se)
}

func TestListMaterialsDegradesToEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v2/assignment/a-42/materials", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(srv.URL)
	items := c.ListMaterials(context.Background(), testTarget)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestListMaterials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v2/assignment/a-42/materials", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[{"id":"m-1","fileName":"a.pdf"}],"total":1}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(srv.URL)
	items := c.ListMaterials(context.Background(), testTarget)
	require.Len(t, items, 1)
	assert.Equal(t, "m-1", items[0].ID)
}

func TestDeleteMaterial(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v2/assignment/a-42/materials/m-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /api/v2/assignment/a-42/materials/m-2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(srv.URL)
	assert.NoError(t, c.DeleteMaterial(context.Background(), testTarget, "m-1"))
	assert.ErrorIs(t, c.DeleteMaterial(context.Background(), testTarget, "m-2"), ErrNotFound)
}

func downloadServer(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v2/file/download", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write(body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"unauthenticated", http.StatusUnauthorized, ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := downloadServer(t, tt.status, nil)
			c := testClient(srv.URL)
			_, err := c.Fetch(context.Background(), "uploads/x", "x.txt")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFetchEmptyBody(t *testing.T) {
	srv := downloadServer(t, http.StatusOK, nil)
	c := testClient(srv.URL)
	_, err := c.Fetch(context.Background(), "uploads/x", "x.txt")
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestFetchNetworkUnreachable(t *testing.T) {
	srv := downloadServer(t, http.StatusOK, []byte("x"))
	srv.Close()
	c := testClient(srv.URL)
	_, err := c.Fetch(context.Background(), "uploads/x", "x.txt")
	assert.ErrorIs(t, err, ErrNetworkUnreachable)
}

func TestDownloadWritesFile(t *testing.T) {
	srv := downloadServer(t, http.StatusOK, []byte("hello material"))
	c := testClient(srv.URL)

	dir := t.TempDir()
	path, err := c.Download(context.Background(), "uploads/x", "notes.txt", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "notes.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello material", string(data))
}

func TestDownloadFailureLeavesNothing(t *testing.T) {
	srv := downloadServer(t, http.StatusNotFound, nil)
	c := testClient(srv.URL)

	dir := t.TempDir()
	_, err := c.Download(context.Background(), "uploads/x", "notes.txt", dir)
	require.ErrorIs(t, err, ErrNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProbeDimensions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))))

	w, h := probeDimensions(model.CategoryImage, buf.Bytes())
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)

	w, h = probeDimensions(model.CategoryImage, []byte("not an image"))
	assert.Zero(t, w)
	assert.Zero(t, h)

	w, h = probeDimensions(model.CategoryFile, buf.Bytes())
	assert.Zero(t, w)
	assert.Zero(t, h)
}
