package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"videoverse/internal/config"
	"videoverse/internal/domain"
	"videoverse/internal/service"
	"videoverse/internal/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testToken = "test-api-token"

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Stubs ---

type stubVideoService struct {
	ingestFn func(ctx context.Context, admitted *service.AdmittedUpload) (*domain.Video, error)
	trimFn   func(ctx context.Context, videoID string, start, end *float64) (*domain.Video, error)
	mergeFn  func(ctx context.Context, videoIDs []string) (*domain.Video, error)
}

func (s *stubVideoService) Ingest(ctx context.Context, admitted *service.AdmittedUpload) (*domain.Video, error) {
	return s.ingestFn(ctx, admitted)
}

func (s *stubVideoService) Trim(ctx context.Context, videoID string, start, end *float64) (*domain.Video, error) {
	return s.trimFn(ctx, videoID, start, end)
}

func (s *stubVideoService) Merge(ctx context.Context, videoIDs []string) (*domain.Video, error) {
	return s.mergeFn(ctx, videoIDs)
}

type stubShareService struct {
	createFn  func(ctx context.Context, videoID string) (*domain.SharedLink, error)
	resolveFn func(ctx context.Context, linkID string) (*domain.Video, error)
}

func (s *stubShareService) Create(ctx context.Context, videoID string) (*domain.SharedLink, error) {
	return s.createFn(ctx, videoID)
}

func (s *stubShareService) Resolve(ctx context.Context, linkID string) (*domain.Video, error) {
	return s.resolveFn(ctx, linkID)
}

// fakeProber implements media.Prober for upload admission.
type fakeProber struct {
	duration float64
	err      error
}

func (p *fakeProber) Duration(_ context.Context, _ string) (float64, error) {
	return p.duration, p.err
}

// --- Fixture ---

type apiFixture struct {
	router *gin.Engine
	videos *stubVideoService
	shares *stubShareService
	store  *storage.Store
	dir    string
}

func newAPIFixture(t *testing.T, prober *fakeProber) *apiFixture {
	t.Helper()
	dir := t.TempDir()
	store := storage.New(dir)

	videos := &stubVideoService{}
	shares := &stubShareService{}
	validator := service.NewUploadValidator(prober, config.UploadConfig{
		MaxSizeBytes:       1024,
		MinDurationSeconds: 5,
		MaxDurationSeconds: 25,
	})

	router := gin.New()
	SetupRoutes(router, testToken, videos, shares, validator, store, 1024)

	return &apiFixture{router: router, videos: videos, shares: shares, store: store, dir: dir}
}

func (f *apiFixture) do(t *testing.T, method, path string, body *bytes.Buffer, authorize bool, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authorize {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) postJSON(t *testing.T, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return f.do(t, http.MethodPost, path, bytes.NewBuffer(data), true, "application/json")
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return body
}

func assertMessage(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantMessage string) {
	t.Helper()
	if w.Code != wantStatus {
		t.Errorf("status = %d, want %d (body %s)", w.Code, wantStatus, w.Body.String())
	}
	if got := decodeBody(t, w)["message"]; got != wantMessage {
		t.Errorf("message = %q, want %q", got, wantMessage)
	}
}

func testVideo() *domain.Video {
	return &domain.Video{
		ID:       primitive.NewObjectID(),
		Name:     "test.mp4",
		Size:     512,
		Duration: 15,
		Path:     filepath.Join("video_store", "test.mp4"),
	}
}

// --- Auth ---

func TestAuthMiddleware(t *testing.T) {
	f := newAPIFixture(t, &fakeProber{duration: 15})
	f.videos.trimFn = func(context.Context, string, *float64, *float64) (*domain.Video, error) {
		return testVideo(), nil
	}

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
	}{
		{"MissingHeader", "", http.StatusUnauthorized, "Authorization header is missing"},
		{"NotBearer", "Basic abc", http.StatusUnauthorized, "Authorization header format must be Bearer {token}"},
		{"WrongToken", "Bearer wrong", http.StatusUnauthorized, "Unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/trim", strings.NewReader("{}"))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, req)
			assertMessage(t, w, tt.wantStatus, tt.wantMessage)
		})
	}
}

func TestPingIsPublic(t *testing.T) {
	f := newAPIFixture(t, &fakeProber{duration: 15})
	w := f.do(t, http.MethodGet, "/ping", nil, false, "")
	assertMessage(t, w, http.StatusOK, "pong")
}

// --- Upload ---

func uploadRequest(t *testing.T, content []byte, fieldName string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, "test.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadSuccess(t *testing.T) {
	f := newAPIFixture(t, &fakeProber{duration: 15})

	var ingested *service.AdmittedUpload
	f.videos.ingestFn = func(_ context.Context, admitted *service.AdmittedUpload) (*domain.Video, error) {
		ingested = admitted
		return &domain.Video{
			ID:       primitive.NewObjectID(),
			Name:     admitted.OriginalName,
			Size:     admitted.Size,
			Duration: admitted.Duration,
			Path:     admitted.Path,
		}, nil
	}

	content := []byte("fake-video-bytes")
	body, contentType := uploadRequest(t, content, "video")
	w := f.do(t, http.MethodPost, "/api/v1/videos", body, true, contentType)

	assertMessage(t, w, http.StatusCreated, "video uploaded successfully")
	if ingested == nil {
		t.Fatal("Ingest was never called")
	}
	if ingested.OriginalName != "test.mp4" || ingested.Size != int64(len(content)) || ingested.Duration != 15 {
		t.Errorf("ingested %+v", ingested)
	}
	if !f.store.Exists(ingested.Path) {
		t.Errorf("uploaded file missing at %s", ingested.Path)
	}
	data, err := os.ReadFile(ingested.Path)
	if err != nil || !bytes.Equal(data, content) {
		t.Errorf("stored file content = %q, err %v", data, err)
	}
}

func TestUploadMissingFile(t *testing.T) {
	f := newAPIFixture(t, &fakeProber{duration: 15})
	body, contentType := uploadRequest(t, []byte("x"), "document")
	w := f.do(t, http.MethodPost, "/api/v1/videos", body, true, contentType)
	assertMessage(t, w, http.StatusBadRequest, "no video file uploaded")
}

func TestUploadTooLarge(t *testing.T) {
	f := newAPIFixture(t, &fakeProber{duration: 15})
	body, contentType := uploadRequest(t, make([]byte, 2048), "video")
	w := f.do(t, http.MethodPost, "/api/v1/videos", body, true, contentType)
	assertMessage(t, w, http.StatusBadRequest, "uploaded video exceeds the maximum allowed size")
}

func TestUploadDurationOutOfBounds(t *testing.T) {
	f := newAPIFixture(t, &fakeProber{duration: 3.5})
	body, contentType := uploadRequest(t, []byte("short-clip"), "video")
	w := f.do(t, http.MethodPost, "/api/v1/videos", body, true, contentType)

	assertMessage(t, w, http.StatusBadRequest, "video duration must be between 5 and 25 seconds (got 3.5s)")

	// The rejected file must not linger in the store.
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("store still holds %d files after rejected upload", len(entries))
	}
}

func TestUploadProbeFailure(t *testing.T) {
	f := newAPIFixture(t, &fakeProber{err: errors.New("not a media file")})
	body, contentType := uploadRequest(t, []byte("not-video"), "video")
	w := f.do(t, http.MethodPost, "/api/v1/videos", body, true, contentType)

	assertMessage(t, w, http.StatusInternalServerError, "error processing video")

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("store still holds %d files after rejected upload", len(entries))
	}
}

func TestUploadIngestFailure(t *testing.T) {
	f := newAPIFixture(t, &fakeProber{duration: 15})
	f.videos.ingestFn = func(context.Context, *service.AdmittedUpload) (*domain.Video, error) {
		return nil, errors.New("db down")
	}

	body, contentType := uploadRequest(t, []byte("fake-video-bytes"), "video")
	w := f.do(t, http.MethodPost, "/api/v1/videos", body, true, contentType)

	assertMessage(t, w, http.StatusInternalServerError, "server error while saving video")

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("store still holds %d files after failed ingest", len(entries))
	}
}

// --- Trim ---

func TestTrimSuccess(t *testing.T) {
	f := newAPIFixture(t, &fakeProber{duration: 15})
	video := testVideo()
	f.videos.trimFn = func(_ context.Context, videoID string, start, end *float64) (*domain.Video, error) {
		if videoID != "abc123" || start == nil || *start != 10 || end != nil {
			t.Errorf("Trim(%q, %v, %v)", videoID, start, end)
		}
		return video, nil
	}

	w := f.postJSON(t, "/api/v1/videos/trim", gin.H{"videoId": "abc123", "start": 10})
	assertMessage(t, w, http.StatusCreated, "video trimmed successfully")

	got := decodeBody(t, w)["video"].(map[string]any)
	if got["id"] != video.ID.Hex() {
		t.Errorf("video.id = %v, want %s", got["id"], video.ID.Hex())
	}
}

func TestTrimErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"InvalidRequest", service.ErrInvalidRequest, http.StatusBadRequest, "video ID and one of the start or end time required"},
		{"NotFound", service.ErrVideoNotFound, http.StatusNotFound, "video not found"},
		{"BoundsOutOfRange", service.ErrBoundsOutOfRange, http.StatusBadRequest, "start and end time should be in original video duration limits"},
		{"SourceFileMissing", service.ErrSourceFileMissing, http.StatusNotFound, "video file not found in store"},
		{"StorageUnavailable", service.ErrStorageUnavailable, http.StatusInternalServerError, "server error while creating storage"},
		{"TranscodeFailed", service.ErrTranscodeFailed, http.StatusInternalServerError, "error trimming video"},
		{"MetadataSave", service.ErrMetadataSave, http.StatusInternalServerError, "video trimmed but could not be saved"},
		{"Unexpected", errors.New("boom"), http.StatusInternalServerError, "server error while trimming video"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t, &fakeProber{duration: 15})
			f.videos.trimFn = func(context.Context, string, *float64, *float64) (*domain.Video, error) {
				return nil, tt.err
			}

			w := f.postJSON(t, "/api/v1/videos/trim", gin.H{"videoId": "abc123", "start": 0})
			assertMessage(t, w, tt.wantStatus, tt.wantMessage)
		})
	}
}

// --- Merge ---

func TestMergeSuccess(t *testing.T) {
	f := newAPIFixture(t, &fakeProber{duration: 15})
	video := testVideo()
	f.videos.mergeFn = func(_ context.Context, videoIDs []string) (*domain.Video, error) {
		if len(videoIDs) != 2 || videoIDs[0] != "a" || videoIDs[1] != "b" {
			t.Errorf("Merge(%v)", videoIDs)
		}
		return video, nil
	}

	w := f.postJSON(t, "/api/v1/videos/merge", gin.H{"videoIds": []string{"a", "b"}})
	assertMessage(t, w, http.StatusCreated, "videos merged successfully")
}

func TestMergeErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"InvalidRequest", service.ErrInvalidRequest, http.StatusBadRequest, "at least two video IDs are required to merge videos"},
		{"VideosNotFound", service.ErrVideosNotFound, http.StatusNotFound, "one or more video IDs do not exist"},
		{"SourceFilesMissing", service.ErrSourceFilesMissing, http.StatusNotFound, "one or more video files are missing from the store"},
		{"StorageUnavailable", service.ErrStorageUnavailable, http.StatusInternalServerError, "server error while creating storage"},
		{"TranscodeFailed", service.ErrTranscodeFailed, http.StatusInternalServerError, "error merging videos"},
		{"MetadataSave", service.ErrMetadataSave, http.StatusInternalServerError, "videos merged but could not be saved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t, &fakeProber{duration: 15})
			f.videos.mergeFn = func(context.Context, []string) (*domain.Video, error) {
				return nil, tt.err
			}

			w := f.postJSON(t, "/api/v1/videos/merge", gin.H{"videoIds": []string{"a", "b"}})
			assertMessage(t, w, tt.wantStatus, tt.wantMessage)
		})
	}
}
