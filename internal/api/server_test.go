package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dunamismax/batch4k/internal/domain"
	"github.com/dunamismax/batch4k/internal/pipeline"
	"github.com/dunamismax/batch4k/internal/ratelimit"
	"github.com/dunamismax/batch4k/internal/resize"
	"github.com/klauspost/compress/zip"
)

func TestCreateBatchReturnsArchive(t *testing.T) {
	processor, err := pipeline.NewProcessor(resize.FilterCatmullRom)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	srv := newTestServer(processor, Options{})

	req := newUploadRequest(t, "/v1/batches", map[string][]byte{
		"a.jpg": buildTestPNG(t, 20, 10),
		"a.png": buildTestPNG(t, 5, 10),
	}, []string{"a.jpg", "a.png"})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("expected application/zip, got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "upscaled_images_4k.zip") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if rec.Header().Get(headerBatchID) == "" {
		t.Fatal("expected batch id header")
	}

	body := rec.Body.Bytes()
	reader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	names := []string{}
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "a_4k_1.png,a_4k_2.png" {
		t.Fatalf("unexpected members %v", names)
	}
}

func TestCreateBatchRejectsTooManyImages(t *testing.T) {
	processor := &fakeProcessor{}
	srv := newTestServer(processor, Options{})

	files := map[string][]byte{}
	order := []string{}
	for i := 0; i < domain.MaxBatchImages+1; i++ {
		name := fmt.Sprintf("img%02d.png", i)
		files[name] = []byte{1}
		order = append(order, name)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newUploadRequest(t, "/v1/batches", files, order))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "You can upload a maximum of 20 images") {
		t.Fatalf("expected user-facing limit message, got %s", rec.Body.String())
	}
	if processor.calls != 0 {
		t.Fatal("expected processor not to run")
	}
}

func TestCreateBatchStopsReadingAtBatchBound(t *testing.T) {
	processor := &fakeProcessor{}
	srv := newTestServer(processor, Options{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i := 0; i <= domain.MaxBatchImages; i++ {
		part, err := mw.CreateFormFile(uploadField, fmt.Sprintf("img%02d.png", i))
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte{1}); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	// no closing boundary: reading past the extra part would fail the body
	body.WriteString("truncated")

	req := httptest.NewRequest(http.MethodPost, "/v1/batches", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp["error"] != domain.BatchTooLargeMessage {
		t.Fatalf("expected limit message, got %q", resp["error"])
	}
	if processor.calls != 0 {
		t.Fatal("expected processor not to run")
	}
}

func TestCreateBatchIgnoresOtherFields(t *testing.T) {
	processor := &fakeProcessor{}
	srv := newTestServer(processor, Options{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("note", "hello"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := mw.CreateFormFile(uploadField, "a.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(buildTestPNG(t, 2, 2)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/batches", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if processor.calls != 1 {
		t.Fatalf("expected one processor call, got %d", processor.calls)
	}
}

func TestCreateBatchRejectsEmptyUpload(t *testing.T) {
	srv := newTestServer(&fakeProcessor{}, Options{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newUploadRequest(t, "/v1/batches", nil, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateBatchMapsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid dimensions", fmt.Errorf("image 1 (flat.png): resize stage: %w", domain.ErrInvalidDimension), http.StatusUnprocessableEntity},
		{"decode", fmt.Errorf("image 1 (x.png): decode stage: %w", domain.ErrDecode), http.StatusUnprocessableEntity},
		{"archive", fmt.Errorf("archive stage: %w", domain.ErrArchiveWrite), http.StatusInternalServerError},
		{"encode", fmt.Errorf("image 1 (x.png): archive stage: %w", domain.ErrEncode), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeProcessor{err: tt.err}, Options{})

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, newUploadRequest(t, "/v1/batches", map[string][]byte{"x.png": {1}}, []string{"x.png"}))

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected json error body, got %s", ct)
			}
		})
	}
}

func TestCreateBatchRateLimited(t *testing.T) {
	limiter := &fakeLimiter{decision: ratelimit.Decision{Allowed: false, RetryAfter: 1500 * time.Millisecond}}
	processor := &fakeProcessor{}
	srv := newTestServer(processor, Options{RateLimiter: limiter})

	req := newUploadRequest(t, "/v1/batches", map[string][]byte{"a.png": {1}, "b.png": {1}}, []string{"a.png", "b.png"})
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "2" {
		t.Fatalf("expected Retry-After 2, got %q", rec.Header().Get("Retry-After"))
	}
	if limiter.cost != 2 {
		t.Fatalf("expected cost of 2 images, got %d", limiter.cost)
	}
	if limiter.subject != "user-1:/v1/batches" {
		t.Fatalf("unexpected subject %q", limiter.subject)
	}
	if processor.calls != 0 {
		t.Fatal("expected processor not to run")
	}
}

func TestCreateBatchRateLimiterFailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	processor := &fakeProcessor{}
	srv := newTestServer(processor, Options{RateLimiter: limiter})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newUploadRequest(t, "/v1/batches", map[string][]byte{"a.png": {1}}, []string{"a.png"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if processor.calls != 1 {
		t.Fatalf("expected one processor call, got %d", processor.calls)
	}
}

func TestCreateBatchUploadTooLarge(t *testing.T) {
	srv := newTestServer(&fakeProcessor{}, Options{MaxUploadBytes: 64})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newUploadRequest(t, "/v1/batches", map[string][]byte{"a.png": bytes.Repeat([]byte{1}, 4096)}, []string{"a.png"}))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestPlanBatch(t *testing.T) {
	srv := newTestServer(&fakeProcessor{}, Options{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newUploadRequest(t, "/v1/batches/plan", map[string][]byte{
		"wide.png": buildTestPNG(t, 40, 20),
	}, []string{"wide.png"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Images []pipeline.PlanEntry `json:"images"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if len(body.Images) != 1 {
		t.Fatalf("expected one plan entry, got %d", len(body.Images))
	}
	if e := body.Images[0]; e.Name != "wide_4k_1.png" || e.Width != 3840 || e.Height != 1920 {
		t.Fatalf("unexpected plan entry %+v", e)
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	srv := newTestServer(&fakeProcessor{}, Options{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "batch4k_api_requests_total") {
		t.Fatal("expected request counter in metrics output")
	}
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/v1/batches":      "/v1/batches",
		"/v1/batches/plan": "/v1/batches/plan",
		"/healthz":         "/healthz",
		"/metrics":         "/metrics",
		"/random/path":     "other",
	}
	for path, want := range tests {
		if got := routeLabel(path); got != want {
			t.Fatalf("routeLabel(%q) = %q, want %q", path, got, want)
		}
	}
}

type fakeProcessor struct {
	calls int
	err   error
}

func (p *fakeProcessor) Process(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
	p.calls++
	if p.err != nil {
		return pipeline.Result{}, p.err
	}
	return pipeline.Result{BatchID: req.BatchID, Archive: []byte("PK")}, nil
}

type fakeLimiter struct {
	decision ratelimit.Decision
	err      error
	subject  string
	cost     int
}

func (l *fakeLimiter) Allow(_ context.Context, subject string, cost int) (ratelimit.Decision, error) {
	l.subject = subject
	l.cost = cost
	return l.decision, l.err
}

func newTestServer(processor batchProcessor, opts Options) *Server {
	return NewServer(log.New(io.Discard, "", 0), processor, opts)
}

func newUploadRequest(t *testing.T, path string, files map[string][]byte, order []string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range order {
		part, err := mw.CreateFormFile(uploadField, name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(files[name]); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func buildTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode source png: %v", err)
	}
	return buf.Bytes()
}
