package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/dunamismax/batch4k/internal/archive"
	"github.com/dunamismax/batch4k/internal/domain"
	"github.com/dunamismax/batch4k/internal/id"
	"github.com/dunamismax/batch4k/internal/pipeline"
	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	uploadField      = "images"
	headerBatchID    = "X-Batch-ID"
	defaultMaxUpload = 256 << 20
)

type Server struct {
	logger                *log.Logger
	processor             batchProcessor
	rateLimiter           RateLimiter
	rateLimitUserIDHeader string
	maxUploadBytes        int64
	metrics               *metrics
	tracer                trace.Tracer
	mux                   *http.ServeMux
}

type batchProcessor interface {
	Process(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type Options struct {
	RateLimiter    RateLimiter
	UserIDHeader   string
	MaxUploadBytes int64
}

func NewServer(logger *log.Logger, processor batchProcessor, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	if opts.UserIDHeader == "" {
		opts.UserIDHeader = "X-User-ID"
	}

	s := &Server{
		logger:                logger,
		processor:             processor,
		rateLimiter:           opts.RateLimiter,
		rateLimitUserIDHeader: opts.UserIDHeader,
		maxUploadBytes:        opts.MaxUploadBytes,
		metrics:               newMetrics(),
		tracer:                otel.Tracer("batch4k/api"),
		mux:                   http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.withTracing(s.metrics.withHTTPMetrics(s.mux))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
	s.mux.HandleFunc("POST /v1/batches", s.handleCreateBatch)
	s.mux.HandleFunc("POST /v1/batches/plan", s.handlePlanBatch)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	batchID := id.New()
	w.Header().Set(headerBatchID, batchID)

	uploads, err := s.readUploads(w, r)
	if err != nil {
		s.writeUploadError(w, batchID, err)
		return
	}
	if !s.allow(w, r, len(uploads)) {
		return
	}

	startedAt := time.Now()
	result, err := s.processor.Process(r.Context(), pipeline.Request{BatchID: batchID, Uploads: uploads})
	elapsed := time.Since(startedAt)
	if err != nil {
		s.metrics.observeBatch("failed", len(uploads), 0, elapsed)
		status := http.StatusInternalServerError
		message := "failed to process batch"
		if pipeline.IsInputError(err) {
			status = http.StatusUnprocessableEntity
			message = err.Error()
		}
		s.logger.Printf("batch failed batch_id=%s images=%d err=%v", batchID, len(uploads), err)
		writeJSON(w, status, map[string]string{"error": message, "batch_id": batchID})
		return
	}

	s.metrics.observeBatch("succeeded", len(uploads), len(result.Archive), elapsed)
	s.logger.Printf(
		"batch processed batch_id=%s images=%d source=%s archive=%s duration=%s",
		batchID,
		len(result.Outputs),
		humanize.Bytes(uint64(result.SourceBytes)),
		humanize.Bytes(uint64(len(result.Archive))),
		elapsed.Round(time.Millisecond),
	)

	w.Header().Set("Content-Type", archive.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", domain.ArchiveFilename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Archive)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Archive); err != nil {
		s.logger.Printf("archive download interrupted batch_id=%s err=%v", batchID, err)
	}
}

func (s *Server) handlePlanBatch(w http.ResponseWriter, r *http.Request) {
	batchID := id.New()
	w.Header().Set(headerBatchID, batchID)

	uploads, err := s.readUploads(w, r)
	if err != nil {
		s.writeUploadError(w, batchID, err)
		return
	}

	entries, err := pipeline.Plan(uploads)
	if err != nil {
		status := http.StatusInternalServerError
		if pipeline.IsInputError(err) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]string{"error": err.Error(), "batch_id": batchID})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id": batchID,
		"archive":  domain.ArchiveFilename,
		"images":   entries,
	})
}

// readUploads streams the multipart body part by part. The batch bound is
// checked as each image part arrives, so an oversized batch is refused at its
// first extra part instead of after the whole body is buffered.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]domain.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}

	uploads := make([]domain.Upload, 0, domain.MaxBatchImages)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			part.Close()
			continue
		}
		if len(uploads) == domain.MaxBatchImages {
			part.Close()
			return nil, domain.ErrBatchTooLarge
		}

		upload, err := readPart(part)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}

	if err := domain.ValidateBatch(uploads); err != nil {
		return nil, err
	}
	return uploads, nil
}

func readPart(part *multipart.Part) (domain.Upload, error) {
	defer part.Close()

	name := part.FileName()
	data, err := io.ReadAll(part)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("read upload %s: %w", name, err)
	}
	return domain.Upload{Name: name, Data: data}, nil
}

func (s *Server) writeUploadError(w http.ResponseWriter, batchID string, err error) {
	status := http.StatusBadRequest
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		status = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, status, map[string]string{"error": domain.UserMessage(err), "batch_id": batchID})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
