package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/dunamismax/batch4k/internal/archive"
	"github.com/dunamismax/batch4k/internal/domain"
	"github.com/dunamismax/batch4k/internal/imagecodec"
	"github.com/dunamismax/batch4k/internal/resize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request is one batch. Callers must keep Uploads within
// domain.MaxBatchImages; the processor does not re-check the bound.
type Request struct {
	BatchID string
	Uploads []domain.Upload
}

type Output struct {
	Name         string `json:"name"`
	Source       string `json:"source"`
	SourceFormat string `json:"source_format"`
	SourceWidth  int    `json:"source_width"`
	SourceHeight int    `json:"source_height"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Bytes        int    `json:"bytes"`
}

type Result struct {
	BatchID     string
	Archive     []byte
	Outputs     []Output
	SourceBytes int
}

// Processor runs decode, fit, rename and archive for every upload in order.
// It keeps no state between batches and is safe to share.
type Processor struct {
	decode decodeFunc
	fitter *resize.Fitter
	tracer trace.Tracer
}

type decodeFunc func(data []byte, declared imagecodec.Format) (image.Image, imagecodec.Format, error)

func NewProcessor(filter resize.Filter) (*Processor, error) {
	resampler, err := resize.NewResampler(filter)
	if err != nil {
		return nil, fmt.Errorf("build resampler: %w", err)
	}
	fitter, err := resize.NewFitter(resize.UHD, resampler)
	if err != nil {
		return nil, fmt.Errorf("build fitter: %w", err)
	}
	return &Processor{
		decode: imagecodec.Decode,
		fitter: fitter,
		tracer: otel.Tracer("batch4k/pipeline"),
	}, nil
}

func (p *Processor) Resampler() string {
	return p.fitter.Resampler()
}

// Process converts the whole batch or nothing. The context only carries trace
// spans; a started batch always runs to completion or to its first error.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	if len(req.Uploads) == 0 {
		return Result{}, domain.ErrEmptyBatch
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.process_batch")
	span.SetAttributes(
		attribute.String("batch.id", req.BatchID),
		attribute.Int("batch.images", len(req.Uploads)),
		attribute.String("batch.resampler", p.fitter.Resampler()),
	)
	defer span.End()

	writer := archive.NewWriter()
	out := Result{
		BatchID: req.BatchID,
		Outputs: make([]Output, 0, len(req.Uploads)),
	}
	for i, upload := range req.Uploads {
		seq := i + 1
		output, err := p.processOne(ctx, writer, upload, seq)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "batch failed")
			return Result{}, fmt.Errorf("image %d (%s): %w", seq, upload.Name, err)
		}
		out.SourceBytes += len(upload.Data)
		out.Outputs = append(out.Outputs, output)
	}

	data, err := writer.Bytes()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive failed")
		return Result{}, fmt.Errorf("archive stage: %w", err)
	}
	out.Archive = data

	span.SetAttributes(attribute.Int("batch.archive_bytes", len(data)))
	span.SetStatus(codes.Ok, "processed")
	return out, nil
}

func (p *Processor) processOne(ctx context.Context, writer *archive.Writer, upload domain.Upload, seq int) (Output, error) {
	_, span := p.tracer.Start(ctx, "pipeline.fit_image")
	span.SetAttributes(
		attribute.Int("image.seq", seq),
		attribute.String("image.source", upload.Name),
	)
	defer span.End()

	declared, err := imagecodec.FormatFromName(upload.Name)
	if err != nil {
		return Output{}, fmt.Errorf("decode stage: %w", err)
	}
	src, format, err := p.decode(upload.Data, declared)
	if err != nil {
		return Output{}, fmt.Errorf("decode stage: %w", err)
	}
	srcBounds := src.Bounds()

	resized, err := p.fitter.Fit(src)
	if err != nil {
		return Output{}, fmt.Errorf("resize stage: %w", err)
	}
	dstBounds := resized.Bounds()

	name := MemberName(upload.Name, seq)
	written, err := writer.Add(domain.NamedImage{Name: name, Image: resized})
	if err != nil {
		return Output{}, fmt.Errorf("archive stage: %w", err)
	}

	span.SetAttributes(
		attribute.String("image.member", name),
		attribute.Int("image.width", dstBounds.Dx()),
		attribute.Int("image.height", dstBounds.Dy()),
	)

	return Output{
		Name:         name,
		Source:       upload.Name,
		SourceFormat: format.String(),
		SourceWidth:  srcBounds.Dx(),
		SourceHeight: srcBounds.Dy(),
		Width:        dstBounds.Dx(),
		Height:       dstBounds.Dy(),
		Bytes:        written,
	}, nil
}

// ProcessBatch is the stateless processBatch(inputs) -> archive entry point
// with the default Lanczos3 filter.
func ProcessBatch(ctx context.Context, uploads []domain.Upload) ([]byte, error) {
	processor, err := NewProcessor(resize.FilterLanczos3)
	if err != nil {
		return nil, err
	}
	result, err := processor.Process(ctx, Request{Uploads: uploads})
	if err != nil {
		return nil, err
	}
	return result.Archive, nil
}

// IsInputError reports whether err was caused by the uploaded data rather than
// by the server.
func IsInputError(err error) bool {
	return errors.Is(err, domain.ErrDecode) ||
		errors.Is(err, domain.ErrUnsupportedFormat) ||
		errors.Is(err, domain.ErrInvalidDimension)
}
