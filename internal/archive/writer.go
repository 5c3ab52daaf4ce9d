package archive

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dunamismax/batch4k/internal/domain"
	"github.com/dunamismax/batch4k/internal/imagecodec"
	"github.com/klauspost/compress/zip"
)

const ContentType = "application/zip"

var errWriterClosed = errors.New("archive already finalized")

// Writer builds a ZIP archive in memory, one PNG member per image, in the
// order images are added. Any error leaves the writer unusable.
type Writer struct {
	buf     bytes.Buffer
	zw      *zip.Writer
	now     func() time.Time
	members []string
	err     error
	done    bool
}

func NewWriter() *Writer {
	w := &Writer{now: time.Now}
	w.zw = zip.NewWriter(&w.buf)
	return w
}

// Add encodes entry.Image as PNG and stores it under entry.Name. It returns
// the encoded size.
func (w *Writer) Add(entry domain.NamedImage) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.done {
		return 0, fmt.Errorf("%w: %w", domain.ErrArchiveWrite, errWriterClosed)
	}
	if strings.TrimSpace(entry.Name) == "" {
		return 0, w.fail(fmt.Errorf("%w: member name is required", domain.ErrArchiveWrite))
	}
	if entry.Image == nil {
		return 0, w.fail(fmt.Errorf("%w: member %s has no image", domain.ErrEncode, entry.Name))
	}

	data, err := imagecodec.EncodePNG(entry.Image)
	if err != nil {
		return 0, w.fail(fmt.Errorf("member %s: %w", entry.Name, err))
	}

	member, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     entry.Name,
		Method:   zip.Deflate,
		Modified: w.now(),
	})
	if err != nil {
		return 0, w.fail(fmt.Errorf("%w: create member %s: %w", domain.ErrArchiveWrite, entry.Name, err))
	}
	if _, err := member.Write(data); err != nil {
		return 0, w.fail(fmt.Errorf("%w: write member %s: %w", domain.ErrArchiveWrite, entry.Name, err))
	}

	w.members = append(w.members, entry.Name)
	return len(data), nil
}

// Members lists member names in archive order.
func (w *Writer) Members() []string {
	return append([]string(nil), w.members...)
}

// Bytes finalizes the archive. No partial archive is ever returned.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if !w.done {
		w.done = true
		if err := w.zw.Close(); err != nil {
			return nil, w.fail(fmt.Errorf("%w: finalize: %w", domain.ErrArchiveWrite, err))
		}
	}
	return w.buf.Bytes(), nil
}

func (w *Writer) fail(err error) error {
	w.err = err
	w.buf.Reset()
	return err
}

// Build archives entries in order and returns the ZIP bytes.
func Build(entries []domain.NamedImage) ([]byte, error) {
	w := NewWriter()
	for _, entry := range entries {
		if _, err := w.Add(entry); err != nil {
			return nil, err
		}
	}
	return w.Bytes()
}
