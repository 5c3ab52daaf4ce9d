package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
)

func TestValidateBatch(t *testing.T) {
	valid := []Upload{{Name: "a.jpg", Data: []byte{1}}}
	if err := ValidateBatch(valid); err != nil {
		t.Fatalf("expected valid batch, got error: %v", err)
	}

	if err := ValidateBatch(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}

	full := make([]Upload, MaxBatchImages)
	for i := range full {
		full[i] = Upload{Name: fmt.Sprintf("img%d.png", i), Data: []byte{1}}
	}
	if err := ValidateBatch(full); err != nil {
		t.Fatalf("expected %d uploads to be accepted, got %v", MaxBatchImages, err)
	}

	tooMany := append(full, Upload{Name: "extra.png", Data: []byte{1}})
	if err := ValidateBatch(tooMany); !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}

	if err := ValidateBatch([]Upload{{Name: " ", Data: []byte{1}}}); err == nil {
		t.Fatal("expected validation error for blank name")
	}
	if err := ValidateBatch([]Upload{{Name: "a.png"}}); err == nil {
		t.Fatal("expected validation error for empty data")
	}
}

func TestBatchTooLargeMessage(t *testing.T) {
	if !strings.Contains(BatchTooLargeMessage, strconv.Itoa(MaxBatchImages)) {
		t.Fatalf("message %q does not mention the limit %d", BatchTooLargeMessage, MaxBatchImages)
	}
	if got := UserMessage(fmt.Errorf("read uploads: %w", ErrBatchTooLarge)); got != BatchTooLargeMessage {
		t.Fatalf("expected user-facing limit message, got %q", got)
	}
	if got := UserMessage(ErrEmptyBatch); got != ErrEmptyBatch.Error() {
		t.Fatalf("expected plain error text, got %q", got)
	}
}
