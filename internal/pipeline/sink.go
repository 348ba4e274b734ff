package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/allenfrostline/PokerHandsDataset/internal/hand"
	"github.com/goccy/go-json"
)

// ErrSink wraps every failure to deliver records to the output.
var ErrSink = errors.New("pipeline: output sink failed")

// Sink receives the finalized hands of one file group.
type Sink interface {
	WriteHands(hands []hand.Hand) error
}

// JSONLines appends one JSON document per hand. Each call performs a single
// write so an interrupted run never leaves a partial line behind.
type JSONLines struct {
	w       io.Writer
	closer  io.Closer
	path    string
	written int
}

// NewJSONLines wraps an arbitrary writer.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{w: w}
}

// OpenJSONLines opens path for appending, creating it if needed. With truncate
// any previous content is discarded first.
func OpenJSONLines(path string, truncate bool) (*JSONLines, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(filepath.Clean(path), flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrSink, path, err)
	}
	return &JSONLines{w: f, closer: f, path: path}, nil
}

// WriteHands encodes hands and appends them in one write.
func (s *JSONLines) WriteHands(hands []hand.Hand) error {
	if len(hands) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range hands {
		if err := enc.Encode(&hands[i]); err != nil {
			return fmt.Errorf("%w: encode %s: %v", ErrSink, hands[i].ID, err)
		}
	}
	if _, err := s.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrSink, s.path, err)
	}
	s.written += len(hands)
	return nil
}

// Written returns the number of hands appended so far.
func (s *JSONLines) Written() int {
	return s.written
}

// Close syncs and closes a file-backed sink. Failures wrap ErrSink.
func (s *JSONLines) Close() error {
	if s.closer == nil {
		return nil
	}
	if f, ok := s.closer.(*os.File); ok {
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return fmt.Errorf("%w: sync %s: %v", ErrSink, s.path, err)
		}
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrSink, s.path, err)
	}
	return nil
}
