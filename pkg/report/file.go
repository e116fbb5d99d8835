package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSON writes a report as indented JSON to w.
func WriteJSON(r *Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// FileSink writes each report to a JSON file, replacing any previous one.
type FileSink struct {
	Path string
}

var _ Sink = (*FileSink)(nil)

// Write creates or truncates the file at Path with the report JSON.
func (s *FileSink) Write(_ context.Context, r *Report) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.Path, err)
	}
	defer f.Close()
	return WriteJSON(r, f)
}

// Close is a no-op, the file is closed per write.
func (s *FileSink) Close(context.Context) error { return nil }
