package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lineagelab/olgen/internal/openlineage"
)

const DefaultOutputPath = "metadata.json"

// FileSink writes the batch as one indented JSON array.
type FileSink struct {
	Path string
}

func NewFileSink(path string) FileSink {
	if path == "" {
		path = DefaultOutputPath
	}
	return FileSink{Path: path}
}

func (s FileSink) Write(ctx context.Context, events []openlineage.RunEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	doc = append(doc, '\n')
	if err := os.WriteFile(s.Path, doc, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	return nil
}
