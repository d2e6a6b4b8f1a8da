package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/poiesic/newsdigest/pipeline"
)

// LatestFile is rewritten with every delivered payload.
const LatestFile = "latest.json"

// FileSink writes each payload to <dir>/<run_id>.json and refreshes
// <dir>/latest.json.
type FileSink struct {
	dir string
}

// NewFileSink creates a sink rooted at dir. The directory is created on
// first delivery.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Name identifies the sink.
func (s *FileSink) Name() string { return "file" }

// Deliver writes the payload files. Each file is replaced atomically.
func (s *FileSink) Deliver(ctx context.Context, payload *pipeline.Payload) error {
	data, err := Encode(payload)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating publish dir: %w", err)
	}
	for _, name := range []string{payload.Meta.RunID + ".json", LatestFile} {
		if err := writeAtomic(filepath.Join(s.dir, name), data); err != nil {
			return err
		}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".payload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
