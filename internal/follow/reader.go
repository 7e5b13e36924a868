package follow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Reader reads a file from the start and then keeps reading appended data.
// Read blocks at end of file until the file grows or the context ends; only
// the latter produces io.EOF.
type Reader struct {
	ctx context.Context
	f   *os.File
	w   *Watcher
	pos int64
}

// Open opens path for following.
func Open(ctx context.Context, path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	w, err := NewWatcher(path)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("watching input file: %w", err)
	}
	return &Reader{ctx: ctx, f: f, w: w}, nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	for {
		n, err := r.f.Read(p)
		r.pos += int64(n)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}

		select {
		case <-r.ctx.Done():
			return 0, io.EOF
		case <-r.w.Events():
			if err := r.rewindIfTruncated(); err != nil {
				return 0, err
			}
		}
	}
}

// rewindIfTruncated restarts from the beginning when the file shrank below
// the current offset.
func (r *Reader) rewindIfTruncated() error {
	info, err := r.f.Stat()
	if err != nil {
		return fmt.Errorf("stat input file: %w", err)
	}
	if info.Size() >= r.pos {
		return nil
	}
	slog.Info("input file truncated, reading from start", "path", r.f.Name())
	if _, err := r.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding input file: %w", err)
	}
	r.pos = 0
	return nil
}

// Close stops watching and closes the file.
func (r *Reader) Close() error {
	return errors.Join(r.w.Close(), r.f.Close())
}
