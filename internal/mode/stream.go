package mode

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"tools.zach/dev/richcord/internal/discord"
	"tools.zach/dev/richcord/internal/logger"
	"tools.zach/dev/richcord/internal/presence"
)

// StreamStats counts what a [Stream] run did with its input.
type StreamStats struct {
	Lines     int
	Published int
	Malformed int
	Rejected  int
}

// Stream merges newline-delimited JSON patches into a running Activity over
// one persistent connection.
//
// A malformed line or an update that fails validation is reported and
// skipped; the previously published Activity stays current. A transport
// failure ends the run.
type Stream struct {
	Input           io.Reader
	Base            presence.Activity
	Validator       presence.Validator
	Open            Opener
	TeardownTimeout time.Duration
	// Report is told about every skipped line. It may be nil.
	Report func(line int, err error)

	stats StreamStats
}

// Stats returns the counters of the last run.
func (s *Stream) Stats() StreamStats { return s.stats }

// maxLineSize caps one update line. Longer lines are skipped as malformed.
const maxLineSize = discord.MaxPayloadSize

type inputLine struct {
	n       int
	text    string
	tooLong bool
}

// Run processes Input until EOF or until ctx is cancelled. Both end with the
// presence cleared and a nil error.
func (s *Stream) Run(ctx context.Context) error {
	s.stats = StreamStats{}
	current := s.Base
	if !current.IsEmpty() {
		if err := s.Validator.Validate(current); err != nil {
			return fmt.Errorf("invalid activity: %w", err)
		}
	}

	pub, err := s.Open(ctx)
	if err != nil {
		return err
	}
	defer pub.Teardown(teardownTimeout(s.TeardownTimeout))

	if !current.IsEmpty() {
		if err := pub.Publish(ctx, current); err != nil {
			if interrupted(ctx, err) {
				return nil
			}
			return fmt.Errorf("publish activity: %w", err)
		}
		s.stats.Published++
	}

	readCtx, stop := context.WithCancel(ctx)
	defer stop()
	lines := make(chan inputLine)
	readErr := make(chan error, 1)
	go readLines(readCtx, s.Input, lines, readErr)

	for {
		select {
		case <-ctx.Done():
			slog.Info("interrupted, clearing presence", "published", s.stats.Published)
			return nil

		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("reading updates: %w", err)
				}
				slog.Info("input closed, clearing presence", "lines", s.stats.Lines, "published", s.stats.Published)
				return nil
			}
			s.stats.Lines++
			if line.tooLong {
				s.stats.Malformed++
				s.report(line.n, &presence.DecodeError{Reason: fmt.Sprintf("line exceeds %d bytes", maxLineSize)})
				continue
			}
			logger.Trace("update line", "line", line.n, "text", line.text)

			next, ok, err := s.apply(current, line)
			if err != nil {
				s.report(line.n, err)
				continue
			}
			if !ok {
				continue
			}
			if err := pub.Publish(ctx, next); err != nil {
				if interrupted(ctx, err) {
					return nil
				}
				return fmt.Errorf("publish update on line %d: %w", line.n, err)
			}
			current = next
			s.stats.Published++
		}
	}
}

// apply decodes line and merges it into current. ok is false for lines that
// carry no update.
func (s *Stream) apply(current presence.Activity, line inputLine) (presence.Activity, bool, error) {
	patch, ok, err := presence.Decode(line.text)
	if err != nil {
		s.stats.Malformed++
		return current, false, err
	}
	if !ok {
		return current, false, nil
	}
	next := presence.Merge(current, patch)
	if err := s.Validator.Validate(next); err != nil {
		s.stats.Rejected++
		return current, false, err
	}
	return next, true, nil
}

func (s *Stream) report(n int, err error) {
	slog.Warn("update skipped", "line", n, "error", err)
	if s.Report != nil {
		s.Report(n, err)
	}
}

// readLines reads r and sends each line until EOF or until ctx ends. Lines
// over maxLineSize are drained and sent with tooLong set. The final read
// error, if any, is sent on errc before lines is closed.
func readLines(ctx context.Context, r io.Reader, lines chan<- inputLine, errc chan<- error) {
	defer close(lines)
	br := bufio.NewReaderSize(r, 64*1024)
	n := 0
	for {
		text, tooLong, err := readLine(br, maxLineSize)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			errc <- err
			return
		}
		n++
		select {
		case lines <- inputLine{n: n, text: string(text), tooLong: tooLong}:
		case <-ctx.Done():
			errc <- nil
			return
		}
	}
}

// readLine returns the next line without its line ending. A line longer than
// limit is consumed through its newline and returned empty with tooLong set.
// An unterminated final line is returned as a line; io.EOF follows it.
func readLine(br *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		frag, readErr := br.ReadSlice('\n')
		if !tooLong {
			line = append(line, frag...)
			if len(line) > limit+2 {
				line, tooLong = nil, true
			}
		}
		switch {
		case errors.Is(readErr, bufio.ErrBufferFull):
			continue
		case errors.Is(readErr, io.EOF) && (len(line) > 0 || tooLong):
		case readErr != nil:
			return nil, false, readErr
		}
		break
	}

	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) > limit {
		line, tooLong = nil, true
	}
	return line, tooLong, nil
}
