package capture

import (
	"bufio"
	"context"
	"io"
)

// LineReader reads operator input in the background so a prompt can give up
// as soon as its context is cancelled instead of waiting for the next Enter.
type LineReader struct {
	lines chan string
}

func NewLineReader(r io.Reader) *LineReader {
	lr := &LineReader{lines: make(chan string)}
	go lr.scan(bufio.NewScanner(r))
	return lr
}

func (lr *LineReader) scan(scanner *bufio.Scanner) {
	defer close(lr.lines)
	for scanner.Scan() {
		lr.lines <- scanner.Text()
	}
}

// ReadLine returns the next line. ok is false at end of input or once ctx is done.
func (lr *LineReader) ReadLine(ctx context.Context) (line string, ok bool) {
	if ctx.Err() != nil {
		return "", false
	}
	select {
	case <-ctx.Done():
		return "", false
	case line, ok = <-lr.lines:
		return line, ok
	}
}
