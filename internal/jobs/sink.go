package jobs

import (
	"fmt"
	"io"
	"os"
)

// Sink is an append-only target. Jobs open one handle per invocation and
// close it after writing.
type Sink interface {
	Open() (io.WriteCloser, error)
}

// FileSink appends to a file, creating it if needed.
type FileSink struct {
	Path string
}

func (s FileSink) Open() (io.WriteCloser, error) {
	return os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// AppendLines opens sink once and writes each line followed by a newline.
func AppendLines(sink Sink, lines ...string) (err error) {
	w, err := sink.Open()
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}
	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close sink: %w", cerr)
		}
	}()
	for _, l := range lines {
		if _, err := io.WriteString(w, l+"\n"); err != nil {
			return fmt.Errorf("write sink: %w", err)
		}
	}
	return nil
}
