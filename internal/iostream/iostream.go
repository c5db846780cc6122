// Package iostream provides convenient wrappers around the io.Writer
// pair jan's CLI talks to, so cmd/jan can point them at the real OS
// streams while tests point them at buffers, without threading four
// separate parameters through App construction.
package iostream

import (
	"bytes"
	"io"
	"os"
)

// IOStream is a pair of writers jan talks to.
type IOStream struct {
	Stdout io.Writer
	Stderr io.Writer
}

// OS returns an IOStream wired to the real OS streams.
func OS() IOStream {
	return IOStream{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Test returns an IOStream backed by fresh buffers, for assertions in
// tests.
func Test() IOStream {
	return IOStream{
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
	}
}

// Null returns an IOStream that discards everything written to it.
func Null() IOStream {
	return IOStream{
		Stdout: io.Discard,
		Stderr: io.Discard,
	}
}
