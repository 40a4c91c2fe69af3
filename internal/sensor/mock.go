package sensor

import (
	"fmt"
	"io"
)

// MockPort replays a fixed byte buffer as a serial port, for tests and the
// -mock flag of the trackd binary.
type MockPort struct {
	buf          []byte
	errorMessage string
	closed       bool
}

// NewMockPort creates a MockPort that will replay data.
func NewMockPort(data []byte) *MockPort {
	return &MockPort{buf: data}
}

// FailWith makes every Read return an error, for failure-path tests.
func (m *MockPort) FailWith(message string) { m.errorMessage = message }

func (m *MockPort) Read(p []byte) (int, error) {
	if m.errorMessage != "" {
		return 0, fmt.Errorf("error %q", m.errorMessage)
	}
	if len(m.buf) == 0 || m.closed {
		return 0, io.EOF
	}
	n := copy(p, m.buf)
	m.buf = m.buf[n:]
	return n, nil
}

func (m *MockPort) Close() error {
	m.closed = true
	return nil
}
