package sensor

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/waymark-data/tracklog/internal/monitoring"
	"github.com/waymark-data/tracklog/internal/track"
)

// Port is the minimal serial interface the source needs. The abstraction
// enables unit testing without GPS hardware.
type Port interface {
	io.Reader
	io.Closer
}

// OpenPort opens a real serial port for an NMEA receiver.
func OpenPort(path string, baudRate int) (Port, error) {
	if baudRate <= 0 {
		baudRate = 9600
	}
	port, err := serial.Open(path, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	return port, nil
}

// FixHandler receives each parsed fix. It runs on the source's read
// goroutine and must not block; the ingestion coordinator's OnFix satisfies
// this.
type FixHandler func(track.RawFix)

// Source reads NMEA sentences line by line from a serial port and delivers
// parsed fixes to a handler.
type Source struct {
	port    Port
	parser  *Parser
	handler FixHandler
}

// NewSource creates a Source over an opened port.
func NewSource(port Port, handler FixHandler) *Source {
	return &Source{
		port:    port,
		parser:  NewParser(),
		handler: handler,
	}
}

// Run reads until the context is cancelled or the port reaches EOF.
// Malformed sentences are logged and skipped: a noisy line must not stop the
// stream.
func (s *Source) Run(ctx context.Context) error {
	lines := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.port)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errCh <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			s.port.Close()
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errCh:
					if err != nil {
						return fmt.Errorf("read sensor stream: %w", err)
					}
				default:
				}
				return nil
			}
			fix, err := s.parser.ParseSentence(line)
			if err != nil {
				monitoring.Debugf("skipping malformed sentence: %v", err)
				continue
			}
			if fix != nil {
				s.handler(*fix)
			}
		}
	}
}
