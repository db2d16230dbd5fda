// Package ingest wires the serial port, frame assembler, and parser into
// the P1 reader task, and the "telegram available" consumer into the
// logger task, grounded on port_reader/service.go's StartReading
// reconnect-with-backoff loop.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/kwartiwi/p1sensor/pkg/p1/frame"
	"github.com/kwartiwi/p1sensor/pkg/p1/parser"
	"github.com/kwartiwi/p1sensor/pkg/serialport"
	"github.com/kwartiwi/p1sensor/pkg/telemetry"
)

// maxConsecutiveErrors bounds how many back-to-back serial read failures
// the reader tolerates before giving up and returning an error to its
// supervising errgroup.
const maxConsecutiveErrors = 10

// Reader is the P1 reader task: it drains the serial port, reassembles
// telegrams via frame.Assembler, parses them, and commits successfully
// parsed snapshots to the store.
type Reader struct {
	device string
	baud   uint
	store  *telemetry.Store

	// openFunc is overridable in tests; production code leaves it nil and
	// gets serialport.Open.
	openFunc func(device string, baud uint) (io.ReadWriteCloser, error)
}

// NewReader returns a Reader that will open device at baud and commit
// parsed telegrams to store.
func NewReader(device string, baud uint, store *telemetry.Store) *Reader {
	return &Reader{device: device, baud: baud, store: store}
}

func (r *Reader) open() (io.ReadWriteCloser, error) {
	if r.openFunc != nil {
		return r.openFunc(r.device, r.baud)
	}
	return serialport.Open(r.device, r.baud)
}

// Run opens the serial port and processes bytes until ctx is done or the
// port fails too many times in a row.
func (r *Reader) Run(ctx context.Context) error {
	port, err := r.open()
	if err != nil {
		return err
	}
	defer port.Close()

	go func() {
		<-ctx.Done()
		port.Close()
	}()

	asm := frame.NewAssembler()
	buf := make([]byte, 4096)
	consecutiveErrors := 0

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		n, err := port.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			consecutiveErrors++
			log.Printf("ingest: serial read error (%d/%d): %v", consecutiveErrors, maxConsecutiveErrors, err)
			if consecutiveErrors >= maxConsecutiveErrors {
				return fmt.Errorf("ingest: too many consecutive serial errors: %w", err)
			}
			time.Sleep(time.Second)
			continue
		}
		consecutiveErrors = 0

		asm.Feed(buf[:n], r.handleTelegram)
	}
}

func (r *Reader) handleTelegram(telegram []byte) {
	snap, err := parser.Parse(telegram)
	if err != nil {
		log.Printf("ingest: dropping telegram: %v", err)
		return
	}
	r.store.CommitSnapshot(*snap)
}
