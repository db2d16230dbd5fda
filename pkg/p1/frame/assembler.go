// Package frame reassembles DSMR P1 telegrams out of an arbitrarily-chunked
// byte stream, grounded on the UART event loop in emucs_p1.c but corrected
// per the documented overflow/compaction rules (see DESIGN.md).
package frame

import (
	"log"

	"github.com/dustin/go-humanize"
)

// BufferSize is the capacity of the assembler's working buffer. A telegram
// longer than this is unrecoverable and causes a silent drop.
const BufferSize = 1500

type state int

const (
	stateIdle state = iota
	stateData
	stateEnd
)

// Assembler is a byte-stream state machine that emits one complete,
// CRLF-terminated telegram per call to its emit callback. It holds no
// internal synchronization — callers run it from a single goroutine, as the
// P1 reader task does.
type Assembler struct {
	buf           [BufferSize]byte
	cursor        int // number of valid bytes currently held, always from offset 0
	state         state
	telegramStart int // offset of '/' within buf, valid once state != stateIdle
}

// NewAssembler returns an Assembler ready to receive bytes.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Feed appends data to the working buffer and emits every complete telegram
// found within it via emit. The slice passed to emit is only valid for the
// duration of the call — callers that need to retain it must copy.
func (a *Assembler) Feed(data []byte, emit func(telegram []byte)) {
	if len(data) == 0 {
		return
	}
	if a.cursor+len(data) > BufferSize {
		log.Printf("p1/frame: working buffer overflow (have %s, need %s of %s), dropping telegram in progress",
			humanize.Bytes(uint64(a.cursor)), humanize.Bytes(uint64(len(data))), humanize.Bytes(uint64(BufferSize)))
		a.reset()
		return
	}

	start := a.cursor
	copy(a.buf[a.cursor:], data)
	a.cursor += len(data)

	i := start
	for i < a.cursor {
		b := a.buf[i]
		switch a.state {
		case stateIdle:
			if b == '/' {
				a.telegramStart = i
				a.state = stateData
			}
		case stateData:
			if b == '!' {
				a.state = stateEnd
			}
		case stateEnd:
			if b == '\n' && i > 0 && a.buf[i-1] == '\r' {
				size := i - a.telegramStart + 1
				a.buf[i] = 0 // trailing \n becomes a NUL terminator
				telegram := make([]byte, size)
				copy(telegram, a.buf[a.telegramStart:a.telegramStart+size])
				emit(telegram)

				// Compact: drop the committed telegram and everything before
				// it, keep scanning whatever of this chunk follows it.
				remaining := a.cursor - (i + 1)
				copy(a.buf[0:remaining], a.buf[i+1:a.cursor])
				a.cursor = remaining
				a.telegramStart = 0
				a.state = stateIdle
				i = 0
				continue
			}
		}
		i++
	}

	// A telegram is still in progress and didn't start at the buffer base:
	// reclaim the space taken by whatever preceded it so the full capacity
	// remains available no matter how the stream happened to align.
	if a.state != stateIdle && a.telegramStart != 0 {
		remaining := a.cursor - a.telegramStart
		copy(a.buf[0:remaining], a.buf[a.telegramStart:a.cursor])
		a.cursor = remaining
		a.telegramStart = 0
	}
}

func (a *Assembler) reset() {
	a.state = stateIdle
	a.cursor = 0
	a.telegramStart = 0
}
