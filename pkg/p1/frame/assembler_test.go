package frame

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTelegram = "/FLU5\\253769434_A\r\n\r\n0-0:96.1.4(50)\r\n!5DA0\r\n"

func TestAssembler_SingleChunk(t *testing.T) {
	a := NewAssembler()
	var got [][]byte
	a.Feed([]byte(sampleTelegram), func(tg []byte) {
		out := make([]byte, len(tg))
		copy(out, tg)
		got = append(got, out)
	})

	require.Len(t, got, 1)
	assert.Equal(t, byte(0), got[0][len(got[0])-1], "trailing \\n must be overwritten with NUL")
	assert.Equal(t, sampleTelegram[:len(sampleTelegram)-1], string(got[0][:len(got[0])-1]))
}

func TestAssembler_SplitAcrossEvents(t *testing.T) {
	a := NewAssembler()
	var got [][]byte
	emit := func(tg []byte) {
		out := make([]byte, len(tg))
		copy(out, tg)
		got = append(got, out)
	}

	for _, b := range []byte(sampleTelegram) {
		a.Feed([]byte{b}, emit)
	}

	require.Len(t, got, 1)
	assert.Equal(t, sampleTelegram[:len(sampleTelegram)-1], string(got[0][:len(got[0])-1]))
}

func TestAssembler_BackToBackTelegrams(t *testing.T) {
	a := NewAssembler()
	var got [][]byte
	emit := func(tg []byte) {
		out := make([]byte, len(tg))
		copy(out, tg)
		got = append(got, out)
	}

	a.Feed([]byte(sampleTelegram+sampleTelegram), emit)
	require.Len(t, got, 2)
}

func TestAssembler_ExactlyFillsBuffer(t *testing.T) {
	a := NewAssembler()
	padLen := BufferSize - len(sampleTelegram) + 1
	padded := "/" + strings.Repeat("x", padLen-1) + sampleTelegram[1:]
	require.Len(t, padded, BufferSize)

	var got [][]byte
	a.Feed([]byte(padded), func(tg []byte) {
		out := make([]byte, len(tg))
		copy(out, tg)
		got = append(got, out)
	})
	require.Len(t, got, 1)
}

func TestAssembler_OverflowResetsAndRecovers(t *testing.T) {
	a := NewAssembler()
	overflow := make([]byte, BufferSize+1)
	for i := range overflow {
		overflow[i] = 'x'
	}

	var got [][]byte
	emit := func(tg []byte) {
		out := make([]byte, len(tg))
		copy(out, tg)
		got = append(got, out)
	}

	a.Feed(overflow, emit)
	assert.Empty(t, got)

	a.Feed([]byte(sampleTelegram), emit)
	require.Len(t, got, 1)
}

func TestAssembler_NonTelegramBytesDiscarded(t *testing.T) {
	a := NewAssembler()
	var got [][]byte
	emit := func(tg []byte) {
		out := make([]byte, len(tg))
		copy(out, tg)
		got = append(got, out)
	}

	a.Feed([]byte("garbage-between-telegrams\r\n"+sampleTelegram), emit)
	require.Len(t, got, 1)
}
