package cmdbuf

import (
	"encoding/binary"
	"math"
	"sync"
)

// Buffer is a thread-safe, append-only binary sink for the render/audio
// opcode stream. Little-endian, tightly packed, no framing beyond
// concatenation — see spec §6.1.
type Buffer struct {
	mu   sync.Mutex
	data []byte
}

// New returns an empty Buffer with a small initial capacity.
func New() *Buffer {
	return &Buffer{data: make([]byte, 0, 1024)}
}

// Clear truncates the buffer to zero length without releasing capacity.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.data = b.data[:0]
	b.mu.Unlock()
}

// Bytes returns a copy of the buffer's current contents.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Append concatenates other's current bytes onto b. Used to splice the
// cross-frame event buffer ahead of a per-client draw.
func (b *Buffer) Append(other *Buffer) {
	chunk := other.Bytes()
	b.mu.Lock()
	b.data = append(b.data, chunk...)
	b.mu.Unlock()
}

func putF32(dst []byte, v float32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	return append(dst, buf[:]...)
}

func putString(dst []byte, s string) []byte {
	b := []byte(s)
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(b)))
	dst = append(dst, lenBuf[:]...)
	return append(dst, b...)
}

func (b *Buffer) write(f func([]byte) []byte) {
	b.mu.Lock()
	b.data = f(b.data)
	b.mu.Unlock()
}

// ClearScreen appends a CLEAR record.
func (b *Buffer) ClearScreen(r, g, bl byte) {
	b.write(func(d []byte) []byte {
		return append(d, byte(OpClear), r, g, bl)
	})
}

// SetColor appends a SET_COLOR record.
func (b *Buffer) SetColor(r, g, bl, a byte) {
	b.write(func(d []byte) []byte {
		return append(d, byte(OpSetColor), r, g, bl, a)
	})
}

// FillRect appends a FILL_RECT record.
func (b *Buffer) FillRect(x, y, w, h float32) {
	b.write(func(d []byte) []byte {
		d = append(d, byte(OpFillRect))
		d = putF32(d, x)
		d = putF32(d, y)
		d = putF32(d, w)
		d = putF32(d, h)
		return d
	})
}

// DrawLine appends a DRAW_LINE record.
func (b *Buffer) DrawLine(x1, y1, x2, y2, width float32) {
	b.write(func(d []byte) []byte {
		d = append(d, byte(OpDrawLine))
		d = putF32(d, x1)
		d = putF32(d, y1)
		d = putF32(d, x2)
		d = putF32(d, y2)
		d = putF32(d, width)
		return d
	})
}

// DrawText appends a DRAW_TEXT record.
func (b *Buffer) DrawText(x, y float32, text string) {
	b.write(func(d []byte) []byte {
		d = append(d, byte(OpDrawText))
		d = putF32(d, x)
		d = putF32(d, y)
		d = putString(d, text)
		return d
	})
}

// LoadSound appends a LOAD_SOUND record.
func (b *Buffer) LoadSound(name, url string) {
	b.write(func(d []byte) []byte {
		d = append(d, byte(OpLoadSound))
		d = putString(d, name)
		d = putString(d, url)
		return d
	})
}

// PlaySound appends a PLAY_SOUND record.
func (b *Buffer) PlaySound(name string, loop bool, volume float32) {
	b.write(func(d []byte) []byte {
		d = append(d, byte(OpPlaySound))
		d = putString(d, name)
		if loop {
			d = append(d, 1)
		} else {
			d = append(d, 0)
		}
		d = putF32(d, volume)
		return d
	})
}

// StopSound appends a STOP_SOUND record.
func (b *Buffer) StopSound(name string) {
	b.write(func(d []byte) []byte {
		d = append(d, byte(OpStopSound))
		d = putString(d, name)
		return d
	})
}

// SetVolume appends a SET_VOLUME record.
func (b *Buffer) SetVolume(name string, volume float32) {
	b.write(func(d []byte) []byte {
		d = append(d, byte(OpSetVolume))
		d = putString(d, name)
		d = putF32(d, volume)
		return d
	})
}
