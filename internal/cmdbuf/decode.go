package cmdbuf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Command is the decoded, semantic form of a single opcode record.
// Only the fields carried by Op's record are meaningful; the rest stay zero.
type Command struct {
	Op    Op
	R, G, B, A byte
	X, Y, W, H float32
	X2, Y2     float32
	Width      float32
	Text       string
	Name       string
	URL        string
	Loop       bool
	Volume     float32
}

// Decode parses a byte stream produced by Buffer into an ordered list of
// Commands. It is the exact inverse of the encoder in buffer.go: encoding
// the returned slice reproduces the input bytes.
func Decode(data []byte) ([]Command, error) {
	var out []Command
	i := 0
	readU8 := func() (byte, error) {
		if i >= len(data) {
			return 0, fmt.Errorf("cmdbuf: truncated stream at byte %d", i)
		}
		v := data[i]
		i++
		return v, nil
	}
	readF32 := func() (float32, error) {
		if i+4 > len(data) {
			return 0, fmt.Errorf("cmdbuf: truncated f32 at byte %d", i)
		}
		v := math.Float32frombits(binary.LittleEndian.Uint32(data[i : i+4]))
		i += 4
		return v, nil
	}
	readString := func() (string, error) {
		if i+2 > len(data) {
			return "", fmt.Errorf("cmdbuf: truncated string length at byte %d", i)
		}
		n := int(binary.LittleEndian.Uint16(data[i : i+2]))
		i += 2
		if i+n > len(data) {
			return "", fmt.Errorf("cmdbuf: truncated string body at byte %d", i)
		}
		s := string(data[i : i+n])
		i += n
		return s, nil
	}

	for i < len(data) {
		opByte, err := readU8()
		if err != nil {
			return nil, err
		}
		op := Op(opByte)
		var cmd Command
		cmd.Op = op
		switch op {
		case OpClear:
			if cmd.R, err = readU8(); err != nil {
				return nil, err
			}
			if cmd.G, err = readU8(); err != nil {
				return nil, err
			}
			if cmd.B, err = readU8(); err != nil {
				return nil, err
			}
		case OpSetColor:
			if cmd.R, err = readU8(); err != nil {
				return nil, err
			}
			if cmd.G, err = readU8(); err != nil {
				return nil, err
			}
			if cmd.B, err = readU8(); err != nil {
				return nil, err
			}
			if cmd.A, err = readU8(); err != nil {
				return nil, err
			}
		case OpFillRect:
			if cmd.X, err = readF32(); err != nil {
				return nil, err
			}
			if cmd.Y, err = readF32(); err != nil {
				return nil, err
			}
			if cmd.W, err = readF32(); err != nil {
				return nil, err
			}
			if cmd.H, err = readF32(); err != nil {
				return nil, err
			}
		case OpDrawLine:
			if cmd.X, err = readF32(); err != nil {
				return nil, err
			}
			if cmd.Y, err = readF32(); err != nil {
				return nil, err
			}
			if cmd.X2, err = readF32(); err != nil {
				return nil, err
			}
			if cmd.Y2, err = readF32(); err != nil {
				return nil, err
			}
			if cmd.Width, err = readF32(); err != nil {
				return nil, err
			}
		case OpDrawText:
			if cmd.X, err = readF32(); err != nil {
				return nil, err
			}
			if cmd.Y, err = readF32(); err != nil {
				return nil, err
			}
			if cmd.Text, err = readString(); err != nil {
				return nil, err
			}
		case OpLoadSound:
			if cmd.Name, err = readString(); err != nil {
				return nil, err
			}
			if cmd.URL, err = readString(); err != nil {
				return nil, err
			}
		case OpPlaySound:
			if cmd.Name, err = readString(); err != nil {
				return nil, err
			}
			loopByte, err2 := readU8()
			if err2 != nil {
				return nil, err2
			}
			cmd.Loop = loopByte != 0
			if cmd.Volume, err = readF32(); err != nil {
				return nil, err
			}
		case OpStopSound:
			if cmd.Name, err = readString(); err != nil {
				return nil, err
			}
		case OpSetVolume:
			if cmd.Name, err = readString(); err != nil {
				return nil, err
			}
			if cmd.Volume, err = readF32(); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("cmdbuf: unknown opcode 0x%02x at byte %d", opByte, i-1)
		}
		out = append(out, cmd)
	}
	return out, nil
}

// Encode re-serializes a command list into the wire format, applying the
// same field layout as Buffer's writer methods.
func Encode(cmds []Command) []byte {
	buf := New()
	for _, c := range cmds {
		switch c.Op {
		case OpClear:
			buf.ClearScreen(c.R, c.G, c.B)
		case OpSetColor:
			buf.SetColor(c.R, c.G, c.B, c.A)
		case OpFillRect:
			buf.FillRect(c.X, c.Y, c.W, c.H)
		case OpDrawLine:
			buf.DrawLine(c.X, c.Y, c.X2, c.Y2, c.Width)
		case OpDrawText:
			buf.DrawText(c.X, c.Y, c.Text)
		case OpLoadSound:
			buf.LoadSound(c.Name, c.URL)
		case OpPlaySound:
			buf.PlaySound(c.Name, c.Loop, c.Volume)
		case OpStopSound:
			buf.StopSound(c.Name)
		case OpSetVolume:
			buf.SetVolume(c.Name, c.Volume)
		}
	}
	return buf.Bytes()
}
