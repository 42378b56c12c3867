// Package cmdbuf implements the wire-exact binary render/audio opcode
// stream produced by the script host and consumed verbatim by the client.
package cmdbuf

// Op is a single render/audio opcode.
type Op byte

const (
	OpClear     Op = 0x01
	OpSetColor  Op = 0x02
	OpFillRect  Op = 0x03
	OpDrawLine  Op = 0x04
	OpDrawText  Op = 0x05
	OpLoadSound Op = 0x06
	OpPlaySound Op = 0x07
	OpStopSound Op = 0x08
	OpSetVolume Op = 0x09
)

// Defaults applied by the script API when a parameter is omitted.
const (
	DefaultAlpha     = 255
	DefaultLineWidth = float32(1.0)
	DefaultLoop      = false
	DefaultVolume    = float32(1.0)
)
