package decoder

import (
	"errors"
	"time"
)

// Decode errors. Both are non-fatal: the frame is dropped, logged, and the
// pipeline keeps running.
var (
	// ErrMalformedFrame means the payload is shorter than the decoder's
	// minimum for that frame shape.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrUnknownIdentifier means the frame shape was recognized but an
	// identifier, parameter, or command value is not in the mapping tables.
	ErrUnknownIdentifier = errors.New("unknown identifier")
)

// RawFrame is one application-layer payload as delivered by the transport.
// Command is the cluster command ID; some vendor frames carry none, which the
// legacy color-control tables fold into the zero/unknown row, so absent and
// zero are equivalent here.
type RawFrame struct {
	Endpoint   uint8
	Cluster    uint16
	Command    uint8
	Payload    []byte
	ReceivedAt time.Time
}

// DecodePath tags which parser produced a piece of button evidence.
type DecodePath int

const (
	PathManufacturer DecodePath = iota
	PathColorStructured
	PathColorLegacy
)

func (p DecodePath) String() string {
	switch p {
	case PathManufacturer:
		return "manufacturer"
	case PathColorStructured:
		return "color_structured"
	case PathColorLegacy:
		return "color_legacy"
	}
	return "unknown"
}

// ButtonEvidence is the intermediate result of parsing a button frame. It
// lives only for the duration of one resolution call.
//
// Action is set when the parse alone fully determined the button (scene
// buttons, the context-aware color table, the legacy command tables). When it
// is empty the (Identifier, Parameter) pair is ambiguous and must go through
// the Resolver.
type ButtonEvidence struct {
	Path       DecodePath
	Identifier byte
	Parameter  byte
	Context    byte
	HasContext bool
	Action     ActionID
}
