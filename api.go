package rawstream

import (
	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/fragment"
	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/reassemble"
	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/wire"
)

// Public API - re-export internal types as the stable contract.

// SampleFormat identifies a raw pixel bit depth.
type SampleFormat = wire.SampleFormat

// Recognized sample formats.
const (
	SampleFormat8Bit  = wire.SampleFormat8Bit
	SampleFormat10Bit = wire.SampleFormat10Bit
	SampleFormat12Bit = wire.SampleFormat12Bit
	SampleFormat14Bit = wire.SampleFormat14Bit
	SampleFormat16Bit = wire.SampleFormat16Bit
)

// BayerPattern identifies a sensor's color filter array mosaic.
type BayerPattern = wire.BayerPattern

// Recognized Bayer patterns.
const (
	BayerG1RG2B = wire.BayerG1RG2B
	BayerRG1BG2 = wire.BayerRG1BG2
	BayerG1BG2R = wire.BayerG1BG2R
	BayerBG1RG2 = wire.BayerBG1RG2
	BayerMono   = wire.BayerMono
)

// MaxFrameBytes is the hard cap on a single frame's payload size.
const MaxFrameBytes = wire.MaxFrameBytes

// FrameInfo is the intrinsic descriptor of a raw sensor frame.
type FrameInfo = wire.FrameInfo

// Options configures a Fragment call.
type Options = fragment.Options

// ReorderState carries a fragmenter's reorder window across calls.
type ReorderState = fragment.ReorderState

// CompletedFrame is a fully reassembled raw sensor frame.
type CompletedFrame = reassemble.CompletedFrame

// Stats is a snapshot of a Reassembler's running counters.
type Stats = reassemble.Stats

// Reassembler ingests datagrams in arbitrary order and emits completed frames.
type Reassembler = reassemble.FrameReassembler

// DefaultMaxDistance is the max-distance argument recommended for periodic
// ExpireOlderThan calls.
const DefaultMaxDistance = reassemble.DefaultMaxDistance

// Public API errors - re-export internal errors as the stable contract.
var (
	ErrShortPacket    = wire.ErrShortPacket
	ErrPayloadOverrun = wire.ErrPayloadOverrun
)
