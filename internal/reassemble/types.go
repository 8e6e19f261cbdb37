package reassemble

import "github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/wire"

// blockSize is the granularity of the PendingFrame received-bitmap, per
// the wire spec's "1 KiB blocks" definition.
const blockSize = 1024

// PendingFrame tracks the reassembly state of one in-flight frame. It is
// created either by an FH packet (keyed by its full fseq32) or, if the FH
// never arrives, synthesized from the first FD for an unknown fseq8
// (keyed by fseq32 = fseq8, HasFH = false).
type PendingFrame struct {
	FSeq32   uint32
	FSeq8    uint8
	Ts       uint64
	Info     wire.FrameInfo
	Data     []byte
	Received []bool // one entry per 1 KiB block of Data
	Expected uint32
	// ReceivedBytes counts bytes written, including overlapping bytes
	// from duplicate fragments; it is the completion signal
	// (ReceivedBytes >= Expected), not a measure of true coverage.
	ReceivedBytes uint32
	HasFH         bool
	// TraceID correlates this frame's log lines across sender and
	// receiver processes. It never appears on the wire.
	TraceID string
}

func newPendingFrame(expected uint32) PendingFrame {
	return PendingFrame{
		Expected: expected,
		Data:     make([]byte, expected),
		Received: make([]bool, (expected+blockSize-1)/blockSize),
	}
}

// mergeFrom copies previously-received bytes from a synthesized entry (old)
// into pf, the PendingFrame just built from a late-arriving FH. This is
// the "safe choice" for resolving a late FH superseding a synthesized
// entry: promote in place rather than losing already-reassembled data.
func (pf *PendingFrame) mergeFrom(old *PendingFrame) {
	n := old.Expected
	if pf.Expected < n {
		n = pf.Expected
	}
	copy(pf.Data[:n], old.Data[:n])
	for i := 0; i < len(pf.Received) && i < len(old.Received); i++ {
		pf.Received[i] = old.Received[i]
	}
	pf.ReceivedBytes = old.ReceivedBytes
}

// CompletedFrame is the reassembler's public output: a fully reassembled
// raw sensor frame ready for demosaic/preview or recording.
type CompletedFrame struct {
	Info      wire.FrameInfo
	FSeq32    uint32
	Timestamp uint64 // microseconds; sender's ts, or receive-time if the sender sent 0
	Payload   []byte
	TraceID   string
}
