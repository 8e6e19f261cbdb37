package rawstream

import (
	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/fragment"
	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/reassemble"
)

// NewReassembler creates an empty Reassembler. This is the only public
// constructor and part of the stable API.
func NewReassembler() *Reassembler {
	return reassemble.New()
}

// Fragment slices payload into an FH packet followed by MTU-bounded FD
// packets, per opts. reorder may be nil, in which case a fresh window is
// used. The window is drained before Fragment returns, so packets are only
// reordered within one frame, never across calls.
func Fragment(info FrameInfo, fseq32 uint32, timestampUs uint64, payload []byte, opts Options, reorder *ReorderState) [][]byte {
	return fragment.Fragment(info, fseq32, timestampUs, payload, opts, reorder)
}
