// Package fragment slices a raw sensor frame payload into MTU-bounded FD
// packets preceded by one FH packet, with optional simulated loss,
// duplication, and bounded-window reordering for exercising the
// reassembler under adverse network conditions.
package fragment

import (
	"math/rand"

	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/wire"
)

const (
	minFragmentPayload = 64
	maxFragmentPayload = 65000
)

// Options configures a single Fragment call. Destination addressing is
// deliberately absent, since that is a UDP-socket concern owned by the caller.
type Options struct {
	FlowID           uint32
	FragmentPayload  uint16 // target max FD payload bytes, clamped to [64, 65000]
	LossPercent      float64
	DuplicatePercent float64
	ReorderWindow    uint32
}

// clampedFragmentPayload returns opts.FragmentPayload clamped into the
// supported range. Zero means unset and defaults to the max; any other
// sub-minimum value clamps up to the minimum instead.
func (o Options) clampedFragmentPayload() int {
	fp := int(o.FragmentPayload)
	if fp == 0 {
		return maxFragmentPayload
	}
	if fp < minFragmentPayload {
		fp = minFragmentPayload
	}
	if fp > maxFragmentPayload {
		fp = maxFragmentPayload
	}
	return fp
}

// ReorderState is the set of deferred FD packet buffers currently held back
// by the reorder window. Fragment drains it completely before returning, so
// no packet is held back from one call into the next; reordering happens
// within a single frame's FD packets. The zero value is ready to use.
// Not safe for concurrent use without external synchronization.
type ReorderState struct {
	pending [][]byte
}

// Fragment slices payload into an ordered list of packet buffers: exactly
// one FH buffer, followed by FD buffers covering payload in MTU-sized
// chunks. FH is never subject to loss/duplication/reordering. Returns nil
// if payload is empty.
func Fragment(info wire.FrameInfo, fseq32 uint32, timestampUs uint64, payload []byte, opts Options, reorder *ReorderState) [][]byte {
	if len(payload) == 0 {
		return nil
	}
	if reorder == nil {
		reorder = &ReorderState{}
	}

	payloadSize := uint32(len(payload))
	packets := make([][]byte, 0, len(payload)/opts.clampedFragmentPayload()+2)
	packets = append(packets, wire.EncodeFH(info, fseq32, timestampUs, payloadSize))

	rng := rand.New(rand.NewSource(int64(timestampUs ^ uint64(payloadSize))))
	chunkSize := opts.clampedFragmentPayload()

	var offset uint32
	for offset < payloadSize {
		remaining := payloadSize - offset
		chunk := uint32(chunkSize)
		if chunk > remaining {
			chunk = remaining
		}
		pkt := wire.EncodeFD(info, fseq32, offset, payload[offset:offset+chunk])
		offset += chunk

		roll := rng.Float64() * 100
		switch {
		case roll < opts.LossPercent:
			continue
		case roll < opts.LossPercent+opts.DuplicatePercent:
			packets = append(packets, pkt)
		}

		if opts.ReorderWindow > 0 {
			reorder.pending = append(reorder.pending, pkt)
			if uint32(len(reorder.pending)) > opts.ReorderWindow {
				packets = append(packets, popRandom(reorder.pending, rng))
				reorder.pending = reorder.pending[:len(reorder.pending)-1]
			}
		} else {
			packets = append(packets, pkt)
		}
	}

	for len(reorder.pending) > 0 {
		packets = append(packets, popRandom(reorder.pending, rng))
		reorder.pending = reorder.pending[:len(reorder.pending)-1]
	}

	return packets
}

// popRandom picks a uniformly random element out of pending, moves it to the
// end (so a plain truncation by the caller drops it), and returns it. This
// is what turns the pending buffer into an actual reordering window instead
// of a fixed-delay FIFO.
func popRandom(pending [][]byte, rng *rand.Rand) []byte {
	i := rng.Intn(len(pending))
	chosen := pending[i]
	last := len(pending) - 1
	pending[i], pending[last] = pending[last], pending[i]
	return chosen
}
