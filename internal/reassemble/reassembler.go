// Package reassemble implements the multi-frame reassembly state machine:
// a pending-frame table keyed by fseq32, an ingest routine that routes FH
// and FD packets to the right handler, and stragglers expiry.
package reassemble

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/wire"
)

// DefaultMaxDistance is the recommended default max-distance for periodic
// ExpireOlderThan sweeps.
const DefaultMaxDistance = 4

// FrameReassembler ingests datagrams in arbitrary order and emits
// completed frames. All methods are safe for concurrent use: a single
// mutex serializes Ingest, Stats, and ExpireOlderThan for their full
// duration, matching the reference implementation's locking discipline.
type FrameReassembler struct {
	mu           sync.Mutex
	frames       map[uint32]*PendingFrame
	stats        Stats
	latestFSeq32 uint32
	haveLatest   bool
}

// New creates an empty FrameReassembler.
func New() *FrameReassembler {
	return &FrameReassembler{frames: make(map[uint32]*PendingFrame)}
}

// Ingest routes packet to the FH or FD handler based on the LID_TYPE bit
// and returns any frames the packet completed (at most one, since a single
// packet can complete at most the one frame it belongs to). Packets
// shorter than 4 bytes are dropped silently.
func (r *FrameReassembler) Ingest(packet []byte) []CompletedFrame {
	lid, err := wire.DecodeLID(packet)
	if err != nil {
		return nil
	}

	if wire.IsFH(lid) {
		r.ingestFH(packet)
		return nil
	}

	cf := r.ingestFD(packet)
	if cf == nil {
		return nil
	}
	return []CompletedFrame{*cf}
}

func (r *FrameReassembler) ingestFH(packet []byte) {
	pf, ok := decodeFHFrame(packet)
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, found := r.frames[pf.FSeq32]; found {
		if !existing.HasFH {
			pf.mergeFrom(existing)
		}
	} else {
		for k, v := range r.frames {
			if !v.HasFH && v.FSeq8 == pf.FSeq8 && v.Info.FlowID == pf.Info.FlowID {
				pf.mergeFrom(v)
				delete(r.frames, k)
				break
			}
		}
	}

	r.frames[pf.FSeq32] = pf
	r.stats.FHPackets++
	r.stats.noteTableSize(len(r.frames))

	if !r.haveLatest || int32(pf.FSeq32-r.latestFSeq32) > 0 {
		r.latestFSeq32 = pf.FSeq32
		r.haveLatest = true
	}
}

// decodeFHFrame builds a fresh PendingFrame from an FH packet, or reports
// false if the packet is malformed or declares an out-of-range size.
func decodeFHFrame(packet []byte) (*PendingFrame, bool) {
	fh, err := wire.DecodeFH(packet)
	if err != nil {
		return nil, false
	}
	if fh.Expected == 0 || fh.Expected > wire.MaxFrameBytes {
		return nil, false
	}

	pf := newPendingFrame(fh.Expected)
	pf.FSeq32 = fh.FSeq32
	pf.FSeq8 = uint8(fh.FSeq32)
	pf.Ts = fh.Ts
	pf.HasFH = true
	pf.TraceID = uuid.New().String()
	pf.Info = wire.FrameInfo{
		Width:        fh.Width,
		Height:       fh.Height,
		SampleFormat: fh.Format,
		Pattern:      wire.BayerMono, // FH carries no Bayer flag; the first FD refines this
		FlowID:       fh.FlowID,
	}
	return &pf, true
}

func (r *FrameReassembler) ingestFD(packet []byte) *CompletedFrame {
	fd, err := wire.DecodeFDHeader(packet)
	if err != nil {
		return nil
	}
	payload := packet[wire.FDHeaderSize : wire.FDHeaderSize+int(fd.Size)]

	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.FDPackets++
	r.stats.Bytes += uint64(fd.Size)

	pf := r.lookupOrSynthesize(fd)
	if pf == nil {
		return nil
	}
	r.stats.noteTableSize(len(r.frames))

	offset := fd.Offset
	size := uint32(fd.Size)
	if offset+size > pf.Expected {
		r.stats.FramesDropped++
		return nil
	}

	copy(pf.Data[offset:offset+size], payload)
	block := offset / blockSize
	if int(block) < len(pf.Received) {
		pf.Received[block] = true
	}
	pf.ReceivedBytes += size

	// The FD is authoritative for Bayer pattern and, per well-formed
	// streams, agrees with FH on dimensions and format.
	pf.Info.SampleFormat = fd.Format
	pf.Info.Width = fd.Width
	pf.Info.Height = fd.Height
	pf.Info.Pattern = fd.Pattern

	if pf.Expected == 0 || pf.ReceivedBytes < pf.Expected {
		return nil
	}

	cf := &CompletedFrame{
		Info:      pf.Info,
		FSeq32:    pf.FSeq32,
		Timestamp: pf.Ts,
		Payload:   pf.Data,
		TraceID:   pf.TraceID,
	}
	if cf.Timestamp == 0 {
		cf.Timestamp = uint64(time.Now().UnixMicro())
	}
	r.stats.FramesCompleted++
	delete(r.frames, pf.FSeq32)
	return cf
}

// lookupOrSynthesize finds the PendingFrame this FD belongs to by linear
// scan over (fseq8, flow_id), acceptable since the table is expected to
// hold only a handful of concurrently in-flight frames, or synthesizes
// one from the FD's own dimensions when no FH has been seen yet.
func (r *FrameReassembler) lookupOrSynthesize(fd wire.FDFields) *PendingFrame {
	for _, v := range r.frames {
		if v.FSeq8 == fd.FSeq8 && v.Info.FlowID == fd.FlowID {
			return v
		}
	}

	bpp := wire.BytesPerPixel(fd.Format)
	expected := uint32(fd.Width) * uint32(fd.Height) * bpp
	if expected == 0 || expected > wire.MaxFrameBytes {
		r.stats.FramesDropped++
		return nil
	}

	pf := newPendingFrame(expected)
	pf.FSeq32 = uint32(fd.FSeq8)
	pf.FSeq8 = fd.FSeq8
	pf.TraceID = uuid.New().String()
	pf.Info = wire.FrameInfo{
		Width:        fd.Width,
		Height:       fd.Height,
		SampleFormat: fd.Format,
		Pattern:      fd.Pattern,
		FlowID:       fd.FlowID,
	}
	r.frames[pf.FSeq32] = &pf
	return &pf
}

// Stats returns a snapshot of the running counters.
func (r *FrameReassembler) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// LatestFSeq32 returns the highest fseq32 seen on an FH packet so far
// (signed-distance comparison, so a wrapped sequence still orders
// correctly), and whether any FH has been observed yet. Callers driving a
// periodic ExpireOlderThan sweep should pass this value as recentFseq.
func (r *FrameReassembler) LatestFSeq32() (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latestFSeq32, r.haveLatest
}

// ExpireOlderThan erases pending entries whose fseq32 lags recentFseq by
// more than maxDistance, counting each as a dropped frame. Distance is
// computed as a signed 32-bit difference so a wrapped fseq32 sequence is
// still handled correctly, unlike a plain unsigned subtraction.
func (r *FrameReassembler) ExpireOlderThan(recentFseq, maxDistance uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k := range r.frames {
		distance := int32(recentFseq - k)
		if distance > int32(maxDistance) {
			delete(r.frames, k)
			r.stats.FramesDropped++
		}
	}
}
