package reassemble

import (
	"bytes"
	"testing"

	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/wire"
)

func fh(t *testing.T, info wire.FrameInfo, fseq32 uint32, ts uint64, size uint32) []byte {
	t.Helper()
	return wire.EncodeFH(info, fseq32, ts, size)
}

func fd(t *testing.T, info wire.FrameInfo, fseq32 uint32, offset uint32, payload []byte) []byte {
	t.Helper()
	return wire.EncodeFD(info, fseq32, offset, payload)
}

func TestSingleFragmentRoundTrip(t *testing.T) {
	info := wire.FrameInfo{Width: 8, Height: 4, SampleFormat: wire.SampleFormat8Bit, Pattern: wire.BayerMono}
	payload := bytes.Repeat([]byte{0x5A}, 32)

	r := New()
	if out := r.Ingest(fh(t, info, 1, 1000, uint32(len(payload)))); len(out) != 0 {
		t.Fatalf("FH ingest returned %d completed frames, want 0", len(out))
	}
	out := r.Ingest(fd(t, info, 1, 0, payload))
	if len(out) != 1 {
		t.Fatalf("FD ingest returned %d completed frames, want 1", len(out))
	}
	cf := out[0]
	if !bytes.Equal(cf.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
	if cf.Info.Width != 8 || cf.Info.Height != 4 || cf.Info.SampleFormat != wire.SampleFormat8Bit || cf.Info.Pattern != wire.BayerMono {
		t.Fatalf("info mismatch: %+v", cf.Info)
	}
}

func TestReorderedFragmentsRoundTrip(t *testing.T) {
	info := wire.FrameInfo{Width: 16, Height: 4, SampleFormat: wire.SampleFormat8Bit}
	payload := bytes.Repeat([]byte{0x5A}, 64)
	const chunk = 12

	r := New()
	r.Ingest(fh(t, info, 1, 0, uint32(len(payload))))

	var fdPackets [][]byte
	for offset := 0; offset < len(payload); offset += chunk {
		end := offset + chunk
		if end > len(payload) {
			end = len(payload)
		}
		fdPackets = append(fdPackets, fd(t, info, 1, uint32(offset), payload[offset:end]))
	}

	var completed []CompletedFrame
	for i := len(fdPackets) - 1; i >= 0; i-- {
		completed = append(completed, r.Ingest(fdPackets[i])...)
	}
	if len(completed) != 1 {
		t.Fatalf("got %d completed frames, want 1", len(completed))
	}
	if !bytes.Equal(completed[0].Payload, payload) {
		t.Fatalf("payload mismatch after reverse delivery")
	}
}

func TestMissingFH(t *testing.T) {
	info := wire.FrameInfo{Width: 16, Height: 4, SampleFormat: wire.SampleFormat8Bit, Pattern: wire.BayerRG1BG2}
	payload := bytes.Repeat([]byte{0x11}, 64)
	const chunk = 13

	r := New()
	var out []CompletedFrame
	for offset := 0; offset < len(payload); offset += chunk {
		end := offset + chunk
		if end > len(payload) {
			end = len(payload)
		}
		out = append(out, r.Ingest(fd(t, info, 2, uint32(offset), payload[offset:end]))...)
	}
	if len(out) != 1 {
		t.Fatalf("got %d completed frames, want 1", len(out))
	}
	cf := out[0]
	if !bytes.Equal(cf.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
	if cf.Info.Pattern != wire.BayerRG1BG2 {
		t.Fatalf("Pattern = %v, want RG1BG2 (from FD)", cf.Info.Pattern)
	}
	if cf.Info.Width != 16 || cf.Info.Height != 4 {
		t.Fatalf("dims = %dx%d, want 16x4", cf.Info.Width, cf.Info.Height)
	}
}

func TestFHLateTolerance(t *testing.T) {
	info := wire.FrameInfo{Width: 16, Height: 4, SampleFormat: wire.SampleFormat8Bit}
	payload := bytes.Repeat([]byte{0x42}, 32)

	r := New()
	// First FD synthesizes a PendingFrame keyed by fseq8.
	out := r.Ingest(fd(t, info, 9, 0, payload[:16]))
	if len(out) != 0 {
		t.Fatalf("premature completion")
	}
	// FH now arrives with the full fseq32, replacing the synthesized entry
	// while preserving already-received bytes.
	out = r.Ingest(fh(t, info, 9, 500, uint32(len(payload))))
	if len(out) != 0 {
		t.Fatalf("FH ingest returned completed frames")
	}
	out = r.Ingest(fd(t, info, 9, 16, payload[16:]))
	if len(out) != 1 {
		t.Fatalf("got %d completed frames, want 1", len(out))
	}
	if !bytes.Equal(out[0].Payload, payload) {
		t.Fatalf("merged payload mismatch: pre-FH bytes were lost")
	}
}

func TestDuplicateFragmentsAreIdempotent(t *testing.T) {
	info := wire.FrameInfo{Width: 8, Height: 4, SampleFormat: wire.SampleFormat8Bit}
	payload := bytes.Repeat([]byte{0x7E}, 32)

	r := New()
	r.Ingest(fh(t, info, 1, 0, uint32(len(payload))))
	pkt := fd(t, info, 1, 0, payload)
	r.Ingest(pkt)
	r.Ingest(pkt)
	out := r.Ingest(pkt)
	if len(out) != 1 {
		t.Fatalf("got %d completed frames after 3x duplicate, want 1", len(out))
	}
	if !bytes.Equal(out[0].Payload, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestOverrunRejected(t *testing.T) {
	info := wire.FrameInfo{Width: 8, Height: 4, SampleFormat: wire.SampleFormat8Bit}

	r := New()
	r.Ingest(fh(t, info, 1, 0, 16)) // expected = 16 bytes
	overrun := fd(t, info, 1, 8, make([]byte, 16))
	out := r.Ingest(overrun)
	if len(out) != 0 {
		t.Fatalf("overrun fragment produced a completed frame")
	}
	if got := r.Stats().FramesDropped; got != 1 {
		t.Fatalf("FramesDropped = %d, want 1", got)
	}
	// Buffer must remain unwritten: a subsequent correct fragment still completes cleanly.
	out = r.Ingest(fd(t, info, 1, 0, make([]byte, 16)))
	if len(out) != 1 {
		t.Fatalf("frame did not complete after overrun was rejected")
	}
	if !bytes.Equal(out[0].Payload, make([]byte, 16)) {
		t.Fatalf("buffer was corrupted by the rejected overrun write: %v", out[0].Payload)
	}
}

func TestExpireOlderThan(t *testing.T) {
	info := wire.FrameInfo{Width: 8, Height: 4, SampleFormat: wire.SampleFormat8Bit}

	r := New()
	for _, fseq := range []uint32{1, 2, 3} {
		r.Ingest(fd(t, info, fseq, 0, make([]byte, 16)))
	}
	if got := len(r.frames); got != 3 {
		t.Fatalf("pending table has %d entries, want 3", got)
	}
	r.ExpireOlderThan(10, 4)
	if got := len(r.frames); got != 0 {
		t.Fatalf("pending table has %d entries after expiry, want 0", got)
	}
	if got := r.Stats().FramesDropped; got != 3 {
		t.Fatalf("FramesDropped = %d, want 3", got)
	}
}

func TestExpireOlderThanHandlesWraparound(t *testing.T) {
	info := wire.FrameInfo{Width: 8, Height: 4, SampleFormat: wire.SampleFormat8Bit}

	r := New()
	// FH carries the full fseq32, so use it to plant entries near the top
	// of the uint32 range without truncation.
	staleFseq := uint32(0xFFFFFFFE)
	r.Ingest(fh(t, info, staleFseq, 0, 32))
	freshFseq := uint32(1)
	r.Ingest(fh(t, info, freshFseq, 0, 32))

	// recentFseq has wrapped to 2; staleFseq is 4 sequence numbers behind it
	// (0xFFFFFFFE, 0xFFFFFFFF, 0, 1, 2), fresh is 1 behind.
	r.ExpireOlderThan(2, 3)

	if _, ok := r.frames[staleFseq]; ok {
		t.Fatalf("stale wrapped entry was not expired")
	}
	if _, ok := r.frames[freshFseq]; !ok {
		t.Fatalf("fresh entry was incorrectly expired")
	}
}

func TestLatestFSeq32TracksHighestFH(t *testing.T) {
	info := wire.FrameInfo{Width: 8, Height: 4, SampleFormat: wire.SampleFormat8Bit}

	r := New()
	if _, ok := r.LatestFSeq32(); ok {
		t.Fatalf("LatestFSeq32 reported a value before any FH arrived")
	}
	r.Ingest(fh(t, info, 5, 0, 32))
	r.Ingest(fh(t, info, 3, 0, 32))
	r.Ingest(fh(t, info, 9, 0, 32))
	got, ok := r.LatestFSeq32()
	if !ok || got != 9 {
		t.Fatalf("LatestFSeq32() = (%d, %v), want (9, true)", got, ok)
	}
}

func TestShortPacketDroppedSilently(t *testing.T) {
	r := New()
	out := r.Ingest([]byte{0, 1, 2})
	if len(out) != 0 {
		t.Fatalf("short packet produced output")
	}
	if r.Stats() != (Stats{}) {
		t.Fatalf("short packet mutated stats: %+v", r.Stats())
	}
}
