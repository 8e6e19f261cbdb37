package wire

import "testing"

func TestSampleFormatRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		fmt  SampleFormat
		bits uint8
	}{
		{"8bit", SampleFormat8Bit, 8},
		{"10bit", SampleFormat10Bit, 10},
		{"12bit", SampleFormat12Bit, 12},
		{"14bit", SampleFormat14Bit, 14},
		{"16bit", SampleFormat16Bit, 16},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded := EncodeSampleFormat(tc.fmt)
			if encoded&^sampleFormatMask != 0 {
				t.Fatalf("EncodeSampleFormat leaked bits outside top nibble: %#x", encoded)
			}
			got := SampleFormatFromBits(encoded)
			if got != tc.fmt {
				t.Fatalf("SampleFormatFromBits(%#x) = %v, want %v", encoded, got, tc.fmt)
			}
			if bits := SampleBits(tc.fmt); bits != tc.bits {
				t.Fatalf("SampleBits(%v) = %d, want %d", tc.fmt, bits, tc.bits)
			}
		})
	}
}

func TestSampleFormatUnknownFallsBackTo8Bit(t *testing.T) {
	// Nibble value 7 names no recognized format.
	field := uint32(7) << 28
	if got := SampleFormatFromBits(field); got != SampleFormat8Bit {
		t.Fatalf("SampleFormatFromBits(unknown nibble) = %v, want 8-bit fallback", got)
	}
	if bits := SampleBits(SampleFormat(7)); bits != 0 {
		t.Fatalf("SampleBits(unrecognized) = %d, want 0", bits)
	}
}

func TestBytesPerPixel(t *testing.T) {
	tests := []struct {
		fmt SampleFormat
		bpp uint32
	}{
		{SampleFormat8Bit, 1},
		{SampleFormat10Bit, 2},
		{SampleFormat12Bit, 2},
		{SampleFormat14Bit, 2},
		{SampleFormat16Bit, 2},
	}
	for _, tc := range tests {
		if got := BytesPerPixel(tc.fmt); got != tc.bpp {
			t.Fatalf("BytesPerPixel(%v) = %d, want %d", tc.fmt, got, tc.bpp)
		}
	}
}

func TestBayerRoundTrip(t *testing.T) {
	tests := []BayerPattern{BayerG1RG2B, BayerRG1BG2, BayerG1BG2R, BayerBG1RG2}
	for _, p := range tests {
		flag := BayerFlag(p)
		if got := BayerFromFlag(flag); got != p {
			t.Fatalf("BayerFromFlag(BayerFlag(%v)) = %v, want %v", p, got, p)
		}
	}
}

func TestBayerUnrecognizedFlagIsMono(t *testing.T) {
	if got := BayerFromFlag(0x1F); got != BayerMono {
		t.Fatalf("BayerFromFlag(0x1F) = %v, want MONO", got)
	}
	if got := BayerFromFlag(31); got != BayerMono {
		t.Fatalf("BayerFromFlag(31) = %v, want MONO", got)
	}
}

func TestEncodeFHDecodeFH(t *testing.T) {
	info := FrameInfo{Width: 64, Height: 32, SampleFormat: SampleFormat10Bit, FlowID: 7}
	buf := EncodeFH(info, 0xDEADBEEF, 123456789, 4096)

	if len(buf) != FHHeaderSize {
		t.Fatalf("EncodeFH length = %d, want %d", len(buf), FHHeaderSize)
	}
	lid, err := DecodeLID(buf)
	if err != nil {
		t.Fatalf("DecodeLID failed: %v", err)
	}
	if !IsFH(lid) {
		t.Fatalf("LID_TYPE bit not set on FH packet")
	}
	if lid&FlowIDMask != 7 {
		t.Fatalf("flow_id = %d, want 7", lid&FlowIDMask)
	}

	fh, err := DecodeFH(buf)
	if err != nil {
		t.Fatalf("DecodeFH failed: %v", err)
	}
	if fh.FSeq32 != 0xDEADBEEF {
		t.Fatalf("FSeq32 = %#x, want %#x", fh.FSeq32, 0xDEADBEEF)
	}
	if fh.Width != 64 || fh.Height != 32 {
		t.Fatalf("dims = %dx%d, want 64x32", fh.Width, fh.Height)
	}
	if fh.Format != SampleFormat10Bit {
		t.Fatalf("Format = %v, want 10bit", fh.Format)
	}
	if fh.Expected != 4096 {
		t.Fatalf("Expected = %d, want 4096", fh.Expected)
	}
	if fh.FlowID != 7 {
		t.Fatalf("FlowID = %d, want 7", fh.FlowID)
	}
}

func TestEncodeFDDecodeFDHeader(t *testing.T) {
	info := FrameInfo{Width: 64, Height: 32, SampleFormat: SampleFormat10Bit, Pattern: BayerRG1BG2, FlowID: 3}
	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}
	buf := EncodeFD(info, 0x1234ABCD, 512, payload)

	lid, err := DecodeLID(buf)
	if err != nil {
		t.Fatalf("DecodeLID failed: %v", err)
	}
	if IsFH(lid) {
		t.Fatalf("LID_TYPE bit set on FD packet")
	}

	fd, err := DecodeFDHeader(buf)
	if err != nil {
		t.Fatalf("DecodeFDHeader failed: %v", err)
	}
	if fd.FSeq8 != byte(0xCD) {
		t.Fatalf("FSeq8 = %#x, want %#x", fd.FSeq8, 0xCD)
	}
	if fd.Size != 100 {
		t.Fatalf("Size = %d, want 100", fd.Size)
	}
	if fd.Offset != 512 {
		t.Fatalf("Offset = %d, want 512", fd.Offset)
	}
	if fd.Format != SampleFormat10Bit {
		t.Fatalf("Format = %v, want 10bit", fd.Format)
	}
	if fd.Pattern != BayerRG1BG2 {
		t.Fatalf("Pattern = %v, want RG1BG2", fd.Pattern)
	}
	if fd.FlowID != 3 {
		t.Fatalf("FlowID = %d, want 3", fd.FlowID)
	}
	if got := buf[FDHeaderSize:]; string(got) != string(payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestDecodeFDHeaderRejectsOverrun(t *testing.T) {
	info := FrameInfo{Width: 8, Height: 4}
	buf := EncodeFD(info, 1, 0, make([]byte, 32))
	truncated := buf[:len(buf)-1]
	if _, err := DecodeFDHeader(truncated); err != ErrPayloadOverrun {
		t.Fatalf("DecodeFDHeader(truncated) error = %v, want ErrPayloadOverrun", err)
	}
}

func TestDecodeShortPacket(t *testing.T) {
	if _, err := DecodeLID([]byte{0, 1, 2}); err != ErrShortPacket {
		t.Fatalf("DecodeLID(short) error = %v, want ErrShortPacket", err)
	}
	if _, err := DecodeFH(make([]byte, FHHeaderSize-1)); err != ErrShortPacket {
		t.Fatalf("DecodeFH(short) error = %v, want ErrShortPacket", err)
	}
	if _, err := DecodeFDHeader(make([]byte, FDHeaderSize-1)); err != ErrShortPacket {
		t.Fatalf("DecodeFDHeader(short) error = %v, want ErrShortPacket", err)
	}
}
