// Package wire implements the bit-exact FH/FD packet codec for the
// raw-sensor-frame-over-IP protocol: fixed-layout header encode/decode,
// sample-format nibble packing, and Bayer-pattern flag packing.
//
// All multi-byte fields are big-endian and are accessed exclusively
// through encoding/binary, never by aliasing a Go struct onto the wire
// bytes, so behavior does not depend on the host's native endianness.
package wire

import (
	"encoding/binary"
	"errors"
)

// LIDType is the high bit of the lid field: set on FH packets, clear on FD.
const LIDType uint32 = 0x80000000

// FlowIDMask isolates the 31-bit flow_id carried in the low bits of lid.
const FlowIDMask uint32 = 0x7FFFFFFF

// fieldValueMask isolates the low 28 bits of fsize/offs (the byte count or
// offset); the high nibble of those fields carries the sample format.
const fieldValueMask uint32 = 0x0FFFFFFF

// sampleFormatMask isolates the high nibble of fsize/offs.
const sampleFormatMask uint32 = 0xF0000000

// MaxFrameBytes is the hard cap on a single frame's payload size (32 MiB),
// enforced by the reassembler. The fragmenter does not check it.
const MaxFrameBytes = 32 * 1024 * 1024

// FHHeaderSize is the byte offset of the first field the core does not
// interpret (trailing ABI fields some senders append are ignored).
const FHHeaderSize = 28

// FDHeaderSize is the byte offset of the payload within an FD packet.
const FDHeaderSize = 16

var (
	// ErrShortPacket indicates the buffer is smaller than the header it claims to be.
	ErrShortPacket = errors.New("rawstream/wire: packet shorter than header")
	// ErrPayloadOverrun indicates the declared payload size runs past the buffer.
	ErrPayloadOverrun = errors.New("rawstream/wire: payload size exceeds packet length")
)

// SampleFormat identifies a raw pixel bit depth.
type SampleFormat uint8

// Recognized sample formats. The numeric value is also the nibble encoded
// into the top 4 bits of fsize/offs (do not renumber).
const (
	SampleFormat8Bit SampleFormat = iota
	SampleFormat10Bit
	SampleFormat12Bit
	SampleFormat14Bit
	SampleFormat16Bit
)

// BayerPattern identifies the sensor's color filter array mosaic, or MONO
// for a monochrome (non-Bayer) sensor.
type BayerPattern uint8

// Recognized Bayer patterns. The numeric value is also the flag encoded
// into the low 5 bits of the FD flags byte (do not renumber).
const (
	BayerG1RG2B BayerPattern = iota
	BayerRG1BG2
	BayerG1BG2R
	BayerBG1RG2
	BayerMono
)

// EncodeSampleFormat returns fmt packed into the top nibble of a 32-bit
// fsize/offs field. Unrecognized formats encode as 8-bit.
func EncodeSampleFormat(fmt SampleFormat) uint32 {
	if fmt > SampleFormat16Bit {
		fmt = SampleFormat8Bit
	}
	return (uint32(fmt) << 28) & sampleFormatMask
}

// SampleFormatFromBits extracts the sample format nibble from a decoded
// fsize/offs field. Unrecognized nibbles fall back to 8-bit rather than
// being rejected, per the wire contract.
func SampleFormatFromBits(field uint32) SampleFormat {
	nibble := SampleFormat((field & sampleFormatMask) >> 28)
	if nibble > SampleFormat16Bit {
		return SampleFormat8Bit
	}
	return nibble
}

// FieldValue extracts the low 28 bits (byte count in fsize, offset in offs).
func FieldValue(field uint32) uint32 {
	return field & fieldValueMask
}

// EncodeField packs value into the low 28 bits alongside an already-shifted
// sample-format nibble (as produced by EncodeSampleFormat).
func EncodeField(value uint32, formatBits uint32) uint32 {
	return (value & fieldValueMask) | (formatBits & sampleFormatMask)
}

// SampleBits returns the pixel bit depth for fmt, or 0 if fmt is not one of
// the recognized formats.
func SampleBits(fmt SampleFormat) uint8 {
	switch fmt {
	case SampleFormat8Bit:
		return 8
	case SampleFormat10Bit:
		return 10
	case SampleFormat12Bit:
		return 12
	case SampleFormat14Bit:
		return 14
	case SampleFormat16Bit:
		return 16
	default:
		return 0
	}
}

// BytesPerPixel returns ceil(sample_bits/8), minimum 1. Unknown formats are
// treated as 8-bit.
func BytesPerPixel(fmt SampleFormat) uint32 {
	bits := SampleBits(fmt)
	if bits == 0 {
		bits = 8
	}
	bpp := (uint32(bits) + 7) / 8
	if bpp == 0 {
		bpp = 1
	}
	return bpp
}

// BayerFlag returns p packed into the low 5 bits of the FD flags byte.
func BayerFlag(p BayerPattern) uint8 {
	return uint8(p) & 0x1F
}

// BayerFromFlag decodes the low 5 bits of an FD flags byte. Values that do
// not name one of the four mosaics fall back to MONO.
func BayerFromFlag(flag uint8) BayerPattern {
	switch flag & 0x1F {
	case uint8(BayerG1RG2B):
		return BayerG1RG2B
	case uint8(BayerRG1BG2):
		return BayerRG1BG2
	case uint8(BayerG1BG2R):
		return BayerG1BG2R
	case uint8(BayerBG1RG2):
		return BayerBG1RG2
	default:
		return BayerMono
	}
}

// FrameInfo is the intrinsic descriptor of a raw sensor frame: pixel
// layout plus the flow it belongs to.
type FrameInfo struct {
	Width        uint16
	Height       uint16
	SampleFormat SampleFormat
	Pattern      BayerPattern
	FlowID       uint32 // low 31 bits significant
}

// FHFields is the fully decoded content of an FH packet.
type FHFields struct {
	FlowID   uint32
	FSeq32   uint32
	Ts       uint64
	Width    uint16
	Height   uint16
	Format   SampleFormat
	Expected uint32 // low 28 bits of fsize: frame payload byte count
}

// EncodeFH serializes an FH header. payloadSize must fit in 28 bits; callers
// are expected to have already validated the frame against MaxFrameBytes.
func EncodeFH(info FrameInfo, fseq32 uint32, timestampUs uint64, payloadSize uint32) []byte {
	buf := make([]byte, FHHeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], LIDType|(info.FlowID&FlowIDMask))
	binary.BigEndian.PutUint32(buf[4:8], fseq32)
	binary.BigEndian.PutUint64(buf[8:16], timestampUs)
	binary.BigEndian.PutUint16(buf[16:18], info.Width)
	binary.BigEndian.PutUint16(buf[18:20], info.Height)
	binary.BigEndian.PutUint32(buf[20:24], EncodeField(payloadSize, EncodeSampleFormat(info.SampleFormat)))
	binary.BigEndian.PutUint32(buf[24:28], 0) // osize: reserved
	return buf
}

// IsFH reports whether the packet's lid field marks it as a frame header.
func IsFH(lid uint32) bool {
	return lid&LIDType != 0
}

// DecodeLID reads just the 4-byte lid field, the first thing ingest() needs
// to decide FH vs FD routing.
func DecodeLID(packet []byte) (uint32, error) {
	if len(packet) < 4 {
		return 0, ErrShortPacket
	}
	return binary.BigEndian.Uint32(packet[0:4]), nil
}

// DecodeFH parses an FH packet. It does not validate Expected against
// MaxFrameBytes; that is the reassembler's job.
func DecodeFH(packet []byte) (FHFields, error) {
	var fh FHFields
	if len(packet) < FHHeaderSize {
		return fh, ErrShortPacket
	}
	lid := binary.BigEndian.Uint32(packet[0:4])
	fsize := binary.BigEndian.Uint32(packet[20:24])
	fh.FlowID = lid & FlowIDMask
	fh.FSeq32 = binary.BigEndian.Uint32(packet[4:8])
	fh.Ts = binary.BigEndian.Uint64(packet[8:16])
	fh.Width = binary.BigEndian.Uint16(packet[16:18])
	fh.Height = binary.BigEndian.Uint16(packet[18:20])
	fh.Format = SampleFormatFromBits(fsize)
	fh.Expected = FieldValue(fsize)
	return fh, nil
}

// FDFields is the fully decoded header content of an FD packet (excluding
// the trailing payload bytes).
type FDFields struct {
	FlowID  uint32
	FSeq8   uint8
	Pattern BayerPattern
	Size    uint16
	Width   uint16
	Height  uint16
	Offset  uint32
	Format  SampleFormat
}

// EncodeFD serializes an FD header followed by payload.
func EncodeFD(info FrameInfo, fseq32 uint32, offset uint32, payload []byte) []byte {
	buf := make([]byte, FDHeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], info.FlowID&FlowIDMask)
	buf[4] = BayerFlag(info.Pattern)
	buf[5] = byte(fseq32)
	binary.BigEndian.PutUint16(buf[6:8], uint16(len(payload)))
	binary.BigEndian.PutUint16(buf[8:10], info.Width)
	binary.BigEndian.PutUint16(buf[10:12], info.Height)
	binary.BigEndian.PutUint32(buf[12:16], EncodeField(offset, EncodeSampleFormat(info.SampleFormat)))
	copy(buf[FDHeaderSize:], payload)
	return buf
}

// DecodeFDHeader parses an FD packet's fixed header and validates that the
// declared payload size actually fits within the packet. It does not copy
// or return the payload bytes; callers slice packet[FDHeaderSize:] using
// the returned Size.
func DecodeFDHeader(packet []byte) (FDFields, error) {
	var fd FDFields
	if len(packet) < FDHeaderSize {
		return fd, ErrShortPacket
	}
	lid := binary.BigEndian.Uint32(packet[0:4])
	flags := packet[4]
	fseq8 := packet[5]
	size := binary.BigEndian.Uint16(packet[6:8])
	if FDHeaderSize+int(size) > len(packet) {
		return fd, ErrPayloadOverrun
	}
	offsRaw := binary.BigEndian.Uint32(packet[12:16])
	fd.FlowID = lid & FlowIDMask
	fd.FSeq8 = fseq8
	fd.Pattern = BayerFromFlag(flags)
	fd.Size = size
	fd.Width = binary.BigEndian.Uint16(packet[8:10])
	fd.Height = binary.BigEndian.Uint16(packet[10:12])
	fd.Offset = FieldValue(offsRaw)
	fd.Format = SampleFormatFromBits(offsRaw)
	return fd, nil
}
