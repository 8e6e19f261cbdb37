package reassemble

// Stats is a snapshot of the reassembler's running counters.
type Stats struct {
	FHPackets       uint64
	FDPackets       uint64
	Bytes           uint64
	FramesCompleted uint64
	FramesDropped   uint64
	// ReorderDepth is the peak size ever observed of the pending-frame
	// table, a proxy for the worst-case concurrent in-flight frame count.
	ReorderDepth uint32
}

func (s *Stats) noteTableSize(n int) {
	if n > int(s.ReorderDepth) {
		s.ReorderDepth = uint32(n)
	}
}
