package telemetry

import "github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/reassemble"

// FromReassemblerStats converts a reassembler snapshot into the wire format
// telemetry publishes.
func FromReassemblerStats(instanceID string, s reassemble.Stats) StatsSnapshot {
	snap := StatsSnapshot{
		InstanceID:      instanceID,
		FHPackets:       s.FHPackets,
		FDPackets:       s.FDPackets,
		Bytes:           s.Bytes,
		FramesCompleted: s.FramesCompleted,
		FramesDropped:   s.FramesDropped,
		ReorderDepth:    s.ReorderDepth,
	}
	total := s.FramesCompleted + s.FramesDropped
	if total > 0 {
		snap.DropRate = float64(s.FramesDropped) / float64(total)
	}
	return snap
}
