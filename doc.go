// Package rawstream implements a UDP-friendly wire protocol for streaming
// raw camera sensor frames as a sequence of small datagrams.
//
// # Overview
//
// A sender fragments one raw frame into an FH (frame header) packet
// followed by one or more FD (frame data) packets bounded by an MTU, and
// pushes them onto an unreliable transport. A receiver feeds every
// incoming datagram, in whatever order they arrive, to a Reassembler and
// gets back completed frames as their last byte lands:
//
//	packets := rawstream.Fragment(info, fseq32, timestampUs, payload, opts, nil)
//	// ... send packets over UDP, in any order, possibly with loss ...
//
//	r := rawstream.NewReassembler()
//	for pkt := range incoming {
//	    for _, frame := range r.Ingest(pkt) {
//	        handleFrame(frame)
//	    }
//	}
//
// # Non-goals
//
// This package does not open sockets, retransmit lost fragments, apply
// congestion control, encrypt payloads, or demosaic/preview/record
// frames. Those are the caller's concern; see cmd/rawstream-sender and
// cmd/rawstream-receiver for one way to wire them in.
//
// # Thread Safety
//
// Reassembler methods are safe for concurrent use: Ingest, Stats, and
// ExpireOlderThan share one mutex.
package rawstream
