// ABOUTME: Compressed audio packet types and the blocking packet queue
// ABOUTME: Provides Packet, Cursor and Queue used between producer and decoder
// Package packet carries compressed audio between a producer and the decoder.
//
// A Packet is a tagged union: Audio packets carry codec bytes, Flush markers
// signal a discontinuity (seek, track change) and Close markers end the
// stream. Markers travel through the same Queue as audio so their ordering
// relative to real packets is preserved.
//
// Example:
//
//	q := packet.NewQueue(64)
//	go func() {
//	    q.PushAudio(ctx, data, pts, audio.TimeBase48kHz, queueID)
//	    q.Finish(ctx)
//	}()
//	pkt, err := q.Pop(ctx)
package packet
