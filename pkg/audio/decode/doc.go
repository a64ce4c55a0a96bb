// ABOUTME: Packet-to-frame decoding for compressed audio
// ABOUTME: Provides decode engines (PCM, Opus) and the PacketDecoder adapter
// Package decode turns queued compressed packets into timestamped frames.
//
// An Engine is a stateful codec context with a send/receive interface. The
// PacketDecoder pulls packets from a Source, feeds them to the Engine and
// hands out one decoded audio.Frame per call, rebasing timestamps across
// flush markers.
//
// Supports: PCM (16-bit and 24-bit), Opus
//
// All engines output int32 samples in 24-bit range.
//
// Example:
//
//	engine, err := decode.NewEngine(format, 960)
//	dec, err := decode.NewPacketDecoder(engine, queue, decode.DecoderConfig{})
//	var frame audio.Frame
//	for {
//	    if _, err := dec.FillFrame(ctx, &frame); err != nil {
//	        break
//	    }
//	}
package decode
