// ABOUTME: Audio encoder package used by the packetizer
// ABOUTME: Turns int32 sample chunks into PCM or Opus packets
// Package encode turns decoded int32 samples back into packet payloads.
//
// Encoders produce the compressed side of the pipeline: the packetizer
// encodes track audio and pushes the results into the packet queue that
// the decoder consumes. Supported codecs are PCM (16-bit and 24-bit) and
// Opus.
//
// Example:
//
//	enc, err := encode.New(format)
//	payload, err := enc.Encode(samples[:enc.FrameSize()*format.Channels])
package encode
