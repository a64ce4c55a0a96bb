// ABOUTME: Track package: playable sources and the packetizer
// ABOUTME: Produces the compressed packet stream consumed by the decoder
// Package track opens playable sources (MP3 and FLAC files, HTTP MP3
// streams, test tones) and packetizes them into a packet.Queue.
package track
