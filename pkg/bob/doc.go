// ABOUTME: High-level audiobob playback API
// ABOUTME: Playlist, packet pipeline and now-playing notifications in one Player
// Package bob provides the high-level Player API.
//
// A Player owns a playlist and the whole pipeline behind it: tracks are
// packetized into a packet queue, pulled back out by the packet decoder and
// written to an audio output. Every playlist entry gets a queue id; the
// player watches the decoder's last queue id to report which entry is
// actually audible.
//
// Example:
//
//	player, err := bob.NewPlayer(bob.PlayerConfig{
//	    OnNowPlaying: func(e bob.Entry) { log.Printf("Now playing: %s", e.Title) },
//	})
//	player.Enqueue("/music/song.flac")
//	player.Enqueue("tone:440:5")
//	err = player.Run(ctx)
package bob
