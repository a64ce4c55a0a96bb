// ABOUTME: Playlist entries and queue id assignment
// ABOUTME: Entries are identified by a uuid and a monotonic queue id
package bob

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrPlaylistFinished is returned by Enqueue once the player has streamed
// its last entry and signalled end of stream
var ErrPlaylistFinished = errors.New("playlist finished")

// Entry is one playlist item
type Entry struct {
	ID       string
	QueueID  int
	Location string
	Title    string
	Artist   string
	Album    string
}

// playlist hands entries to the producer in order
type playlist struct {
	mu       sync.Mutex
	pending  []Entry
	known    map[int]Entry
	nextID   int
	finished bool
}

func newPlaylist() *playlist {
	return &playlist{
		known:  make(map[int]Entry),
		nextID: 1,
	}
}

func (pl *playlist) add(location string) (Entry, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if pl.finished {
		return Entry{}, ErrPlaylistFinished
	}

	e := Entry{
		ID:       uuid.New().String(),
		QueueID:  pl.nextID,
		Location: location,
		Title:    location,
	}
	pl.nextID++
	pl.pending = append(pl.pending, e)
	pl.known[e.QueueID] = e
	return e, nil
}

// next pops the first pending entry. When none is left the playlist is
// marked finished and ok is false.
func (pl *playlist) next() (Entry, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if len(pl.pending) == 0 {
		pl.finished = true
		return Entry{}, false
	}
	e := pl.pending[0]
	pl.pending = pl.pending[1:]
	return e, true
}

// update stores metadata learned when the entry was opened
func (pl *playlist) update(e Entry) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.known[e.QueueID] = e
}

func (pl *playlist) lookup(queueID int) (Entry, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	e, ok := pl.known[queueID]
	return e, ok
}

func (pl *playlist) entries() []Entry {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	out := make([]Entry, len(pl.pending))
	copy(out, pl.pending)
	return out
}
