package collection

import "github.com/cratedig/cratedig/internal/song"

// UpdateType tags one queued mutation batch.
type UpdateType int

const (
	UpdateTypeAdd UpdateType = iota
	UpdateTypeRemove
	UpdateTypeReAddOrUpdate
	UpdateTypeUpdate
)

// Update is one scheduled batch of songs for a single tree operation.
type Update struct {
	Type  UpdateType
	Songs []song.Song
}

// updateChunkSize bounds the work done per scheduler tick so huge backend
// bursts do not produce one giant structural notification.
const updateChunkSize = 400

// splitUpdate chunks a batch into queue entries of at most updateChunkSize
// songs, preserving order.
func splitUpdate(updateType UpdateType, songs []song.Song) []Update {
	var updates []Update
	for i := 0; i < len(songs); i += updateChunkSize {
		end := min(i+updateChunkSize, len(songs))
		updates = append(updates, Update{Type: updateType, Songs: songs[i:end]})
	}
	return updates
}

// apply dispatches one queued entry to the model operation it carries.
func (u Update) apply(m *Model) {
	switch u.Type {
	case UpdateTypeAdd:
		m.AddSongs(u.Songs)
	case UpdateTypeRemove:
		m.RemoveSongs(u.Songs)
	case UpdateTypeReAddOrUpdate:
		m.ReAddOrUpdate(u.Songs)
	case UpdateTypeUpdate:
		m.UpdateSongs(u.Songs)
	}
}
