package library

import (
	"fmt"

	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/storage"
)

// Favorites returns the starred record snapshots. A snapshot outlives
// its source record and does not follow later changes to it.
func (l *Library) Favorites() ([]model.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.favoritesLocked()
}

func (l *Library) favoritesLocked() ([]model.Record, error) {
	favorites := []model.Record{}
	if _, err := storage.GetJSON(l.cache, storage.KeyFavorites, &favorites); err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	return favorites, nil
}

// ToggleFavorite stars rec, or unstars it when a favorite with the same
// id exists. It reports whether rec is starred afterwards.
func (l *Library) ToggleFavorite(rec model.Record) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	favorites, err := l.favoritesLocked()
	if err != nil {
		return false, err
	}

	starred := true
	kept := make([]model.Record, 0, len(favorites)+1)
	for _, fav := range favorites {
		if fav.ID == rec.ID {
			starred = false
			continue
		}
		kept = append(kept, fav)
	}
	if starred {
		kept = append(kept, rec.Clone())
	}

	if err := storage.SetJSON(l.cache, storage.KeyFavorites, kept); err != nil {
		return false, err
	}
	return starred, nil
}

// IsFavorite reports whether a record id is starred.
func (l *Library) IsFavorite(id int64) (bool, error) {
	favorites, err := l.Favorites()
	if err != nil {
		return false, err
	}
	for _, fav := range favorites {
		if fav.ID == id {
			return true, nil
		}
	}
	return false, nil
}
