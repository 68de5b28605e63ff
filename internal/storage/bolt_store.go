package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

const (
	BucketSweeps = "sweeps"

	// fixed width so keys sort chronologically
	keyTimeFormat = "2006-01-02T15:04:05.000000000Z"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("history item not found")

// Store keeps the sweep history in a bbolt file. Keys are the sweep start time
// so a cursor walks them chronologically.
type Store struct {
	db *bbolt.DB
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening history %s", path)
	}

	// Initialize Buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketSweeps))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(item HistoryItem) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketSweeps))

		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		return b.Put(itemKey(item), data)
	})
}

// List returns the most recent items first, at most limit of them (0 means all).
func (s *Store) List(limit int) ([]HistoryItem, error) {
	var items []HistoryItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(BucketSweeps)).Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var item HistoryItem
			if err := json.Unmarshal(v, &item); err != nil {
				return errors.Wrapf(err, "decoding %s", k)
			}
			items = append(items, item)
			if limit > 0 && len(items) == limit {
				break
			}
		}
		return nil
	})
	return items, err
}

func (s *Store) Get(id string) (*HistoryItem, error) {
	var found *HistoryItem
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(BucketSweeps)).ForEach(func(_, v []byte) error {
			var item HistoryItem
			if err := json.Unmarshal(v, &item); err != nil {
				return err
			}
			if item.ID == id {
				found = &item
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, errors.Wrap(ErrNotFound, id)
	}
	return found, nil
}

func itemKey(item HistoryItem) []byte {
	return []byte(item.StartedAt.UTC().Format(keyTimeFormat) + "/" + item.ID)
}
