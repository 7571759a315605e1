// Package bolt persists a named collection of vector entries in a bbolt
// file under a storage root. Reopening the same (root, collection) pair
// restores prior entries. bbolt runs one write transaction at a time, which
// gives the single-writer discipline the index requires, and read
// transactions see a consistent snapshot.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"docrag/internal/domain"
	"docrag/internal/vectorstore"
)

var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")
	keyDimension  = []byte("dimension")
)

// Store is a durable vectorstore.Index backed by a single bbolt file.
type Store struct {
	db         *bbolt.DB
	collection string
}

// Open creates or reopens the collection file <root>/<collection>.db.
func Open(root, collection string) (*Store, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: empty collection name", domain.ErrValidation)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create storage root: %v", domain.ErrStorage, err)
	}
	path := filepath.Join(root, collection+".db")
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStorage, path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketEntries); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init buckets: %v", domain.ErrStorage, err)
	}
	return &Store{db: db, collection: collection}, nil
}

// Collection returns the collection name this store is bound to.
func (s *Store) Collection() string { return s.collection }

// Add upserts entries by id. The whole batch is validated against the
// collection dimension before anything is written, so a mismatch never
// leaves a partial batch behind.
func (s *Store) Add(entries []vectorstore.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		dim := readDimension(meta)
		if dim == 0 {
			dim = len(entries[0].Vector)
			if dim == 0 {
				return fmt.Errorf("%w: empty vector for id %s", domain.ErrDimensionMismatch, entries[0].ID)
			}
			if err := writeDimension(meta, dim); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrStorage, err)
			}
		}
		for _, e := range entries {
			if len(e.Vector) != dim {
				return fmt.Errorf("%w: id %s has dimension %d, collection %q has %d",
					domain.ErrDimensionMismatch, e.ID, len(e.Vector), s.collection, dim)
			}
		}
		b := tx.Bucket(bucketEntries)
		for _, e := range entries {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("%w: encode entry %s: %v", domain.ErrStorage, e.ID, err)
			}
			if err := b.Put([]byte(e.ID), data); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrStorage, err)
			}
		}
		return nil
	})
	return err
}

// Search returns up to topK entries ordered by ascending L2 distance to the
// query vector. The scan is exhaustive; collections here are small enough
// that exact search beats maintaining an approximate structure.
func (s *Store) Search(vector []float64, topK int) ([]vectorstore.Hit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", domain.ErrValidation, topK)
	}
	var hits []vectorstore.Hit
	err := s.db.View(func(tx *bbolt.Tx) error {
		dim := readDimension(tx.Bucket(bucketMeta))
		if dim == 0 {
			return nil // empty collection
		}
		if len(vector) != dim {
			return fmt.Errorf("%w: query has dimension %d, collection %q has %d",
				domain.ErrDimensionMismatch, len(vector), s.collection, dim)
		}
		return tx.Bucket(bucketEntries).ForEach(func(_, v []byte) error {
			var e vectorstore.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("%w: decode entry: %v", domain.ErrStorage, err)
			}
			hits = append(hits, vectorstore.Hit{
				ID:       e.ID,
				Content:  e.Content,
				Meta:     e.Meta,
				Distance: l2(vector, e.Vector),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// Delete removes entries by id. Unknown ids are ignored.
func (s *Store) Delete(ids []string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

// Clear drops and recreates the entries bucket under the same collection
// name and resets the recorded dimension, so the next Add establishes a
// fresh one.
func (s *Store) Clear() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketEntries); err != nil {
			return err
		}
		if _, err := tx.CreateBucket(bucketEntries); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Delete(keyDimension)
	})
	if err != nil {
		return fmt.Errorf("%w: clear collection %q: %v", domain.ErrStorage, s.collection, err)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEntries).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return n, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error { return s.db.Close() }

func readDimension(meta *bbolt.Bucket) int {
	v := meta.Get(keyDimension)
	if len(v) != 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(v))
}

func writeDimension(meta *bbolt.Bucket, dim int) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(dim))
	return meta.Put(keyDimension, buf[:])
}

func l2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
