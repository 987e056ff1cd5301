// Package boltstore is a program.Store backed by a bbolt database file.
// Each program key gets its own bucket; entries are keyed by big-endian
// program number and hold JSON.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cwbudde/algo-graph/engine/program"
)

// Store persists programs in a bbolt file.
type Store struct {
	filename string
	db       *bolt.DB
}

var _ program.Store = (*Store)(nil)

// Open opens (creating if needed) the database at filename.
func Open(filename string) (*Store, error) {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(filename, 0o644, opts)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", filename, err)
	}

	return &Store{filename: filename, db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func numberKey(n int) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], uint32(n))

	return k[:]
}

// Load reads one program.
func (s *Store) Load(ctx context.Context, key string, number int) (program.Program, error) {
	if err := ctx.Err(); err != nil {
		return program.Program{}, err
	}

	if err := program.CheckNumber(number); err != nil {
		return program.Program{}, err
	}

	var p program.Program

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(key))
		if b == nil {
			return fmt.Errorf("%w: %s/%d", program.ErrNotFound, key, number)
		}

		js := b.Get(numberKey(number))
		if js == nil {
			return fmt.Errorf("%w: %s/%d", program.ErrNotFound, key, number)
		}

		return json.Unmarshal(js, &p)
	})
	if err != nil {
		return program.Program{}, err
	}

	p.Number = number

	return p, nil
}

// Save writes one program.
func (s *Store) Save(ctx context.Context, key string, p program.Program) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := program.CheckNumber(p.Number); err != nil {
		return err
	}

	js, err := json.Marshal(&p)
	if err != nil {
		return fmt.Errorf("boltstore: encode program: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return err
		}

		return b.Put(numberKey(p.Number), js)
	})
}

// Delete removes one program.
func (s *Store) Delete(ctx context.Context, key string, number int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(key))
		if b == nil {
			return nil
		}

		return b.Delete(numberKey(number))
	})
}

// List returns the key's programs ordered by number.
func (s *Store) List(ctx context.Context, key string) ([]program.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []program.Program

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(key))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		for k, js := c.First(); k != nil; k, js = c.Next() {
			var p program.Program
			if err := json.Unmarshal(js, &p); err != nil {
				return err
			}

			p.Number = int(binary.BigEndian.Uint32(k))
			out = append(out, p)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
