package layer

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const layerBucket = "layers"

// BoltRegistry is a Registry backed by a BoltDB file. Layers are stored as
// JSON keyed by id.
type BoltRegistry struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) a BoltDB-backed registry at path.
func OpenBolt(path string) (*BoltRegistry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: storage path is required", ErrStoreFailed)
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrStoreFailed, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(layerBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create bucket: %v", ErrStoreFailed, err)
	}
	return &BoltRegistry{db: db}, nil
}

// Close releases the database file.
func (r *BoltRegistry) Close() error {
	return r.db.Close()
}

func (r *BoltRegistry) Get(ctx context.Context, id string) (*Layer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var l Layer
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(layerBucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
		}
		return json.Unmarshal(data, &l)
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *BoltRegistry) Put(ctx context.Context, l *Layer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrStoreFailed, l.ID, err)
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(layerBucket)).Put([]byte(l.ID), data); err != nil {
			return fmt.Errorf("%w: put %s: %v", ErrStoreFailed, l.ID, err)
		}
		return nil
	})
}

func (r *BoltRegistry) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(layerBucket)).Delete([]byte(id)); err != nil {
			return fmt.Errorf("%w: delete %s: %v", ErrStoreFailed, id, err)
		}
		return nil
	})
}
