package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger
}

// OpenBadger opens a store at path, or an in-memory one when path is empty.
func OpenBadger(path string, log *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return NewBadgerStore(db, log), nil
}

func NewBadgerStore(db *badger.DB, log *slog.Logger) *BadgerStore {
	return &BadgerStore{db: db, log: log.With("component", "badger_backup")}
}

func (s *BadgerStore) Put(_ context.Context, roomID string, doc json.RawMessage) (bool, error) {
	created := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key(roomID)))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			created = true
		case err != nil:
			return err
		}
		return txn.Set([]byte(key(roomID)), doc)
	})
	if err != nil {
		return false, fmt.Errorf("store backup %s: %w", roomID, err)
	}
	s.log.Debug("backup stored", "room", roomID, "created", created, "bytes", len(doc))
	return created, nil
}

func (s *BadgerStore) Get(_ context.Context, roomID string) (json.RawMessage, error) {
	var doc []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key(roomID)))
		if err != nil {
			return err
		}
		doc, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load backup %s: %w", roomID, err)
	}
	return doc, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
