// Package backup keeps the last known diagram snapshot of each room.
package backup

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrNotFound = errors.New("backup not found")

type Store interface {
	// Put stores doc for roomID and reports whether it created a new entry.
	Put(ctx context.Context, roomID string, doc json.RawMessage) (created bool, err error)
	Get(ctx context.Context, roomID string) (json.RawMessage, error)
	Close() error
}

func key(roomID string) string {
	return "backup:" + roomID
}
