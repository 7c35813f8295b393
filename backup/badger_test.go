package backup

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func Test_Badger_Put_Then_Get(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	store := NewBadgerStore(db, slog.Default())
	defer store.Close()
	ctx := context.Background()

	created, err := store.Put(ctx, "room-1", json.RawMessage(`{"classes":[]}`))
	req.NoError(err)
	req.True(created)

	created, err = store.Put(ctx, "room-1", json.RawMessage(`{"classes":[{"name":"User"}]}`))
	req.NoError(err)
	req.False(created)

	doc, err := store.Get(ctx, "room-1")
	req.NoError(err)
	req.JSONEq(`{"classes":[{"name":"User"}]}`, string(doc))
}

func Test_Badger_Get_Missing_Room(t *testing.T) {
	req := require.New(t)
	store, err := OpenBadger("", slog.Default())
	req.NoError(err)
	defer store.Close()

	_, err = store.Get(context.Background(), "nobody")
	req.ErrorIs(err, ErrNotFound)
}

func Test_Badger_Rooms_Are_Isolated(t *testing.T) {
	req := require.New(t)
	store, err := OpenBadger("", slog.Default())
	req.NoError(err)
	defer store.Close()
	ctx := context.Background()

	_, err = store.Put(ctx, "a", json.RawMessage(`1`))
	req.NoError(err)
	_, err = store.Put(ctx, "b", json.RawMessage(`2`))
	req.NoError(err)

	doc, err := store.Get(ctx, "a")
	req.NoError(err)
	req.Equal(`1`, string(doc))
}
