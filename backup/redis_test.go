package backup

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRedisClient struct {
	mock.Mock
}

func (m *mockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *mockRedisClient) SetArgs(ctx context.Context, key string, value interface{}, a redis.SetArgs) *redis.StatusCmd {
	args := m.Called(ctx, key, value, a)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockRedisClient) Close() error {
	return m.Called().Error(0)
}

func TestNewRedisStore_NilClient(t *testing.T) {
	_, err := NewRedisStore(nil, slog.Default())
	assert.Error(t, err)
}

func TestRedisStore_Put(t *testing.T) {
	tests := []struct {
		name        string
		result      *redis.StatusCmd
		wantCreated bool
		wantErr     bool
	}{
		{name: "new room", result: redis.NewStatusResult("", redis.Nil), wantCreated: true},
		{name: "existing room", result: redis.NewStatusResult(`{"old":true}`, nil), wantCreated: false},
		{name: "redis down", result: redis.NewStatusResult("", errors.New("dial tcp: refused")), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockRedisClient)
			client.On("SetArgs", mock.Anything, "backup:room-1", []byte(`{"classes":[]}`), redis.SetArgs{Get: true}).
				Return(tt.result).Once()
			store, err := NewRedisStore(client, slog.Default())
			require.NoError(t, err)

			created, err := store.Put(context.Background(), "room-1", json.RawMessage(`{"classes":[]}`))

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
			client.AssertExpectations(t)
		})
	}
}

func TestRedisStore_Get(t *testing.T) {
	tests := []struct {
		name    string
		result  *redis.StringCmd
		wantDoc string
		wantErr error
	}{
		{name: "found", result: redis.NewStringResult(`{"classes":[]}`, nil), wantDoc: `{"classes":[]}`},
		{name: "missing", result: redis.NewStringResult("", redis.Nil), wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockRedisClient)
			client.On("Get", mock.Anything, "backup:room-1").Return(tt.result).Once()
			store, err := NewRedisStore(client, slog.Default())
			require.NoError(t, err)

			doc, err := store.Get(context.Background(), "room-1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDoc, string(doc))
		})
	}
}

func TestRedisStore_Close(t *testing.T) {
	client := new(mockRedisClient)
	client.On("Close").Return(nil).Once()
	store, err := NewRedisStore(client, slog.Default())
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	client.AssertExpectations(t)
}
