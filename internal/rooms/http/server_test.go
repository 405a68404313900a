package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/diodzi/gthacks-backend/internal/rooms/dto"
	"github.com/diodzi/gthacks-backend/internal/rooms/registry"
)

type noopStore struct{}

func (noopStore) Insert(context.Context, string, string, string, string) error { return nil }
func (noopStore) Delete(context.Context, string) error                         { return nil }
func (noopStore) IncrementViews(context.Context, string) error                 { return nil }
func (noopStore) DecrementViews(context.Context, string) error                 { return nil }

func setupServer(t *testing.T) (*registry.Registry, *http.ServeMux) {
	t.Helper()
	reg := registry.New(zap.NewNop(), noopStore{})
	mux := http.NewServeMux()
	NewServer(zap.NewNop(), reg, nil).Register(mux)
	return reg, mux
}

func doDelete(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestDeleteRoom(t *testing.T) {
	t.Run("owner deletes the room", func(t *testing.T) {
		reg, mux := setupServer(t)
		id, err := reg.Create(context.Background(), "owner-1", "game-1", "title")
		assert.NoError(t, err)

		rr := doDelete(mux, "/rooms/"+id+"?requesterId=owner-1")

		assert.Equal(t, http.StatusOK, rr.Code)
		_, ok := reg.Get(id)
		assert.False(t, ok)
	})

	t.Run("non-owner is refused and the room survives", func(t *testing.T) {
		reg, mux := setupServer(t)
		id, err := reg.Create(context.Background(), "owner-1", "game-1", "title")
		assert.NoError(t, err)

		rr := doDelete(mux, "/rooms/"+id+"?requesterId=acc-2")

		assert.Equal(t, http.StatusForbidden, rr.Code)
		var body dto.ErrorResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "only the room owner can delete it", body.Error)
		_, ok := reg.Get(id)
		assert.True(t, ok)
	})

	t.Run("missing requesterId is a bad request", func(t *testing.T) {
		reg, mux := setupServer(t)
		id, err := reg.Create(context.Background(), "owner-1", "game-1", "title")
		assert.NoError(t, err)

		rr := doDelete(mux, "/rooms/"+id)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		_, ok := reg.Get(id)
		assert.True(t, ok)
	})

	t.Run("absent room stays idempotent", func(t *testing.T) {
		_, mux := setupServer(t)

		rr := doDelete(mux, "/rooms/no-such-room?requesterId=acc-1")

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
