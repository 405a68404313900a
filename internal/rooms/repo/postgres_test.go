package repo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestPostgres_RoomRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPostgres(db)
	ctx := context.Background()

	t.Run("insert", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO rooms`).
			WithArgs("room-1", "owner-1", "game-1", "title").
			WillReturnResult(sqlmock.NewResult(1, 1))

		assert.NoError(t, repo.Insert(ctx, "room-1", "owner-1", "game-1", "title"))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM rooms WHERE id=\$1`).
			WithArgs("ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Delete(ctx, "ghost"))
	})

	t.Run("view counters", func(t *testing.T) {
		mock.ExpectExec(`UPDATE rooms SET view_count = view_count \+ 1 WHERE id=\$1`).
			WithArgs("room-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.IncrementViews(ctx, "room-1"))

		// decremento nunca leva o contador abaixo de zero
		mock.ExpectExec(`UPDATE rooms SET view_count = view_count - 1 WHERE id=\$1 AND view_count > 0`).
			WithArgs("room-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.DecrementViews(ctx, "room-1"))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
