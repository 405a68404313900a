package repo

import (
	"context"
	"database/sql"
)

// Postgres persiste as linhas de sala; o conjunto de conexões vive só em memória
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Insert grava a linha da sala com contador de views zerado
func (p *Postgres) Insert(ctx context.Context, id, ownerID, gameID, title string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO rooms (id, owner_id, game_id, title, view_count)
		VALUES ($1,$2,$3,$4,0)`,
		id, ownerID, gameID, title,
	)
	return err
}

// Delete remove a linha da sala; sem erro se já não existir
func (p *Postgres) Delete(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM rooms WHERE id=$1`, id)
	return err
}

func (p *Postgres) IncrementViews(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE rooms SET view_count = view_count + 1 WHERE id=$1`, id)
	return err
}

func (p *Postgres) DecrementViews(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE rooms SET view_count = view_count - 1 WHERE id=$1 AND view_count > 0`, id)
	return err
}
