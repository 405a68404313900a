package repo

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrBetNotFound       = errors.New("bet not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

// Postgres implementa o ciclo de vida de apostas sobre o ledger no banco.
// É o único escritor de saldos e de status de tickets.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreateBet insere uma nova bet (imutável depois de criada)
func (p *Postgres) CreateBet(ctx context.Context, b *Bet) (string, error) {
	if b.Name == "" || b.OddsMultiplier <= 0 {
		return "", ErrInvalidInput
	}
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bets (id, name, time, line, odds_multiplier)
		VALUES ($1,$2,$3,$4,$5)`,
		id, b.Name, b.Time, b.Line, b.OddsMultiplier,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// PlaceBet debita a conta e cria o ticket em uma única transação.
// O débito é condicional (WHERE points >= amount): nunca ler-e-depois-gravar,
// senão apostas concorrentes na mesma conta permitiriam saldo negativo.
func (p *Postgres) PlaceBet(ctx context.Context, accountID, betID string, amount int64, side string) (string, error) {
	if amount <= 0 {
		return "", ErrInvalidInput
	}
	if side != SideOver && side != SideUnder {
		return "", ErrInvalidInput
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var exists string
	if err = tx.QueryRowContext(ctx, `SELECT id FROM bets WHERE id=$1`, betID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrBetNotFound
		}
		return "", err
	}

	// Débito condicionado: zero linhas afetadas significa saldo insuficiente
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET points = points - $1 WHERE id=$2 AND points >= $1`,
		amount, accountID)
	if err != nil {
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrInsufficientFunds
	}

	ticketID := uuid.NewString()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO tickets (id, account_id, bet_id, amount, side, status, created_at)
		VALUES ($1,$2,$3,$4,$5,'placed',NOW())`,
		ticketID, accountID, betID, amount, side); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return ticketID, nil
}

// SettleBet liquida todos os tickets ainda em "placed" contra o valor final.
// Idempotente: uma segunda chamada não encontra tickets elegíveis e é no-op.
// O lock na linha da bet serializa liquidações concorrentes da mesma bet.
func (p *Postgres) SettleBet(ctx context.Context, betID string, finalValue float64) (Summary, error) {
	var sum Summary

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return sum, err
	}
	defer tx.Rollback()

	var line, mult float64
	err = tx.QueryRowContext(ctx,
		`SELECT line, odds_multiplier FROM bets WHERE id=$1 FOR UPDATE`, betID).Scan(&line, &mult)
	if err != nil {
		if err == sql.ErrNoRows {
			return sum, ErrBetNotFound
		}
		return sum, err
	}

	tickets, err := selectPlacedTickets(ctx, tx, betID)
	if err != nil {
		return sum, err
	}

	for _, t := range tickets {
		if wins(t.Side, finalValue, line) {
			pay := payout(t.Amount, mult)
			if _, err = tx.ExecContext(ctx,
				`UPDATE accounts SET points = points + $1 WHERE id=$2`, pay, t.AccountID); err != nil {
				return Summary{}, err
			}
			if _, err = tx.ExecContext(ctx,
				`UPDATE tickets SET status='won', settled_at=NOW() WHERE id=$1`, t.ID); err != nil {
				return Summary{}, err
			}
			sum.Won++
			sum.PaidOut += pay
		} else {
			if _, err = tx.ExecContext(ctx,
				`UPDATE tickets SET status='lost', settled_at=NOW() WHERE id=$1`, t.ID); err != nil {
				return Summary{}, err
			}
			sum.Lost++
		}
		sum.Settled++
	}

	if err = tx.Commit(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// CancelBet anula todos os tickets em "placed" e devolve o valor apostado.
// Mesma garantia da liquidação: tudo na mesma transação, re-execução é no-op.
func (p *Postgres) CancelBet(ctx context.Context, betID string) (Summary, error) {
	var sum Summary

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return sum, err
	}
	defer tx.Rollback()

	var exists string
	err = tx.QueryRowContext(ctx, `SELECT id FROM bets WHERE id=$1 FOR UPDATE`, betID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return sum, ErrBetNotFound
		}
		return sum, err
	}

	tickets, err := selectPlacedTickets(ctx, tx, betID)
	if err != nil {
		return sum, err
	}

	for _, t := range tickets {
		if _, err = tx.ExecContext(ctx,
			`UPDATE accounts SET points = points + $1 WHERE id=$2`, t.Amount, t.AccountID); err != nil {
			return Summary{}, err
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE tickets SET status='void', settled_at=NOW() WHERE id=$1`, t.ID); err != nil {
			return Summary{}, err
		}
		sum.Voided++
		sum.PaidOut += t.Amount
		sum.Settled++
	}

	if err = tx.Commit(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// Balance retorna o saldo atual de pontos da conta, direto do banco
func (p *Postgres) Balance(ctx context.Context, accountID string) (int64, error) {
	var points int64
	err := p.db.QueryRowContext(ctx, `SELECT points FROM accounts WHERE id=$1`, accountID).Scan(&points)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return points, nil
}

// TicketStatus retorna o status atual de um ticket pelo id
func (p *Postgres) TicketStatus(ctx context.Context, ticketID string) (string, error) {
	var s string
	err := p.db.QueryRowContext(ctx, `SELECT status FROM tickets WHERE id=$1`, ticketID).Scan(&s)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", err
	}
	return s, nil
}

// selectPlacedTickets carrega com lock os tickets ainda abertos de uma bet.
// Restringir ao status "placed" dentro da transação é o que impede pagamento
// duplo quando duas liquidações disputam a mesma bet.
func selectPlacedTickets(ctx context.Context, tx *sql.Tx, betID string) ([]Ticket, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, account_id, amount, side FROM tickets
		WHERE bet_id=$1 AND status='placed'
		FOR UPDATE`, betID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Side); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Empate (finalValue == line) perde para os dois lados: comparação estrita
func wins(side string, finalValue, line float64) bool {
	if side == SideOver {
		return finalValue > line
	}
	return finalValue < line
}

func payout(amount int64, oddsMultiplier float64) int64 {
	return int64(math.Floor(float64(amount) * oddsMultiplier))
}
