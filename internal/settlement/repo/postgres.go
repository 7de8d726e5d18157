package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Postgres implementa a persistência de apostas e liquidações
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrNotFound = errors.New("wager not found")

	// ErrAlreadySettled sinaliza que outro pass liquidou primeiro; pro runner
	// isso é um no-op, não um erro.
	ErrAlreadySettled = errors.New("wager already settled")
)

const wagerColumns = `
	id, event_date, away_team, home_team, market, side, pick_team,
	line, odds, units, status,
	result_away_score, result_home_score, result_outcome, result_profit,
	result_units, result_source, settled_at,
	created_at, updated_at`

// LoadPending retorna todas as apostas PENDING, sem filtro de data: o scheduler
// roda repetidamente e precisa recolher tudo que ainda não liquidou, por mais
// antigo que seja.
func (p *Postgres) LoadPending(ctx context.Context) ([]Wager, error) {
	q := `SELECT ` + wagerColumns + `
		FROM wagers
		WHERE status = 'PENDING'
		ORDER BY event_date, created_at`

	rows, err := p.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load pending wagers: %w", err)
	}
	defer rows.Close()

	var out []Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Settle aplica o desfecho com uma única escrita condicional: só transiciona
// se o status ainda for PENDING no momento do UPDATE. É a fronteira de
// idempotência que torna seguro rodar passes sobrepostos ou repetidos.
func (p *Postgres) Settle(ctx context.Context, wagerID string, s Settlement) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE wagers SET
			status = 'COMPLETED',
			result_away_score = $1,
			result_home_score = $2,
			result_outcome    = $3,
			result_profit     = $4,
			result_units      = $5,
			result_source     = $6,
			settled_at        = NOW(),
			updated_at        = NOW()
		WHERE id = $7 AND status = 'PENDING'`,
		s.AwayScore, s.HomeScore, s.Outcome, s.Profit, s.Units, s.Source, wagerID,
	)
	if err != nil {
		return fmt.Errorf("settle wager %s: %w", wagerID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Zero linhas: ou já liquidada por outro pass, ou a aposta não existe
	var status string
	err = p.db.QueryRowContext(ctx, `SELECT status FROM wagers WHERE id = $1`, wagerID).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if status == StatusCompleted {
		return ErrAlreadySettled
	}
	return fmt.Errorf("wager %s in unexpected status %s", wagerID, status)
}

// InsertTransition registra a transição de status no ledger de auditoria
func (p *Postgres) InsertTransition(ctx context.Context, wagerID, oldStatus, newStatus, reason string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO wager_transitions (wager_id, old_status, new_status, reason, created_at)
		VALUES ($1,$2,$3,$4,NOW())`, wagerID, oldStatus, newStatus, reason)
	return err
}

// CreatePending insere uma aposta nova com status PENDING. A criação de
// apostas é do processo de pricing; aqui serve pro seeder de dev.
func (p *Postgres) CreatePending(ctx context.Context, w *Wager) (string, error) {
	id := w.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO wagers (id, event_date, away_team, home_team, market, side, pick_team, line, odds, units, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'PENDING')`,
		id, w.EventDate, w.AwayTeam, w.HomeTeam, w.Market, w.Side, w.PickTeam,
		nullableLine(w.Line), w.Odds, w.Units,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetWager busca uma aposta pelo id
func (p *Postgres) GetWager(ctx context.Context, id string) (Wager, error) {
	q := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`
	row := p.db.QueryRowContext(ctx, q, id)
	w, err := scanWager(row)
	if err == sql.ErrNoRows {
		return Wager{}, ErrNotFound
	}
	return w, err
}

// ListByStatus retorna as apostas de um status, mais recentes primeiro
func (p *Postgres) ListByStatus(ctx context.Context, status string, limit int) ([]Wager, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + wagerColumns + `
		FROM wagers
		WHERE status = $1
		ORDER BY updated_at DESC
		LIMIT $2`

	rows, err := p.db.QueryContext(ctx, q, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWager(r rowScanner) (Wager, error) {
	var (
		w         Wager
		side      sql.NullString
		pickTeam  sql.NullString
		line      sql.NullFloat64
		awayScore sql.NullInt64
		homeScore sql.NullInt64
		outcome   sql.NullString
		profit    sql.NullFloat64
		runits    sql.NullFloat64
		source    sql.NullString
		settledAt sql.NullTime
	)

	err := r.Scan(
		&w.ID, &w.EventDate, &w.AwayTeam, &w.HomeTeam, &w.Market, &side, &pickTeam,
		&line, &w.Odds, &w.Units, &w.Status,
		&awayScore, &homeScore, &outcome, &profit,
		&runits, &source, &settledAt,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return Wager{}, err
	}

	w.Side = side.String
	w.PickTeam = pickTeam.String
	w.Line = line.Float64

	if w.Status == StatusCompleted && outcome.Valid {
		w.Result = &Result{
			AwayScore: int(awayScore.Int64),
			HomeScore: int(homeScore.Int64),
			Outcome:   outcome.String,
			Profit:    profit.Float64,
			Units:     runits.Float64,
			Source:    source.String,
			SettledAt: settledAt.Time,
		}
	}
	return w, nil
}

func nullableLine(line float64) sql.NullFloat64 {
	if line == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: line, Valid: true}
}
