package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-poc/internal/settlement/repo"
	"github.com/radieske/wager-settlement-poc/internal/shared/config"
	"github.com/radieske/wager-settlement-poc/internal/shared/db"
	"github.com/radieske/wager-settlement-poc/internal/shared/logger"
)

// Ferramenta de dev: garante o schema e insere apostas PENDING de exemplo na
// data corrente, casando com o catálogo do scores-simulator. Em produção as
// apostas vêm do processo de pricing, fora deste serviço.

const schema = `
CREATE TABLE IF NOT EXISTS wagers (
	id                TEXT PRIMARY KEY,
	event_date        TEXT NOT NULL,
	away_team         TEXT NOT NULL,
	home_team         TEXT NOT NULL,
	market            TEXT NOT NULL,
	side              TEXT,
	pick_team         TEXT,
	line              DOUBLE PRECISION,
	odds              INTEGER NOT NULL,
	units             DOUBLE PRECISION NOT NULL DEFAULT 1,
	status            TEXT NOT NULL DEFAULT 'PENDING',
	result_away_score INTEGER,
	result_home_score INTEGER,
	result_outcome    TEXT,
	result_profit     DOUBLE PRECISION,
	result_units      DOUBLE PRECISION,
	result_source     TEXT,
	settled_at        TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_wagers_status ON wagers (status);

CREATE TABLE IF NOT EXISTS wager_transitions (
	id         BIGSERIAL PRIMARY KEY,
	wager_id   TEXT NOT NULL,
	old_status TEXT NOT NULL,
	new_status TEXT NOT NULL,
	reason     TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func main() {
	cfg := config.Load()
	log, err := logger.New("wager-seeder", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	ctx := context.Background()

	if _, err := pg.ExecContext(ctx, schema); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}

	today := time.Now().Format("2006-01-02")
	repository := repo.NewPostgres(pg)

	// Grafias diferentes das do simulador de propósito (fuzzy matching)
	samples := []repo.Wager{
		{EventDate: today, AwayTeam: "Boston", HomeTeam: "Toronto", Market: "MONEYLINE", Side: "HOME", Odds: -135, Units: 1},
		{EventDate: today, AwayTeam: "Colorado", HomeTeam: "St Louis", Market: "TOTAL", Side: "OVER", Line: 6.5, Odds: -110, Units: 2},
		{EventDate: today, AwayTeam: "Tampa Bay", HomeTeam: "Florida", Market: "SPREAD", Side: "AWAY", Line: 1.5, Odds: +160, Units: 1},
		{EventDate: today, AwayTeam: "Edmonton", HomeTeam: "Vancouver", Market: "MONEYLINE", PickTeam: "Edmonton", Odds: +120, Units: 1.5},
		{EventDate: today, AwayTeam: "Duke", HomeTeam: "North Carolina", Market: "MONEYLINE", PickTeam: "Duke", Odds: -150, Units: 1},
	}

	for _, w := range samples {
		id, err := repository.CreatePending(ctx, &w)
		if err != nil {
			log.Error("insert wager", zap.Error(err))
			continue
		}
		log.Info("wager seeded",
			zap.String("wagerId", id),
			zap.String("matchup", w.AwayTeam+" @ "+w.HomeTeam),
			zap.String("market", w.Market),
		)
	}

	log.Info("seed finished", zap.Int("wagers", len(samples)), zap.String("eventDate", today))
}
