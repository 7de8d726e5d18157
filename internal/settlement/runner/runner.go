package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/wager-settlement-poc/internal/settlement/feed"
	"github.com/radieske/wager-settlement-poc/internal/settlement/grading"
	"github.com/radieske/wager-settlement-poc/internal/settlement/repo"
	"github.com/radieske/wager-settlement-poc/internal/settlement/teams"
)

// WagerStore é o que o runner precisa do repositório: scan por status e a
// escrita condicional que garante liquidação única por aposta.
type WagerStore interface {
	LoadPending(ctx context.Context) ([]repo.Wager, error)
	Settle(ctx context.Context, wagerID string, s repo.Settlement) error
	InsertTransition(ctx context.Context, wagerID, oldStatus, newStatus, reason string) error
}

// ScoreSource é o feed de resultados, consultado uma vez por data distinta.
type ScoreSource interface {
	Games(ctx context.Context, date string) ([]feed.GameResult, error)
}

// Summary é o resumo de um pass de liquidação, devolvido pro monitoramento
// operacional (trigger manual e logs do worker).
//
// Unmatched conta só as apostas cuja data FOI consultada e mesmo assim não
// liquidaram (sem jogo final, mercado desconhecido, pick não resolvido).
// Apostas puladas por falha de feed não entram: aparecem via FeedErrors.
type Summary struct {
	RunID      string `json:"runId"`
	Pending    int    `json:"pending"`
	Settled    int    `json:"settled"`
	Unmatched  int    `json:"unmatched"`
	FeedErrors int    `json:"feedErrors"` // datas com feed indisponível nesse pass
}

// Runner orquestra um pass: carrega pendentes, agrupa por data, busca o feed
// por data, pareia/avalia/calcula e grava via escrita condicional.
// Callbacks de métricas seguem o mesmo desenho dos workers de consumo.
type Runner struct {
	Log     *zap.Logger
	Store   WagerStore
	Feed    ScoreSource
	Matcher teams.Matcher

	// Rótulo gravado em result_source (ex: "SCORES_API")
	Source string

	// Datas processadas em paralelo; cada data tem fetch próprio do feed.
	// <= 0 usa o default.
	Concurrency int

	OnSettled   func()             // métricas (counter++)
	OnUnmatched func()             // métricas
	OnError     func(stage string) // métricas por fase

	// Chamado após cada liquidação efetivada; o worker pendura aqui a
	// publicação Kafka e o broadcast Redis.
	OnAfterSettle func(w repo.Wager, s repo.Settlement, runID string)
}

const defaultConcurrency = 4

// RunPass executa exatamente um pass de liquidação. Apostas sem jogo final no
// feed ficam PENDING e voltam no próximo pass — esse é o único mecanismo de
// retry do pipeline. Falha de feed numa data não aborta as outras.
func (r *Runner) RunPass(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}

	wagers, err := r.Store.LoadPending(ctx)
	if err != nil {
		if r.OnError != nil {
			r.OnError("load")
		}
		return sum, fmt.Errorf("load pending: %w", err)
	}
	sum.Pending = len(wagers)
	if len(wagers) == 0 {
		r.Log.Info("no pending wagers", zap.String("runId", sum.RunID))
		return sum, nil
	}

	// Agrupa por data pra buscar o feed uma vez só por data distinta
	byDate := make(map[string][]repo.Wager)
	for _, w := range wagers {
		byDate[w.EventDate] = append(byDate[w.EventDate], w)
	}

	r.Log.Info("settlement pass started",
		zap.String("runId", sum.RunID),
		zap.Int("pending", sum.Pending),
		zap.Int("dates", len(byDate)),
	)

	limit := r.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	var (
		mu          sync.Mutex
		feedSkipped int // apostas puladas por falha de feed na data delas
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for date, group := range byDate {
		date, group := date, group
		g.Go(func() error {
			games, err := r.Feed.Games(gctx, date)
			if err != nil {
				// Isola a falha nessa data; as apostas dela voltam no próximo pass
				r.Log.Warn("scores feed unavailable, skipping date",
					zap.String("runId", sum.RunID),
					zap.String("date", date),
					zap.Error(err),
				)
				if r.OnError != nil {
					r.OnError("feed")
				}
				mu.Lock()
				sum.FeedErrors++
				feedSkipped += len(group)
				mu.Unlock()
				return nil
			}

			for _, w := range group {
				if r.settleOne(gctx, w, games, sum.RunID) {
					mu.Lock()
					sum.Settled++
					mu.Unlock()
				}
			}
			return nil
		})
	}
	// Os workers nunca propagam erro; Wait só retorna cedo em cancelamento
	_ = g.Wait()

	sum.Unmatched = sum.Pending - sum.Settled - feedSkipped

	r.Log.Info("settlement pass finished",
		zap.String("runId", sum.RunID),
		zap.Int("settled", sum.Settled),
		zap.Int("unmatched", sum.Unmatched),
		zap.Int("feedErrors", sum.FeedErrors),
	)
	return sum, nil
}

// settleOne processa uma aposta de ponta a ponta: pareia com o jogo, resolve o
// lado, avalia, calcula lucro e aplica a escrita condicional. Pânico é contido
// aqui pra que uma aposta malformada não derrube o resto do batch.
func (r *Runner) settleOne(ctx context.Context, w repo.Wager, games []feed.GameResult, runID string) (settled bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Log.Error("wager evaluation panicked",
				zap.String("wagerId", w.ID),
				zap.Any("panic", rec),
			)
			if r.OnError != nil {
				r.OnError("panic")
			}
			settled = false
		}
	}()

	game, ok := r.Matcher.FindMatch(w.AwayTeam, w.HomeTeam, games)
	if !ok {
		// Jogo ainda não finalizou ou o feed não trouxe; volta no próximo pass
		if r.OnUnmatched != nil {
			r.OnUnmatched()
		}
		return false
	}

	pick, err := r.buildPick(w)
	if err != nil {
		r.Log.Warn("cannot resolve pick, leaving wager pending",
			zap.String("wagerId", w.ID),
			zap.Error(err),
		)
		if r.OnError != nil {
			r.OnError("pick")
		}
		return false
	}

	outcome, err := grading.Evaluate(grading.GameScore{Away: game.AwayScore, Home: game.HomeScore}, pick)
	if err != nil {
		// Mercado/lado desconhecido é lacuna de modelagem upstream, não bug
		// do pipeline; loga e segue
		r.Log.Warn("cannot grade wager, leaving pending",
			zap.String("wagerId", w.ID),
			zap.String("market", w.Market),
			zap.Error(err),
		)
		if r.OnError != nil {
			r.OnError("evaluate")
		}
		return false
	}

	units := w.Units
	if units <= 0 {
		units = 1
	}
	profit := grading.Profit(outcome, w.Odds, units)

	s := repo.Settlement{
		AwayScore: game.AwayScore,
		HomeScore: game.HomeScore,
		Outcome:   string(outcome),
		Profit:    profit,
		Units:     units,
		Source:    r.Source,
	}
	if err := r.Store.Settle(ctx, w.ID, s); err != nil {
		if errors.Is(err, repo.ErrAlreadySettled) {
			// Outro pass chegou primeiro; no-op
			return false
		}
		r.Log.Error("settle write failed",
			zap.String("wagerId", w.ID),
			zap.Error(err),
		)
		if r.OnError != nil {
			r.OnError("write")
		}
		return false
	}

	if err := r.Store.InsertTransition(ctx, w.ID, repo.StatusPending, repo.StatusCompleted, string(outcome)); err != nil {
		r.Log.Warn("transition insert", zap.String("wagerId", w.ID), zap.Error(err))
	}

	r.Log.Info("wager settled",
		zap.String("runId", runID),
		zap.String("wagerId", w.ID),
		zap.String("matchup", w.AwayTeam+" @ "+w.HomeTeam),
		zap.String("outcome", string(outcome)),
		zap.Float64("profit", profit),
		zap.Float64("units", units),
	)
	if r.OnSettled != nil {
		r.OnSettled()
	}
	if r.OnAfterSettle != nil {
		r.OnAfterSettle(w, s, runID)
	}
	return true
}

// buildPick monta o Pick avaliável. No moneyline a seleção pode ter sido
// registrada como nome de time em vez de AWAY/HOME; resolve por fuzzy match
// contra os nomes da própria aposta.
func (r *Runner) buildPick(w repo.Wager) (grading.Pick, error) {
	p := grading.Pick{
		Market: grading.Market(w.Market),
		Side:   grading.Side(w.Side),
		Line:   w.Line,
	}
	if p.Market != grading.MarketMoneyline {
		return p, nil
	}
	if p.Side == grading.SideAway || p.Side == grading.SideHome {
		return p, nil
	}

	team := w.PickTeam
	if team == "" {
		team = w.Side // seleção gravada direto no campo side
	}
	switch {
	case r.Matcher.SameTeam(team, w.AwayTeam):
		p.Side = grading.SideAway
	case r.Matcher.SameTeam(team, w.HomeTeam):
		p.Side = grading.SideHome
	default:
		return p, fmt.Errorf("moneyline pick %q matches neither team of %s @ %s", team, w.AwayTeam, w.HomeTeam)
	}
	return p, nil
}
