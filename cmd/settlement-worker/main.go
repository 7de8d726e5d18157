package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-poc/internal/settlement/feed"
	"github.com/radieske/wager-settlement-poc/internal/settlement/producer"
	"github.com/radieske/wager-settlement-poc/internal/settlement/pubsub"
	"github.com/radieske/wager-settlement-poc/internal/settlement/repo"
	"github.com/radieske/wager-settlement-poc/internal/settlement/runner"
	"github.com/radieske/wager-settlement-poc/internal/settlement/teams"
	sharedcache "github.com/radieske/wager-settlement-poc/internal/shared/cache"
	"github.com/radieske/wager-settlement-poc/internal/shared/config"
	"github.com/radieske/wager-settlement-poc/internal/shared/db"
	sharedkafka "github.com/radieske/wager-settlement-poc/internal/shared/kafka"
	"github.com/radieske/wager-settlement-poc/internal/shared/logger"
	"github.com/radieske/wager-settlement-poc/internal/shared/metrics"
	"github.com/radieske/wager-settlement-poc/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: store de apostas (scan de pendentes + escrita condicional)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: broadcast Pub/Sub das liquidações pro /ws da API
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka producer: publica eventos wager_settled
	writer := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSettled)
	defer writer.Close()
	publ := producer.NewKafkaPublisher(writer)
	broadcaster := pubsub.NewRedisBroadcaster(rdb)

	// Métricas Prometheus do pass de liquidação
	passes := prometheus.NewCounter(prometheus.CounterOpts{Name: "settle_passes_total", Help: "passes de liquidação executados"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "settle_wagers_settled_total", Help: "apostas liquidadas"})
	unmatched := prometheus.NewCounter(prometheus.CounterOpts{Name: "settle_wagers_unmatched_total", Help: "apostas sem jogo final no feed"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settle_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(passes, settled, unmatched, errorsBy)

	// Aliases opcionais de times (abreviações do feed)
	aliases := teams.Aliases{}
	if cfg.TeamAliasesCSV != "" {
		aliases, err = teams.LoadAliasesCSV(cfg.TeamAliasesCSV)
		if err != nil {
			log.Fatal("team aliases csv", zap.Error(err))
		}
		log.Info("team aliases loaded", zap.Int("count", len(aliases)))
	}

	r := &runner.Runner{
		Log:     log,
		Store:   repo.NewPostgres(pg),
		Feed:    feed.New(cfg.ScoresAPIURL),
		Matcher: teams.Matcher{Aliases: aliases},
		Source:  cfg.ResultSource,

		OnSettled:   func() { settled.Inc() },
		OnUnmatched: func() { unmatched.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },

		// Após a escrita condicional, propaga a liquidação: Kafka pros
		// consumidores downstream e Redis Pub/Sub pro feed WebSocket.
		// Ambos best-effort: a aposta já está liquidada no banco.
		OnAfterSettle: func(w repo.Wager, s repo.Settlement, runID string) {
			ev := events.WagerSettled{
				WagerID:   w.ID,
				RunID:     runID,
				EventDate: w.EventDate,
				AwayTeam:  w.AwayTeam,
				HomeTeam:  w.HomeTeam,
				Market:    w.Market,
				Outcome:   s.Outcome,
				Profit:    s.Profit,
				Units:     s.Units,
				AwayScore: s.AwayScore,
				HomeScore: s.HomeScore,
				Source:    s.Source,
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			if err := publ.PublishWagerSettled(ctx, ev); err != nil {
				log.Warn("kafka publish wager_settled failed", zap.String("wagerId", w.ID), zap.Error(err))
				errorsBy.WithLabelValues("kafka").Inc()
			}

			b, _ := json.Marshal(ev)
			if err := broadcaster.Publish(ctx, cfg.RedisPubSubChannel, b); err != nil {
				log.Warn("ws broadcast publish failed", zap.String("wagerId", w.ID), zap.Error(err))
				errorsBy.WithLabelValues("pubsub").Inc()
			}
		},
	}

	// Servidor HTTP para métricas Prometheus e healthcheck
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("settlement-worker started",
		zap.Duration("interval", cfg.SettleInterval),
		zap.String("scoresApi", cfg.ScoresAPIURL),
	)

	// Loop principal: um pass imediato e depois um por tick. Passes repetidos
	// ou sobrepostos são seguros; a escrita condicional impede dupla liquidação.
	ticker := time.NewTicker(cfg.SettleInterval)
	defer ticker.Stop()

	for {
		if _, err := r.RunPass(ctx); err != nil && ctx.Err() == nil {
			log.Error("settlement pass failed", zap.Error(err))
		}
		passes.Inc()

		select {
		case <-ctx.Done():
			log.Info("settlement-worker stopped")
			return
		case <-ticker.C:
		}
	}
}
