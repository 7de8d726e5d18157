package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-poc/internal/settlement/feed"
	"github.com/radieske/wager-settlement-poc/internal/settlement/httpapi"
	"github.com/radieske/wager-settlement-poc/internal/settlement/producer"
	"github.com/radieske/wager-settlement-poc/internal/settlement/pubsub"
	"github.com/radieske/wager-settlement-poc/internal/settlement/repo"
	"github.com/radieske/wager-settlement-poc/internal/settlement/runner"
	"github.com/radieske/wager-settlement-poc/internal/settlement/teams"
	"github.com/radieske/wager-settlement-poc/internal/settlement/ws"
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

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	writer := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSettled)
	defer writer.Close()
	publ := producer.NewKafkaPublisher(writer)
	broadcaster := pubsub.NewRedisBroadcaster(rdb)

	aliases := teams.Aliases{}
	if cfg.TeamAliasesCSV != "" {
		aliases, err = teams.LoadAliasesCSV(cfg.TeamAliasesCSV)
		if err != nil {
			log.Fatal("team aliases csv", zap.Error(err))
		}
	}

	repository := repo.NewPostgres(pg)

	// Runner do gatilho manual: mesma cadeia do worker agendado, inclusive a
	// propagação Kafka/Redis, pra que um run manual não "perca" eventos.
	r := &runner.Runner{
		Log:     log,
		Store:   repository,
		Feed:    feed.New(cfg.ScoresAPIURL),
		Matcher: teams.Matcher{Aliases: aliases},
		Source:  cfg.ResultSource,

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
			}
			b, _ := json.Marshal(ev)
			if err := broadcaster.Publish(ctx, cfg.RedisPubSubChannel, b); err != nil {
				log.Warn("ws broadcast publish failed", zap.String("wagerId", w.ID), zap.Error(err))
			}
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Feed WebSocket de liquidações: hub alimentado pelo Pub/Sub do Redis
	hub := ws.NewHub(log)
	ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub, log)

	api := &httpapi.API{
		Log:    log,
		Runner: r,
		Repo:   repository,
		WS:     hub.HandleWS,
	}

	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = apiSrv.Shutdown(shutdownCtx)
	}()

	log.Info("settlement-api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("settlement-api stopped")
}
