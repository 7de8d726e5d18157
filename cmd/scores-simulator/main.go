package main

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"net/http"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-poc/internal/settlement/feed"
	"github.com/radieske/wager-settlement-poc/internal/shared/config"
	"github.com/radieske/wager-settlement-poc/internal/shared/logger"
	"github.com/radieske/wager-settlement-poc/internal/shared/metrics"
)

// Catálogo fixo de confrontos simulados. Grafias propositalmente diferentes
// das que o seeder grava nas apostas, pra exercitar o fuzzy matching.
var matchups = [][2]string{
	{"Boston Bruins", "Toronto Maple Leafs"},
	{"Colorado Avalanche", "St. Louis Blues"},
	{"Tampa Bay Lightning", "Florida Panthers"},
	{"Edmonton Oilers", "Vancouver Canucks"},
	{"Duke Blue Devils", "North Carolina Tar Heels"},
}

var (
	scoresRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scores_sim_requests_total",
		Help: "requisições ao feed simulado",
	}, []string{"status"})
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// gamesForDate gera o quadro de jogos de uma data. O seed vem da própria data:
// chamadas repetidas devolvem sempre o mesmo placar, senão passes consecutivos
// do settlement veriam resultados diferentes pro mesmo jogo.
func gamesForDate(date string) []feed.GameResult {
	h := fnv.New64a()
	_, _ = h.Write([]byte(date))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	games := make([]feed.GameResult, 0, len(matchups))
	for i, m := range matchups {
		g := feed.GameResult{
			GameID:    fmt.Sprintf("%s-%03d", date, i+1),
			AwayTeam:  m[0],
			HomeTeam:  m[1],
			AwayScore: rng.Intn(7),
			HomeScore: rng.Intn(7),
			IsFinal:   rng.Intn(100) < 80, // ~80% dos jogos já finalizados
		}
		// sem empate em jogo final: desempata pro mandante
		if g.IsFinal && g.AwayScore == g.HomeScore {
			g.HomeScore++
		}
		games = append(games, g)
	}
	return games
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(scoresRequests)

	appMux := http.NewServeMux()

	// GET /scores/{date}
	appMux.HandleFunc("/scores/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		date := r.URL.Path[len("/scores/"):]
		if !datePattern.MatchString(date) {
			scoresRequests.WithLabelValues("bad_request").Inc()
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		scoresRequests.WithLabelValues("ok").Inc()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(feed.ScoresResponse{
			Date:  date,
			Games: gamesForDate(date),
		})
	})

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error { return nil })

	addr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("scores-simulator running", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
