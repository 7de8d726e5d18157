package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-poc/internal/settlement/repo"
	"github.com/radieske/wager-settlement-poc/internal/settlement/runner"
)

// PassRunner é o gatilho manual de um pass de liquidação.
type PassRunner interface {
	RunPass(ctx context.Context) (runner.Summary, error)
}

// API expõe o gatilho manual do settlement e as leituras de apostas pras
// camadas de relatório. O gatilho é seguro a qualquer momento, inclusive em
// cima de um pass agendado: a escrita condicional garante liquidação única.
type API struct {
	Log    *zap.Logger
	Runner PassRunner
	Repo   *repo.Postgres

	// Handler opcional do feed WebSocket de liquidações
	WS http.HandlerFunc
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/settlement/runs", a.runPass) // gatilho manual, síncrono
	r.Get("/v1/wagers", a.listWagers)        // ?status=&limit=
	r.Get("/v1/wagers/{id}", a.getWager)
	if a.WS != nil {
		r.Get("/ws", a.WS)
	}
	return r
}

// runPass executa exatamente um pass síncrono e devolve o resumo
func (a *API) runPass(w http.ResponseWriter, r *http.Request) {
	sum, err := a.Runner.RunPass(r.Context())
	if err != nil {
		a.Log.Error("manual settlement pass failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *API) listWagers(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = repo.StatusCompleted
	}
	if status != repo.StatusPending && status != repo.StatusCompleted {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	wagers, err := a.Repo.ListByStatus(r.Context(), status, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	out := make([]WagerResponse, 0, len(wagers))
	for _, wg := range wagers {
		out = append(out, toWagerResponse(wg))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getWager(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	wg, err := a.Repo.GetWager(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toWagerResponse(wg))
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
