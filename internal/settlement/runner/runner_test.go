package runner

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-poc/internal/settlement/feed"
	"github.com/radieske/wager-settlement-poc/internal/settlement/repo"
	"github.com/radieske/wager-settlement-poc/internal/settlement/teams"
)

// fakeStore reproduz em memória a semântica da escrita condicional do
// repositório Postgres: só transiciona quem ainda está PENDING.
type fakeStore struct {
	mu          sync.Mutex
	wagers      map[string]*repo.Wager
	writes      int    // escritas efetivas (UPDATEs que pegaram)
	transitions int
	panicOn     string // id de aposta cujo Settle estoura (corrupção simulada)
}

func newFakeStore(wagers ...repo.Wager) *fakeStore {
	s := &fakeStore{wagers: make(map[string]*repo.Wager)}
	for i := range wagers {
		w := wagers[i]
		if w.Status == "" {
			w.Status = repo.StatusPending
		}
		s.wagers[w.ID] = &w
	}
	return s
}

func (s *fakeStore) LoadPending(ctx context.Context) ([]repo.Wager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repo.Wager
	for _, w := range s.wagers {
		if w.Status == repo.StatusPending {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (s *fakeStore) Settle(ctx context.Context, wagerID string, set repo.Settlement) error {
	if wagerID == s.panicOn {
		panic("settle blew up for " + wagerID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wagers[wagerID]
	if !ok {
		return repo.ErrNotFound
	}
	if w.Status != repo.StatusPending {
		return repo.ErrAlreadySettled
	}
	w.Status = repo.StatusCompleted
	w.Result = &repo.Result{
		AwayScore: set.AwayScore,
		HomeScore: set.HomeScore,
		Outcome:   set.Outcome,
		Profit:    set.Profit,
		Units:     set.Units,
		Source:    set.Source,
	}
	s.writes++
	return nil
}

func (s *fakeStore) InsertTransition(ctx context.Context, wagerID, oldStatus, newStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions++
	return nil
}

func (s *fakeStore) get(id string) repo.Wager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.wagers[id]
}

// fakeFeed serve jogos por data e conta as chamadas; datas em fail retornam erro.
type fakeFeed struct {
	mu    sync.Mutex
	games map[string][]feed.GameResult
	fail  map[string]bool
	calls map[string]int
}

func (f *fakeFeed) Games(ctx context.Context, date string) ([]feed.GameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[date]++
	if f.fail[date] {
		return nil, errors.New("feed down")
	}
	return f.games[date], nil
}

func newRunner(store *fakeStore, src *fakeFeed) *Runner {
	return &Runner{
		Log:     zap.NewNop(),
		Store:   store,
		Feed:    src,
		Matcher: teams.Matcher{},
		Source:  "TEST_FEED",
	}
}

func TestRunPassSettlesAndIsIdempotent(t *testing.T) {
	store := newFakeStore(
		repo.Wager{ID: "w1", EventDate: "2025-03-01", AwayTeam: "Colorado", HomeTeam: "St Louis", Market: "TOTAL", Side: "OVER", Line: 6.5, Odds: -110, Units: 2},
		repo.Wager{ID: "w2", EventDate: "2025-03-01", AwayTeam: "Boston", HomeTeam: "Toronto", Market: "MONEYLINE", Side: "HOME", Odds: -135, Units: 1},
		repo.Wager{ID: "w3", EventDate: "2025-03-02", AwayTeam: "Tampa Bay", HomeTeam: "Florida", Market: "SPREAD", Side: "AWAY", Line: 1.5, Odds: 160, Units: 1},
	)
	src := &fakeFeed{games: map[string][]feed.GameResult{
		"2025-03-01": {
			{AwayTeam: "Colorado Avalanche", HomeTeam: "St. Louis Blues", AwayScore: 4, HomeScore: 3, IsFinal: true},
			{AwayTeam: "Boston Bruins", HomeTeam: "Toronto Maple Leafs", AwayScore: 2, HomeScore: 5, IsFinal: true},
		},
		// 2025-03-02 sem jogos ainda
	}}
	r := newRunner(store, src)

	sum, err := r.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if sum.Pending != 3 || sum.Settled != 2 || sum.Unmatched != 1 {
		t.Fatalf("summary = %+v", sum)
	}

	// w1: total 7 > 6.5 => WIN a -110 com 2u
	w1 := store.get("w1")
	if w1.Status != repo.StatusCompleted || w1.Result.Outcome != "WIN" {
		t.Errorf("w1 = %+v", w1)
	}
	if math.Abs(w1.Result.Profit-2*100.0/110.0) > 1e-9 {
		t.Errorf("w1 profit = %f", w1.Result.Profit)
	}

	// w2: mandante venceu => WIN
	if w2 := store.get("w2"); w2.Result == nil || w2.Result.Outcome != "WIN" {
		t.Errorf("w2 = %+v", w2)
	}

	// w3: sem jogo no feed => continua PENDING e volta no próximo pass
	if w3 := store.get("w3"); w3.Status != repo.StatusPending {
		t.Errorf("w3 status = %s", w3.Status)
	}

	// feed consultado uma vez por data distinta
	if src.calls["2025-03-01"] != 1 || src.calls["2025-03-02"] != 1 {
		t.Errorf("feed calls = %v", src.calls)
	}

	// Segundo pass: nada liquidado de novo, nenhuma escrita nova em quem
	// já está COMPLETED
	writesBefore := store.writes
	sum2, err := r.RunPass(context.Background())
	if err != nil {
		t.Fatalf("second RunPass: %v", err)
	}
	if sum2.Pending != 1 || sum2.Settled != 0 {
		t.Fatalf("second summary = %+v", sum2)
	}
	if store.writes != writesBefore {
		t.Errorf("second pass wrote %d extra times", store.writes-writesBefore)
	}
	if w1b := store.get("w1"); w1b.Result.Profit != w1.Result.Profit {
		t.Error("settled result must not change across passes")
	}
}

func TestRunPassFeedFailureIsolatesDate(t *testing.T) {
	store := newFakeStore(
		repo.Wager{ID: "ok", EventDate: "2025-03-01", AwayTeam: "Boston", HomeTeam: "Toronto", Market: "MONEYLINE", Side: "AWAY", Odds: 120, Units: 1},
		repo.Wager{ID: "stuck", EventDate: "2025-03-02", AwayTeam: "Tampa Bay", HomeTeam: "Florida", Market: "MONEYLINE", Side: "HOME", Odds: -110, Units: 1},
	)
	src := &fakeFeed{
		games: map[string][]feed.GameResult{
			"2025-03-01": {{AwayTeam: "Boston Bruins", HomeTeam: "Toronto Maple Leafs", AwayScore: 3, HomeScore: 1, IsFinal: true}},
		},
		fail: map[string]bool{"2025-03-02": true},
	}
	r := newRunner(store, src)

	sum, err := r.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if sum.Settled != 1 || sum.FeedErrors != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	// Apostas puladas por falha de feed não contam como unmatched; a data
	// inteira aparece só em FeedErrors
	if sum.Unmatched != 0 {
		t.Errorf("unmatched = %d, want 0", sum.Unmatched)
	}
	if w := store.get("ok"); w.Status != repo.StatusCompleted {
		t.Error("healthy date must settle despite the other date failing")
	}
	if w := store.get("stuck"); w.Status != repo.StatusPending {
		t.Error("failed date wagers must stay pending")
	}
}

func TestRunPassReversedMatchupReattributesScores(t *testing.T) {
	store := newFakeStore(
		repo.Wager{ID: "w1", EventDate: "2025-03-01", AwayTeam: "Duke", HomeTeam: "North Carolina", Market: "MONEYLINE", PickTeam: "Duke", Odds: -150, Units: 1},
	)
	// O feed serializa o confronto invertido: Duke aparece como mandante
	src := &fakeFeed{games: map[string][]feed.GameResult{
		"2025-03-01": {{AwayTeam: "North Carolina Tar Heels", HomeTeam: "Duke Blue Devils", AwayScore: 68, HomeScore: 71, IsFinal: true}},
	}}
	r := newRunner(store, src)

	if _, err := r.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	w := store.get("w1")
	if w.Status != repo.StatusCompleted {
		t.Fatal("expected settle via reversed hypothesis")
	}
	// Placar gravado no referencial da aposta: Duke (away) 71, UNC (home) 68
	if w.Result.AwayScore != 71 || w.Result.HomeScore != 68 {
		t.Errorf("scores = %d-%d, want 71-68", w.Result.AwayScore, w.Result.HomeScore)
	}
	if w.Result.Outcome != "WIN" {
		t.Errorf("outcome = %s, want WIN", w.Result.Outcome)
	}
}

func TestRunPassMoneylinePickByTeamName(t *testing.T) {
	aliases := teams.Aliases{}
	aliases.Add("LAL", "Lakers")
	aliases.Add("BOS", "Celtics")

	store := newFakeStore(
		repo.Wager{ID: "w1", EventDate: "2025-03-01", AwayTeam: "Lakers", HomeTeam: "Celtics", Market: "MONEYLINE", Side: "Celtics", Odds: -120, Units: 1},
	)
	src := &fakeFeed{games: map[string][]feed.GameResult{
		"2025-03-01": {{AwayTeam: "LAL", HomeTeam: "BOS", AwayScore: 98, HomeScore: 101, IsFinal: true}},
	}}

	r := newRunner(store, src)
	r.Matcher = teams.Matcher{Aliases: aliases}

	sum, err := r.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if sum.Settled != 1 {
		t.Fatalf("summary = %+v", sum)
	}

	w := store.get("w1")
	if w.Result.Outcome != "WIN" {
		t.Errorf("outcome = %s, want WIN", w.Result.Outcome)
	}
	if math.Abs(w.Result.Profit-100.0/120.0) > 1e-9 {
		t.Errorf("profit = %f, want %f", w.Result.Profit, 100.0/120.0)
	}
	if w.Result.Source != "TEST_FEED" {
		t.Errorf("source = %s", w.Result.Source)
	}
}

func TestRunPassUnknownMarketLeftPending(t *testing.T) {
	store := newFakeStore(
		repo.Wager{ID: "w1", EventDate: "2025-03-01", AwayTeam: "Boston", HomeTeam: "Toronto", Market: "TEAM_TOTAL", Side: "OVER", Line: 3.5, Odds: -110, Units: 1},
	)
	src := &fakeFeed{games: map[string][]feed.GameResult{
		"2025-03-01": {{AwayTeam: "Boston Bruins", HomeTeam: "Toronto Maple Leafs", AwayScore: 3, HomeScore: 1, IsFinal: true}},
	}}

	var stages []string
	r := newRunner(store, src)
	r.OnError = func(stage string) { stages = append(stages, stage) }

	sum, err := r.RunPass(context.Background())
	if err != nil {
		t.Fatalf("mercado desconhecido não pode derrubar o batch: %v", err)
	}
	if sum.Settled != 0 || sum.Unmatched != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if w := store.get("w1"); w.Status != repo.StatusPending {
		t.Error("unknown market wager must stay pending")
	}
	if len(stages) != 1 || stages[0] != "evaluate" {
		t.Errorf("stages = %v", stages)
	}
}

func TestRunPassDefaultsUnitsToOne(t *testing.T) {
	store := newFakeStore(
		repo.Wager{ID: "w1", EventDate: "2025-03-01", AwayTeam: "Boston", HomeTeam: "Toronto", Market: "MONEYLINE", Side: "AWAY", Odds: -110, Units: 0},
	)
	src := &fakeFeed{games: map[string][]feed.GameResult{
		"2025-03-01": {{AwayTeam: "Boston Bruins", HomeTeam: "Toronto Maple Leafs", AwayScore: 1, HomeScore: 4, IsFinal: true}},
	}}

	if _, err := newRunner(store, src).RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	w := store.get("w1")
	if w.Result.Units != 1 {
		t.Errorf("units = %f, want default 1", w.Result.Units)
	}
	if w.Result.Profit != -1 {
		t.Errorf("profit = %f, want -1", w.Result.Profit)
	}
}

func TestRunPassPanicContainedPerWager(t *testing.T) {
	store := newFakeStore(
		repo.Wager{ID: "bad", EventDate: "2025-03-01", AwayTeam: "Boston", HomeTeam: "Toronto", Market: "MONEYLINE", Side: "HOME", Odds: -135, Units: 1},
		repo.Wager{ID: "good", EventDate: "2025-03-01", AwayTeam: "Tampa Bay", HomeTeam: "Florida", Market: "MONEYLINE", Side: "AWAY", Odds: 140, Units: 1},
	)
	store.panicOn = "bad"
	src := &fakeFeed{games: map[string][]feed.GameResult{
		"2025-03-01": {
			{AwayTeam: "Boston Bruins", HomeTeam: "Toronto Maple Leafs", AwayScore: 2, HomeScore: 5, IsFinal: true},
			{AwayTeam: "Tampa Bay Lightning", HomeTeam: "Florida Panthers", AwayScore: 4, HomeScore: 1, IsFinal: true},
		},
	}}

	var stages []string
	r := newRunner(store, src)
	r.OnError = func(stage string) { stages = append(stages, stage) }

	sum, err := r.RunPass(context.Background())
	if err != nil {
		t.Fatalf("uma aposta estourando não pode derrubar o pass: %v", err)
	}
	if sum.Settled != 1 || sum.Unmatched != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if w := store.get("good"); w.Status != repo.StatusCompleted {
		t.Error("sibling wager in the same date group must still settle")
	}
	if w := store.get("bad"); w.Status != repo.StatusPending {
		t.Error("panicked wager must stay pending")
	}
	if len(stages) != 1 || stages[0] != "panic" {
		t.Errorf("stages = %v", stages)
	}
}

func TestRunPassCallbacksAndEvents(t *testing.T) {
	store := newFakeStore(
		repo.Wager{ID: "w1", EventDate: "2025-03-01", AwayTeam: "Boston", HomeTeam: "Toronto", Market: "MONEYLINE", Side: "HOME", Odds: -135, Units: 1},
		repo.Wager{ID: "w2", EventDate: "2025-03-01", AwayTeam: "Tampa Bay", HomeTeam: "Florida", Market: "MONEYLINE", Side: "HOME", Odds: -110, Units: 1},
	)
	src := &fakeFeed{games: map[string][]feed.GameResult{
		"2025-03-01": {{AwayTeam: "Boston Bruins", HomeTeam: "Toronto Maple Leafs", AwayScore: 2, HomeScore: 5, IsFinal: true}},
	}}

	var mu sync.Mutex
	var settledCalls, unmatchedCalls int
	var afterIDs []string

	r := newRunner(store, src)
	r.OnSettled = func() { mu.Lock(); settledCalls++; mu.Unlock() }
	r.OnUnmatched = func() { mu.Lock(); unmatchedCalls++; mu.Unlock() }
	r.OnAfterSettle = func(w repo.Wager, s repo.Settlement, runID string) {
		mu.Lock()
		afterIDs = append(afterIDs, w.ID)
		mu.Unlock()
		if runID == "" {
			t.Error("runID must be set")
		}
	}

	sum, err := r.RunPass(context.Background())
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if sum.RunID == "" {
		t.Error("summary runID must be set")
	}
	if settledCalls != 1 || unmatchedCalls != 1 {
		t.Errorf("settled=%d unmatched=%d", settledCalls, unmatchedCalls)
	}
	if len(afterIDs) != 1 || afterIDs[0] != "w1" {
		t.Errorf("afterIDs = %v", afterIDs)
	}
}
