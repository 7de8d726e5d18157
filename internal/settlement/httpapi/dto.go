package httpapi

import (
	"time"

	"github.com/radieske/wager-settlement-poc/internal/settlement/repo"
)

// WagerResponse é a projeção de uma aposta pros consumidores de relatório/UI.
type WagerResponse struct {
	ID        string          `json:"id"`
	EventDate string          `json:"eventDate"`
	AwayTeam  string          `json:"awayTeam"`
	HomeTeam  string          `json:"homeTeam"`
	Market    string          `json:"market"`
	Side      string          `json:"side,omitempty"`
	PickTeam  string          `json:"pickTeam,omitempty"`
	Line      float64         `json:"line,omitempty"`
	Odds      int             `json:"odds"`
	Units     float64         `json:"units"`
	Status    string          `json:"status"`
	Result    *ResultResponse `json:"result,omitempty"`
}

type ResultResponse struct {
	AwayScore int       `json:"awayScore"`
	HomeScore int       `json:"homeScore"`
	Outcome   string    `json:"outcome"`
	Profit    float64   `json:"profit"`
	Units     float64   `json:"units"`
	Source    string    `json:"source"`
	SettledAt time.Time `json:"settledAt"`
}

func toWagerResponse(w repo.Wager) WagerResponse {
	out := WagerResponse{
		ID:        w.ID,
		EventDate: w.EventDate,
		AwayTeam:  w.AwayTeam,
		HomeTeam:  w.HomeTeam,
		Market:    w.Market,
		Side:      w.Side,
		PickTeam:  w.PickTeam,
		Line:      w.Line,
		Odds:      w.Odds,
		Units:     w.Units,
		Status:    w.Status,
	}
	if w.Result != nil {
		out.Result = &ResultResponse{
			AwayScore: w.Result.AwayScore,
			HomeScore: w.Result.HomeScore,
			Outcome:   w.Result.Outcome,
			Profit:    w.Result.Profit,
			Units:     w.Result.Units,
			Source:    w.Result.Source,
			SettledAt: w.Result.SettledAt,
		}
	}
	return out
}
