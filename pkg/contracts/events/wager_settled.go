package events

// Evento publicado no tópico "wager_settled" após cada liquidação efetivada.
// Consumido por camadas de relatório/UI fora deste serviço.
type WagerSettled struct {
	WagerID   string  `json:"wager_id"`
	RunID     string  `json:"run_id"` // id do pass que liquidou a aposta
	EventDate string  `json:"event_date"`
	AwayTeam  string  `json:"away_team"`
	HomeTeam  string  `json:"home_team"`
	Market    string  `json:"market"`
	Outcome   string  `json:"outcome"` // WIN | LOSS | PUSH
	Profit    float64 `json:"profit"`  // em unidades, com sinal
	Units     float64 `json:"units"`
	AwayScore int     `json:"away_score"`
	HomeScore int     `json:"home_score"`
	Source    string  `json:"source"`
	TsUnixMs  int64   `json:"ts_unix_ms"`
}
