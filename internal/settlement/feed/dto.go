package feed

// GameResult é um jogo retornado pelo feed externo de resultados para uma data.
// Efêmero: vive só durante um pass de liquidação, nunca é persistido aqui.
type GameResult struct {
	GameID    string `json:"gameId,omitempty"`
	AwayTeam  string `json:"awayTeam"`
	HomeTeam  string `json:"homeTeam"`
	AwayScore int    `json:"awayScore"`
	HomeScore int    `json:"homeScore"`
	IsFinal   bool   `json:"isFinal"`
}

// ScoresResponse é o envelope da resposta do feed por data.
type ScoresResponse struct {
	Date  string       `json:"date"`
	Games []GameResult `json:"games"`
}
