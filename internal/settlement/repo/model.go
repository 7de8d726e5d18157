package repo

import "time"

// Status da aposta. Terminal depois de COMPLETED: o pipeline nunca reavalia
// nem sobrescreve uma aposta liquidada.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
)

// Wager é a aposta persistida no Postgres. Criada pelo processo de pricing
// (fora deste serviço) em PENDING e mutada exatamente uma vez, por aqui,
// para COMPLETED.
type Wager struct {
	ID        string
	EventDate string // YYYY-MM-DD, bucket usado pra agrupar consultas ao feed
	AwayTeam  string // texto livre registrado na hora da aposta
	HomeTeam  string
	Market    string  // MONEYLINE | TOTAL | SPREAD
	Side      string  // AWAY/HOME ou OVER/UNDER; moneyline pode vir vazio
	PickTeam  string  // moneyline: nome do time escolhido, quando Side não veio
	Line      float64 // total/spread; 0 quando não registrada
	Odds      int     // odds americanas, ex: -110, +145
	Units     float64 // stake; <= 0 cai no default de 1 unidade na liquidação
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time

	Result *Result // presente só depois de COMPLETED
}

// Result é o desfecho gravado junto com a transição pra COMPLETED.
type Result struct {
	AwayScore int
	HomeScore int
	Outcome   string // WIN | LOSS | PUSH
	Profit    float64
	Units     float64
	Source    string
	SettledAt time.Time
}

// Settlement é o desfecho calculado por um pass, pronto pra escrita condicional.
type Settlement struct {
	AwayScore int
	HomeScore int
	Outcome   string
	Profit    float64
	Units     float64
	Source    string
}
