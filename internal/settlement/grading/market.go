package grading

// Market é a família de mercado da aposta. Conjunto fechado: qualquer outro
// valor cai em ErrUnknownMarket na avaliação.
type Market string

const (
	MarketMoneyline Market = "MONEYLINE"
	MarketTotal     Market = "TOTAL"
	MarketSpread    Market = "SPREAD"
)

// Side é o lado apostado; depende do mercado (AWAY/HOME ou OVER/UNDER).
type Side string

const (
	SideAway  Side = "AWAY"
	SideHome  Side = "HOME"
	SideOver  Side = "OVER"
	SideUnder Side = "UNDER"
)

// Outcome é o resultado de uma aposta liquidada.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
	OutcomePush Outcome = "PUSH"
)

// Pick descreve o que foi apostado: mercado, lado e linha.
// Line é ignorada no moneyline; no spread, 0 significa "usar a puck line padrão".
type Pick struct {
	Market Market
	Side   Side
	Line   float64
}

// Linha padrão de spread no estilo puck line, quando a aposta não registrou uma.
const DefaultSpreadLine = 1.5
