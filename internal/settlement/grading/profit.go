package grading

// Profit converte o resultado em lucro/prejuízo em unidades, sob odds
// americanas: odds negativas são o stake necessário pra ganhar 100, positivas
// são o ganho sobre um stake de 100. O lucro escala linearmente com o stake.
func Profit(outcome Outcome, odds int, units float64) float64 {
	if outcome == OutcomePush {
		return 0
	}
	if outcome == OutcomeLoss {
		return -units
	}

	// WIN
	if odds < 0 {
		return units * (100 / float64(-odds))
	}
	return units * (float64(odds) / 100)
}
