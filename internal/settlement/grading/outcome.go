package grading

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMarket indica mercado fora do conjunto suportado; o chamador
	// loga e deixa a aposta pendente em vez de chutar uma regra.
	ErrUnknownMarket = errors.New("unknown market")

	// ErrUnknownSide indica lado incompatível com o mercado da aposta.
	ErrUnknownSide = errors.New("unknown side")
)

// GameScore é o placar final já atribuído ao away/home da própria aposta.
type GameScore struct {
	Away int
	Home int
}

// Evaluate aplica a regra do mercado sobre o placar e devolve WIN/LOSS/PUSH.
//
// Moneyline: vence quem fez estritamente mais pontos; empate conta como LOSS
// pro apostador (fallback defensivo herdado do comportamento original — os
// esportes cobertos não terminam empatados).
// Total: soma dos placares contra a linha; igualdade é PUSH.
// Spread: margem do lado escolhido contra a linha (1.5 quando não registrada);
// igualdade é PUSH.
func Evaluate(score GameScore, p Pick) (Outcome, error) {
	switch p.Market {
	case MarketMoneyline:
		switch p.Side {
		case SideAway:
			return winLoss(score.Away > score.Home), nil
		case SideHome:
			return winLoss(score.Home > score.Away), nil
		default:
			return "", fmt.Errorf("%w: %q for %s", ErrUnknownSide, p.Side, p.Market)
		}

	case MarketTotal:
		total := float64(score.Away + score.Home)
		switch p.Side {
		case SideOver:
			return overUnder(total, p.Line), nil
		case SideUnder:
			return overUnder(p.Line, total), nil
		default:
			return "", fmt.Errorf("%w: %q for %s", ErrUnknownSide, p.Side, p.Market)
		}

	case MarketSpread:
		line := p.Line
		if line == 0 {
			line = DefaultSpreadLine
		}
		var margin float64
		switch p.Side {
		case SideHome:
			margin = float64(score.Home - score.Away)
		case SideAway:
			margin = float64(score.Away - score.Home)
		default:
			return "", fmt.Errorf("%w: %q for %s", ErrUnknownSide, p.Side, p.Market)
		}
		return overUnder(margin, line), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMarket, p.Market)
	}
}

func winLoss(won bool) Outcome {
	if won {
		return OutcomeWin
	}
	return OutcomeLoss
}

// overUnder compara o valor obtido contra o alvo: maior é WIN, menor é LOSS,
// igual é PUSH.
func overUnder(got, target float64) Outcome {
	switch {
	case got > target:
		return OutcomeWin
	case got < target:
		return OutcomeLoss
	default:
		return OutcomePush
	}
}
