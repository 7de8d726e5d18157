package teams

import (
	"strings"

	"github.com/radieske/wager-settlement-poc/internal/settlement/feed"
)

// Matcher pareia o confronto registrado na aposta com um jogo do feed.
// As duas fontes quase nunca concordam na grafia dos nomes nem em qual lado é
// serializado como mandante, então o pareamento tolera containment de substring
// e a hipótese de away/home invertidos.
type Matcher struct {
	Aliases Aliases
}

// SameTeam decide se dois nomes livres referem o mesmo time: igualdade do token
// normalizado (após aliases) ou containment de substring quando ambos os tokens
// têm pelo menos 4 caracteres — o mínimo pra não casar siglas por acidente.
func (m Matcher) SameTeam(a, b string) bool {
	na := m.Aliases.canonical(Normalize(a))
	nb := m.Aliases.canonical(Normalize(b))
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if len(na) >= 4 && len(nb) >= 4 {
		if strings.Contains(na, nb) || strings.Contains(nb, na) {
			return true
		}
	}
	return false
}

// FindMatch procura nos jogos finalizados o que corresponde ao confronto da
// aposta. Testa a hipótese direta (away↔away, home↔home) e a invertida (fontes
// discordando de quem é o mandante). Vale o primeiro jogo que casar, na ordem
// do feed — simplificação documentada, não há ranking de candidatos.
//
// O retorno já vem com placares e nomes atribuídos ao away/home da própria
// aposta, para que a avaliação não dependa da ordem de serialização do feed.
func (m Matcher) FindMatch(awayTeam, homeTeam string, games []feed.GameResult) (feed.GameResult, bool) {
	for _, g := range games {
		if !g.IsFinal {
			continue
		}
		if m.SameTeam(awayTeam, g.AwayTeam) && m.SameTeam(homeTeam, g.HomeTeam) {
			return g, true
		}
		if m.SameTeam(awayTeam, g.HomeTeam) && m.SameTeam(homeTeam, g.AwayTeam) {
			// invertido: devolve o jogo reorientado pro lado da aposta
			return feed.GameResult{
				GameID:    g.GameID,
				AwayTeam:  g.HomeTeam,
				HomeTeam:  g.AwayTeam,
				AwayScore: g.HomeScore,
				HomeScore: g.AwayScore,
				IsFinal:   g.IsFinal,
			}, true
		}
	}
	return feed.GameResult{}, false
}
