package teams

import "strings"

// Normalize converte um nome livre de time em um token comparável:
// minúsculas, palavras genéricas removidas ("university", "college", "of", "the"),
// "state"/"saint"/"st." viram "st" e tudo que não for alfanumérico é descartado.
// Função pura; entrada degenerada vira string vazia.
func Normalize(name string) string {
	var b strings.Builder
	for _, w := range strings.Fields(strings.ToLower(name)) {
		w = strings.TrimSuffix(w, ".") // "st." -> "st"
		switch w {
		case "university", "college", "of", "the":
			continue
		case "state", "saint":
			w = "st"
		}
		for _, r := range w {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
