package teams

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Aliases mapeia apelidos/abreviações usados pelo feed para o nome canônico
// do time (ex: "LAL" -> "Lakers"). Chaves e valores ficam guardados já
// normalizados. Sem aliases, feeds que só usam abreviação não pareiam por
// substring — limitação conhecida do matcher.
type Aliases map[string]string

// canonical devolve o token canônico de um apelido; sem entrada, devolve o próprio
func (a Aliases) canonical(token string) string {
	if a == nil {
		return token
	}
	if c, ok := a[token]; ok {
		return c
	}
	return token
}

// Add registra um par apelido -> nome canônico (ambos em forma livre).
func (a Aliases) Add(alias, canonical string) {
	k := Normalize(alias)
	v := Normalize(canonical)
	if k == "" || v == "" {
		return
	}
	a[k] = v
}

// LoadAliasesCSV carrega um CSV "alias,canonical". Uma linha de cabeçalho com
// esses nomes é ignorada. Arquivo vazio é válido e resulta em mapa vazio.
func LoadAliasesCSV(path string) (Aliases, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open aliases csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	out := Aliases{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read aliases csv: %w", err)
		}
		if len(rec) < 2 {
			continue
		}
		if rec[0] == "alias" && rec[1] == "canonical" {
			continue
		}
		out.Add(rec[0], rec[1])
	}
	return out, nil
}
