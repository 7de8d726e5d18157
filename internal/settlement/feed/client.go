package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client consulta o feed de resultados por data (em dev, o scores-simulator).
// O feed é tratado como entrada não confiável: resposta não-2xx vira erro e o
// chamador decide pular a data nesse pass.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Games busca os jogos de uma data (YYYY-MM-DD). Lista vazia é resposta normal
// ("ainda sem resultados"), não erro.
func (c *Client) Games(ctx context.Context, date string) ([]GameResult, error) {
	url := c.BaseURL + "/scores/" + date
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scores feed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("scores feed http %d for %s", res.StatusCode, date)
	}

	var out ScoresResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("scores feed decode: %w", err)
	}
	return out.Games, nil
}
