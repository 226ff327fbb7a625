package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aegis-ledger/internal/domain"
)

// Client define la interfaz hacia el servicio externo de clasificacion.
type Client interface {
	Scan(ctx context.Context, req Request) (Verdict, error)
}

// Request es el contrato de entrada del clasificador.
type Request struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
}

// Verdict es la respuesta normalizada del clasificador. Una respuesta
// malformada nunca llega aqui: se convierte en error antes.
type Verdict struct {
	Response string               `json:"response"`
	Blocked  bool                 `json:"blocked"`
	Layers   []domain.LayerResult `json:"layers"`
}

type logger interface {
	Printf(format string, v ...interface{})
}

// HTTPClient implementa Client contra la API HTTP del clasificador.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  logger
}

// NewHTTPClient construye un cliente apuntando al endpoint de chat del pipeline.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, log any) *HTTPClient {
	l, _ := log.(logger)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  l,
	}
}

func (c *HTTPClient) Scan(ctx context.Context, scanReq Request) (Verdict, error) {
	bodyBytes, err := json.Marshal(scanReq)
	if err != nil {
		return Verdict{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/", bytes.NewReader(bodyBytes))
	if err != nil {
		return Verdict{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verdict{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.logger != nil {
			c.logger.Printf("classifier error status %d: %s", resp.StatusCode, string(respBody))
		}
		return Verdict{}, fmt.Errorf("classifier http error: status=%d", resp.StatusCode)
	}

	var verdict Verdict
	if err := json.Unmarshal(respBody, &verdict); err != nil {
		return Verdict{}, fmt.Errorf("unmarshal response: %w", err)
	}

	// Un veredicto no bloqueado sin contenido es protocolo roto.
	if !verdict.Blocked && verdict.Response == "" {
		return Verdict{}, fmt.Errorf("classifier empty response")
	}

	return verdict, nil
}
