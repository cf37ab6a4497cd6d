// Package supabase implementa los puertos de datos, archivos e identidades sobre la API
// HTTP de Supabase (PostgREST, Storage y Edge Functions).
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/pkg/config"
	"github.com/jhoicas/colmado-api/pkg/logger"
)

const maxErrorBody = 64 * 1024

// Client cliente HTTP compartido por todos los adaptadores de Supabase.
// Usa net/http de la librería estándar; no requiere el SDK oficial.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient construye el cliente. Si el timeout es cero se usan 20 s.
func NewClient(cfg config.SupabaseConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("supabase"),
	}
}

// BaseURL URL del proyecto sin barra final.
func (c *Client) BaseURL() string { return c.baseURL }

// APIError respuesta no exitosa del backend. Unwrap devuelve la clase de dominio
// (ErrDuplicate, ErrNotFound, ...) para que los flujos usen errors.Is.
type APIError struct {
	Status  int
	Code    string
	Message string
	Kind    error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: HTTP %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: HTTP %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Kind }

// errorBody cubre las formas de error de PostgREST, Storage y Functions.
type errorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Error      string `json:"error"`
	StatusCode string `json:"statusCode"`
}

// request una llamada HTTP al backend.
type request struct {
	method      string
	path        string // relativo a baseURL, con barra inicial
	query       url.Values
	body        io.Reader
	contentType string
	headers     map[string]string
	bearer      string // vacío = service key
}

// jsonBody serializa v para enviarlo como cuerpo.
func jsonBody(v any) (io.Reader, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("supabase: serializar cuerpo: %w", err)
	}
	return bytes.NewReader(raw), nil
}

// do ejecuta la llamada y, si out no es nil, decodifica la respuesta JSON en out.
// Las respuestas no 2xx se devuelven como *APIError ya clasificadas.
func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return fmt.Errorf("supabase: crear request: %w", err)
	}
	bearer := r.bearer
	if bearer == "" {
		bearer = c.serviceKey
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Wrap(domain.ErrTransport, ctx.Err())
		}
		return domain.Wrap(domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("supabase request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return classify(resp.StatusCode, raw)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("supabase: decodificar respuesta: %w", err)
	}
	return nil
}

// classify traduce el estado HTTP y el código de Postgres/PostgREST a la clase de dominio.
func classify(status int, raw []byte) *APIError {
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	e := &APIError{Status: status, Code: body.Code, Message: msg}

	// PostgREST responde 409 tanto para únicos como para claves foráneas: el código manda.
	switch {
	case body.Code == "23505":
		e.Kind = domain.ErrDuplicate
	case body.Code == "23503":
		e.Kind = domain.ErrForeignKey
	case body.Code == "PGRST116" || status == http.StatusNotFound:
		e.Kind = domain.ErrNotFound
	case status == http.StatusConflict:
		e.Kind = domain.ErrDuplicate
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = domain.ErrUnauthorized
	case body.Code == "23502" || body.Code == "23514" || body.Code == "22P02":
		e.Kind = domain.ErrValidation
	case status == http.StatusTooManyRequests || status >= 500:
		e.Kind = domain.ErrTransport
	}
	return e
}

// escapePath escapa cada segmento de una ruta de archivo.
func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
