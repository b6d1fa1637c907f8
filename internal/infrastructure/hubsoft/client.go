package hubsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/posvenda/backend/internal/domain/serviceorder"
)

// maxResponseSize is the maximum allowed response size from Hubsoft (10MB)
const maxResponseSize = 10 * 1024 * 1024

const (
	listOrdersPath   = "/api/v1/integracao/ordem_servico/todos"
	clientLookupPath = "/api/v1/integracao/cliente"
)

// Client talks to the Hubsoft integration API. Every call is authenticated
// through the TokenManager; a 401 invalidates the cached token and the call
// is repeated exactly once.
type Client struct {
	config     *Config
	tokens     *TokenManager
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Hubsoft API client.
func NewClient(cfg *Config, tokens *TokenManager, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: cfg,
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		logger: logger,
	}, nil
}

// ---------------------------------------------------------------------------
// Bulk listing
// ---------------------------------------------------------------------------

// ListRequest is a paged listing query over a registration date window.
type ListRequest struct {
	DateFrom time.Time
	DateTo   time.Time
	PageSize int
}

// OrderPage is one page of raw order payloads.
type OrderPage struct {
	Page       int
	Items      []json.RawMessage
	Pagination *Pagination
}

// ListOrders drives pagination against the listing endpoint and hands every
// non-empty page to fn as it arrives. Termination prefers the pagination
// descriptor when the endpoint sends one; the short-page heuristic is only a
// fallback since a full final page would make it under-fetch. Returns the
// last pagination descriptor seen. A non-2xx page or an fn error aborts the
// listing.
func (c *Client) ListOrders(ctx context.Context, req ListRequest, fn func(OrderPage) error) (*Pagination, error) {
	if req.PageSize <= 0 {
		req.PageSize = 100
	}
	if req.DateTo.Before(req.DateFrom) {
		return nil, serviceorder.ErrInvalidDateRange
	}

	var last *Pagination
	for page := 0; ; page++ {
		query := url.Values{}
		query.Set("pagina", strconv.Itoa(page))
		query.Set("itens_por_pagina", strconv.Itoa(req.PageSize))
		query.Set("data_inicio", req.DateFrom.Format("2006-01-02"))
		query.Set("data_fim", req.DateTo.Format("2006-01-02"))

		var envelope listEnvelope
		if err := c.getJSON(ctx, listOrdersPath, query, &envelope); err != nil {
			return last, err
		}
		if !envelope.success() {
			return last, fmt.Errorf("%w: %s", serviceorder.ErrLogicalFailure, envelope.Msg)
		}

		items := envelope.extractRecords()
		if envelope.Paginacao != nil {
			last = envelope.Paginacao
		}
		if len(items) == 0 {
			return last, nil
		}

		if err := fn(OrderPage{Page: page, Items: items, Pagination: envelope.Paginacao}); err != nil {
			return last, err
		}

		if envelope.Paginacao != nil {
			if envelope.Paginacao.PaginaAtual >= envelope.Paginacao.UltimaPagina {
				return last, nil
			}
			continue
		}
		if len(items) < req.PageSize {
			return last, nil
		}
	}
}

// ---------------------------------------------------------------------------
// Detail
// ---------------------------------------------------------------------------

// GetOrderDetail fetches the full record for one identifier with the given
// relation expansions. A logical failure whose message points at the
// relations yields ErrRelationRejected so the caller can degrade; any other
// logical failure yields ErrLogicalFailure.
func (c *Client) GetOrderDetail(ctx context.Context, id int64, relations []string) ([]json.RawMessage, error) {
	query := url.Values{}
	query.Set("id_ordem_servico", strconv.FormatInt(id, 10))
	if len(relations) > 0 {
		query.Set("relacoes", strings.Join(relations, ","))
	}

	var envelope listEnvelope
	if err := c.getJSON(ctx, listOrdersPath, query, &envelope); err != nil {
		return nil, err
	}
	if !envelope.success() {
		if envelope.relationRejected() {
			return nil, fmt.Errorf("%w: %s", serviceorder.ErrRelationRejected, envelope.Msg)
		}
		return nil, fmt.Errorf("%w: %s", serviceorder.ErrLogicalFailure, envelope.Msg)
	}
	return envelope.extractRecords(), nil
}

// ---------------------------------------------------------------------------
// Client lookup
// ---------------------------------------------------------------------------

// clientSearchModes are the search-parameter strategies tried in sequence:
// an unkeyed term search first, then keyed searches. The endpoint behaves
// differently across versions, so the first strategy returning an exact
// codigo_cliente match wins.
var clientSearchModes = []string{"", "codigo_cliente", "codigo"}

// SearchClient looks up a customer by code, returning the first exact
// codigo_cliente match across the search strategies, or (nil, nil) when no
// strategy finds one.
func (c *Client) SearchClient(ctx context.Context, code string) (*ClientLookupResult, error) {
	for _, mode := range clientSearchModes {
		query := url.Values{}
		query.Set("termo_busca", code)
		if mode != "" {
			query.Set("busca", mode)
		}

		var envelope clientLookupEnvelope
		if err := c.getJSON(ctx, clientLookupPath, query, &envelope); err != nil {
			return nil, err
		}

		for _, raw := range envelope.extractClients() {
			result, err := convertClient(raw)
			if err != nil {
				continue
			}
			if result.Client.CodigoCliente == code {
				return result, nil
			}
		}
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// getJSON performs an authenticated GET, retrying exactly once after a 401
// with a freshly acquired token.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, status, err := c.doGet(ctx, path, query)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		c.logger.Warn("hubsoft returned 401, re-authenticating", zap.String("path", path))
		if err := c.tokens.Invalidate(ctx); err != nil {
			return err
		}
		body, status, err = c.doGet(ctx, path, query)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return fmt.Errorf("%w: still unauthorized after token renewal", serviceorder.ErrAuthFailed)
		}
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%w: HTTP %d: %s", serviceorder.ErrRequestFailed, status, truncate(body, 256))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", serviceorder.ErrInvalidResponse, err)
	}
	return nil
}

func (c *Client) doGet(ctx context.Context, path string, query url.Values) ([]byte, int, error) {
	token, err := c.tokens.Acquire(ctx)
	if err != nil {
		return nil, 0, err
	}

	u := c.config.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("hubsoft: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", serviceorder.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("hubsoft: failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
