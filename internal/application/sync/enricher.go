package syncapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/posvenda/backend/internal/domain/serviceorder"
	"github.com/posvenda/backend/internal/infrastructure/hubsoft"
)

// Gateway is the slice of the Hubsoft client the sync pipeline depends on.
type Gateway interface {
	ListOrders(ctx context.Context, req hubsoft.ListRequest, fn func(hubsoft.OrderPage) error) (*hubsoft.Pagination, error)
	GetOrderDetail(ctx context.Context, id int64, relations []string) ([]json.RawMessage, error)
	SearchClient(ctx context.Context, code string) (*hubsoft.ClientLookupResult, error)
}

// Enricher turns an order identifier into a fully populated record: detail
// fetch with relation degradation, then client lookup and free-text address
// parsing for whatever structured fields are still missing.
//
// The client-lookup cache is scoped to the Enricher, so create one Enricher
// per sync run.
type Enricher struct {
	gateway Gateway
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string]*hubsoft.ClientLookupResult // nil entry = known absent
}

// NewEnricher creates an Enricher with an empty lookup cache.
func NewEnricher(gateway Gateway, logger *zap.Logger) *Enricher {
	return &Enricher{
		gateway: gateway,
		logger:  logger,
		cache:   make(map[string]*hubsoft.ClientLookupResult),
	}
}

// Enrich fetches the detail record for one identifier. The preferred
// relation list is degraded one token at a time whenever the endpoint
// rejects it, down to a bare request. A logical failure that is not about
// the relations abandons the identifier.
func (e *Enricher) Enrich(ctx context.Context, id int64, preferred []string) (*serviceorder.ServiceOrder, error) {
	records, err := e.fetchDetail(ctx, id, preferred)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: id %d", serviceorder.ErrOrderNotFound, id)
	}

	order, err := hubsoft.ConvertOrder(records[0])
	if err != nil {
		return nil, err
	}

	if order.NeedsEnrichment() {
		e.enrichFromClient(ctx, order)
	}
	return order, nil
}

// fetchDetail walks the degradation ladder until the endpoint accepts a
// relation set.
func (e *Enricher) fetchDetail(ctx context.Context, id int64, preferred []string) ([]json.RawMessage, error) {
	var lastErr error
	for _, candidate := range serviceorder.DegradationLadder(preferred) {
		records, err := e.gateway.GetOrderDetail(ctx, id, candidate)
		if err == nil {
			return records, nil
		}
		if errors.Is(err, serviceorder.ErrRelationRejected) {
			e.logger.Debug("relation set rejected, narrowing",
				zap.Int64("id_ordem_servico", id),
				zap.Strings("relations", candidate))
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("all relation candidates rejected: %w", lastErr)
}

// enrichFromClient fills missing identity, service, and address fields from
// the client-lookup endpoint and the free-text address sources. Lookup
// failures are logged and leave the record as-is; the detail data alone is
// still worth persisting.
func (e *Enricher) enrichFromClient(ctx context.Context, order *serviceorder.ServiceOrder) {
	code := order.Cliente.CodigoCliente
	if code == "" {
		code = serviceorder.ExtractCustomerCode(order.ClienteRotulo)
	}

	freeTexts := []string{}
	if code != "" {
		lookup, err := e.lookupClient(ctx, code)
		if err != nil {
			e.logger.Warn("client lookup failed",
				zap.Int64("id_ordem_servico", order.IDOrdemServico),
				zap.String("codigo_cliente", code),
				zap.Error(err))
		} else if lookup != nil {
			order.Cliente.MergeMissing(lookup.Client)
			order.Endereco.MergeMissing(lookup.InstallationAddress)
			freeTexts = append(freeTexts, lookup.FreeTextAddresses...)
		}
	}
	// The record's own free-text installation address is the lowest-priority
	// source.
	if order.EnderecoInstalacaoTexto != "" {
		freeTexts = append(freeTexts, order.EnderecoInstalacaoTexto)
	}

	for _, text := range freeTexts {
		if order.Endereco.Complete() {
			return
		}
		order.Endereco.MergeMissing(serviceorder.ParseFreeTextAddress(text))
	}
}

// lookupClient resolves a customer code through the run-scoped cache.
// Absence is cached too, so a code that resolves to nothing is queried at
// most once per run.
func (e *Enricher) lookupClient(ctx context.Context, code string) (*hubsoft.ClientLookupResult, error) {
	e.mu.Lock()
	cached, hit := e.cache[code]
	e.mu.Unlock()
	if hit {
		return cached, nil
	}

	result, err := e.gateway.SearchClient(ctx, code)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[code] = result
	e.mu.Unlock()
	return result, nil
}
