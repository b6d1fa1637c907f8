package syncapp

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/posvenda/backend/internal/domain/serviceorder"
	"github.com/posvenda/backend/internal/infrastructure/hubsoft"
)

// detailWorkers caps how many detail/enrichment pipelines run concurrently.
const detailWorkers = 6

// Request describes one sync run over a registration date window.
type Request struct {
	DateFrom  time.Time
	DateTo    time.Time
	PageSize  int
	Relations []string
}

// Result aggregates what a run observed and persisted. Pagination echoes the
// last descriptor the listing endpoint sent, when it sent one.
type Result struct {
	Listed     int64               `json:"listed"`
	Saved      int64               `json:"saved"`
	Pagination *hubsoft.Pagination `json:"pagination,omitempty"`
}

// Orchestrator composes the lister, the enricher, and the repository into
// complete sync runs.
type Orchestrator struct {
	gateway Gateway
	repo    serviceorder.Repository
	logger  *zap.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(gateway Gateway, repo serviceorder.Repository, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		gateway: gateway,
		repo:    repo,
		logger:  logger,
	}
}

// RunShallow persists exactly what the listing endpoint returns, page by
// page, with no per-record enrichment. A listing failure aborts the run.
func (o *Orchestrator) RunShallow(ctx context.Context, req Request) (*Result, error) {
	result := &Result{}

	pagination, err := o.gateway.ListOrders(ctx, o.listRequest(req), func(page hubsoft.OrderPage) error {
		orders := o.convertPage(page)
		result.Listed += int64(len(page.Items))

		saved, err := o.repo.UpsertBatch(ctx, orders)
		if err != nil {
			return err
		}
		result.Saved += saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Pagination = pagination

	o.logger.Info("shallow sync finished",
		zap.Int64("listed", result.Listed),
		zap.Int64("saved", result.Saved))
	return result, nil
}

// RunDetailed lists the whole window first, then enriches every identifier
// through a fixed-size worker pool and persists the survivors. One failing
// identifier never aborts the run; it just contributes nothing.
func (o *Orchestrator) RunDetailed(ctx context.Context, req Request) (*Result, error) {
	if err := serviceorder.ValidateRelations(req.Relations); err != nil {
		return nil, err
	}
	relations := req.Relations
	if len(relations) == 0 {
		relations = serviceorder.DefaultRelations
	}

	result := &Result{}

	// Phase one: drain the listing and collect identifiers. The listing must
	// complete before any detail call so pagination is never interleaved
	// with enrichment load.
	var (
		ids  []int64
		seen = make(map[int64]struct{})
	)
	pagination, err := o.gateway.ListOrders(ctx, o.listRequest(req), func(page hubsoft.OrderPage) error {
		result.Listed += int64(len(page.Items))
		for _, raw := range page.Items {
			order, err := hubsoft.ConvertOrder(raw)
			if err != nil {
				o.logger.Warn("skipping unidentifiable listing record", zap.Error(err))
				continue
			}
			// Pagination drift on a busy upstream can repeat a record
			// across pages; each identifier is enriched once.
			if _, dup := seen[order.IDOrdemServico]; dup {
				continue
			}
			seen[order.IDOrdemServico] = struct{}{}
			ids = append(ids, order.IDOrdemServico)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Pagination = pagination

	// Phase two: fan identifiers out to the enrichment pool.
	enricher := NewEnricher(o.gateway, o.logger)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		enriched []*serviceorder.ServiceOrder
		failed   int
	)
	sem := make(chan struct{}, detailWorkers)
	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(id int64) {
			defer wg.Done()
			defer func() { <-sem }()

			order, err := enricher.Enrich(ctx, id, relations)
			if err != nil {
				o.logger.Warn("enrichment failed",
					zap.Int64("id_ordem_servico", id),
					zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			mu.Lock()
			enriched = append(enriched, order)
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	saved, err := o.repo.UpsertBatch(ctx, enriched)
	if err != nil {
		return nil, err
	}
	result.Saved = saved

	o.logger.Info("detailed sync finished",
		zap.Int64("listed", result.Listed),
		zap.Int64("saved", result.Saved),
		zap.Int("failed", failed))
	return result, nil
}

func (o *Orchestrator) listRequest(req Request) hubsoft.ListRequest {
	return hubsoft.ListRequest{
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		PageSize: req.PageSize,
	}
}

func (o *Orchestrator) convertPage(page hubsoft.OrderPage) []*serviceorder.ServiceOrder {
	orders := make([]*serviceorder.ServiceOrder, 0, len(page.Items))
	for _, raw := range page.Items {
		order, err := hubsoft.ConvertOrder(raw)
		if err != nil {
			o.logger.Warn("skipping malformed listing record", zap.Error(err))
			continue
		}
		orders = append(orders, order)
	}
	return orders
}
