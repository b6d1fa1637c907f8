package syncapp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/posvenda/backend/internal/domain/serviceorder"
	"github.com/posvenda/backend/internal/infrastructure/hubsoft"
)

// fakeGateway implements Gateway with pluggable behavior per test.
type fakeGateway struct {
	listOrders     func(ctx context.Context, req hubsoft.ListRequest, fn func(hubsoft.OrderPage) error) (*hubsoft.Pagination, error)
	getOrderDetail func(ctx context.Context, id int64, relations []string) ([]json.RawMessage, error)
	searchClient   func(ctx context.Context, code string) (*hubsoft.ClientLookupResult, error)
}

func (f *fakeGateway) ListOrders(ctx context.Context, req hubsoft.ListRequest, fn func(hubsoft.OrderPage) error) (*hubsoft.Pagination, error) {
	return f.listOrders(ctx, req, fn)
}

func (f *fakeGateway) GetOrderDetail(ctx context.Context, id int64, relations []string) ([]json.RawMessage, error) {
	return f.getOrderDetail(ctx, id, relations)
}

func (f *fakeGateway) SearchClient(ctx context.Context, code string) (*hubsoft.ClientLookupResult, error) {
	if f.searchClient == nil {
		return nil, nil
	}
	return f.searchClient(ctx, code)
}

func detailRecord(id int64) []json.RawMessage {
	return []json.RawMessage{json.RawMessage(fmt.Sprintf(`{"id_ordem_servico": %d, "cliente": "(777) Maria da Silva"}`, id))}
}

func TestEnrichDegradesRelationsUntilAccepted(t *testing.T) {
	var attempts [][]string
	gateway := &fakeGateway{
		getOrderDetail: func(_ context.Context, id int64, relations []string) ([]json.RawMessage, error) {
			attempts = append(attempts, relations)
			if len(relations) > 0 {
				return nil, fmt.Errorf("%w: relacao nao suportada", serviceorder.ErrRelationRejected)
			}
			return detailRecord(id), nil
		},
	}

	enricher := NewEnricher(gateway, zap.NewNop())

	order, err := enricher.Enrich(context.Background(), 42, []string{"tecnicos", "atendimento"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), order.IDOrdemServico)

	// Full set, one token narrower, then bare request.
	require.Len(t, attempts, 3)
	assert.Equal(t, []string{"tecnicos", "atendimento"}, attempts[0])
	assert.Equal(t, []string{"tecnicos"}, attempts[1])
	assert.Empty(t, attempts[2])
}

func TestEnrichAbandonsOnNonRelationError(t *testing.T) {
	var calls int
	gateway := &fakeGateway{
		getOrderDetail: func(context.Context, int64, []string) ([]json.RawMessage, error) {
			calls++
			return nil, fmt.Errorf("%w: ordem nao encontrada", serviceorder.ErrLogicalFailure)
		},
	}

	enricher := NewEnricher(gateway, zap.NewNop())

	_, err := enricher.Enrich(context.Background(), 42, []string{"tecnicos"})
	require.ErrorIs(t, err, serviceorder.ErrLogicalFailure)
	assert.Equal(t, 1, calls, "a non-relation logical error must not trigger degradation")
}

func TestEnrichFailsWhenAllCandidatesRejected(t *testing.T) {
	gateway := &fakeGateway{
		getOrderDetail: func(context.Context, int64, []string) ([]json.RawMessage, error) {
			return nil, fmt.Errorf("%w: sempre", serviceorder.ErrRelationRejected)
		},
	}

	enricher := NewEnricher(gateway, zap.NewNop())

	_, err := enricher.Enrich(context.Background(), 42, []string{"tecnicos"})
	require.ErrorIs(t, err, serviceorder.ErrRelationRejected)
}

func TestEnrichCachesClientLookups(t *testing.T) {
	var lookups int
	gateway := &fakeGateway{
		getOrderDetail: func(_ context.Context, id int64, _ []string) ([]json.RawMessage, error) {
			return detailRecord(id), nil
		},
		searchClient: func(_ context.Context, code string) (*hubsoft.ClientLookupResult, error) {
			lookups++
			assert.Equal(t, "777", code)
			return &hubsoft.ClientLookupResult{
				Client: serviceorder.ClientBlock{CodigoCliente: "777", NomeRazaoSocial: "Maria da Silva"},
			}, nil
		},
	}

	enricher := NewEnricher(gateway, zap.NewNop())

	first, err := enricher.Enrich(context.Background(), 1, nil)
	require.NoError(t, err)
	second, err := enricher.Enrich(context.Background(), 2, nil)
	require.NoError(t, err)

	assert.Equal(t, "Maria da Silva", first.Cliente.NomeRazaoSocial)
	assert.Equal(t, "Maria da Silva", second.Cliente.NomeRazaoSocial)
	assert.Equal(t, 1, lookups, "same customer code must be looked up once per run")
}

func TestEnrichCachesNegativeLookups(t *testing.T) {
	var lookups int
	gateway := &fakeGateway{
		getOrderDetail: func(_ context.Context, id int64, _ []string) ([]json.RawMessage, error) {
			return detailRecord(id), nil
		},
		searchClient: func(context.Context, string) (*hubsoft.ClientLookupResult, error) {
			lookups++
			return nil, nil
		},
	}

	enricher := NewEnricher(gateway, zap.NewNop())

	_, err := enricher.Enrich(context.Background(), 1, nil)
	require.NoError(t, err)
	_, err = enricher.Enrich(context.Background(), 2, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, lookups, "absence must be cached as well")
}

func TestEnrichSkipsLookupWithoutCustomerCode(t *testing.T) {
	gateway := &fakeGateway{
		getOrderDetail: func(context.Context, int64, []string) ([]json.RawMessage, error) {
			return []json.RawMessage{json.RawMessage(`{"id_ordem_servico": 1, "cliente": "Maria sem código"}`)}, nil
		},
		searchClient: func(context.Context, string) (*hubsoft.ClientLookupResult, error) {
			t.Fatal("lookup must not run when no customer code is extractable")
			return nil, nil
		},
	}

	enricher := NewEnricher(gateway, zap.NewNop())

	order, err := enricher.Enrich(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.IDOrdemServico)
}

func TestEnrichAddressFallbackChain(t *testing.T) {
	gateway := &fakeGateway{
		getOrderDetail: func(context.Context, int64, []string) ([]json.RawMessage, error) {
			// Structured address partially filled: street present, rest missing.
			return []json.RawMessage{json.RawMessage(`{
				"id_ordem_servico": 1,
				"cliente": "(777) Maria",
				"dados_endereco_instalacao": {"endereco": "das Palmeiras"}
			}`)}, nil
		},
		searchClient: func(context.Context, string) (*hubsoft.ClientLookupResult, error) {
			return &hubsoft.ClientLookupResult{
				Client: serviceorder.ClientBlock{CodigoCliente: "777"},
				FreeTextAddresses: []string{
					"Rua das Flores, 123 - Centro, São Paulo/SP CEP: 01000-000",
				},
			}, nil
		},
	}

	enricher := NewEnricher(gateway, zap.NewNop())

	order, err := enricher.Enrich(context.Background(), 1, nil)
	require.NoError(t, err)

	// Existing street wins; everything else comes from the parsed free text.
	assert.Equal(t, "das Palmeiras", order.Endereco.Endereco)
	assert.Equal(t, "123", order.Endereco.Numero)
	assert.Equal(t, "Centro", order.Endereco.Bairro)
	assert.Equal(t, "São Paulo", order.Endereco.Cidade)
	assert.Equal(t, "SP", order.Endereco.Estado)
	assert.Equal(t, "01000-000", order.Endereco.CEP)
}

func TestEnrichEmptyDetailResponse(t *testing.T) {
	gateway := &fakeGateway{
		getOrderDetail: func(context.Context, int64, []string) ([]json.RawMessage, error) {
			return nil, nil
		},
	}

	enricher := NewEnricher(gateway, zap.NewNop())

	_, err := enricher.Enrich(context.Background(), 1, nil)
	require.ErrorIs(t, err, serviceorder.ErrOrderNotFound)
}
