package serviceorder

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ServiceOrder aggregate
// ---------------------------------------------------------------------------

// ServiceOrder is a Hubsoft field-service work order flattened into the shape
// persisted locally. The natural key is IDOrdemServico; re-ingesting the same
// id updates the stored row instead of duplicating it.
type ServiceOrder struct {
	// Identity
	IDOrdemServico int64
	Numero         string

	// Classification and state
	Tipo               string
	Status             string
	StatusServico      string
	IDTipoOrdemServico *int64

	// Free-text labels as returned by the listing endpoint
	ClienteRotulo           string
	ServicoRotulo           string
	EnderecoInstalacaoTexto string
	POP                     string

	// Descriptions
	DescricaoAbertura   string
	DescricaoServico    string
	DescricaoFechamento string
	Disponibilidade     string

	// Sub-records
	Atendimento      Atendimento
	TecnicoPrincipal Tecnico

	// Scheduling
	DataCadastro          *time.Time
	DataInicioProgramado  *time.Time
	DataTerminoProgramado *time.Time
	DataInicioExecutado   *time.Time
	DataTerminoExecutado  *time.Time

	// Assinatura is tri-state: 1 signed, 0 not signed, nil unknown.
	Assinatura *int

	// Enriched blocks
	Cliente  ClientBlock
	Endereco AddressBlock

	// Raw is the untouched upstream payload, retained for audit.
	Raw json.RawMessage
}

// Atendimento is the attendance sub-record attached to an order.
type Atendimento struct {
	Protocolo string
	ID        *int64
	Tipo      string
	Status    string
}

// Tecnico identifies the lead technician assigned to an order.
type Tecnico struct {
	ID   *int64
	Nome string
}

// ClientBlock carries the identity of the customer owning the order plus the
// contracted service chosen during enrichment.
type ClientBlock struct {
	IDCliente          *int64
	CodigoCliente      string
	NomeRazaoSocial    string
	TelefonePrimario   string
	TelefoneSecundario string
	IDClienteServico   *int64
	ServicoDescricao   string
}

// AddressBlock is the installation address. Fields are filled additively: an
// already-present non-empty value is never overwritten by an enrichment pass.
type AddressBlock struct {
	Endereco  string
	Numero    string
	Bairro    string
	Cidade    string
	Estado    string
	CEP       string
	Latitude  *decimal.Decimal
	Longitude *decimal.Decimal
}

// ---------------------------------------------------------------------------
// Merge-missing
// ---------------------------------------------------------------------------

// MergeMissing fills empty fields of the block from src, keeping every
// non-empty destination value.
func (a *AddressBlock) MergeMissing(src AddressBlock) {
	mergeString(&a.Endereco, src.Endereco)
	mergeString(&a.Numero, src.Numero)
	mergeString(&a.Bairro, src.Bairro)
	mergeString(&a.Cidade, src.Cidade)
	mergeString(&a.Estado, src.Estado)
	mergeString(&a.CEP, src.CEP)
	if a.Latitude == nil {
		a.Latitude = src.Latitude
	}
	if a.Longitude == nil {
		a.Longitude = src.Longitude
	}
}

// Complete reports whether every required address field is present.
// Coordinates count as required: a record without them is still a candidate
// for enrichment.
func (a *AddressBlock) Complete() bool {
	return a.Endereco != "" && a.Numero != "" && a.Bairro != "" &&
		a.Cidade != "" && a.Estado != "" && a.CEP != "" &&
		a.Latitude != nil && a.Longitude != nil
}

// MergeMissing fills empty fields of the block from src.
func (c *ClientBlock) MergeMissing(src ClientBlock) {
	if c.IDCliente == nil {
		c.IDCliente = src.IDCliente
	}
	mergeString(&c.CodigoCliente, src.CodigoCliente)
	mergeString(&c.NomeRazaoSocial, src.NomeRazaoSocial)
	mergeString(&c.TelefonePrimario, src.TelefonePrimario)
	mergeString(&c.TelefoneSecundario, src.TelefoneSecundario)
	if c.IDClienteServico == nil {
		c.IDClienteServico = src.IDClienteServico
	}
	mergeString(&c.ServicoDescricao, src.ServicoDescricao)
}

func mergeString(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

// NeedsEnrichment reports whether the order is missing customer identity,
// service description, or any required address subfield.
func (o *ServiceOrder) NeedsEnrichment() bool {
	if o.Cliente.IDCliente == nil || o.Cliente.NomeRazaoSocial == "" {
		return true
	}
	if o.Cliente.ServicoDescricao == "" {
		return true
	}
	return !o.Endereco.Complete()
}

// ---------------------------------------------------------------------------
// Upstream timestamp parsing
// ---------------------------------------------------------------------------

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats Hubsoft is known to emit.
// Returns nil for empty or unparseable input.
func ParseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// NormalizeSignature maps the upstream tri-state signature value to 1/0/nil.
// Hubsoft emits a bool, an int, or omits the field entirely.
func NormalizeSignature(v any) *int {
	switch x := v.(type) {
	case bool:
		n := 0
		if x {
			n = 1
		}
		return &n
	case float64:
		if x == 0 || x == 1 {
			n := int(x)
			return &n
		}
	case int:
		if x == 0 || x == 1 {
			n := x
			return &n
		}
	}
	return nil
}
