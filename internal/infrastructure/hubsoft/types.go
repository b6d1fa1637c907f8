package hubsoft

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Tolerant JSON scalars
// ---------------------------------------------------------------------------
//
// Hubsoft is not consistent about scalar types: ids arrive as numbers or
// strings depending on the endpoint, and coordinates flip between the two.
// These wrappers absorb the variance at the decoding boundary.

// flexString decodes a JSON string or number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return string(f) }

// flexInt64 decodes a JSON number or numeric string into an optional int64.
type flexInt64 struct {
	Value *int64
}

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		f.Value = nil
		return nil
	}
	n, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		// Non-numeric identifiers are treated as absent, not fatal.
		f.Value = nil
		return nil
	}
	f.Value = &n
	return nil
}

// flexDecimal decodes a JSON number or numeric string into an optional
// decimal, used for coordinates.
type flexDecimal struct {
	Value *decimal.Decimal
}

func (f *flexDecimal) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(string(s))
	if trimmed == "" {
		f.Value = nil
		return nil
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		f.Value = nil
		return nil
	}
	f.Value = &d
	return nil
}

// ---------------------------------------------------------------------------
// Listing / detail envelopes
// ---------------------------------------------------------------------------

// Pagination is the optional pagination descriptor on listing responses.
type Pagination struct {
	PaginaAtual    int64 `json:"pagina_atual"`
	UltimaPagina   int64 `json:"ultima_pagina"`
	TotalRegistros int64 `json:"total_registros,omitempty"`
}

// listEnvelope is the raw body of listing and detail responses. The record
// list moves between keys across endpoint versions, sometimes nested under
// a "dados" wrapper, so every known location is kept.
type listEnvelope struct {
	Status        string          `json:"status"`
	Msg           string          `json:"msg"`
	OrdensServico json.RawMessage `json:"ordens_servico"`
	OrdemServico  json.RawMessage `json:"ordem_servico"`
	Ordens        json.RawMessage `json:"ordens"`
	Dados         json.RawMessage `json:"dados"`
	Paginacao     *Pagination     `json:"paginacao"`
}

// success reports whether the body carries a success status. Listing
// responses often omit the status field entirely; absence counts as success
// because the HTTP layer already filtered hard failures.
func (e *listEnvelope) success() bool {
	return e.Status == "" || strings.EqualFold(e.Status, "success")
}

// relationRejected reports whether the failure message points at the
// relation list, which is the degradation trigger.
func (e *listEnvelope) relationRejected() bool {
	msg := strings.ToLower(e.Msg)
	return strings.Contains(msg, "relac") || strings.Contains(msg, "relation")
}

// extractRecords normalizes the record list out of the envelope, trying each
// known key in a fixed order and treating a bare object as a single-element
// list.
func (e *listEnvelope) extractRecords() []json.RawMessage {
	for _, candidate := range []json.RawMessage{e.OrdensServico, e.OrdemServico, e.Ordens} {
		if items := asRecordList(candidate); items != nil {
			return items
		}
	}
	if len(e.Dados) > 0 {
		// "dados" may hold the list directly or wrap the envelope again.
		if items := asRecordList(e.Dados); items != nil {
			return items
		}
		var inner listEnvelope
		if err := json.Unmarshal(e.Dados, &inner); err == nil {
			for _, candidate := range []json.RawMessage{inner.OrdensServico, inner.OrdemServico, inner.Ordens} {
				if items := asRecordList(candidate); items != nil {
					return items
				}
			}
		}
	}
	return nil
}

func asRecordList(raw json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil
		}
		return items
	case '{':
		return []json.RawMessage{json.RawMessage(trimmed)}
	default:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Order payload
// ---------------------------------------------------------------------------

type rawOrder struct {
	IDOrdemServico     flexInt64  `json:"id_ordem_servico"`
	Numero             flexString `json:"numero"`
	Tipo               string     `json:"tipo"`
	Status             string     `json:"status"`
	StatusServico      string     `json:"status_servico"`
	IDTipoOrdemServico flexInt64  `json:"id_tipo_ordem_servico"`

	Cliente            string `json:"cliente"`
	Servico            string `json:"servico"`
	EnderecoInstalacao string `json:"endereco_instalacao"`
	POP                string `json:"pop"`

	DescricaoAbertura   string `json:"descricao_abertura"`
	DescricaoServico    string `json:"descricao_servico"`
	DescricaoFechamento string `json:"descricao_fechamento"`
	Disponibilidade     string `json:"disponibilidade"`

	DataCadastro          string `json:"data_cadastro"`
	DataInicioProgramado  string `json:"data_inicio_programado"`
	DataTerminoProgramado string `json:"data_termino_programado"`
	DataInicioExecutado   string `json:"data_inicio_executado"`
	DataTerminoExecutado  string `json:"data_termino_executado"`

	Atendimento *rawAtendimento `json:"atendimento"`
	Tecnicos    []rawTecnico    `json:"tecnicos"`

	DadosCliente  *rawDadosCliente  `json:"dados_cliente"`
	DadosServico  *rawDadosServico  `json:"dados_servico"`
	DadosEndereco *rawEndereco      `json:"dados_endereco_instalacao"`
	Assinatura    map[string]any    `json:"assinatura"`
}

type rawAtendimento struct {
	Protocolo         flexString `json:"protocolo"`
	IDAtendimento     flexInt64  `json:"id_atendimento"`
	TipoAtendimento   string     `json:"tipo_atendimento"`
	StatusAtendimento string     `json:"status_atendimento"`
}

type rawTecnico struct {
	ID   flexInt64  `json:"id"`
	Nome flexString `json:"name"`
}

type rawDadosCliente struct {
	IDCliente       flexInt64     `json:"id_cliente"`
	CodigoCliente   flexString    `json:"codigo_cliente"`
	NomeRazaoSocial string        `json:"nome_razaosocial"`
	Telefones       *rawTelefones `json:"telefones"`
}

type rawTelefones struct {
	TelefonePrimario   flexString `json:"telefone_primario"`
	TelefoneSecundario flexString `json:"telefone_secundario"`
}

type rawDadosServico struct {
	IDClienteServico flexInt64 `json:"id_cliente_servico"`
	Descricao        string    `json:"descricao"`
}

type rawEndereco struct {
	Endereco    string          `json:"endereco"`
	Numero      flexString      `json:"numero"`
	Bairro      string          `json:"bairro"`
	Cidade      string          `json:"cidade"`
	Estado      string          `json:"estado"`
	CEP         flexString      `json:"cep"`
	Coordenadas *rawCoordenadas `json:"coordenadas"`
	Latitude    flexDecimal     `json:"latitude"`
	Longitude   flexDecimal     `json:"longitude"`
}

type rawCoordenadas struct {
	Latitude  flexDecimal `json:"latitude"`
	Longitude flexDecimal `json:"longitude"`
}

// ---------------------------------------------------------------------------
// Client lookup payload
// ---------------------------------------------------------------------------

type clientLookupEnvelope struct {
	Status   string          `json:"status"`
	Msg      string          `json:"msg"`
	Clientes json.RawMessage `json:"clientes"`
	Dados    json.RawMessage `json:"dados"`
}

func (e *clientLookupEnvelope) extractClients() []json.RawMessage {
	if items := asRecordList(e.Clientes); items != nil {
		return items
	}
	if items := asRecordList(e.Dados); items != nil {
		return items
	}
	return nil
}

type rawClient struct {
	IDCliente          flexInt64          `json:"id_cliente"`
	CodigoCliente      flexString         `json:"codigo_cliente"`
	NomeRazaoSocial    string             `json:"nome_razaosocial"`
	Telefones          *rawTelefones      `json:"telefones"`
	TelefonePrimario   flexString         `json:"telefone_primario"`
	TelefoneSecundario flexString         `json:"telefone_secundario"`
	Servicos           []rawClientService `json:"servicos"`

	EnderecoCadastral *rawFreeAddress `json:"endereco_cadastral"`
	EnderecoFiscal    *rawFreeAddress `json:"endereco_fiscal"`
	EnderecoCobranca  *rawFreeAddress `json:"endereco_cobranca"`
}

type rawClientService struct {
	IDClienteServico flexInt64    `json:"id_cliente_servico"`
	Descricao        string       `json:"descricao"`
	Status           string       `json:"status"`
	StatusPrefixo    string       `json:"status_prefixo"`
	Endereco         *rawEndereco `json:"dados_endereco_instalacao"`
	EnderecoTexto    string       `json:"endereco_instalacao"`
}

type rawFreeAddress struct {
	EnderecoCompleto string `json:"endereco_completo"`
}
