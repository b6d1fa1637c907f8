package handler

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/posvenda/backend/internal/domain/serviceorder"
)

// OrderResponse is the JSON shape of a persisted service order.
type OrderResponse struct {
	IDOrdemServico int64  `json:"id_ordem_servico"`
	Numero         string `json:"numero,omitempty"`
	Tipo           string `json:"tipo,omitempty"`
	Status         string `json:"status,omitempty"`
	StatusServico  string `json:"status_servico,omitempty"`

	Cliente            string `json:"cliente,omitempty"`
	Servico            string `json:"servico,omitempty"`
	EnderecoInstalacao string `json:"endereco_instalacao,omitempty"`
	POP                string `json:"pop,omitempty"`

	DescricaoAbertura   string `json:"descricao_abertura,omitempty"`
	DescricaoServico    string `json:"descricao_servico,omitempty"`
	DescricaoFechamento string `json:"descricao_fechamento,omitempty"`
	Disponibilidade     string `json:"disponibilidade,omitempty"`

	ProtocoloAtendimento string `json:"protocolo_atendimento,omitempty"`
	TipoAtendimento      string `json:"tipo_atendimento,omitempty"`
	StatusAtendimento    string `json:"status_atendimento,omitempty"`
	NomeTecnico          string `json:"nome_tecnico,omitempty"`

	DataCadastro          *time.Time `json:"data_cadastro,omitempty"`
	DataInicioProgramado  *time.Time `json:"data_inicio_programado,omitempty"`
	DataTerminoProgramado *time.Time `json:"data_termino_programado,omitempty"`
	DataInicioExecutado   *time.Time `json:"data_inicio_executado,omitempty"`
	DataTerminoExecutado  *time.Time `json:"data_termino_executado,omitempty"`

	Assinado *int `json:"assinado,omitempty"`

	IDCliente          *int64 `json:"id_cliente,omitempty"`
	CodigoCliente      string `json:"codigo_cliente,omitempty"`
	NomeRazaoSocial    string `json:"nome_razaosocial,omitempty"`
	TelefonePrimario   string `json:"telefone_primario,omitempty"`
	TelefoneSecundario string `json:"telefone_secundario,omitempty"`
	ServicoDescricao   string `json:"servico_descricao,omitempty"`

	Endereco       string           `json:"endereco,omitempty"`
	NumeroEndereco string           `json:"numero_endereco,omitempty"`
	Bairro         string           `json:"bairro,omitempty"`
	Cidade         string           `json:"cidade,omitempty"`
	Estado         string           `json:"estado,omitempty"`
	CEP            string           `json:"cep,omitempty"`
	Latitude       *decimal.Decimal `json:"latitude,omitempty"`
	Longitude      *decimal.Decimal `json:"longitude,omitempty"`

	Raw json.RawMessage `json:"raw,omitempty"`
}

func orderResponse(order *serviceorder.ServiceOrder, includeRaw bool) OrderResponse {
	resp := OrderResponse{
		IDOrdemServico:        order.IDOrdemServico,
		Numero:                order.Numero,
		Tipo:                  order.Tipo,
		Status:                order.Status,
		StatusServico:         order.StatusServico,
		Cliente:               order.ClienteRotulo,
		Servico:               order.ServicoRotulo,
		EnderecoInstalacao:    order.EnderecoInstalacaoTexto,
		POP:                   order.POP,
		DescricaoAbertura:     order.DescricaoAbertura,
		DescricaoServico:      order.DescricaoServico,
		DescricaoFechamento:   order.DescricaoFechamento,
		Disponibilidade:       order.Disponibilidade,
		ProtocoloAtendimento:  order.Atendimento.Protocolo,
		TipoAtendimento:       order.Atendimento.Tipo,
		StatusAtendimento:     order.Atendimento.Status,
		NomeTecnico:           order.TecnicoPrincipal.Nome,
		DataCadastro:          order.DataCadastro,
		DataInicioProgramado:  order.DataInicioProgramado,
		DataTerminoProgramado: order.DataTerminoProgramado,
		DataInicioExecutado:   order.DataInicioExecutado,
		DataTerminoExecutado:  order.DataTerminoExecutado,
		Assinado:              order.Assinatura,
		IDCliente:             order.Cliente.IDCliente,
		CodigoCliente:         order.Cliente.CodigoCliente,
		NomeRazaoSocial:       order.Cliente.NomeRazaoSocial,
		TelefonePrimario:      order.Cliente.TelefonePrimario,
		TelefoneSecundario:    order.Cliente.TelefoneSecundario,
		ServicoDescricao:      order.Cliente.ServicoDescricao,
		Endereco:              order.Endereco.Endereco,
		NumeroEndereco:        order.Endereco.Numero,
		Bairro:                order.Endereco.Bairro,
		Cidade:                order.Endereco.Cidade,
		Estado:                order.Endereco.Estado,
		CEP:                   order.Endereco.CEP,
		Latitude:              order.Endereco.Latitude,
		Longitude:             order.Endereco.Longitude,
	}
	if includeRaw {
		resp.Raw = order.Raw
	}
	return resp
}

// OrderListQuery holds the list endpoint filters.
type OrderListQuery struct {
	Status     string `form:"status"`
	Search     string `form:"search"`
	DataInicio string `form:"data_inicio"`
	DataFim    string `form:"data_fim"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// OrdersHandler exposes the persisted order read endpoints.
type OrdersHandler struct {
	BaseHandler
	repo serviceorder.Repository
}

func NewOrdersHandler(repo serviceorder.Repository) *OrdersHandler {
	return &OrdersHandler{repo: repo}
}

// RegisterRoutes registers the order read endpoints.
func (h *OrdersHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/ordens")
	{
		orders.GET("", h.List)
		orders.GET("/concluidas/ontem", h.CompletedYesterday)
		orders.GET("/:id", h.Get)
	}
}

// List returns persisted orders matching the query filters.
func (h *OrdersHandler) List(c *gin.Context) {
	var query OrderListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 || query.PageSize > 100 {
		query.PageSize = 20
	}

	filter := serviceorder.ListFilter{
		Status: query.Status,
		Search: query.Search,
		Limit:  query.PageSize,
		Offset: (query.Page - 1) * query.PageSize,
	}
	if query.DataInicio != "" {
		from, err := time.Parse(dateLayout, query.DataInicio)
		if err != nil {
			h.BadRequest(c, "data_inicio must be YYYY-MM-DD")
			return
		}
		filter.DateFrom = &from
	}
	if query.DataFim != "" {
		to, err := time.Parse(dateLayout, query.DataFim)
		if err != nil {
			h.BadRequest(c, "data_fim must be YYYY-MM-DD")
			return
		}
		filter.DateTo = &to
	}

	orders, total, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, orderResponse(&orders[i], false))
	}
	h.SuccessWithMeta(c, items, total, query.Page, query.PageSize)
}

// Get returns a single order including its raw upstream payload.
func (h *OrdersHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.BadRequest(c, "id must be an integer")
		return
	}

	order, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, orderResponse(order, true))
}

// CompletedYesterday returns orders finalized during the previous day.
func (h *OrdersHandler) CompletedYesterday(c *gin.Context) {
	orders, err := h.repo.CompletedYesterday(c.Request.Context(), time.Now())
	if err != nil {
		h.DomainError(c, err)
		return
	}

	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, orderResponse(&orders[i], false))
	}
	h.Success(c, items)
}
