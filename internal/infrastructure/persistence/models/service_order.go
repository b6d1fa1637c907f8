package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/posvenda/backend/internal/domain/serviceorder"
)

// ServiceOrderModel is the flattened persistence shape of a Hubsoft service
// order. The natural key id_ordem_servico makes re-ingestion idempotent.
type ServiceOrderModel struct {
	IDOrdemServico int64  `gorm:"column:id_ordem_servico;primaryKey;autoIncrement:false"`
	Numero         string `gorm:"column:numero;size:50;index"`

	Tipo               string `gorm:"column:tipo;size:100"`
	Status             string `gorm:"column:status;size:100;index"`
	StatusServico      string `gorm:"column:status_servico;size:100"`
	IDTipoOrdemServico *int64 `gorm:"column:id_tipo_ordem_servico"`

	Cliente            string `gorm:"column:cliente;size:255"`
	Servico            string `gorm:"column:servico;size:255"`
	EnderecoInstalacao string `gorm:"column:endereco_instalacao;size:500"`
	POP                string `gorm:"column:pop;size:100"`

	DescricaoAbertura   string `gorm:"column:descricao_abertura;type:text"`
	DescricaoServico    string `gorm:"column:descricao_servico;type:text"`
	DescricaoFechamento string `gorm:"column:descricao_fechamento;type:text"`
	Disponibilidade     string `gorm:"column:disponibilidade;size:255"`

	ProtocoloAtendimento string `gorm:"column:protocolo_atendimento;size:50"`
	IDAtendimento        *int64 `gorm:"column:id_atendimento"`
	TipoAtendimento      string `gorm:"column:tipo_atendimento;size:100"`
	StatusAtendimento    string `gorm:"column:status_atendimento;size:100"`

	IDTecnico   *int64 `gorm:"column:id_tecnico"`
	NomeTecnico string `gorm:"column:nome_tecnico;size:255"`

	DataCadastro          *time.Time `gorm:"column:data_cadastro;index"`
	DataInicioProgramado  *time.Time `gorm:"column:data_inicio_programado"`
	DataTerminoProgramado *time.Time `gorm:"column:data_termino_programado"`
	DataInicioExecutado   *time.Time `gorm:"column:data_inicio_executado"`
	DataTerminoExecutado  *time.Time `gorm:"column:data_termino_executado;index"`

	Assinado *int `gorm:"column:assinado"`

	IDCliente          *int64 `gorm:"column:id_cliente"`
	CodigoCliente      string `gorm:"column:codigo_cliente;size:50;index"`
	NomeRazaoSocial    string `gorm:"column:nome_razaosocial;size:255"`
	TelefonePrimario   string `gorm:"column:telefone_primario;size:50"`
	TelefoneSecundario string `gorm:"column:telefone_secundario;size:50"`
	IDClienteServico   *int64 `gorm:"column:id_cliente_servico"`
	ServicoDescricao   string `gorm:"column:servico_descricao;size:255"`

	Endereco       string           `gorm:"column:endereco;size:255"`
	NumeroEndereco string           `gorm:"column:numero_endereco;size:50"`
	Bairro         string           `gorm:"column:bairro;size:100"`
	Cidade         string           `gorm:"column:cidade;size:100"`
	Estado         string           `gorm:"column:estado;size:2"`
	CEP            string           `gorm:"column:cep;size:10"`
	Latitude       *decimal.Decimal `gorm:"column:latitude;type:decimal(10,7)"`
	Longitude      *decimal.Decimal `gorm:"column:longitude;type:decimal(10,7)"`

	Raw string `gorm:"column:raw;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName returns the table name for ServiceOrderModel
func (ServiceOrderModel) TableName() string {
	return "ordens_servico"
}

// ServiceOrderModelFromDomain converts a domain service order to its
// persistence model.
func ServiceOrderModelFromDomain(o *serviceorder.ServiceOrder) *ServiceOrderModel {
	return &ServiceOrderModel{
		IDOrdemServico:     o.IDOrdemServico,
		Numero:             o.Numero,
		Tipo:               o.Tipo,
		Status:             o.Status,
		StatusServico:      o.StatusServico,
		IDTipoOrdemServico: o.IDTipoOrdemServico,

		Cliente:            o.ClienteRotulo,
		Servico:            o.ServicoRotulo,
		EnderecoInstalacao: o.EnderecoInstalacaoTexto,
		POP:                o.POP,

		DescricaoAbertura:   o.DescricaoAbertura,
		DescricaoServico:    o.DescricaoServico,
		DescricaoFechamento: o.DescricaoFechamento,
		Disponibilidade:     o.Disponibilidade,

		ProtocoloAtendimento: o.Atendimento.Protocolo,
		IDAtendimento:        o.Atendimento.ID,
		TipoAtendimento:      o.Atendimento.Tipo,
		StatusAtendimento:    o.Atendimento.Status,

		IDTecnico:   o.TecnicoPrincipal.ID,
		NomeTecnico: o.TecnicoPrincipal.Nome,

		DataCadastro:          o.DataCadastro,
		DataInicioProgramado:  o.DataInicioProgramado,
		DataTerminoProgramado: o.DataTerminoProgramado,
		DataInicioExecutado:   o.DataInicioExecutado,
		DataTerminoExecutado:  o.DataTerminoExecutado,

		Assinado: o.Assinatura,

		IDCliente:          o.Cliente.IDCliente,
		CodigoCliente:      o.Cliente.CodigoCliente,
		NomeRazaoSocial:    o.Cliente.NomeRazaoSocial,
		TelefonePrimario:   o.Cliente.TelefonePrimario,
		TelefoneSecundario: o.Cliente.TelefoneSecundario,
		IDClienteServico:   o.Cliente.IDClienteServico,
		ServicoDescricao:   o.Cliente.ServicoDescricao,

		Endereco:       o.Endereco.Endereco,
		NumeroEndereco: o.Endereco.Numero,
		Bairro:         o.Endereco.Bairro,
		Cidade:         o.Endereco.Cidade,
		Estado:         o.Endereco.Estado,
		CEP:            o.Endereco.CEP,
		Latitude:       o.Endereco.Latitude,
		Longitude:      o.Endereco.Longitude,

		Raw: string(o.Raw),
	}
}

// ToDomain converts ServiceOrderModel back to the domain shape.
func (m *ServiceOrderModel) ToDomain() *serviceorder.ServiceOrder {
	order := &serviceorder.ServiceOrder{
		IDOrdemServico:     m.IDOrdemServico,
		Numero:             m.Numero,
		Tipo:               m.Tipo,
		Status:             m.Status,
		StatusServico:      m.StatusServico,
		IDTipoOrdemServico: m.IDTipoOrdemServico,

		ClienteRotulo:           m.Cliente,
		ServicoRotulo:           m.Servico,
		EnderecoInstalacaoTexto: m.EnderecoInstalacao,
		POP:                     m.POP,

		DescricaoAbertura:   m.DescricaoAbertura,
		DescricaoServico:    m.DescricaoServico,
		DescricaoFechamento: m.DescricaoFechamento,
		Disponibilidade:     m.Disponibilidade,

		Atendimento: serviceorder.Atendimento{
			Protocolo: m.ProtocoloAtendimento,
			ID:        m.IDAtendimento,
			Tipo:      m.TipoAtendimento,
			Status:    m.StatusAtendimento,
		},
		TecnicoPrincipal: serviceorder.Tecnico{
			ID:   m.IDTecnico,
			Nome: m.NomeTecnico,
		},

		DataCadastro:          m.DataCadastro,
		DataInicioProgramado:  m.DataInicioProgramado,
		DataTerminoProgramado: m.DataTerminoProgramado,
		DataInicioExecutado:   m.DataInicioExecutado,
		DataTerminoExecutado:  m.DataTerminoExecutado,

		Assinatura: m.Assinado,

		Cliente: serviceorder.ClientBlock{
			IDCliente:          m.IDCliente,
			CodigoCliente:      m.CodigoCliente,
			NomeRazaoSocial:    m.NomeRazaoSocial,
			TelefonePrimario:   m.TelefonePrimario,
			TelefoneSecundario: m.TelefoneSecundario,
			IDClienteServico:   m.IDClienteServico,
			ServicoDescricao:   m.ServicoDescricao,
		},
		Endereco: serviceorder.AddressBlock{
			Endereco:  m.Endereco,
			Numero:    m.NumeroEndereco,
			Bairro:    m.Bairro,
			Cidade:    m.Cidade,
			Estado:    m.Estado,
			CEP:       m.CEP,
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
		},
	}
	if m.Raw != "" {
		order.Raw = []byte(m.Raw)
	}
	return order
}
