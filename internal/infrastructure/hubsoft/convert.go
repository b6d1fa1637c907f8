package hubsoft

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/posvenda/backend/internal/domain/serviceorder"
)

// ConvertOrder flattens a raw Hubsoft order payload into the domain shape.
// The untouched payload is retained on the record for audit.
func ConvertOrder(raw json.RawMessage) (*serviceorder.ServiceOrder, error) {
	var src rawOrder
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("%w: %v", serviceorder.ErrInvalidResponse, err)
	}
	if src.IDOrdemServico.Value == nil {
		return nil, serviceorder.ErrMissingIdentifier
	}

	order := &serviceorder.ServiceOrder{
		IDOrdemServico:          *src.IDOrdemServico.Value,
		Numero:                  src.Numero.String(),
		Tipo:                    src.Tipo,
		Status:                  src.Status,
		StatusServico:           src.StatusServico,
		IDTipoOrdemServico:      src.IDTipoOrdemServico.Value,
		ClienteRotulo:           src.Cliente,
		ServicoRotulo:           src.Servico,
		EnderecoInstalacaoTexto: src.EnderecoInstalacao,
		POP:                     src.POP,
		DescricaoAbertura:       src.DescricaoAbertura,
		DescricaoServico:        src.DescricaoServico,
		DescricaoFechamento:     src.DescricaoFechamento,
		Disponibilidade:         src.Disponibilidade,
		DataCadastro:            serviceorder.ParseTimestamp(src.DataCadastro),
		DataInicioProgramado:    serviceorder.ParseTimestamp(src.DataInicioProgramado),
		DataTerminoProgramado:   serviceorder.ParseTimestamp(src.DataTerminoProgramado),
		DataInicioExecutado:     serviceorder.ParseTimestamp(src.DataInicioExecutado),
		DataTerminoExecutado:    serviceorder.ParseTimestamp(src.DataTerminoExecutado),
		Assinatura:              serviceorder.NormalizeSignature(src.Assinatura["assinado"]),
		Raw:                     raw,
	}

	if src.Atendimento != nil {
		order.Atendimento = serviceorder.Atendimento{
			Protocolo: src.Atendimento.Protocolo.String(),
			ID:        src.Atendimento.IDAtendimento.Value,
			Tipo:      src.Atendimento.TipoAtendimento,
			Status:    src.Atendimento.StatusAtendimento,
		}
	}
	if len(src.Tecnicos) > 0 {
		order.TecnicoPrincipal = serviceorder.Tecnico{
			ID:   src.Tecnicos[0].ID.Value,
			Nome: src.Tecnicos[0].Nome.String(),
		}
	}
	if src.DadosCliente != nil {
		order.Cliente.IDCliente = src.DadosCliente.IDCliente.Value
		order.Cliente.CodigoCliente = src.DadosCliente.CodigoCliente.String()
		order.Cliente.NomeRazaoSocial = src.DadosCliente.NomeRazaoSocial
		if src.DadosCliente.Telefones != nil {
			order.Cliente.TelefonePrimario = src.DadosCliente.Telefones.TelefonePrimario.String()
			order.Cliente.TelefoneSecundario = src.DadosCliente.Telefones.TelefoneSecundario.String()
		}
	}
	if src.DadosServico != nil {
		order.Cliente.IDClienteServico = src.DadosServico.IDClienteServico.Value
		order.Cliente.ServicoDescricao = src.DadosServico.Descricao
	}
	if src.DadosEndereco != nil {
		order.Endereco = convertEndereco(src.DadosEndereco)
	}

	return order, nil
}

func convertEndereco(src *rawEndereco) serviceorder.AddressBlock {
	block := serviceorder.AddressBlock{
		Endereco:  src.Endereco,
		Numero:    src.Numero.String(),
		Bairro:    src.Bairro,
		Cidade:    src.Cidade,
		Estado:    src.Estado,
		CEP:       src.CEP.String(),
		Latitude:  src.Latitude.Value,
		Longitude: src.Longitude.Value,
	}
	if src.Coordenadas != nil {
		if block.Latitude == nil {
			block.Latitude = src.Coordenadas.Latitude.Value
		}
		if block.Longitude == nil {
			block.Longitude = src.Coordenadas.Longitude.Value
		}
	}
	return block
}

// ClientLookupResult is what a client lookup supplies for enrichment: the
// customer identity, the structured installation address of the chosen
// service, and lower-priority free-text address sources.
type ClientLookupResult struct {
	Client              serviceorder.ClientBlock
	InstallationAddress serviceorder.AddressBlock
	FreeTextAddresses   []string
}

// convertClient picks the enabled service (falling back to the first one)
// and collects address sources in priority order: the service's structured
// installation address, then cadastral, fiscal, and billing free texts.
func convertClient(raw json.RawMessage) (*ClientLookupResult, error) {
	var src rawClient
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("%w: %v", serviceorder.ErrInvalidResponse, err)
	}

	result := &ClientLookupResult{
		Client: serviceorder.ClientBlock{
			IDCliente:          src.IDCliente.Value,
			CodigoCliente:      src.CodigoCliente.String(),
			NomeRazaoSocial:    src.NomeRazaoSocial,
			TelefonePrimario:   src.TelefonePrimario.String(),
			TelefoneSecundario: src.TelefoneSecundario.String(),
		},
	}
	if src.Telefones != nil {
		if result.Client.TelefonePrimario == "" {
			result.Client.TelefonePrimario = src.Telefones.TelefonePrimario.String()
		}
		if result.Client.TelefoneSecundario == "" {
			result.Client.TelefoneSecundario = src.Telefones.TelefoneSecundario.String()
		}
	}

	if service := chooseService(src.Servicos); service != nil {
		result.Client.IDClienteServico = service.IDClienteServico.Value
		result.Client.ServicoDescricao = service.Descricao
		if service.Endereco != nil {
			result.InstallationAddress = convertEndereco(service.Endereco)
		}
		if service.EnderecoTexto != "" {
			result.FreeTextAddresses = append(result.FreeTextAddresses, service.EnderecoTexto)
		}
	}

	for _, free := range []*rawFreeAddress{src.EnderecoCadastral, src.EnderecoFiscal, src.EnderecoCobranca} {
		if free != nil && free.EnderecoCompleto != "" {
			result.FreeTextAddresses = append(result.FreeTextAddresses, free.EnderecoCompleto)
		}
	}

	return result, nil
}

// chooseService returns the first service whose status indicates it is
// enabled, otherwise the first service available.
func chooseService(services []rawClientService) *rawClientService {
	for i := range services {
		status := strings.ToLower(services[i].Status + " " + services[i].StatusPrefixo)
		if strings.Contains(status, "desabilitado") || strings.Contains(status, "disabled") {
			continue
		}
		if strings.Contains(status, "habilitado") || strings.Contains(status, "enabled") {
			return &services[i]
		}
	}
	if len(services) > 0 {
		return &services[0]
	}
	return nil
}
