package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Azoup/zpfbi/internal/dto"
	"github.com/Azoup/zpfbi/internal/model"
	"github.com/Azoup/zpfbi/internal/repository"
)

var ErrClienteNaoEncontrado = errors.New("cliente não encontrado")

// ClienteService is the administrative CRUD over tenant records. It mutates
// the record store only; nothing here touches tenant databases or sessions —
// a cliente edited mid-session takes effect on the next login.
type ClienteService interface {
	Criar(ctx context.Context, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, nome string) ([]dto.ClienteResponse, error)
	ObterPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Atualizar(ctx context.Context, id uuid.UUID, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	Excluir(ctx context.Context, id uuid.UUID) error
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Criar(ctx context.Context, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{}
	applyClienteRequest(c, req)
	if c.Ativo == "" {
		c.Ativo = "S"
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func (s *clienteService) Listar(ctx context.Context, nome string) ([]dto.ClienteResponse, error) {
	var (
		clientes []model.Cliente
		err      error
	)
	if nome != "" {
		clientes, err = s.repo.ListByNome(ctx, nome)
	} else {
		clientes, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		out = append(out, clienteToResponse(&clientes[i]))
	}
	return out, nil
}

func (s *clienteService) ObterPorID(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrClienteNaoEncontrado
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func (s *clienteService) Atualizar(ctx context.Context, id uuid.UUID, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrClienteNaoEncontrado
	}
	applyClienteRequest(c, req)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := clienteToResponse(c)
	return &resp, nil
}

func (s *clienteService) Excluir(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return ErrClienteNaoEncontrado
	}
	return s.repo.Delete(ctx, id)
}

func applyClienteRequest(c *model.Cliente, req dto.ClienteRequest) {
	c.Nome = req.Nome
	c.NomeFantasia = req.NomeFantasia
	c.CNPJ = req.CNPJ
	c.Cidade = req.Cidade
	c.Estado = req.Estado
	c.Celular = req.Celular
	c.Email = req.Email
	c.Mensalidade = req.Mensalidade
	c.API = req.API
	c.CodClienteAzoup = req.CodClienteAzoup
	c.DataInicio = req.DataInicio
	c.DataLicenca = req.DataLicenca
	c.DataCancelamento = req.DataCancelamento
	c.Host = req.Host
	c.Porta = req.Porta
	c.Caminho = req.Caminho
	c.Usuario = req.Usuario
	c.Senha = req.Senha
	if req.Ativo != "" {
		c.Ativo = req.Ativo
	}
}

func clienteToResponse(c *model.Cliente) dto.ClienteResponse {
	return dto.ClienteResponse{
		ID:               c.ID.String(),
		Nome:             c.Nome,
		NomeFantasia:     c.NomeFantasia,
		CNPJ:             c.CNPJ,
		Cidade:           c.Cidade,
		Estado:           c.Estado,
		Celular:          c.Celular,
		Email:            c.Email,
		Mensalidade:      c.Mensalidade,
		API:              c.API,
		CodClienteAzoup:  c.CodClienteAzoup,
		DataInicio:       c.DataInicio,
		DataLicenca:      c.DataLicenca,
		DataCancelamento: c.DataCancelamento,
		Host:             c.Host,
		Porta:            c.Porta,
		Caminho:          c.Caminho,
		Usuario:          c.Usuario,
		Ativo:            c.Ativo,
	}
}
