package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azoup/zpfbi/internal/dto"
)

func clienteReq(nome, api string) dto.ClienteRequest {
	return dto.ClienteRequest{
		Nome:        nome,
		API:         api,
		DataLicenca: "2027-01-31",
		Host:        "fbsrv",
		Porta:       "3050",
		Caminho:     "/dados/" + api + ".fdb",
		Usuario:     "SYSDBA",
		Senha:       "masterkey",
		Ativo:       "S",
	}
}

func TestClienteCriarEObter(t *testing.T) {
	repo := newStubClienteRepo()
	svc := NewClienteService(repo)

	criado, err := svc.Criar(context.Background(), clienteReq("ACME Ltda", "ACME1"))
	require.NoError(t, err)
	assert.Equal(t, "ACME1", criado.API)
	assert.Equal(t, "S", criado.Ativo)

	id, err := uuid.Parse(criado.ID)
	require.NoError(t, err)
	obtido, err := svc.ObterPorID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "ACME Ltda", obtido.Nome)
}

func TestClienteRespostaNaoExpoeSenha(t *testing.T) {
	svc := NewClienteService(newStubClienteRepo())
	criado, err := svc.Criar(context.Background(), clienteReq("ACME Ltda", "ACME1"))
	require.NoError(t, err)
	// O DTO de resposta nem tem campo de senha; o restante da conexão aparece.
	assert.Equal(t, "fbsrv", criado.Host)
	assert.Equal(t, "/dados/ACME1.fdb", criado.Caminho)
}

func TestClienteAtualizar(t *testing.T) {
	svc := NewClienteService(newStubClienteRepo())
	criado, err := svc.Criar(context.Background(), clienteReq("ACME Ltda", "ACME1"))
	require.NoError(t, err)
	id, _ := uuid.Parse(criado.ID)

	req := clienteReq("ACME Ltda", "ACME1")
	req.DataLicenca = "2028-12-31"
	atualizado, err := svc.Atualizar(context.Background(), id, req)
	require.NoError(t, err)
	assert.Equal(t, "2028-12-31", atualizado.DataLicenca)
}

func TestClienteNaoEncontrado(t *testing.T) {
	svc := NewClienteService(newStubClienteRepo())

	_, err := svc.ObterPorID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrClienteNaoEncontrado)

	_, err = svc.Atualizar(context.Background(), uuid.New(), clienteReq("X", "X1"))
	assert.ErrorIs(t, err, ErrClienteNaoEncontrado)

	err = svc.Excluir(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrClienteNaoEncontrado)
}

func TestClienteExcluir(t *testing.T) {
	svc := NewClienteService(newStubClienteRepo())
	criado, err := svc.Criar(context.Background(), clienteReq("ACME Ltda", "ACME1"))
	require.NoError(t, err)
	id, _ := uuid.Parse(criado.ID)

	require.NoError(t, svc.Excluir(context.Background(), id))
	_, err = svc.ObterPorID(context.Background(), id)
	assert.ErrorIs(t, err, ErrClienteNaoEncontrado)
}

func TestClienteListarPorNomeParcial(t *testing.T) {
	svc := NewClienteService(newStubClienteRepo())
	_, err := svc.Criar(context.Background(), clienteReq("ACME Ltda", "ACME1"))
	require.NoError(t, err)
	_, err = svc.Criar(context.Background(), clienteReq("Beta Comércio", "BETA1"))
	require.NoError(t, err)

	// Substring, sem diferenciar maiúsculas.
	lista, err := svc.Listar(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, lista, 1)
	assert.Equal(t, "ACME Ltda", lista[0].Nome)

	lista, err = svc.Listar(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, lista, 2)
}
