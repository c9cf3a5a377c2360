package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Azoup/zpfbi/internal/apierror"
	"github.com/Azoup/zpfbi/internal/dto"
	"github.com/Azoup/zpfbi/internal/service"
)

// ClientesHandler exposes the administrative CRUD over tenant records.
// Every route here sits behind RequirePerfil(Super Admin).
type ClientesHandler struct{ svc service.ClienteService }

func NewClientesHandler(svc service.ClienteService) *ClientesHandler {
	return &ClientesHandler{svc: svc}
}

func (h *ClientesHandler) Criar(c *gin.Context) {
	var req dto.ClienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Criar(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar lists tenant records, optionally filtered by ?nome= substring.
func (h *ClientesHandler) Listar(c *gin.Context) {
	clientes, err := h.svc.Listar(c.Request.Context(), c.Query("nome"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, clientes)
}

func (h *ClientesHandler) Obter(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.ObterPorID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrClienteNaoEncontrado) {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientesHandler) Atualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.ClienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Atualizar(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, service.ErrClienteNaoEncontrado) {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClientesHandler) Excluir(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	if err := h.svc.Excluir(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrClienteNaoEncontrado) {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
