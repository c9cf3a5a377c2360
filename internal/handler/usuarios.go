package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Azoup/zpfbi/internal/apierror"
	"github.com/Azoup/zpfbi/internal/dto"
	"github.com/Azoup/zpfbi/internal/middleware"
	"github.com/Azoup/zpfbi/internal/service"
)

type UsuariosHandler struct{ svc service.UsuarioService }

func NewUsuariosHandler(svc service.UsuarioService) *UsuariosHandler {
	return &UsuariosHandler{svc: svc}
}

// Cadastrar creates an account affiliated to the caller's empresa. The api key
// comes from the session claims, never from the request body.
func (h *UsuariosHandler) Cadastrar(c *gin.Context) {
	var req dto.CadastrarUsuarioRequest
	if !bindAndValidate(c, &req) {
		return
	}

	claims := middleware.GetClaims(c)
	resp, err := h.svc.Cadastrar(c.Request.Context(), claims.API, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailJaCadastrado):
			c.JSON(http.StatusConflict, apierror.New(err.Error()))
		case errors.Is(err, service.ErrEmpresaNaoEncontrada):
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		default:
			_ = c.Error(err)
		}
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CadastrarSuperAdmin provisions a Super Admin for an arbitrary empresa.
func (h *UsuariosHandler) CadastrarSuperAdmin(c *gin.Context) {
	var req dto.CadastrarSuperAdminRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.CadastrarSuperAdmin(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailJaCadastrado):
			c.JSON(http.StatusConflict, apierror.New(err.Error()))
		case errors.Is(err, service.ErrEmpresaNaoEncontrada):
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		default:
			_ = c.Error(err)
		}
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *UsuariosHandler) Listar(c *gin.Context) {
	claims := middleware.GetClaims(c)
	usuarios, err := h.svc.ListarPorEmpresa(c.Request.Context(), claims.API)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, usuarios)
}

func (h *UsuariosHandler) Desativar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	claims := middleware.GetClaims(c)
	if err := h.svc.Desativar(c.Request.Context(), claims.API, id); err != nil {
		if errors.Is(err, service.ErrUsuarioNaoEncontrado) {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UsuariosHandler) Reativar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Reativar(c.Request.Context(), claims.API, id)
	if err != nil {
		if errors.Is(err, service.ErrUsuarioNaoEncontrado) {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
