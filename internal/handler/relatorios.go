package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Azoup/zpfbi/internal/apierror"
	"github.com/Azoup/zpfbi/internal/middleware"
	"github.com/Azoup/zpfbi/internal/service"
)

type RelatoriosHandler struct{ svc service.RelatorioService }

func NewRelatoriosHandler(svc service.RelatorioService) *RelatoriosHandler {
	return &RelatoriosHandler{svc: svc}
}

// Dashboard godoc
// @Summary Indicadores do dashboard principal
// @Tags relatorios
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.DashboardResponse
// @Router /v1/relatorios/dashboard [get]
func (h *RelatoriosHandler) Dashboard(c *gin.Context) {
	sessao := middleware.GetSessao(c)
	resp, err := h.svc.Dashboard(c.Request.Context(), sessao)
	if err != nil {
		h.reportarErro(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RelatoriosHandler) Vendas(c *gin.Context) {
	sessao := middleware.GetSessao(c)
	resp, err := h.svc.Vendas(c.Request.Context(), sessao)
	if err != nil {
		h.reportarErro(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RelatoriosHandler) Vendedores(c *gin.Context) {
	sessao := middleware.GetSessao(c)
	resp, err := h.svc.Vendedores(c.Request.Context(), sessao)
	if err != nil {
		h.reportarErro(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VendedoresCSV streams the vendedor pivot as an attachment download.
func (h *RelatoriosHandler) VendedoresCSV(c *gin.Context) {
	sessao := middleware.GetSessao(c)
	data, filename, err := h.svc.VendedoresCSV(c.Request.Context(), sessao)
	if err != nil {
		h.reportarErro(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// reportarErro maps report failures: a session without empresa is the caller's
// problem, anything else (tenant DB unreachable, query failure) is a gateway
// level error since the upstream is the tenant's own database.
func (h *RelatoriosHandler) reportarErro(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSessaoSemEmpresa) {
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusBadGateway, apierror.New("Falha ao consultar o banco de dados da empresa"))
	_ = c.Error(err)
}
