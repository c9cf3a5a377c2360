package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Azoup/zpfbi/internal/apierror"
	"github.com/Azoup/zpfbi/internal/dto"
	"github.com/Azoup/zpfbi/internal/middleware"
	"github.com/Azoup/zpfbi/internal/session"
	"github.com/Azoup/zpfbi/internal/tenant"
)

// SessaoHandler exposes the per-session filters and the connection probe.
type SessaoHandler struct {
	connector tenant.Connector
}

func NewSessaoHandler(connector tenant.Connector) *SessaoHandler {
	return &SessaoHandler{connector: connector}
}

func (h *SessaoHandler) ObterFiltros(c *gin.Context) {
	f := middleware.GetSessao(c).Filtros()
	c.JSON(http.StatusOK, dto.FiltrosResponse{
		Referencia:  f.Referencia,
		DataInicial: f.DataInicial.Format("2006-01-02"),
		DataFinal:   f.DataFinal.Format("2006-01-02"),
	})
}

func (h *SessaoHandler) DefinirFiltros(c *gin.Context) {
	var req dto.FiltrosRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ini, _ := time.Parse("2006-01-02", req.DataInicial)
	fim, _ := time.Parse("2006-01-02", req.DataFinal)
	if fim.Before(ini) {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("data final anterior à data inicial"))
		return
	}

	middleware.GetSessao(c).SetFiltros(session.Filtros{
		Referencia:  req.Referencia,
		DataInicial: ini,
		DataFinal:   fim,
	})
	c.JSON(http.StatusOK, dto.FiltrosResponse{
		Referencia:  req.Referencia,
		DataInicial: req.DataInicial,
		DataFinal:   req.DataFinal,
	})
}

// TestarConexao resolves the session's descriptor (optionally overridden by the
// request body) and probes the tenant database: open, ping, close. The outcome
// is reported in the body, never as an HTTP error — a failed probe is a valid
// answer.
func (h *SessaoHandler) TestarConexao(c *gin.Context) {
	var override map[string]any
	_ = c.ShouldBindJSON(&override) // body is optional

	sessao := middleware.GetSessao(c)
	if len(override) > 0 {
		sessao.SetOverride(override)
	}

	desc, err := sessao.Descritor()
	if err != nil {
		c.JSON(http.StatusOK, dto.TesteConexaoResponse{OK: false, Mensagem: err.Error()})
		return
	}
	if err := h.connector.Probe(c.Request.Context(), desc); err != nil {
		c.JSON(http.StatusOK, dto.TesteConexaoResponse{OK: false, Mensagem: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.TesteConexaoResponse{OK: true, Mensagem: "conexão estabelecida com sucesso"})
}
