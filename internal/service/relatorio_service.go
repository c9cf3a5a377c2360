package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Azoup/zpfbi/internal/config"
	"github.com/Azoup/zpfbi/internal/dto"
	"github.com/Azoup/zpfbi/internal/session"
	"github.com/Azoup/zpfbi/internal/tenant"
)

var ErrSessaoSemEmpresa = errors.New("sessão sem empresa autenticada")

const dataLayout = "2006-01-02"

// RelatorioService executes the aggregate queries against the tenant Firebird
// database. Every call opens its own fresh connection and closes it before
// returning; results are cached in Redis (best effort, short TTL) keyed by
// empresa and filters. All SQL is parametrized — filter values never get
// interpolated into query text.
type RelatorioService interface {
	Dashboard(ctx context.Context, sessao *session.Sessao) (*dto.DashboardResponse, error)
	Vendas(ctx context.Context, sessao *session.Sessao) (*dto.VendasResponse, error)
	Vendedores(ctx context.Context, sessao *session.Sessao) (*dto.VendedoresResponse, error)
	// VendedoresCSV renders the vendedor × referência pivot as CSV
	// (semicolon-separated, decimal comma), returning content and filename.
	VendedoresCSV(ctx context.Context, sessao *session.Sessao) ([]byte, string, error)
}

type relatorioService struct {
	connector tenant.Connector
	rdb       *redis.Client // nil in unit test mode — cache disabled
	cacheTTL  time.Duration
}

func NewRelatorioService(connector tenant.Connector, rdb *redis.Client, cfg *config.Config) RelatorioService {
	ttl := time.Duration(cfg.RelatorioCacheTTLMinutes) * time.Minute
	return &relatorioService{connector: connector, rdb: rdb, cacheTTL: ttl}
}

// ─── Dashboard ───────────────────────────────────────────────────────────────

func (s *relatorioService) Dashboard(ctx context.Context, sessao *session.Sessao) (*dto.DashboardResponse, error) {
	cliente := sessao.Cliente()
	if cliente == nil {
		return nil, ErrSessaoSemEmpresa
	}
	filtros := sessao.Filtros()
	dataIni := filtros.DataInicial.Format(dataLayout)
	dataFim := filtros.DataFinal.Format(dataLayout)

	var resp dto.DashboardResponse
	cacheKey := fmt.Sprintf("relatorio:dashboard:%s:%s:%s", cliente.API, dataIni, dataFim)
	if s.fromCache(ctx, cacheKey, &resp) {
		return &resp, nil
	}

	desc, err := sessao.Descritor()
	if err != nil {
		return nil, err
	}
	db, err := s.connector.Connect(ctx, desc)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	const qNovos = `
		SELECT CAST(COUNT(*) AS INTEGER)
		FROM CLIENTES
		WHERE DATA_CADASTRO >= CURRENT_DATE - 90`
	if err := db.GetContext(ctx, &resp.NovosClientes, qNovos); err != nil {
		return nil, fmt.Errorf("novos clientes: %w", err)
	}

	const qAtivos = `
		SELECT CAST(COUNT(*) AS INTEGER)
		FROM CLIENTES
		WHERE INATIVO = 'N'`
	if err := db.GetContext(ctx, &resp.ClientesAtivos, qAtivos); err != nil {
		return nil, fmt.Errorf("clientes ativos: %w", err)
	}

	// Indicadores consolidados da view VW_KPI_BI, um tipo por linha.
	const qKPI = `
		SELECT COALESCE(SUM(VALOR), 0)
		FROM VW_KPI_BI
		WHERE TIPO = ? AND DATA BETWEEN ? AND ?`
	kpi := func(tipo string) (decimal.Decimal, error) {
		var v decimal.Decimal
		err := db.GetContext(ctx, &v, qKPI, tipo, dataIni, dataFim)
		return v, err
	}

	if resp.TotalVendas, err = kpi("TOTAL VENDAS"); err != nil {
		return nil, fmt.Errorf("kpi total vendas: %w", err)
	}
	if resp.TotalCusto, err = kpi("TOTAL CUSTO"); err != nil {
		return nil, fmt.Errorf("kpi total custo: %w", err)
	}
	if resp.IndiceRecompra, err = kpi("INDICE RECOMPRA"); err != nil {
		return nil, fmt.Errorf("kpi indice recompra: %w", err)
	}
	if resp.PecasAtendimento, err = kpi("PECAS ATEND"); err != nil {
		return nil, fmt.Errorf("kpi pecas atendimento: %w", err)
	}
	if resp.TicketMedio, err = kpi("TICKET MEDIO"); err != nil {
		return nil, fmt.Errorf("kpi ticket medio: %w", err)
	}

	resp.LucroBruto = resp.TotalVendas.Sub(resp.TotalCusto)
	if resp.TotalVendas.IsPositive() {
		resp.MargemLucro = resp.LucroBruto.Div(resp.TotalVendas).Mul(decimal.NewFromInt(100)).Round(2)
	}
	resp.DataInicial = dataIni
	resp.DataFinal = dataFim

	s.toCache(ctx, cacheKey, &resp)
	return &resp, nil
}

// ─── Vendas ──────────────────────────────────────────────────────────────────

type vendaEmpresaRow struct {
	Referencia   string          `db:"REFERENCIA"`
	EmpresaVenda int             `db:"EMPRESA_VENDA"`
	RazaoSocial  string          `db:"RAZAO_SOCIAL"`
	Data         time.Time       `db:"DATA"`
	TotalVenda   decimal.Decimal `db:"TOTAL_VENDA"`
}

type evolucaoRow struct {
	Referencia string          `db:"REFERENCIA"`
	TotalVenda decimal.Decimal `db:"TOTAL_VENDA"`
}

func (s *relatorioService) Vendas(ctx context.Context, sessao *session.Sessao) (*dto.VendasResponse, error) {
	cliente := sessao.Cliente()
	if cliente == nil {
		return nil, ErrSessaoSemEmpresa
	}
	filtros := sessao.Filtros()
	dataIni := filtros.DataInicial.Format(dataLayout)
	dataFim := filtros.DataFinal.Format(dataLayout)

	var resp dto.VendasResponse
	cacheKey := fmt.Sprintf("relatorio:vendas:%s:%s:%s:%s", cliente.API, filtros.Referencia, dataIni, dataFim)
	if s.fromCache(ctx, cacheKey, &resp) {
		return &resp, nil
	}

	desc, err := sessao.Descritor()
	if err != nil {
		return nil, err
	}
	db, err := s.connector.Connect(ctx, desc)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	// Vendas do período filtrado, agregadas por referência/empresa/dia.
	const qFiltrada = `
		SELECT V.REFERENCIA,
		       COALESCE(V.EMPRESA_VENDA, 1) AS EMPRESA_VENDA,
		       E.RAZAO_SOCIAL,
		       V.DATA,
		       SUM(CAST(V.TOTAL_VENDA AS DECIMAL(10,2))) AS TOTAL_VENDA
		FROM VW_BI_RELGERENCIAL_CUPOM_PREVENDA V
		LEFT JOIN EMPRESA E
		       ON E.CODIGO = CASE WHEN V.EMPRESA_VENDA = 0
		                          THEN 1 ELSE COALESCE(V.EMPRESA_VENDA, 1) END
		WHERE V.DATA BETWEEN ? AND ?
		  AND V.REFERENCIA LIKE ?
		GROUP BY V.REFERENCIA, COALESCE(V.EMPRESA_VENDA, 1), E.RAZAO_SOCIAL, V.DATA`
	var filtradas []vendaEmpresaRow
	if err := db.SelectContext(ctx, &filtradas, qFiltrada, dataIni, dataFim, filtros.Referencia+"%"); err != nil {
		return nil, fmt.Errorf("vendas filtradas: %w", err)
	}

	// Série de evolução dos últimos 13 meses, independente do filtro.
	agora := time.Now()
	ini13 := agora.AddDate(0, -13, 0).Format(dataLayout)
	hoje := agora.Format(dataLayout)

	const qEvolucao = `
		SELECT V.REFERENCIA,
		       SUM(CAST(V.TOTAL_VENDA AS DECIMAL(10,2))) AS TOTAL_VENDA
		FROM VW_BI_RELGERENCIAL_CUPOM_PREVENDA V
		WHERE V.DATA BETWEEN ? AND ?
		GROUP BY V.REFERENCIA
		ORDER BY V.REFERENCIA`
	var evolucao []evolucaoRow
	if err := db.SelectContext(ctx, &evolucao, qEvolucao, ini13, hoje); err != nil {
		return nil, fmt.Errorf("evolução de vendas: %w", err)
	}

	resp.Evolucao = completarMeses(evolucao, agora)
	agregarVendas(&resp, filtradas)

	s.toCache(ctx, cacheKey, &resp)
	return &resp, nil
}

// completarMeses builds the full 13-month axis (oldest first), zero-filling
// months the query returned no rows for.
func completarMeses(rows []evolucaoRow, agora time.Time) []dto.PontoEvolucao {
	porRef := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		porRef[r.Referencia] = r.TotalVenda
	}
	out := make([]dto.PontoEvolucao, 0, 13)
	for i := 12; i >= 0; i-- {
		ref := agora.AddDate(0, -i, 0).Format("2006/01")
		out = append(out, dto.PontoEvolucao{Referencia: ref, TotalVenda: porRef[ref]})
	}
	return out
}

func agregarVendas(resp *dto.VendasResponse, rows []vendaEmpresaRow) {
	type acc struct {
		total    decimal.Decimal
		primeira time.Time
		ultima   time.Time
		qtd      int
	}
	porEmpresa := make(map[string]*acc)
	empresasOrdem := make([]string, 0)

	for _, r := range rows {
		resp.TotalVendas = resp.TotalVendas.Add(r.TotalVenda)
		a, ok := porEmpresa[r.RazaoSocial]
		if !ok {
			a = &acc{primeira: r.Data, ultima: r.Data}
			porEmpresa[r.RazaoSocial] = a
			empresasOrdem = append(empresasOrdem, r.RazaoSocial)
		}
		a.total = a.total.Add(r.TotalVenda)
		a.qtd++
		if r.Data.Before(a.primeira) {
			a.primeira = r.Data
		}
		if r.Data.After(a.ultima) {
			a.ultima = r.Data
		}
	}

	resp.NumVendas = len(rows)
	resp.NumEmpresas = len(porEmpresa)
	if resp.NumVendas > 0 {
		resp.MediaPorVenda = resp.TotalVendas.Div(decimal.NewFromInt(int64(resp.NumVendas))).Round(2)
	}

	resp.Detalhamento = make([]dto.DetalheEmpresa, 0, len(porEmpresa))
	for _, nome := range empresasOrdem {
		a := porEmpresa[nome]
		resp.Detalhamento = append(resp.Detalhamento, dto.DetalheEmpresa{
			Empresa:       nome,
			TotalVendas:   a.total,
			PrimeiraVenda: a.primeira.Format(dataLayout),
			UltimaVenda:   a.ultima.Format(dataLayout),
			QtdVendas:     a.qtd,
		})
	}
	sort.SliceStable(resp.Detalhamento, func(i, j int) bool {
		return resp.Detalhamento[i].TotalVendas.GreaterThan(resp.Detalhamento[j].TotalVendas)
	})
}

// ─── Vendedores ──────────────────────────────────────────────────────────────

type vendedorMesRow struct {
	NomeVendedor string          `db:"NOME_VENDEDOR"`
	Ano          int             `db:"ANO"`
	Mes          int             `db:"MES"`
	Referencia   string          `db:"REFERENCIA"`
	ValorTotal   decimal.Decimal `db:"VALOR_TOTAL"`
	QtdVendas    int             `db:"QTD_VENDAS"`
}

type participacaoRow struct {
	NomeVendedor  string          `db:"NOME_VENDEDOR"`
	Referencia    string          `db:"REFERENCIA"`
	ValorTotal    decimal.Decimal `db:"VALOR_TOTAL"`
	TotalFaturado decimal.Decimal `db:"TOTAL_FATURADO"`
	Participacao  decimal.Decimal `db:"PARTICIPACAO"`
}

func (s *relatorioService) Vendedores(ctx context.Context, sessao *session.Sessao) (*dto.VendedoresResponse, error) {
	cliente := sessao.Cliente()
	if cliente == nil {
		return nil, ErrSessaoSemEmpresa
	}

	var resp dto.VendedoresResponse
	cacheKey := fmt.Sprintf("relatorio:vendedores:%s:%s", cliente.API, time.Now().Format("2006/01/02"))
	if s.fromCache(ctx, cacheKey, &resp) {
		return &resp, nil
	}

	desc, err := sessao.Descritor()
	if err != nil {
		return nil, err
	}
	db, err := s.connector.Connect(ctx, desc)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	// Análise temporal dos últimos 13 meses, bucket por vendedor/mês.
	const qTemporal = `
		SELECT NOME_VENDEDOR,
		       EXTRACT(YEAR FROM DATA_REFERENCIA)  AS ANO,
		       EXTRACT(MONTH FROM DATA_REFERENCIA) AS MES,
		       REFERENCIA,
		       SUM(VALOR_TOTAL) AS VALOR_TOTAL,
		       COUNT(*)         AS QTD_VENDAS
		FROM VW_BI_VENDA_VENDEDORES
		WHERE DATA_REFERENCIA >= DATEADD(MONTH, -13, CURRENT_DATE)
		GROUP BY NOME_VENDEDOR,
		         EXTRACT(YEAR FROM DATA_REFERENCIA),
		         EXTRACT(MONTH FROM DATA_REFERENCIA),
		         REFERENCIA
		ORDER BY ANO, MES, NOME_VENDEDOR`
	var temporal []vendedorMesRow
	if err := db.SelectContext(ctx, &temporal, qTemporal); err != nil {
		return nil, fmt.Errorf("análise temporal de vendedores: %w", err)
	}

	agora := time.Now()
	ini13 := agora.AddDate(0, -13, 0).Format(dataLayout)
	hoje := agora.Format(dataLayout)

	// Participação percentual por referência via window function.
	const qParticipacao = `
		SELECT V.NOME_VENDEDOR,
		       V.REFERENCIA,
		       SUM(V.VALOR_TOTAL) AS VALOR_TOTAL,
		       SUM(SUM(V.VALOR_TOTAL)) OVER(PARTITION BY V.REFERENCIA) AS TOTAL_FATURADO,
		       CAST(SUM(V.VALOR_TOTAL) * 100.0
		            / SUM(SUM(V.VALOR_TOTAL)) OVER(PARTITION BY V.REFERENCIA)
		            AS DECIMAL(10,2)) AS PARTICIPACAO
		FROM VW_BI_VENDA_VENDEDORES V
		WHERE V.DATA_REFERENCIA BETWEEN ? AND ?
		  AND V.NOME_VENDEDOR NOT IN ('SEM VENDEDOR')
		GROUP BY V.NOME_VENDEDOR, V.REFERENCIA
		ORDER BY V.REFERENCIA`
	var participacao []participacaoRow
	if err := db.SelectContext(ctx, &participacao, qParticipacao, ini13, hoje); err != nil {
		return nil, fmt.Errorf("participação de vendedores: %w", err)
	}

	resp.Temporal = make([]dto.VendedorMes, 0, len(temporal))
	for _, r := range temporal {
		resp.Temporal = append(resp.Temporal, dto.VendedorMes(r))
	}
	resp.Top = topVendedores(temporal, 10)
	resp.Participacao = make([]dto.ParticipacaoVendedor, 0, len(participacao))
	for _, r := range participacao {
		resp.Participacao = append(resp.Participacao, dto.ParticipacaoVendedor(r))
	}

	s.toCache(ctx, cacheKey, &resp)
	return &resp, nil
}

func topVendedores(rows []vendedorMesRow, n int) []dto.VendedorTotal {
	totais := make(map[string]decimal.Decimal)
	ordem := make([]string, 0)
	for _, r := range rows {
		if _, ok := totais[r.NomeVendedor]; !ok {
			ordem = append(ordem, r.NomeVendedor)
		}
		totais[r.NomeVendedor] = totais[r.NomeVendedor].Add(r.ValorTotal)
	}
	out := make([]dto.VendedorTotal, 0, len(ordem))
	for _, nome := range ordem {
		out = append(out, dto.VendedorTotal{NomeVendedor: nome, ValorTotal: totais[nome]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ValorTotal.GreaterThan(out[j].ValorTotal)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ─── CSV export ──────────────────────────────────────────────────────────────

func (s *relatorioService) VendedoresCSV(ctx context.Context, sessao *session.Sessao) ([]byte, string, error) {
	resp, err := s.Vendedores(ctx, sessao)
	if err != nil {
		return nil, "", err
	}

	data, err := pivotVendedoresCSV(resp.Temporal)
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("analise_vendedores_%s.csv", time.Now().Format("20060102"))
	return data, filename, nil
}

// pivotVendedoresCSV renders vendedor rows × referência columns, with a
// TOTAL_PERIODO column, rows sorted by period total descending. Semicolon
// separator and decimal comma match the spreadsheet locale the download is
// opened with.
func pivotVendedoresCSV(temporal []dto.VendedorMes) ([]byte, error) {
	refsSet := make(map[string]struct{})
	porVendedor := make(map[string]map[string]decimal.Decimal)
	ordem := make([]string, 0)

	for _, r := range temporal {
		refsSet[r.Referencia] = struct{}{}
		if _, ok := porVendedor[r.NomeVendedor]; !ok {
			porVendedor[r.NomeVendedor] = make(map[string]decimal.Decimal)
			ordem = append(ordem, r.NomeVendedor)
		}
		porVendedor[r.NomeVendedor][r.Referencia] = porVendedor[r.NomeVendedor][r.Referencia].Add(r.ValorTotal)
	}

	refs := make([]string, 0, len(refsSet))
	for ref := range refsSet {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	totais := make(map[string]decimal.Decimal, len(ordem))
	for _, nome := range ordem {
		var t decimal.Decimal
		for _, v := range porVendedor[nome] {
			t = t.Add(v)
		}
		totais[nome] = t
	}
	sort.SliceStable(ordem, func(i, j int) bool {
		return totais[ordem[i]].GreaterThan(totais[ordem[j]])
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	header := append([]string{"NOME_VENDEDOR"}, refs...)
	header = append(header, "TOTAL_PERIODO")
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, nome := range ordem {
		rec := make([]string, 0, len(refs)+2)
		rec = append(rec, nome)
		for _, ref := range refs {
			rec = append(rec, decimalVirgula(porVendedor[nome][ref]))
		}
		rec = append(rec, decimalVirgula(totais[nome]))
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func decimalVirgula(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// ─── Cache helpers ───────────────────────────────────────────────────────────

func (s *relatorioService) fromCache(ctx context.Context, key string, out any) bool {
	if s.rdb == nil {
		return false
	}
	cached, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(cached, out) == nil
}

func (s *relatorioService) toCache(ctx context.Context, key string, v any) {
	if s.rdb == nil {
		return
	}
	if b, err := json.Marshal(v); err == nil {
		_ = s.rdb.Set(ctx, key, b, s.cacheTTL).Err()
	}
}
