package dto

import "github.com/shopspring/decimal"

// ─── Filtros de sessão ───────────────────────────────────────────────────────

type FiltrosRequest struct {
	Referencia  string `json:"referencia"   validate:"required,datetime=2006/01"`
	DataInicial string `json:"data_inicial" validate:"required,datetime=2006-01-02"`
	DataFinal   string `json:"data_final"   validate:"required,datetime=2006-01-02"`
}

type FiltrosResponse struct {
	Referencia  string `json:"referencia"`
	DataInicial string `json:"data_inicial"`
	DataFinal   string `json:"data_final"`
}

// ─── Dashboard ───────────────────────────────────────────────────────────────

// DashboardResponse carries the KPI grid of the main dashboard.
type DashboardResponse struct {
	NovosClientes    int             `json:"novos_clientes"`
	ClientesAtivos   int             `json:"clientes_ativos"`
	TotalVendas      decimal.Decimal `json:"total_vendas"`
	TotalCusto       decimal.Decimal `json:"total_custo"`
	IndiceRecompra   decimal.Decimal `json:"indice_recompra"`
	PecasAtendimento decimal.Decimal `json:"pecas_atendimento"`
	TicketMedio      decimal.Decimal `json:"ticket_medio"`
	LucroBruto       decimal.Decimal `json:"lucro_bruto"`
	MargemLucro      decimal.Decimal `json:"margem_lucro"` // percent
	DataInicial      string          `json:"data_inicial"`
	DataFinal        string          `json:"data_final"`
}

// ─── Vendas ──────────────────────────────────────────────────────────────────

// PontoEvolucao is one month of the 13-month sales series. Months with no
// sales are present with a zero total so the chart axis is complete.
type PontoEvolucao struct {
	Referencia string          `json:"referencia"` // YYYY/MM
	TotalVenda decimal.Decimal `json:"total_venda"`
}

// DetalheEmpresa aggregates the filtered period per empresa.
type DetalheEmpresa struct {
	Empresa       string          `json:"empresa"`
	TotalVendas   decimal.Decimal `json:"total_vendas"`
	PrimeiraVenda string          `json:"primeira_venda"`
	UltimaVenda   string          `json:"ultima_venda"`
	QtdVendas     int             `json:"qtd_vendas"`
}

type VendasResponse struct {
	Evolucao      []PontoEvolucao  `json:"evolucao"`
	TotalVendas   decimal.Decimal  `json:"total_vendas"`
	MediaPorVenda decimal.Decimal  `json:"media_por_venda"`
	NumVendas     int              `json:"num_vendas"`
	NumEmpresas   int              `json:"num_empresas"`
	Detalhamento  []DetalheEmpresa `json:"detalhamento"`
}

// ─── Vendedores ──────────────────────────────────────────────────────────────

// VendedorMes is one (vendedor, month) bucket of the temporal analysis.
type VendedorMes struct {
	NomeVendedor string          `json:"nome_vendedor"`
	Ano          int             `json:"ano"`
	Mes          int             `json:"mes"`
	Referencia   string          `json:"referencia"`
	ValorTotal   decimal.Decimal `json:"valor_total"`
	QtdVendas    int             `json:"qtd_vendas"`
}

type VendedorTotal struct {
	NomeVendedor string          `json:"nome_vendedor"`
	ValorTotal   decimal.Decimal `json:"valor_total"`
}

// ParticipacaoVendedor is one row of the share-of-revenue query: the window
// total and the percentage come straight from the SQL.
type ParticipacaoVendedor struct {
	NomeVendedor  string          `json:"nome_vendedor"`
	Referencia    string          `json:"referencia"`
	ValorTotal    decimal.Decimal `json:"valor_total"`
	TotalFaturado decimal.Decimal `json:"total_faturado"`
	Participacao  decimal.Decimal `json:"participacao"` // percent
}

type VendedoresResponse struct {
	Temporal     []VendedorMes          `json:"temporal"`
	Top          []VendedorTotal        `json:"top"`
	Participacao []ParticipacaoVendedor `json:"participacao"`
}

// ─── Conexão ─────────────────────────────────────────────────────────────────

type TesteConexaoResponse struct {
	OK       bool   `json:"ok"`
	Mensagem string `json:"mensagem"`
}
