package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ClienteRequest carries the full tenant record managed by the admin module.
// Dates travel as YYYY-MM-DD text, matching the record store.
type ClienteRequest struct {
	Nome            string `json:"nome"          validate:"required,min=2,max=150"`
	NomeFantasia    string `json:"nome_fantasia" validate:"omitempty,max=150"`
	CNPJ            string `json:"cnpj"          validate:"omitempty,max=20"`
	Cidade          string `json:"cidade"        validate:"omitempty,max=100"`
	Estado          string `json:"estado"        validate:"omitempty,max=2"`
	Celular         string `json:"celular"       validate:"omitempty,max=20"`
	Email           string `json:"email"         validate:"omitempty,email"`
	Mensalidade     string `json:"mensalidade"   validate:"omitempty,max=20"`
	API             string `json:"api"           validate:"required,max=30"`
	CodClienteAzoup string `json:"codcliente_azoup" validate:"omitempty,max=30"`

	DataInicio       string `json:"data_inicio"       validate:"omitempty,datetime=2006-01-02"`
	DataLicenca      string `json:"data_licenca"      validate:"omitempty,datetime=2006-01-02"`
	DataCancelamento string `json:"data_cancelamento" validate:"omitempty,datetime=2006-01-02"`

	Host    string `json:"host"    validate:"omitempty,max=150"`
	Porta   string `json:"porta"   validate:"omitempty,max=10"`
	Caminho string `json:"caminho" validate:"omitempty,max=250"`
	Usuario string `json:"usuario" validate:"omitempty,max=50"`
	Senha   string `json:"senha"   validate:"omitempty,max=50"`

	Ativo string `json:"ativo" validate:"omitempty,oneof=S N"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClienteResponse struct {
	ID              string `json:"id"`
	Nome            string `json:"nome"`
	NomeFantasia    string `json:"nome_fantasia"`
	CNPJ            string `json:"cnpj"`
	Cidade          string `json:"cidade"`
	Estado          string `json:"estado"`
	Celular         string `json:"celular"`
	Email           string `json:"email"`
	Mensalidade     string `json:"mensalidade"`
	API             string `json:"api"`
	CodClienteAzoup string `json:"codcliente_azoup"`

	DataInicio       string `json:"data_inicio"`
	DataLicenca      string `json:"data_licenca"`
	DataCancelamento string `json:"data_cancelamento"`

	Host    string `json:"host"`
	Porta   string `json:"porta"`
	Caminho string `json:"caminho"`
	Usuario string `json:"usuario"`

	Ativo string `json:"ativo"`
}
