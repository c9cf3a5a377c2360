package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CadastrarUsuarioRequest creates an account scoped to the logged empresa.
// The affiliation key (api) is taken from the session, never from the request.
type CadastrarUsuarioRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Nome     string `json:"nome"     validate:"required,min=2,max=100"`
	Celular  string `json:"celular"  validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required,min=8"`
	Perfil   string `json:"perfil"   validate:"required,oneof='Admin Cliente' 'Avançado' 'Básico' 'Visualizador'"`
}

// CadastrarSuperAdminRequest provisions a Super Admin for a chosen empresa
// (administrative module only).
type CadastrarSuperAdminRequest struct {
	API      string `json:"api"      validate:"required"`
	Nome     string `json:"nome"     validate:"required,min=2,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Celular  string `json:"celular"  validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required,min=8"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UsuarioResponse struct {
	ID      string `json:"id"`
	Nome    string `json:"nome_usuario"`
	Email   string `json:"email_usuario"`
	Celular string `json:"celular,omitempty"`
	Perfil  string `json:"perfil"`
	API     string `json:"api"`
	Tipo    string `json:"tipo"`
	Ativo   bool   `json:"ativo"`
}
