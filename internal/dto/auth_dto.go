package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"` // seconds
	User         UsuarioResponse `json:"user"`
	Empresa      EmpresaResumo   `json:"empresa"`
}

// EmpresaResumo is the tenant summary shown in the sidebar after login.
// Connection credentials never leave the server.
type EmpresaResumo struct {
	ID           string `json:"id"`
	Nome         string `json:"nome"`
	NomeFantasia string `json:"nome_fantasia"`
	API          string `json:"api"`
}
