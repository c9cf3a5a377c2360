package model

import (
	"time"

	"github.com/google/uuid"
)

// Perfis de acesso. "Super Admin" é provisionado pelo módulo administrativo;
// os demais são criados pelo cadastro scoped à empresa logada.
const (
	PerfilSuperAdmin   = "Super Admin"
	PerfilAdminCliente = "Admin Cliente"
	PerfilAvancado     = "Avançado"
	PerfilBasico       = "Básico"
	PerfilVisualizador = "Visualizador"
)

// Usuario is a BI principal. API is the affiliation key that links the user to
// its Cliente (empresa); many usuarios share one API.
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NomeUsuario  string    `gorm:"not null"`
	EmailUsuario string    `gorm:"uniqueIndex;not null"`
	Celular      string
	SenhaHash    string `gorm:"not null"`
	Perfil       string `gorm:"type:varchar(20);not null"`
	API          string `gorm:"column:api;not null;index"`
	Tipo         string `gorm:"type:varchar(10);not null;default:'BI'"`
	Ativo        bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Usuario) TableName() string { return "usuarios" }
