package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is a tenant record (empresa). Each cliente owns its own Firebird
// database; the connection attributes here are what the resolver normalizes
// into a tenant.Descriptor. Date fields are kept as YYYY-MM-DD text because the
// record schema predates this service and mixes text and date producers.
type Cliente struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nome            string    `gorm:"not null"`
	NomeFantasia    string
	CNPJ            string `gorm:"column:cnpj"`
	Cidade          string
	Estado          string
	Celular         string
	Email           string
	Mensalidade     string
	API             string `gorm:"column:api;uniqueIndex;not null"`
	CodClienteAzoup string

	// Licenciamento
	DataInicio       string `gorm:"type:varchar(10)"`
	DataLicenca      string `gorm:"type:varchar(10)"`
	DataCancelamento string `gorm:"type:varchar(10)"`

	// Conexão com o banco Firebird da empresa
	Host    string
	Porta   string
	Caminho string
	Usuario string
	Senha   string

	Ativo     string `gorm:"type:varchar(1);not null;default:'S'"` // S | N
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Cliente) TableName() string { return "clientes" }

// ConnMap exposes the record's connection attributes in the mapping shape the
// resolver consumes. Keys follow the historical (Portuguese) column names.
func (c *Cliente) ConnMap() map[string]any {
	return map[string]any{
		"host":    c.Host,
		"porta":   c.Porta,
		"caminho": c.Caminho,
		"usuario": c.Usuario,
		"senha":   c.Senha,
	}
}
