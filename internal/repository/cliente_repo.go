package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Azoup/zpfbi/internal/model"
)

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	// FindByAPI resolves the empresa a principal is affiliated with.
	FindByAPI(ctx context.Context, api string) (*model.Cliente, error)
	List(ctx context.Context) ([]model.Cliente, error)
	// ListByNome matches nome by case-insensitive substring.
	ListByNome(ctx context.Context, nome string) ([]model.Cliente, error)
	Update(ctx context.Context, c *model.Cliente) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *clienteRepo) FindByAPI(ctx context.Context, api string) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).Where("api = ?", api).First(&c).Error
	return &c, err
}

func (r *clienteRepo) List(ctx context.Context) ([]model.Cliente, error) {
	var clientes []model.Cliente
	err := r.db.WithContext(ctx).Order("nome").Find(&clientes).Error
	return clientes, err
}

func (r *clienteRepo) ListByNome(ctx context.Context, nome string) ([]model.Cliente, error) {
	var clientes []model.Cliente
	err := r.db.WithContext(ctx).Where("nome ILIKE ?", "%"+nome+"%").Order("nome").Find(&clientes).Error
	return clientes, err
}

func (r *clienteRepo) Update(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clienteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Cliente{}, id).Error
}
