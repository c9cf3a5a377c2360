package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Azoup/zpfbi/internal/dto"
	"github.com/Azoup/zpfbi/internal/model"
	"github.com/Azoup/zpfbi/internal/repository"
	"github.com/Azoup/zpfbi/internal/worker"
)

var ErrEmailJaCadastrado = errors.New("email já cadastrado")

type UsuarioService interface {
	// Cadastrar creates an account affiliated to the given empresa (the api of
	// the logged session — never client-supplied).
	Cadastrar(ctx context.Context, api string, req dto.CadastrarUsuarioRequest) (*dto.UsuarioResponse, error)
	// CadastrarSuperAdmin provisions a Super Admin for any empresa
	// (administrative module only).
	CadastrarSuperAdmin(ctx context.Context, req dto.CadastrarSuperAdminRequest) (*dto.UsuarioResponse, error)
	ListarPorEmpresa(ctx context.Context, api string) ([]dto.UsuarioResponse, error)
	// Desativar revokes access without deleting the record; the account stops
	// logging in and disappears from the empresa listing.
	Desativar(ctx context.Context, api string, id uuid.UUID) error
	Reativar(ctx context.Context, api string, id uuid.UUID) (*dto.UsuarioResponse, error)
}

type usuarioService struct {
	usuarios   repository.UsuarioRepository
	clientes   repository.ClienteRepository
	dispatcher *worker.Dispatcher // nil in unit test mode — no notification
}

func NewUsuarioService(usuarios repository.UsuarioRepository, clientes repository.ClienteRepository, dispatcher *worker.Dispatcher) UsuarioService {
	return &usuarioService{usuarios: usuarios, clientes: clientes, dispatcher: dispatcher}
}

func (s *usuarioService) Cadastrar(ctx context.Context, api string, req dto.CadastrarUsuarioRequest) (*dto.UsuarioResponse, error) {
	// The empresa of the logged session must exist before accounts are hung
	// off its api key.
	if _, err := s.clientes.FindByAPI(ctx, api); err != nil {
		return nil, ErrEmpresaNaoEncontrada
	}
	return s.criar(ctx, api, req.Nome, req.Email, req.Celular, req.Password, req.Perfil)
}

func (s *usuarioService) CadastrarSuperAdmin(ctx context.Context, req dto.CadastrarSuperAdminRequest) (*dto.UsuarioResponse, error) {
	if _, err := s.clientes.FindByAPI(ctx, req.API); err != nil {
		return nil, ErrEmpresaNaoEncontrada
	}
	return s.criar(ctx, req.API, req.Nome, req.Email, req.Celular, req.Password, model.PerfilSuperAdmin)
}

func (s *usuarioService) criar(ctx context.Context, api, nome, email, celular, password, perfil string) (*dto.UsuarioResponse, error) {
	if _, err := s.usuarios.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailJaCadastrado
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, err
	}
	usuario := &model.Usuario{
		NomeUsuario:  nome,
		EmailUsuario: email,
		Celular:      celular,
		SenhaHash:    string(hash),
		Perfil:       perfil,
		API:          api,
		Tipo:         "BI",
		Ativo:        true,
	}
	if err := s.usuarios.Create(ctx, usuario); err != nil {
		return nil, err
	}

	// Notification is best effort; account creation already succeeded.
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{
			ToEmail: email,
			Subject: "Azoup BI — conta criada",
			Body: fmt.Sprintf("Olá %s,\n\nSua conta de acesso ao Azoup Business Intelligence foi criada com o perfil %q.\nAguarde a aprovação do administrador.\n",
				nome, perfil),
		})
	}

	resp := usuarioToResponse(usuario)
	return &resp, nil
}

func (s *usuarioService) Desativar(ctx context.Context, api string, id uuid.UUID) error {
	if _, err := s.porEmpresa(ctx, api, id); err != nil {
		return err
	}
	return s.usuarios.Desativar(ctx, id)
}

func (s *usuarioService) Reativar(ctx context.Context, api string, id uuid.UUID) (*dto.UsuarioResponse, error) {
	usuario, err := s.porEmpresa(ctx, api, id)
	if err != nil {
		return nil, err
	}
	usuario.Ativo = true
	if err := s.usuarios.Update(ctx, usuario); err != nil {
		return nil, err
	}
	resp := usuarioToResponse(usuario)
	return &resp, nil
}

// porEmpresa loads the account and hides it when it belongs to another
// empresa: cross-tenant ids answer exactly like unknown ones.
func (s *usuarioService) porEmpresa(ctx context.Context, api string, id uuid.UUID) (*model.Usuario, error) {
	usuario, err := s.usuarios.FindByID(ctx, id)
	if err != nil || usuario.API != api {
		return nil, ErrUsuarioNaoEncontrado
	}
	return usuario, nil
}

func (s *usuarioService) ListarPorEmpresa(ctx context.Context, api string) ([]dto.UsuarioResponse, error) {
	usuarios, err := s.usuarios.ListByAPI(ctx, api)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UsuarioResponse, 0, len(usuarios))
	for i := range usuarios {
		out = append(out, usuarioToResponse(&usuarios[i]))
	}
	return out, nil
}
