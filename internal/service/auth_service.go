package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/Azoup/zpfbi/internal/config"
	"github.com/Azoup/zpfbi/internal/dto"
	"github.com/Azoup/zpfbi/internal/model"
	"github.com/Azoup/zpfbi/internal/repository"
	"github.com/Azoup/zpfbi/internal/session"
	"github.com/Azoup/zpfbi/internal/tenant"
)

// Login failure causes. Each check on the way to a session has its own
// user-facing message; none of them is retried automatically.
var (
	ErrFalhaAutenticacao    = errors.New("falha na autenticação")
	ErrUsuarioNaoEncontrado = errors.New("usuário não encontrado na tabela de usuários")
	ErrEmpresaNaoEncontrada = errors.New("empresa não encontrada para este api")
	ErrConexaoEmpresa       = errors.New("falha na conexão com o banco de dados da empresa")
)

const revogadoPrefix = "auth:revogado:"

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	// Logout attempts the external token revocation (best effort) and then
	// unconditionally clears the local session. Never returns an error.
	Logout(ctx context.Context, sessaoID uuid.UUID, refreshToken string)
}

type authService struct {
	usuarios  repository.UsuarioRepository
	clientes  repository.ClienteRepository
	sessoes   *session.Manager
	connector tenant.Connector
	rdb       *redis.Client // nil in unit test mode — revocation becomes a no-op
	cfg       *config.Config
}

func NewAuthService(
	usuarios repository.UsuarioRepository,
	clientes repository.ClienteRepository,
	sessoes *session.Manager,
	connector tenant.Connector,
	rdb *redis.Client,
	cfg *config.Config,
) AuthService {
	return &authService{
		usuarios:  usuarios,
		clientes:  clientes,
		sessoes:   sessoes,
		connector: connector,
		rdb:       rdb,
		cfg:       cfg,
	}
}

// Login runs the full gate sequence: principal lookup, credential check,
// empresa lookup by affiliation key, license validation, descriptor resolution
// and the connectivity probe — in that order. The session only ever holds the
// usuario+cliente pair after every step passed; any failure leaves it empty.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	sessaoID, sessao := s.sessoes.Criar()
	sessao.IniciarAutenticacao()

	abort := func(err error) (*dto.LoginResponse, error) {
		s.sessoes.Remover(sessaoID) // Remover clears before dropping
		return nil, err
	}

	usuario, err := s.usuarios.FindByEmail(ctx, req.Email)
	if err != nil {
		return abort(ErrUsuarioNaoEncontrado)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(usuario.SenhaHash), []byte(req.Password)); err != nil {
		return abort(ErrFalhaAutenticacao)
	}

	cliente, err := s.clientes.FindByAPI(ctx, usuario.API)
	if err != nil {
		return abort(ErrEmpresaNaoEncontrada)
	}

	// License gate runs strictly before any connection attempt: expired
	// tenants never trigger a connect and get a specific message.
	if err := tenant.ValidarLicenca(cliente.DataLicenca, time.Now()); err != nil {
		return abort(err)
	}

	desc, err := tenant.Resolve(nil, cliente.ConnMap())
	if err != nil {
		return abort(err)
	}
	if err := s.connector.Probe(ctx, desc); err != nil {
		return abort(fmt.Errorf("%w: %v", ErrConexaoEmpresa, err))
	}

	sessao.Estabelecer(usuario, cliente, desc, time.Now())

	accessToken, err := s.generateToken(usuario, sessaoID, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return abort(err)
	}
	refreshToken, err := s.generateToken(usuario, sessaoID, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return abort(err)
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioToResponse(usuario),
		Empresa: dto.EmpresaResumo{
			ID:           cliente.ID.String(),
			Nome:         cliente.Nome,
			NomeFantasia: cliente.NomeFantasia,
			API:          cliente.API,
		},
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, errors.New("refresh token inválido ou expirado")
	}
	if s.revogado(ctx, claims.ID) {
		return nil, errors.New("refresh token revogado")
	}

	sessaoID, err := uuid.Parse(claims.SessaoID)
	if err != nil {
		return nil, errors.New("token mal formado")
	}
	sessao, ok := s.sessoes.Obter(sessaoID)
	if !ok || sessao.Estado() != session.LoggedIn {
		return nil, errors.New("sessão encerrada")
	}
	// The session lives as long as its newest refresh token.
	s.sessoes.Renovar(sessaoID)

	usuario := sessao.Usuario()
	cliente := sessao.Cliente()

	accessToken, err := s.generateToken(usuario, sessaoID, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	newRefresh, err := s.generateToken(usuario, sessaoID, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioToResponse(usuario),
		Empresa: dto.EmpresaResumo{
			ID:           cliente.ID.String(),
			Nome:         cliente.Nome,
			NomeFantasia: cliente.NomeFantasia,
			API:          cliente.API,
		},
	}, nil
}

// Logout is a deliberate two-step: revoke the refresh token remotely, capture
// but never propagate that failure, then clear local state regardless.
// Invoking it with an unknown session id is a harmless no-op.
func (s *authService) Logout(ctx context.Context, sessaoID uuid.UUID, refreshToken string) {
	if refreshToken != "" {
		if err := s.revogar(ctx, refreshToken); err != nil {
			log.Error().Err(err).Msg("falha ao revogar refresh token no logout")
		}
	}
	s.sessoes.Remover(sessaoID)
}

func (s *authService) revogar(ctx context.Context, refreshToken string) error {
	if s.rdb == nil {
		return nil
	}
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return err
	}
	ttl := time.Duration(s.cfg.JWTRefreshHours) * time.Hour
	return s.rdb.Set(ctx, revogadoPrefix+claims.ID, "1", ttl).Err()
}

func (s *authService) revogado(ctx context.Context, jti string) bool {
	if s.rdb == nil || jti == "" {
		return false
	}
	n, err := s.rdb.Exists(ctx, revogadoPrefix+jti).Result()
	return err == nil && n > 0
}

// tokenClaims mirrors the claim set the auth middleware expects.
type tokenClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Perfil   string `json:"perfil"`
	API      string `json:"api"`
	SessaoID string `json:"sessao_id"`
	jwt.RegisteredClaims
}

func (s *authService) generateToken(u *model.Usuario, sessaoID uuid.UUID, dur time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID:   u.ID.String(),
		Email:    u.EmailUsuario,
		Perfil:   u.Perfil,
		API:      u.API,
		SessaoID: sessaoID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(dur)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *authService) parseToken(tokenStr string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("token inválido")
	}
	return claims, nil
}

func usuarioToResponse(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:      u.ID.String(),
		Nome:    u.NomeUsuario,
		Email:   u.EmailUsuario,
		Celular: u.Celular,
		Perfil:  u.Perfil,
		API:     u.API,
		Tipo:    u.Tipo,
		Ativo:   u.Ativo,
	}
}
