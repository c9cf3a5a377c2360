package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Azoup/zpfbi/internal/config"
	"github.com/Azoup/zpfbi/internal/dto"
	"github.com/Azoup/zpfbi/internal/model"
	"github.com/Azoup/zpfbi/internal/session"
	"github.com/Azoup/zpfbi/internal/tenant"
)

// ── In-memory repository stubs ────────────────────────────────────────────────

type stubUsuarioRepo struct {
	porEmail map[string]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{porEmail: make(map[string]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	u.ID = uuid.New()
	r.porEmail[u.EmailUsuario] = u
	return nil
}

func (r *stubUsuarioRepo) FindByEmail(_ context.Context, email string) (*model.Usuario, error) {
	u, ok := r.porEmail[email]
	if !ok || !u.Ativo {
		return nil, errors.New("record not found")
	}
	return u, nil
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	for _, u := range r.porEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *stubUsuarioRepo) ListByAPI(_ context.Context, api string) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.porEmail {
		if u.API == api && u.Ativo {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.porEmail[u.EmailUsuario] = u
	return nil
}

func (r *stubUsuarioRepo) Desativar(_ context.Context, id uuid.UUID) error {
	for _, u := range r.porEmail {
		if u.ID == id {
			u.Ativo = false
		}
	}
	return nil
}

type stubClienteRepo struct {
	porAPI map[string]*model.Cliente
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{porAPI: make(map[string]*model.Cliente)}
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	c.ID = uuid.New()
	r.porAPI[c.API] = c
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	for _, c := range r.porAPI {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *stubClienteRepo) FindByAPI(_ context.Context, api string) (*model.Cliente, error) {
	c, ok := r.porAPI[api]
	if !ok {
		return nil, errors.New("record not found")
	}
	return c, nil
}

func (r *stubClienteRepo) List(_ context.Context) ([]model.Cliente, error) {
	var out []model.Cliente
	for _, c := range r.porAPI {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubClienteRepo) ListByNome(_ context.Context, nome string) ([]model.Cliente, error) {
	var out []model.Cliente
	for _, c := range r.porAPI {
		if strings.Contains(strings.ToLower(c.Nome), strings.ToLower(nome)) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	r.porAPI[c.API] = c
	return nil
}

func (r *stubClienteRepo) Delete(_ context.Context, id uuid.UUID) error {
	for api, c := range r.porAPI {
		if c.ID == id {
			delete(r.porAPI, api)
		}
	}
	return nil
}

// stubConnector records every probe so tests can assert whether (and with
// which descriptor) a connection attempt happened.
type stubConnector struct {
	probes   []tenant.Descriptor
	probeErr error
}

func (c *stubConnector) Connect(_ context.Context, d tenant.Descriptor) (*sqlx.DB, error) {
	return nil, errors.New("not used in auth tests")
}

func (c *stubConnector) Probe(_ context.Context, d tenant.Descriptor) error {
	c.probes = append(c.probes, d)
	return c.probeErr
}

// ── Fixture ───────────────────────────────────────────────────────────────────

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "segredo-de-teste",
		JWTExpirationHours: 1,
		JWTRefreshHours:    24,
	}
}

func seedAna(t *testing.T, usuarios *stubUsuarioRepo, clientes *stubClienteRepo, dataLicenca string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3nh4"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, usuarios.Create(context.Background(), &model.Usuario{
		NomeUsuario:  "Ana",
		EmailUsuario: "ana@acme.com",
		SenhaHash:    string(hash),
		Perfil:       model.PerfilAdminCliente,
		API:          "ACME1",
		Tipo:         "BI",
		Ativo:        true,
	}))
	require.NoError(t, clientes.Create(context.Background(), &model.Cliente{
		Nome:        "ACME Ltda",
		API:         "ACME1",
		DataLicenca: dataLicenca,
		Host:        "fbsrv",
		Porta:       "3050",
		Caminho:     "/dados/acme.fdb",
		Usuario:     "SYSDBA",
		Senha:       "masterkey",
		Ativo:       "S",
	}))
}

func amanha() string { return time.Now().AddDate(0, 0, 1).Format("2006-01-02") }

// ── Login ─────────────────────────────────────────────────────────────────────

func TestLoginSucesso(t *testing.T) {
	usuarios := newStubUsuarioRepo()
	clientes := newStubClienteRepo()
	connector := &stubConnector{}
	sessoes := session.NewManager(time.Hour)
	seedAna(t, usuarios, clientes, amanha())

	svc := NewAuthService(usuarios, clientes, sessoes, connector, nil, testConfig())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.com", Password: "s3nh4"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "ana@acme.com", resp.User.Email)
	assert.Equal(t, "ACME1", resp.Empresa.API)

	// A sonda usou exatamente o descritor resolvido do record.
	require.Len(t, connector.probes, 1)
	assert.Equal(t, "fbsrv/3050:/dados/acme.fdb", connector.probes[0].DSN())
}

func TestLoginUsuarioDesconhecido(t *testing.T) {
	usuarios := newStubUsuarioRepo()
	clientes := newStubClienteRepo()
	connector := &stubConnector{}
	svc := NewAuthService(usuarios, clientes, session.NewManager(time.Hour), connector, nil, testConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ninguem@acme.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUsuarioNaoEncontrado)
	assert.Empty(t, connector.probes)
}

func TestLoginSenhaErrada(t *testing.T) {
	usuarios := newStubUsuarioRepo()
	clientes := newStubClienteRepo()
	connector := &stubConnector{}
	seedAna(t, usuarios, clientes, amanha())
	svc := NewAuthService(usuarios, clientes, session.NewManager(time.Hour), connector, nil, testConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.com", Password: "errada"})
	assert.ErrorIs(t, err, ErrFalhaAutenticacao)
	assert.Empty(t, connector.probes)
}

func TestLoginLicencaExpiradaNaoSonda(t *testing.T) {
	usuarios := newStubUsuarioRepo()
	clientes := newStubClienteRepo()
	connector := &stubConnector{}
	ontem := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	seedAna(t, usuarios, clientes, ontem)
	svc := NewAuthService(usuarios, clientes, session.NewManager(time.Hour), connector, nil, testConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.com", Password: "s3nh4"})
	assert.ErrorIs(t, err, tenant.ErrLicencaExpirada)
	// O gate de licença roda antes de qualquer tentativa de conexão.
	assert.Empty(t, connector.probes)
}

func TestLoginLicencaExpiraHojePassa(t *testing.T) {
	usuarios := newStubUsuarioRepo()
	clientes := newStubClienteRepo()
	connector := &stubConnector{}
	seedAna(t, usuarios, clientes, time.Now().Format("2006-01-02"))
	svc := NewAuthService(usuarios, clientes, session.NewManager(time.Hour), connector, nil, testConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.com", Password: "s3nh4"})
	assert.NoError(t, err)
}

func TestLoginLicencaAusente(t *testing.T) {
	usuarios := newStubUsuarioRepo()
	clientes := newStubClienteRepo()
	connector := &stubConnector{}
	seedAna(t, usuarios, clientes, "")
	svc := NewAuthService(usuarios, clientes, session.NewManager(time.Hour), connector, nil, testConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.com", Password: "s3nh4"})
	assert.ErrorIs(t, err, tenant.ErrLicencaAusente)
	assert.Empty(t, connector.probes)
}

func TestLoginFalhaNaSondaNaoEstabeleceSessao(t *testing.T) {
	usuarios := newStubUsuarioRepo()
	clientes := newStubClienteRepo()
	connector := &stubConnector{probeErr: errors.New("network unreachable")}
	sessoes := session.NewManager(time.Hour)
	seedAna(t, usuarios, clientes, amanha())
	svc := NewAuthService(usuarios, clientes, sessoes, connector, nil, testConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.com", Password: "s3nh4"})
	assert.ErrorIs(t, err, ErrConexaoEmpresa)
	require.Len(t, connector.probes, 1)
}

func TestLoginEmpresaInexistente(t *testing.T) {
	usuarios := newStubUsuarioRepo()
	clientes := newStubClienteRepo()
	connector := &stubConnector{}
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3nh4"), bcrypt.MinCost)
	_ = usuarios.Create(context.Background(), &model.Usuario{
		EmailUsuario: "orfa@acme.com",
		SenhaHash:    string(hash),
		API:          "SEM_EMPRESA",
		Ativo:        true,
	})
	svc := NewAuthService(usuarios, clientes, session.NewManager(time.Hour), connector, nil, testConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "orfa@acme.com", Password: "s3nh4"})
	assert.ErrorIs(t, err, ErrEmpresaNaoEncontrada)
	assert.Empty(t, connector.probes)
}

// ── Refresh / Logout ──────────────────────────────────────────────────────────

func TestRefreshAposLogin(t *testing.T) {
	usuarios := newStubUsuarioRepo()
	clientes := newStubClienteRepo()
	sessoes := session.NewManager(time.Hour)
	seedAna(t, usuarios, clientes, amanha())
	svc := NewAuthService(usuarios, clientes, sessoes, &stubConnector{}, nil, testConfig())

	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.com", Password: "s3nh4"})
	require.NoError(t, err)

	renovado, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, renovado.AccessToken)
	assert.Equal(t, "ACME1", renovado.Empresa.API)
}

func TestRefreshComTokenInvalido(t *testing.T) {
	svc := NewAuthService(newStubUsuarioRepo(), newStubClienteRepo(), session.NewManager(time.Hour), &stubConnector{}, nil, testConfig())
	_, err := svc.Refresh(context.Background(), "nao-e-um-jwt")
	assert.Error(t, err)
}

func TestLogoutEncerraSessaoENuncaFalha(t *testing.T) {
	usuarios := newStubUsuarioRepo()
	clientes := newStubClienteRepo()
	sessoes := session.NewManager(time.Hour)
	seedAna(t, usuarios, clientes, amanha())
	svc := NewAuthService(usuarios, clientes, sessoes, &stubConnector{}, nil, testConfig())

	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.com", Password: "s3nh4"})
	require.NoError(t, err)

	// Extrai o sessao_id do refresh para encerrar a sessão certa.
	claims, err := svc.(*authService).parseToken(login.RefreshToken)
	require.NoError(t, err)
	sessaoID, err := uuid.Parse(claims.SessaoID)
	require.NoError(t, err)

	svc.Logout(context.Background(), sessaoID, login.RefreshToken)
	_, ok := sessoes.Obter(sessaoID)
	assert.False(t, ok)

	// Repetir o logout com a sessão já removida é inofensivo.
	svc.Logout(context.Background(), sessaoID, login.RefreshToken)
	// Token de refresh corrompido também não derruba o logout.
	svc.Logout(context.Background(), uuid.New(), "lixo")
}

func TestLoginsRepetidosNaoAcumulamSessoes(t *testing.T) {
	usuarios := newStubUsuarioRepo()
	clientes := newStubClienteRepo()
	sessoes := session.NewManager(15 * time.Millisecond)
	seedAna(t, usuarios, clientes, amanha())
	svc := NewAuthService(usuarios, clientes, sessoes, &stubConnector{}, nil, testConfig())

	ids := make([]uuid.UUID, 0, 5)
	for i := 0; i < 5; i++ {
		login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@acme.com", Password: "s3nh4"})
		require.NoError(t, err)
		claims, err := svc.(*authService).parseToken(login.AccessToken)
		require.NoError(t, err)
		id, err := uuid.Parse(claims.SessaoID)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	time.Sleep(30 * time.Millisecond)

	// As sessões abandonadas vencem com o refresh token; nenhuma sobrevive.
	for _, id := range ids {
		_, ok := sessoes.Obter(id)
		assert.False(t, ok)
	}
}
