package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Azoup/zpfbi/internal/model"
	"github.com/Azoup/zpfbi/internal/tenant"
)

func TestFiltrosPadrao(t *testing.T) {
	agora := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	f := FiltrosPadrao(agora)

	assert.Equal(t, "2026/08", f.Referencia)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), f.DataInicial)
	assert.Equal(t, agora, f.DataFinal)
}

func TestEstabelecerInstalaParAtomicamente(t *testing.T) {
	s := Nova()
	assert.Equal(t, LoggedOut, s.Estado())

	s.IniciarAutenticacao()
	assert.Equal(t, Authenticating, s.Estado())
	// Durante a autenticação nada fica visível ainda.
	assert.Nil(t, s.Usuario())
	assert.Nil(t, s.Cliente())

	u := &model.Usuario{EmailUsuario: "ana@acme.com"}
	c := &model.Cliente{Nome: "ACME", API: "ACME1", Caminho: "/dados/acme.fdb"}
	d := tenant.Descriptor{Database: "/dados/acme.fdb"}
	agora := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	s.Estabelecer(u, c, d, agora)
	assert.Equal(t, LoggedIn, s.Estado())
	assert.Same(t, u, s.Usuario())
	assert.Same(t, c, s.Cliente())
	assert.Equal(t, "2026/08", s.Filtros().Referencia)
}

func TestEncerrarLimpaTudoEIdempotente(t *testing.T) {
	s := Nova()
	s.Estabelecer(&model.Usuario{}, &model.Cliente{Caminho: "/x.fdb"}, tenant.Descriptor{Database: "/x.fdb"}, time.Now())

	s.Encerrar()
	assert.Equal(t, LoggedOut, s.Estado())
	assert.Nil(t, s.Usuario())
	assert.Nil(t, s.Cliente())
	assert.Equal(t, Filtros{}, s.Filtros())

	// Encerrar de novo não muda nada nem entra em pânico.
	s.Encerrar()
	assert.Equal(t, LoggedOut, s.Estado())
}

func TestDescritorSemOverrideUsaResolvido(t *testing.T) {
	s := Nova()
	c := &model.Cliente{Host: "fbhost", Porta: "3050", Caminho: "/dados/acme.fdb", Usuario: "SYSDBA", Senha: "masterkey"}
	d := tenant.Descriptor{Host: "fbhost", Porta: "3050", Database: "/dados/acme.fdb", User: "SYSDBA", Password: "masterkey"}
	s.Estabelecer(&model.Usuario{}, c, d, time.Now())

	got, err := s.Descritor()
	assert.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestDescritorComOverride(t *testing.T) {
	s := Nova()
	c := &model.Cliente{Host: "fbhost", Caminho: "/dados/acme.fdb"}
	s.Estabelecer(&model.Usuario{}, c, tenant.Descriptor{Host: "fbhost", Database: "/dados/acme.fdb"}, time.Now())

	s.SetOverride(map[string]any{"host": "outro", "database": "/tmp/teste.fdb"})
	got, err := s.Descritor()
	assert.NoError(t, err)
	assert.Equal(t, "outro", got.Host)
	assert.Equal(t, "/tmp/teste.fdb", got.Database)
}

func TestManagerCicloDeVida(t *testing.T) {
	m := NewManager(time.Hour)
	id, s := m.Criar()

	got, ok := m.Obter(id)
	assert.True(t, ok)
	assert.Same(t, s, got)

	s.Estabelecer(&model.Usuario{}, &model.Cliente{Caminho: "/x.fdb"}, tenant.Descriptor{Database: "/x.fdb"}, time.Now())
	m.Remover(id)

	_, ok = m.Obter(id)
	assert.False(t, ok)
	// A sessão removida foi encerrada antes de ser descartada.
	assert.Equal(t, LoggedOut, s.Estado())

	// Remover id desconhecido é inofensivo.
	m.Remover(id)
}

func TestManagerObterExpiraSessao(t *testing.T) {
	m := NewManager(15 * time.Millisecond)
	id, s := m.Criar()
	s.Estabelecer(&model.Usuario{}, &model.Cliente{Caminho: "/x.fdb"}, tenant.Descriptor{Database: "/x.fdb"}, time.Now())

	_, ok := m.Obter(id)
	assert.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = m.Obter(id)
	assert.False(t, ok)
	// A expiração encerra a sessão antes de descartá-la.
	assert.Equal(t, LoggedOut, s.Estado())
}

func TestManagerCriarPurgaExpiradas(t *testing.T) {
	// Logins repetidos do mesmo usuário não acumulam sessões órfãs: as
	// vencidas saem do mapa na criação seguinte.
	m := NewManager(15 * time.Millisecond)
	antigas := make([]uuid.UUID, 0, 5)
	for i := 0; i < 5; i++ {
		id, s := m.Criar()
		s.Estabelecer(&model.Usuario{}, &model.Cliente{Caminho: "/x.fdb"}, tenant.Descriptor{Database: "/x.fdb"}, time.Now())
		antigas = append(antigas, id)
	}
	time.Sleep(30 * time.Millisecond)

	nova, _ := m.Criar()

	m.mu.RLock()
	restantes := len(m.sessions)
	m.mu.RUnlock()
	assert.Equal(t, 1, restantes)
	for _, id := range antigas {
		_, ok := m.Obter(id)
		assert.False(t, ok)
	}
	_, ok := m.Obter(nova)
	assert.True(t, ok)
}

func TestManagerRenovarProrrogaExpiracao(t *testing.T) {
	m := NewManager(25 * time.Millisecond)
	id, s := m.Criar()
	s.Estabelecer(&model.Usuario{}, &model.Cliente{Caminho: "/x.fdb"}, tenant.Descriptor{Database: "/x.fdb"}, time.Now())

	time.Sleep(15 * time.Millisecond)
	m.Renovar(id)
	time.Sleep(15 * time.Millisecond)

	// Sem a renovação a sessão já teria vencido aos 25ms.
	_, ok := m.Obter(id)
	assert.True(t, ok)
}
