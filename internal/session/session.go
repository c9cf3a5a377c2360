// Package session holds the in-memory interactive state of each logged-in
// principal: who is logged in, which empresa they belong to, the resolved
// connection descriptor, and the transient report filters. Nothing here is
// persisted; a process restart logs everyone out.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Azoup/zpfbi/internal/model"
	"github.com/Azoup/zpfbi/internal/tenant"
)

// Estado is the session lifecycle state.
type Estado int

const (
	LoggedOut Estado = iota
	Authenticating
	LoggedIn
)

// Filtros are the report filters carried by a session.
type Filtros struct {
	Referencia  string    // YYYY/MM
	DataInicial time.Time // inclusive
	DataFinal   time.Time // inclusive
}

// FiltrosPadrao returns the defaults applied on login: current month reference,
// first of the month through today.
func FiltrosPadrao(agora time.Time) Filtros {
	return Filtros{
		Referencia:  agora.Format("2006/01"),
		DataInicial: time.Date(agora.Year(), agora.Month(), 1, 0, 0, 0, 0, agora.Location()),
		DataFinal:   agora,
	}
}

// Sessao is the per-principal state machine. Usuario and Cliente are only ever
// set and cleared together, through Estabelecer and Encerrar — there is no way
// to reach a partial state.
type Sessao struct {
	mu        sync.Mutex
	estado    Estado
	usuario   *model.Usuario
	cliente   *model.Cliente
	descritor tenant.Descriptor
	override  map[string]any
	filtros   Filtros
	expira    time.Time
}

// Nova returns an empty, logged-out session.
func Nova() *Sessao {
	return &Sessao{estado: LoggedOut}
}

func (s *Sessao) Estado() Estado {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estado
}

// IniciarAutenticacao marks the session as mid-login. The records stay unset
// until every check passes.
func (s *Sessao) IniciarAutenticacao() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estado = Authenticating
}

// Estabelecer atomically installs the authenticated pair plus the resolved
// descriptor and resets the filters to their defaults.
func (s *Sessao) Estabelecer(u *model.Usuario, c *model.Cliente, d tenant.Descriptor, agora time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usuario = u
	s.cliente = c
	s.descritor = d
	s.filtros = FiltrosPadrao(agora)
	s.estado = LoggedIn
}

// Encerrar clears everything and returns to LoggedOut. It is the single exit
// used both by logout and by failed login steps, and is idempotent — calling
// it on an already logged-out session is a no-op.
func (s *Sessao) Encerrar() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usuario = nil
	s.cliente = nil
	s.descritor = tenant.Descriptor{}
	s.override = nil
	s.filtros = Filtros{}
	s.estado = LoggedOut
}

func (s *Sessao) Usuario() *model.Usuario {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usuario
}

func (s *Sessao) Cliente() *model.Cliente {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cliente
}

// Descritor re-resolves the connection descriptor, honoring a session override
// when one was installed (infra may inject ad-hoc connection data without
// touching the cliente record).
func (s *Sessao) Descritor() (tenant.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.override) > 0 || s.cliente == nil {
		var record map[string]any
		if s.cliente != nil {
			record = s.cliente.ConnMap()
		}
		return tenant.Resolve(s.override, record)
	}
	return s.descritor, nil
}

// SetOverride installs an ad-hoc connection mapping that takes priority over
// the cliente record on the next resolution.
func (s *Sessao) SetOverride(m map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = m
}

func (s *Sessao) Filtros() Filtros {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filtros
}

func (s *Sessao) SetFiltros(f Filtros) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filtros = f
}

func (s *Sessao) expirou(agora time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return agora.After(s.expira)
}

func (s *Sessao) prorrogar(ate time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expira = ate
}

// Manager owns all live sessions, keyed by the id carried in the JWT. Sessions
// carry an expiry (the refresh-token lifetime): expired entries are evicted
// lazily on Criar/Obter, so abandoned logins never accumulate.
type Manager struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[uuid.UUID]*Sessao
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{ttl: ttl, sessions: make(map[uuid.UUID]*Sessao)}
}

// Criar registers a fresh logged-out session and returns its id. Expired
// entries found on the way are purged.
func (m *Manager) Criar() (uuid.UUID, *Sessao) {
	agora := time.Now()
	id := uuid.New()
	s := Nova()
	s.expira = agora.Add(m.ttl)

	m.mu.Lock()
	for old, sess := range m.sessions {
		if sess.expirou(agora) {
			sess.Encerrar()
			delete(m.sessions, old)
		}
	}
	m.sessions[id] = s
	m.mu.Unlock()
	return id, s
}

func (m *Manager) Obter(id uuid.UUID) (*Sessao, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expirou(time.Now()) {
		m.Remover(id)
		return nil, false
	}
	return s, true
}

// Renovar extends a live session's expiry by the manager's TTL, keeping it in
// step with the refresh token that was just reissued for it.
func (m *Manager) Renovar(id uuid.UUID) {
	if s, ok := m.Obter(id); ok {
		s.prorrogar(time.Now().Add(m.ttl))
	}
}

// Remover drops the session after clearing it.
func (m *Manager) Remover(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Encerrar()
		delete(m.sessions, id)
	}
}
