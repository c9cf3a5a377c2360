// Package tenant resolves empresa records into normalized Firebird connection
// descriptors, validates licensing, and opens tenant-scoped connections.
package tenant

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNaoConfigurada means no usable database path could be resolved — the
// tenant record (and any session override) carries no caminho/database value.
var ErrNaoConfigurada = errors.New("conexão com banco não configurada")

// Descriptor is the normalized 5-tuple every tenant connection is opened from.
// All fields are text; Porta keeps whatever textual form the source had.
// An empty Host addresses a local (file) database rather than a server.
type Descriptor struct {
	Host     string `json:"host"`
	Porta    string `json:"porta"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// Resolve produces a Descriptor from a session-supplied override mapping
// and/or a tenant record mapping. A non-empty override is authoritative; the
// record is only consulted when no override is present. The field names accept
// the historical naming variants the cliente schema accumulated over time —
// the record store predates this service and mixes Portuguese and English
// column names, so no single canonical shape can be assumed.
func Resolve(override, record map[string]any) (Descriptor, error) {
	if len(override) > 0 {
		return FromOverride(override)
	}
	return FromRecord(record)
}

// FromOverride normalizes a session-carried connection mapping.
// First non-empty key wins, in the enumerated order.
func FromOverride(m map[string]any) (Descriptor, error) {
	d := Descriptor{
		Host:     pick(m, "host", "HOST"),
		Porta:    pick(m, "porta", "PORT"),
		Database: pick(m, "database", "caminho", "DATABASE"),
		User:     pick(m, "user", "usuario", "USER"),
		Password: pick(m, "password", "senha", "PASSWORD"),
	}
	if d.Database == "" {
		return Descriptor{}, ErrNaoConfigurada
	}
	return d, nil
}

// FromRecord normalizes a tenant (cliente) record mapping.
func FromRecord(m map[string]any) (Descriptor, error) {
	d := Descriptor{
		Host:     pick(m, "host", "HOST"),
		Porta:    pick(m, "porta", "PORT"),
		Database: pick(m, "caminho", "database", "banco"),
		User:     pick(m, "usuario", "user", "login"),
		Password: pick(m, "senha", "password"),
	}
	if d.Database == "" {
		return Descriptor{}, ErrNaoConfigurada
	}
	return d, nil
}

// pick returns the first non-empty value among keys, coerced to text.
// Ports in particular arrive as both numbers and strings depending on which
// system wrote the record.
func pick(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			s = fmt.Sprint(v)
		}
		if s != "" {
			return s
		}
	}
	return ""
}

// DSN renders the Firebird data source name. An empty or whitespace-only host
// means a local file database and the DSN is just the database path; otherwise
// the form is host/porta:database. Porta falls back to 3050 (the Firebird
// default) on remote connections when the record left it blank.
func (d Descriptor) DSN() string {
	if strings.TrimSpace(d.Host) == "" {
		return d.Database
	}
	porta := d.Porta
	if porta == "" {
		porta = "3050"
	}
	return d.Host + "/" + porta + ":" + d.Database
}
