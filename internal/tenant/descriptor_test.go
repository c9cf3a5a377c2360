package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveOverrideTemPrioridade(t *testing.T) {
	record := map[string]any{
		"host":    "servidor-record",
		"caminho": "/dados/record.fdb",
		"usuario": "SYSDBA",
		"senha":   "masterkey",
	}
	override := map[string]any{
		"host":     "servidor-override",
		"database": "/dados/override.fdb",
		"user":     "OUTRO",
		"password": "segredo",
	}

	d, err := Resolve(override, record)
	assert.NoError(t, err)
	assert.Equal(t, "servidor-override", d.Host)
	assert.Equal(t, "/dados/override.fdb", d.Database)
	assert.Equal(t, "OUTRO", d.User)
	assert.Equal(t, "segredo", d.Password)
}

func TestResolveSemOverrideUsaRecord(t *testing.T) {
	record := map[string]any{
		"host":    "fbhost",
		"porta":   "3051",
		"caminho": "/dados/empresa.fdb",
		"usuario": "SYSDBA",
		"senha":   "masterkey",
	}

	d, err := Resolve(nil, record)
	assert.NoError(t, err)
	assert.Equal(t, "fbhost", d.Host)
	assert.Equal(t, "3051", d.Porta)
	assert.Equal(t, "/dados/empresa.fdb", d.Database)
}

func TestResolveVariantesDeNome(t *testing.T) {
	// Records escritos por sistemas antigos misturam maiúsculas e inglês.
	record := map[string]any{
		"HOST":     "legado",
		"PORT":     3050,
		"database": "/dados/x.fdb",
		"login":    "SYSDBA",
		"password": "masterkey",
	}

	d, err := FromRecord(record)
	assert.NoError(t, err)
	assert.Equal(t, "legado", d.Host)
	assert.Equal(t, "3050", d.Porta) // porta numérica vira texto
	assert.Equal(t, "/dados/x.fdb", d.Database)
	assert.Equal(t, "SYSDBA", d.User)
}

func TestResolvePrecedenciaPrimeiraChave(t *testing.T) {
	// caminho vence database quando ambos presentes no record.
	d, err := FromRecord(map[string]any{
		"caminho":  "/dados/caminho.fdb",
		"database": "/dados/database.fdb",
	})
	assert.NoError(t, err)
	assert.Equal(t, "/dados/caminho.fdb", d.Database)
}

func TestResolveSemDatabase(t *testing.T) {
	_, err := FromRecord(map[string]any{"host": "fbhost", "usuario": "SYSDBA"})
	assert.ErrorIs(t, err, ErrNaoConfigurada)

	_, err = FromOverride(map[string]any{"host": "fbhost"})
	assert.ErrorIs(t, err, ErrNaoConfigurada)
}

func TestResolveValoresVazios(t *testing.T) {
	// Chave presente mas vazia não conta; a próxima variante é consultada.
	d, err := FromRecord(map[string]any{
		"caminho":  "",
		"database": "/dados/fallback.fdb",
		"senha":    nil,
	})
	assert.NoError(t, err)
	assert.Equal(t, "/dados/fallback.fdb", d.Database)
	assert.Equal(t, "", d.Password)
}

func TestDSNLocal(t *testing.T) {
	d := Descriptor{Database: "/data/x.fdb"}
	assert.Equal(t, "/data/x.fdb", d.DSN())

	// Host só com espaços também é local.
	d = Descriptor{Host: "   ", Porta: "3050", Database: "/data/x.fdb"}
	assert.Equal(t, "/data/x.fdb", d.DSN())
}

func TestDSNRemoto(t *testing.T) {
	d := Descriptor{Host: "dbhost", Porta: "3050", Database: "/data/x.fdb"}
	assert.Equal(t, "dbhost/3050:/data/x.fdb", d.DSN())
}

func TestDSNPortaPadrao(t *testing.T) {
	d := Descriptor{Host: "dbhost", Database: "/data/x.fdb"}
	assert.Equal(t, "dbhost/3050:/data/x.fdb", d.DSN())
}
