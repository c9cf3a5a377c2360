package tenant

import (
	"errors"
	"fmt"
	"time"
)

// License failures carry distinct causes so the login flow can surface a
// specific message per branch.
var (
	ErrLicencaAusente  = errors.New("data de licença não encontrada")
	ErrLicencaExpirada = errors.New("licença expirada, entre em contato com o suporte")
)

const licencaLayout = "2006-01-02"

// ValidarLicenca gates session establishment on the tenant's license expiry.
// dataLicenca is the YYYY-MM-DD text stored on the cliente record. The check is
// date-only: a license expiring today still passes, yesterday does not. It runs
// before any connectivity attempt so expired tenants never trigger a connect.
func ValidarLicenca(dataLicenca string, hoje time.Time) error {
	if dataLicenca == "" {
		return ErrLicencaAusente
	}
	expira, err := time.Parse(licencaLayout, dataLicenca)
	if err != nil {
		// A malformed date must surface, not silently pass or fail.
		return fmt.Errorf("data de licença inválida %q: %w", dataLicenca, err)
	}
	y, m, d := hoje.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if expira.Before(today) {
		return ErrLicencaExpirada
	}
	return nil
}
