// Package dsn builds the connection strings of the sql session storage drivers.
package dsn

import (
	"fmt"

	"github.com/mealdesk/mealdesk-web/internal/config"
)

// MySQL builds the go-sql-driver/mysql Data Source Name from the configuration.
// Extras holds the query parameters, e.g. "parseTime=true".
func MySQL(dbCfg *config.DB) string {
	out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.Name,
	)

	if dbCfg.Extras != "" {
		out += "?" + dbCfg.Extras
	}

	return out
}

// Postgres builds the pgx keyword/value Data Source Name from the configuration.
// Extras is appended verbatim, e.g. "sslmode=disable TimeZone=UTC".
func Postgres(dbCfg *config.DB) string {
	out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Name,
	)

	if dbCfg.Extras != "" {
		out += " " + dbCfg.Extras
	}

	return out
}
