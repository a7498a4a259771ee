// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/toeirei/edgemaster/internal/security"
)

const redactedPassword = "xxxxx"

// Config is the resolved application configuration.
type Config struct {
	Database   Database `mapstructure:"database" yaml:"database"`
	Language   string   `mapstructure:"language" yaml:"language"`
	Debug      bool     `mapstructure:"debug" yaml:"debug"`
	BcryptCost int      `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost,omitempty"`
}

// Database holds connection parameters. Either Dsn is set, or the discrete
// Host/Port/Name/User/Password/SSLMode fields are combined by
// ConnectionString.
type Database struct {
	Type     string          `mapstructure:"type" yaml:"type"`
	Dsn      string          `mapstructure:"dsn" yaml:"dsn,omitempty"`
	Host     string          `mapstructure:"host" yaml:"host,omitempty"`
	Port     int             `mapstructure:"port" yaml:"port,omitempty"`
	Name     string          `mapstructure:"name" yaml:"name,omitempty"`
	User     string          `mapstructure:"user" yaml:"user,omitempty"`
	Password security.Secret `mapstructure:"password" yaml:"-"`
	SSLMode  string          `mapstructure:"sslmode" yaml:"sslmode,omitempty"`
}

// Validate checks the fields every command depends on.
func (c Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database type: '%s'", c.Database.Type)
	}
	if c.Database.Dsn == "" && c.Database.Host == "" && c.Database.Type != "sqlite" {
		return fmt.Errorf("database.dsn or database.host must be set for %s", c.Database.Type)
	}
	return nil
}

// ConnectionString returns the DSN to hand to the driver. An explicit Dsn
// wins over the discrete fields. When Host is set for postgres or mysql the
// discrete fields are assembled into the driver's native format.
func (d Database) ConnectionString() string {
	if d.Host == "" || d.Type == "sqlite" {
		if d.Dsn == "" && d.Type == "sqlite" && d.Name != "" {
			return d.Name
		}
		return d.Dsn
	}
	switch d.Type {
	case "postgres":
		return d.postgresDSN(d.Password.Reveal())
	case "mysql":
		return d.mysqlDSN(d.Password.Reveal())
	default:
		return d.Dsn
	}
}

// Redacted returns the connection string with any password replaced, for
// logs and diagnostics.
func (d Database) Redacted() string {
	if d.Host != "" && d.Type != "sqlite" {
		switch d.Type {
		case "postgres":
			pw := ""
			if !d.Password.IsEmpty() {
				pw = redactedPassword
			}
			return d.postgresDSN(pw)
		case "mysql":
			pw := ""
			if !d.Password.IsEmpty() {
				pw = redactedPassword
			}
			return d.mysqlDSN(pw)
		}
	}
	return RedactDSN(d.Type, d.ConnectionString())
}

func (d Database) postgresDSN(password string) string {
	port := d.Port
	if port == 0 {
		port = 5432
	}
	parts := []string{
		"host=" + pgQuote(d.Host),
		"port=" + strconv.Itoa(port),
	}
	if d.Name != "" {
		parts = append(parts, "dbname="+pgQuote(d.Name))
	}
	if d.User != "" {
		parts = append(parts, "user="+pgQuote(d.User))
	}
	if password != "" {
		parts = append(parts, "password="+pgQuote(password))
	}
	if d.SSLMode != "" {
		parts = append(parts, "sslmode="+pgQuote(d.SSLMode))
	}
	return strings.Join(parts, " ")
}

// pgQuote quotes a keyword/value DSN value when it is empty or contains
// spaces, quotes or backslashes.
func pgQuote(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (d Database) mysqlDSN(password string) string {
	port := d.Port
	if port == 0 {
		port = 3306
	}
	mc := mysql.NewConfig()
	mc.User = d.User
	mc.Passwd = password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(port))
	mc.DBName = d.Name
	mc.ParseTime = true
	mc.ClientFoundRows = true
	if tls := mysqlTLS(d.SSLMode); tls != "" {
		mc.TLSConfig = tls
	}
	return mc.FormatDSN()
}

// mysqlTLS maps libpq sslmode names onto the mysql driver's tls parameter.
func mysqlTLS(sslmode string) string {
	switch strings.ToLower(sslmode) {
	case "":
		return ""
	case "disable":
		return "false"
	case "allow", "prefer":
		return "preferred"
	case "require":
		return "skip-verify"
	default: // verify-ca, verify-full
		return "true"
	}
}

var kvPasswordRe = regexp.MustCompile(`(?i)(password\s*=\s*)('(?:[^'\\]|\\.)*'|\S+)`)

// RedactDSN masks the password in a DSN of any supported shape: URL
// (postgres://user:pw@host/db), keyword/value (password=pw) and the mysql
// driver format (user:pw@tcp(host)/db). Unparseable input is returned with
// everything before the last '@' masked.
func RedactDSN(dbType, dsn string) string {
	if dsn == "" {
		return dsn
	}
	if strings.Contains(dsn, "://") {
		if u, err := url.Parse(dsn); err == nil {
			return u.Redacted()
		}
	}
	if kvPasswordRe.MatchString(dsn) {
		return kvPasswordRe.ReplaceAllString(dsn, "${1}"+redactedPassword)
	}
	if dbType == "mysql" {
		if mc, err := mysql.ParseDSN(dsn); err == nil {
			if mc.Passwd != "" {
				mc.Passwd = redactedPassword
			}
			return mc.FormatDSN()
		}
	}
	if dbType == "sqlite" || !strings.Contains(dsn, "@") {
		return dsn
	}
	return redactedPassword + dsn[strings.LastIndex(dsn, "@"):]
}
