// Package postgis talks to the database a tileset is compiled for: it reads
// the PostGIS version, probes layer queries for their columns and runs the
// tileset's schema SQL.
package postgis

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/jackc/pgx"
	"github.com/pkg/errors"

	"github.com/atlasdatatech/sqltomvt/internal/log"
	"github.com/atlasdatatech/sqltomvt/mvt"
	"github.com/atlasdatatech/sqltomvt/provider"
)

const Name = "postgis"

const (
	DefaultPort            = 5432
	DefaultMaxConn         = 100
	DefaultSSLMode         = "prefer"
	DefaultApplicationName = "sqltomvt"
)

// Config holds the connection settings of a Provider.
type Config struct {
	Host           string
	Port           uint16
	Database       string
	User           string
	Password       string
	SSLMode        string
	MaxConnections int
	// ApplicationName is reported to the server, see pg_stat_activity.
	ApplicationName string
}

// ErrInvalidSSLMode is returned for an unknown ssl mode.
type ErrInvalidSSLMode string

func (e ErrInvalidSSLMode) Error() string {
	return fmt.Sprintf("postgis: invalid ssl mode (%v)", string(e))
}

// Provider is a pool of connections to a PostGIS database.
type Provider struct {
	pool   *pgx.ConnPool
	config Config
}

// NewProvider connects to the database described by cfg.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = DefaultMaxConn
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = DefaultSSLMode
	}
	if cfg.ApplicationName == "" {
		cfg.ApplicationName = DefaultApplicationName
	}

	connConfig := pgx.ConnConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: cfg.Database,
		User:     cfg.User,
		Password: cfg.Password,
		RuntimeParams: map[string]string{
			"application_name": cfg.ApplicationName,
		},
		OnNotice: func(_ *pgx.Conn, n *pgx.Notice) {
			log.Infof("%v: %v", n.Severity, n.Message)
		},
	}
	if err := configTLS(cfg.SSLMode, &connConfig); err != nil {
		return nil, err
	}

	pool, err := pgx.NewConnPool(pgx.ConnPoolConfig{
		ConnConfig:     connConfig,
		MaxConnections: cfg.MaxConnections,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed while creating connection pool to %v:%v/%v", cfg.Host, cfg.Port, cfg.Database)
	}
	log.Debugf("connected to %v:%v/%v as %v", cfg.Host, cfg.Port, cfg.Database, cfg.User)

	return &Provider{pool: pool, config: cfg}, nil
}

func configTLS(sslMode string, cc *pgx.ConnConfig) error {
	switch sslMode {
	case "disable":
		cc.UseFallbackTLS = false
		cc.TLSConfig = nil
		cc.FallbackTLSConfig = nil
	case "allow":
		cc.UseFallbackTLS = true
		cc.FallbackTLSConfig = &tls.Config{InsecureSkipVerify: true}
	case "prefer":
		cc.TLSConfig = &tls.Config{InsecureSkipVerify: true}
		cc.UseFallbackTLS = true
		cc.FallbackTLSConfig = nil
	case "require":
		cc.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	default:
		return ErrInvalidSSLMode(sslMode)
	}
	return nil
}

// Close releases every connection of the pool.
func (p *Provider) Close() { p.pool.Close() }

// Version reads and parses postgis_full_version().
func (p *Provider) Version(ctx context.Context) (mvt.Version, error) {
	var full string
	if err := p.pool.QueryRowEx(ctx, "SELECT postgis_full_version()", nil).Scan(&full); err != nil {
		return mvt.Version{}, errors.Wrap(err, "postgis_full_version() failed, probably because PostGIS is not installed")
	}
	log.Debugf("postgis_full_version() = %v", full)
	return mvt.ParseVersion(full)
}

// Column is a column of a query result.
type Column struct {
	Name string
	// Type is the PostgreSQL type name, empty for types the driver does not
	// know, such as geometry.
	Type string
}

// ProbeColumns runs sql and returns the columns of its result. The query is
// expected to return no rows.
func (p *Provider) ProbeColumns(ctx context.Context, sql string) ([]Column, error) {
	rows, err := p.pool.QueryEx(ctx, sql, nil)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fdescs := rows.FieldDescriptions()
	cols := make([]Column, len(fdescs))
	for i, fd := range fdescs {
		cols[i] = Column{Name: fd.Name, Type: fd.DataTypeName}
	}
	for rows.Next() {
	}
	return cols, rows.Err()
}

// settings are reported by Settings. Functions are selected, the rest are
// read with SHOW.
var settings = []string{
	"version()",
	"postgis_full_version()",
	"jit",
	"shared_buffers",
	"work_mem",
	"maintenance_work_mem",
	"max_connections",
	"max_worker_processes",
	"max_parallel_workers",
	"max_parallel_workers_per_gather",
}

// Setting is a server setting and its value.
type Setting struct {
	Name  string
	Value string
}

// Settings returns the server settings that matter for tile generation.
// Settings the server does not know are logged and left out.
func (p *Provider) Settings(ctx context.Context) ([]Setting, error) {
	var out []Setting
	for _, name := range settings {
		verb := "SHOW"
		if name[len(name)-1] == ')' {
			verb = "SELECT"
		}
		var val string
		if err := p.pool.QueryRowEx(ctx, verb+" "+name, nil).Scan(&val); err != nil {
			if _, ok := err.(pgx.PgError); ok {
				log.Warnf("setting %v: %v", name, err)
				continue
			}
			return nil, errors.Wrapf(err, "reading setting %v", name)
		}
		out = append(out, Setting{Name: name, Value: val})
	}
	return out, nil
}

// ValidateTileset validates every layer the compiler selected against this
// database.
func (p *Provider) ValidateTileset(ctx context.Context, c *mvt.Compiler) ([]provider.VectorLayer, error) {
	return ValidateTileset(ctx, p, c)
}
