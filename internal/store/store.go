package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/tablemap/internal/codec"
	"github.com/roach88/tablemap/internal/ir"
)

// DefaultPort is the MySQL port used when Config.Port is zero.
const DefaultPort = 3306

// sqlOpen is replaced in tests to observe connection attempts.
var sqlOpen = sql.Open

// Config holds the static connection settings of a session.
type Config struct {
	Dialect  string // "mysql" (default) or "sqlite"
	Host     string
	Database string
	User     string
	Password string
	Port     int    // MySQL only; 0 means DefaultPort
	Path     string // SQLite database file
}

// State is the connection state of a Session.
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Session owns at most one backend connection.
//
// Connect is lazy and idempotent, Exec and Query connect on demand, and
// Disconnect is idempotent. A rejected statement drops the connection.
// A Session is not safe for concurrent use; each caller owns its own.
type Session struct {
	cfg     Config
	dialect codec.Dialect
	logger  *slog.Logger

	db   *sql.DB
	conn *sql.Conn
	id   string // Per-connection id attached to log lines
}

// NewSession validates cfg and returns a disconnected Session.
// A nil logger uses slog.Default().
func NewSession(cfg Config, logger *slog.Logger) (*Session, error) {
	if cfg.Dialect == "" {
		cfg.Dialect = codec.MySQL.Name()
	}
	d, err := codec.Lookup(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if d == codec.SQLite && cfg.Path == "" {
		return nil, fmt.Errorf("sqlite session requires a database path")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{cfg: cfg, dialect: d, logger: logger}, nil
}

// Dialect returns the session's SQL dialect.
func (s *Session) Dialect() codec.Dialect { return s.dialect }

// State reports whether a connection is open.
func (s *Session) State() State {
	if s.conn != nil {
		return Connected
	}
	return Disconnected
}

// Target describes the backend without credentials, for logs and errors.
func (s *Session) Target() string {
	if s.dialect == codec.SQLite {
		return "sqlite:" + s.cfg.Path
	}
	return fmt.Sprintf("mysql://%s@%s/%s", s.cfg.User, s.addr(), s.cfg.Database)
}

func (s *Session) addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// dsn builds the driver connection string.
func (s *Session) dsn() string {
	if s.dialect == codec.SQLite {
		return s.cfg.Path
	}
	mc := mysql.NewConfig()
	mc.User = s.cfg.User
	mc.Passwd = s.cfg.Password
	mc.Net = "tcp"
	mc.Addr = s.addr()
	mc.DBName = s.cfg.Database
	return mc.FormatDSN()
}

// Connect opens the session's connection if it is not already open.
// On failure the session stays Disconnected and a CONNECTION_FAILURE is returned.
func (s *Session) Connect(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	db, err := sqlOpen(s.dialect.Driver(), s.dsn())
	if err != nil {
		return s.connectFailed(err)
	}
	// One session, one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return s.connectFailed(err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return s.connectFailed(err)
	}
	if s.dialect == codec.SQLite {
		if err := applyPragmas(ctx, conn); err != nil {
			conn.Close()
			db.Close()
			return s.connectFailed(err)
		}
	}

	s.db = db
	s.conn = conn
	s.id = uuid.Must(uuid.NewV7()).String()
	s.logger.Debug("connected", "session", s.id, "target", s.Target())
	return nil
}

func (s *Session) connectFailed(err error) error {
	s.logger.Error("connect failed", "target", s.Target(), "error", err)
	return ir.NewConnectionFailure(s.Target(), err)
}

// Disconnect closes the connection if one is open. Safe to call repeatedly.
func (s *Session) Disconnect() error {
	if s.conn == nil && s.db == nil {
		return nil
	}
	var errs []error
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	s.logger.Debug("disconnected", "session", s.id)
	s.conn, s.db, s.id = nil, nil, ""
	return errors.Join(errs...)
}

// Exec runs a statement that returns no rows, connecting first if needed.
// A rejected statement is logged with the backend diagnostic, the session is
// disconnected and a QUERY_FAILURE carrying the statement is returned.
func (s *Session) Exec(ctx context.Context, stmt string) error {
	if err := s.Connect(ctx); err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
		return s.rejected(stmt, err)
	}
	s.logger.Debug("exec", "session", s.id, "sql", stmt)
	return nil
}

// Query runs a statement and buffers every result row before returning, so the
// caller may disconnect without losing unread rows. Returns an empty slice (not
// nil) when nothing matches.
func (s *Session) Query(ctx context.Context, stmt string) ([]ir.Row, error) {
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx, stmt)
	if err != nil {
		return nil, s.rejected(stmt, err)
	}
	out, err := fetchAll(rows)
	if err != nil {
		return nil, s.rejected(stmt, err)
	}
	s.logger.Debug("query", "session", s.id, "sql", stmt, "rows", len(out))
	return out, nil
}

func (s *Session) rejected(stmt string, err error) error {
	attrs := []any{"session", s.id, "error", err, "sql", stmt}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		attrs = append(attrs, "errno", me.Number)
	}
	s.logger.Error("statement rejected", attrs...)
	if derr := s.Disconnect(); derr != nil {
		s.logger.Warn("disconnect after rejected statement", "error", derr)
	}
	return ir.NewQueryFailure(stmt, err)
}

// fetchAll copies every row into column-name → text cells and closes rows.
func fetchAll(rows *sql.Rows) (out []ir.Row, err error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out = []ir.Row{}
	vals := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out), err)
		}
		row := make(ir.Row, len(cols))
		for i, c := range cols {
			row[i] = ir.Cell{Name: c, Text: vals[i].String, Valid: vals[i].Valid}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// sqlitePragmas are run on every new SQLite connection.
var sqlitePragmas = []string{
	"journal_mode = WAL",
	"synchronous = NORMAL",
	"busy_timeout = 5000",
	"foreign_keys = ON",
}

func applyPragmas(ctx context.Context, conn *sql.Conn) error {
	for _, p := range sqlitePragmas {
		if _, err := conn.ExecContext(ctx, "PRAGMA "+p); err != nil {
			return fmt.Errorf("pragma %s: %w", p, err)
		}
	}
	return nil
}

// readPragma returns the current value of a SQLite pragma on the open connection.
func (s *Session) readPragma(ctx context.Context, name string) (string, error) {
	if s.conn == nil {
		return "", fmt.Errorf("session %s is not connected", s.Target())
	}
	var value string
	err := s.conn.QueryRowContext(ctx, "PRAGMA "+name).Scan(&value)
	return value, err
}
