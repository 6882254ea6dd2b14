package codec

import (
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ReplaceStyle selects how a dialect spells an upsert of one row.
type ReplaceStyle int

const (
	// ReplaceSet renders REPLACE INTO t SET a=1, b=2 (MySQL).
	ReplaceSet ReplaceStyle = iota
	// ReplaceValues renders REPLACE INTO t (a, b) VALUES (1, 2) (SQLite).
	ReplaceValues
)

// Dialect holds the backend-specific pieces of literal and statement rendering.
type Dialect interface {
	// Name is the configuration name ("mysql", "sqlite").
	Name() string
	// Driver is the database/sql driver name.
	Driver() string
	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string
	// QuoteString renders a string literal.
	QuoteString(s string) string
	// QuoteBytes renders a binary literal.
	QuoteBytes(b []byte) string
	// Uint64Literal renders an unsigned 64-bit integer literal.
	Uint64Literal(n uint64) string
	// BoolLiteral renders a boolean literal.
	BoolLiteral(b bool) string
	// ParseBool interprets a fetched boolean column.
	ParseBool(raw string) bool
	// ReplaceStyle selects the REPLACE statement form.
	ReplaceStyle() ReplaceStyle
}

// MySQL is the default dialect.
//
// Booleans are written as the bare tokens true/false. Strings and bytes are
// double-quoted after escaping with the mysql_real_escape_string rules.
var MySQL Dialect = mysqlDialect{}

// SQLite renders standard single-quoted literals and hex blobs. Unsigned
// 64-bit values that do not fit a signed integer are written as text.
var SQLite Dialect = sqliteDialect{}

var dialects = map[string]Dialect{
	MySQL.Name():  MySQL,
	SQLite.Name(): SQLite,
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q: must be one of %v", name, Names())
	}
	return d, nil
}

// Names lists the registered dialect names, sorted.
func Names() []string {
	names := make([]string, 0, len(dialects))
	for n := range dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string   { return "mysql" }
func (mysqlDialect) Driver() string { return "mysql" }

func (mysqlDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (mysqlDialect) QuoteString(s string) string {
	return `"` + mysqlEscape(s) + `"`
}

func (mysqlDialect) QuoteBytes(b []byte) string {
	return `"` + mysqlEscape(string(b)) + `"`
}

func (mysqlDialect) Uint64Literal(n uint64) string {
	return strconv.FormatUint(n, 10)
}

func (mysqlDialect) BoolLiteral(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ParseBool accepts the literal token and the tinyint(1) rendering MySQL returns.
func (mysqlDialect) ParseBool(raw string) bool {
	return raw == "true" || raw == "1"
}

func (mysqlDialect) ReplaceStyle() ReplaceStyle { return ReplaceSet }

// mysqlEscape applies the character escapes of mysql_real_escape_string.
// It works byte-wise so binary payloads pass through unchanged apart from escapes.
func mysqlEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		case 0x1a:
			b.WriteString(`\Z`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string   { return "sqlite" }
func (sqliteDialect) Driver() string { return "sqlite3" }

func (sqliteDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (sqliteDialect) QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (sqliteDialect) QuoteBytes(b []byte) string {
	return "X'" + hex.EncodeToString(b) + "'"
}

// Uint64Literal quotes values above MaxInt64. SQLite integers are signed
// 64-bit, and a larger bare literal is read as a REAL, losing digits.
func (sqliteDialect) Uint64Literal(n uint64) string {
	if n > math.MaxInt64 {
		return "'" + strconv.FormatUint(n, 10) + "'"
	}
	return strconv.FormatUint(n, 10)
}

func (sqliteDialect) BoolLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// ParseBool accepts the literal token and the integer SQLite stores for TRUE.
func (sqliteDialect) ParseBool(raw string) bool {
	return raw == "true" || raw == "1"
}

func (sqliteDialect) ReplaceStyle() ReplaceStyle { return ReplaceValues }
