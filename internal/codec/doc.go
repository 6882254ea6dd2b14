// Package codec converts record field values to SQL literal text and parses
// fetched column text back into values.
//
// Every field kind is handled through one dispatch table shared by the query
// compiler and the result materializer. Backend-specific spelling (identifier
// quoting, string escaping, boolean tokens, REPLACE form) lives in a Dialect.
//
// Two dialects are provided:
//   - mysql: bare true/false, double-quoted strings escaped with the
//     mysql_real_escape_string rules, REPLACE INTO t SET ...
//   - sqlite: TRUE/FALSE, single-quoted strings, X'..' blobs,
//     REPLACE INTO t (...) VALUES (...)
package codec
