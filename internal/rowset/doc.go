// Package rowset holds query results as typed rows.
//
// A RowSet is what the database session returns from ExecuteFetch and what a
// fixture file stores. Both sides are normalised to the same small set of
// value kinds so that a recorded fixture and a live result compare equal
// regardless of which SQL driver produced them.
//
// # Value Kinds
//
//   - Null: SQL NULL
//   - String: TEXT/VARCHAR, also []byte and time.Time (RFC 3339, UTC)
//   - Int: every integer width, stored as int64
//   - Float: float32/float64
//   - Bool: boolean
//
// # Canonical Encoding
//
// Encode produces one row per line so fixture diffs stay readable:
//
//	{"columns":["cip","numeropavillon","numerolocal","message"],"rows":[
//	["logs1234",null,null,"Ajout du membre logs1234"]
//	]}
//
// Strings are NFC normalised and HTML characters are written as-is. The
// same RowSet always encodes to the same bytes, which makes the encoding
// usable as a golden file.
package rowset
