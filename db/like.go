package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE/ILIKE wildcards in s so user input matches
// literally under the default backslash escape.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
