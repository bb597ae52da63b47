package sparql

import "github.com/teranos/semls/lang/turtle"

// clauseKeywords are the words that structure a query.
var clauseKeywords = []string{
	"SELECT", "CONSTRUCT", "DESCRIBE", "ASK", "WHERE", "FROM", "NAMED",
	"DISTINCT", "REDUCED", "AS", "OPTIONAL", "MINUS", "GRAPH", "SERVICE",
	"SILENT", "UNION", "FILTER", "BIND", "VALUES", "UNDEF", "GROUP", "BY",
	"HAVING", "ORDER", "ASC", "DESC", "LIMIT", "OFFSET", "EXISTS", "NOT", "IN",
}

// builtins are the function names of the expression language.
var builtins = []string{
	"STR", "LANG", "LANGMATCHES", "DATATYPE", "BOUND", "IRI", "URI", "BNODE",
	"RAND", "ABS", "CEIL", "FLOOR", "ROUND", "CONCAT", "STRLEN", "UCASE",
	"LCASE", "ENCODE_FOR_URI", "CONTAINS", "STRSTARTS", "STRENDS",
	"STRBEFORE", "STRAFTER", "YEAR", "MONTH", "DAY", "HOURS", "MINUTES",
	"SECONDS", "TIMEZONE", "TZ", "NOW", "UUID", "STRUUID", "MD5", "SHA1",
	"SHA256", "SHA384", "SHA512", "COALESCE", "IF", "STRLANG", "STRDT",
	"SAMETERM", "ISIRI", "ISURI", "ISBLANK", "ISLITERAL", "ISNUMERIC",
	"REGEX", "SUBSTR", "REPLACE", "COUNT", "SUM", "MIN", "MAX", "AVG",
	"SAMPLE", "GROUP_CONCAT", "SEPARATOR",
}

var (
	builtinSet = toSet(builtins)
	dialect    = turtle.Dialect{SPARQL: true, Keywords: toSet(append(append([]string{}, clauseKeywords...), builtins...))}
)

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// IsBuiltin reports whether the upper-case word names a builtin function.
func IsBuiltin(word string) bool {
	_, ok := builtinSet[word]
	return ok
}
