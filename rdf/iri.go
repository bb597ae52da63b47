package rdf

import "strings"

// reference is an IRI reference split into its RFC 3986 components.
type reference struct {
	scheme    string
	authority string
	hasAuth   bool
	path      string
	query     string
	hasQuery  bool
	fragment  string
	hasFrag   bool
}

func parseReference(s string) reference {
	var r reference
	if i := schemeEnd(s); i > 0 {
		r.scheme = s[:i]
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, '#'); i >= 0 {
		r.fragment, r.hasFrag = s[i+1:], true
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		r.query, r.hasQuery = s[i+1:], true
		s = s[:i]
	}
	if strings.HasPrefix(s, "//") {
		s = s[2:]
		i := strings.IndexByte(s, '/')
		if i < 0 {
			i = len(s)
		}
		r.authority, r.hasAuth = s[:i], true
		s = s[i:]
	}
	r.path = s
	return r
}

// schemeEnd returns the index of the ':' ending a scheme, or -1.
func schemeEnd(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		case c == ':' && i > 0:
			return i
		default:
			return -1
		}
	}
	return -1
}

func (r reference) String() string {
	var b strings.Builder
	if r.scheme != "" {
		b.WriteString(r.scheme)
		b.WriteByte(':')
	}
	if r.hasAuth {
		b.WriteString("//")
		b.WriteString(r.authority)
	}
	b.WriteString(r.path)
	if r.hasQuery {
		b.WriteByte('?')
		b.WriteString(r.query)
	}
	if r.hasFrag {
		b.WriteByte('#')
		b.WriteString(r.fragment)
	}
	return b.String()
}

// IsAbsolute reports whether iri carries a scheme.
func IsAbsolute(iri string) bool {
	return schemeEnd(iri) > 0
}

// Resolve resolves ref against base following RFC 3986 section 5.2.
// ok is false when ref is relative and base is not absolute.
func Resolve(base, ref string) (string, bool) {
	r := parseReference(ref)
	if r.scheme != "" {
		r.path = removeDotSegments(r.path)
		return r.String(), true
	}
	if !IsAbsolute(base) {
		return ref, false
	}
	b := parseReference(base)

	t := reference{scheme: b.scheme, fragment: r.fragment, hasFrag: r.hasFrag}
	switch {
	case r.hasAuth:
		t.authority, t.hasAuth = r.authority, true
		t.path = removeDotSegments(r.path)
		t.query, t.hasQuery = r.query, r.hasQuery
	case r.path == "":
		t.authority, t.hasAuth = b.authority, b.hasAuth
		t.path = b.path
		if r.hasQuery {
			t.query, t.hasQuery = r.query, true
		} else {
			t.query, t.hasQuery = b.query, b.hasQuery
		}
	default:
		t.authority, t.hasAuth = b.authority, b.hasAuth
		if strings.HasPrefix(r.path, "/") {
			t.path = removeDotSegments(r.path)
		} else {
			t.path = removeDotSegments(merge(b, r.path))
		}
		t.query, t.hasQuery = r.query, r.hasQuery
	}
	return t.String(), true
}

func merge(base reference, path string) string {
	if base.hasAuth && base.path == "" {
		return "/" + path
	}
	i := strings.LastIndexByte(base.path, '/')
	if i < 0 {
		return path
	}
	return base.path[:i+1] + path
}

func removeDotSegments(in string) string {
	var out strings.Builder
	cut := func() {
		s := out.String()
		i := strings.LastIndexByte(s, '/')
		if i < 0 {
			i = 0
		}
		out.Reset()
		out.WriteString(s[:i])
	}
	for in != "" {
		switch {
		case strings.HasPrefix(in, "../"):
			in = in[3:]
		case strings.HasPrefix(in, "./"):
			in = in[2:]
		case strings.HasPrefix(in, "/./"):
			in = in[2:]
		case in == "/.":
			in = "/"
		case strings.HasPrefix(in, "/../"):
			in = in[3:]
			cut()
		case in == "/..":
			in = "/"
			cut()
		case in == "." || in == "..":
			in = ""
		default:
			start := 0
			if in[0] == '/' {
				start = 1
			}
			end := strings.IndexByte(in[start:], '/')
			if end < 0 {
				end = len(in)
			} else {
				end += start
			}
			out.WriteString(in[:end])
			in = in[end:]
		}
	}
	return out.String()
}
