package scaffold

import (
	"strings"
	"unicode"
)

// Name is one identifier spelled every way the templates need.
type Name struct {
	Pascal       string // BlogPost
	Camel        string // blogPost
	Snake        string // blog_post
	Plural       string // blog_posts
	PluralPascal string // BlogPosts
	Title        string // Blog Post
}

// ParseName accepts "BlogPost", "blog_post", "blog-post" or "blog post".
func ParseName(s string) (Name, error) {
	words := splitWords(s)
	if len(words) == 0 || !unicode.IsLetter([]rune(words[0])[0]) {
		return Name{}, ErrInvalidName
	}

	titles := make([]string, len(words))
	for i, w := range words {
		titles[i] = upperFirst(w)
	}
	pluralWords := append(append([]string{}, words[:len(words)-1]...), plural(words[len(words)-1]))
	pluralTitles := make([]string, len(pluralWords))
	for i, w := range pluralWords {
		pluralTitles[i] = upperFirst(w)
	}

	n := Name{
		Pascal:       strings.Join(titles, ""),
		Snake:        strings.Join(words, "_"),
		Plural:       strings.Join(pluralWords, "_"),
		PluralPascal: strings.Join(pluralTitles, ""),
		Title:        strings.Join(titles, " "),
	}
	n.Camel = words[0] + strings.Join(titles[1:], "")
	return n, nil
}

// splitWords lowercases s and breaks it at separators and case changes.
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(strings.TrimSpace(s))
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			return nil
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) ||
			(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return words
}

func upperFirst(w string) string {
	r := []rune(w)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func plural(w string) string {
	switch {
	case strings.HasSuffix(w, "y") && len(w) > 1 && !strings.ContainsRune("aeiou", rune(w[len(w)-2])):
		return w[:len(w)-1] + "ies"
	case strings.HasSuffix(w, "s"), strings.HasSuffix(w, "x"), strings.HasSuffix(w, "z"),
		strings.HasSuffix(w, "ch"), strings.HasSuffix(w, "sh"):
		return w + "es"
	default:
		return w + "s"
	}
}

// ── Fields ────────────────────────────────────────────────────────────────────

// Field is one model column from a "name:type" spec.
type Field struct {
	Name    Name
	GoType  string
	SQLType string
	Rule    string
}

var fieldTypes = map[string]struct{ goType, sqlType, rule string }{
	"string": {"string", "VARCHAR(255)", "required|max:255"},
	"str":    {"string", "VARCHAR(255)", "required|max:255"},
	"text":   {"string", "TEXT", "required"},
	"int":    {"int64", "BIGINT", "required|integer"},
	"bool":   {"bool", "BOOLEAN", "sometimes|boolean"},
	"float":  {"float64", "DOUBLE PRECISION", "required|numeric"},
	"time":   {"time.Time", "TIMESTAMPTZ", "required"},
}

// ParseFields reads "title:string,views:int". A field without a type is a
// string.
func ParseFields(spec string) ([]Field, error) {
	var out []Field
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, typ, _ := strings.Cut(part, ":")
		if typ == "" {
			typ = "string"
		}
		t, ok := fieldTypes[strings.ToLower(typ)]
		if !ok {
			return nil, &FieldError{Field: part}
		}
		n, err := ParseName(name)
		if err != nil {
			return nil, &FieldError{Field: part}
		}
		out = append(out, Field{Name: n, GoType: t.goType, SQLType: t.sqlType, Rule: t.rule})
	}
	return out, nil
}
