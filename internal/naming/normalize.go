package naming

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// Normalize turns free text into a key.
// The pipeline:
// 1. Trim and case-fold to lower.
// 2. Replace every run of non-alphanumeric runes with a single "_".
// 3. Strip leading and trailing "_".
//
// Normalize is idempotent.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder

	b.Grow(len(s))

	pendingSep := false

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}

			pendingSep = false

			b.WriteRune(r)

			continue
		}

		pendingSep = true
	}

	return b.String()
}

// Underscore converts a type name into its snake_case form.
// Examples:
//   - "BlogPost" -> "blog_post"
//   - "HTTPRequest" -> "http_request"
//   - "author" -> "author"
func Underscore(typeName string) string {
	tokens := tokenizeCamelCase(typeName)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}

	return strings.Join(tokens, "_")
}

// Camelize converts snake_case text into a CamelCase type name.
func Camelize(s string) string {
	var b strings.Builder

	for _, part := range strings.Split(Normalize(s), "_") {
		if part == "" {
			continue
		}

		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}

	return b.String()
}

// ClassNameFromTitle derives a type name from a source title:
// "Blog Posts" -> "BlogPost".
func ClassNameFromTitle(title string) string {
	return Camelize(inflection.Singular(Normalize(title)))
}

// Pluralize returns the plural of a snake_case name: "blog_post" -> "blog_posts".
func Pluralize(s string) string {
	return inflection.Plural(s)
}

// Singularize returns the singular of a snake_case name.
func Singularize(s string) string {
	return inflection.Singular(s)
}

// tokenizeCamelCase splits a CamelCase or camelCase string into tokens.
// Examples:
//   - "OrderID" -> ["Order", "ID"]
//   - "customerName" -> ["customer", "Name"]
//   - "XMLParser" -> ["XML", "Parser"]
//   - "blog_post" -> ["blog", "post"]
func tokenizeCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var tokens []string

	var current strings.Builder

	runes := []rune(s)
	for i := range runes {
		r := runes[i]

		if isSeparator(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

			continue
		}

		if i > 0 && shouldStartNewToken(runes, i) && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

// shouldStartNewToken reports whether a new token starts at position i.
func shouldStartNewToken(runes []rune, i int) bool {
	r := runes[i]
	prev := runes[i-1]

	if !unicode.IsUpper(r) || isSeparator(prev) {
		return false
	}

	// "orderID" splits before 'I'.
	if !unicode.IsUpper(prev) {
		return true
	}

	// "XMLParser" splits before 'P'.
	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
