// Package expand resolves "{{...}}" placeholder tokens found in cell values.
//
// A token has the form expand_<key> with an optional [<context>] suffix:
//
//	{{expand_file}}             // file provider, context = row key
//	{{expand_file[intro]}}      // file provider, context = "intro"
//	{{expand_spreadsheet[faq]}} // spreadsheet provider, context = "faq"
//
// The Expander only dispatches to the Provider registered under <key>.
package expand

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrTokenExpansion is returned when a token cannot be expanded.
var ErrTokenExpansion = errors.New("token expansion failed")

const tokenPrefix = "expand_"

var (
	placeholderRe = regexp.MustCompile(`\{\{(.*?)\}\}`)
	overrideRe    = regexp.MustCompile(`\[(.*?)\]`)
)

// Provider produces the text a token stands for.
type Provider interface {
	// Key is the token type the provider answers to.
	Key() string
	// Expand returns the text for the given context.
	Expand(ctx context.Context, arg string) (string, error)
}

// Expander dispatches tokens to registered providers.
type Expander struct {
	providers map[string]Provider
}

// New creates an Expander with the given providers registered.
func New(providers ...Provider) *Expander {
	e := &Expander{providers: make(map[string]Provider)}
	for _, p := range providers {
		e.Register(p)
	}

	return e
}

// Register adds p, replacing any provider with the same key.
func (e *Expander) Register(p Provider) {
	e.providers[p.Key()] = p
}

// Placeholder returns the token inside the first "{{...}}" of value.
func Placeholder(value string) (string, bool) {
	m := placeholderRe.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// Expand resolves token. defaultContext is used unless the token carries a
// bracketed override.
func (e *Expander) Expand(ctx context.Context, token, defaultContext string) (string, error) {
	arg := defaultContext
	if m := overrideRe.FindStringSubmatch(token); m != nil {
		arg = m[1]
	}

	key, _, _ := strings.Cut(token, "[")
	key = strings.TrimPrefix(strings.TrimSpace(key), tokenPrefix)

	p, ok := e.providers[key]
	if !ok {
		return "", fmt.Errorf("%w: no provider for %q (context %q)", ErrTokenExpansion, key, arg)
	}

	out, err := p.Expand(ctx, arg)
	if err != nil {
		return "", fmt.Errorf("%w: %s[%s]: %w", ErrTokenExpansion, key, arg, err)
	}

	return out, nil
}
