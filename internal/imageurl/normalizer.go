// Package imageurl turns arbitrary image links into addresses a display surface can render.
package imageurl

import (
	"strings"

	"kiosk/internal/logger"
)

// Normalizer rewrites user-supplied image links through an ordered rule chain.
type Normalizer struct {
	log         *logger.Logger
	cache       *Cache
	placeholder Placeholder
	rules       []Rule
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger attaches a logger for rule diagnostics.
func WithLogger(log *logger.Logger) Option {
	return func(n *Normalizer) {
		n.log = log
	}
}

// WithCache memoizes results.
func WithCache(cache *Cache) Option {
	return func(n *Normalizer) {
		n.cache = cache
	}
}

// WithPlaceholder overrides the placeholder service.
func WithPlaceholder(p Placeholder) Option {
	return func(n *Normalizer) {
		n.placeholder = p
	}
}

// WithRules replaces the rewrite chain.
func WithRules(rules []Rule) Option {
	return func(n *Normalizer) {
		n.rules = rules
	}
}

// New creates a Normalizer with the default rule chain.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		placeholder: DefaultPlaceholder(),
		rules:       DefaultRules(),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Result describes how an address was rewritten.
type Result struct {
	Original  string `json:"original"`
	Converted string `json:"converted"`
	Rule      string `json:"rule"`
	IsDirect  bool   `json:"isDirect"`
	Changed   bool   `json:"changed"`
}

// Normalize returns a renderable address for raw. It never fails; unusable input
// degrades to a placeholder.
func (n *Normalizer) Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return n.placeholder.Empty()
	}

	if n.cache != nil {
		if v, ok := n.cache.Get(trimmed); ok {
			return v
		}
	}

	out, _ := n.apply(trimmed)

	if n.cache != nil {
		n.cache.Add(trimmed, out)
	}

	return out
}

// Explain normalizes raw and reports which rule produced the result.
func (n *Normalizer) Explain(raw string) Result {
	trimmed := strings.TrimSpace(raw)

	res := Result{Original: raw}

	if trimmed == "" {
		res.Converted = n.placeholder.Empty()
		res.Rule = "empty"
	} else {
		res.Converted, res.Rule = n.apply(trimmed)
	}

	res.IsDirect = IsDirectImageURL(res.Converted)
	res.Changed = res.Converted != trimmed

	return res
}

// Placeholder returns the placeholder settings in use.
func (n *Normalizer) Placeholder() Placeholder {
	return n.placeholder
}

func (n *Normalizer) apply(trimmed string) (string, string) {
	t := newTarget(trimmed)

	for _, rule := range n.rules {
		if !rule.Match(t) {
			continue
		}

		out, ok := rule.Apply(n, t)
		if !ok {
			continue
		}

		if out != trimmed {
			n.debug("image url rewritten", "rule", rule.Name, "from", trimmed, "to", out)
		}

		return out, rule.Name
	}

	return trimmed, "unchanged"
}

func (n *Normalizer) debug(msg string, args ...any) {
	if n.log == nil {
		return
	}

	n.log.Debug(msg, args...)
}

var defaultNormalizer = New()

// Normalize rewrites raw using the default rule chain.
func Normalize(raw string) string {
	return defaultNormalizer.Normalize(raw)
}
