// Package i18n resolves stable message identifiers into localized text.
//
// Catalogs are YAML files embedded at build time, one per locale. An entry is
// either a plain template or a {one, other} pair selected by the "count" (or
// "n") parameter. Templates interpolate named parameters written as {name}.
package i18n

import (
	"embed"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used for unknown locales and for keys a locale lacks.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

var reParam = regexp.MustCompile(`\{(\w+)\}`)

// Params are the named interpolation values of one message.
type Params map[string]any

// Translator resolves a message identifier with its parameters.
type Translator interface {
	T(key string, params Params) string
}

type entry struct {
	One   string
	Other string
}

func (e *entry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		e.Other = node.Value
		return nil
	case yaml.MappingNode:
		var forms struct {
			One   string `yaml:"one"`
			Other string `yaml:"other"`
		}
		if err := node.Decode(&forms); err != nil {
			return err
		}
		e.One, e.Other = forms.One, forms.Other
		return nil
	}
	return fmt.Errorf("line %d: message must be a string or a one/other mapping", node.Line)
}

// Catalog is the message table of one locale.
type Catalog struct {
	locale   string
	messages map[string]entry
	fallback *Catalog
}

// Load reads the embedded catalog for locale. Locales other than
// DefaultLocale fall back to it for missing keys.
func Load(locale string) (*Catalog, error) {
	locale = normalize(locale)
	c, err := parse(locale)
	if err != nil {
		return nil, err
	}
	if locale != DefaultLocale {
		def, err := parse(DefaultLocale)
		if err != nil {
			return nil, err
		}
		c.fallback = def
	}
	return c, nil
}

// Locales lists the embedded locales, sorted.
func Locales() []string {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func parse(locale string) (*Catalog, error) {
	data, err := localeFS.ReadFile("locales/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown locale %q", locale)
	}
	messages := make(map[string]entry)
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parse locale %s: %w", locale, err)
	}
	return &Catalog{locale: locale, messages: messages}, nil
}

// normalize maps "zh-CN", "zh_TW" etc. onto the base language tag.
func normalize(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	if locale == "" {
		return DefaultLocale
	}
	return locale
}

// Locale returns the catalog's language tag.
func (c *Catalog) Locale() string { return c.locale }

// T resolves key. Unknown keys resolve to the key itself.
func (c *Catalog) T(key string, params Params) string {
	e, ok := c.lookup(key)
	if !ok {
		return key
	}
	tmpl := e.Other
	if e.One != "" && isOne(params) {
		tmpl = e.One
	}
	return interpolate(tmpl, params)
}

func (c *Catalog) lookup(key string) (entry, bool) {
	if e, ok := c.messages[key]; ok {
		return e, true
	}
	if c.fallback != nil {
		return c.fallback.lookup(key)
	}
	return entry{}, false
}

func isOne(params Params) bool {
	for _, name := range []string{"count", "n"} {
		v, ok := params[name]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case int:
			return n == 1
		case int64:
			return n == 1
		case string:
			i, err := strconv.Atoi(n)
			return err == nil && i == 1
		}
		return false
	}
	return false
}

func interpolate(tmpl string, params Params) string {
	if len(params) == 0 {
		return tmpl
	}
	return reParam.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := params[m[1:len(m)-1]]; ok {
			return fmt.Sprint(v)
		}
		return m
	})
}
