// Package i18n resolves user-facing strings from embedded locale
// dictionaries. Lookups are pure functions over an explicit dictionary set.
package i18n

import (
	"embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when a key is missing in the requested locale.
const DefaultLocale = "en"

// Supported lists the locales shipped with the binary.
var Supported = []string{"en", "fa", "ar"}

//go:embed locales/*.yaml
var localeFS embed.FS

// Dictionaries maps a locale to its nested message tree.
type Dictionaries map[string]map[string]any

// Load parses the embedded locale files.
func Load() (Dictionaries, error) {
	dicts := make(Dictionaries, len(Supported))
	for _, loc := range Supported {
		b, err := localeFS.ReadFile("locales/" + loc + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("unable to read locale %s: %w", loc, err)
		}
		var m map[string]any
		if err := yaml.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("unable to parse locale %s: %w", loc, err)
		}
		dicts[loc] = m
	}
	return dicts, nil
}

// MustLoad is like Load but panics on error. The dictionaries are compiled
// into the binary, so a failure here is a build defect.
func MustLoad() Dictionaries {
	d, err := Load()
	if err != nil {
		panic(err)
	}
	return d
}

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// Translate resolves a dotted key in locale, falling back to the default
// locale and then to the key itself. Placeholders such as {name} are
// replaced from params; unknown or empty params leave the placeholder as is.
func Translate(dicts Dictionaries, locale, key string, params map[string]string) string {
	path := strings.Split(key, ".")

	v, ok := lookup(dicts[locale], path)
	if !ok {
		if v, ok = lookup(dicts[DefaultLocale], path); !ok {
			return key
		}
	}

	s, ok := v.(string)
	if !ok {
		return key
	}
	if len(params) == 0 {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		if p := params[m[1:len(m)-1]]; p != "" {
			return p
		}
		return m
	})
}

func lookup(tree map[string]any, path []string) (any, bool) {
	var v any = tree
	for _, k := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		if v, ok = m[k]; !ok {
			return nil, false
		}
	}
	return v, true
}

// Translator binds a dictionary set to one locale.
type Translator struct {
	dicts  Dictionaries
	locale string
}

// NewTranslator returns a translator for locale. Unsupported locales use
// the default.
func NewTranslator(dicts Dictionaries, locale string) Translator {
	if !IsSupported(locale) {
		locale = DefaultLocale
	}
	return Translator{dicts: dicts, locale: locale}
}

// Locale returns the bound locale.
func (t Translator) Locale() string { return t.locale }

// T translates key. Params are given as alternating name, value pairs.
func (t Translator) T(key string, kv ...string) string {
	var params map[string]string
	if len(kv) > 1 {
		params = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			params[kv[i]] = kv[i+1]
		}
	}
	return Translate(t.dicts, t.locale, key, params)
}

// IsSupported reports whether locale ships with the binary.
func IsSupported(locale string) bool {
	for _, l := range Supported {
		if l == locale {
			return true
		}
	}
	return false
}

// IsRTL reports whether locale is written right to left.
func IsRTL(locale string) bool {
	return locale == "fa" || locale == "ar"
}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Persian,
	language.Arabic,
})

// Detect picks a locale. A supported saved choice wins; otherwise the first
// environment language (LANG style, e.g. "fa_IR.UTF-8") that matches a
// supported locale is used.
func Detect(saved string, envLangs ...string) string {
	if IsSupported(saved) {
		return saved
	}
	for _, l := range envLangs {
		l = normalizeEnvLang(l)
		if l == "" {
			continue
		}
		tag, err := language.Parse(l)
		if err != nil {
			continue
		}
		if _, idx, conf := matcher.Match(tag); conf != language.No {
			return Supported[idx]
		}
	}
	return DefaultLocale
}

// DetectFromEnv is Detect over the usual POSIX locale variables.
func DetectFromEnv(saved string) string {
	return Detect(saved, os.Getenv("LC_ALL"), os.Getenv("LC_MESSAGES"), os.Getenv("LANG"))
}

func normalizeEnvLang(l string) string {
	if i := strings.IndexAny(l, ".@"); i >= 0 {
		l = l[:i]
	}
	if l == "C" || l == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(l, "_", "-")
}
