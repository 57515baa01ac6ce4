package i18n

import (
	"embed"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const defaultLanguage = "en"

//go:embed resources/translations.yml
var resources embed.FS

var state = struct {
	once         sync.Once
	translations map[string]map[string]string
	languages    []string
}{}

// load reads the embedded dictionary. Its layout is key -> LOCALE -> text, where the key itself is
// the English text.
func load() {
	state.once.Do(func() {
		state.translations = make(map[string]map[string]string)
		languages := map[string]struct{}{defaultLanguage: {}}
		defer func() {
			state.languages = make([]string, 0, len(languages))
			for lang := range languages {
				state.languages = append(state.languages, lang)
			}
			sort.Strings(state.languages)
		}()

		content, err := resources.ReadFile("resources/translations.yml")
		if err != nil {
			log.WithError(err).Errorln("cant load i18n")
			return
		}
		dict := map[string]map[string]string{}
		if err := yaml.Unmarshal(content, &dict); err != nil {
			log.WithError(err).Errorln("cant unmarshal i18n")
			return
		}
		for key, locales := range dict {
			for locale, text := range locales {
				lang := strings.ToLower(locale)
				if state.translations[lang] == nil {
					state.translations[lang] = make(map[string]string)
				}
				state.translations[lang][key] = text
				languages[lang] = struct{}{}
			}
		}
	})
}

// Get returns the text of key in lang, or key itself when there is no translation.
func Get(key, lang string) string {
	lang = strings.ToLower(lang)
	if lang == defaultLanguage || lang == "" {
		return key
	}
	load()
	if res, ok := state.translations[lang][key]; ok {
		return res
	}
	log.Tracef(`no translation for key "%s"`, key)
	return key
}

// GetLanguagesList lists the language codes replies can be rendered in, sorted.
func GetLanguagesList() []string {
	load()
	return append([]string(nil), state.languages...)
}
