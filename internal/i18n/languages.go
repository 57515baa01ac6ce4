package i18n

import "strings"

// languageNames are the codes /translate accepts as an explicit target.
var languageNames = map[string]string{
	"ar": "Arabic",
	"be": "Belarusian",
	"bg": "Bulgarian",
	"cs": "Czech",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fa": "Persian",
	"fr": "French",
	"he": "Hebrew",
	"hi": "Hindi",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"kk": "Kazakh",
	"ko": "Korean",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"sr": "Serbian",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"uz": "Uzbek",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

// GetLanguageName returns the English name of code, or code itself when it is unknown.
func GetLanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// IsTranslationTarget reports whether code is a two-letter language the translator accepts.
func IsTranslationTarget(code string) bool {
	_, ok := languageNames[strings.ToLower(code)]
	return ok
}
