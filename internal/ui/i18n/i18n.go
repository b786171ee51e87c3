// Пакет i18n: интернационализация строк консоли.
// T(ctx, key) и Tf(ctx, key, args...) берут язык из контекста запроса.
// Поддерживаемые языки: английский (en) и суахили (sw).
// Middleware определяет язык из cookie "lang", затем
// Accept-Language, иначе "en".
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"
)

// Коды языков.
const (
	LangEnglish = "en"
	LangSwahili = "sw"
)

var (
	// SupportedLanguages: теги для сопоставления с Accept-Language.
	SupportedLanguages = []language.Tag{
		language.English,
		language.Swahili,
	}

	matcher = language.NewMatcher(SupportedLanguages)
)

type contextKey string

const contextKeyLang contextKey = "i18n_lang"

// Bundle хранит каталоги всех языков.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string // lang -> key -> text
	logger   *slog.Logger
}

func NewBundle(logger *slog.Logger) *Bundle {
	return &Bundle{
		catalogs: make(map[string]map[string]string),
		logger:   logger,
	}
}

// LoadMessages загружает плоский каталог {"key": "text"} для lang.
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: parse catalog %s: %w", lang, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[lang] = messages

	if b.logger != nil {
		b.logger.Debug("i18n catalog loaded",
			slog.String("lang", lang),
			slog.Int("keys", len(messages)),
		)
	}
	return nil
}

// Translate возвращает текст key на языке lang, иначе на английском,
// иначе сам ключ.
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if catalog, ok := b.catalogs[lang]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if lang != LangEnglish {
		if catalog, ok := b.catalogs[LangEnglish]; ok {
			if msg, ok := catalog[key]; ok {
				return msg
			}
		}
	}
	return key
}

// Translatef форматирует перевод с args.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	template := b.Translate(lang, key)
	if len(args) == 0 {
		return template
	}
	return formatFunc(template, args...)
}

// Has сообщает, есть ли key в lang.
func (b *Bundle) Has(lang, key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.catalogs[lang][key]
	return ok
}

// --- глобальный bundle ---

var (
	globalBundle *Bundle
	globalOnce   sync.Once
)

// Init однократно создаёт глобальный bundle.
func Init(logger *slog.Logger) *Bundle {
	globalOnce.Do(func() {
		globalBundle = NewBundle(logger)
	})
	return globalBundle
}

// GetBundle возвращает глобальный bundle, nil до Init.
func GetBundle() *Bundle {
	return globalBundle
}

// WithLang кладёт язык в ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKeyLang, lang)
}

// LangFromContext возвращает язык запроса, по умолчанию "en".
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKeyLang).(string); ok && lang != "" {
		return lang
	}
	return LangEnglish
}

// T переводит key на язык запроса.
func T(ctx context.Context, key string) string {
	if globalBundle == nil {
		return key
	}
	return globalBundle.Translate(LangFromContext(ctx), key)
}

// Tf переводит key и форматирует с args.
func Tf(ctx context.Context, key string, args ...any) string {
	if globalBundle == nil {
		if len(args) == 0 {
			return key
		}
		return formatFunc(key, args...)
	}
	return globalBundle.Translatef(LangFromContext(ctx), key, args...)
}

// Форматные строки каталога известны только во время выполнения, vet их не проверит.
//
//nolint:govet
var formatFunc = fmt.Sprintf

// IsSupported сообщает, поддерживается ли язык lang.
func IsSupported(lang string) bool {
	return lang == LangEnglish || lang == LangSwahili
}

// MatchLanguage выбирает лучший поддерживаемый язык для заголовка
// Accept-Language.
func MatchLanguage(acceptLanguage string) string {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	base, _ := tag.Base()
	if base.String() == LangSwahili {
		return LangSwahili
	}
	return LangEnglish
}
