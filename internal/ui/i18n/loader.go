package i18n

import (
	"fmt"
	"log/slog"
)

// Languages: каталоги, поставляемые в LocaleFS.
var Languages = []string{LangEnglish, LangSwahili}

// LoadFromEmbedFS загружает все каталоги в bundle.
func LoadFromEmbedFS(bundle *Bundle, logger *slog.Logger) error {
	for _, lang := range Languages {
		path := fmt.Sprintf("locales/%s.json", lang)
		data, err := LocaleFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("i18n: read %s: %w", path, err)
		}
		if err := bundle.LoadMessages(lang, data); err != nil {
			return err
		}
	}

	logger.Info("i18n catalogs loaded", slog.Int("languages", len(Languages)))
	return nil
}
