package i18n

import "embed"

// LocaleFS содержит JSON-каталоги переводов.
//
//go:embed locales/*.json
var LocaleFS embed.FS
