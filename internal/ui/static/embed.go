// Пакет static: встроенные стили и скрипты консоли.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed css/*.css js/*.js
var content embed.FS

// FileSystem отдаёт /static/css/app.css и /static/js/app.js.
func FileSystem() http.FileSystem {
	return http.FS(content)
}

// FS даёт прямой доступ к встроенным файлам.
func FS() fs.FS {
	return content
}
