// Пакет auth: cookie консоли и токены, выдаваемые API активов.
// Cookie шифруются AES-256-GCM.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// SessionCookieName: зашифрованный id серверной сессии.
	SessionCookieName = "asset_console_session"
	// FlashCookieName: одноразовое уведомление.
	FlashCookieName = "asset_console_flash"
)

// Flash: уведомление, показываемое один раз на следующей странице.
type Flash struct {
	// Kind: "success" или "error".
	Kind string `json:"k"`
	// Key: ключ перевода.
	Key string `json:"m"`
	// Detail выводится как есть после переведённого сообщения.
	Detail string `json:"d,omitempty"`
}

// CookieManager шифрует и расшифровывает cookie консоли.
type CookieManager struct {
	gcm    cipher.AEAD
	secure bool
}

// NewCookieManager создаёт менеджер по ключу. base64-ключ из 32 байт
// используется как есть, любая другая строка хешируется SHA-256. Пустой ключ
// заменяется случайным, и сессии не переживают перезапуск.
func NewCookieManager(key string, secure bool) (*CookieManager, error) {
	var keyBytes []byte

	if key == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("generate cookie key: %w", err)
		}
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(key)
		if err != nil || len(keyBytes) != 32 {
			keyBytes = sha256Key(key)
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &CookieManager{gcm: gcm, secure: secure}, nil
}

// Seal шифрует plaintext в URL-безопасную строку. Nonce идёт в начале.
func (cm *CookieManager) Seal(plaintext []byte) (string, error) {
	nonce := make([]byte, cm.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	ciphertext := cm.gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Open выполняет обратное к Seal.
func (cm *CookieManager) Open(sealed string) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("decode cookie: %w", err)
	}

	nonceSize := cm.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("cookie too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := cm.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open cookie: %w", err)
	}
	return plaintext, nil
}

// SetSession записывает cookie сессии. Max-Age не задаётся: окончание
// сессии определяет серверный дедлайн неактивности.
func (cm *CookieManager) SetSession(w http.ResponseWriter, sessionID string) error {
	sealed, err := cm.Seal([]byte(sessionID))
	if err != nil {
		return err
	}
	http.SetCookie(w, cm.cookie(SessionCookieName, sealed, 0))
	return nil
}

// SessionID возвращает id сессии из запроса или "", если cookie нет.
// Подделанная cookie даёт ошибку.
func (cm *CookieManager) SessionID(r *http.Request) (string, error) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil
		}
		return "", err
	}
	id, err := cm.Open(c.Value)
	if err != nil {
		return "", err
	}
	return string(id), nil
}

// ClearSession удаляет cookie сессии.
func (cm *CookieManager) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, cm.cookie(SessionCookieName, "", -1))
}

// SetFlash сохраняет уведомление для следующей страницы.
func (cm *CookieManager) SetFlash(w http.ResponseWriter, f Flash) {
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	sealed, err := cm.Seal(b)
	if err != nil {
		return
	}
	http.SetCookie(w, cm.cookie(FlashCookieName, sealed, 60))
}

// PopFlash читает и удаляет ожидающее уведомление.
func (cm *CookieManager) PopFlash(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	c, err := r.Cookie(FlashCookieName)
	if err != nil {
		return Flash{}, false
	}
	http.SetCookie(w, cm.cookie(FlashCookieName, "", -1))

	b, err := cm.Open(c.Value)
	if err != nil {
		return Flash{}, false
	}
	var f Flash
	if err := json.Unmarshal(b, &f); err != nil {
		return Flash{}, false
	}
	return f, true
}

func (cm *CookieManager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cm.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func sha256Key(key string) []byte {
	h := sha256.Sum256([]byte(key))
	return h[:]
}
