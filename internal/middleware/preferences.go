// Package middleware содержит HTTP middleware витрины.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/mmeshcher/storefront/internal/model"
)

type contextKey string

const preferencesKey contextKey = "preferences"

const (
	preferencesCookieName = "storefront_prefs"
	preferencesCookieTTL  = 365 * 24 * time.Hour
)

// PreferencesMiddleware читает подписанный cookie с языком и валютой пользователя.
type PreferencesMiddleware struct {
	secretKey []byte
}

// NewPreferencesMiddleware создаёт middleware с указанным секретным ключом.
// При пустом ключе генерируется случайный, и cookie живут до перезапуска сервиса.
func NewPreferencesMiddleware(secret string) *PreferencesMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &PreferencesMiddleware{
		secretKey: key,
	}
}

// Middleware добавляет в контекст запроса настройки из cookie, если подпись верна.
// Запрос без cookie или с повреждённым cookie обрабатывается без настроек.
func (m *PreferencesMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(preferencesCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		prefs, ok := m.parseCookie(cookie.Value)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), preferencesKey, prefs)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetPreferencesCookie сохраняет язык и валюту пользователя в подписанном cookie.
func (m *PreferencesMiddleware) SetPreferencesCookie(w http.ResponseWriter, prefs model.Preferences) {
	payload := prefs.Language + "|" + prefs.Currency

	cookie := &http.Cookie{
		Name:     preferencesCookieName,
		Value:    payload + "." + m.sign(payload),
		Path:     "/",
		Expires:  time.Now().Add(preferencesCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (m *PreferencesMiddleware) sign(payload string) string {
	mac := hmac.New(sha256.New, m.secretKey)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (m *PreferencesMiddleware) parseCookie(value string) (model.Preferences, bool) {
	i := strings.LastIndex(value, ".")
	if i < 0 {
		return model.Preferences{}, false
	}

	payload, signature := value[:i], value[i+1:]
	if !hmac.Equal([]byte(signature), []byte(m.sign(payload))) {
		return model.Preferences{}, false
	}

	lang, cur, ok := strings.Cut(payload, "|")
	if !ok {
		return model.Preferences{}, false
	}

	return model.Preferences{Language: lang, Currency: cur}, true
}

// PreferencesFromContext извлекает настройки пользователя из контекста запроса.
func PreferencesFromContext(ctx context.Context) (model.Preferences, bool) {
	prefs, ok := ctx.Value(preferencesKey).(model.Preferences)
	return prefs, ok
}
