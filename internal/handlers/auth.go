package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gorilla/sessions"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

var (
	sessionStore = sessions.NewCookieStore([]byte(sessionSecret()))
	sessionName  = "estate-notify-session"
)

func sessionSecret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "secret-key-change-in-production"
}

// consoleOpen reports whether the console runs without authentication.
// That is the default for a local single-operator setup; configuring
// CONSOLE_PASSWORD_HASH turns the login on.
func consoleOpen() bool {
	return os.Getenv("CONSOLE_PASSWORD_HASH") == ""
}

// LoginHandler authenticates the console operator: bcrypt password check
// against CONSOLE_PASSWORD_HASH, plus a TOTP code when CONSOLE_TOTP_SECRET
// is set.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if consoleOpen() {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "open": true})
		return
	}

	var req struct {
		Password string `json:"password"`
		Code     string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	hash := os.Getenv("CONSOLE_PASSWORD_HASH")
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if secret := os.Getenv("CONSOLE_TOTP_SECRET"); secret != "" {
		if !totp.Validate(req.Code, secret) {
			http.Error(w, "Invalid code", http.StatusUnauthorized)
			return
		}
	}

	session, _ := sessionStore.Get(r, sessionName)
	session.Values["authenticated"] = true
	session.Save(r, w)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// LogoutHandler clears the console session.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionStore.Get(r, sessionName)
	session.Values["authenticated"] = nil
	session.Options.MaxAge = -1
	session.Save(r, w)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// AuthMiddleware gates console endpoints behind the operator session when a
// password is configured.
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if consoleOpen() {
			next(w, r)
			return
		}
		session, _ := sessionStore.Get(r, sessionName)
		ok, _ := session.Values["authenticated"].(bool)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
