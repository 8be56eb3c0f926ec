package http

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/quizlink/quizlink-bridge/internal/remote"
)

// AdminStatusHandler is the connection test behind /admin/status: verifies
// the configured keys against the quiz service and reports a boolean. Ping
// is advisory, so a failed remote call reads as disconnected, not as a 5xx.
func AdminStatusHandler(client *remote.Client, adminUser, adminPassHash string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !adminAuthorized(user, pass, adminUser, adminPassHash) {
			w.Header().Set("WWW-Authenticate", `Basic realm="quizlink-bridge"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		connected, err := client.Ping(r.Context())
		if err != nil {
			connected = false
		}
		writeJSON(w, map[string]bool{"connected": connected})
	}
}

func adminAuthorized(user, pass, wantUser, passHash string) bool {
	if passHash == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(passHash), []byte(pass)) == nil
	return userOK && passOK
}
