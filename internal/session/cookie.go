package session

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const cookieName = "qlbridge_session"

// Cookies binds a browser to its server-side session record with a signed
// JWT cookie carrying only the session id.
type Cookies struct {
	hmac []byte
	ttl  time.Duration
}

func NewCookies(secret string) *Cookies {
	return &Cookies{hmac: []byte(secret), ttl: 8 * time.Hour}
}

type sidClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// Ensure returns the sid for the request, minting a new session cookie if
// the request carries none (or an invalid one).
func (c *Cookies) Ensure(w http.ResponseWriter, r *http.Request) string {
	if sid, ok := c.Read(r); ok {
		return sid
	}
	sid := uuid.NewString()
	c.write(w, sid)
	return sid
}

func (c *Cookies) Read(r *http.Request) (string, bool) {
	ck, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	tok, err := jwt.ParseWithClaims(ck.Value, &sidClaims{}, func(t *jwt.Token) (interface{}, error) {
		return c.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return "", false
	}
	claims, ok := tok.Claims.(*sidClaims)
	if !ok || claims.SID == "" {
		return "", false
	}
	return claims.SID, true
}

func (c *Cookies) write(w http.ResponseWriter, sid string) {
	now := time.Now()
	claims := &sidClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.hmac)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(c.ttl),
	})
}
