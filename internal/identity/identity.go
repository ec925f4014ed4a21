// Package identity derives the current user id from the identity string
// handed to Connect: either a raw user id or a bearer token issued by the
// chat server's auth layer.
package identity

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is a resolved connection identity.
type Identity struct {
	// UserID is the chat user id, either given directly or decoded from
	// the token's subject claim.
	UserID string

	// Token is the original bearer token, empty when a raw id was given.
	Token string
}

// Resolve interprets the given identity string. A string shaped like a JWT
// (three dot-separated segments) is decoded without signature verification —
// token validation belongs to the server, the engine only needs the subject.
// Anything else is treated as a raw user id.
func Resolve(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Identity{}, fmt.Errorf("empty identity")
	}
	if strings.Count(s, ".") != 2 {
		return Identity{UserID: s}, nil
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s, claims); err != nil {
		return Identity{}, fmt.Errorf("decode token: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, fmt.Errorf("token has no subject claim")
	}
	return Identity{UserID: sub, Token: s}, nil
}

// Query returns the websocket query parameter for this identity:
// "access_token" for tokens, "user_id" for raw ids.
func (id Identity) Query() (key, value string) {
	if id.Token != "" {
		return "access_token", id.Token
	}
	return "user_id", id.UserID
}
