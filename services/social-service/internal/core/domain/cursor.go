package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Cursor est la position exclusive dans un flux trié par (CreatedAt DESC, ID DESC).
// L'ID départage les égalités de date : la page suivante reprend strictement après.
type Cursor struct {
	At time.Time
	ID string
}

// After indique si (at, id) se trouve strictement après le curseur dans l'ordre décroissant.
func (c *Cursor) After(at time.Time, id string) bool {
	if c == nil {
		return true
	}
	if at.Before(c.At) {
		return true
	}
	return c.ID != "" && at.Equal(c.At) && id < c.ID
}

// Encode produit le jeton opaque renvoyé aux clients.
func (c Cursor) Encode() string {
	raw := c.At.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor accepte "" (première page), un jeton opaque, ou une date RFC3339Nano brute.
func DecodeCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	// Date brute : curseur purement temporel
	if at, err := time.Parse(time.RFC3339Nano, token); err == nil {
		return &Cursor{At: at.UTC()}, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid page token", ErrValidation)
	}
	at, id, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil, fmt.Errorf("%w: invalid page token", ErrValidation)
	}
	t, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid page token", ErrValidation)
	}
	return &Cursor{At: t.UTC(), ID: id}, nil
}

// NextCursor calcule le jeton de la page suivante : vide si la page n'est pas pleine.
func NextCursor(at time.Time, id string, got, limit int) string {
	if got < limit || got == 0 {
		return ""
	}
	return Cursor{At: at, ID: id}.Encode()
}
