package domain

import (
	"fmt"
	"strings"
	"time"
)

type Post struct {
	ID        string
	AuthorID  string
	Title     string // Optionnel
	Body      string
	CreatedAt time.Time
}

type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// Like : au plus un par couple (compte, post). Sémantique d'ensemble, pas de compteur.
type Like struct {
	AccountID string
	PostID    string
	CreatedAt time.Time
}

// PostStats agrège ce que la vue détail affiche autour d'un post.
type PostStats struct {
	LikeCount    int
	CommentCount int
	LikedByMe    bool
}

// NewPost crée un post valide. L'ID et la date viennent de l'appelant (service).
func NewPost(id, authorID, title, body string, now time.Time) (*Post, error) {
	if strings.TrimSpace(authorID) == "" {
		return nil, fmt.Errorf("%w: author is required", ErrValidation)
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: post body cannot be empty", ErrValidation)
	}
	return &Post{
		ID:        id,
		AuthorID:  authorID,
		Title:     strings.TrimSpace(title),
		Body:      body,
		CreatedAt: now,
	}, nil
}

func NewComment(id, postID, authorID, body string, now time.Time) (*Comment, error) {
	if strings.TrimSpace(authorID) == "" || strings.TrimSpace(postID) == "" {
		return nil, fmt.Errorf("%w: post and author are required", ErrValidation)
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: comment body cannot be empty", ErrValidation)
	}
	return &Comment{
		ID:        id,
		PostID:    postID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: now,
	}, nil
}

// MaxSearchLength borne le filtre texte des listes de posts.
const MaxSearchLength = 100

// NormalizeSearch nettoie le filtre ?q= ("" = pas de filtre).
func NormalizeSearch(q string) (string, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) > MaxSearchLength {
		return "", fmt.Errorf("%w: search query longer than %d characters", ErrValidation, MaxSearchLength)
	}
	return q, nil
}

// Matches : recherche insensible à la casse dans le titre et le corps.
func (p *Post) Matches(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Body), q)
}
