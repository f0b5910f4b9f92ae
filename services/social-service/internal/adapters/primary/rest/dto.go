package rest

import (
	"time"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

// --- Requêtes ---

type createPostRequest struct {
	Title string `json:"title" validate:"max=200"`
	Body  string `json:"body" validate:"required,max=10000"`
}

type createCommentRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

// --- Réponses ---

type countsDTO struct {
	Following int `json:"following"`
	Followers int `json:"followers"`
}

type followResponse struct {
	Created *bool     `json:"created,omitempty"`
	Removed *bool     `json:"removed,omitempty"`
	Counts  countsDTO `json:"counts"`
}

type idListResponse struct {
	UserID string   `json:"user_id"`
	IDs    []string `json:"ids"`
	Count  int      `json:"count"`
}

type relationResponse struct {
	IsFollowing  bool `json:"is_following"`
	IsFollowedBy bool `json:"is_followed_by"`
}

type postDTO struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type postDetailResponse struct {
	Post         postDTO `json:"post"`
	LikeCount    int     `json:"like_count"`
	CommentCount int     `json:"comment_count"`
	LikedByMe    bool    `json:"liked_by_me"`
}

type commentDTO struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type pageResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type likeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

type feedResponse struct {
	FollowingAnyone bool      `json:"following_anyone"`
	Posts           []postDTO `json:"posts"`
	NextCursor      string    `json:"next_cursor,omitempty"`
}

type targetDTO struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type notificationDTO struct {
	ID        string     `json:"id"`
	ActorID   string     `json:"actor_id,omitempty"`
	Verb      string     `json:"verb"`
	Target    *targetDTO `json:"target,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}

type notificationsResponse struct {
	Items      []notificationDTO `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
	Total      int               `json:"total"`
	Unread     int               `json:"unread"`
}

// --- Mappers Domain -> DTO ---

func toPostDTO(p *domain.Post) postDTO {
	return postDTO{ID: p.ID, AuthorID: p.AuthorID, Title: p.Title, Body: p.Body, CreatedAt: p.CreatedAt}
}

func toPostDTOs(posts []*domain.Post) []postDTO {
	out := make([]postDTO, len(posts))
	for i, p := range posts {
		out[i] = toPostDTO(p)
	}
	return out
}

func toCommentDTO(c *domain.Comment) commentDTO {
	return commentDTO{ID: c.ID, PostID: c.PostID, AuthorID: c.AuthorID, Body: c.Body, CreatedAt: c.CreatedAt}
}

func toNotificationDTO(n *domain.Notification) notificationDTO {
	dto := notificationDTO{
		ID:        n.ID,
		ActorID:   n.ActorID,
		Verb:      string(n.Verb),
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.Target != nil {
		dto.Target = &targetDTO{Kind: string(n.Target.Kind), ID: n.Target.ID}
	}
	return dto
}
