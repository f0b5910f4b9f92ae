package domain

import "time"

type Verb string

const (
	VerbFollowed  Verb = "followed"
	VerbCommented Verb = "commented"
	VerbLiked     Verb = "liked"
)

type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetAccount TargetKind = "account"
)

// TargetRef est une référence arrière (kind + id), jamais une possession.
type TargetRef struct {
	Kind TargetKind
	ID   string
}

type Notification struct {
	ID          string
	RecipientID string
	ActorID     string // Vide pour les notifications système
	Verb        Verb
	Target      *TargetRef
	Read        bool
	CreatedAt   time.Time
}

// NotificationCounts est renvoyé avec les listes (total / non lues).
type NotificationCounts struct {
	Total  int
	Unread int
}
