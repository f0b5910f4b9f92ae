package domain

// Page est une tranche ordonnée + le curseur de la suivante ("" = fin).
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// Feed : FollowingAnyone distingue "ne suit personne" de "aucun post".
type Feed struct {
	FollowingAnyone bool
	Posts           []*Post
	NextCursor      string
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ClampLimit applique la taille par défaut et le plafond.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
