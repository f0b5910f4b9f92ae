package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/ports"
)

// Handler expose les services du cœur en HTTP/JSON.
type Handler struct {
	graph         ports.GraphService
	content       ports.ContentService
	notifications ports.NotificationService
	feed          ports.FeedService
}

func NewHandler(graph ports.GraphService, content ports.ContentService, notifications ports.NotificationService, feed ports.FeedService) *Handler {
	return &Handler{graph: graph, content: content, notifications: notifications, feed: feed}
}

// --- Graphe ---

func (h *Handler) follow(w http.ResponseWriter, r *http.Request) {
	me, target := ForContext(r.Context()), chi.URLParam(r, "id")

	created, err := h.graph.Follow(r.Context(), me, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeFollowResult(w, r, me, target, followResponse{Created: &created})
}

func (h *Handler) unfollow(w http.ResponseWriter, r *http.Request) {
	me, target := ForContext(r.Context()), chi.URLParam(r, "id")

	removed, err := h.graph.Unfollow(r.Context(), me, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeFollowResult(w, r, me, target, followResponse{Removed: &removed})
}

// writeFollowResult : "following" est celui du demandeur, "followers" celui de la cible
func (h *Handler) writeFollowResult(w http.ResponseWriter, r *http.Request, me, target string, resp followResponse) {
	mine, err := h.graph.Counts(r.Context(), me)
	if err != nil {
		writeError(w, r, err)
		return
	}
	theirs, err := h.graph.Counts(r.Context(), target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp.Counts = countsDTO{Following: mine.Following, Followers: theirs.Followers}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) followers(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	ids, err := h.graph.Followers(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeIDList(w, userID, ids)
}

func (h *Handler) following(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	ids, err := h.graph.Followees(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeIDList(w, userID, ids)
}

func writeIDList(w http.ResponseWriter, userID string, ids []string) {
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, idListResponse{UserID: userID, IDs: ids, Count: len(ids)})
}

func (h *Handler) relation(w http.ResponseWriter, r *http.Request) {
	status, err := h.graph.CheckRelation(r.Context(), ForContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, relationResponse{IsFollowing: status.IsFollowing, IsFollowedBy: status.IsFollowedBy})
}

// --- Contenu ---

func (h *Handler) userPosts(w http.ResponseWriter, r *http.Request) {
	cursor, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.content.ProfileTimeline(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("q"), cursor, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse[postDTO]{Items: toPostDTOs(page.Items), NextCursor: page.NextCursor})
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	post, err := h.content.CreatePost(r.Context(), ForContext(r.Context()), req.Title, req.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostDTO(post))
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	post, err := h.content.GetPost(r.Context(), postID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := h.content.PostStats(r.Context(), postID, ForContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postDetailResponse{
		Post:         toPostDTO(post),
		LikeCount:    stats.LikeCount,
		CommentCount: stats.CommentCount,
		LikedByMe:    stats.LikedByMe,
	})
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	cursor, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.content.ListComments(r.Context(), chi.URLParam(r, "id"), cursor, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items := make([]commentDTO, len(page.Items))
	for i, c := range page.Items {
		items[i] = toCommentDTO(c)
	}
	writeJSON(w, http.StatusOK, pageResponse[commentDTO]{Items: items, NextCursor: page.NextCursor})
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	comment, err := h.content.CreateComment(r.Context(), chi.URLParam(r, "id"), ForContext(r.Context()), req.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentDTO(comment))
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	liked, err := h.content.ToggleLike(r.Context(), ForContext(r.Context()), postID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	count, err := h.content.LikeCount(r.Context(), postID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{Liked: liked, LikeCount: count})
}

// --- Feed ---

func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	cursor, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	feed, err := h.feed.GetFeed(r.Context(), ForContext(r.Context()), cursor, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feedResponse{
		FollowingAnyone: feed.FollowingAnyone,
		Posts:           toPostDTOs(feed.Posts),
		NextCursor:      feed.NextCursor,
	})
}

// --- Notifications ---

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	cursor, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	me := ForContext(r.Context())
	unreadOnly := r.URL.Query().Get("unread") == "true"

	page, err := h.notifications.List(r.Context(), me, unreadOnly, cursor, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	counts, err := h.notifications.Counts(r.Context(), me)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]notificationDTO, len(page.Items))
	for i, n := range page.Items {
		items[i] = toNotificationDTO(n)
	}
	writeJSON(w, http.StatusOK, notificationsResponse{
		Items:      items,
		NextCursor: page.NextCursor,
		Total:      counts.Total,
		Unread:     counts.Unread,
	})
}

func (h *Handler) getNotification(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.Get(r.Context(), chi.URLParam(r, "id"), ForContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationDTO(n))
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.UnreadCount(r.Context(), ForContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": n})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkRead(r.Context(), chi.URLParam(r, "id"), ForContext(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markUnread(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkUnread(r.Context(), chi.URLParam(r, "id"), ForContext(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkAllRead(r.Context(), ForContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}
