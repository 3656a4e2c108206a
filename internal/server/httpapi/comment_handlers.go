package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/blogapi/internal/common"
	"github.com/dmitrijs2005/blogapi/internal/server/models"
	"github.com/dmitrijs2005/blogapi/internal/server/validation"
	"github.com/gorilla/mux"
)

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	var p validation.CreateComment
	if err := validation.Decode(r.Body, &p); err != nil {
		h.writeError(w, r, err)
		return
	}

	nc, err := p.ToModel(userIDFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.comments.Create(r.Context(), nc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(c))
}

func (h *Handler) getComment(w http.ResponseWriter, r *http.Request) {
	c, err := h.comments.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponse(c))
}

func (h *Handler) listReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := h.comments.ListReplies(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponses(replies))
}

// listPostComments returns a flat listing, or a nested one with ?view=thread.
// ?status= narrows either form.
func (h *Handler) listPostComments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter models.CommentFilter
	if raw := q.Get("status"); raw != "" {
		st, err := models.ParseCommentStatus(raw)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: %v", common.ErrValidation, err))
			return
		}
		filter.Status = &st
	}

	view := q.Get("view")
	if view != "" && view != "flat" && view != "thread" {
		h.writeError(w, r, fmt.Errorf("%w: unknown view %q", common.ErrValidation, view))
		return
	}

	comments, err := h.comments.ListByPost(r.Context(), mux.Vars(r)["postID"], filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if view == "thread" {
		writeJSON(w, http.StatusOK, buildThread(comments))
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponses(comments))
}

// updateComment lets only the author edit content; any signed-in user may
// moderate the status.
func (h *Handler) updateComment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var p validation.UpdateComment
	if err := validation.Decode(r.Body, &p); err != nil {
		h.writeError(w, r, err)
		return
	}

	if p.Content != nil {
		existing, err := h.comments.FindByID(r.Context(), id)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if !existing.AuthoredBy(userIDFrom(r.Context())) {
			h.writeError(w, r, common.ErrForbidden)
			return
		}
	}

	c, err := h.comments.Update(r.Context(), id, p.ToModel())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponse(c))
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	existing, err := h.comments.FindByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !existing.AuthoredBy(userIDFrom(r.Context())) {
		h.writeError(w, r, common.ErrForbidden)
		return
	}

	if err := h.comments.Remove(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
