package httpapi

import (
	"net"
	"net/http"

	"github.com/dmitrijs2005/blogapi/internal/server/services"
	"github.com/dmitrijs2005/blogapi/internal/server/validation"
)

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var p validation.CreateUser
	if err := validation.Decode(r.Body, &p); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.auth.Signup(r.Context(), p.ToModel())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// clientIP is the peer address; forwarding headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var p validation.Login
	if err := validation.Decode(r.Body, &p); err != nil {
		h.writeError(w, r, err)
		return
	}

	pair, err := h.auth.Login(r.Context(), services.LoginRequest{
		Login:    p.Login,
		Password: p.Password,
		MFACode:  p.MFACode,
		IP:       clientIP(r),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var p validation.Refresh
	if err := validation.Decode(r.Body, &p); err != nil {
		h.writeError(w, r, err)
		return
	}

	pair, err := h.auth.Refresh(r.Context(), p.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

func (h *Handler) setupMFA(w http.ResponseWriter, r *http.Request) {
	setup, err := h.auth.SetupMFA(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mfaSetupResponse{Secret: setup.Secret, ProvisioningURI: setup.ProvisioningURI})
}

func (h *Handler) enableMFA(w http.ResponseWriter, r *http.Request) {
	var p validation.MFACode
	if err := validation.Decode(r.Body, &p); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.auth.EnableMFA(r.Context(), userIDFrom(r.Context()), p.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) disableMFA(w http.ResponseWriter, r *http.Request) {
	var p validation.MFACode
	if err := validation.Decode(r.Body, &p); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.auth.DisableMFA(r.Context(), userIDFrom(r.Context()), p.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}
