package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/notesauth/internal/common"
	"github.com/dmitrijs2005/notesauth/internal/logging"
	"github.com/dmitrijs2005/notesauth/internal/server/models"
	"github.com/dmitrijs2005/notesauth/internal/server/services"
)

type Handler struct {
	auth   AuthService
	logger logging.Logger
	now    func() time.Time
}

type loginRequest struct {
	Login       string `json:"login"`
	Password    string `json:"password"`
	Fingerprint string `json:"fingerprint"`
}

type registerRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type refreshRequest struct {
	Fingerprint string `json:"fingerprint"`
}

type tokensResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type loginResponse struct {
	User   *models.Profile `json:"user"`
	Tokens tokensResponse  `json:"tokens"`
}

type refreshResponse struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    *models.Profile `json:"user"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func decode[T any](r *http.Request) (T, error) {
	var v T
	err := json.NewDecoder(r.Body).Decode(&v)
	return v, err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := decode[loginRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	res, err := h.auth.Login(r.Context(), cookieTransport{w: w}, services.LoginRequest{
		Login:       body.Login,
		Password:    body.Password,
		Fingerprint: body.Fingerprint,
	})
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusBadRequest, "Login or password is incorrect")
			return
		}
		h.internalError(w, r, err)
		return
	}

	setAuthorizedOn(w, h.now(), services.RefreshSessionLifetime)
	writeJSON(w, http.StatusOK, loginResponse{
		User:   res.Profile,
		Tokens: tokensResponse{Access: res.AccessToken, Refresh: res.RefreshSessionID},
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	sessionID := refreshCookie(r)
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "No refresh token")
		return
	}

	body, err := decode[refreshRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	res, err := h.auth.Refresh(r.Context(), cookieTransport{w: w}, sessionID, body.Fingerprint)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrInvalidSession), errors.Is(err, common.ErrNoSession):
		// consumed, unknown, expired and foreign sessions read the same
		writeError(w, http.StatusUnauthorized, "Invalid refresh session")
		return
	default:
		h.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		Access:  res.AccessToken,
		Refresh: res.RefreshSessionID,
		User:    res.Profile,
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	body, err := decode[registerRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	p, err := h.auth.Register(r.Context(), services.RegisterRequest{
		Login:    body.Login,
		Password: body.Password,
		Name:     body.Name,
		Email:    body.Email,
	})
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusBadRequest, "Already registered")
		return
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	default:
		h.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := refreshCookie(r)
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "No refresh token")
		return
	}

	if err := h.auth.Logout(r.Context(), cookieTransport{w: w}, sessionID); err != nil {
		h.internalError(w, r, err)
		return
	}

	clearAuthorizedOn(w)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.auth.Me(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
