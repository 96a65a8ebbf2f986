package handlers

import (
	"net/http"
	"time"

	"github.com/TARS911/dongfeng-minitraktor-sub001/models"
)

func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	creds := models.Credentials{}
	if !h.decodeJSON(w, r, &creds) {
		return
	}
	session, err := h.us.SigninRequest(r.Context(), creds.Username, creds.Password)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.us.DeleteSessionRequest(r.Context(), sessionToken(r)); err != nil {
		WriteErrorResponse(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:    sessionCookie,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
