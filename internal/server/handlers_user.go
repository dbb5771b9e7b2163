package server

import (
	"net/http"

	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
	"go.uber.org/zap"
)

func (ls *ServerSystem) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.log.Debug("try to register", zap.String("email", req.Email))

	resp, err := ls.Users.Register(r.Context(), req)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusCreated, resp)
}

func (ls *ServerSystem) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.log.Debug("try to login", zap.String("email", req.Email))

	resp, err := ls.Users.Login(r.Context(), req)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, resp)
}

func (ls *ServerSystem) MeHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	user, err := ls.Users.Me(r.Context(), id.UserID)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, user)
}

func (ls *ServerSystem) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var req models.ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		ls.fail(w, r, err)
		return
	}

	user, err := ls.Users.UpdateProfile(r.Context(), id.UserID, req)
	if err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, user)
}

func (ls *ServerSystem) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var req models.PasswordChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		ls.fail(w, r, err)
		return
	}

	if err := ls.Users.ChangePassword(r.Context(), id.UserID, req); err != nil {
		ls.fail(w, r, err)
		return
	}
	ls.respond(w, http.StatusOK, nil)
}
