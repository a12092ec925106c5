package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/concierge/internal/apierr"
	"github.com/diagnosis/concierge/internal/domain"
	"github.com/diagnosis/concierge/internal/http/response"
	"github.com/diagnosis/concierge/internal/utils"
)

type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.get)
	r.Post("/login", h.login)
	r.Post("/register", h.register)
	r.Post("/logout", h.logout)
	r.Put("/profile", h.updateProfile)
	r.Post("/profile/image", h.uploadImage)
	return r
}

type sessionView struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, sessionView{
		Authenticated: s.Store.IsAuthenticated(),
		User:          s.Store.User(),
	})
}

func (h *SessionHandler) login(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	email := utils.NormalizeEmail(in.Email)
	errs := map[string]string{}
	if email == "" {
		errs["email"] = "Email is required"
	} else if !utils.IsValidEmail(email) {
		errs["email"] = "Email is invalid"
	}
	if in.Password == "" {
		errs["password"] = "Password is required"
	}
	if len(errs) > 0 {
		fail(w, r, apierr.Validation(apierr.OpLogin, errs))
		return
	}

	if err := s.Store.Login(r.Context(), email, in.Password); err != nil {
		s.Toasts.Error(apierr.Message(err))
		fail(w, r, err)
		return
	}
	s.Toasts.Success("Welcome back!")
	respond(w, r, http.StatusOK, sessionView{Authenticated: true, User: s.Store.User()})
}

func (h *SessionHandler) register(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	var in domain.RegisterRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Email = utils.NormalizeEmail(in.Email)
	in.FirstName = utils.NormalizeString(in.FirstName)
	in.LastName = utils.NormalizeString(in.LastName)
	in.Phone = utils.NormalizePhone(in.Phone)

	errs := map[string]string{}
	if in.FirstName == "" {
		errs["firstName"] = "First name is required"
	}
	if in.LastName == "" {
		errs["lastName"] = "Last name is required"
	}
	if in.Email == "" {
		errs["email"] = "Email is required"
	} else if !utils.IsValidEmail(in.Email) {
		errs["email"] = "Email is invalid"
	}
	if in.Password == "" {
		errs["password"] = "Password is required"
	}
	if len(errs) > 0 {
		fail(w, r, apierr.Validation(apierr.OpRegister, errs))
		return
	}

	if err := s.Store.Register(r.Context(), in); err != nil {
		s.Toasts.Error(apierr.Message(err))
		fail(w, r, err)
		return
	}
	s.Toasts.Success("Account created successfully")
	respond(w, r, http.StatusCreated, sessionView{Authenticated: true, User: s.Store.User()})
}

func (h *SessionHandler) logout(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	if err := s.Store.Logout(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, sessionView{})
}

func (h *SessionHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	if !s.Store.IsAuthenticated() {
		response.Unauthorized(w, "login required")
		return
	}
	var in domain.UserUpdate
	if !decodeJSON(w, r, &in) {
		return
	}
	// Role and activation are admin-only fields.
	in.Role, in.IsActive = nil, nil

	user, err := s.Store.UpdateUser(r.Context(), in)
	if err != nil {
		s.Toasts.Error(apierr.Message(err))
		fail(w, r, err)
		return
	}
	s.Toasts.Success("Profile updated successfully")
	respond(w, r, http.StatusOK, user)
}

func (h *SessionHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	if !s.Store.IsAuthenticated() {
		response.Unauthorized(w, "login required")
		return
	}
	up, closer, ok := readUpload(w, r)
	if !ok {
		return
	}
	defer closer.Close()

	user, err := s.Store.UploadProfileImage(r.Context(), up.Filename, up.Body)
	if err != nil {
		s.Toasts.Error(apierr.Message(err))
		fail(w, r, err)
		return
	}
	s.Toasts.Success("Profile image updated")
	respond(w, r, http.StatusOK, user)
}
