// Package web is the server-rendered front-end of the contacts app. It keeps no data of its
// own: every page is built from calls to the contacts API, made with the token of the
// signed-in user.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"gitlab.com/dirk.krummacker/contacts-app/internal/apiclient"
	"gitlab.com/dirk.krummacker/contacts-app/internal/logging"
	"gitlab.com/dirk.krummacker/contacts-app/internal/session"
	"gitlab.com/dirk.krummacker/contacts-app/pkg/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// API is the part of the contacts API the front-end uses. *apiclient.Client implements it.
type API interface {
	ListContacts(ctx context.Context, token string) ([]model.Contact, error)
	SearchContacts(ctx context.Context, token, q string) ([]model.Contact, error)
	GetContact(ctx context.Context, token, id string) (*model.Contact, error)
	CreateContact(ctx context.Context, token string, req model.ContactRequest) (*model.Contact, error)
	UpdateContact(ctx context.Context, token, id string, req model.ContactRequest) (*model.Contact, error)
	DeleteContact(ctx context.Context, token, id string) error
	ToggleFavorite(ctx context.Context, token, id string) (*model.Contact, error)
	SignIn(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error)
	Register(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error)
	SignOut(ctx context.Context, token string) (int, error)
}

// page is the data handed to every template.
type page struct {
	Title    string
	Session  *session.Session
	Contacts []model.Contact
	Q        string
	Contact  *model.Contact
	Action   string
	Error    string
	Status   int
}

// Handler serves the front-end.
type Handler struct {
	api      API
	sessions *session.Manager
	logger   logrus.FieldLogger
	pages    map[string]*template.Template
}

// New parses the embedded templates.
func New(api API, sessions *session.Manager, logger logrus.FieldLogger) (*Handler, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"index", "contact", "edit", "about", "auth", "error"} {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Handler{api: api, sessions: sessions, logger: logger, pages: pages}, nil
}

// Routes returns the router with all pages and forms.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.AccessLog(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/about", h.about)

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.RedirectIfAuthenticated)
		r.Get("/sign-in", h.authForm("Sign in", "/sign-in"))
		r.Post("/sign-in", h.authenticate("/sign-in", "Invalid credentials", h.api.SignIn))
		r.Get("/register", h.authForm("Register", "/register"))
		r.Post("/register", h.authenticate("/register", "Registration failed", h.api.Register))
	})

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.Require)
		r.Get("/", h.index)
		r.Post("/sign-out", h.signOut)
		r.Get("/contacts/create", h.createForm)
		r.Post("/contacts/create", h.create)
		r.Get("/contacts/{id}", h.contact)
		r.Post("/contacts/{id}", h.toggleFavorite)
		r.Get("/contacts/{id}/edit", h.editForm)
		r.Post("/contacts/{id}/edit", h.edit)
		r.Post("/contacts/{id}/destroy", h.destroy)
	})
	return r
}

func (h *Handler) about(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "about", &page{Title: "About"})
}

func (h *Handler) authForm(title, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, "auth", &page{
			Title:  title,
			Action: action,
			Error:  r.URL.Query().Get("error"),
		})
	}
}

// authenticate posts the credentials upstream. Only a token in the answer signs the user in;
// everything else sends them back to the form with a message.
func (h *Handler) authenticate(
	path, failure string,
	call func(context.Context, model.Credentials) (*model.AuthResponse, error),
) http.HandlerFunc {
	back := path + "?error=" + url.QueryEscape(failure)
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, back, http.StatusFound)
			return
		}
		if confirm, ok := r.PostForm["confirmPassword"]; ok && confirm[0] != r.PostForm.Get("password") {
			http.Redirect(w, r, path+"?error="+url.QueryEscape("Passwords do not match"), http.StatusFound)
			return
		}
		auth, err := call(r.Context(), model.Credentials{
			Email:    r.PostForm.Get("email"),
			Password: r.PostForm.Get("password"),
		})
		if err != nil || auth.Token == "" {
			if err != nil {
				h.logger.WithError(err).WithField("path", path).Info("authentication failed")
			}
			http.Redirect(w, r, back, http.StatusFound)
			return
		}
		if err := h.sessions.Login(w, r, session.Session{Token: auth.Token, User: auth.User}); err != nil {
			h.fail(w, r, http.StatusInternalServerError, "Failed to sign in", err)
		}
	}
}

// signOut ends the session only if the API confirmed the sign-out.
func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	status, err := h.api.SignOut(r.Context(), s.Token)
	if err != nil {
		h.logger.WithError(err).Warn("sign-out failed")
	}
	if status == http.StatusNoContent {
		h.sessions.Logout(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// sidebar loads the contact list shown next to every protected page. A non-empty q
// narrows it down.
func (h *Handler) sidebar(r *http.Request) (*page, error) {
	s := session.FromContext(r.Context())
	q := r.URL.Query().Get("q")
	var contacts []model.Contact
	var err error
	if q == "" {
		contacts, err = h.api.ListContacts(r.Context(), s.Token)
	} else {
		contacts, err = h.api.SearchContacts(r.Context(), s.Token, q)
	}
	if err != nil {
		return nil, err
	}
	return &page{Session: s, Contacts: contacts, Q: q}, nil
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	p, err := h.sidebar(r)
	if err != nil {
		h.upstreamFailure(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "index", p)
}

func (h *Handler) contact(w http.ResponseWriter, r *http.Request) {
	p, err := h.sidebar(r)
	if err != nil {
		h.upstreamFailure(w, r, err)
		return
	}
	p.Contact, err = h.api.GetContact(r.Context(), p.Session.Token, chi.URLParam(r, "id"))
	if err != nil {
		h.upstreamFailure(w, r, err)
		return
	}
	p.Title = p.Contact.First + " " + p.Contact.Last
	h.render(w, r, http.StatusOK, "contact", p)
}

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	id := chi.URLParam(r, "id")
	if _, err := h.api.ToggleFavorite(r.Context(), s.Token, id); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to favorite contact", err)
		return
	}
	http.Redirect(w, r, "/contacts/"+url.PathEscape(id), http.StatusFound)
}

func (h *Handler) createForm(w http.ResponseWriter, r *http.Request) {
	p, err := h.sidebar(r)
	if err != nil {
		h.upstreamFailure(w, r, err)
		return
	}
	p.Title = "New contact"
	p.Action = "/contacts/create"
	h.render(w, r, http.StatusOK, "edit", p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	req, err := contactForm(r)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to create contact", err)
		return
	}
	contact, err := h.api.CreateContact(r.Context(), s.Token, req)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to create contact", err)
		return
	}
	http.Redirect(w, r, "/contacts/"+url.PathEscape(contact.Id), http.StatusFound)
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	p, err := h.sidebar(r)
	if err != nil {
		h.upstreamFailure(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	p.Contact, err = h.api.GetContact(r.Context(), p.Session.Token, id)
	if err != nil {
		h.fail(w, r, http.StatusNotFound, "Not Found", err)
		return
	}
	p.Title = "Edit " + p.Contact.First + " " + p.Contact.Last
	p.Action = "/contacts/" + url.PathEscape(id) + "/edit"
	h.render(w, r, http.StatusOK, "edit", p)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	id := chi.URLParam(r, "id")
	req, err := contactForm(r)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to update contact", err)
		return
	}
	contact, err := h.api.UpdateContact(r.Context(), s.Token, id, req)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to update contact", err)
		return
	}
	http.Redirect(w, r, "/contacts/"+url.PathEscape(contact.Id), http.StatusFound)
}

func (h *Handler) destroy(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	if err := h.api.DeleteContact(r.Context(), s.Token, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, http.StatusInternalServerError, "Failed to delete contact", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func contactForm(r *http.Request) (model.ContactRequest, error) {
	if err := r.ParseForm(); err != nil {
		return model.ContactRequest{}, err
	}
	return model.ContactRequest{
		Avatar:  r.PostForm.Get("avatar"),
		First:   r.PostForm.Get("first"),
		Last:    r.PostForm.Get("last"),
		Twitter: r.PostForm.Get("twitter"),
	}, nil
}

// upstreamFailure shows the error page with the status the API answered with.
func (h *Handler) upstreamFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	var upstream *apiclient.UpstreamError
	if errors.As(err, &upstream) {
		status = upstream.Status
	}
	h.fail(w, r, status, http.StatusText(status), err)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	entry := h.logger.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Info(message)
	}
	h.render(w, r, status, "error", &page{
		Title:   message,
		Session: session.FromContext(r.Context()),
		Error:   message,
		Status:  status,
	})
}

// render executes the template into a buffer first, so that a failing template does not
// leave a half-written page behind.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, p *page) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "base", p); err != nil {
		h.logger.WithError(err).WithField("template", name).Error("rendering page failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
