package service

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gitlab.com/dirk.krummacker/contacts-app/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
)

// RouterConfig carries the collaborators of the HTTP layer.
type RouterConfig struct {
	// RequestLogging turns gin's request log on.
	RequestLogging bool
	Logger         logrus.FieldLogger
	// Metrics is optional. If set, requests are measured and /metrics is served.
	Metrics *metrics.Metrics
}

// contactRequest is the body of POST and PUT requests. All fields must be present and
// non-empty.
type contactRequest struct {
	Avatar  string `json:"avatar"  binding:"required"`
	First   string `json:"first"   binding:"required"`
	Last    string `json:"last"    binding:"required"`
	Twitter string `json:"twitter" binding:"required"`
}

func (r contactRequest) fields() model.Fields {
	return model.Fields{Avatar: r.Avatar, First: r.First, Last: r.Last, Twitter: r.Twitter}
}

// handler binds the routes to a contact service.
type handler struct {
	contacts *ContactService
	logger   logrus.FieldLogger
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
func SetupHttpRouter(contacts *ContactService, cfg RouterConfig) *gin.Engine {
	var router *gin.Engine
	if cfg.RequestLogging {
		router = gin.Default()
	} else {
		router = gin.New()
		router.Use(gin.Recovery())
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	h := &handler{contacts: contacts, logger: cfg.Logger}
	router.GET("/contacts", h.findContacts)
	router.GET("/contacts/search", h.searchContacts)
	router.POST("/contacts", h.createContact)
	router.GET("/contacts/:id", h.findContactByID)
	router.PUT("/contacts/:id", h.updateContactByID)
	router.DELETE("/contacts/:id", h.deleteContactByID)
	router.PATCH("/contacts/:id/favorite", h.toggleFavoriteByID)
	return router
}

// fail answers with 404 for a missing contact and with 500 and the fixed message for
// everything else. Details of internal errors only go to the log.
func (h *handler) fail(c *gin.Context, err error, message string) {
	if errors.Is(err, ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	h.logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"route":  c.FullPath(),
		"id":     c.Param("id"),
	}).Error(message)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": message})
}

// bindContact parses the request body. It responds with BAD REQUEST and returns false if
// the body is not valid JSON or misses a field.
func bindContact(c *gin.Context) (model.Fields, bool) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid contact"})
		return model.Fields{}, false
	}
	return req.fields(), true
}

// findContacts responds with the list of all contacts as JSON.
//
// Example REST API call:
//
//	> curl http://localhost:8000/contacts
func (h *handler) findContacts(c *gin.Context) {
	contacts, err := h.contacts.ListAll(c.Request.Context())
	if err != nil {
		h.fail(c, err, "failed to fetch contacts")
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// searchContacts responds with the contacts whose first name, last name or twitter handle
// contains the URL parameter 'q', ignoring case. Without 'q' all contacts are returned.
//
// Example REST API call:
//
//	> curl "http://localhost:8000/contacts/search?q=doe"
func (h *handler) searchContacts(c *gin.Context) {
	contacts, err := h.contacts.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, err, "failed to search contacts")
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// createContact inserts the contact specified in the request's JSON. It responds with the full
// contact data including the newly assigned id and creation time.
//
// Example REST API call:
//
//	> curl http://localhost:8000/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"avatar": "https://example.com/ada.png", "first": "Ada", "last": "Lovelace", "twitter": "@ada"}'
func (h *handler) createContact(c *gin.Context) {
	fields, ok := bindContact(c)
	if !ok {
		return
	}
	contact, err := h.contacts.Create(c.Request.Context(), fields)
	if err != nil {
		h.fail(c, err, "failed to create contact")
		return
	}
	c.IndentedJSON(http.StatusCreated, contact)
}

// findContactByID locates the contact whose ID value matches the id parameter of the request URL,
// then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8000/contacts/65f1c0ffee
func (h *handler) findContactByID(c *gin.Context) {
	contact, err := h.contacts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to fetch contact")
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID replaces avatar, names and twitter handle of the contact whose ID value
// matches the id parameter of the request URL, and responds with the new version of the
// contact.
//
// Example REST API call:
//
//	> curl http://localhost:8000/contacts/65f1c0ffee --request "PUT" --include --header "Content-Type: application/json" --data '{"avatar": "https://example.com/ada.png", "first": "Augusta", "last": "King", "twitter": "@ada"}'
func (h *handler) updateContactByID(c *gin.Context) {
	fields, ok := bindContact(c)
	if !ok {
		return
	}
	contact, err := h.contacts.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		h.fail(c, err, "failed to update contact")
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByID deletes the contact whose ID value matches the id parameter of the request
// URL. It responds with NO CONTENT.
//
// Example REST API call:
//
//	> curl http://localhost:8000/contacts/65f1c0ffee --request "DELETE"
func (h *handler) deleteContactByID(c *gin.Context) {
	if err := h.contacts.DeleteByID(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "failed to delete contact")
		return
	}
	c.Status(http.StatusNoContent)
}

// toggleFavoriteByID flips the favorite flag of the contact and responds with the updated
// contact.
//
// Example REST API call:
//
//	> curl http://localhost:8000/contacts/65f1c0ffee/favorite --request "PATCH"
func (h *handler) toggleFavoriteByID(c *gin.Context) {
	contact, err := h.contacts.ToggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to toggle favorite")
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}
