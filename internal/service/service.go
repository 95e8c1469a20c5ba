// Package service is the HTTP route layer of the phonebook. It validates
// requests, delegates to the persistence adapter, and maps domain outcomes
// to status codes: 422 for malformed input, 404 for absent contacts, 401 is
// handled by the auth guard, and database failures surface as 500.
package service

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/phonebookapi/phonebook-service/internal/auth"
	"gitlab.com/phonebookapi/phonebook-service/internal/config"
	"gitlab.com/phonebookapi/phonebook-service/internal/model"
	"gitlab.com/phonebookapi/phonebook-service/internal/storage"
)

const (
	// defaultPageLimit is the page size used when the 'limit' URL parameter
	// is omitted.
	defaultPageLimit = 100

	// maxPageLimit is the largest allowed value of the 'limit' URL parameter.
	maxPageLimit = 200
)

// Service holds the collaborators of the route handlers.
type Service struct {
	store  *storage.Store
	logger *zap.Logger
}

// New creates a Service on top of the given persistence adapter.
func New(store *storage.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// SetupHttpRouter initializes the REST API router and registers all
// endpoints. Every contact endpoint sits behind the guard's middleware; the
// guard additionally registers its own endpoints (token issuance, identity
// echo). The ping endpoint is unauthenticated.
func SetupHttpRouter(svc *Service, guard auth.Guard, cfg config.Config) *gin.Engine {
	var router *gin.Engine
	if strings.EqualFold(cfg.GinLogging, "off") {
		router = gin.New()
		router.Use(gin.Recovery())
	} else {
		router = gin.Default()
	}
	router.GET("/ping", ping)
	guard.Register(router)
	contacts := router.Group("/contacts", guard.Middleware())
	contacts.GET("", svc.findContacts)
	contacts.POST("", svc.createContact)
	contacts.GET("/:id", svc.findContactByID)
	contacts.PUT("/:id", svc.updateContactByID)
	contacts.DELETE("/:id", svc.deleteContactByID)
	return router
}

// ping responds with a static welcome payload. It requires no
// authentication and doubles as the readiness check.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/ping"
func ping(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"msg": "Welcome to PhoneBookAPI"})
}

// findContacts responds with one page of contacts plus the total row count.
//
// The URL parameter 'limit' specifies how many contacts are returned and
// must lie between 0 and 200; it defaults to 100. The URL parameter 'offset'
// specifies how many contacts from the id-ordered list are skipped in the
// beginning and defaults to 0. Together, the two parameters implement result
// paging.
//
// The page and the count come from two independent queries. A write landing
// between them can leave the count slightly out of sync with the items; that
// weak consistency is accepted.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts"
//	> curl "http://localhost:8080/contacts?limit=20&offset=60"
func (svc *Service) findContacts(c *gin.Context) {
	limit, offset, ok := parseLimitAndOffset(c)
	if !ok {
		return
	}
	items, err := svc.store.ListContacts(limit, offset)
	if err != nil {
		svc.storageFailure(c, err)
		return
	}
	count, err := svc.store.CountContacts()
	if err != nil {
		svc.storageFailure(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, model.Page[model.Contact]{Count: count, Items: items})
}

// createContact inserts the contact specified in the request's JSON into the
// database. It responds with the full contact data including the newly
// assigned id and the canonicalized phone number.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"name": "Jack", "surname": "Kowalsky", "phone": "+48333111222", "email": "a@b.com"}'
func (svc *Service) createContact(c *gin.Context) {
	input, ok := bindContact(c)
	if !ok {
		return
	}
	contact := model.Contact{
		Name:    input.Name,
		Surname: input.Surname,
		Phone:   input.Phone,
		Email:   input.Email,
	}
	id, err := svc.store.InsertContact(contact)
	if err != nil {
		svc.storageFailure(c, err)
		return
	}
	contact.Id = id
	c.IndentedJSON(http.StatusCreated, contact)
}

// findContactByID locates the contact whose ID value matches the id
// parameter of the request URL, then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56
func (svc *Service) findContactByID(c *gin.Context) {
	id, ok := parseContactID(c)
	if !ok {
		return
	}
	contact, err := svc.store.FindContactByID(id)
	if err != nil {
		svc.storageFailure(c, err)
		return
	}
	if contact == nil {
		abortContactNotFound(c, id)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID replaces all fields of the contact whose ID value
// matches the id parameter of the request URL with the values from the
// request's JSON, and responds with the new version of the contact. There is
// no partial update; the body must be a complete contact.
//
// The existence check and the update are two separate statements. Two
// concurrent requests on the same id can interleave between them; the last
// write wins.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"name": "Jack", "surname": "Kowalsky", "phone": "+48333111222", "email": "a@b.com"}'
func (svc *Service) updateContactByID(c *gin.Context) {
	id, ok := parseContactID(c)
	if !ok {
		return
	}
	existing, err := svc.store.FindContactByID(id)
	if err != nil {
		svc.storageFailure(c, err)
		return
	}
	if existing == nil {
		abortContactNotFound(c, id)
		return
	}
	input, ok := bindContact(c)
	if !ok {
		return
	}
	updated := model.Contact{
		Id:      id,
		Name:    input.Name,
		Surname: input.Surname,
		Phone:   input.Phone,
		Email:   input.Email,
	}
	if err := svc.store.UpdateContact(id, updated); err != nil {
		svc.storageFailure(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, updated)
}

// deleteContactByID deletes the contact whose ID value matches the id
// parameter of the request URL from the database and echoes the deleted
// contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "DELETE"
func (svc *Service) deleteContactByID(c *gin.Context) {
	id, ok := parseContactID(c)
	if !ok {
		return
	}
	existing, err := svc.store.FindContactByID(id)
	if err != nil {
		svc.storageFailure(c, err)
		return
	}
	if existing == nil {
		abortContactNotFound(c, id)
		return
	}
	if err := svc.store.DeleteContact(id); err != nil {
		svc.storageFailure(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, existing)
}

// storageFailure answers a request that failed on the database. The error is
// logged and never swallowed; the client sees an opaque 500.
func (svc *Service) storageFailure(c *gin.Context, err error) {
	svc.logger.Error("database operation failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
}

// abortContactNotFound answers a lookup of a valid but absent id.
func abortContactNotFound(c *gin.Context, id int64) {
	c.AbortWithStatusJSON(http.StatusNotFound,
		gin.H{"detail": fmt.Sprintf("Contact with id %d not found", id)})
}

// parseContactID inspects the id parameter of the request URL. Ids must be
// integers greater than or equal to 1; anything else is malformed input and
// therefore answered with 422, not 404.
func parseContactID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		abortValidation(c, fieldError{
			Loc: []string{"path", "contact_id"},
			Msg: "value is not a valid integer",
		})
		return 0, false
	}
	if id < 1 {
		abortValidation(c, fieldError{
			Loc: []string{"path", "contact_id"},
			Msg: "ensure this value is greater than or equal to 1",
		})
		return 0, false
	}
	return id, true
}

// parseLimitAndOffset inspects the URL parameters and determines values for
// limit and offset of the result set.
func parseLimitAndOffset(c *gin.Context) (limit int, offset int, ok bool) {
	limit = defaultPageLimit
	if raw := c.Query("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			abortValidation(c, fieldError{
				Loc: []string{"query", "limit"},
				Msg: "value is not a valid integer",
			})
			return 0, 0, false
		}
		if value < 0 || value > maxPageLimit {
			abortValidation(c, fieldError{
				Loc: []string{"query", "limit"},
				Msg: fmt.Sprintf("ensure this value is between 0 and %d", maxPageLimit),
			})
			return 0, 0, false
		}
		limit = value
	}
	if raw := c.Query("offset"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			abortValidation(c, fieldError{
				Loc: []string{"query", "offset"},
				Msg: "ensure this value is a non-negative integer",
			})
			return 0, 0, false
		}
		offset = value
	}
	return limit, offset, true
}
