// Package integrationtest runs the HTTP API against real databases. The MySQL backend is
// tested when DBHOST is set, MongoDB when MONGO_URI is set; the tables must exist (see
// cmd/migration).
package integrationtest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-app/internal/service"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store/mongo"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store/mysql"
	"gitlab.com/dirk.krummacker/contacts-app/pkg/model"
)

// backends opens every database that is configured in the environment.
func backends(t *testing.T) map[string]store.Store {
	ctx := context.Background()
	result := make(map[string]store.Store)
	if host := os.Getenv("DBHOST"); host != "" {
		name := os.Getenv("DBNAME")
		if name == "" {
			name = "contacts"
		}
		sqlDB, err := mysql.Open(ctx, os.Getenv("DBUSER"), os.Getenv("DBPWD"), host, name)
		require.NoError(t, err)
		s, err := mysql.New(sqlDB)
		require.NoError(t, err)
		result["mysql"] = s
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		s, err := mongo.Connect(ctx, uri, "contacts_integration")
		require.NoError(t, err)
		result["mongo"] = s
	}
	if len(result) == 0 {
		t.Skip("neither DBHOST nor MONGO_URI is set")
	}
	for _, s := range result {
		s := s
		t.Cleanup(func() { s.Close(context.Background()) })
	}
	return result
}

// forEachBackend runs f with a router on top of every configured database.
func forEachBackend(t *testing.T, f func(t *testing.T, router *gin.Engine)) {
	gin.SetMode(gin.ReleaseMode)
	logger, _ := test.NewNullLogger()
	for name, s := range backends(t) {
		router := service.SetupHttpRouter(service.New(s), service.RouterConfig{Logger: logger})
		t.Run(name, func(t *testing.T) { f(t, router) })
	}
}

func serve(router *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest(method, url, strings.NewReader(body))
	router.ServeHTTP(recorder, request)
	return recorder
}

// createContact posts a contact and returns the decoded response.
func createContact(t *testing.T, router *gin.Engine, first, last, twitter string) model.Contact {
	body, _ := json.Marshal(model.ContactRequest{Avatar: "https://example.com/a.png", First: first, Last: last, Twitter: twitter})
	recorder := serve(router, "POST", "/contacts", string(body))
	require.Equal(t, http.StatusCreated, recorder.Code)
	var contact model.Contact
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &contact))
	require.NotEmpty(t, contact.Id)
	return contact
}

// deleteContact removes a contact that a test created.
func deleteContact(t *testing.T, router *gin.Engine, id string) {
	recorder := serve(router, "DELETE", "/contacts/"+id, "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

// TestContactHappyPath tests a POST, GET, PUT, PATCH and DELETE with valid data.
func TestContactHappyPath(t *testing.T) {
	forEachBackend(t, func(t *testing.T, router *gin.Engine) {
		created := createContact(t, router, "Erika", "Mustermann", "@erika")
		assert.False(t, created.Favorite)
		assert.False(t, created.CreatedAt.IsZero())

		getRecorder := serve(router, "GET", "/contacts/"+created.Id, "")
		assert.Equal(t, http.StatusOK, getRecorder.Code)
		var found model.Contact
		json.Unmarshal(getRecorder.Body.Bytes(), &found)
		assert.Equal(t, created.Id, found.Id)
		assert.Equal(t, "Erika", found.First)
		assert.True(t, created.CreatedAt.Equal(found.CreatedAt))

		putRecorder := serve(router, "PUT", "/contacts/"+created.Id,
			`{"avatar": "https://example.com/b.png", "first": "Rudi", "last": "Völler", "twitter": "@rudi"}`)
		assert.Equal(t, http.StatusOK, putRecorder.Code)
		var updated model.Contact
		json.Unmarshal(putRecorder.Body.Bytes(), &updated)
		assert.Equal(t, "Rudi", updated.First)
		assert.Equal(t, "Völler", updated.Last)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

		patchRecorder := serve(router, "PATCH", "/contacts/"+created.Id+"/favorite", "")
		assert.Equal(t, http.StatusOK, patchRecorder.Code)
		var favorite model.Contact
		json.Unmarshal(patchRecorder.Body.Bytes(), &favorite)
		assert.True(t, favorite.Favorite)
		assert.Equal(t, "Rudi", favorite.First)

		deleteContact(t, router, created.Id)
		assert.Equal(t, http.StatusNotFound, serve(router, "GET", "/contacts/"+created.Id, "").Code)
		assert.Equal(t, http.StatusNotFound, serve(router, "DELETE", "/contacts/"+created.Id, "").Code)
	})
}

// TestUnknownIds tests that ids which do not exist, or are malformed for the backend, are
// answered with NOT FOUND.
func TestUnknownIds(t *testing.T) {
	forEachBackend(t, func(t *testing.T, router *gin.Engine) {
		body := `{"avatar": "a", "first": "b", "last": "c", "twitter": "d"}`
		for _, id := range []string{"invalid", uuid.NewString(), "65f1c0ffee65f1c0ffee65f1"} {
			assert.Equal(t, http.StatusNotFound, serve(router, "GET", "/contacts/"+id, "").Code, id)
			assert.Equal(t, http.StatusNotFound, serve(router, "PUT", "/contacts/"+id, body).Code, id)
			assert.Equal(t, http.StatusNotFound, serve(router, "PATCH", "/contacts/"+id+"/favorite", "").Code, id)
			assert.Equal(t, http.StatusNotFound, serve(router, "DELETE", "/contacts/"+id, "").Code, id)
		}
	})
}

// TestSearch creates a matching and a non-matching contact and verifies that only the first
// one is found, regardless of case.
func TestSearch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, router *gin.Engine) {
		marker := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		matching := createContact(t, router, "Julius", "Cäsar", "@"+marker)
		nonMatching := createContact(t, router, "Marc", "Anton", "@marc")
		defer deleteContact(t, router, matching.Id)
		defer deleteContact(t, router, nonMatching.Id)

		recorder := serve(router, "GET", "/contacts/search?q="+strings.ToUpper(marker), "")
		assert.Equal(t, http.StatusOK, recorder.Code)
		var contacts []model.Contact
		json.Unmarshal(recorder.Body.Bytes(), &contacts)
		require.Len(t, contacts, 1)
		assert.Equal(t, matching.Id, contacts[0].Id)

		recorder = serve(router, "GET", "/contacts/search?q=%25"+marker, "")
		assert.JSONEq(t, "[]", recorder.Body.String())
	})
}

// TestFindAllContacts retrieves all contacts and verifies that a previously created contact is
// among them.
func TestFindAllContacts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, router *gin.Engine) {
		created := createContact(t, router, "Julius", "Cäsar", "@julius")
		defer deleteContact(t, router, created.Id)

		recorder := serve(router, "GET", "/contacts", "")
		assert.Equal(t, http.StatusOK, recorder.Code)
		var contacts []model.Contact
		json.Unmarshal(recorder.Body.Bytes(), &contacts)
		var found bool
		for _, contact := range contacts {
			if contact.Id == created.Id {
				assert.Equal(t, "Cäsar", contact.Last)
				found = true
			}
		}
		assert.True(t, found, "could not find contact")
	})
}
