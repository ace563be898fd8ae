package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryCRUD(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.addUser(t, "dev@example.com", "pass-1234", "USER")

	// Requires authentication.
	rec := env.do(t, http.MethodGet, "/api/repositories", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Create.
	rec = env.do(t, http.MethodPost, "/api/repositories", map[string]interface{}{
		"name":        "starter-app",
		"link":        "https://github.com/example/starter-app",
		"description": "The starter application",
	}, asUser(token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Link        string  `json:"link"`
		Description *string `json:"description"`
	}
	decodeBody(t, rec, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "starter-app", created.Name)
	require.NotNil(t, created.Description)

	// Get.
	rec = env.do(t, http.MethodGet, "/api/repositories/"+created.ID, nil, asUser(token))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/repositories/missing", nil, asUser(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// List.
	rec = env.do(t, http.MethodGet, "/api/repositories", nil, asUser(token))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Repositories []map[string]interface{} `json:"repositories"`
		Total        int                      `json:"total"`
	}
	decodeBody(t, rec, &list)
	assert.Equal(t, 1, list.Total)
	assert.Len(t, list.Repositories, 1)

	// Update.
	rec = env.do(t, http.MethodPut, "/api/repositories/"+created.ID, map[string]interface{}{
		"name": "starter-app-v2",
		"link": "https://github.com/example/starter-app",
	}, asUser(token))
	require.Equal(t, http.StatusOK, rec.Code)
	var updated struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	decodeBody(t, rec, &updated)
	assert.Equal(t, "starter-app-v2", updated.Name)
	assert.Nil(t, updated.Description, "omitting the description clears it")

	rec = env.do(t, http.MethodPut, "/api/repositories/missing", map[string]interface{}{
		"name": "something-else",
		"link": "https://example.com",
	}, asUser(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Delete.
	rec = env.do(t, http.MethodDelete, "/api/repositories/"+created.ID, nil, asUser(token))
	require.Equal(t, http.StatusNoContent, rec.Code)
	repo, err := env.repos.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, repo)
}

func TestRepositoryValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.addUser(t, "dev@example.com", "pass-1234", "USER")

	// Name shorter than five characters.
	rec := env.do(t, http.MethodPost, "/api/repositories", map[string]interface{}{
		"name": "abcd",
		"link": "https://example.com",
	}, asUser(token))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Contains(t, body["message"], "at least 5 characters")

	// Missing link.
	rec = env.do(t, http.MethodPost, "/api/repositories", map[string]interface{}{
		"name": "valid-name",
	}, asUser(token))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decodeBody(t, rec, &body)
	assert.Contains(t, body["message"], "Link is required")
}
