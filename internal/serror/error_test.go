package serror_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/mdouchement/savepoint/internal/serror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, serror.StatusCode(serror.Validation("nope")))
	assert.Equal(t, http.StatusNotFound, serror.StatusCode(serror.NotFound("nope")))
	assert.Equal(t, http.StatusConflict, serror.StatusCode(serror.Conflict("nope")))
	assert.Equal(t, http.StatusUnauthorized, serror.StatusCode(serror.Unauthorized("invalid-auth", "nope")))
	assert.Equal(t, http.StatusForbidden, serror.StatusCode(serror.Forbidden("nope")))
	assert.Equal(t, http.StatusInternalServerError, serror.StatusCode(errors.New("nope")))
}

func TestTag(t *testing.T) {
	assert.Equal(t, "validation", serror.Tag(serror.Validation("nope")))
	assert.Equal(t, "expired-claim", serror.Tag(serror.Unauthorized("expired-claim", "nope")))
	assert.Empty(t, serror.Tag(errors.New("nope")))
}

func TestRender(t *testing.T) {
	payload, err := json.Marshal(serror.Conflict("This username is already registered."))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"error":{"tag":"conflict","message":"This username is already registered."}}`, string(payload))

	assert.EqualError(t, serror.Validation("nope"), "nope")
}
