package server_test

import (
	"net/http"
	"testing"

	"github.com/appleboy/gofight"
	"github.com/mdouchement/savepoint/internal/database"
	"github.com/mdouchement/savepoint/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fastjson"
)

func TestRequestListSessions(t *testing.T) {
	engine, ioc, r, cleanup := setup()
	defer cleanup()
	user, session := createUserWithSession(ioc, "george", false)

	// Second device.
	other := manager(ioc).Generate(user, "other-device", "elsewhere", "10.0.0.2")
	sessions := database.NewRepository[model.Session](ioc.Database)
	if err := sessions.Insert(other); err != nil {
		panic(err)
	}

	token := claim(ioc, user, session)
	r.GET("/api/v1/sessions").SetHeader(authorization(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)

		records := v.GetArray()
		assert.Len(t, records, 2)

		current := 0
		for _, record := range records {
			assert.Nil(t, record.Get("refresh_token"))
			if record.Get("current").GetBool() {
				current++
				assert.Equal(t, session.ID, string(record.Get("uuid").GetStringBytes()))
			}
		}
		assert.Equal(t, 1, current)
	})
}

func TestRequestLogout(t *testing.T) {
	engine, ioc, r, cleanup := setup()
	defer cleanup()
	user, session := createUserWithSession(ioc, "george", false)

	token := claim(ioc, user, session)
	r.DELETE("/api/v1/session").SetHeader(authorization(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})

	sessions := database.NewRepository[model.Session](ioc.Database)
	record, err := sessions.Get(session.ID)
	assert.NoError(t, err)
	assert.Nil(t, record)

	// The refresh token dies with the session.
	params := gofight.D{"refresh_token": session.RefreshToken}
	r.POST("/api/v1/refresh").SetHeader(authorization(token)).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
	})
}

func TestRequestDeleteSession(t *testing.T) {
	engine, ioc, r, cleanup := setup()
	defer cleanup()
	user, session := createUserWithSession(ioc, "george", false)

	other := manager(ioc).Generate(user, "other-device", "elsewhere", "10.0.0.2")
	sessions := database.NewRepository[model.Session](ioc.Database)
	if err := sessions.Insert(other); err != nil {
		panic(err)
	}

	// An intruder's session is out of reach.
	intruder, foreign := createUserWithSession(ioc, "intruder", false)
	_ = intruder

	token := claim(ioc, user, session)

	r.DELETE("/api/v1/session/"+session.ID).SetHeader(authorization(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"validation","message":"You can not delete your current session."}}`, r.Body.String())
	})

	r.DELETE("/api/v1/session/"+foreign.ID).SetHeader(authorization(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"not-found","message":"No session exists with the provided identifier."}}`, r.Body.String())
	})

	r.DELETE("/api/v1/session/"+other.ID).SetHeader(authorization(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})

	record, err := sessions.Get(other.ID)
	assert.NoError(t, err)
	assert.Nil(t, record)
}

func TestRequestDeleteAllSessions(t *testing.T) {
	engine, ioc, r, cleanup := setup()
	defer cleanup()
	user, session := createUserWithSession(ioc, "george", false)

	sessions := database.NewRepository[model.Session](ioc.Database)
	for i := 0; i < 3; i++ {
		other := manager(ioc).Generate(user, "other-device", "elsewhere", "10.0.0.2")
		if err := sessions.Insert(other); err != nil {
			panic(err)
		}
	}

	token := claim(ioc, user, session)
	r.DELETE("/api/v1/session/all").SetHeader(authorization(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})

	records, err := sessions.Fetch(database.Eq("UserID", user.ID))
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, session.ID, records[0].ID)
}
