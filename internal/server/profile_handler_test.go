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

func TestRequestProfileLifecycle(t *testing.T) {
	engine, ioc, r, cleanup := setup()
	defer cleanup()
	user, session := createUserWithSession(ioc, "george", false)
	token := claim(ioc, user, session)

	r.POST("/api/v1/profiles").SetHeader(authorization(token)).SetJSON(gofight.D{"name": ""}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"validation","message":"Name is mandatory."}}`, r.Body.String())
	})

	r.POST("/api/v1/profiles").SetHeader(authorization(token)).SetJSON(gofight.D{"name": "a name that is way too long for a profile"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"validation","message":"Name is too long."}}`, r.Body.String())
	})

	var id string
	r.POST("/api/v1/profiles").SetHeader(authorization(token)).SetJSON(gofight.D{"name": "main"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusCreated, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		id = string(v.Get("uuid").GetStringBytes())
		assert.Equal(t, user.ID, string(v.Get("user_uuid").GetStringBytes()))
		assert.Equal(t, "main", string(v.Get("name").GetStringBytes()))
	})

	r.GET("/api/v1/user/"+user.ID+"/profiles").SetHeader(authorization(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		assert.Len(t, v.GetArray(), 1)
	})

	r.PUT("/api/v1/profiles/"+id).SetHeader(authorization(token)).SetJSON(gofight.D{"name": "renamed"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v, err := fastjson.Parse(r.Body.String())
		assert.NoError(t, err)
		assert.Equal(t, "renamed", string(v.Get("name").GetStringBytes()))
	})

	r.DELETE("/api/v1/profiles/"+id).SetHeader(authorization(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})

	r.GET("/api/v1/profiles/"+id).SetHeader(authorization(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})
}

func TestRequestProfileOwnership(t *testing.T) {
	engine, ioc, r, cleanup := setup()
	defer cleanup()
	owner, _ := createUserWithSession(ioc, "george", false)
	intruder, intruderSession := createUserWithSession(ioc, "intruder", false)
	admin, adminSession := createUserWithSession(ioc, "root", true)

	profiles := database.NewRepository[model.Profile](ioc.Database)
	profile := &model.Profile{UserID: owner.ID, Name: "main"}
	if err := profiles.Insert(profile); err != nil {
		panic(err)
	}

	token := claim(ioc, intruder, intruderSession)
	r.GET("/api/v1/profiles/"+profile.ID).SetHeader(authorization(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
	})
	r.GET("/api/v1/user/"+owner.ID+"/profiles").SetHeader(authorization(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
	})

	adminToken := claim(ioc, admin, adminSession)
	r.GET("/api/v1/profiles/"+profile.ID).SetHeader(authorization(adminToken)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
	})
}

func TestRequestDeleteProfileWithSaves(t *testing.T) {
	engine, ioc, r, cleanup := setup()
	defer cleanup()
	user, session := createUserWithSession(ioc, "george", false)

	profiles := database.NewRepository[model.Profile](ioc.Database)
	profile := &model.Profile{UserID: user.ID, Name: "main"}
	if err := profiles.Insert(profile); err != nil {
		panic(err)
	}
	saves := database.NewRepository[model.Save](ioc.Database)
	save := &model.Save{UserID: user.ID, ProfileID: profile.ID, GameID: "some-game", URL: "file:///tmp/save.bin"}
	if err := saves.Insert(save); err != nil {
		panic(err)
	}

	token := claim(ioc, user, session)
	r.DELETE("/api/v1/profiles/"+profile.ID).SetHeader(authorization(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"forbidden","message":"This profile still has saves."}}`, r.Body.String())
	})

	// The profile survives the refused delete.
	record, err := profiles.Get(profile.ID)
	assert.NoError(t, err)
	assert.NotNil(t, record)

	if err := saves.Delete(save.ID); err != nil {
		panic(err)
	}
	r.DELETE("/api/v1/profiles/"+profile.ID).SetHeader(authorization(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})
}
