package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/markbates/goth"
	"github.com/petermazzocco/photo-lobby/internal/blob"
	"github.com/petermazzocco/photo-lobby/internal/service"
	"github.com/petermazzocco/photo-lobby/internal/store"
	"github.com/petermazzocco/photo-lobby/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// headerResolver trusts the X-User header.
type headerResolver struct{}

func (headerResolver) UserID(r *http.Request) (string, bool) {
	id := r.Header.Get("X-User")
	return id, id != ""
}

type fakeSessions struct{ loggedIn []string }

func (f *fakeSessions) Login(_ http.ResponseWriter, _ *http.Request, userID string) error {
	f.loggedIn = append(f.loggedIn, userID)
	return nil
}

func (f *fakeSessions) Logout(http.ResponseWriter, *http.Request) error { return nil }

type fakeOAuth struct {
	user  goth.User
	err   error
	began bool
}

func (f *fakeOAuth) Begin(w http.ResponseWriter, _ *http.Request) {
	f.began = true
	w.WriteHeader(http.StatusFound)
}

func (f *fakeOAuth) Complete(http.ResponseWriter, *http.Request) (goth.User, error) { return f.user, f.err }

func (f *fakeOAuth) Logout(http.ResponseWriter, *http.Request) error { return nil }

type passthrough struct{}

func (passthrough) Transform(input []byte, opts transform.Options) ([]byte, error) {
	return append([]byte(fmt.Sprintf("w%d:", opts.Width)), input...), nil
}

type server struct {
	h        http.Handler
	api      *API
	sessions *fakeSessions
	oauth    *fakeOAuth
}

func newServer(t *testing.T) *server {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := store.Open("sqlite", fmt.Sprintf("file:http_%s?mode=memory&cache=shared", name), hclog.NewNullLogger())
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	svc := service.New(store.New(db), blob.NewMemory(), passthrough{}, hclog.NewNullLogger())
	s := &server{sessions: &fakeSessions{}, oauth: &fakeOAuth{}}
	s.api = NewAPI(svc, s.sessions, s.oauth, hclog.NewNullLogger())
	s.api.AfterLogin = "/home"
	s.h = NewRouter(s.api, headerResolver{}, RouterOptions{AllowedOrigins: []string{"https://app.example"}})
	return s
}

func (s *server) do(t *testing.T, method, path, user string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func (s *server) upload(t *testing.T, lobbyID, user string, parts map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, ctype := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, name))
		h.Set("Content-Type", ctype)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		part.Write([]byte("bytes of " + name))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/lobby/id/"+lobbyID+"/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User", user)
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *server) createLobby(t *testing.T, owner string, body map[string]any) map[string]any {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/lobby", owner, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[map[string]any](t, rec)
}

func TestCreateAndFetchLobby(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/lobby", "", map[string]any{"title": "Trip"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	lobby := s.createLobby(t, "owner", map[string]any{"title": "Trip", "backgroundColor": "#AABBCC"})
	assert.Equal(t, "#aabbcc", lobby["backgroundColor"])
	code := lobby["code"].(string)
	assert.Len(t, code, 6)

	rec = s.do(t, http.MethodGet, "/lobby/code/"+strings.ToLower(code), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[map[string]any](t, rec)
	assert.Equal(t, lobby["id"], detail["id"])
	assert.Equal(t, false, detail["joined"])

	rec = s.do(t, http.MethodGet, "/lobby/user/owner", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

func TestDraftHiddenFromOthers(t *testing.T) {
	s := newServer(t)
	lobby := s.createLobby(t, "owner", map[string]any{"title": "Secret", "isDraft": true})
	id := lobby["id"].(string)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/lobby/id/"+id, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/lobby/id/"+id, "stranger", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/lobby/id/"+id, "owner", nil).Code)
}

func TestUploadServeAndReact(t *testing.T) {
	s := newServer(t)
	id := s.createLobby(t, "owner", map[string]any{"title": "Trip"})["id"].(string)

	rec := s.upload(t, id, "owner", map[string]string{"a.jpg": "image/jpeg"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ids := decode[map[string][]string](t, rec)["imageIds"]
	require.Len(t, ids, 1)

	rec = s.upload(t, id, "owner", map[string]string{"b.png": "image/png"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.upload(t, id, "viewer", map[string]string{"c.jpg": "image/jpeg"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/image/"+id+"/"+ids[0]+"?w=300", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "w300:bytes of a.jpg", rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = s.do(t, http.MethodGet, "/image/"+id+"/"+ids[0], "", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/image/"+id+"/"+ids[0], "", nil, "If-Match", `"nope"`)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)

	rec = s.do(t, http.MethodGet, "/image/"+id+"/"+ids[0], "", nil, "Range", "bytes=0-3")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "w0:bytes of a.jpg", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/image/"+id+"/missing", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/image/"+id+"/"+ids[0]+"?w=wide", "", nil).Code)

	rec = s.do(t, http.MethodPut, "/image/"+ids[0]+"/react", "viewer", map[string]string{"value": "🔥"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[map[string]any](t, rec)
	assert.Equal(t, "1🔥", res["reactions"])
	assert.Equal(t, "🔥", res["mine"])

	rec = s.do(t, http.MethodPut, "/image/"+ids[0]+"/react", "viewer", map[string]string{"value": "🔥"})
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[map[string]any](t, rec)
	assert.Equal(t, "0", res["reactions"])
	assert.Nil(t, res["mine"])

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, "/image/"+ids[0]+"/react", "", map[string]string{"value": "🔥"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/image/"+ids[0]+"/react", "viewer", "").Code)
}

func TestUpdateLobby(t *testing.T) {
	s := newServer(t)
	id := s.createLobby(t, "owner", map[string]any{"title": "Trip"})["id"].(string)

	rec := s.do(t, http.MethodPut, "/lobby/id/"+id, "owner", map[string]any{
		"changes": map[string]any{"title": "Renamed", "viewersCanEdit": true},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]any](t, rec)
	assert.Equal(t, "Renamed", got["title"])
	assert.Equal(t, true, got["viewersCanEdit"])

	rec = s.do(t, http.MethodPut, "/lobby/id/"+id, "owner", map[string]any{
		"changes": map[string]any{"ownerId": "me"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/lobby/id/"+id, "viewer", map[string]any{
		"changes": map[string]any{"title": "Mine now"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/lobby/id/"+id, "owner", "{not json").Code)
}

func TestJoinAndDelete(t *testing.T) {
	s := newServer(t)
	id := s.createLobby(t, "owner", map[string]any{"title": "Trip"})["id"].(string)

	rec := s.do(t, http.MethodPut, "/lobby/id/"+id+"/join", "guest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"joined": true}, decode[map[string]bool](t, rec))

	rec = s.do(t, http.MethodGet, "/lobby/joined", "guest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	joined := decode[[]map[string]any](t, rec)
	require.Len(t, joined, 1)
	assert.Equal(t, id, joined[0]["id"])

	rec = s.do(t, http.MethodPut, "/lobby/id/"+id+"/join", "guest", nil)
	assert.Equal(t, map[string]bool{"joined": false}, decode[map[string]bool](t, rec))

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodDelete, "/lobby/id/"+id, "guest", nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/lobby/id/"+id, "owner", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/lobby/id/"+id, "owner", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/lobby/id/"+id, "owner", nil).Code)
}

func TestCreateReport(t *testing.T) {
	s := newServer(t)
	id := s.createLobby(t, "owner", map[string]any{"title": "Trip"})["id"].(string)

	rec := s.do(t, http.MethodPost, "/report", "", map[string]string{"lobbyId": id, "email": "a@b.co", "message": "spam"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "open", decode[map[string]any](t, rec)["status"])

	rec = s.do(t, http.MethodPost, "/report", "", map[string]string{"lobbyId": id, "email": "bad", "message": "spam"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "invalid input")
}

func TestLoginFlow(t *testing.T) {
	s := newServer(t)
	s.oauth.user = goth.User{UserID: "google-7", Name: "Sam", Email: "sam@example.com"}

	rec := s.do(t, http.MethodGet, "/auth/google/callback", "", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))
	assert.Equal(t, []string{"google-7"}, s.sessions.loggedIn)

	rec = s.do(t, http.MethodGet, "/user", "google-7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sam@example.com", decode[map[string]any](t, rec)["email"])

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/user", "", nil).Code)

	s.oauth.err = errors.New("state mismatch")
	rec = s.do(t, http.MethodGet, "/auth/google/callback", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/auth/google", "", nil)
	assert.True(t, s.oauth.began)
	assert.Equal(t, http.StatusFound, rec.Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, "/logout/google", "google-7", nil).Code)
}

func TestRouting(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusMethodNotAllowed, s.do(t, http.MethodPatch, "/lobby", "owner", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/nowhere", "", nil).Code)

	rec := s.do(t, http.MethodOptions, "/lobby", "", nil,
		"Origin", "https://app.example",
		"Access-Control-Request-Method", http.MethodPost)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestFailHidesInternalErrors(t *testing.T) {
	s := newServer(t)
	rec := httptest.NewRecorder()
	s.api.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("dial tcp: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
