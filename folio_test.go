package folio_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/folio-cms/folio"
	"github.com/folio-cms/folio/cdn"
	"github.com/folio-cms/folio/content"
	"github.com/folio-cms/folio/views"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct horse"
)

type fakeUploader struct {
	mu        sync.Mutex
	n         int
	err       error
	uploaded  []string
	destroyed []string
}

func (f *fakeUploader) Upload(_ context.Context, p cdn.Prepared) (cdn.Uploaded, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return cdn.Uploaded{}, f.err
	}
	f.n++
	key := fmt.Sprintf("production/photo-%d", f.n)
	f.uploaded = append(f.uploaded, key)
	return cdn.Uploaded{Key: key, Bytes: int64(len(p.Data))}, nil
}

func (f *fakeUploader) Destroy(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, key)
	return nil
}

type testApp struct {
	*folio.App
	up *fakeUploader
}

func newTestApp(t *testing.T, cfg folio.SiteConfig) *testApp {
	t.Helper()
	store, err := content.Open(filepath.Join(t.TempDir(), "data", "folio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = store.UpsertUser(context.Background(), adminEmail, string(hash))
	require.NoError(t, err)

	cfg.SessionSecret = "test-session-secret-0123456789"
	cfg.CDNCloud = "demo"
	cfg.LoginDelay = time.Millisecond
	up := &fakeUploader{}
	app := folio.New(cfg, views.Default(), folio.WithStore(store), folio.WithUploader(up))
	app.Echo.Logger.SetOutput(io.Discard)
	require.NoError(t, app.Setup())
	t.Cleanup(func() { app.Close() })
	return &testApp{App: app, up: up}
}

func (a *testApp) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) login(t *testing.T) string {
	t.Helper()
	rec := a.do(http.MethodPost, "/api/admin/login",
		fmt.Sprintf(`{"email":%q,"password":%q}`, adminEmail, adminPassword), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), body.ExpiresAt, time.Minute)
	return body.Token
}

type postJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Draft       bool     `json:"draft"`
	OrderNumber *int     `json:"orderNumber"`
	Tags        []string `json:"tags"`
	Photos      []struct {
		AttachmentID string `json:"attachmentId"`
		BlobID       string `json:"blobId"`
		Key          string `json:"key"`
		URL          string `json:"url"`
	} `json:"photos"`
}

type errJSON struct {
	Error      string `json:"error"`
	Details    string `json:"details"`
	RetryAfter int    `json:"retryAfter"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testApp) createPost(t *testing.T, token, body string) postJSON {
	t.Helper()
	rec := a.do(http.MethodPost, "/api/admin/posts", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[postJSON](t, rec)
}

func (a *testApp) adminOrder(t *testing.T, token string) ([]string, []int) {
	t.Helper()
	rec := a.do(http.MethodGet, "/api/admin/posts", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var ids []string
	var ranks []int
	for _, p := range decode[[]postJSON](t, rec) {
		ids = append(ids, p.ID)
		require.NotNil(t, p.OrderNumber)
		ranks = append(ranks, *p.OrderNumber)
	}
	return ids, ranks
}

func TestAdminAPIRequiresToken(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{})
	for _, token := range []string{"", "not-a-token"} {
		rec := a.do(http.MethodGet, "/api/admin/posts", "", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decode[errJSON](t, rec).Error)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{})
	rec := a.do(http.MethodPost, "/api/admin/login", `{"email":"admin@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decode[errJSON](t, rec).Error)

	rec = a.do(http.MethodPost, "/api/admin/login", `{"email":"someone@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginIsRateLimitedPerIP(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{})
	for i := 0; i < 5; i++ {
		rec := a.do(http.MethodPost, "/api/admin/login", `{"email":"x@example.com","password":"x"}`, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}
	rec := a.do(http.MethodPost, "/api/admin/login",
		fmt.Sprintf(`{"email":%q,"password":%q}`, adminEmail, adminPassword), "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decode[errJSON](t, rec)
	assert.Equal(t, "too many requests", body.Error)
	assert.Greater(t, body.RetryAfter, 0)
	assert.LessOrEqual(t, body.RetryAfter, 60)
	assert.Equal(t, fmt.Sprint(body.RetryAfter), rec.Header().Get("Retry-After"))
}

func TestPostLifecycleKeepsDenseRanks(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{})
	token := a.login(t)

	p1 := a.createPost(t, token, `{"title":"One"}`)
	p2 := a.createPost(t, token, `{"title":"Two"}`)
	p3 := a.createPost(t, token, `{"title":"Three"}`)
	assert.True(t, p1.Draft)

	ids, ranks := a.adminOrder(t, token)
	assert.Equal(t, []string{p1.ID, p2.ID, p3.ID}, ids)
	assert.Equal(t, []int{1, 2, 3}, ranks)

	rec := a.do(http.MethodPost, "/api/admin/posts/reorder",
		fmt.Sprintf(`{"orderedIds":[%q,%q,%q]}`, p3.ID, p1.ID, p2.ID), token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ids, ranks = a.adminOrder(t, token)
	assert.Equal(t, []string{p3.ID, p1.ID, p2.ID}, ids)
	assert.Equal(t, []int{1, 2, 3}, ranks)

	rec = a.do(http.MethodPut, "/api/admin/posts/"+p2.ID, `{"orderNumber":1}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ids, ranks = a.adminOrder(t, token)
	assert.Equal(t, []string{p2.ID, p3.ID, p1.ID}, ids)
	assert.Equal(t, []int{1, 2, 3}, ranks)

	rec = a.do(http.MethodDelete, "/api/admin/posts/"+p3.ID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	ids, ranks = a.adminOrder(t, token)
	assert.Equal(t, []string{p2.ID, p1.ID}, ids)
	assert.Equal(t, []int{1, 2}, ranks)

	rec = a.do(http.MethodGet, "/api/admin/posts/"+p3.ID, "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReorderRejectsInvalidInput(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{})
	token := a.login(t)
	p1 := a.createPost(t, token, `{"title":"One"}`)
	p2 := a.createPost(t, token, `{"title":"Two"}`)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing post", fmt.Sprintf(`{"orderedIds":[%q]}`, p1.ID), "invalid order"},
		{"duplicate", fmt.Sprintf(`{"orderedIds":[%q,%q]}`, p1.ID, p1.ID), "invalid order"},
		{"unknown", fmt.Sprintf(`{"orderedIds":[%q,%q,"999"]}`, p1.ID, p2.ID), "invalid order"},
		{"empty", `{"orderedIds":[]}`, "invalid input"},
		{"malformed id", fmt.Sprintf(`{"orderedIds":[%q,"2x"]}`, p1.ID), "invalid input"},
		{"negative id", fmt.Sprintf(`{"orderedIds":[%q,"-2"]}`, p1.ID), "invalid input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(http.MethodPost, "/api/admin/posts/reorder", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[errJSON](t, rec)
			assert.Equal(t, tt.want, body.Error)
			assert.NotEmpty(t, body.Details)
		})
	}
	ids, ranks := a.adminOrder(t, token)
	assert.Equal(t, []string{p1.ID, p2.ID}, ids)
	assert.Equal(t, []int{1, 2}, ranks)
}

func TestProductionHidesErrorDetails(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{Env: "production"})
	token := a.login(t)
	rec := a.do(http.MethodPost, "/api/admin/posts/reorder", `{"orderedIds":["1"]}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "details")
}

func TestBadIDsAndConflicts(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{})
	token := a.login(t)
	a.createPost(t, token, `{"title":"One","slug":"one"}`)

	rec := a.do(http.MethodGet, "/api/admin/posts/abc", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, "/api/admin/posts", `{"title":"Other","slug":"one"}`, token)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode[errJSON](t, rec).Error)

	rec = a.do(http.MethodPost, "/api/admin/posts", `{"slug":"Not A Slug"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPut, "/api/admin/posts/999", `{"title":"x"}`, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type projectJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Embeds      string   `json:"embeds"`
	Sources     []string `json:"sources"`
	Tags        []string `json:"tags"`
	Photos      []struct {
		URL       string `json:"url"`
		Thumbnail string `json:"thumbnail"`
		Alt       string `json:"alt"`
	} `json:"photos"`
}

func TestPublicAPIServesSanitizedPublishedProjects(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{})
	token := a.login(t)
	a.createPost(t, token, `{"title":"Secret draft","slug":"secret"}`)

	// Prime the cache before publishing to check admin writes invalidate it.
	rec := a.do(http.MethodGet, "/api/posts", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]projectJSON](t, rec))

	body, err := json.Marshal(map[string]any{
		"title":       "Kiln",
		"slug":        "kiln",
		"draft":       false,
		"description": `<p onclick="steal()">hot</p><script>alert(1)</script>`,
		"script":      `<iframe src="https://evil.example/x"></iframe><iframe src="https://www.youtube.com/embed/abc"></iframe><div>noise</div>`,
		"source":      "code at https://github.com/jane/kiln",
		"tags":        []string{"Ceramics"},
	})
	require.NoError(t, err)
	kiln := a.createPost(t, token, string(body))

	rec = a.do(http.MethodGet, "/api/posts", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]projectJSON](t, rec)
	require.Len(t, list, 1)
	p := list[0]
	assert.Equal(t, kiln.ID, p.ID)
	assert.Contains(t, p.Description, "hot")
	assert.NotContains(t, p.Description, "onclick")
	assert.NotContains(t, p.Description, "script")
	assert.Contains(t, p.Embeds, "https://www.youtube.com/embed/abc")
	assert.NotContains(t, p.Embeds, "evil.example")
	assert.NotContains(t, p.Embeds, "noise")
	assert.Equal(t, []string{"https://github.com/jane/kiln"}, p.Sources)
	assert.Equal(t, []string{"ceramics"}, p.Tags)

	for _, key := range []string{"kiln", kiln.ID} {
		rec = a.do(http.MethodGet, "/api/posts/"+key, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, key)
	}
	rec = a.do(http.MethodGet, "/api/posts/secret", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decode[errJSON](t, rec).Error)

	rec = a.do(http.MethodGet, "/api/posts?tag=ceramics", "", "")
	assert.Len(t, decode[[]projectJSON](t, rec), 1)
	rec = a.do(http.MethodGet, "/api/posts?tag=web", "", "")
	assert.Empty(t, decode[[]projectJSON](t, rec))
	rec = a.do(http.MethodGet, "/api/posts?featured=1", "", "")
	assert.Empty(t, decode[[]projectJSON](t, rec))

	rec = a.do(http.MethodGet, "/api/tags", "", "")
	tags := decode[[]content.Tag](t, rec)
	require.Len(t, tags, 1)
	assert.Equal(t, "ceramics", tags[0].Name)
	assert.Equal(t, 1, tags[0].Count)
}

func pngUpload(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func smallPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 24))))
	return buf.Bytes()
}

func (a *testApp) upload(path, token, name string, data []byte, t *testing.T) *httptest.ResponseRecorder {
	body, ctype := pngUpload(t, name, data)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set(echo.HeaderContentType, ctype)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func TestPhotoUploadReorderAndDelete(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{})
	token := a.login(t)
	post := a.createPost(t, token, `{"title":"Gallery","slug":"gallery","draft":false,"altText":"vases"}`)
	path := "/api/admin/posts/" + post.ID + "/photos"

	type photoJSON struct {
		AttachmentID string `json:"attachmentId"`
		BlobID       string `json:"blobId"`
		Key          string `json:"key"`
		URL          string `json:"url"`
		Original     string `json:"original"`
	}
	var photos []photoJSON
	for _, name := range []string{"a.png", "b.png"} {
		rec := a.upload(path, token, name, smallPNG(t), t)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		ph := decode[photoJSON](t, rec)
		assert.True(t, strings.HasPrefix(ph.URL, "https://res.cloudinary.com/demo/image/upload/"), ph.URL)
		assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/f_auto,q_auto:eco/"+ph.Key, ph.Original)
		photos = append(photos, ph)
	}

	rec := a.do(http.MethodPut, path+"/reorder",
		fmt.Sprintf(`{"blobIds":[%q,%q]}`, photos[1].BlobID, photos[0].BlobID), token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/admin/posts/"+post.ID, "", token)
	got := decode[postJSON](t, rec)
	require.Len(t, got.Photos, 2)
	assert.Equal(t, photos[1].Key, got.Photos[0].Key)
	assert.Equal(t, photos[0].Key, got.Photos[1].Key)

	rec = a.do(http.MethodPut, path+"/reorder", fmt.Sprintf(`{"blobIds":[%q]}`, photos[0].BlobID), token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/api/posts/gallery", "", "")
	pub := decode[projectJSON](t, rec)
	require.Len(t, pub.Photos, 2)
	assert.Equal(t, "vases", pub.Photos[0].Alt)
	assert.Contains(t, pub.Photos[0].URL, photos[1].Key)

	rec = a.do(http.MethodDelete, path+"/"+got.Photos[0].AttachmentID, "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{photos[1].Key}, a.up.destroyed)

	rec = a.do(http.MethodDelete, "/api/admin/posts/"+post.ID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{photos[1].Key, photos[0].Key}, a.up.destroyed)
}

func TestPhotoUploadFailuresLeaveNoRows(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{})
	token := a.login(t)
	post := a.createPost(t, token, `{"title":"Gallery"}`)
	path := "/api/admin/posts/" + post.ID + "/photos"

	rec := a.upload(path, token, "x.svg", []byte("<svg onload=alert(1)>"), t)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, a.up.uploaded)

	a.up.err = errors.New("cdn down")
	rec = a.upload(path, token, "a.png", smallPNG(t), t)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[errJSON](t, rec)
	assert.Equal(t, "server error", body.Error)
	assert.Empty(t, body.Details)

	rec = a.do(http.MethodGet, "/api/admin/posts/"+post.ID, "", token)
	assert.Empty(t, decode[postJSON](t, rec).Photos)

	rec = a.upload("/api/admin/posts/999/photos", token, "a.png", smallPNG(t), t)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotesAndExport(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{})
	token := a.login(t)

	rec := a.do(http.MethodGet, "/api/admin/notes", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"notes":""}`, rec.Body.String())

	rec = a.do(http.MethodPut, "/api/admin/notes", `{"notes":"call the gallery"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodGet, "/api/admin/notes", "", token)
	assert.JSONEq(t, `{"notes":"call the gallery"}`, rec.Body.String())

	a.createPost(t, token, `{"title":"First","description":"one","draft":false}`)
	a.createPost(t, token, `{"title":"Hidden","description":"draft"}`)
	a.createPost(t, token, `{"description":"two","draft":false}`)
	rec = a.do(http.MethodGet, "/api/admin/posts/export", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"markdown":"# First\none\n\n# Untitled\ntwo"}`, rec.Body.String())
}

func TestPublicPages(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{Name: "Jane's Work"})
	token := a.login(t)
	a.createPost(t, token, `{"title":"Kiln","slug":"kiln","draft":false,"date":"2024-03-01","tags":["ceramics"]}`)

	rec := a.do(http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/projects/kiln/"`)

	rec = a.do(http.MethodGet, "/projects/kiln/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Kiln</h1>")

	rec = a.do(http.MethodGet, "/projects/missing/", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")

	rec = a.do(http.MethodGet, "/feed.xml", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Kiln</title>")
	assert.Contains(t, rec.Body.String(), "<link>http://localhost:3000/projects/kiln/</link>")
	assert.Contains(t, rec.Body.String(), "<category>ceramics</category>")

	rec = a.do(http.MethodGet, "/robots.txt", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Disallow: /admin/")
}

func cookieHeader(cookies ...*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestAdminHTMLLoginUsesSessionCookie(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{})

	rec := a.do(http.MethodGet, "/admin/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/admin/login/"`)
	csrf := findCookie(t, rec, "_csrf")

	form := url.Values{"email": {adminEmail}, "password": {adminPassword}, "_csrf": {csrf.Value}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("Cookie", cookieHeader(csrf))
	rec = httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	sess := findCookie(t, rec, "admin_session")

	req = httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.Header.Set("Cookie", cookieHeader(csrf, sess))
	rec = httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Projects</h1>")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	// The session cookie also authorizes the admin API, but writes need the
	// CSRF token.
	req = httptest.NewRequest(http.MethodGet, "/api/admin/posts", nil)
	req.Header.Set("Cookie", cookieHeader(csrf, sess))
	rec = httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/posts", strings.NewReader(`{"title":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Cookie", cookieHeader(csrf, sess))
	rec = httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/posts", strings.NewReader(`{"title":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-CSRF-Token", csrf.Value)
	req.Header.Set("Cookie", cookieHeader(csrf, sess))
	rec = httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestAdminHTMLLoginFailureShowsError(t *testing.T) {
	a := newTestApp(t, folio.SiteConfig{})
	rec := a.do(http.MethodGet, "/admin/", "", "")
	csrf := findCookie(t, rec, "_csrf")

	form := url.Values{"email": {adminEmail}, "password": {"wrong"}, "_csrf": {csrf.Value}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("Cookie", cookieHeader(csrf))
	rec = httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password.")
}
