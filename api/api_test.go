package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/rpupo63/fadarc-site-backend/database"
	"github.com/rpupo63/fadarc-site-backend/models"
	"github.com/rpupo63/fadarc-site-backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse"

type fakeHost struct {
	missing []string
	err     error
	calls   int
}

func (h *fakeHost) Name() string            { return "fake" }
func (h *fakeHost) MissingConfig() []string { return h.missing }

func (h *fakeHost) Upload(_ context.Context, _ []byte, fileName string) (string, error) {
	h.calls++
	if h.err != nil {
		return "", h.err
	}
	return "https://img.example/blog-images/" + fileName, nil
}

type testEnv struct {
	handler http.Handler
	store   *database.MemStorage
	host    *fakeHost
	token   string
}

func newTestEnv(t *testing.T, cfg map[string]string) *testEnv {
	t.Helper()

	store := database.NewMemory()
	host := &fakeHost{}
	gate := services.NewAdminGate(store.Users(), "api-test-secret", time.Hour)
	require.NoError(t, gate.EnsureAdmin(context.Background(), testPassword))

	token, err := gate.Login(context.Background(), testPassword)
	require.NoError(t, err)

	deps := Dependencies{
		Storage:  store,
		Ingestor: services.NewImageIngestor(host, store.UploadedFiles()),
		Gate:     gate,
	}
	return &testEnv{
		handler: NewRouter(deps, withConfig(cfg)),
		store:   store,
		host:    host,
		token:   token,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/health", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, database.BackendMemory, resp.Storage)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestBlog_CreateDefaultsAndListing(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/blog", map[string]any{
		"title":    "Gearbox care",
		"content":  "Change the fluid.",
		"excerpt":  "Short version",
		"category": "   ",
	}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[models.BlogPost](t, w)
	assert.NotZero(t, created.ID)
	assert.Equal(t, models.DefaultBlogCategory, created.Category)
	assert.True(t, created.Published)
	assert.Nil(t, created.ImageURL)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	w = env.do(t, http.MethodGet, "/api/blog", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	posts := decode[[]models.BlogPost](t, w)
	require.Len(t, posts, 1)
	assert.Equal(t, "Gearbox care", posts[0].Title)
}

func TestBlog_ListIsAnArrayWhenEmpty(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/blog", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestBlog_DraftsHiddenFromListButReadableByID(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/blog", map[string]any{
		"title": "Draft", "content": "c", "excerpt": "e", "published": false,
	}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	draft := decode[models.BlogPost](t, w)
	assert.False(t, draft.Published)

	w = env.do(t, http.MethodGet, "/api/blog", nil, false)
	assert.JSONEq(t, "[]", w.Body.String())

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/blog/%d", draft.ID), nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Draft", decode[models.BlogPost](t, w).Title)
}

func TestBlog_CreateValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := map[string]struct {
		body  map[string]any
		field string
	}{
		"missing title":   {map[string]any{"content": "c", "excerpt": "e"}, "title"},
		"blank content":   {map[string]any{"title": "t", "content": "  ", "excerpt": "e"}, "content"},
		"missing excerpt": {map[string]any{"title": "t", "content": "c"}, "excerpt"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/blog", tc.body, true)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.field, decode[ErrorResponse](t, w).Field)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/blog", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+env.token)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlog_UpdateEnforcesCreateLimits(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/blog", map[string]any{
		"title": "Short", "content": "Body", "excerpt": "Sum",
	}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.BlogPost](t, w)
	path := fmt.Sprintf("/api/blog/%d", created.ID)

	cases := map[string]struct {
		body  map[string]any
		field string
	}{
		"title":    {map[string]any{"title": strings.Repeat("t", 301)}, "title"},
		"excerpt":  {map[string]any{"excerpt": strings.Repeat("e", 1001)}, "excerpt"},
		"category": {map[string]any{"category": strings.Repeat("c", 101)}, "category"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPut, path, tc.body, true)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.field, decode[ErrorResponse](t, w).Field)
		})
	}

	w = env.do(t, http.MethodPut, path, map[string]any{"title": strings.Repeat("t", 300)}, true)
	assert.Equal(t, http.StatusOK, w.Code)

	stored, err := env.store.BlogPosts().FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("t", 300), stored.Title)
	assert.Equal(t, "Sum", stored.Excerpt)
	assert.Equal(t, models.DefaultBlogCategory, stored.Category)
}

func TestBlog_BadIDIsDistinctFromMissing(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/blog/abc", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/blog/9999", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, "/api/blog/abc", map[string]any{"title": "x"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/blog/9999", map[string]any{"title": "x"}, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/api/blog/-3", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlog_UpdateRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/blog", map[string]any{
		"title": "Old", "content": "Body", "excerpt": "Sum", "category": "Maintenance",
	}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.BlogPost](t, w)

	time.Sleep(2 * time.Millisecond)
	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/blog/%d", created.ID), map[string]any{
		"title":    "New",
		"imageUrl": "https://img.example/blog-images/x.jpg",
	}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.BlogPost](t, w)

	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "Body", updated.Content)
	assert.Equal(t, "Maintenance", updated.Category)
	require.NotNil(t, updated.ImageURL)
	assert.Equal(t, "https://img.example/blog-images/x.jpg", *updated.ImageURL)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/blog/%d", created.ID), map[string]any{"excerpt": ""}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/blog/%d", created.ID), map[string]any{"imageUrl": ""}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[models.BlogPost](t, w).ImageURL)
}

func TestBlog_DeleteTwice(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/blog", map[string]any{"title": "t", "content": "c", "excerpt": "e"}, true)
	created := decode[models.BlogPost](t, w)
	path := fmt.Sprintf("/api/blog/%d", created.ID)

	w = env.do(t, http.MethodDelete, path, nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Blog post deleted successfully", decode[MessageResponse](t, w).Message)

	w = env.do(t, http.MethodDelete, path, nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBlog_MutationsRequireAdmin(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/blog", map[string]any{"title": "t", "content": "c", "excerpt": "e"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/blog/1", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_LoginAndVerify(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": testPassword}, false)
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[LoginResponse](t, w).Token
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/verify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[VerifyResponse](t, rec).Valid)

	w = env.do(t, http.MethodGet, "/api/admin/verify", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdmin_LoginRateLimited(t *testing.T) {
	env := newTestEnv(t, map[string]string{"LOGIN_RATE_PER_MINUTE": "2"})

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": "wrong"}, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := env.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": testPassword}, false)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartUpload(t *testing.T, field, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, fileName))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/upload/blog-image", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func TestUpload_StoresMetadata(t *testing.T) {
	env := newTestEnv(t, nil)
	data := pngBytes(t, 1500, 900)

	body, ct := multipartUpload(t, "image", "bumper.png", "image/png", data)
	w := env.upload(t, body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[UploadResponse](t, w)
	assert.Equal(t, "Image uploaded successfully", resp.Message)

	stored, err := env.store.UploadedFiles().FindByID(context.Background(), resp.FileID)
	require.NoError(t, err)
	require.NotNil(t, stored.CloudURL)
	assert.Equal(t, resp.ImageURL, *stored.CloudURL)
	assert.Equal(t, "bumper.png", stored.OriginalName)
	assert.Equal(t, "image/png", stored.MimeType)
	assert.Equal(t, int64(len(data)), stored.FileSize)
	assert.Regexp(t, `^blog_\d+_bumper\.png$`, stored.FileName)

	w = env.do(t, http.MethodGet, "/api/upload/files", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.UploadedFile](t, w), 1)
}

func TestUpload_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)

	body, ct := multipartUpload(t, "attachment", "a.png", "image/png", pngBytes(t, 4, 4))
	w := env.upload(t, body, ct)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded", decode[ErrorResponse](t, w).Error)

	body, ct = multipartUpload(t, "image", "notes.txt", "text/plain", []byte("hello"))
	w = env.upload(t, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.upload(t, bytes.NewBufferString("{}"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, env.host.calls)
}

func TestUpload_TooLarge(t *testing.T) {
	env := newTestEnv(t, map[string]string{"MAX_UPLOAD_BYTES": "1024"})

	body, ct := multipartUpload(t, "image", "big.png", "image/png", bytes.Repeat([]byte{1}, 4096))
	w := env.upload(t, body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestUpload_HostFailures(t *testing.T) {
	env := newTestEnv(t, nil)

	env.host.missing = []string{"CLOUDINARY_API_SECRET"}
	body, ct := multipartUpload(t, "image", "a.png", "image/png", pngBytes(t, 8, 8))
	w := env.upload(t, body, ct)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Image host configuration missing", decode[ErrorResponse](t, w).Error)

	env.host.missing = nil
	env.host.err = errors.New("host timed out")
	body, ct = multipartUpload(t, "image", "a.png", "image/png", pngBytes(t, 8, 8))
	w = env.upload(t, body, ct)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "Failed to upload image", resp.Error)
	assert.Contains(t, resp.Details, "host timed out")

	files, err := env.store.UploadedFiles().FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestHostStatusEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.host.missing = []string{"CLOUDINARY_API_KEY"}

	w := env.do(t, http.MethodGet, "/api/test/cloudinary", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HostStatusResponse](t, w)
	assert.False(t, resp.Configured)
	assert.Equal(t, []string{"CLOUDINARY_API_KEY"}, resp.Missing)
	assert.Equal(t, services.BlogImageFolder, resp.Folder)
}

func TestProducts(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	for _, p := range []models.Product{
		{Name: "Aqua battery", Description: "d", Category: "hybrid-batteries"},
		{Name: "Vezel gearbox", Description: "d", Category: "transmissions"},
	} {
		require.NoError(t, env.store.Products().Create(ctx, &p))
	}

	w := env.do(t, http.MethodGet, "/api/products", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Product](t, w), 2)

	w = env.do(t, http.MethodGet, "/api/products/category/transmissions", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	byCategory := decode[[]models.Product](t, w)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Vezel gearbox", byCategory[0].Name)

	w = env.do(t, http.MethodGet, "/api/products/category/unknown", nil, false)
	assert.JSONEq(t, "[]", w.Body.String())

	w = env.do(t, http.MethodGet, "/api/products/1", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/products/77", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodGet, "/api/products/x", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuotes(t *testing.T) {
	env := newTestEnv(t, nil)

	valid := map[string]string{
		"firstName":       "Ama",
		"lastName":        "Mensah",
		"email":           "ama@example.com",
		"phone":           "+233200000000",
		"vehicleMake":     "Toyota",
		"vehicleModel":    "Aqua",
		"serviceRequired": "hybrid battery",
	}
	w := env.do(t, http.MethodPost, "/api/quotes", valid, false)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	quote := decode[models.Quote](t, w)
	assert.NotZero(t, quote.ID)

	invalid := map[string]string{}
	for k, v := range valid {
		invalid[k] = v
	}
	invalid["email"] = "not-an-email"
	w = env.do(t, http.MethodPost, "/api/quotes", invalid, false)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email", decode[ErrorResponse](t, w).Field)

	w = env.do(t, http.MethodGet, "/api/quotes", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/quotes", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Quote](t, w), 1)
}

func TestCORSPreflightFromUnknownOrigin(t *testing.T) {
	env := newTestEnv(t, map[string]string{"ACCEPTED_ORIGINS": "https://fadarc.example"})

	req := httptest.NewRequest(http.MethodOptions, "/api/blog", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodOptions, "/api/blog", nil)
	req.Header.Set("Origin", "https://fadarc.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, "https://fadarc.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_StartReportsCloseAfterShutdown(t *testing.T) {
	store := database.NewMemory()
	deps := Dependencies{
		Storage:  store,
		Ingestor: services.NewImageIngestor(&fakeHost{}, store.UploadedFiles()),
		Gate:     services.NewAdminGate(store.Users(), "server-test-secret", time.Hour),
	}
	server, err := NewServer(deps, map[string]string{"PORT": "0"})
	require.NoError(t, err)

	errChannel := make(chan error, 2)
	go server.Start(errChannel)
	time.Sleep(20 * time.Millisecond)

	server.ShutdownGracefully(time.Second)

	select {
	case err := <-errChannel:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not report after shutdown")
	}
}
