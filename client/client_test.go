package client

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/fadarc-site-backend/api"
	"github.com/rpupo63/fadarc-site-backend/database"
	"github.com/rpupo63/fadarc-site-backend/services"
)

const adminPassword = "s3cret-admin"

// gatedHost holds uploads whose stored name contains a blocked marker until release is closed.
type gatedHost struct {
	mu      sync.Mutex
	err     error
	blocked string
	started chan struct{}
	release chan struct{}
}

func (h *gatedHost) Name() string            { return "gated" }
func (h *gatedHost) MissingConfig() []string { return nil }

func (h *gatedHost) Upload(_ context.Context, _ []byte, fileName string) (string, error) {
	h.mu.Lock()
	err, blocked := h.err, h.blocked
	h.mu.Unlock()

	if blocked != "" && strings.Contains(fileName, blocked) {
		close(h.started)
		<-h.release
	}
	if err != nil {
		return "", err
	}
	return "https://img.example/blog-images/" + fileName, nil
}

type clientEnv struct {
	server   *httptest.Server
	host     *gatedHost
	requests atomic.Int64
}

func newClientEnv(t *testing.T, wraps ...func(http.Handler) http.Handler) *clientEnv {
	t.Helper()

	store := database.NewMemory()
	gate := services.NewAdminGate(store.Users(), "client-test-secret", time.Hour)
	require.NoError(t, gate.EnsureAdmin(context.Background(), adminPassword))

	env := &clientEnv{host: &gatedHost{}}
	router := api.NewRouter(api.Dependencies{
		Storage:  store,
		Ingestor: services.NewImageIngestor(env.host, store.UploadedFiles()),
		Gate:     gate,
	})
	var handler http.Handler = router
	for _, wrap := range wraps {
		handler = wrap(handler)
	}
	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.requests.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(env.server.Close)
	return env
}

func (e *clientEnv) workflow(t *testing.T) *BlogWorkflow {
	t.Helper()
	return NewBlogWorkflow(New(e.server.URL), NewToastTray(time.Minute))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.NRGBA{G: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func lastToast(t *testing.T, w *BlogWorkflow) Toast {
	t.Helper()
	toast, ok := w.Toasts().Last()
	require.True(t, ok, "expected a toast")
	return toast
}

func waitOutcome(t *testing.T, ch <-chan UploadOutcome) UploadOutcome {
	t.Helper()
	select {
	case out := <-ch:
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("upload did not finish")
		return UploadOutcome{}
	}
}

func TestClient_ErrorCarriesServerMessage(t *testing.T) {
	env := newClientEnv(t)
	c := New(env.server.URL)

	_, err := c.GetPost(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))

	_, err = c.CreatePost(context.Background(), BlogPostInput{Title: "x", Content: "y", Excerpt: "z"})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestClient_APIErrorFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListPublished(context.Background())
	require.Error(t, err)
	assert.Equal(t, "HTTP 502: Bad Gateway", err.Error())
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithTimeout(20*time.Millisecond)).ListPublished(context.Background())
	require.Error(t, err)
}

func TestWorkflow_LoginAndSession(t *testing.T) {
	env := newClientEnv(t)
	w := env.workflow(t)
	ctx := context.Background()

	err := w.Login(ctx, "wrong")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.False(t, w.IsAdmin())
	assert.Empty(t, w.client.Tokens().Token())
	assert.Equal(t, "Incorrect password. Please contact administrator.", lastToast(t, w).Message)

	require.NoError(t, w.Login(ctx, adminPassword))
	assert.True(t, w.IsAdmin())
	assert.Equal(t, "Admin access granted", lastToast(t, w).Message)

	valid, err := w.CheckSession(ctx)
	require.NoError(t, err)
	assert.True(t, valid)

	w.Logout()
	assert.False(t, w.IsAdmin())
	assert.Empty(t, w.client.Tokens().Token())
}

func TestWorkflow_CheckSessionDiscardsBadToken(t *testing.T) {
	env := newClientEnv(t)
	w := env.workflow(t)
	w.client.Tokens().SetToken("not-a-jwt")

	valid, err := w.CheckSession(context.Background())
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Empty(t, w.client.Tokens().Token())
}

func TestWorkflow_SubmitRequiresFields(t *testing.T) {
	env := newClientEnv(t)
	w := env.workflow(t)

	w.UpdateForm(func(f *FormState) {
		f.Title = "   "
		f.Content = "body"
		f.Excerpt = "short"
	})
	before := env.requests.Load()

	_, err := w.Submit(context.Background())
	var formErr *FormError
	require.ErrorAs(t, err, &formErr)
	assert.Equal(t, "title", formErr.Field)
	assert.Equal(t, before, env.requests.Load())
	assert.Equal(t, ToastError, lastToast(t, w).Kind)
}

func TestWorkflow_CreateEditDelete(t *testing.T) {
	env := newClientEnv(t)
	w := env.workflow(t)
	ctx := context.Background()
	require.NoError(t, w.Login(ctx, adminPassword))

	posts, err := w.Posts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	w.UpdateForm(func(f *FormState) {
		f.Title = "  Hybrid Battery Care "
		f.Content = "Keep it cool."
		f.Excerpt = "Battery tips"
	})
	created, err := w.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hybrid Battery Care", created.Title)
	assert.Equal(t, DefaultCategory, created.Category)
	assert.True(t, created.Published)
	assert.Nil(t, created.ImageURL)
	assert.Equal(t, "Blog post created successfully!", lastToast(t, w).Message)
	assert.Equal(t, FormState{Published: true}, w.Form())

	posts, err = w.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	w.BeginEdit(posts[0])
	assert.Equal(t, created.ID, w.Editing())
	w.UpdateForm(func(f *FormState) { f.Title = "Hybrid Battery Care, Revised" })

	updated, err := w.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Hybrid Battery Care, Revised", updated.Title)
	assert.Equal(t, created.Content, updated.Content)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Zero(t, w.Editing())

	posts, err = w.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Hybrid Battery Care, Revised", posts[0].Title)

	require.NoError(t, w.Delete(ctx, created.ID))
	assert.Equal(t, "Blog post deleted successfully!", lastToast(t, w).Message)
	posts, err = w.Posts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	err = w.Delete(ctx, created.ID)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, ToastError, lastToast(t, w).Kind)
}

func TestWorkflow_ListingIsCachedUntilMutation(t *testing.T) {
	env := newClientEnv(t)
	w := env.workflow(t)
	ctx := context.Background()

	_, err := w.Posts(ctx)
	require.NoError(t, err)
	after := env.requests.Load()

	_, err = w.Posts(ctx)
	require.NoError(t, err)
	assert.Equal(t, after, env.requests.Load())

	w.InvalidatePosts()
	_, err = w.Posts(ctx)
	require.NoError(t, err)
	assert.Equal(t, after+1, env.requests.Load())
}

func TestWorkflow_MutationDuringListingFetchIsNotLost(t *testing.T) {
	var once sync.Once
	loaded := make(chan struct{})
	release := make(chan struct{})

	// the first listing is rendered, then held until release
	holdFirstListing := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/api/blog" {
				next.ServeHTTP(w, r)
				return
			}
			held := false
			once.Do(func() { held = true })
			if !held {
				next.ServeHTTP(w, r)
				return
			}
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, r)
			close(loaded)
			<-release
			for k, v := range rec.Header() {
				w.Header()[k] = v
			}
			w.WriteHeader(rec.Code)
			_, _ = w.Write(rec.Body.Bytes())
		})
	}

	env := newClientEnv(t, holdFirstListing)
	w := env.workflow(t)
	ctx := context.Background()
	require.NoError(t, w.Login(ctx, adminPassword))

	w.UpdateForm(func(f *FormState) {
		f.Title = "Brake pads"
		f.Content = "Check them yearly."
		f.Excerpt = "Brakes"
	})
	created, err := w.Submit(ctx)
	require.NoError(t, err)

	type result struct {
		posts int
		err   error
	}
	slow := make(chan result, 1)
	go func() {
		posts, err := w.Posts(ctx)
		slow <- result{len(posts), err}
	}()

	<-loaded
	require.NoError(t, w.Delete(ctx, created.ID))
	close(release)

	first := <-slow
	require.NoError(t, first.err)
	assert.Equal(t, 1, first.posts)

	posts, err := w.Posts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestWorkflow_SelectImageRejectsLocally(t *testing.T) {
	env := newClientEnv(t)
	w := env.workflow(t)
	before := env.requests.Load()

	_, err := w.SelectImage(context.Background(), "anim.gif", "image/gif", []byte("GIF89a"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Equal(t, "Please upload only JPG, PNG, or WEBP images.", lastToast(t, w).Message)

	_, err = w.SelectImage(context.Background(), "huge.jpg", "image/jpeg", make([]byte, MaxImageBytes+1))
	assert.ErrorIs(t, err, ErrImageTooLarge)

	assert.Equal(t, before, env.requests.Load())
	assert.Empty(t, w.Preview())
}

func TestWorkflow_SelectImageUploads(t *testing.T) {
	env := newClientEnv(t)
	w := env.workflow(t)
	require.NoError(t, w.Login(context.Background(), adminPassword))

	ch, err := w.SelectImage(context.Background(), "engine.png", "image/png", pngBytes(t))
	require.NoError(t, err)

	out := waitOutcome(t, ch)
	require.NoError(t, out.Err)
	assert.False(t, out.Stale)
	assert.True(t, strings.HasSuffix(out.ImageURL, "_engine.png"))
	assert.Equal(t, out.ImageURL, w.Form().ImageURL)
	assert.Equal(t, out.ImageURL, w.Preview())
	assert.False(t, w.Uploading())
	assert.Equal(t, "Image uploaded successfully!", lastToast(t, w).Message)
}

func TestWorkflow_SelectImageFailureRevertsPreview(t *testing.T) {
	env := newClientEnv(t)
	w := env.workflow(t)

	// no login: the upload endpoint answers 401
	ch, err := w.SelectImage(context.Background(), "engine.png", "image/png", pngBytes(t))
	require.NoError(t, err)

	out := waitOutcome(t, ch)
	require.Error(t, out.Err)
	assert.Empty(t, w.Preview())
	assert.Empty(t, w.Form().ImageURL)
	assert.Equal(t, "Failed to upload image. Please try again.", lastToast(t, w).Message)
}

func TestWorkflow_NewerSelectionSupersedes(t *testing.T) {
	env := newClientEnv(t)
	env.host.blocked = "first"
	env.host.started = make(chan struct{})
	env.host.release = make(chan struct{})

	w := env.workflow(t)
	require.NoError(t, w.Login(context.Background(), adminPassword))
	data := pngBytes(t)

	first, err := w.SelectImage(context.Background(), "first.png", "image/png", data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(w.Preview(), "data:image/png;base64,"))
	<-env.host.started

	second, err := w.SelectImage(context.Background(), "second.png", "image/png", data)
	require.NoError(t, err)
	out2 := waitOutcome(t, second)
	require.NoError(t, out2.Err)

	close(env.host.release)
	out1 := waitOutcome(t, first)
	assert.True(t, out1.Stale)

	assert.Equal(t, out2.ImageURL, w.Form().ImageURL)
	assert.Contains(t, w.Form().ImageURL, "second.png")
}

func TestToastTray_AutoDismiss(t *testing.T) {
	tray := NewToastTray(20 * time.Millisecond)
	var changes atomic.Int64
	tray.OnChange = func([]Toast) { changes.Add(1) }

	tray.Success("saved")
	require.Len(t, tray.Active(), 1)

	assert.Eventually(t, func() bool { return len(tray.Active()) == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), changes.Load())
}

func TestToastTray_DismissEarly(t *testing.T) {
	tray := NewToastTray(time.Minute)
	a := tray.Info("one")
	tray.Error("two")

	tray.Dismiss(a.ID)
	active := tray.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "two", active[0].Message)

	tray.Dismiss(a.ID)
	assert.Len(t, tray.Active(), 1)
}
