package routing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-inject/framework/container"
	gohttp "github.com/km-arc/go-inject/framework/http"
	"github.com/km-arc/go-inject/framework/routing"
	"github.com/km-arc/go-inject/framework/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func do(t *testing.T, router *routing.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	return send(t, router, method, path, "")
}

func send(t *testing.T, router *routing.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

// ── HTTP verbs ────────────────────────────────────────────────────────────────

func TestRouter_Verbs(t *testing.T) {
	r := routing.New()
	r.Get("/hello", okHandler)
	r.Post("/users", okHandler)
	r.Put("/users/{id}", okHandler)
	r.Patch("/users/{id}", okHandler)
	r.Delete("/users/{id}", okHandler)

	tests := []struct{ method, path string }{
		{http.MethodGet, "/hello"},
		{http.MethodPost, "/users"},
		{http.MethodPut, "/users/1"},
		{http.MethodPatch, "/users/1"},
		{http.MethodDelete, "/users/1"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, do(t, r, tt.method, tt.path).Code)
		})
	}
}

func TestRouter_Any(t *testing.T) {
	r := routing.New()
	r.Any("/ping", okHandler)

	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		assert.Equal(t, http.StatusOK, do(t, r, method, "/ping").Code, method)
	}
}

func TestRouter_NotFound(t *testing.T) {
	r := routing.New()
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/not-registered").Code)
}

func TestRouter_Param(t *testing.T) {
	r := routing.New()
	r.Get("/users/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(routing.Param(req, "id")))
	})

	rr := do(t, r, http.MethodGet, "/users/42")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "42", rr.Body.String())
}

// ── Prefix / Group ───────────────────────────────────────────────────────────

func TestRouter_Prefix(t *testing.T) {
	r := routing.New()
	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/users", okHandler)
	})

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/v1/users").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/users").Code)
}

func TestRouter_Group_Middleware(t *testing.T) {
	called := false
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}

	r := routing.New()
	r.Group(func(g *routing.Router) {
		g.Middleware(mw)
		g.Get("/protected", okHandler)
	})

	do(t, r, http.MethodGet, "/protected")
	assert.True(t, called, "expected middleware to be called")
}

func TestRouter_RecoversPanics(t *testing.T) {
	r := routing.New()
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	assert.Equal(t, http.StatusInternalServerError, do(t, r, http.MethodGet, "/panic").Code)
}

func TestRouter_HandlerInterface(t *testing.T) {
	r := routing.New()
	r.Get("/ping", okHandler)
	var _ http.Handler = r.Handler()
}

// ── Controller actions ───────────────────────────────────────────────────────

type PhotoStore struct {
	mu     sync.Mutex
	photos map[int]string
	next   int
}

func newPhotoStore() *PhotoStore {
	return &PhotoStore{photos: map[int]string{1: "sunset"}, next: 2}
}

type PhotoController struct {
	store *PhotoStore
}

func NewPhotoController(store *PhotoStore) *PhotoController {
	return &PhotoController{store: store}
}

func (*PhotoController) Constructor() *container.Callable {
	return container.Func(NewPhotoController, container.Param("store"))
}

func (c *PhotoController) Actions() map[string]*container.Callable {
	return map[string]*container.Callable{
		"index":   container.Func(c.Index),
		"store":   container.Func(c.Store, container.Param("request"), container.Param("response")),
		"show":    container.Func(c.Show, container.Param("id"), container.Param("response")),
		"destroy": container.Func(c.Destroy, container.Param("id")),
	}
}

func (c *PhotoController) Index() int {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return len(c.store.photos)
}

func (c *PhotoController) Store(req *gohttp.Request, res *gohttp.Response) error {
	var in struct {
		Title string `json:"title"`
	}
	if err := req.Bind(&in); err != nil {
		return err
	}
	if err := validation.Make(map[string]string{"title": in.Title}, validation.Rules{"title": "required|string"}).Validate(); err != nil {
		return err
	}
	c.store.mu.Lock()
	id := c.store.next
	c.store.photos[id] = in.Title
	c.store.next++
	c.store.mu.Unlock()

	res.Created(map[string]any{"id": id, "title": in.Title})
	return nil
}

func (c *PhotoController) Show(id int, res *gohttp.Response) string {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	title, ok := c.store.photos[id]
	if !ok {
		res.NotFound()
	}
	return title
}

func (c *PhotoController) Destroy(id int) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	delete(c.store.photos, id)
}

func photoApp(t *testing.T) (*routing.Router, *container.Container) {
	t.Helper()
	c := container.New()
	c.Instance(container.Key[PhotoStore](), newPhotoStore())
	container.AutowireType[*PhotoController](c)

	r := routing.New(routing.WithContainer(c))
	require.NoError(t, r.Controller("/photos", container.Key[PhotoController]()))
	return r, c
}

func TestController_RESTRoutes(t *testing.T) {
	r, _ := photoApp(t)

	rr := do(t, r, http.MethodGet, "/photos")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), decode(t, rr)["data"])

	rr = do(t, r, http.MethodGet, "/photos/1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "sunset", decode(t, rr)["data"])

	rr = send(t, r, http.MethodPost, "/photos", `{"title":"dawn"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, map[string]any{"id": float64(2), "title": "dawn"}, decode(t, rr)["data"])

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/photos/1").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/photos/1").Code)
}

func TestController_UndefinedActionsAreNotRouted(t *testing.T) {
	r, _ := photoApp(t)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, r, http.MethodPut, "/photos/1").Code)
}

func TestController_ValidationFailureIs422(t *testing.T) {
	r, _ := photoApp(t)

	rr := send(t, r, http.MethodPost, "/photos", `{"title":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestController_BadRouteParamIs400(t *testing.T) {
	r, _ := photoApp(t)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/photos/abc").Code)
}

func TestController_MissingDependencyIs500(t *testing.T) {
	c := container.New()
	c.Declare(container.TypeOf[*PhotoController]())

	r := routing.New(routing.WithContainer(c))
	r.Action(http.MethodGet, "/photos", container.Key[PhotoController](), "index")

	rr := do(t, r, http.MethodGet, "/photos")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "store")
}

func TestController_DeclaredTypeIsBuiltPerRequest(t *testing.T) {
	c := container.New()
	c.Instance(container.Key[PhotoStore](), newPhotoStore())
	c.Declare(container.TypeOf[*PhotoController]())

	r := routing.New(routing.WithContainer(c))
	r.Action(http.MethodGet, "/count", container.Key[PhotoController](), "index")

	rr := do(t, r, http.MethodGet, "/count")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, c.Has(container.Key[PhotoController]()), "declared controllers are not bound")
}

func TestController_UnknownActionIs404(t *testing.T) {
	r, _ := photoApp(t)
	r.Action(http.MethodGet, "/photos/{id}/edit", container.Key[PhotoController](), "edit")

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/photos/1/edit").Code)
}

func TestController_NotAController(t *testing.T) {
	c := container.New()
	c.Instance("plain", "just a string")

	r := routing.New(routing.WithContainer(c))
	assert.True(t, container.IsInvalidArgument(r.Controller("/plain", "plain")))
	assert.True(t, container.IsNotFound(r.Controller("/missing", "missing")))
}

// ── Request scope ────────────────────────────────────────────────────────────

type ScopeController struct{}

func (ScopeController) Actions() map[string]*container.Callable {
	return map[string]*container.Callable{
		"echo": container.Func(func(ctx context.Context, req *gohttp.Request, q string) string {
			if ctx == nil {
				return "no context"
			}
			return req.Method() + " " + q
		}, container.Param("ctx"), container.Param("req"), container.Param("q", container.Default("none"))),
	}
}

func TestAction_TypedRequestScope(t *testing.T) {
	c := container.New()
	c.Instance("scope", ScopeController{})

	r := routing.New(routing.WithContainer(c))
	r.Action(http.MethodGet, "/echo", "scope", "echo")

	rr := do(t, r, http.MethodGet, "/echo?q=hi")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "GET hi", decode(t, rr)["data"])

	rr = do(t, r, http.MethodGet, "/echo")
	assert.Equal(t, "GET none", decode(t, rr)["data"])

	assert.False(t, c.Has(container.Key[gohttp.Request]()), "request bindings stay out of the container")
}
