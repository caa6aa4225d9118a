package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/km-arc/go-inject/framework/app"
	"github.com/km-arc/go-inject/framework/container"
	gohttp "github.com/km-arc/go-inject/framework/http"
	"github.com/km-arc/go-inject/framework/routing"
	"github.com/km-arc/go-inject/framework/validation"
)

func main() {
	application, err := app.New() // loads .env automatically
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := bootstrap(application); err != nil {
		application.Logger().Fatal("bootstrap failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 {
		err = application.RunConsole(ctx, os.Args[1:])
	} else {
		err = application.Run(ctx)
	}
	if err != nil {
		application.Logger().Error("exit", zap.Error(err))
		os.Exit(1)
	}
}

func bootstrap(a *app.Application) error {
	a.Instance(container.Key[NoteStore](), NewNoteStore())
	container.AutowireType[*NoteController](a.Container)
	a.Command("command.notes.count", CountCommand{})

	r := a.Router()

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		gohttp.NewResponse(w).Success(map[string]any{"message": "Welcome to go-inject!"})
	})

	var err error
	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Group(func(protected *routing.Router) {
			protected.Middleware(APIKeyMiddleware(os.Getenv("API_KEY")))
			err = protected.Controller("/notes", container.Key[NoteController]())
		})
	})
	return err
}

// APIKeyMiddleware rejects requests without the X-API-Key header. An empty
// key disables the check.
func APIKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" && r.Header.Get("X-API-Key") != key {
				gohttp.NewResponse(w).Error(http.StatusUnauthorized, "Unauthenticated.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ── Notes ────────────────────────────────────────────────────────────────────

type Note struct {
	ID   int    `json:"id"`
	Body string `json:"body"`
}

type NoteStore struct {
	mu    sync.Mutex
	notes map[int]Note
	next  int
}

func NewNoteStore() *NoteStore {
	return &NoteStore{notes: map[int]Note{}, next: 1}
}

func (s *NoteStore) All() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *NoteStore) Add(body string) Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := Note{ID: s.next, Body: body}
	s.notes[n.ID] = n
	s.next++
	return n
}

func (s *NoteStore) Find(id int) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	return n, ok
}

func (s *NoteStore) Remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notes, id)
}

type NoteController struct {
	store *NoteStore
	log   *zap.Logger
}

func NewNoteController(store *NoteStore, log *zap.Logger) *NoteController {
	return &NoteController{store: store, log: log}
}

func (*NoteController) Constructor() *container.Callable {
	return container.Func(NewNoteController, container.Param("store"), container.Param("log"))
}

func (c *NoteController) Actions() map[string]*container.Callable {
	return map[string]*container.Callable{
		"index":   container.Func(c.store.All),
		"store":   container.Func(c.Store, container.Param("request"), container.Param("response")),
		"show":    container.Func(c.Show, container.Param("id"), container.Param("response")),
		"destroy": container.Func(c.store.Remove, container.Param("id")),
	}
}

func (c *NoteController) Store(req *gohttp.Request, res *gohttp.Response) error {
	var in struct {
		Body string `json:"body"`
	}
	if err := req.Bind(&in); err != nil {
		res.BadRequest(err.Error())
		return nil
	}
	rules := validation.Rules{"body": "required|string|max:280"}
	if err := validation.Make(map[string]string{"body": in.Body}, rules).Validate(); err != nil {
		return err
	}
	note := c.store.Add(in.Body)
	c.log.Info("note created", zap.Int("id", note.ID))
	res.Created(note)
	return nil
}

func (c *NoteController) Show(id int, res *gohttp.Response) *Note {
	note, ok := c.store.Find(id)
	if !ok {
		res.NotFound()
		return nil
	}
	return &note
}

// CountCommand prints how many notes the store holds.
type CountCommand struct{}

func (CountCommand) Use() string   { return "notes:count" }
func (CountCommand) Short() string { return "Print the number of notes" }

func (CountCommand) Action() *container.Callable {
	return container.Func(func(store *NoteStore, out io.Writer) {
		fmt.Fprintf(out, "%d notes\n", len(store.All()))
	}, container.Param("store"), container.Param("output"))
}
