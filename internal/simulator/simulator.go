package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/railcab/internal/railroad"
)

const maxBodySize = 64 << 10

// Options configure the simulated railroad.
type Options struct {
	Locomotives int
	Switches    int
	Logger      *zap.Logger
}

// Simulator serves locomotive and switch resources plus the two directory
// endpoints that list them.
type Simulator struct {
	mu       sync.Mutex
	locos    *registry[railroad.Locomotive]
	switches *registry[railroad.SwitchGroup]
	logger   *zap.Logger
}

var locomotiveNames = []string{"BR 218", "V 100", "E 94", "BR 01", "Köf II"}

// New builds a simulator seeded with opts.Locomotives locomotives and
// opts.Switches switch groups.
func New(opts Options) *Simulator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Simulator{
		locos: newRegistry("locomotive",
			func(l *railroad.Locomotive, id string) { l.ID = id },
			checkLocomotive),
		switches: newRegistry("switch",
			func(g *railroad.SwitchGroup, id string) { g.ID = id },
			checkSwitchGroup),
		logger: logger,
	}
	for i := 0; i < opts.Locomotives; i++ {
		name := locomotiveNames[i%len(locomotiveNames)]
		s.AddLocomotive(railroad.Locomotive{
			Name:   name,
			Number: fmt.Sprintf("%03d-%d", 100+i, i%10),
		})
	}
	for i := 0; i < opts.Switches; i++ {
		s.AddSwitchGroup(railroad.SwitchGroup{})
	}
	return s
}

// AddLocomotive lists a new locomotive and returns its generated id.
func (s *Simulator) AddLocomotive(loco railroad.Locomotive) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locos.add(loco)
}

// RemoveLocomotive drops a locomotive from the directory.
func (s *Simulator) RemoveLocomotive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locos.remove(id)
}

// Locomotive returns the stored state of a locomotive.
func (s *Simulator) Locomotive(id string) (railroad.Locomotive, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.locos.items[id]
	if !ok {
		return railroad.Locomotive{}, false
	}
	return rec.value, true
}

// AddSwitchGroup lists a new switch group and returns its generated id.
func (s *Simulator) AddSwitchGroup(group railroad.SwitchGroup) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switches.add(group)
}

// RemoveSwitchGroup drops a switch group from the directory.
func (s *Simulator) RemoveSwitchGroup(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switches.remove(id)
}

// SwitchGroup returns the stored state of a switch group.
func (s *Simulator) SwitchGroup(id string) (railroad.SwitchGroup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.switches.items[id]
	if !ok {
		return railroad.SwitchGroup{}, false
	}
	return rec.value, true
}

// Handler returns the HTTP routes of the simulator.
func (s *Simulator) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/locomotive", listHandler(s, s.locos)).Methods(http.MethodGet)
	r.HandleFunc("/locomotive/{id}", getHandler(s, s.locos)).Methods(http.MethodGet)
	r.HandleFunc("/locomotive/{id}", patchHandler(s, s.locos)).Methods(http.MethodPatch)
	r.HandleFunc("/switch", listHandler(s, s.switches)).Methods(http.MethodGet)
	r.HandleFunc("/switch/{id}", getHandler(s, s.switches)).Methods(http.MethodGet)
	r.HandleFunc("/switch/{id}", patchHandler(s, s.switches)).Methods(http.MethodPatch)
	return r
}

// ListenAndServe serves the simulator on addr until ctx is cancelled.
func (s *Simulator) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Simulator) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("simulator listening", zap.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down simulator")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Simulator) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.String("request_id", r.Header.Get(railroad.RequestIDHeader)),
			zap.Duration("latency", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func listHandler[T any](s *Simulator, reg *registry[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		servers := make([]railroad.Server, 0, len(reg.order))
		for _, id := range reg.order {
			servers = append(servers, railroad.Server{
				ID:      id,
				RestURL: fmt.Sprintf("http://%s/%s/%s", r.Host, reg.kind, id),
			})
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, "", servers)
	}
}

func getHandler[T any](s *Simulator, reg *registry[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		s.mu.Lock()
		rec, ok := reg.items[id]
		var value T
		var etag string
		if ok {
			value, etag = rec.value, rec.etag()
		}
		s.mu.Unlock()
		if !ok {
			http.Error(w, reg.kind+" not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, etag, value)
	}
}

func patchHandler[T any](s *Simulator, reg *registry[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var next T
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&next); err != nil {
			http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := reg.check(next); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		reg.setID(&next, id)

		s.mu.Lock()
		rec, ok := reg.items[id]
		if !ok {
			s.mu.Unlock()
			http.Error(w, reg.kind+" not found", http.StatusNotFound)
			return
		}
		if match := r.Header.Get("If-Match"); match != "" && match != rec.etag() {
			current := rec.etag()
			s.mu.Unlock()
			s.logger.Debug("stale write rejected",
				zap.String("kind", reg.kind),
				zap.String("id", id),
				zap.String("if_match", match),
				zap.String("etag", current))
			http.Error(w, "revision mismatch", http.StatusPreconditionFailed)
			return
		}
		rec.value = next
		rec.revision++
		etag := rec.etag()
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, etag, next)
	}
}

func writeJSON(w http.ResponseWriter, status int, etag string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type record[T any] struct {
	value    T
	revision int
}

func (r *record[T]) etag() string {
	return strconv.Quote(strconv.Itoa(r.revision))
}

// registry holds the resources of one kind in listing order. Callers hold
// Simulator.mu.
type registry[T any] struct {
	kind  string
	items map[string]*record[T]
	order []string
	setID func(*T, string)
	check func(T) error
}

func newRegistry[T any](kind string, setID func(*T, string), check func(T) error) *registry[T] {
	return &registry[T]{
		kind:  kind,
		items: make(map[string]*record[T]),
		setID: setID,
		check: check,
	}
}

func (r *registry[T]) add(v T) string {
	id := uuid.NewString()
	r.setID(&v, id)
	r.items[id] = &record[T]{value: v, revision: 1}
	r.order = append(r.order, id)
	return id
}

func (r *registry[T]) remove(id string) bool {
	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func checkLocomotive(l railroad.Locomotive) error {
	if l.Direction != railroad.Forward && l.Direction != railroad.Backward {
		return fmt.Errorf("direction %d out of range", l.Direction)
	}
	if l.Speed < 0 {
		return fmt.Errorf("speed %d is negative", l.Speed)
	}
	return nil
}

func checkSwitchGroup(g railroad.SwitchGroup) error {
	for n := 1; n <= railroad.SwitchCount; n++ {
		p, _ := g.Track(n)
		if p != railroad.Straight && p != railroad.Diverging {
			return fmt.Errorf("switchTrack%d position %d out of range", n, p)
		}
	}
	return nil
}
