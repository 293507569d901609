// Package httpapi exposes the covered REST API over chi, plus the
// GoTrue-compatible development identity endpoints.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/and161185/covered/internal/model"
	"github.com/and161185/covered/internal/service"
)

// Services are the application services behind the handlers.
// A nil Identity leaves /auth/v1 unmounted.
type Services struct {
	Identity   service.IdentityService
	Profiles   service.ProfileService
	Homes      service.HomeService
	Rooms      service.RoomService
	Items      service.ItemService
	PushTokens service.PushTokenService
}

// Options configure token checks and logging.
type Options struct {
	SignKey []byte
	// AnonKey, when set, must be presented in the apikey header on /auth/v1.
	AnonKey string
	Logger  *zap.Logger
}

// Server wires services into HTTP handlers.
type Server struct {
	svc     Services
	signKey []byte
	anonKey string
	log     *zap.Logger
}

// New constructs a Server with injected services.
func New(svc Services, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, signKey: opts.SignKey, anonKey: opts.AnonKey, log: log}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))
	r.Use(Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	if s.svc.Identity != nil {
		r.Route("/auth/v1", s.identityRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(s.signKey))

		r.Post("/auth/verify", s.verify)
		r.Get("/auth/profile", s.profile)

		r.Route("/homes", func(r chi.Router) {
			r.Get("/", s.listHomes)
			r.Post("/", s.createHome)
			r.Get("/{id}", s.getHome)
			r.Put("/{id}", s.updateHome)
			r.Delete("/{id}", s.deleteHome)
		})
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", s.listRooms)
			r.Post("/", s.createRoom)
			r.Put("/{id}", s.updateRoom)
			r.Delete("/{id}", s.deleteRoom)
		})
		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.listItems)
			r.Post("/", s.createItem)
			r.Put("/{id}", s.updateItem)
			r.Delete("/{id}", s.deleteItem)
		})
		r.Post("/notifications/push-token", s.registerPushToken)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeFail(w, http.StatusNotFound, "Route not found")
	})
	return r
}

// userID is set by Authenticate for every /api route.
func userID(r *http.Request) string {
	id, _ := UserIDFromCtx(r.Context())
	return id
}

// --- Profile ---

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromCtx(r.Context())
	p, err := s.svc.Profiles.Verify(r.Context(), claims.User())
	if err != nil {
		s.fail(w, r, err, "User not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": p})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profiles.Get(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "User not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": p})
}

// --- Homes ---

func (s *Server) listHomes(w http.ResponseWriter, r *http.Request) {
	homes, err := s.svc.Homes.List(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "User not found")
		return
	}
	if homes == nil {
		homes = []model.Home{}
	}
	writeData(w, http.StatusOK, map[string]any{"homes": homes})
}

func (s *Server) getHome(w http.ResponseWriter, r *http.Request) {
	h, err := s.svc.Homes.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "Home not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"home": h})
}

func (s *Server) createHome(w http.ResponseWriter, r *http.Request) {
	var in model.HomeInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err, "")
		return
	}
	h, err := s.svc.Homes.Create(r.Context(), userID(r), in)
	if err != nil {
		// A missing profile means verify was never called.
		s.fail(w, r, err, "User not found")
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"home": h})
}

func (s *Server) updateHome(w http.ResponseWriter, r *http.Request) {
	var patch model.HomePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, err, "")
		return
	}
	h, err := s.svc.Homes.Update(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, err, "Home not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"home": h})
}

func (s *Server) deleteHome(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Homes.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "Home not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"message": "Home deleted"})
}

// --- Rooms ---

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.svc.Rooms.ListByHome(r.Context(), userID(r), r.URL.Query().Get("home_id"))
	if err != nil {
		s.fail(w, r, err, "Home not found")
		return
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	writeData(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var in model.RoomInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err, "")
		return
	}
	room, err := s.svc.Rooms.Create(r.Context(), userID(r), in)
	if err != nil {
		s.fail(w, r, err, "Home not found")
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"room": room})
}

func (s *Server) updateRoom(w http.ResponseWriter, r *http.Request) {
	var patch model.RoomPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, err, "")
		return
	}
	room, err := s.svc.Rooms.Update(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, err, "Room not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"room": room})
}

func (s *Server) deleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Rooms.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "Room not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"message": "Room deleted"})
}

// --- Items ---

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Items.ListByRoom(r.Context(), userID(r), r.URL.Query().Get("room_id"))
	if err != nil {
		s.fail(w, r, err, "Room not found")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	writeData(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var in model.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err, "")
		return
	}
	it, err := s.svc.Items.Create(r.Context(), userID(r), in)
	if err != nil {
		s.fail(w, r, err, "Room not found")
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"item": it})
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	var patch model.ItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, err, "")
		return
	}
	it, err := s.svc.Items.Update(r.Context(), userID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, err, "Item not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"item": it})
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Items.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "Item not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"message": "Item deleted"})
}

// --- Notifications ---

func (s *Server) registerPushToken(w http.ResponseWriter, r *http.Request) {
	var in model.PushTokenInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err, "")
		return
	}
	if err := s.svc.PushTokens.Register(r.Context(), userID(r), in); err != nil {
		s.fail(w, r, err, "User not found")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"message": "Push token registered"})
}
