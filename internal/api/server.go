package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/ValentinKt/clean-up-crew/internal/config"
	"github.com/ValentinKt/clean-up-crew/internal/database"
	"github.com/ValentinKt/clean-up-crew/internal/server"
	"github.com/ValentinKt/clean-up-crew/internal/stats"
	"github.com/gorilla/handlers"
	"github.com/teris-io/shortid"
)

// CrewApp is the HTTP surface of the backend: auth, event RPC endpoints and
// the websocket upgrade for the change feed.
type CrewApp struct {
	log            *log.Logger
	db             database.EventRepository
	srv            *http.Server
	es             *server.EventServer
	stats          stats.StatsProvider
	sid            *shortid.Shortid
	signingKey     []byte
	allowedOrigins []string
}

func NewCrewApp(mux *http.ServeMux, logger *log.Logger, es *server.EventServer, db database.EventRepository, su stats.StatsProvider, cfg *config.Config) (*CrewApp, error) {
	sid, err := shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		return nil, fmt.Errorf("shortid: %w", err)
	}

	s := &CrewApp{
		log:            logger,
		db:             db,
		es:             es,
		stats:          su,
		sid:            sid,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.HandleFunc("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.HandleFunc("PUT /api/account", s.authMiddleware(s.updateAccount))
	mux.HandleFunc("POST /api/events", s.authMiddleware(s.rpcMetrics(s.createEvent)))
	mux.HandleFunc("GET /api/events", s.authMiddleware(s.listEvents))
	mux.HandleFunc("GET /api/events/{id}", s.authMiddleware(s.getEvent))
	mux.HandleFunc("PUT /api/events/{id}", s.authMiddleware(s.rpcMetrics(s.updateEvent)))
	mux.HandleFunc("POST /api/events/{id}/join", s.authMiddleware(s.rpcMetrics(s.joinEvent)))
	mux.HandleFunc("POST /api/events/{id}/leave", s.authMiddleware(s.rpcMetrics(s.leaveEvent)))
	mux.HandleFunc("POST /api/events/{id}/chat", s.authMiddleware(s.rpcMetrics(s.postChatMessage)))
	mux.HandleFunc("POST /api/events/{id}/status", s.authMiddleware(s.rpcMetrics(s.updateEventStatus)))
	mux.HandleFunc("POST /api/events/{id}/equipment", s.authMiddleware(s.rpcMetrics(s.addChecklistItem)))
	mux.HandleFunc("POST /api/events/{id}/equipment/{itemId}/claim", s.authMiddleware(s.rpcMetrics(s.claimItem)))
	mux.HandleFunc("POST /api/events/{id}/equipment/{itemId}/provided", s.authMiddleware(s.rpcMetrics(s.markItemProvided)))
	mux.HandleFunc("POST /api/events/{id}/photos", s.authMiddleware(s.rpcMetrics(s.addPhoto)))
	mux.HandleFunc("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s, nil
}

func (s *CrewApp) Start() error {
	s.log.Printf("starting server on %s\n", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *CrewApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func (s *CrewApp) generateShortId() (string, error) {
	return s.sid.Generate()
}
