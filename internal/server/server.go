package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/roomly/roomly/internal/access"
	"github.com/roomly/roomly/internal/broker"
	"github.com/roomly/roomly/internal/engine"
	"github.com/roomly/roomly/internal/handler"
	"github.com/roomly/roomly/internal/ledger"
	"github.com/roomly/roomly/internal/middleware"
	"github.com/roomly/roomly/internal/push"
	"github.com/roomly/roomly/internal/store"
)

// Config holds everything the server needs beyond the database handle.
type Config struct {
	AuthSecret []byte
	Push       push.Config
	// StreakLocation is the location used for streak day boundaries.
	// Nil means time.Local.
	StreakLocation *time.Location
}

type Server struct {
	db          *sql.DB
	broker      *broker.Broker
	householdH  *handler.HouseholdHandler
	taskH       *handler.TaskHandler
	rewardH     *handler.RewardHandler
	challengeH  *handler.ChallengeHandler
	pushH       *handler.PushHandler
	streamH     *handler.StreamHandler
	authSecret  []byte
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	b := broker.New(logger.With("component", "broker"))

	householdStore := store.NewHouseholdStore(db)
	taskStore := store.NewTaskStore(db)
	rewardStore := store.NewRewardStore(db)
	challengeStore := store.NewChallengeStore(db)
	activityStore := store.NewActivityStore(db)
	pushStore := store.NewPushStore(db)

	guard := access.NewGuard(householdStore)
	l := ledger.New(activityStore, cfg.StreakLocation)

	pushLogger := logger.With("component", "push")
	var pushSvc *push.Service
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
	}
	notifier := push.NewNotifier(pushSvc, pushStore, pushLogger)

	taskEngine := engine.NewTaskEngine(db, guard, taskStore, householdStore, l, b, notifier, logger.With("component", "task_engine"))
	redemptionEngine := engine.NewRedemptionEngine(db, guard, rewardStore, l, b, notifier, logger.With("component", "redemption_engine"))
	challengeEngine := engine.NewChallengeEngine(db, guard, challengeStore, l, b, logger.With("component", "challenge_engine"))

	return &Server{
		db:          db,
		broker:      b,
		householdH:  handler.NewHouseholdHandler(householdStore, rewardStore, activityStore, guard, logger.With("component", "household")),
		taskH:       handler.NewTaskHandler(taskEngine, taskStore, guard, logger.With("component", "task")),
		rewardH:     handler.NewRewardHandler(redemptionEngine, rewardStore, guard, logger.With("component", "reward")),
		challengeH:  handler.NewChallengeHandler(challengeEngine, challengeStore, guard, logger.With("component", "challenge")),
		pushH:       handler.NewPushHandler(pushStore, pushSvc, guard, logger.With("component", "push_handler")),
		streamH:     handler.NewStreamHandler(b, guard, logger.With("component", "stream")),
		authSecret:  cfg.AuthSecret,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// Broker returns the event broker.
func (s *Server) Broker() *broker.Broker {
	return s.broker
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.authSecret)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 60, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Household routes
	mux.HandleFunc("POST /api/households", s.rateLimited(s.householdH.Create))
	mux.HandleFunc("GET /api/households", s.householdH.List)
	mux.HandleFunc("POST /api/households/join", s.rateLimited(s.householdH.Join))
	mux.HandleFunc("GET /api/households/{id}/members", s.householdH.Members)
	mux.HandleFunc("DELETE /api/households/{id}/members/{userID}", s.householdH.RemoveMember)
	mux.HandleFunc("GET /api/households/{id}/leaderboard", s.householdH.Leaderboard)
	mux.HandleFunc("GET /api/households/{id}/activity", s.householdH.Activity)

	// Task routes
	mux.HandleFunc("POST /api/households/{id}/tasks", s.rateLimited(s.taskH.Create))
	mux.HandleFunc("GET /api/households/{id}/tasks", s.taskH.List)
	mux.HandleFunc("PUT /api/tasks/{id}", s.rateLimited(s.taskH.Update))
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.rateLimited(s.taskH.Complete))
	mux.HandleFunc("POST /api/tasks/{id}/comments", s.rateLimited(s.taskH.CreateComment))
	mux.HandleFunc("GET /api/tasks/{id}/comments", s.taskH.ListComments)

	// Reward routes
	mux.HandleFunc("POST /api/households/{id}/rewards", s.rateLimited(s.rewardH.Create))
	mux.HandleFunc("GET /api/households/{id}/rewards", s.rewardH.List)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rateLimited(s.rewardH.Update))
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rateLimited(s.rewardH.Redeem))

	// Challenge routes
	mux.HandleFunc("POST /api/households/{id}/challenges", s.rateLimited(s.challengeH.Create))
	mux.HandleFunc("GET /api/households/{id}/challenges", s.challengeH.List)
	mux.HandleFunc("POST /api/challenges/{id}/join", s.rateLimited(s.challengeH.Join))
	mux.HandleFunc("GET /api/challenges/{id}/participants", s.challengeH.Participants)
	mux.HandleFunc("POST /api/challenges/{id}/award", s.rateLimited(s.challengeH.AwardBonus))

	// Push notification routes
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)

	// Event stream
	mux.HandleFunc("GET /ws", s.streamH.Serve)
}
