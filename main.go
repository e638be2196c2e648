package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/classpulse/cliparse"
	"github.com/danielhkuo/classpulse/db"
	"github.com/danielhkuo/classpulse/lifecycle"
	"github.com/danielhkuo/classpulse/middleware"
	"github.com/danielhkuo/classpulse/router"
	"github.com/danielhkuo/classpulse/scheduler"
	"github.com/danielhkuo/classpulse/store"
	"github.com/danielhkuo/classpulse/tally"
	"github.com/danielhkuo/classpulse/ws"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	polls := store.NewPollStore(dbConn)
	users := store.NewUserStore(dbConn)

	// Optional Redis tally cache
	var tallyCache lifecycle.TallyCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		tallyCache = tally.NewCache(client)
		slog.Info("Tally cache enabled", "addr", cfg.RedisAddr)
	}

	// Deadlines, broadcast hub, lifecycle
	sched := scheduler.New()
	defer sched.Stop()

	hub := ws.NewHub(users, cfg.TokenSecret, cfg.Origin)
	svc := lifecycle.NewService(polls, sched, hub, tallyCache)
	hub.Bind(svc)

	// Polls left STARTED by a previous run: end the overdue ones, re-arm the rest
	if err := svc.RestoreDeadlines(); err != nil {
		slog.Error("deadline restore failed", "error", err)
		os.Exit(1)
	}

	// Create router
	mux := router.NewRouter(svc, users, hub, cfg.TokenSecret)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(cfg.Origin, mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
