// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/danielhkuo/classpulse/cliparse"
	"github.com/danielhkuo/classpulse/lifecycle"
	"github.com/danielhkuo/classpulse/router"
	"github.com/danielhkuo/classpulse/scheduler"
	"github.com/danielhkuo/classpulse/store"
	"github.com/danielhkuo/classpulse/testutil"
	"github.com/danielhkuo/classpulse/ws"
)

// server bundles the full HTTP stack over an in-memory database.
type server struct {
	mux  *http.ServeMux
	conn *sql.DB
	cfg  cliparse.Config
	svc  *lifecycle.Service
}

func newTestServer(t *testing.T) *server {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	polls := store.NewPollStore(conn)
	users := store.NewUserStore(conn)
	sched := scheduler.New()
	t.Cleanup(sched.Stop)

	hub := ws.NewHub(users, cfg.TokenSecret, "")
	svc := lifecycle.NewService(polls, sched, hub, nil)
	hub.Bind(svc)

	return &server{
		mux:  router.NewRouter(svc, users, hub, cfg.TokenSecret),
		conn: conn,
		cfg:  cfg,
		svc:  svc,
	}
}
