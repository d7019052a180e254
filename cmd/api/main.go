package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"stationhq.org/internal/auth"
	"stationhq.org/internal/guard"
	"stationhq.org/internal/httpapi"
	"stationhq.org/internal/login"
	"stationhq.org/internal/obs"
	"stationhq.org/internal/origin"
	"stationhq.org/internal/session"
)

var version = "0.3.1"

func main() {
	obs.Init()

	dsn := os.Getenv("STATIONHQ_PG_DSN")
	if dsn == "" {
		log.Fatal("missing STATIONHQ_PG_DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	addr := os.Getenv("STATIONHQ_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	// Best-effort lookup of the service's public address, logged for
	// operators running behind NAT. Login requests key guard state off the
	// caller's address, not this one.
	if echoURL := os.Getenv("STATIONHQ_IP_ECHO_URL"); echoURL != "" {
		resolver := origin.NewResolver(echoURL, 5*time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if ip, err := resolver.Resolve(ctx); err != nil {
			log.Printf("public address lookup failed: %v", err)
		} else {
			log.Printf("public address: %s", ip)
		}
		cancel()
	}

	verifier := auth.NewVerifier(auth.NewPGStore(db))
	keeper := guard.NewKeeper(guard.NewPGStore(db))
	sessions := session.NewManager(session.NewMemory())
	svc := login.NewService(verifier, keeper, sessions)

	api := httpapi.New(svc, httpapi.ReadyProbe{DB: db}, version)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting stationhq-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
