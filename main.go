package main

import (
	"flag"
	"log"
	"net/http"
	_ "time/tzdata"

	"tarotscore/internal/config"
	"tarotscore/internal/elo"
	"tarotscore/internal/handlers"
	"tarotscore/internal/logging"
	"tarotscore/internal/service"
	"tarotscore/internal/session"
	"tarotscore/internal/storage"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Debug = *debug || cfg.Debug

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	store := storage.NewStore(db)

	// Initialize session hub and scorekeeping service
	hub := session.NewHub()
	svc := service.New(store, hub, elo.NewTeamRater(cfg.EloInitial, float64(cfg.EloK)), loc)

	// Initialize HTTP handlers
	version := buildVersion()
	h := handlers.NewHandler(svc, version)

	// Register routes
	mux := http.NewServeMux()
	h.Register(mux)

	log.Printf("Tarot scores %s (%s) listening on %s …", version.Commit, version.BuildDate, cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, handlers.LogRequests(mux)))
}
