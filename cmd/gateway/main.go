package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/trailquest/hunt-server/internal/api/http"
	"github.com/trailquest/hunt-server/internal/auth/idp"
	authmw "github.com/trailquest/hunt-server/internal/auth/middleware"
	"github.com/trailquest/hunt-server/internal/config"
	"github.com/trailquest/hunt-server/internal/db"
	"github.com/trailquest/hunt-server/internal/hunt"
	"github.com/trailquest/hunt-server/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := hunt.NewSQLStore(dbh, db.Driver(cfg.DBDriver),
		time.Duration(cfg.RedeemTTLDays)*24*time.Hour)

	// --- Identity verification ---
	provider := idp.NewHTTPProvider(cfg.IDPJWKSURL, time.Hour)
	verifier := idp.NewVerifier(provider, cfg.IDPIssuer, cfg.IDPAudience)
	if cfg.EnableDevAuth {
		log.Println("dev auth enabled: accepting the mock identity token")
		verifier.EnableDevAuth()
	}

	assets, err := storage.NewFSStore(cfg.AssetDir)
	if err != nil {
		log.Fatalf("asset store init failed: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Kiosk-Key"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/scan/enter", api.ScanEnterHandler(store, verifier))
		ar.Post("/answer", api.SubmitAnswerHandler(store, verifier))
		ar.Post("/auth/verify", api.VerifyIdentityHandler(store, verifier))

		ar.Group(func(kr chi.Router) {
			kr.Use(authmw.RequireKioskKey(cfg.KioskKeyHash))
			kr.Post("/kiosk/redeem", api.KioskRedeemHandler(store))
		})
	})

	r.Get("/assets/*", api.AssetHandler(assets))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
