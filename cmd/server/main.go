package main

import (
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"starterapp/internal/auth"
	"starterapp/internal/config"
	"starterapp/internal/database"
	"starterapp/internal/email"
	"starterapp/internal/logging"
	redisx "starterapp/internal/redis"
	"starterapp/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logOutput := io.Writer(os.Stdout)
	if cfg.LogFile != "" {
		fileWriter, err := logging.NewRotatingFileWriter(cfg.LogFile, 50<<20, 5)
		if err != nil {
			log.Fatalf("log setup error: %v", err)
		}
		defer fileWriter.Close()
		logOutput = io.MultiWriter(os.Stdout, fileWriter)
	}
	log.SetOutput(logOutput)
	log.SetFlags(log.LstdFlags | log.LUTC | log.Lshortfile)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer db.Close()

	redisClient, err := redisx.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis error: %v", err)
	}
	defer redisClient.Close()

	users := auth.NewUserRepository(db)
	repos := auth.NewRepositoryStore(db)
	rateLimiter := &auth.RateLimiter{Redis: redisClient}
	mailer := email.NewSender(cfg.Email)
	hasher := &auth.BcryptHasher{Cost: cfg.BcryptCost}
	issuer := auth.NewTokenIssuer([]byte(cfg.AuthSecret))
	svc := auth.NewService(users, hasher, issuer, mailer, cfg.BaseURL, cfg.TokenTTL)

	api := server.NewServer(cfg, svc, issuer, users, repos, rateLimiter)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
