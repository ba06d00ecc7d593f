package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"estate-notify-go/internal/apiclient"
	"estate-notify-go/internal/handlers"
	"estate-notify-go/internal/platform"
	"estate-notify-go/internal/pushclient"
	"estate-notify-go/internal/reconcile"
	"estate-notify-go/internal/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	// Backend API configuration. The base URL is required on purpose: no
	// baked-in production fallback.
	apiBaseURL := os.Getenv("API_BASE_URL")
	if apiBaseURL == "" {
		log.Fatal("API_BASE_URL environment variable is required")
	}
	api, err := apiclient.New(apiBaseURL, os.Getenv("API_TOKEN"))
	if err != nil {
		log.Fatalf("Failed to configure API client: %v", err)
	}

	identity := apiclient.IdentityUser
	if os.Getenv("IDENTITY") == "org-admin" {
		identity = apiclient.IdentityOrgAdmin
	}

	// Redis Configuration (notification query cache)
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}
	cache := store.NewRedisCache(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// PostgreSQL Configuration (device profile)
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}
	profiles, err := store.NewPostgresProfileStore(databaseURL, os.Getenv("PROFILE_NAME"))
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	ctx := context.Background()
	if err := profiles.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Headless device: plays the browser's role for this identity.
	pushServiceURL := os.Getenv("PUSH_SERVICE_URL")
	if pushServiceURL == "" {
		pushServiceURL = "https://push.example.net"
	}
	decision := platform.PromptAccept
	if os.Getenv("PERMISSION_DECISION") == "deny" {
		decision = platform.PromptDeny
	}
	device := platform.NewDevice(platform.DeviceConfig{
		PushServiceURL: pushServiceURL,
		Decision:       decision,
	}, profiles)

	keys := pushclient.NewKeyCache(api)
	flow := pushclient.NewFlow(device, keys, func(ctx context.Context, payload *webpush.Subscription) error {
		return api.RegisterSubscription(ctx, identity, payload)
	})

	center := reconcile.NewCenter(api, cache)

	pollInterval := reconcile.DefaultPollInterval
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			pollInterval = d
		} else {
			log.Printf("Ignoring invalid POLL_INTERVAL %q", v)
		}
	}
	poller := reconcile.NewPoller(center, pollInterval)
	go poller.Run(ctx)

	// Optional: bring the push subscription up on boot instead of waiting
	// for the console.
	if os.Getenv("ACTIVATE_ON_START") == "true" {
		go func() {
			out := flow.Activate(ctx)
			log.Printf("Startup push activation: %s", out.Status)
			if out.Err != nil {
				log.Printf("Startup push activation error: %v", out.Err)
			}
		}()
	}

	h := handlers.NewHandler(flow, center, device)

	// Console session routes
	http.HandleFunc("/api/login", h.LoginHandler)
	http.HandleFunc("/api/logout", h.LogoutHandler)

	// Push routes
	http.HandleFunc("/api/push/activate", handlers.AuthMiddleware(h.ActivatePushHandler))
	http.HandleFunc("/api/push/status", handlers.AuthMiddleware(h.PushStatusHandler))

	// Notification routes
	http.HandleFunc("/api/notifications", handlers.AuthMiddleware(h.NotificationsHandler))
	http.HandleFunc("/api/notifications/read-all", handlers.AuthMiddleware(h.MarkAllReadHandler))
	http.HandleFunc("/api/notifications/", handlers.AuthMiddleware(h.MarkReadHandler))

	http.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Listening on :" + port)
	log.Printf("Polling notifications every %s as %s", pollInterval, identity)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}
