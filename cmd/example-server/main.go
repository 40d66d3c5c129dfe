// Command example-server demonstrates wiring s3up into a chi application:
// one provider config, two routes (image uploads and typed documents), a
// JWT-gated route, and the demo plumbing (CORS, request IDs, structured
// logging, panic recovery) the teacher's cmd/api used to wire by hand.
package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/s3up-go/s3up"
	"github.com/s3up-go/s3up/adapters/chigo"
	"github.com/s3up-go/s3up/authmw"
	"github.com/s3up-go/s3up/internal/config"
	"github.com/s3up-go/s3up/internal/middleware"
	"github.com/s3up-go/s3up/internal/pkg/errorhandler"
	"github.com/s3up-go/s3up/internal/pkg/jwt"
	"github.com/s3up-go/s3up/internal/pkg/logger"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		panic(err)
	}

	built, err := buildUploadConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build upload config")
	}

	router := built.S3.CreateRouter(map[string]s3up.Schema{
		"imageUpload": s3up.Image().
			Max("5MB").
			OnUploadComplete(func(ctx *s3up.RequestContext) error {
				log.Info().Str("key", ctx.File.Name).Msg("image upload completed")
				return nil
			}),

		"documentUpload": s3up.File().
			Types("application/pdf", "application/msword").
			Max("20MB").
			Middleware(authmw.RequireBearerJWT(cfg.JWTSecret)).
			MaxFiles(5),
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/healthz", healthz)
	r.Post("/debug/token", issueDemoToken(cfg))
	chigo.Mount(r, "/api/upload", router.Handlers())

	log.Info().Str("port", cfg.Port).Msg("example-server listening")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func buildUploadConfig(cfg *config.Config) (*s3up.Built, error) {
	forcePathStyle := cfg.ProviderKind == "minio"
	return s3up.New().
		Provider(s3up.ProviderConfig{
			Kind:            s3up.ProviderKind(cfg.ProviderKind),
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			Endpoint:        cfg.Endpoint,
			AccountID:       cfg.AccountID,
			ForcePathStyle:  &forcePathStyle,
			UseSSL:          cfg.UseSSL,
			CustomDomain:    cfg.CustomDomain,
		}).
		Security(s3up.SecurityConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			RateLimiting: &s3up.RateLimiting{
				MaxUploads: cfg.RateLimitMaxUploads,
				Window:     cfg.RateLimitWindow,
			},
		}).
		Build()
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// issueDemoToken mints a short-lived bearer token for exercising the
// documentUpload route's auth middleware; a real deployment replaces this
// with its own identity provider.
func issueDemoToken(cfg *config.Config) http.HandlerFunc {
	svc := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID string `json:"userId"`
			Role   string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
			errorhandler.HandleErrorWithDetails(r.Context(), w, http.StatusBadRequest,
				"INVALID_BODY", "userId is required", map[string]string{"userId": "missing or body is not valid JSON"}, err)
			return
		}

		token, err := svc.GenerateAccessToken(body.UserID, body.Role)
		if err != nil {
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "TOKEN_ISSUE_FAILED", "failed to issue token", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":     token,
			"expiresIn": int(cfg.JWTAccessTTL / time.Second),
		})
	}
}
