package httpserver

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mfpereira/llmstxt-api/internal/http/handlers"
	"github.com/mfpereira/llmstxt-api/internal/http/middleware"
)

type RouterDependencies struct {
	API            *handlers.API
	Logger         *log.Logger
	AuthToken      string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(deps RouterDependencies) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Trace(deps.Logger))
	router.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: deps.CORSOrigins,
	}))
	router.Use(middleware.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst))
	router.Use(middleware.Auth(deps.AuthToken))

	router.Get("/healthz", deps.API.Health)

	router.Route("/v1", func(v1 chi.Router) {
		v1.Post("/convert", deps.API.Convert)
		v1.Get("/convert/{jobID}", deps.API.ConversionStatus)
		v1.Get("/convert/{jobID}/details", deps.API.ConversionDetails)

		v1.Post("/analyzer/tokens", deps.API.AnalyzeTokens)
		v1.Post("/analyzer/detect-content-type", deps.API.DetectContentType)

		v1.Get("/jobs/archive", deps.API.ArchivedJobs)
	})

	return router
}
