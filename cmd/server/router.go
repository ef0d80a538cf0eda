package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pulsehealth/pulse-api/internal/api"
	apimiddleware "github.com/pulsehealth/pulse-api/internal/api/middleware"
)

// setupRouter builds the HTTP surface: the three producer endpoints under
// the windowed rate limiter, the internal dispatch trigger, and the queue
// health probe.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.Trace)

	insightsHandler := api.NewInsightsHandler(app.insights)
	notificationsHandler := api.NewNotificationsHandler(app.notifs)
	wearablesHandler := api.NewWearablesHandler(app.wearables)
	dispatchHandler := api.NewDispatchHandler(app.dispatcher)
	healthHandler := api.NewHealthHandler(app.health)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.RateLimit(apimiddleware.RateLimitOptions{
				Limit:   app.config.RateLimit.Requests,
				Window:  time.Duration(app.config.RateLimit.WindowSeconds) * time.Second,
				Scope:   "producers",
				Counter: app.counter,
			}))

			r.Post("/insights/generations", insightsHandler.GenerateInsights)
			r.Post("/notifications", notificationsHandler.ScheduleNotification)
			r.Post("/integrations/{integrationID}/sync", wearablesHandler.RequestSync)
		})

		// Called by external schedulers as an alternative to the in-process
		// cron drain. Deployment keeps this path off the public ingress.
		r.Post("/internal/dispatch/run", dispatchHandler.Run)
	})

	r.Get("/healthz", healthHandler.Healthz)

	return r
}
