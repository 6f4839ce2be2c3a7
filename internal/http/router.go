package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"oncohelper/internal/handlers"
	"oncohelper/internal/session"
	"oncohelper/internal/tracker"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Tracker       *tracker.Service
	Sessions      *session.Manager
	DB            *sql.DB
	RecordingsDir string
	CalendarLoc   *time.Location
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	validate := validator.New()

	appointmentHandler := handlers.NewAppointmentHandler(deps.Tracker, deps.Sessions, validate)
	questionHandler := handlers.NewQuestionHandler(deps.Tracker, validate)
	annotationHandler := handlers.NewAnnotationHandler(deps.Tracker, validate)
	recordingHandler := handlers.NewRecordingHandler(deps.Sessions)
	playbackHandler := handlers.NewPlaybackHandler(deps.Sessions, validate)
	calendarHandler := handlers.NewCalendarHandler(deps.Tracker, deps.CalendarLoc)
	summaryHandler := handlers.NewSummaryHandler(deps.Tracker)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.RecordingsDir)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Get("/calendar", calendarHandler.Month)

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", appointmentHandler.List)
			r.Post("/", appointmentHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", appointmentHandler.Get)
				r.Put("/", appointmentHandler.Update)
				r.Delete("/", appointmentHandler.Delete)

				r.Method(http.MethodGet, "/summary", summaryHandler)

				r.Post("/annotations", annotationHandler.Add)
				r.Delete("/annotations", annotationHandler.Remove)

				r.Route("/recording", func(r chi.Router) {
					r.Get("/", recordingHandler.Status)
					r.Post("/start", recordingHandler.Start)
					r.Post("/confirm", recordingHandler.Confirm)
					r.Post("/cancel", recordingHandler.Cancel)
					r.Post("/pause", recordingHandler.Pause)
					r.Post("/resume", recordingHandler.Resume)
					r.Post("/stop", recordingHandler.Stop)
					r.Post("/mark", recordingHandler.Mark)
				})

				r.Route("/playback", func(r chi.Router) {
					r.Get("/", playbackHandler.Status)
					r.Post("/play", playbackHandler.Play)
					r.Post("/pause", playbackHandler.Pause)
					r.Post("/seek", playbackHandler.Seek)
					r.Post("/jump", playbackHandler.Jump)
					r.Post("/mark", playbackHandler.Mark)
					r.Post("/stop", playbackHandler.Stop)
				})
			})
		})

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", questionHandler.List)
			r.Post("/", questionHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", questionHandler.Get)
				r.Put("/", questionHandler.Update)
				r.Delete("/", questionHandler.Delete)

				r.Post("/links", questionHandler.Link)
				r.Delete("/links/{appointmentID}", questionHandler.Unlink)
			})
		})
	})

	return r
}
