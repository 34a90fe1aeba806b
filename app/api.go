package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/avoss/kinodigest/config"
	"github.com/avoss/kinodigest/lib"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *lib.Service) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, svc)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, svc *lib.Service) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		if creds := cfg.GetCreds(); len(creds) > 0 {
			r.Use(middleware.BasicAuth("kinodigest", creds))
		} else {
			log.Sugar().Info("Auth is disabled since no credentials are defined")
		}

		r.Route("/recipients", func(r chi.Router) {
			r.Post("/", ctrl.onboardRecipient)
			r.Get("/{destination_id}", ctrl.viewRecipient)
			r.Delete("/{destination_id}", ctrl.offboardRecipient)
			r.Put("/{destination_id}/notifications", ctrl.configureNotifications)
			r.Put("/{destination_id}/mention", ctrl.setMentionRole)
			r.Delete("/{destination_id}/mention", ctrl.clearMentionRole)
		})

		r.Route("/movies", func(r chi.Router) {
			r.Get("/{title}", ctrl.viewMovie)
			r.Get("/{title}/performances", ctrl.viewMoviePerformances)
		})
	})

	return r
}

type controller struct {
	log *zap.Logger
	svc *lib.Service
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Errorw("Request failed", "error", err)
		return
	} else {
		w.WriteHeader(status)
		if b != nil {
			w.Write(b)
		}
	}
}

func (ctrl *controller) status(err error) int {
	switch {
	case errors.Is(err, lib.ErrRecipientNotFound), errors.Is(err, lib.ErrMovieNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (ctrl *controller) onboardRecipient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	destinationID := r.FormValue("destination_id")
	platform := r.FormValue("platform")

	if destinationID == "" {
		ctrl.reject(w, 400, errors.New("destination_id is required"))
		return
	}

	recipient, err := ctrl.svc.OnboardRecipient(ctx, destinationID, platform)
	if err != nil {
		ctrl.reject(w, ctrl.status(err), err)
		return
	}
	ctrl.resolve(w, http.StatusAccepted, RecipientView{}.From(recipient))
}

func (ctrl *controller) viewRecipient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	destinationID := chi.URLParam(r, "destination_id")

	recipient, err := ctrl.svc.FindRecipient(ctx, destinationID)
	if err != nil {
		ctrl.reject(w, ctrl.status(err), err)
		return
	}
	ctrl.resolve(w, http.StatusOK, RecipientView{}.From(recipient))
}

func (ctrl *controller) offboardRecipient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	destinationID := chi.URLParam(r, "destination_id")

	if err := ctrl.svc.OffboardRecipient(ctx, destinationID); err != nil {
		ctrl.reject(w, ctrl.status(err), err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"offboarded": destinationID})
}

func (ctrl *controller) configureNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	destinationID := chi.URLParam(r, "destination_id")

	settings := lib.NotificationSettings{
		ChannelID:      r.FormValue("channel_id"),
		Schedule:       r.FormValue("schedule"),
		Enabled:        parseBool(r.FormValue("enabled")),
		IncludePoster:  parseBool(r.FormValue("include_poster")),
		IncludeTrailer: parseBool(r.FormValue("include_trailer")),
		Timezone:       r.FormValue("timezone"),
		Locale:         r.FormValue("locale"),
	}

	recipient, err := ctrl.svc.ConfigureNotifications(ctx, destinationID, settings)
	if err != nil {
		ctrl.reject(w, ctrl.status(err), err)
		return
	}
	ctrl.resolve(w, http.StatusOK, RecipientView{}.From(recipient))
}

func (ctrl *controller) setMentionRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	destinationID := chi.URLParam(r, "destination_id")
	roleID := r.FormValue("role_id")

	if roleID == "" {
		ctrl.reject(w, 400, errors.New("role_id is required"))
		return
	}

	recipient, err := ctrl.svc.SetMentionRole(ctx, destinationID, roleID)
	if err != nil {
		ctrl.reject(w, ctrl.status(err), err)
		return
	}
	ctrl.resolve(w, http.StatusOK, RecipientView{}.From(recipient))
}

func (ctrl *controller) clearMentionRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	destinationID := chi.URLParam(r, "destination_id")

	recipient, err := ctrl.svc.SetMentionRole(ctx, destinationID, "")
	if err != nil {
		ctrl.reject(w, ctrl.status(err), err)
		return
	}
	ctrl.resolve(w, http.StatusOK, RecipientView{}.From(recipient))
}

func (ctrl *controller) viewMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	title := chi.URLParam(r, "title")

	movie, err := ctrl.svc.FindMovie(ctx, title)
	if err != nil {
		ctrl.reject(w, ctrl.status(err), err)
		return
	}
	ctrl.resolve(w, http.StatusOK, MovieView{}.From(movie))
}

func (ctrl *controller) viewMoviePerformances(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	title := chi.URLParam(r, "title")

	movie, err := ctrl.svc.FindMovie(ctx, title)
	if err != nil {
		ctrl.reject(w, ctrl.status(err), err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"title":        movie.Title,
		"performances": performanceViews(movie.Performances),
	})
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
