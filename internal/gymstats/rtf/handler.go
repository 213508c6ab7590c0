package rtf

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymprogram/internal/apperr"
	"github.com/2beens/gymprogram/internal/auth"
	"github.com/2beens/gymprogram/internal/telemetry/tracing"
	"github.com/2beens/gymprogram/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=rtf_test

type rtfService interface {
	WeekGoals(ctx context.Context, userID, routineID string, week *int, remaining bool) (*WeekGoals, error)
	Timeline(ctx context.Context, userID, routineID string, remaining bool) (*Timeline, error)
	Forecast(ctx context.Context, userID, routineID string, remaining bool) (*Forecast, error)
}

type Handler struct {
	service     rtfService
	etagEnabled bool
}

func NewHandler(service rtfService, etagEnabled bool) *Handler {
	return &Handler{
		service:     service,
		etagEnabled: etagEnabled,
	}
}

func (handler *Handler) HandleWeekGoals(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.rtf.weekgoals")
	defer span.End()

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	routineID := mux.Vars(r)["id"]

	var week *int
	if weekStr := r.URL.Query().Get("week"); weekStr != "" {
		wk, err := strconv.Atoi(weekStr)
		if err != nil {
			http.Error(w, "error, week NaN", http.StatusBadRequest)
			return
		}
		week = &wk
	}

	goals, err := handler.service.WeekGoals(ctx, userID, routineID, week, remaining(r))
	if err != nil {
		apperr.Respond(w, err, "week goals of routine "+routineID)
		return
	}

	handler.respond(w, r, goals)
}

func (handler *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.rtf.timeline")
	defer span.End()

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	routineID := mux.Vars(r)["id"]
	timeline, err := handler.service.Timeline(ctx, userID, routineID, remaining(r))
	if err != nil {
		apperr.Respond(w, err, "timeline of routine "+routineID)
		return
	}

	handler.respond(w, r, timeline)
}

func (handler *Handler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.rtf.forecast")
	defer span.End()

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	routineID := mux.Vars(r)["id"]
	forecast, err := handler.service.Forecast(ctx, userID, routineID, remaining(r))
	if err != nil {
		apperr.Respond(w, err, "forecast of routine "+routineID)
		return
	}

	handler.respond(w, r, forecast)
}

// respond writes the payload, or 304 when the client already holds the same
// content. Cache bookkeeping fields do not take part in the ETag.
func (handler *Handler) respond(w http.ResponseWriter, r *http.Request, payload any) {
	if handler.etagEnabled {
		etag, err := pkg.ContentETag(payload, pkg.VolatileResponseKeys...)
		if err != nil {
			log.Errorf("compute etag: %s", err)
		} else {
			w.Header().Set("ETag", etag)
			if pkg.MatchesIfNoneMatch(r, etag) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}
	pkg.WriteJSON(w, payload, http.StatusOK)
}

func remaining(r *http.Request) bool {
	switch r.URL.Query().Get("remaining") {
	case "1", "true":
		return true
	default:
		return false
	}
}
