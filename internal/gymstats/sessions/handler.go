package sessions

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymprogram/internal/apperr"
	"github.com/2beens/gymprogram/internal/auth"
	"github.com/2beens/gymprogram/internal/telemetry/tracing"
	"github.com/2beens/gymprogram/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=sessions_test

type sessionsService interface {
	Start(ctx context.Context, userID, routineID string) (*Session, error)
	Active(ctx context.Context, userID string) (*Session, error)
	Finish(ctx context.Context, userID, sessionID string, params FinishParams) (*FinishResult, error)
}

type Handler struct {
	service sessionsService
}

func NewHandler(service sessionsService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.start")
	defer span.End()

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var params StartParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Debugf("start session, unmarshal json params: %s", err)
		http.Error(w, "invalid session params", http.StatusBadRequest)
		return
	}
	if params.RoutineID == "" {
		http.Error(w, "error, routine id empty", http.StatusBadRequest)
		return
	}

	session, err := handler.service.Start(ctx, userID, params.RoutineID)
	if err != nil {
		apperr.Respond(w, err, "start session on routine "+params.RoutineID)
		return
	}

	pkg.WriteJSON(w, session, http.StatusCreated)
}

func (handler *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.active")
	defer span.End()

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := handler.service.Active(ctx, userID)
	if err != nil {
		apperr.Respond(w, err, "active session of user "+userID)
		return
	}

	pkg.WriteJSON(w, session, http.StatusOK)
}

func (handler *Handler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.finish")
	defer span.End()

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	sessionID := mux.Vars(r)["id"]
	if sessionID == "" {
		http.Error(w, "error, session id empty", http.StatusBadRequest)
		return
	}

	var params FinishParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Debugf("finish session, unmarshal json params: %s", err)
		http.Error(w, "invalid session sets", http.StatusBadRequest)
		return
	}

	result, err := handler.service.Finish(ctx, userID, sessionID, params)
	if err != nil {
		apperr.Respond(w, err, "finish session "+sessionID)
		return
	}

	pkg.WriteJSON(w, result, http.StatusOK)
}
