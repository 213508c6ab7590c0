package tm

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

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=tm_test

type tmService interface {
	Create(ctx context.Context, userID, routineID string, params CreateParams) (*Adjustment, error)
	List(ctx context.Context, userID, routineID, exerciseID string) ([]Adjustment, error)
	Summary(ctx context.Context, userID, routineID string) ([]ExerciseSummary, error)
}

type Handler struct {
	service tmService
}

func NewHandler(service tmService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.tm.create")
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

	routineID := mux.Vars(r)["id"]
	if routineID == "" {
		http.Error(w, "error, routine id empty", http.StatusBadRequest)
		return
	}

	var params CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Debugf("new tm event, unmarshal json params: %s", err)
		http.Error(w, "invalid tm event", http.StatusBadRequest)
		return
	}
	if params.ExerciseID == "" {
		http.Error(w, "error, exercise id empty", http.StatusBadRequest)
		return
	}

	adj, err := handler.service.Create(ctx, userID, routineID, params)
	if err != nil {
		apperr.Respond(w, err, "create tm event for routine "+routineID)
		return
	}

	pkg.WriteJSON(w, adj, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.tm.list")
	defer span.End()

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	routineID := mux.Vars(r)["id"]
	exerciseID := r.URL.Query().Get("exerciseId")

	adjustments, err := handler.service.List(ctx, userID, routineID, exerciseID)
	if err != nil {
		apperr.Respond(w, err, "list tm events of routine "+routineID)
		return
	}

	// the ledger is a bare array, newest first
	if adjustments == nil {
		adjustments = []Adjustment{}
	}
	pkg.WriteJSON(w, adjustments, http.StatusOK)
}

func (handler *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.tm.summary")
	defer span.End()

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	routineID := mux.Vars(r)["id"]
	summary, err := handler.service.Summary(ctx, userID, routineID)
	if err != nil {
		apperr.Respond(w, err, "tm summary of routine "+routineID)
		return
	}

	if summary == nil {
		summary = []ExerciseSummary{}
	}
	pkg.WriteJSON(w, summary, http.StatusOK)
}
