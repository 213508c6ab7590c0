package routines

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

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=routines_test

type routinesService interface {
	EnableProgram(ctx context.Context, userID, routineID string, params EnableProgramParams) (*Routine, error)
	Delete(ctx context.Context, userID, routineID string) error
}

type DeleteRoutineResponse struct {
	DeletedID string `json:"deletedId"`
}

type Handler struct {
	service routinesService
}

func NewHandler(service routinesService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) HandleEnableProgram(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.routines.enableprogram")
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

	var params EnableProgramParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Debugf("enable program, unmarshal json params: %s", err)
		http.Error(w, "invalid program params", http.StatusBadRequest)
		return
	}

	routine, err := handler.service.EnableProgram(ctx, userID, routineID, params)
	if err != nil {
		apperr.Respond(w, err, "enable program for routine "+routineID)
		return
	}

	log.Debugf("routine [%s] of user [%s] enrolled in program", routineID, userID)
	pkg.WriteJSON(w, routine, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.routines.delete")
	defer span.End()

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	routineID := mux.Vars(r)["id"]
	if routineID == "" {
		http.Error(w, "error, routine id empty", http.StatusBadRequest)
		return
	}

	if err := handler.service.Delete(ctx, userID, routineID); err != nil {
		apperr.Respond(w, err, "delete routine "+routineID)
		return
	}

	pkg.WriteJSON(w, DeleteRoutineResponse{DeletedID: routineID}, http.StatusOK)
}
