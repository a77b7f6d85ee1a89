// Package handler provides the Lambda request handlers fronting the
// persistence engine. Handlers are thin: parse, compile, commit, respond.
// Routing belongs to API Gateway, which maps one route to one handler.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/openparks/corral/schema"
	"github.com/openparks/corral/store"
)

// Handler holds the dependencies shared by every request handler.
type Handler struct {
	store  *store.Store
	logger *zap.Logger
}

// New creates a new Handler.
func New(s *store.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:  s,
		logger: logger,
	}
}

// updateRequest is the wire shape of a partial update: attribute deltas
// per mutation verb plus the version the caller last read.
type updateRequest struct {
	Set     map[string]any `json:"set"`
	Add     map[string]any `json:"add"`
	Remove  []string       `json:"remove"`
	Version int64          `json:"version"`
}

func respond(status int, body any) (events.APIGatewayProxyResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, nil
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(payload),
	}, nil
}

func (h *Handler) fail(err error) (events.APIGatewayProxyResponse, error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, schema.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrVersionRequired):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrVersionConflict),
		errors.Is(err, store.ErrAllocationConflict),
		errors.Is(err, store.ErrSessionMismatch),
		errors.Is(err, store.ErrInvalidBookingState):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	} else {
		h.logger.Info("request rejected", zap.Int("status", status), zap.Error(err))
	}
	return respond(status, map[string]string{"error": err.Error()})
}
