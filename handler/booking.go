package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openparks/corral/internal/keys"
	"github.com/openparks/corral/schema"
	"github.com/openparks/corral/store"
)

// CreateBooking opens an "in progress" booking and hands the generated
// session id back to the caller. Only a confirmation carrying that session
// id can complete the booking.
func (h *Handler) CreateBooking(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	orcs := req.PathParameters["orcs"]
	if orcs == "" {
		return respond(http.StatusBadRequest, map[string]string{"error": "missing protected area identifier"})
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return respond(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}

	sessionID := uuid.NewString()
	body["sessionId"] = sessionID
	body["bookingStatus"] = schema.BookingInProgress

	pk := keys.Partition("booking", orcs)
	var created store.Key

	err := h.store.Retryer().Do(ctx, func(ctx context.Context) error {
		id, err := h.store.NextID(ctx, pk, "booking", nil)
		if err != nil {
			return err
		}
		created = store.Key{PK: pk, SK: keys.Sort("booking", id)}

		intents, err := store.Compile(schema.BookingCreate, store.OpCreate, store.Record{
			Key:        created,
			Attributes: body,
		})
		if err != nil {
			return err
		}
		_, err = h.store.Commit(ctx, intents)
		return err
	})
	if err != nil {
		return h.fail(err)
	}

	h.logger.Info("booking opened",
		zap.String("pk", created.PK),
		zap.String("sk", created.SK),
	)
	return respond(http.StatusCreated, map[string]string{
		"pk":        created.PK,
		"sk":        created.SK,
		"sessionId": sessionID,
	})
}

// ConfirmBooking completes an in-progress booking. The session gate is a
// hard rejection, never retried: a mismatch means a replayed confirmation
// or a stale client.
func (h *Handler) ConfirmBooking(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	orcs := req.PathParameters["orcs"]
	bookingID := req.PathParameters["bookingId"]
	if orcs == "" || bookingID == "" {
		return respond(http.StatusBadRequest, map[string]string{"error": "missing booking identifier"})
	}

	var body struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil || body.SessionID == "" {
		return respond(http.StatusBadRequest, map[string]string{"error": "missing session id"})
	}

	key := store.Key{PK: keys.Partition("booking", orcs), SK: bookingID}
	if err := h.store.ConfirmBooking(ctx, key, body.SessionID); err != nil {
		return h.fail(err)
	}
	return respond(http.StatusOK, map[string]string{"bookingStatus": schema.BookingCompleted})
}
