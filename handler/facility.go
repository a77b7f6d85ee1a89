package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/openparks/corral/internal/keys"
	"github.com/openparks/corral/schema"
	"github.com/openparks/corral/store"
)

// CreateFacility creates a facility under a protected area. The sort key
// suffix comes from the per-park identifier sequence, so the whole attempt
// (allocate, compile, commit) re-runs when an allocation race is lost.
func (h *Handler) CreateFacility(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	orcs := req.PathParameters["orcs"]
	if orcs == "" {
		return respond(http.StatusBadRequest, map[string]string{"error": "missing protected area identifier"})
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return respond(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}
	facilityType, _ := body["facilityType"].(string)

	pk := keys.Partition("facility", orcs)
	var created store.Key

	err := h.store.Retryer().Do(ctx, func(ctx context.Context) error {
		id, err := h.store.NextID(ctx, pk, facilityType, schema.FacilityTypes)
		if err != nil {
			return err
		}
		created = store.Key{PK: pk, SK: keys.Sort(facilityType, id)}

		intents, err := store.Compile(schema.FacilityCreate, store.OpCreate, store.Record{
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

	h.logger.Info("facility created",
		zap.String("pk", created.PK),
		zap.String("sk", created.SK),
	)
	return respond(http.StatusCreated, map[string]string{"pk": created.PK, "sk": created.SK})
}

// UpdateFacility applies a partial update to a facility. Version conflicts
// are not retried here: the caller holds stale state and must re-fetch.
func (h *Handler) UpdateFacility(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	orcs := req.PathParameters["orcs"]
	facilityID := req.PathParameters["facilityId"]
	if orcs == "" || facilityID == "" {
		return respond(http.StatusBadRequest, map[string]string{"error": "missing facility identifier"})
	}

	var body updateRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return respond(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}

	key := store.Key{PK: keys.Partition("facility", orcs), SK: facilityID}
	intents, err := store.Compile(schema.FacilityUpdate, store.OpUpdate, store.Record{
		Key:             key,
		Attributes:      body.Set,
		Additions:       body.Add,
		Removals:        body.Remove,
		ExpectedVersion: body.Version,
	})
	if err != nil {
		return h.fail(err)
	}

	if _, err := h.store.Commit(ctx, intents); err != nil {
		return h.fail(err)
	}
	return respond(http.StatusOK, map[string]any{"pk": key.PK, "sk": key.SK, "version": body.Version + 1})
}
