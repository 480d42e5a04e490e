package api

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-gcm-service/pkg/dispatch"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

// TokenAPI lets an authenticated device owner add or remove its GCM
// registration ids.
type TokenAPI struct {
	Store  dispatch.TokenStore
	Logger *slog.Logger
}

func NewTokenAPI(store dispatch.TokenStore, logger *slog.Logger) *TokenAPI {
	return &TokenAPI{
		Store:  store,
		Logger: logger,
	}
}

type RegistrationRequest struct {
	RegistrationID string `json:"registration_id"`
}

func (api *TokenAPI) RegisterGCM(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userURN, req, ok := api.decode(w, r)
	if !ok {
		return
	}

	if err := api.Store.Register(ctx, userURN, req.RegistrationID); err != nil {
		api.Logger.Error("failed to register gcm id", "user", userURN, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	api.Logger.Info("GCM registration stored", "user", userURN)

	w.WriteHeader(http.StatusNoContent)
}

func (api *TokenAPI) UnregisterGCM(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userURN, req, ok := api.decode(w, r)
	if !ok {
		return
	}

	if err := api.Store.Unregister(ctx, userURN, req.RegistrationID); err != nil {
		// Unregister stays idempotent from the caller's point of view.
		api.Logger.Warn("failed to unregister gcm id", "user", userURN, "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// decode resolves the caller and the request body, writing the error
// response itself when either is unusable.
func (api *TokenAPI) decode(w http.ResponseWriter, r *http.Request) (userURN urn.URN, req RegistrationRequest, ok bool) {
	userID, found := middleware.GetUserHandleFromContext(r.Context())
	if !found {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return userURN, req, false
	}
	parsed, err := urn.Parse(userID)
	if err != nil {
		api.Logger.Warn("caller identity is not a valid urn", "user", userID, "err", err)
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return userURN, req, false
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return userURN, req, false
	}
	if req.RegistrationID == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing registration_id")
		return userURN, req, false
	}
	return parsed, req, true
}
