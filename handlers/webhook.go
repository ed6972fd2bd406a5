package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"chat-api/models"
	"chat-api/store"

	"github.com/gin-gonic/gin"
	svix "github.com/svix/svix-webhooks/go"
	"go.uber.org/zap"
)

// clerkEvent is the envelope the auth provider delivers for user lifecycle
// events.
type clerkEvent struct {
	Type string    `json:"type"`
	Data clerkUser `json:"data"`
}

type clerkUser struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ImageURL       string `json:"image_url"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

func (u clerkUser) email() string {
	if len(u.EmailAddresses) == 0 {
		return ""
	}
	return u.EmailAddresses[0].EmailAddress
}

func (u clerkUser) record() models.User {
	return models.User{
		ID:    u.ID,
		Email: u.email(),
		Name:  strings.TrimSpace(u.FirstName + " " + u.LastName),
		Image: u.ImageURL,
	}
}

// WebhookHandler ingests identity-sync events from the auth provider.
type WebhookHandler struct {
	users    store.UserStore
	verifier *svix.Webhook
	logger   *zap.Logger
}

// NewWebhookHandler creates a webhook handler that verifies payload
// signatures against signingSecret.
func NewWebhookHandler(users store.UserStore, signingSecret string, logger *zap.Logger) (*WebhookHandler, error) {
	verifier, err := svix.NewWebhook(signingSecret)
	if err != nil {
		return nil, err
	}
	return &WebhookHandler{users: users, verifier: verifier, logger: logger}, nil
}

// HandleClerkEvent handles POST /api/clerk. Delivery order across events for
// one subject is not guaranteed, so created and updated are both upserts and
// deleting an absent user is a no-op.
func (h *WebhookHandler) HandleClerkEvent(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Error processing webhook", "error": err.Error()})
		return
	}
	if err := h.verifier.Verify(payload, c.Request.Header); err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Error processing webhook", "error": "invalid signature"})
		return
	}

	var event clerkEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Error processing webhook", "error": err.Error()})
		return
	}

	switch event.Type {
	case "user.created", "user.updated":
		user := event.Data.record()
		if user.Email == "" {
			h.logger.Warn("user event without a primary email address, skipping",
				zap.String("type", event.Type),
				zap.String("user_id", user.ID))
			break
		}
		if err := h.users.UpsertUser(c.Request.Context(), user); err != nil {
			h.serverError(c, err)
			return
		}
		h.logger.Info("user synced",
			zap.String("type", event.Type),
			zap.String("user_id", user.ID))
	case "user.deleted":
		if err := h.users.DeleteUser(c.Request.Context(), event.Data.ID); err != nil {
			h.serverError(c, err)
			return
		}
		h.logger.Info("user deleted", zap.String("user_id", event.Data.ID))
	default:
		h.logger.Info("unhandled webhook event type", zap.String("type", event.Type))
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event received"})
}

func (h *WebhookHandler) serverError(c *gin.Context, err error) {
	h.logger.Error("webhook processing failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Error processing webhook", "error": err.Error()})
}
