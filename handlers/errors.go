package handlers

import (
	"errors"
	"net/http"

	"chat-api/chat"
	"chat-api/services"
	"chat-api/store"

	"github.com/gin-gonic/gin"
)

// Fixed response texts. The upstream passthrough case is the only one that
// carries provider-supplied text out of the pipeline.
const (
	msgUnauthenticated  = "User not authenticated."
	msgEmptyPrompt      = "Prompt cannot be empty."
	msgNotFound         = "Chat session not found or does not belong to user."
	msgEmptyCompletion  = "AI returned an empty or invalid response."
	msgNetworkFailure   = "No response from AI service (network error)."
	msgUpstreamFallback = "AI service request failed."
)

// classify maps a pipeline failure to an HTTP status and response body. It
// switches on the failure's type, never on message text.
func classify(err error) (int, gin.H) {
	switch {
	case errors.Is(err, chat.ErrUnauthenticated):
		return http.StatusUnauthorized, gin.H{"success": false, "message": msgUnauthenticated}
	case errors.Is(err, chat.ErrEmptyPrompt):
		return http.StatusBadRequest, gin.H{"success": false, "message": msgEmptyPrompt}
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, gin.H{"success": false, "message": msgNotFound}
	case errors.Is(err, services.ErrEmptyCompletion):
		return http.StatusInternalServerError, gin.H{"success": false, "error": msgEmptyCompletion}
	}

	var upstream *services.UpstreamError
	if errors.As(err, &upstream) {
		status := upstream.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		message := upstream.Message
		if message == "" {
			message = msgUpstreamFallback
		}
		return status, gin.H{"success": false, "error": message}
	}

	var network *services.NetworkError
	if errors.As(err, &network) {
		return http.StatusGatewayTimeout, gin.H{"success": false, "error": msgNetworkFailure}
	}

	return http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()}
}
