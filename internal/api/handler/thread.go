package handler

import (
	"net/http"

	"ethos/backend/internal/chat"

	"github.com/gin-gonic/gin"
)

// GetThread returns the derived state and visible feed of a case, the same
// payload a websocket join acknowledges with.
func (h *Handler) GetThread(c *gin.Context) {
	_, snapshot, err := h.Chat.Snapshot(c.Request.Context(), identityFrom(c), c.Param("code"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": chat.PublicMessage(err), "code": chat.Code(err)})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func statusFor(err error) int {
	switch chat.Code(err) {
	case chat.CodeUnauthorized:
		return http.StatusForbidden
	case chat.CodeNotFound:
		return http.StatusNotFound
	case chat.CodeValidation:
		return http.StatusBadRequest
	case chat.CodeInvalidState:
		return http.StatusConflict
	case chat.CodeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
