package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createBlockRequest struct {
	BlockedID string `json:"blockedId" binding:"required"`
}

// CreateBlock records a block from the authenticated user. Blocked pairs are
// never matched again, in either direction.
func (h *Handler) CreateBlock(c *gin.Context) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return
	}
	userID, err := h.validateAndGetUserID(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return
	}

	var req createBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BlockedID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid block request"})
		return
	}

	if err := h.Storage.SaveBlock(userID, req.BlockedID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save block"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"blocked": req.BlockedID})
}
