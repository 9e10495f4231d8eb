package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/digital_bank_ledger/internal/middleware"
)

// getStatus godoc
// @Summary Show the status of server and the authenticated caller.
// @Tags root
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /status [get]
func getStatus(c *gin.Context) {
	actorID, _ := middleware.GetActorIDFromContext(c)
	c.JSON(http.StatusOK, gin.H{"message": "Digital bank ledger API v1", "actorID": actorID})
}

// registerStatusRoutes registers the authenticated '/status' route
func registerStatusRoutes(group *gin.RouterGroup) {
	group.GET("/status", getStatus)
}
