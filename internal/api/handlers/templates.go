package handlers

import (
	"net/http"

	"hydrogen-admin/internal/csvio"

	"github.com/gin-gonic/gin"
)

// Template serves GET /api/v1/templates/:kind for collections or products.
func Template(c *gin.Context) {
	var table *csvio.Table
	switch kind := c.Param("kind"); kind {
	case "collections":
		table = csvio.CollectionTemplate()
	case "products":
		table = csvio.ProductTemplate()
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown template: " + kind})
		return
	}
	writeTable(c, table, c.Param("kind")+"-template", c.Query("format"))
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
