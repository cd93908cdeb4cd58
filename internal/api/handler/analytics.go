package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAnalytics GET /api/analytics
func (h *Handler) GetAnalytics(c *gin.Context) {
	summary, err := h.Complaints.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetGroups GET /api/analytics/groups/:field
func (h *Handler) GetGroups(c *gin.Context) {
	groups, err := h.Complaints.Groups(c.Request.Context(), c.Param("field"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// ListDomains GET /api/domains
func (h *Handler) ListDomains(c *gin.Context) {
	c.JSON(http.StatusOK, h.Domains.List())
}

// GetDomain GET /api/domains/:id
func (h *Handler) GetDomain(c *gin.Context) {
	d, _ := h.Domains.Get(c.Param("id"))
	c.JSON(http.StatusOK, d)
}
