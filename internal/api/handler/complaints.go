package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// bindFields decodes a JSON object body. It answers 400 itself and returns false on failure.
func bindFields(c *gin.Context) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be a JSON object"})
		return nil, false
	}
	return fields, true
}

// ListComplaints GET /api/complaints
func (h *Handler) ListComplaints(c *gin.Context) {
	list, err := h.Complaints.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetComplaint GET /api/complaints/:id
func (h *Handler) GetComplaint(c *gin.Context) {
	complaint, err := h.Complaints.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

// CreateComplaint POST /api/complaints
func (h *Handler) CreateComplaint(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	complaint, err := h.Complaints.Create(c.Request.Context(), fields)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

// UpdateComplaint PUT/PATCH /api/complaints/:id
func (h *Handler) UpdateComplaint(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	complaint, err := h.Complaints.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

// DeleteComplaint DELETE /api/complaints/:id
func (h *Handler) DeleteComplaint(c *gin.Context) {
	if err := h.Complaints.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AnalyzeComplaint POST /api/complaints/:id/analyze
func (h *Handler) AnalyzeComplaint(c *gin.Context) {
	complaint, err := h.Complaints.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

type classifyRequest struct {
	Text string `json:"text"`
}

// Classify POST /analyze and /api/analyze
func (h *Handler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be a JSON object"})
		return
	}
	result, err := h.Complaints.Classify(c.Request.Context(), req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if result.ComplaintText == "" {
		result.ComplaintText = req.Text
	}
	c.JSON(http.StatusOK, result)
}
