package delivery

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/usecase"
	"github.com/ngandimoun/saydo-ai-sub006/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PatternHandler handles pattern-related HTTP requests
type PatternHandler struct {
	patternUsecase usecase.PatternUsecase
	log            *logger.Logger
}

// NewPatternHandler creates a new PatternHandler
func NewPatternHandler(patternUsecase usecase.PatternUsecase, log *logger.Logger) *PatternHandler {
	return &PatternHandler{
		patternUsecase: patternUsecase,
		log:            log.With("component", "PatternHandler"),
	}
}

// AnalyzeRequest represents the request body for triggering an analysis
type AnalyzeRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// Analyze re-learns the caller's patterns
// POST /api/patterns/analyze
func (h *PatternHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId is required"})
		return
	}

	// Callers may only analyze themselves
	if req.UserID != c.GetString("userID") {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Unauthorized"})
		return
	}

	result, err := h.patternUsecase.AnalyzeUserPatterns(c.Request.Context(), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidUserID):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId is required"})
		case errors.Is(err, domain.ErrAnalysisInProgress):
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Pattern analysis already in progress"})
		default:
			h.log.Error("Pattern analysis failed", "user_id", req.UserID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to analyze patterns"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"patternsLearned":   result.PatternsLearned,
		"tasksAnalyzed":     result.TasksAnalyzed,
		"remindersAnalyzed": result.RemindersAnalyzed,
		"totalPatterns":     result.TotalPatterns,
	})
}

// GetPatterns returns the caller's learned patterns
// GET /api/patterns?type=timing
func (h *PatternHandler) GetPatterns(c *gin.Context) {
	patternType, ok := parseTypeQuery(c)
	if !ok {
		return
	}

	patterns := h.patternUsecase.GetUserPatterns(c.Request.Context(), c.GetString("userID"), patternType)
	c.JSON(http.StatusOK, gin.H{
		"patterns": patterns,
		"total":    len(patterns),
	})
}

// DeletePatterns forgets the caller's patterns, optionally only one type
// DELETE /api/patterns?type=timing
func (h *PatternHandler) DeletePatterns(c *gin.Context) {
	patternType, ok := parseTypeQuery(c)
	if !ok {
		return
	}

	deleted, err := h.patternUsecase.DeleteUserPatterns(c.Request.Context(), c.GetString("userID"), patternType)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidUserID) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId is required"})
			return
		}
		h.log.Error("Failed to delete patterns", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to delete patterns"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func parseTypeQuery(c *gin.Context) (*domain.PatternType, bool) {
	raw := c.Query("type")
	if raw == "" {
		return nil, true
	}
	patternType, err := domain.ParsePatternType(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid pattern type"})
		return nil, false
	}
	return &patternType, true
}
