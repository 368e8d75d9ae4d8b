package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// RuntimeConfig holds runtime-configurable analysis settings
type RuntimeConfig struct {
	HistoryLimit      int `json:"history_limit"`
	HistoryWindowDays int `json:"history_window_days"`
}

var (
	runtimeConfig     RuntimeConfig
	runtimeConfigLock sync.RWMutex
)

// InitRuntimeConfig initializes runtime config from static config
func InitRuntimeConfig(historyLimit, historyWindowDays int) {
	runtimeConfigLock.Lock()
	defer runtimeConfigLock.Unlock()
	runtimeConfig = RuntimeConfig{
		HistoryLimit:      historyLimit,
		HistoryWindowDays: historyWindowDays,
	}
}

// GetRuntimeHistoryLimit returns the current maximum number of items read per source
func GetRuntimeHistoryLimit() int {
	runtimeConfigLock.RLock()
	defer runtimeConfigLock.RUnlock()
	return runtimeConfig.HistoryLimit
}

// GetRuntimeHistoryWindowDays returns the current history window; 0 means unbounded
func GetRuntimeHistoryWindowDays() int {
	runtimeConfigLock.RLock()
	defer runtimeConfigLock.RUnlock()
	return runtimeConfig.HistoryWindowDays
}

// UpdateAnalysisSettingsRequest represents the request body for updating analysis settings
type UpdateAnalysisSettingsRequest struct {
	HistoryLimit      *int `json:"history_limit" binding:"omitempty,min=1,max=100000"`
	HistoryWindowDays *int `json:"history_window_days" binding:"omitempty,min=0,max=3650"`
}

// GetAnalysisSettings returns current analysis configuration
// GET /api/settings/analysis
func GetAnalysisSettings(c *gin.Context) {
	runtimeConfigLock.RLock()
	defer runtimeConfigLock.RUnlock()

	c.JSON(http.StatusOK, runtimeConfig)
}

// UpdateAnalysisSettings updates analysis configuration at runtime
// PUT /api/settings/analysis
func UpdateAnalysisSettings(c *gin.Context) {
	var req UpdateAnalysisSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.HistoryLimit == nil && req.HistoryWindowDays == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	runtimeConfigLock.Lock()
	if req.HistoryLimit != nil {
		runtimeConfig.HistoryLimit = *req.HistoryLimit
	}
	if req.HistoryWindowDays != nil {
		runtimeConfig.HistoryWindowDays = *req.HistoryWindowDays
	}
	updated := runtimeConfig
	runtimeConfigLock.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message":             "Analysis settings updated successfully",
		"history_limit":       updated.HistoryLimit,
		"history_window_days": updated.HistoryWindowDays,
	})
}
