package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"tcu-monitor/internal/db"
	"tcu-monitor/internal/logging"
	"tcu-monitor/internal/models"
	"tcu-monitor/internal/monitor"
)

type Handler struct {
	engine  *monitor.Engine
	archive *db.DB // nil when no database is configured
	logger  *logging.Logger
}

func NewHandler(engine *monitor.Engine, archive *db.DB, logger *logging.Logger) *Handler {
	return &Handler{engine: engine, archive: archive, logger: logger}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": h.engine.Uptime().String(),
	})
}

// Status returns the point-in-time fleet report, the same data the hourly
// status report logs.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Status())
}

func (h *Handler) ListGroups(c *gin.Context) {
	registry := h.engine.Registry()
	type groupInfo struct {
		models.GroupKey
		TotalDevices int `json:"total_devices"`
		Expected     int `json:"expected"`
	}
	var groups []groupInfo
	for _, key := range registry.Groups() {
		entry, _ := registry.Entry(key.Project, key.NCU)
		groups = append(groups, groupInfo{
			GroupKey:     key,
			TotalDevices: entry.TotalDevices,
			Expected:     len(entry.ExpectedDevices()),
		})
	}
	c.JSON(http.StatusOK, groups)
}

// GroupStatus returns the device partition for one (project, NCU) pair.
func (h *Handler) GroupStatus(c *gin.Context) {
	project := c.Param("project")
	ncu := c.Param("ncu")

	report := h.engine.Status()
	for _, gs := range report.Groups {
		if gs.Group.Project == project && gs.Group.NCU == ncu {
			c.JSON(http.StatusOK, gs)
			return
		}
	}
	h.logger.Warnf("Group %s/%s not found", project, ncu)
	c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
}

// ListDispatches returns recent archived dispatches when the archive is
// enabled.
func (h *Handler) ListDispatches(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Dispatch archive not configured"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	records, err := h.archive.ListRecentDispatches(c.Request.Context(), limit)
	if err != nil {
		h.logger.Errorf("Failed to list dispatches: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list dispatches"})
		return
	}
	c.JSON(http.StatusOK, records)
}
