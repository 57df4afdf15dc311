package handler

import (
	"errors"
	"net/http"

	"sdr-service/internal/model"
	"sdr-service/internal/pipeline"
	"sdr-service/pkg/database"
	"sdr-service/pkg/logger"
	"sdr-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProgressRequest defines the structure for manual stage progression
type ProgressRequest struct {
	NewStage string `json:"new_stage"`
	Reason   string `json:"reason"`
}

// ProgressLead moves a lead to an explicitly requested stage. Any stage is
// reachable from any other; the target must differ from the current stage.
func ProgressLead(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid lead id",
		})
	}

	var req ProgressRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	log.Info("Progressing lead stage",
		zap.Uint("lead_id", id),
		zap.String("new_stage", req.NewStage))

	lead, oldStage, err := pipeline.ProgressStage(database.GetDB(), id, model.PipelineStage(req.NewStage), "user", req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrLeadNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "lead not found",
			})
		case errors.Is(err, pipeline.ErrInvalidStage):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "unknown pipeline stage: " + req.NewStage,
			})
		case errors.Is(err, pipeline.ErrSameStage):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "lead is already in stage " + req.NewStage,
			})
		default:
			log.Error("Failed to progress lead stage",
				zap.Uint("lead_id", id),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to progress lead stage",
			})
		}
	}

	prometheus.RecordStageTransition(string(oldStage), string(lead.Stage), "manual")
	log.Info("Lead stage progressed",
		zap.Uint("lead_id", lead.ID),
		zap.String("from", string(oldStage)),
		zap.String("to", string(lead.Stage)))

	return c.JSON(http.StatusOK, echo.Map{
		"lead_id": lead.ID,
		"stage":   lead.Stage,
	})
}

// GetLeadActivities returns the activity log for a lead, newest first
func GetLeadActivities(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid lead id",
		})
	}

	activities, err := pipeline.LeadActivities(database.GetDB(), id)
	if err != nil {
		if errors.Is(err, pipeline.ErrLeadNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "lead not found",
			})
		}
		log.Error("Failed to retrieve activities",
			zap.Uint("lead_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve activities",
		})
	}

	return c.JSON(http.StatusOK, activities)
}

// GetPipelineStages returns the stage catalog with descriptions
func GetPipelineStages(c echo.Context) error {
	return c.JSON(http.StatusOK, pipeline.StageCatalog())
}

// GetPipelineStats returns lead counts per pipeline stage
func GetPipelineStats(c echo.Context) error {
	log := logger.FromEcho(c)

	stats, err := pipeline.Stats(database.GetDB())
	if err != nil {
		log.Error("Failed to compute pipeline stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute pipeline stats",
		})
	}

	return c.JSON(http.StatusOK, stats)
}

// GetPipelineAnalytics returns the aggregate pipeline report
func GetPipelineAnalytics(c echo.Context) error {
	log := logger.FromEcho(c)

	analytics, err := pipeline.GetAnalytics(database.GetDB())
	if err != nil {
		log.Error("Failed to compute pipeline analytics", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute pipeline analytics",
		})
	}

	return c.JSON(http.StatusOK, analytics)
}
