package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sdr-service/internal/model"
	"sdr-service/internal/pipeline"
	"sdr-service/internal/prompt"
	"sdr-service/pkg/database"
	"sdr-service/pkg/grok"
	"sdr-service/pkg/jsonx"
	"sdr-service/pkg/logger"
	"sdr-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OutreachResult is the JSON shape expected from the model for a drafted
// outreach email
type OutreachResult struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	Tags    []string `json:"tags"`
}

// GenerateOutreach drafts a personalized outreach email for a lead via the
// model API. The draft is not persisted beyond its activity-log entry; score
// and stage are untouched.
func GenerateOutreach(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	log.Info("Generating outreach", zap.String("lead_id", id))

	tone := c.QueryParam("tone")
	if tone == "" {
		tone = "friendly"
	}
	goal := c.QueryParam("goal")
	if goal == "" {
		goal = "book a meeting"
	}

	db := database.GetDB()
	var lead model.Lead
	if err := db.First(&lead, id).Error; err != nil {
		log.Error("Lead not found for outreach",
			zap.String("lead_id", id),
			zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "lead not found",
		})
	}

	outreachPrompt := prompt.Outreach(&lead, tone, goal)

	start := time.Now()
	text, err := grok.GetClient().Complete(c.Request().Context(), outreachPrompt)
	prometheus.TrackGrokRequest("outreach")(start)
	if err != nil {
		var svcErr *grok.ServiceError
		if errors.As(err, &svcErr) {
			prometheus.RecordGrokError("outreach", "service")
			log.Error("Grok API unavailable for outreach",
				zap.Uint("lead_id", lead.ID),
				zap.Error(err))
			return c.JSON(http.StatusBadGateway, echo.Map{
				"error": err.Error(),
			})
		}
		prometheus.RecordGrokError("outreach", "format")
		log.Error("Unexpected grok response for outreach",
			zap.Uint("lead_id", lead.ID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": err.Error(),
		})
	}

	var result OutreachResult
	if err := jsonx.Decode([]byte(text), &result); err != nil {
		prometheus.RecordGrokError("outreach", "parse")
		log.Error("Could not parse grok outreach output",
			zap.Uint("lead_id", lead.ID),
			zap.String("text_preview", preview(text, 200)),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": fmt.Sprintf("could not parse grok output: %s", preview(text, 200)),
		})
	}
	if result.Tags == nil {
		result.Tags = []string{}
	}

	resultJSON, _ := json.Marshal(result)
	detail := fmt.Sprintf("Generated outreach draft %s", resultJSON)
	if _, err := pipeline.LogActivity(db, lead.ID, model.ActorSystem, model.ActionOutreachGenerated, detail); err != nil {
		log.Error("Failed to log outreach", zap.Uint("lead_id", lead.ID), zap.Error(err))
	}

	prometheus.RecordLeadOperation("outreach")
	log.Info("Outreach generated successfully",
		zap.Uint("lead_id", lead.ID),
		zap.String("subject", result.Subject),
		zap.Int("tags", len(result.Tags)))

	return c.JSON(http.StatusOK, echo.Map{
		"lead_id":  lead.ID,
		"outreach": result,
	})
}
