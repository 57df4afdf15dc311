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

// QualificationRequest defines the structure for qualification requests.
// Omitted scoring weights fall back to the server-side defaults per
// criterion.
type QualificationRequest struct {
	LeadID         uint           `json:"lead_id"`
	ScoringWeights map[string]int `json:"scoring_weights"`
}

// QualificationResult is the JSON shape expected from the model. The output
// is untrusted: the score is clamped into [0,100] before it is persisted.
type QualificationResult struct {
	Score         float64                   `json:"score"`
	Justification string                    `json:"justification"`
	Breakdown     map[string]CriterionScore `json:"breakdown"`
}

// CriterionScore is one criterion's contribution to the overall score
type CriterionScore struct {
	Score         float64 `json:"score"`
	WeightedScore float64 `json:"weighted_score"`
	Reason        string  `json:"reason"`
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// QualifyLead scores a lead via the model API, persists the clamped score,
// and runs the stage machine's automatic rule.
//
// Two concurrent qualifications of the same lead are not mutually excluded;
// last writer wins on the score and stage fields.
func QualifyLead(c echo.Context) error {
	log := logger.FromEcho(c)

	var req QualificationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}
	log.Info("Qualifying lead", zap.Uint("lead_id", req.LeadID))

	weights, err := prompt.NormalizeWeights(req.ScoringWeights)
	if err != nil {
		log.Warn("Invalid scoring weights", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	db := database.GetDB()
	var lead model.Lead
	if err := db.First(&lead, req.LeadID).Error; err != nil {
		log.Error("Lead not found for qualification",
			zap.Uint("lead_id", req.LeadID),
			zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "lead not found",
		})
	}

	qualificationPrompt := prompt.Qualification(&lead, weights)

	start := time.Now()
	text, err := grok.GetClient().Complete(c.Request().Context(), qualificationPrompt)
	prometheus.TrackGrokRequest("qualification")(start)
	if err != nil {
		var svcErr *grok.ServiceError
		if errors.As(err, &svcErr) {
			prometheus.RecordGrokError("qualification", "service")
			log.Error("Grok API unavailable for qualification",
				zap.Uint("lead_id", lead.ID),
				zap.Error(err))
			return c.JSON(http.StatusBadGateway, echo.Map{
				"error": err.Error(),
			})
		}
		prometheus.RecordGrokError("qualification", "format")
		log.Error("Unexpected grok response for qualification",
			zap.Uint("lead_id", lead.ID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": err.Error(),
		})
	}

	var result QualificationResult
	if err := jsonx.Decode([]byte(text), &result); err != nil {
		prometheus.RecordGrokError("qualification", "parse")
		log.Error("Could not parse grok qualification output",
			zap.Uint("lead_id", lead.ID),
			zap.String("text_preview", preview(text, 200)),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": fmt.Sprintf("could not parse grok output: %s", preview(text, 200)),
		})
	}

	result.Score = clampScore(result.Score)
	lead.Score = result.Score
	if err := db.Save(&lead).Error; err != nil {
		log.Error("Failed to persist qualification score",
			zap.Uint("lead_id", lead.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to save qualification result",
		})
	}

	advanced, err := pipeline.AutoProgress(db, &lead, result.Score)
	if err != nil {
		log.Error("Failed to auto-progress lead",
			zap.Uint("lead_id", lead.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update lead stage",
		})
	}
	if advanced {
		prometheus.RecordStageTransition(string(model.StageNew), string(model.StageQualified), "qualification")
	}

	// Activity detail carries the full breakdown as a JSON fragment after a
	// short text prefix, which the UI parses for display.
	resultJSON, _ := json.Marshal(result)
	detail := fmt.Sprintf("Qualified with score %.0f %s", result.Score, resultJSON)
	if _, err := pipeline.LogActivity(db, lead.ID, model.ActorSystem, model.ActionQualificationCompleted, detail); err != nil {
		log.Error("Failed to log qualification", zap.Uint("lead_id", lead.ID), zap.Error(err))
	}

	prometheus.RecordLeadOperation("qualify")
	prometheus.RecordQualificationScore(result.Score)
	log.Info("Lead qualified successfully",
		zap.Uint("lead_id", lead.ID),
		zap.Float64("score", result.Score),
		zap.String("stage", string(lead.Stage)),
		zap.Bool("auto_advanced", advanced))

	return c.JSON(http.StatusOK, echo.Map{
		"lead_id":     lead.ID,
		"score":       lead.Score,
		"stage":       lead.Stage,
		"grok_output": result,
	})
}

func preview(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n]
}
