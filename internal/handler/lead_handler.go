package handler

import (
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"

	"sdr-service/internal/model"
	"sdr-service/internal/pipeline"
	"sdr-service/pkg/database"
	"sdr-service/pkg/logger"
	"sdr-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LeadCreateRequest defines the structure for lead creation requests
type LeadCreateRequest struct {
	Company         string                 `json:"company"`
	Name            string                 `json:"name"`
	Title           string                 `json:"title"`
	Email           string                 `json:"email"`
	Phone           string                 `json:"phone"`
	Website         string                 `json:"website"`
	CompanyMetadata map[string]interface{} `json:"company_metadata"`
}

// LeadUpdateRequest defines the structure for partial lead updates. Nil
// fields are left untouched.
type LeadUpdateRequest struct {
	Company         *string                `json:"company"`
	Name            *string                `json:"name"`
	Title           *string                `json:"title"`
	Email           *string                `json:"email"`
	Phone           *string                `json:"phone"`
	Website         *string                `json:"website"`
	CompanyMetadata map[string]interface{} `json:"company_metadata"`
	Stage           *string                `json:"stage"`
}

// validEmail reports whether raw is a well-formed email address
func validEmail(raw string) bool {
	_, err := mail.ParseAddress(raw)
	return err == nil
}

// validWebsite accepts http(s) URLs and bare domain names
func validWebsite(raw string) bool {
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return false
		}
		return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	}
	return !strings.ContainsAny(raw, " \t") && strings.Contains(raw, ".")
}

// ListLeads handles retrieving all leads, newest first, with an optional
// stage filter
func ListLeads(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Listing leads")

	db := database.GetDB()
	query := db.Order("created_at DESC").Order("id DESC")

	// Filter by stage if specified
	stage := c.QueryParam("stage")
	if stage != "" {
		if !model.PipelineStage(stage).Valid() {
			log.Warn("Invalid stage filter", zap.String("stage", stage))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "unknown pipeline stage: " + stage,
			})
		}
		query = query.Where("stage = ?", stage)
		log.Info("Filtering leads by stage", zap.String("stage", stage))
	}

	var leads []model.Lead
	result := query.Find(&leads)
	if result.Error != nil {
		log.Error("Failed to list leads", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve leads",
		})
	}

	log.Info("Leads retrieved successfully", zap.Int("count", len(leads)))
	return c.JSON(http.StatusOK, leads)
}

// GetLead handles retrieving a single lead by ID
func GetLead(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	log.Info("Getting lead by ID", zap.String("lead_id", id))

	var lead model.Lead
	result := database.GetDB().First(&lead, id)
	if result.Error != nil {
		log.Error("Lead not found",
			zap.String("lead_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "lead not found",
		})
	}

	return c.JSON(http.StatusOK, lead)
}

// CreateLead handles creating a new lead
func CreateLead(c echo.Context) error {
	log := logger.FromEcho(c)
	log.Info("Creating new lead")

	var req LeadCreateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if strings.TrimSpace(req.Company) == "" {
		log.Warn("Lead creation without company name")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "company is required",
		})
	}
	if req.Email != "" && !validEmail(req.Email) {
		log.Warn("Malformed email on lead creation", zap.String("email", req.Email))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "malformed email address",
		})
	}
	if req.Website != "" && !validWebsite(req.Website) {
		log.Warn("Malformed website on lead creation", zap.String("website", req.Website))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "malformed website URL",
		})
	}

	metadata := req.CompanyMetadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	lead := model.Lead{
		Company:         req.Company,
		Name:            req.Name,
		Title:           req.Title,
		Email:           req.Email,
		Phone:           req.Phone,
		Website:         req.Website,
		CompanyMetadata: datatypes.JSONMap(metadata),
		Stage:           model.StageNew,
	}

	db := database.GetDB()
	if err := db.Create(&lead).Error; err != nil {
		log.Error("Failed to create lead",
			zap.String("company", req.Company),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create lead",
		})
	}

	if _, err := pipeline.LogActivity(db, lead.ID, model.ActorSystem, model.ActionLeadCreated, "Lead created"); err != nil {
		log.Error("Failed to log lead creation", zap.Uint("lead_id", lead.ID), zap.Error(err))
	}

	prometheus.RecordLeadOperation("create")
	log.Info("Lead created successfully",
		zap.Uint("lead_id", lead.ID),
		zap.String("company", lead.Company))
	return c.JSON(http.StatusCreated, lead)
}

// UpdateLead handles partially updating an existing lead. Stage changes go
// through the stage machine so they are logged as stage progressions.
func UpdateLead(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	log.Info("Updating lead", zap.String("lead_id", id))

	var req LeadUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.String("lead_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	db := database.GetDB()
	var lead model.Lead
	if err := db.First(&lead, id).Error; err != nil {
		log.Error("Lead not found for update",
			zap.String("lead_id", id),
			zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "lead not found",
		})
	}

	if req.Company != nil && strings.TrimSpace(*req.Company) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "company cannot be empty",
		})
	}
	if req.Email != nil && *req.Email != "" && !validEmail(*req.Email) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "malformed email address",
		})
	}
	if req.Website != nil && *req.Website != "" && !validWebsite(*req.Website) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "malformed website URL",
		})
	}
	if req.Stage != nil && !model.PipelineStage(*req.Stage).Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "unknown pipeline stage: " + *req.Stage,
		})
	}

	var changed []string
	if req.Company != nil && *req.Company != lead.Company {
		lead.Company = *req.Company
		changed = append(changed, "company")
	}
	if req.Name != nil && *req.Name != lead.Name {
		lead.Name = *req.Name
		changed = append(changed, "name")
	}
	if req.Title != nil && *req.Title != lead.Title {
		lead.Title = *req.Title
		changed = append(changed, "title")
	}
	if req.Email != nil && *req.Email != lead.Email {
		lead.Email = *req.Email
		changed = append(changed, "email")
	}
	if req.Phone != nil && *req.Phone != lead.Phone {
		lead.Phone = *req.Phone
		changed = append(changed, "phone")
	}
	if req.Website != nil && *req.Website != lead.Website {
		lead.Website = *req.Website
		changed = append(changed, "website")
	}
	if req.CompanyMetadata != nil {
		lead.CompanyMetadata = datatypes.JSONMap(req.CompanyMetadata)
		changed = append(changed, "company_metadata")
	}

	if len(changed) > 0 {
		if err := db.Save(&lead).Error; err != nil {
			log.Error("Failed to update lead",
				zap.String("lead_id", id),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to update lead",
			})
		}
		detail := fmt.Sprintf("Updated fields: %s", strings.Join(changed, ", "))
		if _, err := pipeline.LogActivity(db, lead.ID, model.ActorSystem, model.ActionLeadUpdated, detail); err != nil {
			log.Error("Failed to log lead update", zap.Uint("lead_id", lead.ID), zap.Error(err))
		}
	}

	// Stage changes are a stage-machine concern; a same-stage value in the
	// update payload is simply ignored.
	if req.Stage != nil && model.PipelineStage(*req.Stage) != lead.Stage {
		updated, oldStage, err := pipeline.ProgressStage(db, lead.ID, model.PipelineStage(*req.Stage), "user", "")
		if err != nil {
			log.Error("Failed to progress lead stage",
				zap.String("lead_id", id),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to update lead stage",
			})
		}
		prometheus.RecordStageTransition(string(oldStage), *req.Stage, "manual")
		lead = *updated
	}

	prometheus.RecordLeadOperation("update")
	log.Info("Lead updated successfully",
		zap.Uint("lead_id", lead.ID),
		zap.Strings("changed_fields", changed))
	return c.JSON(http.StatusOK, lead)
}

// DeleteLead handles deleting a lead along with its activity-log entries
func DeleteLead(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")
	log.Info("Deleting lead", zap.String("lead_id", id))

	db := database.GetDB()
	var lead model.Lead
	if err := db.First(&lead, id).Error; err != nil {
		log.Warn("Lead not found for deletion",
			zap.String("lead_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "lead not found",
		})
	}

	// Activity entries cascade with the lead, in one transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", lead.ID).Delete(&model.ActivityLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&lead).Error
	})
	if err != nil {
		log.Error("Failed to delete lead",
			zap.String("lead_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete lead",
		})
	}

	prometheus.RecordLeadOperation("delete")
	log.Info("Lead deleted successfully",
		zap.Uint("lead_id", lead.ID),
		zap.String("company", lead.Company),
		zap.String("action", model.ActionLeadDeleted))
	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("Lead %d deleted successfully", lead.ID),
	})
}

// parseID converts a path parameter into a lead ID
func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}
