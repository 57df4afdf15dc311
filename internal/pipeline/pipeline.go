// Package pipeline implements the lead lifecycle: manual stage progression,
// score-driven auto-advancement after qualification, activity logging, and
// the aggregate pipeline views.
package pipeline

import (
	"errors"
	"fmt"
	"math"

	"sdr-service/internal/model"

	"gorm.io/gorm"
)

// QualifiedScoreThreshold is the score at or above which a freshly scored
// lead in the New stage is auto-advanced to Qualified.
const QualifiedScoreThreshold = 70.0

var (
	// ErrLeadNotFound is returned when the referenced lead does not exist
	ErrLeadNotFound = errors.New("lead not found")
	// ErrSameStage is returned when a manual progression targets the lead's current stage
	ErrSameStage = errors.New("lead is already in the requested stage")
	// ErrInvalidStage is returned when the requested stage is not a known pipeline stage
	ErrInvalidStage = errors.New("unknown pipeline stage")
)

// StageInfo describes one pipeline stage for the stage catalog
type StageInfo struct {
	Stage       string `json:"stage"`
	Description string `json:"description"`
}

// StageCatalog returns all pipeline stages with descriptions
func StageCatalog() []StageInfo {
	return []StageInfo{
		{Stage: "New", Description: "Newly added lead, not yet qualified"},
		{Stage: "Qualified", Description: "Lead has been qualified and scored"},
		{Stage: "Contacted", Description: "Initial outreach has been made"},
		{Stage: "Meeting", Description: "Meeting or demo scheduled/completed"},
		{Stage: "Won", Description: "Deal closed successfully"},
		{Stage: "Lost", Description: "Deal lost or disqualified"},
	}
}

// LogActivity appends an activity entry for a lead
func LogActivity(db *gorm.DB, leadID uint, actor, action, detail string) (*model.ActivityLog, error) {
	entry := model.ActivityLog{
		LeadID: leadID,
		Actor:  actor,
		Action: action,
		Detail: detail,
	}
	if err := db.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ProgressStage moves a lead to a new stage by explicit request. Any stage is
// reachable from any other; the only validations are that the lead exists,
// the target stage is known, and the target differs from the current stage.
// Returns the updated lead and the stage it moved from.
func ProgressStage(db *gorm.DB, leadID uint, newStage model.PipelineStage, actor, reason string) (*model.Lead, model.PipelineStage, error) {
	if !newStage.Valid() {
		return nil, "", ErrInvalidStage
	}

	var lead model.Lead
	if err := db.First(&lead, leadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrLeadNotFound
		}
		return nil, "", err
	}

	if lead.Stage == newStage {
		return nil, "", ErrSameStage
	}

	oldStage := lead.Stage
	lead.Stage = newStage
	if err := db.Save(&lead).Error; err != nil {
		return nil, "", err
	}

	detail := fmt.Sprintf("Stage changed from %s to %s", oldStage, newStage)
	if reason != "" {
		detail += " - " + reason
	}
	if _, err := LogActivity(db, lead.ID, actor, model.ActionStageProgression, detail); err != nil {
		return nil, "", err
	}

	return &lead, oldStage, nil
}

// AutoProgress applies the single automatic transition rule after a
// qualification: a lead in New with a score at or above the threshold moves
// to Qualified. It returns whether the transition fired. The lead's score is
// expected to be persisted already.
func AutoProgress(db *gorm.DB, lead *model.Lead, score float64) (bool, error) {
	if lead.Stage != model.StageNew || score < QualifiedScoreThreshold {
		return false, nil
	}

	lead.Stage = model.StageQualified
	if err := db.Save(lead).Error; err != nil {
		return false, err
	}

	detail := fmt.Sprintf("Stage changed from %s to %s - qualification score %.0f", model.StageNew, model.StageQualified, score)
	if _, err := LogActivity(db, lead.ID, model.ActorSystem, model.ActionStageProgression, detail); err != nil {
		return false, err
	}

	return true, nil
}

// LeadActivities returns all activity entries for a lead, newest first
func LeadActivities(db *gorm.DB, leadID uint) ([]model.ActivityLog, error) {
	var count int64
	if err := db.Model(&model.Lead{}).Where("id = ?", leadID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrLeadNotFound
	}

	activities := make([]model.ActivityLog, 0)
	err := db.Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// Stats returns the lead count per pipeline stage. Every stage is present in
// the result, zero counts included.
func Stats(db *gorm.DB) (map[string]int64, error) {
	stats := make(map[string]int64, len(model.Stages))
	for _, stage := range model.Stages {
		var count int64
		if err := db.Model(&model.Lead{}).Where("stage = ?", stage).Count(&count).Error; err != nil {
			return nil, err
		}
		stats[string(stage)] = count
	}
	return stats, nil
}

// Analytics is the aggregate pipeline report
type Analytics struct {
	TotalLeads        int64               `json:"total_leads"`
	StageDistribution map[string]int64    `json:"stage_distribution"`
	ConversionRate    float64             `json:"conversion_rate"`
	WonCount          int64               `json:"won_count"`
	LostCount         int64               `json:"lost_count"`
	RecentActivities  []model.ActivityLog `json:"recent_activities"`
}

// GetAnalytics computes pipeline totals, the won/lost conversion rate, and
// the most recent activity entries.
func GetAnalytics(db *gorm.DB) (*Analytics, error) {
	stats, err := Stats(db)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := db.Model(&model.Lead{}).Count(&total).Error; err != nil {
		return nil, err
	}

	won := stats[string(model.StageWon)]
	lost := stats[string(model.StageLost)]
	closed := won + lost

	conversionRate := 0.0
	if closed > 0 {
		conversionRate = math.Round(float64(won)/float64(closed)*100*100) / 100
	}

	recent := make([]model.ActivityLog, 0)
	err = db.Order("created_at DESC").
		Order("id DESC").
		Limit(10).
		Find(&recent).Error
	if err != nil {
		return nil, err
	}

	return &Analytics{
		TotalLeads:        total,
		StageDistribution: stats,
		ConversionRate:    conversionRate,
		WonCount:          won,
		LostCount:         lost,
		RecentActivities:  recent,
	}, nil
}
