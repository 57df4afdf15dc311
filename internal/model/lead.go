package model

import (
	"time"

	"gorm.io/datatypes"
)

// PipelineStage is the lead's position in the sales pipeline
type PipelineStage string

const (
	StageNew       PipelineStage = "New"
	StageQualified PipelineStage = "Qualified"
	StageContacted PipelineStage = "Contacted"
	StageMeeting   PipelineStage = "Meeting"
	StageWon       PipelineStage = "Won"
	StageLost      PipelineStage = "Lost"
)

// Stages lists every pipeline stage in pipeline order
var Stages = []PipelineStage{
	StageNew,
	StageQualified,
	StageContacted,
	StageMeeting,
	StageWon,
	StageLost,
}

// Valid reports whether s is one of the known pipeline stages
func (s PipelineStage) Valid() bool {
	for _, stage := range Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// Lead represents a prospective customer tracked through the pipeline
type Lead struct {
	ID              uint              `json:"id" gorm:"primarykey"`
	Company         string            `json:"company" gorm:"type:varchar(255);not null"`
	Name            string            `json:"name" gorm:"type:varchar(255)"`
	Title           string            `json:"title" gorm:"type:varchar(255)"`
	Email           string            `json:"email" gorm:"type:varchar(255)"`
	Phone           string            `json:"phone" gorm:"type:varchar(50)"`
	Website         string            `json:"website" gorm:"type:varchar(255)"`
	CompanyMetadata datatypes.JSONMap `json:"company_metadata"`
	Score           float64           `json:"score" gorm:"default:0"`
	Stage           PipelineStage     `json:"stage" gorm:"type:varchar(20);default:'New';index"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
