package pipeline

import (
	"testing"

	"sdr-service/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Lead{}, &model.ActivityLog{}))
	return db
}

func createLead(t *testing.T, db *gorm.DB, stage model.PipelineStage) *model.Lead {
	t.Helper()
	lead := &model.Lead{Company: "Acme", Stage: stage}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

func TestProgressStage(t *testing.T) {
	db := testDB(t)
	lead := createLead(t, db, model.StageNew)

	updated, oldStage, err := ProgressStage(db, lead.ID, model.StageContacted, "user", "called them")
	require.NoError(t, err)
	assert.Equal(t, model.StageNew, oldStage)
	assert.Equal(t, model.StageContacted, updated.Stage)

	var activities []model.ActivityLog
	require.NoError(t, db.Where("lead_id = ?", lead.ID).Find(&activities).Error)
	require.Len(t, activities, 1)
	assert.Equal(t, model.ActionStageProgression, activities[0].Action)
	assert.Contains(t, activities[0].Detail, "Stage changed from New to Contacted")
	assert.Contains(t, activities[0].Detail, "called them")
}

func TestProgressStageAllowsAnyToAny(t *testing.T) {
	db := testDB(t)
	lead := createLead(t, db, model.StageWon)

	// Won is terminal for automatic transitions only; manual moves are free
	updated, _, err := ProgressStage(db, lead.ID, model.StageNew, "user", "")
	require.NoError(t, err)
	assert.Equal(t, model.StageNew, updated.Stage)
}

func TestProgressStageSameStageFails(t *testing.T) {
	db := testDB(t)
	lead := createLead(t, db, model.StageNew)

	_, _, err := ProgressStage(db, lead.ID, model.StageNew, "user", "")
	assert.ErrorIs(t, err, ErrSameStage)

	// no activity entry on a rejected progression
	var count int64
	require.NoError(t, db.Model(&model.ActivityLog{}).Where("lead_id = ?", lead.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProgressStageUnknownLead(t *testing.T) {
	db := testDB(t)
	_, _, err := ProgressStage(db, 999, model.StageWon, "user", "")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestProgressStageInvalidStage(t *testing.T) {
	db := testDB(t)
	lead := createLead(t, db, model.StageNew)

	_, _, err := ProgressStage(db, lead.ID, model.PipelineStage("Imaginary"), "user", "")
	assert.ErrorIs(t, err, ErrInvalidStage)
}

func TestAutoProgressAtThreshold(t *testing.T) {
	db := testDB(t)
	lead := createLead(t, db, model.StageNew)

	advanced, err := AutoProgress(db, lead, 70)
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, model.StageQualified, lead.Stage)

	var stored model.Lead
	require.NoError(t, db.First(&stored, lead.ID).Error)
	assert.Equal(t, model.StageQualified, stored.Stage)
}

func TestAutoProgressBelowThreshold(t *testing.T) {
	db := testDB(t)
	lead := createLead(t, db, model.StageNew)

	advanced, err := AutoProgress(db, lead, 69)
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Equal(t, model.StageNew, lead.Stage)

	var count int64
	require.NoError(t, db.Model(&model.ActivityLog{}).Where("lead_id = ?", lead.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAutoProgressOnlyFromNew(t *testing.T) {
	db := testDB(t)
	lead := createLead(t, db, model.StageContacted)

	advanced, err := AutoProgress(db, lead, 95)
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Equal(t, model.StageContacted, lead.Stage)
}

func TestLeadActivitiesNewestFirst(t *testing.T) {
	db := testDB(t)
	lead := createLead(t, db, model.StageNew)

	_, err := LogActivity(db, lead.ID, model.ActorSystem, model.ActionLeadCreated, "Lead created")
	require.NoError(t, err)
	_, err = LogActivity(db, lead.ID, model.ActorSystem, model.ActionQualificationCompleted, "Qualified with score 85")
	require.NoError(t, err)

	activities, err := LeadActivities(db, lead.ID)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, model.ActionQualificationCompleted, activities[0].Action)
	assert.Equal(t, model.ActionLeadCreated, activities[1].Action)
}

func TestLeadActivitiesUnknownLead(t *testing.T) {
	db := testDB(t)
	_, err := LeadActivities(db, 42)
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestStatsIncludesAllStages(t *testing.T) {
	db := testDB(t)
	createLead(t, db, model.StageNew)
	createLead(t, db, model.StageNew)
	createLead(t, db, model.StageWon)

	stats, err := Stats(db)
	require.NoError(t, err)
	assert.Len(t, stats, len(model.Stages))
	assert.Equal(t, int64(2), stats["New"])
	assert.Equal(t, int64(1), stats["Won"])
	assert.Equal(t, int64(0), stats["Lost"])
}

func TestGetAnalytics(t *testing.T) {
	db := testDB(t)
	createLead(t, db, model.StageWon)
	createLead(t, db, model.StageWon)
	createLead(t, db, model.StageLost)
	lead := createLead(t, db, model.StageNew)

	_, err := LogActivity(db, lead.ID, model.ActorSystem, model.ActionLeadCreated, "Lead created")
	require.NoError(t, err)

	analytics, err := GetAnalytics(db)
	require.NoError(t, err)
	assert.Equal(t, int64(4), analytics.TotalLeads)
	assert.Equal(t, int64(2), analytics.WonCount)
	assert.Equal(t, int64(1), analytics.LostCount)
	assert.InDelta(t, 66.67, analytics.ConversionRate, 0.001)
	assert.Len(t, analytics.RecentActivities, 1)
}

func TestGetAnalyticsNoClosedDeals(t *testing.T) {
	db := testDB(t)
	createLead(t, db, model.StageNew)

	analytics, err := GetAnalytics(db)
	require.NoError(t, err)
	assert.Zero(t, analytics.ConversionRate)
}

func TestStageCatalogMatchesStages(t *testing.T) {
	catalog := StageCatalog()
	require.Len(t, catalog, len(model.Stages))
	for i, info := range catalog {
		assert.Equal(t, string(model.Stages[i]), info.Stage)
		assert.NotEmpty(t, info.Description)
	}
}
