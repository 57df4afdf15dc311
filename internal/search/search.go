// Package search implements the naive substring search over leads, activity
// entries, and company metadata. There is no index; every query is a scan,
// which is acceptable at demo scale.
package search

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"sdr-service/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Search type filters accepted by SearchLeads
const (
	TypeAll      = "all"
	TypeCompany  = "company"
	TypeContact  = "contact"
	TypeMetadata = "metadata"
)

// ValidType reports whether searchType is a known result-type filter
func ValidType(searchType string) bool {
	switch searchType {
	case TypeAll, TypeCompany, TypeContact, TypeMetadata:
		return true
	}
	return false
}

// LeadResult is one lead match with its relevance score and match type
type LeadResult struct {
	ID              uint                `json:"id"`
	Company         string              `json:"company"`
	Name            string              `json:"name"`
	Title           string              `json:"title"`
	Email           string              `json:"email"`
	Phone           string              `json:"phone"`
	Website         string              `json:"website"`
	Score           float64             `json:"score"`
	Stage           model.PipelineStage `json:"stage"`
	CreatedAt       time.Time           `json:"created_at"`
	CompanyMetadata datatypes.JSONMap   `json:"company_metadata"`
	RelevanceScore  float64             `json:"relevance_score"`
	MatchType       string              `json:"match_type"`
}

// ActivityResult is one activity-log match
type ActivityResult struct {
	ID             uint      `json:"id"`
	LeadID         uint      `json:"lead_id"`
	LeadCompany    string    `json:"lead_company"`
	Actor          string    `json:"actor"`
	Action         string    `json:"action"`
	Detail         string    `json:"detail"`
	CreatedAt      time.Time `json:"created_at"`
	RelevanceScore float64   `json:"relevance_score"`
	MatchType      string    `json:"match_type"`
}

// MetadataResult is one company-metadata field match
type MetadataResult struct {
	LeadID  uint        `json:"lead_id"`
	Company string      `json:"company"`
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
}

// Suggestions holds the type-ahead suggestion lists
type Suggestions struct {
	Companies  []string `json:"companies"`
	Contacts   []string `json:"contacts"`
	Industries []string `json:"industries"`
	TechStacks []string `json:"tech_stacks"`
}

const suggestionLimit = 10

// SearchLeads finds leads whose fields contain the query, filtered by search
// type, ranked by relevance.
func SearchLeads(db *gorm.DB, query, searchType string, limit int) ([]LeadResult, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	var conditions []string
	var args []interface{}
	add := func(cond string) {
		conditions = append(conditions, cond)
		args = append(args, pattern)
	}

	if searchType == TypeAll || searchType == TypeCompany {
		add("LOWER(company) LIKE ?")
	}
	if searchType == TypeAll || searchType == TypeContact {
		add("LOWER(name) LIKE ?")
		add("LOWER(title) LIKE ?")
		add("LOWER(email) LIKE ?")
	}
	if searchType == TypeAll || searchType == TypeMetadata {
		add("LOWER(CAST(company_metadata AS TEXT)) LIKE ?")
	}

	var leads []model.Lead
	err := db.Where(strings.Join(conditions, " OR "), args...).
		Limit(limit).
		Find(&leads).Error
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	results := make([]LeadResult, 0, len(leads))
	for i := range leads {
		lead := &leads[i]
		results = append(results, LeadResult{
			ID:              lead.ID,
			Company:         lead.Company,
			Name:            lead.Name,
			Title:           lead.Title,
			Email:           lead.Email,
			Phone:           lead.Phone,
			Website:         lead.Website,
			Score:           lead.Score,
			Stage:           lead.Stage,
			CreatedAt:       lead.CreatedAt,
			CompanyMetadata: lead.CompanyMetadata,
			RelevanceScore:  leadRelevance(lead, queryLower),
			MatchType:       leadMatchType(lead, queryLower),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	return results, nil
}

// SearchActivities finds activity entries whose action, detail, or actor
// contains the query, newest first, ranked by relevance.
func SearchActivities(db *gorm.DB, query string, limit int) ([]ActivityResult, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	var activities []model.ActivityLog
	err := db.Where("LOWER(action) LIKE ? OR LOWER(detail) LIKE ? OR LOWER(actor) LIKE ?",
		pattern, pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	results := make([]ActivityResult, 0, len(activities))
	for i := range activities {
		activity := &activities[i]

		company := "Unknown"
		var lead model.Lead
		if err := db.First(&lead, activity.LeadID).Error; err == nil {
			company = lead.Company
		}

		results = append(results, ActivityResult{
			ID:             activity.ID,
			LeadID:         activity.LeadID,
			LeadCompany:    company,
			Actor:          activity.Actor,
			Action:         activity.Action,
			Detail:         activity.Detail,
			CreatedAt:      activity.CreatedAt,
			RelevanceScore: activityRelevance(activity, queryLower),
			MatchType:      activityMatchType(activity, queryLower),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	return results, nil
}

// SearchMetadata scans company metadata fields for values containing the
// query and returns one result per matching field.
func SearchMetadata(db *gorm.DB, query string, limit int) ([]MetadataResult, error) {
	var leads []model.Lead
	if err := db.Where("company_metadata IS NOT NULL").Find(&leads).Error; err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var results []MetadataResult
	for i := range leads {
		lead := &leads[i]
		for field, value := range lead.CompanyMetadata {
			if containsFold(value, queryLower) {
				results = append(results, MetadataResult{
					LeadID:  lead.ID,
					Company: lead.Company,
					Field:   field,
					Value:   value,
				})
			}
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// GetSuggestions returns type-ahead suggestion lists for the partial query
func GetSuggestions(db *gorm.DB, query string) (*Suggestions, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	queryLower := strings.ToLower(query)

	suggestions := &Suggestions{
		Companies:  []string{},
		Contacts:   []string{},
		Industries: []string{},
		TechStacks: []string{},
	}

	err := db.Model(&model.Lead{}).
		Distinct("company").
		Where("LOWER(company) LIKE ?", pattern).
		Limit(suggestionLimit).
		Pluck("company", &suggestions.Companies).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&model.Lead{}).
		Distinct("name").
		Where("name <> '' AND LOWER(name) LIKE ?", pattern).
		Limit(suggestionLimit).
		Pluck("name", &suggestions.Contacts).Error
	if err != nil {
		return nil, err
	}

	var leads []model.Lead
	if err := db.Where("company_metadata IS NOT NULL").Find(&leads).Error; err != nil {
		return nil, err
	}

	industries := make(map[string]struct{})
	techStacks := make(map[string]struct{})
	for i := range leads {
		meta := leads[i].CompanyMetadata
		if industry, ok := meta["industry"]; ok {
			if s := asMatchingString(industry, queryLower); s != "" {
				industries[s] = struct{}{}
			}
		}
		if stack, ok := meta["tech_stack"]; ok {
			switch v := stack.(type) {
			case []interface{}:
				for _, item := range v {
					if s := asMatchingString(item, queryLower); s != "" {
						techStacks[s] = struct{}{}
					}
				}
			default:
				if s := asMatchingString(v, queryLower); s != "" {
					techStacks[s] = struct{}{}
				}
			}
		}
	}
	suggestions.Industries = sortedKeys(industries, suggestionLimit)
	suggestions.TechStacks = sortedKeys(techStacks, suggestionLimit)

	return suggestions, nil
}

// leadRelevance is a match-count heuristic, weighted by field importance
func leadRelevance(lead *model.Lead, query string) float64 {
	score := 0.0

	if strings.Contains(strings.ToLower(lead.Company), query) {
		score += 10.0
		if strings.HasPrefix(strings.ToLower(lead.Company), query) {
			score += 5.0
		}
	}
	if lead.Name != "" && strings.Contains(strings.ToLower(lead.Name), query) {
		score += 8.0
	}
	if lead.Title != "" && strings.Contains(strings.ToLower(lead.Title), query) {
		score += 6.0
	}
	if lead.Email != "" && strings.Contains(strings.ToLower(lead.Email), query) {
		score += 7.0
	}
	if metadataContains(lead.CompanyMetadata, query) {
		score += 4.0
	}

	return score
}

func leadMatchType(lead *model.Lead, query string) string {
	switch {
	case strings.Contains(strings.ToLower(lead.Company), query):
		return "company"
	case lead.Name != "" && strings.Contains(strings.ToLower(lead.Name), query):
		return "contact"
	case lead.Title != "" && strings.Contains(strings.ToLower(lead.Title), query):
		return "title"
	case lead.Email != "" && strings.Contains(strings.ToLower(lead.Email), query):
		return "email"
	case metadataContains(lead.CompanyMetadata, query):
		return "metadata"
	default:
		return "unknown"
	}
}

func activityRelevance(activity *model.ActivityLog, query string) float64 {
	score := 0.0
	if strings.Contains(strings.ToLower(activity.Action), query) {
		score += 5.0
	}
	if strings.Contains(strings.ToLower(activity.Detail), query) {
		score += 10.0
	}
	if strings.Contains(strings.ToLower(activity.Actor), query) {
		score += 3.0
	}
	return score
}

func activityMatchType(activity *model.ActivityLog, query string) string {
	switch {
	case strings.Contains(strings.ToLower(activity.Action), query):
		return "action"
	case strings.Contains(strings.ToLower(activity.Detail), query):
		return "detail"
	case strings.Contains(strings.ToLower(activity.Actor), query):
		return "actor"
	default:
		return "unknown"
	}
}

func metadataContains(meta datatypes.JSONMap, query string) bool {
	if len(meta) == 0 {
		return false
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(raw)), query)
}

// containsFold reports whether the string form of value contains query,
// case-insensitively. Arrays match when any element matches.
func containsFold(value interface{}, query string) bool {
	switch v := value.(type) {
	case []interface{}:
		for _, item := range v {
			if containsFold(item, query) {
				return true
			}
		}
		return false
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return false
		}
		return strings.Contains(strings.ToLower(string(raw)), query)
	}
}

func asMatchingString(value interface{}, query string) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	if strings.Contains(strings.ToLower(s), query) {
		return s
	}
	return ""
}

func sortedKeys(set map[string]struct{}, limit int) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
