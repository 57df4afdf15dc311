package handler

import (
	"net/http"
	"strconv"

	"sdr-service/internal/search"
	"sdr-service/pkg/database"
	"sdr-service/pkg/logger"
	"sdr-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const defaultSearchLimit = 50

// SearchAll searches leads, activity entries, and company metadata for a
// free-text query
func SearchAll(c echo.Context) error {
	log := logger.FromEcho(c)

	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "query parameter q is required",
		})
	}

	searchType := c.QueryParam("search_type")
	if searchType == "" {
		searchType = search.TypeAll
	}
	if !search.ValidType(searchType) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "unknown search_type: " + searchType,
		})
	}

	limit := defaultSearchLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "limit must be a positive integer",
			})
		}
		limit = parsed
	}

	log.Info("Searching leads",
		zap.String("query", query),
		zap.String("search_type", searchType),
		zap.Int("limit", limit))

	db := database.GetDB()

	leads, err := search.SearchLeads(db, query, searchType, limit)
	if err != nil {
		log.Error("Lead search failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Search failed",
		})
	}

	activities := []search.ActivityResult{}
	if searchType == search.TypeAll {
		activities, err = search.SearchActivities(db, query, limit)
		if err != nil {
			log.Error("Activity search failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Search failed",
			})
		}
	}

	metadata := []search.MetadataResult{}
	if searchType == search.TypeAll || searchType == search.TypeMetadata {
		metadata, err = search.SearchMetadata(db, query, limit)
		if err != nil {
			log.Error("Metadata search failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Search failed",
			})
		}
	}

	prometheus.RecordSearchQuery(searchType)
	log.Info("Search completed",
		zap.String("query", query),
		zap.Int("lead_matches", len(leads)),
		zap.Int("activity_matches", len(activities)),
		zap.Int("metadata_matches", len(metadata)))

	return c.JSON(http.StatusOK, echo.Map{
		"query":         query,
		"search_type":   searchType,
		"leads":         leads,
		"activities":    activities,
		"metadata":      metadata,
		"total_results": len(leads) + len(activities) + len(metadata),
	})
}

// SearchSuggestions returns type-ahead suggestion lists for a partial query
func SearchSuggestions(c echo.Context) error {
	log := logger.FromEcho(c)
	query := c.QueryParam("q")

	suggestions, err := search.GetSuggestions(database.GetDB(), query)
	if err != nil {
		log.Error("Suggestion lookup failed",
			zap.String("query", query),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Suggestion lookup failed",
		})
	}

	return c.JSON(http.StatusOK, suggestions)
}
