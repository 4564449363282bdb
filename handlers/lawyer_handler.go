package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"turn2law-backend/models"
	"turn2law-backend/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LawyerHandler handles HTTP requests for lawyer recommendations
type LawyerHandler struct {
	matchService *service.MatchService
}

// NewLawyerHandler creates a new lawyer handler
func NewLawyerHandler(matchService *service.MatchService) *LawyerHandler {
	return &LawyerHandler{
		matchService: matchService,
	}
}

// RecommendRequest represents the request body for a recommendation
type RecommendRequest struct {
	Location          string   `json:"location"`
	PreferredLanguage string   `json:"preferredLanguage"`
	Urgency           string   `json:"urgency"`
	Budget            *float64 `json:"budget"`
}

// Recommend handles POST /api/lawyers/recommend
func (h *LawyerHandler) Recommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": bindDetails(err),
		})
		return
	}

	result, err := h.matchService.Recommend(c.Request.Context(), models.MatchRequest{
		Location:          req.Location,
		PreferredLanguage: req.PreferredLanguage,
		Urgency:           models.Urgency(req.Urgency),
		Budget:            req.Budget,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lawyers": result.Lawyers,
		"total":   result.Total,
		"message": result.Message,
	})
}

// List handles GET /api/lawyers/list
func (h *LawyerHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": []service.FieldError{{Field: "page", Message: "must be an integer"}},
		})
		return
	}
	limit, err := queryInt(c, "limit", service.DefaultPageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": []service.FieldError{{Field: "limit", Message: "must be an integer"}},
		})
		return
	}

	result, err := h.matchService.List(c.Request.Context(), service.ListRequest{Page: page, Limit: limit})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func writeError(c *gin.Context, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		body := gin.H{"error": ve.Message}
		if len(ve.Details) > 0 {
			body["details"] = ve.Details
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	if service.IsRetrieval(err) {
		zap.L().Error("lawyers: storage unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to search lawyers database",
		})
		return
	}

	zap.L().Error("lawyers: request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Failed to process lawyer recommendation request",
		"details": err.Error(),
	})
}

// bindDetails turns a JSON decoding error into field errors
func bindDetails(err error) []service.FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return []service.FieldError{{
			Field:   field,
			Message: "expected " + typeErr.Type.String() + ", got " + typeErr.Value,
		}}
	}
	return []service.FieldError{{Field: "body", Message: err.Error()}}
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
