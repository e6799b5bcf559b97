package api

import (
	"encoding/json"
	"net/http"

	"github.com/rotisk95/Thalionyx/internal/api/respond"
	"github.com/rotisk95/Thalionyx/internal/api/validate"
	"github.com/rotisk95/Thalionyx/internal/model"
	"github.com/rotisk95/Thalionyx/internal/services"
)

// InsightHandler exposes analysis runs and recommendation queries.
type InsightHandler struct {
	insights  *services.InsightService
	recommend *services.RecommendService
}

func NewInsightHandler(insights *services.InsightService, recommend *services.RecommendService) *InsightHandler {
	return &InsightHandler{insights: insights, recommend: recommend}
}

// RunAnalysis handles POST /v1/analysis
func (h *InsightHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	insights, err := h.insights.Analyze(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if insights == nil {
		insights = []*model.PatternInsight{}
	}
	respond.WriteJSON(w, http.StatusOK, insights)
}

// LatestInsights handles GET /v1/insights
func (h *InsightHandler) LatestInsights(w http.ResponseWriter, r *http.Request) {
	latest := h.insights.Latest()
	if latest == nil {
		latest = []*model.PatternInsight{}
	}
	respond.WriteJSON(w, http.StatusOK, latest)
}

// InsightHistory handles GET /v1/insights/history
func (h *InsightHandler) InsightHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.insights.History(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if history == nil {
		history = []*model.PatternInsight{}
	}
	respond.WriteJSON(w, http.StatusOK, history)
}

// Recommend handles POST /v1/recommendations
func (h *InsightHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mood string `json:"mood"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Mood(req.Mood); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	matches, err := h.recommend.Recommend(r.Context(), req.Mood)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if matches == nil {
		matches = []model.RecommendationMatch{}
	}
	respond.WriteJSON(w, http.StatusOK, matches)
}
