package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rotisk95/Thalionyx/internal/api/respond"
	"github.com/rotisk95/Thalionyx/internal/api/validate"
	"github.com/rotisk95/Thalionyx/internal/model"
	"github.com/rotisk95/Thalionyx/internal/services"
)

// FragmentHandler handles fragment-related HTTP requests (thin transport
// layer). Payload fields are base64 strings on the wire; encoding/json maps
// them to []byte.
type FragmentHandler struct {
	fragments *services.FragmentService
}

func NewFragmentHandler(fragments *services.FragmentService) *FragmentHandler {
	return &FragmentHandler{fragments: fragments}
}

// CreateFragment handles POST /v1/fragments
func (h *FragmentHandler) CreateFragment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payload    []byte `json:"payload"`
		DurationMs int64  `json:"durationMs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Capture(req.Payload, req.DurationMs); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	frag, err := h.fragments.CreateFromCapture(r.Context(), req.Payload, req.DurationMs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, frag)
}

// ListFragments handles GET /v1/fragments
func (h *FragmentHandler) ListFragments(w http.ResponseWriter, r *http.Request) {
	frags, err := h.fragments.ListFragments(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if frags == nil {
		frags = []*model.Fragment{}
	}
	respond.WriteJSON(w, http.StatusOK, frags)
}

// GetFragment handles GET /v1/fragments/{fragmentId}
func (h *FragmentHandler) GetFragment(w http.ResponseWriter, r *http.Request) {
	frag, err := h.fragments.GetFragment(r.Context(), mux.Vars(r)["fragmentId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, frag)
}

// DeleteFragment handles DELETE /v1/fragments/{fragmentId}
func (h *FragmentHandler) DeleteFragment(w http.ResponseWriter, r *http.Request) {
	if err := h.fragments.DeleteFragment(r.Context(), mux.Vars(r)["fragmentId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTag handles POST /v1/fragments/{fragmentId}/tags
func (h *FragmentHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Emotion    string  `json:"emotion"`
		Intensity  int     `json:"intensity"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Tag(req.Emotion, req.Intensity, req.Confidence); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	frag, err := h.fragments.AddTag(r.Context(), mux.Vars(r)["fragmentId"], model.EmotionTag{
		Emotion:    model.EmotionType(req.Emotion),
		Intensity:  req.Intensity,
		Confidence: req.Confidence,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, frag)
}

// AddRating handles POST /v1/fragments/{fragmentId}/ratings
func (h *FragmentHandler) AddRating(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Helpful   bool    `json:"helpful"`
		Resonance int     `json:"resonance"`
		Context   *string `json:"context,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Rating(req.Resonance); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	frag, err := h.fragments.AddRating(r.Context(), mux.Vars(r)["fragmentId"], req.Helpful, req.Resonance, req.Context)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, frag)
}

// AddVariation handles POST /v1/fragments/{fragmentId}/variations
func (h *FragmentHandler) AddVariation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Effect  string `json:"effect"`
		Payload []byte `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Variation(req.Effect, req.Payload); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	frag, err := h.fragments.AddVariation(r.Context(), mux.Vars(r)["fragmentId"], req.Effect, req.Payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, frag)
}

// AddResponse handles POST /v1/fragments/{fragmentId}/responses
func (h *FragmentHandler) AddResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind    string  `json:"kind"`
		Notes   *string `json:"notes,omitempty"`
		Payload []byte  `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Response(req.Kind, req.Payload); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	frag, err := h.fragments.AddResponse(r.Context(), mux.Vars(r)["fragmentId"], model.ResponseKind(req.Kind), req.Notes, req.Payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, frag)
}

// UpdateMetadata handles PATCH /v1/fragments/{fragmentId}/metadata
func (h *FragmentHandler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mood     string   `json:"mood"`
		Energy   int      `json:"energy"`
		Clarity  int      `json:"clarity"`
		Keywords []string `json:"keywords"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Metadata(req.Mood, req.Energy, req.Clarity); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	frag, err := h.fragments.UpdateMetadata(r.Context(), mux.Vars(r)["fragmentId"], model.FragmentMetadata{
		Mood:     req.Mood,
		Energy:   req.Energy,
		Clarity:  req.Clarity,
		Keywords: req.Keywords,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, frag)
}

// SelectFragment handles PUT /v1/selection/{fragmentId}
func (h *FragmentHandler) SelectFragment(w http.ResponseWriter, r *http.Request) {
	frag, err := h.fragments.SelectFragment(r.Context(), mux.Vars(r)["fragmentId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, frag)
}

// ClearSelection handles DELETE /v1/selection
func (h *FragmentHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.fragments.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

// GetSelection handles GET /v1/selection
func (h *FragmentHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	frag, err := h.fragments.SelectedFragment(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if frag == nil {
		respond.WriteNotFound(w, "no fragment selected")
		return
	}
	respond.WriteJSON(w, http.StatusOK, frag)
}
