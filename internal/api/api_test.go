package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotisk95/Thalionyx/internal/api/recovery"
	"github.com/rotisk95/Thalionyx/internal/model"
	"github.com/rotisk95/Thalionyx/internal/services"
	"github.com/rotisk95/Thalionyx/internal/store/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Initialize(context.Background()))

	fragmentSvc := services.NewFragmentService(st, nil, zerolog.Nop())
	insightSvc := services.NewInsightService(st, 3, zerolog.Nop())
	recommendSvc := services.NewRecommendService(st, insightSvc)
	sessionSvc := services.NewSessionService(st)

	root := mux.NewRouter()
	root.Use(recovery.Middleware(zerolog.Nop()))

	fragment := NewFragmentHandler(fragmentSvc)
	root.HandleFunc("/v1/fragments", fragment.CreateFragment).Methods("POST")
	root.HandleFunc("/v1/fragments", fragment.ListFragments).Methods("GET")
	root.HandleFunc("/v1/fragments/{fragmentId}", fragment.GetFragment).Methods("GET")
	root.HandleFunc("/v1/fragments/{fragmentId}", fragment.DeleteFragment).Methods("DELETE")
	root.HandleFunc("/v1/fragments/{fragmentId}/tags", fragment.AddTag).Methods("POST")
	root.HandleFunc("/v1/fragments/{fragmentId}/ratings", fragment.AddRating).Methods("POST")
	root.HandleFunc("/v1/fragments/{fragmentId}/variations", fragment.AddVariation).Methods("POST")
	root.HandleFunc("/v1/fragments/{fragmentId}/responses", fragment.AddResponse).Methods("POST")
	root.HandleFunc("/v1/fragments/{fragmentId}/metadata", fragment.UpdateMetadata).Methods("PATCH")
	root.HandleFunc("/v1/selection/{fragmentId}", fragment.SelectFragment).Methods("PUT")
	root.HandleFunc("/v1/selection", fragment.ClearSelection).Methods("DELETE")
	root.HandleFunc("/v1/selection", fragment.GetSelection).Methods("GET")

	insight := NewInsightHandler(insightSvc, recommendSvc)
	root.HandleFunc("/v1/analysis", insight.RunAnalysis).Methods("POST")
	root.HandleFunc("/v1/insights", insight.LatestInsights).Methods("GET")
	root.HandleFunc("/v1/insights/history", insight.InsightHistory).Methods("GET")
	root.HandleFunc("/v1/recommendations", insight.Recommend).Methods("POST")

	session := NewSessionHandler(sessionSvc)
	root.HandleFunc("/v1/sessions", session.SaveSession).Methods("POST")
	root.HandleFunc("/v1/sessions", session.ListSessions).Methods("GET")

	srv := httptest.NewServer(root)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createFragment(t *testing.T, srv *httptest.Server) *model.Fragment {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/fragments", map[string]interface{}{
		"payload":    base64.StdEncoding.EncodeToString([]byte("clip-bytes")),
		"durationMs": 42000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[*model.Fragment](t, resp)
}

func TestCreateFragment_Defaults(t *testing.T) {
	srv := newTestServer(t)

	frag := createFragment(t, srv)
	assert.NotEmpty(t, frag.FragmentID)
	assert.Equal(t, []byte("clip-bytes"), frag.Payload)
	assert.Equal(t, model.DefaultMood, frag.Metadata.Mood)
	assert.Empty(t, frag.Tags)
}

func TestCreateFragment_Rejections(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/fragments", map[string]interface{}{
		"durationMs": 42000,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/v1/fragments", map[string]interface{}{
		"payload": base64.StdEncoding.EncodeToString([]byte("clip")),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetFragment_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/fragments/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTagRateAndReload(t *testing.T) {
	srv := newTestServer(t)
	frag := createFragment(t, srv)
	base := srv.URL + "/v1/fragments/" + frag.FragmentID

	resp := doJSON(t, http.MethodPost, base+"/tags", map[string]interface{}{
		"emotion": "calm", "intensity": 6, "confidence": 0.8,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tagged := decodeBody[*model.Fragment](t, resp)
	require.Len(t, tagged.Tags, 1)

	resp = doJSON(t, http.MethodPost, base+"/tags", map[string]interface{}{
		"emotion": "no-such-emotion", "intensity": 6, "confidence": 0.8,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, base+"/ratings", map[string]interface{}{
		"helpful": true, "resonance": 5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rated := decodeBody[*model.Fragment](t, resp)
	require.Len(t, rated.Ratings, 1)

	resp, err := http.Get(base)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reloaded := decodeBody[*model.Fragment](t, resp)
	assert.Len(t, reloaded.Tags, 1)
	assert.Len(t, reloaded.Ratings, 1)
	assert.Equal(t, []byte("clip-bytes"), reloaded.Payload)
}

func TestSelectionFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/selection")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	frag := createFragment(t, srv)

	resp = doJSON(t, http.MethodPut, srv.URL+"/v1/selection/"+frag.FragmentID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/v1/selection")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	selected := decodeBody[*model.Fragment](t, resp)
	assert.Equal(t, frag.FragmentID, selected.FragmentID)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/v1/selection", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/v1/selection")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteFragment(t *testing.T) {
	srv := newTestServer(t)
	frag := createFragment(t, srv)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/fragments/"+frag.FragmentID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/v1/fragments/" + frag.FragmentID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUpdateMetadata_WholeRecordReplace(t *testing.T) {
	srv := newTestServer(t)
	frag := createFragment(t, srv)
	url := srv.URL + "/v1/fragments/" + frag.FragmentID + "/metadata"

	// A partial body is rejected; the endpoint replaces the whole record.
	resp := doJSON(t, http.MethodPatch, url, map[string]interface{}{
		"mood": "calm", "clarity": 7,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, url, map[string]interface{}{
		"mood": "calm", "energy": 6, "clarity": 7, "keywords": []string{"evening"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[model.Fragment](t, resp)
	assert.Equal(t, "calm", updated.Metadata.Mood)
	assert.Equal(t, []string{"evening"}, updated.Metadata.Keywords)

	// Omitted keywords come back as the empty list, not the prior value.
	resp = doJSON(t, http.MethodPatch, url, map[string]interface{}{
		"mood": "calm", "energy": 6, "clarity": 7,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated = decodeBody[model.Fragment](t, resp)
	assert.Empty(t, updated.Metadata.Keywords)
	assert.NotNil(t, updated.Metadata.Keywords)
}

func TestAnalysisAndRecommendations(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 3; i++ {
		frag := createFragment(t, srv)
		base := srv.URL + "/v1/fragments/" + frag.FragmentID

		resp := doJSON(t, http.MethodPost, base+"/ratings", map[string]interface{}{
			"helpful": true, "resonance": 5,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, http.MethodPatch, base+"/metadata", map[string]interface{}{
			"mood": "anxious", "energy": 5, "clarity": 5,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/analysis", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	insights := decodeBody[[]*model.PatternInsight](t, resp)
	require.NotEmpty(t, insights, "three highly resonant anxious fragments form a cluster")

	resp, err := http.Get(srv.URL + "/v1/insights")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	latest := decodeBody[[]*model.PatternInsight](t, resp)
	assert.Equal(t, len(insights), len(latest))

	resp = doJSON(t, http.MethodPost, srv.URL+"/v1/recommendations", map[string]string{"mood": "anxious"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	matches := decodeBody[[]model.RecommendationMatch](t, resp)
	require.NotEmpty(t, matches)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/v1/recommendations", map[string]string{"mood": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSessions(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/sessions", map[string]interface{}{
		"fragmentIds": []string{"f1", "f2"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sess := decodeBody[*model.ReflectionSession](t, resp)
	assert.NotEmpty(t, sess.SessionID)
	assert.False(t, sess.StartTime.IsZero())

	resp, err := http.Get(srv.URL + "/v1/sessions")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decodeBody[[]*model.ReflectionSession](t, resp)
	require.Len(t, all, 1)
	assert.Equal(t, sess.SessionID, all[0].SessionID)
}

func TestMoodRequestTooLong(t *testing.T) {
	srv := newTestServer(t)
	mood := ""
	for i := 0; i < 60; i++ {
		mood += "m"
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/recommendations", map[string]string{"mood": mood})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
