package feature_repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meysamhadeli/assemble/feature_repository/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, configure ...func(*ClientConfig)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := ClientConfig{
		BaseURL:          server.URL + "/assemble",
		Token:            "secret",
		AuthPollInterval: 10 * time.Millisecond,
		AuthTimeout:      2 * time.Second,
	}
	for _, fn := range configure {
		fn(&config)
	}

	client, err := NewClient(config)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_SubmitSendsCodeContentAndToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/assemble/submit", r.URL.Path)
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))

		var body models.CodeContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "x = 1", body.CodeContent)

		writeJSON(w, http.StatusOK, map[string]any{"result": true})
	}))

	response, err := client.Submit(context.Background(), "x = 1")
	require.NoError(t, err)
	assert.True(t, response.Result)
}

func TestClient_GetSubmissionDecodesTriStateFlags(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"result": true, "state": {"load": true, "check": false, "fork": null}}`))
	}))

	response, err := client.GetSubmission(context.Background())
	require.NoError(t, err)
	require.NotNil(t, response.State)

	assert.True(t, *response.State.Flag(models.StageLoad))
	assert.False(t, *response.State.Flag(models.StageCheck))
	assert.Nil(t, response.State.Flag(models.StageFork))
	assert.Nil(t, response.State.Flag(models.StagePullRequest))
	assert.Empty(t, response.URL)
}

func TestClient_ListFeaturesKeepsServerOrder(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assemble/features", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"b": {"name": "income_log", "inputs": ["income"], "author": "ann"},
			"a": {"name": "age_bucket", "inputs": ["age"], "author": "bo"}
		}`))
	}))

	records, err := client.ListFeatures(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "b", records[0].ID)
	assert.Equal(t, models.FeatureRecord{ID: "a", Name: "age_bucket", Author: "bo", Inputs: []string{"age"}}, records[1])
}

func TestClient_ListFeaturesEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))

	records, err := client.ListFeatures(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestClient_FeatureCodeIsMemoised(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/assemble/features/42", r.URL.Path)
		writeJSON(w, http.StatusOK, models.FeatureCode{Code: "def f(): pass"})
	}))

	for i := 0; i < 3; i++ {
		code, err := client.FeatureCode(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, "def f(): pass", code)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_InspectKeepsAnalysisOrder(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"z_ratio": ["age"], "a_income": ["income"], "m_mix": ["age", "income"]}`))
	}))

	candidates, analysisErr, err := client.Inspect(context.Background(), "code")
	require.NoError(t, err)
	assert.Nil(t, analysisErr)
	assert.Equal(t, []models.NewFeatureCandidate{
		{Name: "z_ratio", Inputs: []string{"age"}},
		{Name: "a_income", Inputs: []string{"income"}},
		{Name: "m_mix", Inputs: []string{"age", "income"}},
	}, candidates)
}

func TestClient_InspectRejectsNonObject(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["z_ratio"]`))
	}))

	_, analysisErr, err := client.Inspect(context.Background(), "code")
	assert.Error(t, err)
	assert.Nil(t, analysisErr)
}

func TestClient_InspectAnalysisFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, models.ErrorBody{Message: "name 'df' is not defined", Traceback: "Traceback..."})
	}))

	candidates, analysisErr, err := client.Inspect(context.Background(), "code")
	require.NoError(t, err)
	assert.Nil(t, candidates)
	require.NotNil(t, analysisErr)
	assert.Equal(t, "name 'df' is not defined", analysisErr.Message)
	assert.Equal(t, "Traceback...", analysisErr.Traceback)
}

func TestClient_ResponseErrorCarriesServerMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, models.ErrorBody{Message: "boom"})
	}))

	err := client.Status(context.Background())

	var responseErr *ResponseError
	require.True(t, errors.As(err, &responseErr))
	assert.Equal(t, http.StatusInternalServerError, responseErr.StatusCode)
	assert.Equal(t, "boom", responseErr.Message)
	assert.Contains(t, err.Error(), "boom")
}

func TestClient_TransportError(t *testing.T) {
	client, err := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1/assemble", RequestTimeout: time.Second})
	require.NoError(t, err)

	_, err = client.ListFeatures(context.Background())
	require.Error(t, err)

	var responseErr *ResponseError
	assert.False(t, errors.As(err, &responseErr))
}

func TestClient_Version(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.VersionInfo{Assemble: "0.7.2", Ballet: "0.19.5", Project: "predict-house-prices"})
	}))

	version, err := client.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.19.5", version.Ballet)
}

func TestClient_AuthorizeURL(t *testing.T) {
	client, err := NewClient(ClientConfig{BaseURL: "http://localhost:8888/assemble/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8888/assemble/auth/authorize", client.AuthorizeURL())
}

func TestClient_BeginInteractiveAuthPollsUntilAuthenticated(t *testing.T) {
	var checks atomic.Int32
	var tokenRequested atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("/assemble/auth/authenticated", func(w http.ResponseWriter, r *http.Request) {
		n := checks.Add(1)
		writeJSON(w, http.StatusOK, models.AuthenticatedResponse{Result: n >= 4})
	})
	mux.HandleFunc("/assemble/auth/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		tokenRequested.Store(true)
		w.WriteHeader(http.StatusOK)
	})

	var opened string
	client := newTestClient(t, mux, func(config *ClientConfig) {
		config.OnAuthorize = func(url string) { opened = url }
	})

	require.NoError(t, client.BeginInteractiveAuth(context.Background()))
	assert.Equal(t, client.AuthorizeURL(), opened)
	assert.Equal(t, int32(4), checks.Load())
	assert.Eventually(t, tokenRequested.Load, time.Second, 10*time.Millisecond)
}

func TestClient_BeginInteractiveAuthAlreadyAuthenticated(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.AuthenticatedResponse{Result: true})
	}))

	assert.ErrorIs(t, client.BeginInteractiveAuth(context.Background()), ErrAlreadyAuthenticated)
}

func TestClient_BeginInteractiveAuthTimesOut(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.AuthenticatedResponse{Result: false})
	}), func(config *ClientConfig) {
		config.AuthTimeout = 50 * time.Millisecond
	})

	assert.ErrorIs(t, client.BeginInteractiveAuth(context.Background()), ErrAuthTimeout)
}
