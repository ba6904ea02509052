package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/ensemble-clustering/pkg/clusterer"
	"github.com/gilchrisn/ensemble-clustering/pkg/metrics"
	"github.com/gilchrisn/ensemble-clustering/pkg/models"
	"github.com/gilchrisn/ensemble-clustering/pkg/service"
)

const twoTriangles = "a b\nb c\nc a\nd e\ne f\nf d\nc d\n"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	registry := clusterer.NewRegistry()
	m := metrics.NewRegistry()
	datasets := service.NewDatasetService()
	jobs := service.NewJobService(datasets, registry, m, service.Options{MaxConcurrentJobs: 2})
	t.Cleanup(jobs.Close)
	return NewRouter(NewHandlers(datasets, jobs, registry), m, nil)
}

func do(t *testing.T, h http.Handler, req *http.Request) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func uploadTriangles(t *testing.T, h http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets?name=triangles&format=edgelist", strings.NewReader(twoTriangles))
	code, env := do(t, h, req)
	require.Equal(t, http.StatusOK, code, env.Error)

	var upload models.UploadResponse
	require.NoError(t, json.Unmarshal(env.Data, &upload))
	assert.Equal(t, 6, upload.Dataset.Metadata.NodeCount)
	return upload.DatasetID
}

func TestEnsembleJobRoundTrip(t *testing.T) {
	h := newTestRouter(t)
	datasetID := uploadTriangles(t, h)

	body := `{"baseClusterers":["louvain","louvain"],"finalClusterer":"louvain","qualityMeasure":"modularity","seed":7}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets/"+datasetID+"/jobs", strings.NewReader(body))
	code, env := do(t, h, req)
	require.Equal(t, http.StatusAccepted, code, env.Error)

	var submit models.SubmitResponse
	require.NoError(t, json.Unmarshal(env.Data, &submit))

	var job models.Job
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+submit.JobID, nil))
		var env envelope
		if rec.Code != http.StatusOK || json.Unmarshal(rec.Body.Bytes(), &env) != nil {
			return false
		}
		if json.Unmarshal(env.Data, &job) != nil {
			return false
		}
		return job.Status.Finished()
	}, 10*time.Second, 10*time.Millisecond)
	require.Equal(t, models.JobStatusCompleted, job.Status, job.Error)

	code, env = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+submit.JobID+"/partition", nil))
	require.Equal(t, http.StatusOK, code)
	var result models.PartitionResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.NumClusters)
	require.Len(t, result.Assignments, 6)

	clusters := make(map[string]int)
	for _, a := range result.Assignments {
		clusters[a.Node] = a.Cluster
	}
	assert.Equal(t, clusters["a"], clusters["c"])
	assert.Equal(t, clusters["d"], clusters["f"])
	assert.NotEqual(t, clusters["a"], clusters["d"])

	code, env = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/datasets/"+datasetID+"/jobs", nil))
	require.Equal(t, http.StatusOK, code)
	var jobs []models.Job
	require.NoError(t, json.Unmarshal(env.Data, &jobs))
	assert.Len(t, jobs, 1)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ensemble_runs_total")
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestMultipartUploadAndGroundTruth(t *testing.T) {
	h := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "triangles"))
	part, err := mw.CreateFormFile("file", "triangles.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte(twoTriangles))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	code, env := do(t, h, req)
	require.Equal(t, http.StatusOK, code, env.Error)
	var upload models.UploadResponse
	require.NoError(t, json.Unmarshal(env.Data, &upload))
	assert.Equal(t, "triangles", upload.Dataset.Name)

	truthURL := "/api/v1/datasets/" + upload.DatasetID + "/ground-truth"
	code, _ = do(t, h, httptest.NewRequest(http.MethodPut, truthURL, strings.NewReader("0\n0\n0\n1\n1\n1\n")))
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, h, httptest.NewRequest(http.MethodPut, truthURL, strings.NewReader("0\n")))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, httptest.NewRequest(http.MethodPut, "/api/v1/datasets/missing/ground-truth", strings.NewReader("0\n")))
	assert.Equal(t, http.StatusNotFound, code)

	code, env = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/datasets/"+upload.DatasetID, nil))
	require.Equal(t, http.StatusOK, code)
	var dataset models.Dataset
	require.NoError(t, json.Unmarshal(env.Data, &dataset))
	assert.True(t, dataset.HasGroundTruth)

	code, _ = do(t, h, httptest.NewRequest(http.MethodDelete, "/api/v1/datasets/"+upload.DatasetID, nil))
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/datasets/"+upload.DatasetID, nil))
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSubmitErrors(t *testing.T) {
	h := newTestRouter(t)
	datasetID := uploadTriangles(t, h)
	url := "/api/v1/datasets/" + datasetID + "/jobs"

	code, _ := do(t, h, httptest.NewRequest(http.MethodPost, url, strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := do(t, h, httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{"finalClusterer":"labelprop"}`)))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(env.Data), "validation_errors")
	assert.Contains(t, string(env.Data), "BaseClusterers")

	code, _ = do(t, h, httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{"baseClusterers":["spectral"],"finalClusterer":"labelprop"}`)))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, httptest.NewRequest(http.MethodPost, "/api/v1/datasets/missing/jobs", strings.NewReader(`{"baseClusterers":["labelprop"],"finalClusterer":"labelprop"}`)))
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, h, httptest.NewRequest(http.MethodPost, "/api/v1/jobs/missing/cancel", nil))
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/missing/partition", nil))
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStrategiesAndHealth(t *testing.T) {
	h := newTestRouter(t)

	code, env := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/strategies", nil))
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "labelprop")
	assert.Contains(t, string(env.Data), "louvain")

	code, env = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "healthy")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	code, env := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, env.Success)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/datasets", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
