package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sendit2sri/artifact-os/config"
	"github.com/sendit2sri/artifact-os/internal/pkg/queue"
	"github.com/sendit2sri/artifact-os/internal/pkg/response"
	"github.com/sendit2sri/artifact-os/internal/repository"
	"github.com/sendit2sri/artifact-os/internal/service"
	"github.com/sendit2sri/artifact-os/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupIngestRouter(t *testing.T) (*gin.Engine, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := queue.NewQueue(client, "test_ingest_jobs")

	svc := service.NewIngestService(
		repository.NewJobRepository(db),
		repository.NewSourceDocRepository(db),
		q,
	)

	cfg := &config.Config{}
	cfg.Ingest.MaxMediaUploadMB = 100
	cfg.Ingest.UploadDir = t.TempDir()

	h := NewIngestHandler(svc, cfg)
	router := gin.New()
	router.POST("/api/ingest", h.SubmitURL)
	router.POST("/api/ingest/file", h.SubmitFile)
	router.POST("/api/ingest/retry", h.Retry)
	router.GET("/api/jobs/:id", h.GetJob)

	cleanup := func() {
		client.Close()
		mr.Close()
		testutil.CleanupTestDB(t, db)
	}
	return router, db, cleanup
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestHandler_SubmitURL(t *testing.T) {
	router, db, cleanup := setupIngestRouter(t)
	defer cleanup()

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)

	body := map[string]string{
		"project_id":   project.ID,
		"workspace_id": ws.ID,
		"url":          "https://example.com/article",
	}
	w := postJSON(router, "/api/ingest", body)
	require.Equal(t, http.StatusOK, w.Code)

	resp := parseEnvelope(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["job_id"])
	assert.Equal(t, false, data["is_duplicate"])

	// Resubmitting the same URL returns the existing job.
	w = postJSON(router, "/api/ingest", body)
	resp = parseEnvelope(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	dup := resp.Data.(map[string]interface{})
	assert.Equal(t, true, dup["is_duplicate"])
	assert.Equal(t, data["job_id"], dup["job_id"])
}

func TestIngestHandler_SubmitURL_MissingURL(t *testing.T) {
	router, db, cleanup := setupIngestRouter(t)
	defer cleanup()

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)

	w := postJSON(router, "/api/ingest", map[string]string{
		"project_id":   project.ID,
		"workspace_id": ws.ID,
	})
	resp := parseEnvelope(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func postMultipart(t *testing.T, router *gin.Engine, projectID, workspaceID, filename string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("project_id", projectID))
	require.NoError(t, mw.WriteField("workspace_id", workspaceID))
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake media bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/ingest/file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestHandler_SubmitFile(t *testing.T) {
	router, db, cleanup := setupIngestRouter(t)
	defer cleanup()

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)

	w := postMultipart(t, router, project.ID, ws.ID, "talk.mp3")
	require.Equal(t, http.StatusOK, w.Code)

	resp := parseEnvelope(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["job_id"])
}

func TestIngestHandler_SubmitFile_RejectsNonMedia(t *testing.T) {
	router, db, cleanup := setupIngestRouter(t)
	defer cleanup()

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)

	w := postMultipart(t, router, project.ID, ws.ID, "notes.txt")
	resp := parseEnvelope(t, w)
	assert.Equal(t, response.CodeUnsupportedMedia, resp.Code)
}

func TestIngestHandler_Retry(t *testing.T) {
	router, db, cleanup := setupIngestRouter(t)
	defer cleanup()

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)

	body := map[string]string{
		"project_id":   project.ID,
		"workspace_id": ws.ID,
		"url":          "https://example.com/broken",
	}
	first := parseEnvelope(t, postJSON(router, "/api/ingest", body))
	require.Equal(t, response.CodeSuccess, first.Code)
	firstData := first.Data.(map[string]interface{})

	retried := parseEnvelope(t, postJSON(router, "/api/ingest/retry", body))
	require.Equal(t, response.CodeSuccess, retried.Code)
	retriedData := retried.Data.(map[string]interface{})
	assert.NotEqual(t, firstData["job_id"], retriedData["job_id"])
}

func TestIngestHandler_GetJob(t *testing.T) {
	router, db, cleanup := setupIngestRouter(t)
	defer cleanup()

	ws := testutil.TestWorkspace(t, db)
	project := testutil.TestProject(t, db, ws.ID)

	created := parseEnvelope(t, postJSON(router, "/api/ingest", map[string]string{
		"project_id":   project.ID,
		"workspace_id": ws.ID,
		"url":          "https://example.com/a",
	}))
	jobID := created.Data.(map[string]interface{})["job_id"].(string)

	req := httptest.NewRequest("GET", "/api/jobs/"+jobID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseEnvelope(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "PENDING", data["status"])
	assert.Equal(t, "QUEUED", data["current_step"])
	assert.EqualValues(t, 5, data["steps_total"])
}

func TestIngestHandler_GetJob_NotFound(t *testing.T) {
	router, _, cleanup := setupIngestRouter(t)
	defer cleanup()

	req := httptest.NewRequest("GET", "/api/jobs/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseEnvelope(t, w)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}
