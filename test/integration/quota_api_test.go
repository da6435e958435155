package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"ai-studypdf-be/internal/bootstrap"
	"ai-studypdf-be/internal/config"
	"ai-studypdf-be/internal/dto"
	"ai-studypdf-be/internal/model"
	"ai-studypdf-be/internal/pkg/serverutils"
	"ai-studypdf-be/internal/server"
	"ai-studypdf-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminEmail = "admin@example.com"

// setupEnv prepares the environment for booting the full HTTP surface
// against a real database. Quota ceilings are forced to zero so admission
// outcomes are deterministic and no upstream AI provider is ever called.
func setupEnv(t *testing.T) {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		t.Skip("DB_CONNECTION_STRING not set, skipping integration test")
	}

	os.Setenv("LLM_PROVIDER", "ollama")
	os.Setenv("ADMIN_EMAIL", testAdminEmail)
	os.Setenv("FREE_MAX_QUERIES", "0")
	os.Setenv("FREE_MAX_PDFS", "0")
}

func TestQuotaAPISurface(t *testing.T) {
	setupEnv(t)

	cfg := config.Load()
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	require.NoError(t, err)

	db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`)
	require.NoError(t, db.AutoMigrate(&model.UserQuota{}, &model.DocumentEntry{}, &model.ActivityLog{}))

	container := bootstrap.NewContainer(db, cfg)
	srv := server.New(cfg, container)
	app := srv.GetApp()

	identity := fmt.Sprintf("it-user-%s", uuid.NewString())
	defer db.Where("identity_id = ?", identity).Delete(&model.UserQuota{})
	defer db.Where("identity_id = ?", identity).Delete(&model.ActivityLog{})

	t.Run("identity header is required", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/check_pdf_quota", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("check pdf quota reports exhausted free tier", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/check_pdf_quota", nil)
		req.Header.Set(serverutils.HeaderUserID, identity)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var body dto.PdfQuotaStatusResponse
		raw, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.False(t, body.CanUpload)
		assert.False(t, body.Unlimited)
		require.NotNil(t, body.PdfsUsed)
		require.NotNil(t, body.MaxPdfs)
		assert.Equal(t, 0, *body.PdfsUsed)
		assert.Equal(t, 0, *body.MaxPdfs)
	})

	t.Run("bypass credentials skip quota entirely", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/check_pdf_quota", nil)
		req.Header.Set(serverutils.HeaderUserID, identity)
		req.Header.Set(serverutils.HeaderGoogleKey, "caller-google-key")
		req.Header.Set(serverutils.HeaderCohereKey, "caller-cohere-key")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var body dto.PdfQuotaStatusResponse
		raw, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.True(t, body.CanUpload)
		assert.True(t, body.Unlimited)
		assert.Nil(t, body.PdfsUsed)
	})

	t.Run("chat refused with quota body when exhausted", func(t *testing.T) {
		payload, _ := json.Marshal(dto.ChatRequest{Question: "What is chapter one about?"})
		req := httptest.NewRequest("POST", "/chat", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(serverutils.HeaderUserID, identity)
		resp, err := app.Test(req, 10000)
		require.NoError(t, err)
		require.Equal(t, 403, resp.StatusCode)

		var body dto.QuotaExceededResponse
		raw, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "usage quota exceeded", body.Error)
		assert.Equal(t, 0, body.QueriesUsed)
		assert.Equal(t, 0, body.MaxQueries)
		assert.Equal(t, 0, body.MaxPdfs)
	})

	t.Run("chat validation rejects missing question", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/chat", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(serverutils.HeaderUserID, identity)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestAdminAPISurface(t *testing.T) {
	setupEnv(t)

	cfg := config.Load()
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.UserQuota{}))

	container := bootstrap.NewContainer(db, cfg)
	app := server.New(cfg, container).GetApp()

	identity := fmt.Sprintf("it-admin-target-%s", uuid.NewString())
	record := &model.UserQuota{
		Id:          uuid.New(),
		IdentityId:  identity,
		QueriesUsed: 7,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, db.Create(record).Error)
	defer db.Delete(&model.UserQuota{}, record.Id)

	t.Run("non-admin is rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/admin/users", nil)
		req.Header.Set(serverutils.HeaderUserID, "user-1")
		req.Header.Set(serverutils.HeaderUserEmail, "stranger@example.com")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 403, resp.StatusCode)
	})

	t.Run("admin lists quota records", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/admin/users", nil)
		req.Header.Set(serverutils.HeaderUserID, "admin-1")
		req.Header.Set(serverutils.HeaderUserEmail, testAdminEmail)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var users []dto.AdminUserResponse
		raw, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(raw, &users))

		found := false
		for _, u := range users {
			if u.IdentityId == identity {
				found = true
				assert.Equal(t, 7, u.QueriesUsed)
			}
		}
		assert.True(t, found)
	})

	t.Run("admin raises a ceiling", func(t *testing.T) {
		payload := []byte(`{"maxQueries": 99}`)
		req := httptest.NewRequest("PATCH", "/admin/users/"+record.Id.String(), bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(serverutils.HeaderUserID, "admin-1")
		req.Header.Set(serverutils.HeaderUserEmail, testAdminEmail)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var user dto.AdminUserResponse
		raw, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(raw, &user))
		assert.Equal(t, 99, user.MaxQueries)
	})

	t.Run("unknown record is a 404", func(t *testing.T) {
		payload := []byte(`{"maxQueries": 1}`)
		req := httptest.NewRequest("PATCH", "/admin/users/"+uuid.NewString(), bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(serverutils.HeaderUserID, "admin-1")
		req.Header.Set(serverutils.HeaderUserEmail, testAdminEmail)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}
