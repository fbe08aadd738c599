package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance_backend/internal/feature/compliance/domain/entity"
	"compliance_backend/internal/feature/compliance/transport/handler"
	"compliance_backend/internal/feature/compliance/transport/http/dto"
)

// mockComplianceUsecase はComplianceUsecaseインターフェースのモック実装です。
type mockComplianceUsecase struct {
	StageUploadsFunc   func(ctx context.Context, sessionID string, paths []string) entity.OperationResult
	SetupIngestionFunc func(ctx context.Context, sessionID, description string) entity.OperationResult
	ProcessFilesFunc   func(ctx context.Context, sessionID string) entity.OperationResult
	AnalyzeFunc        func(ctx context.Context, sessionID, regulation string) entity.OperationResult
	GenerateReportFunc func(ctx context.Context, sessionID string) entity.OperationResult
	StatusFunc         func(ctx context.Context, sessionID string) entity.Status
	ResetFunc          func(ctx context.Context, sessionID string) entity.OperationResult
	TestAgentFunc      func(ctx context.Context) entity.OperationResult
	RegulationsFunc    func(ctx context.Context) ([]entity.Regulation, error)

	lastSessionID string
	calls         int
}

func (m *mockComplianceUsecase) Initialized() bool { return true }

func (m *mockComplianceUsecase) StageUploads(ctx context.Context, sessionID string, paths []string) entity.OperationResult {
	m.calls++
	m.lastSessionID = sessionID
	return m.StageUploadsFunc(ctx, sessionID, paths)
}

func (m *mockComplianceUsecase) SetupIngestion(ctx context.Context, sessionID, description string) entity.OperationResult {
	m.calls++
	m.lastSessionID = sessionID
	return m.SetupIngestionFunc(ctx, sessionID, description)
}

func (m *mockComplianceUsecase) ProcessFiles(ctx context.Context, sessionID string) entity.OperationResult {
	m.calls++
	m.lastSessionID = sessionID
	return m.ProcessFilesFunc(ctx, sessionID)
}

func (m *mockComplianceUsecase) Analyze(ctx context.Context, sessionID, regulation string) entity.OperationResult {
	m.calls++
	m.lastSessionID = sessionID
	return m.AnalyzeFunc(ctx, sessionID, regulation)
}

func (m *mockComplianceUsecase) GenerateReport(ctx context.Context, sessionID string) entity.OperationResult {
	m.calls++
	m.lastSessionID = sessionID
	return m.GenerateReportFunc(ctx, sessionID)
}

func (m *mockComplianceUsecase) Status(ctx context.Context, sessionID string) entity.Status {
	m.calls++
	m.lastSessionID = sessionID
	return m.StatusFunc(ctx, sessionID)
}

func (m *mockComplianceUsecase) Reset(ctx context.Context, sessionID string) entity.OperationResult {
	m.calls++
	m.lastSessionID = sessionID
	return m.ResetFunc(ctx, sessionID)
}

func (m *mockComplianceUsecase) TestAgent(ctx context.Context) entity.OperationResult {
	m.calls++
	return m.TestAgentFunc(ctx)
}

func (m *mockComplianceUsecase) AvailableRegulations(ctx context.Context) ([]entity.Regulation, error) {
	m.calls++
	return m.RegulationsFunc(ctx)
}

// mockUploadStore はUploadStoreのモック実装です。
type mockUploadStore struct {
	saved   map[string]string
	saveErr error
}

func (m *mockUploadStore) Save(name string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.saved == nil {
		m.saved = map[string]string{}
	}
	m.saved[name] = string(data)
	return "/uploads/" + name, nil
}

func allowTxt(name string) bool { return strings.HasSuffix(name, ".txt") }

func newRouter(uc handler.ComplianceUsecase, store handler.UploadStore, maxBytes int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewComplianceHandler(uc, store, allowTxt, maxBytes)
	r := gin.New()
	r.POST("/sessions", h.NewSession)
	r.POST("/upload", h.Upload)
	r.POST("/setup_ingestion", h.SetupIngestion)
	r.POST("/process_files", h.ProcessFiles)
	r.POST("/analyze/:regulation", h.Analyze)
	r.POST("/analyze_gdpr", h.AnalyzeGDPR)
	r.POST("/generate_report", h.GenerateReport)
	r.GET("/status", h.Status)
	r.POST("/reset", h.Reset)
	r.GET("/test_agent", h.TestAgent)
	r.GET("/available_regulations", h.AvailableRegulations)
	return r
}

// createMultipartRequest はテスト用のマルチパートリクエストを生成するヘルパー関数です。
func createMultipartRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = io.Copy(part, strings.NewReader(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestComplianceHandler_SetupIngestion(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		sessionHeader  string
		result         entity.OperationResult
		expectedStatus int
		expectedBody   string
		expectCall     bool
		expectSession  string
	}{
		{
			name:           "success with default session",
			body:           `{"company_description":"Acme Health"}`,
			result:         entity.OperationResult{Success: true, Message: "ready", Path: entity.PathPlanned},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"message":"ready","path":"planned"}`,
			expectCall:     true,
			expectSession:  "default",
		},
		{
			name:           "session header is forwarded",
			body:           `{"company_description":"Acme Health"}`,
			sessionHeader:  "s-42",
			result:         entity.OperationResult{Success: true, Message: "ready", Path: entity.PathFallback},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"message":"ready","path":"fallback"}`,
			expectCall:     true,
			expectSession:  "s-42",
		},
		{
			name:           "missing description",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"success":false,"error":"Company description is required"}`,
		},
		{
			name:           "blank description rejected by usecase",
			body:           `{"company_description":"   "}`,
			result:         entity.OperationResult{Error: "Company description is required", Kind: entity.KindInput},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"success":false,"error":"Company description is required"}`,
			expectCall:     true,
			expectSession:  "default",
		},
		{
			name:           "both paths failed",
			body:           `{"company_description":"Acme"}`,
			result:         entity.OperationResult{Error: "Error during setup ingestion. Please try again.", Kind: entity.KindFailure},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"success":false,"error":"Error during setup ingestion. Please try again."}`,
			expectCall:     true,
			expectSession:  "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockComplianceUsecase{
				SetupIngestionFunc: func(_ context.Context, _, _ string) entity.OperationResult {
					return tt.result
				},
			}
			router := newRouter(uc, &mockUploadStore{}, 0)

			req := httptest.NewRequest(http.MethodPost, "/setup_ingestion", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.sessionHeader != "" {
				req.Header.Set(handler.SessionHeader, tt.sessionHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			if tt.expectCall {
				assert.Equal(t, 1, uc.calls)
				assert.Equal(t, tt.expectSession, uc.lastSessionID)
			} else {
				assert.Zero(t, uc.calls)
			}
		})
	}
}

func TestComplianceHandler_OperationStatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		result         entity.OperationResult
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "process files success",
			method:         http.MethodPost,
			path:           "/process_files",
			result:         entity.OperationResult{Success: true, Chunks: 12, Message: "Successfully processed 12 document chunks"},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"chunks":12,"message":"Successfully processed 12 document chunks"}`,
		},
		{
			name:           "process files before setup",
			method:         http.MethodPost,
			path:           "/process_files",
			result:         entity.OperationResult{Error: "Session not initialized. Please set up ingestion first.", Kind: entity.KindState},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"success":false,"error":"Session not initialized. Please set up ingestion first."}`,
		},
		{
			name:           "analyze success",
			method:         http.MethodPost,
			path:           "/analyze/nist",
			result:         entity.OperationResult{Success: true, Regulation: entity.RegulationNIST, Message: "done", Path: entity.PathFallback},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"regulation":"NIST","message":"done","path":"fallback"}`,
		},
		{
			name:           "analyze invalid regulation",
			method:         http.MethodPost,
			path:           "/analyze/CCPA",
			result:         entity.OperationResult{Error: "Invalid regulation type. Must be one of: GDPR, NIST, HIPAA, ISO27001", Kind: entity.KindInput},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"success":false,"error":"Invalid regulation type. Must be one of: GDPR, NIST, HIPAA, ISO27001"}`,
		},
		{
			name:           "report success",
			method:         http.MethodPost,
			path:           "/generate_report",
			result:         entity.OperationResult{Success: true, Report: "REPORT", Path: entity.PathPlanned},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"report":"REPORT","path":"planned"}`,
		},
		{
			name:           "reset",
			method:         http.MethodPost,
			path:           "/reset",
			result:         entity.OperationResult{Success: true, Message: "Compliance session reset successfully"},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"message":"Compliance session reset successfully"}`,
		},
		{
			name:           "test agent",
			method:         http.MethodGet,
			path:           "/test_agent",
			result:         entity.OperationResult{Success: true, Message: "Agent is working properly", Detail: "ready"},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"message":"Agent is working properly","test_result":"ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotRegulation string
			result := func() entity.OperationResult { return tt.result }
			uc := &mockComplianceUsecase{
				ProcessFilesFunc: func(context.Context, string) entity.OperationResult { return result() },
				AnalyzeFunc: func(_ context.Context, _ string, regulation string) entity.OperationResult {
					gotRegulation = regulation
					return result()
				},
				GenerateReportFunc: func(context.Context, string) entity.OperationResult { return result() },
				ResetFunc:          func(context.Context, string) entity.OperationResult { return result() },
				TestAgentFunc:      func(context.Context) entity.OperationResult { return result() },
			}
			router := newRouter(uc, &mockUploadStore{}, 0)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			if strings.HasPrefix(tt.path, "/analyze/") {
				assert.Equal(t, strings.TrimPrefix(tt.path, "/analyze/"), gotRegulation)
			}
		})
	}
}

func TestComplianceHandler_AnalyzeGDPR(t *testing.T) {
	var gotRegulation string
	uc := &mockComplianceUsecase{AnalyzeFunc: func(_ context.Context, _ string, regulation string) entity.OperationResult {
		gotRegulation = regulation
		return entity.OperationResult{Success: true, Regulation: entity.RegulationGDPR}
	}}
	router := newRouter(uc, &mockUploadStore{}, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/analyze_gdpr", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GDPR", gotRegulation)
}

func TestComplianceHandler_Upload(t *testing.T) {
	t.Run("stores allowed files and stages them", func(t *testing.T) {
		var staged []string
		uc := &mockComplianceUsecase{StageUploadsFunc: func(_ context.Context, _ string, paths []string) entity.OperationResult {
			staged = paths
			return entity.OperationResult{Success: true, Files: []string{"policy.txt"}, Message: "Successfully uploaded 1 files"}
		}}
		store := &mockUploadStore{}
		router := newRouter(uc, store, 0)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createMultipartRequest(t, map[string]string{
			"policy.txt": "MFA required",
			"virus.exe":  "MZ",
		}))

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"files":["policy.txt"],"message":"Successfully uploaded 1 files"}`, w.Body.String())
		assert.Equal(t, []string{"/uploads/policy.txt"}, staged)
		assert.Equal(t, map[string]string{"policy.txt": "MFA required"}, store.saved)
	})

	t.Run("no files field", func(t *testing.T) {
		uc := &mockComplianceUsecase{}
		router := newRouter(uc, &mockUploadStore{}, 0)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createMultipartRequest(t, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"No files provided"}`, w.Body.String())
		assert.Zero(t, uc.calls)
	})

	t.Run("request too large", func(t *testing.T) {
		tests := []struct {
			maxBytes int64
			body     int
			expected string
		}{
			{maxBytes: 64, body: 1024, expected: "File too large. Maximum size is 64 bytes."},
			{maxBytes: 2 << 20, body: 3 << 20, expected: "File too large. Maximum size is 2MB."},
		}
		for _, tt := range tests {
			uc := &mockComplianceUsecase{}
			router := newRouter(uc, &mockUploadStore{}, tt.maxBytes)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, createMultipartRequest(t, map[string]string{"big.txt": strings.Repeat("x", tt.body)}))

			assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
			assert.JSONEq(t, `{"success":false,"error":"`+tt.expected+`"}`, w.Body.String())
			assert.Zero(t, uc.calls)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		uc := &mockComplianceUsecase{}
		router := newRouter(uc, &mockUploadStore{saveErr: errors.New("disk full")}, 0)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, createMultipartRequest(t, map[string]string{"policy.txt": "x"}))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Zero(t, uc.calls)
	})
}

func TestComplianceHandler_Status(t *testing.T) {
	t.Run("uninitialized session", func(t *testing.T) {
		uc := &mockComplianceUsecase{StatusFunc: func(context.Context, string) entity.Status { return entity.Status{} }}
		router := newRouter(uc, &mockUploadStore{}, 0)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.False(t, resp.AgentInitialized)
		assert.Equal(t, "Agent not initialized", resp.Message)
	})

	t.Run("initialized session", func(t *testing.T) {
		uc := &mockComplianceUsecase{StatusFunc: func(context.Context, string) entity.Status {
			return entity.Status{
				Initialized:         true,
				CompanyDescription:  "Acme",
				FilesProcessed:      true,
				DocumentChunks:      7,
				RegulationsAnalyzed: []entity.RegulationCode{entity.RegulationGDPR, entity.RegulationNIST},
				ReadyForReport:      true,
				Stage:               entity.StageAnalyzed,
			}
		}}
		router := newRouter(uc, &mockUploadStore{}, 0)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.AgentInitialized)
		assert.Equal(t, "Acme", resp.CompanyDescription)
		assert.Equal(t, 7, resp.DocumentChunks)
		assert.Equal(t, []string{"GDPR", "NIST"}, resp.RegulationsAnalyzed)
		assert.True(t, resp.ReadyForReport)
		assert.Equal(t, entity.StageAnalyzed.String(), resp.Stage)
	})
}

func TestComplianceHandler_AvailableRegulations(t *testing.T) {
	t.Run("lists catalogue", func(t *testing.T) {
		uc := &mockComplianceUsecase{RegulationsFunc: func(context.Context) ([]entity.Regulation, error) {
			return []entity.Regulation{{Code: entity.RegulationGDPR, Name: "General Data Protection Regulation", Description: "EU"}}, nil
		}}
		router := newRouter(uc, &mockUploadStore{}, 0)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/available_regulations", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"regulations":[{"code":"GDPR","name":"General Data Protection Regulation","description":"EU"}]}`, w.Body.String())
	})

	t.Run("catalogue error", func(t *testing.T) {
		uc := &mockComplianceUsecase{RegulationsFunc: func(context.Context) ([]entity.Regulation, error) {
			return nil, errors.New("db down")
		}}
		router := newRouter(uc, &mockUploadStore{}, 0)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/available_regulations", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestComplianceHandler_NewSession(t *testing.T) {
	router := newRouter(&mockComplianceUsecase{}, &mockUploadStore{}, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sessions", nil))

	require.Equal(t, http.StatusCreated, w.Code)
	var resp dto.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.SessionID, 36)
}
