package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"seribro_backend/internal/app"
	"seribro_backend/internal/config"
	"seribro_backend/internal/email"
	"seribro_backend/internal/logger"
)

const (
	AdminEmail    = "admin@seribro.test"
	AdminPassword = "admin-password-123"
)

type TestServer struct {
	Server *httptest.Server
	App    *app.App
	Mail   *email.MockProvider

	cancel     context.CancelFunc
	uploadsDir string
}

// TestConfig - in-memory хранилище, mock-почта, локальные файлы во временной папке
func TestConfig(uploadsDir string) *config.Config {
	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Database.Driver = "memory"
	cfg.Email.Provider = "mock"
	cfg.JWT.Secret = "my_super_secret_key_for_tests_12345"
	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = uploadsDir
	// Все тесты идут с одного IP
	cfg.RateLimit.AuthLimit = 100000
	cfg.FirstAdminEmail = AdminEmail
	cfg.FirstAdminPassword = AdminPassword
	cfg.ApplyDefaults()
	return cfg
}

// NewTestServer поднимает приложение целиком поверх httptest
func NewTestServer(t *testing.T) *TestServer {
	logger.Init("test")

	uploadsDir, err := os.MkdirTemp("", "seribro-uploads-*")
	if err != nil {
		t.Fatalf("Не удалось создать папку для загрузок: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	application, err := app.New(ctx, TestConfig(uploadsDir))
	if err != nil {
		cancel()
		t.Fatalf("Не удалось собрать приложение: %v", err)
	}
	application.Start(ctx)

	mail, ok := application.Services.EmailService.(*email.MockProvider)
	if !ok {
		cancel()
		t.Fatalf("Ожидался mock email-провайдер, получен %T", application.Services.EmailService)
	}

	server := httptest.NewServer(application.Router)
	log.Printf("✅ Тестовый сервер запущен на %s", server.URL)

	return &TestServer{
		Server:     server,
		App:        application,
		Mail:       mail,
		cancel:     cancel,
		uploadsDir: uploadsDir,
	}
}

func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.cancel()
	ts.App.Close()
	_ = os.RemoveAll(ts.uploadsDir)
}

// SendRequest - JSON-запрос; token пустой для публичных маршрутов
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Ошибка кодирования JSON для запроса: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.do(t, req)
}

// FormFile - файл multipart-запроса
type FormFile struct {
	Field    string
	FileName string
	Data     []byte
}

// SendMultipart - multipart/form-data с текстовыми полями и файлами
func (ts *TestServer) SendMultipart(t *testing.T, path, token string, fields map[string]string, files ...FormFile) (*http.Response, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("Ошибка записи поля формы: %v", err)
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.Field, f.FileName)
		if err != nil {
			t.Fatalf("Ошибка создания файла формы: %v", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			t.Fatalf("Ошибка записи файла формы: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Ошибка закрытия формы: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+path, &buf)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.do(t, req)
}

func (ts *TestServer) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()

	client := &http.Client{Timeout: 10 * time.Second}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("Ошибка отправки HTTP-запроса: %v", err)
	}
	defer res.Body.Close()

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Ошибка чтения тела ответа: %v", err)
	}
	return res, string(resBodyBytes)
}
