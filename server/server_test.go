package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modemneko/HakusAI/agent"
	"github.com/modemneko/HakusAI/memory"
	"github.com/modemneko/HakusAI/model"
	"github.com/modemneko/HakusAI/runner"
	"github.com/modemneko/HakusAI/tool"
	"github.com/modemneko/HakusAI/workflow"
)

func newTestHandler(completer *model.MockCompleter) http.Handler {
	registry := tool.NewRegistry()
	wf := workflow.New(
		agent.New(completer, registry),
		memory.New(completer, memory.NewInMemoryStore()),
		registry,
	)
	return New(runner.New(wf)).Handler()
}

func postChat(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Chat(t *testing.T) {
	completer := model.NewMockCompleter()
	completer.AddRule("用户最新问题", "Final Answer: 你好呀，咱是小羽！")

	handler := newTestHandler(completer)
	rec := postChat(t, handler, `{"uid": "u1", "message": "你好"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Response string `json:"response"`
		UID      string `json:"uid"`
		Log      string `json:"log"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "你好呀，咱是小羽！", resp.Response)
	assert.Equal(t, "u1", resp.UID)
	assert.Contains(t, resp.Log, "=== 实时日志 ===")
}

func TestServer_ChatInvalidJSON(t *testing.T) {
	handler := newTestHandler(model.NewMockCompleter())
	rec := postChat(t, handler, `{"uid": `)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid JSON format")
}

func TestServer_ChatMissingUID(t *testing.T) {
	handler := newTestHandler(model.NewMockCompleter())
	rec := postChat(t, handler, `{"message": "你好"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "请提供 'uid'")
}

func TestServer_ChatInvalidImage(t *testing.T) {
	handler := newTestHandler(model.NewMockCompleter())
	rec := postChat(t, handler, `{"uid": "u1", "message": "看图", "image": "!!!not-base64!!!"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid image data")
}

func TestServer_ChatAcceptsDataURLImage(t *testing.T) {
	completer := model.NewMockCompleter()
	completer.AddRule("用户最新问题", "Final Answer: 收到！")

	handler := newTestHandler(completer)
	img := base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF})
	body, err := json.Marshal(map[string]string{
		"uid":     "u1",
		"message": "看图",
		"image":   "data:image/jpeg;base64," + img,
	})
	require.NoError(t, err)

	rec := postChat(t, handler, string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "收到！")
}

func TestServer_Status(t *testing.T) {
	handler := newTestHandler(model.NewMockCompleter())

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "HakusAI API is running", resp["message"])
	assert.NotEmpty(t, resp["current_time"])
}

func TestServer_MethodNotAllowed(t *testing.T) {
	handler := newTestHandler(model.NewMockCompleter())

	req := httptest.NewRequest(http.MethodGet, "/chat", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
