package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/udirag/internal/core/domain"
)

type mockAnswerService struct {
	answer  domain.Answer
	queries []string
}

func (m *mockAnswerService) Answer(_ context.Context, query string) domain.Answer {
	m.queries = append(m.queries, query)
	return m.answer
}

func newTestServer(answer domain.Answer) (*Server, *mockAnswerService) {
	answers := &mockAnswerService{answer: answer}
	s := New(answers, Config{})
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s, answers
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestChatCompletions_AnswersLastMessage(t *testing.T) {
	s, answers := newTestServer(domain.Answer{Text: "Students may work up to 20 hours per week."})

	body := `{"model":"whatever","messages":[
		{"role":"system","content":"be nice"},
		{"role":"user","content":"earlier question"},
		{"role":"user","content":"Can I work 25 hours a week as a student?"}]}`
	w := do(t, s.Handler(), http.MethodPost, "/v1/chat/completions", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Can I work 25 hours a week as a student?"}, answers.queries)

	var resp ChatCompletionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.ID, "chatcmpl-"))
	assert.Equal(t, "chat.completion", resp.Object)
	assert.Equal(t, int64(1700000000), resp.Created)
	assert.Equal(t, DefaultModelID, resp.Model)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, 0, resp.Choices[0].Index)
	assert.Equal(t, "assistant", resp.Choices[0].Message.Role)
	assert.Equal(t, "Students may work up to 20 hours per week.", resp.Choices[0].Message.Content)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
}

func TestChatCompletions_UniqueIDs(t *testing.T) {
	s, _ := newTestServer(domain.Answer{Text: "ok"})
	body := `{"messages":[{"role":"user","content":"q"}]}`

	var first, second ChatCompletionResponse
	require.NoError(t, json.Unmarshal(do(t, s.Handler(), http.MethodPost, "/v1/chat/completions", body).Body.Bytes(), &first))
	require.NoError(t, json.Unmarshal(do(t, s.Handler(), http.MethodPost, "/v1/chat/completions", body).Body.Bytes(), &second))

	assert.NotEqual(t, first.ID, second.ID)
}

func TestChatCompletions_DegradedStillOK(t *testing.T) {
	s, _ := newTestServer(domain.Answer{Text: domain.FallbackAnswer, Degraded: true})

	w := do(t, s.Handler(), http.MethodPost, "/v1/chat/completions", `{"messages":[{"role":"user","content":"q"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), domain.FallbackAnswer)
}

func TestChatCompletions_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", "", "empty"},
		{"invalid json", "{not json", "invalid JSON"},
		{"no messages", `{"messages":[]}`, "at least one message"},
		{"missing messages", `{"model":"x"}`, "at least one message"},
		{"blank last message", `{"messages":[{"role":"user","content":"q"},{"role":"user","content":"  "}]}`, "no content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, answers := newTestServer(domain.Answer{Text: "unused"})

			w := do(t, s.Handler(), http.MethodPost, "/v1/chat/completions", tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body.Error.Message, tt.message)
			assert.Equal(t, "invalid_request_error", body.Error.Type)
			assert.Empty(t, answers.queries)
		})
	}
}

func TestChatCompletions_StreamSendsSingleChunk(t *testing.T) {
	s, answers := newTestServer(domain.Answer{Text: "Students may work 20 hours."})

	w := do(t, s.Handler(), http.MethodPost, "/v1/chat/completions",
		`{"stream":true,"messages":[{"role":"user","content":"Can I work?"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, []string{"Can I work?"}, answers.queries)

	events := strings.Split(strings.TrimSpace(w.Body.String()), "\n\n")
	require.Len(t, events, 2)
	assert.Equal(t, "data: [DONE]", events[1])

	var chunk ChatCompletionChunk
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(events[0], "data: ")), &chunk))
	assert.Equal(t, "chat.completion.chunk", chunk.Object)
	assert.True(t, strings.HasPrefix(chunk.ID, "chatcmpl-"))
	require.Len(t, chunk.Choices, 1)
	assert.Equal(t, "assistant", chunk.Choices[0].Delta.Role)
	assert.Equal(t, "Students may work 20 hours.", chunk.Choices[0].Delta.Content)
	assert.Equal(t, "stop", chunk.Choices[0].FinishReason)
}

func TestChatCompletions_WrongMethod(t *testing.T) {
	s, _ := newTestServer(domain.Answer{})

	w := do(t, s.Handler(), http.MethodGet, "/v1/chat/completions", "")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestModels(t *testing.T) {
	answers := &mockAnswerService{}
	s := New(answers, Config{ModelID: "udi-rag", OwnedBy: "me"})

	w := do(t, s.Handler(), http.MethodGet, "/v1/models", "")

	require.Equal(t, http.StatusOK, w.Code)
	var list ModelList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, "list", list.Object)
	require.Len(t, list.Data, 1)
	assert.Equal(t, Model{ID: "udi-rag", Object: "model", OwnedBy: "me"}, list.Data[0])
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(domain.Answer{})

	w := do(t, s.Handler(), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCORS_Preflight(t *testing.T) {
	s, _ := newTestServer(domain.Answer{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/chat/completions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(&mockAnswerService{}, Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
