package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"visa_interview_backend/internal/config"
	"visa_interview_backend/internal/model"
	"visa_interview_backend/internal/util"
	"visa_interview_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func judgeForServer(srv *httptest.Server) *JudgeService {
	return NewJudgeService(config.JudgeConfig{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Model:      "test-model",
		Timeout:    time.Second,
		MaxRetries: 2,
	})
}

// chatReply 以 OpenAI chat-completions 的响应外壳包住给定内容
func chatReply(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}
}

func TestEvaluateParsesJudgedScores(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		chatReply(`{"overall": 82, "categoryScores": {"relevance": 85, "content": 78}, "summary": "Solid answer.", "recommendations": ["Quote exact figures."]}`)(w, r)
	}))
	defer srv.Close()

	judged, err := judgeForServer(srv).Evaluate(context.Background(), "Who is paying?", "My father, with $45,000 in savings.", nil)
	require.NoError(t, err)

	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.InDelta(t, 82, judged.Overall, 1e-9)
	assert.InDelta(t, 85, judged.CategoryScores["relevance"], 1e-9)
	assert.Equal(t, "Solid answer.", judged.Summary)
	require.Len(t, judged.Recommendations, 1)
}

func TestEvaluateStripsMarkdownFence(t *testing.T) {
	srv := httptest.NewServer(chatReply("```json\n{\"overall\": 70, \"categoryScores\": {}, \"summary\": \"ok\", \"recommendations\": []}\n```"))
	defer srv.Close()

	judged, err := judgeForServer(srv).Evaluate(context.Background(), "q", "a", nil)
	require.NoError(t, err)
	assert.InDelta(t, 70, judged.Overall, 1e-9)
}

func TestEvaluateRejectsOutOfRangeOverall(t *testing.T) {
	srv := httptest.NewServer(chatReply(`{"overall": 150, "categoryScores": {}, "summary": "", "recommendations": []}`))
	defer srv.Close()

	_, err := judgeForServer(srv).Evaluate(context.Background(), "q", "a", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
	assert.NotErrorIs(t, err, util.ErrJudgeUnavailable)
}

func TestEvaluateRetriesThenFails(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := judgeForServer(srv).Evaluate(context.Background(), "q", "a", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrJudgeUnavailable)
	assert.Equal(t, 3, attempts) // 首次 + 两次重试
}

func TestEvaluateSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limited"},
		})
	}))
	defer srv.Close()

	_, err := judgeForServer(srv).Evaluate(context.Background(), "q", "a", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrJudgeUnavailable)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestEvaluateStopsRetryingOnCanceledContext(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "slow", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := judgeForServer(srv).Evaluate(ctx, "q", "a", nil)
	require.Error(t, err)
	assert.LessOrEqual(t, attempts, 1)
}

func TestEvaluateIncludesPriorAnswersInPrompt(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []judgeChatMessage `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) > 0 {
			prompt = body.Messages[0].Content
		}
		chatReply(`{"overall": 60, "categoryScores": {}, "summary": "", "recommendations": []}`)(w, r)
	}))
	defer srv.Close()

	prior := []PriorAnswer{{Question: "Why this university?", Transcript: "It has the best robotics lab."}}
	_, err := judgeForServer(srv).Evaluate(context.Background(), "Who is paying?", "My father.", prior)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Why this university?")
	assert.Contains(t, prompt, "robotics lab")
	assert.Contains(t, prompt, "Who is paying?")
}

func TestFollowUpQuestionTrimsReply(t *testing.T) {
	srv := httptest.NewServer(chatReply("  What is your sponsor's annual income?  \n"))
	defer srv.Close()

	q, err := judgeForServer(srv).FollowUpQuestion(context.Background(), "Who is paying?", "My father.", model.CategoryFinancial)
	require.NoError(t, err)
	assert.Equal(t, "What is your sponsor's annual income?", q)
}

func TestFollowUpQuestionEmptyReplyIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(chatReply("   "))
	defer srv.Close()

	_, err := judgeForServer(srv).FollowUpQuestion(context.Background(), "q", "a", model.CategoryFinancial)
	assert.ErrorIs(t, err, util.ErrJudgeUnavailable)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain", `{"overall": 1}`, `{"overall": 1}`},
		{"fenced", "```json\n{\"overall\": 1}\n```", `{"overall": 1}`},
		{"prose wrapped", `Here you go: {"overall": 1} hope that helps`, `{"overall": 1}`},
		{"no json", "no braces here", "no braces here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.content))
		})
	}
}
