package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"visa_interview_backend/internal/config"
	"visa_interview_backend/internal/model"
	"visa_interview_backend/internal/util"
	"visa_interview_backend/pkg/logger"

	"go.uber.org/zap"
)

// JudgeService 外部出题/评审服务客户端（OpenAI 兼容 chat-completions）。
// 结果仅作参考：失败或超时由调用方降级到启发式评分与静态题库
type JudgeService struct {
	config config.JudgeConfig
	client *http.Client
}

func NewJudgeService(cfg config.JudgeConfig) *JudgeService {
	return &JudgeService{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type judgeChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type judgeChatResponse struct {
	Choices []struct {
		Message judgeChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Evaluate 请求外部评审给出 {overall, categoryScores, summary, recommendations}。
// 有限次重试后仍失败则返回错误，由评分流水线降级
func (s *JudgeService) Evaluate(ctx context.Context, question, answer string, prior []PriorAnswer) (*model.JudgedScores, error) {
	var sb strings.Builder
	sb.WriteString("You are a strict US visa interview assessor. ")
	sb.WriteString("Score the candidate's answer and reply ONLY with JSON: ")
	sb.WriteString(`{"overall": 0-100, "categoryScores": {"relevance": 0-100, "content": 0-100}, "summary": "...", "recommendations": ["..."]}`)
	sb.WriteString("\n\n")

	if len(prior) > 0 {
		sb.WriteString("Earlier answers in this interview:\n")
		for _, p := range prior {
			fmt.Fprintf(&sb, "Q: %s\nA: %s\n", p.Question, p.Transcript)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Question: %s\nAnswer: %s\n", question, answer)

	content, err := s.complete(ctx, sb.String())
	if err != nil {
		return nil, err
	}

	var judged model.JudgedScores
	if err := json.Unmarshal([]byte(extractJSON(content)), &judged); err != nil {
		return nil, fmt.Errorf("judge returned unparseable payload: %w", err)
	}

	if judged.Overall < 0 || judged.Overall > 100 {
		return nil, fmt.Errorf("judge overall score out of range: %.1f", judged.Overall)
	}
	return &judged, nil
}

// FollowUpQuestion 请外部服务就当前回答生成一条追问
func (s *JudgeService) FollowUpQuestion(ctx context.Context, question, answer string, category model.QuestionCategory) (string, error) {
	prompt := fmt.Sprintf(
		"You are a US visa interview officer. The candidate answered the question below. "+
			"Ask ONE short follow-up question on the same sub-topic (%s). Reply with the question text only.\n\n"+
			"Question: %s\nAnswer: %s",
		category, question, answer,
	)

	content, err := s.complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	followUp := strings.TrimSpace(content)
	if followUp == "" {
		return "", util.ErrJudgeUnavailable
	}
	return followUp, nil
}

// complete 带重试的单轮补全请求
func (s *JudgeService) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": s.config.Model,
		"messages": []judgeChatMessage{
			{Role: "user", Content: prompt},
		},
		"temperature": 0,
	}

	jsonData, _ := json.Marshal(reqBody)

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		content, err := s.doRequest(ctx, jsonData)
		if err == nil {
			return content, nil
		}
		lastErr = err
		logger.Log.Warn("judge request failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if ctx.Err() != nil {
			break
		}
	}

	return "", fmt.Errorf("%w: %v", util.ErrJudgeUnavailable, lastErr)
}

func (s *JudgeService) doRequest(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("judge API error (status %d): %s", resp.StatusCode, string(payload))
	}

	var chatResp judgeChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", err
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("judge API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("judge API returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// extractJSON 剥掉模型偶尔包裹的 markdown 代码块
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			return content[start : end+1]
		}
	}
	return content
}
