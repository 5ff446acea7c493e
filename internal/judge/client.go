package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultDirectBaseURL = "https://api.openai.com/v1"
	defaultCallTimeout   = 45 * time.Second

	judgeTemperature = 0.3
	judgeMaxTokens   = 1024
)

// Caller 定义了向评审模型发起一次补全调用的统一接口。
type Caller interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// HTTPCallerConfig 描述了调用 Chat Completions 风格接口所需的信息。
type HTTPCallerConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// HTTPCaller 通过 HTTP 调用评审模型。多模型路由端点与单一供应商
// 直连共用该实现，区别仅在 BaseURL 与密钥。
type HTTPCaller struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewHTTPCaller 根据配置创建评审调用客户端。
func NewHTTPCaller(cfg HTTPCallerConfig) (*HTTPCaller, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("未提供评审模型 API Key")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultDirectBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	return &HTTPCaller{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Complete 发起一次评审调用并返回模型的原始文本回复。
func (c *HTTPCaller) Complete(ctx context.Context, model, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": judgeTemperature,
		"max_tokens":  judgeMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("序列化评审请求失败: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("构建评审请求失败: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("请求评审模型失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("评审模型返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("解析评审响应失败: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("评审响应中没有有效的 choices")
	}

	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("评审响应内容为空")
	}
	return content, nil
}
