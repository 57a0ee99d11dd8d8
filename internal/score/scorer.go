package score

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "regexp"
    "strings"
    "time"

    "github.com/kaptinlin/jsonrepair"
    "github.com/rs/zerolog/log"
    openai "github.com/sashabaranov/go-openai"

    "github.com/hyperifyio/policyscan/internal/llm"
)

const (
    // DefaultModel matches the model the analyzer was tuned against.
    DefaultModel = "gpt-4o"
    // MaxPromptChars caps the policy text embedded in the prompt.
    MaxPromptChars = 8000

    defaultMaxTokens   = 1500
    defaultTemperature = 0.1
)

var (
    // ErrNotConfigured is returned when no client or model is set.
    ErrNotConfigured = errors.New("scorer not configured")
    // ErrEmptyResponse means the model returned no choices or no content.
    ErrEmptyResponse = errors.New("empty model response")
    // ErrUnparsableResponse means the reply could not be read as an Analysis,
    // even after JSON repair.
    ErrUnparsableResponse = errors.New("failed to parse AI response")
)

const defaultSystemPrompt = "You are a privacy expert. Analyze privacy policies and respond with valid JSON only. " +
    "Do not use markdown formatting or code blocks in your response. " +
    "Score each category out of 25 points: Data Collection (how much data is collected), " +
    "Data Sharing (third-party sharing), User Rights (user control and rights), Transparency (policy clarity)."

const responseTemplate = `{
  "privacyScore": 75,
  "summary": "A clear explanation of the privacy policy in simple terms",
  "quickTakeaway": "One sentence bottom line about privacy protection",
  "scoreBreakdown": {
    "dataCollection": 18,
    "dataSharing": 16,
    "userRights": 21,
    "transparency": 20
  },
  "userImpact": {
    "dataCollected": "What data they collect",
    "howDataUsed": "How they use your data",
    "yourControl": "What control you have",
    "mainConcern": "Biggest privacy concern"
  },
  "recommendations": ["Action 1", "Action 2", "Action 3"],
  "riskLevel": "MEDIUM"
}`

// Scorer sends policy text to a chat model and decodes the Analysis.
type Scorer struct {
    Client llm.Client
    Model  string
    // MaxTokens and Temperature default to 1500 and 0.1 when zero.
    MaxTokens   int
    Temperature float32
    // SystemPrompt, when non-empty, overrides the default system message.
    SystemPrompt string
    // RetryDelay is the pause before the single retry of a failed call.
    RetryDelay time.Duration
}

// Score analyzes text and returns the normalized Analysis.
func (s *Scorer) Score(ctx context.Context, text string) (*Analysis, error) {
    if s == nil || s.Client == nil || strings.TrimSpace(s.Model) == "" {
        return nil, ErrNotConfigured
    }
    req := s.buildRequest(text)
    log.Debug().Str("stage", "score").Str("model", s.Model).Int("text_len", len(text)).Msg("scoring prompt")

    resp, err := s.Client.CreateChatCompletion(ctx, req)
    if err != nil {
        if werr := wait(ctx, s.RetryDelay); werr != nil {
            return nil, fmt.Errorf("openai api error: %w", err)
        }
        resp, err = s.Client.CreateChatCompletion(ctx, req)
        if err != nil {
            return nil, fmt.Errorf("openai api error (after retry): %w", err)
        }
    }
    if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
        return nil, ErrEmptyResponse
    }
    return ParseAnalysis(resp.Choices[0].Message.Content)
}

func (s *Scorer) buildRequest(text string) openai.ChatCompletionRequest {
    system := defaultSystemPrompt
    if strings.TrimSpace(s.SystemPrompt) != "" {
        system = s.SystemPrompt
    }
    maxTokens := s.MaxTokens
    if maxTokens <= 0 {
        maxTokens = defaultMaxTokens
    }
    temp := s.Temperature
    if temp == 0 {
        temp = defaultTemperature
    }
    return openai.ChatCompletionRequest{
        Model: s.Model,
        Messages: []openai.ChatCompletionMessage{
            {Role: openai.ChatMessageRoleSystem, Content: system},
            {Role: openai.ChatMessageRoleUser, Content: buildUserMessage(text)},
        },
        MaxTokens:   maxTokens,
        Temperature: temp,
        N:           1,
    }
}

func buildUserMessage(text string) string {
    var b strings.Builder
    b.WriteString("Analyze this privacy policy and respond with ONLY valid JSON (no markdown, no code blocks, no backticks) in this exact format:\n\n")
    b.WriteString(responseTemplate)
    b.WriteString("\n\nPrivacy Policy: ")
    b.WriteString(truncateRunes(text, MaxPromptChars))
    b.WriteString("\n\nRemember: Return ONLY the JSON object above, no other text, no markdown formatting, no code blocks.")
    return b.String()
}

var (
    jsonFenceOpen = regexp.MustCompile("^```json\\s*")
    fenceOpen     = regexp.MustCompile("^```\\s*")
    fenceClose    = regexp.MustCompile("\\s*```$")
)

// CleanResponse strips markdown code fences and stray backticks that models
// add despite instructions.
func CleanResponse(content string) string {
    s := strings.TrimSpace(content)
    switch {
    case strings.HasPrefix(s, "```json"):
        s = fenceClose.ReplaceAllString(jsonFenceOpen.ReplaceAllString(s, ""), "")
    case strings.HasPrefix(s, "```"):
        s = fenceClose.ReplaceAllString(fenceOpen.ReplaceAllString(s, ""), "")
    }
    s = strings.ReplaceAll(s, "`", "")
    return strings.TrimSpace(s)
}

// ParseAnalysis decodes a model reply, repairing malformed JSON when needed.
func ParseAnalysis(content string) (*Analysis, error) {
    cleaned := CleanResponse(content)
    raw := []byte(cleaned)
    var a Analysis
    if err := json.Unmarshal(raw, &a); err != nil {
        repaired, rerr := jsonrepair.JSONRepair(cleaned)
        if rerr != nil {
            return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
        }
        raw = []byte(repaired)
        a = Analysis{}
        if err := json.Unmarshal(raw, &a); err != nil {
            return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
        }
        log.Debug().Msg("model response needed JSON repair")
    }
    if !hasScore(raw) {
        a.PrivacyScore = DefaultScore
    }
    a.Normalize()
    return &a, nil
}

func hasScore(raw []byte) bool {
    var probe struct {
        PrivacyScore *json.RawMessage `json:"privacyScore"`
    }
    if err := json.Unmarshal(raw, &probe); err != nil {
        return false
    }
    return probe.PrivacyScore != nil && string(*probe.PrivacyScore) != "null"
}

func truncateRunes(s string, n int) string {
    count := 0
    for i := range s {
        if count == n {
            return s[:i]
        }
        count++
    }
    return s
}

func wait(ctx context.Context, d time.Duration) error {
    if d <= 0 {
        return ctx.Err()
    }
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-t.C:
        return nil
    }
}
