package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

type AIService struct {
	client *openai.Client
}

// SuggestedTask is a task proposed by the AI service. Suggestions are not persisted.
type SuggestedTask struct {
	Title string   `json:"title"`
	Note  string   `json:"note,omitempty"`
	Cost  *float64 `json:"cost,omitempty"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// SuggestTasks breaks a free-text description of renovation work into tasks
// with rough cost estimates.
func (s *AIService) SuggestTasks(ctx context.Context, roomName, text string) ([]SuggestedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(`You help homeowners plan renovations. Split the description below into concrete tasks for the room %q.

Description:
%s

Reply with a JSON array only, no prose:
[
  {
    "title": "short task title",
    "note": "optional detail",
    "cost": estimated cost as a number, or null when unknown
  }
]

Reply with [] when there is no actionable work.`, roomName, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content

	var tasks []SuggestedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}
