package providers

import (
	"context"
	"encoding/base64"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// VisionRequest describes a single image-plus-prompt completion.
type VisionRequest struct {
	Model       string
	Prompt      string
	ImageData   []byte
	MIMEType    string
	Temperature float64
	MaxTokens   int
}

// CompleteVision sends an image alongside a text prompt to a
// vision-capable chat model and returns the reply text.
func (c *OpenAICompatibleClient) CompleteVision(ctx context.Context, req VisionRequest) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("provider %q; %w", c.name, ErrProviderUnavailable)
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", req.MIMEType, base64.StdEncoding.EncodeToString(req.ImageData))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision completion failed; %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
