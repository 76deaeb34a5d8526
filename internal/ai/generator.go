// Package ai: воркер генерации примерки: загрузка исходных фото, запрос к модели, сохранение результата.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Image: изображение с MIME-типом.
type Image struct {
	Data []byte
	MIME string
}

// Generator строит изображение примерки по промпту и исходным фото.
type Generator interface {
	Generate(ctx context.Context, prompt string, images ...Image) (*Image, error)
}

// GeminiGenerator вызывает модель Gemini с поддержкой вывода изображений.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ai: GEMINI_API_KEY не задан")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("ai: не удалось создать клиент Gemini: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, images ...Image) (*Image, error) {
	model := g.client.GenerativeModel(g.model)

	parts := []genai.Part{genai.Text(prompt)}
	for _, img := range images {
		parts = append(parts, genai.ImageData(imageFormat(img.MIME), img.Data))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("ai: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("ai: модель не вернула результат")
	}

	var text []string
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Blob:
			if strings.HasPrefix(p.MIMEType, "image/") && len(p.Data) > 0 {
				return &Image{Data: p.Data, MIME: p.MIMEType}, nil
			}
		case genai.Text:
			text = append(text, string(p))
		}
	}
	if len(text) > 0 {
		return nil, fmt.Errorf("ai: модель вернула текст вместо изображения: %s", truncate(strings.Join(text, " "), 200))
	}
	return nil, fmt.Errorf("ai: в ответе модели нет изображения")
}

// imageFormat переводит MIME-тип в формат для genai.ImageData.
func imageFormat(mime string) string {
	format := strings.TrimPrefix(mime, "image/")
	if format == "" || format == mime {
		return "jpeg"
	}
	return format
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
