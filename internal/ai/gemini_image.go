// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// ImageModel is a supported Google image model.
type ImageModel string

const (
	// GeminiFlashImage returns images inline from generateContent.
	GeminiFlashImage ImageModel = "gemini-2.5-flash-image"
	// Imagen4 is served by the :predict endpoint.
	Imagen4 ImageModel = "imagen-4.0-generate-001"
)

// DefaultImageModel is used when a request names no image model.
const DefaultImageModel = GeminiFlashImage

// ImageModels lists the supported image models.
var ImageModels = []ImageModel{GeminiFlashImage, Imagen4}

// AspectRatios lists the accepted aspect ratios. The first is the default.
var AspectRatios = []string{"1:1", "16:9", "9:16", "4:3", "3:4"}

// ParseImageModel validates an image model name. Empty selects the default.
func ParseImageModel(s string) (ImageModel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultImageModel, nil
	}
	for _, m := range ImageModels {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// ParseAspectRatio validates a ratio. Empty selects "1:1".
func ParseAspectRatio(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AspectRatios[0], nil
	}
	for _, r := range AspectRatios {
		if r == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("ai: unsupported aspect ratio %q", s)
}

// ImageRequest describes one image generation call.
type ImageRequest struct {
	Model       ImageModel
	Prompt      string
	AspectRatio string
}

// ImageResult is the decoded image returned by a model.
type ImageResult struct {
	Data     []byte
	MimeType string
}

// ImageClient generates images with Google's image models.
type ImageClient struct {
	gemini *geminiClient
}

func newImageClient(apiKey, baseURL string, client *http.Client) *ImageClient {
	return &ImageClient{gemini: newGemini(apiKey, baseURL, client)}
}

// Generate creates one image. Quota failures match ErrRateLimited and
// refusals (blocked prompt, safety finish, or no image in the answer)
// match ErrSafetyBlocked.
func (c *ImageClient) Generate(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	if req.Model == "" {
		req.Model = DefaultImageModel
	}
	if req.AspectRatio == "" {
		req.AspectRatio = AspectRatios[0]
	}
	if req.Model == Imagen4 {
		return c.predict(ctx, req)
	}
	return c.inline(ctx, req)
}

// inline calls generateContent with an IMAGE response modality and reads
// the first inlineData part.
func (c *ImageClient) inline(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
			ImageConfig:        &geminiImageConfig{AspectRatio: req.AspectRatio},
		},
	}

	var result geminiResponse
	if err := c.gemini.post(ctx, string(req.Model), "generateContent", body, &result); err != nil {
		return nil, err
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("gemini image: prompt blocked (%s): %w", result.PromptFeedback.BlockReason, ErrSafetyBlocked)
	}

	for _, cand := range result.Candidates {
		if isSafetyFinish(cand.FinishReason) {
			return nil, fmt.Errorf("gemini image: %s: %w", cand.FinishReason, ErrSafetyBlocked)
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("gemini image decode base64: %w", err)
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return &ImageResult{Data: data, MimeType: mime}, nil
		}
	}
	return nil, fmt.Errorf("gemini image: no image data in response: %w", ErrSafetyBlocked)
}

// predict calls the Imagen :predict endpoint for a single sample.
func (c *ImageClient) predict(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	body := imagenRequest{
		Instances: []imagenInstance{{Prompt: req.Prompt}},
		Parameters: imagenParameters{
			SampleCount: 1,
			AspectRatio: req.AspectRatio,
		},
	}

	var result imagenResponse
	if err := c.gemini.post(ctx, string(req.Model), "predict", body, &result); err != nil {
		return nil, err
	}

	for _, p := range result.Predictions {
		if p.RAIFilteredReason != "" {
			return nil, fmt.Errorf("imagen: %s: %w", p.RAIFilteredReason, ErrSafetyBlocked)
		}
		if p.BytesBase64Encoded == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.BytesBase64Encoded)
		if err != nil {
			return nil, fmt.Errorf("imagen decode base64: %w", err)
		}
		mime := p.MimeType
		if mime == "" {
			mime = "image/png"
		}
		return &ImageResult{Data: data, MimeType: mime}, nil
	}
	return nil, fmt.Errorf("imagen: no predictions returned: %w", ErrSafetyBlocked)
}

// --- Imagen API types ---

type imagenInstance struct {
	Prompt string `json:"prompt"`
}

type imagenParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type imagenRequest struct {
	Instances  []imagenInstance `json:"instances"`
	Parameters imagenParameters `json:"parameters"`
}

type imagenPrediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
	MimeType           string `json:"mimeType,omitempty"`
	RAIFilteredReason  string `json:"raiFilteredReason,omitempty"`
}

type imagenResponse struct {
	Predictions []imagenPrediction `json:"predictions"`
}
