package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const scriptTemperature = 0.7

const scriptPrompt = `You are a social media strategist who specializes in "faceless" content.
Write a viral short-video script for the niche %q.
Topic: %q.
Tone: %q.

The video is vertical and targets Reels, TikTok and YouTube Shorts.
It must not require a human face: use stock footage, animation, gameplay or product shots as visual cues.

Return a JSON object with a catchy title, a strong hook for the first 3 seconds, script segments with visual cues, hashtags and a caption.`

type schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*schema `json:"properties,omitempty"`
	Items       *schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

var scriptSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"title":   {Type: "STRING", Description: "Catchy viral title for the video"},
		"hook":    {Type: "STRING", Description: "The first 3 seconds audio hook"},
		"caption": {Type: "STRING", Description: "Social media caption text"},
		"segments": {
			Type: "ARRAY",
			Items: &schema{
				Type: "OBJECT",
				Properties: map[string]*schema{
					"visualCue":   {Type: "STRING", Description: "Detailed description of stock footage or animation to show"},
					"audioScript": {Type: "STRING", Description: "What the voiceover should say"},
					"duration":    {Type: "STRING", Description: "Estimated duration like '3s'"},
				},
			},
		},
		"hashtags": {Type: "ARRAY", Items: &schema{Type: "STRING"}},
	},
	Required: []string{"title", "hook", "segments", "hashtags", "caption"},
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"`
	ResponseSchema   *schema `json:"responseSchema"`
	Temperature      float64 `json:"temperature"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// BuildScriptPrompt renders the script request for a niche and topic.
func BuildScriptPrompt(nicheTitle, topic, tone string) string {
	if strings.TrimSpace(tone) == "" {
		tone = DefaultTone
	}
	return fmt.Sprintf(scriptPrompt, nicheTitle, topic, tone)
}

// GenerateScript asks the text model for a structured short-video script.
func (c *Client) GenerateScript(ctx context.Context, nicheTitle, topic, tone string) (*Script, error) {
	const op = "generate script"

	req := generateContentRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: BuildScriptPrompt(nicheTitle, topic, tone)}},
		}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   scriptSchema,
			Temperature:      scriptTemperature,
		},
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.scriptModel)

	c.logger.Info("requesting script", "model", c.scriptModel, "niche", nicheTitle)

	var resp generateContentResponse
	if err := c.do(ctx, op, http.MethodPost, url, req, &resp); err != nil {
		c.logger.Error("script generation failed", "error", err)
		return nil, err
	}

	text := responseText(resp)
	if text == "" {
		return nil, &GenerationError{Kind: KindTransient, Op: op, Message: "empty response from model"}
	}

	script, err := ParseScript(text)
	if err != nil {
		return nil, &GenerationError{Kind: KindTransient, Op: op, Err: err}
	}

	c.logger.Info("script generated", "title", script.Title, "segments", len(script.Segments))
	return script, nil
}

func responseText(resp generateContentResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

// ParseScript decodes the model's JSON text, tolerating a markdown fence
// around it.
func ParseScript(text string) (*Script, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var script Script
	if err := json.Unmarshal([]byte(text), &script); err != nil {
		return nil, fmt.Errorf("parse script JSON: %w", err)
	}
	if len(script.Segments) == 0 {
		return nil, fmt.Errorf("script has no segments")
	}
	return &script, nil
}
