package genai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
)

type predictRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoInstance struct {
	Prompt string `json:"prompt"`
}

type videoParameters struct {
	AspectRatio string `json:"aspectRatio"`
	Resolution  string `json:"resolution"`
}

type operation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
}

// GenerateClip starts a video generation for prompt, polls the operation
// until it finishes or ctx is cancelled, and returns the downloaded video.
func (c *Client) GenerateClip(ctx context.Context, prompt string) (*Video, error) {
	const op = "generate clip"
	start := time.Now()

	req := predictRequest{
		Instances:  []videoInstance{{Prompt: prompt}},
		Parameters: videoParameters{AspectRatio: "9:16", Resolution: "720p"},
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:predictLongRunning", c.baseURL, c.videoModel)

	var current operation
	if err := c.do(ctx, op, http.MethodPost, url, req, &current); err != nil {
		return nil, err
	}
	c.logger.Info("video operation started", "operation", current.Name, "model", c.videoModel)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for !current.Done {
		select {
		case <-ctx.Done():
			return nil, &GenerationError{Kind: KindTransient, Op: op, Err: ctx.Err()}
		case <-ticker.C:
		}

		pollURL := fmt.Sprintf("%s/v1beta/%s", c.baseURL, current.Name)
		name := current.Name
		current = operation{}
		if err := c.do(ctx, op, http.MethodGet, pollURL, nil, &current); err != nil {
			return nil, err
		}
		if current.Name == "" {
			current.Name = name
		}
		c.logger.Debug("video operation polled", "operation", name, "done", current.Done)
	}

	if current.Error != nil {
		kind := classifyRPC(current.Error.Code)
		if current.Error.Code >= 100 {
			kind = classifyHTTP(current.Error.Code)
		}
		return nil, &GenerationError{Kind: kind, Op: op, Message: current.Error.Message}
	}

	if current.Response == nil || len(current.Response.GenerateVideoResponse.GeneratedSamples) == 0 ||
		current.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI == "" {
		return nil, &GenerationError{Kind: KindFatal, Op: op, Message: "no video URI returned"}
	}
	uri := current.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI

	video, err := c.download(ctx, uri)
	if err != nil {
		return nil, err
	}
	c.logger.Info("video generated", "operation", current.Name, "elapsed", time.Since(start).Round(time.Second))
	return video, nil
}

func (c *Client) download(ctx context.Context, uri string) (*Video, error) {
	const op = "download clip"

	key, err := c.apiKey(op)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &GenerationError{Kind: KindFatal, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("x-goog-api-key", key)

	// Downloads can outlast the JSON call timeout.
	client := &http.Client{Transport: c.httpClient.Transport}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &GenerationError{Kind: KindTransient, Op: op, Err: fmt.Errorf("http request failed: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, responseError(op, resp)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "video/mp4"
	}
	if resp.ContentLength > 0 {
		c.logger.Info("downloading clip", "size", humanize.Bytes(uint64(resp.ContentLength)))
	}

	return &Video{Body: resp.Body, ContentType: contentType, SourceURI: uri}, nil
}
