// Package publish posts feed items to X.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dghubble/go-twitter/twitter"
	"github.com/dghubble/oauth1"

	"github.com/mikequentel/isyndicate/internal/model"
)

const uploadURL = "https://upload.twitter.com/1.1/media/upload.json"

// Credentials are the four OAuth 1.0a secrets of an X app + user.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// Missing lists the env var names of empty credentials.
func (c Credentials) Missing() []string {
	var out []string
	for _, kv := range []struct{ name, v string }{
		{"X_CONSUMER_KEY", c.ConsumerKey},
		{"X_CONSUMER_SECRET", c.ConsumerSecret},
		{"X_ACCESS_TOKEN", c.AccessToken},
		{"X_ACCESS_SECRET", c.AccessSecret},
	} {
		if kv.v == "" {
			out = append(out, kv.name)
		}
	}
	return out
}

// NewHTTPClient returns an http.Client that signs every request.
func NewHTTPClient(ctx context.Context, c Credentials) *http.Client {
	config := oauth1.NewConfig(c.ConsumerKey, c.ConsumerSecret)
	token := oauth1.NewToken(c.AccessToken, c.AccessSecret)
	return config.Client(ctx, token)
}

// Publisher uploads images and posts statuses.
type Publisher struct {
	http    *http.Client
	twitter *twitter.Client
}

// New wraps a (signed) http client.
func New(httpClient *http.Client) *Publisher {
	return &Publisher{http: httpClient, twitter: twitter.NewClient(httpClient)}
}

// Post publishes text with the given media and returns the post id.
func (p *Publisher) Post(text string, mediaIDs []int64) (string, error) {
	params := &twitter.StatusUpdateParams{}
	if len(mediaIDs) > 0 {
		params.MediaIds = mediaIDs
	}
	tweet, resp, err := p.twitter.Statuses.Update(text, params)
	if err != nil {
		return "", fmt.Errorf("post status: %w", err)
	}
	if tweet == nil {
		return "", fmt.Errorf("post status: empty response (HTTP %d)", statusCode(resp))
	}
	if tweet.IDStr != "" {
		return tweet.IDStr, nil
	}
	return strconv.FormatInt(tweet.ID, 10), nil
}

// UploadMedia sends the image at path with a simple (non-chunked) upload.
func (p *Publisher) UploadMedia(ctx context.Context, path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return 0, err
	}
	if _, err := fw.Write(data); err != nil {
		return 0, err
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upload %s: %w", path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("upload %s: %s", path, diagnoseHTTPError(resp, b, "POST /1.1/media/upload.json"))
	}

	var up model.MediaUploadResp
	if err := json.Unmarshal(b, &up); err != nil {
		return 0, fmt.Errorf("upload %s: decode: %w", path, err)
	}
	if up.MediaIDString != "" {
		return strconv.ParseInt(up.MediaIDString, 10, 64)
	}
	if up.MediaID != 0 {
		return up.MediaID, nil
	}
	return 0, fmt.Errorf("upload %s: missing media_id in response: %s", path, string(b))
}

// diagnoseHTTPError turns an X error body (v2 problem or v1.1 errors list)
// into one readable line.
func diagnoseHTTPError(resp *http.Response, body []byte, op string) string {
	var v2 struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &v2) == nil && v2.Title != "" {
		return fmt.Sprintf("%s: HTTP %d %s: %s", op, resp.StatusCode, v2.Title, v2.Detail)
	}
	var v1 struct {
		Errors []struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(body, &v1) == nil && len(v1.Errors) > 0 {
		parts := make([]string, 0, len(v1.Errors))
		for _, e := range v1.Errors {
			parts = append(parts, fmt.Sprintf("code %d: %s", e.Code, e.Message))
		}
		return fmt.Sprintf("%s: HTTP %d: %s", op, resp.StatusCode, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s: HTTP %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}

func statusCode(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
