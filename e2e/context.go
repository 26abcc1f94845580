package e2e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

var runCounter atomic.Int64

// TestContext holds state between test steps.
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte

	// run makes emails unique per scenario so features can be replayed
	// against a long-lived server.
	run      string
	tokens   map[string]string
	userIDs  map[string]string
	recordID string
}

func NewTestContext() *TestContext {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		run:        strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + strconv.FormatInt(runCounter.Add(1), 10),
		tokens:     make(map[string]string),
		userIDs:    make(map[string]string),
	}
}

// POST sends body as JSON.
func (tc *TestContext) POST(path string, body any, headers map[string]string) error {
	return tc.sendJSON(http.MethodPost, path, body, headers)
}

// PUT sends body as JSON.
func (tc *TestContext) PUT(path string, body any, headers map[string]string) error {
	return tc.sendJSON(http.MethodPut, path, body, headers)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, "", headers)
}

// POSTMultipart sends form fields plus an optional file under fileField.
func (tc *TestContext) POSTMultipart(path string, fields map[string]string, fileField, fileName string, file []byte, headers map[string]string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			return err
		}
		if _, err := fw.Write(file); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, &buf, mw.FormDataContentType(), headers)
}

// GETAbsolute fetches a full URL, used for photo URLs returned by the API.
func (tc *TestContext) GETAbsolute(url string) error {
	if strings.HasPrefix(url, "/") {
		url = tc.BaseURL + url
	}
	return tc.doURL(http.MethodGet, url, nil, "", nil)
}

func (tc *TestContext) sendJSON(method, path string, body any, headers map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return tc.do(method, path, bytes.NewReader(data), "application/json", headers)
}

func (tc *TestContext) do(method, path string, body io.Reader, contentType string, headers map[string]string) error {
	return tc.doURL(method, tc.BaseURL+path, body, contentType, headers)
}

func (tc *TestContext) doURL(method, url string, body io.Reader, contentType string, headers map[string]string) error {
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// GetResponseField extracts a top-level field from the JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	value, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %s not found in response", field)
	}
	return value, nil
}

// ResponseContains checks if the response body contains a field or text.
func (tc *TestContext) ResponseContains(text string) bool {
	if strings.Contains(string(tc.LastResponseBody), text) {
		return true
	}
	var data map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err == nil {
		_, ok := data[text]
		return ok
	}
	return false
}

// Getter methods for step package interfaces

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}

// UniqueEmail scopes a feature-file email to this scenario run.
func (tc *TestContext) UniqueEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	return local + "+" + tc.run + "@" + domain
}

func (tc *TestContext) GetTokenFor(name string) string   { return tc.tokens[name] }
func (tc *TestContext) SetTokenFor(name, token string)   { tc.tokens[name] = token }
func (tc *TestContext) GetUserIDFor(name string) string  { return tc.userIDs[name] }
func (tc *TestContext) SetUserIDFor(name, userID string) { tc.userIDs[name] = userID }
func (tc *TestContext) GetRecordID() string              { return tc.recordID }
func (tc *TestContext) SetRecordID(recordID string)      { tc.recordID = recordID }
