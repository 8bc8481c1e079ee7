package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// HTTPStore uploads documents to a remote media service that answers with the
// stored URL, in the manner of Cloudinary's upload API.
type HTTPStore struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewHTTP(endpoint, token string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPStore{endpoint: endpoint, token: token, client: client}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *HTTPStore) Upload(ctx context.Context, f File, pathHint string) (*Stored, error) {
	data, mime, err := prepare(f)
	if err != nil {
		return nil, err
	}
	name := objectName(pathHint, mime)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("public_id", name); err != nil {
		return nil, err
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("upload document: status %d: %s", res.StatusCode, bytes.TrimSpace(raw))
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if out.Error.Message != "" {
		return nil, fmt.Errorf("upload document: %s", out.Error.Message)
	}
	url := out.SecureURL
	if url == "" {
		url = out.URL
	}
	if url == "" {
		return nil, fmt.Errorf("upload document: response carried no url")
	}
	return newStored(f, name, url, mime, len(data), time.Now()), nil
}
