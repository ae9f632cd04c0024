package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// UploadResult is the upload endpoint's answer.
type UploadResult struct {
	FileID       string `json:"file_id"`
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
	DownloadURL  string `json:"download_url"`
	ExpiresAt    string `json:"expires_at"`
}

// Uploader is the out-of-band HTTP client for uploads and deletes. These
// are request/response calls, not relay events.
type Uploader struct {
	baseURL string
	http    *http.Client
}

// NewUploader Uploader 생성
func NewUploader(baseURL string) *Uploader {
	return &Uploader{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload posts one file and returns its metadata with a signed URL.
func (u *Uploader) Upload(ctx context.Context, name, contentType string, data []byte, sender string) (*UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if sender != "" {
		if err := writer.WriteField("sender", sender); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/files/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload %s: %s", name, readError(resp.Body))
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("upload %s: decode response: %w", name, err)
	}
	return &result, nil
}

// DeleteMessage removes a message's durable record.
func (u *Uploader) DeleteMessage(ctx context.Context, messageID string) error {
	return u.delete(ctx, "/messages/"+messageID)
}

// DeleteFile removes an uploaded file and its metadata.
func (u *Uploader) DeleteFile(ctx context.Context, fileID string) error {
	return u.delete(ctx, "/files/"+fileID)
}

func (u *Uploader) delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := u.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete %s: %s", path, readError(resp.Body))
	}
	return nil
}

func readError(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err == nil && body.Error != "" {
		return body.Error
	}
	return "request failed"
}
