package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Fetch retrieves the binary stored under key. The request runs under a
// fixed wall-clock limit; authorization failures and missing keys map to
// the package sentinels, and a zero-byte body is rejected as ErrEmptyFile
// since the workflow never stores empty files.
func (c *Client) Fetch(ctx context.Context, key, name string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{"key": key, "name": name})
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/api/v2/file/download"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.session.Cookie != nil {
		req.AddCookie(c.session.Cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("download failed: url=%s key=%s err=%v", endpoint, key, err)
		return nil, fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthenticated
	case http.StatusForbidden:
		return nil, ErrForbidden
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Printf("download rejected: url=%s key=%s status=%d body=%s", endpoint, key, resp.StatusCode, body)
		return nil, fmt.Errorf("download: backend returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	return data, nil
}

// Download fetches the binary under key and writes it into dir under name,
// returning the file's final path. The write goes through a temp file that
// is renamed into place, so a failed download leaves nothing behind.
func (c *Client) Download(ctx context.Context, key, name, dir string) (string, error) {
	data, err := c.Fetch(ctx, key, name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	dest := filepath.Join(dir, filepath.Base(name))
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return dest, nil
}
