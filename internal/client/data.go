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
	"net/url"

	"github.com/yukikurage/oppuss/internal/dto"
	"github.com/yukikurage/oppuss/internal/imaging"
	"github.com/yukikurage/oppuss/internal/models"
)

// Export downloads the signed-in user's backup document.
func (c *Client) Export(ctx context.Context) (*dto.ExportDocument, error) {
	var doc dto.ExportDocument
	if err := c.doJSON(ctx, http.MethodGet, "/api/data/export", nil, &doc); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return &doc, nil
}

// Import uploads a backup document as is. A document the server rejects
// comes back as an unsuccessful result, not an error.
func (c *Client) Import(ctx context.Context, payload []byte) (dto.ImportResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/data/import", bytes.NewReader(payload))
	if err != nil {
		return dto.ImportResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dto.ImportResult{}, fmt.Errorf("import: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnprocessableEntity {
		return dto.ImportResult{}, fmt.Errorf("import: %w", decodeError(resp))
	}

	var result dto.ImportResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return dto.ImportResult{}, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

// ClearAll deletes every house and room of the signed-in user.
func (c *Client) ClearAll(ctx context.Context) (dto.ImportResult, error) {
	var result dto.ImportResult
	if err := c.doJSON(ctx, http.MethodDelete, "/api/data", nil, &result); err != nil {
		return dto.ImportResult{}, fmt.Errorf("clear: %w", err)
	}
	return result, nil
}

// UploadPhotos sends files to the room's photo endpoint, where they are
// resized with the named quality profile. An empty quality uses the server
// default.
func (c *Client) UploadPhotos(ctx context.Context, roomID, quality string, files []imaging.File) (*models.Room, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		if err := writePart(w, f); err != nil {
			return nil, fmt.Errorf("upload photos: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("upload photos: %w", err)
	}

	path := "/api/rooms/" + url.PathEscape(roomID) + "/photos"
	if quality != "" {
		path += "?quality=" + url.QueryEscape(quality)
	}

	var room models.Room
	if err := c.do(ctx, http.MethodPost, path, w.FormDataContentType(), &buf, &room); err != nil {
		return nil, fmt.Errorf("upload photos: %w", err)
	}
	return &room, nil
}

func writePart(w *multipart.Writer, f imaging.File) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer src.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photos"; filename=%q`, f.Name))
	if f.Type != "" {
		h.Set("Content-Type", f.Type)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, src)
	return err
}
