package api

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
	"strconv"
	"strings"

	"resize-orchestrator/internal/domain"
	"resize-orchestrator/internal/repository/job"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const (
	resizePath   = "/api/resize"
	progressPath = "/api/progress/"

	maxErrorBody = 4 << 10
)

// HTTPDoer describes the HTTP client used to reach the resize service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL  *url.URL
	client   HTTPDoer
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewClient(baseURL string, client HTTPDoer, logger *zlog.Zerolog) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", baseURL)
	}
	return &Client{
		baseURL:  u,
		client:   client,
		validate: validator.New(),
		logger:   logger,
	}, nil
}

func (c *Client) Submit(ctx context.Context, asset *domain.Asset, params domain.Parameters) (*SubmitResult, error) {
	body, contentType, err := buildResizeForm(asset, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build resize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(resizePath), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build resize request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	var resp submitResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("job_id", resp.JobID).
		Str("download_url", resp.DownloadURL).
		Str("object_name", resp.ObjectName).
		Msg("Resize job accepted")

	artifact, err := c.artifactRef(resizePath, resp.DownloadURL, resp.ObjectName)
	if err != nil {
		return nil, err
	}

	return &SubmitResult{
		JobID:    resp.JobID,
		Artifact: artifact,
	}, nil
}

func (c *Client) Progress(ctx context.Context, jobID string) (*ProgressResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(progressPath+url.PathEscape(jobID)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build progress request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var resp progressResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	artifact, err := c.artifactRef(progressPath, resp.DownloadURL, resp.ObjectName)
	if err != nil {
		return nil, err
	}

	return &ProgressResult{
		Progress: *resp.Progress,
		Artifact: artifact,
	}, nil
}

// ResolveURL makes a possibly relative download url absolute against the
// service base url.
func (c *Client) ResolveURL(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}

// artifactRef accepts absolute and relative download urls alike; only a
// reference that does not parse at all is treated as malformed.
func (c *Client) artifactRef(path, downloadURL, objectName string) (string, error) {
	switch {
	case downloadURL != "":
		if _, err := url.Parse(downloadURL); err != nil {
			return "", fmt.Errorf("%w: %s: invalid download_url: %v", job.ErrMalformedResponse, path, err)
		}
		return c.ResolveURL(downloadURL), nil
	case objectName != "":
		return domain.ObjectRef(objectName), nil
	default:
		return "", nil
	}
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", job.ErrTransport, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %s %s returned %d%s", job.ErrUnexpectedStatus, req.Method, req.URL.Path, resp.StatusCode, errorDetail(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %v", job.ErrMalformedResponse, req.URL.Path, err)
	}
	if err := c.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %s: %v", job.ErrMalformedResponse, req.URL.Path, err)
	}
	return nil
}

func errorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var e errorResponse
	if err := json.Unmarshal(raw, &e); err == nil {
		for _, msg := range []string{e.Message, e.Error, e.Details} {
			if msg != "" {
				return ": " + msg
			}
		}
	}
	return ": " + strings.TrimSpace(string(raw))
}

func buildResizeForm(asset *domain.Asset, params domain.Parameters) (io.Reader, string, error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, domain.FormFieldImage, filename(asset)))
	header.Set("Content-Type", contentType(asset))
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(asset.Data); err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{domain.FormFieldWidth, strconv.Itoa(params.Width)},
		{domain.FormFieldHeight, strconv.Itoa(params.Height)},
		{domain.FormFieldKeepAspect, strconv.FormatBool(params.MaintainAspectRatio)},
		{domain.FormFieldQuality, strconv.Itoa(params.Quality)},
	}
	if params.MaxSizeKB > 0 {
		fields = append(fields, [2]string{domain.FormFieldMaxSize, strconv.Itoa(params.MaxSizeKB)})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func filename(asset *domain.Asset) string {
	if asset.Filename != "" {
		return asset.Filename
	}
	return "image." + asset.Meta.Format
}

func contentType(asset *domain.Asset) string {
	if asset.ContentType != "" {
		return asset.ContentType
	}
	return "application/octet-stream"
}
