package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/randalmurphal/buildflow/artifact"
)

// DefaultAnacondaURL is the public anaconda.org API endpoint.
const DefaultAnacondaURL = "https://api.anaconda.org"

// AnacondaPublisher uploads packages to an anaconda.org-style index.
type AnacondaPublisher struct {
	// Organization is the user or org account that owns the channel.
	Organization string

	// BaseURL overrides the API endpoint. Defaults to DefaultAnacondaURL.
	BaseURL string

	// HTTPClient overrides the HTTP client. Defaults to a 5 minute
	// timeout client; uploads of large packages are slow.
	HTTPClient *http.Client

	// Attempts is how many times the upload is tried. Defaults to 3.
	Attempts uint
}

func (p *AnacondaPublisher) Name() string { return "anaconda" }

func (p *AnacondaPublisher) baseURL() string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	return DefaultAnacondaURL
}

func (p *AnacondaPublisher) client() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return &http.Client{Timeout: 5 * time.Minute}
}

func (p *AnacondaPublisher) attempts() uint {
	if p.Attempts > 0 {
		return p.Attempts
	}
	return 3
}

// Upload sends the artifact to the organization's channel. Transient
// failures (network errors, 5xx) are retried; a 409 means the version is
// already published and is not retried.
func (p *AnacondaPublisher) Upload(ctx context.Context, art *artifact.Artifact, token string) (*Result, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if p.Organization == "" {
		return nil, fmt.Errorf("anaconda: organization is required")
	}

	url := fmt.Sprintf("%s/package/%s/%s/upload", p.baseURL(), p.Organization, art.Package)

	err := retry.Do(
		func() error { return p.upload(ctx, url, art, token) },
		retry.Context(ctx),
		retry.Attempts(p.attempts()),
		retry.Delay(2*time.Second),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return err != ErrAlreadyPublished
		}),
	)
	if err != nil {
		return nil, err
	}

	return &Result{
		URL:        fmt.Sprintf("%s/%s/%s", p.baseURL(), p.Organization, art.Package),
		Channel:    p.Organization,
		UploadedAt: time.Now(),
	}, nil
}

func (p *AnacondaPublisher) upload(ctx context.Context, url string, art *artifact.Artifact, token string) error {
	file, err := os.Open(art.Path)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(art.Path))
	if err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	if err := writer.WriteField("version", art.Version); err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "token "+token)

	resp, err := p.client().Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", art.Filename(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return ErrAlreadyPublished
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("upload %s: status %d: %s", art.Filename(), resp.StatusCode, msg)
	}
	return nil
}
