package publish

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xanzy/go-gitlab"

	"github.com/randalmurphal/buildflow/artifact"
)

// GitLabPublisher uploads artifacts to a GitLab generic package registry.
type GitLabPublisher struct {
	// ProjectID is the numeric project ID or "namespace/project" path.
	ProjectID string

	// BaseURL is the GitLab instance URL (empty for gitlab.com).
	BaseURL string
}

func (p *GitLabPublisher) Name() string { return "gitlab" }

// Upload publishes the artifact as a generic package file.
func (p *GitLabPublisher) Upload(ctx context.Context, art *artifact.Artifact, token string) (*Result, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if p.ProjectID == "" {
		return nil, fmt.Errorf("gitlab: project ID is required")
	}

	var client *gitlab.Client
	var err error
	if p.BaseURL != "" {
		client, err = gitlab.NewClient(token, gitlab.WithBaseURL(p.BaseURL))
	} else {
		client, err = gitlab.NewClient(token)
	}
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}

	file, err := os.Open(art.Path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer file.Close()

	pkg, _, err := client.GenericPackages.PublishPackageFile(
		p.ProjectID, art.Package, art.Version, art.Filename(), file,
		&gitlab.PublishPackageFileOptions{},
		gitlab.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("publish package file: %w", err)
	}

	url := pkg.File.URL
	if url == "" {
		url, _ = client.GenericPackages.FormatPackageURL(p.ProjectID, art.Package, art.Version, art.Filename())
	}

	return &Result{
		URL:        url,
		Channel:    p.ProjectID,
		UploadedAt: time.Now(),
	}, nil
}
