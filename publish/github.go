package publish

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/randalmurphal/buildflow/artifact"
)

// GitHubPublisher attaches artifacts to GitHub releases. The release tag is
// "v" + the artifact version; the release is created if it does not exist.
type GitHubPublisher struct {
	Owner string
	Repo  string
}

func (p *GitHubPublisher) Name() string { return "github" }

// Upload attaches the artifact to the release for its version.
func (p *GitHubPublisher) Upload(ctx context.Context, art *artifact.Artifact, token string) (*Result, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if p.Owner == "" || p.Repo == "" {
		return nil, fmt.Errorf("github: owner and repo are required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	tag := "v" + art.Version
	release, err := p.ensureRelease(ctx, client, tag)
	if err != nil {
		return nil, err
	}

	for _, asset := range release.Assets {
		if asset.GetName() == art.Filename() {
			return nil, ErrAlreadyPublished
		}
	}

	file, err := os.Open(art.Path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer file.Close()

	asset, _, err := client.Repositories.UploadReleaseAsset(ctx, p.Owner, p.Repo, release.GetID(),
		&github.UploadOptions{Name: art.Filename()}, file)
	if err != nil {
		return nil, fmt.Errorf("upload release asset: %w", err)
	}

	return &Result{
		URL:        asset.GetBrowserDownloadURL(),
		Channel:    p.Owner + "/" + p.Repo,
		UploadedAt: time.Now(),
	}, nil
}

func (p *GitHubPublisher) ensureRelease(ctx context.Context, client *github.Client, tag string) (*github.RepositoryRelease, error) {
	release, resp, err := client.Repositories.GetReleaseByTag(ctx, p.Owner, p.Repo, tag)
	if err == nil {
		return release, nil
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		return nil, fmt.Errorf("get release %s: %w", tag, err)
	}

	release, _, err = client.Repositories.CreateRelease(ctx, p.Owner, p.Repo, &github.RepositoryRelease{
		TagName: github.String(tag),
		Name:    github.String(tag),
	})
	if err != nil {
		return nil, fmt.Errorf("create release %s: %w", tag, err)
	}
	return release, nil
}
