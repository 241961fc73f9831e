package publish

import (
	"context"
	"errors"
	"time"

	"github.com/randalmurphal/buildflow/artifact"
)

// Publish errors.
var (
	// ErrAlreadyPublished indicates the channel already has this exact
	// package version and the upload was refused.
	ErrAlreadyPublished = errors.New("artifact already published")

	// ErrNoToken indicates Upload was called without a token.
	ErrNoToken = errors.New("publish token is required")
)

// Result describes a completed upload.
type Result struct {
	// URL is where the uploaded artifact can be retrieved.
	URL string

	// Channel identifies the destination (user/channel, bucket, repo).
	Channel string

	// UploadedAt is when the upload completed.
	UploadedAt time.Time
}

// Publisher uploads a built artifact to a distribution channel.
type Publisher interface {
	// Name identifies the backend in logs and events.
	Name() string

	// Upload sends the artifact. The token comes from the trust context
	// of the current run.
	Upload(ctx context.Context, art *artifact.Artifact, token string) (*Result, error)
}

// MockPublisher records uploads for testing.
type MockPublisher struct {
	// Err, when set, is returned by every Upload.
	Err error

	// FailFirst makes the first N uploads fail before succeeding. Used to
	// exercise retry behavior.
	FailFirst int

	// Uploads records every successful Upload call.
	Uploads []MockUpload

	attempts int
}

// MockUpload is a recorded Upload call.
type MockUpload struct {
	Artifact *artifact.Artifact
	Token    string
}

func (m *MockPublisher) Name() string { return "mock" }

func (m *MockPublisher) Upload(ctx context.Context, art *artifact.Artifact, token string) (*Result, error) {
	m.attempts++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.attempts <= m.FailFirst {
		return nil, errors.New("transient upload failure")
	}
	m.Uploads = append(m.Uploads, MockUpload{Artifact: art, Token: token})
	return &Result{
		URL:        "mock://" + art.Filename(),
		Channel:    "mock",
		UploadedAt: time.Now(),
	}, nil
}

// Attempts returns the total number of Upload calls, including failures.
func (m *MockPublisher) Attempts() int {
	return m.attempts
}
