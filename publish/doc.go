// Package publish uploads built artifacts to distribution channels.
//
// Core types:
//   - Publisher: Interface for uploading an artifact
//   - Result: Where the artifact landed
//
// Implementations:
//   - AnacondaPublisher: Uploads to an anaconda.org-style package index
//   - GitHubPublisher: Attaches artifacts to GitHub release tags
//   - GitLabPublisher: Publishes to a GitLab generic package registry
//   - S3Publisher: Uploads to S3-compatible object storage
//   - MockPublisher: Records uploads (for testing)
//
// Publishers receive the token per call rather than at construction, so a
// single configured publisher serves both trusted and untrusted runs and
// the token stays inside the trust decision.
package publish
