package trust

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimsPolicy verifies CI-issued publish tokens that are JWTs. Plain opaque
// tokens (e.g. anaconda.org tokens) skip verification by leaving the policy
// unset.
type ClaimsPolicy struct {
	// Secret is the HMAC signing key.
	Secret []byte

	// Issuer is the required token issuer (e.g. the CI system).
	Issuer string

	// Repository, when set, must match the "repository" claim. This pins
	// the token to the repository being built, so a token leaked from one
	// project cannot publish another.
	Repository string
}

// Verify parses and validates the token against the policy.
func (p *ClaimsPolicy) Verify(token string) error {
	parsed, err := jwt.Parse(token,
		func(t *jwt.Token) (any, error) {
			return p.Secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(p.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrClaimsRejected, err)
	}

	if p.Repository != "" {
		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return fmt.Errorf("%w: unexpected claims type", ErrClaimsRejected)
		}
		repo, _ := claims["repository"].(string)
		if repo != p.Repository {
			return fmt.Errorf("%w: repository %q", ErrClaimsRejected, repo)
		}
	}

	return nil
}
