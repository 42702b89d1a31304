package identity

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Federated verification errors
var (
	ErrTokenRejected = errors.New("federated token rejected")
	ErrUnknownKey    = errors.New("federated token signed by unknown key")
)

// FederatedIdentity is the subject extracted from a verified third-party
// ID token.
type FederatedIdentity struct {
	UID   string
	Email string
	Name  string
}

// TokenVerifier verifies an opaque third-party ID token and returns the
// federated identity it asserts.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*FederatedIdentity, error)
}

// Config for the issuer-backed verifier.
type Config struct {
	// Issuer expected in the token's iss claim, e.g. https://securetoken.google.com/<project>
	Issuer string
	// Audience expected in the token's aud claim (the project ID)
	Audience string
	// CertsURL serves the issuer's current signing certificates as a
	// JSON object of kid -> PEM certificate
	CertsURL string
	// CacheTTL bounds how long fetched certificates are reused
	CacheTTL time.Duration
}

// IssuerVerifier validates RS256 ID tokens against certificates fetched from
// the issuer. Certificates are cached between requests.
type IssuerVerifier struct {
	config Config
	client *http.Client

	mu        sync.Mutex
	certs     map[string]string
	fetchedAt time.Time
}

type federatedClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// NewIssuerVerifier creates a verifier for the configured issuer.
func NewIssuerVerifier(config Config) *IssuerVerifier {
	if config.CacheTTL <= 0 {
		config.CacheTTL = time.Hour
	}
	return &IssuerVerifier{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify parses and validates the ID token and extracts the federated subject.
func (v *IssuerVerifier) Verify(ctx context.Context, idToken string) (*FederatedIdentity, error) {
	claims := &federatedClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKey
		}
		certPEM, err := v.certFor(ctx, kid)
		if err != nil {
			return nil, err
		}
		return parsePublicKey(certPEM)
	},
		jwt.WithIssuer(v.config.Issuer),
		jwt.WithAudience(v.config.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenRejected, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenRejected
	}

	return &FederatedIdentity{
		UID:   claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}

// certFor returns the PEM certificate for a key ID, refreshing the cache
// when it is stale or the key is unknown.
func (v *IssuerVerifier) certFor(ctx context.Context, kid string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.certs != nil && time.Since(v.fetchedAt) < v.config.CacheTTL {
		if cert, ok := v.certs[kid]; ok {
			return cert, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.CertsURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch issuer certificates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("issuer certificate endpoint returned %d", resp.StatusCode)
	}

	certs := map[string]string{}
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return "", fmt.Errorf("failed to decode issuer certificates: %w", err)
	}

	v.certs = certs
	v.fetchedAt = time.Now()

	cert, ok := certs[kid]
	if !ok {
		return "", ErrUnknownKey
	}
	return cert, nil
}

func parsePublicKey(certPEM string) (interface{}, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, errors.New("invalid certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert.PublicKey, nil
}
