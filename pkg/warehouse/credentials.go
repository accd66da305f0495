package warehouse

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gdelt/pkg/apperror"
	"gdelt/pkg/config"
)

// serviceAccount is the subset of a Google-style service-account JSON file
// needed to mint a bearer assertion: a client email (the JWT issuer and
// subject) and an RSA private key (the signing key).
type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	TokenURI    string `json:"token_uri"`
}

// assertionClaims is the standard JWT bearer assertion shape for the
// OAuth2 service-account flow: issuer and subject are the service
// account's email, audience is the token endpoint.
type assertionClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Credentials holds a resolved warehouse credential: the service account
// identity and a signed bearer assertion ready to present at the token
// endpoint. Its presence and ResolvedPath are safe to log; PrivateKeyPEM
// never is.
type Credentials struct {
	ClientEmail   string
	ProjectID     string
	ResolvedPath  string
	BearerJWT     string
	PrivateKeyPEM []byte
}

// ResolveCredentials implements ambient/explicit credential resolution:
// an explicit file path, if given, is resolved against
// WarehouseConfig.CredentialsAllowedDir and traversal outside it is
// rejected; otherwise the ambient GOOGLE_APPLICATION_CREDENTIALS-style
// environment path is used. No credential content is ever logged, only
// whether one was found and where.
func ResolveCredentials(cfg *config.WarehouseConfig) (*Credentials, error) {
	path, err := resolveCredentialsPath(cfg)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, apperror.ErrMissingCredentials
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMissingCredentials, "failed to read warehouse credentials file")
	}

	var sa serviceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMissingCredentials, "failed to parse warehouse credentials file")
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, apperror.New(apperror.CodeMissingCredentials, "warehouse credentials file missing client_email or private_key")
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMissingCredentials, "warehouse credentials private key is not valid PEM")
	}

	now := time.Now()
	claims := assertionClaims{
		Scope: "https://www.googleapis.com/auth/bigquery.readonly",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sa.ClientEmail,
			Subject:   sa.ClientEmail,
			Audience:  jwt.ClaimStrings{sa.TokenURI},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMissingCredentials, "failed to sign warehouse bearer assertion")
	}

	return &Credentials{
		ClientEmail:  sa.ClientEmail,
		ProjectID:    sa.ProjectID,
		ResolvedPath: path,
		BearerJWT:    signed,
	}, nil
}

// resolveCredentialsPath applies the explicit-path-or-ambient rule and
// rejects directory traversal outside CredentialsAllowedDir.
func resolveCredentialsPath(cfg *config.WarehouseConfig) (string, error) {
	candidate := cfg.CredentialsPath
	if candidate == "" {
		candidate = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if candidate == "" {
		return "", nil
	}

	if cfg.CredentialsAllowedDir == "" {
		return filepath.Clean(candidate), nil
	}

	allowedDir, err := filepath.Abs(cfg.CredentialsAllowedDir)
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodeMissingCredentials, "failed to resolve credentials allowed directory")
	}
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodeMissingCredentials, "failed to resolve credentials path")
	}

	rel, err := filepath.Rel(allowedDir, abs)
	if err != nil || rel == ".." || len(rel) >= 2 && rel[:2] == ".." {
		return "", apperror.New(apperror.CodeMissingCredentials,
			fmt.Sprintf("credentials path %q escapes allowed directory %q", candidate, cfg.CredentialsAllowedDir))
	}

	return abs, nil
}
