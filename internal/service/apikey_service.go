package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"time"

	"product-compare/internal/clock"
	"product-compare/internal/model"
	"product-compare/internal/repository"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
)

// rawKeyBytes is the entropy of a generated API key.
const rawKeyBytes = 32

// apiKeyService implements APIKeyService. Keys are stored as HMAC-SHA256
// hashes keyed with a server-side pepper.
type apiKeyService struct {
	repo    repository.APIKeyRepository
	pepper  []byte
	userTTL time.Duration
	clock   clock.Clock
	logger  zerolog.Logger
}

// NewAPIKeyService creates a new API key service.
func NewAPIKeyService(
	repo repository.APIKeyRepository,
	pepper string,
	userTTL time.Duration,
	clk clock.Clock,
	logger zerolog.Logger,
) APIKeyService {
	return &apiKeyService{
		repo:    repo,
		pepper:  []byte(pepper),
		userTTL: userTTL,
		clock:   clk,
		logger:  logger.With().Str("service", "api_key").Logger(),
	}
}

func (s *apiKeyService) hash(rawKey string) []byte {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(rawKey))
	return mac.Sum(nil)
}

// Authenticate looks the key up by hash and checks it is active and unexpired.
func (s *apiKeyService) Authenticate(ctx context.Context, rawKey string) (*model.APIKey, error) {
	if rawKey == "" {
		return nil, model.ErrAPIKeyRequired
	}

	sum := s.hash(rawKey)
	key, err := s.repo.FindByHash(ctx, hex.EncodeToString(sum))
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up api key")
	}
	if key == nil {
		return nil, model.ErrUnauthorised
	}

	stored, err := hex.DecodeString(key.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(sum, stored) != 1 {
		return nil, model.ErrUnauthorised
	}

	if !key.Usable(s.clock.Now()) {
		s.logger.Debug().Int64("key_id", key.ID).Msg("api key inactive or expired")
		return nil, model.ErrUnauthorised
	}

	return key, nil
}

// IssueUserKey creates a USER key valid for the configured TTL.
func (s *apiKeyService) IssueUserKey(ctx context.Context) (*model.IssuedKey, error) {
	expires := s.clock.Now().Add(s.userTTL)
	return s.issue(ctx, model.RoleUser, &expires)
}

// IssueAdminKey creates a non-expiring ADMIN key.
func (s *apiKeyService) IssueAdminKey(ctx context.Context) (*model.IssuedKey, error) {
	return s.issue(ctx, model.RoleAdmin, nil)
}

// IssueRootKey creates a non-expiring ROOT key.
func (s *apiKeyService) IssueRootKey(ctx context.Context) (*model.IssuedKey, error) {
	return s.issue(ctx, model.RoleRoot, nil)
}

func (s *apiKeyService) issue(ctx context.Context, role model.Role, expiresAt *time.Time) (*model.IssuedKey, error) {
	raw, err := generateKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate api key")
	}

	stored, err := s.repo.Create(ctx, &model.APIKey{
		KeyHash:   hex.EncodeToString(s.hash(raw)),
		Role:      role,
		Active:    true,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("role", string(role)).Msg("failed to store api key")
		return nil, errors.Wrap(err, "failed to store api key")
	}

	s.logger.Info().
		Int64("key_id", stored.ID).
		Str("role", string(role)).
		Msg("api key issued")

	return &model.IssuedKey{
		Key:       raw,
		Role:      stored.Role,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

func generateKey() (string, error) {
	buf := make([]byte, rawKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
