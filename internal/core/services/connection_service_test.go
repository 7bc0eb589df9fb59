package services_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/finlens/finlens_backend/internal/apperrors"
	"github.com/finlens/finlens_backend/internal/core/domain"
	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/core/services"
	"github.com/finlens/finlens_backend/internal/platform/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/oauth2"
)

// --- Mock ConnectionRepository ---
type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) FindByUser(ctx context.Context, userID string) (*domain.ProviderConnection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderConnection), args.Error(1)
}

func (m *MockConnectionRepository) Save(ctx context.Context, conn domain.ProviderConnection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionRepository) Delete(ctx context.Context, userID string, realmID string) error {
	args := m.Called(ctx, userID, realmID)
	return args.Error(0)
}

// --- Test Suite ---
type ConnectionServiceTestSuite struct {
	suite.Suite
	mockRepo *MockConnectionRepository
	cfg      *config.Config
	now      time.Time
}

func (suite *ConnectionServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockConnectionRepository)
	suite.cfg = &config.Config{
		BooksClientID:      "client",
		BooksClientSecret:  "secret",
		BooksAuthURL:       "https://provider.example/oauth2",
		BooksTokenURL:      "https://provider.example/tokens",
		TokenRefreshMargin: 90 * time.Second,
	}
	suite.now = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func (suite *ConnectionServiceTestSuite) newService(refresh func(ctx context.Context, refreshToken string) (*oauth2.Token, error)) portssvc.ConnectionSvcFacade {
	options := []services.ConnectionServiceOption{
		services.WithConnectionClock(func() time.Time { return suite.now }),
	}
	if refresh != nil {
		options = append(options, services.WithTokenRefresher(refresh))
	}
	return services.NewConnectionService(suite.cfg, suite.mockRepo, options...)
}

func (suite *ConnectionServiceTestSuite) storedConnection(expiresIn time.Duration) *domain.ProviderConnection {
	return &domain.ProviderConnection{
		UserID:          "user-1",
		RealmID:         "realm-9",
		AccessToken:     "stored-access",
		RefreshToken:    "stored-refresh",
		AccessExpiresAt: suite.now.Add(expiresIn),
	}
}

// --- Test Cases ---

func (suite *ConnectionServiceTestSuite) TestEnsureValidAccessToken_FreshTokenSkipsRefresh() {
	ctx := context.Background()
	suite.mockRepo.On("FindByUser", ctx, "user-1").Return(suite.storedConnection(time.Hour), nil).Once()

	svc := suite.newService(func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		suite.FailNow("refresh must not be called for a fresh token")
		return nil, nil
	})

	token, realmID, err := svc.EnsureValidAccessToken(ctx, "user-1")

	suite.Require().NoError(err)
	suite.Equal("stored-access", token)
	suite.Equal("realm-9", realmID)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ConnectionServiceTestSuite) TestEnsureValidAccessToken_WithinMarginRefreshes() {
	ctx := context.Background()
	// Expires in 30s, inside the 90s margin.
	suite.mockRepo.On("FindByUser", ctx, "user-1").Return(suite.storedConnection(30*time.Second), nil).Once()
	suite.mockRepo.On("Save", ctx, mock.MatchedBy(func(c domain.ProviderConnection) bool {
		return c.AccessToken == "new-access" && c.RefreshToken == "rotated-refresh" && c.RealmID == "realm-9"
	})).Return(nil).Once()

	svc := suite.newService(func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		suite.Equal("stored-refresh", refreshToken)
		return &oauth2.Token{
			AccessToken:  "new-access",
			RefreshToken: "rotated-refresh",
			Expiry:       suite.now.Add(time.Hour),
		}, nil
	})

	token, realmID, err := svc.EnsureValidAccessToken(ctx, "user-1")

	suite.Require().NoError(err)
	suite.Equal("new-access", token)
	suite.Equal("realm-9", realmID)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ConnectionServiceTestSuite) TestEnsureValidAccessToken_KeepsRefreshTokenWhenNotRotated() {
	ctx := context.Background()
	suite.mockRepo.On("FindByUser", ctx, "user-1").Return(suite.storedConnection(-time.Minute), nil).Once()
	suite.mockRepo.On("Save", ctx, mock.MatchedBy(func(c domain.ProviderConnection) bool {
		return c.RefreshToken == "stored-refresh"
	})).Return(nil).Once()

	svc := suite.newService(func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "new-access", Expiry: suite.now.Add(time.Hour)}, nil
	})

	_, _, err := svc.EnsureValidAccessToken(ctx, "user-1")

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ConnectionServiceTestSuite) TestEnsureValidAccessToken_InvalidGrantDeletesCredential() {
	ctx := context.Background()
	suite.mockRepo.On("FindByUser", ctx, "user-1").Return(suite.storedConnection(-time.Minute), nil).Once()
	suite.mockRepo.On("Delete", ctx, "user-1", "realm-9").Return(nil).Once()

	svc := suite.newService(func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		return nil, &oauth2.RetrieveError{
			Response: &http.Response{StatusCode: http.StatusBadRequest},
			Body:     []byte(`{"error":"invalid_grant"}`),
		}
	})

	_, _, err := svc.EnsureValidAccessToken(ctx, "user-1")

	suite.Require().ErrorIs(err, apperrors.ErrReauthRequired)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ConnectionServiceTestSuite) TestEnsureValidAccessToken_TransientFailureKeepsCredential() {
	ctx := context.Background()
	suite.mockRepo.On("FindByUser", ctx, "user-1").Return(suite.storedConnection(-time.Minute), nil).Once()

	svc := suite.newService(func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		return nil, &oauth2.RetrieveError{
			Response: &http.Response{StatusCode: http.StatusServiceUnavailable},
			Body:     []byte("upstream flake"),
		}
	})

	_, _, err := svc.EnsureValidAccessToken(ctx, "user-1")

	suite.Require().ErrorIs(err, apperrors.ErrUpstreamTransient)
	suite.mockRepo.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything, mock.Anything)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ConnectionServiceTestSuite) TestEnsureValidAccessToken_BadRequestWithoutInvalidGrantIsTransient() {
	ctx := context.Background()
	suite.mockRepo.On("FindByUser", ctx, "user-1").Return(suite.storedConnection(-time.Minute), nil).Once()

	svc := suite.newService(func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		return nil, &oauth2.RetrieveError{
			Response: &http.Response{StatusCode: http.StatusBadRequest},
			Body:     []byte(`{"error":"invalid_request"}`),
		}
	})

	_, _, err := svc.EnsureValidAccessToken(ctx, "user-1")

	suite.Require().ErrorIs(err, apperrors.ErrUpstreamTransient)
	suite.mockRepo.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ConnectionServiceTestSuite) TestEnsureValidAccessToken_NotConnected() {
	ctx := context.Background()
	suite.mockRepo.On("FindByUser", ctx, "user-1").Return(nil, apperrors.ErrNotFound).Once()

	svc := suite.newService(nil)

	_, _, err := svc.EnsureValidAccessToken(ctx, "user-1")

	suite.Require().ErrorIs(err, apperrors.ErrNotConnected)
}

func (suite *ConnectionServiceTestSuite) TestDisconnect_AlreadyDisconnectedIsNoop() {
	ctx := context.Background()
	suite.mockRepo.On("FindByUser", ctx, "user-1").Return(nil, apperrors.ErrNotFound).Once()

	svc := suite.newService(nil)

	suite.Require().NoError(svc.Disconnect(ctx, "user-1"))
	suite.mockRepo.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ConnectionServiceTestSuite) TestDisconnect_DeletesStoredConnection() {
	ctx := context.Background()
	suite.mockRepo.On("FindByUser", ctx, "user-1").Return(suite.storedConnection(time.Hour), nil).Once()
	suite.mockRepo.On("Delete", ctx, "user-1", "realm-9").Return(nil).Once()

	svc := suite.newService(nil)

	suite.Require().NoError(svc.Disconnect(ctx, "user-1"))
	suite.mockRepo.AssertExpectations(suite.T())
}


func TestConnectionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ConnectionServiceTestSuite))
}
