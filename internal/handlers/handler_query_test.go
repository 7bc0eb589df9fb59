package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finlens/finlens_backend/internal/core/domain"
	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/handlers"
	"github.com/finlens/finlens_backend/internal/middleware"
	"github.com/finlens/finlens_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock QueryService ---
type MockQueryService struct {
	mock.Mock
	streamEvents []domain.StreamEvent
}

func (m *MockQueryService) Answer(ctx context.Context, question domain.Question) (*domain.QueryAnswer, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryAnswer), args.Error(1)
}

func (m *MockQueryService) StreamAnswer(ctx context.Context, question domain.Question, sink portssvc.AnswerSink) {
	m.Called(ctx, question)
	for _, event := range m.streamEvents {
		if err := sink(event); err != nil {
			return
		}
	}
}

// --- Test Suite ---
type QueryHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockService *MockQueryService
	jwtSecret   string
}

func (suite *QueryHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "finlens-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *QueryHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockService = new(MockQueryService)

	cfg := &config.Config{QueryRateLimit: "100-M"}
	v1 := suite.router.Group("/api/v1")
	handlers.RegisterQueryRoutes(v1, cfg, suite.mockService)
}

func (suite *QueryHandlerTestSuite) doPost(path, token, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *QueryHandlerTestSuite) TestAsk_Success() {
	userID := "google-sub-1"
	answer := &domain.QueryAnswer{
		Response:     "Revenue was up 14% in February.",
		RowsReturned: 2,
		Months:       []string{"2025-01", "2025-02"},
		TokensIn:     40,
		TokensOut:    20,
		Coverage:     0.75,
	}

	suite.mockService.On("Answer", mock.Anything, mock.MatchedBy(func(q domain.Question) bool {
		return q.UserID == userID && q.Text == "How did February go?"
	})).Return(answer, nil).Once()

	w := suite.doPost("/api/v1/query/ask", suite.generateTestToken(userID), `{"question":"How did February go?"}`)

	suite.Equal(http.StatusOK, w.Code)

	var body map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("Revenue was up 14% in February.", body["response"])
	suite.Equal(float64(2), body["rows_returned"])
	suite.Equal(float64(40), body["tokens_in"])
	suite.Equal(float64(20), body["tokens_out"])
	suite.InDelta(0.75, body["coverage"].(float64), 0.0001)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *QueryHandlerTestSuite) TestAsk_MissingQuestion() {
	w := suite.doPost("/api/v1/query/ask", suite.generateTestToken("google-sub-1"), `{}`)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(w.Body.String(), "Question required")
	suite.mockService.AssertNotCalled(suite.T(), "Answer", mock.Anything, mock.Anything)
}

func (suite *QueryHandlerTestSuite) TestAsk_Unauthorized() {
	w := suite.doPost("/api/v1/query/ask", "", `{"question":"anything here"}`)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *QueryHandlerTestSuite) TestStream_EmitsSSEFrames() {
	userID := "google-sub-1"
	suite.mockService.streamEvents = []domain.StreamEvent{
		{Type: domain.StreamEventToken, Content: "Revenue "},
		{Type: domain.StreamEventToken, Content: "was up."},
		{Type: domain.StreamEventDone, Months: []string{"2025-02"}},
	}
	suite.mockService.On("StreamAnswer", mock.Anything, mock.MatchedBy(func(q domain.Question) bool {
		return q.UserID == userID
	})).Once()

	w := suite.doPost("/api/v1/query/stream", suite.generateTestToken(userID), `{"question":"How did February go?"}`)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("text/event-stream", w.Header().Get("Content-Type"))

	frames := strings.Split(strings.TrimSpace(w.Body.String()), "\n\n")
	suite.Require().Len(frames, 3)
	for _, frame := range frames {
		suite.True(strings.HasPrefix(frame, "data: "))
	}

	var last domain.StreamEvent
	suite.Require().NoError(json.Unmarshal([]byte(strings.TrimPrefix(frames[2], "data: ")), &last))
	suite.Equal(domain.StreamEventDone, last.Type)
	suite.Equal([]string{"2025-02"}, last.Months)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *QueryHandlerTestSuite) TestStream_InvalidBodyRejectedBeforeStreaming() {
	w := suite.doPost("/api/v1/query/stream", suite.generateTestToken("google-sub-1"), `{"question":""}`)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "StreamAnswer", mock.Anything, mock.Anything)
}

func TestQueryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(QueryHandlerTestSuite))
}
