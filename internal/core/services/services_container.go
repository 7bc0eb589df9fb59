package services

import (
	"github.com/finlens/finlens_backend/internal/adapters/books"
	"github.com/finlens/finlens_backend/internal/adapters/llm"
	portsrepo "github.com/finlens/finlens_backend/internal/core/ports/repositories"
	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/platform/config"
)

// NewServiceContainer wires every service facade with its dependencies.
func NewServiceContainer(cfg *config.Config, repos *portsrepo.RepositoryProvider, booksClient books.Client, llmClient llm.Client) *portssvc.ServiceContainer {
	connectionSvc := NewConnectionService(cfg, repos.ConnectionRepo)

	return &portssvc.ServiceContainer{
		GoogleOAuth: NewGoogleOAuthService(cfg),
		Token:       NewTokenService(cfg),
		Connection:  connectionSvc,
		Dashboard:   NewDashboardService(connectionSvc, booksClient),
		Snapshot:    NewSnapshotService(connectionSvc, booksClient, llmClient, repos.SnapshotRepo),
		Query:       NewQueryService(cfg, connectionSvc, llmClient, repos.SnapshotRepo, repos.AnswerAuditRepo),
	}
}
