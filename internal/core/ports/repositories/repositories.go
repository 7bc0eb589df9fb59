package repositories

// RepositoryProvider aggregates all repository implementations for injection
// into the service layer.
type RepositoryProvider struct {
	ConnectionRepo  ConnectionRepository
	SnapshotRepo    SnapshotRepository
	AnswerAuditRepo AnswerAuditRepository
}
