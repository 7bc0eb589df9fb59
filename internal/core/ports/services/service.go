package services

// ServiceContainer aggregates all service facades for injection into the
// handler layer.
type ServiceContainer struct {
	GoogleOAuth GoogleOAuthSvcFacade
	Token       TokenSvcFacade
	Connection  ConnectionSvcFacade
	Dashboard   DashboardSvcFacade
	Snapshot    SnapshotSvcFacade
	Query       QuerySvcFacade
}
