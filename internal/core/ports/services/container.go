package services

// ServiceContainer bundles the initialized services for handler wiring.
type ServiceContainer struct {
	Account     AccountSvcFacade
	Aggregator  ObligationAggregatorSvcFacade
	Allocation  AllocationSvcFacade
	Advance     AdvanceSvcFacade
	Accrual     AccrualSvcFacade
	Recognition RecognitionSvcFacade
	Statement   StatementSvcFacade
}
