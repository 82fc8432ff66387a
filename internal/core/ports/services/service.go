package services

// AuditSink records completed operations for compliance. Publishing is
// best-effort after commit; a sink failure never rolls back ledger state.
type AuditSink interface {
	Publish(topic string, event any) error
}
