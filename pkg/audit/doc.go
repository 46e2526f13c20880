// Package audit records changes to data schemas.
//
// Every write through the API or the loader produces a SchemaChangeEvent.
// Events are written as RFC5424 syslog lines and, when a Store is attached,
// saved to the audit_messages table.
//
//	logger := audit.NewLogger()
//	logger.SetStore(audit.NewStore(sqlDB))
//	logger.Log(audit.SchemaChangeEvent{
//		Subject:   "alice",
//		Schema:    "readings",
//		Operation: audit.OperationCreate,
//		Success:   true,
//	})
package audit
