package audit

import "fmt"

// Operation is a change made to a schema
type Operation string

const (
	OperationCreate      Operation = "create"
	OperationDelete      Operation = "delete"
	OperationSyncFields  Operation = "sync-fields"
	OperationUpsertField Operation = "upsert-field"
	OperationDeleteField Operation = "delete-field"
	OperationLoad        Operation = "load"
)

var verbs = map[Operation]string{
	OperationCreate:      "create",
	OperationDelete:      "delete",
	OperationSyncFields:  "replace the fields of",
	OperationUpsertField: "update",
	OperationDeleteField: "delete",
	OperationLoad:        "load",
}

// SchemaChangeEvent records a write to a schema or one of its fields
type SchemaChangeEvent struct {
	Subject      string
	ClientIP     string
	Schema       string
	Field        string
	Operation    Operation
	Success      bool
	ErrorMessage string
}

func (e SchemaChangeEvent) MessageID() string {
	return string(e.Operation)
}

func (e SchemaChangeEvent) Message() string {
	subject := e.Subject
	if subject == "" {
		subject = "anonymous"
	}
	target := "schema " + e.Schema
	if e.Field != "" {
		target = fmt.Sprintf("field %s of schema %s", e.Field, e.Schema)
	}
	verb, ok := verbs[e.Operation]
	if !ok {
		verb = string(e.Operation)
	}

	if e.Success {
		return fmt.Sprintf("%s successfully %s %s", subject, pastTense(verb), target)
	}
	msg := fmt.Sprintf("%s failed to %s %s", subject, verb, target)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e SchemaChangeEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e SchemaChangeEvent) Facility() int {
	return FacilityLocal0
}

func (e SchemaChangeEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	sd := map[string]map[string]string{
		SDIDAction: {"operation": string(e.Operation), "result": result},
		SDIDSchema: {"name": e.Schema},
	}
	if e.Subject != "" {
		sd[SDIDSubject] = map[string]string{"user": e.Subject}
	}
	if e.ClientIP != "" {
		sd[SDIDClient] = map[string]string{"ip": e.ClientIP}
	}
	if e.Field != "" {
		sd[SDIDSchema]["field"] = e.Field
	}
	return sd
}

func pastTense(verb string) string {
	switch verb {
	case "replace the fields of":
		return "replaced the fields of"
	case "update":
		return "updated"
	case "load":
		return "loaded"
	default:
		return verb + "d"
	}
}
