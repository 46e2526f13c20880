package audit

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AppName is the RFC5424 APP-NAME of every message
const AppName = "data-schema"

// Structured data IDs. 32473 is the IANA example enterprise number.
const (
	SDIDSubject = "subject@32473"
	SDIDClient  = "client@32473"
	SDIDSchema  = "schema@32473"
	SDIDAction  = "action@32473"
)

// FacilityLocal0 is the syslog facility of schema change messages
const FacilityLocal0 = 16

// Severity levels matching syslog (RFC5424)
type Severity int

const (
	SeverityEmergency Severity = iota
	SeverityAlert
	SeverityCritical
	SeverityError
	SeverityWarning
	SeverityNotice
	SeverityInfo
	SeverityDebug
)

// Event represents an audit event
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	Facility() int
	StructuredData() map[string]map[string]string
}

// Logger writes audit events in RFC5424 syslog format and, when a store is set,
// persists them. A nil Logger discards events.
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	store    *Store
	errors   *zap.Logger
	hostname string
	pid      int
}

// NewLogger creates an audit logger writing to stdout
func NewLogger() *Logger {
	hostname, _ := os.Hostname()
	return &Logger{
		writer:   os.Stdout,
		errors:   zap.NewNop(),
		hostname: hostname,
		pid:      os.Getpid(),
	}
}

// SetWriter sets the output writer for the logger
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// SetStore persists every logged event to s
func (l *Logger) SetStore(s *Store) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store = s
}

// SetErrorLogger reports failures to persist events
func (l *Logger) SetErrorLogger(logger *zap.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = logger
}

// Log writes an audit event.
// Format: <PRI>VERSION TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD MSG
func (l *Logger) Log(event Event) {
	if l == nil {
		return
	}
	now := time.Now().UTC()
	line := l.format(event, now)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.writer, line)

	if l.store == nil {
		return
	}
	if err := l.store.Save(event, l.hostname, l.pid, now); err != nil {
		l.errors.Error("failed to save audit event", zap.String("msgid", event.MessageID()), zap.Error(err))
	}
}

func (l *Logger) format(event Event, at time.Time) string {
	pri := event.Facility()*8 + int(event.Severity())

	sd := formatStructuredData(event.StructuredData())
	if sd == "" {
		sd = "-"
	}
	hostname := l.hostname
	if hostname == "" {
		hostname = "-"
	}

	return fmt.Sprintf("<%d>1 %s %s %s %d %s %s %s\n",
		pri,
		at.Format("2006-01-02T15:04:05.000Z"),
		hostname,
		AppName,
		l.pid,
		event.MessageID(),
		sd,
		event.Message(),
	)
}

// formatStructuredData renders [sdid param="value"...] elements in sorted order
func formatStructuredData(sd map[string]map[string]string) string {
	if len(sd) == 0 {
		return ""
	}

	ids := make([]string, 0, len(sd))
	for id := range sd {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		params := sd[id]
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("[" + id)
		for _, k := range keys {
			b.WriteString(" " + k + "=" + escapeSDValue(params[k]))
		}
		b.WriteString("]")
	}
	return b.String()
}

// escapeSDValue quotes a PARAM-VALUE, escaping '"', '\' and ']' (RFC5424 6.3.3)
func escapeSDValue(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	value = strings.ReplaceAll(value, "]", "\\]")
	return "\"" + value + "\""
}
