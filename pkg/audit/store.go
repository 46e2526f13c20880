package audit

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"
)

var marshalSData = json.Marshal

// Store persists audit messages to the audit_messages table
type Store struct {
	db *sql.DB
}

// NewStore creates a store on an open connection. The connection is owned by the caller.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save inserts one audit message
func (s *Store) Save(event Event, hostname string, pid int, at time.Time) error {
	sdata, err := marshalSData(event.StructuredData())
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO audit_messages (facility, severity, timestamp, hostname, appname, procid, msgid, sdata, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		event.Facility(),
		int(event.Severity()),
		at,
		hostname,
		AppName,
		strconv.Itoa(pid),
		event.MessageID(),
		sdata,
		event.Message(),
	)
	return err
}
