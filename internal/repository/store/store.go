package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
)

// Driver names accepted by Open.
const (
	DriverFirestore = "firestore"
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnsupportedDriver is returned by Open for unknown drivers.
	ErrUnsupportedDriver = errors.New("unsupported store driver")
)

// Reader is the read-only view of the calendar data.
type Reader interface {
	GetUser(ctx context.Context, userID string) (*calendar.User, error)
	GetFamily(ctx context.Context, familyID string) (*calendar.Family, error)
	GetChild(ctx context.Context, familyID, childID string) (*calendar.Child, error)
	GetEvent(ctx context.Context, familyID, eventID string) (*calendar.Event, error)
	ListFamilies(ctx context.Context) ([]*calendar.Family, error)
	// ListEventsBetween returns the events whose StartDate is in [from, to).
	ListEventsBetween(ctx context.Context, familyID string, from, to time.Time) ([]*calendar.Event, error)
}

// DestinationWriter removes push registrations reported as invalid.
type DestinationWriter interface {
	// RemoveDestinations deletes the given devices of the user. Unknown users and
	// devices are ignored.
	RemoveDestinations(ctx context.Context, userID string, deviceIDs []string) error
}

// Store combines the read and write sides with resource cleanup.
type Store interface {
	Reader
	DestinationWriter
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	// Driver is one of the Driver* constants.
	Driver string
	// ProjectID is the Google Cloud project for Firestore.
	ProjectID string
	// CredentialsFile is an optional service account key for Firestore.
	CredentialsFile string
	// DSN is the data source for SQL drivers.
	DSN string
}

// Open creates the backend described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Driver) {
	case DriverFirestore:
		return NewFirestoreStore(ctx, opts.ProjectID, opts.CredentialsFile)
	case DriverSQLite, DriverPostgres, DriverMySQL:
		return OpenSQL(ctx, opts.Driver, opts.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, opts.Driver)
	}
}

var (
	_ Store = (*FirestoreStore)(nil)
	_ Store = (*SQLStore)(nil)
)
