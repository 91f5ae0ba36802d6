package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
)

// SQLStore keeps the calendar data in a relational database.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQL connects to the database, applies pool settings and creates the schema.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err = dialect.ConfigureConnection(db); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("configure connection: %w", err)
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err = s.migrate(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	return s, nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// GetUser loads a user with destinations and preferences.
func (s *SQLStore) GetUser(ctx context.Context, userID string) (*calendar.User, error) {
	user := &calendar.User{
		ID:           userID,
		Destinations: make(map[string]calendar.Destination),
		Preferences:  make(calendar.Preferences),
	}

	err := s.queryRow(ctx, `SELECT display_name FROM users WHERE id = ?`, userID).Scan(&user.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", userID, notFound(err))
	}

	rows, err := s.query(ctx,
		`SELECT device_id, token, platform FROM user_destinations WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("get destinations of user %q: %w", userID, err)
	}

	err = scanAll(rows, func(rows *sql.Rows) error {
		var deviceID string

		var dest calendar.Destination
		if err := rows.Scan(&deviceID, &dest.Token, &dest.Platform); err != nil {
			return err
		}

		user.Destinations[deviceID] = dest

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan destinations of user %q: %w", userID, err)
	}

	rows, err = s.query(ctx,
		`SELECT category, enabled FROM user_preferences WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("get preferences of user %q: %w", userID, err)
	}

	err = scanAll(rows, func(rows *sql.Rows) error {
		var (
			category string
			enabled  bool
		)

		if err := rows.Scan(&category, &enabled); err != nil {
			return err
		}

		user.Preferences[calendar.Category(category)] = enabled

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan preferences of user %q: %w", userID, err)
	}

	return user, nil
}

// GetFamily loads a family with its members in insertion order.
func (s *SQLStore) GetFamily(ctx context.Context, familyID string) (*calendar.Family, error) {
	family := &calendar.Family{ID: familyID}

	err := s.queryRow(ctx, `SELECT owner_id FROM families WHERE id = ?`, familyID).Scan(&family.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("get family %q: %w", familyID, notFound(err))
	}

	members, err := s.members(ctx, `WHERE family_id = ?`, familyID)
	if err != nil {
		return nil, err
	}

	family.MemberIDs = members[familyID]

	return family, nil
}

// ListFamilies returns every family ordered by id.
func (s *SQLStore) ListFamilies(ctx context.Context) ([]*calendar.Family, error) {
	rows, err := s.query(ctx, `SELECT id, owner_id FROM families ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}

	var families []*calendar.Family

	err = scanAll(rows, func(rows *sql.Rows) error {
		family := new(calendar.Family)
		if err := rows.Scan(&family.ID, &family.OwnerID); err != nil {
			return err
		}

		families = append(families, family)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan families: %w", err)
	}

	members, err := s.members(ctx, "")
	if err != nil {
		return nil, err
	}

	for _, family := range families {
		family.MemberIDs = members[family.ID]
	}

	return families, nil
}

// GetChild loads a child of the family.
func (s *SQLStore) GetChild(ctx context.Context, familyID, childID string) (*calendar.Child, error) {
	child := &calendar.Child{ID: childID, FamilyID: familyID}

	err := s.queryRow(ctx,
		`SELECT display_name FROM children WHERE family_id = ? AND id = ?`, familyID, childID).
		Scan(&child.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("get child %q: %w", childID, notFound(err))
	}

	return child, nil
}

const eventColumns = `id, family_id, child_id, role, place, start_date, start_time, end_time,
	responsible_member_id, created_by`

// GetEvent loads an event of the family.
func (s *SQLStore) GetEvent(ctx context.Context, familyID, eventID string) (*calendar.Event, error) {
	row := s.queryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE family_id = ? AND id = ?`, familyID, eventID)

	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("get event %q: %w", eventID, notFound(err))
	}

	return event, nil
}

// ListEventsBetween compares ISO dates lexically, which matches calendar order.
func (s *SQLStore) ListEventsBetween(
	ctx context.Context,
	familyID string,
	from, to time.Time,
) ([]*calendar.Event, error) {
	rows, err := s.query(ctx,
		`SELECT `+eventColumns+` FROM events
		WHERE family_id = ? AND start_date >= ? AND start_date < ?
		ORDER BY start_date, start_time, id`,
		familyID, calendar.FormatDate(from), calendar.FormatDate(to))
	if err != nil {
		return nil, fmt.Errorf("list events of family %q: %w", familyID, err)
	}

	var events []*calendar.Event

	err = scanAll(rows, func(rows *sql.Rows) error {
		event, err := scanEvent(rows)
		if err != nil {
			return err
		}

		events = append(events, event)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan events of family %q: %w", familyID, err)
	}

	return events, nil
}

// RemoveDestinations deletes the user's devices in one transaction.
func (s *SQLStore) RemoveDestinations(ctx context.Context, userID string, deviceIDs []string) error {
	if len(deviceIDs) == 0 {
		return nil
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, deviceID := range deviceIDs {
			if _, err := s.execTx(ctx, tx,
				`DELETE FROM user_destinations WHERE user_id = ? AND device_id = ?`, userID, deviceID); err != nil {
				return fmt.Errorf("remove destination %q of user %q: %w", deviceID, userID, err)
			}
		}

		return nil
	})
}

// SaveUser replaces the user row with its destinations and preferences.
func (s *SQLStore) SaveUser(ctx context.Context, user *calendar.User) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM users WHERE id = ?`,
			`DELETE FROM user_destinations WHERE user_id = ?`,
			`DELETE FROM user_preferences WHERE user_id = ?`,
		} {
			if _, err := s.execTx(ctx, tx, stmt, user.ID); err != nil {
				return fmt.Errorf("clear user %q: %w", user.ID, err)
			}
		}

		if _, err := s.execTx(ctx, tx,
			`INSERT INTO users (id, display_name) VALUES (?, ?)`, user.ID, user.DisplayName); err != nil {
			return fmt.Errorf("insert user %q: %w", user.ID, err)
		}

		for _, deviceID := range slices.Sorted(maps.Keys(user.Destinations)) {
			dest := user.Destinations[deviceID]
			if _, err := s.execTx(ctx, tx,
				`INSERT INTO user_destinations (user_id, device_id, token, platform) VALUES (?, ?, ?, ?)`,
				user.ID, deviceID, dest.Token, dest.Platform); err != nil {
				return fmt.Errorf("insert destination %q: %w", deviceID, err)
			}
		}

		for category, enabled := range user.Preferences {
			if _, err := s.execTx(ctx, tx,
				`INSERT INTO user_preferences (user_id, category, enabled) VALUES (?, ?, ?)`,
				user.ID, string(category), enabled); err != nil {
				return fmt.Errorf("insert preference %q: %w", category, err)
			}
		}

		return nil
	})
}

// SaveFamily replaces the family row and its member list.
func (s *SQLStore) SaveFamily(ctx context.Context, family *calendar.Family) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM families WHERE id = ?`,
			`DELETE FROM family_members WHERE family_id = ?`,
		} {
			if _, err := s.execTx(ctx, tx, stmt, family.ID); err != nil {
				return fmt.Errorf("clear family %q: %w", family.ID, err)
			}
		}

		if _, err := s.execTx(ctx, tx,
			`INSERT INTO families (id, owner_id) VALUES (?, ?)`, family.ID, family.OwnerID); err != nil {
			return fmt.Errorf("insert family %q: %w", family.ID, err)
		}

		for position, memberID := range family.MemberIDs {
			if _, err := s.execTx(ctx, tx,
				`INSERT INTO family_members (family_id, user_id, position) VALUES (?, ?, ?)`,
				family.ID, memberID, position); err != nil {
				return fmt.Errorf("insert member %q: %w", memberID, err)
			}
		}

		return nil
	})
}

// SaveChild replaces the child row.
func (s *SQLStore) SaveChild(ctx context.Context, child *calendar.Child) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.execTx(ctx, tx,
			`DELETE FROM children WHERE family_id = ? AND id = ?`, child.FamilyID, child.ID); err != nil {
			return fmt.Errorf("clear child %q: %w", child.ID, err)
		}

		if _, err := s.execTx(ctx, tx,
			`INSERT INTO children (family_id, id, display_name) VALUES (?, ?, ?)`,
			child.FamilyID, child.ID, child.DisplayName); err != nil {
			return fmt.Errorf("insert child %q: %w", child.ID, err)
		}

		return nil
	})
}

// SaveEvent replaces the event row.
func (s *SQLStore) SaveEvent(ctx context.Context, event *calendar.Event) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.deleteEvent(ctx, tx, event.FamilyID, event.ID); err != nil {
			return err
		}

		if _, err := s.execTx(ctx, tx,
			`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID, event.FamilyID, event.ChildID, string(event.Role), event.Place,
			calendar.FormatDate(event.StartDate), event.StartTime, event.EndTime,
			event.ResponsibleMemberID, event.CreatedBy); err != nil {
			return fmt.Errorf("insert event %q: %w", event.ID, err)
		}

		return nil
	})
}

// DeleteEvent removes the event row if present.
func (s *SQLStore) DeleteEvent(ctx context.Context, familyID, eventID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.deleteEvent(ctx, tx, familyID, eventID)
	})
}

func (s *SQLStore) deleteEvent(ctx context.Context, tx *sql.Tx, familyID, eventID string) error {
	if _, err := s.execTx(ctx, tx,
		`DELETE FROM events WHERE family_id = ? AND id = ?`, familyID, eventID); err != nil {
		return fmt.Errorf("delete event %q: %w", eventID, err)
	}

	return nil
}

// members returns member lists keyed by family, each in stored order.
func (s *SQLStore) members(ctx context.Context, where string, args ...any) (map[string][]string, error) {
	rows, err := s.query(ctx,
		`SELECT family_id, user_id FROM family_members `+where+` ORDER BY family_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}

	members := make(map[string][]string)

	err = scanAll(rows, func(rows *sql.Rows) error {
		var familyID, userID string
		if err := rows.Scan(&familyID, &userID); err != nil {
			return err
		}

		members[familyID] = append(members[familyID], userID)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan family members: %w", err)
	}

	return members, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	return nil
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.RewriteQuery(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.RewriteQuery(query), args...)
}

func (s *SQLStore) execTx(ctx context.Context, tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	return tx.ExecContext(ctx, s.dialect.RewriteQuery(query), args...)
}

// inTx runs fn in a transaction, committing when it returns nil.
func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*calendar.Event, error) {
	var (
		event     calendar.Event
		role      string
		startDate string
	)

	err := row.Scan(&event.ID, &event.FamilyID, &event.ChildID, &role, &event.Place, &startDate,
		&event.StartTime, &event.EndTime, &event.ResponsibleMemberID, &event.CreatedBy)
	if err != nil {
		return nil, err
	}

	event.Role = calendar.Role(role)

	if event.StartDate, err = calendar.ParseDate(startDate); err != nil {
		return nil, err
	}

	return &event, nil
}

// scanAll walks the rows and closes them.
func scanAll(rows *sql.Rows, fn func(rows *sql.Rows) error) error {
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}

	return rows.Err()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	return err
}
