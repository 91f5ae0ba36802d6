package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/famcal-notifier/internal/domain/calendar"
)

// Firestore collection and field names written by the mobile clients.
const (
	collectionUsers    = "users"
	collectionFamilies = "families"
	collectionChildren = "children"
	collectionEvents   = "events"

	fieldDestinations = "fcm_tokens"
	fieldStartDate    = "start_date"
)

// FirestoreStore reads calendar documents from Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore connects to the project's default database.
func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	return &FirestoreStore{client: client}, nil
}

// GetUser loads users/{userID}.
func (s *FirestoreStore) GetUser(ctx context.Context, userID string) (*calendar.User, error) {
	var doc userDocument
	if err := s.get(ctx, s.client.Collection(collectionUsers).Doc(userID), &doc); err != nil {
		return nil, fmt.Errorf("get user %q: %w", userID, err)
	}

	return doc.toDomain(userID), nil
}

// GetFamily loads families/{familyID}.
func (s *FirestoreStore) GetFamily(ctx context.Context, familyID string) (*calendar.Family, error) {
	var doc familyDocument
	if err := s.get(ctx, s.family(familyID), &doc); err != nil {
		return nil, fmt.Errorf("get family %q: %w", familyID, err)
	}

	return doc.toDomain(familyID), nil
}

// GetChild loads families/{familyID}/children/{childID}.
func (s *FirestoreStore) GetChild(ctx context.Context, familyID, childID string) (*calendar.Child, error) {
	var doc childDocument
	if err := s.get(ctx, s.family(familyID).Collection(collectionChildren).Doc(childID), &doc); err != nil {
		return nil, fmt.Errorf("get child %q: %w", childID, err)
	}

	return &calendar.Child{ID: childID, FamilyID: familyID, DisplayName: doc.DisplayName}, nil
}

// GetEvent loads families/{familyID}/events/{eventID}.
func (s *FirestoreStore) GetEvent(ctx context.Context, familyID, eventID string) (*calendar.Event, error) {
	var doc eventDocument
	if err := s.get(ctx, s.family(familyID).Collection(collectionEvents).Doc(eventID), &doc); err != nil {
		return nil, fmt.Errorf("get event %q: %w", eventID, err)
	}

	return doc.toDomain(familyID, eventID), nil
}

// ListFamilies returns every family document.
func (s *FirestoreStore) ListFamilies(ctx context.Context) ([]*calendar.Family, error) {
	snapshots, err := s.client.Collection(collectionFamilies).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}

	families := make([]*calendar.Family, 0, len(snapshots))

	for _, snapshot := range snapshots {
		var doc familyDocument
		if err = snapshot.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode family %q: %w", snapshot.Ref.ID, err)
		}

		families = append(families, doc.toDomain(snapshot.Ref.ID))
	}

	return families, nil
}

// ListEventsBetween queries the family's events by start_date.
func (s *FirestoreStore) ListEventsBetween(
	ctx context.Context,
	familyID string,
	from, to time.Time,
) ([]*calendar.Event, error) {
	snapshots, err := s.family(familyID).Collection(collectionEvents).
		Where(fieldStartDate, ">=", from.UTC()).
		Where(fieldStartDate, "<", to.UTC()).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("list events of family %q: %w", familyID, err)
	}

	events := make([]*calendar.Event, 0, len(snapshots))

	for _, snapshot := range snapshots {
		var doc eventDocument
		if err = snapshot.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode event %q: %w", snapshot.Ref.ID, err)
		}

		events = append(events, doc.toDomain(familyID, snapshot.Ref.ID))
	}

	return events, nil
}

// RemoveDestinations deletes the device entries of the user's token map.
func (s *FirestoreStore) RemoveDestinations(ctx context.Context, userID string, deviceIDs []string) error {
	if len(deviceIDs) == 0 {
		return nil
	}

	updates := make([]firestore.Update, 0, len(deviceIDs))
	for _, deviceID := range deviceIDs {
		updates = append(updates, firestore.Update{
			FieldPath: firestore.FieldPath{fieldDestinations, deviceID},
			Value:     firestore.Delete,
		})
	}

	_, err := s.client.Collection(collectionUsers).Doc(userID).Update(ctx, updates)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("remove destinations of user %q: %w", userID, err)
	}

	return nil
}

// Close releases the client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) family(familyID string) *firestore.DocumentRef {
	return s.client.Collection(collectionFamilies).Doc(familyID)
}

// get decodes a document, mapping a missing one to ErrNotFound.
func (s *FirestoreStore) get(ctx context.Context, ref *firestore.DocumentRef, dst any) error {
	snapshot, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}

		return err
	}

	if !snapshot.Exists() {
		return ErrNotFound
	}

	if err = snapshot.DataTo(dst); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}

	return nil
}
