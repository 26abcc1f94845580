package testutil

import (
	"time"

	"github.com/google/uuid"

	authmodels "phonetrack/internal/auth/models"
	trackingmodels "phonetrack/internal/tracking/models"
	id "phonetrack/pkg/domain"
)

// TestIDs are fixed IDs for deterministic fixtures.
var TestIDs = struct {
	UserID1   id.UserID
	UserID2   id.UserID
	RecordID1 id.RecordID
	RecordID2 id.RecordID
}{
	UserID1:   id.UserID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	UserID2:   id.UserID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
	RecordID1: id.RecordID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")),
	RecordID2: id.RecordID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000002")),
}

type UserBuilder struct {
	user *authmodels.User
}

func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		user: &authmodels.User{
			ID:           id.NewUserID(),
			Email:        "test@example.com",
			PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceholderplace",
			Name:         "Test",
			Phone:        "555",
			CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
		},
	}
}

func (b *UserBuilder) WithID(userID id.UserID) *UserBuilder {
	b.user.ID = userID
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

func (b *UserBuilder) WithPasswordHash(hash string) *UserBuilder {
	b.user.PasswordHash = hash
	return b
}

func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.user.Name = name
	return b
}

func (b *UserBuilder) Build() *authmodels.User {
	return b.user
}

type RecordBuilder struct {
	record *trackingmodels.Record
}

func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{
		record: &trackingmodels.Record{
			ID:          id.NewRecordID(),
			OwnerID:     TestIDs.UserID1,
			PhoneNumber: "555-1",
			Description: "d",
			Location:    "here",
			Status:      trackingmodels.DefaultStatus,
			CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
		},
	}
}

func (b *RecordBuilder) WithID(recordID id.RecordID) *RecordBuilder {
	b.record.ID = recordID
	return b
}

func (b *RecordBuilder) WithOwner(ownerID id.UserID) *RecordBuilder {
	b.record.OwnerID = ownerID
	return b
}

func (b *RecordBuilder) WithPhone(phone string) *RecordBuilder {
	b.record.PhoneNumber = phone
	return b
}

func (b *RecordBuilder) WithPhotoURL(url string) *RecordBuilder {
	b.record.PhotoURL = &url
	return b
}

func (b *RecordBuilder) CreatedAt(t time.Time) *RecordBuilder {
	b.record.CreatedAt = t
	return b
}

func (b *RecordBuilder) Build() *trackingmodels.Record {
	return b.record
}
