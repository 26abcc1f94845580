//go:build integration

package record_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"phonetrack/internal/sentinel"
	"phonetrack/internal/tracking/models"
	"phonetrack/internal/tracking/store/record"
	id "phonetrack/pkg/domain"
	"phonetrack/pkg/testutil"
	"phonetrack/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *record.PostgresStore
	owner    id.UserID
	other    id.UserID
	base     time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = record.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))
	s.owner = s.postgres.CreateTestUser(ctx, s.T())
	s.other = s.postgres.CreateTestUser(ctx, s.T())
	s.base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) insert(owner id.UserID, phone string, offset time.Duration) *models.Record {
	r := testutil.NewRecordBuilder().WithOwner(owner).WithPhone(phone).CreatedAt(s.base.Add(offset)).Build()
	s.Require().NoError(s.store.Insert(context.Background(), r))
	return r
}

func (s *PostgresStoreSuite) TestInsertRoundTripsNullablePhoto() {
	ctx := context.Background()
	withPhoto := testutil.NewRecordBuilder().WithOwner(s.owner).WithPhotoURL("http://blob/1-a.jpg").CreatedAt(s.base).Build()
	s.Require().NoError(s.store.Insert(ctx, withPhoto))
	s.insert(s.owner, "555-1", -time.Minute)

	got, err := s.store.ListByOwner(ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Require().NotNil(got[0].PhotoURL)
	s.Equal("http://blob/1-a.jpg", *got[0].PhotoURL)
	s.Nil(got[1].PhotoURL)
}

func (s *PostgresStoreSuite) TestListByOwnerNewestFirst() {
	older := s.insert(s.owner, "555-1", 0)
	newer := s.insert(s.owner, "555-1", time.Hour)
	s.insert(s.other, "555-1", 2*time.Hour)

	got, err := s.store.ListByOwner(context.Background(), s.owner)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(newer.ID, got[0].ID)
	s.Equal(older.ID, got[1].ID)
}

func (s *PostgresStoreSuite) TestListByPhoneAcrossOwners() {
	s.insert(s.owner, "555-7", 0)
	s.insert(s.other, "555-7", time.Minute)

	got, err := s.store.ListByPhone(context.Background(), "555-7")
	s.Require().NoError(err)
	s.Len(got, 2)
}

func (s *PostgresStoreSuite) TestUpdateOwned() {
	ctx := context.Background()
	r := s.insert(s.owner, "555-1", 0)
	status, desc := "found", "returned to owner"

	updated, err := s.store.UpdateOwned(ctx, r.ID, s.owner, models.UpdateFields{Status: &status, Description: &desc})
	s.Require().NoError(err)
	s.Equal("found", updated.Status)
	s.Equal("returned to owner", updated.Description)
	s.Equal(r.Location, updated.Location)

	_, err = s.store.UpdateOwned(ctx, r.ID, s.other, models.UpdateFields{Status: &status})
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.UpdateOwned(ctx, id.NewRecordID(), s.owner, models.UpdateFields{Status: &status})
	s.ErrorIs(err, sentinel.ErrNotFound)
}
