//go:build integration

package student_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"schoolchain/internal/student"
	"schoolchain/pkg/platform/sentinel"
	"schoolchain/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *student.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), student.Schema)
	s.store = student.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "students"))
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()

	created, err := s.store.Create(ctx, &student.Student{
		Name:      "John Doe",
		Email:     "john@example.com",
		ClassName: "10",
		Roll:      12,
	})
	s.Require().NoError(err)
	s.Equal(1, created.ID)
	s.True(created.SystemAccess)

	found, err := s.store.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("John Doe", found.Name)
	s.Equal("10", found.ClassName)

	byEmail, err := s.store.FindByEmail(ctx, "JOHN@example.com")
	s.Require().NoError(err)
	s.Equal(created.ID, byEmail.ID)
}

func (s *PostgresStoreSuite) TestDuplicateEmailConflicts() {
	ctx := context.Background()

	_, err := s.store.Create(ctx, &student.Student{Name: "John Doe", Email: "john@example.com"})
	s.Require().NoError(err)

	_, err = s.store.Create(ctx, &student.Student{Name: "Impostor", Email: "john@example.com"})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdate() {
	ctx := context.Background()

	created, err := s.store.Create(ctx, &student.Student{Name: "John Doe", Email: "john@example.com"})
	s.Require().NoError(err)

	created.Name = "John Q. Doe"
	created.WalletAddress = "0xabc0000000000000000000000000000000000001"
	s.Require().NoError(s.store.Update(ctx, created))

	found, err := s.store.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("John Q. Doe", found.Name)
	s.Equal("0xabc0000000000000000000000000000000000001", found.WalletAddress)
}

func (s *PostgresStoreSuite) TestUpdateMissingStudent() {
	err := s.store.Update(context.Background(), &student.Student{ID: 999, Name: "Nobody", Email: "nobody@example.com"})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListFiltersAndPages() {
	ctx := context.Background()

	for _, st := range []*student.Student{
		{Name: "John Doe", Email: "john@example.com", ClassName: "10", SectionName: "A", Roll: 1},
		{Name: "Jane Roe", Email: "jane@example.com", ClassName: "10", SectionName: "B", Roll: 2},
		{Name: "Jim Poe", Email: "jim@example.com", ClassName: "9", SectionName: "A", Roll: 1},
	} {
		_, err := s.store.Create(ctx, st)
		s.Require().NoError(err)
	}

	page, err := s.store.List(ctx, student.Filter{ClassName: "10"})
	s.Require().NoError(err)
	s.Equal(2, page.Total)

	page, err = s.store.List(ctx, student.Filter{Name: "j", Page: 2, Limit: 2})
	s.Require().NoError(err)
	s.Equal(3, page.Total)
	s.Len(page.Students, 1)

	page, err = s.store.List(ctx, student.Filter{SectionName: "A", Roll: 1, ClassName: "9"})
	s.Require().NoError(err)
	s.Require().Len(page.Students, 1)
	s.Equal("Jim Poe", page.Students[0].Name)
}

func (s *PostgresStoreSuite) TestSetStatus() {
	ctx := context.Background()

	created, err := s.store.Create(ctx, &student.Student{Name: "John Doe", Email: "john@example.com"})
	s.Require().NoError(err)

	s.Require().NoError(s.store.SetStatus(ctx, created.ID, false))
	found, err := s.store.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.False(found.SystemAccess)

	s.Require().ErrorIs(s.store.SetStatus(ctx, 999, true), sentinel.ErrNotFound)
}
