// Package storagetest holds the behavioural suite every CredentialStore must pass.
package storagetest

import (
	"context"
	"sync"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/storage"
)

// CredentialStoreSuite runs against the store returned by NewStore before each test
type CredentialStoreSuite struct {
	suite.Suite
	NewStore func() storage.CredentialStore

	Store storage.CredentialStore
	Ctx   context.Context
}

func (s *CredentialStoreSuite) SetupTest() {
	s.Require().NotNil(s.NewStore, "NewStore must be set")
	s.Store = s.NewStore()
	s.Ctx = context.Background()
}

func (s *CredentialStoreSuite) TearDownTest() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

// Insert / Find tests

func (s *CredentialStoreSuite) TestInsertAndFind() {
	s.Require().NoError(s.Store.Insert(s.Ctx, "alice", "hash-a", "salt-a"))

	account, err := s.Store.FindByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", account.Username)
	s.Equal("hash-a", account.PasswordHash)
	s.Equal("salt-a", account.Salt)
	s.Equal(uint32(0), account.Wins)
	s.Equal(uint32(0), account.Losses)
	s.Equal(uint32(0), account.GamesPlayed)
}

func (s *CredentialStoreSuite) TestFindNotFound() {
	_, err := s.Store.FindByUsername(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *CredentialStoreSuite) TestInsertDuplicateUsername() {
	s.Require().NoError(s.Store.Insert(s.Ctx, "alice", "hash-a", "salt-a"))

	err := s.Store.Insert(s.Ctx, "alice", "hash-b", "salt-b")
	s.ErrorIs(err, model.ErrUsernameTaken)

	account, err := s.Store.FindByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal("hash-a", account.PasswordHash)
}

func (s *CredentialStoreSuite) TestInsertDuplicateSalt() {
	s.Require().NoError(s.Store.Insert(s.Ctx, "alice", "hash-a", "salt-a"))

	err := s.Store.Insert(s.Ctx, "bob", "hash-b", "salt-a")
	s.ErrorIs(err, model.ErrDuplicateCredential)

	_, err = s.Store.FindByUsername(s.Ctx, "bob")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Statistics tests

func (s *CredentialStoreSuite) TestRecordWinAndLoss() {
	s.Require().NoError(s.Store.Insert(s.Ctx, "alice", "hash-a", "salt-a"))
	s.Require().NoError(s.Store.Insert(s.Ctx, "bob", "hash-b", "salt-b"))

	s.Require().NoError(s.Store.RecordWin(s.Ctx, "alice"))
	s.Require().NoError(s.Store.RecordWin(s.Ctx, "alice"))
	s.Require().NoError(s.Store.RecordLoss(s.Ctx, "bob"))

	alice, err := s.Store.FindByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.UserRecord{Username: "alice", Wins: 2, GamesPlayed: 2}, alice.UserRecord)

	bob, err := s.Store.FindByUsername(s.Ctx, "bob")
	s.Require().NoError(err)
	s.Equal(model.UserRecord{Username: "bob", Losses: 1, GamesPlayed: 1}, bob.UserRecord)
}

func (s *CredentialStoreSuite) TestRecordUnknownUser() {
	s.ErrorIs(s.Store.RecordWin(s.Ctx, "nobody"), model.ErrUserNotFound)
	s.ErrorIs(s.Store.RecordLoss(s.Ctx, "nobody"), model.ErrUserNotFound)
}

func (s *CredentialStoreSuite) TestConcurrentRecordsAreNotLost() {
	s.Require().NoError(s.Store.Insert(s.Ctx, "alice", "hash-a", "salt-a"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Store.RecordWin(s.Ctx, "alice")
		}()
	}
	wg.Wait()

	alice, err := s.Store.FindByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(uint32(20), alice.Wins)
	s.Equal(uint32(20), alice.GamesPlayed)
}

// ListAll tests

func (s *CredentialStoreSuite) TestListAllInInsertionOrder() {
	for _, name := range []string{"carol", "alice", "bob"} {
		s.Require().NoError(s.Store.Insert(s.Ctx, name, "hash-"+name, "salt-"+name))
	}
	s.Require().NoError(s.Store.RecordLoss(s.Ctx, "alice"))

	records, err := s.Store.ListAll(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal("carol", records[0].Username)
	s.Equal("alice", records[1].Username)
	s.Equal(uint32(1), records[1].Losses)
	s.Equal("bob", records[2].Username)
}

func (s *CredentialStoreSuite) TestListAllEmpty() {
	records, err := s.Store.ListAll(s.Ctx)
	s.Require().NoError(err)
	s.Empty(records)
}
