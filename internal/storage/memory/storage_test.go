package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/lightsduel/internal/storage"
	"github.com/mcoot/lightsduel/internal/storage/storagetest"
)

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.CredentialStoreSuite{
		NewStore: func() storage.CredentialStore { return New() },
	})
}

func TestFindReturnsCopy(t *testing.T) {
	s := New()
	if err := s.Insert(t.Context(), "alice", "hash", "salt"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	account, _ := s.FindByUsername(t.Context(), "alice")
	account.Wins = 99

	again, _ := s.FindByUsername(t.Context(), "alice")
	if again.Wins != 0 {
		t.Fatalf("stored account was mutated through returned pointer")
	}
}
