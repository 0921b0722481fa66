package storage

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	store *Store
}

func (s *StorageSuite) SetupTest() {
	store, err := Open(":memory:")
	s.Require().NoError(err)
	s.store = store
}

func (s *StorageSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *StorageSuite) TestGetMissingKey() {
	_, err := s.store.Get(TokenKey)
	s.ErrorIs(err, ErrNotFound)
}

func (s *StorageSuite) TestSetAndGet() {
	s.Require().NoError(s.store.Set(TokenKey, "abc123"))

	got, err := s.store.Get(TokenKey)
	s.Require().NoError(err)
	s.Equal("abc123", got)
}

func (s *StorageSuite) TestSetOverwrites() {
	s.Require().NoError(s.store.Set(AuthKey, `{"isAuthenticated":true}`))
	s.Require().NoError(s.store.Set(AuthKey, `{"isAuthenticated":false}`))

	got, err := s.store.Get(AuthKey)
	s.Require().NoError(err)
	s.Equal(`{"isAuthenticated":false}`, got)
}

func (s *StorageSuite) TestDelete() {
	s.Require().NoError(s.store.Set(TokenKey, "abc123"))
	s.Require().NoError(s.store.Delete(TokenKey))

	_, err := s.store.Get(TokenKey)
	s.ErrorIs(err, ErrNotFound)
}

func (s *StorageSuite) TestDeleteMissingKeyIsNoError() {
	s.NoError(s.store.Delete("never-written"))
}

func (s *StorageSuite) TestKeysAreIndependent() {
	s.Require().NoError(s.store.Set(AuthKey, "session"))
	s.Require().NoError(s.store.Set(TokenKey, "token"))
	s.Require().NoError(s.store.Delete(TokenKey))

	got, err := s.store.Get(AuthKey)
	s.Require().NoError(err)
	s.Equal("session", got)
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}
