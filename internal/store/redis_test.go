package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/craftrealm/realm-api/internal/models"
)

type CatalogCacheSuite struct {
	suite.Suite
	mini  *miniredis.Miniredis
	rdb   *redis.Client
	cache *RedisCatalogCache
	ctx   context.Context
}

func TestCatalogCacheSuite(t *testing.T) {
	suite.Run(t, new(CatalogCacheSuite))
}

func (s *CatalogCacheSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.rdb = redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.cache = NewRedisCatalogCache(s.rdb, time.Minute)
	s.ctx = context.Background()
}

func (s *CatalogCacheSuite) TearDownTest() {
	_ = s.rdb.Close()
}

func (s *CatalogCacheSuite) TestMiss() {
	items, ok, err := s.cache.Get(s.ctx)
	s.NoError(err)
	s.False(ok)
	s.Nil(items)
}

func (s *CatalogCacheSuite) TestSetThenGet() {
	desc := "Vole au-dessus des nuages"
	want := []models.Item{
		{ID: 1, Name: "Élytres", Description: &desc, Price: 800, Rarity: "legendaire"},
		{ID: 2, Name: "Bouclier", Price: 500, Rarity: "commun"},
	}
	s.Require().NoError(s.cache.Set(s.ctx, want))

	got, ok, err := s.cache.Get(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(want, got)
}

func (s *CatalogCacheSuite) TestEntriesExpire() {
	s.Require().NoError(s.cache.Set(s.ctx, []models.Item{{ID: 1, Name: "Pomme", Rarity: "commun"}}))
	s.Equal(time.Minute, s.mini.TTL(CatalogKey))

	s.mini.FastForward(2 * time.Minute)
	_, ok, err := s.cache.Get(s.ctx)
	s.NoError(err)
	s.False(ok)
}

func (s *CatalogCacheSuite) TestInvalidate() {
	s.Require().NoError(s.cache.Set(s.ctx, []models.Item{{ID: 1, Name: "Pomme", Rarity: "commun"}}))
	s.Require().NoError(s.cache.Invalidate(s.ctx))
	s.False(s.mini.Exists(CatalogKey))

	s.NoError(s.cache.Invalidate(s.ctx), "invalidating an empty cache is fine")
}

func (s *CatalogCacheSuite) TestCorruptEntry() {
	s.Require().NoError(s.mini.Set(CatalogKey, "not json"))

	_, ok, err := s.cache.Get(s.ctx)
	s.Error(err)
	s.False(ok)
}

func (s *CatalogCacheSuite) TestServerDown() {
	s.mini.Close()

	_, _, err := s.cache.Get(s.ctx)
	s.Error(err)
}
