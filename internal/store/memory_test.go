package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wealth-query-agent/internal/filter"
	"github.com/wealth-query-agent/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryStore_Find(t *testing.T) {
	s := NewMemoryProfileStore(SampleProfiles())
	ctx := context.Background()

	top, err := s.Find(ctx, ProfileQuery{SortByValueDesc: true, Limit: 3})
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"C005", "C002", "C004"}, []string{top[0].ClientID, top[1].ClientID, top[2].ClientID})

	natural, err := s.Find(ctx, ProfileQuery{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, "C001", natural[0].ClientID)

	filtered, err := s.Find(ctx, ProfileQuery{Filter: filter.Compile("mumbai conservative"), Limit: 20})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "C005", filtered[0].ClientID)
}

func TestMemoryStore_Err(t *testing.T) {
	s := NewMemoryProfileStore(nil)
	s.Err = errors.New("down")

	_, err := s.Find(context.Background(), ProfileQuery{})
	assert.EqualError(t, err, "down")
	assert.Error(t, s.Ping(context.Background()))
}

func TestMemoryStore_SeedIfEmpty(t *testing.T) {
	s := NewMemoryProfileStore(nil)
	ctx := context.Background()

	n, err := s.SeedIfEmpty(ctx, SampleProfiles())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = s.SeedIfEmpty(ctx, SampleProfiles())
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestProfileFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, profileFilter(filter.Compile("all clients")))

	doc := profileFilter(filter.Compile("Mumbai clients with conservative risk like Shah Rukh"))
	assert.Equal(t, "Mumbai", doc["address.city"])
	assert.Equal(t, "conservative", doc["risk_appetite"])
	assert.Equal(t, primitive.Regex{Pattern: `Shah Rukh Khan`, Options: "i"}, doc["name"])
}

func TestNormalizeProfile(t *testing.T) {
	tests := map[model.RiskCategory]model.RiskCategory{
		"Conservative": model.RiskConservative,
		" AGGRESSIVE ": model.RiskAggressive,
		"moderate":     model.RiskModerate,
		"yolo":         "",
		"":             "",
	}
	for stored, want := range tests {
		p := model.ClientProfile{ClientID: "C001", RiskAppetite: stored, PortfolioValue: -5}
		normalizeProfile(&p)
		assert.Equal(t, want, p.RiskAppetite, string(stored))
		assert.Zero(t, p.PortfolioValue)
	}
}
