package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dadudekc/shinobi-arena/internal/game/character"
	"github.com/Dadudekc/shinobi-arena/internal/storage/postgres"
	"github.com/Dadudekc/shinobi-arena/internal/testutil"
)

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func makeTestSnapshot(id string) *character.Snapshot {
	return &character.Snapshot{
		ID:     id,
		Name:   "Itama",
		Rank:   "Genin",
		Level:  5,
		HP:     100,
		MaxHP:  100,
		Chakra: 80, MaxChakra: 80,
		Stamina: 50,
		Attributes: character.Attributes{
			Strength: 20, Speed: 12, Ninjutsu: 10,
			Taijutsu: 14, Genjutsu: 6, Willpower: 10, Defense: 10,
		},
		Jutsu:         []string{"Fireball Jutsu", "Dynamic Entry"},
		StatusEffects: []string{},
	}
}

func TestCharacterRepository_CreateAndGet(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	id := uniqueID("agent")
	require.NoError(t, repo.Create(ctx, makeTestSnapshot(id)))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Itama", got.Name)
	assert.Equal(t, 5, got.Level)
	assert.Equal(t, 100, got.HP)
	assert.Equal(t, 20, got.Attributes.Strength)
	assert.Equal(t, []string{"Fireball Jutsu", "Dynamic Entry"}, got.Jutsu)
	assert.False(t, got.NPC)
	assert.Equal(t, 0, got.Record.Wins)
}

func TestCharacterRepository_CreateDuplicate(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	id := uniqueID("agent")
	require.NoError(t, repo.Create(ctx, makeTestSnapshot(id)))
	err := repo.Create(ctx, makeTestSnapshot(id))
	assert.ErrorIs(t, err, postgres.ErrCharacterExists)
}

func TestCharacterRepository_GetMissing(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	_, err := repo.Get(context.Background(), "no-such-agent")
	assert.ErrorIs(t, err, character.ErrNotFound)
}

func TestCharacterRepository_SavePersistsOutcome(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	id := uniqueID("agent")
	require.NoError(t, repo.Create(ctx, makeTestSnapshot(id)))

	s, err := repo.Get(ctx, id)
	require.NoError(t, err)
	s.HP = 42
	s.Chakra = 10
	s.StatusEffects = []string{"poisoned"}
	s.Record.Wins = 1
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 42, got.HP)
	assert.Equal(t, 10, got.Chakra)
	assert.Equal(t, []string{"poisoned"}, got.StatusEffects)
	assert.Equal(t, 1, got.Record.Wins)
	// Identity and attributes are untouched by Save.
	assert.Equal(t, 100, got.MaxHP)
	assert.Equal(t, 20, got.Attributes.Strength)
}

func TestCharacterRepository_SaveMissing(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	err := repo.Save(context.Background(), makeTestSnapshot("no-such-agent"))
	assert.ErrorIs(t, err, character.ErrNotFound)
}

func TestCharacterRepository_IsRestricted(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	free := makeTestSnapshot(uniqueID("free"))
	require.NoError(t, repo.Create(ctx, free))

	locked := makeTestSnapshot(uniqueID("locked"))
	locked.InClanWar = true
	require.NoError(t, repo.Create(ctx, locked))

	restricted, err := repo.IsRestricted(ctx, free.ID)
	require.NoError(t, err)
	assert.False(t, restricted)

	restricted, err = repo.IsRestricted(ctx, locked.ID)
	require.NoError(t, err)
	assert.True(t, restricted)

	_, err = repo.IsRestricted(ctx, "no-such-agent")
	assert.ErrorIs(t, err, character.ErrNotFound)
}

func TestCharacterRepository_ListNPCs(t *testing.T) {
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))
	ctx := context.Background()

	player := makeTestSnapshot(uniqueID("player"))
	require.NoError(t, repo.Create(ctx, player))

	npc := makeTestSnapshot(uniqueID("npc"))
	npc.Name = "Madara"
	npc.NPC = true
	npc.Level = 50
	require.NoError(t, repo.Create(ctx, npc))

	npcs, err := repo.ListNPCs(ctx)
	require.NoError(t, err)
	require.Len(t, npcs, 1)
	assert.Equal(t, "Madara", npcs[0].Name)
	assert.True(t, npcs[0].NPC)
}
