package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dadudekc/shinobi-arena/internal/game/character"
)

// ErrCharacterExists is returned when creating a character with an agent ID
// that is already taken.
var ErrCharacterExists = errors.New("character already exists")

const characterColumns = `
	id, name, rank, level, npc, status,
	hp, max_hp, chakra, max_chakra, stamina,
	strength, speed, ninjutsu, taijutsu, genjutsu, willpower, defense,
	jutsu, status_effects,
	in_special_battle, in_clan_war, in_tournament,
	wins, losses, draws`

// CharacterRepository provides combatant snapshot persistence. It satisfies
// the orchestrator's character store contract.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create inserts a new character.
//
// Precondition: s.ID and s.Name must be non-empty.
// Postcondition: Returns ErrCharacterExists when the agent ID is taken.
func (r *CharacterRepository) Create(ctx context.Context, s *character.Snapshot) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO characters
			(id, name, rank, level, npc, status,
			 hp, max_hp, chakra, max_chakra, stamina,
			 strength, speed, ninjutsu, taijutsu, genjutsu, willpower, defense,
			 jutsu, status_effects,
			 in_special_battle, in_clan_war, in_tournament,
			 wins, losses, draws)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
		        $19,$20,$21,$22,$23,$24,$25,$26)`,
		s.ID, s.Name, s.Rank, s.Level, s.NPC, s.Status,
		s.HP, s.MaxHP, s.Chakra, s.MaxChakra, s.Stamina,
		s.Attributes.Strength, s.Attributes.Speed, s.Attributes.Ninjutsu,
		s.Attributes.Taijutsu, s.Attributes.Genjutsu, s.Attributes.Willpower,
		s.Attributes.Defense,
		s.Jutsu, s.StatusEffects,
		s.InSpecialBattle, s.InClanWar, s.InTournament,
		s.Record.Wins, s.Record.Losses, s.Record.Draws,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrCharacterExists
		}
		return fmt.Errorf("inserting character: %w", err)
	}
	return nil
}

// Get retrieves a combatant snapshot by agent ID.
//
// Postcondition: Returns the Snapshot, or character.ErrNotFound when the ID
// is unknown.
func (r *CharacterRepository) Get(ctx context.Context, id string) (*character.Snapshot, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, id)
	s, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("character %q: %w", id, character.ErrNotFound)
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return s, nil
}

// Save writes a snapshot's mutable fight state back to the store.
//
// Precondition: The character must already exist.
// Postcondition: Vitals, status effects, and the win/loss/draw record are
// updated; identity and attribute columns are left untouched.
func (r *CharacterRepository) Save(ctx context.Context, s *character.Snapshot) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE characters
		SET hp = $2, chakra = $3, stamina = $4, status = $5, status_effects = $6,
		    wins = $7, losses = $8, draws = $9, updated_at = now()
		WHERE id = $1`,
		s.ID, s.HP, s.Chakra, s.Stamina, s.Status, s.StatusEffects,
		s.Record.Wins, s.Record.Losses, s.Record.Draws,
	)
	if err != nil {
		return fmt.Errorf("updating character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("character %q: %w", s.ID, character.ErrNotFound)
	}
	return nil
}

// IsRestricted reports whether the character is locked by another game
// system (special battle, clan war, or tournament).
func (r *CharacterRepository) IsRestricted(ctx context.Context, id string) (bool, error) {
	var restricted bool
	err := r.db.QueryRow(ctx, `
		SELECT in_special_battle OR in_clan_war OR in_tournament
		FROM characters WHERE id = $1`,
		id,
	).Scan(&restricted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("character %q: %w", id, character.ErrNotFound)
		}
		return false, fmt.Errorf("querying character restriction: %w", err)
	}
	return restricted, nil
}

// ListNPCs returns every computer-controlled character, ordered by level.
func (r *CharacterRepository) ListNPCs(ctx context.Context) ([]*character.Snapshot, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE npc ORDER BY level ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing npcs: %w", err)
	}
	defer rows.Close()

	var npcs []*character.Snapshot
	for rows.Next() {
		s, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning npc row: %w", err)
		}
		npcs = append(npcs, s)
	}
	return npcs, rows.Err()
}

func scanCharacter(row pgx.Row) (*character.Snapshot, error) {
	var s character.Snapshot
	err := row.Scan(
		&s.ID, &s.Name, &s.Rank, &s.Level, &s.NPC, &s.Status,
		&s.HP, &s.MaxHP, &s.Chakra, &s.MaxChakra, &s.Stamina,
		&s.Attributes.Strength, &s.Attributes.Speed, &s.Attributes.Ninjutsu,
		&s.Attributes.Taijutsu, &s.Attributes.Genjutsu, &s.Attributes.Willpower,
		&s.Attributes.Defense,
		&s.Jutsu, &s.StatusEffects,
		&s.InSpecialBattle, &s.InClanWar, &s.InTournament,
		&s.Record.Wins, &s.Record.Losses, &s.Record.Draws,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
