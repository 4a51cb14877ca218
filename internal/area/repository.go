package area

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for area persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// Area CRUD
	GetByID(ctx context.Context, id string) (*Area, error)
	ListByUser(ctx context.Context, userID string) ([]Area, error)
	ListPublic(ctx context.Context) ([]Area, error)
	Create(ctx context.Context, a *Area) error
	Delete(ctx context.Context, id string) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	SetPublic(ctx context.Context, id string, public bool) error

	// Trigger evaluation support
	ListTriggerBindings(ctx context.Context, service, action string) ([]TriggerBinding, error)
	ListReactions(ctx context.Context, areaID string) ([]ReactionBinding, error)
	UpdateLastState(ctx context.Context, bindingID string, state json.RawMessage) error
	ListEnabledTriggers(ctx context.Context) ([]TriggerKey, error)
	ListBindingRefs(ctx context.Context) (actions, reactions []TriggerKey, err error)
}

// TriggerKey identifies a distinct trigger referenced by at least one binding.
type TriggerKey struct {
	Service string
	Action  string
}

// Ref returns the composite trigger identity.
func (k TriggerKey) Ref() string {
	return TriggerRef(k.Service, k.Action)
}

// areaColumns is the SELECT column list for area queries.
const areaColumns = `id, user_id, name, description, enabled, is_public, created_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves an area with its action and reaction bindings.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Area, error) {
	query := `SELECT ` + areaColumns + ` FROM areas WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	a, err := scanAreaRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying area by id: %w", err)
	}

	if err := r.loadBindings(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListByUser retrieves all areas owned by a user, bindings included.
func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]Area, error) {
	query := `SELECT ` + areaColumns + ` FROM areas WHERE user_id = ? ORDER BY created_at, id`
	return r.queryAreas(ctx, query, userID)
}

// ListPublic retrieves all public template areas, bindings included.
func (r *SQLiteRepository) ListPublic(ctx context.Context) ([]Area, error) {
	query := `SELECT ` + areaColumns + ` FROM areas WHERE is_public = 1 ORDER BY created_at, id`
	return r.queryAreas(ctx, query)
}

// Create inserts an area together with its action binding, reaction
// bindings, and conditions in a single transaction.
func (r *SQLiteRepository) Create(ctx context.Context, a *Area) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO areas (id, user_id, name, description, enabled, is_public, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.UserID,
		a.Name,
		a.Description,
		boolToInt(a.Enabled),
		boolToInt(a.IsPublic),
		a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrExists
		}
		return fmt.Errorf("inserting area: %w", err)
	}

	if err := insertActionBinding(ctx, tx, a.Action); err != nil {
		return err
	}

	for i := range a.Reactions {
		if err := insertReactionBinding(ctx, tx, &a.Reactions[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing area: %w", err)
	}
	return nil
}

// Delete removes an area by ID. Bindings and conditions cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM areas WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting area: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEnabled flips the enabled flag on an area.
func (r *SQLiteRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE areas SET enabled = ? WHERE id = ?",
		boolToInt(enabled), id,
	)
	if err != nil {
		return fmt.Errorf("updating area enabled: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPublic flips the is_public flag on an area. Public areas become
// browsable templates and leave the evaluation set.
func (r *SQLiteRepository) SetPublic(ctx context.Context, id string, public bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE areas SET is_public = ? WHERE id = ?",
		boolToInt(public), id,
	)
	if err != nil {
		return fmt.Errorf("updating area is_public: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTriggerBindings returns every action binding for the given trigger
// identity whose area is enabled and not a public template, joined to the
// owning user. This is the evaluation set for one trigger firing.
func (r *SQLiteRepository) ListTriggerBindings(ctx context.Context, service, action string) ([]TriggerBinding, error) {
	query := `
		SELECT aa.id, aa.area_id, aa.service, aa.action, aa.config, aa.last_state, ar.user_id
		FROM area_actions aa
		JOIN areas ar ON ar.id = aa.area_id
		WHERE aa.service = ? AND aa.action = ?
		  AND ar.enabled = 1 AND ar.is_public = 0
		ORDER BY ar.user_id, aa.id`

	rows, err := r.db.QueryContext(ctx, query, service, action)
	if err != nil {
		return nil, fmt.Errorf("querying trigger bindings: %w", err)
	}
	defer rows.Close()

	var bindings []TriggerBinding
	for rows.Next() {
		var tb TriggerBinding
		var configJSON string
		var lastState sql.NullString

		if err := rows.Scan(
			&tb.Binding.ID,
			&tb.Binding.AreaID,
			&tb.Binding.Service,
			&tb.Binding.Action,
			&configJSON,
			&lastState,
			&tb.UserID,
		); err != nil {
			return nil, fmt.Errorf("scanning trigger binding: %w", err)
		}

		tb.AreaID = tb.Binding.AreaID
		if err := unmarshalConfig(configJSON, &tb.Binding.Config); err != nil {
			return nil, err
		}
		if lastState.Valid && lastState.String != "" {
			tb.Binding.LastState = json.RawMessage(lastState.String)
		}
		bindings = append(bindings, tb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trigger bindings: %w", err)
	}
	return bindings, nil
}

// ListReactions returns an area's reaction bindings ordered by order_index,
// each with its conditions attached.
func (r *SQLiteRepository) ListReactions(ctx context.Context, areaID string) ([]ReactionBinding, error) {
	query := `
		SELECT id, area_id, service, reaction, config, order_index, delay
		FROM area_reactions
		WHERE area_id = ?
		ORDER BY order_index, id`

	rows, err := r.db.QueryContext(ctx, query, areaID)
	if err != nil {
		return nil, fmt.Errorf("querying reactions: %w", err)
	}
	defer rows.Close()

	var reactions []ReactionBinding
	for rows.Next() {
		var rb ReactionBinding
		var configJSON string

		if err := rows.Scan(
			&rb.ID,
			&rb.AreaID,
			&rb.Service,
			&rb.Reaction,
			&configJSON,
			&rb.OrderIndex,
			&rb.Delay,
		); err != nil {
			return nil, fmt.Errorf("scanning reaction: %w", err)
		}

		if err := unmarshalConfig(configJSON, &rb.Config); err != nil {
			return nil, err
		}
		reactions = append(reactions, rb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reactions: %w", err)
	}

	for i := range reactions {
		conditions, err := r.listConditions(ctx, reactions[i].ID)
		if err != nil {
			return nil, err
		}
		reactions[i].Conditions = conditions
	}
	return reactions, nil
}

// UpdateLastState persists a binding's snapshot after a check.
func (r *SQLiteRepository) UpdateLastState(ctx context.Context, bindingID string, state json.RawMessage) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE area_actions SET last_state = ? WHERE id = ?",
		nullableRaw(state), bindingID,
	)
	if err != nil {
		return fmt.Errorf("updating last_state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrBindingNotFound
	}
	return nil
}

// ListEnabledTriggers returns the distinct trigger identities referenced by
// at least one enabled, non-public binding. Used to rebuild the scheduler's
// job table at boot.
func (r *SQLiteRepository) ListEnabledTriggers(ctx context.Context) ([]TriggerKey, error) {
	query := `
		SELECT DISTINCT aa.service, aa.action
		FROM area_actions aa
		JOIN areas ar ON ar.id = aa.area_id
		WHERE ar.enabled = 1 AND ar.is_public = 0
		ORDER BY aa.service, aa.action`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying enabled triggers: %w", err)
	}
	defer rows.Close()

	var keys []TriggerKey
	for rows.Next() {
		var k TriggerKey
		if err := rows.Scan(&k.Service, &k.Action); err != nil {
			return nil, fmt.Errorf("scanning trigger key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating enabled triggers: %w", err)
	}
	return keys, nil
}

// ListBindingRefs returns the distinct action and reaction identities
// referenced by any persisted binding, enabled or not. Used at startup to
// cross-check every stored reference against the registered plugins.
func (r *SQLiteRepository) ListBindingRefs(ctx context.Context) (actions, reactions []TriggerKey, err error) {
	actions, err = r.queryRefs(ctx,
		"SELECT DISTINCT service, action FROM area_actions ORDER BY service, action")
	if err != nil {
		return nil, nil, fmt.Errorf("querying action refs: %w", err)
	}

	reactions, err = r.queryRefs(ctx,
		"SELECT DISTINCT service, reaction FROM area_reactions ORDER BY service, reaction")
	if err != nil {
		return nil, nil, fmt.Errorf("querying reaction refs: %w", err)
	}
	return actions, reactions, nil
}

func (r *SQLiteRepository) queryRefs(ctx context.Context, query string) ([]TriggerKey, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []TriggerKey
	for rows.Next() {
		var k TriggerKey
		if err := rows.Scan(&k.Service, &k.Action); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// queryAreas executes a query and returns areas with bindings loaded.
func (r *SQLiteRepository) queryAreas(ctx context.Context, query string, args ...any) ([]Area, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying areas: %w", err)
	}
	defer rows.Close()

	var areas []Area
	for rows.Next() {
		a, scanErr := scanAreaRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning area: %w", scanErr)
		}
		areas = append(areas, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating areas: %w", err)
	}

	for i := range areas {
		if err := r.loadBindings(ctx, &areas[i]); err != nil {
			return nil, err
		}
	}
	return areas, nil
}

// loadBindings attaches the action binding and reactions to an area.
func (r *SQLiteRepository) loadBindings(ctx context.Context, a *Area) error {
	query := `
		SELECT id, area_id, service, action, config, last_state
		FROM area_actions
		WHERE area_id = ?`

	row := r.db.QueryRowContext(ctx, query, a.ID)

	var b ActionBinding
	var configJSON string
	var lastState sql.NullString
	err := row.Scan(&b.ID, &b.AreaID, &b.Service, &b.Action, &configJSON, &lastState)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Area with no action binding should not exist; tolerate on read.
		a.Action = nil
	case err != nil:
		return fmt.Errorf("querying action binding: %w", err)
	default:
		if err := unmarshalConfig(configJSON, &b.Config); err != nil {
			return err
		}
		if lastState.Valid && lastState.String != "" {
			b.LastState = json.RawMessage(lastState.String)
		}
		a.Action = &b
	}

	reactions, err := r.ListReactions(ctx, a.ID)
	if err != nil {
		return err
	}
	a.Reactions = reactions
	return nil
}

// listConditions returns a reaction binding's conditions.
func (r *SQLiteRepository) listConditions(ctx context.Context, reactionID string) ([]Condition, error) {
	query := `
		SELECT id, area_reaction_id, field, operator, value
		FROM reaction_conditions
		WHERE area_reaction_id = ?
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, reactionID)
	if err != nil {
		return nil, fmt.Errorf("querying conditions: %w", err)
	}
	defer rows.Close()

	var conditions []Condition
	for rows.Next() {
		var c Condition
		if err := rows.Scan(&c.ID, &c.AreaReactionID, &c.Field, &c.Operator, &c.Value); err != nil {
			return nil, fmt.Errorf("scanning condition: %w", err)
		}
		conditions = append(conditions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conditions: %w", err)
	}
	return conditions, nil
}

// ─── Insert Helpers ─────────────────────────────────────────────────────────

func insertActionBinding(ctx context.Context, tx *sql.Tx, b *ActionBinding) error {
	configJSON, err := marshalConfig(b.Config)
	if err != nil {
		return fmt.Errorf("marshalling action config: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO area_actions (id, area_id, service, action, config, last_state)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.AreaID,
		b.Service,
		b.Action,
		configJSON,
		nullableRaw(b.LastState),
	)
	if err != nil {
		return fmt.Errorf("inserting action binding: %w", err)
	}
	return nil
}

func insertReactionBinding(ctx context.Context, tx *sql.Tx, rb *ReactionBinding) error {
	configJSON, err := marshalConfig(rb.Config)
	if err != nil {
		return fmt.Errorf("marshalling reaction config: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO area_reactions (id, area_id, service, reaction, config, order_index, delay)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rb.ID,
		rb.AreaID,
		rb.Service,
		rb.Reaction,
		configJSON,
		rb.OrderIndex,
		rb.Delay,
	)
	if err != nil {
		return fmt.Errorf("inserting reaction binding: %w", err)
	}

	for _, c := range rb.Conditions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reaction_conditions (id, area_reaction_id, field, operator, value)
			VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.AreaReactionID, c.Field, c.Operator, c.Value,
		); err != nil {
			return fmt.Errorf("inserting condition: %w", err)
		}
	}
	return nil
}

// ─── Row Scanning Helpers ───────────────────────────────────────────────────

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAreaRow(scanner rowScanner) (*Area, error) {
	var a Area
	var enabled, isPublic int
	var createdAt string

	err := scanner.Scan(
		&a.ID,
		&a.UserID,
		&a.Name,
		&a.Description,
		&enabled,
		&isPublic,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	a.Enabled = enabled != 0
	a.IsPublic = isPublic != 0

	// Parse timestamps (stored as RFC3339, written by this package)
	if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
		a.CreatedAt = t
	}

	return &a, nil
}

// ─── SQL Helpers ────────────────────────────────────────────────────────────

func marshalConfig(config map[string]any) (string, error) {
	if config == nil {
		return "{}", nil
	}
	data, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalConfig(configJSON string, dest *map[string]any) error {
	if configJSON == "" || configJSON == "{}" {
		*dest = map[string]any{}
		return nil
	}
	if err := json.Unmarshal([]byte(configJSON), dest); err != nil {
		return fmt.Errorf("unmarshalling config: %w", err)
	}
	return nil
}

func nullableRaw(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
