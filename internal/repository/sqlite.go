package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/xiaot623/gogo/exchange/internal/domain"
)

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys so capabilities and metadata follow their agent.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := newStore(db)
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func newStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS agents (
			agent_id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			agent_type TEXT NOT NULL,
			handle TEXT UNIQUE,
			public_url TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_seen_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agents_status ON agents(status)`,
		`CREATE INDEX IF NOT EXISTS idx_agents_public_url ON agents(public_url)`,
		`CREATE TABLE IF NOT EXISTS capabilities (
			capability_id INTEGER PRIMARY KEY AUTOINCREMENT,
			agent_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			version TEXT,
			actions TEXT,
			FOREIGN KEY (agent_id) REFERENCES agents(agent_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_capabilities_name ON capabilities(name, agent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_capabilities_agent ON capabilities(agent_id, position)`,
		`CREATE TABLE IF NOT EXISTS agent_metadata (
			agent_id TEXT PRIMARY KEY,
			tags TEXT,
			categories TEXT,
			locales TEXT,
			geo_lat REAL,
			geo_lng REAL,
			geo_radius_km REAL,
			cuisines TEXT,
			service_area TEXT,
			extra TEXT,
			FOREIGN KEY (agent_id) REFERENCES agents(agent_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS exchange_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			registration_mode TEXT NOT NULL DEFAULT 'open',
			registration_code_hash TEXT,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`INSERT OR IGNORE INTO exchange_config (id, registration_mode) VALUES (1, 'open')`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const agentColumns = `a.agent_id, a.display_name, a.agent_type, a.handle, a.public_url, a.status, a.created_at, a.last_seen_at`

// ListActiveCandidates returns up to limit active agents in registration
// order, narrowed to agents declaring capabilityHint when it is set.
func (s *SQLiteStore) ListActiveCandidates(ctx context.Context, capabilityHint string, limit int) ([]domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents a WHERE a.status = ?`
	args := []interface{}{domain.AgentStatusActive}

	if capabilityHint != "" {
		query += ` AND EXISTS (SELECT 1 FROM capabilities c WHERE c.agent_id = a.agent_id AND c.name = ?)`
		args = append(args, capabilityHint)
	}

	query += ` ORDER BY a.rowid ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.loadAgents(ctx, query, args...)
}

// ListAgents lists all agents, newest first.
func (s *SQLiteStore) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	return s.loadAgents(ctx, `SELECT `+agentColumns+` FROM agents a ORDER BY a.rowid DESC`)
}

// GetAgent retrieves an agent by ID.
func (s *SQLiteStore) GetAgent(ctx context.Context, agentID string) (*domain.Agent, error) {
	return s.loadOne(ctx, `SELECT `+agentColumns+` FROM agents a WHERE a.agent_id = ?`, agentID)
}

// GetAgentByHandle retrieves an agent by its claimed handle.
func (s *SQLiteStore) GetAgentByHandle(ctx context.Context, handle string) (*domain.Agent, error) {
	return s.loadOne(ctx, `SELECT `+agentColumns+` FROM agents a WHERE a.handle = ?`, handle)
}

// FindActiveAgentByPublicURL finds a non-revoked agent registered with publicURL.
func (s *SQLiteStore) FindActiveAgentByPublicURL(ctx context.Context, publicURL string) (*domain.Agent, error) {
	return s.loadOne(ctx,
		`SELECT `+agentColumns+` FROM agents a WHERE a.public_url = ? AND a.status != ? ORDER BY a.rowid ASC LIMIT 1`,
		publicURL, domain.AgentStatusRevoked)
}

// CreateAgent inserts an agent with its capabilities and metadata.
func (s *SQLiteStore) CreateAgent(ctx context.Context, agent *domain.Agent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO agents (agent_id, display_name, agent_type, handle, public_url, status, created_at, last_seen_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.AgentID, agent.DisplayName, agent.AgentType, nullString(agent.Handle), nullString(agent.PublicURL),
		agent.Status, agent.CreatedAt.UTC(), nullTime(agent.LastSeenAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("agent %s: %w", agent.AgentID, domain.ErrConflict)
		}
		return err
	}

	for i, c := range agent.Capabilities {
		actions, _ := json.Marshal(nonNil(c.Actions))
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO capabilities (agent_id, position, name, version, actions) VALUES (?, ?, ?, ?, ?)`,
			agent.AgentID, i, c.Name, nullString(c.Version), string(actions)); err != nil {
			return err
		}
	}

	if md := agent.Metadata; md != nil {
		var lat, lng, radius sql.NullFloat64
		if md.Geo != nil {
			lat = sql.NullFloat64{Float64: md.Geo.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: md.Geo.Lng, Valid: true}
			if md.Geo.RadiusKm != nil {
				radius = sql.NullFloat64{Float64: *md.Geo.RadiusKm, Valid: true}
			}
		}
		var cuisines []string
		var serviceArea string
		if md.Business != nil {
			cuisines = md.Business.Cuisines
			serviceArea = md.Business.ServiceArea
		}
		extra := "{}"
		if len(md.Extra) > 0 && string(md.Extra) != "null" {
			extra = string(md.Extra)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO agent_metadata (agent_id, tags, categories, locales, geo_lat, geo_lng, geo_radius_km, cuisines, service_area, extra) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			agent.AgentID, jsonList(md.Tags), jsonList(md.Categories), jsonList(md.Locales),
			lat, lng, radius, jsonList(cuisines), nullString(serviceArea), extra); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RefreshAgent updates the descriptive fields of an agent that registered again.
func (s *SQLiteStore) RefreshAgent(ctx context.Context, agentID, displayName string, agentType domain.AgentType, seenAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE agents SET display_name = ?, agent_type = ?, last_seen_at = ? WHERE agent_id = ?`,
		displayName, agentType, seenAt.UTC(), agentID)
	return affected(res, err, agentID)
}

// UpdateHeartbeat records that an agent was seen, and its public URL when given.
func (s *SQLiteStore) UpdateHeartbeat(ctx context.Context, agentID, publicURL string, seenAt time.Time) error {
	query := `UPDATE agents SET last_seen_at = ? WHERE agent_id = ?`
	args := []interface{}{seenAt.UTC(), agentID}
	if publicURL != "" {
		query = `UPDATE agents SET last_seen_at = ?, public_url = ? WHERE agent_id = ?`
		args = []interface{}{seenAt.UTC(), publicURL, agentID}
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	return affected(res, err, agentID)
}

// ClaimHandle assigns a handle to an agent. A handle held by another agent
// yields domain.ErrConflict.
func (s *SQLiteStore) ClaimHandle(ctx context.Context, agentID, handle string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE agents SET handle = ? WHERE agent_id = ?`, handle, agentID)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("handle %s: %w", handle, domain.ErrConflict)
	}
	return affected(res, err, agentID)
}

// UpdateAgentStatus updates the lifecycle status of an agent.
func (s *SQLiteStore) UpdateAgentStatus(ctx context.Context, agentID string, status domain.AgentStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE agents SET status = ? WHERE agent_id = ?`, status, agentID)
	return affected(res, err, agentID)
}

// DeleteAgent removes an agent together with its capabilities and metadata.
func (s *SQLiteStore) DeleteAgent(ctx context.Context, agentID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE agent_id = ?`, agentID)
	return affected(res, err, agentID)
}

// GetRegistrationConfig returns the registration settings.
func (s *SQLiteStore) GetRegistrationConfig(ctx context.Context) (*domain.RegistrationConfig, error) {
	var cfg domain.RegistrationConfig
	var codeHash sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT registration_mode, registration_code_hash, updated_at FROM exchange_config WHERE id = 1`).
		Scan(&cfg.Mode, &codeHash, &cfg.UpdatedAt)
	if err == sql.ErrNoRows {
		return &domain.RegistrationConfig{Mode: domain.RegistrationModeOpen}, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.CodeHash = codeHash.String
	return &cfg, nil
}

// SaveRegistrationConfig stores the registration settings.
func (s *SQLiteStore) SaveRegistrationConfig(ctx context.Context, cfg *domain.RegistrationConfig) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchange_config (id, registration_mode, registration_code_hash, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET registration_mode = excluded.registration_mode,
			registration_code_hash = excluded.registration_code_hash, updated_at = excluded.updated_at`,
		cfg.Mode, nullString(cfg.CodeHash), cfg.UpdatedAt.UTC())
	return err
}

func (s *SQLiteStore) loadOne(ctx context.Context, query string, args ...interface{}) (*domain.Agent, error) {
	agents, err := s.loadAgents(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		return nil, nil
	}
	return &agents[0], nil
}

// loadAgents runs an agent query and attaches capabilities and metadata. All
// reads share one transaction so an agent is never assembled from two versions.
func (s *SQLiteStore) loadAgents(ctx context.Context, query string, args ...interface{}) ([]domain.Agent, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	agents, err := scanAgents(ctx, tx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		return agents, nil
	}

	index := make(map[string]int, len(agents))
	ids := make([]interface{}, len(agents))
	for i, a := range agents {
		index[a.AgentID] = i
		ids[i] = a.AgentID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	if err := attachCapabilities(ctx, tx, agents, index, placeholders, ids); err != nil {
		return nil, err
	}
	if err := attachMetadata(ctx, tx, agents, index, placeholders, ids); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return agents, nil
}

func scanAgents(ctx context.Context, q queryer, query string, args ...interface{}) ([]domain.Agent, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		var agent domain.Agent
		var handle, publicURL sql.NullString
		var lastSeen sql.NullTime
		if err := rows.Scan(&agent.AgentID, &agent.DisplayName, &agent.AgentType, &handle, &publicURL,
			&agent.Status, &agent.CreatedAt, &lastSeen); err != nil {
			return nil, err
		}
		agent.Handle = handle.String
		agent.PublicURL = publicURL.String
		if lastSeen.Valid {
			agent.LastSeenAt = &lastSeen.Time
		}
		agent.Capabilities = []domain.Capability{}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

func attachCapabilities(ctx context.Context, q queryer, agents []domain.Agent, index map[string]int, placeholders string, ids []interface{}) error {
	rows, err := q.QueryContext(ctx,
		`SELECT agent_id, name, version, actions FROM capabilities WHERE agent_id IN (`+placeholders+`) ORDER BY agent_id, position`,
		ids...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var agentID, name string
		var version, actions sql.NullString
		if err := rows.Scan(&agentID, &name, &version, &actions); err != nil {
			return err
		}
		c := domain.Capability{Name: name, Version: version.String, Actions: parseList(actions)}
		i := index[agentID]
		agents[i].Capabilities = append(agents[i].Capabilities, c)
	}
	return rows.Err()
}

func attachMetadata(ctx context.Context, q queryer, agents []domain.Agent, index map[string]int, placeholders string, ids []interface{}) error {
	rows, err := q.QueryContext(ctx,
		`SELECT agent_id, tags, categories, locales, geo_lat, geo_lng, geo_radius_km, cuisines, service_area, extra FROM agent_metadata WHERE agent_id IN (`+placeholders+`)`,
		ids...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var agentID string
		var tags, categories, locales, cuisines, serviceArea, extra sql.NullString
		var lat, lng, radius sql.NullFloat64
		if err := rows.Scan(&agentID, &tags, &categories, &locales, &lat, &lng, &radius, &cuisines, &serviceArea, &extra); err != nil {
			return err
		}
		md := &domain.AgentMetadata{
			Tags:       parseList(tags),
			Categories: parseList(categories),
			Locales:    parseList(locales),
			Business: &domain.Business{
				Cuisines:    parseList(cuisines),
				ServiceArea: serviceArea.String,
			},
		}
		if lat.Valid && lng.Valid {
			md.Geo = &domain.Geo{Lat: lat.Float64, Lng: lng.Float64}
			if radius.Valid {
				r := radius.Float64
				md.Geo.RadiusKm = &r
			}
		}
		if extra.Valid && extra.String != "" {
			md.Extra = json.RawMessage(extra.String)
		}
		agents[index[agentID]].Metadata = md
	}
	return rows.Err()
}

func affected(res sql.Result, err error, agentID string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("agent %s: %w", agentID, domain.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func jsonList(values []string) string {
	data, _ := json.Marshal(nonNil(values))
	return string(data)
}

func parseList(v sql.NullString) []string {
	out := []string{}
	if v.Valid && v.String != "" {
		_ = json.Unmarshal([]byte(v.String), &out)
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
