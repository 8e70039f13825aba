package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/craftrealm/realm-api/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// schema is applied in order by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id               BIGSERIAL PRIMARY KEY,
		email            VARCHAR(180) NOT NULL,
		roles            TEXT[]       NOT NULL DEFAULT '{}',
		password         VARCHAR(255) NOT NULL,
		pseudo_minecraft VARCHAR(255),
		uuid_minecraft   VARCHAR(36),
		credits          INTEGER      NOT NULL DEFAULT 0,
		date_inscription TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		api_token        VARCHAR(64),
		faction_id       BIGINT,
		CONSTRAINT users_email_key UNIQUE (email),
		CONSTRAINT users_api_token_key UNIQUE (api_token)
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(255) NOT NULL,
		description TEXT,
		price       INTEGER      NOT NULL,
		rarity      VARCHAR(50)  NOT NULL,
		CONSTRAINT items_name_key UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS factions (
		id            BIGSERIAL PRIMARY KEY,
		name          VARCHAR(255) NOT NULL,
		description   TEXT,
		power         INTEGER      NOT NULL DEFAULT 0,
		leader_id     BIGINT       NOT NULL REFERENCES users(id),
		date_creation TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		CONSTRAINT factions_name_key UNIQUE (name)
	)`,
	`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_faction_id_fkey`,
	`ALTER TABLE users ADD CONSTRAINT users_faction_id_fkey
		FOREIGN KEY (faction_id) REFERENCES factions(id)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT      NOT NULL REFERENCES users(id),
		item_id    BIGINT      NOT NULL REFERENCES items(id),
		quantity   INTEGER     NOT NULL DEFAULT 1,
		date_achat TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS bans (
		id         BIGSERIAL PRIMARY KEY,
		target     VARCHAR(255) NOT NULL,
		reason     TEXT,
		expires_at TIMESTAMPTZ,
		active     BOOLEAN      NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS inventory_user_id_idx ON inventory (user_id)`,
	`CREATE INDEX IF NOT EXISTS users_faction_id_idx ON users (faction_id)`,
}

const userColumns = `id, email, password, roles, pseudo_minecraft, uuid_minecraft,
	credits, date_inscription, api_token, faction_id`

const factionColumns = `id, name, description, power, leader_id, date_creation`

type userRow struct {
	ID           int64          `db:"id"`
	Email        string         `db:"email"`
	Password     string         `db:"password"`
	Roles        pq.StringArray `db:"roles"`
	PseudoMC     *string        `db:"pseudo_minecraft"`
	UUIDMC       *string        `db:"uuid_minecraft"`
	Credits      int            `db:"credits"`
	RegisteredAt time.Time      `db:"date_inscription"`
	APIToken     *string        `db:"api_token"`
	FactionID    *int64         `db:"faction_id"`
}

func (r userRow) model() *models.User {
	roles := make([]models.Role, 0, len(r.Roles))
	for _, role := range r.Roles {
		roles = append(roles, models.Role(role))
	}
	return &models.User{
		ID:           r.ID,
		Email:        r.Email,
		Password:     r.Password,
		Roles:        roles,
		PseudoMC:     r.PseudoMC,
		UUIDMC:       r.UUIDMC,
		Credits:      r.Credits,
		RegisteredAt: r.RegisteredAt,
		APIToken:     r.APIToken,
		FactionID:    r.FactionID,
	}
}

type factionRow struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	Power       int       `db:"power"`
	LeaderID    int64     `db:"leader_id"`
	CreatedAt   time.Time `db:"date_creation"`
}

func (r factionRow) model() *models.Faction {
	return &models.Faction{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Power:       r.Power,
		LeaderID:    r.LeaderID,
		CreatedAt:   r.CreatedAt,
	}
}

type factionSummaryRow struct {
	factionRow
	Leader  *string `db:"leader"`
	Members int     `db:"members"`
}

type inventoryRow struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	Quantity        int       `db:"quantity"`
	PurchasedAt     time.Time `db:"date_achat"`
	ItemID          int64     `db:"item_id"`
	ItemName        string    `db:"item_name"`
	ItemDescription *string   `db:"item_description"`
	ItemPrice       int       `db:"item_price"`
	ItemRarity      string    `db:"item_rarity"`
}

// PostgresStore persists users, items, inventory and factions in
// PostgreSQL. Multi-row writes run in a single transaction and rely on
// unique constraints and conditional updates rather than prior reads.
type PostgresStore struct {
	db *sqlx.DB
}

// OpenPostgres connects through the pgx stdlib driver and pings the server.
func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "store: connect postgres")
	}
	return db, nil
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables and constraints if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "store: migrate")
		}
	}
	return nil
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "store: begin tx")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "store: commit")
}

func constraintViolation(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	roles := make(pq.StringArray, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}

	created := *u
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO users (email, password, roles, pseudo_minecraft, uuid_minecraft, credits, date_inscription)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		u.Email, u.Password, roles, u.PseudoMC, u.UUIDMC, u.Credits, u.RegisteredAt,
	).Scan(&created.ID)
	if err != nil {
		if constraintViolation(err, pgUniqueViolation, "users_email_key") {
			return nil, models.ErrEmailTaken
		}
		return nil, errors.Wrap(err, "store: CreateUser")
	}
	return &created, nil
}

func (s *PostgresStore) getUser(ctx context.Context, op, where string, arg interface{}) (*models.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE `+where+` = $1`, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: "+op)
	}
	return row.model(), nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "GetUserByID", "id", id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "GetUserByEmail", "email", email)
}

func (s *PostgresStore) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	return s.getUser(ctx, "GetUserByToken", "api_token", token)
}

// SetToken replaces the user's bearer token.
func (s *PostgresStore) SetToken(ctx context.Context, userID int64, token string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET api_token = $2 WHERE id = $1`, userID, token)
	if constraintViolation(err, pgUniqueViolation, "users_api_token_key") {
		return models.ErrTokenCollision
	}
	if err != nil {
		return errors.Wrap(err, "store: SetToken")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// UpdateProfile sets the non-nil fields and returns the updated user.
func (s *PostgresStore) UpdateProfile(ctx context.Context, userID int64, pseudo, uuid *string) (*models.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		`UPDATE users
		 SET pseudo_minecraft = COALESCE($2, pseudo_minecraft),
		     uuid_minecraft   = COALESCE($3, uuid_minecraft)
		 WHERE id = $1
		 RETURNING `+userColumns,
		userID, pseudo, uuid,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: UpdateProfile")
	}
	return row.model(), nil
}

func (s *PostgresStore) ListItems(ctx context.Context) ([]models.Item, error) {
	items := []models.Item{}
	if err := s.db.SelectContext(ctx, &items,
		`SELECT id, name, description, price, rarity FROM items ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "store: ListItems")
	}
	return items, nil
}

func (s *PostgresStore) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	err := s.db.GetContext(ctx, &item,
		`SELECT id, name, description, price, rarity FROM items WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrItemNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: GetItem")
	}
	return &item, nil
}

// ImportItems inserts items whose name is not yet in the catalog and
// returns how many were added.
func (s *PostgresStore) ImportItems(ctx context.Context, items []models.Item) (int, error) {
	inserted := 0
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, it := range items {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO items (name, description, price, rarity)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (name) DO NOTHING`,
				it.Name, it.Description, it.Price, it.Rarity,
			)
			if err != nil {
				return errors.Wrapf(err, "store: ImportItems %q", it.Name)
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// PurchaseItem debits item.Price from the user and grants one inventory
// row in a single transaction. The debit only applies while the balance
// covers the price, so concurrent purchases cannot overdraw.
func (s *PostgresStore) PurchaseItem(ctx context.Context, userID int64, item models.Item, at time.Time) (int, error) {
	var balance int
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx,
			`UPDATE users SET credits = credits - $2
			 WHERE id = $1 AND credits >= $2
			 RETURNING credits`,
			userID, item.Price,
		).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			var available int
			if err := tx.GetContext(ctx, &available, `SELECT credits FROM users WHERE id = $1`, userID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return models.ErrUserNotFound
				}
				return errors.Wrap(err, "store: PurchaseItem balance")
			}
			return &models.InsufficientFundsError{Required: item.Price, Available: available}
		}
		if err != nil {
			return errors.Wrap(err, "store: PurchaseItem debit")
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO inventory (user_id, item_id, quantity, date_achat) VALUES ($1, $2, 1, $3)`,
			userID, item.ID, at,
		)
		if constraintViolation(err, pgForeignKeyViolation, "") {
			return models.ErrItemNotFound
		}
		return errors.Wrap(err, "store: PurchaseItem grant")
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *PostgresStore) ListInventory(ctx context.Context, userID int64) ([]models.InventoryEntry, error) {
	var rows []inventoryRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT inv.id, inv.user_id, inv.quantity, inv.date_achat,
		        i.id AS item_id, i.name AS item_name, i.description AS item_description,
		        i.price AS item_price, i.rarity AS item_rarity
		 FROM inventory inv
		 JOIN items i ON i.id = inv.item_id
		 WHERE inv.user_id = $1
		 ORDER BY inv.id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "store: ListInventory")
	}

	entries := make([]models.InventoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, models.InventoryEntry{
			ID:     r.ID,
			UserID: r.UserID,
			Item: models.Item{
				ID:          r.ItemID,
				Name:        r.ItemName,
				Description: r.ItemDescription,
				Price:       r.ItemPrice,
				Rarity:      r.ItemRarity,
			},
			Quantity:    r.Quantity,
			PurchasedAt: r.PurchasedAt,
		})
	}
	return entries, nil
}

// CreateFaction founds f with f.LeaderID as leader and first member and
// debits cost from the leader, all in one transaction. The leader row is
// locked first so membership and balance are re-checked under the lock.
func (s *PostgresStore) CreateFaction(ctx context.Context, f models.Faction, cost int) (*models.Faction, int, error) {
	var balance int
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var leader struct {
			Credits   int    `db:"credits"`
			FactionID *int64 `db:"faction_id"`
		}
		err := tx.GetContext(ctx, &leader,
			`SELECT credits, faction_id FROM users WHERE id = $1 FOR UPDATE`, f.LeaderID)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrUserNotFound
		}
		if err != nil {
			return errors.Wrap(err, "store: CreateFaction lock leader")
		}
		if leader.FactionID != nil {
			return models.ErrAlreadyInFaction
		}
		if leader.Credits < cost {
			return &models.InsufficientFundsError{Required: cost, Available: leader.Credits}
		}

		err = tx.QueryRowxContext(ctx,
			`INSERT INTO factions (name, description, power, leader_id, date_creation)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id`,
			f.Name, f.Description, f.Power, f.LeaderID, f.CreatedAt,
		).Scan(&f.ID)
		if constraintViolation(err, pgUniqueViolation, "factions_name_key") {
			return models.ErrFactionNameTaken
		}
		if err != nil {
			return errors.Wrap(err, "store: CreateFaction insert")
		}

		err = tx.QueryRowxContext(ctx,
			`UPDATE users SET credits = credits - $2, faction_id = $3
			 WHERE id = $1
			 RETURNING credits`,
			f.LeaderID, cost, f.ID,
		).Scan(&balance)
		return errors.Wrap(err, "store: CreateFaction debit")
	})
	if err != nil {
		return nil, 0, err
	}
	return &f, balance, nil
}

func (s *PostgresStore) GetFaction(ctx context.Context, id int64) (*models.Faction, error) {
	var row factionRow
	err := s.db.GetContext(ctx, &row, `SELECT `+factionColumns+` FROM factions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrFactionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: GetFaction")
	}
	return row.model(), nil
}

// ListFactions returns every faction with its leader's pseudo and a member
// count computed from users.faction_id.
func (s *PostgresStore) ListFactions(ctx context.Context) ([]models.FactionSummary, error) {
	var rows []factionSummaryRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT f.id, f.name, f.description, f.power, f.leader_id, f.date_creation,
		        l.pseudo_minecraft AS leader,
		        (SELECT COUNT(*) FROM users m WHERE m.faction_id = f.id) AS members
		 FROM factions f
		 JOIN users l ON l.id = f.leader_id
		 ORDER BY f.id`)
	if err != nil {
		return nil, errors.Wrap(err, "store: ListFactions")
	}

	out := make([]models.FactionSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.FactionSummary{
			Faction: *r.model(),
			Leader:  r.Leader,
			Members: r.Members,
		})
	}
	return out, nil
}

// JoinFaction sets the user's faction only if it has none. The foreign key
// rejects factions that do not exist or were dissolved concurrently.
func (s *PostgresStore) JoinFaction(ctx context.Context, userID, factionID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET faction_id = $2 WHERE id = $1 AND faction_id IS NULL`,
		userID, factionID,
	)
	if constraintViolation(err, pgForeignKeyViolation, "") {
		return models.ErrFactionNotFound
	}
	if err != nil {
		return errors.Wrap(err, "store: JoinFaction")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrAlreadyInFaction
	}
	return nil
}

// DissolveFaction detaches every member then deletes the faction, in one
// transaction. It returns the number of members detached.
func (s *PostgresStore) DissolveFaction(ctx context.Context, factionID int64) (int, error) {
	var detached int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var id int64
		err := tx.GetContext(ctx, &id, `SELECT id FROM factions WHERE id = $1 FOR UPDATE`, factionID)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrFactionNotFound
		}
		if err != nil {
			return errors.Wrap(err, "store: DissolveFaction lock")
		}

		res, err := tx.ExecContext(ctx, `UPDATE users SET faction_id = NULL WHERE faction_id = $1`, factionID)
		if err != nil {
			return errors.Wrap(err, "store: DissolveFaction detach")
		}
		detached, _ = res.RowsAffected()

		_, err = tx.ExecContext(ctx, `DELETE FROM factions WHERE id = $1`, factionID)
		return errors.Wrap(err, "store: DissolveFaction delete")
	})
	if err != nil {
		return 0, err
	}
	return int(detached), nil
}
