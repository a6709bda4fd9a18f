package auth

import (
	"context"
	"database/sql"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Identities(context context.Context) IdentityStore {
	return &identityStore{db: s.db}
}
func (s *PGStore) Tokens(context context.Context) TokenStore { return &tokenStore{db: s.db} }

// Identity store -----------------------------------------------------------
type identityStore struct{ db *sql.DB }

const identityColumns = `id, email, full_name, phone, role, active, password_hash, created_at, updated_at`

func (s *identityStore) Create(ctx context.Context, identity *Identity) error {
	_, err := s.db.ExecContext(ctx,
		`insert into identities(`+identityColumns+`) values($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		identity.ID, identity.Email, identity.FullName, identity.Phone, identity.Role.String(),
		identity.Active, identity.PasswordHash, identity.CreatedAt, identity.UpdatedAt,
	)
	return err
}

func (s *identityStore) Find(ctx context.Context, id string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+identityColumns+` from identities where id=$1`, id)
	return scanIdentity(row)
}

func (s *identityStore) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+identityColumns+` from identities where email=$1`, email)
	return scanIdentity(row)
}

func (s *identityStore) Update(ctx context.Context, identity *Identity) error {
	res, err := s.db.ExecContext(ctx,
		`update identities set email=$2, full_name=$3, phone=$4, role=$5, active=$6, updated_at=$7 where id=$1`,
		identity.ID, identity.Email, identity.FullName, identity.Phone,
		identity.Role.String(), identity.Active, identity.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *identityStore) UpdatePassword(ctx context.Context, identityID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update identities set password_hash=$2, updated_at=now() where id=$1`,
		identityID, passwordHash,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanIdentity(row *sql.Row) (*Identity, error) {
	var (
		identity Identity
		roleName string
	)
	err := row.Scan(&identity.ID, &identity.Email, &identity.FullName, &identity.Phone,
		&roleName, &identity.Active, &identity.PasswordHash, &identity.CreatedAt, &identity.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	// A stored role outside the closed set surfaces here, at construction time.
	role, err := ParseRole(roleName)
	if err != nil {
		return nil, err
	}
	identity.Role = role
	return &identity, nil
}

// Token store --------------------------------------------------------------
type tokenStore struct{ db *sql.DB }

func (s *tokenStore) Create(ctx context.Context, tok *AccessToken) error {
	_, err := s.db.ExecContext(ctx,
		`insert into access_tokens(id, identity_id, secret_hash, created_at) values($1,$2,$3,$4)`,
		tok.ID, tok.IdentityID, tok.SecretHash, tok.CreatedAt,
	)
	return err
}

func (s *tokenStore) FindBySecretHash(ctx context.Context, hash string) (*AccessToken, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, identity_id, secret_hash, created_at from access_tokens where secret_hash=$1`, hash)
	var tok AccessToken
	err := row.Scan(&tok.ID, &tok.IdentityID, &tok.SecretHash, &tok.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

func (s *tokenStore) Delete(ctx context.Context, identityID, tokenID string) error {
	// Single-record delete keyed by owner and identifier; zero rows is fine,
	// revocation stays idempotent.
	_, err := s.db.ExecContext(ctx,
		`delete from access_tokens where id=$1 and identity_id=$2`, tokenID, identityID)
	return err
}

func (s *tokenStore) DeleteByIdentity(ctx context.Context, identityID string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from access_tokens where identity_id=$1`, identityID)
	return err
}
