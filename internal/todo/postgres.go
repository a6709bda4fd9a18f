package todo

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

const todoColumns = `id, name, date, user_id, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, t *Todo) error {
	_, err := s.db.ExecContext(ctx,
		`insert into todos(`+todoColumns+`) values($1,$2,$3,$4,$5,$6)`,
		t.ID, t.Name, t.Date, t.UserID, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (s *PGStore) Find(ctx context.Context, id string) (*Todo, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+todoColumns+` from todos where id=$1`, id)
	var t Todo
	err := row.Scan(&t.ID, &t.Name, &t.Date, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PGStore) List(ctx context.Context) ([]*Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+todoColumns+` from todos order by date desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []*Todo
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.Name, &t.Date, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		todos = append(todos, &t)
	}
	return todos, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, t *Todo) error {
	res, err := s.db.ExecContext(ctx,
		`update todos set name=$2, date=$3, updated_at=$4 where id=$1`,
		t.ID, t.Name, t.Date, t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from todos where id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
