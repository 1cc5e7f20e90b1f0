package db

import (
	"context"

	"github.com/shandysiswandi/gootp/internal/passcode/entity"
	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
)

const (
	queryGetUserByEmail = `SELECT id, email, email_verified FROM users WHERE email = $1 AND deleted_at IS NULL`

	queryMarkEmailVerified = `UPDATE users SET email_verified = TRUE, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL`

	queryUpdatePasswordHash = `UPDATE users SET password_hash = $2, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL`
)

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	var u entity.User
	if err = s.conn.QueryRow(ctx, queryGetUserByEmail, email).Scan(&u.ID, &u.Email, &u.EmailVerified); err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

func (s *DB) MarkEmailVerified(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "MarkEmailVerified")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryMarkEmailVerified, id)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) UpdatePasswordHash(ctx context.Context, id int64, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdatePasswordHash")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryUpdatePasswordHash, id, hash)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
