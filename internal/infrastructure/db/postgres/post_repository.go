package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirpyerre/postbox/internal/core/domain"
)

// PostRepository implements ports.PostRepository on the posts table.
type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts the post and returns it fully assigned once committed. An
// owner that no longer exists yields domain.ErrUnauthenticated.
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	created := &domain.Post{}
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `
			INSERT INTO posts (text, owner_id)
			VALUES ($1, $2)
			RETURNING id, text, owner_id`,
			post.Text, post.OwnerID,
		).Scan(&created.ID, &created.Text, &created.OwnerID)
	})
	if err != nil {
		// The owner was deleted after its token was resolved.
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("insert post: owner %d: %w", post.OwnerID, domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return created, nil
}

func (r *PostRepository) FindByID(ctx context.Context, id int64) (*domain.Post, error) {
	post := &domain.Post{}
	err := r.db.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx,
			`SELECT id, text, owner_id FROM posts WHERE id = $1`, id,
		).Scan(&post.ID, &post.Text, &post.OwnerID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return post, nil
}

// ListByOwner returns the owner's posts ordered by id.
func (r *PostRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Post, error) {
	posts := []domain.Post{}
	err := r.db.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT id, text, owner_id FROM posts WHERE owner_id = $1 ORDER BY id`, ownerID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p domain.Post
			if err := rows.Scan(&p.ID, &p.Text, &p.OwnerID); err != nil {
				return err
			}
			posts = append(posts, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		if n == 0 {
			return domain.ErrPostNotFound
		}
		return nil
	})
}
