package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/google/uuid"

	"github.com/xxxsen/repowhisper/internal/model"
	"github.com/xxxsen/repowhisper/internal/pkg/dbutil"
	"github.com/xxxsen/repowhisper/internal/pkg/errors"
)

// RepositoryRepo tracks which repos a user has indexed. Deleting a row is the
// soft-delete switch for search: chunks stay behind but stop matching once the
// repo row is gone.
type RepositoryRepo struct {
	db *sql.DB
}

func NewRepositoryRepo(db *sql.DB) *RepositoryRepo {
	return &RepositoryRepo{db: db}
}

var repositoryColumns = []string{"id", "user_id", "root_path", "mode", "last_indexed_at", "ctime"}

// CreateOrGet returns the repo row for (user, root path), creating it on
// first index. The unique constraint keeps concurrent first indexes from
// racing to two rows.
func (r *RepositoryRepo) CreateOrGet(ctx context.Context, userID, rootPath string, mode model.IndexMode) (*model.Repository, error) {
	existing, err := r.getByRoot(ctx, userID, rootPath)
	if err == nil {
		if existing.Mode != mode {
			if err := r.updateMode(ctx, existing.ID, mode); err != nil {
				return nil, err
			}
			existing.Mode = mode
		}
		return existing, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}
	item := &model.Repository{
		ID:       uuid.NewString(),
		UserID:   userID,
		RootPath: rootPath,
		Mode:     mode,
		Ctime:    time.Now().UnixMilli(),
	}
	data := map[string]interface{}{
		"id":              item.ID,
		"user_id":         item.UserID,
		"root_path":       item.RootPath,
		"mode":            string(item.Mode),
		"last_indexed_at": item.LastIndexedAt,
		"ctime":           item.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("repositories", []map[string]interface{}{data})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return r.getByRoot(ctx, userID, rootPath)
		}
		return nil, err
	}
	return item, nil
}

func (r *RepositoryRepo) Get(ctx context.Context, userID, id string) (*model.Repository, error) {
	where := map[string]interface{}{
		"id":      id,
		"user_id": userID,
	}
	return r.selectOne(ctx, where)
}

func (r *RepositoryRepo) getByRoot(ctx context.Context, userID, rootPath string) (*model.Repository, error) {
	where := map[string]interface{}{
		"user_id":   userID,
		"root_path": rootPath,
	}
	return r.selectOne(ctx, where)
}

func (r *RepositoryRepo) selectOne(ctx context.Context, where map[string]interface{}) (*model.Repository, error) {
	sqlStr, args, err := builder.BuildSelect("repositories", where, repositoryColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var item model.Repository
	var mode string
	if err := row.Scan(&item.ID, &item.UserID, &item.RootPath, &mode, &item.LastIndexedAt, &item.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}
	item.Mode = model.IndexMode(mode)
	return &item, nil
}

func (r *RepositoryRepo) ListByUser(ctx context.Context, userID string) ([]model.Repository, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("repositories", where, repositoryColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.Repository
	for rows.Next() {
		var item model.Repository
		var mode string
		if err := rows.Scan(&item.ID, &item.UserID, &item.RootPath, &mode, &item.LastIndexedAt, &item.Ctime); err != nil {
			return nil, err
		}
		item.Mode = model.IndexMode(mode)
		results = append(results, item)
	}
	return results, rows.Err()
}

// ActiveIDs returns the set of repo ids that still exist for the user. Search
// consults this set on every query so deleted repos drop out immediately.
func (r *RepositoryRepo) ActiveIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	items, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(items))
	for _, item := range items {
		ids[item.ID] = struct{}{}
	}
	return ids, nil
}

func (r *RepositoryRepo) UpdateLastIndexed(ctx context.Context, userID, id string, ts int64) error {
	where := map[string]interface{}{
		"id":      id,
		"user_id": userID,
	}
	update := map[string]interface{}{
		"last_indexed_at": ts,
	}
	sqlStr, args, err := builder.BuildUpdate("repositories", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *RepositoryRepo) updateMode(ctx context.Context, id string, mode model.IndexMode) error {
	where := map[string]interface{}{
		"id": id,
	}
	update := map[string]interface{}{
		"mode": string(mode),
	}
	sqlStr, args, err := builder.BuildUpdate("repositories", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Delete removes the repo row. Returns ErrNotFound when the repo does not
// belong to the user or never existed.
func (r *RepositoryRepo) Delete(ctx context.Context, userID, id string) error {
	where := map[string]interface{}{
		"id":      id,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildDelete("repositories", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.ErrNotFound
	}
	return nil
}
