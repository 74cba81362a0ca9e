package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/mawaddah/internal/db"
)

// ProfileRepository provides data access methods for the Profile model.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// FindByUserID returns the profile owned by userID, or (nil, nil) when the
// user has none.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID uint64) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByIDOrUserID looks id up as a profile id first and then as an owner
// id, so links built from either keep working. (nil, nil) when neither
// matches.
func (r *ProfileRepository) FindByIDOrUserID(ctx context.Context, id uint64) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.FindByUserID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Find returns one page of profiles matching f.
//
// Behavior:
//   - Ordered by created_at DESC, id DESC (newest first, stable ties).
//   - MatchNothing returns an empty slice without touching the DB.
//
// Example:
//
//	repo.Find(ctx, filter, 40, 20) // third page of 20
func (r *ProfileRepository) Find(ctx context.Context, f ProfileFilter, offset, limit int) ([]db.Profile, error) {
	if f.MatchNothing {
		return []db.Profile{}, nil
	}

	var profiles []db.Profile
	err := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Scopes(f.scope(r.db)).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// Count returns the number of profiles matching f. With ActiveOwnersOnly it
// only counts profiles of active users.
func (r *ProfileRepository) Count(ctx context.Context, f ProfileFilter) (int64, error) {
	if f.MatchNothing {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Scopes(f.scope(r.db)).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CreateIfAbsent inserts p unless its user already has a profile, and
// returns the stored row either way. created is false when a profile existed.
//
// The unique index on user_id makes concurrent creates collapse to one row.
func (r *ProfileRepository) CreateIfAbsent(ctx context.Context, p *db.Profile) (stored *db.Profile, created bool, err error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(p)
	if res.Error != nil {
		return nil, false, res.Error
	}

	existing, err := r.FindByUserID(ctx, p.UserID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	return existing, res.RowsAffected > 0, nil
}

// UpdateFields applies a partial update to the profile owned by userID.
// Keys are column names; empty strings and nils are written as-is.
func (r *ProfileRepository) UpdateFields(ctx context.Context, userID uint64, fields map[string]any) (*db.Profile, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).
			Model(&db.Profile{}).
			Where("user_id = ?", userID).
			Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			// either no profile, or the row already held these values
			if p, err := r.FindByUserID(ctx, userID); err != nil || p == nil {
				if err == nil {
					err = gorm.ErrRecordNotFound
				}
				return nil, err
			}
		}
	}

	p, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

// UpdateByID writes fields on a single profile row.
func (r *ProfileRepository) UpdateByID(ctx context.Context, id uint64, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// EachBatch walks every profile in primary key order, size rows at a time.
func (r *ProfileRepository) EachBatch(ctx context.Context, size int, fn func([]db.Profile) error) error {
	var batch []db.Profile
	res := r.db.WithContext(ctx).
		FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	return res.Error
}
