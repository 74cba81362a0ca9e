package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/oggyb/mawaddah/internal/db"
)

// MemberIDPrefix is prepended to every issued member number.
const MemberIDPrefix = "MAW-"

// FormatMemberID renders n as a member id, e.g. MAW-000042.
func FormatMemberID(n int64) string {
	return fmt.Sprintf("%s%06d", MemberIDPrefix, n)
}

// ParseMemberID extracts the number from a member id. ok is false for ids
// issued under another scheme.
func ParseMemberID(id string) (n int64, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(id))
	if !strings.HasPrefix(s, MemberIDPrefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(s, MemberIDPrefix), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// UserRepository provides data access methods for the User model.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts u. A duplicate email or member id surfaces as
// gorm.ErrDuplicatedKey when the dialect translates it.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// FindByEmail looks a user up by normalized email; (nil, nil) when absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	return r.take(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// FindByID returns (nil, nil) when the user does not exist.
func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*db.User, error) {
	return r.take(ctx, "id = ?", id)
}

// FindByIDs resolves ids, optionally restricted to one status. Missing ids
// are silently skipped.
//
// Example:
//
//	repo.FindByIDs(ctx, []uint64{3, 7}, db.StatusActive)
func (r *UserRepository) FindByIDs(ctx context.Context, ids []uint64, status string) ([]db.User, error) {
	if len(ids) == 0 {
		return []db.User{}, nil
	}

	q := r.db.WithContext(ctx).Where("id IN ?", ids)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var users []db.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// FindByMemberID returns the users whose member id equals memberID,
// ignoring case and surrounding whitespace.
func (r *UserRepository) FindByMemberID(ctx context.Context, memberID string) ([]db.User, error) {
	v := strings.ToUpper(strings.TrimSpace(memberID))
	if v == "" {
		return []db.User{}, nil
	}

	var users []db.User
	err := r.db.WithContext(ctx).
		Where("UPPER(member_id) = ?", v).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// MemberIDExists reports whether memberID is already taken.
func (r *UserRepository) MemberIDExists(ctx context.Context, memberID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("member_id = ?", memberID).
		Count(&count).Error
	return count > 0, err
}

// MaxMemberNumber returns the highest number among issued member ids, or 0.
// Ids in a foreign format are ignored.
func (r *UserRepository) MaxMemberNumber(ctx context.Context) (int64, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("member_id LIKE ?", MemberIDPrefix+"%").
		Pluck("member_id", &ids).Error
	if err != nil {
		return 0, err
	}

	var max int64
	for _, id := range ids {
		if n, ok := ParseMemberID(id); ok && n > max {
			max = n
		}
	}
	return max, nil
}

// SetStatus moves every user whose status is in from to status. A non-empty
// emails list narrows the update to those accounts. It returns the number
// of rows changed.
func (r *UserRepository) SetStatus(ctx context.Context, status string, from, emails []string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.User{}).
		Scopes(statusScope(from, emails)).
		Update("status", status)
	return res.RowsAffected, res.Error
}

// CountStatus counts the users SetStatus would touch.
func (r *UserRepository) CountStatus(ctx context.Context, from, emails []string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Scopes(statusScope(from, emails)).
		Count(&n).Error
	return n, err
}

// CountByStatus returns the number of users per account status.
func (r *UserRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func statusScope(from, emails []string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("status IN ?", from)
		if len(emails) > 0 {
			norm := make([]string, 0, len(emails))
			for _, e := range emails {
				norm = append(norm, strings.ToLower(strings.TrimSpace(e)))
			}
			q = q.Where("email IN ?", norm)
		}
		return q
	}
}

func (r *UserRepository) take(ctx context.Context, query string, args ...any) (*db.User, error) {
	var u db.User
	err := r.db.WithContext(ctx).Where(query, args...).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
