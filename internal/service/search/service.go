package search

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/mawaddah/internal/app"
	"github.com/oggyb/mawaddah/internal/db"
	svcErr "github.com/oggyb/mawaddah/internal/errors"
	"github.com/oggyb/mawaddah/internal/logger"
	"github.com/oggyb/mawaddah/internal/normalize"
	"github.com/oggyb/mawaddah/internal/repository"
	"github.com/oggyb/mawaddah/internal/utils/agerange"
	"github.com/oggyb/mawaddah/internal/utils/pagination"
)

var (
	ErrAgeBoundRequired     = svcErr.InvalidArgument("at least one of minAge or maxAge is required")
	ErrGenderInvalid        = svcErr.InvalidArgument("gender must be male or female")
	ErrGenderMismatch       = svcErr.InvalidArgument("gender is derived from your profile and cannot be overridden")
	ErrProfileRequired      = svcErr.FailedPrecondition("complete your profile first")
	ErrProfileGenderMissing = svcErr.FailedPrecondition("complete your profile first: gender is missing or invalid")
	ErrSearchFailed         = svcErr.Internal("search failed, please try again", nil)
)

// ProfileStore is the slice of the profile repository search needs.
type ProfileStore interface {
	FindByUserID(ctx context.Context, userID uint64) (*db.Profile, error)
	Find(ctx context.Context, f repository.ProfileFilter, offset, limit int) ([]db.Profile, error)
	Count(ctx context.Context, f repository.ProfileFilter) (int64, error)
}

// UserStore is the slice of the user repository search needs.
type UserStore interface {
	FindByIDs(ctx context.Context, ids []uint64, status string) ([]db.User, error)
	FindByMemberID(ctx context.Context, memberID string) ([]db.User, error)
}

// UserSummary never carries the password hash.
type UserSummary struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	MemberID string `json:"member_id"`
}

// ProfileView is the display projection of a matched profile. Gender and
// MaritalStatus hold the normalized values, not the stored ones.
type ProfileView struct {
	ID                 uint64 `json:"id"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Gender             string `json:"gender"`
	Age                int    `json:"age"`
	DateOfBirth        string `json:"date_of_birth"`
	Nationality        string `json:"nationality"`
	City               string `json:"city"`
	CountryOfResidence string `json:"country_of_residence"`
	Height             *int   `json:"height"`
	Education          string `json:"education"`
	Occupation         string `json:"occupation"`
	MaritalStatus      string `json:"marital_status"`
	MarriageType       string `json:"marriage_type"`
	PolygamyAcceptance string `json:"polygamy_acceptance"`
	CompatibilityTest  string `json:"compatibility_test"`
	Religion           string `json:"religion"`
	ReligiosityLevel   string `json:"religiosity_level"`
	About              string `json:"about"`
	PhotoURL           string `json:"photo_url"`
	IsVerified         bool   `json:"is_verified"`
}

type Result struct {
	User    UserSummary `json:"user"`
	Profile ProfileView `json:"profile"`
}

type Meta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

type Response struct {
	Results []Result `json:"data"`
	Meta    Meta     `json:"meta"`
	Notices []Notice `json:"notices,omitempty"`
}

// Service runs candidate searches.
type Service struct {
	appCtx   *app.AppContext
	profiles ProfileStore
	users    UserStore
}

// NewSearchService wires the service to the gorm repositories.
func NewSearchService(appCtx *app.AppContext) *Service {
	return NewService(appCtx,
		repository.NewProfileRepository(appCtx.DB),
		repository.NewUserRepository(appCtx.DB),
	)
}

// NewService builds a Service over arbitrary stores.
func NewService(appCtx *app.AppContext, profiles ProfileStore, users UserStore) *Service {
	return &Service{appCtx: appCtx, profiles: profiles, users: users}
}

// Search returns one page of opposite-gender candidates for callerID.
//
// Behavior:
//   - The target gender comes from the caller's profile, never the role.
//   - Only profiles of active users are returned or counted.
//   - Each fetched profile is re-validated (gender, marital status for its
//     own gender, date of birth); failures are logged and skipped.
//   - Any store failure fails the whole call with ErrSearchFailed.
//
// Example:
//
//	svc.Search(ctx, 7, Criteria{MinAge: &min, MaxAge: &max})
func (s *Service) Search(ctx context.Context, callerID uint64, c Criteria) (*Response, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger).With("caller_id", callerID)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	page := pagination.New(c.Page, c.PerPage, s.appCtx.Config.Search.DefaultPerPage, s.appCtx.Config.Search.MaxPerPage)

	caller, err := s.profiles.FindByUserID(ctx, callerID)
	if err != nil {
		log.Error("load caller profile failed", "err", err)
		return nil, ErrSearchFailed
	}
	if caller == nil {
		return nil, ErrProfileRequired
	}
	target, err := normalize.TargetGenderFor(caller.Gender)
	if err != nil {
		log.Warn("caller gender not normalizable", "profile_id", caller.ID, "gender", caller.Gender)
		return nil, ErrProfileGenderMissing
	}
	if err := c.checkGenderOverride(target); err != nil {
		log.Warn("gender override rejected", "requested", c.Gender, "target", target)
		return nil, err
	}

	asOf := s.appCtx.Now()
	dob := agerange.ToBirthDateRange(c.MinAge, c.MaxAge, asOf)

	owners := Owners{CallerID: callerID}
	if memberID, ok := supplied(c.MemberID); ok {
		users, err := s.users.FindByMemberID(ctx, memberID)
		if err != nil {
			log.Error("member id lookup failed", "member_id", memberID, "err", err)
			return nil, ErrSearchFailed
		}
		owners.MemberLookup = true
		for _, u := range users {
			if u.ID != callerID {
				owners.Members = append(owners.Members, u.ID)
			}
		}
	}

	filter, notices := BuildFilter(target, c, dob, owners)
	for _, n := range notices {
		log.Warn("search filter dropped", "field", n.Field, "reason", n.Reason)
	}
	log.Debug("search filter built",
		"target", target,
		"dob_from", dob.From,
		"dob_to", dob.To,
		"exact", len(filter.Exact),
		"marital", filter.MaritalStatuses,
		"match_nothing", filter.MatchNothing,
	)

	resp := &Response{
		Results: []Result{},
		Meta:    Meta{CurrentPage: page.Number, PerPage: page.PerPage},
		Notices: notices,
	}
	if filter.MatchNothing {
		return resp, nil
	}

	var (
		profiles []db.Profile
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profiles, err = s.profiles.Find(gctx, filter, page.Offset(), page.Limit())
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.profiles.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("search query failed", "err", err)
		return nil, ErrSearchFailed
	}
	resp.Meta.Total = total
	resp.Meta.LastPage = page.LastPage(total)
	log.Debug("search candidates fetched", "fetched", len(profiles), "total", total)

	ids := ownerIDs(profiles, callerID)
	if len(ids) == 0 {
		return resp, nil
	}

	users, err := s.users.FindByIDs(ctx, ids, db.StatusActive)
	if err != nil {
		log.Error("resolve candidate owners failed", "err", err)
		return nil, ErrSearchFailed
	}
	active := make(map[uint64]*db.User, len(users))
	for i := range users {
		active[users[i].ID] = &users[i]
	}

	for i := range profiles {
		p := &profiles[i]
		u, ok := active[p.UserID]
		if !ok {
			log.Debug("search candidate excluded", "profile_id", p.ID, "reason", "owner not active")
			continue
		}
		res, reason := candidate(p, u, target, dob, asOf)
		if reason != "" {
			log.Warn("search candidate excluded", "profile_id", p.ID, "reason", reason)
			continue
		}
		resp.Results = append(resp.Results, res)
	}

	log.Info("search completed",
		"target", target,
		"returned", len(resp.Results),
		"total", total,
		"page", page.Number,
	)
	return resp, nil
}

// candidate re-validates p and builds its result. A non-empty reason means
// p must be excluded.
func candidate(p *db.Profile, u *db.User, target normalize.Gender, dob agerange.Range, asOf time.Time) (Result, string) {
	own, ok := normalize.ParseGender(p.Gender)
	if !ok {
		return Result{}, "gender not normalizable"
	}
	if own != target {
		return Result{}, "gender does not match target"
	}

	marital := normalize.MaritalStatus(p.MaritalStatus, own)
	if !normalize.IsValidMaritalStatus(marital, own) {
		return Result{}, "marital status invalid for own gender"
	}

	age, ok := agerange.Age(p.DateOfBirth, asOf)
	if dob.Bounded() && (!ok || !dob.Contains(p.DateOfBirth)) {
		return Result{}, "date of birth outside requested age range"
	}

	view := ProfileView{
		ID:                 p.ID,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Gender:             own.String(),
		Age:                age,
		Nationality:        p.Nationality,
		City:               p.City,
		CountryOfResidence: p.CountryOfResidence,
		Height:             p.Height,
		Education:          p.Education,
		Occupation:         p.Occupation,
		MaritalStatus:      marital,
		MarriageType:       p.MarriageType,
		PolygamyAcceptance: p.PolygamyAcceptance,
		CompatibilityTest:  p.CompatibilityTest,
		Religion:           p.Religion,
		ReligiosityLevel:   p.ReligiosityLevel,
		About:              p.About,
		PhotoURL:           p.PhotoURL,
		IsVerified:         p.IsVerified,
	}
	if ok {
		view.DateOfBirth = p.DateOfBirth.UTC().Format(time.DateOnly)
	}

	return Result{
		User: UserSummary{
			ID:       u.ID,
			Email:    u.Email,
			Role:     u.Role,
			Status:   u.Status,
			MemberID: u.MemberID,
		},
		Profile: view,
	}, ""
}

// ownerIDs returns the distinct owners of ps in first-seen order, caller
// excluded.
func ownerIDs(ps []db.Profile, callerID uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ps))
	out := make([]uint64, 0, len(ps))
	for _, p := range ps {
		if p.UserID == 0 || p.UserID == callerID {
			continue
		}
		if _, dup := seen[p.UserID]; dup {
			continue
		}
		seen[p.UserID] = struct{}{}
		out = append(out, p.UserID)
	}
	return out
}
