package profiles

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/mawaddah/internal/app"
	"github.com/oggyb/mawaddah/internal/db"
	svcErr "github.com/oggyb/mawaddah/internal/errors"
	"github.com/oggyb/mawaddah/internal/normalize"
	"github.com/oggyb/mawaddah/internal/repository"
	"github.com/oggyb/mawaddah/internal/utils/agerange"
)

const dateLayout = time.DateOnly

var ErrProfileNotFound = svcErr.NotFound("profile not found")

// Input carries a create or partial update. Nil fields are left alone; an
// empty string clears the field.
type Input struct {
	FirstName          *string `json:"firstName"`
	LastName           *string `json:"lastName"`
	Gender             *string `json:"gender"`
	DateOfBirth        *string `json:"dateOfBirth"`
	Nationality        *string `json:"nationality"`
	City               *string `json:"city"`
	CountryOfResidence *string `json:"countryOfResidence"`
	Height             *int    `json:"height"`
	Education          *string `json:"education"`
	Occupation         *string `json:"occupation"`
	ReligiosityLevel   *string `json:"religiosityLevel"`
	Religion           *string `json:"religion"`
	MaritalStatus      *string `json:"maritalStatus"`
	MarriageType       *string `json:"marriageType"`
	PolygamyAcceptance *string `json:"polygamyAcceptance"`
	CompatibilityTest  *string `json:"compatibilityTest"`
	About              *string `json:"about"`
	GuardianName       *string `json:"guardianName"`
	GuardianContact    *string `json:"guardianContact"`
	PhotoURL           *string `json:"photoUrl"`
}

// View is the owner's own profile as returned by the API.
type View struct {
	ID                 uint64    `json:"id"`
	UserID             uint64    `json:"user_id"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Gender             string    `json:"gender"`
	DateOfBirth        string    `json:"date_of_birth,omitempty"`
	Age                *int      `json:"age,omitempty"`
	Nationality        string    `json:"nationality"`
	City               string    `json:"city"`
	CountryOfResidence string    `json:"country_of_residence"`
	Height             *int      `json:"height"`
	Education          string    `json:"education"`
	Occupation         string    `json:"occupation"`
	ReligiosityLevel   string    `json:"religiosity_level"`
	Religion           string    `json:"religion"`
	MaritalStatus      string    `json:"marital_status"`
	MarriageType       string    `json:"marriage_type"`
	PolygamyAcceptance string    `json:"polygamy_acceptance"`
	CompatibilityTest  string    `json:"compatibility_test"`
	About              string    `json:"about"`
	GuardianName       string    `json:"guardian_name,omitempty"`
	GuardianContact    string    `json:"guardian_contact,omitempty"`
	PhotoURL           string    `json:"photo_url"`
	IsVerified         bool      `json:"is_verified"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Service manages a user's own profile and lookups of other members.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	users    *repository.UserRepository
}

func NewProfileService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		users:    repository.NewUserRepository(appCtx.DB),
	}
}

// Get returns the caller's profile or ErrProfileNotFound.
func (s *Service) Get(ctx context.Context, userID uint64) (*View, error) {
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, svcErr.Internal("could not load profile", err)
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return s.view(p), nil
}

// Lookup returns the profile with the given profile id, or owned by the
// user with that id. Other members only see profiles of active accounts,
// without guardian details or the exact date of birth. The caller's own
// profile comes back in full.
func (s *Service) Lookup(ctx context.Context, callerID, id uint64) (*View, error) {
	p, err := s.profiles.FindByIDOrUserID(ctx, id)
	if err != nil {
		return nil, svcErr.Internal("could not load profile", err)
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	if p.UserID == callerID {
		return s.view(p), nil
	}

	owner, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, svcErr.Internal("could not load profile", err)
	}
	if owner == nil || owner.Status != db.StatusActive {
		return nil, ErrProfileNotFound
	}

	v := s.view(p)
	v.DateOfBirth = ""
	v.GuardianName = ""
	v.GuardianContact = ""
	if g, ok := normalize.ParseGender(p.Gender); ok {
		v.Gender = g.String()
		v.MaritalStatus = normalize.MaritalStatus(p.MaritalStatus, g)
	}
	return v, nil
}

// Create stores a profile for userID. If one already exists it is returned
// unchanged and created is false.
func (s *Service) Create(ctx context.Context, userID uint64, in Input) (view *View, created bool, err error) {
	fields, err := s.fields(in, "")
	if err != nil {
		return nil, false, err
	}

	p := &db.Profile{UserID: userID}
	apply(p, fields)

	stored, created, err := s.profiles.CreateIfAbsent(ctx, p)
	if err != nil {
		s.appCtx.Logger.Error("create profile failed", "user_id", userID, "err", err)
		return nil, false, svcErr.Internal("could not create profile", err)
	}
	if !created {
		s.appCtx.Logger.Debug("profile already exists", "user_id", userID, "profile_id", stored.ID)
	}
	return s.view(stored), created, nil
}

// Update applies a partial update to the caller's profile.
//
// Gender is stored canonically. Marital status is normalized for the
// profile's gender (the new one when both change) and must be valid for it.
func (s *Service) Update(ctx context.Context, userID uint64, in Input) (*View, error) {
	current, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, svcErr.Internal("could not load profile", err)
	}
	if current == nil {
		return nil, ErrProfileNotFound
	}

	fields, err := s.fields(in, current.Gender)
	if err != nil {
		return nil, err
	}
	// re-spell the stored status for a new gender
	if in.Gender != nil && in.MaritalStatus == nil && current.MaritalStatus != "" {
		if g, ok := normalize.ParseGender(fields["gender"].(string)); ok {
			fields["marital_status"] = normalize.MaritalStatus(current.MaritalStatus, g)
		}
	}

	p, err := s.profiles.UpdateFields(ctx, userID, fields)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		s.appCtx.Logger.Error("update profile failed", "user_id", userID, "err", err)
		return nil, svcErr.Internal("could not update profile", err)
	}
	return s.view(p), nil
}

// fields validates in and returns the column updates it describes.
// storedGender is the profile's gender before the update.
func (s *Service) fields(in Input, storedGender string) (map[string]any, error) {
	out := map[string]any{}

	text := []struct {
		col string
		val *string
	}{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"nationality", in.Nationality},
		{"city", in.City},
		{"country_of_residence", in.CountryOfResidence},
		{"education", in.Education},
		{"occupation", in.Occupation},
		{"religiosity_level", in.ReligiosityLevel},
		{"religion", in.Religion},
		{"marriage_type", in.MarriageType},
		{"polygamy_acceptance", in.PolygamyAcceptance},
		{"compatibility_test", in.CompatibilityTest},
		{"about", in.About},
		{"guardian_name", in.GuardianName},
		{"guardian_contact", in.GuardianContact},
		{"photo_url", in.PhotoURL},
	}
	for _, f := range text {
		if f.val != nil {
			out[f.col] = strings.TrimSpace(*f.val)
		}
	}

	gender := storedGender
	if in.Gender != nil {
		g := ""
		if raw := strings.TrimSpace(*in.Gender); raw != "" {
			parsed, ok := normalize.ParseGender(raw)
			if !ok {
				return nil, svcErr.InvalidArgument("gender must be male or female")
			}
			g = parsed.String()
		}
		out["gender"] = g
		gender = g
	}

	if in.MaritalStatus != nil {
		status, err := maritalFor(*in.MaritalStatus, gender)
		if err != nil {
			return nil, err
		}
		out["marital_status"] = status
	}

	if in.DateOfBirth != nil {
		dob, err := s.parseDOB(*in.DateOfBirth)
		if err != nil {
			return nil, err
		}
		out["date_of_birth"] = dob
	}

	if in.Height != nil {
		if *in.Height < 100 || *in.Height > 250 {
			return nil, svcErr.InvalidArgument("height must be between 100 and 250")
		}
		out["height"] = *in.Height
	}
	return out, nil
}

// maritalFor normalizes status for the given stored gender.
func maritalFor(status, gender string) (string, error) {
	s := strings.TrimSpace(status)
	if s == "" {
		return "", nil
	}
	g, ok := normalize.ParseGender(gender)
	if !ok {
		return "", svcErr.InvalidArgument("set gender before marital status")
	}
	s = normalize.MaritalStatus(s, g)
	if !normalize.IsValidMaritalStatus(s, g) {
		return "", svcErr.InvalidArgument("marital status is not valid for " + g.String() + " profiles")
	}
	return s, nil
}

func (s *Service) parseDOB(raw string) (*time.Time, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, svcErr.InvalidArgument("dateOfBirth must be formatted YYYY-MM-DD")
	}
	if t.After(s.appCtx.Now()) {
		return nil, svcErr.InvalidArgument("dateOfBirth must be in the past")
	}
	return &t, nil
}

// apply copies validated fields onto a new profile.
func apply(p *db.Profile, fields map[string]any) {
	str := func(col string, dst *string) {
		if v, ok := fields[col].(string); ok {
			*dst = v
		}
	}
	str("first_name", &p.FirstName)
	str("last_name", &p.LastName)
	str("gender", &p.Gender)
	str("nationality", &p.Nationality)
	str("city", &p.City)
	str("country_of_residence", &p.CountryOfResidence)
	str("education", &p.Education)
	str("occupation", &p.Occupation)
	str("religiosity_level", &p.ReligiosityLevel)
	str("religion", &p.Religion)
	str("marital_status", &p.MaritalStatus)
	str("marriage_type", &p.MarriageType)
	str("polygamy_acceptance", &p.PolygamyAcceptance)
	str("compatibility_test", &p.CompatibilityTest)
	str("about", &p.About)
	str("guardian_name", &p.GuardianName)
	str("guardian_contact", &p.GuardianContact)
	str("photo_url", &p.PhotoURL)

	if v, ok := fields["date_of_birth"].(*time.Time); ok {
		p.DateOfBirth = v
	}
	if v, ok := fields["height"].(int); ok {
		p.Height = &v
	}
}

func (s *Service) view(p *db.Profile) *View {
	v := &View{
		ID:                 p.ID,
		UserID:             p.UserID,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Gender:             p.Gender,
		Nationality:        p.Nationality,
		City:               p.City,
		CountryOfResidence: p.CountryOfResidence,
		Height:             p.Height,
		Education:          p.Education,
		Occupation:         p.Occupation,
		ReligiosityLevel:   p.ReligiosityLevel,
		Religion:           p.Religion,
		MaritalStatus:      p.MaritalStatus,
		MarriageType:       p.MarriageType,
		PolygamyAcceptance: p.PolygamyAcceptance,
		CompatibilityTest:  p.CompatibilityTest,
		About:              p.About,
		GuardianName:       p.GuardianName,
		GuardianContact:    p.GuardianContact,
		PhotoURL:           p.PhotoURL,
		IsVerified:         p.IsVerified,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if age, ok := agerange.Age(p.DateOfBirth, s.appCtx.Now()); ok {
		v.Age = &age
		v.DateOfBirth = p.DateOfBirth.UTC().Format(dateLayout)
	}
	return v
}
