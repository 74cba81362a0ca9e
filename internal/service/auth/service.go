package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oggyb/mawaddah/internal/app"
	"github.com/oggyb/mawaddah/internal/db"
	svcErr "github.com/oggyb/mawaddah/internal/errors"
	"github.com/oggyb/mawaddah/internal/repository"
)

const (
	minPasswordLen      = 8
	maxMemberIDAttempts = 10
)

// ErrInvalidCredentials is returned for every failed login, whatever the cause.
var ErrInvalidCredentials = svcErr.Unauthenticated("invalid credentials")

// RegisterInput is the payload accepted by Register.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// UserView is the password-free projection of a user.
type UserView struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	MemberID string `json:"member_id"`
}

// Session is returned by Register and Login.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserView  `json:"user"`
}

// Service handles registration, login and token verification.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	jwt    *JWTManager
}

// NewAuthService wires the service from AppContext.
func NewAuthService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		jwt:    NewJWTManager(appCtx.Config.Auth.JWTSecret, appCtx.Config.Auth.TokenTTL),
	}
}

// Register creates a pending user with an empty profile stub and returns a
// session for it.
//
// Behavior:
//   - email is trimmed and lower-cased; duplicates are AlreadyExists.
//   - the member id comes from the Redis sequence (see nextMemberID).
//   - user and profile stub are written in one transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, svcErr.InvalidArgument("a valid email is required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, svcErr.InvalidArgument(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	switch role {
	case "", db.RoleMale, db.RoleFemale:
	default:
		return nil, svcErr.InvalidArgument("role must be male or female")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, svcErr.Internal("registration failed", err)
	}
	if existing != nil {
		return nil, svcErr.AlreadyExists("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.appCtx.Config.Auth.BcryptCost)
	if err != nil {
		return nil, svcErr.Internal("registration failed", err)
	}

	memberID, err := s.nextMemberID(ctx)
	if err != nil {
		s.appCtx.Logger.Error("member id allocation failed", "err", err)
		return nil, svcErr.Internal("registration failed", err)
	}

	user := db.User{
		Email:        email,
		PasswordHash: string(hash),
		MemberID:     memberID,
		Role:         role,
		Status:       db.StatusPending,
	}
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Create(ctx, &user); err != nil {
			return err
		}
		_, _, err := repository.NewProfileRepository(tx).CreateIfAbsent(ctx, &db.Profile{
			UserID:    user.ID,
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
		})
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, svcErr.AlreadyExists("email is already registered")
		}
		s.appCtx.Logger.Error("create user failed", "email", email, "err", err)
		return nil, svcErr.Internal("registration failed", err)
	}

	s.appCtx.Logger.Info("user registered", "user_id", user.ID, "member_id", user.MemberID)
	return s.session(&user)
}

// Login verifies credentials and issues a token. Suspended accounts are
// refused.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, svcErr.Internal("login failed", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status == db.StatusSuspended {
		return nil, svcErr.Unauthenticated("account is suspended")
	}

	s.appCtx.Logger.Debug("user logged in", "user_id", user.ID)
	return s.session(user)
}

// ParseToken validates an access token for the HTTP middleware and the gRPC
// interceptor.
func (s *Service) ParseToken(raw string) (Identity, error) {
	id, err := s.jwt.Parse(raw)
	if err != nil {
		return Identity{}, svcErr.Unauthenticated("invalid access token")
	}
	return id, nil
}

func (s *Service) session(u *db.User) (*Session, error) {
	token, exp, err := s.jwt.Issue(u.ID, u.Role)
	if err != nil {
		return nil, svcErr.Internal("could not issue token", err)
	}
	return &Session{
		AccessToken: token,
		ExpiresAt:   exp,
		User:        ViewOf(u),
	}, nil
}

// ViewOf strips the password hash from u.
func ViewOf(u *db.User) UserView {
	return UserView{
		ID:       u.ID,
		Email:    u.Email,
		Role:     u.Role,
		Status:   u.Status,
		MemberID: u.MemberID,
	}
}

// nextMemberID allocates the next free MAW-###### id.
//
// The Redis sequence is seeded from the highest stored id the first time
// and bumped past any id found taken (e.g. rows inserted by the seeder).
// Without Redis it falls back to max+1 from the database.
func (s *Service) nextMemberID(ctx context.Context) (string, error) {
	floor, err := s.users.MaxMemberNumber(ctx)
	if err != nil {
		return "", err
	}

	rc := s.appCtx.RedisCache
	if rc == nil {
		return repository.FormatMemberID(floor + 1), nil
	}
	if _, err := rc.SeedMemberSeq(ctx, floor); err != nil {
		return "", err
	}

	for attempt := 0; attempt < maxMemberIDAttempts; attempt++ {
		n, err := rc.NextMemberNumber(ctx)
		if err != nil {
			return "", err
		}
		id := repository.FormatMemberID(n)

		taken, err := s.users.MemberIDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}

		s.appCtx.Logger.Warn("member id collision", "member_id", id, "attempt", attempt+1)
		if floor, err = s.users.MaxMemberNumber(ctx); err != nil {
			return "", err
		}
		if err := rc.RaiseMemberSeq(ctx, floor); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free member id after %d attempts", maxMemberIDAttempts)
}
