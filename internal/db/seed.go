package db

import (
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oggyb/mawaddah/internal/logger"
)

var (
	seedCities        = []string{"الرياض", "جدة", "الدمام", "مكة", "المدينة"}
	seedNationalities = []string{"سعودي", "مصري", "أردني", "سوري"}
	seedEducation     = []string{"ثانوي", "دبلوم", "بكالوريوس", "ماجستير", "دكتوراه"}
	seedOccupations   = []string{"طبيب", "مهندس", "معلم", "محاسب", "موظف حكومي", "أعمال حرة"}
	seedReligiosity   = []string{"متوسط", "ملتزم", "ملتزم جدا"}
	seedMarriageTypes = []string{"زواج تقليدي", "زواج بشروط خاصة"}
	seedPolygamy      = []string{"اقبل بالتعدد", "لا اقبل بالتعدد", "حسب الظروف"}

	// legacy spellings still present in production data
	seedMaleGenders   = []string{"male", "Male", "ذكر", "m", "malq"}
	seedFemaleGenders = []string{"female", "أنثى", "Female ", "f", "أنثي"}

	seedMaleStatuses   = []string{"أعزب", "مطلق", "أرمل", "مطلق - مع أولاد"}
	seedFemaleStatuses = []string{"عزباء", "مطلقة", "أرملة", "منفصل بدون طلاق", "أعزب"}
)

// SeedTestData resets the database and populates it with demo users and profiles.
//
// Behavior:
//  1. Clears existing data in `profiles` and `users` tables.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords; every 7th is pending.
//  3. Creates one profile per user aged 20-45, using mixed legacy gender and
//     marital-status spellings so the search normalizers have something to chew on.
//
// Compatible with MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	if err := db.Exec("DELETE FROM profiles").Error; err != nil {
		return fmt.Errorf("failed to clear profiles: %w", err)
	}
	if err := db.Exec("DELETE FROM users").Error; err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE profiles AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'profiles'")
		db.Exec("DELETE FROM sqlite_sequence WHERE name = 'users'")
	}

	logger.Info("seed: cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	today := time.Now().UTC()
	for i := 1; i <= 20; i++ {
		male := i <= 10

		role, genders, statuses := RoleMale, seedMaleGenders, seedMaleStatuses
		if !male {
			role, genders, statuses = RoleFemale, seedFemaleGenders, seedFemaleStatuses
		}

		status := StatusActive
		if i%7 == 0 {
			status = StatusPending
		}

		user := User{
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			MemberID:     fmt.Sprintf("MAW-%06d", i),
			Role:         role,
			Status:       status,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		age := 20 + r.Intn(26)
		dob := time.Date(today.Year()-age, time.Month(1+r.Intn(12)), 1+r.Intn(28), 0, 0, 0, 0, time.UTC)
		height := 150 + r.Intn(40)

		profile := Profile{
			UserID:             user.ID,
			FirstName:          fmt.Sprintf("عضو%d", i),
			LastName:           "تجريبي",
			Gender:             genders[r.Intn(len(genders))],
			DateOfBirth:        &dob,
			Nationality:        pick(r, seedNationalities),
			City:               pick(r, seedCities),
			CountryOfResidence: "السعودية",
			Height:             &height,
			Education:          pick(r, seedEducation),
			Occupation:         pick(r, seedOccupations),
			ReligiosityLevel:   pick(r, seedReligiosity),
			Religion:           "الإسلام",
			MaritalStatus:      pick(r, statuses),
			MarriageType:       pick(r, seedMarriageTypes),
			PolygamyAcceptance: pick(r, seedPolygamy),
			CompatibilityTest:  pick(r, []string{"نعم", "لا"}),
			About:              "ملف تجريبي لأغراض التطوير",
		}
		if i%3 == 0 {
			profile.PhotoURL = fmt.Sprintf("https://cdn.example.com/photos/%d.jpg", i)
		}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
	}
	logger.Info("seed: users and profiles created", "count", 20)

	return nil
}

func pick(r *rand.Rand, from []string) string {
	return from[r.Intn(len(from))]
}
