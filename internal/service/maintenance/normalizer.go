// Package maintenance holds offline jobs over stored data: rewriting
// profiles into canonical form and activating accounts.
package maintenance

import (
	"context"
	"time"

	"github.com/oggyb/mawaddah/internal/app"
	"github.com/oggyb/mawaddah/internal/db"
	"github.com/oggyb/mawaddah/internal/normalize"
	"github.com/oggyb/mawaddah/internal/repository"
)

const defaultBatchSize = 200

// earliest plausible birth date; anything before is treated as garbage
var minBirthDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Report summarizes a normalization run.
type Report struct {
	Scanned          int
	Updated          int
	GenderRewritten  int
	GenderCleared    int
	DobCleared       int
	MaritalRewritten int
	Unchanged        int
}

// Normalizer walks every profile and fixes legacy spellings.
type Normalizer struct {
	appCtx    *app.AppContext
	profiles  *repository.ProfileRepository
	DryRun    bool
	BatchSize int
}

func NewNormalizer(appCtx *app.AppContext) *Normalizer {
	return &Normalizer{
		appCtx:    appCtx,
		profiles:  repository.NewProfileRepository(appCtx.DB),
		BatchSize: defaultBatchSize,
	}
}

// Run rewrites, per profile:
//   - gender to male/female, or "" when it cannot be normalized
//   - date of birth to NULL when zero, before 1900 or in the future
//   - marital status to the spelling for the profile's own gender
//
// With DryRun nothing is written but the report is the same.
func (n *Normalizer) Run(ctx context.Context) (Report, error) {
	var rep Report
	now := n.appCtx.Now()
	log := n.appCtx.Logger.With("dry_run", n.DryRun)

	size := n.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}

	err := n.profiles.EachBatch(ctx, size, func(batch []db.Profile) error {
		for i := range batch {
			p := &batch[i]
			rep.Scanned++

			changes := Changes(p, now, &rep)
			if len(changes) == 0 {
				rep.Unchanged++
				continue
			}
			rep.Updated++
			log.Debug("profile normalized", "profile_id", p.ID, "changes", changes)

			if n.DryRun {
				continue
			}
			if err := n.profiles.UpdateByID(ctx, p.ID, changes); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("normalization aborted", "scanned", rep.Scanned, "err", err)
		return rep, err
	}

	log.Info("normalization finished",
		"scanned", rep.Scanned,
		"updated", rep.Updated,
		"unchanged", rep.Unchanged,
	)
	return rep, nil
}

// Changes returns the column updates p needs, counting them into rep.
func Changes(p *db.Profile, now time.Time, rep *Report) map[string]any {
	changes := map[string]any{}

	g, ok := normalize.ParseGender(p.Gender)
	switch {
	case ok && p.Gender != g.String():
		changes["gender"] = g.String()
		rep.GenderRewritten++
	case !ok && p.Gender != "":
		changes["gender"] = ""
		rep.GenderCleared++
	}

	if dob := p.DateOfBirth; dob != nil && (dob.IsZero() || dob.Before(minBirthDate) || dob.After(now)) {
		changes["date_of_birth"] = nil
		rep.DobCleared++
	}

	if ok && p.MaritalStatus != "" {
		if status := normalize.MaritalStatus(p.MaritalStatus, g); status != p.MaritalStatus {
			changes["marital_status"] = status
			rep.MaritalRewritten++
		}
	}
	return changes
}
