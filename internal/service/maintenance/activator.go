package maintenance

import (
	"context"

	"github.com/oggyb/mawaddah/internal/app"
	"github.com/oggyb/mawaddah/internal/db"
	"github.com/oggyb/mawaddah/internal/repository"
)

// ActivationReport summarizes an activation run. ByStatus is the account
// count per status after the run.
type ActivationReport struct {
	Matched   int64
	Activated int64
	ByStatus  map[string]int64
}

// Activator moves accounts to db.StatusActive so their profiles become
// searchable. By default only pending accounts are touched.
type Activator struct {
	appCtx *app.AppContext
	users  *repository.UserRepository

	DryRun           bool
	IncludeSuspended bool
	// Emails narrows the run to these accounts when non-empty.
	Emails []string
}

func NewActivator(appCtx *app.AppContext) *Activator {
	return &Activator{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

func (a *Activator) from() []string {
	from := []string{db.StatusPending}
	if a.IncludeSuspended {
		from = append(from, db.StatusSuspended)
	}
	return from
}

// Run activates the selected accounts. With DryRun it only counts them.
func (a *Activator) Run(ctx context.Context) (ActivationReport, error) {
	var rep ActivationReport
	log := a.appCtx.Logger.With("dry_run", a.DryRun, "include_suspended", a.IncludeSuspended)

	from := a.from()
	matched, err := a.users.CountStatus(ctx, from, a.Emails)
	if err != nil {
		log.Error("count accounts failed", "err", err)
		return rep, err
	}
	rep.Matched = matched

	if !a.DryRun && matched > 0 {
		if rep.Activated, err = a.users.SetStatus(ctx, db.StatusActive, from, a.Emails); err != nil {
			log.Error("activation aborted", "err", err)
			return rep, err
		}
	}

	if rep.ByStatus, err = a.users.CountByStatus(ctx); err != nil {
		log.Error("count by status failed", "err", err)
		return rep, err
	}

	log.Info("activation finished",
		"matched", rep.Matched,
		"activated", rep.Activated,
		"active", rep.ByStatus[db.StatusActive],
	)
	return rep, nil
}
