package app

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/aistack/internal/adapters/flock"
	"github.com/felixgeelhaar/aistack/internal/domain/config"
	"github.com/felixgeelhaar/aistack/internal/domain/ledger"
)

// explain attaches an error code and a next step to the failures an
// operator can act on. Other errors pass through unchanged.
func (i *Installer) explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, flock.ErrLocked):
		return config.NewUserError(config.ErrCodeLocked, "another aistack run is in progress").
			WithContext(i.cfg.LockPath()).
			WithSuggestion("Wait for the other run to finish, then try again").
			WithUnderlying(err)
	case errors.Is(err, ledger.ErrLedgerCorrupt):
		return config.NewUserError(config.ErrCodeLedgerCorrupt, "the install ledger cannot be read").
			WithContext(i.cfg.LedgerPath()).
			WithSuggestion("Run 'aistack reset' to discard it; installed software stays in place").
			WithUnderlying(err)
	case errors.Is(err, ErrRunAborted):
		return config.NewUserError(config.ErrCodeRunAborted, "installation stopped before completing").
			WithSuggestion(fmt.Sprintf("Command output is in %s. Fix the failure and run aistack again; completed steps are skipped", i.cfg.LogPath())).
			WithUnderlying(err)
	}
	return err
}
