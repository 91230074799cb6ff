package auth

import (
	log "github.com/sirupsen/logrus"

	"github.com/data-lunch/dlunch/storage/model"
)

// InitializeFlags creates the global flags that do not exist yet
func (ac *AuthContext) InitializeFlags() error {
	v, err := ac.stores.Flags.Get(model.FlagNoMoreOrders)
	if err != nil || v != nil {
		return err
	}
	log.WithField("flag", model.FlagNoMoreOrders).Debug("initializing flag")
	return ac.stores.Flags.Set(model.FlagNoMoreOrders, false)
}

// NoMoreOrders returns true if orders are stopped
func (ac *AuthContext) NoMoreOrders() (bool, error) {
	return ac.stores.Flags.GetOr(model.FlagNoMoreOrders, false)
}

// SetNoMoreOrders stops or resumes orders for all sessions
func (ac *AuthContext) SetNoMoreOrders(value bool) error {
	log.WithField("no_more_orders", value).Info("setting order gate")
	return ac.stores.Flags.Set(model.FlagNoMoreOrders, value)
}

// ClearGuestOverrides deletes the guest override flags of all users and
// returns how many were deleted
func (ac *AuthContext) ClearGuestOverrides() (int64, error) {
	return ac.stores.Flags.DeleteBySuffix(model.FlagGuestOverrideSuffix)
}

// CanPlaceOrder returns true if user can place or change an order. Orders
// need an authenticated user (if auth is active) and must not be stopped.
func (ac *AuthContext) CanPlaceOrder(user *AuthUser) (bool, error) {
	if ac.IsAuthActive() && (user == nil || user.Name() == "") {
		return false, nil
	}
	stopped, err := ac.NoMoreOrders()
	if err != nil {
		return false, err
	}
	return !stopped, nil
}

// ListFlags returns all flags
func (ac *AuthContext) ListFlags() ([]model.Flag, error) {
	return ac.stores.Flags.List()
}
