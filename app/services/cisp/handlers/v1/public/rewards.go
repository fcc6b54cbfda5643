package public

import (
	"context"
	"net/http"

	"github.com/cosmicspace/cisp/business/web/errs"
	"github.com/cosmicspace/cisp/foundation/web"
)

// ReferralStats returns the referral summary of an address.
func (h Handlers) ReferralStats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")

	// Make sure a code exists before the summary is read.
	if _, err := h.State.Referrals().Code(ctx, address); err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, h.State.Referrals().Stats(address), http.StatusOK)
}

// ApplyReferral records the connected wallet as referred by the owner of
// the code and returns the referrer's updated record.
func (h Handlers) ApplyReferral(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	user, err := h.State.ConnectedAddress()
	if err != nil {
		return errs.FromDomain(err)
	}

	var ac applyCode
	if err := decode(r, &ac); err != nil {
		return err
	}

	rec, err := h.State.Referrals().ApplyReferralCode(ctx, user, ac.Code)
	if err != nil {
		return errs.FromDomain(err)
	}

	h.Log.Infow("apply referral", "traceid", web.GetTraceID(ctx), "user", user, "code", ac.Code, "level", rec.Level)

	return web.Respond(ctx, w, rec, http.StatusOK)
}

// =============================================================================

// MiningStats returns the state of the mining simulator.
func (h Handlers) MiningStats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Mining().Stats(), http.StatusOK)
}

// StartMining starts mining for the connected wallet.
func (h Handlers) StartMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.State.Mining().Start(ctx); err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, h.State.Mining().Stats(), http.StatusOK)
}

// StopMining stops mining.
func (h Handlers) StopMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Mining().Stop()

	return web.Respond(ctx, w, h.State.Mining().Stats(), http.StatusOK)
}

// UpgradeMining buys the next mining power level with the connected wallet.
func (h Handlers) UpgradeMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	stats, err := h.State.Mining().Upgrade(ctx)
	if err != nil {
		return errs.FromDomain(err)
	}

	return web.Respond(ctx, w, stats, http.StatusOK)
}
