package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/domain/deal"
)

func newDealFixture() (*DealService, *fakeDealStore, *fakeBus) {
	deals := newFakeDealStore()
	bus := &fakeBus{}
	return NewDealService(deals, bus, testLogger()), deals, bus
}

func validDeal() *deal.Deal {
	return &deal.Deal{
		OrgID:       "org-1",
		ContactID:   "contact-1",
		Name:        "Acme expansion",
		AmountCents: 250000,
		Currency:    "USD",
	}
}

func TestCreateDeal_PublishesSignal(t *testing.T) {
	t.Parallel()

	svc, _, bus := newDealFixture()

	created, err := svc.CreateDeal(context.Background(), validDeal())
	require.NoError(t, err)
	assert.Equal(t, deal.StageProspect, created.Stage)

	sigs := bus.signals()
	require.Len(t, sigs, 1)
	assert.Equal(t, domain.SignalDealCreated, sigs[0].Type)
	assert.Equal(t, "250000", sigs[0].Fields["amount_cents"])
}

func TestCreateDeal_ValidationFailure(t *testing.T) {
	t.Parallel()

	svc, _, bus := newDealFixture()

	d := validDeal()
	d.Currency = "usdollar"
	_, err := svc.CreateDeal(context.Background(), d)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, bus.signals())
}

func TestUpdateDeal_StageChangePublishesFromTo(t *testing.T) {
	t.Parallel()

	svc, _, bus := newDealFixture()
	created, err := svc.CreateDeal(context.Background(), validDeal())
	require.NoError(t, err)
	bus.published = nil

	update := validDeal()
	update.Stage = deal.StageWon
	updated, err := svc.UpdateDeal(context.Background(), "org-1", created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, deal.StageWon, updated.Stage)

	sigs := bus.signals()
	require.Len(t, sigs, 1)
	assert.Equal(t, domain.SignalDealStageChanged, sigs[0].Type)
	assert.Equal(t, deal.StageProspect.String(), sigs[0].Fields["from"])
	assert.Equal(t, deal.StageWon.String(), sigs[0].Fields["to"])
	assert.Equal(t, "contact-1", sigs[0].Fields["contact_id"])
}

func TestUpdateDeal_NoStageChangeNoSignal(t *testing.T) {
	t.Parallel()

	svc, _, bus := newDealFixture()
	created, err := svc.CreateDeal(context.Background(), validDeal())
	require.NoError(t, err)
	bus.published = nil

	update := validDeal()
	update.AmountCents = 300000
	_, err = svc.UpdateDeal(context.Background(), "org-1", created.ID, update)
	require.NoError(t, err)
	assert.Empty(t, bus.signals())
}
