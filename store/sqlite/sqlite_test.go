package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerpay/schedule-engine/schedule"
	"github.com/dealerpay/schedule-engine/store"
	"github.com/dealerpay/schedule-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testClient(id string) store.Client {
	terms := schedule.LoanTerms{
		TotalBalance:     dec("4800"),
		MonthlyPayment:   dec("400"),
		NumberOfPayments: 12,
		PaymentStartDate: schedule.MustParseDate("2025-01-15"),
		DownPayment:      dec("1000"),
	}
	return store.Client{
		ID:       id,
		Name:     "Maria Lopez",
		Phone:    "555-0134",
		Vehicle:  "2014 Honda Civic",
		Terms:    terms,
		Schedule: schedule.Generate(terms),
		Counters: schedule.RecomputeCounters(schedule.Generate(terms)),
	}
}

func TestClientRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	saved := testClient("client-1")
	require.NoError(t, st.SaveClient(ctx, saved))

	got, err := st.GetClient(ctx, "client-1")
	require.NoError(t, err)

	assert.Equal(t, "Maria Lopez", got.Name)
	assert.Equal(t, "2014 Honda Civic", got.Vehicle)
	assert.True(t, got.Terms.MonthlyPayment.Equal(dec("400")))
	assert.Equal(t, "2025-01-15", got.Terms.PaymentStartDate.String())
	require.Len(t, got.Schedule, 13)
	assert.Equal(t, "monthly_1", got.Schedule[0].ID)
	assert.True(t, got.Schedule[0].Amount.Equal(dec("400")))
	assert.True(t, got.Counters.RemainingBalance.Equal(dec("4800")))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestClientRoundTrip_AppliedAmountsSurvive(t *testing.T) {
	// The attributed-amounts map rides through the schedule JSON.
	st := newTestStore(t)
	ctx := context.Background()

	c := testClient("client-1")
	schedule.Apply(c.Schedule, schedule.PaymentRecord{
		ID: "pay-1", ClientID: "client-1", Amount: dec("150"),
		Date: schedule.MustParseDate("2025-01-20"), Type: schedule.PaymentMonthly,
		AppliedTo: "monthly_1",
	}, schedule.MustParseDate("2025-01-20"))
	require.NoError(t, st.SaveClient(ctx, c))

	got, err := st.GetClient(ctx, "client-1")
	require.NoError(t, err)

	first := got.Schedule[0]
	assert.True(t, first.Paid.Equal(dec("150")))
	assert.Equal(t, []string{"pay-1"}, first.Payments)
	assert.True(t, first.Applied["pay-1"].Equal(dec("150")))
}

func TestGetClient_NotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetClient(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrClientNotFound)
	assert.True(t, store.IsNotFound(err))
}

func TestSaveClient_Upsert(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	c := testClient("client-1")
	require.NoError(t, st.SaveClient(ctx, c))

	c.Name = "Maria L. Gonzalez"
	require.NoError(t, st.SaveClient(ctx, c))

	got, err := st.GetClient(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "Maria L. Gonzalez", got.Name)

	clients, err := st.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 1)
}

func TestUpdateClient_ReadModifyWrite(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveClient(ctx, testClient("client-1")))

	updated, err := st.UpdateClient(ctx, "client-1", func(c *store.Client) error {
		schedule.Apply(c.Schedule, schedule.PaymentRecord{
			ID: "pay-1", Amount: dec("400"), AppliedTo: "monthly_1",
			Date: schedule.MustParseDate("2025-01-15"), Type: schedule.PaymentMonthly,
		}, schedule.MustParseDate("2025-01-15"))
		c.Counters = schedule.RecomputeCounters(c.Schedule)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.Counters.RemainingBalance.Equal(dec("4400")))

	got, err := st.GetClient(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, got.Schedule[0].Paid.Equal(dec("400")), "mutation persisted")
}

func TestUpdateClient_CallbackErrorAbortsWrite(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveClient(ctx, testClient("client-1")))

	boom := errors.New("boom")
	_, err := st.UpdateClient(ctx, "client-1", func(c *store.Client) error {
		c.Name = "should not stick"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := st.GetClient(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "Maria Lopez", got.Name)
}

func TestDeleteClient(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveClient(ctx, testClient("client-1")))

	require.NoError(t, st.DeleteClient(ctx, "client-1"))
	assert.ErrorIs(t, st.DeleteClient(ctx, "client-1"), store.ErrClientNotFound)
}

func TestPaymentRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p := schedule.PaymentRecord{
		ID:        "pay-1",
		ClientID:  "client-1",
		Amount:    dec("150.50"),
		Date:      schedule.MustParseDate("2025-06-01"),
		Method:    "cash",
		Type:      schedule.PaymentMonthly,
		AppliedTo: "monthly_3",
		Notes:     "partial, rest on Friday",
	}
	require.NoError(t, st.SavePayment(ctx, p))

	got, err := st.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(dec("150.50")))
	assert.Equal(t, "2025-06-01", got.Date.String())
	assert.Equal(t, "monthly_3", got.AppliedTo)
	assert.Equal(t, "partial, rest on Friday", got.Notes)
}

func TestListPayments_NewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i, date := range []string{"2025-06-01", "2025-06-15", "2025-05-01"} {
		require.NoError(t, st.SavePayment(ctx, schedule.PaymentRecord{
			ID:       string(rune('a' + i)),
			ClientID: "client-1",
			Amount:   dec("100"),
			Date:     schedule.MustParseDate(date),
			Type:     schedule.PaymentMonthly,
		}))
	}
	require.NoError(t, st.SavePayment(ctx, schedule.PaymentRecord{
		ID: "other", ClientID: "client-2", Amount: dec("100"),
		Date: schedule.MustParseDate("2025-06-20"), Type: schedule.PaymentOther,
	}))

	got, err := st.ListPayments(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2025-06-15", got[0].Date.String())
	assert.Equal(t, "2025-06-01", got[1].Date.String())
	assert.Equal(t, "2025-05-01", got[2].Date.String())
}

func TestDeletePayment(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SavePayment(ctx, schedule.PaymentRecord{
		ID: "pay-1", ClientID: "client-1", Amount: dec("100"),
		Date: schedule.MustParseDate("2025-06-01"), Type: schedule.PaymentMonthly,
	}))

	require.NoError(t, st.DeletePayment(ctx, "pay-1"))
	assert.ErrorIs(t, st.DeletePayment(ctx, "pay-1"), store.ErrPaymentNotFound)
	_, err := st.GetPayment(ctx, "pay-1")
	assert.ErrorIs(t, err, store.ErrPaymentNotFound)
}
