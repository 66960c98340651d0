package schedule_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dealerpay/schedule-engine/schedule"
)

func obligation(amount, paid string, due string) schedule.Obligation {
	a := dec(amount)
	p := dec(paid)
	return schedule.Obligation{
		ID:        "monthly_1",
		Kind:      schedule.KindMonthly,
		Sequence:  1,
		Amount:    a,
		Paid:      p,
		Remaining: a.Sub(p),
		DueDate:   schedule.MustParseDate(due),
	}
}

func TestStatusOf_PaidWinsRegardlessOfDueDate(t *testing.T) {
	// GIVEN: A fully-paid obligation due years in the past
	// WHEN: Deriving status
	// THEN: paid, never overdue

	ob := obligation("400", "400", "2020-01-01")
	got := schedule.StatusOf(ob, schedule.MustParseDate("2025-06-15"))
	assert.Equal(t, schedule.StatusPaid, got)
}

func TestStatusOf_PartialBeatsOverdue(t *testing.T) {
	// Decision order: partial is checked before overdue, so a
	// partially-paid obligation past due still reads partial.
	ob := obligation("400", "150", "2025-06-01")
	got := schedule.StatusOf(ob, schedule.MustParseDate("2025-06-15"))
	assert.Equal(t, schedule.StatusPartial, got)
}

func TestStatusOf_ScenarioC_Overdue(t *testing.T) {
	// GIVEN: Today 2025-06-15, obligation due 2025-06-10, nothing paid
	// THEN: overdue, five days behind

	ob := obligation("400", "0", "2025-06-10")
	today := schedule.MustParseDate("2025-06-15")

	assert.Equal(t, schedule.StatusOverdue, schedule.StatusOf(ob, today))
	assert.Equal(t, 5, schedule.DaysBetween(ob.DueDate, today))
}

func TestStatusOf_DueSoonWindow(t *testing.T) {
	today := schedule.MustParseDate("2025-06-15")

	cases := []struct {
		due  string
		want schedule.Status
	}{
		{"2025-06-15", schedule.StatusDueSoon}, // due today
		{"2025-06-22", schedule.StatusDueSoon}, // exactly 7 days out
		{"2025-06-23", schedule.StatusPending}, // 8 days out
		{"2025-06-14", schedule.StatusOverdue}, // yesterday
	}

	for _, tc := range cases {
		ob := obligation("400", "0", tc.due)
		assert.Equal(t, tc.want, schedule.StatusOf(ob, today), "due %s", tc.due)
	}
}

func TestStatusOf_OverpaidStillPaid(t *testing.T) {
	ob := obligation("400", "450", "2025-06-01")
	got := schedule.StatusOf(ob, schedule.MustParseDate("2025-06-15"))
	assert.Equal(t, schedule.StatusPaid, got)
}

func TestRefresh_AgesWithoutWrites(t *testing.T) {
	// The same schedule reads differently as the calendar advances; no
	// mutation beyond the derived status field.
	obs := []schedule.Obligation{obligation("400", "0", "2025-06-10")}

	schedule.Refresh(obs, schedule.MustParseDate("2025-05-01"))
	assert.Equal(t, schedule.StatusPending, obs[0].Status)

	schedule.Refresh(obs, schedule.MustParseDate("2025-06-05"))
	assert.Equal(t, schedule.StatusDueSoon, obs[0].Status)

	schedule.Refresh(obs, schedule.MustParseDate("2025-06-11"))
	assert.Equal(t, schedule.StatusOverdue, obs[0].Status)
}

func TestClampedRemaining(t *testing.T) {
	ob := obligation("400", "450", "2025-06-01")
	assert.True(t, ob.Remaining.IsNegative(), "raw remaining keeps the overshoot")
	assert.True(t, schedule.ClampedRemaining(ob).Equal(decimal.Zero))

	ob = obligation("400", "150", "2025-06-01")
	assert.True(t, schedule.ClampedRemaining(ob).Equal(dec("250")))
}
