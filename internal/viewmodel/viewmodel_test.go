package viewmodel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerdesk/internal/calendar"
	"brokerdesk/internal/domain"
)

var now = time.Date(2024, time.December, 15, 10, 0, 0, 0, time.UTC)

func TestPageTitle(t *testing.T) {
	assert.Equal(t, "Clients", PageTitle("clients"))
	assert.Equal(t, "Statistics", PageTitle("stats"))
	assert.Equal(t, DefaultPageTitle, PageTitle("nope"))
}

func TestSessionDefaults(t *testing.T) {
	st, err := NewStore(2)
	require.NoError(t, err)
	snap := st.Create("adv-1", now).Snapshot()
	assert.Equal(t, "home", snap.ActiveItem)
	assert.Equal(t, "Home", snap.PageTitle)
	assert.True(t, snap.SidebarOpen)
	assert.Equal(t, calendar.YearMonth{Year: 2024, Month: time.December}, snap.Calendar.DisplayedMonth)
	assert.Nil(t, snap.Calendar.SelectedDate)
}

func TestSessionCalendarActions(t *testing.T) {
	st, err := NewStore(0)
	require.NoError(t, err)
	sess := st.Create("adv-1", now)

	snap, err := sess.Apply(CalendarAction{Action: ActionNextMonth}, now)
	require.NoError(t, err)
	assert.Equal(t, calendar.YearMonth{Year: 2025, Month: time.January}, snap.Calendar.DisplayedMonth)

	snap, err = sess.Apply(CalendarAction{Action: ActionSelectDay, Day: 31}, now)
	require.NoError(t, err)
	assert.True(t, snap.Calendar.DialogOpen)

	snap, err = sess.Apply(CalendarAction{Action: ActionCloseDialog}, now)
	require.NoError(t, err)
	assert.False(t, snap.Calendar.DialogOpen)
	require.NotNil(t, snap.Calendar.SelectedDate)
	assert.Equal(t, 31, snap.Calendar.SelectedDate.Day)

	_, err = sess.Apply(CalendarAction{Action: ActionJumpToMonth, Year: 2024, Month: 13}, now)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = sess.Apply(CalendarAction{Action: "sideways"}, now)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	snap, err = sess.Apply(CalendarAction{Action: ActionJumpToDate, Date: "2023-02-11T08:00:00Z"}, now)
	require.NoError(t, err)
	assert.Equal(t, calendar.YearMonth{Year: 2023, Month: time.February}, snap.Calendar.DisplayedMonth)
}

func TestSessionNavigation(t *testing.T) {
	st, err := NewStore(0)
	require.NoError(t, err)
	sess := st.Create("adv-1", now)
	assert.Equal(t, "Properties", sess.Navigate("properties", now).PageTitle)
	assert.False(t, sess.ToggleSidebar(now).SidebarOpen)
	assert.True(t, sess.SetSidebar(true, now).SidebarOpen)
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	st, err := NewStore(2)
	require.NoError(t, err)
	a := st.Create("adv", now)
	b := st.Create("adv", now)
	_, err = st.Get(a.ID(), "adv")
	require.NoError(t, err)
	st.Create("adv", now)

	_, err = st.Get(b.ID(), "adv")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.Get(a.ID(), "adv")
	assert.NoError(t, err)
	assert.Equal(t, 2, st.Len())
}

func TestStoreScopesByAdvisor(t *testing.T) {
	st, err := NewStore(4)
	require.NoError(t, err)
	sess := st.Create("adv-1", now)
	_, err = st.Get(sess.ID(), "adv-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, st.Delete(sess.ID(), "adv-2"), ErrSessionNotFound)
	require.NoError(t, st.Delete(sess.ID(), "adv-1"))
	assert.Equal(t, 0, st.Len())
}

func TestSessionConcurrentMutations(t *testing.T) {
	st, err := NewStore(1)
	require.NoError(t, err)
	sess := st.Create("adv", now)
	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sess.Apply(CalendarAction{Action: ActionNextMonth}, now)
		}()
	}
	wg.Wait()
	assert.Equal(t, calendar.YearMonth{Year: 2026, Month: time.December}, sess.Snapshot().Calendar.DisplayedMonth)
}
