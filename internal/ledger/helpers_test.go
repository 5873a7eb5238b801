package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func startSession(t *testing.T, api *stubAPI) (*Session, *alertLog) {
	t.Helper()

	alerts := &alertLog{}
	provisional := 0
	s := NewSession(api, Options{
		Now:    func() time.Time { return testNow },
		Alerts: alerts.add,
		NewID: func() model.ID {
			provisional++
			return model.ID(fmt.Sprintf("tmp-%d", provisional))
		},
	})
	require.NoError(t, s.Start(context.Background()))
	return s, alerts
}

func assertSameWindow(t *testing.T, want, got []model.Transaction) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "index %d: want %+v, got %+v", i, want[i], got[i])
	}
}

func assertSameBalances(t *testing.T, want, got model.Balances) {
	t.Helper()
	assert.True(t, want.Equal(got), "want %+v, got %+v", want, got)
}
