package payment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/ilpstreamd/internal/congestion"
	"github.com/LeJamon/ilpstreamd/internal/ilp"
)

func testController() *congestion.Controller {
	return congestion.New(congestion.Config{
		InitialMaxInFlight:    1000,
		SlowStartGrowthFactor: 2.0,
		BackoffFactor:         0.5,
	})
}

func TestNextSequenceIsStrictlyMonotonic(t *testing.T) {
	s := New(ilp.Address("g.alice"), ilp.Address("g.bob"), "USD", 2, 100, testController())

	require.Equal(t, uint64(1), s.NextSequence())
	require.Equal(t, uint64(2), s.NextSequence())
	require.Equal(t, uint64(3), s.NextSequence())
}

func TestApplyPrepareAdvancesSentAndInFlight(t *testing.T) {
	s := New(ilp.Address("g.alice"), ilp.Address("g.bob"), "USD", 2, 100, testController())

	got := s.ApplyPrepare(30)
	require.Equal(t, uint64(30), got)

	r := s.Receipt()
	require.Equal(t, uint64(30), r.SentAmount)
	require.Equal(t, uint64(30), r.InFlightAmount)
}

func TestApplyPrepareClampsToRemainingSourceAmount(t *testing.T) {
	s := New(ilp.Address("g.alice"), ilp.Address("g.bob"), "USD", 2, 100, testController())

	s.ApplyPrepare(90)
	got := s.ApplyPrepare(90) // would overshoot 100
	require.Equal(t, uint64(10), got)

	r := s.Receipt()
	require.Equal(t, uint64(100), r.SentAmount)
}

func TestApplyFulfillReleasesInFlightAndRecordsDelivery(t *testing.T) {
	s := New(ilp.Address("g.alice"), ilp.Address("g.bob"), "USD", 2, 100, testController())

	s.ApplyPrepare(40)
	s.ApplyFulfill(40, 38)

	r := s.Receipt()
	require.Equal(t, uint64(40), r.SentAmount)
	require.Equal(t, uint64(0), r.InFlightAmount)
	require.Equal(t, uint64(38), r.DeliveredAmount)
}

func TestApplyRejectSubtractsSentAndInFlightBack(t *testing.T) {
	s := New(ilp.Address("g.alice"), ilp.Address("g.bob"), "USD", 2, 100, testController())

	s.ApplyPrepare(40)
	s.ApplyReject(40, ilp.CodeBadRequest, 0)

	r := s.Receipt()
	require.Equal(t, uint64(0), r.SentAmount)
	require.Equal(t, uint64(0), r.InFlightAmount)
}

func TestIsCompleteReflectsFulfilledSourceAmount(t *testing.T) {
	s := New(ilp.Address("g.alice"), ilp.Address("g.bob"), "USD", 2, 100, testController())
	require.False(t, s.IsComplete())

	s.ApplyPrepare(100)
	require.False(t, s.IsComplete())

	s.ApplyFulfill(100, 100)
	require.True(t, s.IsComplete())
}

func TestDestinationAssetSetOnlyOnce(t *testing.T) {
	s := New(ilp.Address("g.alice"), ilp.Address("g.bob"), "USD", 2, 100, testController())

	s.SetDestinationAsset("EUR", 4)
	s.SetDestinationAsset("GBP", 9)

	r := s.Receipt()
	require.Equal(t, "EUR", r.DestinationAssetCode)
	require.Equal(t, uint8(4), r.DestinationAssetScale)
}

func TestShouldSendSourceAccountClearsPermanently(t *testing.T) {
	s := New(ilp.Address("g.alice"), ilp.Address("g.bob"), "USD", 2, 100, testController())

	require.True(t, s.Snapshot().ShouldSendSourceAccount)
	s.ClearShouldSendSourceAccount()
	require.False(t, s.Snapshot().ShouldSendSourceAccount)
}

func TestApplyPrepareNeverExceedsSourceAmountAcrossManyCalls(t *testing.T) {
	s := New(ilp.Address("g.alice"), ilp.Address("g.bob"), "USD", 2, 100, testController())

	var total uint64
	for i := 0; i < 20; i++ {
		total += s.ApplyPrepare(25)
	}
	require.LessOrEqual(t, total, uint64(100))
	require.Equal(t, uint64(100), s.Receipt().SentAmount)
}
