package board

import (
	"errors"
	"testing"

	"github.com/perron-board/perron/internal/classify"
	"github.com/perron-board/perron/internal/models"
	"github.com/perron-board/perron/internal/testutil"
)

var testStation = models.Station{ID: "8503000", Name: "Zürich HB"}

func TestBoard_BeginFinish(t *testing.T) {
	b := New()

	seq := b.begin(testStation)
	e, ok := b.Get(testStation.ID)
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, e.State, Loading)

	rows := []Row{NewRow(models.Departure{Category: "T", Number: "2"})}
	testutil.AssertTrue(t, b.finish(testStation.ID, seq, rows, nil))

	e, _ = b.Get(testStation.ID)
	testutil.AssertEqual(t, e.State, Ready)
	testutil.AssertLen(t, e.Rows, 1)
	testutil.AssertEqual(t, e.Rows[0].Class.Mode, classify.ModeTram)
	testutil.AssertEqual(t, e.Rows[0].Class.Color, "#ed1c24")
	testutil.AssertFalse(t, e.UpdatedAt.IsZero())
}

func TestBoard_EmptyIsReadyNotFailed(t *testing.T) {
	b := New()
	seq := b.begin(testStation)
	b.finish(testStation.ID, seq, []Row{}, nil)

	e, _ := b.Get(testStation.ID)
	testutil.AssertEqual(t, e.State, Ready)
	testutil.AssertTrue(t, e.Empty())
}

func TestBoard_FailureClearsRows(t *testing.T) {
	b := New()
	seq := b.begin(testStation)
	b.finish(testStation.ID, seq, []Row{NewRow(models.Departure{})}, nil)

	seq = b.begin(testStation)
	e, _ := b.Get(testStation.ID)
	testutil.AssertEqual(t, e.State, Loading)
	testutil.AssertLen(t, e.Rows, 1)

	b.finish(testStation.ID, seq, nil, errors.New("boom"))
	e, _ = b.Get(testStation.ID)
	testutil.AssertEqual(t, e.State, Failed)
	testutil.AssertLen(t, e.Rows, 0)
	testutil.AssertFalse(t, e.Empty())
}

func TestBoard_OutOfOrderDropped(t *testing.T) {
	b := New()
	first := b.begin(testStation)
	second := b.begin(testStation)

	testutil.AssertTrue(t, b.finish(testStation.ID, second, []Row{}, nil))
	testutil.AssertFalse(t, b.finish(testStation.ID, first, nil, errors.New("late")))

	e, _ := b.Get(testStation.ID)
	testutil.AssertEqual(t, e.State, Ready)
}

func TestBoard_InOrderBothApplied(t *testing.T) {
	b := New()
	first := b.begin(testStation)
	second := b.begin(testStation)

	testutil.AssertTrue(t, b.finish(testStation.ID, first, nil, errors.New("early")))
	testutil.AssertTrue(t, b.finish(testStation.ID, second, []Row{}, nil))

	e, _ := b.Get(testStation.ID)
	testutil.AssertEqual(t, e.State, Ready)
}

func TestBoard_ForgetDropsInFlight(t *testing.T) {
	b := New()
	seq := b.begin(testStation)
	b.Forget(testStation.ID)

	testutil.AssertFalse(t, b.finish(testStation.ID, seq, []Row{}, nil))
	_, ok := b.Get(testStation.ID)
	testutil.AssertFalse(t, ok)

	// a fetch from before the station was re-added is still dropped
	fresh := b.begin(testStation)
	testutil.AssertFalse(t, b.finish(testStation.ID, seq, nil, errors.New("stale")))
	testutil.AssertTrue(t, b.finish(testStation.ID, fresh, []Row{}, nil))
}

func TestBoard_GetReturnsCopy(t *testing.T) {
	b := New()
	seq := b.begin(testStation)
	b.finish(testStation.ID, seq, []Row{NewRow(models.Departure{Destination: "Uster"})}, nil)

	e, _ := b.Get(testStation.ID)
	e.Rows[0].Destination = "mutated"

	again, _ := b.Get(testStation.ID)
	testutil.AssertEqual(t, again.Rows[0].Destination, "Uster")
}

func TestState_String(t *testing.T) {
	testutil.AssertEqual(t, Loading.String(), "loading")
	testutil.AssertEqual(t, Ready.String(), "ready")
	testutil.AssertEqual(t, Failed.String(), "error")
}
