package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vsinha/bom/pkg/infrastructure/logger"
)

type recordingHandler struct {
	seen []Event
	err  error
}

func (h *recordingHandler) Handle(event Event) error {
	h.seen = append(h.seen, event)
	return h.err
}

func (h *recordingHandler) CanHandle(string) bool { return true }

func TestInMemoryEventStore_VersionsPerStream(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	created := NewFormulaCreatedEvent(FormulaChanged{HeaderID: "H1", ProductID: "A", Version: "1.0"})
	updated := NewFormulaUpdatedEvent(FormulaChanged{HeaderID: "H1", ProductID: "A", Version: "1.1"})
	other := NewProductCreatedEvent(ProductChanged{ProductID: "A", Code: "P-A"})

	require.NoError(t, store.AppendEvent(created.StreamID(), created))
	require.NoError(t, store.AppendEvent(other.StreamID(), other))
	require.NoError(t, store.AppendEvent(updated.StreamID(), updated))

	stream, err := store.ReadEvents(FormulaStream("H1"), 0)
	require.NoError(t, err)
	require.Len(t, stream, 2)
	assert.Equal(t, FormulaCreatedEvent, stream[0].Type())
	assert.Equal(t, 1, stream[0].Version())
	assert.Equal(t, 2, stream[1].Version())

	tail, err := store.ReadEvents(FormulaStream("H1"), 2)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, FormulaUpdatedEvent, tail[0].Type())

	all, err := store.ReadAllEvents(1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ProductCreatedEvent, all[0].Type())

	none, err := store.ReadEvents("missing", 1)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInMemoryEventStore_NotifiesSubscribers(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	store := NewInMemoryEventStore(&logger.Logger{SugaredLogger: zap.New(core).Sugar()})

	formulas := &recordingHandler{}
	failing := &recordingHandler{err: errors.New("sink unavailable")}
	require.NoError(t, store.Subscribe([]string{FormulaDeletedEvent}, formulas))
	require.NoError(t, store.Subscribe(AllEventTypes, failing))

	deleted := NewFormulaDeletedEvent(FormulaDeleted{HeaderID: "H1", ProductID: "A"})
	require.NoError(t, store.AppendEvent(deleted.StreamID(), deleted))

	unit := NewUnitCreatedEvent(UnitChanged{UnitID: "kg", Title: "kilogram"})
	require.NoError(t, store.AppendEvent(unit.StreamID(), unit))

	assert.Len(t, formulas.seen, 1)
	assert.Len(t, failing.seen, 2)
	assert.Equal(t, 2, logs.FilterMessage("audit handler failed").Len())

	require.NoError(t, store.Unsubscribe(formulas))
	again := NewFormulaDeletedEvent(FormulaDeleted{HeaderID: "H2", ProductID: "B"})
	require.NoError(t, store.AppendEvent(again.StreamID(), again))
	assert.Len(t, formulas.seen, 1)
}

func TestLoggingHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := NewLoggingHandler(&logger.Logger{SugaredLogger: zap.New(core).Sugar()})

	event := NewProductDeletedEvent(ProductChanged{ProductID: "A", Code: "P-A"})
	require.NoError(t, handler.Handle(event))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, ProductDeletedEvent, entries[0].ContextMap()["event"])
	assert.Equal(t, "product-A", entries[0].ContextMap()["stream"])
	assert.Equal(t, "product", entries[0].ContextMap()["aggregate"])
	assert.Equal(t, "A", entries[0].ContextMap()["id"])
}

func TestInMemoryEventStore_RejectsForeignStream(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	created := NewFormulaCreatedEvent(FormulaChanged{HeaderID: "A", ProductID: "A"})
	assert.Equal(t, AggregateFormula, created.Aggregate())
	assert.Equal(t, "formula-A", created.StreamID())

	require.Error(t, store.AppendEvent(ProductStream("A"), created))
	require.Error(t, store.AppendEvent("", NewUnitCreatedEvent(UnitChanged{Title: "box"})))

	require.NoError(t, store.AppendEvent(FormulaStream("A"), created))
	products, err := store.ReadEvents(ProductStream("A"), 1)
	require.NoError(t, err)
	assert.Empty(t, products)

	stored, err := store.ReadEvents(FormulaStream("A"), 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, AggregateFormula, stored[0].Aggregate())
	assert.Equal(t, "A", stored[0].AggregateID())
}
