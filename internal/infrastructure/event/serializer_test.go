package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_Register(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("TestEvent", &testEvent{})

	assert.True(t, serializer.IsRegistered("TestEvent"))
	assert.False(t, serializer.IsRegistered("UnknownEvent"))
}

func TestEventSerializer_RoundTrip(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("TestEvent", &testEvent{})
	original := newTestEvent(uuid.New(), uuid.New())

	payload, err := serializer.Serialize(original)
	require.NoError(t, err)

	decoded, err := serializer.Deserialize("TestEvent", payload)
	require.NoError(t, err)

	got, ok := decoded.(*testEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), got.EventID())
	assert.Equal(t, original.AccountID(), got.AccountID())
	assert.Equal(t, original.AggregateID(), got.AggregateID())
	assert.Equal(t, "hello", got.Note)
}

func TestEventSerializer_Deserialize_Errors(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("TestEvent", &testEvent{})

	t.Run("unknown type", func(t *testing.T) {
		_, err := serializer.Deserialize("Nope", []byte(`{}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown event type")
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := serializer.Deserialize("TestEvent", []byte(`{not json`))
		require.Error(t, err)
	})
}

func TestRegisterLedgerEvents(t *testing.T) {
	serializer := NewLedgerSerializer()

	assert.Equal(t, []string{
		"BillAssembled",
		"BillDeleted",
		"BillPaymentStatusChanged",
		"BillReassembled",
		"LeaseCreated",
		"LeaseDeleted",
		"LeaseTerminated",
		"MeterReadingDeleted",
		"MeterReadingRecorded",
		"MeterReadingRevised",
		"PaymentRecorded",
		"PaymentRemoved",
		"PaymentRevised",
	}, serializer.RegisteredTypes())
}

func TestEventSerializer_DecodeLeaseCreated(t *testing.T) {
	serializer := NewLedgerSerializer()
	lease, err := leasing.NewLease(uuid.New(), uuid.New(), uuid.New(), uuid.New(), 7, leasing.LeaseTerms{
		LeaseStartDate:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		StartedMeterReading: decimal.NewFromInt(120),
	})
	require.NoError(t, err)

	event := leasing.NewLeaseCreatedEvent(lease)
	payload, err := serializer.Serialize(event)
	require.NoError(t, err)

	decoded, err := serializer.Decode(shared.NewOutboxEntry(event, payload))
	require.NoError(t, err)

	created, ok := decoded.(*leasing.LeaseCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, "LSE-2025-0007", created.FullLeaseNo)
	assert.Equal(t, lease.UnitID, created.UnitID)
	assert.Equal(t, lease.AccountID, created.AccountID())
}
