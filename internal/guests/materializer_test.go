package guests

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revelry-events/backend/internal/models"
)

var (
	buyerA = uuid.MustParse("aaaaaaaa-0000-0000-0000-0000000000aa")
	buyerB = uuid.MustParse("bbbbbbbb-0000-0000-0000-0000000000bb")
	order1 = uuid.MustParse("11111111-0000-0000-0000-00000000abcd")
)

func paidTicket(id string, buyer uuid.UUID, orderID *uuid.UUID, created time.Time) TicketRow {
	return TicketRow{
		TicketID:   uuid.MustParse(id),
		OrderID:    orderID,
		BuyerID:    buyer,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Username:   "ada",
		Email:      "ada@example.com",
		Phone:      "+15550001111",
		TypeLabel:  "General",
		PriceCents: 2500,
		Status:     models.TicketPaid,
		CreatedAt:  created,
	}
}

func TestMaterializeSingleTicket(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tk := paidTicket("99999999-0000-0000-0000-000000001234", buyerA, nil, created)

	rows := Materialize([]TicketRow{tk}, nil)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, tk.TicketID.String(), r.ID)
	assert.Equal(t, "ORD-1234", r.OrderNumber)
	assert.Equal(t, "Ada Lovelace", r.FullName)
	assert.Equal(t, "@ada", r.Handle)
	assert.Equal(t, "ada@example.com", r.Email)
	assert.Equal(t, int64(2500), r.AmountCents)
	assert.Equal(t, "General", r.TicketType)
	assert.Equal(t, models.GuestPendingArrival, r.Status)
	assert.Equal(t, 1, r.Quantity)
	assert.Equal(t, "2026-03-01T12:00:00Z", r.DateTime)
	assert.Equal(t, SourceTicket, r.Source)
	assert.False(t, r.CanRemove)
}

func TestMaterializeGroupsByOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := paidTicket("99999999-0000-0000-0000-000000000001", buyerA, &order1, base)
	t2 := paidTicket("99999999-0000-0000-0000-000000000002", buyerA, &order1, base.Add(time.Minute))
	t2.TypeLabel = "VIP"
	t2.PriceCents = 5000
	t3 := paidTicket("99999999-0000-0000-0000-000000000003", buyerA, &order1, base.Add(2*time.Minute))
	t3.TypeLabel = "General"

	rows := Materialize([]TicketRow{t1, t2, t3}, nil)
	require.Len(t, rows, 1)

	r := rows[0]
	// Anchored on the first ticket, numbered off the shared order.
	assert.Equal(t, t1.TicketID.String(), r.ID)
	assert.Equal(t, "ORD-ABCD", r.OrderNumber)
	assert.Equal(t, int64(10000), r.AmountCents)
	assert.Equal(t, 3, r.Quantity)
	assert.Equal(t, "Multiple", r.TicketType)
	assert.Equal(t, "2026-03-01T12:02:00Z", r.DateTime)
}

func TestMaterializeSameBuyerSeparateOrders(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	withOrder := paidTicket("99999999-0000-0000-0000-000000000001", buyerA, &order1, base)
	noOrder := paidTicket("99999999-0000-0000-0000-000000000002", buyerA, nil, base)

	rows := Materialize([]TicketRow{withOrder, noOrder}, nil)
	assert.Len(t, rows, 2)
}

func TestMaterializeAnyScannedChecksInGroup(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := paidTicket("99999999-0000-0000-0000-000000000001", buyerA, &order1, base)
	t2 := paidTicket("99999999-0000-0000-0000-000000000002", buyerA, &order1, base)
	t2.Status = models.TicketScanned

	rows := Materialize([]TicketRow{t1, t2}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, models.GuestCheckedIn, rows[0].Status)
}

func TestMaterializeTicketTypeLabels(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	blank := paidTicket("99999999-0000-0000-0000-000000000001", buyerA, nil, base)
	blank.TypeLabel = "   "
	rows := Materialize([]TicketRow{blank}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ticket", rows[0].TicketType)

	// Same label on every ticket keeps the label.
	t1 := paidTicket("99999999-0000-0000-0000-000000000002", buyerB, &order1, base)
	t2 := paidTicket("99999999-0000-0000-0000-000000000003", buyerB, &order1, base)
	rows = Materialize([]TicketRow{t1, t2}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "General", rows[0].TicketType)
}

func TestMaterializeBuyerNameFallbacks(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tk := paidTicket("99999999-0000-0000-0000-000000000001", buyerA, nil, base)
	tk.FirstName = ""
	rows := Materialize([]TicketRow{tk}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "ada", rows[0].FullName)

	tk.Username = ""
	rows = Materialize([]TicketRow{tk}, nil)
	assert.Equal(t, "ada@example.com", rows[0].FullName)

	tk.Email = ""
	rows = Materialize([]TicketRow{tk}, nil)
	assert.Equal(t, "Guest", rows[0].FullName)
}

func TestMaterializeUpdatedAtWinsOverCreatedAt(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tk := paidTicket("99999999-0000-0000-0000-000000000001", buyerA, nil, created)
	tk.UpdatedAt = created.Add(time.Hour)

	rows := Materialize([]TicketRow{tk}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-03-01T13:00:00Z", rows[0].DateTime)
}

func TestMaterializeManualGuests(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	g := models.EventGuest{
		ID:        uuid.MustParse("cccccccc-0000-0000-0000-00000000beef"),
		FullName:  "Grace Hopper",
		Email:     "grace@example.com",
		Phone:     "+15550002222",
		Status:    models.GuestCheckedIn,
		CreatedAt: created,
	}

	rows := Materialize(nil, []models.EventGuest{g})
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, g.ID.String(), r.ID)
	assert.Equal(t, "GST-BEEF", r.OrderNumber)
	assert.Equal(t, "Grace Hopper", r.FullName)
	assert.Equal(t, models.GuestCheckedIn, r.Status)
	assert.Equal(t, int64(0), r.AmountCents)
	assert.Equal(t, "Manual", r.TicketType)
	assert.Equal(t, 1, r.Quantity)
	assert.Equal(t, "2026-03-02T09:00:00Z", r.DateTime)
	assert.Equal(t, SourceManual, r.Source)
	assert.True(t, r.CanRemove)
}

func TestMaterializeManualNameFallbacks(t *testing.T) {
	g := models.EventGuest{
		ID:         uuid.MustParse("cccccccc-0000-0000-0000-000000000001"),
		LegacyName: "Old Import",
		Email:      "old@example.com",
	}
	rows := Materialize(nil, []models.EventGuest{g})
	require.Len(t, rows, 1)
	assert.Equal(t, "Old Import", rows[0].FullName)

	g.LegacyName = " "
	rows = Materialize(nil, []models.EventGuest{g})
	assert.Equal(t, "Guest", rows[0].FullName)
}

func TestMaterializeSortsNewestFirstEmptyLast(t *testing.T) {
	older := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tk := paidTicket("99999999-0000-0000-0000-000000000001", buyerA, nil, older)
	g := models.EventGuest{
		ID:        uuid.MustParse("cccccccc-0000-0000-0000-000000000002"),
		FullName:  "Grace Hopper",
		Email:     "grace@example.com",
		CreatedAt: newer,
	}
	noTime := models.EventGuest{
		ID:       uuid.MustParse("cccccccc-0000-0000-0000-000000000003"),
		FullName: "No Timestamp",
		Email:    "none@example.com",
	}

	rows := Materialize([]TicketRow{tk}, []models.EventGuest{noTime, g})
	require.Len(t, rows, 3)
	assert.Equal(t, "Grace Hopper", rows[0].FullName)
	assert.Equal(t, "Ada Lovelace", rows[1].FullName)
	assert.Equal(t, "No Timestamp", rows[2].FullName)
	assert.Empty(t, rows[2].DateTime)
}

func TestMaterializeTieBreaksOnOrderNumber(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	g1 := models.EventGuest{
		ID:        uuid.MustParse("cccccccc-0000-0000-0000-00000000000b"),
		FullName:  "Second",
		Email:     "b@example.com",
		CreatedAt: ts,
	}
	g2 := models.EventGuest{
		ID:        uuid.MustParse("cccccccc-0000-0000-0000-00000000000a"),
		FullName:  "First",
		Email:     "a@example.com",
		CreatedAt: ts,
	}

	rows := Materialize(nil, []models.EventGuest{g1, g2})
	require.Len(t, rows, 2)
	assert.Equal(t, "GST-000A", rows[0].OrderNumber)
	assert.Equal(t, "GST-000B", rows[1].OrderNumber)
}

func TestMaterializeTwoBuyersMixedStatus(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a1 := paidTicket("99999999-0000-0000-0000-000000000001", buyerA, &order1, base)
	a1.PriceCents = 2000
	a2 := paidTicket("99999999-0000-0000-0000-000000000002", buyerA, &order1, base)
	a2.PriceCents = 3500
	b1 := paidTicket("99999999-0000-0000-0000-000000000003", buyerB, nil, base.Add(time.Minute))
	b1.Status = models.TicketScanned
	b1.Email = "b@example.com"

	rows := Materialize([]TicketRow{a1, a2, b1}, nil)
	require.Len(t, rows, 2)

	var groupRow, soloRow Row
	for _, r := range rows {
		if r.Quantity == 2 {
			groupRow = r
		} else {
			soloRow = r
		}
	}
	assert.Equal(t, int64(5500), groupRow.AmountCents)
	assert.Equal(t, models.GuestPendingArrival, groupRow.Status)
	assert.Equal(t, 1, soloRow.Quantity)
	assert.Equal(t, models.GuestCheckedIn, soloRow.Status)
}

func TestMaterializeEmpty(t *testing.T) {
	rows := Materialize(nil, nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
