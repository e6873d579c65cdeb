package packing

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/production/internal/domain/document"
	"github.com/erp/production/internal/domain/packing"
	"github.com/erp/production/internal/domain/production"
	"github.com/erp/production/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type packingFixture struct {
	bundles   *MockBundleRepository
	ledger    *MockLedgerRepository
	jobOrders *MockJobOrderRepository
	docs      *MockDocumentStore
	encoder   *MockBarcodeEncoder
	events    *MockEventPublisher
	service   *PackingService
}

func newPackingFixture() *packingFixture {
	f := &packingFixture{
		bundles:   new(MockBundleRepository),
		ledger:    new(MockLedgerRepository),
		jobOrders: new(MockJobOrderRepository),
		docs:      new(MockDocumentStore),
		encoder:   new(MockBarcodeEncoder),
		events:    NewMockEventPublisher(),
	}
	scope := NewNoOpTransactionScope(f.bundles, f.ledger, f.jobOrders)
	f.service = NewPackingService(scope, f.bundles, f.docs, f.encoder, zap.NewNop())
	f.service.SetEventPublisher(f.events)
	return f
}

func terminalRecord(productID uuid.UUID, semiID string, achieved int64) *production.ProcessLedgerRecord {
	return &production.ProcessLedgerRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		JobOrderID:        uuid.New(),
		IWOID:             uuid.New(),
		SemiFinishedID:    semiID,
		Product:           production.ProductSnapshot{ProductID: productID, VariantCode: "C1", ProductName: "Door"},
		ProcessName:       "cutting",
		Sequence:          production.NewProcessSequence([]string{"cutting"}, 0),
		AvailableQuantity: achieved,
		AchievedQuantity:  achieved,
		Status:            production.LedgerStatusCompleted,
	}
}

func TestPackingService_CreateBundles(t *testing.T) {
	ctx := context.Background()

	t.Run("packs within the achieved bound", func(t *testing.T) {
		f := newPackingFixture()
		productID := uuid.New()
		rec := terminalRecord(productID, "S", 30)
		workOrderID := uuid.New()
		jo := &production.JobOrder{BaseAggregateRoot: shared.NewBaseAggregateRoot(), WorkOrderID: &workOrderID}

		f.ledger.On("FindTerminalForUpdate", ctx, "S").Return(rec, nil)
		f.bundles.On("SumPacked", ctx, "S").Return(int64(0), nil)
		f.jobOrders.On("FindByID", ctx, rec.JobOrderID).Return(jo, nil)
		f.bundles.On("Save", ctx, mock.AnythingOfType("*packing.PackingBundle")).Return(nil)

		resp, err := f.service.CreateBundles(ctx, CreateBundlesRequest{
			Items: []BundleItemInput{{ProductID: productID, SemiFinishedID: "S", Quantity: 20}},
			Actor: "packer",
		})
		require.NoError(t, err)
		require.Len(t, resp, 1)
		assert.Equal(t, int64(20), resp[0].PackedQuantity)
		assert.Equal(t, "", resp[0].DeliveryStage)
		assert.Equal(t, "Door", resp[0].ProductName)
		assert.Equal(t, &workOrderID, resp[0].WorkOrderID)
		assert.Equal(t, rec.IWOID, *resp[0].IWOID)
		assert.Len(t, f.events.GetEventsByType(packing.EventTypeBundleCreated), 1)
	})

	t.Run("second request beyond remaining fails", func(t *testing.T) {
		f := newPackingFixture()
		productID := uuid.New()
		rec := terminalRecord(productID, "S", 30)
		f.ledger.On("FindTerminalForUpdate", ctx, "S").Return(rec, nil)
		f.bundles.On("SumPacked", ctx, "S").Return(int64(20), nil)

		_, err := f.service.CreateBundles(ctx, CreateBundlesRequest{
			Items: []BundleItemInput{{ProductID: productID, SemiFinishedID: "S", Quantity: 15}},
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeQuantityExceeded))
		assert.Contains(t, err.Error(), "remaining 10")
		f.bundles.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("items of one request share the bound", func(t *testing.T) {
		f := newPackingFixture()
		productID := uuid.New()
		rec := terminalRecord(productID, "S", 30)
		f.ledger.On("FindTerminalForUpdate", ctx, "S").Return(rec, nil)
		f.bundles.On("SumPacked", ctx, "S").Return(int64(0), nil)
		f.jobOrders.On("FindByID", ctx, mock.Anything).Return(nil, shared.ErrNotFound)
		f.bundles.On("Save", ctx, mock.Anything).Return(nil)
		f.docs.On("Store", ctx, []byte("slip"), "application/pdf", mock.Anything).Return("https://docs.local/packing/slip.pdf", nil)
		f.docs.On("Remove", ctx, "https://docs.local/packing/slip.pdf").Return(nil)

		_, err := f.service.CreateBundles(ctx, CreateBundlesRequest{
			Items: []BundleItemInput{
				{ProductID: productID, SemiFinishedID: "S", Quantity: 20},
				{ProductID: productID, SemiFinishedID: "S", Quantity: 11},
			},
			Documents: []document.Upload{{FileName: "slip.pdf", ContentType: "application/pdf", Content: []byte("slip")}},
		})
		assert.True(t, shared.IsCode(err, shared.CodeQuantityExceeded))
		f.docs.AssertCalled(t, "Remove", ctx, "https://docs.local/packing/slip.pdf")
		assert.Empty(t, f.events.GetEvents())
	})

	t.Run("no production yet", func(t *testing.T) {
		f := newPackingFixture()
		f.ledger.On("FindTerminalForUpdate", ctx, "S").Return(nil, shared.ErrNotFound)

		_, err := f.service.CreateBundles(ctx, CreateBundlesRequest{
			Items: []BundleItemInput{{ProductID: uuid.New(), SemiFinishedID: "S", Quantity: 1}},
		})
		assert.True(t, shared.IsCode(err, shared.CodeProductionNotReady))
	})

	t.Run("validation names the item", func(t *testing.T) {
		f := newPackingFixture()
		_, err := f.service.CreateBundles(ctx, CreateBundlesRequest{
			Items: []BundleItemInput{{ProductID: uuid.New(), SemiFinishedID: "S", Quantity: 0}},
		})
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		require.Len(t, de.Details, 1)
		assert.Equal(t, "items[0].quantity", de.Details[0].Field)
	})
}

func TestPackingService_SealBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("partial success", func(t *testing.T) {
		f := newPackingFixture()
		productID := uuid.New()
		b1, err := packing.NewPackingBundle(productID, "S1", 5, 0, "packer")
		require.NoError(t, err)
		b2, err := packing.NewPackingBundle(productID, "S2", 5, 0, "packer")
		require.NoError(t, err)

		f.bundles.On("FindByIDForUpdate", ctx, b1.ID).Return(b1, nil)
		f.bundles.On("FindByIDForUpdate", ctx, b2.ID).Return(b2, nil)
		f.bundles.On("QRIDTaken", ctx, mock.Anything, mock.Anything).Return(false, nil)
		f.ledger.On("FindTerminal", ctx, "S1").Return(terminalRecord(productID, "S1", 5), nil)
		f.ledger.On("FindTerminal", ctx, "S2").Return(terminalRecord(productID, "S2", 0), nil)
		f.encoder.On("Encode", "QR1").Return([]byte("png-bytes"), nil)
		f.docs.On("Store", ctx, []byte("png-bytes"), "image/png", mock.Anything).Return("https://docs.local/qrcode/QR1.png", nil)
		f.bundles.On("Update", ctx, b1).Return(nil)

		report, err := f.service.SealBatch(ctx, SealRequest{Items: []SealItem{
			{BundleID: b1.ID, QRCodeID: "QR1"},
			{BundleID: b2.ID, QRCodeID: "QR2"},
		}})
		require.NoError(t, err)
		require.Len(t, report.Succeeded, 1)
		assert.Equal(t, "QR1", report.Succeeded[0].QRID)
		assert.Equal(t, "https://docs.local/qrcode/QR1.png", report.Succeeded[0].QRCode)
		assert.Equal(t, "Packed", report.Succeeded[0].DeliveryStage)
		require.Len(t, report.Failed, 1)
		assert.Equal(t, b2.ID, report.Failed[0].BundleID)
		assert.Equal(t, shared.CodeProductionNotReady, report.Failed[0].Code)
		f.encoder.AssertNotCalled(t, "Encode", "QR2")
		assert.Len(t, f.events.GetEventsByType(packing.EventTypeBundleSealed), 1)
	})

	t.Run("failure kinds", func(t *testing.T) {
		f := newPackingFixture()
		productID := uuid.New()
		sealed, err := packing.NewPackingBundle(productID, "S1", 5, 0, "packer")
		require.NoError(t, err)
		require.NoError(t, sealed.Seal("OLD", "https://docs.local/qrcode/OLD.png", "packer"))
		fresh, err := packing.NewPackingBundle(productID, "S2", 5, 0, "packer")
		require.NoError(t, err)
		missing := uuid.New()

		f.bundles.On("FindByIDForUpdate", ctx, sealed.ID).Return(sealed, nil)
		f.bundles.On("FindByIDForUpdate", ctx, fresh.ID).Return(fresh, nil)
		f.bundles.On("FindByIDForUpdate", ctx, missing).Return(nil, shared.ErrNotFound)
		f.bundles.On("QRIDTaken", ctx, "DUP", fresh.ID).Return(true, nil)

		report, err := f.service.SealBatch(ctx, SealRequest{Items: []SealItem{
			{BundleID: sealed.ID, QRCodeID: "NEW"},
			{BundleID: fresh.ID, QRCodeID: "DUP"},
			{BundleID: missing, QRCodeID: "X"},
			{BundleID: fresh.ID, QRCodeID: "  "},
		}})
		require.NoError(t, err)
		assert.Empty(t, report.Succeeded)
		require.Len(t, report.Failed, 4)
		assert.Equal(t, shared.CodeAlreadyPacked, report.Failed[0].Code)
		assert.Equal(t, shared.CodeValidationFailed, report.Failed[1].Code)
		assert.Equal(t, shared.CodeNotFound, report.Failed[2].Code)
		assert.Equal(t, shared.CodeValidationFailed, report.Failed[3].Code)
	})

	t.Run("storage failure removes nothing and reports it", func(t *testing.T) {
		f := newPackingFixture()
		productID := uuid.New()
		b, err := packing.NewPackingBundle(productID, "S1", 5, 0, "packer")
		require.NoError(t, err)
		f.bundles.On("FindByIDForUpdate", ctx, b.ID).Return(b, nil)
		f.bundles.On("QRIDTaken", ctx, "QR1", b.ID).Return(false, nil)
		f.ledger.On("FindTerminal", ctx, "S1").Return(terminalRecord(productID, "S1", 5), nil)
		f.encoder.On("Encode", "QR1").Return([]byte("png"), nil)
		f.docs.On("Store", ctx, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("timeout"))

		report, err := f.service.SealBatch(ctx, SealRequest{Items: []SealItem{{BundleID: b.ID, QRCodeID: "QR1"}}})
		require.NoError(t, err)
		require.Len(t, report.Failed, 1)
		assert.Equal(t, shared.CodeStorageFailure, report.Failed[0].Code)
		assert.False(t, b.IsSealed())
		f.docs.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	})
}
