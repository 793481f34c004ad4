package requests

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"biostorex/internal/domain/apperr"
	"biostorex/internal/domain/models"
	"biostorex/internal/repository/memory"
	"biostorex/internal/service/inventory"
)

type fixture struct {
	svc    *Service
	inv    *inventory.Service
	store  *memory.Store
	keeper *models.User
	stud   *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	inv := inventory.NewService(store, store, nil, zap.NewNop())
	return &fixture{
		svc:    NewService(store, store, store, inv, zap.NewNop()),
		inv:    inv,
		store:  store,
		keeper: &models.User{ID: "sk-1", Role: models.RoleStorekeeper, IsActive: true},
		stud:   &models.User{ID: "st-1", Role: models.RoleStudent, IsActive: true},
	}
}

func (f *fixture) addItem(t *testing.T, qty int) *models.Item {
	t.Helper()
	item, err := f.inv.AddStock(context.Background(), f.keeper, inventory.AddStockInput{
		Name: "Agar Powder", Category: "CONSUMABLE", UnitType: "g", Quantity: qty, BatchNo: "B100",
	})
	require.NoError(t, err)
	return item
}

func TestRequestItemCreatesPending(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)

	req, err := f.svc.RequestItem(context.Background(), f.stud, item.ID, 10)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, 10, req.QuantityRequested)
	assert.Equal(t, f.stud.ID, req.UserID)
}

func TestRequestItemExceedingStockFails(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)

	_, err := f.svc.RequestItem(context.Background(), f.stud, item.ID, 25)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
}

func TestRequestItemDuplicatePendingFails(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)
	ctx := context.Background()

	_, err := f.svc.RequestItem(ctx, f.stud, item.ID, 5)
	require.NoError(t, err)

	_, err = f.svc.RequestItem(ctx, f.stud, item.ID, 3)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// A different student is unaffected.
	other := &models.User{ID: "st-2", Role: models.RoleStudent, IsActive: true}
	_, err = f.svc.RequestItem(ctx, other, item.ID, 3)
	assert.NoError(t, err)
}

func TestRequestItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestItem(ctx, f.stud, "", 5)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.RequestItem(ctx, f.stud, "missing", 5)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRequestItemRejectsStorekeepers(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)

	_, err := f.svc.RequestItem(context.Background(), f.keeper, item.ID, 5)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestApproveLeavesStockUntouched(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)
	ctx := context.Background()

	req, err := f.svc.RequestItem(ctx, f.stud, item.ID, 10)
	require.NoError(t, err)

	req, err = f.svc.Approve(ctx, f.keeper, req.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, req.Status)
	assert.Equal(t, 10, req.QuantityApproved)
	assert.Equal(t, f.keeper.ID, req.ApprovedBy)

	current, err := f.store.FindItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, current.TotalQuantity)
}

func TestApproveNonPendingFails(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)
	ctx := context.Background()

	req, err := f.svc.RequestItem(ctx, f.stud, item.ID, 10)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.keeper, req.ID)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.keeper, req.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestDecline(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)
	ctx := context.Background()

	req, err := f.svc.RequestItem(ctx, f.stud, item.ID, 10)
	require.NoError(t, err)

	req, err = f.svc.Decline(ctx, f.keeper, req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeclined, req.Status)
	assert.Equal(t, "No reason provided", req.DeclineReason)

	// Declining twice is a conflict.
	_, err = f.svc.Decline(ctx, f.keeper, req.ID, "again")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestIssueDepletesFIFOAndLogs(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)
	ctx := context.Background()

	req, err := f.svc.RequestItem(ctx, f.stud, item.ID, 10)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.keeper, req.ID)
	require.NoError(t, err)

	req, err = f.svc.Issue(ctx, f.keeper, req.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusIssued, req.Status)
	require.NotNil(t, req.IssuedAt)

	current, err := f.store.FindItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, current.TotalQuantity)
	assert.Equal(t, []models.Batch{{BatchNo: "B100", Quantity: 10}}, current.Batches)
	assert.Equal(t, current.BatchSum(), current.TotalQuantity)

	logs, err := f.store.ListIssueLogsByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 10, logs[0].Quantity)
	assert.Equal(t, f.stud.ID, logs[0].IssuedTo)
	assert.Equal(t, f.keeper.ID, logs[0].IssuedBy)
}

func TestIssueWithoutApprovalFails(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)
	ctx := context.Background()

	req, err := f.svc.RequestItem(ctx, f.stud, item.ID, 10)
	require.NoError(t, err)

	_, err = f.svc.Issue(ctx, f.keeper, req.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestConcurrentIssueDepletesOnce(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)
	ctx := context.Background()

	req, err := f.svc.RequestItem(ctx, f.stud, item.ID, 10)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.keeper, req.ID)
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Issue(ctx, f.keeper, req.ID)
		}(i)
	}
	wg.Wait()

	var issued, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			issued++
		case apperr.KindOf(err) == apperr.KindConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, issued)
	assert.Equal(t, 1, conflicts)

	current, err := f.store.FindItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, current.TotalQuantity)

	logs, err := f.store.ListIssueLogsByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestIssueInsufficientStockAfterApproval(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)
	ctx := context.Background()

	req, err := f.svc.RequestItem(ctx, f.stud, item.ID, 15)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.keeper, req.ID)
	require.NoError(t, err)

	// Stock drains between approval and issue.
	_, err = f.inv.RemoveStock(ctx, f.keeper, inventory.RemoveStockInput{ItemID: item.ID, Quantity: 10})
	require.NoError(t, err)

	_, err = f.svc.Issue(ctx, f.keeper, req.ID)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
}

func TestReturnRestoresFirstBatchAndLogsNegative(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)
	ctx := context.Background()

	req, err := f.svc.RequestItem(ctx, f.stud, item.ID, 10)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.keeper, req.ID)
	require.NoError(t, err)
	_, err = f.svc.Issue(ctx, f.keeper, req.ID)
	require.NoError(t, err)

	req, err = f.svc.Return(ctx, f.keeper, req.ID, 4, "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusReturned, req.Status)
	assert.Equal(t, 4, req.QuantityReturned)
	assert.Equal(t, f.keeper.ID, req.ReturnProcessedBy)
	require.NotNil(t, req.ReturnedAt)

	current, err := f.store.FindItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 14, current.TotalQuantity)
	assert.Equal(t, []models.Batch{{BatchNo: "B100", Quantity: 14}}, current.Batches)

	logs, err := f.store.ListIssueLogsByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	var returnLog *models.IssueLog
	for i := range logs {
		if logs[i].Quantity < 0 {
			returnLog = &logs[i]
		}
	}
	require.NotNil(t, returnLog)
	assert.Equal(t, -4, returnLog.Quantity)
	assert.Equal(t, "Item returned", returnLog.Note)
}

func TestReturnGuards(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)
	ctx := context.Background()

	req, err := f.svc.RequestItem(ctx, f.stud, item.ID, 10)
	require.NoError(t, err)

	// Not issued yet.
	_, err = f.svc.Return(ctx, f.keeper, req.ID, 4, "")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = f.svc.Approve(ctx, f.keeper, req.ID)
	require.NoError(t, err)
	_, err = f.svc.Issue(ctx, f.keeper, req.ID)
	require.NoError(t, err)

	// Missing quantity.
	_, err = f.svc.Return(ctx, f.keeper, req.ID, 0, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// More than was issued.
	_, err = f.svc.Return(ctx, f.keeper, req.ID, 11, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Returning twice is a conflict.
	_, err = f.svc.Return(ctx, f.keeper, req.ID, 4, "")
	require.NoError(t, err)
	_, err = f.svc.Return(ctx, f.keeper, req.ID, 2, "")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestTerminalRequestConflictMessages(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)
	ctx := context.Background()

	// A pending request reports what is missing, not that it is finished.
	pending, err := f.svc.RequestItem(ctx, f.stud, item.ID, 5)
	require.NoError(t, err)
	_, err = f.svc.Issue(ctx, f.keeper, pending.ID)
	assert.Equal(t, "request must be approved before issuing", apperr.MessageOf(err))
	_, err = f.svc.Return(ctx, f.keeper, pending.ID, 2, "")
	assert.Equal(t, "item must be issued before it can be returned", apperr.MessageOf(err))

	// A declined request is done; every further transition says so.
	_, err = f.svc.Decline(ctx, f.keeper, pending.ID, "out of scope")
	require.NoError(t, err)
	_, err = f.svc.Issue(ctx, f.keeper, pending.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "request is already processed", apperr.MessageOf(err))

	// Same for a request that has completed the full cycle.
	other := &models.User{ID: "st-2", Role: models.RoleStudent, IsActive: true}
	done, err := f.svc.RequestItem(ctx, other, item.ID, 5)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.keeper, done.ID)
	require.NoError(t, err)
	_, err = f.svc.Issue(ctx, f.keeper, done.ID)
	require.NoError(t, err)
	_, err = f.svc.Return(ctx, f.keeper, done.ID, 5, "")
	require.NoError(t, err)

	_, err = f.svc.Return(ctx, f.keeper, done.ID, 1, "")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "request is already processed", apperr.MessageOf(err))
}

func TestBlacklistedActorRejected(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)

	banned := &models.User{ID: "st-9", Role: models.RoleStudent, IsActive: false}
	_, err := f.svc.RequestItem(context.Background(), banned, item.ID, 5)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestRequestListings(t *testing.T) {
	f := newFixture(t)
	item := f.addItem(t, 20)
	ctx := context.Background()

	_, err := f.svc.RequestItem(ctx, f.stud, item.ID, 5)
	require.NoError(t, err)

	mine, err := f.svc.MyRequests(ctx, f.stud)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	// Students cannot see the full queue.
	_, err = f.svc.AllRequests(ctx, f.stud)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	all, err := f.svc.AllRequests(ctx, f.keeper)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
