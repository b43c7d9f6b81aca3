package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/niyyah-app/niyyah-api/internal/database"
	"github.com/niyyah-app/niyyah-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *LicenseRepository {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return NewLicenseRepository(db)
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T, repo *LicenseRepository, phone string) {
	t.Helper()
	created, err := repo.CreateUnclaimed(context.Background(), &model.License{
		Phone:        phone,
		OrderID:      "order-" + phone,
		CustomerName: strPtr("Aminata Diallo"),
	})
	require.NoError(t, err)
	require.True(t, created)
}

func TestCreateUnclaimedIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateUnclaimed(ctx, &model.License{Phone: "+221771234567", OrderID: "A-1"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateUnclaimed(ctx, &model.License{Phone: "+221771234567", OrderID: "A-2"})
	require.NoError(t, err)
	assert.False(t, created)

	license, err := repo.FindByPhone(ctx, "+221771234567")
	require.NoError(t, err)
	assert.Equal(t, "A-1", license.OrderID)
	assert.False(t, license.Used)
	assert.Nil(t, license.DeviceID)
}

func TestCreateUnclaimedIgnoresClaimFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	created, err := repo.CreateUnclaimed(ctx, &model.License{
		Phone:    "+221771234567",
		DeviceID: strPtr("device-a"),
		Used:     true,
		UsedAt:   &now,
	})
	require.NoError(t, err)
	require.True(t, created)

	license, err := repo.FindByPhone(ctx, "+221771234567")
	require.NoError(t, err)
	assert.False(t, license.IsClaimed())
	assert.Nil(t, license.UsedAt)
}

func TestFindByPhoneNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FindByPhone(context.Background(), "+10000000")
	assert.True(t, IsNotFound(err))
}

func TestClaim(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seed(t, repo, "+221771234567")

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	license, claimed, err := repo.Claim(ctx, "+221771234567", "device-a", first)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.True(t, license.IsClaimed())
	assert.Equal(t, "device-a", *license.DeviceID)
	require.NotNil(t, license.UsedAt)
	assert.True(t, license.UsedAt.Equal(first))

	t.Run("same device is idempotent", func(t *testing.T) {
		license, claimed, err := repo.Claim(ctx, "+221771234567", "device-a", first.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, claimed)
		assert.True(t, license.UsedAt.Equal(first), "re-claim must keep the first activation time")
	})

	t.Run("other device conflicts", func(t *testing.T) {
		license, claimed, err := repo.Claim(ctx, "+221771234567", "device-b", first.Add(time.Hour))
		assert.ErrorIs(t, err, ErrDeviceConflict)
		assert.False(t, claimed)
		require.NotNil(t, license)
		assert.Equal(t, "device-a", *license.DeviceID)
	})

	t.Run("unknown phone", func(t *testing.T) {
		_, _, err := repo.Claim(ctx, "+33600000000", "device-a", first)
		assert.True(t, IsNotFound(err))
	})
}

func TestConcurrentClaimHasSingleWinner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seed(t, repo, "+221771234567")

	const contenders = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []string
		conflicts int
	)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(device string) {
			defer wg.Done()
			_, claimed, err := repo.Claim(ctx, "+221771234567", device, time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && claimed:
				winners = append(winners, device)
			case err == ErrDeviceConflict:
				conflicts++
			default:
				t.Errorf("unexpected claim result for %s: claimed=%v err=%v", device, claimed, err)
			}
		}(fmt.Sprintf("device-%d", i))
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, contenders-1, conflicts)

	license, err := repo.FindByPhone(ctx, "+221771234567")
	require.NoError(t, err)
	assert.Equal(t, winners[0], *license.DeviceID)
}

func TestFindByDeviceID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seed(t, repo, "+221770000001")
	seed(t, repo, "+221770000002")
	seed(t, repo, "+221770000003")

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)

	_, _, err := repo.Claim(ctx, "+221770000001", "shared-device", older)
	require.NoError(t, err)
	_, _, err = repo.Claim(ctx, "+221770000002", "shared-device", newer)
	require.NoError(t, err)

	t.Run("most recent claim wins", func(t *testing.T) {
		license, err := repo.FindByDeviceID(ctx, "shared-device")
		require.NoError(t, err)
		assert.Equal(t, "+221770000002", license.Phone)
	})

	t.Run("unclaimed device misses", func(t *testing.T) {
		_, err := repo.FindByDeviceID(ctx, "fresh-device")
		assert.True(t, IsNotFound(err))
	})
}

func TestListRecent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := repo.CreateUnclaimed(ctx, &model.License{
			Phone:     fmt.Sprintf("+22177000000%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	licenses, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, licenses, 3)
	assert.Equal(t, "+221770000004", licenses[0].Phone)
	assert.Equal(t, "+221770000002", licenses[2].Phone)
}
