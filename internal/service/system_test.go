package service

import (
	"context"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmorder/tmorder/internal/repository"
)

func TestSystemServiceStatus(t *testing.T) {
	repo := newFakeOrders()
	ctx := context.Background()
	for _, status := range []repository.OrderStatus{
		repository.StatusPending,
		repository.StatusPending,
		repository.StatusInProgress,
		repository.StatusDelivered,
	} {
		_, err := repo.Create(ctx, &repository.Order{
			CustomerName: "c",
			SourceLang:   "en",
			TargetLang:   "de",
			DeadlineAt:   time.Now().Unix(),
			Status:       status,
		})
		require.NoError(t, err)
	}

	svc := &systemService{
		orders:    repo,
		version:   "v1.2.3",
		startedAt: time.Now().Add(-90 * time.Second),
		fetcher: systemStatFetcher{
			VirtualMemory: func() (*mem.VirtualMemoryStat, error) {
				return &mem.VirtualMemoryStat{Total: 1024, Used: 512}, nil
			},
			LoadAvg: func() (*load.AvgStat, error) {
				return &load.AvgStat{Load1: 0.5, Load5: 0.4, Load15: 0.3}, nil
			},
			HostUptime: func() (uint64, error) { return 3600, nil },
		},
	}

	view, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", view.Version)
	assert.GreaterOrEqual(t, view.UptimeSeconds, int64(90))
	assert.Equal(t, uint64(1024), view.MemTotal)
	assert.Equal(t, uint64(512), view.MemUsed)
	assert.Equal(t, 0.5, view.Load1)
	assert.Equal(t, uint64(3600), view.HostUptime)
	assert.Equal(t, int64(2), view.Orders["pending"])
	assert.Equal(t, int64(1), view.Orders["in_progress"])
	assert.Equal(t, int64(1), view.Orders["delivered"])
	assert.Equal(t, int64(0), view.Orders["cancelled"])
}
