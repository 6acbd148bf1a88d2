package service

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/tmorder/tmorder/internal/repository"
)

// SystemService reports process health and order-book totals for the status
// endpoint.
type SystemService interface {
	Status(ctx context.Context) (*SystemStatusView, error)
}

// SystemStatusView is the status endpoint payload.
type SystemStatusView struct {
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	HostUptime    uint64           `json:"host_uptime_seconds"`
	MemTotal      uint64           `json:"mem_total"`
	MemUsed       uint64           `json:"mem_used"`
	Load1         float64          `json:"load1"`
	Load5         float64          `json:"load5"`
	Load15        float64          `json:"load15"`
	Orders        map[string]int64 `json:"orders"`
}

// systemStatFetcher indirects gopsutil calls so tests can stub them.
type systemStatFetcher struct {
	VirtualMemory func() (*mem.VirtualMemoryStat, error)
	LoadAvg       func() (*load.AvgStat, error)
	HostUptime    func() (uint64, error)
}

type systemService struct {
	orders    repository.OrderRepository
	version   string
	startedAt time.Time
	fetcher   systemStatFetcher
}

// NewSystemService constructs the status service. Version comes from build
// info stamped into the binary.
func NewSystemService(orders repository.OrderRepository, version string) SystemService {
	return &systemService{
		orders:    orders,
		version:   version,
		startedAt: time.Now(),
		fetcher: systemStatFetcher{
			VirtualMemory: mem.VirtualMemory,
			LoadAvg:       load.Avg,
			HostUptime:    host.Uptime,
		},
	}
}

func (s *systemService) Status(ctx context.Context) (*SystemStatusView, error) {
	view := &SystemStatusView{
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Orders:        make(map[string]int64, 4),
	}

	// gopsutil lookups are best-effort; a probe failure leaves the field zero
	// rather than failing the whole status call.
	if v, err := s.fetcher.VirtualMemory(); err == nil {
		view.MemTotal = v.Total
		view.MemUsed = v.Used
	}
	if l, err := s.fetcher.LoadAvg(); err == nil {
		view.Load1 = l.Load1
		view.Load5 = l.Load5
		view.Load15 = l.Load15
	}
	if u, err := s.fetcher.HostUptime(); err == nil {
		view.HostUptime = u
	}

	for _, status := range []repository.OrderStatus{
		repository.StatusPending,
		repository.StatusInProgress,
		repository.StatusDelivered,
		repository.StatusCancelled,
	} {
		orders, err := s.orders.List(ctx, repository.OrderFilter{Status: status})
		if err != nil {
			return nil, err
		}
		view.Orders[string(status)] = int64(len(orders))
	}
	return view, nil
}
