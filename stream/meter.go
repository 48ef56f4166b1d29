package stream

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/trajkit/trajkit/common"
	"github.com/trajkit/trajkit/params"
)

// tickScanMeter logs scanner throughput on an interval: rows/sec,
// bytes/sec, and which entities the scanner is currently seeing.
type tickScanMeter struct {
	label      time.Time // latest row timestamp seen
	interval   time.Duration
	started    time.Time
	ticker     *time.Ticker
	mu         sync.Mutex
	entities   []string
	reg        metrics.Registry
	rowMeter   metrics.Meter
	sizeMeter  metrics.Meter
}

func newTickScanMeter(interval time.Duration) *tickScanMeter {
	metrics.Enabled = params.MetricsEnabled

	reg := metrics.NewRegistry()
	m := &tickScanMeter{
		reg:       reg,
		interval:  interval,
		started:   time.Now(),
		rowMeter:  metrics.NewMeter(),
		sizeMeter: metrics.NewMeter(),
	}
	if err := reg.Register("row.meter", m.rowMeter); err != nil {
		panic(err)
	}
	if err := reg.Register("size.meter", m.sizeMeter); err != nil {
		panic(err)
	}
	go m.run()
	return m
}

func (m *tickScanMeter) mark(label time.Time, data []byte) {
	m.label = label
	m.rowMeter.Mark(1)
	m.sizeMeter.Mark(int64(len(data)))
}

func (m *tickScanMeter) addEntity(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entities {
		if e == id {
			return
		}
	}
	m.entities = append(m.entities, id)
}

func (m *tickScanMeter) run() {
	m.ticker = time.NewTicker(m.interval)
	for range m.ticker.C {
		m.log()
	}
}

func (m *tickScanMeter) log() {
	rowSnap := m.rowMeter.Snapshot()
	sizeSnap := m.sizeMeter.Snapshot()

	m.mu.Lock()
	entities := strings.Join(m.entities, ",")
	m.mu.Unlock()

	slog.Info("Read rows", "n", humanize.Comma(rowSnap.Count()),
		"entities", entities,
		"read.last", m.label.Format(time.DateTime),
		"rps", common.DecimalToFixed(rowSnap.Rate1(), 0),
		"bps", humanize.Bytes(uint64(sizeSnap.Rate1())),
		"total.bytes", humanize.Bytes(uint64(sizeSnap.Count())),
		"running", time.Since(m.started).Round(time.Second))
}

func (m *tickScanMeter) stop() {
	if m == nil || m.ticker == nil {
		return
	}
	m.ticker.Stop()
	m.rowMeter.Stop()
	m.sizeMeter.Stop()
}
