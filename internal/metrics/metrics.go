package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 功放服务业务指标
type AppMetrics struct {
	FrameTotal       *prometheus.CounterVec   // labels: command, result
	FrameLatency     *prometheus.HistogramVec // labels: command
	ActionTotal      *prometheus.CounterVec   // labels: action, result
	PublishTotal     prometheus.Counter       // 已广播的状态快照
	DroppedTotal     prometheus.Counter       // 订阅者缓冲满时丢弃的旧快照
	SubscriberGauge  prometheus.Gauge         // 当前订阅者数量
	KeepAliveTotal   *prometheus.CounterVec   // labels: result
	MirrorWriteTotal *prometheus.CounterVec   // labels: sink, result
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		FrameTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amp_frame_total",
			Help: "Serial frame exchanges by command and result.",
		}, []string{"command", "result"}),
		FrameLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "amp_frame_duration_seconds",
			Help:    "Serial request/response round trip latency.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}, []string{"command"}),
		ActionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amp_action_total",
			Help: "Broker actions by action name and result.",
		}, []string{"action", "result"}),
		PublishTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "amp_status_publish_total",
			Help: "Status snapshots published to subscribers.",
		}),
		DroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "amp_status_dropped_total",
			Help: "Stale snapshots dropped from full subscriber buffers.",
		}),
		SubscriberGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "amp_subscribers",
			Help: "Current number of status subscribers.",
		}),
		KeepAliveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amp_keepalive_total",
			Help: "Idle-timeout keep-alive frames by result.",
		}, []string{"result"}),
		MirrorWriteTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amp_mirror_write_total",
			Help: "Status/journal writes to external stores by sink and result.",
		}, []string{"sink", "result"}),
	}
	reg.MustRegister(m.FrameTotal, m.FrameLatency, m.ActionTotal, m.PublishTotal,
		m.DroppedTotal, m.SubscriberGauge, m.KeepAliveTotal, m.MirrorWriteTotal)
	return m
}

// Result 将错误折算为 result 标签
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
