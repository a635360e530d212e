// Package metrics defines all Prometheus metrics for dhcpcd.
// All metrics use the "dhcpcd_" prefix.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dhcpcd"

// --- State machine metrics ---

var (
	// StateTransitions counts interface state transitions, by from/to state.
	StateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "state_transitions_total",
		Help:      "Total interface state transitions, by from and to state.",
	}, []string{"iface", "from", "to"})

	// TimeToBind tracks how long an interface takes from INIT to BOUND.
	TimeToBind = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "time_to_bind_seconds",
		Help:      "Time from entering INIT to reaching BOUND, in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 4, 8, 16, 32, 64, 128},
	}, []string{"iface"})
)

// --- Message metrics ---

var (
	// MessagesSent counts outbound DHCP messages by type.
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Total DHCP messages sent, by message type.",
	}, []string{"iface", "msg_type"})

	// MessagesReceived counts inbound DHCP messages by type.
	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_received_total",
		Help:      "Total DHCP messages received, by message type.",
	}, []string{"iface", "msg_type"})

	// MessagesRejected counts inbound messages dropped by the filter.
	MessagesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_rejected_total",
		Help:      "Total inbound messages rejected by the filter, by reason.",
	}, []string{"iface", "reason"})

	// Retransmits counts retransmit timer firings.
	Retransmits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retransmits_total",
		Help:      "Total retransmissions, by interface state.",
	}, []string{"iface", "state"})
)

// --- Lease metrics ---

var (
	// Binds counts successful binds, by reason tag.
	Binds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "binds_total",
		Help:      "Total successful binds, by reason.",
	}, []string{"iface", "reason"})

	// Naks counts received NAKs.
	Naks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "naks_total",
		Help:      "Total DHCPNAK messages received.",
	}, []string{"iface"})

	// NakBackoffSeconds reports the current NAK backoff value.
	NakBackoffSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "nak_backoff_seconds",
		Help:      "Current NAK backoff interval in seconds.",
	}, []string{"iface"})

	// Releases counts RELEASE events.
	Releases = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "releases_total",
		Help:      "Total DHCPRELEASE events sent.",
	}, []string{"iface"})

	// Declines counts DECLINE events (address conflicts).
	Declines = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "declines_total",
		Help:      "Total DHCPDECLINE events sent, by trigger.",
	}, []string{"iface", "trigger"})

	// LeaseExpirySeconds reports the bound lease's lease time, set at bind.
	LeaseExpirySeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "lease_expiry_seconds",
		Help:      "Lease time in seconds of the current lease, set at bind (0 after expiry, -1 if infinite).",
	}, []string{"iface"})
)

// --- ARP / conflict metrics ---

var (
	// ARPProbes counts ARP probe attempts by result.
	ARPProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "arp_probes_total",
		Help:      "Total ARP probes performed, by result.",
	}, []string{"iface", "result"})

	// ARPConflicts counts detected address conflicts.
	ARPConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "arp_conflicts_total",
		Help:      "Total ARP conflicts detected during probing.",
	}, []string{"iface"})
)

// --- Hook metrics ---

var (
	// HookExecutions counts hook script runs by result.
	HookExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hook_executions_total",
		Help:      "Total hook script executions, by result.",
	}, []string{"iface", "reason", "result"})

	// HookDuration tracks hook execution latency.
	HookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "hook_execution_duration_seconds",
		Help:      "Hook execution duration in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0},
	}, []string{"iface"})
)
