package allocator

import (
	"strings"
)

// Fixed allocator-wide metric paths.
const (
	EventQueueDispatchesPath       = "allocator/mesos/event_queue_dispatches"
	LegacyEventQueueDispatchesPath = "allocator/event_queue_dispatches"
	AllocationRunsPath             = "allocator/mesos/allocation_runs"
	AllocationRunPath              = "allocator/mesos/allocation_run"
	AllocationRunLatencyPath       = "allocator/mesos/allocation_run_latency"
)

const upperhex = "0123456789ABCDEF"

// NormalizeKey percent-encodes every byte of key outside the unreserved set
// [A-Za-z0-9-._~], so the result is a single path segment and distinct keys
// never map to the same segment.
func NormalizeKey(key string) string {
	n := 0
	for i := 0; i < len(key); i++ {
		if !unreserved(key[i]) {
			n++
		}
	}
	if n == 0 {
		return key
	}

	var b strings.Builder
	b.Grow(len(key) + 2*n)
	for i := 0; i < len(key); i++ {
		c := key[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// FrameworkPrefix returns the path prefix of every metric owned by the
// framework, including the trailing slash.
func FrameworkPrefix(info FrameworkInfo) string {
	return "master/frameworks/" + NormalizeKey(info.Name) + "/" + NormalizeKey(info.ID) + "/"
}

func ResourceTotalPath(resource string) string {
	return "allocator/mesos/resources/" + resource + "/total"
}

func ResourceOfferedOrAllocatedPath(resource string) string {
	return "allocator/mesos/resources/" + resource + "/offered_or_allocated"
}

func QuotaGuaranteePath(role, resource string) string {
	return "allocator/mesos/quota/roles/" + NormalizeKey(role) + "/resources/" + resource + "/guarantee"
}

func QuotaOfferedOrAllocatedPath(role, resource string) string {
	return "allocator/mesos/quota/roles/" + NormalizeKey(role) + "/resources/" + resource + "/offered_or_allocated"
}

func OfferFiltersActivePath(role string) string {
	return "allocator/mesos/offer_filters/roles/" + NormalizeKey(role) + "/active"
}

// ResourcesFilteredPath returns the counter path for reason under a
// framework prefix. FilterGeneric maps to the bare resources_filtered path.
func ResourcesFilteredPath(prefix string, reason FilterReason) string {
	if reason == FilterGeneric {
		return prefix + "allocation/resources_filtered"
	}
	return prefix + "allocation/resources_filtered/" + string(reason)
}

// LatestPositionPaths returns the min and max fairness position paths for
// a role under a framework prefix.
func LatestPositionPaths(prefix, role string) (minPath, maxPath string) {
	base := prefix + "allocation/roles/" + NormalizeKey(role) + "/latest_position/"
	return base + "min", base + "max"
}

func SuppressedPath(prefix, role string) string {
	return prefix + "roles/" + NormalizeKey(role) + "/suppressed"
}
