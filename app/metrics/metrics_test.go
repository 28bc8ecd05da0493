package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRefresh(t *testing.T) {
	successBefore := testutil.ToFloat64(RefreshTotal.WithLabelValues(StatusSuccess))
	failureBefore := testutil.ToFloat64(RefreshTotal.WithLabelValues(StatusFailure))
	itemsBefore := testutil.ToFloat64(ItemsInserted)

	RecordRefresh(StatusSuccess, 0.2, 3)
	RecordRefresh(StatusFailure, 0.1, 0)

	if got := testutil.ToFloat64(RefreshTotal.WithLabelValues(StatusSuccess)) - successBefore; got != 1 {
		t.Errorf("Expected 1 successful refresh, got: %v", got)
	}
	if got := testutil.ToFloat64(RefreshTotal.WithLabelValues(StatusFailure)) - failureBefore; got != 1 {
		t.Errorf("Expected 1 failed refresh, got: %v", got)
	}
	if got := testutil.ToFloat64(ItemsInserted) - itemsBefore; got != 3 {
		t.Errorf("Expected 3 inserted items, got: %v", got)
	}
}

func TestRecordListRequest(t *testing.T) {
	before := testutil.ToFloat64(ListRequests.WithLabelValues("rss", "hit"))

	RecordListRequest("rss", "hit")
	RecordListRequest("rss", "hit")

	if got := testutil.ToFloat64(ListRequests.WithLabelValues("rss", "hit")) - before; got != 2 {
		t.Errorf("Expected 2 cache hits, got: %v", got)
	}
}
