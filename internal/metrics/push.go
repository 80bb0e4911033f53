package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob is the Pushgateway job name for one-shot runs.
const PushJob = "searchagent_run"

// Push sends the run metrics to a Prometheus Pushgateway, grouped by instance.
// One-shot CLI runs exit before any scrape, so they push instead.
func Push(ctx context.Context, url, instance string) error {
	p := push.New(url, PushJob)
	for _, c := range collectors() {
		p = p.Collector(c)
	}
	if instance != "" {
		p = p.Grouping("instance", instance)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
