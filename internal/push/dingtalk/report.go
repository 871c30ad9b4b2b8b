package dingtalk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"market-data-ingest/internal/ingest"
)

// RunReporter posts an ingestion summary to the webhook.
type RunReporter struct {
	client       *Client
	onlyFailures bool
}

// NewRunReporter reports every run, or only runs with failed symbols when
// onlyFailures is set.
func NewRunReporter(client *Client, onlyFailures bool) *RunReporter {
	return &RunReporter{client: client, onlyFailures: onlyFailures}
}

func (r *RunReporter) NotifyRun(ctx context.Context, s ingest.Summary) error {
	if !r.client.Enabled() {
		return nil
	}
	if r.onlyFailures && s.Failed == 0 {
		return nil
	}
	title := "行情入库完成"
	if s.Failed > 0 {
		title = fmt.Sprintf("行情入库完成（%d 个失败）", s.Failed)
	}
	_, err := r.client.SendMarkdown(ctx, title, FormatSummary(s))
	return err
}

// FormatSummary renders the markdown body of a run report.
func FormatSummary(s ingest.Summary) string {
	var b strings.Builder
	b.WriteString("### 行情入库报告\n\n")
	fmt.Fprintf(&b, "- 总数: %d\n", s.Total)
	fmt.Fprintf(&b, "- 成功: %d\n", s.Succeeded)
	fmt.Fprintf(&b, "- 失败: %d (拉取 %d / 写入 %d)\n", s.Failed, s.FetchFailed, s.PersistFailed)
	if !s.StartedAt.IsZero() && !s.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- 耗时: %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Second))
		fmt.Fprintf(&b, "- 完成于: %s\n", s.FinishedAt.UTC().Format(time.RFC3339))
	}
	return b.String()
}
