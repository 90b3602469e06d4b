package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/events"
	"github.com/iota-uz/itam/pkg/eventbus"
	"github.com/iota-uz/itam/pkg/metrics"
	"github.com/iota-uz/itam/pkg/notify"
)

const summaryErrorLimit = 3

type UploadResult struct {
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors"`
}

// Summary renders "N succeeded, M failed" followed by at most three failures.
func (r UploadResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d succeeded, %d failed", r.SuccessCount, r.ErrorCount)
	if len(r.Errors) == 0 {
		return b.String()
	}
	shown := r.Errors
	if len(shown) > summaryErrorLimit {
		shown = shown[:summaryErrorLimit]
	}
	b.WriteString(": ")
	b.WriteString(strings.Join(shown, "; "))
	if len(r.Errors) > summaryErrorLimit {
		b.WriteString("; …")
	}
	return b.String()
}

// ServerUploader creates imported assets one at a time, in order.
//
// Upload is not transactional. A failed row is recorded and the loop moves on;
// assets created before a failure are kept. Callers report partial success as a
// normal outcome.
type ServerUploader struct {
	assets    AssetCreator
	cache     ListingCache
	publisher eventbus.EventBus
	notifier  notify.Notifier
	log       *logrus.Entry
}

func NewServerUploader(
	assets AssetCreator,
	cache ListingCache,
	publisher eventbus.EventBus,
	notifier notify.Notifier,
	logger *logrus.Logger,
) *ServerUploader {
	return &ServerUploader{
		assets:    assets,
		cache:     cache,
		publisher: publisher,
		notifier:  notifier,
		log:       componentLogger(logger, "server-uploader"),
	}
}

func (u *ServerUploader) Upload(ctx context.Context, payloads []asset.CreatePayload) UploadResult {
	result := UploadResult{Errors: []string{}}
	for i, payload := range payloads {
		if _, err := u.assets.CreateAsset(ctx, payload); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", rowName(i, payload), userMessage(err, err.Error())))
			u.log.WithError(err).WithFields(logrus.Fields{"row": i + 1, "name": payload.Name}).Warn("asset creation failed")
			metrics.ImportRows.WithLabelValues("failed").Inc()
			continue
		}
		result.SuccessCount++
		metrics.ImportRows.WithLabelValues("uploaded").Inc()
	}

	if u.cache != nil {
		u.cache.InvalidateAssets()
	}
	if u.publisher != nil && result.SuccessCount > 0 {
		u.publisher.Publish(&events.AssetsChanged{Count: result.SuccessCount})
	}
	u.log.WithFields(logrus.Fields{"succeeded": result.SuccessCount, "failed": result.ErrorCount}).Info("upload finished")

	if u.notifier != nil {
		// A batch that ran is completed even when every row failed; only an
		// unreadable file fails the import.
		if result.SuccessCount == 0 && result.ErrorCount > 0 {
			u.notifier.Error("Import completed", result.Summary())
		} else {
			u.notifier.Success("Import completed", result.Summary())
		}
	}
	return result
}

func rowName(i int, p asset.CreatePayload) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("Row %d", i+1)
}
