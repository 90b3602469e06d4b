package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/events"
	"github.com/iota-uz/itam/pkg/notify"
)

func servers(n int) []asset.CreatePayload {
	out := make([]asset.CreatePayload, n)
	for i := range out {
		out[i] = asset.CreatePayload{
			Name:     fmt.Sprintf("srv-%d", i+1),
			Category: asset.CategoryServers,
			Status:   asset.StatusOperational,
		}
	}
	return out
}

func TestServerUploader_PartialFailure(t *testing.T) {
	h := newHarness(t)
	h.backend.failOn["srv-3"] = errors.New("duplicate name")
	h.cache.PutAssets("all", []asset.Asset{{Name: "stale"}})

	var changed []*events.AssetsChanged
	h.bus.Subscribe(func(e *events.AssetsChanged) { changed = append(changed, e) })

	res := h.uploader.Upload(context.Background(), servers(5))

	assert.Equal(t, 4, res.SuccessCount)
	assert.Equal(t, 1, res.ErrorCount)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "srv-3")
	assert.Equal(t, 5, h.backend.count("CreateAsset"))

	names := make([]string, 0, len(h.backend.assets))
	for _, a := range h.backend.assets {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"srv-1", "srv-2", "srv-4", "srv-5"}, names)

	_, cached := h.cache.Assets("all")
	assert.False(t, cached)
	require.Len(t, changed, 1)
	assert.Equal(t, 4, changed[0].Count)

	got := h.notifier.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelSuccess, got[0].Level)
	assert.Contains(t, got[0].Message, "4 succeeded, 1 failed")
}

func TestServerUploader_AllFailed(t *testing.T) {
	h := newHarness(t)
	for _, p := range servers(2) {
		h.backend.failOn[p.Name] = errors.New("boom")
	}
	res := h.uploader.Upload(context.Background(), servers(2))
	assert.Equal(t, 0, res.SuccessCount)
	assert.Equal(t, 2, res.ErrorCount)

	got := h.notifier.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelDestructive, got[0].Level)
	assert.Equal(t, "Import completed", got[0].Title)
	assert.Contains(t, got[0].Message, "2 failed")
}

func TestUploadResult_Summary(t *testing.T) {
	assert.Equal(t, "3 succeeded, 0 failed", UploadResult{SuccessCount: 3}.Summary())
	assert.Equal(t, "1 succeeded, 2 failed: a: x; b: y", UploadResult{
		SuccessCount: 1, ErrorCount: 2, Errors: []string{"a: x", "b: y"},
	}.Summary())
	assert.Equal(t, "0 succeeded, 4 failed: a; b; c; …", UploadResult{
		ErrorCount: 4, Errors: []string{"a", "b", "c", "d"},
	}.Summary())
}
