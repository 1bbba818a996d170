//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"schoolchain/internal/audit"
	"schoolchain/pkg/testutil/containers"
)

func TestKafkaSink_PublishRoundTrip(t *testing.T) {
	redpanda := containers.NewRedpandaContainer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.DiscardHandler)
	sink, err := audit.NewKafkaSink([]string{redpanda.Broker}, "schoolchain.audit.test", logger)
	require.NoError(t, err)

	require.NoError(t, sink.EnsureTopic(ctx, 1))
	// Creating an existing topic must be a no-op.
	require.NoError(t, sink.EnsureTopic(ctx, 1))

	pub := audit.NewPublisher(sink, logger)
	pub.Publish(ctx, audit.ActionCertificateIssued, map[string]any{
		"certificate_id": 1,
		"student_id":     42,
	})
	pub.Close()
	require.NoError(t, sink.Close(ctx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics("schoolchain.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, audit.ActionCertificateIssued, string(records[0].Key))

	var event audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &event))
	assert.Equal(t, audit.ActionCertificateIssued, event.Action)
	assert.EqualValues(t, 1, event.Fields["certificate_id"])
	assert.False(t, event.Timestamp.IsZero())
}
