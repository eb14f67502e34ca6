package activitymap_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-yamdb"
	"github.com/goliatone/go-yamdb/activitymap"
)

func TestNormalizeDefaults(t *testing.T) {
	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := yamdb.ActivityEvent{
		EventType:  yamdb.ActivityEventUserStatusChanged,
		Actor:      yamdb.ActorRef{ID: "admin-42", Type: "user"},
		UserID:     "user-100",
		FromStatus: yamdb.UserStatusPending,
		ToStatus:   yamdb.UserStatusActive,
		Metadata:   map[string]any{"ticket": "SEC-204"},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	assert.Equal(t, "admin-42", out.ActorID)
	assert.Equal(t, string(yamdb.ActivityEventUserStatusChanged), out.Verb)
	assert.Equal(t, "user", out.ObjectType)
	assert.Equal(t, "user-100", out.ObjectID)
	assert.Equal(t, "yamdb", out.Channel)
	assert.True(t, out.OccurredAt.Equal(ts))

	assert.Equal(t, "SEC-204", out.Metadata["ticket"])
	assert.Equal(t, "user", out.Metadata[activitymap.MetadataKeyActorType])
	assert.Equal(t, string(yamdb.UserStatusPending), out.Metadata[activitymap.MetadataKeyFromStatus])
	assert.Equal(t, string(yamdb.UserStatusActive), out.Metadata[activitymap.MetadataKeyToStatus])
}

func TestNormalizeFallbacks(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	out := activitymap.Normalize(yamdb.ActivityEvent{EventType: yamdb.ActivityEventSignUp},
		activitymap.WithChannel("audit"),
		activitymap.WithActorFallback("cron"),
		activitymap.WithClock(func() time.Time { return now }),
	)

	assert.Equal(t, "cron", out.ActorID)
	assert.Equal(t, "audit", out.Channel)
	assert.Empty(t, out.ObjectID)
	assert.Nil(t, out.Metadata)
	assert.True(t, out.OccurredAt.Equal(now))

	out = activitymap.Normalize(yamdb.ActivityEvent{UserID: "u-1"})
	assert.Equal(t, "u-1", out.ActorID)
}

func TestNormalizeDoesNotMutateEventMetadata(t *testing.T) {
	meta := map[string]any{"k": "v"}
	activitymap.Normalize(yamdb.ActivityEvent{
		Actor:    yamdb.ActorRef{Type: "system"},
		Metadata: meta,
	})
	assert.Equal(t, map[string]any{"k": "v"}, meta)
}

func TestJSONSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := activitymap.JSONSink(&buf)

	require.NoError(t, sink.Record(context.Background(), yamdb.ActivityEvent{
		EventType: yamdb.ActivityEventSignUp,
		UserID:    "u-1",
	}))
	require.NoError(t, sink.Record(context.Background(), yamdb.ActivityEvent{
		EventType: yamdb.ActivityEventTokenIssued,
		UserID:    "u-1",
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first activitymap.Normalized
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, string(yamdb.ActivityEventSignUp), first.Verb)
	assert.Equal(t, "u-1", first.ObjectID)
}
