package notify

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-settlement/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIntent() settlement.NotificationIntent {
	return settlement.NotificationIntent{
		ID:          "0192a4c1-7f00-7000-8000-000000000001",
		TeamID:      77,
		OwnerUserID: "owner-77",
		DateKey:     "2026-10-16",
		Points:      decimal.RequireFromString("42.5"),
		CreatedAt:   time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
	}
}

func decodeMessage(t *testing.T, raw []byte) intentMessage {
	t.Helper()

	var msg intentMessage
	require.NoError(t, sonic.Unmarshal(raw, &msg))
	return msg
}

func TestEncodeIntent(t *testing.T) {
	t.Parallel()

	raw, err := encodeIntent(testIntent())
	require.NoError(t, err)

	msg := decodeMessage(t, raw)
	require.Equal(t, eventTypePointsAwarded, msg.Type)
	require.Equal(t, int64(77), msg.TeamID)
	require.Equal(t, "42.5", msg.Points)
	require.Equal(t, "2026-10-16", msg.Date)

	_, err = encodeIntent(settlement.NotificationIntent{TeamID: 1})
	require.Error(t, err)
}

func TestLogSink_WritesIntent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewJSONWriter(logging.LevelInfo, &buf)
	sink := NewLogSink(logger)

	require.Equal(t, SinkLog, sink.Name())
	require.NoError(t, sink.Publish(t.Context(), testIntent()))
	require.NoError(t, logger.Sync())

	var line map[string]any
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "team points awarded", line["msg"])
	require.Equal(t, "42.5", line["points"])
	require.EqualValues(t, 77, line["team_id"])
}

func newQStashSink(t *testing.T, handler http.HandlerFunc, breaker resilience.CircuitBreakerConfig) *QStashSink {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sink, err := NewQStashSink(QStashSinkConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		Token:          "qstash-token",
		TargetURL:      "https://hooks.example.com/settlement",
		Retries:        3,
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
	require.NoError(t, err)
	return sink
}

func TestQStashSink_PublishesWithDeduplicationID(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	sink := newQStashSink(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/publish/https://hooks.example.com/settlement", r.URL.Path)
		assert.Equal(t, "Bearer qstash-token", r.Header.Get("Authorization"))
		assert.Equal(t, testIntent().ID, r.Header.Get("Upstash-Deduplication-Id"))
		assert.Equal(t, "3", r.Header.Get("Upstash-Retries"))
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}, resilience.CircuitBreakerConfig{})

	require.NoError(t, sink.Publish(t.Context(), testIntent()))
	require.Equal(t, "owner-77", decodeMessage(t, gotBody).OwnerUserID)
}

func TestQStashSink_ClassifiesFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, transient: true},
		{name: "server error", status: http.StatusBadGateway, transient: true},
		{name: "bad request", status: http.StatusBadRequest, transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sink := newQStashSink(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}, resilience.CircuitBreakerConfig{})

			err := sink.Publish(t.Context(), testIntent())
			require.Error(t, err)
			require.Equal(t, tt.transient, IsTransient(err))
		})
	}
}

func TestQStashSink_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	sink := newQStashSink(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	for i := 0; i < 2; i++ {
		require.Error(t, sink.Publish(t.Context(), testIntent()))
	}
	err := sink.Publish(t.Context(), testIntent())
	require.ErrorIs(t, err, usecase.ErrDependencyUnavailable)
	require.Equal(t, int32(2), calls.Load())
}

func TestNewQStashSink_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := NewQStashSink(QStashSinkConfig{BaseURL: "ftp://qstash", Token: "t", TargetURL: "https://x"})
	require.Error(t, err)

	_, err = NewQStashSink(QStashSinkConfig{BaseURL: "https://qstash.upstash.io", TargetURL: "https://x"})
	require.Error(t, err)
}

func TestBuildQStashCurlPreview_MasksToken(t *testing.T) {
	t.Parallel()

	preview := buildQStashCurlPreview("https://qstash/v2/publish/https://x", 2, "id-1", `{"a":"it's"}`)
	require.Contains(t, preview, "Authorization: Bearer ***")
	require.Contains(t, preview, "Upstash-Deduplication-Id: id-1")
	require.Contains(t, preview, `'{"a":"it'"'"'s"}'`)
}

type fakeJetStream struct {
	msgs []*nats.Msg
	opts []int
	err  error
}

func (f *fakeJetStream) PublishMsg(_ context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, msg)
	f.opts = append(f.opts, len(opts))
	return &jetstream.PubAck{Stream: defaultStreamName, Sequence: uint64(len(f.msgs))}, nil
}

func TestJetStreamSink_PublishesPerTeamSubject(t *testing.T) {
	t.Parallel()

	js := &fakeJetStream{}
	cfg := normalizeJetStreamConfig(JetStreamSinkConfig{SubjectPrefix: "fantasy.points.", Logger: logging.NewNop()})
	sink := newJetStreamSink(nil, js, cfg, cfg.Logger)

	require.Equal(t, SinkNATS, sink.Name())
	require.NoError(t, sink.Publish(t.Context(), testIntent()))
	require.Len(t, js.msgs, 1)
	require.Equal(t, "fantasy.points.team.77", js.msgs[0].Subject)
	require.Equal(t, eventTypePointsAwarded, js.msgs[0].Header.Get("Event-Type"))
	require.Equal(t, 2, js.opts[0], "message id and expected stream")
	require.Equal(t, "42.5", decodeMessage(t, js.msgs[0].Data).Points)
	require.NoError(t, sink.Close())
}

func TestJetStreamSink_WrapsPublishError(t *testing.T) {
	t.Parallel()

	js := &fakeJetStream{err: nats.ErrNoResponders}
	cfg := normalizeJetStreamConfig(JetStreamSinkConfig{Logger: logging.NewNop()})
	sink := newJetStreamSink(nil, js, cfg, cfg.Logger)

	err := sink.Publish(t.Context(), testIntent())
	require.ErrorIs(t, err, nats.ErrNoResponders)
	require.Contains(t, err.Error(), "fantasy.settlement.team.77")
}

func TestWebhookSink_PostsIntent(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/hooks/points", r.URL.Path)
		assert.Equal(t, testIntent().ID, r.Header.Get(idempotencyKeyHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	sink, err := NewWebhookSink(WebhookSinkConfig{URL: srv.URL + "/hooks/points", Timeout: time.Second, Logger: logging.NewNop()})
	require.NoError(t, err)

	require.NoError(t, sink.Publish(t.Context(), testIntent()))
	require.Equal(t, int64(77), decodeMessage(t, gotBody).TeamID)
}

func TestWebhookSink_ServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	sink, err := NewWebhookSink(WebhookSinkConfig{URL: srv.URL, Logger: logging.NewNop()})
	require.NoError(t, err)

	err = sink.Publish(t.Context(), testIntent())
	require.Error(t, err)
	require.True(t, IsTransient(err))
	require.Contains(t, err.Error(), "down for maintenance")
}

func TestWebhookSink_RequiresURL(t *testing.T) {
	t.Parallel()

	_, err := NewWebhookSink(WebhookSinkConfig{})
	require.Error(t, err)
}
