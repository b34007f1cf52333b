package acquisition

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/bemserver/acquisition-engine/internal/decoder"
	"github.com/bemserver/acquisition-engine/internal/metrics"
	"github.com/bemserver/acquisition-engine/internal/model"
	"github.com/bemserver/acquisition-engine/internal/store"
)

// onMessage is the MQTT message callback shared by every subscribed topic:
// it decodes the payload, records reception for heartbeat tracking, and
// either opens/extends a decode-failure event or enqueues one point per
// resolved link onto the subscriber's writer.
func onMessage(ctx context.Context, dec decoder.Decoder, links []store.ResolvedTopicLink, w *writer, events *eventTracker, log zerolog.Logger, topic string, payload []byte) {
	now := time.Now().UTC()
	events.touchReception(now)
	metrics.MQTTMessagesTotal.WithLabelValues(topic).Inc()

	ts, values, err := dec.Decode(payload)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Str("decoder", dec.Name()).Msg("payload decode failed")
		metrics.DecodeFailuresTotal.WithLabelValues(dec.Name()).Inc()
		events.recordFailure(ctx, now, topic, model.TargetTimeseries, 0, err.Error())
		return
	}

	for _, link := range links {
		value, ok := values[link.FieldName]
		if !ok {
			log.Warn().Str("topic", topic).Str("field", link.FieldName).Msg("decoded payload missing a linked field")
			continue
		}
		w.add(model.TimeseriesData{
			TimeseriesID: link.Link.TimeseriesID,
			Timestamp:    ts,
			Value:        value,
		})
	}
}
