package audit

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"pump_control/internal/decision"
	"pump_control/internal/models"
)

// pointWriter is the part of api.WriteAPIBlocking the sink needs.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxSink stores one "pump_cycle" point per record plus one "zone" point
// per numeric zone reading of the attached snapshot.
type InfluxSink struct {
	writer pointWriter
}

func NewInfluxSink(client influxdb2.Client, org, bucket string) *InfluxSink {
	return &InfluxSink{writer: client.WriteAPIBlocking(org, bucket)}
}

func (s *InfluxSink) Publish(ctx context.Context, rec models.AuditRecord) error {
	points := []*write.Point{cyclePoint(rec)}
	if rec.Snapshot != nil {
		points = append(points, zonePoints(rec)...)
	}
	if err := s.writer.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

func cyclePoint(rec models.AuditRecord) *write.Point {
	tags := map[string]string{
		"site":   rec.Site,
		"status": string(rec.Status),
	}
	fields := map[string]interface{}{
		"status_code": rec.StatusCode,
		"written":     rec.Result != nil && rec.Result.AppliedValue != nil,
	}
	if rec.Decision != nil {
		if rec.Decision.DesiredValue != nil {
			fields["desired"] = *rec.Decision.DesiredValue
		}
		if rec.Decision.ObservedValue != nil {
			fields["observed"] = *rec.Decision.ObservedValue
		}
	}
	return influxdb2.NewPoint("pump_cycle", tags, fields, rec.OccurredAt)
}

func zonePoints(rec models.AuditRecord) []*write.Point {
	var out []*write.Point
	for _, d := range rec.Snapshot.Devices {
		out = append(out, influxdb2.NewPoint("sentinel",
			map[string]string{"device": d.Name},
			map[string]interface{}{"power_on": d.PowerState == models.PowerOn, "online": d.IsOnline},
			rec.Snapshot.FetchedAt))
		for _, z := range d.Zones {
			if z.Kind != models.ZoneSensor || !z.Enabled {
				continue
			}
			v, err := decision.ParseLevel(z.RawValue, z.Units)
			if err != nil {
				continue
			}
			out = append(out, influxdb2.NewPoint("zone",
				map[string]string{"device": d.Name, "zone": z.Name, "units": z.Units},
				map[string]interface{}{"value": v},
				rec.Snapshot.FetchedAt))
		}
	}
	return out
}
