package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"

	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/monitoring"
)

// hdopMeters converts horizontal dilution of precision to an accuracy hint,
// assuming a typical user-equivalent range error for consumer receivers.
const hdopMeters = 5.0

// rolloverSlack is how far a GGA may trail the last RMC before it is taken
// to belong to the following day.
const rolloverSlack = 12 * time.Hour

// LineSubscriber delivers raw lines, as serialmux.SerialMux does.
type LineSubscriber interface {
	Subscribe() (string, chan string)
	Unsubscribe(id string)
}

// NMEASource turns RMC and GGA sentences from a GPS receiver into fixes.
type NMEASource struct {
	lines LineSubscriber
	out   *Mailbox

	// last RMC date and stamp, used to complete GGA time-of-day stamps
	date    nmea.Date
	lastRMC time.Time
}

// NewNMEASource reads sentences from lines and puts fixes into out.
func NewNMEASource(lines LineSubscriber, out *Mailbox) *NMEASource {
	return &NMEASource{lines: lines, out: out}
}

// Run consumes lines until ctx is cancelled or the line channel closes.
func (n *NMEASource) Run(ctx context.Context) error {
	id, ch := n.lines.Subscribe()
	defer n.lines.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-ch:
			if !ok {
				return nil
			}
			fix, ok, err := n.Parse(line)
			if err != nil {
				monitoring.Logf("nmea: %v", err)
				continue
			}
			if ok {
				n.out.Put(fix)
			}
		}
	}
}

// Parse decodes one sentence. ok is false for sentences that carry no usable
// position: other sentence types, void RMC and invalid GGA fixes.
func (n *NMEASource) Parse(line string) (fix geo.Fix, ok bool, err error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return geo.Fix{}, false, nil
	}
	s, err := nmea.Parse(line)
	if err != nil {
		return geo.Fix{}, false, fmt.Errorf("parse %q: %w", line, err)
	}

	switch s.DataType() {
	case nmea.TypeRMC:
		rmc := s.(nmea.RMC)
		if rmc.Date.Valid {
			n.date = rmc.Date
			if at := stamp(rmc.Date, rmc.Time); !at.IsZero() {
				n.lastRMC = at
			}
		}
		if rmc.Validity != nmea.ValidRMC {
			return geo.Fix{}, false, nil
		}
		return geo.Fix{
			Point:  geo.Point{Lat: rmc.Latitude, Lon: rmc.Longitude},
			Time:   stamp(rmc.Date, rmc.Time),
			Source: "nmea:rmc",
		}, true, nil

	case nmea.TypeGGA:
		gga := s.(nmea.GGA)
		if gga.FixQuality == nmea.Invalid || gga.FixQuality == "" {
			return geo.Fix{}, false, nil
		}
		return geo.Fix{
			Point:    geo.Point{Lat: gga.Latitude, Lon: gga.Longitude},
			Time:     n.ggaTime(gga.Time),
			Accuracy: gga.HDOP * hdopMeters,
			Source:   "nmea:gga",
		}, true, nil
	}
	return geo.Fix{}, false, nil
}

// ggaTime dates a GGA time of day with the last RMC date. A time of day far
// behind the last RMC means the day rolled over before the next RMC arrived.
func (n *NMEASource) ggaTime(t nmea.Time) time.Time {
	at := stamp(n.date, t)
	if !at.IsZero() && !n.lastRMC.IsZero() && n.lastRMC.Sub(at) > rolloverSlack {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// stamp combines an NMEA date and time of day in UTC. The zero time is
// returned when either half is missing; the session then uses its tick time.
func stamp(d nmea.Date, t nmea.Time) time.Time {
	if !d.Valid || !t.Valid {
		return time.Time{}
	}
	return time.Date(2000+d.YY, time.Month(d.MM), d.DD,
		t.Hour, t.Minute, t.Second, t.Millisecond*int(time.Millisecond), time.UTC)
}
