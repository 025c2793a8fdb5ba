// Package generator produces fake sensor readings wrapped as CloudEvents for
// the batchdemo driver.
package generator

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/jaswdr/faker"
	"go.uber.org/zap"
)

// Event attributes.
const (
	EventType       = "io.batchz.demo.reading"
	EventSource     = "batchz/batchdemo"
	ContentTypeJSON = "application/json"
)

// Reading is the data payload of a generated event.
type Reading struct {
	Sequence int       `json:"sequence"`
	DeviceID string    `json:"deviceId"`
	Location string    `json:"location"`
	Value    float64   `json:"value"`
	Taken    time.Time `json:"taken"`
}

// Generator builds CloudEvents carrying fake readings.
type Generator struct {
	faker  faker.Faker
	logger *zap.Logger
	now    func() time.Time
}

// New creates a new event generator.
func New(logger *zap.Logger, now func() time.Time) *Generator {
	return &Generator{
		faker:  faker.New(),
		logger: logger,
		now:    now,
	}
}

// Event generates the reading event for sequence number seq.
func (g *Generator) Event(seq int) cloudevents.Event {
	taken := g.now()

	event := cloudevents.NewEvent()
	event.SetSpecVersion(cloudevents.VersionV1)
	event.SetID(uuid.New().String())
	event.SetType(EventType)
	event.SetSource(EventSource)
	event.SetTime(taken)

	reading := Reading{
		Sequence: seq,
		DeviceID: fmt.Sprintf("dev-%04d", g.faker.IntBetween(0, 9999)),
		Location: g.faker.Address().City(),
		Value:    float64(g.faker.IntBetween(0, 10000)) / 100,
		Taken:    taken,
	}
	if err := event.SetData(ContentTypeJSON, reading); err != nil {
		g.logger.Error("Failed to set event data", zap.Error(err), zap.Int("sequence", seq))
	}

	return event
}

// Decode decodes the payload of an event produced by Event.
func Decode(event cloudevents.Event) (Reading, error) {
	var reading Reading
	err := event.DataAs(&reading)
	return reading, err
}
