package alert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategory(t *testing.T) {
	require.True(t, CategoryZoneViolation.IsValid())
	require.False(t, Category("bogus").IsValid())
	require.Len(t, AllCategories, 7)
}

func TestSinkFunc(t *testing.T) {
	var got []Event
	var sink Sink = SinkFunc(func(ev Event) { got = append(got, ev) })
	sink.Send(Event{Category: CategoryNewObject, Message: "hello", Severity: SeverityLow})
	Discard.Send(Event{})
	require.Len(t, got, 1)
	require.Equal(t, "low", got[0].Severity.String())
	require.Equal(t, "severity-4", Severity(4).String())
}
