package realtime

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ev(id string, at time.Time) Event {
	return Event{Topic: "t", Type: EventInsert, ID: id, CreatedAt: at}
}

func ids(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestTopics(t *testing.T) {
	assert.Equal(t, DirectTopic("a", "b"), DirectTopic("b", "a"))
	assert.Equal(t, "dm:a:b", DirectTopic("b", "a"))
	assert.Equal(t, "community:n1", CommunityTopic("n1"))
	assert.Equal(t, "request:r1", RequestTopic("r1"))
}

func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("request:1", 4)
	other := hub.Subscribe("request:2", 4)

	assert.Equal(t, 1, hub.Deliver(Event{Topic: "request:1", ID: "m1"}))

	got := <-sub.C
	assert.Equal(t, "m1", got.ID)
	assert.Len(t, other.C, 0)

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	_, open := <-sub.C
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers("request:1"))
	assert.Equal(t, 1, hub.Subscribers("request:2"))
}

func TestHubDropsWhenFull(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("x", 1)
	defer hub.Unsubscribe(sub)

	assert.Equal(t, 1, hub.Deliver(Event{Topic: "x", ID: "1"}))
	assert.Equal(t, 0, hub.Deliver(Event{Topic: "x", ID: "2"}))
}

func TestThreadMergesBufferedEvents(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	th := NewThread()
	assert.Equal(t, StateIdle, th.State())
	assert.False(t, th.Apply(ev("ignored", base)))

	th.BeginLoad()
	assert.Equal(t, StateLoading, th.State())
	assert.False(t, th.Apply(ev("m3", base.Add(3*time.Second))))
	assert.False(t, th.Apply(ev("m2", base.Add(2*time.Second))))

	items := th.Finish([]Event{ev("m1", base.Add(time.Second)), ev("m2", base.Add(2*time.Second))})
	assert.Equal(t, StateLoaded, th.State())
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(items))
}

func TestThreadDeduplicatesLiveEvents(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	th := NewThread()
	th.BeginLoad()
	th.Finish([]Event{ev("m1", base), ev("m3", base.Add(2*time.Second))})

	assert.True(t, th.Apply(ev("m2", base.Add(time.Second))))
	assert.False(t, th.Apply(ev("m2", base.Add(time.Second))))
	assert.False(t, th.Apply(ev("m1", base)))

	require.Equal(t, []string{"m1", "m2", "m3"}, ids(th.Items()))
}

func TestThreadOrdersTiesByID(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	th := NewThread()
	th.BeginLoad()
	items := th.Finish([]Event{ev("b", at), ev("a", at)})
	assert.Equal(t, []string{"a", "b"}, ids(items))
}

func TestThreadFailReturnsToIdle(t *testing.T) {
	th := NewThread()
	th.BeginLoad()
	th.Apply(ev("m1", time.Now()))
	th.Fail()
	assert.Equal(t, StateIdle, th.State())
	assert.Empty(t, th.Finish(nil))
}

func TestBoundedThreadKeepsNewestRows(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	th := NewBoundedThread(2)
	th.BeginLoad()
	rows := th.Finish([]Event{ev("m1", base), ev("m2", base.Add(time.Second)), ev("m3", base.Add(2*time.Second))})

	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(rows))
	assert.Equal(t, []string{"m2", "m3"}, ids(th.Items()))

	for i := 4; i <= 50; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		require.True(t, th.Apply(ev(fmt.Sprintf("m%02d", i), at)))
	}
	assert.Len(t, th.Items(), 2)
	assert.Equal(t, []string{"m49", "m50"}, ids(th.Items()))

	// dropped rows stay de-duplicated
	assert.False(t, th.Apply(ev("m1", base)))
	assert.False(t, th.Apply(ev("m10", base.Add(10*time.Second))))
	assert.False(t, th.Apply(ev("m50", base.Add(50*time.Second))))
	assert.True(t, th.Apply(ev("m51", base.Add(51*time.Second))))
	assert.Len(t, th.Items(), 2)
}
