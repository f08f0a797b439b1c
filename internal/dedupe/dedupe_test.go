package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/auctioncore/internal/ids"
)

func TestMarkAndSeen(t *testing.T) {
	c := New(time.Minute)
	id := ids.NewOrderID()

	require.False(t, c.Seen(id))
	c.MarkTerminal(id)
	require.True(t, c.Seen(id))
}

func TestEntryExpires(t *testing.T) {
	c := New(20 * time.Millisecond)
	id := ids.NewOrderID()
	c.MarkTerminal(id)
	require.True(t, c.Seen(id))

	time.Sleep(60 * time.Millisecond)
	require.False(t, c.Seen(id))
}
