package roomsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/remotehq/office/internal/domain"
	"github.com/remotehq/office/internal/office"
)

const roomsJSON = `[{"id":"room-1","name":"Lobby"},{"id":"focus","name":"Focus"}]`

func TestNew_PicksProviderByScheme(t *testing.T) {
	req := require.New(t)

	req.IsType(&HTTPProvider{}, New("http://example.com/rooms.json"))
	req.IsType(&HTTPProvider{}, New("https://example.com/rooms.json"))
	req.IsType(&FileProvider{}, New("./config/rooms.json"))
}

func TestFileProvider_Fetch(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "rooms.json")
	req.NoError(os.WriteFile(path, []byte(roomsJSON), 0o600))

	rooms, err := (&FileProvider{Path: path}).Fetch(context.Background())
	req.NoError(err)
	req.Len(rooms, 2)
	req.Equal(domain.RoomID("room-1"), rooms[0].ID)
	req.Equal("Focus", rooms[1].Name)
}

func TestFileProvider_MissingFile(t *testing.T) {
	_, err := (&FileProvider{Path: "/does/not/exist.json"}).Fetch(context.Background())
	require.Error(t, err)
}

func TestHTTPProvider_Fetch(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(roomsJSON))
	}))
	defer srv.Close()

	rooms, err := NewHTTPProvider(srv.URL).Fetch(context.Background())
	req.NoError(err)
	req.Len(rooms, 2)
}

func TestHTTPProvider_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL).Fetch(context.Background())
	require.Error(t, err)
}

func TestPoller_LoadsOnStartAndNotifies(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "rooms.json")
	req.NoError(os.WriteFile(path, []byte(roomsJSON), 0o600))

	reg := office.NewRegistry()
	updated := make(chan struct{}, 1)
	poller := NewPoller(&FileProvider{Path: path}, reg, time.Hour, func() {
		select {
		case updated <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx)

	select {
	case <-updated:
	case <-time.After(time.Second):
		t.Fatal("poller never reloaded")
	}
	req.Len(reg.List(), 2)
}

func TestPoller_FetchFailureKeepsCurrentSet(t *testing.T) {
	req := require.New(t)
	reg := office.NewRegistry()
	reg.Reload([]domain.Room{{ID: "keep"}})

	poller := NewPoller(&FileProvider{Path: "/does/not/exist.json"}, reg, time.Hour, nil)
	poller.reload(context.Background())

	req.Len(reg.List(), 1)
}

func TestSortLoop_PublishesOnlyAfterActivity(t *testing.T) {
	var last atomic.Int64
	published := make(chan struct{}, 8)

	lastActivity := func() time.Time { return time.UnixMilli(last.Load()) }
	loop := NewSortLoop(5*time.Millisecond, lastActivity, func() {
		published <- struct{}{}
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	// Idle office: nothing to publish
	select {
	case <-published:
		t.Fatal("published without activity")
	case <-time.After(30 * time.Millisecond):
	}

	// Activity moves the timestamp, the next tick publishes
	last.Store(time.Now().UnixMilli())
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("never published after activity")
	}
}
