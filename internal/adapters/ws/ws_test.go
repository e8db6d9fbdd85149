package ws

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/remotehq/office/internal/config"
	"github.com/remotehq/office/internal/domain"
	"github.com/remotehq/office/internal/office"
)

func newTestHandler() (*Handler, *office.Coordinator, *office.Directory, *Hub) {
	dir := office.NewDirectory()
	reg := office.NewRegistry()
	hub := NewHub()
	coord := office.NewCoordinator(dir, reg, hub, "room-1", 0)
	h := NewHandler(hub, coord, &config.Config{ReadLimit: 32768, PingPeriod: 54 * time.Second})
	return h, coord, dir, hub
}

// drain empties a connection's send buffer and returns the decoded
// envelopes.
func drain(t *testing.T, cn *conn) []envelope {
	t.Helper()
	var out []envelope
	for {
		select {
		case data := <-cn.send:
			var env envelope
			require.NoError(t, json.Unmarshal(data, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestParseUser(t *testing.T) {
	req := require.New(t)
	h, _, _, _ := newTestHandler()

	user, err := h.parseUser(`{"id":"u1","name":"Alice","imageUrl":"http://x/a.png"}`)
	req.NoError(err)
	req.Equal(domain.UserID("u1"), user.ID)

	_, err = h.parseUser(`{"name":"no id"}`)
	req.Error(err)

	_, err = h.parseUser(`{not json`)
	req.Error(err)
}

func TestConnect_DeliversSyncEnvelope(t *testing.T) {
	req := require.New(t)
	_, coord, _, hub := newTestHandler()

	cn := newConn(nil)
	hub.add(cn)
	coord.Connect(cn.id, &domain.User{ID: "alice"}, "room-2")

	envs := drain(t, cn)
	req.NotEmpty(envs)
	req.Equal(office.EventSyncOffice, envs[0].Event)

	var snap map[domain.UserID]domain.UserInRoom
	req.NoError(json.Unmarshal(envs[0].Data, &snap))
	req.Equal(domain.RoomID("room-2"), snap["alice"].Room)

	// The enter-room broadcast reaches the same connection too
	req.Equal(office.EventEnterRoom, envs[1].Event)
}

func TestDispatch_EnterRoom(t *testing.T) {
	req := require.New(t)
	h, coord, dir, hub := newTestHandler()

	cn := newConn(nil)
	hub.add(cn)
	coord.Connect(cn.id, &domain.User{ID: "alice"}, "room-1")

	h.dispatch(cn, []byte(`{"event":"enter-room","data":{"room":"room-2"}}`))

	got, ok := dir.Get("alice")
	req.True(ok)
	req.Equal(domain.RoomID("room-2"), got.Room)
}

func TestDispatch_MeetPayloadIsBareUserID(t *testing.T) {
	req := require.New(t)
	h, coord, dir, hub := newTestHandler()

	cn := newConn(nil)
	hub.add(cn)
	coord.Connect(cn.id, &domain.User{ID: "alice"}, "room-1")

	h.dispatch(cn, []byte(`{"event":"start-meet","data":"alice"}`))
	got, _ := dir.Get("alice")
	req.True(got.User.InMeeting)

	h.dispatch(cn, []byte(`{"event":"left-meet","data":"alice"}`))
	got, _ = dir.Get("alice")
	req.False(got.User.InMeeting)
}

func TestDispatch_MalformedFramesAreNoops(t *testing.T) {
	req := require.New(t)
	h, coord, dir, hub := newTestHandler()

	cn := newConn(nil)
	hub.add(cn)
	coord.Connect(cn.id, &domain.User{ID: "alice"}, "room-1")

	h.dispatch(cn, []byte(`{not json`))
	h.dispatch(cn, []byte(`{"event":"enter-room","data":"not an object"}`))
	h.dispatch(cn, []byte(`{"event":"no-such-event","data":{}}`))

	got, ok := dir.Get("alice")
	req.True(ok)
	req.Equal(domain.RoomID("room-1"), got.Room)
}

func TestDispatch_UserActivity(t *testing.T) {
	req := require.New(t)
	h, coord, _, hub := newTestHandler()

	cn := newConn(nil)
	hub.add(cn)
	coord.Connect(cn.id, &domain.User{ID: "alice"}, "room-1")

	before := coord.LastActivity()
	time.Sleep(2 * time.Millisecond)
	h.dispatch(cn, []byte(`{"event":"user-activity"}`))

	req.True(coord.LastActivity().After(before))
}

func TestTrySend_Backpressure(t *testing.T) {
	req := require.New(t)
	cn := newConn(nil)

	for i := 0; i < sendBuffer; i++ {
		req.NoError(cn.TrySend([]byte(fmt.Sprintf("frame-%d", i))))
	}
	req.ErrorIs(cn.TrySend([]byte("one too many")), ErrBackpressure)
}

func TestBroadcast_SlowConsumerIsIsolated(t *testing.T) {
	req := require.New(t)
	hub := NewHub()

	slow := newConn(nil)
	fast := newConn(nil)
	hub.add(slow)
	hub.add(fast)
	for i := 0; i < sendBuffer; i++ {
		req.NoError(slow.TrySend([]byte("x")))
	}

	hub.Broadcast(office.EventUpdateRooms, []domain.Room{{ID: "a"}})

	envs := drain(t, fast)
	req.Len(envs, 1)
	req.Equal(office.EventUpdateRooms, envs[0].Event)
}

func TestUnicast_UnknownConnIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Unicast("ghost", office.EventAnswerKnock, nil)
}
