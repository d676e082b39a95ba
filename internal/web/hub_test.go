package web

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"argus-sensors/pkg/ble"
	"argus-sensors/pkg/gatt"
	"argus-sensors/pkg/sensor"
)

func newTestHub(t *testing.T) (*Hub, chan ble.TrainerCommand, *websocket.Conn) {
	t.Helper()
	commands := make(chan ble.TrainerCommand, 4)
	hub := NewHub(sensor.NewMonitor(0, nil), &ble.LinkState{}, commands, nil, "", nil)

	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	return hub, commands, conn
}

func TestHubForwardsTrainerCommands(t *testing.T) {
	_, commands, conn := newTestHub(t)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "setErgWatts", "payload": map[string]any{"watts": 230}}))
	select {
	case c := <-commands:
		require.Equal(t, ble.TrainerCommand{Kind: ble.CommandErg, Watts: 230}, c)
	case <-time.After(time.Second):
		t.Fatal("comando ERG não encaminhado")
	}

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "setLevel", "payload": map[string]any{"level": 3}}))
	select {
	case c := <-commands:
		require.Equal(t, ble.TrainerCommand{Kind: ble.CommandLevel, Level: 3}, c)
	case <-time.After(time.Second):
		t.Fatal("comando de nível não encaminhado")
	}
}

func TestHubSetWheelCircumference(t *testing.T) {
	hub, _, conn := newTestHub(t)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "setWheelCircumference", "payload": map[string]any{"cm": 209.6}}))
	require.Eventually(t, func() bool {
		return hub.mon.Tracker(gatt.CSCMeasurementCharUUID).State().Calibration.WheelCircumferenceCM == 209.6
	}, time.Second, 10*time.Millisecond)
}

func TestHubBroadcastStatus(t *testing.T) {
	hub, _, conn := newTestHub(t)

	_, err := hub.mon.OnCharacteristicValue(gatt.HRMeasurementCharUUID, []byte{0x00, 0x50}, time.Now())
	require.NoError(t, err)
	hub.Broadcast()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var got StatusUpdate
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, "statusUpdate", got.Type)
	require.NotNil(t, got.Sensor.HeartRate)
	require.Equal(t, uint16(80), got.Sensor.HeartRate.HeartRate)
}

func TestHandleCommandErrors(t *testing.T) {
	hub := NewHub(sensor.NewMonitor(0, nil), &ble.LinkState{}, nil, nil, "", nil)

	require.ErrorIs(t, hub.HandleCommand(Command{Type: "boost"}), ErrUnknownCommand)
	require.Error(t, hub.HandleCommand(Command{Type: "setWheelCircumference", Payload: json.RawMessage(`{"cm": 0}`)}))
	require.Error(t, hub.HandleCommand(Command{Type: "setErgWatts", Payload: json.RawMessage(`{"watts": 100}`)}))
}

func TestHandleShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(sensor.NewMonitor(0, nil), &ble.LinkState{}, nil, cancel, "", nil)

	require.NoError(t, hub.HandleCommand(Command{Type: "shutdown"}))
	require.Error(t, ctx.Err())
}
