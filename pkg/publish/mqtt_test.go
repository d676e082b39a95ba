package publish

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/stretchr/testify/require"

	"argus-sensors/pkg/config"
	"argus-sensors/pkg/sensor"
)

type fakeClient struct {
	sync.Mutex
	published    []*paho.Publish
	err          error
	disconnected bool
}

func (f *fakeClient) Connect(context.Context, *paho.Connect) (*paho.Connack, error) {
	return &paho.Connack{}, nil
}

func (f *fakeClient) Publish(_ context.Context, p *paho.Publish) (*paho.PublishResponse, error) {
	f.Lock()
	defer f.Unlock()
	f.published = append(f.published, p)
	return nil, f.err
}

func (f *fakeClient) Disconnect(*paho.Disconnect) error {
	f.Lock()
	defer f.Unlock()
	f.disconnected = true
	return nil
}

func (f *fakeClient) count() int {
	f.Lock()
	defer f.Unlock()
	return len(f.published)
}

func TestPublisherSendsJSON(t *testing.T) {
	fc := &fakeClient{}
	p := New(fc, "argus/sensors", nil)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go p.Run(ctx, &wg)

	watts := 210
	p.Publish(sensor.Reading{Characteristic: "2a63", Kind: "power", Derived: sensor.Derived{PowerWatts: &watts}})

	require.Eventually(t, func() bool { return fc.count() == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	wg.Wait()

	pub := fc.published[0]
	require.Equal(t, "argus/sensors/power/reading", pub.Topic)
	require.Equal(t, byte(0), pub.QoS)
	require.Equal(t, "application/json", pub.Properties.ContentType)

	var got map[string]any
	require.NoError(t, json.Unmarshal(pub.Payload, &got))
	require.Equal(t, "power", got["kind"])
	require.Equal(t, float64(210), got["power_watts"])
}

func TestPublisherSendError(t *testing.T) {
	fc := &fakeClient{err: errors.New("broker fora")}
	p := New(fc, "x", nil)
	require.Error(t, p.send(context.Background(), sensor.Reading{Kind: "csc"}))
}

func TestPublisherClose(t *testing.T) {
	fc := &fakeClient{}
	require.NoError(t, New(fc, "x", nil).Close())
	require.True(t, fc.disconnected)
}

func TestTopic(t *testing.T) {
	p := New(&fakeClient{}, "gym/bike1", nil)
	require.Equal(t, "gym/bike1/heart_rate/reading", p.Topic(sensor.KindHeartRate.String()))
}

// CONNACK MQTT 5 com reason code 0x87 (não autorizado).
var connackNotAuthorized = []byte{0x20, 0x03, 0x00, 0x87, 0x00}

func TestDialRefusedClosesConnection(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	closed := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			closed <- err
			return
		}
		defer conn.Close()
		if _, err := conn.Write(connackNotAuthorized); err != nil {
			closed <- err
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		// ReadAll só retorna nil quando o cliente fecha a conexão.
		_, err = io.ReadAll(conn)
		closed <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pub, err := Dial(ctx, config.MQTT{Enabled: true, Broker: ln.Addr().String(), TopicPrefix: "argus"}, nil)
	require.Error(t, err)
	require.Nil(t, pub)

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("conexão com o broker não foi fechada")
	}
}
