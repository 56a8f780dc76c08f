package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/peakguard/core/model"
	"github.com/kilianp07/peakguard/core/telemetry"
	"github.com/kilianp07/peakguard/infra/mqtt"
)

func waitForMQTTReady(broker string, timeout time.Duration) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("probe")
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		lastErr = token.Error()
		time.Sleep(100 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for broker")
	}
	return lastErr
}

func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	conf := `listener 1883
allow_anonymous true
persistence false
log_dest stdout
log_type error
log_type warning
log_type notice
connection_messages true
log_timestamp true
`
	dir := t.TempDir()
	path := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{
			{
				HostFilePath:      path,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0644,
			},
		},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())
	addr := net.JoinHostPort(host, port.Port())
	if err := waitForMQTTReady(broker, 5*time.Second); err != nil {
		t.Logf("mosquitto not ready at %s: %v", addr, err)
		t.Skip("Mosquitto not ready after retries")
	}
	return cont, broker
}

func connectRawClient(broker, id string, t *testing.T) paho.Client {
	t.Helper()
	cli := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID(id))
	var connErr error
	for i := 0; i < 5; i++ {
		token := cli.Connect()
		token.Wait()
		connErr = token.Error()
		if connErr == nil {
			break
		}
		t.Logf("connect attempt %d to %s: %v", i+1, broker, connErr)
		time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
	}
	if connErr != nil {
		t.Skip("Mosquitto not ready after retries")
	}
	return cli
}

func TestTelemetryRoundTripWithMQTTContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx := context.Background()

	cont, broker := startMosquitto(ctx, t)
	defer func() { _ = cont.Terminate(ctx) }()

	client, err := mqtt.NewPahoClient(mqtt.Config{Broker: broker, ClientID: "peakguard-test"})
	if err != nil {
		t.Fatalf("paho client: %v", err)
	}
	defer func() { _ = client.Close() }()

	pub := connectRawClient(broker, "building-sim", t)
	defer pub.Disconnect(100)

	msg := telemetry.Message{
		Site: "hq",
		Features: model.Features{
			Timestamp:       time.Date(2025, 7, 14, 17, 0, 0, 0, time.UTC),
			PrimaryUse:      "Office",
			SquareFeet:      120000,
			AirTemperatureC: 31.5,
			CloudCoverage:   2,
			LoadLag1hKW:     410,
			LoadLag24hKW:    395,
		},
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	// Retained subscription happens in OnConnect, give it a moment.
	time.Sleep(250 * time.Millisecond)
	if token := pub.Publish("peakguard/telemetry/hq", 0, false, payload); token.Wait() && token.Error() != nil {
		t.Fatalf("publish: %v", token.Error())
	}

	select {
	case got := <-client.Messages():
		if got.Site != "hq" {
			t.Fatalf("site: got %q", got.Site)
		}
		if got.Features.LoadLag1hKW != 410 {
			t.Fatalf("load lag: got %v", got.Features.LoadLag1hKW)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no telemetry received over broker")
	}
}

func TestActionPublishWithMQTTContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx := context.Background()

	cont, broker := startMosquitto(ctx, t)
	defer func() { _ = cont.Terminate(ctx) }()

	received := make(chan []byte, 1)
	sub := connectRawClient(broker, "bms-sim", t)
	defer sub.Disconnect(100)
	if token := sub.Subscribe("peakguard/actions", 0, func(_ paho.Client, m paho.Message) {
		select {
		case received <- m.Payload():
		default:
		}
	}); token.Wait() && token.Error() != nil {
		t.Fatalf("subscribe: %v", token.Error())
	}

	client, err := mqtt.NewPahoClient(mqtt.Config{Broker: broker, ClientID: "peakguard-test"})
	if err != nil {
		t.Fatalf("paho client: %v", err)
	}
	defer func() { _ = client.Close() }()

	act := model.Action{
		ID:          "act-1",
		Type:        model.ActionBatteryDispatch,
		ReductionKW: 50,
		AppliedAt:   time.Now().UTC(),
		Automatic:   true,
	}
	if err := client.PublishAction("hq", act); err != nil {
		t.Fatalf("publish action: %v", err)
	}

	select {
	case payload := <-received:
		var decoded struct {
			Site   string       `json:"site"`
			Action model.Action `json:"action"`
		}
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if decoded.Site != "hq" || decoded.Action.Type != model.ActionBatteryDispatch {
			t.Fatalf("unexpected action payload: %s", payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no action received over broker")
	}
}
