// Package network publishes translation status to an MQTT broker.
package network

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/controller"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/protocol"
)

const publishTimeout = 2 * time.Second

// Commands are the remote actions accepted on the command topic
type Commands interface {
	SwitchToProfile(name string) error
	SetPaused(paused bool) error
}

// Options configures the publisher
type Options struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883
	Broker string

	// ClientID defaults to "spacepad"
	ClientID string

	// Topic is the topic prefix, default "spacepad"
	Topic string

	Logger *zap.SugaredLogger
}

// Publisher mirrors status changes to <topic>/status and the active profile
// to <topic>/profile, both retained. <topic>/online carries a last will.
type Publisher struct {
	client mqtt.Client
	topic  string
	logger *zap.SugaredLogger
}

// NewPublisher connects to the broker
func NewPublisher(opts Options) (*Publisher, error) {
	if opts.ClientID == "" {
		opts.ClientID = "spacepad"
	}
	if opts.Topic == "" {
		opts.Topic = "spacepad"
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5*time.Second).
		SetWill(opts.Topic+"/online", "false", 1, true)

	p := &Publisher{topic: opts.Topic, logger: opts.Logger}
	clientOpts.SetOnConnectHandler(func(mqtt.Client) {
		p.logger.Infof("MQTT: Connected to %s", opts.Broker)
		p.publish("online", []byte("true"))
	})
	clientOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.logger.Warnf("MQTT: Connection lost: %v", err)
	})

	p.client = mqtt.NewClient(clientOpts)
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", opts.Broker, token.Error())
	}
	return p, nil
}

func (p *Publisher) publish(suffix string, payload []byte) {
	if p.client == nil {
		return
	}
	token := p.client.Publish(p.topic+"/"+suffix, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.logger.Warnf("MQTT: Publish to %s/%s timed out", p.topic, suffix)
		return
	}
	if err := token.Error(); err != nil {
		p.logger.Warnf("MQTT: Publish error (%s): %v", suffix, err)
	}
}

// PublishStatus publishes st as JSON
func (p *Publisher) PublishStatus(st controller.Status) {
	payload, err := json.Marshal(st)
	if err != nil {
		p.logger.Errorf("MQTT: Failed to encode status: %v", err)
		return
	}
	p.publish("status", payload)
}

// PublishProfile publishes the active profile name
func (p *Publisher) PublishProfile(name string) {
	p.publish("profile", []byte(name))
}

// HandleCommands subscribes to <topic>/cmd. Payloads use the WebSocket
// message format; profile and pause messages are supported.
func (p *Publisher) HandleCommands(cmds Commands) error {
	topic := p.topic + "/cmd"
	token := p.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		if err := handleCommand(cmds, msg.Payload()); err != nil {
			p.logger.Warnf("MQTT: Rejected command on %s: %v", topic, err)
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", topic, token.Error())
	}
	p.logger.Infof("MQTT: Listening for commands on %s", topic)
	return nil
}

func handleCommand(cmds Commands, data []byte) error {
	msg, err := protocol.Decode(data)
	if err != nil {
		return err
	}
	switch msg.Type {
	case protocol.TypeProfile:
		var payload protocol.ProfilePayload
		if err := protocol.DecodePayload(msg, &payload); err != nil {
			return err
		}
		return cmds.SwitchToProfile(payload.Profile)
	case protocol.TypePause:
		var payload protocol.PausePayload
		if err := protocol.DecodePayload(msg, &payload); err != nil {
			return err
		}
		return cmds.SetPaused(payload.Paused)
	default:
		return fmt.Errorf("unsupported command %q", msg.Type)
	}
}

// Close marks the publisher offline and disconnects
func (p *Publisher) Close() {
	if p.client == nil {
		return
	}
	p.publish("online", []byte("false"))
	p.client.Disconnect(250)
}
