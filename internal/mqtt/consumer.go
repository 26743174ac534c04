package mqtt

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"tcu-monitor/internal/config"
	"tcu-monitor/internal/logging"
	"tcu-monitor/internal/monitor"
	"tcu-monitor/internal/telemetry"
)

// Consumer subscribes to the TCU status topics and feeds decoded events to
// the engine. Reconnect mechanics stay inside the paho client; the engine
// only hears about them as transport alerts.
type Consumer struct {
	client  mqtt.Client
	engine  *monitor.Engine
	decoder *telemetry.Decoder
	logger  *logging.Logger
	topics  []string
}

func NewConsumer(cfg config.Config, engine *monitor.Engine, logger *logging.Logger) *Consumer {
	c := &Consumer{
		engine:  engine,
		decoder: telemetry.NewDecoder(cfg.Monitor.Timezone),
		logger:  logger,
		topics:  cfg.MQTT.Topics,
	}

	broker := cfg.MQTT.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(cfg.MQTT.ClientID).
		SetUsername(cfg.MQTT.Username).
		SetPassword(cfg.MQTT.Password).
		SetKeepAlive(60 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		c.logger.Infof("Connected to MQTT broker %s", broker)
		for _, topic := range c.topics {
			if token := client.Subscribe(topic, 0, c.handleMessage); token.Wait() && token.Error() != nil {
				c.logger.Errorf("Subscribe to %s failed: %v", topic, token.Error())
			}
		}
		c.logger.Infof("Subscribed to %d topics", len(c.topics))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.logger.Errorf("MQTT connection lost: %v", err)
		c.engine.NotifyTransport(err.Error())
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		c.logger.Warnf("MQTT client reconnecting...")
	})

	c.client = mqtt.NewClient(opts)
	return c
}

// Start connects to the broker. A connect failure here is a startup error;
// later drops are handled by auto-reconnect.
func (c *Consumer) Start() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect failed: %w", token.Error())
	}
	return nil
}

// handleMessage decodes one inbound message and hands it to the engine.
// Decode failures are dropped with a warning; the transport delivers
// at-most-once and there is nothing to retry.
func (c *Consumer) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	ev, err := c.decoder.Decode(msg.Topic(), msg.Payload())
	if err != nil {
		c.logger.Warnf("Dropping message: %v", err)
		return
	}
	c.engine.QueueEvent(ev)
}

// Close disconnects from the broker, letting in-flight work finish briefly.
func (c *Consumer) Close() {
	c.client.Disconnect(250)
}
