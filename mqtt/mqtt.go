package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	stdlog "log"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTopicPrefix is the first topic level used when none is configured.
const DefaultTopicPrefix = "station"

// Event kinds published by the station.
const (
	KindSignOn      = "sign_on"
	KindSignOff     = "sign_off"
	KindLot         = "lot"
	KindTestStarted = "test_started"
	KindTestResult  = "test_result"
	KindRejected    = "rejected"
	KindCommand     = "command"
)

// Event is the JSON payload of a station event.
type Event struct {
	Kind     string    `json:"kind"`
	Station  string    `json:"station"`
	Session  string    `json:"session,omitempty"`
	Operator string    `json:"operator,omitempty"`
	Lot      string    `json:"lot,omitempty"`
	DUT      string    `json:"dut,omitempty"`
	Result   string    `json:"result,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	Time     time.Time `json:"time"`
}

// Client wraps the MQTT client with station-specific functionality.
type Client struct {
	client       paho.Client
	clientID     string
	prefix       string
	enabled      bool
	onConnect    func()
	onDisconnect func()
}

// Config holds MQTT connection settings.
type Config struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	CACert      string `yaml:"ca_cert"`
	ClientCert  string `yaml:"client_cert"`
	ClientKey   string `yaml:"client_key"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// Handlers holds callback functions for connection state changes.
type Handlers struct {
	OnConnect    func()
	OnDisconnect func()
}

// New creates a new MQTT client. Returns a disabled no-op client if host is empty.
func New(cfg Config, clientID string, handlers Handlers) (*Client, error) {
	c := &Client{
		clientID:     clientID,
		prefix:       cfg.TopicPrefix,
		onConnect:    handlers.OnConnect,
		onDisconnect: handlers.OnDisconnect,
	}
	if c.prefix == "" {
		c.prefix = DefaultTopicPrefix
	}

	if cfg.Host == "" {
		log.Info().Msg("MQTT disabled (no host configured)")
		return c, nil
	}

	c.enabled = true

	var broker string
	var tlsConfig *tls.Config

	hasTLS := cfg.CACert != "" || cfg.ClientCert != ""

	if hasTLS {
		if cfg.Port == 0 {
			cfg.Port = 8883
		}
		broker = fmt.Sprintf("ssl://%s:%d", cfg.Host, cfg.Port)

		var err error
		tlsConfig, err = buildTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("build TLS config: %w", err)
		}
	} else {
		if cfg.Port == 0 {
			cfg.Port = 1883
		}
		broker = fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)
		log.Info().Msg("MQTT using non-TLS connection")
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetKeepAlive(60 * time.Second).
		SetConnectionLostHandler(c.handleConnectionLost).
		SetOnConnectHandler(c.handleConnect)

	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}

	c.client = paho.NewClient(opts)

	paho.ERROR = pahoLogger(zerolog.ErrorLevel)
	paho.CRITICAL = pahoLogger(zerolog.ErrorLevel)
	paho.WARN = pahoLogger(zerolog.WarnLevel)

	return c, nil
}

func pahoLogger(level zerolog.Level) *stdlog.Logger {
	w := log.Logger.With().Str("component", "mqtt").Logger()
	return stdlog.New(levelWriter{w, level}, "", 0)
}

// levelWriter writes each paho log line at a fixed zerolog level.
type levelWriter struct {
	logger zerolog.Logger
	level  zerolog.Level
}

func (w levelWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.logger.WithLevel(w.level).Msg(msg)
	return len(p), nil
}

func buildTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}
		caPool := x509.NewCertPool()
		caPool.AppendCertsFromPEM(caCert)
		tlsConfig.RootCAs = caPool
	}

	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// Connect connects to the MQTT broker. If disabled, calls onConnect immediately.
func (c *Client) Connect() error {
	if !c.enabled {
		if c.onConnect != nil {
			c.onConnect()
		}
		return nil
	}

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect: %w", token.Error())
	}
	log.Info().Str("client_id", c.clientID).Msg("MQTT connected")
	return nil
}

// Disconnect disconnects from the MQTT broker. No-op if disabled.
func (c *Client) Disconnect() {
	if !c.enabled || c.client == nil {
		return
	}
	c.client.Disconnect(250)
}

// Publish publishes a message to a topic. No-op if disabled.
func (c *Client) Publish(topic string, payload []byte) {
	if !c.enabled {
		return
	}
	c.client.Publish(topic, 0, false, payload)
}

// Topic returns the topic an event of the given kind is published on:
// <prefix>/<client id>/event/<kind>.
func (c *Client) Topic(kind string) string {
	return fmt.Sprintf("%s/%s/event/%s", c.prefix, c.clientID, kind)
}

// PublishEvent stamps ev with the station id (and the current time if
// unset) and publishes it as JSON.
func (c *Client) PublishEvent(ev Event) error {
	payload, err := c.encode(ev)
	if err != nil {
		return err
	}
	log.Debug().Str("kind", ev.Kind).RawJSON("event", payload).Msg("Publish event")
	c.Publish(c.Topic(ev.Kind), payload)
	return nil
}

func (c *Client) encode(ev Event) ([]byte, error) {
	ev.Station = c.clientID
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", ev.Kind, err)
	}
	return payload, nil
}

// IsEnabled returns whether MQTT is enabled.
func (c *Client) IsEnabled() bool {
	return c.enabled
}

func (c *Client) handleConnect(client paho.Client) {
	log.Info().Msg("MQTT connection established")
	if c.onConnect != nil {
		c.onConnect()
	}
}

func (c *Client) handleConnectionLost(client paho.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
	if c.onDisconnect != nil {
		c.onDisconnect()
	}
}
