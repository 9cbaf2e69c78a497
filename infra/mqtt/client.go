package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/matriops/lifeline/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled     bool        `json:"enabled" koanf:"enabled"`
	Broker      string      `json:"broker" koanf:"broker"`
	ClientID    string      `json:"client_id" koanf:"client_id"`
	Username    string      `json:"username" koanf:"username"`
	Password    string      `json:"password" koanf:"password"`
	TopicPrefix string      `json:"topic_prefix" koanf:"topic_prefix"`
	QoS         byte        `json:"qos" koanf:"qos"`
	UseTLS      bool        `json:"use_tls" koanf:"use_tls"`
	ClientCert  string      `json:"client_cert" koanf:"client_cert"`
	ClientKey   string      `json:"client_key" koanf:"client_key"`
	CABundle    string      `json:"ca_bundle" koanf:"ca_bundle"`
	MaxRetries  int         `json:"max_retries" koanf:"max_retries"`
	BackoffMS   int         `json:"backoff_ms" koanf:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-" koanf:"-"`
}

// SetDefaults fills zero fields with sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "lifeline-dispatch"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "lifeline"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PahoPublisher implements Publisher using Eclipse Paho.
type PahoPublisher struct {
	cli        pahoClient
	qos        byte
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoPublisher connects to the MQTT broker.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	opts.OnConnect = func(_ paho.Client) {
		log.Infof("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &PahoPublisher{
		cli:        c,
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:     log,
	}, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

// Publish sends the payload to the topic with exponential backoff retries.
func (p *PahoPublisher) Publish(topic string, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(p.backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoPublisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
