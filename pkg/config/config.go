// pkg/config/config.go

// Package config gerencia o carregamento de configurações estáticas do aplicativo.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"argus-sensors/pkg/gatt"
)

// AppConfig define a estrutura do arquivo de configuração (config.json ou config.yaml).
// Estes são os parâmetros que não mudam durante a execução do programa.
type AppConfig struct {
	AdapterID            int     `json:"adapter_id" yaml:"adapter_id"`
	SensorMAC            string  `json:"sensor_mac" yaml:"sensor_mac"`
	VirtualSensorName    string  `json:"virtual_sensor_name" yaml:"virtual_sensor_name"`
	WheelCircumferenceCM float64 `json:"wheel_circumference_cm" yaml:"wheel_circumference_cm"`
	WebAddr              string  `json:"web_addr" yaml:"web_addr"`
	LogLevel             string  `json:"log_level" yaml:"log_level"`
	MQTT                 MQTT    `json:"mqtt" yaml:"mqtt"`
}

// MQTT configura a publicação das leituras.
type MQTT struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Broker      string `json:"broker" yaml:"broker"` // host:porta
	TopicPrefix string `json:"topic_prefix" yaml:"topic_prefix"`
}

// Valores padrão aplicados depois da leitura do arquivo.
const (
	DefaultVirtualSensorName = "Argus Sensor"
	DefaultWebAddr           = ":8080"
	DefaultLogLevel          = "info"
	DefaultTopicPrefix       = "argus/sensors"
)

var ErrInvalidConfig = errors.New("config: configuração inválida")

// Load lê um arquivo de configuração do caminho fornecido e retorna uma struct AppConfig.
// Arquivos .yaml/.yml são lidos como YAML; qualquer outro como JSON.
func Load(path string) (*AppConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := &AppConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(file).Decode(cfg)
	default:
		err = json.NewDecoder(file).Decode(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: lendo %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults preenche os campos não informados.
func (c *AppConfig) ApplyDefaults() {
	if c.VirtualSensorName == "" {
		c.VirtualSensorName = DefaultVirtualSensorName
	}
	if c.WheelCircumferenceCM == 0 {
		c.WheelCircumferenceCM = gatt.DefaultWheelCircumferenceCM
	}
	if c.WebAddr == "" {
		c.WebAddr = DefaultWebAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = DefaultTopicPrefix
	}
}

// Validate confere os valores que não têm padrão razoável.
func (c *AppConfig) Validate() error {
	if c.AdapterID < 0 {
		return fmt.Errorf("%w: adapter_id negativo (%d)", ErrInvalidConfig, c.AdapterID)
	}
	if c.WheelCircumferenceCM <= 0 {
		return fmt.Errorf("%w: wheel_circumference_cm deve ser positivo (%v)", ErrInvalidConfig, c.WheelCircumferenceCM)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("%w: mqtt.broker é obrigatório com mqtt.enabled", ErrInvalidConfig)
	}
	return nil
}
