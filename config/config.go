package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// a type with service configuration parameters
type serviceConfig struct {
	// port on which the service listens
	Port int `yaml:"port"`
	// maximum number of allowed incoming connections
	MaxConnections int `yaml:"maxConnections"`
	// directory into which downloaded dataset files are written
	DataDirectory string `yaml:"dataDirectory"`
	// directory holding the download journal (optional -- an empty string
	// disables the journal)
	JournalDirectory string `yaml:"journalDirectory"`
	// timeout for outbound catalog requests, in seconds
	Timeout int `yaml:"timeout"`
}

// global config variables
var Service serviceConfig
var Catalogs map[string]catalogConfig

// This struct performs the unmarshalling from the YAML config file and then
// copies its fields to the globals above.
type configFile struct {
	Service  serviceConfig            `yaml:"service"`
	Catalogs map[string]catalogConfig `yaml:"catalogs"`
}

// This helper reads configuration data, returning an error indicating success
// or failure. All environment variables of the form ${ENV_VAR} are expanded.
func readConfig(bytes []byte) error {
	// before we do anything else, expand any provided environment variables
	bytes = []byte(os.ExpandEnv(string(bytes)))

	var conf configFile
	conf.Service.Port = 8080
	conf.Service.MaxConnections = 100
	conf.Service.Timeout = 60
	err := yaml.Unmarshal(bytes, &conf)
	if err != nil {
		return fmt.Errorf("Couldn't parse configuration data: %s", err.Error())
	}

	// copy the config data into place
	Service = conf.Service
	Catalogs = conf.Catalogs

	return nil
}

// This helper validates the given service parameters, returning an
// error indicating success or failure.
func validateServiceParameters(params serviceConfig) error {
	if params.Port < 0 || params.Port > 65535 {
		return fmt.Errorf("Invalid port: %d (must be 0-65535)", params.Port)
	}
	if params.MaxConnections <= 0 {
		return fmt.Errorf("Invalid maxConnections: %d (must be positive)",
			params.MaxConnections)
	}
	if params.DataDirectory == "" {
		return fmt.Errorf("No data directory was provided!")
	}
	if params.Timeout <= 0 {
		return fmt.Errorf("Invalid timeout: %d (must be positive)", params.Timeout)
	}
	return nil
}

// This helper validates the configuration, returning an error that indicates
// success or failure.
func validateConfig() error {
	err := validateServiceParameters(Service)
	if err != nil {
		return err
	}

	// were we given any catalogs?
	if len(Catalogs) == 0 {
		return fmt.Errorf("No catalogs were provided!")
	}
	for name, catalog := range Catalogs {
		if catalog.URL == "" {
			return fmt.Errorf("No URL was given for catalog '%s'", name)
		}
		if catalog.Provider == "" {
			return fmt.Errorf("No provider was given for catalog '%s'", name)
		}
	}
	return nil
}

// Initializes the service configuration using the given YAML byte data.
func Init(yamlData []byte) error {
	err := readConfig(yamlData)
	if err != nil {
		return err
	}
	return validateConfig()
}
