package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "sim", "source":
		return simTemplate, nil
	case "sim-dr", "distributed":
		return simDistributedTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const simTemplate = `name = "nocsim"
routing = "source"
ranks = []

[mesh]
x_dim = 4
y_dim = 4
tiles = 16

[ps]
endpoints = 2
max_packet = 32

[tdm]
channels = 2
max_message_len = 16

[[tdm.links]]
a_tile = 0
a_channel = 0
b_tile = 1
b_channel = 0

[[tdm.links]]
a_tile = 2
a_channel = 0
b_tile = 3
b_channel = 0

[admin]
addr = ":9200"
cors_origins = ["http://localhost:3000"]
`

const simDistributedTemplate = `name = "nocsim-dr"
routing = "distributed"

[mesh]
x_dim = 8
y_dim = 8

[ps]
endpoints = 2
max_packet = 64

[tdm]
channels = 1
max_message_len = 32

[[tdm.links]]
a_tile = 0
a_channel = 0
b_tile = 63
b_channel = 0

[admin]
addr = ":9200"
cors_origins = ["http://localhost:3000"]
`
