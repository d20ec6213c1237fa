package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// codec converts Settings to and from one on-disk format. Decoding is strict:
// keys that are not part of the schema are rejected.
type codec interface {
	decode(data []byte, s *Settings) error
	encode(s Settings) ([]byte, error)
}

func codecFor(path string) codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return jsonCodec{}
	case ".toml":
		return tomlCodec{}
	default:
		return yamlCodec{}
	}
}

type yamlCodec struct{}

func (yamlCodec) decode(data []byte, s *Settings) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(s)
}

func (yamlCodec) encode(s Settings) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type tomlCodec struct{}

func (tomlCodec) decode(data []byte, s *Settings) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(s)
}

func (tomlCodec) encode(s Settings) ([]byte, error) {
	return toml.Marshal(s)
}

// jsonCodec reads and writes the settings.json layout of earlier releases.
type jsonCodec struct{}

func (jsonCodec) decode(data []byte, s *Settings) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after settings object")
	}
	return nil
}

func (jsonCodec) encode(s Settings) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
