package topic

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/mitchellh/mapstructure"
)

type LoadErrorKind int

const (
	FileReadError LoadErrorKind = iota
	MalformedConfigError
)

func (k LoadErrorKind) String() string {
	switch k {
	case FileReadError:
		return "FileReadError"
	case MalformedConfigError:
		return "MalformedConfigError"
	default:
		return "UnknownLoadError"
	}
}

// LoadError is returned by Load if a topic config file can not be turned into a Descriptor.
type LoadError struct {
	Kind LoadErrorKind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%v: failed to load topic config '%v': %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Descriptor is the desired state of a single topic.
type Descriptor struct {
	Name              string
	Partitions        int32
	ReplicationFactor int16
	RetentionMs       int64
}

// descriptorFile mirrors the YAML layout of a topic config file. Integers are decoded into int64
// so that out of range values are reported instead of silently wrapping.
type descriptorFile struct {
	ReplicationFactor int64 `koanf:"replication_factor"`
	Partitions        int64 `koanf:"partitions"`
	Config            struct {
		RetentionMs int64 `koanf:"retention_ms"`
	} `koanf:"config"`
}

var requiredDescriptorKeys = []string{"replication_factor", "partitions", "config.retention_ms"}

// Load reads and parses the topic config file at path. All three fields are mandatory.
func Load(path string, name string) (Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, &LoadError{Kind: FileReadError, Path: path, Err: err}
	}

	d, err := parseDescriptor(raw, name)
	if err != nil {
		return Descriptor{}, &LoadError{Kind: MalformedConfigError, Path: path, Err: err}
	}

	return d, nil
}

func parseDescriptor(raw []byte, name string) (Descriptor, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(raw), yaml.Parser()); err != nil {
		return Descriptor{}, fmt.Errorf("failed to parse yaml: %w", err)
	}

	var missing []string
	for _, key := range requiredDescriptorKeys {
		if !k.Exists(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Descriptor{}, fmt.Errorf("missing required fields: %v", strings.Join(missing, ", "))
	}
	// mapstructure truncates floats into int fields even without weak typing
	for _, key := range requiredDescriptorKeys {
		switch v := k.Get(key); v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		default:
			return Descriptor{}, fmt.Errorf("%v must be an integer, given: %v", key, v)
		}
	}

	var f descriptorFile
	err := k.UnmarshalWithConf("", &f, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &f,
			WeaklyTypedInput: false,
		},
	})
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to decode topic config: %w", err)
	}

	if f.Partitions <= 0 || f.Partitions > math.MaxInt32 {
		return Descriptor{}, fmt.Errorf("partitions must be a positive int32, given: %v", f.Partitions)
	}
	if f.ReplicationFactor <= 0 || f.ReplicationFactor > math.MaxInt16 {
		return Descriptor{}, fmt.Errorf("replication_factor must be a positive int16, given: %v", f.ReplicationFactor)
	}
	if f.Config.RetentionMs < 0 {
		return Descriptor{}, fmt.Errorf("config.retention_ms must not be negative, given: %v", f.Config.RetentionMs)
	}

	return Descriptor{
		Name:              name,
		Partitions:        int32(f.Partitions),
		ReplicationFactor: int16(f.ReplicationFactor),
		RetentionMs:       f.Config.RetentionMs,
	}, nil
}
