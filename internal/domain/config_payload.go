package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Recognized simulation configuration fields.
const (
	FieldROSIPAddress     = "rosIPAddress"
	FieldROSProtocol      = "rosProtocol"
	FieldConnectOnStartup = "connectOnStartup"
	FieldRobotModel       = "robotModel"
	FieldEnvironmentName  = "environmentName"
)

// ROS protocol values understood by the simulation.
const (
	ROSProtocolROS1 = 0
	ROSProtocolROS2 = 1
)

// ConfigPayload is the content of a config envelope and of the persisted
// configuration file. Recognized fields are documented, not enforced:
// unknown fields pass through untouched.
type ConfigPayload map[string]any

// DefaultConfigPayload returns the configuration the control surface ships with.
func DefaultConfigPayload() ConfigPayload {
	return ConfigPayload{
		FieldROSIPAddress:     "127.0.0.1",
		FieldROSProtocol:      float64(ROSProtocolROS2),
		FieldConnectOnStartup: true,
		FieldRobotModel:       float64(0),
		FieldEnvironmentName:  "SimpleWarehouse",
	}
}

// Clone returns a shallow copy.
func (c ConfigPayload) Clone() ConfigPayload {
	out := make(ConfigPayload, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// ROSIPAddress returns the rosIPAddress field.
func (c ConfigPayload) ROSIPAddress() (string, bool) {
	v, ok := c[FieldROSIPAddress].(string)
	return v, ok
}

// ROSProtocol returns the rosProtocol field.
func (c ConfigPayload) ROSProtocol() (int, bool) {
	return intField(c[FieldROSProtocol])
}

// ConnectOnStartup returns the connectOnStartup field.
func (c ConfigPayload) ConnectOnStartup() (bool, bool) {
	v, ok := c[FieldConnectOnStartup].(bool)
	return v, ok
}

// RobotModel returns the robotModel field.
func (c ConfigPayload) RobotModel() (int, bool) {
	return intField(c[FieldRobotModel])
}

// EnvironmentName returns the environmentName field.
func (c ConfigPayload) EnvironmentName() (string, bool) {
	v, ok := c[FieldEnvironmentName].(string)
	return v, ok
}

// Check reports recognized fields whose values have the wrong type.
// Missing and unknown fields are not reported. The result is advisory;
// encoding and sending never consult it.
func (c ConfigPayload) Check() []string {
	var problems []string
	for _, key := range []string{FieldROSIPAddress, FieldEnvironmentName} {
		if v, present := c[key]; present {
			if _, ok := v.(string); !ok {
				problems = append(problems, fmt.Sprintf("%s: want string, got %T", key, v))
			}
		}
	}
	for _, key := range []string{FieldROSProtocol, FieldRobotModel} {
		if v, present := c[key]; present {
			if _, ok := intField(v); !ok {
				problems = append(problems, fmt.Sprintf("%s: want integer, got %v", key, v))
			}
		}
	}
	if v, present := c[FieldConnectOnStartup]; present {
		if _, ok := v.(bool); !ok {
			problems = append(problems, fmt.Sprintf("%s: want bool, got %T", FieldConnectOnStartup, v))
		}
	}
	return problems
}

// Keys returns the field names in sorted order.
func (c ConfigPayload) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func intField(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
