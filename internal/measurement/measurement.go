// SPDX-License-Identifier: BSD-3-Clause

// Package measurement defines the typed measurement shapes produced by
// each domain's sensors and carried through the broadcast channels into
// the store.
package measurement

import "github.com/rorosen/growd/internal/threshold"

// AirField names a numeric field of an AirMeasurement, used by the
// threshold language to select what a condition evaluates against.
type AirField string

const (
	AirFieldHumidity    AirField = "humidity"
	AirFieldPressure    AirField = "pressure"
	AirFieldResistance  AirField = "resistance"
	AirFieldTemperature AirField = "temperature"
)

// AirFields enumerates the condition fields valid against Air
// measurements, for threshold.ParseThreshold to validate against.
var AirFields = threshold.Fields{
	string(AirFieldHumidity):    threshold.FieldFloat,
	string(AirFieldPressure):    threshold.FieldFloat,
	string(AirFieldResistance):  threshold.FieldFloat,
	string(AirFieldTemperature): threshold.FieldFloat,
}

// WaterLevelField names a numeric field of a WaterLevelMeasurement.
type WaterLevelField string

const (
	WaterLevelFieldDistance WaterLevelField = "distance"
)

// WaterLevelFields enumerates the condition fields valid against
// WaterLevel measurements. Distance is backed by a uint32, so it only
// accepts integer values.
var WaterLevelFields = threshold.Fields{
	string(WaterLevelFieldDistance): threshold.FieldInteger,
}

// LightField names a numeric field of a Light measurement.
type LightField string

const (
	LightFieldIlluminance LightField = "illuminance"
)

// LightFields enumerates the condition fields valid against Light
// measurements.
var LightFields = threshold.Fields{
	string(LightFieldIlluminance): threshold.FieldFloat,
}

// Air is one air-domain sample: temperature, humidity, pressure and gas
// resistance from a BME680-class sensor. Any field may be absent (nil) if
// that sensor failed to produce it for this sample.
type Air struct {
	MeasureTime int64    `json:"measure_time"`
	Label       string   `json:"label"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Pressure    *float64 `json:"pressure,omitempty"`
	Resistance  *float64 `json:"resistance,omitempty"`
}

// Field returns the named field's value and whether it was present.
func (a Air) Field(f AirField) (float64, bool) {
	switch f {
	case AirFieldHumidity:
		if a.Humidity == nil {
			return 0, false
		}
		return *a.Humidity, true
	case AirFieldPressure:
		if a.Pressure == nil {
			return 0, false
		}
		return *a.Pressure, true
	case AirFieldResistance:
		if a.Resistance == nil {
			return 0, false
		}
		return *a.Resistance, true
	case AirFieldTemperature:
		if a.Temperature == nil {
			return 0, false
		}
		return *a.Temperature, true
	default:
		return 0, false
	}
}

// Light is one light-domain sample: illuminance from a BH1750-class
// sensor.
type Light struct {
	MeasureTime int64    `json:"measure_time"`
	Label       string   `json:"label"`
	Illuminance *float64 `json:"illuminance,omitempty"`
}

// Field returns the named field's value and whether it was present.
func (l Light) Field(f LightField) (float64, bool) {
	switch f {
	case LightFieldIlluminance:
		if l.Illuminance == nil {
			return 0, false
		}
		return *l.Illuminance, true
	default:
		return 0, false
	}
}

// WaterLevel is one water-level-domain sample: distance in millimeters
// from a VL53L0X-class time-of-flight sensor.
type WaterLevel struct {
	MeasureTime int64   `json:"measure_time"`
	Label       string  `json:"label"`
	Distance    *uint32 `json:"distance,omitempty"`
}

// Field returns the named field's value and whether it was present.
func (w WaterLevel) Field(f WaterLevelField) (float64, bool) {
	switch f {
	case WaterLevelFieldDistance:
		if w.Distance == nil {
			return 0, false
		}
		return float64(*w.Distance), true
	default:
		return 0, false
	}
}
