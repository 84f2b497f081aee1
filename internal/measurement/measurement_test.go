// SPDX-License-Identifier: BSD-3-Clause

package measurement

import (
	"testing"

	"github.com/rorosen/growd/internal/threshold"
)

func TestAirField(t *testing.T) {
	humidity := 55.5
	a := Air{MeasureTime: 1, Label: "bme680-1", Humidity: &humidity}

	if v, ok := a.Field(AirFieldHumidity); !ok || v != humidity {
		t.Errorf("Field(AirFieldHumidity) = (%v, %v), want (%v, true)", v, ok, humidity)
	}
	if _, ok := a.Field(AirFieldPressure); ok {
		t.Error("Field(AirFieldPressure) on an absent field: ok = true, want false")
	}
	if _, ok := a.Field(AirField("bogus")); ok {
		t.Error("Field with an unknown field name: ok = true, want false")
	}
}

func TestWaterLevelField(t *testing.T) {
	distance := uint32(340)
	w := WaterLevel{MeasureTime: 1, Label: "vl53l0x-1", Distance: &distance}

	v, ok := w.Field(WaterLevelFieldDistance)
	if !ok || v != float64(distance) {
		t.Errorf("Field(WaterLevelFieldDistance) = (%v, %v), want (%v, true)", v, ok, distance)
	}

	empty := WaterLevel{MeasureTime: 1, Label: "vl53l0x-1"}
	if _, ok := empty.Field(WaterLevelFieldDistance); ok {
		t.Error("Field on a nil Distance: ok = true, want false")
	}
}

func TestLightField(t *testing.T) {
	illuminance := 410.0
	l := Light{MeasureTime: 1, Label: "bh1750-1", Illuminance: &illuminance}

	if v, ok := l.Field(LightFieldIlluminance); !ok || v != illuminance {
		t.Errorf("Field(LightFieldIlluminance) = (%v, %v), want (%v, true)", v, ok, illuminance)
	}

	empty := Light{MeasureTime: 1, Label: "bh1750-1"}
	if _, ok := empty.Field(LightFieldIlluminance); ok {
		t.Error("Field on a nil Illuminance: ok = true, want false")
	}
}

func TestFieldSetsMatchDomainFieldNames(t *testing.T) {
	if _, ok := AirFields[string(AirFieldHumidity)]; !ok {
		t.Error("AirFields missing humidity")
	}
	if kind := WaterLevelFields[string(WaterLevelFieldDistance)]; kind != threshold.FieldInteger {
		t.Errorf("WaterLevelFields[distance] = %v, want FieldInteger", kind)
	}
	if _, ok := LightFields[string(LightFieldIlluminance)]; !ok {
		t.Error("LightFields missing illuminance")
	}
}
