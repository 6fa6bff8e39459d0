// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package padproto

import "math"

// Sensor calibration for the legacy serial frame. Every function maps a raw
// 16-bit ADC code (0-65535) to an engineering unit and has no state.

const (
	adcFullScale = 65535.0
	kelvinOffset = 273.15
)

// Load cell (m2) zero point and scale
const (
	loadCellZero        = 32768
	loadCellKgPerCount  = 0.01
	massLinearDivisor   = 1000.0
	pressureSupplyVolts = 5.0
	pressureMinVolts    = 0.5
	pressureSpanVolts   = 4.0
	pressureFullPSI     = 1000.0
)

// Thermocouple amplifier (5 mV/°C, 1.25 V at 0 °C) on a 3.3 V ADC
const (
	thermocoupleRefVolts    = 3.3
	thermocoupleOffsetVolts = 1.25
	thermocoupleVoltsPerC   = 0.005
)

// ntc describes an NTC thermistor in a divider under a pull-up resistor of the
// same nominal value.
type ntc struct {
	r0   float64 // nominal resistance at t0
	beta float64
	t0   float64 // kelvin
}

var (
	thermistorT1 = ntc{r0: 10e3, beta: 3950, t0: 25 + kelvinOffset}
	thermistorT2 = ntc{r0: 100e3, beta: 4250, t0: 25 + kelvinOffset}
)

// celsius solves the beta equation for the divider reading raw.
// Codes 0 and 65535 are a shorted or open sensor; they are clamped to the
// nearest measurable code so the result stays finite.
func (n ntc) celsius(raw uint16) float64 {
	code := float64(raw)
	if code < 1 {
		code = 1
	}
	if code > adcFullScale-1 {
		code = adcFullScale - 1
	}
	r := n.r0 * code / (adcFullScale - code)
	invT := 1/n.t0 + math.Log(r/n.r0)/n.beta
	return 1/invT - kelvinOffset
}

// MassLinear converts the m1 channel, which reports grams. Output 0 to 65.535 kg.
func MassLinear(raw uint16) float64 {
	return float64(raw) / massLinearDivisor
}

// LoadCell converts the m2 load cell amplifier output, centred on mid-scale.
// Output -327.68 to 327.67 kg.
func LoadCell(raw uint16) float64 {
	return float64(int32(raw)-loadCellZero) * loadCellKgPerCount
}

// Pressure converts a 0.5-4.5 V ratiometric 1000 psi transducer.
// Output -125 to 1125 psi; readings below 0 psi mean the sensor is
// disconnected or under its offset.
func Pressure(raw uint16) float64 {
	volts := float64(raw) / adcFullScale * pressureSupplyVolts
	return (volts - pressureMinVolts) / pressureSpanVolts * pressureFullPSI
}

// Thermistor converts the t1 10 kΩ NTC (B=3950). Mid-scale is 25 °C and
// low codes read hot. Output roughly -110.9 to 1557 °C across the clamped
// code range; the probe itself is only rated to about 150 °C.
func Thermistor(raw uint16) float64 {
	return thermistorT1.celsius(raw)
}

// Thermistor2 converts the t2 100 kΩ NTC (B=4250). Mid-scale is 25 °C.
// Output roughly -105.5 to 1070 °C across the clamped code range.
func Thermistor2(raw uint16) float64 {
	return thermistorT2.celsius(raw)
}

// Thermocouple converts the t3 K-type thermocouple amplifier output.
// Output -250 to 410 °C.
func Thermocouple(raw uint16) float64 {
	volts := float64(raw) / adcFullScale * thermocoupleRefVolts
	return (volts - thermocoupleOffsetVolts) / thermocoupleVoltsPerC
}
