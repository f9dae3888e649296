// Package feedback drives the air-quality LED loop.
//
// Each registered cube carrying the designated air-quality sensor gets a
// rolling window of its most recent readings. Whenever a reading lands,
// the window mean is compared against an ascending list of IAQ
// thresholds; the first band the mean fits in selects a hue, and the
// cube's LED is driven over MQTT with three actuator messages (hue,
// saturation, brightness). A mean beyond the last threshold publishes
// nothing - air that bad is outside the color scale and the LED holds
// its last state.
//
// Thresholds and hues come from configuration and must be the same
// length; this is checked again at construction so a loop can never run
// with a band that has no color.
package feedback
