// Package prompt composes the natural-language prompt sent to the text
// generation provider. Pure string building, no I/O.
package prompt

import (
	"fmt"
	"strings"

	"github.com/agridesk/farm-advisory-gateway/internal/models"
)

const (
	instructionEnglish = "Respond in English."
	instructionHindi   = "Respond in Hindi using Devanagari script."
)

// Build composes the advisory prompt from the crop, region, weather reading,
// alert text and language preference. Nil temperature or wind renders as
// "unknown". Language "hi" selects the Hindi instruction; any other value
// selects English.
func Build(crop, region string, reading models.WeatherReading, alertText, language string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an experienced agricultural advisor helping a farmer growing %s in %s.\n\n", crop, region)
	fmt.Fprintf(&b, "Current weather: %s, temperature %s°C, wind %s km/h.\n", reading.Description, renderNumber(reading.Temperature), renderNumber(reading.WindSpeed))
	fmt.Fprintf(&b, "Active alert: %s\n\n", alertText)
	b.WriteString("Give one practical, actionable farming tip for today based on this weather. ")
	b.WriteString("Keep it under three sentences and avoid jargon. ")
	b.WriteString(languageInstruction(language))

	return b.String()
}

func languageInstruction(language string) string {
	if language == "hi" {
		return instructionHindi
	}
	return instructionEnglish
}

func renderNumber(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%g", *v)
}
