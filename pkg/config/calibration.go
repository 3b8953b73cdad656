package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MatchingCalibration holds the matching engine thresholds
type MatchingCalibration struct {
	NameThreshold        float64 `yaml:"name_threshold"`
	DescriptionThreshold float64 `yaml:"description_threshold"`
	DateToleranceDays    float64 `yaml:"date_tolerance_days"`
	ApproxToleranceDays  float64 `yaml:"approx_tolerance_days"`
}

// LayoutCalibration holds the diagram layout constants
type LayoutCalibration struct {
	PersonSize    float64 `yaml:"person_size"`
	PersonSpacing float64 `yaml:"person_spacing"`
	GenerationGap float64 `yaml:"generation_gap"`
}

// Calibration bundles the tunable constants of the matching and layout
// engines. The zero value is not usable; start from DefaultCalibration.
type Calibration struct {
	Matching MatchingCalibration `yaml:"matching"`
	Layout   LayoutCalibration   `yaml:"layout"`
}

// DefaultCalibration returns the calibration the engines ship with
func DefaultCalibration() Calibration {
	return Calibration{
		Matching: MatchingCalibration{
			NameThreshold:        0.60,
			DescriptionThreshold: 0.4,
			DateToleranceDays:    7,
			ApproxToleranceDays:  270,
		},
		Layout: LayoutCalibration{
			PersonSize:    50,
			PersonSpacing: 120,
			GenerationGap: 110,
		},
	}
}

// LoadCalibration reads a YAML calibration file over the defaults.
// An empty path returns the defaults unchanged.
func LoadCalibration(path string) (Calibration, error) {
	cal := DefaultCalibration()
	if path == "" {
		return cal, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cal, fmt.Errorf("failed to read calibration file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cal); err != nil {
		return cal, fmt.Errorf("failed to parse calibration file: %w", err)
	}
	if err := cal.Validate(); err != nil {
		return cal, err
	}
	return cal, nil
}

// Validate rejects calibrations the engines cannot run with
func (c Calibration) Validate() error {
	if c.Matching.NameThreshold <= 0 || c.Matching.NameThreshold > 1 {
		return fmt.Errorf("name_threshold must be in (0, 1], got %v", c.Matching.NameThreshold)
	}
	if c.Matching.DescriptionThreshold <= 0 || c.Matching.DescriptionThreshold > 1 {
		return fmt.Errorf("description_threshold must be in (0, 1], got %v", c.Matching.DescriptionThreshold)
	}
	if c.Matching.DateToleranceDays <= 0 || c.Matching.ApproxToleranceDays < c.Matching.DateToleranceDays {
		return fmt.Errorf("date tolerances must satisfy 0 < certain <= approximate, got %v and %v",
			c.Matching.DateToleranceDays, c.Matching.ApproxToleranceDays)
	}
	if c.Layout.PersonSize <= 0 || c.Layout.PersonSpacing <= 0 || c.Layout.GenerationGap <= 0 {
		return fmt.Errorf("layout constants must be positive")
	}
	return nil
}
