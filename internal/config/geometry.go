package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PlaneRegistry is the plane-registration surface a geometry is loaded into.
type PlaneRegistry interface {
	AddPlane(sensorID int, z, sigmaX, sigmaY, scatterVariance float64, excluded bool) error
}

// PlaneGeometry describes one detector layer.
type PlaneGeometry struct {
	SensorID int     `yaml:"sensor_id"`
	Z        float64 `yaml:"z"`       // mm
	SigmaX   float64 `yaml:"sigma_x"` // mm
	SigmaY   float64 `yaml:"sigma_y"` // mm
	Excluded bool    `yaml:"excluded"`

	// ScatterVariance is the angular variance (rad²) added at the plane.
	// When nil it is derived from ThicknessX0 and the run's beam energy.
	ScatterVariance *float64 `yaml:"scatter_variance,omitempty"`
	ThicknessX0     float64  `yaml:"thickness_x0,omitempty"` // material in radiation lengths
}

// Geometry is the static telescope description for a run.
type Geometry struct {
	BeamEnergyGeV float64         `yaml:"beam_energy_gev"`
	Planes        []PlaneGeometry `yaml:"planes"`
}

// LoadGeometry reads a YAML geometry description.
func LoadGeometry(path string) (*Geometry, error) {
	cleanPath := filepath.Clean(path)
	switch ext := filepath.Ext(cleanPath); ext {
	case ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("geometry file must have .yaml or .yml extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry file: %w", err)
	}
	return ParseGeometry(data)
}

// ParseGeometry decodes and validates a YAML geometry description.
func ParseGeometry(data []byte) (*Geometry, error) {
	var g Geometry
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse geometry YAML: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	return &g, nil
}

// Validate checks the per-plane values.
func (g *Geometry) Validate() error {
	if len(g.Planes) == 0 {
		return fmt.Errorf("no planes defined")
	}
	for i, p := range g.Planes {
		if p.SigmaX <= 0 || p.SigmaY <= 0 {
			return fmt.Errorf("plane %d (sensor %d): resolutions must be positive", i, p.SensorID)
		}
		if p.ScatterVariance != nil && *p.ScatterVariance < 0 {
			return fmt.Errorf("plane %d (sensor %d): scatter_variance must be non-negative", i, p.SensorID)
		}
		if p.ScatterVariance == nil && p.ThicknessX0 > 0 && g.BeamEnergyGeV <= 0 {
			return fmt.Errorf("plane %d (sensor %d): thickness_x0 requires a positive beam_energy_gev", i, p.SensorID)
		}
	}
	return nil
}

// PlaneScatterVariance returns the scattering variance of plane i: the
// explicit value when given, else the Highland estimate for its material.
func (g *Geometry) PlaneScatterVariance(i int) float64 {
	p := g.Planes[i]
	if p.ScatterVariance != nil {
		return *p.ScatterVariance
	}
	theta := HighlandAngle(g.BeamEnergyGeV, p.ThicknessX0)
	return theta * theta
}

// Register adds every plane to the registry in file order.
func (g *Geometry) Register(r PlaneRegistry) error {
	for i, p := range g.Planes {
		if err := r.AddPlane(p.SensorID, p.Z, p.SigmaX, p.SigmaY, g.PlaneScatterVariance(i), p.Excluded); err != nil {
			return fmt.Errorf("failed to add plane for sensor %d: %w", p.SensorID, err)
		}
	}
	return nil
}

// HighlandAngle returns the RMS projected scattering angle (rad) of a unit
// charge of the given momentum (GeV) crossing x0 radiation lengths.
func HighlandAngle(energyGeV, x0 float64) float64 {
	if energyGeV <= 0 || x0 <= 0 {
		return 0
	}
	return 0.0136 / energyGeV * math.Sqrt(x0) * (1 + 0.038*math.Log(x0))
}
