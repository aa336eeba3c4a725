package biodynamo

// Config enumerates the options the core consumes (spec.md §6
// "Configuration"). Construct with NewConfig for sane defaults, then
// override individual fields.
type Config struct {
	SimulationTimeStep float64

	NeuriteDefaultDiameter      float64
	NeuriteDefaultTension       float64
	NeuriteDefaultActualLength  float64
	NeuriteMinLength            float64
	NeuriteMaxLength            float64
	NeuriteMinimalBifurcationLength float64

	SphereDefaultMass      float64
	SphereDefaultAdherence float64
	SphereDefaultDiameter  float64

	SimulationMaximalDisplacement float64

	ArtificialWallsForSpheres   bool
	ArtificialWallsForCylinders bool
	BoundingBoxXMin, BoundingBoxXMax float64
	BoundingBoxYMin, BoundingBoxYMax float64
	BoundingBoxZMin, BoundingBoxZMax float64

	IntracellularDiffusionMinConcentration float64
	IntracellularDiffusionMinDCOverC       float64
}

// NewConfig returns a Config populated with the engine's documented
// defaults (spec.md §6: "default small (e.g. 0.01)" for the time step,
// the neurite/sphere bounds original_source ships as constants).
func NewConfig() *Config {
	return &Config{
		SimulationTimeStep: 0.01,

		NeuriteDefaultDiameter:          1.0,
		NeuriteDefaultTension:           0,
		NeuriteDefaultActualLength:      1.0,
		NeuriteMinLength:                2.0,
		NeuriteMaxLength:                15.0,
		NeuriteMinimalBifurcationLength: 5.0,

		SphereDefaultMass:      1.0,
		SphereDefaultAdherence: 0.1,
		SphereDefaultDiameter:  20.0,

		SimulationMaximalDisplacement: 3.0,

		ArtificialWallsForSpheres:   false,
		ArtificialWallsForCylinders: false,
		BoundingBoxXMin:             -500, BoundingBoxXMax: 500,
		BoundingBoxYMin: -500, BoundingBoxYMax: 500,
		BoundingBoxZMin: -500, BoundingBoxZMax: 500,

		IntracellularDiffusionMinConcentration: 1e-5,
		IntracellularDiffusionMinDCOverC:        1e-3,
	}
}

// ConfigOption mutates a Config at construction time.
type ConfigOption func(*Config)

// WithTimeStep overrides the simulation time step.
func WithTimeStep(dt float64) ConfigOption {
	return func(c *Config) { c.SimulationTimeStep = dt }
}

// WithBoundingBox overrides the artificial-wall bounding box.
func WithBoundingBox(xMin, xMax, yMin, yMax, zMin, zMax float64) ConfigOption {
	return func(c *Config) {
		c.BoundingBoxXMin, c.BoundingBoxXMax = xMin, xMax
		c.BoundingBoxYMin, c.BoundingBoxYMax = yMin, yMax
		c.BoundingBoxZMin, c.BoundingBoxZMax = zMin, zMax
	}
}

// WithArtificialWalls enables/disables the bounding-box restoring force for
// spheres and cylinders independently.
func WithArtificialWalls(forSpheres, forCylinders bool) ConfigOption {
	return func(c *Config) {
		c.ArtificialWallsForSpheres = forSpheres
		c.ArtificialWallsForCylinders = forCylinders
	}
}

// NewConfigWith returns NewConfig() with opts applied in order.
func NewConfigWith(opts ...ConfigOption) *Config {
	c := NewConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}
