package movement

// Config carries every tunable named in the steering forces and tick
// orchestration tables. internal/config embeds this verbatim so a single
// YAML document drives both the CLI and the movement core.
type Config struct {
	EntityMass             float64 `yaml:"entityMass"`
	MaxForce               float64 `yaml:"maxForce"`
	TickRes                float64 `yaml:"tickRes"`
	TickRate               int     `yaml:"tickRate"`
	SeparationNeighbRadius float64 `yaml:"separationNeighbourRadius"`
	SeparationScale        float64 `yaml:"separationScale"`
	SeparationBufferDist   float64 `yaml:"separationBufferDist"`
	CohesionNeighbRadius   float64 `yaml:"cohesionNeighbourRadius"`
	CohesionScale          float64 `yaml:"cohesionScale"`
	AlignNeighbRadius      float64 `yaml:"alignNeighbourRadius"`
	ArriveSlowingRadius    float64 `yaml:"arriveSlowingRadius"`
	ArriveScale            float64 `yaml:"arriveScale"`
	AdjacencySepDist       float64 `yaml:"adjacencySepDist"`
	WaitTicks              int     `yaml:"waitTicks"`
	VelHistLen             int     `yaml:"velHistLen"`
	Epsilon                float64 `yaml:"epsilon"`
	ClearpathNeighbRadius  float64 `yaml:"clearpathNeighbourRadius"`
}

// DefaultConfig reproduces the tuned constants table exactly.
func DefaultConfig() Config {
	return Config{
		EntityMass:             1.0,
		MaxForce:               0.75,
		TickRes:                20.0,
		TickRate:               20,
		SeparationNeighbRadius: 30.0,
		SeparationScale:        0.6,
		SeparationBufferDist:   0.0,
		CohesionNeighbRadius:   50.0,
		CohesionScale:          0.15,
		AlignNeighbRadius:      10.0,
		ArriveSlowingRadius:    10.0,
		ArriveScale:            0.5,
		AdjacencySepDist:       5.0,
		WaitTicks:              60,
		VelHistLen:             14,
		Epsilon:                1.0 / 1024.0,
		ClearpathNeighbRadius:  40.0,
	}
}
