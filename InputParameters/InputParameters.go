package InputParameters

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/gobounce/BounceAction"
	"github.com/notargets/gobounce/PathOptimizer"
	"github.com/notargets/gobounce/PathPotential"
	"github.com/notargets/gobounce/Tunneling"
	"github.com/notargets/gobounce/model_problems"
	"github.com/notargets/gobounce/types"
)

var ErrBadInput = errors.New("InputParameters: invalid input")

// Parameters obtained from the YAML input file, keys absent from the file keep
// the package defaults set in SetDefaults
type TunnelingParameters struct {
	Title        string             `json:"Title"`
	Potential    string             `json:"Potential"`
	Coefficients map[string]float64 `json:"Coefficients"`
	FalseVacuum  []float64          `json:"FalseVacuum"`
	TrueVacuum   []float64          `json:"TrueVacuum"`
	Temperatures []float64          `json:"Temperatures"`
	// Path potential
	NumberOfSegments         int     `json:"NumberOfSegments"`
	RelativeBarrierThreshold float64 `json:"RelativeBarrierThreshold"`
	// Shooting
	AllowShootingAttempts        int     `json:"AllowShootingAttempts"`
	ShootingThreshold            float64 `json:"ShootingThreshold"`
	AuxiliaryPrecisionResolution float64 `json:"AuxiliaryPrecisionResolution"`
	MaxRadiusDoublings           int     `json:"MaxRadiusDoublings"`
	// Path optimization
	NumberOfInteriorNodes     int     `json:"NumberOfInteriorNodes"`
	NodeConvergenceFraction   float64 `json:"NodeConvergenceFraction"`
	NumberOfAllowedWorsenings int     `json:"NumberOfAllowedWorsenings"`
	MinimizerTolerance        float64 `json:"MinimizerTolerance"`
	MaxPathIterations         int     `json:"MaxPathIterations"`
	InitialPathNodes          int     `json:"InitialPathNodes"`
	ParallelDegree            int     `json:"ParallelDegree"`
}

func (ip *TunnelingParameters) Parse(data []byte) (err error) {
	ip.SetDefaults()
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	if len(ip.Temperatures) == 0 {
		ip.Temperatures = []float64{0}
	}
	return ip.Validate()
}

// SetDefaults overwrites every tunable with the defaults of its stage
func (ip *TunnelingParameters) SetDefaults() {
	var (
		pp = PathPotential.DefaultParameters()
		bp = BounceAction.DefaultParameters()
		op = PathOptimizer.DefaultParameters()
		tp = Tunneling.DefaultParameters()
	)
	ip.NumberOfSegments = pp.NumberOfSegments
	ip.RelativeBarrierThreshold = pp.RelativeBarrierThreshold
	ip.AllowShootingAttempts = bp.AllowShootingAttempts
	ip.ShootingThreshold = bp.ShootingThreshold
	ip.AuxiliaryPrecisionResolution = bp.AuxiliaryPrecisionResolution
	ip.MaxRadiusDoublings = bp.MaxRadiusDoublings
	ip.NumberOfInteriorNodes = op.NumberOfInteriorNodes
	ip.NodeConvergenceFraction = op.NodeConvergenceFraction
	ip.NumberOfAllowedWorsenings = op.NumberOfAllowedWorsenings
	ip.MinimizerTolerance = op.MinimizerTolerance
	ip.MaxPathIterations = tp.MaxPathIterations
	ip.InitialPathNodes = tp.InitialPathNodes
	ip.Temperatures = []float64{0}
}

func (ip *TunnelingParameters) Validate() error {
	if len(ip.FalseVacuum) == 0 || len(ip.FalseVacuum) != len(ip.TrueVacuum) {
		return fmt.Errorf("FalseVacuum %v and TrueVacuum %v: %w", ip.FalseVacuum, ip.TrueVacuum, ErrBadInput)
	}
	for _, T := range ip.Temperatures {
		if T < 0 {
			return fmt.Errorf("temperature %g is negative: %w", T, ErrBadInput)
		}
	}
	_, err := ip.NewPotential()
	return err
}

func (ip *TunnelingParameters) NewPotential() (V types.Potential, err error) {
	return model_problems.NewPotential(ip.Potential, ip.Coefficients)
}

// CalculatorParameters assembles the parameters of every stage of the calculation
func (ip *TunnelingParameters) CalculatorParameters(verbose bool) (p Tunneling.Parameters) {
	p = Tunneling.DefaultParameters()
	p.MaxPathIterations = ip.MaxPathIterations
	p.InitialPathNodes = ip.InitialPathNodes
	p.ParallelDegree = ip.ParallelDegree
	p.Verbose = verbose
	p.Potential.NumberOfSegments = ip.NumberOfSegments
	p.Potential.RelativeBarrierThreshold = ip.RelativeBarrierThreshold
	p.Shooting.AllowShootingAttempts = ip.AllowShootingAttempts
	p.Shooting.ShootingThreshold = ip.ShootingThreshold
	p.Shooting.AuxiliaryPrecisionResolution = ip.AuxiliaryPrecisionResolution
	p.Shooting.MaxRadiusDoublings = ip.MaxRadiusDoublings
	p.Optimizer.NumberOfInteriorNodes = ip.NumberOfInteriorNodes
	p.Optimizer.NodeConvergenceFraction = ip.NodeConvergenceFraction
	p.Optimizer.NumberOfAllowedWorsenings = ip.NumberOfAllowedWorsenings
	p.Optimizer.MinimizerTolerance = ip.MinimizerTolerance
	return
}

func (ip *TunnelingParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t\t= Potential\n", ip.Potential)
	keys := make([]string, len(ip.Coefficients))
	i := 0
	for k := range ip.Coefficients {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Coefficients[%s] = %v\n", key, ip.Coefficients[key])
	}
	fmt.Printf("%v\t\t= False Vacuum\n", ip.FalseVacuum)
	fmt.Printf("%v\t\t= True Vacuum\n", ip.TrueVacuum)
	fmt.Printf("%v\t\t= Temperatures\n", ip.Temperatures)
	fmt.Printf("[%d]\t\t\t= Number of Segments\n", ip.NumberOfSegments)
	fmt.Printf("[%d]\t\t\t= Shooting Attempts\n", ip.AllowShootingAttempts)
	fmt.Printf("%8.5g\t\t= Shooting Threshold\n", ip.ShootingThreshold)
	fmt.Printf("[%d]\t\t\t= Interior Nodes\n", ip.NumberOfInteriorNodes)
	fmt.Printf("[%d]\t\t\t= Max Path Iterations\n", ip.MaxPathIterations)
}
