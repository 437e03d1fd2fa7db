package Tunneling

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/notargets/gobounce/BounceAction"
	"github.com/notargets/gobounce/PathOptimizer"
	"github.com/notargets/gobounce/PathPotential"
	"github.com/notargets/gobounce/TunnelPath"
	"github.com/notargets/gobounce/types"
	"github.com/notargets/gobounce/utils"
)

var ErrBadParameters = errors.New("Tunneling: invalid parameters")

type Parameters struct {
	MaxPathIterations int
	InitialPathNodes  int
	ParallelDegree    int // Goroutines used by RunTemperatures, 0 means one per CPU
	Verbose           bool
	Potential         PathPotential.Parameters
	Shooting          BounceAction.Parameters
	Optimizer         PathOptimizer.Parameters
}

func DefaultParameters() Parameters {
	return Parameters{
		MaxPathIterations: 20,
		InitialPathNodes:  2,
		Potential:         PathPotential.DefaultParameters(),
		Shooting:          BounceAction.DefaultParameters(),
		Optimizer:         PathOptimizer.DefaultParameters(),
	}
}

func (p Parameters) Validate() (err error) {
	switch {
	case p.MaxPathIterations < 1:
		return fmt.Errorf("MaxPathIterations = %d: %w", p.MaxPathIterations, ErrBadParameters)
	case p.InitialPathNodes < 2:
		return fmt.Errorf("InitialPathNodes = %d: %w", p.InitialPathNodes, ErrBadParameters)
	case p.ParallelDegree < 0:
		return fmt.Errorf("ParallelDegree = %d: %w", p.ParallelDegree, ErrBadParameters)
	}
	if err = p.Potential.Validate(); err != nil {
		return
	}
	if err = p.Shooting.Validate(); err != nil {
		return
	}
	return p.Optimizer.Validate()
}

// Result is the lowest action found over all the path iterations of one run
type Result struct {
	Temperature       float64
	TunnelingPossible bool
	Status            PathPotential.BarrierStatus
	BounceAction      float64
	ThermalAction     float64
	Profile           *BounceAction.BubbleProfile
	Path              *TunnelPath.LinearSplinePath
	Iterations        int
	BestIteration     int
	Converged         bool // The optimizer stopped before the iteration budget ran out
	Elapsed           time.Duration
}

// SurvivalExponent is the action in the exponent of the decay rate, infinite
// when tunneling is not possible
func SurvivalExponent(r *Result) float64 {
	if r == nil || !r.TunnelingPossible {
		return math.Inf(1)
	}
	return r.ThermalAction
}

type Calculator struct {
	V       types.Potential
	Params  Parameters
	shooter *BounceAction.Shooter
}

func NewCalculator(V types.Potential, params Parameters) (c *Calculator, err error) {
	if err = params.Validate(); err != nil {
		return
	}
	c = &Calculator{
		V:      V,
		Params: params,
	}
	c.shooter, err = BounceAction.NewShooter(params.Shooting)
	return
}

/*
Run alternates building the potential along the current path, shooting the
bubble on it and moving the path nodes, starting from a straight path between
the vacua. A path without a barrier is not an error, the result then reports
TunnelingPossible == false.
*/
func (c *Calculator) Run(falseVacuum, trueVacuum types.Vacuum, temperature float64) (res *Result, err error) {
	var (
		start = time.Now()
		path  *TunnelPath.LinearSplinePath
		ho    *PathOptimizer.HyperplaneOptimizer
	)
	if path, err = TunnelPath.StraightPath(falseVacuum.Fields, trueVacuum.Fields, c.Params.InitialPathNodes); err != nil {
		return
	}
	if ho, err = PathOptimizer.New(c.V, temperature, falseVacuum, trueVacuum, c.Params.Optimizer); err != nil {
		return
	}
	res = &Result{Temperature: temperature}
	if c.Params.Verbose {
		fmt.Printf("Tunneling from %s to %s at T = %8.5f\n", falseVacuum, trueVacuum, temperature)
		fmt.Printf("    iter      action  attempts  good    nodes_moved\n")
	}
	for iter := 0; iter < c.Params.MaxPathIterations; iter++ {
		var (
			ep         *PathPotential.PotentialAlongPath
			bp         *BounceAction.BubbleProfile
			next       *TunnelPath.LinearSplinePath
			canImprove bool
		)
		if ep, err = PathPotential.BuildEffectivePotential(path, c.V, temperature, c.Params.Potential); err != nil {
			return nil, err
		}
		if !ep.EnergyBarrierWasResolved() {
			if iter == 0 {
				res.Status = ep.Status()
			}
			// A later path that lost its barrier ends the search with what was found before it
			break
		}
		if bp, err = c.shooter.ShootBubble(path, ep); err != nil {
			return nil, err
		}
		res.Iterations = iter + 1
		if !res.TunnelingPossible || bp.BounceAction < res.BounceAction {
			res.TunnelingPossible = true
			res.Status = ep.Status()
			res.BounceAction, res.ThermalAction = bp.BounceAction, bp.ThermalAction()
			res.Profile, res.Path, res.BestIteration = bp, path, iter
		}
		if next, canImprove, err = ho.ImprovePath(path, bp); err != nil {
			return nil, err
		}
		if c.Params.Verbose {
			fmt.Printf("%8d%12.5e%10d%6v%15.5e\n", iter, bp.BounceAction, bp.Attempts, bp.GoodEnough,
				maxOf(ho.LastSquaredDisplacements()))
		}
		if !canImprove {
			res.Converged = true
			break
		}
		path = next
	}
	res.Elapsed = time.Since(start)
	if c.Params.Verbose {
		c.PrintFinal(res)
	}
	return
}

func maxOf(x []float64) (m float64) {
	for _, v := range x {
		m = math.Max(m, v)
	}
	return
}

func (c *Calculator) PrintFinal(res *Result) {
	if !res.TunnelingPossible {
		fmt.Printf("No tunneling at T = %8.5f: %s\n", res.Temperature, res.Status)
		return
	}
	fmt.Printf("Best action = %12.5e (thermal %12.5e) at iteration %d of %d, converged = %v\n",
		res.BounceAction, res.ThermalAction, res.BestIteration, res.Iterations, res.Converged)
	fmt.Printf("Elapsed = %v, %s\n", res.Elapsed, utils.GetMemUsage())
}

/*
RunTemperatures runs the whole calculation for each temperature, with the
vacua held at fixed field values. Temperatures are split over goroutines, every
run owns all of its state so only the potential is shared, and it has to be
safe for concurrent use.
*/
func (c *Calculator) RunTemperatures(falseVacuum, trueVacuum []float64, temperatures []float64) (results []*Result, err error) {
	var (
		NP   = c.Params.ParallelDegree
		errs = make([]error, len(temperatures))
		wg   = sync.WaitGroup{}
	)
	if NP == 0 {
		NP = runtime.NumCPU()
	}
	if NP > len(temperatures) {
		NP = len(temperatures)
	}
	results = make([]*Result, len(temperatures))
	if NP == 0 {
		return
	}
	pm := utils.NewPartitionMap(NP, len(temperatures))
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			kMin, kMax := pm.GetBucketRange(np)
			for k := kMin; k < kMax; k++ {
				T := temperatures[k]
				fv, err := types.NewVacuum(c.V, falseVacuum, T)
				if err != nil {
					errs[k] = err
					continue
				}
				tv, err := types.NewVacuum(c.V, trueVacuum, T)
				if err != nil {
					errs[k] = err
					continue
				}
				if results[k], err = c.Run(fv, tv, T); err != nil {
					errs[k] = fmt.Errorf("T = %g: %w", T, err)
				}
			}
		}(np)
	}
	wg.Wait()
	err = errors.Join(errs...)
	return
}
