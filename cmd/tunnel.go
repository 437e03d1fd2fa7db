/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/gobounce/InputParameters"
	"github.com/notargets/gobounce/Tunneling"
)

type ModelTunnel struct {
	ICFile     string
	CPUProfile bool
	Perf       bool
	Verbose    bool
}

// TunnelCmd represents the tunnel command
var TunnelCmd = &cobra.Command{
	Use:   "tunnel",
	Short: "Bounce action between two vacua, at each requested temperature",
	Long: `
Optimizes the tunneling path between the false and true vacuum of a model
potential and reports the bounce action found on it for each temperature,

gobounce tunnel -I input.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		mt := &ModelTunnel{}
		if mt.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		mt.CPUProfile, _ = cmd.Flags().GetBool("cpuprofile")
		mt.Perf, _ = cmd.Flags().GetBool("perf")
		mt.Verbose = viper.GetBool("verbose")
		ip := processInput(mt)
		RunTunnel(mt, ip)
	},
}

func init() {
	rootCmd.AddCommand(TunnelCmd)
	TunnelCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Potential\n\t- FalseVacuum, TrueVacuum\n\t- Temperatures")
	TunnelCmd.Flags().Bool("cpuprofile", false, "write a CPU profile of the calculation to the current directory")
	TunnelCmd.Flags().Bool("perf", false, "count the CPU instructions used by the calculation (linux only)")
}

func processInput(mt *ModelTunnel) (ip *InputParameters.TunnelingParameters) {
	var (
		err  error
		data []byte
	)
	if len(mt.ICFile) == 0 {
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Curved valley"
Potential: valley # Can be "quartic"
Coefficients:
  A: 10
  Tilt: 1
  Bend: 1
FalseVacuum: [0, 0]
TrueVacuum: [1, 0]
Temperatures: [0]
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	if data, err = os.ReadFile(mt.ICFile); err != nil {
		panic(err)
	}
	ip = &InputParameters.TunnelingParameters{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	return
}

func RunTunnel(mt *ModelTunnel, ip *InputParameters.TunnelingParameters) (results []*Tunneling.Result) {
	if mt.Verbose {
		ip.Print()
	}
	V, err := ip.NewPotential()
	if err != nil {
		panic(err)
	}
	c, err := Tunneling.NewCalculator(V, ip.CalculatorParameters(mt.Verbose))
	if err != nil {
		panic(err)
	}
	run := func() (err error) {
		results, err = c.RunTemperatures(ip.FalseVacuum, ip.TrueVacuum, ip.Temperatures)
		return
	}
	if mt.CPUProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}
	if mt.Perf {
		err = countInstructions(run)
	} else {
		err = run()
	}
	if err != nil {
		panic(err)
	}
	PrintResults(results)
	return
}

func PrintResults(results []*Tunneling.Result) {
	fmt.Printf("%12s%14s%14s%8s%11s\n", "T", "action", "exponent", "iters", "converged")
	for _, res := range results {
		if !res.TunnelingPossible {
			fmt.Printf("%12.5f  %s\n", res.Temperature, res.Status)
			continue
		}
		fmt.Printf("%12.5f%14.5e%14.5e%8d%11v\n", res.Temperature, res.BounceAction,
			Tunneling.SurvivalExponent(res), res.Iterations, res.Converged)
	}
}
