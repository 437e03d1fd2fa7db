package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/notargets/gobounce/BounceAction"
	"github.com/notargets/gobounce/PathPotential"
	"github.com/notargets/gobounce/TunnelPath"
	"github.com/notargets/gobounce/model_problems"
)

var (
	csvFile     string
	potential   string
	temperature float64
)

/*
Convergence of the bounce action with the number of segments of the potential
along a straight path. With -potential the study is computed and appended to
the csv file, the observed orders of every study in the file are printed after.
*/
func main() {
	csvFilePtr := flag.String("csvFile", csvFile, "file containing entries of a convergence study")
	potentialPtr := flag.String("potential", potential, "run a study for this model potential first: quartic or valley")
	temperaturePtr := flag.Float64("T", temperature, "temperature of the study")
	flag.Parse()
	csvFile, potential, temperature = *csvFilePtr, *potentialPtr, *temperaturePtr
	if len(csvFile) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	if len(potential) != 0 {
		cs := runStudy(potential, temperature, []int{25, 50, 100, 200, 400, 800})
		appendCSV(csvFile, cs)
	}
	fmt.Printf("Input file: %v\n", csvFile)
	studies := readCSV(csvFile)
	titles := make([]string, 0, len(studies))
	for title := range studies {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	for _, title := range titles {
		cs := studies[title]
		fmt.Printf("Title = %s, T = %5.2f\n", cs.title, cs.temperature)
		orders := cs.ObservedOrders()
		for i := range cs.numSegments {
			fmt.Printf("%6d, %14.8e", cs.numSegments[i], cs.action[i])
			if i >= 2 {
				fmt.Printf(", order = %6.3f", orders[i-2])
			}
			fmt.Printf("\n")
		}
	}
}

type ConvergenceStudy struct {
	title       string
	temperature float64
	numSegments []int
	action      []float64
}

func NewConvergenceStudy(title string, temperature float64) *ConvergenceStudy {
	return &ConvergenceStudy{
		title:       title,
		temperature: temperature,
	}
}

func (cs *ConvergenceStudy) Add(numSegments int, action float64) {
	cs.numSegments = append(cs.numSegments, numSegments)
	cs.action = append(cs.action, action)
}

// ObservedOrders uses each run of three successive refinements by the same ratio
func (cs *ConvergenceStudy) ObservedOrders() (orders []float64) {
	for i := 2; i < len(cs.action); i++ {
		var (
			e1    = cs.action[i-2] - cs.action[i-1]
			e2    = cs.action[i-1] - cs.action[i]
			ratio = float64(cs.numSegments[i-1]) / float64(cs.numSegments[i-2])
		)
		orders = append(orders, math.Log(math.Abs(e1/e2))/math.Log(ratio))
	}
	return
}

func runStudy(name string, T float64, numSegments []int) (cs *ConvergenceStudy) {
	V, err := model_problems.NewPotential(name, nil)
	if err != nil {
		panic(err)
	}
	var (
		nf       = V.NumberOfFields()
		from, to = make([]float64, nf), make([]float64, nf)
	)
	to[0] = 1
	path, err := TunnelPath.StraightPath(from, to, 2)
	if err != nil {
		panic(err)
	}
	bs, err := BounceAction.NewShooter(BounceAction.DefaultParameters())
	if err != nil {
		panic(err)
	}
	cs = NewConvergenceStudy(name, T)
	for _, n := range numSegments {
		params := PathPotential.DefaultParameters()
		params.NumberOfSegments = n
		ep, err := PathPotential.BuildEffectivePotential(path, V, T, params)
		if err != nil {
			panic(err)
		}
		bp, err := bs.ShootBubble(path, ep)
		if err != nil {
			panic(err)
		}
		cs.Add(n, bp.BounceAction)
	}
	return
}

func appendCSV(csvFile string, cs *ConvergenceStudy) {
	var (
		f   *os.File
		err error
	)
	_, statErr := os.Stat(csvFile)
	if f, err = os.OpenFile(csvFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err != nil {
		panic(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if os.IsNotExist(statErr) {
		_ = w.Write([]string{"title", "temperature", "segments", "action"})
	}
	for i := range cs.numSegments {
		_ = w.Write([]string{cs.title, strconv.FormatFloat(cs.temperature, 'g', -1, 64),
			strconv.Itoa(cs.numSegments[i]), strconv.FormatFloat(cs.action[i], 'e', 12, 64)})
	}
	w.Flush()
	if err = w.Error(); err != nil {
		panic(err)
	}
}

func readCSV(csvFile string) (studies map[string]*ConvergenceStudy) {
	var (
		records [][]string
		err     error
		f       *os.File
		ok      bool
		cs      *ConvergenceStudy
		T       float64
		action  float64
	)
	studies = make(map[string]*ConvergenceStudy)
	if f, err = os.Open(csvFile); err != nil {
		panic(err)
	}
	defer f.Close()
	r := csv.NewReader(bufio.NewReader(f))
	if records, err = r.ReadAll(); err != nil {
		panic(err)
	}
	for i, rec := range records {
		if i == 0 {
			continue
		}
		title, ttxt, ntxt, atxt := rec[0], rec[1], rec[2], rec[3]
		n, _ := strconv.Atoi(ntxt)
		_, _ = fmt.Sscanf(ttxt, "%f", &T)
		_, _ = fmt.Sscanf(atxt, "%e", &action)
		combTitle := title + ttxt
		if cs, ok = studies[combTitle]; !ok {
			cs = NewConvergenceStudy(title, T)
			studies[combTitle] = cs
		}
		cs.Add(n, action)
	}
	return
}
