package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/avbd2d/internal/engine"
	"github.com/san-kum/avbd2d/internal/scene"
	"github.com/san-kum/avbd2d/internal/store"
	"github.com/san-kum/avbd2d/internal/viz"
)

var (
	dataDir    string
	sceneFile  string
	dt         float64
	duration   float64
	iterations int
	alpha      float64
	beta       float64
	betaEnergy float64
	gamma      float64
	postStab   bool
	energyRamp bool
	projection string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "avbd2d",
		Short: "2D rigid and soft body physics lab",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".avbd2d", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene headless and record the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScene,
	}
	addSolverFlags(runCmd)
	runCmd.Flags().Float64Var(&duration, "time", 10.0, "simulated duration")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "run a scene with live terminal visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSolverFlags(liveCmd)

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list builtin scenes",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range scene.BuiltinNames() {
				fmt.Println(name)
			}
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a recorded run to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := store.New(dataDir)
			poses, times, err := st.LoadPoses(args[0])
			if err != nil {
				return err
			}
			return store.ExportCSV(os.Stdout, times, poses)
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a recorded run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := store.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			poses, times, err := st.LoadPoses(args[0])
			if err != nil {
				return err
			}
			return store.ExportJSON(os.Stdout, meta, times, poses)
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, scenesCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSolverFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sceneFile, "scene", "", "scene description file (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", engine.DefaultDt, "fixed timestep")
	cmd.Flags().IntVar(&iterations, "iterations", engine.DefaultIterations, "solver iterations")
	cmd.Flags().Float64Var(&alpha, "alpha", engine.DefaultAlpha, "stabilization leak")
	cmd.Flags().Float64Var(&beta, "beta", engine.DefaultBeta, "penalty ramp rate")
	cmd.Flags().Float64Var(&betaEnergy, "beta-energy", engine.DefaultBetaEnergy, "energy stiffness ramp rate")
	cmd.Flags().Float64Var(&gamma, "gamma", engine.DefaultGamma, "warm start decay")
	cmd.Flags().BoolVar(&postStab, "post-stab", true, "post-stabilization pass")
	cmd.Flags().BoolVar(&energyRamp, "energy-ramp", true, "ramp energy stiffness")
	cmd.Flags().StringVar(&projection, "projection", "adaptive", "hessian projection: clamp|abs|adaptive")
}

func loadWorld(args []string) (*scene.World, error) {
	var desc *scene.Description
	var err error
	switch {
	case sceneFile != "":
		desc, err = scene.Load(sceneFile)
	case len(args) > 0:
		desc, err = scene.Builtin(args[0])
	default:
		desc, err = scene.Builtin("boxstack")
	}
	if err != nil {
		return nil, err
	}

	w, err := scene.Build(desc)
	if err != nil {
		return nil, err
	}
	applySolverFlags(w.Solver)
	return w, nil
}

func applySolverFlags(s *engine.Solver) {
	s.SetIterations(iterations)
	s.SetAlpha(alpha)
	s.SetBeta(beta)
	s.SetBetaEnergy(betaEnergy)
	s.SetGamma(gamma)
	s.SetPostStabilization(postStab)
	s.SetUseEnergyRamp(energyRamp)
	s.SetProjectionMode(engine.ParseProjectionMode(projection))
	s.Logf = log.Printf
}

func runScene(cmd *cobra.Command, args []string) error {
	w, err := loadWorld(args)
	if err != nil {
		return err
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	steps := int(duration / dt)
	times := make([]float64, 0, steps)
	poses := make([][]float64, 0, steps)

	fmt.Printf("running %s for %.1fs (%d steps)...\n", w.Desc.Name, duration, steps)
	start := time.Now()

	for i := 0; i < steps; i++ {
		w.Solver.Step(dt)
		w.CullOutOfBounds()
		if w.Solver.UrgentStop() {
			fmt.Fprintf(os.Stderr, "urgent stop at step %d\n", i)
			break
		}

		times = append(times, float64(i+1)*dt)
		pose := make([]float64, 0, 3*len(w.Solver.Bodies()))
		for _, b := range w.Solver.Bodies() {
			p := b.Position()
			pose = append(pose, p[0], p[1], p[2])
		}
		poses = append(poses, pose)
	}
	elapsed := time.Since(start)

	meta := store.RunMetadata{
		Scene:      w.Desc.Name,
		Dt:         dt,
		Duration:   duration,
		Iterations: iterations,
		Alpha:      alpha,
		Beta:       beta,
		Gamma:      gamma,
		Metrics: map[string]float64{
			"elastic_energy": w.Solver.ElasticEnergy(),
			"bodies":         float64(len(w.Solver.Bodies())),
			"step_ms":        float64(w.Solver.StepTime().Microseconds()) / 1000,
		},
	}
	runID, err := st.Save(meta, times, poses)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", len(times))
	fmt.Println("\nmetrics:")
	for name, val := range meta.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	w, err := loadWorld(args)
	if err != nil {
		return err
	}
	w.Solver.Logf = nil

	p := tea.NewProgram(viz.NewModel(w), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tDURATION\tDT\tITER")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Iterations,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	poses, _, err := st.LoadPoses(args[0])
	if err != nil {
		return err
	}
	if len(poses) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(poses))

	numBodies := len(poses[0]) / 3
	maxPlots := 4
	if numBodies > maxPlots {
		numBodies = maxPlots
	}

	for body := 0; body < numBodies; body++ {
		data := make([]float64, len(poses))
		for i := range poses {
			col := body*3 + 1
			if col < len(poses[i]) {
				data[i] = poses[i][col]
			}
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("body %d height", body)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}
