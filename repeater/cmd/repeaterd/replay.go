package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/yanet-platform/mlrepeater/common/go/logging"
	"github.com/yanet-platform/mlrepeater/repeater/internal/replay"
)

// ReplayCmd is the command line arguments of the replay command.
type ReplayCmd struct {
	// ScenarioPath is the path to the static topology description.
	ScenarioPath string
	// CapturePath is the path to the pcap file.
	CapturePath string
	// Path is the engine to replay through.
	Path string
	// Port is the bridge port frames are seen on.
	Port string
	// Verbose enables debug logging.
	Verbose bool
}

func newReplayCmd() *cobra.Command {
	cmd := ReplayCmd{}

	c := &cobra.Command{
		Use:   "replay",
		Short: "Replay a pcap capture through the forwarding engines",
		RunE: func(c *cobra.Command, _ []string) error {
			return runReplay(cmd, c.OutOrStdout())
		},
	}
	c.Flags().StringVarP(&cmd.ScenarioPath, "scenario", "s", "", "Path to the scenario file (required)")
	c.Flags().StringVarP(&cmd.CapturePath, "pcap", "r", "", "Path to the pcap file (required)")
	c.Flags().StringVar(&cmd.Path, "path", "sta-rx", "Engine path: ap-rx, sta-rx or sta-tx")
	c.Flags().StringVarP(&cmd.Port, "port", "i", "", "Port the frames are seen on (required)")
	c.Flags().BoolVarP(&cmd.Verbose, "verbose", "v", false, "Enable debug logging")
	c.MarkFlagRequired("scenario")
	c.MarkFlagRequired("pcap")
	c.MarkFlagRequired("port")

	return c
}

func runReplay(cmd ReplayCmd, out io.Writer) error {
	path, err := replay.ParsePath(cmd.Path)
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = zapcore.WarnLevel
	if cmd.Verbose {
		logCfg.Level = zapcore.DebugLevel
	}
	log, _, err := logging.Init(&logCfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	scenario, err := replay.LoadScenario(cmd.ScenarioPath)
	if err != nil {
		return err
	}

	replayer, err := replay.NewReplayer(scenario, replay.WithLog(log))
	if err != nil {
		return fmt.Errorf("failed to build topology: %w", err)
	}

	f, err := os.Open(cmd.CapturePath)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	report, err := replayer.Replay(f, path, cmd.Port)
	if err != nil {
		return err
	}

	return printReport(out, report)
}

func printReport(out io.Writer, report *replay.Report) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "#\tSRC\tDST\tVLAN\tVERDICT")
	for _, result := range report.Results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", result.Index, result.Src, result.Dst, result.VLAN, result.Verdict)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "skipped\t%d\n", report.Skipped)
	fmt.Fprintf(w, "loop_detected\t%v\n", report.State.LoopDetected)
	for _, port := range slices.Sorted(maps.Keys(report.Sent)) {
		fmt.Fprintf(w, "sent[%s]\t%d\n", port, report.Sent[port])
	}
	for _, name := range slices.Sorted(maps.Keys(report.Stats)) {
		if v := report.Stats[name]; v != 0 {
			fmt.Fprintf(w, "%s\t%d\n", name, v)
		}
	}

	return w.Flush()
}
