package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/yanet-platform/mlrepeater/repeater/daemon"
	"github.com/yanet-platform/mlrepeater/repeater/repeaterpb"
)

// CtlCmd is the command line arguments shared by the management commands.
type CtlCmd struct {
	// Endpoint is the management API endpoint of a running daemon.
	Endpoint string
	// Timeout bounds a single request.
	Timeout time.Duration

	dialOptions []grpc.DialOption
}

func (m *CtlCmd) bindFlags(c *cobra.Command) {
	c.PersistentFlags().StringVarP(&m.Endpoint, "endpoint", "e", daemon.DefaultConfig().Management.Endpoint, "Management API endpoint")
	c.PersistentFlags().DurationVar(&m.Timeout, "timeout", 5*time.Second, "Request timeout")
}

func (m *CtlCmd) call(fn func(ctx context.Context, client repeaterpb.RepeaterServiceClient) error) error {
	options := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, m.dialOptions...)

	conn, err := grpc.NewClient(m.Endpoint, options...)
	if err != nil {
		return fmt.Errorf("failed to connect to the repeater daemon: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), m.Timeout)
	defer cancel()

	return fn(ctx, repeaterpb.NewRepeaterServiceClient(conn))
}

func newStateCmd(ctl *CtlCmd) *cobra.Command {
	c := &cobra.Command{
		Use:   "state",
		Short: "Show the forwarding state of a running daemon",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return ctl.call(func(ctx context.Context, client repeaterpb.RepeaterServiceClient) error {
				state, err := client.ShowState(ctx, &emptypb.Empty{})
				if err != nil {
					return fmt.Errorf("failed to show state: %w", err)
				}

				data, err := protojson.MarshalOptions{Multiline: true}.Marshal(state)
				if err != nil {
					return fmt.Errorf("failed to encode state: %w", err)
				}
				_, err = fmt.Fprintln(c.OutOrStdout(), string(data))
				return err
			})
		},
	}
	ctl.bindFlags(c)

	return c
}

func newStatsCmd(ctl *CtlCmd) *cobra.Command {
	reset := false
	all := false

	c := &cobra.Command{
		Use:   "stats",
		Short: "Show the decision counters of a running daemon",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return ctl.call(func(ctx context.Context, client repeaterpb.RepeaterServiceClient) error {
				stats, err := client.ShowStats(ctx, &emptypb.Empty{})
				if err != nil {
					return fmt.Errorf("failed to show stats: %w", err)
				}
				if err := printStats(c.OutOrStdout(), stats, all); err != nil {
					return err
				}

				if reset {
					if _, err := client.ResetStats(ctx, &emptypb.Empty{}); err != nil {
						return fmt.Errorf("failed to reset stats: %w", err)
					}
				}
				return nil
			})
		},
	}
	ctl.bindFlags(c)
	c.Flags().BoolVar(&reset, "reset", false, "Reset the counters after showing them")
	c.Flags().BoolVarP(&all, "all", "a", false, "Show zero counters too")

	return c
}

func printStats(out io.Writer, stats *structpb.Struct, all bool) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fields := stats.GetFields()
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		value := uint64(fields[name].GetNumberValue())
		if value != 0 || all {
			fmt.Fprintf(w, "%s\t%d\n", name, value)
		}
	}

	return w.Flush()
}

func newRadioCmd(ctl *CtlCmd) *cobra.Command {
	c := &cobra.Command{
		Use:   "radio",
		Short: "Manage the radios of a running daemon",
	}
	ctl.bindFlags(c)

	c.AddCommand(
		newRadioByNameCmd(ctl, "add", "Register a radio", repeaterpb.RepeaterServiceClient.AddRadio),
		newRadioByNameCmd(ctl, "remove", "Unregister a radio", repeaterpb.RepeaterServiceClient.RemoveRadio),
		newRadioByNameCmd(ctl, "primary", "Make a radio the primary one", repeaterpb.RepeaterServiceClient.SetPrimaryRadio),
		newRadioSetCmd(ctl),
	)

	return c
}

type radioCall func(
	repeaterpb.RepeaterServiceClient,
	context.Context,
	*wrapperspb.StringValue,
	...grpc.CallOption,
) (*emptypb.Empty, error)

func newRadioByNameCmd(ctl *CtlCmd, use string, short string, call radioCall) *cobra.Command {
	return &cobra.Command{
		Use:   use + " RADIO",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return ctl.call(func(ctx context.Context, client repeaterpb.RepeaterServiceClient) error {
				if _, err := call(client, ctx, wrapperspb.String(args[0])); err != nil {
					return fmt.Errorf("failed to %s radio %q: %w", use, args[0], err)
				}
				return nil
			})
		},
	}
}

func newRadioSetCmd(ctl *CtlCmd) *cobra.Command {
	fastLane := false
	noBackhaul := false

	c := &cobra.Command{
		Use:   "set RADIO",
		Short: "Change the flags of a radio",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			fields := map[string]any{"radio": args[0]}
			if c.Flags().Changed("fast-lane") {
				fields["fast_lane"] = fastLane
			}
			if c.Flags().Changed("no-backhaul") {
				fields["no_backhaul"] = noBackhaul
			}

			request, err := structpb.NewStruct(fields)
			if err != nil {
				return err
			}
			return ctl.call(func(ctx context.Context, client repeaterpb.RepeaterServiceClient) error {
				if _, err := client.UpdateRadio(ctx, request); err != nil {
					return fmt.Errorf("failed to update radio %q: %w", args[0], err)
				}
				return nil
			})
		},
	}
	c.Flags().BoolVar(&fastLane, "fast-lane", false, "Mark the radio as fast-lane")
	c.Flags().BoolVar(&noBackhaul, "no-backhaul", false, "Exclude the radio from backhaul")

	return c
}

func newPolicyCmd(ctl *CtlCmd) *cobra.Command {
	flags := []struct {
		flag  string
		field string
		usage string
		value bool
	}{
		{"enabled", "enabled", "Enable the forwarding engines", false},
		{"always-primary", "always_primary", "Drop all non-EAPOL traffic of secondary radios", false},
		{"drop-secondary-multicast", "drop_secondary_multicast", "Drop multicast on secondary radios", false},
		{"force-client-multicast", "force_client_multicast", "Convert client multicast to unicast in the data path", false},
	}

	c := &cobra.Command{
		Use:   "policy",
		Short: "Change the forwarding policy of a running daemon",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			fields := map[string]any{}
			for _, f := range flags {
				if c.Flags().Changed(f.flag) {
					fields[f.field] = f.value
				}
			}
			if len(fields) == 0 {
				return fmt.Errorf("no policy flags given")
			}

			request, err := structpb.NewStruct(fields)
			if err != nil {
				return err
			}
			return ctl.call(func(ctx context.Context, client repeaterpb.RepeaterServiceClient) error {
				if _, err := client.UpdatePolicy(ctx, request); err != nil {
					return fmt.Errorf("failed to update policy: %w", err)
				}
				return nil
			})
		},
	}
	ctl.bindFlags(c)
	for idx := range flags {
		c.Flags().BoolVar(&flags[idx].value, flags[idx].flag, false, flags[idx].usage)
	}

	return c
}
