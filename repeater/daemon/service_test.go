package daemon

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
	"github.com/yanet-platform/mlrepeater/repeater"
	"github.com/yanet-platform/mlrepeater/repeater/internal/static"
	"github.com/yanet-platform/mlrepeater/repeater/repeaterpb"
)

func serveRepeater(t *testing.T, ctx *repeater.Context) repeaterpb.RepeaterServiceClient {
	t.Helper()

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	repeaterpb.RegisterRepeaterServiceServer(server, NewRepeaterService(ctx, zaptest.NewLogger(t).Sugar()))
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return repeaterpb.NewRepeaterServiceClient(conn)
}

func requireCode(t *testing.T, code codes.Code, err error) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, code, status.Code(err), err.Error())
}

func TestServiceRadios(t *testing.T) {
	ctx := repeater.New(static.NewBridge())
	client := serveRepeater(t, ctx)
	bg := context.Background()

	_, err := client.AddRadio(bg, wrapperspb.String("wifi0"))
	require.NoError(t, err)
	_, err = client.AddRadio(bg, wrapperspb.String("wifi1"))
	require.NoError(t, err)

	_, err = client.AddRadio(bg, wrapperspb.String("wifi0"))
	requireCode(t, codes.AlreadyExists, err)
	_, err = client.AddRadio(bg, wrapperspb.String(""))
	requireCode(t, codes.InvalidArgument, err)

	_, err = client.SetPrimaryRadio(bg, wrapperspb.String("wifi0"))
	require.NoError(t, err)

	update, err := structpb.NewStruct(map[string]any{"radio": "wifi1", "fast_lane": true})
	require.NoError(t, err)
	_, err = client.UpdateRadio(bg, update)
	require.NoError(t, err)

	update, err = structpb.NewStruct(map[string]any{"radio": "wifi9", "no_backhaul": true})
	require.NoError(t, err)
	_, err = client.UpdateRadio(bg, update)
	requireCode(t, codes.NotFound, err)

	update, err = structpb.NewStruct(map[string]any{"radio": "wifi1", "fast_lane": "yes"})
	require.NoError(t, err)
	_, err = client.UpdateRadio(bg, update)
	requireCode(t, codes.InvalidArgument, err)

	primary, ok := ctx.PrimaryRadio()
	require.True(t, ok)
	require.Equal(t, repeater.RadioID("wifi0"), primary)

	radios := map[repeater.RadioID]repeater.RadioKind{}
	for radio := range ctx.Radios() {
		radios[radio.ID] = radio.Kind
	}
	require.Equal(t, map[repeater.RadioID]repeater.RadioKind{
		"wifi0": 0,
		"wifi1": repeater.RadioFastLane,
	}, radios)

	_, err = client.RemoveRadio(bg, wrapperspb.String("wifi1"))
	require.NoError(t, err)
	_, err = client.RemoveRadio(bg, wrapperspb.String("wifi1"))
	requireCode(t, codes.NotFound, err)
}

func TestServicePolicy(t *testing.T) {
	ctx := repeater.New(static.NewBridge())
	client := serveRepeater(t, ctx)
	bg := context.Background()

	update, err := structpb.NewStruct(map[string]any{
		"enabled":        true,
		"always_primary": true,
	})
	require.NoError(t, err)
	_, err = client.UpdatePolicy(bg, update)
	require.NoError(t, err)

	state := ctx.State()
	require.True(t, state.Enabled)
	require.True(t, state.AlwaysPrimary)
	require.False(t, state.DropSecondaryMulticast)

	// A bad field rejects the whole update.
	update, err = structpb.NewStruct(map[string]any{
		"always_primary":   false,
		"drop_multicast":   true,
		"force_client_mcs": true,
	})
	require.NoError(t, err)
	_, err = client.UpdatePolicy(bg, update)
	requireCode(t, codes.InvalidArgument, err)
	require.True(t, ctx.State().AlwaysPrimary)

	update, err = structpb.NewStruct(map[string]any{"enabled": false})
	require.NoError(t, err)
	_, err = client.UpdatePolicy(bg, update)
	require.NoError(t, err)
	require.False(t, ctx.State().Enabled)
}

func TestServiceStateAndStats(t *testing.T) {
	sta0 := static.NewDevice("sta0", "wifi0", repeater.RoleStation, xnet.MustParseMAC("02:00:00:00:00:10"))
	sta1 := static.NewDevice("sta1", "wifi1", repeater.RoleStation, xnet.MustParseMAC("02:00:00:00:00:20"))
	bridge := static.NewBridge(sta0, sta1)
	bridge.Learn(sta0.HardwareAddr(), 0, sta0, true)

	ctx := repeater.New(bridge)
	require.NoError(t, ctx.Apply(&repeater.Config{
		Policy:       repeater.Policy{Enabled: true},
		PrimaryRadio: "wifi0",
		Radios:       []repeater.RadioConfig{{ID: "wifi0"}, {ID: "wifi1"}},
	}))
	require.NoError(t, ctx.AddStationVAP("wifi0", sta0))
	require.NoError(t, ctx.AddStationVAP("wifi1", sta1))
	ctx.AppendStationCount(true)
	ctx.AppendStationCount(true)

	// The primary station's own multicast coming back on the secondary
	// uplink.
	frame := repeater.Frame{Src: sta0.HardwareAddr(), Dst: xnet.MustParseMAC("01:00:5e:00:00:fb"), Multicast: true}
	require.Equal(t, repeater.Drop, ctx.STAReceive(sta1, &frame))

	client := serveRepeater(t, ctx)
	bg := context.Background()

	state, err := client.ShowState(bg, &emptypb.Empty{})
	require.NoError(t, err)
	fields := state.AsMap()
	require.Equal(t, true, fields["loop_detected"])
	require.Equal(t, true, fields["needs_processing"])
	require.Equal(t, float64(2), fields["station_count"])
	require.Equal(t, "wifi0", fields["primary_radio"])
	require.Equal(t, []any{
		map[string]any{"id": "wifi0", "kind": "regular", "primary": true, "station": "sta0"},
		map[string]any{"id": "wifi1", "kind": "regular", "primary": false, "station": "sta1"},
	}, fields["radios"])

	stats, err := client.ShowStats(bg, &emptypb.Empty{})
	require.NoError(t, err)
	require.Equal(t, float64(1), stats.AsMap()["sta_rx_sec_sta_mcast_dup"])
	require.Equal(t, float64(1), stats.AsMap()["loop_detected"])

	_, err = client.ResetStats(bg, &emptypb.Empty{})
	require.NoError(t, err)
	require.Zero(t, ctx.Counter(repeater.CounterSTARxSecMcastDup))
}
