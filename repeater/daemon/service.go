package daemon

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/yanet-platform/mlrepeater/repeater"
	"github.com/yanet-platform/mlrepeater/repeater/repeaterpb"
)

// RepeaterService exposes runtime management of the forwarding engines.
type RepeaterService struct {
	repeaterpb.UnimplementedRepeaterServiceServer

	repeater *repeater.Context
	log      *zap.SugaredLogger
}

// NewRepeaterService creates a new management service.
func NewRepeaterService(ctx *repeater.Context, log *zap.SugaredLogger) *RepeaterService {
	return &RepeaterService{
		repeater: ctx,
		log:      log,
	}
}

func (m *RepeaterService) ShowState(
	ctx context.Context,
	request *emptypb.Empty,
) (*structpb.Struct, error) {
	state := m.repeater.State()
	primary, _ := m.repeater.PrimaryRadio()

	radios := []any{}
	for radio := range m.repeater.Radios() {
		radios = append(radios, map[string]any{
			"id":      string(radio.ID),
			"kind":    radio.Kind.String(),
			"primary": radio.Primary,
			"station": radio.Station,
		})
	}

	response, err := structpb.NewStruct(map[string]any{
		"enabled":                  state.Enabled,
		"always_primary":           state.AlwaysPrimary,
		"drop_secondary_multicast": state.DropSecondaryMulticast,
		"force_client_multicast":   state.ForceClientMulticast,
		"loop_detected":            state.LoopDetected,
		"station_count":            float64(state.StationCount),
		"needs_processing":         state.NeedsProcessing(),
		"primary_radio":            string(primary),
		"radios":                   radios,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode state: %v", err)
	}
	return response, nil
}

func (m *RepeaterService) ShowStats(
	ctx context.Context,
	request *emptypb.Empty,
) (*structpb.Struct, error) {
	fields := map[string]*structpb.Value{}
	for name, value := range m.repeater.Stats() {
		fields[name] = structpb.NewNumberValue(float64(value))
	}
	return &structpb.Struct{Fields: fields}, nil
}

func (m *RepeaterService) ResetStats(
	ctx context.Context,
	request *emptypb.Empty,
) (*emptypb.Empty, error) {
	m.repeater.ResetStats()
	m.log.Infow("reset decision counters")
	return &emptypb.Empty{}, nil
}

func (m *RepeaterService) AddRadio(
	ctx context.Context,
	request *wrapperspb.StringValue,
) (*emptypb.Empty, error) {
	radio, err := radioID(request.GetValue())
	if err != nil {
		return nil, err
	}
	if err := m.repeater.AddRadio(radio); err != nil {
		return nil, statusFromError(err)
	}
	return &emptypb.Empty{}, nil
}

func (m *RepeaterService) RemoveRadio(
	ctx context.Context,
	request *wrapperspb.StringValue,
) (*emptypb.Empty, error) {
	radio, err := radioID(request.GetValue())
	if err != nil {
		return nil, err
	}
	if err := m.repeater.RemoveRadio(radio); err != nil {
		return nil, statusFromError(err)
	}
	return &emptypb.Empty{}, nil
}

func (m *RepeaterService) UpdateRadio(
	ctx context.Context,
	request *structpb.Struct,
) (*emptypb.Empty, error) {
	radio, err := radioID(request.GetFields()["radio"].GetStringValue())
	if err != nil {
		return nil, err
	}
	fastLane, hasFastLane, err := optionalBool(request, "fast_lane")
	if err != nil {
		return nil, err
	}
	noBackhaul, hasNoBackhaul, err := optionalBool(request, "no_backhaul")
	if err != nil {
		return nil, err
	}
	if err := rejectUnknownFields(request, "radio", "fast_lane", "no_backhaul"); err != nil {
		return nil, err
	}

	if hasFastLane {
		if err := m.repeater.SetFastLane(radio, fastLane); err != nil {
			return nil, statusFromError(err)
		}
	}
	if hasNoBackhaul {
		if err := m.repeater.SetNoBackhaul(radio, noBackhaul); err != nil {
			return nil, statusFromError(err)
		}
	}
	return &emptypb.Empty{}, nil
}

func (m *RepeaterService) SetPrimaryRadio(
	ctx context.Context,
	request *wrapperspb.StringValue,
) (*emptypb.Empty, error) {
	radio, err := radioID(request.GetValue())
	if err != nil {
		return nil, err
	}
	m.repeater.SetPrimaryRadio(radio)
	return &emptypb.Empty{}, nil
}

func (m *RepeaterService) UpdatePolicy(
	ctx context.Context,
	request *structpb.Struct,
) (*emptypb.Empty, error) {
	setters := []struct {
		name string
		set  func(on bool)
	}{
		{"enabled", m.setEnabled},
		{"always_primary", m.repeater.SetAlwaysPrimary},
		{"drop_secondary_multicast", m.repeater.SetDropSecondaryMulticast},
		{"force_client_multicast", m.repeater.SetForceClientMulticast},
	}

	names := make([]string, 0, len(setters))
	for _, setter := range setters {
		names = append(names, setter.name)
	}
	if err := rejectUnknownFields(request, names...); err != nil {
		return nil, err
	}

	// Validate everything before applying anything.
	values := make([]*bool, len(setters))
	for idx, setter := range setters {
		value, ok, err := optionalBool(request, setter.name)
		if err != nil {
			return nil, err
		}
		if ok {
			values[idx] = &value
		}
	}

	for idx, setter := range setters {
		if values[idx] != nil {
			setter.set(*values[idx])
		}
	}
	return &emptypb.Empty{}, nil
}

func (m *RepeaterService) setEnabled(on bool) {
	if on {
		m.repeater.Init()
	} else {
		m.repeater.Deinit()
	}
}

func radioID(value string) (repeater.RadioID, error) {
	if value == "" {
		return "", status.Error(codes.InvalidArgument, "radio is required")
	}
	return repeater.RadioID(value), nil
}

func optionalBool(request *structpb.Struct, name string) (bool, bool, error) {
	value, ok := request.GetFields()[name]
	if !ok {
		return false, false, nil
	}
	kind, ok := value.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, false, status.Errorf(codes.InvalidArgument, "%s must be a bool", name)
	}
	return kind.BoolValue, true, nil
}

func rejectUnknownFields(request *structpb.Struct, known ...string) error {
	unknown := []string{}
	for name := range request.GetFields() {
		if !slices.Contains(known, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	slices.Sort(unknown)
	return status.Errorf(codes.InvalidArgument, "unknown fields: %s", strings.Join(unknown, ", "))
}

func statusFromError(err error) error {
	switch {
	case errors.Is(err, repeater.ErrRadioExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, repeater.ErrRadioNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, repeater.ErrStationMapped):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, fmt.Sprintf("unexpected error: %v", err))
	}
}
